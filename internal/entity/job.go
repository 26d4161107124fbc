package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vedvix/syncledger-extract/constants"
)

// DocumentFile describes a stored source document awaiting extraction.
type DocumentFile struct {
	ID          uuid.UUID `json:"id"`
	OrgID       string    `json:"org_id,omitempty"`
	SourcePath  string    `json:"source_path"`
	ContentHash []byte    `json:"content_hash"`
	Filename    string    `json:"filename"`
	FileExt     string    `json:"file_ext"`
	FileSize    int       `json:"file_size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ExtractJob tracks one extraction run over a document file.
type ExtractJob struct {
	ID           uuid.UUID           `json:"id"`
	FileID       uuid.UUID           `json:"file_id"`
	OrgID        string              `json:"org_id,omitempty"`
	Status       constants.JobStatus `json:"status"`
	Tier         constants.Tier      `json:"tier,omitempty"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	Confidence   *float64            `json:"confidence,omitempty"`
	NeedsReview  bool                `json:"needs_review"`
	OCRUsed      bool                `json:"ocr_used"`
	RawText      *string             `json:"raw_text,omitempty"`
	ResultJSON   json.RawMessage     `json:"result_json,omitempty"`
	ModelName    *string             `json:"model_name,omitempty"`
	PromptTokens int                 `json:"prompt_tokens"`
	OutputTokens int                 `json:"output_tokens"`
	CostUSD      *float64            `json:"cost_usd,omitempty"`
}
