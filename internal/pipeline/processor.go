package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/cascade"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/extract"
	"github.com/vedvix/syncledger-extract/internal/mapping"
	"github.com/vedvix/syncledger-extract/internal/repository"
	"github.com/vedvix/syncledger-extract/internal/validation"
)

// ProcessResult is the full output of one document run, also stored as
// the job's result_json.
type ProcessResult struct {
	JobID           uuid.UUID                 `json:"job_id"`
	FileID          uuid.UUID                 `json:"file_id"`
	Tier            constants.Tier            `json:"tier"`
	Document        *entity.ExtractedDocument `json:"document"`
	Mapped          *entity.MappedResult      `json:"mapped"`
	CrossValidation *validation.Result        `json:"cross_validation,omitempty"`
	FallbackReason  string                    `json:"fallback_reason,omitempty"`
	OCRUsed         bool                      `json:"ocr_used"`
	Pages           int                       `json:"pages"`
	ElapsedMS       int64                     `json:"elapsed_ms"`
}

// Processor coordinates the stages for one file: text extraction (with
// OCR fallback), the tiered field extraction cascade, field mapping, and
// job persistence.
type Processor struct {
	logger   *slog.Logger
	text     extract.TextExtractor
	cascade  *cascade.Controller
	engine   *mapping.Engine
	files    repository.DocumentFileRepository
	jobs     repository.ExtractJobRepository
	invoices repository.InvoiceRepository // nil -> job payload only
}

func NewProcessor(
	text extract.TextExtractor,
	casc *cascade.Controller,
	engine *mapping.Engine,
	files repository.DocumentFileRepository,
	jobs repository.ExtractJobRepository,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = mapping.NewEngine(logger)
	}
	return &Processor{
		logger:  logger,
		text:    text,
		cascade: casc,
		engine:  engine,
		files:   files,
		jobs:    jobs,
	}
}

// WithInvoiceStore makes the processor persist each finished document
// as invoice rows in addition to the job payload.
func (p *Processor) WithInvoiceStore(invoices repository.InvoiceRepository) *Processor {
	p.invoices = invoices
	return p
}

// ProcessFile runs the full pipeline for a stored document file and
// returns the job ID with the run result. The job row records failures.
func (p *Processor) ProcessFile(ctx context.Context, fileID uuid.UUID) (uuid.UUID, *ProcessResult, error) {
	file, err := p.files.GetByID(ctx, fileID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("get file: %w", err)
	}

	job, err := p.jobs.Start(ctx, file.ID, file.OrgID)
	if err != nil {
		return uuid.Nil, nil, err
	}

	res, err := p.run(ctx, job.ID, file)
	if err != nil {
		_ = p.jobs.FinishFailure(ctx, job.ID, err.Error())
		return job.ID, nil, err
	}
	return job.ID, res, nil
}

func (p *Processor) run(ctx context.Context, jobID uuid.UUID, file *entity.DocumentFile) (*ProcessResult, error) {
	textRes, err := p.text.Extract(ctx, file.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("text extract: %w", err)
	}
	if err := p.jobs.MarkTextOK(ctx, jobID, textRes.Text, textRes.OCRUsed); err != nil {
		return nil, err
	}
	p.logger.Info("pipeline.text.ok",
		"job_id", jobID,
		"method", textRes.Method,
		"pages", textRes.Pages,
		"ocr_used", textRes.OCRUsed,
	)

	pdfPath := ""
	if textRes.Format == constants.PDF {
		pdfPath = file.SourcePath
	}
	casRes, err := p.cascade.Extract(ctx, pdfPath, textRes.Text)
	if err != nil {
		return nil, fmt.Errorf("cascade: %w", err)
	}
	doc := casRes.Document

	profile := p.engine.SelectProfile(doc.Vendor.Name, "", file.OrgID)
	mapped := p.engine.Apply(doc.FieldSet(), doc.LineItems, mapping.ApplyOptions{
		Profile:        profile,
		OrgID:          file.OrgID,
		Confidence:     casRes.FinalConfidence,
		RequiresReview: doc.RequiresManualReview,
	})

	result := &ProcessResult{
		JobID:           jobID,
		FileID:          file.ID,
		Tier:            casRes.Tier,
		Document:        doc,
		Mapped:          mapped,
		CrossValidation: casRes.CrossValidation,
		FallbackReason:  casRes.FallbackReason,
		OCRUsed:         textRes.OCRUsed,
		Pages:           textRes.Pages,
		ElapsedMS:       casRes.ElapsedMS,
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	outcome := repository.JobOutcome{
		Tier:        casRes.Tier,
		Confidence:  casRes.FinalConfidence,
		NeedsReview: doc.RequiresManualReview,
		Result:      raw,
	}
	if casRes.Usage != nil {
		outcome.ModelName = casRes.Usage.Model
		outcome.PromptTokens = casRes.Usage.PromptTokens
		outcome.OutputTokens = casRes.Usage.OutputTokens
		outcome.CostUSD = casRes.Usage.CostUSD
	}
	if err := p.jobs.FinishExtracted(ctx, jobID, outcome); err != nil {
		return nil, err
	}

	if p.invoices != nil {
		stored := doc
		if mapped.Document != nil {
			stored = mapped.Document
		}
		if _, err := p.invoices.SaveDocument(ctx, jobID, file.OrgID, casRes.Tier, stored); err != nil {
			// the job payload is already durable; row storage is best effort
			p.logger.Warn("pipeline.invoice_store_failed", "job_id", jobID, "error", err)
		}
	}

	p.logger.Info("pipeline.done",
		"job_id", jobID,
		"tier", casRes.Tier,
		"confidence", casRes.FinalConfidence,
		"needs_review", doc.RequiresManualReview,
		"profile", mapped.ProfileID,
	)
	return result, nil
}
