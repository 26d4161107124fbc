package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/entity"
)

type ExtractJobRepository interface {
	Start(ctx context.Context, fileID uuid.UUID, orgID string) (*entity.ExtractJob, error)
	MarkTextOK(ctx context.Context, jobID uuid.UUID, rawText string, ocrUsed bool) error
	FinishExtracted(ctx context.Context, jobID uuid.UUID, outcome JobOutcome) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	ListNeedingReview(ctx context.Context, orgID string, limit int) ([]*entity.ExtractJob, error)
	ListExtracted(ctx context.Context, orgID string, from, to *time.Time) ([]*entity.ExtractJob, error)
}

// JobOutcome is everything a finished extraction writes back to the job.
type JobOutcome struct {
	Tier         constants.Tier
	Confidence   float64
	NeedsReview  bool
	Result       json.RawMessage
	ModelName    string
	PromptTokens int
	OutputTokens int
	CostUSD      float64
}

type extractJobRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewExtractJobRepository(pool *pgxpool.Pool, logger *slog.Logger) ExtractJobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractJobRepo{pool: pool, logger: logger}
}

func (r *extractJobRepo) Start(ctx context.Context, fileID uuid.UUID, orgID string) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:        uuid.New(),
		FileID:    fileID,
		OrgID:     orgID,
		Status:    constants.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO extract_jobs (id, file_id, org_id, status, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.FileID, job.OrgID, string(job.Status), job.StartedAt)
	if err != nil {
		r.logger.Error("repo.jobs.start_error", "file_id", fileID, "error", err)
		return nil, common.WrapError(err, "start extract job")
	}
	r.logger.Info("repo.jobs.started", "job_id", job.ID, "file_id", fileID)
	return job, nil
}

func (r *extractJobRepo) MarkTextOK(ctx context.Context, jobID uuid.UUID, rawText string, ocrUsed bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE extract_jobs SET status = $2, raw_text = $3, ocr_used = $4 WHERE id = $1`,
		jobID, string(constants.JobStatusTextOK), rawText, ocrUsed)
	if err != nil {
		r.logger.Error("repo.jobs.text_ok_error", "job_id", jobID, "error", err)
		return common.WrapError(err, "mark job text ok")
	}
	return nil
}

func (r *extractJobRepo) FinishExtracted(ctx context.Context, jobID uuid.UUID, outcome JobOutcome) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE extract_jobs
		 SET status = $2, tier = $3, confidence = $4, needs_review = $5,
		     result_json = $6, model_name = NULLIF($7, ''), prompt_tokens = $8,
		     output_tokens = $9, cost_usd = $10, finished_at = $11
		 WHERE id = $1`,
		jobID, string(constants.JobStatusExtracted), string(outcome.Tier), outcome.Confidence, outcome.NeedsReview,
		outcome.Result, outcome.ModelName, outcome.PromptTokens,
		outcome.OutputTokens, outcome.CostUSD, time.Now().UTC())
	if err != nil {
		r.logger.Error("repo.jobs.finish_error", "job_id", jobID, "error", err)
		return common.WrapError(err, "finish extract job")
	}
	r.logger.Info("repo.jobs.finished", "job_id", jobID, "tier", outcome.Tier, "confidence", outcome.Confidence, "needs_review", outcome.NeedsReview)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE extract_jobs SET status = $2, error_message = $3, finished_at = $4 WHERE id = $1`,
		jobID, string(constants.JobStatusFailed), message, time.Now().UTC())
	if err != nil {
		r.logger.Error("repo.jobs.fail_error", "job_id", jobID, "error", err)
		return common.WrapError(err, "fail extract job")
	}
	r.logger.Warn("repo.jobs.failed", "job_id", jobID, "error_message", message)
	return nil
}

const extractJobColumns = `id, file_id, org_id, status, tier, started_at, finished_at, error_message,
	confidence, needs_review, ocr_used, raw_text, result_json, model_name, prompt_tokens, output_tokens, cost_usd`

func scanExtractJob(row pgx.Row) (*entity.ExtractJob, error) {
	var j entity.ExtractJob
	var tier *string
	err := row.Scan(&j.ID, &j.FileID, &j.OrgID, &j.Status, &tier, &j.StartedAt, &j.FinishedAt,
		&j.ErrorMessage, &j.Confidence, &j.NeedsReview, &j.OCRUsed, &j.RawText,
		&j.ResultJSON, &j.ModelName, &j.PromptTokens, &j.OutputTokens, &j.CostUSD)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError("JOB_NOT_FOUND", "extract job not found", common.ErrNotFound)
		}
		return nil, common.WrapError(err, "scan extract job")
	}
	if tier != nil {
		j.Tier = constants.Tier(*tier)
	}
	return &j, nil
}

func (r *extractJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+extractJobColumns+` FROM extract_jobs WHERE id = $1`, jobID)
	return scanExtractJob(row)
}

func (r *extractJobRepo) ListNeedingReview(ctx context.Context, orgID string, limit int) ([]*entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+extractJobColumns+`
		 FROM extract_jobs
		 WHERE org_id = $1 AND status = $2 AND needs_review
		 ORDER BY started_at DESC
		 LIMIT $3`,
		orgID, string(constants.JobStatusExtracted), limit)
	if err != nil {
		return nil, common.WrapError(err, "list review jobs")
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListExtracted returns finished jobs for an organization, optionally
// bounded by a started_at window. Nil bounds are open ended.
func (r *extractJobRepo) ListExtracted(ctx context.Context, orgID string, from, to *time.Time) ([]*entity.ExtractJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+extractJobColumns+`
		 FROM extract_jobs
		 WHERE org_id = $1 AND status = $2
		   AND ($3::timestamptz IS NULL OR started_at >= $3)
		   AND ($4::timestamptz IS NULL OR started_at < $4 + interval '1 day')
		 ORDER BY started_at ASC`,
		orgID, string(constants.JobStatusExtracted), from, to)
	if err != nil {
		return nil, common.WrapError(err, "list extracted jobs")
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]*entity.ExtractJob, error) {
	var jobs []*entity.ExtractJob
	for rows.Next() {
		j, err := scanExtractJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
