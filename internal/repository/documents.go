package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/entity"
)

type DocumentFileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentFile, error)
	GetByOrgAndHash(ctx context.Context, orgID string, hash []byte) (*entity.DocumentFile, error)
	Create(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, error)
	UpsertByHash(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, bool, error)
}

type documentFileRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentFileRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentFileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentFileRepo{pool: pool, logger: logger}
}

const documentFileColumns = `id, org_id, source_path, content_hash, filename, file_ext, file_size, uploaded_at`

func scanDocumentFile(row pgx.Row) (*entity.DocumentFile, error) {
	var f entity.DocumentFile
	err := row.Scan(&f.ID, &f.OrgID, &f.SourcePath, &f.ContentHash, &f.Filename, &f.FileExt, &f.FileSize, &f.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError("FILE_NOT_FOUND", "document file not found", common.ErrNotFound)
		}
		return nil, common.WrapError(err, "scan document file")
	}
	return &f, nil
}

func (r *documentFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentFile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentFileColumns+` FROM document_files WHERE id = $1`, id)
	return scanDocumentFile(row)
}

func (r *documentFileRepo) GetByOrgAndHash(ctx context.Context, orgID string, hash []byte) (*entity.DocumentFile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentFileColumns+` FROM document_files WHERE org_id = $1 AND content_hash = $2`, orgID, hash)
	return scanDocumentFile(row)
}

func (r *documentFileRepo) Create(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO document_files (`+documentFileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.OrgID, f.SourcePath, f.ContentHash, f.Filename, f.FileExt, f.FileSize, f.UploadedAt)
	if err != nil {
		r.logger.Error("repo.files.create_error", "org_id", f.OrgID, "filename", f.Filename, "error", err)
		return nil, common.WrapError(err, "create document file")
	}
	return f, nil
}

// UpsertByHash returns the existing row for a duplicate upload; the
// second return reports whether the file was already known.
func (r *documentFileRepo) UpsertByHash(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, bool, error) {
	if existing, err := r.GetByOrgAndHash(ctx, f.OrgID, f.ContentHash); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	created, err := r.Create(ctx, f)
	if err != nil {
		return nil, false, err
	}
	return created, false, nil
}
