package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/async"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/repository"
)

// FSIngestor reads documents from the local filesystem, deduplicates
// them by content hash, and hands new files to the extraction queue.
type FSIngestor struct {
	files  repository.DocumentFileRepository
	queue  async.Queue // nil -> register files without queueing extraction
	logger *slog.Logger
}

func NewFSIngestor(files repository.DocumentFileRepository, queue async.Queue, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{files: files, queue: queue, logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, orgID string, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			i.logger.Warn("ingest.close_error", "path", abs, "error", cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, fmt.Errorf("hash: %w", err)
	}
	sum := h.Sum(nil)
	now := time.Now().UTC()

	row, dedup, err := i.files.UpsertByHash(ctx, &entity.DocumentFile{
		OrgID:       orgID,
		SourcePath:  abs,
		ContentHash: sum,
		Filename:    filepath.Base(abs),
		FileExt:     ext,
		FileSize:    int(info.Size()),
		UploadedAt:  now,
	})
	if err != nil {
		return out, err
	}

	out = IngestionResult{
		SourcePath:   row.SourcePath,
		FileID:       row.ID.String(),
		Deduplicated: dedup,
		HashHex:      hex.EncodeToString(sum),
		FileExt:      row.FileExt,
		UploadedAt:   row.UploadedAt,
	}

	if i.queue != nil && !dedup {
		if err := i.queue.Enqueue(ctx, async.Job{FileID: row.ID, SubmittedAt: now}); err != nil {
			i.logger.Warn("ingest.enqueue_error", "file_id", row.ID, "error", err)
		} else {
			out.Enqueued = true
		}
	}

	i.logger.Info("ingest.file.ok",
		"path", abs, "file_id", row.ID, "dedup", dedup, "enqueued", out.Enqueued)
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and
// calls IngestPath for each matching file. Returns per-file results
// plus aggregate stats.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	orgID string,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if !AllowedExt(ext) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, orgID, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("ingest.dir.done",
		"root", root, "matched", stats.Matched, "succeeded", stats.Succeeded,
		"dedup", stats.Deduplicated, "failed", stats.Failed)
	return results, stats, nil
}
