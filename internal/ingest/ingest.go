package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/vedvix/syncledger-extract/constants"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	FileID       string
	Deduplicated bool
	HashHex      string
	FileExt      string
	UploadedAt   time.Time
	Enqueued     bool
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the intake surfaces depend on.
type Ingestor interface {
	// IngestPath ingests a single path.
	IngestPath(ctx context.Context, orgID string, path string) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, orgID string, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}

// AllowedExt reports whether the extension names a supported document
// format.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden reports whether a file or directory name starts with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
