package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job identifies one registered document file awaiting extraction. The
// TraceID, when set, follows the job through processing and into the
// log records it produces.
type Job struct {
	FileID      uuid.UUID
	SubmittedAt time.Time
	TraceID     string
}

// Queue decouples intake (watcher, CLI) from the extraction workers.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
