package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedvix/syncledger-extract/internal/cascade"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/extract"
	"github.com/vedvix/syncledger-extract/internal/pipeline"
	"github.com/vedvix/syncledger-extract/internal/repository"
)

// countingFiles fails every lookup so ProcessFile returns fast; the
// counter tells us how many jobs the workers actually picked up.
type countingFiles struct {
	calls atomic.Int64
}

func (c *countingFiles) GetByID(context.Context, uuid.UUID) (*entity.DocumentFile, error) {
	c.calls.Add(1)
	return nil, errors.New("no such file")
}
func (c *countingFiles) GetByOrgAndHash(context.Context, string, []byte) (*entity.DocumentFile, error) {
	return nil, errors.New("no such file")
}
func (c *countingFiles) Create(_ context.Context, f *entity.DocumentFile) (*entity.DocumentFile, error) {
	return f, nil
}
func (c *countingFiles) UpsertByHash(_ context.Context, f *entity.DocumentFile) (*entity.DocumentFile, bool, error) {
	return f, false, nil
}

type noopJobs struct{}

func (noopJobs) Start(_ context.Context, fileID uuid.UUID, orgID string) (*entity.ExtractJob, error) {
	return &entity.ExtractJob{ID: uuid.New(), FileID: fileID, OrgID: orgID}, nil
}
func (noopJobs) MarkTextOK(context.Context, uuid.UUID, string, bool) error { return nil }
func (noopJobs) FinishExtracted(context.Context, uuid.UUID, repository.JobOutcome) error {
	return nil
}
func (noopJobs) FinishFailure(context.Context, uuid.UUID, string) error { return nil }
func (noopJobs) GetByID(context.Context, uuid.UUID) (*entity.ExtractJob, error) {
	return nil, errors.New("not found")
}
func (noopJobs) ListNeedingReview(context.Context, string, int) ([]*entity.ExtractJob, error) {
	return nil, nil
}
func (noopJobs) ListExtracted(context.Context, string, *time.Time, *time.Time) ([]*entity.ExtractJob, error) {
	return nil, nil
}

type noopText struct{}

func (noopText) Extract(context.Context, string) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{}, errors.New("unreachable")
}

func newQueueUnderTest(files repository.DocumentFileRepository, opts ...Option) *ProcessorQueue {
	ctrl := cascade.New(cascade.Config{}, cascade.Deps{}, nil)
	proc := pipeline.NewProcessor(noopText{}, ctrl, nil, files, noopJobs{}, nil)
	return NewProcessorQueue(proc, nil, opts...)
}

func TestQueueDrainsAllJobsOnShutdown(t *testing.T) {
	files := &countingFiles{}
	q := newQueueUnderTest(files, WithWorkers(2), WithQueueSize(16))

	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{FileID: uuid.New()}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, int64(n), files.calls.Load())
}

func TestQueueEnqueueAfterShutdownIsNoop(t *testing.T) {
	files := &countingFiles{}
	q := newQueueUnderTest(files)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: uuid.New()}))
	assert.Zero(t, files.calls.Load())
}

func TestQueueShutdownIsIdempotent(t *testing.T) {
	q := newQueueUnderTest(&countingFiles{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
	q.Shutdown(ctx)
}

func TestOptionsApply(t *testing.T) {
	q := newQueueUnderTest(&countingFiles{},
		WithWorkers(1), WithQueueSize(4), WithProcessTimeout(10*time.Second))
	assert.Equal(t, 1, q.workers)
	assert.Equal(t, 4, cap(q.ch))
	assert.Equal(t, 10*time.Second, q.timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
}
