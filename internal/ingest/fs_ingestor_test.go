package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedvix/syncledger-extract/internal/async"
	"github.com/vedvix/syncledger-extract/internal/entity"
)

type memFiles struct {
	byHash map[string]*entity.DocumentFile
}

func newMemFiles() *memFiles {
	return &memFiles{byHash: make(map[string]*entity.DocumentFile)}
}

func (m *memFiles) key(orgID string, hash []byte) string { return orgID + "/" + string(hash) }

func (m *memFiles) GetByID(_ context.Context, id uuid.UUID) (*entity.DocumentFile, error) {
	for _, f := range m.byHash {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, os.ErrNotExist
}
func (m *memFiles) GetByOrgAndHash(_ context.Context, orgID string, hash []byte) (*entity.DocumentFile, error) {
	f, ok := m.byHash[m.key(orgID, hash)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return f, nil
}
func (m *memFiles) Create(_ context.Context, f *entity.DocumentFile) (*entity.DocumentFile, error) {
	f.ID = uuid.New()
	m.byHash[m.key(f.OrgID, f.ContentHash)] = f
	return f, nil
}
func (m *memFiles) UpsertByHash(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, bool, error) {
	if existing, ok := m.byHash[m.key(f.OrgID, f.ContentHash)]; ok {
		return existing, true, nil
	}
	created, err := m.Create(ctx, f)
	return created, false, err
}

type recordingQueue struct {
	jobs []async.Job
}

func (r *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}
func (r *recordingQueue) Shutdown(context.Context) {}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestIngestPathRegistersAndEnqueues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "invoice.pdf", []byte("%PDF-1.4 fake"))
	files := newMemFiles()
	queue := &recordingQueue{}

	res, err := NewFSIngestor(files, queue, nil).IngestPath(context.Background(), "org-1", path)
	require.NoError(t, err)

	assert.Equal(t, "pdf", res.FileExt)
	assert.False(t, res.Deduplicated)
	assert.True(t, res.Enqueued)
	assert.Len(t, res.HashHex, 64)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, res.FileID, queue.jobs[0].FileID.String())
}

func TestIngestPathDeduplicates(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("same bytes "), 100)
	first := writeFile(t, dir, "a.pdf", content)
	second := writeFile(t, dir, "b.pdf", content)
	files := newMemFiles()
	queue := &recordingQueue{}
	ing := NewFSIngestor(files, queue, nil)

	r1, err := ing.IngestPath(context.Background(), "org-1", first)
	require.NoError(t, err)
	r2, err := ing.IngestPath(context.Background(), "org-1", second)
	require.NoError(t, err)

	assert.False(t, r1.Deduplicated)
	assert.True(t, r2.Deduplicated)
	assert.False(t, r2.Enqueued)
	assert.Equal(t, r1.FileID, r2.FileID)
	assert.Len(t, queue.jobs, 1)
}

func TestIngestPathRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "photo.heic", []byte("not a document"))

	_, err := NewFSIngestor(newMemFiles(), nil, nil).IngestPath(context.Background(), "org-1", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestIngestDirectoryWalks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.pdf", []byte("first"))
	writeFile(t, dir, "two.txt", []byte("second"))
	writeFile(t, dir, "skip.png", []byte("third"))
	hidden := filepath.Join(dir, ".cache")
	require.NoError(t, os.Mkdir(hidden, 0o755))
	writeFile(t, hidden, "ignored.pdf", []byte("fourth"))

	files := newMemFiles()
	results, stats, err := NewFSIngestor(files, nil, nil).
		IngestDirectory(context.Background(), "org-1", dir, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(0), stats.Failed)
	assert.Len(t, results, 2)
}

func TestIngestDirectoryRequiresRoot(t *testing.T) {
	_, _, err := NewFSIngestor(newMemFiles(), nil, nil).
		IngestDirectory(context.Background(), "org-1", "  ", false)
	require.Error(t, err)
}
