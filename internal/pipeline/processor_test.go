package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/cascade"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/extract"
	"github.com/vedvix/syncledger-extract/internal/repository"
)

const purchaseOrderText = `72007125
MGD Construction Services
Order Date
01/15/2025
Product Name
Quantity
Price
Gutter Installation - Standard Run
13.16 $130.00 $1,710.80
Total Due: $1,710.80`

type fakeTextExtractor struct {
	res extract.TextExtractionResult
	err error
}

func (f *fakeTextExtractor) Extract(_ context.Context, _ string) (extract.TextExtractionResult, error) {
	return f.res, f.err
}

type fakeFiles struct {
	file *entity.DocumentFile
}

func (f *fakeFiles) GetByID(_ context.Context, id uuid.UUID) (*entity.DocumentFile, error) {
	if f.file == nil || f.file.ID != id {
		return nil, errors.New("not found")
	}
	return f.file, nil
}
func (f *fakeFiles) GetByOrgAndHash(context.Context, string, []byte) (*entity.DocumentFile, error) {
	return nil, errors.New("not found")
}
func (f *fakeFiles) Create(_ context.Context, file *entity.DocumentFile) (*entity.DocumentFile, error) {
	return file, nil
}
func (f *fakeFiles) UpsertByHash(_ context.Context, file *entity.DocumentFile) (*entity.DocumentFile, bool, error) {
	return file, false, nil
}

type fakeJobs struct {
	started  int
	textOK   bool
	rawText  string
	outcome  *repository.JobOutcome
	failure  string
	finished bool
}

func (f *fakeJobs) Start(_ context.Context, fileID uuid.UUID, orgID string) (*entity.ExtractJob, error) {
	f.started++
	return &entity.ExtractJob{ID: uuid.New(), FileID: fileID, OrgID: orgID, Status: constants.JobStatusRunning}, nil
}
func (f *fakeJobs) MarkTextOK(_ context.Context, _ uuid.UUID, rawText string, _ bool) error {
	f.textOK = true
	f.rawText = rawText
	return nil
}
func (f *fakeJobs) FinishExtracted(_ context.Context, _ uuid.UUID, outcome repository.JobOutcome) error {
	f.outcome = &outcome
	f.finished = true
	return nil
}
func (f *fakeJobs) FinishFailure(_ context.Context, _ uuid.UUID, message string) error {
	f.failure = message
	return nil
}
func (f *fakeJobs) GetByID(context.Context, uuid.UUID) (*entity.ExtractJob, error) {
	return nil, errors.New("not found")
}
func (f *fakeJobs) ListNeedingReview(context.Context, string, int) ([]*entity.ExtractJob, error) {
	return nil, nil
}
func (f *fakeJobs) ListExtracted(context.Context, string, *time.Time, *time.Time) ([]*entity.ExtractJob, error) {
	return nil, nil
}

type fakeInvoices struct {
	jobID uuid.UUID
	orgID string
	tier  constants.Tier
	doc   *entity.ExtractedDocument
}

func (f *fakeInvoices) SaveDocument(_ context.Context, jobID uuid.UUID, orgID string, tier constants.Tier, doc *entity.ExtractedDocument) (uuid.UUID, error) {
	f.jobID = jobID
	f.orgID = orgID
	f.tier = tier
	f.doc = doc
	return uuid.New(), nil
}
func (f *fakeInvoices) GetByJobID(context.Context, uuid.UUID) (*entity.ExtractedDocument, constants.Tier, error) {
	return f.doc, f.tier, nil
}

func newTestProcessor(text extract.TextExtractor, jobs repository.ExtractJobRepository, files repository.DocumentFileRepository) *Processor {
	ctrl := cascade.New(cascade.Config{EnableValidation: true}, cascade.Deps{}, nil)
	return NewProcessor(text, ctrl, nil, files, jobs, nil)
}

func TestProcessFilePatternTier(t *testing.T) {
	file := &entity.DocumentFile{ID: uuid.New(), SourcePath: "/tmp/72007125.pdf", FileExt: "pdf"}
	jobs := &fakeJobs{}
	text := &fakeTextExtractor{res: extract.TextExtractionResult{
		Text:   purchaseOrderText,
		Pages:  1,
		Format: constants.PDF,
		Method: "pdf-text",
	}}

	jobID, res, err := newTestProcessor(text, jobs, &fakeFiles{file: file}).ProcessFile(context.Background(), file.ID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, jobID)

	assert.True(t, jobs.textOK)
	assert.True(t, jobs.finished)
	require.NotNil(t, jobs.outcome)
	assert.Equal(t, constants.TierPattern, jobs.outcome.Tier)
	assert.NotEmpty(t, jobs.outcome.Result)

	require.NotNil(t, res)
	assert.Equal(t, constants.TierPattern, res.Tier)
	require.NotNil(t, res.Document)
	assert.Equal(t, "MGD Construction Services", res.Document.Vendor.Name)
	require.NotNil(t, res.Mapped)
	// vendor matches the subcontractor profile, which promotes the PO number
	assert.Equal(t, "72007125", res.Mapped.Fields[constants.TgtInvoiceNumber].Text)
	assert.Equal(t, "5100", res.Mapped.GLAccount)
}

func TestProcessFileStoresInvoiceRows(t *testing.T) {
	file := &entity.DocumentFile{ID: uuid.New(), OrgID: "org-1", SourcePath: "/tmp/72007125.pdf", FileExt: "pdf"}
	jobs := &fakeJobs{}
	invoices := &fakeInvoices{}
	text := &fakeTextExtractor{res: extract.TextExtractionResult{
		Text:   purchaseOrderText,
		Pages:  1,
		Format: constants.PDF,
		Method: "pdf-text",
	}}

	proc := newTestProcessor(text, jobs, &fakeFiles{file: file}).WithInvoiceStore(invoices)
	jobID, _, err := proc.ProcessFile(context.Background(), file.ID)
	require.NoError(t, err)

	assert.Equal(t, jobID, invoices.jobID)
	assert.Equal(t, "org-1", invoices.orgID)
	assert.Equal(t, constants.TierPattern, invoices.tier)
	require.NotNil(t, invoices.doc)
	assert.Equal(t, "MGD Construction Services", invoices.doc.Vendor.Name)
	// line items carry the profile's default account after mapping
	if len(invoices.doc.LineItems) > 0 {
		assert.Equal(t, "5100", invoices.doc.LineItems[0].GLAccount)
	}
}

func TestProcessFileTextExtractFailureRecorded(t *testing.T) {
	file := &entity.DocumentFile{ID: uuid.New(), SourcePath: "/tmp/bad.pdf", FileExt: "pdf"}
	jobs := &fakeJobs{}
	text := &fakeTextExtractor{err: errors.New("pdftotext exploded")}

	_, _, err := newTestProcessor(text, jobs, &fakeFiles{file: file}).ProcessFile(context.Background(), file.ID)
	require.Error(t, err)
	assert.Contains(t, jobs.failure, "pdftotext exploded")
	assert.False(t, jobs.finished)
}

func TestProcessFileUnknownFile(t *testing.T) {
	jobs := &fakeJobs{}
	_, _, err := newTestProcessor(&fakeTextExtractor{}, jobs, &fakeFiles{}).ProcessFile(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Zero(t, jobs.started)
}
