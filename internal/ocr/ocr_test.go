package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedvix/syncledger-extract/constants"
)

// scriptRunner fakes external binaries. pdftoppm calls drop page files
// next to the prefix argument so the glob step finds them.
type scriptRunner struct {
	pdfText   string
	pdfErr    error
	ocrText   string
	ocrErr    error
	pageExt   string
	pageCount int
	calls     []string
}

func (r *scriptRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, name)
	switch {
	case strings.Contains(name, "pdftotext"):
		if r.pdfErr != nil {
			return nil, []byte("pdftotext error"), r.pdfErr
		}
		return []byte(r.pdfText), nil, nil
	case strings.Contains(name, "pdftoppm"):
		prefix := args[len(args)-1]
		for i := 1; i <= r.pageCount; i++ {
			name := prefix + "-" + string(rune('0'+i)) + "." + r.pageExt
			if err := os.WriteFile(name, []byte("image-bytes"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case strings.Contains(name, "tesseract"):
		if r.ocrErr != nil {
			return nil, []byte("tesseract error"), r.ocrErr
		}
		return []byte(r.ocrText), nil, nil
	}
	return nil, nil, errors.New("unexpected command: " + name)
}

func newTestExtractor(r Runner) *Extractor {
	e := NewExtractor(Config{MaxPages: 5})
	e.runner = r
	return e
}

func TestNeedsOCR(t *testing.T) {
	assert.True(t, NeedsOCR("", 1))
	assert.True(t, NeedsOCR("short", 1))
	assert.True(t, NeedsOCR(strings.Repeat("x", 120), 10), "thin per-page yield")
	assert.False(t, NeedsOCR(strings.Repeat("x", 120), 2))
	assert.False(t, NeedsOCR(strings.Repeat("x", 5000), 5))
}

func TestExtractPDFTextLayer(t *testing.T) {
	body := strings.Repeat("Invoice Number: 72007\nTotal Due: $1,710.80\n", 10)
	r := &scriptRunner{pdfText: body + "\f" + body}
	res, err := newTestExtractor(r).Extract(context.Background(), "/tmp/invoice.pdf")
	require.NoError(t, err)

	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, constants.PDF, res.Format)
	assert.Equal(t, 2, res.Pages)
	assert.False(t, res.OCRUsed)
	assert.NotContains(t, r.calls, "tesseract")
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	ocrBody := strings.Repeat("MGD Construction Services Invoice 72007\n", 10)
	r := &scriptRunner{pdfText: "  ", ocrText: ocrBody, pageExt: "png", pageCount: 2}
	res, err := newTestExtractor(r).Extract(context.Background(), "/tmp/scan.pdf")
	require.NoError(t, err)

	assert.Equal(t, "pdf-ocr", res.Method)
	assert.True(t, res.OCRUsed)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "MGD Construction Services")
	assert.Contains(t, res.Text, "\f")
}

func TestExtractPDFKeepsThinTextWhenOCRFails(t *testing.T) {
	r := &scriptRunner{pdfText: "Invoice 72007", ocrErr: errors.New("no tessdata"), pageExt: "png", pageCount: 1}
	res, err := newTestExtractor(r).Extract(context.Background(), "/tmp/scan.pdf")
	require.NoError(t, err)

	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, "Invoice 72007", res.Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte("Invoice Number: 72007"), 0o644))

	res, err := newTestExtractor(&scriptRunner{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "plain-text", res.Method)
	assert.Equal(t, constants.TXT, res.Format)
	assert.Equal(t, "Invoice Number: 72007", res.Text)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	_, err := newTestExtractor(&scriptRunner{}).Extract(context.Background(), "/tmp/invoice.xlsx")
	require.Error(t, err)
}

func TestRenderPages(t *testing.T) {
	r := &scriptRunner{pageExt: "jpg", pageCount: 3}
	pages, err := newTestExtractor(r).RenderPages(context.Background(), "/tmp/invoice.pdf", 5)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []byte("image-bytes"), pages[0])
}

func TestRenderPagesCapped(t *testing.T) {
	r := &scriptRunner{pageExt: "jpg", pageCount: 4}
	pages, err := newTestExtractor(r).RenderPages(context.Background(), "/tmp/invoice.pdf", 2)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestRenderPagesNoOutput(t *testing.T) {
	r := &scriptRunner{pageExt: "jpg", pageCount: 0}
	_, err := newTestExtractor(r).RenderPages(context.Background(), "/tmp/invoice.pdf", 2)
	require.Error(t, err)
}
