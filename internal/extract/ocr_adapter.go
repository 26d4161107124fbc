package extract

import (
	"context"

	"github.com/vedvix/syncledger-extract/internal/ocr"
)

type OCRAdapter struct {
	e *ocr.Extractor
}

func NewOCRAdapter(e *ocr.Extractor) *OCRAdapter {
	return &OCRAdapter{e: e}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.e.Extract(ctx, path)
	return TextExtractionResult{
		Text:     r.Text,
		Pages:    r.Pages,
		Format:   r.Format,
		Method:   r.Method,
		Language: r.Language,
		OCRUsed:  r.OCRUsed,
		Duration: r.Duration,
		Warnings: r.Warnings,
	}, err
}
