package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Format   string // "PDF" | "TXT"
	Method   string // "pdf-text" | "pdf-ocr" | "plain-text"
	Language string
	OCRUsed  bool
	Duration time.Duration
	Warnings []string
}
