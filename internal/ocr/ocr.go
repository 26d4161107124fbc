package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vedvix/syncledger-extract/constants"
)

type Config struct {
	PDFToText string // binary name or absolute path; if empty -> "pdftotext"
	PDFToPPM  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string

	DPI          int // rasterization DPI, default 200
	MaxPages     int // page cap for OCR and vision rendering, 0 = no limit
	JPEGQuality  int // vision page quality, default 85
	MaxDimension int // longest vision page edge in px, default 2048
}

type ExtractionResult struct {
	Text     string
	Pages    int
	Format   string // constants.PDF | constants.TXT
	Method   string // "pdf-text" | "pdf-ocr" | "plain-text"
	Language string
	OCRUsed  bool
	Duration time.Duration
	Warnings []string
}

// Extractor turns invoice files into text, falling back to OCR when a PDF
// carries no usable text layer. It also renders PDF pages to JPEG for
// vision extraction.
type Extractor struct {
	cfg    Config
	runner Runner
}

func NewExtractor(cfg Config) *Extractor {
	if cfg.PDFToText == "" {
		cfg.PDFToText = "pdftotext"
	}
	if cfg.PDFToPPM == "" {
		cfg.PDFToPPM = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 85
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 2048
	}
	return &Extractor{cfg: cfg, runner: execRunner{}}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.TXT:
		b, err := os.ReadFile(path)
		if err != nil {
			return ExtractionResult{Format: constants.TXT}, err
		}
		return ExtractionResult{
			Text:     string(b),
			Pages:    1,
			Format:   constants.TXT,
			Method:   "plain-text",
			Duration: time.Since(start),
		}, nil
	default:
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

// extractPDF tries the text layer first and OCRs only when the yield is
// too thin to parse.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err == nil && !NeedsOCR(text, pages) {
		return ExtractionResult{
			Text:     text,
			Pages:    pages,
			Format:   constants.PDF,
			Method:   "pdf-text",
			Warnings: warns,
		}, nil
	}
	if err != nil {
		warns = append(warns, fmt.Sprintf("pdftotext failed: %v", err))
	}

	ocrText, ocrPages, ocrWarns, ocrErr := e.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if ocrErr != nil || strings.TrimSpace(ocrText) == "" {
		// keep whatever the text layer gave us
		if err == nil {
			if ocrErr != nil {
				warns = append(warns, fmt.Sprintf("ocr failed: %v", ocrErr))
			}
			return ExtractionResult{
				Text:     text,
				Pages:    pages,
				Format:   constants.PDF,
				Method:   "pdf-text",
				Warnings: warns,
			}, nil
		}
		if ocrErr == nil {
			ocrErr = fmt.Errorf("ocr produced no text")
		}
		return ExtractionResult{Format: constants.PDF, Warnings: warns}, ocrErr
	}

	return ExtractionResult{
		Text:     ocrText,
		Pages:    ocrPages,
		Format:   constants.PDF,
		Method:   "pdf-ocr",
		Language: e.cfg.TesseractLang,
		OCRUsed:  true,
		Warnings: warns,
	}, nil
}
