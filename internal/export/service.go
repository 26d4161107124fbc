package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/pipeline"
	"github.com/vedvix/syncledger-extract/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes
// from finished extraction jobs.
type Service struct {
	jobsRepo  repository.ExtractJobRepository
	filesRepo repository.DocumentFileRepository
	logger    *slog.Logger
}

func NewService(jobsRepo repository.ExtractJobRepository, filesRepo repository.DocumentFileRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobsRepo: jobsRepo, filesRepo: filesRepo, logger: logger}
}

var extractionHeaders = []string{
	"Invoice Number",
	"PO Number",
	"Vendor",
	"Invoice Date",
	"Due Date",
	"Subtotal",
	"Tax",
	"Total",
	"Currency",
	"GL Account",
	"Project",
	"Tier",
	"Confidence",
	"Needs Review",
	"Source File",
}

// ExportJobsXLSX returns an XLSX workbook of extracted documents for the
// given organization and started_at window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all finished jobs for the organization.
func (s *Service) ExportJobsXLSX(ctx context.Context, orgID string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	fromDate, toDate := normalizeWindow(from, to)
	jobs, err := s.jobsRepo.ListExtracted(ctx, orgID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query extracted jobs: %w", err)
	}

	buf, rows, err := s.writeWorkbook(ctx, "Extractions", jobs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"org_id", orgID,
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

// ExportReviewQueueXLSX returns an XLSX workbook of extractions flagged
// for manual review.
func (s *Service) ExportReviewQueueXLSX(ctx context.Context, orgID string, limit int) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobsRepo.ListNeedingReview(ctx, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}

	buf, rows, err := s.writeWorkbook(ctx, "Review Queue", jobs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.review.ok",
		"org_id", orgID,
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

func (s *Service) writeWorkbook(ctx context.Context, sheet string, jobs []*entity.ExtractJob) ([]byte, int, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, 0, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range extractionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	written := 0
	for _, job := range jobs {
		doc, mapped := decodeResult(job.ResultJSON)
		if doc == nil {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		invoiceNumber := doc.InvoiceNumber
		glAccount := doc.GLAccount
		project := doc.Project
		// mapped values win over raw extraction
		if mapped != nil {
			if mapped.Document != nil && mapped.Document.InvoiceNumber != "" {
				invoiceNumber = mapped.Document.InvoiceNumber
			}
			if mapped.GLAccount != "" {
				glAccount = mapped.GLAccount
			}
			if mapped.Project != "" {
				project = mapped.Project
			}
		}

		write(1, invoiceNumber)
		write(2, doc.PONumber)
		write(3, doc.Vendor.Name)
		write(4, formatDate(doc.InvoiceDate))
		write(5, formatDate(doc.DueDate))
		write(6, formatAmount(doc.Subtotal))
		write(7, formatAmount(doc.TaxAmount))
		write(8, formatAmount(doc.TotalAmount))
		write(9, doc.Currency)
		write(10, glAccount)
		write(11, project)
		write(12, string(job.Tier))
		if job.Confidence != nil {
			write(13, *job.Confidence)
		}
		write(14, job.NeedsReview)
		write(15, s.sourcePath(ctx, job.FileID))

		row++
		written++
	}

	_ = f.SetColWidth(sheet, "A", "B", 16) // document numbers
	_ = f.SetColWidth(sheet, "C", "C", 30) // vendor
	_ = f.SetColWidth(sheet, "D", "E", 12) // dates
	_ = f.SetColWidth(sheet, "F", "H", 12) // amounts
	_ = f.SetColWidth(sheet, "J", "K", 14) // gl / project
	_ = f.SetColWidth(sheet, "O", "O", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), written, nil
}

// decodeResult pulls the document and mapped fields out of a stored job
// payload. Jobs with unreadable payloads are skipped rather than
// failing the whole export.
func decodeResult(raw json.RawMessage) (*entity.ExtractedDocument, *entity.MappedResult) {
	if len(raw) == 0 {
		return nil, nil
	}
	var res pipeline.ProcessResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, nil
	}
	return res.Document, res.Mapped
}

func (s *Service) sourcePath(ctx context.Context, fileID uuid.UUID) string {
	if s.filesRepo == nil || fileID == uuid.Nil {
		return ""
	}
	file, err := s.filesRepo.GetByID(ctx, fileID)
	if err != nil || file == nil {
		return ""
	}
	return file.SourcePath
}

func normalizeWindow(from, to *time.Time) (*time.Time, *time.Time) {
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	return fromDate, toDate
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
