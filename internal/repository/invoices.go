package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/entity"
)

// InvoiceRepository stores extracted documents as queryable rows, one
// invoice with child line items per finished job. Amounts are kept as
// numeric text to avoid float drift.
type InvoiceRepository interface {
	SaveDocument(ctx context.Context, jobID uuid.UUID, orgID string, tier constants.Tier, doc *entity.ExtractedDocument) (uuid.UUID, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractedDocument, constants.Tier, error)
}

type invoiceRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewInvoiceRepository(pool *pgxpool.Pool, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepo{pool: pool, logger: logger}
}

func (r *invoiceRepo) SaveDocument(ctx context.Context, jobID uuid.UUID, orgID string, tier constants.Tier, doc *entity.ExtractedDocument) (uuid.UUID, error) {
	if doc == nil {
		return uuid.Nil, common.NewAppError("INVOICE_INVALID", "document is required", common.ErrInvalidInput)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, common.WrapError(err, "begin invoice tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	currency := strings.ToUpper(strings.TrimSpace(doc.Currency))
	if common.CurrencyCode("currency", currency) != nil {
		currency = "USD"
	}

	id := uuid.New()
	_, err = tx.Exec(ctx,
		`INSERT INTO invoices (
			id, job_id, org_id, invoice_number, po_number,
			vendor_name, vendor_address, vendor_email, vendor_phone,
			invoice_date, due_date, order_date,
			subtotal, tax_amount, total_amount, currency, payment_terms,
			gl_account, project, tier, confidence, needs_review, created_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		id, jobID, orgID, doc.InvoiceNumber, doc.PONumber,
		doc.Vendor.Name, doc.Vendor.Address, doc.Vendor.Email, doc.Vendor.Phone,
		doc.InvoiceDate, doc.DueDate, doc.OrderDate,
		decText(doc.Subtotal), decText(doc.TaxAmount), decText(doc.TotalAmount),
		currency, doc.PaymentTerms,
		doc.GLAccount, doc.Project, string(tier), doc.Confidence, doc.RequiresManualReview,
		time.Now().UTC())
	if err != nil {
		r.logger.Error("repo.invoices.insert_error", "job_id", jobID, "error", err)
		return uuid.Nil, common.WrapError(err, "insert invoice")
	}

	for _, item := range doc.LineItems {
		_, err = tx.Exec(ctx,
			`INSERT INTO invoice_line_items (
				invoice_id, line_number, description, item_code, quantity, unit,
				unit_price, tax_rate, tax_amount, discount_amount, amount,
				gl_account, cost_center
			 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			id, item.LineNumber, item.Description, item.ItemCode,
			decText(item.Quantity), item.Unit,
			decText(item.UnitPrice), decText(item.TaxRate),
			decText(item.TaxAmount), decText(item.DiscountAmount), decText(item.Amount),
			item.GLAccount, item.CostCenter)
		if err != nil {
			r.logger.Error("repo.invoices.line_error", "job_id", jobID, "line", item.LineNumber, "error", err)
			return uuid.Nil, common.WrapError(err, "insert invoice line item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, common.WrapError(err, "commit invoice tx")
	}
	r.logger.Info("repo.invoices.saved", "invoice_id", id, "job_id", jobID, "lines", len(doc.LineItems))
	return id, nil
}

func (r *invoiceRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractedDocument, constants.Tier, error) {
	var (
		id       uuid.UUID
		doc      entity.ExtractedDocument
		tier     string
		subtotal *string
		tax      *string
		total    *string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, invoice_number, po_number,
			vendor_name, vendor_address, vendor_email, vendor_phone,
			invoice_date, due_date, order_date,
			subtotal, tax_amount, total_amount, currency, payment_terms,
			gl_account, project, tier, confidence, needs_review
		 FROM invoices WHERE job_id = $1`, jobID).
		Scan(&id, &doc.InvoiceNumber, &doc.PONumber,
			&doc.Vendor.Name, &doc.Vendor.Address, &doc.Vendor.Email, &doc.Vendor.Phone,
			&doc.InvoiceDate, &doc.DueDate, &doc.OrderDate,
			&subtotal, &tax, &total, &doc.Currency, &doc.PaymentTerms,
			&doc.GLAccount, &doc.Project, &tier, &doc.Confidence, &doc.RequiresManualReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", common.NewAppError("INVOICE_NOT_FOUND", "invoice not found", common.ErrNotFound)
		}
		return nil, "", common.WrapError(err, "scan invoice")
	}
	doc.Subtotal = textDec(subtotal)
	doc.TaxAmount = textDec(tax)
	doc.TotalAmount = textDec(total)

	rows, err := r.pool.Query(ctx,
		`SELECT line_number, description, item_code, quantity, unit,
			unit_price, tax_rate, tax_amount, discount_amount, amount,
			gl_account, cost_center
		 FROM invoice_line_items WHERE invoice_id = $1 ORDER BY line_number`, id)
	if err != nil {
		return nil, "", common.WrapError(err, "query invoice line items")
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.LineItem
		var qty, price, taxRate, taxAmt, discount, amount *string
		if err := rows.Scan(&item.LineNumber, &item.Description, &item.ItemCode,
			&qty, &item.Unit, &price, &taxRate, &taxAmt, &discount, &amount,
			&item.GLAccount, &item.CostCenter); err != nil {
			return nil, "", common.WrapError(err, "scan invoice line item")
		}
		item.Quantity = textDec(qty)
		item.UnitPrice = textDec(price)
		item.TaxRate = textDec(taxRate)
		item.TaxAmount = textDec(taxAmt)
		item.DiscountAmount = textDec(discount)
		item.Amount = textDec(amount)
		doc.LineItems = append(doc.LineItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, "", common.WrapError(err, "iterate invoice line items")
	}
	return &doc, constants.Tier(tier), nil
}

func decText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func textDec(s *string) *decimal.Decimal {
	if s == nil || *s == "" {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil
	}
	return &d
}
