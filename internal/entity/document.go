package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vedvix/syncledger-extract/constants"
)

// Vendor holds issuer identity fields for an invoice.
type Vendor struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

// LineItem is a single billed line on an invoice or purchase order.
// GLAccount and CostCenter start empty and are backfilled by mapping.
type LineItem struct {
	LineNumber     int              `json:"line_number"`
	Description    string           `json:"description"`
	ItemCode       string           `json:"item_code,omitempty"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty"`
	Unit           string           `json:"unit,omitempty"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	GLAccount      string           `json:"gl_account,omitempty"`
	CostCenter     string           `json:"cost_center,omitempty"`
}

// ExtractedDocument is the normalized result of extracting a single
// invoice or purchase order, regardless of which tier produced it.
type ExtractedDocument struct {
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	PONumber      string     `json:"po_number,omitempty"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	OrderDate     *time.Time `json:"order_date,omitempty"`

	Vendor Vendor `json:"vendor"`

	Subtotal    *decimal.Decimal `json:"subtotal,omitempty"`
	TaxAmount   *decimal.Decimal `json:"tax_amount,omitempty"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Currency    string           `json:"currency,omitempty"`

	PaymentTerms string     `json:"payment_terms,omitempty"`
	LineItems    []LineItem `json:"line_items,omitempty"`

	GLAccount    string `json:"gl_account,omitempty"`
	Project      string `json:"project,omitempty"`
	ItemCategory string `json:"item_category,omitempty"`
	Location     string `json:"location,omitempty"`

	Confidence           float64  `json:"confidence"`
	RequiresManualReview bool     `json:"requires_manual_review"`
	Notes                []string `json:"notes,omitempty"`
}

// LineItemTotal sums the line item amounts, skipping lines without one.
func (d *ExtractedDocument) LineItemTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range d.LineItems {
		if item.Amount != nil {
			sum = sum.Add(*item.Amount)
		}
	}
	return sum
}

// HasAmounts reports whether any monetary field is populated.
func (d *ExtractedDocument) HasAmounts() bool {
	return d.Subtotal != nil || d.TaxAmount != nil || d.TotalAmount != nil
}

// FieldSet flattens the document into source-field form so mapping rules
// can resolve against it no matter which tier produced the document.
func (d *ExtractedDocument) FieldSet() *RawFieldSet {
	fs := NewRawFieldSet("")
	setText := func(f constants.SourceField, s string) {
		if s != "" {
			fs.Set(f, TextValue(s))
		}
	}
	setDate := func(f constants.SourceField, t *time.Time) {
		if t != nil {
			fs.Set(f, DateValue(*t))
		}
	}
	setAmount := func(f constants.SourceField, v *decimal.Decimal) {
		if v != nil {
			fs.Set(f, AmountValue(*v))
		}
	}

	setText(constants.SrcInvoiceNumber, d.InvoiceNumber)
	setText(constants.SrcPONumber, d.PONumber)
	setDate(constants.SrcInvoiceDate, d.InvoiceDate)
	setDate(constants.SrcOrderDate, d.OrderDate)
	setDate(constants.SrcDueDate, d.DueDate)
	setAmount(constants.SrcTotal, d.TotalAmount)
	setAmount(constants.SrcSubtotal, d.Subtotal)
	setAmount(constants.SrcTaxAmount, d.TaxAmount)
	setText(constants.SrcVendorName, d.Vendor.Name)
	setText(constants.SrcVendorAddress, d.Vendor.Address)
	setText(constants.SrcVendorEmail, d.Vendor.Email)
	setText(constants.SrcVendorPhone, d.Vendor.Phone)
	setText(constants.SrcProjectNumber, d.Project)
	setText(constants.SrcProductCategory, d.ItemCategory)
	return fs
}
