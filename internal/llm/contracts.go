package llm

import (
	"context"
)

// InvoiceExtraction is the document shape the model is asked to return.
// Pointer fields distinguish "absent" from zero; dates are ISO-8601 strings
// and are parsed downstream.
type InvoiceExtraction struct {
	InvoiceNumber string           `json:"invoice_number"`
	PONumber      string           `json:"po_number,omitempty"`
	Vendor        OracleVendor     `json:"vendor"`
	InvoiceDate   string           `json:"invoice_date,omitempty"`
	DueDate       string           `json:"due_date,omitempty"`
	OrderDate     string           `json:"order_date,omitempty"`
	Subtotal      *float64         `json:"subtotal,omitempty"`
	TaxAmount     *float64         `json:"tax_amount,omitempty"`
	TotalAmount   *float64         `json:"total_amount"`
	Currency      string           `json:"currency,omitempty"`
	LineItems     []OracleLineItem `json:"line_items"`
	PaymentTerms  string           `json:"payment_terms,omitempty"`
	BankDetails   string           `json:"bank_details,omitempty"`
	ProjectNumber string           `json:"project_number,omitempty"`
	SaleNumber    string           `json:"sale_number,omitempty"`
	Opportunity   string           `json:"opportunity_number,omitempty"`
	GLAccount     string           `json:"gl_account,omitempty"`
	CostCenter    string           `json:"cost_center,omitempty"`
	AIConfidence  float64          `json:"ai_confidence"`
	AINotes       string           `json:"ai_notes,omitempty"`
}

type OracleVendor struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
	Website string `json:"website,omitempty"`
}

type OracleLineItem struct {
	Description string   `json:"description"`
	ItemCode    string   `json:"item_code,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	TaxRate     *float64 `json:"tax_rate,omitempty"`
	TaxAmount   *float64 `json:"tax_amount,omitempty"`
	Discount    *float64 `json:"discount,omitempty"`
	GLAccount   string   `json:"gl_account_code,omitempty"`
	CostCenter  string   `json:"cost_center,omitempty"`
}

// Usage is what a single model call cost us.
type Usage struct {
	Model        string  `json:"model"`
	PromptTokens int     `json:"prompt_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	PagesSent    int     `json:"pages_sent,omitempty"`
	ElapsedMS    int64   `json:"elapsed_ms"`
}

// TextExtractor asks a model to extract invoice fields from layout-preserved text.
type TextExtractor interface {
	ExtractFromText(ctx context.Context, text string) (*InvoiceExtraction, *Usage, error)
}

// VisionExtractor asks a multimodal model to extract invoice fields from
// rendered page images (JPEG bytes, one per page).
type VisionExtractor interface {
	ExtractFromImages(ctx context.Context, pages [][]byte) (*InvoiceExtraction, *Usage, error)
}
