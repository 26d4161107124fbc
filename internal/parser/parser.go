package parser

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/entity"
)

// Config holds the confidence weights used when scoring a parse.
type Config struct {
	WeightInvoiceNumber float64
	WeightInvoiceDate   float64
	WeightTotal         float64
	WeightVendorName    float64
	WeightLineItems     float64
	SumMatchBonus       float64
}

// DefaultConfig returns the standard scoring weights.
func DefaultConfig() Config {
	return Config{
		WeightInvoiceNumber: 0.25,
		WeightInvoiceDate:   0.15,
		WeightTotal:         0.25,
		WeightVendorName:    0.15,
		WeightLineItems:     0.20,
		SumMatchBonus:       0.05,
	}
}

func (c Config) isZero() bool {
	return c == Config{}
}

// Parser extracts structured invoice and purchase order fields from
// raw document text using ordered pattern lists.
type Parser struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Parser. A zero Config gets the default weights and a
// nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Parser {
	if cfg.isZero() {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{cfg: cfg, logger: logger}
}

// ParseRawFields extracts every recognized source field from text into
// a flat field set. This is the primary input to the mapping engine.
func (p *Parser) ParseRawFields(text string) *entity.RawFieldSet {
	p.logger.Info("parser.raw_fields.start", "text_length", len(text))

	fields := entity.NewRawFieldSet(text)

	setText := func(field constants.SourceField, value string) {
		if value != "" {
			fields.Set(field, entity.TextValue(value))
		}
	}
	setDate := func(field constants.SourceField, value *time.Time) {
		if value != nil {
			fields.Set(field, entity.DateValue(*value))
		}
	}
	setAmount := func(field constants.SourceField, value *decimal.Decimal) {
		if value != nil {
			fields.Set(field, entity.AmountValue(*value))
		}
	}

	setText(constants.SrcPONumber, p.extractPONumber(text))
	setText(constants.SrcInvoiceNumber, p.extractInvoiceNumber(text))

	orderDate := extractDate(text, orderDatePatterns)
	setDate(constants.SrcOrderDate, orderDate)
	if orderDate != nil {
		setDate(constants.SrcInvoiceDate, orderDate)
	} else {
		setDate(constants.SrcInvoiceDate, extractDate(text, datePatterns))
	}
	setDate(constants.SrcDueDate, extractDate(text, dueDatePatterns))
	setDate(constants.SrcApprovedDate, extractDate(text, approvedDatePatterns))

	setAmount(constants.SrcTotal, extractAmount(text, totalPatterns))
	setAmount(constants.SrcSubtotal, extractAmount(text, subtotalPatterns))
	setAmount(constants.SrcTaxAmount, extractAmount(text, taxPatterns))

	vendor := p.extractVendor(text)
	setText(constants.SrcVendorName, vendor.Name)
	if vendor.Address != "" {
		setText(constants.SrcVendorAddress, vendor.Address)
	} else {
		setText(constants.SrcVendorAddress, extractAddress(text))
	}
	setText(constants.SrcVendorEmail, vendor.Email)
	setText(constants.SrcVendorPhone, vendor.Phone)

	setText(constants.SrcProjectNumber, extractPattern(text, projectNumberPatterns))
	setText(constants.SrcSaleNumber, extractPattern(text, saleNumberPatterns))
	setText(constants.SrcOpportunityNumber, extractPattern(text, opportunityNumberPatterns))
	setText(constants.SrcMarketSegment, extractPattern(text, marketSegmentPatterns))
	setText(constants.SrcProductCategory, extractPattern(text, productCategoryPatterns))
	setText(constants.SrcCreatedBy, extractPattern(text, createdByPatterns))

	p.logger.Info("parser.raw_fields.done",
		"field_count", fields.Len(),
		"fields", fields.SortedFields())

	return fields
}

// Parse extracts raw fields and line items and assembles a scored
// document directly, without going through the mapping engine.
func (p *Parser) Parse(text string) *entity.ExtractedDocument {
	fields := p.ParseRawFields(text)
	lineItems := p.ExtractLineItems(text)
	return p.buildDocument(fields, lineItems)
}

// ParseWithLineItems extracts both the raw field set and the line
// items, backfilling a missing total from the line item sum. The
// returned confidence scores the combined result.
func (p *Parser) ParseWithLineItems(text string) (*entity.RawFieldSet, []entity.LineItem, float64) {
	fields := p.ParseRawFields(text)
	lineItems := p.ExtractLineItems(text)

	invoiceNumber := effectiveInvoiceNumber(fields)
	total := fields.Amount(constants.SrcTotal)
	if total == nil && len(lineItems) > 0 {
		sum := sumLineItems(lineItems)
		fields.Set(constants.SrcTotal, entity.AmountValue(sum))
		total = &sum
	}

	invoiceDate := fields.Date(constants.SrcOrderDate)
	if invoiceDate == nil {
		invoiceDate = fields.Date(constants.SrcInvoiceDate)
	}

	confidence := p.confidence(invoiceNumber, invoiceDate, total,
		fields.Text(constants.SrcVendorName), lineItems)

	return fields, lineItems, confidence
}

func (p *Parser) buildDocument(fields *entity.RawFieldSet, lineItems []entity.LineItem) *entity.ExtractedDocument {
	invoiceNumber := effectiveInvoiceNumber(fields)
	poNumber := fields.Text(constants.SrcPONumber)

	invoiceDate := fields.Date(constants.SrcOrderDate)
	if invoiceDate == nil {
		invoiceDate = fields.Date(constants.SrcInvoiceDate)
	}

	total := fields.Amount(constants.SrcTotal)
	subtotal := fields.Amount(constants.SrcSubtotal)
	tax := fields.Amount(constants.SrcTaxAmount)

	// An invoice without tax often labels its only amount "Total".
	if subtotal == nil && total != nil && tax == nil {
		subtotal = total
	}

	if total == nil && len(lineItems) > 0 {
		sum := sumLineItems(lineItems)
		total = &sum
	}

	vendorName := fields.Text(constants.SrcVendorName)
	project := fields.Text(constants.SrcOpportunityNumber)
	if project == "" {
		project = fields.Text(constants.SrcProjectNumber)
	}

	confidence := p.confidence(invoiceNumber, invoiceDate, total, vendorName, lineItems)
	requiresReview := confidence < constants.ReviewThreshold || invoiceNumber == "" || total == nil

	p.logger.Info("parser.parse.done",
		"po_number", poNumber,
		"invoice_number", invoiceNumber,
		"vendor", vendorName,
		"line_items", len(lineItems),
		"confidence", confidence,
		"requires_review", requiresReview)

	return &entity.ExtractedDocument{
		InvoiceNumber: invoiceNumber,
		PONumber:      poNumber,
		InvoiceDate:   invoiceDate,
		DueDate:       fields.Date(constants.SrcDueDate),
		OrderDate:     fields.Date(constants.SrcOrderDate),
		Vendor: entity.Vendor{
			Name:    vendorName,
			Address: fields.Text(constants.SrcVendorAddress),
			Email:   fields.Text(constants.SrcVendorEmail),
			Phone:   fields.Text(constants.SrcVendorPhone),
		},
		Subtotal:             subtotal,
		TaxAmount:            tax,
		TotalAmount:          total,
		LineItems:            lineItems,
		Project:              project,
		ItemCategory:         fields.Text(constants.SrcProductCategory),
		Location:             fields.Text(constants.SrcVendorAddress),
		Confidence:           confidence,
		RequiresManualReview: requiresReview,
	}
}

// effectiveInvoiceNumber resolves the invoice number, synthesizing one
// from the PO number when only the PO number was found.
func effectiveInvoiceNumber(fields *entity.RawFieldSet) string {
	if inv := fields.Text(constants.SrcInvoiceNumber); inv != "" {
		return inv
	}
	if po := fields.Text(constants.SrcPONumber); po != "" {
		return "PO-" + po
	}
	return ""
}

func sumLineItems(items []entity.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		if item.Amount != nil {
			sum = sum.Add(*item.Amount)
		}
	}
	return sum
}

var standalonePONumber = regexp.MustCompile(`^\d{8}$`)

// extractPONumber checks the first few lines for a bare 8-digit
// number before falling back to labelled patterns.
func (p *Parser) extractPONumber(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if standalonePONumber.MatchString(line) {
			return line
		}
	}
	return extractPattern(text, poNumberPatterns)
}

var hasDigit = regexp.MustCompile(`\d`)

// extractInvoiceNumber tries the labelled patterns in priority order,
// rejecting captures that are bare words, then falls back to a generic
// "# <id>" scan.
func (p *Parser) extractInvoiceNumber(text string) string {
	for _, pattern := range invoiceNumberPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value := strings.TrimSpace(match[1])
		if !hasDigit.MatchString(value) || len(value) < 2 {
			continue
		}
		if _, stop := invoiceNumberStopwords[strings.ToLower(value)]; stop {
			continue
		}
		return value
	}

	for _, pattern := range invoiceNumberFallbackPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value := strings.TrimSpace(match[1])
		if hasDigit.MatchString(value) {
			return value
		}
	}

	return ""
}

// extractPattern returns the first capture group of the first pattern
// that matches, trimmed.
func extractPattern(text string, patterns []*regexp.Regexp) string {
	for _, pattern := range patterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}

func extractDate(text string, patterns []*regexp.Regexp) *time.Time {
	raw := extractPattern(text, patterns)
	if raw == "" {
		return nil
	}
	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

func extractAmount(text string, patterns []*regexp.Regexp) *decimal.Decimal {
	raw := extractPattern(text, patterns)
	if raw == "" {
		return nil
	}
	amount, err := ParseAmount(raw)
	if err != nil {
		return nil
	}
	return &amount
}

// ParseAmount parses a monetary string into a decimal. Currency
// symbols, commas and spaces are stripped; parenthesized amounts and
// a leading minus sign both produce a negative value.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}

	cleaned = strings.NewReplacer(",", "", "$", "", " ", "").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}
