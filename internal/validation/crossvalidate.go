package validation

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/llm"
)

// Field weights for confidence scoring. Critical fields drive the review
// decision; important fields only move the score.
var criticalFields = map[string]float64{
	"invoice_number": 0.20,
	"total_amount":   0.25,
	"vendor_name":    0.15,
	"invoice_date":   0.10,
}

var importantFields = map[string]float64{
	"subtotal":       0.08,
	"tax_amount":     0.05,
	"due_date":       0.05,
	"po_number":      0.05,
	"vendor_email":   0.03,
	"vendor_phone":   0.02,
	"vendor_address": 0.02,
}

// criticalOrder and importantOrder fix the comparison order so results
// are deterministic.
var criticalOrder = []string{"invoice_number", "total_amount", "vendor_name", "invoice_date"}
var importantOrder = []string{"subtotal", "tax_amount", "due_date", "po_number", "vendor_email", "vendor_phone", "vendor_address"}

const (
	amountTolerance    = 0.02  // absolute, dollars
	amountTolerancePct = 0.005 // relative
)

// FieldCheck is the outcome of comparing one field between the model
// extraction and the pattern extraction.
type FieldCheck struct {
	Field       string  `json:"field"`
	ModelValue  string  `json:"model_value,omitempty"`
	ParsedValue string  `json:"parsed_value,omitempty"`
	Match       bool    `json:"match"`
	Adjustment  float64 `json:"adjustment"`
	Note        string  `json:"note,omitempty"`
}

// Result aggregates a cross-validation run.
type Result struct {
	FieldsCompared    int          `json:"fields_compared"`
	Matching          int          `json:"matching"`
	Mismatched        int          `json:"mismatched"`
	ModelOnly         int          `json:"model_only"`
	ParsedOnly        int          `json:"parsed_only"`
	ValidationScore   float64      `json:"validation_score"`
	FinalConfidence   float64      `json:"final_confidence"`
	RecommendedReview bool         `json:"recommended_review"`
	Checks            []FieldCheck `json:"checks"`
	Notes             []string     `json:"notes,omitempty"`
}

// Validator compares model extractions against pattern extractions and
// produces a blended confidence score.
type Validator struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// Validate cross-checks a model extraction against pattern-extracted raw
// fields and line items.
func (v *Validator) Validate(ext *llm.InvoiceExtraction, fields *entity.RawFieldSet, items []entity.LineItem) *Result {
	modelVals := modelComparable(ext)
	parsedVals := parsedComparable(fields)

	var checks []FieldCheck
	var notes []string

	for _, f := range criticalOrder {
		checks = append(checks, compareField(f, modelVals[f], parsedVals[f], criticalFields[f]))
	}
	for _, f := range importantOrder {
		checks = append(checks, compareField(f, modelVals[f], parsedVals[f], importantFields[f]))
	}

	notes = append(notes, lineCountNotes(ext, items)...)
	notes = append(notes, lineSumNotes(ext)...)

	var compared, matching, mismatched, modelOnly, parsedOnly int
	var matchedWeight, maxWeight float64
	for _, c := range checks {
		hasModel := c.ModelValue != ""
		hasParsed := c.ParsedValue != ""
		if hasModel || hasParsed {
			compared++
			maxWeight += criticalFields[c.Field] + importantFields[c.Field]
		}
		if c.Match {
			matching++
			matchedWeight += c.Adjustment
		}
		switch {
		case !c.Match && hasModel && hasParsed:
			mismatched++
		case hasModel && !hasParsed:
			modelOnly++
		case hasParsed && !hasModel:
			parsedOnly++
		}
	}

	score := 0.5
	if maxWeight > 0 {
		score = matchedWeight / maxWeight
	}

	aiConf := ext.AIConfidence
	if aiConf == 0 {
		aiConf = 0.7
	}
	final := finalConfidence(aiConf, score, matching, mismatched, modelOnly, compared)

	review := final < constants.ReviewThreshold
	var disagreeing []string
	for _, c := range checks {
		if _, critical := criticalFields[c.Field]; critical && !c.Match && c.ModelValue != "" && c.ParsedValue != "" {
			review = true
			disagreeing = append(disagreeing, c.Field)
		}
	}
	if len(disagreeing) > 0 {
		notes = append(notes, "Manual review recommended: critical field disagreements on "+strings.Join(disagreeing, ", "))
	}

	res := &Result{
		FieldsCompared:    compared,
		Matching:          matching,
		Mismatched:        mismatched,
		ModelOnly:         modelOnly,
		ParsedOnly:        parsedOnly,
		ValidationScore:   roundTo(score, 3),
		FinalConfidence:   roundTo(final, 3),
		RecommendedReview: review,
		Checks:            checks,
		Notes:             notes,
	}

	v.logger.Info("validation.crosscheck.done",
		"compared", compared,
		"matching", matching,
		"mismatched", mismatched,
		"model_only", modelOnly,
		"validation_score", res.ValidationScore,
		"final_confidence", res.FinalConfidence,
		"review_needed", review,
	)
	return res
}

// compareField scores one field pair: zero-weight pass when both sides are
// empty, half credit when only the model found it, full weight on a match,
// and a half-weight penalty on a disagreement.
func compareField(field, modelVal, parsedVal string, weight float64) FieldCheck {
	if modelVal == "" && parsedVal == "" {
		return FieldCheck{Field: field, Match: true, Note: "both sources returned null"}
	}
	if modelVal == "" {
		return FieldCheck{
			Field:       field,
			ParsedValue: parsedVal,
			Note:        "model returned null, pattern found value",
		}
	}
	if parsedVal == "" {
		return FieldCheck{
			Field:      field,
			ModelValue: modelVal,
			Adjustment: weight * 0.5,
			Note:       "model found value, pattern returned null",
		}
	}

	if valuesMatch(field, modelVal, parsedVal) {
		return FieldCheck{
			Field:       field,
			ModelValue:  modelVal,
			ParsedValue: parsedVal,
			Match:       true,
			Adjustment:  weight,
			Note:        "values match",
		}
	}
	return FieldCheck{
		Field:       field,
		ModelValue:  modelVal,
		ParsedValue: parsedVal,
		Adjustment:  -weight * 0.5,
		Note:        fmt.Sprintf("mismatch: model=%q parsed=%q", modelVal, parsedVal),
	}
}

func valuesMatch(field, a, b string) bool {
	switch field {
	case "total_amount", "subtotal", "tax_amount":
		return amountsMatch(a, b)
	case "invoice_date", "due_date":
		return datesMatch(a, b)
	default:
		return stringsMatch(a, b)
	}
}

var amountJunk = regexp.MustCompile(`[,$]`)

func amountsMatch(a, b string) bool {
	fa, errA := strconv.ParseFloat(amountJunk.ReplaceAllString(a, ""), 64)
	fb, errB := strconv.ParseFloat(amountJunk.ReplaceAllString(b, ""), 64)
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	diff := math.Abs(fa - fb)
	if diff <= amountTolerance {
		return true
	}
	if maxAbs := math.Max(math.Abs(fa), math.Abs(fb)); maxAbs > 0 && diff/maxAbs <= amountTolerancePct {
		return true
	}
	return false
}

func datesMatch(a, b string) bool {
	ta, errA := dateparse.ParseAny(a)
	tb, errB := dateparse.ParseAny(b)
	if errA != nil || errB != nil {
		return stringsMatch(a, b)
	}
	return ta.Format("2006-01-02") == tb.Format("2006-01-02")
}

var spaceRun = regexp.MustCompile(`\s+`)

func stringsMatch(a, b string) bool {
	na := spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(a)), " ")
	nb := spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(b)), " ")
	if na == nb {
		return true
	}
	if len(na) > 3 && len(nb) > 3 && (strings.Contains(na, nb) || strings.Contains(nb, na)) {
		return true
	}
	strip := strings.NewReplacer(".", "", ",", "")
	return strip.Replace(na) == strip.Replace(nb)
}

func modelComparable(ext *llm.InvoiceExtraction) map[string]string {
	num := func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	return map[string]string{
		"invoice_number": ext.InvoiceNumber,
		"po_number":      ext.PONumber,
		"vendor_name":    ext.Vendor.Name,
		"vendor_email":   ext.Vendor.Email,
		"vendor_phone":   ext.Vendor.Phone,
		"vendor_address": ext.Vendor.Address,
		"invoice_date":   ext.InvoiceDate,
		"due_date":       ext.DueDate,
		"total_amount":   num(ext.TotalAmount),
		"subtotal":       num(ext.Subtotal),
		"tax_amount":     num(ext.TaxAmount),
	}
}

func parsedComparable(fields *entity.RawFieldSet) map[string]string {
	if fields == nil {
		return map[string]string{}
	}
	invoiceDate := fields.Text(constants.SrcInvoiceDate)
	if invoiceDate == "" {
		invoiceDate = fields.Text(constants.SrcOrderDate)
	}
	return map[string]string{
		"invoice_number": fields.Text(constants.SrcInvoiceNumber),
		"po_number":      fields.Text(constants.SrcPONumber),
		"vendor_name":    fields.Text(constants.SrcVendorName),
		"vendor_email":   fields.Text(constants.SrcVendorEmail),
		"vendor_phone":   fields.Text(constants.SrcVendorPhone),
		"vendor_address": fields.Text(constants.SrcVendorAddress),
		"invoice_date":   invoiceDate,
		"due_date":       fields.Text(constants.SrcDueDate),
		"total_amount":   fields.Text(constants.SrcTotal),
		"subtotal":       fields.Text(constants.SrcSubtotal),
		"tax_amount":     fields.Text(constants.SrcTaxAmount),
	}
}

func lineCountNotes(ext *llm.InvoiceExtraction, items []entity.LineItem) []string {
	modelCount := len(ext.LineItems)
	parsedCount := len(items)
	switch {
	case modelCount > 0 && parsedCount > 0 && modelCount == parsedCount:
		return []string{fmt.Sprintf("Line item count matches: %d", modelCount)}
	case modelCount > 0 && parsedCount > 0:
		return []string{fmt.Sprintf("Line item count mismatch: model=%d, pattern=%d", modelCount, parsedCount)}
	case modelCount > 0:
		return []string{fmt.Sprintf("Model found %d line items, pattern found none", modelCount)}
	case parsedCount > 0:
		return []string{fmt.Sprintf("Pattern found %d line items, model found none", parsedCount)}
	}
	return nil
}

// lineSumNotes checks the model's own line items against its reported
// total. Tax-exclusive line items are allowed to sum to the subtotal.
func lineSumNotes(ext *llm.InvoiceExtraction) []string {
	if len(ext.LineItems) == 0 || ext.TotalAmount == nil {
		return nil
	}
	var sum float64
	for _, it := range ext.LineItems {
		if it.Amount != nil {
			sum += *it.Amount
		}
	}
	if sum == 0 {
		return nil
	}
	subtotal := *ext.TotalAmount
	if ext.Subtotal != nil {
		subtotal = *ext.Subtotal
	}
	if math.Abs(sum-*ext.TotalAmount) < amountTolerance ||
		(ext.TaxAmount != nil && math.Abs(sum-subtotal) < amountTolerance) {
		return []string{"Model line items sum matches total/subtotal"}
	}
	return []string{fmt.Sprintf("Model line items sum ($%.2f) differs from total ($%.2f)", sum, *ext.TotalAmount)}
}

// finalConfidence blends the model's self-confidence with the agreement
// score, with an all-match bonus and a small credit for fields only the
// model found.
func finalConfidence(aiConf, score float64, matching, mismatched, modelOnly, compared int) float64 {
	if compared == 0 {
		return aiConf
	}
	base := aiConf*0.6 + score*0.4
	if mismatched == 0 && matching > 0 {
		base += 0.05
	}
	if modelOnly > 0 {
		base += math.Min(float64(modelOnly)*0.02, 0.06)
	}
	return math.Max(0, math.Min(1, base))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
