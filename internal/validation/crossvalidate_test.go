package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/llm"
)

func floatPtr(f float64) *float64 { return &f }

func agreedExtraction() *llm.InvoiceExtraction {
	return &llm.InvoiceExtraction{
		InvoiceNumber: "72007",
		PONumber:      "72007125",
		Vendor: llm.OracleVendor{
			Name: "MGD Construction Services",
		},
		InvoiceDate: "2025-01-15",
		TotalAmount: floatPtr(1710.80),
		LineItems: []llm.OracleLineItem{
			{Description: "Gutter Installation - Standard Run", Amount: floatPtr(1710.80)},
		},
		AIConfidence: 0.9,
	}
}

func agreedFields() *entity.RawFieldSet {
	fields := entity.NewRawFieldSet("")
	fields.Set(constants.SrcInvoiceNumber, entity.TextValue("72007"))
	fields.Set(constants.SrcPONumber, entity.TextValue("72007125"))
	fields.Set(constants.SrcVendorName, entity.TextValue("MGD Construction Services"))
	fields.Set(constants.SrcOrderDate, entity.DateValue(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
	fields.Set(constants.SrcTotal, entity.AmountValue(decimal.NewFromFloat(1710.80)))
	return fields
}

func agreedItems() []entity.LineItem {
	amt := decimal.NewFromFloat(1710.80)
	return []entity.LineItem{{LineNumber: 1, Description: "Gutter Installation - Standard Run", Amount: &amt}}
}

func TestValidateFullAgreement(t *testing.T) {
	v := New(nil)
	res := v.Validate(agreedExtraction(), agreedFields(), agreedItems())

	assert.Zero(t, res.Mismatched)
	assert.Equal(t, 5, res.FieldsCompared)
	assert.Equal(t, 1.0, res.ValidationScore)
	assert.False(t, res.RecommendedReview)
	// 0.9*0.6 + 1.0*0.4 + 0.05 all-match bonus, clamped
	assert.InDelta(t, 0.99, res.FinalConfidence, 0.001)
	assert.Contains(t, res.Notes, "Line item count matches: 1")
}

func TestValidateCriticalMismatchForcesReview(t *testing.T) {
	ext := agreedExtraction()
	ext.TotalAmount = floatPtr(1000.00)
	fields := agreedFields()
	fields.Set(constants.SrcTotal, entity.AmountValue(decimal.NewFromFloat(500.00)))

	v := New(nil)
	res := v.Validate(ext, fields, nil)

	assert.True(t, res.RecommendedReview)
	assert.Equal(t, 1, res.Mismatched)

	found := false
	for _, n := range res.Notes {
		if n == "Manual review recommended: critical field disagreements on total_amount" {
			found = true
		}
	}
	assert.True(t, found, "expected a critical-disagreement note, got %v", res.Notes)
}

func TestValidateAmountTolerance(t *testing.T) {
	v := New(nil)

	// within two cents
	assert.True(t, amountsMatch("100.00", "100.01"))
	assert.True(t, amountsMatch("$1,710.80", "1710.80"))
	// within 0.5 percent
	assert.True(t, amountsMatch("10000.00", "10040.00"))
	assert.False(t, amountsMatch("100.00", "105.00"))

	ext := agreedExtraction()
	ext.TotalAmount = floatPtr(1710.81)
	res := v.Validate(ext, agreedFields(), agreedItems())
	assert.Zero(t, res.Mismatched)
}

func TestValidateDateFormatsAgree(t *testing.T) {
	ext := agreedExtraction()
	ext.InvoiceDate = "01/15/2025"

	v := New(nil)
	res := v.Validate(ext, agreedFields(), agreedItems())
	assert.Zero(t, res.Mismatched)
}

func TestValidateVendorContainment(t *testing.T) {
	assert.True(t, stringsMatch("MGD Construction Services", "MGD Construction Services Inc"))
	assert.True(t, stringsMatch("mgd  construction   services", "MGD Construction Services"))
	assert.True(t, stringsMatch("Mayan's Construction Corp.", "Mayan's Construction Corp"))
	assert.False(t, stringsMatch("MGD", "Master Gutters"))
}

func TestValidateModelOnlyFieldsGetCredit(t *testing.T) {
	ext := agreedExtraction()
	ext.Vendor.Email = "billing@mgdconstruction.com"
	ext.DueDate = "2025-02-14"

	v := New(nil)
	base := v.Validate(agreedExtraction(), agreedFields(), agreedItems())
	enriched := v.Validate(ext, agreedFields(), agreedItems())

	assert.Equal(t, 2, enriched.ModelOnly)
	assert.Greater(t, enriched.FinalConfidence, base.FinalConfidence-0.001)
}

func TestValidateNothingComparedUsesModelConfidence(t *testing.T) {
	ext := &llm.InvoiceExtraction{AIConfidence: 0.42}
	v := New(nil)
	res := v.Validate(ext, entity.NewRawFieldSet(""), nil)

	assert.Zero(t, res.FieldsCompared)
	assert.InDelta(t, 0.42, res.FinalConfidence, 0.001)
	assert.True(t, res.RecommendedReview)
}

func TestValidateLineSumDisagreementNoted(t *testing.T) {
	ext := agreedExtraction()
	ext.LineItems = []llm.OracleLineItem{
		{Description: "Gutter Installation - Standard Run", Amount: floatPtr(900.00)},
	}

	v := New(nil)
	res := v.Validate(ext, agreedFields(), agreedItems())

	found := false
	for _, n := range res.Notes {
		if n == "Model line items sum ($900.00) differs from total ($1710.80)" {
			found = true
		}
	}
	assert.True(t, found, "expected line-sum note, got %v", res.Notes)
}

func TestValidateChecksAreDeterministic(t *testing.T) {
	v := New(nil)
	a := v.Validate(agreedExtraction(), agreedFields(), agreedItems())
	b := v.Validate(agreedExtraction(), agreedFields(), agreedItems())

	require.Equal(t, len(a.Checks), len(b.Checks))
	for i := range a.Checks {
		assert.Equal(t, a.Checks[i].Field, b.Checks[i].Field)
	}
	assert.Equal(t, "invoice_number", a.Checks[0].Field)
	assert.Equal(t, "total_amount", a.Checks[1].Field)
}
