package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
	"invoice_number": "72007",
	"po_number": "72007125",
	"vendor": {"name": "MGD Construction Services", "address": "100 Main St, Tampa, FL 33601"},
	"invoice_date": "2025-01-15",
	"total_amount": 1710.80,
	"line_items": [
		{"description": "Gutter Installation - Standard Run", "quantity": 13.16, "unit_price": 130.00, "amount": 1710.80}
	],
	"ai_confidence": 0.92
}`

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  ```json\n{\"a\":1}\n```  "))
}

func TestDecodeExtractionValid(t *testing.T) {
	ext, err := DecodeExtraction(validDoc)
	require.NoError(t, err)

	assert.Equal(t, "72007", ext.InvoiceNumber)
	assert.Equal(t, "72007125", ext.PONumber)
	assert.Equal(t, "MGD Construction Services", ext.Vendor.Name)
	require.NotNil(t, ext.TotalAmount)
	assert.InDelta(t, 1710.80, *ext.TotalAmount, 0.001)
	require.Len(t, ext.LineItems, 1)
	assert.Equal(t, "Gutter Installation - Standard Run", ext.LineItems[0].Description)
	assert.InDelta(t, 0.92, ext.AIConfidence, 0.001)
}

func TestDecodeExtractionStripsFences(t *testing.T) {
	ext, err := DecodeExtraction("```json\n" + validDoc + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "72007", ext.InvoiceNumber)
}

func TestDecodeExtractionRepairsMalformedJSON(t *testing.T) {
	// trailing comma after the last field
	broken := strings.Replace(validDoc, `"ai_confidence": 0.92`, `"ai_confidence": 0.92,`, 1)
	ext, err := DecodeExtraction(broken)
	require.NoError(t, err)
	assert.Equal(t, "72007", ext.InvoiceNumber)
}

func TestDecodeExtractionRejectsMissingRequired(t *testing.T) {
	_, err := DecodeExtraction(`{"invoice_number": "X", "ai_confidence": 0.5}`)
	require.Error(t, err)
}

func TestDecodeExtractionRejectsVendorWithoutName(t *testing.T) {
	doc := strings.Replace(validDoc,
		`{"name": "MGD Construction Services", "address": "100 Main St, Tampa, FL 33601"}`,
		`{"address": "100 Main St, Tampa, FL 33601"}`, 1)
	_, err := DecodeExtraction(doc)
	require.Error(t, err)
}

func TestDecodeExtractionEmptyResponse(t *testing.T) {
	_, err := DecodeExtraction("   ")
	require.Error(t, err)
}

func TestDecodeExtractionDefaultsCurrency(t *testing.T) {
	ext, err := DecodeExtraction(validDoc)
	require.NoError(t, err)
	assert.Equal(t, "USD", ext.Currency)

	withCur := strings.Replace(validDoc, `"invoice_date": "2025-01-15",`, `"invoice_date": "2025-01-15", "currency": "eur",`, 1)
	ext, err = DecodeExtraction(withCur)
	require.NoError(t, err)
	assert.Equal(t, "EUR", ext.Currency)
}

func TestDecodeExtractionDropsBlankLineItems(t *testing.T) {
	doc := strings.Replace(validDoc,
		`{"description": "Gutter Installation - Standard Run", "quantity": 13.16, "unit_price": 130.00, "amount": 1710.80}`,
		`{"description": "Gutter Installation - Standard Run", "quantity": 13.16, "unit_price": 130.00, "amount": 1710.80}, {"description": "   "}`, 1)
	ext, err := DecodeExtraction(doc)
	require.NoError(t, err)
	assert.Len(t, ext.LineItems, 1)
}

func TestExtractionAllowsNullTotal(t *testing.T) {
	doc := strings.Replace(validDoc, `"total_amount": 1710.80,`, `"total_amount": null,`, 1)
	ext, err := DecodeExtraction(doc)
	require.NoError(t, err)
	assert.Nil(t, ext.TotalAmount)
}

func TestBuildTextUserPromptTruncates(t *testing.T) {
	long := strings.Repeat("x", MaxTextLength+500)
	prompt, truncated := BuildTextUserPrompt(long)
	assert.True(t, truncated)
	assert.NotContains(t, prompt, strings.Repeat("x", MaxTextLength+1))
	assert.Contains(t, prompt, "--- INVOICE TEXT START ---")
	assert.Contains(t, prompt, "--- INVOICE TEXT END ---")

	short := "Invoice #123"
	prompt, truncated = BuildTextUserPrompt(short)
	assert.False(t, truncated)
	assert.Contains(t, prompt, short)
	assert.Contains(t, prompt, `"invoice_number"`)
}

func TestInvoiceJSONSchemaRequired(t *testing.T) {
	schema := InvoiceJSONSchema()
	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t,
		[]string{"invoice_number", "vendor", "total_amount", "line_items", "ai_confidence"},
		required)
}
