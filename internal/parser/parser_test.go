package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedvix/syncledger-extract/constants"
)

const purchaseOrderText = `72007125
MGD Construction Services
Order Date
01/15/2025
Invoice Number: 72007
Product Name
Quantity
Price
Gutter Installation - Standard Run
13.16 $130.00 $1,710.80
Total Due: $1,710.80
`

func TestParsePurchaseOrder(t *testing.T) {
	p := New(Config{}, nil)
	doc := p.Parse(purchaseOrderText)

	assert.Equal(t, "72007", doc.InvoiceNumber)
	assert.Equal(t, "72007125", doc.PONumber)
	assert.Equal(t, "MGD Construction Services", doc.Vendor.Name)

	require.NotNil(t, doc.TotalAmount)
	assert.True(t, doc.TotalAmount.Equal(decimal.RequireFromString("1710.80")),
		"total = %s", doc.TotalAmount)

	require.NotNil(t, doc.InvoiceDate)
	assert.Equal(t, "2025-01-15", doc.InvoiceDate.Format("2006-01-02"))

	require.Len(t, doc.LineItems, 1)
	item := doc.LineItems[0]
	require.NotNil(t, item.Quantity)
	assert.True(t, item.Quantity.Equal(decimal.RequireFromString("13.16")))
	require.NotNil(t, item.Amount)
	assert.True(t, item.Amount.Equal(decimal.RequireFromString("1710.80")))

	assert.GreaterOrEqual(t, doc.Confidence, 0.85)
	assert.False(t, doc.RequiresManualReview)
}

func TestParseIsIdempotent(t *testing.T) {
	p := New(Config{}, nil)
	first := p.Parse(purchaseOrderText)
	second := p.Parse(purchaseOrderText)
	assert.Equal(t, first, second)
}

func TestMissingTotalSummedFromLineItems(t *testing.T) {
	text := `Acme Supply LLC
Invoice Number: 555123
Product Name
Widget A
2.00 $25.00 $50.00
Widget B
4.00 $25.00 $100.00
`
	p := New(Config{}, nil)
	fields, items, confidence := p.ParseWithLineItems(text)

	require.Len(t, items, 2)
	total := fields.Amount(constants.SrcTotal)
	require.NotNil(t, total)
	assert.True(t, total.Equal(decimal.RequireFromString("150.00")), "total = %s", total)
	assert.Greater(t, confidence, 0.0)
}

func TestConfidenceMonotonicity(t *testing.T) {
	base := `Acme Supply LLC
Invoice Number: 555123
`
	withTotal := base + "Total Due: $99.00\n"

	p := New(Config{}, nil)
	assert.GreaterOrEqual(t, p.Parse(withTotal).Confidence, p.Parse(base).Confidence)
}

func TestConfidenceWeightsConfigurable(t *testing.T) {
	heavy := New(Config{
		WeightInvoiceNumber: 1.0,
		WeightInvoiceDate:   0.0,
		WeightTotal:         0.0,
		WeightVendorName:    0.0,
		WeightLineItems:     0.0,
	}, nil)
	doc := heavy.Parse("Invoice Number: 72007\n")
	assert.Equal(t, 1.0, doc.Confidence)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1,710.80", "1710.80"},
		{"$1,710.80", "1710.80"},
		{"$ 192.48", "192.48"},
		{"(821.76)", "-821.76"},
		{"($821.76)", "-821.76"},
		{"-$5,963.07", "-5963.07"},
		{"0.00", "0.00"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
	}

	_, err := ParseAmount("not a number")
	assert.Error(t, err)
}

func TestAmountRoundTrip(t *testing.T) {
	for _, s := range []string{"1710.80", "-821.76", "0.00", "99999.99"} {
		amount, err := ParseAmount(s)
		require.NoError(t, err)
		assert.Equal(t, s, amount.StringFixed(2))
	}
}

func TestInvoiceNumberFormats(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Invoice Number: 72007", "72007"},
		{"Invoice No. IN03156360", "IN03156360"},
		{"Invoice # INV-2983843", "INV-2983843"},
		{"INVOICE#\n347518", "347518"},
		{"INVOICE:526010-R", "526010-R"},
		{"Order# 00160890", "00160890"},
		{"Invoice 1503008", "1503008"},
	}
	p := New(Config{}, nil)
	for _, tc := range cases {
		assert.Equal(t, tc.want, p.extractInvoiceNumber(tc.text), "text = %q", tc.text)
	}
}

func TestInvoiceNumberRejectsBareWords(t *testing.T) {
	p := New(Config{}, nil)
	assert.Equal(t, "", p.extractInvoiceNumber("Invoice Number: Page"))
	assert.Equal(t, "", p.extractInvoiceNumber("no identifiers here"))
}

func TestSynthesizedInvoiceNumberFromPO(t *testing.T) {
	text := `72007125
Some Vendor Inc
Total Due: $100.00
`
	p := New(Config{}, nil)
	doc := p.Parse(text)
	assert.Equal(t, "PO-72007125", doc.InvoiceNumber)
}

func TestVendorFromRemitBlock(t *testing.T) {
	text := `INVOICE
Remit To: Atlas Seamless Gutters Co
123 Main St
`
	p := New(Config{}, nil)
	vendor := p.extractVendor(text)
	assert.Equal(t, "Atlas Seamless Gutters Co", vendor.Name)
}

func TestVendorFromCompanyIndicators(t *testing.T) {
	text := `INVOICE
Bill To: somebody
Apex Roofing Supply
Date: 01/02/2025
`
	p := New(Config{}, nil)
	vendor := p.extractVendor(text)
	assert.Equal(t, "Apex Roofing Supply", vendor.Name)
}

func TestCleanVendorName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Corp - Customer # LON014", "Acme Corp"},
		{"Acme Corp (301) 555-1212", "Acme Corp"},
		{"Acme Corp billing@acme.com", "Acme Corp"},
		{"  Acme Corp, ", "Acme Corp"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanVendorName(tc.in), "in = %q", tc.in)
	}
}

func TestExtractAddressRejectsBogusState(t *testing.T) {
	assert.Equal(t, "", extractAddress("order er 00068 reference"))
}

func TestExtractAddressStateZip(t *testing.T) {
	text := `MGD Construction Services
Suite 200
College Park, MD 20740
`
	addr := extractAddress(text)
	assert.Contains(t, addr, "MD 20740")
	assert.Contains(t, addr, "MGD Construction Services")
}

func TestStackedLineItems(t *testing.T) {
	text := `Product Name
Quantity
Price
Gutter Guards - 6 inch
24.00
$8.50
$204.00
Downspout Extension
3.00
$12.00
$36.00
Total: $240.00
`
	p := New(Config{}, nil)
	items := p.ExtractLineItems(text)

	require.Len(t, items, 2)
	assert.True(t, items[0].Amount.Equal(decimal.RequireFromString("204.00")))
	assert.True(t, items[1].Amount.Equal(decimal.RequireFromString("36.00")))
	assert.Equal(t, 1, items[0].LineNumber)
	assert.Equal(t, 2, items[1].LineNumber)
}

func TestDescriptionContinuationRepair(t *testing.T) {
	text := `Product Name
Roof Framing
4.00 $100.00 $400.00 - 6/12 Mansard Repair
2.00 $50.00 $100.00
`
	p := New(Config{}, nil)
	items := p.ExtractLineItems(text)

	require.Len(t, items, 2)
	assert.Contains(t, items[0].Description, "- 6/12")
	assert.Equal(t, "Mansard Repair", items[1].Description)
}

func TestParenthesizedCreditTotal(t *testing.T) {
	text := "CREDIT MEMO\nEXTENDED NET: ($821.76)\n"
	p := New(Config{}, nil)
	fields := p.ParseRawFields(text)

	total := fields.Amount(constants.SrcTotal)
	require.NotNil(t, total)
	assert.True(t, total.IsNegative(), "total = %s", total)
	assert.True(t, total.Equal(decimal.RequireFromString("-821.76")))
}
