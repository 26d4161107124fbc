package parser

import "regexp"

// Pattern lists are tried in order; the first match wins.

func compileAll(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		patterns = append(patterns, regexp.MustCompile(`(?im)`+expr))
	}
	return patterns
}

// PO numbers sit at the top of purchase orders, often as a bare
// 8-digit line.
var poNumberPatterns = compileAll(
	`^\s*(\d{8})\s*$`,
	`PO\s*#?\s*:?\s*(\d+)`,
	`Purchase\s+Order\s*#?\s*:?\s*(\d+)`,
	`Order\s*#?\s*:?\s*(\d+)`,
)

var invoiceNumberPatterns = compileAll(
	// "Invoice Number: 72007" / "Invoice Number 2005866550-001"
	`invoice\s+number\s*:?\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "Invoice No. IN03156360" / "Invoice No.: 3463"
	`invoice\s+no\.?\s*:?\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "INVOICE# \n 347518" (number on next line)
	`invoice\s*#\s*(?:page\s*#)?\s*[\n\r]+\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "Invoice # INV-2983843" / "INVOICE #: 260434"
	`invoice\s*#\s*:?\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "Invoice 1503008" (no # or :, just space then number)
	`\binvoice\s+([A-Z0-9][A-Z0-9\-]{3,})`,
	// "INV #: 12345"
	`inv\s*#\s*:?\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "INVOICE NUMBER TOTAL DUE\nWT749671" (header row then value)
	`invoice\s+number\s+.+?[\n\r]+\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "Order# 00160890"
	`order\s*#\s*:?\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "INVOICE:526010-R" (colon directly adjacent)
	`invoice\s*:\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "INVOICE NO.INVOICE DATE ...\n1822587 10/11/2025" (headers then values)
	`invoice\s+no\.?\s*invoice\s+date.*?[\n\r]+\s*([A-Z0-9][A-Z0-9\-]+)`,
	// "SoftLite Windows LLC 1911407-00 Required Date" (embedded in vendor line)
	`(?:LLC|Inc|Corp|Co)\s+([A-Z0-9][A-Z0-9\-]{4,})\s+(?:Required|Ship|Order)`,
	// "Order Number\nPRE-PAID 1911407-00"
	`order\s+number[\n\r]+.*?([A-Z0-9][A-Z0-9\-]{4,})`,
)

// Generic "# <id>" fallback, tried only when no labelled pattern hit.
var invoiceNumberFallbackPatterns = compileAll(
	`#\s*:?\s*([A-Z0-9][A-Z0-9\-]{4,})`,
)

// Words that invoice-number patterns sometimes capture by accident.
var invoiceNumberStopwords = map[string]struct{}{
	"invoice": {}, "page": {}, "order": {}, "date": {}, "number": {},
	"account": {}, "bill": {}, "custom": {}, "shipping": {}, "no": {},
	"si": {}, "abc": {}, "cut": {}, "aqua": {},
}

var projectNumberPatterns = compileAll(
	`Project\s+Number\s*:?\s*([A-Z]?\d+)`,
)

var saleNumberPatterns = compileAll(
	`Sale\s+Number\s*:?\s*([A-Z]?\d+)`,
)

var opportunityNumberPatterns = compileAll(
	`Opportunity\s+Number\s*:?\s*([A-Z]?\d+)`,
)

var orderDatePatterns = compileAll(
	`Order\s+Date\s*[\n\r]+\s*(\d{1,2}/\d{1,2}/\d{2,4})`,
	`Order\s+Date\s*:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`,
)

var datePatterns = compileAll(
	`date\s*:?\s*(\d{1,2}[\/\-\.]\d{1,2}[\/\-\.]\d{2,4})`,
	`invoice\s+date\s*:?\s*(\d{1,2}[\/\-\.]\d{1,2}[\/\-\.]\d{2,4})`,
	`(\d{1,2}[\/\-\.]\d{1,2}[\/\-\.]\d{2,4})`,
)

var dueDatePatterns = compileAll(
	`due\s+date\s*:?\s*(\d{1,2}[\/\-\.]\d{1,2}[\/\-\.]\d{2,4})`,
	`Approved\s+Date\s*[\n\r]+\s*(\d{1,2}/\d{1,2}/\d{2,4})`,
	`payment\s+due\s*:?\s*(\d{1,2}[\/\-\.]\d{1,2}[\/\-\.]\d{2,4})`,
)

var approvedDatePatterns = compileAll(
	`Approved\s+Date\s*[\n\r]+\s*(\d{1,2}/\d{1,2}/\d{2,4})`,
	`Approved\s+Date\s*:?\s*(\d{1,2}[\/\-\.]\d{1,2}[\/\-\.]\d{2,4})`,
)

var totalPatterns = compileAll(
	`(?:Grand|Order)\s+Total\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Total\s+Amount\s+Due\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Total\s+Amount\s+Due\s*\$?\s*([\d,]+\.?\d*)`,
	`Total\s+Due\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Total\s+Due\s*\$\s*([\d,]+\.?\d*)`,
	`Amount\s+Due\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Balance\s+Due\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Balance\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`BALANCE\s*\$?\s*([\d,]+\.?\d*)`,
	`Total\s+Net\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`TOTAL\s+NET\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Net\s+Invoice\s*(?:Amount)?\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Pay\s+This\s+Amount\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Total\s+Invoice\s+Amt\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Invoice\s+Total\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Original\s+Invoice\s+Total\s+Due\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`(?:^|\n)\s*Total\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	// "TOTAL AMOUNT\n5.56" (amount on next line)
	`Total\s+Amount\s*:?\s*[\n\r]+\s*\$?\s*([\d,]+\.?\d*)`,
	// "TOTAL PRICE $ 192.48" ($ with space)
	`Total\s+Price\s*:?\s*\$\s*([\d,]+\.?\d*)`,
	// "EXTENDED NET: ($821.76)": parenthesized credit amounts
	`Extended\s+Net\s*:?\s*(\(\$?\s*[\d,]+\.?\d*\)|\$?\s*-?[\d,]+\.?\d*)`,
	// Amounts with $ separated by space: "$ 192.48"
	`Total\s*:?\s*\$\s+([\d,]+\.?\d*)`,
	`Amount\s+Due\s*:?\s*\$\s+([\d,]+\.?\d*)`,
	// "Window and Door Total 4 Opening Total 4 Sub Total 1,777.52"
	`Sub\s+Total\s+([\d,]+\.\d{2})\s*$`,
	// "COMMENT: TOTAL: $8,163.60" (embedded in a comment line)
	`TOTAL\s*:\s*\$?\s*([\d,]+\.?\d*)`,
	// "BALANCE -$5,963.07" (credit memos)
	`BALANCE\s+(-?\$?\s*[\d,]+\.?\d*)`,
	// "SUBTOTAL: $7,683.39" standalone
	`SUBTOTAL\s*:\s*\$?\s*([\d,]+\.?\d*)`,
)

var subtotalPatterns = compileAll(
	`subtotal\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`sub\s*-?\s*total\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`items?\s+shipped\s*:?\s*\d+\s*subtotal\s*\$?\s*([\d,]+\.?\d*)`,
)

var taxPatterns = compileAll(
	`(?:sales\s+)?tax\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`vat\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`(?:state|county|city)\s+tax\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`tax\s+amount\s*:?\s*\$?\s*([\d,]+\.?\d*)`,
	`Tax\s*\$\s*([\d,]+\.?\d*)`,
)

var emailPatterns = compileAll(
	`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`,
)

var phonePatterns = compileAll(
	`(?:phone|tel|fax)\s*:?\s*([\d\-\(\)\s\+]+)`,
	`(\+?1?\s*[\(\-]?\d{3}[\)\-\s]?\d{3}[\-\s]?\d{4})`,
)

var createdByPatterns = compileAll(
	`Created\s+By\s*:?\s*([A-Za-z\s]+?)(?:\n|$)`,
)

var marketSegmentPatterns = compileAll(
	`Market\s+Segment\s*:?\s*([A-Za-z\s]+?)(?:\n|$)`,
)

var productCategoryPatterns = compileAll(
	`Product\s+Category\s*:?\s*([A-Za-z\s]+?)(?:\n|$)`,
)

var addressPatterns = compileAll(
	// Multi-line address ending in a zip code
	`(?:address|location|ship\s*to|bill\s*to)\s*:?\s*\n?\s*(.+(?:\n.+){0,3}?\s*\d{5}(?:-\d{4})?)`,
	// Street address; word-boundary on the suffix avoids matching "Construction"
	`(\d+\s+[A-Za-z][\w\s]+\b(?:St|Street|Ave|Avenue|Blvd|Dr|Drive|Rd|Road|Ln|Lane|Way|Ct|Court|Pl|Place|Cir|Hwy)\b\.?\s*(?:,\s*[A-Za-z\s]+,?\s*[A-Z]{2}\s*\d{5})?)`,
)

// Vendors that appear often enough to match by name alone.
var knownVendors = []string{
	"MGD Construction Services",
	"Master Gutters Installation Service",
	"Mayan's Construction Corp",
}

// Company suffixes and sector words that mark a line as a vendor name.
var companyIndicators = []string{
	"Inc", "Inc.", "Corp", "Corp.", "LLC", "LLP", "LLLP", "LP", "L.P.",
	"Ltd", "Ltd.", "Co", "Co.", "Company",
	"Services", "Service", "Construction", "Mfg", "Mfg.",
	"Manufacturing", "Products", "Product", "Wholesale",
	"Systems", "Supply", "Supplies", "Solutions",
	"Industries", "Industrial", "IND.", "Ind.",
	"Enterprises", "Enterprise", "Group", "International",
	"Associates", "Association", "Partners",
	"Technologies", "Technology", "Tech",
	"Distributors", "Distribution", "Imaging",
}
