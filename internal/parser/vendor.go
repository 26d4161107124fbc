package parser

import (
	"regexp"
	"strings"

	"github.com/vedvix/syncledger-extract/internal/entity"
)

var approvedDateVendorPattern = regexp.MustCompile(
	`(?i)Approved\s+Date\s*[\n\r]+([A-Za-z][A-Za-z\s']+(?:Inc|Corp|LLC|Services?|Construction)?[A-Za-z\s]*)`)

// extractVendor resolves the issuing vendor using a chain of
// strategies, from strongest signal to weakest:
//
//  1. known vendor names anywhere in the text
//  2. "Remit To" / "Pay To" blocks
//  3. the line after "Approved Date" (purchase order layouts)
//  4. company-indicator words in the first 20 lines
//  5. the first substantive line of the document
func (p *Parser) extractVendor(text string) entity.Vendor {
	email := extractPattern(text, emailPatterns)
	phone := extractPattern(text, phonePatterns)

	var name string
	textLower := strings.ToLower(text)

	for _, known := range knownVendors {
		if strings.Contains(textLower, strings.ToLower(known)) {
			name = known
			break
		}
	}

	if name == "" {
		name = vendorFromRemitBlock(text)
	}

	if name == "" {
		if match := approvedDateVendorPattern.FindStringSubmatch(text); match != nil {
			name = strings.TrimSpace(match[1])
		}
	}

	if name == "" {
		name = vendorFromIndicators(text)
	}

	if name == "" {
		name = vendorFromFirstLine(text)
	}

	if name != "" {
		name = cleanVendorName(name)
	}

	return entity.Vendor{
		Name:    name,
		Address: extractAddress(text),
		Email:   email,
		Phone:   phone,
	}
}

var remitBlockPatterns = compileAll(
	// "Remit To: Vendor Name" or "Remit To:\nVendor Name"
	`(?:remit|pay(?:able)?|make\s+check\s+payable)\s+to\s*:?\s*[\n\r]*\s*([A-Z][A-Za-z0-9\s\.\,'\&\-]+?)(?:\n|\r|\d|$)`,
	// "Pay To:\nVendor Name"
	`pay\s+to\s*:?\s*[\n\r]+\s*([A-Z][A-Za-z0-9\s\.\,'\&\-]+?)(?:\n|\r|$)`,
)

var (
	startsWithDigit   = regexp.MustCompile(`^\d`)
	remitGenericLines = regexp.MustCompile(`(?i)^(the order|po box|p\.?o\.?)`)
)

func vendorFromRemitBlock(text string) string {
	for _, pattern := range remitBlockPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		name := strings.TrimSpace(match[1])
		if len(name) <= 3 || len(name) >= 80 {
			continue
		}
		// Addresses start with digits; skip generic remittance text too.
		if startsWithDigit.MatchString(name) || remitGenericLines.MatchString(name) {
			continue
		}
		return name
	}
	return ""
}

var vendorSkipWords = []string{
	"purchase order", "invoice", "project", "sale number",
	"opportunity", "created by", "bill to", "ship to",
	"sold to", "long roofing", "long home", "long fence",
	"total", "balance", "amount due", "page",
}

var numericOnlyLine = regexp.MustCompile(`^[\d\$\.\,\/\-\s]+$`)

var indicatorPatterns = buildIndicatorPatterns()

func buildIndicatorPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(companyIndicators))
	for _, indicator := range companyIndicators {
		expr := strings.ReplaceAll(regexp.QuoteMeta(indicator), `\.`, `\.?`)
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+expr+`\b`))
	}
	return patterns
}

func vendorFromIndicators(text string) string {
	lines := nonEmptyLines(text)
	limit := len(lines)
	if limit > 20 {
		limit = 20
	}

	for _, line := range lines[:limit] {
		lineLower := strings.ToLower(line)
		if containsAny(lineLower, vendorSkipWords) {
			continue
		}
		if len(line) < 4 || numericOnlyLine.MatchString(line) {
			continue
		}
		for _, pattern := range indicatorPatterns {
			if pattern.MatchString(line) {
				return line
			}
		}
	}
	return ""
}

// Lines that can never be a vendor name in the document header.
var firstLineSkipPatterns = compileAll(
	`^\d+$`,
	`^\$`,
	`^[\d/\-\.]+$`,
	`^invoice$`,
	`^purchase\s+order`,
	`^page\s`,
	`^\*`,
	`^bill\s+to`,
	`^ship\s+to`,
	`^sold\s+to`,
	`^service\s+chg`,
	`^date\s+invoice`,
	`^this\s+is\s+an`,
	`^<+`,
	`^terms`,
	`^account`,
)

var allUpperWord = regexp.MustCompile(`^[A-Z]+$`)

// vendorFromFirstLine falls back to the first substantive text line;
// many invoices open with the vendor name.
func vendorFromFirstLine(text string) string {
	lines := nonEmptyLines(text)
	limit := len(lines)
	if limit > 10 {
		limit = 10
	}

	for _, line := range lines[:limit] {
		if len(line) < 4 {
			continue
		}
		lineLower := strings.ToLower(line)
		if matchesAny(lineLower, firstLineSkipPatterns) {
			continue
		}
		// Bare uppercase titles like "INVOICE" or "ORDER".
		if allUpperWord.MatchString(line) && len(line) < 15 {
			continue
		}
		words := strings.Fields(line)
		if len(words) >= 2 && letterRatio(line) > 0.5 {
			return line
		}
	}
	return ""
}

var (
	customerSuffix = regexp.MustCompile(`(?i)\s*-\s*Customer\s*#.*$`)
	phoneSuffix    = regexp.MustCompile(`\s+\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{4}\s*$`)
	emailSuffix    = regexp.MustCompile(`\s+[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\s*$`)
	columnSplit    = regexp.MustCompile(`\s{2,}|\n|\r|\t`)
)

// cleanVendorName strips trailing artifacts like customer numbers,
// phone numbers and emails that column extraction glues on.
func cleanVendorName(name string) string {
	name = strings.TrimSpace(name)
	name = customerSuffix.ReplaceAllString(name, "")
	name = phoneSuffix.ReplaceAllString(name, "")
	name = emailSuffix.ReplaceAllString(name, "")
	name = strings.Trim(name, " ,.-")
	if len(name) > 60 {
		parts := columnSplit.Split(name, -1)
		name = strings.TrimSpace(parts[0])
	}
	return name
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

func letterRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	letters := 0
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			letters++
		}
	}
	return float64(letters) / float64(len(s))
}
