package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vedvix/syncledger-extract/internal/entity"
)

var (
	// "13.16 $130.00 $1,710.80" or "desc text 7.20 $170.00 $1,224.00"
	inlineTriple = regexp.MustCompile(`([\d,]+\.?\d*)\s+\$([\d,]+\.?\d*)\s+\$([\d,]+\.?\d*)`)

	itemHeaderRow    = regexp.MustCompile(`(?i)Product\s+Name|Description\s+Price|Line\s+Unit\s+Total`)
	itemSubHeaderRow = regexp.MustCompile(`(?i)^(Price|Quantity|Description|Product\s+Name)\s*$`)
	itemTotalRow     = regexp.MustCompile(`(?i)^\s*Total\s*:`)
	itemNotesRow     = regexp.MustCompile(`(?i)notes|special\s+instructions`)

	bareAmount = regexp.MustCompile(`^\$[\d,]+\.?\d*$`)
	bareNumber = regexp.MustCompile(`^[\d,]+\.?\d*$`)
)

// ExtractLineItems pulls billed lines out of invoice text.
//
// Text extractors produce two shapes: inline, where quantity, unit
// price and line total share a line with the description, and stacked,
// where each value sits on its own line. The inline walk runs first;
// when it finds nothing the stacked and pattern-based walks take over.
func (p *Parser) ExtractLineItems(text string) []entity.LineItem {
	var items []entity.LineItem
	lines := strings.Split(text, "\n")

	startIdx := 0
	endIdx := len(lines)

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if itemHeaderRow.MatchString(stripped) {
			startIdx = i + 1
		}
		if startIdx > 0 && i == startIdx && itemSubHeaderRow.MatchString(stripped) {
			startIdx = i + 1
			continue
		}
		if itemTotalRow.MatchString(stripped) {
			endIdx = i
			break
		}
	}

	for startIdx < endIdx {
		if itemSubHeaderRow.MatchString(strings.TrimSpace(lines[startIdx])) {
			startIdx++
		} else {
			break
		}
	}

	lineNumber := 0
	var descBuffer []string

	for i := startIdx; i < endIdx; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if itemNotesRow.MatchString(line) {
			continue
		}

		loc := inlineTriple.FindStringSubmatchIndex(line)
		if loc == nil {
			descBuffer = append(descBuffer, line)
			continue
		}

		// Text before the numeric triple belongs to the description.
		if prefix := strings.TrimSpace(line[:loc[0]]); prefix != "" {
			descBuffer = append(descBuffer, prefix)
		}

		qty, err1 := parseNumber(line[loc[2]:loc[3]])
		unitPrice, err2 := parseNumber(line[loc[4]:loc[5]])
		lineTotal, err3 := parseNumber(line[loc[6]:loc[7]])
		if err1 != nil || err2 != nil || err3 != nil {
			descBuffer = append(descBuffer, line)
			continue
		}

		lineNumber++
		items = append(items, entity.LineItem{
			LineNumber:  lineNumber,
			Description: strings.TrimSpace(strings.Join(descBuffer, " ")),
			Quantity:    &qty,
			UnitPrice:   &unitPrice,
			Amount:      &lineTotal,
		})

		// Text after the triple starts the next item's description.
		descBuffer = descBuffer[:0]
		if suffix := strings.TrimSpace(line[loc[1]:]); suffix != "" {
			descBuffer = append(descBuffer, suffix)
		}
	}

	// Leftover description lines belong to the last item.
	if len(descBuffer) > 0 && len(items) > 0 {
		if extra := strings.TrimSpace(strings.Join(descBuffer, " ")); extra != "" {
			last := &items[len(items)-1]
			if last.Description != "" {
				last.Description += " " + extra
			} else {
				last.Description = extra
			}
		}
	}

	if len(items) == 0 {
		items = p.extractLineItemsStacked(text)
	}
	if len(items) == 0 {
		items = p.extractLineItemsPattern(text)
	}

	return fixDescriptionContinuations(items)
}

var (
	// "- 6/12" style numeric fragment before the real description
	dashContinuation = regexp.MustCompile(`(?s)^(-\s*[\d/\.\-\s]+?)\s+([A-Z][A-Za-z].*)$`)
	// lowercase fragment before a capitalized phrase
	lowerContinuation = regexp.MustCompile(`(?s)^([a-z][^.]+?)\s+([A-Z][A-Za-z].+)$`)
)

// fixDescriptionContinuations repairs wrapped cell text that column
// extraction attaches to the start of the following item.
func fixDescriptionContinuations(items []entity.LineItem) []entity.LineItem {
	for i := 1; i < len(items); i++ {
		desc := items[i].Description
		if desc == "" {
			continue
		}

		match := dashContinuation.FindStringSubmatch(desc)
		if match == nil {
			match = lowerContinuation.FindStringSubmatch(desc)
		}
		if match == nil {
			continue
		}

		continuation := strings.TrimSpace(match[1])
		prev := &items[i-1]
		if prev.Description != "" {
			prev.Description += " " + continuation
		} else {
			prev.Description = continuation
		}
		items[i].Description = strings.TrimSpace(match[2])
	}
	return items
}

// extractLineItemsStacked handles documents where quantity, unit price
// and line total each occupy their own line below the description.
func (p *Parser) extractLineItemsStacked(text string) []entity.LineItem {
	var items []entity.LineItem
	lines := strings.Split(text, "\n")

	headerIdx := -1
	endIdx := len(lines)

	for i, line := range lines {
		if strings.Contains(line, "Product Name") ||
			(strings.Contains(line, "Total") && strings.Contains(line, "Price")) {
			headerIdx = i
		}
		if itemTotalRow.MatchString(strings.TrimSpace(line)) {
			endIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil
	}

	startIdx := headerIdx + 1
	for startIdx < endIdx {
		if itemSubHeaderRow.MatchString(strings.TrimSpace(lines[startIdx])) {
			startIdx++
		} else {
			break
		}
	}

	lineNumber := 0
	var descBuffer []string
	i := startIdx

	for i < endIdx {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}

		if bareAmount.MatchString(line) {
			if i+1 < endIdx {
				nextLine := strings.TrimSpace(lines[i+1])
				if bareAmount.MatchString(nextLine) {
					// Walk backwards for the quantity line.
					qtyIdx := i - 1
					qtyLine := ""
					for qtyIdx >= startIdx {
						qtyLine = strings.TrimSpace(lines[qtyIdx])
						if bareNumber.MatchString(qtyLine) {
							break
						}
						qtyIdx--
					}

					if qtyIdx >= startIdx && bareNumber.MatchString(qtyLine) {
						qty, err1 := parseNumber(qtyLine)
						unitPrice, err2 := parseNumber(strings.TrimPrefix(line, "$"))
						lineTotal, err3 := parseNumber(strings.TrimPrefix(nextLine, "$"))
						if err1 == nil && err2 == nil && err3 == nil {
							lineNumber++
							items = append(items, entity.LineItem{
								LineNumber:  lineNumber,
								Description: strings.TrimSpace(strings.Join(descBuffer, " ")),
								Quantity:    &qty,
								UnitPrice:   &unitPrice,
								Amount:      &lineTotal,
							})
							descBuffer = descBuffer[:0]
							i += 2
							continue
						}
					}
				}
			}
			i++
			continue
		}

		if bareNumber.MatchString(line) {
			i++
			continue
		}

		if !itemNotesRow.MatchString(line) {
			descBuffer = append(descBuffer, line)
		}
		i++
	}

	return items
}

var itemBoundaryWords = []string{"Product Name", "Quantity", "Price", "Total:", "Notes", "Total"}

// extractLineItemsPattern scans for $unit $total line pairs anywhere
// in the text and walks backwards for quantity and description.
func (p *Parser) extractLineItemsPattern(text string) []entity.LineItem {
	var items []entity.LineItem
	lines := nonEmptyLines(text)

	lineNumber := 0
	for i := 2; i < len(lines); i++ {
		line := lines[i]
		if !bareAmount.MatchString(line) {
			continue
		}
		if !bareAmount.MatchString(lines[i-1]) || !bareNumber.MatchString(lines[i-2]) {
			continue
		}

		var descLines []string
		for j := i - 3; j >= 0; j-- {
			prev := lines[j]
			if bareAmount.MatchString(prev) || bareNumber.MatchString(prev) {
				break
			}
			if containsAny(prev, itemBoundaryWords) {
				break
			}
			descLines = append([]string{prev}, descLines...)
		}

		qty, err1 := parseNumber(lines[i-2])
		unitPrice, err2 := parseNumber(strings.TrimPrefix(lines[i-1], "$"))
		lineTotal, err3 := parseNumber(strings.TrimPrefix(line, "$"))
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}

		lineNumber++
		items = append(items, entity.LineItem{
			LineNumber:  lineNumber,
			Description: strings.Join(descLines, " "),
			Quantity:    &qty,
			UnitPrice:   &unitPrice,
			Amount:      &lineTotal,
		})
	}

	return items
}

func parseNumber(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
}
