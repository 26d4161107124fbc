package parser

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vedvix/syncledger-extract/internal/entity"
)

var sumMatchTolerance = decimal.NewFromFloat(0.01)

// confidence scores a parse by field presence. Line items contribute
// proportionally to how many carry both a quantity and a total, and a
// line item sum that reproduces the document total earns a bonus.
func (p *Parser) confidence(invoiceNumber string, invoiceDate *time.Time,
	total *decimal.Decimal, vendorName string, lineItems []entity.LineItem) float64 {

	score := 0.0

	if invoiceNumber != "" {
		score += p.cfg.WeightInvoiceNumber
	}
	if invoiceDate != nil {
		score += p.cfg.WeightInvoiceDate
	}
	if total != nil {
		score += p.cfg.WeightTotal
	}
	if vendorName != "" {
		score += p.cfg.WeightVendorName
	}
	if len(lineItems) > 0 {
		complete := 0
		for _, item := range lineItems {
			if item.Amount != nil && item.Quantity != nil {
				complete++
			}
		}
		itemScore := float64(complete) / float64(len(lineItems))
		if itemScore > 1.0 {
			itemScore = 1.0
		}
		score += p.cfg.WeightLineItems * itemScore
	}

	if total != nil && len(lineItems) > 0 {
		calculated := sumLineItems(lineItems)
		if !calculated.IsZero() && total.Sub(calculated).Abs().LessThan(sumMatchTolerance) {
			score += p.cfg.SumMatchBonus
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return math.Round(score*100) / 100
}
