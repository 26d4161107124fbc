package cascade

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/llm"
	"github.com/vedvix/syncledger-extract/internal/parser"
	"github.com/vedvix/syncledger-extract/internal/validation"
)

// PageRenderer turns a PDF into page images for vision extraction.
type PageRenderer interface {
	RenderPages(ctx context.Context, pdfPath string, maxPages int) ([][]byte, error)
}

type Config struct {
	EnableVision     bool
	EnableTextLLM    bool
	EnableValidation bool
	MaxPages         int
}

func DefaultConfig() Config {
	return Config{
		EnableVision:     true,
		EnableTextLLM:    true,
		EnableValidation: true,
		MaxPages:         5,
	}
}

// Deps are the tier implementations the controller drives. Vision and
// Text may be nil, which disables those tiers regardless of config.
type Deps struct {
	Vision    llm.VisionExtractor
	Text      llm.TextExtractor
	Parser    *parser.Parser
	Validator *validation.Validator
	Renderer  PageRenderer
}

// Result is the outcome of a cascade run: which tier produced the
// document, what it cost, and why upper tiers fell through if they did.
type Result struct {
	Tier            constants.Tier
	Document        *entity.ExtractedDocument
	Extraction      *llm.InvoiceExtraction
	Fields          *entity.RawFieldSet
	LineItems       []entity.LineItem
	CrossValidation *validation.Result
	FinalConfidence float64
	Usage           *llm.Usage
	FallbackReason  string
	ElapsedMS       int64
}

// Controller runs the tiered extraction cascade: vision first, then
// text-model, then pattern parsing as the floor that always answers.
// Pattern extraction always runs so upper tiers can be cross-checked
// against it.
type Controller struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	mu        sync.Mutex
	totalCost float64
	totalRuns int
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = 5
	}
	if deps.Parser == nil {
		deps.Parser = parser.New(parser.DefaultConfig(), logger)
	}
	if deps.Validator == nil {
		deps.Validator = validation.New(logger)
	}
	return &Controller{cfg: cfg, deps: deps, logger: logger}
}

// Extract runs the cascade over a document. pdfPath may be empty when no
// source file is available, in which case the vision tier is skipped.
func (c *Controller) Extract(ctx context.Context, pdfPath, rawText string) (*Result, error) {
	start := time.Now()

	fields, items, patternConf := c.deps.Parser.ParseWithLineItems(rawText)
	res := &Result{Fields: fields, LineItems: items}

	if c.visionEnabled() && pdfPath != "" {
		c.runVision(ctx, pdfPath, res)
	}
	if res.Extraction == nil && c.textEnabled() && strings.TrimSpace(rawText) != "" {
		c.runText(ctx, rawText, res)
	}
	if res.Extraction == nil {
		c.logger.Info("cascade.pattern.fallback", "fallback_reason", res.FallbackReason)
		res.Tier = constants.TierPattern
		res.FinalConfidence = patternConf
		res.Document = c.deps.Parser.Parse(rawText)
	} else {
		res.Document = c.documentFromOracle(res)
	}

	res.ElapsedMS = time.Since(start).Milliseconds()

	c.mu.Lock()
	if res.Usage != nil {
		c.totalCost += res.Usage.CostUSD
	}
	c.totalRuns++
	totalCost, totalRuns := c.totalCost, c.totalRuns
	c.mu.Unlock()

	c.logger.Info("cascade.done",
		"tier", res.Tier,
		"final_confidence", res.FinalConfidence,
		"elapsed_ms", res.ElapsedMS,
		"total_cost_session", totalCost,
		"total_extractions", totalRuns,
	)
	return res, nil
}

func (c *Controller) visionEnabled() bool {
	return c.cfg.EnableVision && c.deps.Vision != nil && c.deps.Renderer != nil
}

func (c *Controller) textEnabled() bool {
	return c.cfg.EnableTextLLM && c.deps.Text != nil
}

func (c *Controller) runVision(ctx context.Context, pdfPath string, res *Result) {
	c.logger.Info("cascade.vision.start", "path", pdfPath)

	pages, err := c.deps.Renderer.RenderPages(ctx, pdfPath, c.cfg.MaxPages)
	if err != nil {
		res.FallbackReason = "vision render error: " + err.Error()
		c.logger.Warn("cascade.vision.render_error", "error", err)
		return
	}

	ext, usage, err := c.deps.Vision.ExtractFromImages(ctx, pages)
	if err != nil {
		res.FallbackReason = "vision error: " + err.Error()
		c.logger.Warn("cascade.vision.error", "error", err)
		return
	}
	if !Viable(ext) {
		res.FallbackReason = "vision returned invalid/empty extraction"
		c.logger.Warn("cascade.vision.not_viable")
		return
	}

	res.Extraction = ext
	res.Usage = usage
	res.Tier = constants.TierVision
	if c.cfg.EnableValidation {
		res.CrossValidation = c.deps.Validator.Validate(ext, res.Fields, res.LineItems)
		res.FinalConfidence = res.CrossValidation.FinalConfidence
		res.Tier = constants.TierVisionValidated
	} else {
		res.FinalConfidence = confOrDefault(ext.AIConfidence, 0.8)
	}
}

func (c *Controller) runText(ctx context.Context, rawText string, res *Result) {
	c.logger.Info("cascade.text.start", "text_length", len(rawText))

	ext, usage, err := c.deps.Text.ExtractFromText(ctx, rawText)
	if err != nil {
		res.FallbackReason = appendReason(res.FallbackReason, "text llm error: "+err.Error())
		c.logger.Warn("cascade.text.error", "error", err)
		return
	}
	if !Viable(ext) {
		res.FallbackReason = appendReason(res.FallbackReason, "text llm returned invalid/empty extraction")
		c.logger.Warn("cascade.text.not_viable")
		return
	}

	res.Extraction = ext
	res.Usage = usage
	res.Tier = constants.TierTextLLM
	if c.cfg.EnableValidation {
		res.CrossValidation = c.deps.Validator.Validate(ext, res.Fields, res.LineItems)
		res.FinalConfidence = res.CrossValidation.FinalConfidence
		res.Tier = constants.TierTextValidated
	} else {
		res.FinalConfidence = confOrDefault(ext.AIConfidence, 0.7)
	}
}

// Viable reports whether a model extraction carries enough identity to be
// worth keeping: a document number plus either a total or a vendor, or a
// total plus a vendor.
func Viable(ext *llm.InvoiceExtraction) bool {
	if ext == nil {
		return false
	}
	hasID := ext.InvoiceNumber != "" || ext.PONumber != ""
	hasTotal := ext.TotalAmount != nil
	hasVendor := ext.Vendor.Name != ""
	if hasID && (hasTotal || hasVendor) {
		return true
	}
	return hasTotal && hasVendor
}

// Stats is a snapshot of session cost tracking.
type Stats struct {
	TotalExtractions int
	TotalCostUSD     float64
}

func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{TotalExtractions: c.totalRuns, TotalCostUSD: c.totalCost}
}

// documentFromOracle converts a model extraction into the pipeline's
// document shape. Review is required below the confidence threshold or
// when cross-validation flagged a critical disagreement.
func (c *Controller) documentFromOracle(res *Result) *entity.ExtractedDocument {
	ext := res.Extraction

	items := make([]entity.LineItem, 0, len(ext.LineItems))
	for i, it := range ext.LineItems {
		items = append(items, entity.LineItem{
			LineNumber:     i + 1,
			Description:    it.Description,
			ItemCode:       it.ItemCode,
			Quantity:       toDecimal(it.Quantity),
			Unit:           it.Unit,
			UnitPrice:      toDecimal(it.UnitPrice),
			TaxRate:        toDecimal(it.TaxRate),
			TaxAmount:      toDecimal(it.TaxAmount),
			DiscountAmount: toDecimal(it.Discount),
			Amount:         toDecimal(it.Amount),
			GLAccount:      it.GLAccount,
			CostCenter:     it.CostCenter,
		})
	}

	project := ext.ProjectNumber
	if project == "" {
		project = ext.Opportunity
	}
	currency := ext.Currency
	if currency == "" {
		currency = "USD"
	}

	review := res.FinalConfidence < constants.ReviewThreshold ||
		(res.CrossValidation != nil && res.CrossValidation.RecommendedReview)

	doc := &entity.ExtractedDocument{
		InvoiceNumber: ext.InvoiceNumber,
		PONumber:      ext.PONumber,
		InvoiceDate:   toDate(ext.InvoiceDate),
		DueDate:       toDate(ext.DueDate),
		OrderDate:     toDate(ext.OrderDate),
		Vendor: entity.Vendor{
			Name:    ext.Vendor.Name,
			Address: ext.Vendor.Address,
			Email:   ext.Vendor.Email,
			Phone:   ext.Vendor.Phone,
			TaxID:   ext.Vendor.TaxID,
		},
		Subtotal:             toDecimal(ext.Subtotal),
		TaxAmount:            toDecimal(ext.TaxAmount),
		TotalAmount:          toDecimal(ext.TotalAmount),
		Currency:             currency,
		PaymentTerms:         ext.PaymentTerms,
		LineItems:            items,
		GLAccount:            ext.GLAccount,
		Project:              project,
		Location:             ext.Vendor.Address,
		Confidence:           res.FinalConfidence,
		RequiresManualReview: review,
	}
	if ext.AINotes != "" {
		doc.Notes = append(doc.Notes, ext.AINotes)
	}
	if res.CrossValidation != nil {
		doc.Notes = append(doc.Notes, res.CrossValidation.Notes...)
	}
	return doc
}

func toDecimal(p *float64) *decimal.Decimal {
	if p == nil {
		return nil
	}
	d := decimal.NewFromFloat(*p)
	return &d
}

func toDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

func confOrDefault(conf, def float64) float64 {
	if conf == 0 {
		return def
	}
	return conf
}

func appendReason(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + " | " + next
}
