package mapping

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/entity"
)

// timeNow is stubbed in tests.
var timeNow = time.Now

// Engine holds the registered mapping profiles and applies them to
// extracted field sets. Safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	profiles map[string]*entity.MappingProfile
	logger   *slog.Logger
}

// NewEngine creates an engine preloaded with the builtin profiles.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		profiles: make(map[string]*entity.MappingProfile),
		logger:   logger,
	}
	for _, profile := range []*entity.MappingProfile{
		DefaultSubcontractorProfile(),
		StandardInvoiceProfile(),
	} {
		e.profiles[profile.ID] = profile
	}
	return e
}

// Register adds or replaces a profile. Rules are validated as a whole;
// a rejected profile leaves any previous registration untouched.
func (e *Engine) Register(profile *entity.MappingProfile) error {
	if profile == nil || profile.ID == "" {
		return common.NewAppError("MAPPING_ERROR", "profile id is required", common.ErrInvalidInput)
	}
	if err := ValidateProfile(profile); err != nil {
		return err
	}

	e.mu.Lock()
	e.profiles[profile.ID] = profile
	e.mu.Unlock()

	e.logger.Info("mapping.profile.registered", "profile_id", profile.ID, "name", profile.Name)
	return nil
}

// ValidateProfile checks that every rule references known fields and a
// known transform, and that the vendor pattern compiles.
func ValidateProfile(profile *entity.MappingProfile) error {
	if profile.VendorPattern != "" {
		if _, err := regexp.Compile(profile.VendorPattern); err != nil {
			return common.NewAppError("MAPPING_ERROR",
				fmt.Sprintf("invalid vendor pattern %q", profile.VendorPattern), err)
		}
	}
	for i, rule := range profile.Rules {
		if !rule.Target.IsValid() {
			return common.NewAppError("MAPPING_ERROR",
				fmt.Sprintf("rule %d: unknown target field %q", i, rule.Target), common.ErrInvalidInput)
		}
		if rule.Source != "" && !rule.Source.IsValid() {
			return common.NewAppError("MAPPING_ERROR",
				fmt.Sprintf("rule %d: unknown source field %q", i, rule.Source), common.ErrInvalidInput)
		}
		if rule.Fallback != "" && !rule.Fallback.IsValid() {
			return common.NewAppError("MAPPING_ERROR",
				fmt.Sprintf("rule %d: unknown fallback field %q", i, rule.Fallback), common.ErrInvalidInput)
		}
		if rule.Transform != "" && !rule.Transform.IsValid() {
			return common.NewAppError("MAPPING_ERROR",
				fmt.Sprintf("rule %d: unknown date transform %q", i, rule.Transform), common.ErrInvalidInput)
		}
		if rule.TransformSource != "" && !rule.TransformSource.IsValid() {
			return common.NewAppError("MAPPING_ERROR",
				fmt.Sprintf("rule %d: unknown transform source %q", i, rule.TransformSource), common.ErrInvalidInput)
		}
		if rule.Source == "" && rule.DefaultValue == "" && rule.Transform == "" {
			return common.NewAppError("MAPPING_ERROR",
				fmt.Sprintf("rule %d: no source, transform or default for target %q", i, rule.Target),
				common.ErrInvalidInput)
		}
	}
	return nil
}

// Get returns a profile by ID.
func (e *Engine) Get(profileID string) (*entity.MappingProfile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	profile, ok := e.profiles[profileID]
	return profile, ok
}

// List returns profiles visible to an organization: its own plus the
// global ones. An empty orgID lists everything. Order is stable.
func (e *Engine) List(orgID string) []*entity.MappingProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()

	profiles := make([]*entity.MappingProfile, 0, len(e.profiles))
	for _, profile := range e.profiles {
		if orgID != "" && profile.OrgID != "" && profile.OrgID != orgID {
			continue
		}
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles
}

// Remove deletes a profile by ID, reporting whether it existed.
func (e *Engine) Remove(profileID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.profiles[profileID]; !ok {
		return false
	}
	delete(e.profiles, profileID)
	return true
}

// SelectProfile picks the best profile for the given context.
//
// Priority: explicit profile ID, then organization vendor-pattern
// match, then global vendor-pattern match, then organization default,
// then global default, then the builtin subcontractor profile.
func (e *Engine) SelectProfile(vendorName, profileID, orgID string) *entity.MappingProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if profileID != "" {
		if profile, ok := e.profiles[profileID]; ok {
			return profile
		}
	}

	if vendorName != "" {
		if profile := e.matchVendorLocked(vendorName, orgID, false); profile != nil {
			e.logger.Info("mapping.profile.vendor_match",
				"profile", profile.Name, "vendor", vendorName)
			return profile
		}
		if profile := e.matchVendorLocked(vendorName, "", true); profile != nil {
			return profile
		}
	}

	if orgID != "" {
		for _, id := range e.sortedIDsLocked() {
			profile := e.profiles[id]
			if profile.IsDefault && profile.OrgID == orgID {
				return profile
			}
		}
	}
	for _, id := range e.sortedIDsLocked() {
		profile := e.profiles[id]
		if profile.IsDefault && profile.OrgID == "" {
			return profile
		}
	}

	return DefaultSubcontractorProfile()
}

func (e *Engine) matchVendorLocked(vendorName, orgID string, global bool) *entity.MappingProfile {
	for _, id := range e.sortedIDsLocked() {
		profile := e.profiles[id]
		if profile.VendorPattern == "" {
			continue
		}
		if global {
			if profile.OrgID != "" {
				continue
			}
		} else if profile.OrgID != orgID {
			continue
		}
		pattern, err := regexp.Compile(profile.VendorPattern)
		if err != nil {
			continue
		}
		if pattern.MatchString(vendorName) {
			return profile
		}
	}
	return nil
}

func (e *Engine) sortedIDsLocked() []string {
	ids := make([]string, 0, len(e.profiles))
	for id := range e.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ApplyOptions controls profile selection and result scoring for a
// single Apply call.
type ApplyOptions struct {
	Profile        *entity.MappingProfile
	ProfileID      string
	OrgID          string
	Confidence     float64
	RequiresReview bool
}

// Apply runs a mapping profile over extracted fields and line items.
// Each rule resolves source, then fallback, then date transform, then
// default; the trace records which step produced every value.
func (e *Engine) Apply(fields *entity.RawFieldSet, lineItems []entity.LineItem, opts ApplyOptions) *entity.MappedResult {
	profile := opts.Profile
	if profile == nil {
		profile = e.SelectProfile(fields.Text(constants.SrcVendorName), opts.ProfileID, opts.OrgID)
	}

	e.logger.Info("mapping.apply.start",
		"profile", profile.Name, "rules", len(profile.Rules))

	mapped := make(map[constants.TargetField]entity.FieldValue)
	var trace []entity.FieldTrace
	var unmapped []constants.TargetField

	for _, rule := range profile.Rules {
		value, actualSource := resolveRule(rule, fields)
		if !value.IsZero() {
			mapped[rule.Target] = value
			ruleLabel := rule.Description
			if ruleLabel == "" {
				ruleLabel = fmt.Sprintf("%s ← %s", rule.Target, actualSource)
			}
			trace = append(trace, entity.FieldTrace{
				Target: rule.Target,
				Source: actualSource,
				Value:  value.Text,
				Rule:   ruleLabel,
			})
		} else if rule.Required {
			unmapped = append(unmapped, rule.Target)
			e.logger.Warn("mapping.apply.required_unmapped",
				"target", rule.Target, "source", rule.Source)
		}
	}

	// Book unassigned line items to the profile's GL account and cost center.
	glAccount := mapped[constants.TgtGLAccount].Text
	costCenter := mapped[constants.TgtCostCenter].Text
	for i := range lineItems {
		if glAccount != "" && lineItems[i].GLAccount == "" {
			lineItems[i].GLAccount = glAccount
		}
		if costCenter != "" && lineItems[i].CostCenter == "" {
			lineItems[i].CostCenter = costCenter
		}
	}

	document := buildDocument(mapped, lineItems, fields, opts)

	return &entity.MappedResult{
		ProfileID:        profile.ID,
		ProfileName:      profile.Name,
		Document:         document,
		Fields:           mapped,
		Trace:            trace,
		UnmappedRequired: unmapped,
		GLAccount:        glAccount,
		Project:          mapped[constants.TgtProject].Text,
		Item:             mapped[constants.TgtItem].Text,
		Location:         mapped[constants.TgtLocation].Text,
		CostCenter:       costCenter,
	}
}

// resolveRule returns the value for a rule and a label describing
// which step supplied it.
func resolveRule(rule entity.FieldMappingRule, fields *entity.RawFieldSet) (entity.FieldValue, string) {
	var value entity.FieldValue
	var actualSource string

	if rule.Source != "" {
		if v, ok := fields.Get(rule.Source); ok && !v.IsZero() {
			value = v
			actualSource = string(rule.Source)
		}
	}

	if value.IsZero() && rule.Fallback != "" {
		if v, ok := fields.Get(rule.Fallback); ok && !v.IsZero() {
			value = v
			actualSource = string(rule.Fallback)
		}
	}

	if rule.Transform != "" && rule.Transform != constants.TransformNone {
		base, baseSource := transformBase(rule, value, fields)
		transformed := ApplyDateTransform(base, rule.Transform)
		value = entity.DateValue(transformed)
		if baseSource != "" {
			actualSource = fmt.Sprintf("%s → %s", baseSource, rule.Transform)
		} else {
			actualSource = string(rule.Transform)
		}
	}

	if value.IsZero() && rule.DefaultValue != "" {
		value = entity.TextValue(rule.DefaultValue)
		actualSource = fmt.Sprintf("default (%s)", rule.DefaultValue)
	}

	return value, actualSource
}

// transformBase picks the date a transform starts from: the transform
// source field when set, else the already-resolved value, else today.
func transformBase(rule entity.FieldMappingRule, current entity.FieldValue, fields *entity.RawFieldSet) (time.Time, string) {
	if rule.TransformSource != "" {
		if v, ok := fields.Get(rule.TransformSource); ok {
			if d := asDate(v); d != nil {
				return *d, string(rule.TransformSource)
			}
		}
	}
	if d := asDate(current); d != nil {
		source := string(rule.Source)
		if rule.TransformSource != "" {
			source = string(rule.TransformSource)
		}
		return *d, source
	}
	now := timeNow()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today, string(rule.TransformSource)
}

func asDate(v entity.FieldValue) *time.Time {
	if v.Date != nil {
		return v.Date
	}
	if v.Text == "" {
		return nil
	}
	parsed, err := dateparse.ParseAny(v.Text)
	if err != nil {
		return nil
	}
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

func asAmount(v entity.FieldValue) *decimal.Decimal {
	if v.Amount != nil {
		return v.Amount
	}
	if v.Text == "" {
		return nil
	}
	amount, err := decimal.NewFromString(v.Text)
	if err != nil {
		return nil
	}
	return &amount
}

// buildDocument assembles the final document from mapped targets.
func buildDocument(mapped map[constants.TargetField]entity.FieldValue,
	lineItems []entity.LineItem, fields *entity.RawFieldSet, opts ApplyOptions) *entity.ExtractedDocument {

	total := asAmount(mapped[constants.TgtTotalAmount])
	subtotal := asAmount(mapped[constants.TgtSubtotal])
	tax := asAmount(mapped[constants.TgtTaxAmount])

	// An invoice without tax often labels its only amount "Total".
	if subtotal == nil && total != nil && (tax == nil || tax.IsZero()) {
		subtotal = total
	}

	return &entity.ExtractedDocument{
		InvoiceNumber: mapped[constants.TgtInvoiceNumber].Text,
		PONumber:      mapped[constants.TgtPONumber].Text,
		InvoiceDate:   asDate(mapped[constants.TgtInvoiceDate]),
		DueDate:       asDate(mapped[constants.TgtDueDate]),
		OrderDate:     fields.Date(constants.SrcOrderDate),
		Vendor: entity.Vendor{
			Name:    mapped[constants.TgtVendorName].Text,
			Address: mapped[constants.TgtVendorAddress].Text,
			Email:   mapped[constants.TgtVendorEmail].Text,
			Phone:   mapped[constants.TgtVendorPhone].Text,
		},
		Subtotal:             subtotal,
		TaxAmount:            tax,
		TotalAmount:          total,
		LineItems:            lineItems,
		GLAccount:            mapped[constants.TgtGLAccount].Text,
		Project:              mapped[constants.TgtProject].Text,
		ItemCategory:         mapped[constants.TgtItem].Text,
		Location:             mapped[constants.TgtLocation].Text,
		Confidence:           opts.Confidence,
		RequiresManualReview: opts.RequiresReview,
	}
}
