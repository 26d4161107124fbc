package entity

import (
	"time"

	"github.com/vedvix/syncledger-extract/constants"
)

// FieldMappingRule maps one extracted source field onto a target
// accounting field. Resolution order is source, then fallback, then
// date transform, then the literal default.
type FieldMappingRule struct {
	Target          constants.TargetField   `json:"target_field"`
	Source          constants.SourceField   `json:"source_field,omitempty"`
	Fallback        constants.SourceField   `json:"fallback_source,omitempty"`
	Transform       constants.DateTransform `json:"date_transform,omitempty"`
	TransformSource constants.SourceField   `json:"date_transform_source,omitempty"`
	DefaultValue    string                  `json:"default_value,omitempty"`
	Required        bool                    `json:"is_required"`
	Description     string                  `json:"description,omitempty"`
}

// MappingProfile is a named set of field mapping rules, optionally
// scoped to an organization and keyed to vendors by pattern. An empty
// OrgID marks a global profile.
type MappingProfile struct {
	ID            string             `json:"id"`
	OrgID         string             `json:"org_id,omitempty"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	VendorPattern string             `json:"vendor_pattern,omitempty"`
	IsDefault     bool               `json:"is_default"`
	Builtin       bool               `json:"builtin"`
	Rules         []FieldMappingRule `json:"rules"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// FieldTrace records how one target field was resolved.
type FieldTrace struct {
	Target constants.TargetField `json:"target"`
	Source string                `json:"source"`
	Value  string                `json:"value"`
	Rule   string                `json:"rule"`
}

// MappedResult is the outcome of applying a profile to extracted
// fields: the assembled document, the per-target values, a resolution
// trace, and any required targets that could not be filled.
type MappedResult struct {
	ProfileID        string                               `json:"profile_id"`
	ProfileName      string                               `json:"profile_name"`
	Document         *ExtractedDocument                   `json:"document"`
	Fields           map[constants.TargetField]FieldValue `json:"fields"`
	Trace            []FieldTrace                         `json:"field_mappings,omitempty"`
	UnmappedRequired []constants.TargetField              `json:"unmapped_required_fields,omitempty"`

	GLAccount  string `json:"gl_account,omitempty"`
	Project    string `json:"project,omitempty"`
	Item       string `json:"item,omitempty"`
	Location   string `json:"location,omitempty"`
	CostCenter string `json:"cost_center,omitempty"`
}

// Field returns a mapped target value, or a zero value when absent.
func (r *MappedResult) Field(target constants.TargetField) FieldValue {
	if r == nil || r.Fields == nil {
		return FieldValue{}
	}
	return r.Fields[target]
}

// Complete reports whether every required target was filled.
func (r *MappedResult) Complete() bool {
	return len(r.UnmappedRequired) == 0
}
