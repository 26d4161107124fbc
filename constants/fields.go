package constants

// SourceField names a field the raw extractor can produce.
// The vocabulary is closed: mapping rules referencing anything else are
// rejected at construction time.
type SourceField string

const (
	SrcPONumber          SourceField = "po_number"
	SrcInvoiceNumber     SourceField = "invoice_number"
	SrcOrderDate         SourceField = "order_date"
	SrcInvoiceDate       SourceField = "invoice_date"
	SrcDueDate           SourceField = "due_date"
	SrcApprovedDate      SourceField = "approved_date"
	SrcTotal             SourceField = "total"
	SrcSubtotal          SourceField = "subtotal"
	SrcTaxAmount         SourceField = "tax_amount"
	SrcVendorName        SourceField = "vendor_name"
	SrcVendorAddress     SourceField = "vendor_address"
	SrcVendorEmail       SourceField = "vendor_email"
	SrcVendorPhone       SourceField = "vendor_phone"
	SrcProjectNumber     SourceField = "project_number"
	SrcSaleNumber        SourceField = "sale_number"
	SrcOpportunityNumber SourceField = "opportunity_number"
	SrcMarketSegment     SourceField = "market_segment"
	SrcProductCategory   SourceField = "product_category"
	SrcCreatedBy         SourceField = "created_by"
)

var allSourceFields = []SourceField{
	SrcPONumber, SrcInvoiceNumber,
	SrcOrderDate, SrcInvoiceDate, SrcDueDate, SrcApprovedDate,
	SrcTotal, SrcSubtotal, SrcTaxAmount,
	SrcVendorName, SrcVendorAddress, SrcVendorEmail, SrcVendorPhone,
	SrcProjectNumber, SrcSaleNumber, SrcOpportunityNumber,
	SrcMarketSegment, SrcProductCategory, SrcCreatedBy,
}

func (f SourceField) IsValid() bool {
	for _, s := range allSourceFields {
		if f == s {
			return true
		}
	}
	return false
}

func SourceFields() []SourceField {
	out := make([]SourceField, len(allSourceFields))
	copy(out, allSourceFields)
	return out
}

// TargetField names a field in the target accounting schema.
type TargetField string

const (
	TgtInvoiceNumber TargetField = "invoice_number"
	TgtPONumber      TargetField = "po_number"
	TgtTotalAmount   TargetField = "total_amount"
	TgtSubtotal      TargetField = "subtotal"
	TgtTaxAmount     TargetField = "tax_amount"
	TgtInvoiceDate   TargetField = "invoice_date"
	TgtDueDate       TargetField = "due_date"
	TgtVendorName    TargetField = "vendor_name"
	TgtVendorAddress TargetField = "vendor_address"
	TgtVendorEmail   TargetField = "vendor_email"
	TgtVendorPhone   TargetField = "vendor_phone"
	TgtGLAccount     TargetField = "gl_account"
	TgtProject       TargetField = "project"
	TgtItem          TargetField = "item"
	TgtLocation      TargetField = "location"
	TgtCostCenter    TargetField = "cost_center"
)

var allTargetFields = []TargetField{
	TgtInvoiceNumber, TgtPONumber,
	TgtTotalAmount, TgtSubtotal, TgtTaxAmount,
	TgtInvoiceDate, TgtDueDate,
	TgtVendorName, TgtVendorAddress, TgtVendorEmail, TgtVendorPhone,
	TgtGLAccount, TgtProject, TgtItem, TgtLocation, TgtCostCenter,
}

func (f TargetField) IsValid() bool {
	for _, t := range allTargetFields {
		if f == t {
			return true
		}
	}
	return false
}

func TargetFields() []TargetField {
	out := make([]TargetField, len(allTargetFields))
	copy(out, allTargetFields)
	return out
}

// DateTransform names a pure date-to-date transformation a mapping rule
// may apply.
type DateTransform string

const (
	TransformNone       DateTransform = "none"
	TransformNextFriday DateTransform = "next_friday"
	TransformNextMonday DateTransform = "next_monday"
	TransformAdd30Days  DateTransform = "add_30_days"
	TransformAdd60Days  DateTransform = "add_60_days"
	TransformAdd90Days  DateTransform = "add_90_days"
	TransformEndOfMonth DateTransform = "end_of_month"
)

var allDateTransforms = []DateTransform{
	TransformNone,
	TransformNextFriday, TransformNextMonday,
	TransformAdd30Days, TransformAdd60Days, TransformAdd90Days,
	TransformEndOfMonth,
}

func (t DateTransform) IsValid() bool {
	for _, d := range allDateTransforms {
		if t == d {
			return true
		}
	}
	return false
}

func DateTransforms() []DateTransform {
	out := make([]DateTransform, len(allDateTransforms))
	copy(out, allDateTransforms)
	return out
}
