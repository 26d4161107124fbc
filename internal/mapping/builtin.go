package mapping

import (
	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/entity"
)

// Builtin profile IDs.
const (
	ProfileDefaultSubcontractor = "default-subcontractor"
	ProfileStandardInvoice      = "standard-invoice"
)

// DefaultSubcontractorProfile maps subcontractor purchase orders: the
// PO number stands in as the invoice number, the due date is the next
// Friday after the order date, and lines book to GL 5100.
func DefaultSubcontractorProfile() *entity.MappingProfile {
	return &entity.MappingProfile{
		ID:   ProfileDefaultSubcontractor,
		Name: "Subcontractor Invoice (Default)",
		Description: "Default mapping for subcontractor invoices. " +
			"Maps PO as invoice number, calculates next Friday for due date, " +
			"uses GL 5100, maps opportunity number to project.",
		VendorPattern: `(?i)MGD|Master\s+Gutters|Mayan.?s\s+Construction`,
		IsDefault:     true,
		Builtin:       true,
		Rules: []entity.FieldMappingRule{
			{
				Target:      constants.TgtInvoiceNumber,
				Source:      constants.SrcPONumber,
				Fallback:    constants.SrcInvoiceNumber,
				Required:    true,
				Description: "Invoice No → Purchase Order number from the invoice",
			},
			{
				Target:      constants.TgtTotalAmount,
				Source:      constants.SrcTotal,
				Required:    true,
				Description: "Total Amount → Total from the invoice",
			},
			{
				Target:          constants.TgtDueDate,
				Source:          constants.SrcDueDate,
				Transform:       constants.TransformNextFriday,
				TransformSource: constants.SrcOrderDate,
				Description:     "Payment Due Date → Next Friday from the Order Date",
			},
			{
				Target:       constants.TgtGLAccount,
				DefaultValue: "5100",
				Description:  "GL Account → Default 5100 for subcontractor",
			},
			{
				Target:      constants.TgtProject,
				Source:      constants.SrcOpportunityNumber,
				Fallback:    constants.SrcProjectNumber,
				Description: "Project → Opportunity Number from invoice",
			},
			{
				Target:      constants.TgtItem,
				Source:      constants.SrcProductCategory,
				Fallback:    constants.SrcMarketSegment,
				Description: "Item → Product Category from invoice",
			},
			{
				Target:      constants.TgtLocation,
				Source:      constants.SrcVendorAddress,
				Description: "Location → Address present in the invoice",
			},
			{
				Target:      constants.TgtSubtotal,
				Source:      constants.SrcSubtotal,
				Description: "Subtotal from invoice",
			},
			{
				Target:       constants.TgtTaxAmount,
				Source:       constants.SrcTaxAmount,
				DefaultValue: "0",
				Description:  "Tax amount from invoice",
			},
			{
				Target:      constants.TgtInvoiceDate,
				Source:      constants.SrcOrderDate,
				Fallback:    constants.SrcInvoiceDate,
				Description: "Invoice date from order date",
			},
			{
				Target:      constants.TgtVendorName,
				Source:      constants.SrcVendorName,
				Required:    true,
				Description: "Vendor name",
			},
			{
				Target:      constants.TgtVendorAddress,
				Source:      constants.SrcVendorAddress,
				Description: "Vendor address",
			},
			{
				Target:      constants.TgtVendorEmail,
				Source:      constants.SrcVendorEmail,
				Description: "Vendor email",
			},
			{
				Target:      constants.TgtVendorPhone,
				Source:      constants.SrcVendorPhone,
				Description: "Vendor phone",
			},
			{
				Target:      constants.TgtPONumber,
				Source:      constants.SrcPONumber,
				Description: "Original PO number preserved",
			},
		},
	}
}

// StandardInvoiceProfile maps typical vendor invoices directly, with
// a Net 30 due date from the invoice date and GL 5000.
func StandardInvoiceProfile() *entity.MappingProfile {
	return &entity.MappingProfile{
		ID:          ProfileStandardInvoice,
		Name:        "Standard Invoice",
		Description: "Standard mapping for typical vendor invoices with direct field mapping.",
		Builtin:     true,
		Rules: []entity.FieldMappingRule{
			{
				Target:      constants.TgtInvoiceNumber,
				Source:      constants.SrcInvoiceNumber,
				Fallback:    constants.SrcPONumber,
				Required:    true,
				Description: "Invoice number directly from invoice",
			},
			{
				Target:      constants.TgtPONumber,
				Source:      constants.SrcPONumber,
				Description: "PO number from invoice",
			},
			{
				Target:      constants.TgtTotalAmount,
				Source:      constants.SrcTotal,
				Required:    true,
				Description: "Total amount from invoice",
			},
			{
				Target:      constants.TgtSubtotal,
				Source:      constants.SrcSubtotal,
				Description: "Subtotal from invoice",
			},
			{
				Target:       constants.TgtTaxAmount,
				Source:       constants.SrcTaxAmount,
				DefaultValue: "0",
				Description:  "Tax amount",
			},
			{
				Target:          constants.TgtDueDate,
				Source:          constants.SrcDueDate,
				Transform:       constants.TransformAdd30Days,
				TransformSource: constants.SrcInvoiceDate,
				Description:     "Due date, defaults to Net 30 from invoice date",
			},
			{
				Target:      constants.TgtInvoiceDate,
				Source:      constants.SrcInvoiceDate,
				Fallback:    constants.SrcOrderDate,
				Description: "Invoice date",
			},
			{
				Target:      constants.TgtVendorName,
				Source:      constants.SrcVendorName,
				Required:    true,
				Description: "Vendor name",
			},
			{
				Target:      constants.TgtVendorAddress,
				Source:      constants.SrcVendorAddress,
				Description: "Vendor address",
			},
			{
				Target:      constants.TgtVendorEmail,
				Source:      constants.SrcVendorEmail,
				Description: "Vendor email",
			},
			{
				Target:      constants.TgtVendorPhone,
				Source:      constants.SrcVendorPhone,
				Description: "Vendor phone",
			},
			{
				Target:       constants.TgtGLAccount,
				DefaultValue: "5000",
				Description:  "GL Account default for standard vendors",
			},
			{
				Target:      constants.TgtProject,
				Source:      constants.SrcProjectNumber,
				Fallback:    constants.SrcOpportunityNumber,
				Description: "Project number",
			},
			{
				Target:      constants.TgtLocation,
				Source:      constants.SrcVendorAddress,
				Description: "Location from vendor address",
			},
		},
	}
}
