package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// InvoiceJSONSchema builds the JSON Schema the model is asked to fill and
// that responses are validated against.
func InvoiceJSONSchema() map[string]any {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	optStr := func(desc string) map[string]any {
		return map[string]any{"type": []string{"string", "null"}, "description": desc}
	}
	optNum := func(desc string) map[string]any {
		return map[string]any{"type": []string{"number", "null"}, "description": desc}
	}
	isoDate := func(desc string) map[string]any {
		return map[string]any{
			"type":        []string{"string", "null"},
			"pattern":     `^\d{4}-\d{2}-\d{2}$`,
			"description": desc,
		}
	}

	vendor := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":    str("Vendor or supplier name as printed on the document"),
			"address": optStr("Full postal address of the vendor"),
			"email":   optStr("Vendor contact email"),
			"phone":   optStr("Vendor contact phone number"),
			"tax_id":  optStr("Vendor tax identifier (EIN, VAT, etc.)"),
			"website": optStr("Vendor website"),
		},
		"required":             []string{"name"},
		"additionalProperties": false,
	}

	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description":     str("What the line is for"),
			"item_code":       optStr("SKU or internal item code"),
			"quantity":        optNum("Quantity as a number"),
			"unit":            optStr("Unit of measure (EA, HR, FT, ...)"),
			"unit_price":      optNum("Price per unit"),
			"amount":          optNum("Extended line amount"),
			"tax_rate":        optNum("Tax rate applied to this line, as a percentage"),
			"tax_amount":      optNum("Tax charged on this line"),
			"discount":        optNum("Discount applied to this line"),
			"gl_account_code": optStr("General-ledger account code if printed"),
			"cost_center":     optStr("Cost center if printed"),
		},
		"required":             []string{"description"},
		"additionalProperties": false,
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"invoice_number":     str("Invoice or document number"),
			"po_number":          optStr("Purchase order number referenced by the invoice"),
			"vendor":             vendor,
			"invoice_date":       isoDate("Invoice date, ISO-8601 (YYYY-MM-DD)"),
			"due_date":           isoDate("Payment due date, ISO-8601 (YYYY-MM-DD)"),
			"order_date":         isoDate("Order date, ISO-8601 (YYYY-MM-DD)"),
			"subtotal":           optNum("Amount before tax"),
			"tax_amount":         optNum("Total tax"),
			"total_amount":       map[string]any{"type": []string{"number", "null"}, "description": "Grand total due"},
			"currency":           optStr("3-letter ISO 4217 code; default USD"),
			"line_items":         map[string]any{"type": "array", "items": lineItem},
			"payment_terms":      optStr("Payment terms as printed (Net 30, Due on receipt, ...)"),
			"bank_details":       optStr("Remittance bank details if printed"),
			"project_number":     optStr("Project number referenced on the document"),
			"sale_number":        optStr("Sale number referenced on the document"),
			"opportunity_number": optStr("Opportunity number referenced on the document"),
			"gl_account":         optStr("Document-level GL account code if printed"),
			"cost_center":        optStr("Document-level cost center if printed"),
			"ai_confidence":      map[string]any{"type": "number", "minimum": 0, "maximum": 1, "description": "Your confidence in this extraction, 0 to 1"},
			"ai_notes":           optStr("Anything ambiguous, unreadable, or assumed"),
		},
		"required":             []string{"invoice_number", "vendor", "total_amount", "line_items", "ai_confidence"},
		"additionalProperties": false,
	}
}

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	raw, err := json.Marshal(InvoiceJSONSchema())
	if err != nil {
		panic(fmt.Sprintf("marshal invoice schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("invoice.schema.json", bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add invoice schema: %v", err))
	}
	s, err := c.Compile("invoice.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile invoice schema: %v", err))
	}
	return s
}

// ValidateExtraction checks a raw JSON document against the invoice schema.
func ValidateExtraction(doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
