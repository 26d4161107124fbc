package llm

import (
	"encoding/json"
	"fmt"
)

// MaxTextLength caps how much extracted text gets sent to the model.
const MaxTextLength = 32000

const VisionSystemPrompt = `You are an expert invoice data extraction AI. You analyze invoice images and extract structured data with high accuracy.

INSTRUCTIONS:
1. Carefully examine the invoice image(s) provided.
2. Extract ALL visible fields into the JSON schema below.
3. For dates, convert to YYYY-MM-DD format regardless of the original format.
4. For amounts, extract as plain numbers (no currency symbols, no commas). Use negative for credits.
5. Extract every line item visible on the invoice.
6. If a field is not visible or cannot be determined, use null.
7. Set ai_confidence between 0.0 and 1.0 based on how confident you are in the extraction accuracy.
8. In ai_notes, mention any ambiguities, unclear text, or fields you are uncertain about.

IMPORTANT RULES:
- Invoice number: Look for "Invoice #", "Invoice No.", "INV-", "Order #", etc.
- PO number: Look for "PO #", "Purchase Order", "P.O." - this is SEPARATE from invoice number.
- Vendor: The company ISSUING the invoice (seller), not the buyer.
- Total: The final amount due. Look for "Total Due", "Amount Due", "Balance Due", "Grand Total".
- Line items: Each product/service row. Include description, quantity, unit price, and line total; add item code, unit of measure, tax, and discount when printed.
- Dates: Look for invoice date, order date, and due date separately.

Return ONLY valid JSON matching the schema. No markdown, no code blocks, no explanation.`

const TextSystemPrompt = `You are an expert invoice data extraction AI. You analyze raw text extracted from invoice PDFs and convert it into structured data.

INSTRUCTIONS:
1. The text below was extracted from an invoice PDF. It may have formatting issues, missing spaces, or jumbled layout.
2. Extract ALL identifiable fields into the JSON schema below.
3. For dates, convert to YYYY-MM-DD format regardless of the original format.
4. For amounts, extract as plain numbers (no currency symbols, no commas). Use negative for credits.
5. Extract every line item you can identify.
6. If a field is not identifiable, use null.
7. Set ai_confidence between 0.0 and 1.0 based on how confident you are given the text quality.
8. In ai_notes, mention any parsing difficulties or ambiguities.

IMPORTANT:
- The text may come from OCR and contain errors. Do your best to interpret correctly.
- Look for patterns like "Invoice #:", "Total:", "Vendor:", "Date:" etc.
- Line items are often in tabular format - look for rows with description, qty, price, total.
- The vendor is the company ISSUING the invoice, usually at the top.

Return ONLY valid JSON matching the schema. No markdown, no code blocks, no explanation.`

// BuildTextUserPrompt composes the user message for a text extraction call:
// the schema to fill followed by the delimited document text. Text beyond
// MaxTextLength is cut; the truncated flag tells the caller to log it.
func BuildTextUserPrompt(text string) (prompt string, truncated bool) {
	if len(text) > MaxTextLength {
		text = text[:MaxTextLength]
		truncated = true
	}
	prompt = fmt.Sprintf(
		"Extract all invoice data from the following text into this exact JSON schema:\n\n%s\n\n--- INVOICE TEXT START ---\n%s\n--- INVOICE TEXT END ---\n\nReturn ONLY the JSON object. No markdown, no code fences.",
		mustJSON(InvoiceJSONSchema()), text,
	)
	return prompt, truncated
}

// BuildVisionUserPrompt composes the text portion of the vision user message.
func BuildVisionUserPrompt(pages int) string {
	return fmt.Sprintf(
		"Extract all invoice data from the following %d page(s) into this exact JSON schema:\n\n%s\n\nReturn ONLY the JSON object. No markdown, no code fences.",
		pages, mustJSON(InvoiceJSONSchema()),
	)
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal prompt schema: %v", err))
	}
	return string(b)
}
