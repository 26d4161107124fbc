package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/vedvix/syncledger-extract/internal/common"
)

// StripCodeFences removes a surrounding markdown code block if the model
// wrapped its JSON in one, fence language tag included.
func StripCodeFences(s string) string {
	out := strings.TrimSpace(s)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```")
	if i := strings.IndexByte(out, '\n'); i >= 0 && strings.EqualFold(strings.TrimSpace(out[:i]), "json") {
		out = out[i+1:]
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}

// DecodeExtraction turns raw model output into a validated InvoiceExtraction.
// Fences are stripped, then the document is parsed as-is; if that fails the
// json-repair pass gets one attempt before giving up. Schema validation runs
// on whichever form parsed.
func DecodeExtraction(raw string) (*InvoiceExtraction, error) {
	doc := StripCodeFences(raw)
	if doc == "" {
		return nil, common.NewAppError("ORACLE_EMPTY_RESPONSE", "model returned no content", common.ErrUnprocessable)
	}

	candidate := []byte(doc)
	if !json.Valid(candidate) {
		repaired, err := jsonrepair.RepairJSON(doc)
		if err != nil {
			return nil, common.NewAppError("ORACLE_BAD_JSON", fmt.Sprintf("unparseable model output: %v", err), common.ErrUnprocessable)
		}
		candidate = []byte(repaired)
	}

	if err := ValidateExtraction(candidate); err != nil {
		return nil, common.NewAppError("ORACLE_SCHEMA_MISMATCH", err.Error(), common.ErrUnprocessable)
	}

	var ext InvoiceExtraction
	if err := json.Unmarshal(candidate, &ext); err != nil {
		return nil, common.NewAppError("ORACLE_BAD_JSON", fmt.Sprintf("decode extraction: %v", err), common.ErrUnprocessable)
	}
	normalizeExtraction(&ext)
	return &ext, nil
}

// normalizeExtraction tidies fields the schema cannot fully constrain.
func normalizeExtraction(ext *InvoiceExtraction) {
	ext.InvoiceNumber = strings.TrimSpace(ext.InvoiceNumber)
	ext.PONumber = strings.TrimSpace(ext.PONumber)
	ext.Vendor.Name = strings.TrimSpace(ext.Vendor.Name)

	ext.Currency = strings.ToUpper(strings.TrimSpace(ext.Currency))
	if ext.Currency == "" {
		ext.Currency = "USD"
	}

	if ext.AIConfidence < 0 {
		ext.AIConfidence = 0
	} else if ext.AIConfidence > 1 {
		ext.AIConfidence = 1
	}

	items := ext.LineItems[:0]
	for _, it := range ext.LineItems {
		it.Description = strings.TrimSpace(it.Description)
		if it.Description == "" && it.Amount == nil {
			continue
		}
		items = append(items, it)
	}
	ext.LineItems = items
}
