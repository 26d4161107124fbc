package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, 0.0125, EstimateCost(1000, 1000), 1e-9)
	assert.InDelta(t, 0.008755, EstimateCost(1234, 567), 1e-9)
	assert.Zero(t, EstimateCost(0, 0))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{APIKey: "sk-test"}, nil)
	assert.Equal(t, defaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, defaultModel, c.cfg.Model)
	assert.Equal(t, defaultVisionModel, c.cfg.VisionModel)
	assert.Equal(t, defaultMaxTokens, c.cfg.MaxTokens)
	assert.Equal(t, defaultTimeout, c.cfg.Timeout)
}

func TestExtractFromTextRequiresAPIKey(t *testing.T) {
	c := NewClient(Config{}, nil)
	_, _, err := c.ExtractFromText(context.Background(), "Invoice #123")
	require.Error(t, err)
}

func completionBody(t *testing.T, content string, promptTokens, completionTokens int) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
		},
	})
	require.NoError(t, err)
	return b
}

func TestExtractFromText(t *testing.T) {
	doc := `{
		"invoice_number": "INV-001",
		"vendor": {"name": "Master Gutters Installation Service"},
		"total_amount": 250.00,
		"line_items": [{"description": "Downspout repair", "amount": 250.00}],
		"ai_confidence": 0.88
	}`

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write(completionBody(t, doc, 1500, 300))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)
	ext, usage, err := c.ExtractFromText(context.Background(), "Invoice INV-001\nTotal: $250.00")
	require.NoError(t, err)

	assert.Equal(t, "INV-001", ext.InvoiceNumber)
	assert.Equal(t, "Master Gutters Installation Service", ext.Vendor.Name)
	require.NotNil(t, usage)
	assert.Equal(t, 1500, usage.PromptTokens)
	assert.Equal(t, 300, usage.OutputTokens)
	assert.InDelta(t, EstimateCost(1500, 300), usage.CostUSD, 1e-9)

	assert.Equal(t, defaultModel, gotBody["model"])
	rf, ok := gotBody["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", rf["type"])
}

func TestExtractFromImages(t *testing.T) {
	doc := `{
		"invoice_number": "72007",
		"vendor": {"name": "MGD Construction Services"},
		"total_amount": 1710.80,
		"line_items": [],
		"ai_confidence": 0.95
	}`

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write(completionBody(t, doc, 4000, 500))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, VisionModel: "gpt-4o"}, nil)
	pages := [][]byte{[]byte("fake-jpeg-1"), []byte("fake-jpeg-2")}
	ext, usage, err := c.ExtractFromImages(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, "72007", ext.InvoiceNumber)
	assert.Equal(t, 2, usage.PagesSent)

	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	content := user["content"].([]any)
	// one text part plus one image part per page
	require.Len(t, content, 3)
	img := content[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	url := img["image_url"].(map[string]any)["url"].(string)
	assert.Contains(t, url, "data:image/jpeg;base64,")
}

func TestExtractFromImagesRejectsEmpty(t *testing.T) {
	c := NewClient(Config{APIKey: "sk-test"}, nil)
	_, _, err := c.ExtractFromImages(context.Background(), nil)
	require.Error(t, err)
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)
	_, _, err := c.ExtractFromText(context.Background(), "Invoice #123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
