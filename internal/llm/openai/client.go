package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/llm"
)

// chatResponse is the slice of the completions payload we care about.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, body map[string]any) (*chatResponse, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, common.NewAppError("ORACLE_NO_API_KEY", "api key is not configured", common.ErrOracleDisabled)
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	raw, status, err := llm.SendJSON(ctx, c.http, url, body, headers, c.logger)
	if err != nil {
		// the error body often names the actual problem
		var cr chatResponse
		if jerr := json.Unmarshal(raw, &cr); jerr == nil && cr.Error != nil {
			return nil, common.NewAppError("ORACLE_API_ERROR",
				fmt.Sprintf("openai status %d: %s", status, cr.Error.Message), err)
		}
		return nil, common.WrapError(err, "openai request failed")
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, common.WrapError(err, "decode openai response")
	}
	if len(cr.Choices) == 0 {
		return nil, common.NewAppError("ORACLE_EMPTY_RESPONSE", "no choices in openai response", common.ErrUnprocessable)
	}
	return &cr, nil
}

// ExtractFromText runs a text-only extraction call.
func (c *Client) ExtractFromText(ctx context.Context, text string) (*llm.InvoiceExtraction, *llm.Usage, error) {
	start := time.Now()
	prompt, truncated := llm.BuildTextUserPrompt(text)
	if truncated {
		c.logger.Warn("openai.text.truncated", "original_length", len(text), "truncated_to", llm.MaxTextLength)
	}

	c.logger.Info("openai.text.start", "model", c.cfg.Model, "text_length", len(text))

	body := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]any{
			{"role": "system", "content": llm.TextSystemPrompt},
			{"role": "user", "content": prompt},
		},
		"max_tokens":      c.cfg.MaxTokens,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
	}

	cr, err := c.post(ctx, body)
	if err != nil {
		return nil, nil, err
	}

	usage := &llm.Usage{
		Model:        c.cfg.Model,
		PromptTokens: cr.Usage.PromptTokens,
		OutputTokens: cr.Usage.CompletionTokens,
		CostUSD:      EstimateCost(cr.Usage.PromptTokens, cr.Usage.CompletionTokens),
		ElapsedMS:    time.Since(start).Milliseconds(),
	}

	ext, err := llm.DecodeExtraction(cr.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("openai.text.decode_error", "error", err)
		return nil, usage, err
	}

	c.logger.Info("openai.text.done",
		"invoice_number", ext.InvoiceNumber,
		"vendor", ext.Vendor.Name,
		"line_items", len(ext.LineItems),
		"ai_confidence", ext.AIConfidence,
		"input_tokens", usage.PromptTokens,
		"output_tokens", usage.OutputTokens,
		"cost_usd", usage.CostUSD,
		"elapsed_ms", usage.ElapsedMS,
	)
	return ext, usage, nil
}

// ExtractFromImages runs a vision extraction call over rendered page JPEGs.
func (c *Client) ExtractFromImages(ctx context.Context, pages [][]byte) (*llm.InvoiceExtraction, *llm.Usage, error) {
	if len(pages) == 0 {
		return nil, nil, common.NewAppError("ORACLE_NO_PAGES", "no page images to send", common.ErrInvalidInput)
	}
	start := time.Now()

	content := []map[string]any{
		{"type": "text", "text": llm.BuildVisionUserPrompt(len(pages))},
	}
	for _, page := range pages {
		content = append(content, map[string]any{
			"type": "image_url",
			"image_url": map[string]any{
				"url":    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(page),
				"detail": "high",
			},
		})
	}

	c.logger.Info("openai.vision.start", "model", c.cfg.VisionModel, "pages", len(pages))

	body := map[string]any{
		"model": c.cfg.VisionModel,
		"messages": []map[string]any{
			{"role": "system", "content": llm.VisionSystemPrompt},
			{"role": "user", "content": content},
		},
		"max_tokens":      c.cfg.MaxTokens,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
	}

	cr, err := c.post(ctx, body)
	if err != nil {
		return nil, nil, err
	}

	usage := &llm.Usage{
		Model:        c.cfg.VisionModel,
		PromptTokens: cr.Usage.PromptTokens,
		OutputTokens: cr.Usage.CompletionTokens,
		CostUSD:      EstimateCost(cr.Usage.PromptTokens, cr.Usage.CompletionTokens),
		PagesSent:    len(pages),
		ElapsedMS:    time.Since(start).Milliseconds(),
	}

	ext, err := llm.DecodeExtraction(cr.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("openai.vision.decode_error", "error", err)
		return nil, usage, err
	}

	c.logger.Info("openai.vision.done",
		"invoice_number", ext.InvoiceNumber,
		"vendor", ext.Vendor.Name,
		"line_items", len(ext.LineItems),
		"ai_confidence", ext.AIConfidence,
		"pages_sent", usage.PagesSent,
		"cost_usd", usage.CostUSD,
		"elapsed_ms", usage.ElapsedMS,
	)
	return ext, usage, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
