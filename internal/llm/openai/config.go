package openai

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o"
	defaultVisionModel = "gpt-4o"
	defaultTemperature = float32(0.1)
	defaultMaxTokens   = 4096
	defaultTimeout     = 2 * time.Minute
)

// Pricing per 1K tokens for the default models.
const (
	inputCostPer1K  = 0.0025
	outputCostPer1K = 0.01
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client talks to the OpenAI chat completions API for both text and vision
// extraction. It implements llm.TextExtractor and llm.VisionExtractor.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = defaultVisionModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// EstimateCost prices a call in USD, rounded to six decimal places.
func EstimateCost(inputTokens, outputTokens int) float64 {
	cost := float64(inputTokens)/1000*inputCostPer1K + float64(outputTokens)/1000*outputCostPer1K
	return roundTo(cost, 6)
}
