package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chat-insights/internal/config"
)

// GeminiAdapter calls the Google Generative Language API.
type GeminiAdapter struct {
	config     config.ChatProviderConfig
	httpClient *http.Client
	limiter    *RateLimiter
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"system_instruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  geminiGenConfig  `json:"generationConfig"`
}

type geminiGenConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// NewGeminiAdapter creates a Gemini chat adapter.
func NewGeminiAdapter(cfg config.ChatProviderConfig) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &GeminiAdapter{
		config:     cfg,
		httpClient: &http.Client{},
		limiter:    NewRateLimiter(cfg.RateLimitRPM),
	}, nil
}

// Name implements Adapter.
func (a *GeminiAdapter) Name() string { return "gemini" }

// Supports implements Adapter.
func (a *GeminiAdapter) Supports(c Capability) bool { return SupportsText(c) }

// Call implements Adapter.
func (a *GeminiAdapter) Call(ctx context.Context, req *Request) (*Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, WrapHTTPError(a.Name(), req.Capability, err)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.config.MaxTokens
	}

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     a.config.Temperature,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", a.config.BaseURL, a.config.Model, a.config.APIKey)

	start := time.Now()
	var resp geminiResponse
	if err := doJSON(ctx, a.httpClient, a.Name(), req.Capability, a.config.Timeout(), url, nil, &body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, BadResponseError(a.Name(), req.Capability, fmt.Errorf("response contained no candidates"))
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return nil, BadResponseError(a.Name(), req.Capability, fmt.Errorf("response candidate was empty"))
	}

	model := resp.ModelVersion
	if model == "" {
		model = a.config.Model
	}

	return &Response{
		Text:    text,
		Model:   model,
		Latency: time.Since(start),
	}, nil
}
