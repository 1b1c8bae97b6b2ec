package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chat-insights/internal/config"
)

const anthropicVersion = "2023-06-01"

// AnthropicAdapter calls the Anthropic messages API.
type AnthropicAdapter struct {
	config     config.ChatProviderConfig
	httpClient *http.Client
	limiter    *RateLimiter
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropicAdapter creates an Anthropic chat adapter.
func NewAnthropicAdapter(cfg config.ChatProviderConfig) (*AnthropicAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1/messages"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	return &AnthropicAdapter{
		config:     cfg,
		httpClient: &http.Client{},
		limiter:    NewRateLimiter(cfg.RateLimitRPM),
	}, nil
}

// Name implements Adapter.
func (a *AnthropicAdapter) Name() string { return "anthropic" }

// Supports implements Adapter.
func (a *AnthropicAdapter) Supports(c Capability) bool { return SupportsText(c) }

// Call implements Adapter.
func (a *AnthropicAdapter) Call(ctx context.Context, req *Request) (*Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, WrapHTTPError(a.Name(), req.Capability, err)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.config.MaxTokens
	}

	body := anthropicRequest{
		Model:     a.config.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}

	headers := map[string]string{
		"x-api-key":         a.config.APIKey,
		"anthropic-version": anthropicVersion,
	}

	start := time.Now()
	var resp anthropicResponse
	if err := doJSON(ctx, a.httpClient, a.Name(), req.Capability, a.config.Timeout(), a.config.BaseURL, headers, &body, &resp); err != nil {
		return nil, err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, BadResponseError(a.Name(), req.Capability, fmt.Errorf("response contained no text block"))
	}

	return &Response{
		Text:    text,
		Model:   resp.Model,
		Latency: time.Since(start),
	}, nil
}
