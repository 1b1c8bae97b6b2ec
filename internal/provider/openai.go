package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chat-insights/internal/config"
)

// OpenAIAdapter calls the OpenAI chat completions API.
type OpenAIAdapter struct {
	config     config.ChatProviderConfig
	httpClient *http.Client
	limiter    *RateLimiter
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIAdapter creates an OpenAI chat adapter.
func NewOpenAIAdapter(cfg config.ChatProviderConfig) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAIAdapter{
		config:     cfg,
		httpClient: &http.Client{},
		limiter:    NewRateLimiter(cfg.RateLimitRPM),
	}, nil
}

// Name implements Adapter.
func (a *OpenAIAdapter) Name() string { return "openai" }

// Supports implements Adapter.
func (a *OpenAIAdapter) Supports(c Capability) bool { return SupportsText(c) }

// Call implements Adapter.
func (a *OpenAIAdapter) Call(ctx context.Context, req *Request) (*Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, WrapHTTPError(a.Name(), req.Capability, err)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.config.MaxTokens
	}

	messages := make([]openAIMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	body := openAIRequest{
		Model:       a.config.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: a.config.Temperature,
	}

	start := time.Now()
	var resp openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + a.config.APIKey}
	if err := doJSON(ctx, a.httpClient, a.Name(), req.Capability, a.config.Timeout(), a.config.BaseURL, headers, &body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, BadResponseError(a.Name(), req.Capability, fmt.Errorf("response contained no choices"))
	}

	return &Response{
		Text:    resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Latency: time.Since(start),
	}, nil
}
