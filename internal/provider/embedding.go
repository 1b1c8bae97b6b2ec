package provider

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"sync"

	"chat-insights/internal/config"
	"chat-insights/pkg/types"
)

// OpenAIEmbedder calls the OpenAI embeddings API, requesting vectors at the
// index's fixed dimensionality. Identical contents are served from an
// in-process cache so re-indexing does not re-bill.
type OpenAIEmbedder struct {
	config     config.EmbeddingConfig
	httpClient *http.Client
	limiter    *RateLimiter

	cacheMu sync.RWMutex
	cache   map[[32]byte][]float64
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// NewOpenAIEmbedder creates the embedding adapter.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1/embeddings"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{
		config:     cfg,
		httpClient: &http.Client{},
		limiter:    NewRateLimiter(cfg.RateLimitRPM),
		cache:      make(map[[32]byte][]float64),
	}, nil
}

// Name implements Embedder.
func (e *OpenAIEmbedder) Name() string { return "openai-embeddings" }

// Dimensions implements Embedder.
func (e *OpenAIEmbedder) Dimensions() int { return types.EmbeddingDimensions }

// Embed implements Embedder. The response preserves input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, len(texts))
	var misses []string
	var missIndices []int
	for i, text := range texts {
		if cached := e.fromCache(text); cached != nil {
			results[i] = cached
			continue
		}
		misses = append(misses, text)
		missIndices = append(missIndices, i)
	}
	if len(misses) == 0 {
		return results, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, WrapHTTPError(e.Name(), CapabilityEmbed, err)
	}

	body := embeddingRequest{
		Model:      e.config.Model,
		Input:      misses,
		Dimensions: types.EmbeddingDimensions,
	}
	headers := map[string]string{"Authorization": "Bearer " + e.config.APIKey}

	var resp embeddingResponse
	if err := doJSON(ctx, e.httpClient, e.Name(), CapabilityEmbed, e.config.Timeout(), e.config.BaseURL, headers, &body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(misses) {
		return nil, BadResponseError(e.Name(), CapabilityEmbed,
			fmt.Errorf("requested %d embeddings, got %d", len(misses), len(resp.Data)))
	}

	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(misses) {
			return nil, BadResponseError(e.Name(), CapabilityEmbed,
				fmt.Errorf("embedding index %d out of range", item.Index))
		}
		if len(item.Embedding) != types.EmbeddingDimensions {
			return nil, BadResponseError(e.Name(), CapabilityEmbed,
				fmt.Errorf("embedding has %d dimensions, want %d", len(item.Embedding), types.EmbeddingDimensions))
		}
		results[missIndices[item.Index]] = item.Embedding
		e.toCache(misses[item.Index], item.Embedding)
	}

	for i, vec := range results {
		if vec == nil {
			return nil, BadResponseError(e.Name(), CapabilityEmbed,
				fmt.Errorf("no embedding returned for input %d", i))
		}
	}
	return results, nil
}

func (e *OpenAIEmbedder) cacheKey(text string) [32]byte {
	return sha256.Sum256([]byte(e.config.Model + "|" + text))
}

func (e *OpenAIEmbedder) fromCache(text string) []float64 {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()
	if vec, ok := e.cache[e.cacheKey(text)]; ok {
		out := make([]float64, len(vec))
		copy(out, vec)
		return out
	}
	return nil
}

func (e *OpenAIEmbedder) toCache(text string, vec []float64) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	// Bounded cache: drop arbitrary entries past the cap.
	if len(e.cache) >= 4096 {
		n := 0
		for k := range e.cache {
			delete(e.cache, k)
			if n++; n >= 256 {
				break
			}
		}
	}
	stored := make([]float64, len(vec))
	copy(stored, vec)
	e.cache[e.cacheKey(text)] = stored
}
