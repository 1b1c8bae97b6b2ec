// Package config loads service configuration from defaults, an optional
// YAML file, and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	OpenAI       ChatProviderConfig `yaml:"openai"`
	Anthropic    ChatProviderConfig `yaml:"anthropic"`
	Gemini       ChatProviderConfig `yaml:"gemini"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Segmenter    SegmenterConfig    `yaml:"segmenter"`
	Index        IndexConfig        `yaml:"index"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
}

// ChatProviderConfig represents one remote text-generation provider.
type ChatProviderConfig struct {
	APIKey         string  `yaml:"-"` // Never serialize API keys
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	RequestTimeout int     `yaml:"request_timeout_seconds"`
	RateLimitRPM   int     `yaml:"rate_limit_rpm"`
}

// Enabled reports whether the provider is configured for use.
func (c *ChatProviderConfig) Enabled() bool {
	return c.APIKey != ""
}

// Timeout returns the per-request timeout as a duration.
func (c *ChatProviderConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// EmbeddingConfig represents the embedding provider.
type EmbeddingConfig struct {
	APIKey         string `yaml:"-"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
	RateLimitRPM   int    `yaml:"rate_limit_rpm"`
}

// Enabled reports whether the embedding provider is configured.
func (c *EmbeddingConfig) Enabled() bool {
	return c.APIKey != ""
}

// Timeout returns the per-request timeout as a duration.
func (c *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// OrchestratorConfig controls the provider cascade.
type OrchestratorConfig struct {
	// ProviderOrder is the cascade order, best quality first.
	ProviderOrder []string `yaml:"provider_order"`
	// MaxAttempts is the retry budget per provider per capability stage.
	MaxAttempts int `yaml:"max_attempts"`
	// BackoffBaseMs is the base of the exponential backoff between retries.
	BackoffBaseMs int `yaml:"backoff_base_ms"`
	// BreakerFailureThreshold opens a provider's circuit after this many
	// consecutive stage failures.
	BreakerFailureThreshold int `yaml:"breaker_failure_threshold"`
	// BreakerOpenSeconds is how long an opened circuit rejects calls.
	BreakerOpenSeconds int `yaml:"breaker_open_seconds"`
	// StickyOpenSeconds is the longer skip window applied after terminal
	// failure classes (auth, quota).
	StickyOpenSeconds int `yaml:"sticky_open_seconds"`
}

// BackoffBase returns the backoff base as a duration.
func (c *OrchestratorConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

// BreakerOpenTimeout returns the open window as a duration.
func (c *OrchestratorConfig) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenSeconds) * time.Second
}

// StickyOpenTimeout returns the terminal-failure skip window as a duration.
func (c *OrchestratorConfig) StickyOpenTimeout() time.Duration {
	return time.Duration(c.StickyOpenSeconds) * time.Second
}

// SegmenterConfig controls conversation segmentation.
type SegmenterConfig struct {
	// WindowMs is the maximum inter-message gap inside one unit.
	WindowMs int `yaml:"window_ms"`
	// MinMessages is the smallest unit worth analyzing.
	MinMessages int `yaml:"min_messages"`
}

// Window returns the gap window as a duration.
func (c *SegmenterConfig) Window() time.Duration {
	return time.Duration(c.WindowMs) * time.Millisecond
}

// IndexConfig controls the vector index.
type IndexConfig struct {
	// BatchSize is how many contents go into one embedding request.
	BatchSize int `yaml:"batch_size"`
	// BatchDelayMs is the pause between embedding batches.
	BatchDelayMs int `yaml:"batch_delay_ms"`
	// SimilarityFloor drops search hits below this cosine similarity.
	SimilarityFloor float64 `yaml:"similarity_floor"`
}

// BatchDelay returns the inter-batch delay as a duration.
func (c *IndexConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMs) * time.Millisecond
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8085,
			ReadTimeout:  30,
			WriteTimeout: 60,
		},
		OpenAI: ChatProviderConfig{
			BaseURL:        "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			MaxTokens:      1024,
			Temperature:    0.2,
			RequestTimeout: 10,
			RateLimitRPM:   60,
		},
		Anthropic: ChatProviderConfig{
			BaseURL:        "https://api.anthropic.com/v1/messages",
			Model:          "claude-3-5-haiku-latest",
			MaxTokens:      1024,
			Temperature:    0.2,
			RequestTimeout: 10,
			RateLimitRPM:   60,
		},
		Gemini: ChatProviderConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta/models",
			Model:          "gemini-2.0-flash",
			MaxTokens:      1024,
			Temperature:    0.2,
			RequestTimeout: 10,
			RateLimitRPM:   60,
		},
		Embedding: EmbeddingConfig{
			BaseURL:        "https://api.openai.com/v1/embeddings",
			Model:          "text-embedding-3-small",
			RequestTimeout: 10,
			RateLimitRPM:   60,
		},
		Orchestrator: OrchestratorConfig{
			ProviderOrder:           []string{"anthropic", "openai", "gemini"},
			MaxAttempts:             3,
			BackoffBaseMs:           200,
			BreakerFailureThreshold: 3,
			BreakerOpenSeconds:      60,
			StickyOpenSeconds:       3600,
		},
		Segmenter: SegmenterConfig{
			WindowMs:    3_600_000,
			MinMessages: 3,
		},
		Index: IndexConfig{
			BatchSize:       10,
			BatchDelayMs:    100,
			SimilarityFloor: 0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CHAT_INSIGHTS_CONFIG_FILE, and environment variables.
func Load() (*Config, error) {
	// Load .env if present.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := DefaultConfig()

	if path := os.Getenv("CHAT_INSIGHTS_CONFIG_FILE"); path != "" {
		if err := loadFromFile(config, path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile overlays settings from a YAML file.
func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overlays settings from environment variables.
func loadFromEnv(config *Config) {
	loadServerEnv(config)
	loadProviderEnv(config)
	loadPipelineEnv(config)
}

func loadServerEnv(config *Config) {
	if host := os.Getenv("CHAT_INSIGHTS_HOST"); host != "" {
		config.Server.Host = host
	}
	setInt(&config.Server.Port, "CHAT_INSIGHTS_PORT")
	setInt(&config.Server.ReadTimeout, "CHAT_INSIGHTS_READ_TIMEOUT_SECONDS")
	setInt(&config.Server.WriteTimeout, "CHAT_INSIGHTS_WRITE_TIMEOUT_SECONDS")

	if level := os.Getenv("CHAT_INSIGHTS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("CHAT_INSIGHTS_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

func loadProviderEnv(config *Config) {
	loadChatProviderEnv(&config.OpenAI, "OPENAI")
	loadChatProviderEnv(&config.Anthropic, "ANTHROPIC")
	loadChatProviderEnv(&config.Gemini, "GEMINI")

	if key := os.Getenv("CHAT_INSIGHTS_EMBEDDING_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	}
	if url := os.Getenv("CHAT_INSIGHTS_EMBEDDING_BASE_URL"); url != "" {
		config.Embedding.BaseURL = url
	}
	if model := os.Getenv("CHAT_INSIGHTS_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	setInt(&config.Embedding.RequestTimeout, "CHAT_INSIGHTS_EMBEDDING_TIMEOUT_SECONDS")
	setInt(&config.Embedding.RateLimitRPM, "CHAT_INSIGHTS_EMBEDDING_RATE_LIMIT_RPM")
}

func loadChatProviderEnv(pc *ChatProviderConfig, name string) {
	if key := os.Getenv(name + "_API_KEY"); key != "" {
		pc.APIKey = key
	}
	if url := os.Getenv("CHAT_INSIGHTS_" + name + "_BASE_URL"); url != "" {
		pc.BaseURL = url
	}
	if model := os.Getenv("CHAT_INSIGHTS_" + name + "_MODEL"); model != "" {
		pc.Model = model
	}
	setInt(&pc.MaxTokens, "CHAT_INSIGHTS_"+name+"_MAX_TOKENS")
	setInt(&pc.RequestTimeout, "CHAT_INSIGHTS_"+name+"_TIMEOUT_SECONDS")
	setInt(&pc.RateLimitRPM, "CHAT_INSIGHTS_"+name+"_RATE_LIMIT_RPM")
}

func loadPipelineEnv(config *Config) {
	if order := os.Getenv("CHAT_INSIGHTS_PROVIDER_ORDER"); order != "" {
		parts := strings.Split(order, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			config.Orchestrator.ProviderOrder = cleaned
		}
	}
	setInt(&config.Orchestrator.MaxAttempts, "CHAT_INSIGHTS_MAX_ATTEMPTS")
	setInt(&config.Orchestrator.BackoffBaseMs, "CHAT_INSIGHTS_BACKOFF_BASE_MS")
	setInt(&config.Orchestrator.BreakerFailureThreshold, "CHAT_INSIGHTS_BREAKER_FAILURE_THRESHOLD")
	setInt(&config.Orchestrator.BreakerOpenSeconds, "CHAT_INSIGHTS_BREAKER_OPEN_SECONDS")
	setInt(&config.Orchestrator.StickyOpenSeconds, "CHAT_INSIGHTS_STICKY_OPEN_SECONDS")

	setInt(&config.Segmenter.WindowMs, "CHAT_INSIGHTS_SEGMENT_WINDOW_MS")
	setInt(&config.Segmenter.MinMessages, "CHAT_INSIGHTS_SEGMENT_MIN_MESSAGES")

	setInt(&config.Index.BatchSize, "CHAT_INSIGHTS_INDEX_BATCH_SIZE")
	setInt(&config.Index.BatchDelayMs, "CHAT_INSIGHTS_INDEX_BATCH_DELAY_MS")
	setFloat(&config.Index.SimilarityFloor, "CHAT_INSIGHTS_SIMILARITY_FLOOR")
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setFloat(dst *float64, key string) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	known := map[string]bool{"openai": true, "anthropic": true, "gemini": true}
	for _, name := range c.Orchestrator.ProviderOrder {
		if !known[name] {
			return fmt.Errorf("unknown provider in cascade order: %q", name)
		}
	}
	if c.Orchestrator.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	if c.Orchestrator.BackoffBaseMs < 0 {
		return fmt.Errorf("backoff base cannot be negative")
	}

	if c.Segmenter.WindowMs <= 0 {
		return fmt.Errorf("segment window must be positive")
	}
	if c.Segmenter.MinMessages < 1 {
		return fmt.Errorf("segment min messages must be at least 1")
	}

	if c.Index.BatchSize < 1 {
		return fmt.Errorf("index batch size must be at least 1")
	}
	if c.Index.SimilarityFloor < -1 || c.Index.SimilarityFloor > 1 {
		return fmt.Errorf("similarity floor must be within [-1, 1]")
	}

	return nil
}
