// Package provider normalizes external AI capabilities behind one
// request/response contract with a shared error taxonomy.
package provider

import (
	"context"
	"time"
)

// Capability is one kind of analysis a provider can perform.
type Capability string

const (
	CapabilitySummarize Capability = "summarize"
	CapabilitySentiment Capability = "sentiment"
	CapabilityTopics    Capability = "topics"
	CapabilityInsights  Capability = "insights"
	CapabilityEmbed     Capability = "embed"
)

// Request is a normalized call to a text-generation provider. Prompt
// shaping happens above the adapter; adapters only transport.
type Request struct {
	Capability Capability
	System     string
	Prompt     string
	MaxTokens  int
}

// Response is the normalized provider output.
type Response struct {
	Text    string
	Model   string
	Latency time.Duration
}

// Adapter wraps exactly one external text-generation provider. Adapters own
// request shaping, a bounded timeout, and error-kind translation; they never
// retry internally. Retry policy lives in the orchestrator so the cascade
// can short-circuit cleanly.
type Adapter interface {
	// Name identifies the provider in logs and cascade configuration.
	Name() string

	// Supports reports whether the adapter can serve a capability. The
	// cascade skips adapters that cannot.
	Supports(c Capability) bool

	// Call performs one attempt. Failures are *Error values carrying one
	// of the four error kinds.
	Call(ctx context.Context, req *Request) (*Response, error)
}

// SupportsText is the capability set shared by the chat adapters.
func SupportsText(c Capability) bool {
	switch c {
	case CapabilitySummarize, CapabilitySentiment, CapabilityTopics, CapabilityInsights:
		return true
	default:
		return false
	}
}

// Embedder wraps an embedding provider. Same no-internal-retry rule as
// Adapter.
type Embedder interface {
	Name() string

	// Embed returns one vector per input text, all of Dimensions length.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions is the vector length this embedder produces.
	Dimensions() int
}
