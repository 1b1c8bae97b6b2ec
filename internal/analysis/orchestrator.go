// Package analysis drives the cascading multi-provider analysis pipeline.
// The orchestrator guarantees a non-throwing contract: every conversation
// unit yields a complete result, worst case entirely heuristic.
package analysis

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"chat-insights/internal/circuitbreaker"
	"chat-insights/internal/config"
	"chat-insights/internal/heuristic"
	"chat-insights/internal/logging"
	"chat-insights/internal/provider"
	"chat-insights/internal/retry"
	"chat-insights/internal/segment"
	"chat-insights/pkg/types"
)

// Orchestrator cascades each capability across configured providers, best
// quality first, and falls back to the heuristic engine when every provider
// and retry is exhausted.
type Orchestrator struct {
	adapters  []provider.Adapter
	breakers  map[string]*circuitbreaker.CircuitBreaker
	engine    *heuristic.Engine
	segmenter *segment.Segmenter
	logger    logging.Logger

	maxAttempts int
	backoffBase time.Duration
	stickyOpen  time.Duration

	now func() time.Time
}

// New creates an orchestrator. adapters must already be in cascade order;
// an empty slice means every capability is served heuristically.
func New(cfg *config.Config, adapters []provider.Adapter, logger logging.Logger) *Orchestrator {
	breakers := make(map[string]*circuitbreaker.CircuitBreaker, len(adapters))
	for _, adapter := range adapters {
		name := adapter.Name()
		breakers[name] = circuitbreaker.New(&circuitbreaker.Config{
			FailureThreshold: cfg.Orchestrator.BreakerFailureThreshold,
			SuccessThreshold: 1,
			OpenTimeout:      cfg.Orchestrator.BreakerOpenTimeout(),
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Info("provider circuit state changed",
					"provider", name, "from", from.String(), "to", to.String())
			},
		})
	}

	return &Orchestrator{
		adapters:    adapters,
		breakers:    breakers,
		engine:      heuristic.NewEngine(),
		segmenter:   segment.New(cfg.Segmenter.Window(), cfg.Segmenter.MinMessages),
		logger:      logger.WithComponent("analysis"),
		maxAttempts: cfg.Orchestrator.MaxAttempts,
		backoffBase: cfg.Orchestrator.BackoffBase(),
		stickyOpen:  cfg.Orchestrator.StickyOpenTimeout(),
		now:         time.Now,
	}
}

// AnalyzeConversations segments messages and analyzes every resulting unit.
// It never fails on provider problems; results are sorted by priority
// weight descending with input order as the tiebreak.
func (o *Orchestrator) AnalyzeConversations(ctx context.Context, messages []types.Message, date string) []types.AnalysisResult {
	units := o.segmenter.Split(messages, date)

	results := make([]types.AnalysisResult, 0, len(units))
	for i := range units {
		results = append(results, o.analyzeUnit(ctx, &units[i]))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Priority.Weight() > results[j].Priority.Weight()
	})
	return results
}

// ProviderHealth reports the circuit state per provider.
func (o *Orchestrator) ProviderHealth() map[string]string {
	health := make(map[string]string, len(o.breakers))
	for name, cb := range o.breakers {
		health[name] = cb.State().String()
	}
	return health
}

// ProviderStats reports per-provider circuit counters alongside the state.
func (o *Orchestrator) ProviderStats() map[string]circuitbreaker.Stats {
	stats := make(map[string]circuitbreaker.Stats, len(o.breakers))
	for name, cb := range o.breakers {
		stats[name] = cb.GetStats()
	}
	return stats
}

// analyzeUnit merges provider-derived capability outputs over a heuristic
// base, so any mix of successes and failures still yields a full result.
func (o *Orchestrator) analyzeUnit(ctx context.Context, unit *types.ConversationUnit) types.AnalysisResult {
	result := o.engine.Analyze(unit, o.now())

	if text, ok := o.callCapability(ctx, provider.CapabilitySummarize, summaryPrompt(unit)); ok {
		if summary := strings.TrimSpace(text); summary != "" {
			result.Summary = summary
		}
	}

	if text, ok := o.callCapability(ctx, provider.CapabilitySentiment, sentimentPrompt(unit)); ok {
		if sentiment, ok := parseSentiment(text); ok {
			result.Sentiment = sentiment
		}
	}

	if text, ok := o.callCapability(ctx, provider.CapabilityTopics, topicsPrompt(unit)); ok {
		if topics, ok := provider.StringList(text, types.MaxKeyTopics); ok {
			result.KeyTopics = topics
		}
	}

	if text, ok := o.callCapability(ctx, provider.CapabilityInsights, insightsPrompt(unit)); ok {
		applyInsights(&result, text)
	}

	return result
}

// callCapability runs one capability stage through the cascade. Each
// provider gets a bounded retry loop; a provider is only skipped outright
// while its circuit is open. Returns ok=false when the whole cascade
// failed and the heuristic value should stand.
func (o *Orchestrator) callCapability(ctx context.Context, capability provider.Capability, prompt string) (string, bool) {
	req := &provider.Request{
		Capability: capability,
		System:     systemPrompt,
		Prompt:     prompt,
	}

	for _, adapter := range o.adapters {
		if !adapter.Supports(capability) {
			continue
		}
		name := adapter.Name()
		cb := o.breakers[name]

		var text string
		err := cb.Execute(ctx, func(ctx context.Context) error {
			attempt := 0
			result := o.newRetrier().Do(ctx, func(ctx context.Context) error {
				attempt++
				resp, callErr := adapter.Call(ctx, req)
				if callErr != nil {
					o.logger.WarnContext(ctx, "provider call failed",
						"provider", name, "capability", string(capability),
						"attempt", attempt, "error", callErr.Error())
					return callErr
				}
				text = resp.Text
				return nil
			})
			return result.Err
		})

		if err == nil && strings.TrimSpace(text) != "" {
			return text, true
		}

		if errors.Is(err, circuitbreaker.ErrOpen) {
			o.logger.DebugContext(ctx, "provider skipped, circuit open",
				"provider", name, "capability", string(capability))
			continue
		}
		if pe, ok := provider.AsError(err); ok && pe.Terminal() {
			// Quota or auth failures will not recover this run; stop
			// sending this provider traffic for the sticky window.
			cb.ForceOpen(o.stickyOpen)
			o.logger.WarnContext(ctx, "provider marked failed for this run",
				"provider", name, "capability", string(capability), "status", pe.Status)
		}
	}

	return "", false
}

func (o *Orchestrator) newRetrier() *retry.Retrier {
	return retry.New(&retry.Config{
		MaxAttempts:     o.maxAttempts,
		InitialDelay:    o.backoffBase,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf: func(err error) bool {
			if pe, ok := provider.AsError(err); ok {
				return pe.Temporary()
			}
			return retry.DefaultRetryIf(err)
		},
	})
}

// parseSentiment finds a sentiment label in provider output.
func parseSentiment(text string) (types.Sentiment, bool) {
	lowered := strings.ToLower(text)

	var payload struct {
		Sentiment string `json:"sentiment"`
	}
	if provider.DecodeObject(text, &payload) && payload.Sentiment != "" {
		lowered = strings.ToLower(payload.Sentiment)
	}

	for _, s := range []types.Sentiment{types.SentimentPositive, types.SentimentNegative, types.SentimentNeutral} {
		if strings.Contains(lowered, string(s)) {
			return s, true
		}
	}
	return "", false
}

// applyInsights overlays whatever parts of the structured insights payload
// survived defensive parsing; missing parts keep their heuristic values.
func applyInsights(result *types.AnalysisResult, text string) {
	var payload struct {
		Insights    []string `json:"insights"`
		Patterns    []string `json:"patterns"`
		ActionItems []string `json:"action_items"`
		Priority    string   `json:"priority"`
	}

	if provider.DecodeObject(text, &payload) {
		if len(payload.Insights) > 0 {
			result.Insights = clip(payload.Insights, types.MaxInsights)
		}
		if len(payload.Patterns) > 0 {
			result.Patterns = clip(payload.Patterns, types.MaxPatterns)
		}
		if len(payload.ActionItems) > 0 {
			result.ActionItems = clip(payload.ActionItems, types.MaxActionItems)
		}
		if p := types.Priority(strings.ToLower(payload.Priority)); p.Valid() {
			result.Priority = p
		}
		return
	}

	// No JSON object: settle for a plain list of insights.
	if insights, ok := provider.StringList(text, types.MaxInsights); ok {
		result.Insights = insights
	}
}

func clip(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
