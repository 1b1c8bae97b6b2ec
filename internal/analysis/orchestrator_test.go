package analysis

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-insights/internal/circuitbreaker"
	"chat-insights/internal/config"
	"chat-insights/internal/logging"
	"chat-insights/internal/provider"
	"chat-insights/pkg/types"
)

// fakeAdapter scripts one response or error per capability.
type fakeAdapter struct {
	name      string
	mu        sync.Mutex
	calls     map[provider.Capability]int
	responses map[provider.Capability]string
	errs      map[provider.Capability]error
}

func newFakeAdapter(name string) *fakeAdapter {
	return &fakeAdapter{
		name:      name,
		calls:     make(map[provider.Capability]int),
		responses: make(map[provider.Capability]string),
		errs:      make(map[provider.Capability]error),
	}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Supports(c provider.Capability) bool { return provider.SupportsText(c) }

func (f *fakeAdapter) Call(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.Capability]++
	if err, ok := f.errs[req.Capability]; ok {
		return nil, err
	}
	if text, ok := f.responses[req.Capability]; ok {
		return &provider.Response{Text: text, Model: f.name}, nil
	}
	return nil, provider.BadResponseError(f.name, req.Capability, fmt.Errorf("unscripted capability"))
}

func (f *fakeAdapter) callCount(c provider.Capability) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[c]
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Orchestrator.BackoffBaseMs = 1
	return cfg
}

func conversationMessages(base time.Time) []types.Message {
	return []types.Message{
		{ID: "1", Sender: "alice", RoomLabel: "general", Content: "Are you around?", Timestamp: base},
		{ID: "2", Sender: "alice", RoomLabel: "general", Content: "Can you please help me with the report?", Timestamp: base.Add(time.Minute)},
		{ID: "3", Sender: "bob", RoomLabel: "general", Content: "Yes, I can help with that this afternoon", Timestamp: base.Add(2 * time.Minute)},
	}
}

func TestAnalyzeWithoutProvidersIsHeuristic(t *testing.T) {
	o := New(testConfig(), nil, logging.NewNop())
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	results := o.AnalyzeConversations(context.Background(), conversationMessages(base), "all")

	require.Len(t, results, 1)
	assert.Contains(t, results[0].Summary, "assistance request")
	assert.True(t, results[0].Sentiment.Valid())
	assert.True(t, results[0].Priority.Valid())
	assert.Equal(t, 3, results[0].MessageCount)
}

func TestAnalyzeProviderOverridesHeuristic(t *testing.T) {
	adapter := newFakeAdapter("anthropic")
	adapter.responses[provider.CapabilitySummarize] = "Two colleagues arranged report help."
	adapter.responses[provider.CapabilitySentiment] = `{"sentiment": "positive"}`
	adapter.responses[provider.CapabilityTopics] = `["report", "help"]`
	adapter.responses[provider.CapabilityInsights] = `{"insights": ["quick response"], "patterns": [], "action_items": ["bob: help with report"], "priority": "medium"}`

	o := New(testConfig(), []provider.Adapter{adapter}, logging.NewNop())
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	results := o.AnalyzeConversations(context.Background(), conversationMessages(base), "all")

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Two colleagues arranged report help.", r.Summary)
	assert.Equal(t, types.SentimentPositive, r.Sentiment)
	assert.Equal(t, []string{"report", "help"}, r.KeyTopics)
	assert.Equal(t, []string{"quick response"}, r.Insights)
	assert.Equal(t, []string{"bob: help with report"}, r.ActionItems)
	assert.Equal(t, types.PriorityMedium, r.Priority)
}

func TestAnalyzeFailingProviderFallsBack(t *testing.T) {
	adapter := newFakeAdapter("openai")
	for _, c := range []provider.Capability{
		provider.CapabilitySummarize, provider.CapabilitySentiment,
		provider.CapabilityTopics, provider.CapabilityInsights,
	} {
		adapter.errs[c] = provider.StatusError("openai", c, http.StatusTooManyRequests, "slow down")
	}

	o := New(testConfig(), []provider.Adapter{adapter}, logging.NewNop())
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	results := o.AnalyzeConversations(context.Background(), conversationMessages(base), "all")

	require.Len(t, results, 1)
	assert.Contains(t, results[0].Summary, "assistance request")
	assert.True(t, results[0].Sentiment.Valid())

	// Rate limiting is temporary, so the first stage burned its full retry
	// budget before falling back.
	assert.Equal(t, 3, adapter.callCount(provider.CapabilitySummarize))
}

func TestAnalyzeCascadesToNextProvider(t *testing.T) {
	primary := newFakeAdapter("anthropic")
	for _, c := range []provider.Capability{
		provider.CapabilitySummarize, provider.CapabilitySentiment,
		provider.CapabilityTopics, provider.CapabilityInsights,
	} {
		primary.errs[c] = provider.StatusError("anthropic", c, http.StatusServiceUnavailable, "down")
	}

	secondary := newFakeAdapter("openai")
	secondary.responses[provider.CapabilitySummarize] = "Backup provider summary."
	secondary.responses[provider.CapabilitySentiment] = "neutral"
	secondary.responses[provider.CapabilityTopics] = `["report"]`
	secondary.responses[provider.CapabilityInsights] = `{"priority": "low"}`

	o := New(testConfig(), []provider.Adapter{primary, secondary}, logging.NewNop())
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	results := o.AnalyzeConversations(context.Background(), conversationMessages(base), "all")

	require.Len(t, results, 1)
	assert.Equal(t, "Backup provider summary.", results[0].Summary)
	assert.Equal(t, types.SentimentNeutral, results[0].Sentiment)
}

func TestAnalyzeTerminalErrorSkipsProviderForRun(t *testing.T) {
	adapter := newFakeAdapter("anthropic")
	for _, c := range []provider.Capability{
		provider.CapabilitySummarize, provider.CapabilitySentiment,
		provider.CapabilityTopics, provider.CapabilityInsights,
	} {
		adapter.errs[c] = provider.StatusError("anthropic", c, http.StatusUnauthorized, "bad key")
	}

	o := New(testConfig(), []provider.Adapter{adapter}, logging.NewNop())
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	results := o.AnalyzeConversations(context.Background(), conversationMessages(base), "all")
	require.Len(t, results, 1)

	// 401 is not retried and the first stage force-opens the circuit, so
	// the other three capability stages never reach the adapter.
	assert.Equal(t, 1, adapter.callCount(provider.CapabilitySummarize))
	assert.Equal(t, 0, adapter.callCount(provider.CapabilitySentiment))
	assert.Equal(t, circuitbreaker.StateOpen.String(), o.ProviderHealth()["anthropic"])
}

func TestProviderStatsCountsRequests(t *testing.T) {
	adapter := newFakeAdapter("anthropic")
	adapter.responses[provider.CapabilitySummarize] = "A short exchange."
	adapter.responses[provider.CapabilitySentiment] = "positive"
	adapter.responses[provider.CapabilityTopics] = `["report"]`
	adapter.responses[provider.CapabilityInsights] = `{"priority": "low"}`

	o := New(testConfig(), []provider.Adapter{adapter}, logging.NewNop())
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	results := o.AnalyzeConversations(context.Background(), conversationMessages(base), "all")
	require.Len(t, results, 1)

	stats := o.ProviderStats()["anthropic"]
	assert.Equal(t, circuitbreaker.StateClosed, stats.State)
	assert.Equal(t, int64(4), stats.TotalRequests, "one breaker pass per capability")
	assert.Equal(t, int64(0), stats.TotalFailures)
	assert.Equal(t, int64(0), stats.TotalRejections)
}

func TestAnalyzeSortsByPriority(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	var messages []types.Message
	// Low priority chatter, earliest in time.
	messages = append(messages,
		types.Message{ID: "a1", Sender: "alice", RoomLabel: "random", Content: "nice weather", Timestamp: base.Add(-49 * time.Hour)},
		types.Message{ID: "a2", Sender: "bob", RoomLabel: "random", Content: "indeed", Timestamp: base.Add(-49*time.Hour + time.Minute)},
		types.Message{ID: "a3", Sender: "alice", RoomLabel: "random", Content: "see you", Timestamp: base.Add(-49*time.Hour + 2*time.Minute)},
	)
	// Urgent conversation, later in time.
	messages = append(messages,
		types.Message{ID: "b1", Sender: "carol", RoomLabel: "ops", Content: "urgent: the site is down", Timestamp: base},
		types.Message{ID: "b2", Sender: "dave", RoomLabel: "ops", Content: "on it immediately", Timestamp: base.Add(time.Minute)},
		types.Message{ID: "b3", Sender: "carol", RoomLabel: "ops", Content: "critical for the demo", Timestamp: base.Add(2 * time.Minute)},
	)

	o := New(testConfig(), nil, logging.NewNop())
	o.now = func() time.Time { return base.Add(time.Hour) }

	results := o.AnalyzeConversations(context.Background(), messages, "all")
	require.Len(t, results, 2)
	assert.Equal(t, "ops", results[0].RoomLabel)
	assert.Equal(t, types.PriorityHigh, results[0].Priority)
	assert.Equal(t, "random", results[1].RoomLabel)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	o := New(testConfig(), nil, logging.NewNop())
	results := o.AnalyzeConversations(context.Background(), nil, "all")
	assert.Empty(t, results)
}

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		input string
		want  types.Sentiment
		ok    bool
	}{
		{"positive", types.SentimentPositive, true},
		{"The sentiment is Negative.", types.SentimentNegative, true},
		{`{"sentiment": "neutral"}`, types.SentimentNeutral, true},
		{"no classification here", "", false},
	}

	for _, tt := range tests {
		got, ok := parseSentiment(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.input)
		}
	}
}

func TestApplyInsightsPartialPayload(t *testing.T) {
	result := types.AnalysisResult{
		Insights: []string{"heuristic insight"},
		Patterns: []string{"heuristic pattern"},
		Priority: types.PriorityLow,
	}

	applyInsights(&result, `{"insights": ["model insight"], "priority": "high"}`)

	assert.Equal(t, []string{"model insight"}, result.Insights)
	assert.Equal(t, []string{"heuristic pattern"}, result.Patterns, "missing keys keep heuristic values")
	assert.Equal(t, types.PriorityHigh, result.Priority)
}

func TestApplyInsightsPlainList(t *testing.T) {
	result := types.AnalysisResult{Priority: types.PriorityLow}
	applyInsights(&result, "1. first observation\n2. second observation")

	assert.Equal(t, []string{"first observation", "second observation"}, result.Insights)
	assert.Equal(t, types.PriorityLow, result.Priority)
}
