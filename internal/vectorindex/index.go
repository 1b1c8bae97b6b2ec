// Package vectorindex implements the in-memory semantic index: batched
// embedding, brute-force cosine search, and stats aggregation. The index is
// rebuildable from source messages and is never persisted.
package vectorindex

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"chat-insights/internal/logging"
	"chat-insights/internal/provider"
	"chat-insights/internal/retry"
	"chat-insights/pkg/types"
)

const minContentLength = 3

// systemPrefixes marks non-conversational machine messages that carry no
// semantic value worth indexing.
var systemPrefixes = []string{
	"system:",
	"[system]",
	"/",
}

// Config tunes batching and search behavior.
type Config struct {
	// BatchSize is the number of texts sent per embedding request.
	BatchSize int

	// BatchDelay is the pause between consecutive embedding batches.
	BatchDelay time.Duration

	// SimilarityFloor excludes weak matches from search results.
	SimilarityFloor float64
}

// DefaultConfig returns the standard batching parameters.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:       10,
		BatchDelay:      100 * time.Millisecond,
		SimilarityFloor: 0.1,
	}
}

// Report summarizes one Insert call so callers can see how much of the
// batch was indexed with degraded vectors.
type Report struct {
	Indexed  int `json:"indexed"`
	Skipped  int `json:"skipped"`
	Fallback int `json:"fallback"`
}

// Index is the in-memory vector store. A single writer inserts while many
// readers search concurrently.
type Index struct {
	mu       sync.RWMutex
	records  []types.VectorRecord
	byID     map[string]int
	fallback int

	embedder provider.Embedder
	config   *Config
	logger   logging.Logger
}

// New creates an empty index. embedder may be nil, in which case every
// vector is a locally generated fallback.
func New(embedder provider.Embedder, config *Config, logger logging.Logger) *Index {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	return &Index{
		byID:     make(map[string]int),
		embedder: embedder,
		config:   config,
		logger:   logger.WithComponent("vectorindex"),
	}
}

// Insert embeds and stores a batch of messages. Unembeddable or duplicate
// messages are skipped, embedding failures degrade to fallback vectors, and
// the call itself only fails on context cancellation.
func (idx *Index) Insert(ctx context.Context, messages []types.Message) (*Report, error) {
	report := &Report{}

	seen := make(map[string]bool, len(messages))
	candidates := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		if !indexable(&msg) || seen[msg.ID] || idx.has(msg.ID) {
			report.Skipped++
			continue
		}
		seen[msg.ID] = true
		candidates = append(candidates, msg)
	}

	for start := 0; start < len(candidates); start += idx.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if start > 0 && idx.config.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(idx.config.BatchDelay):
			}
		}

		end := start + idx.config.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		texts := make([]string, len(batch))
		for i, msg := range batch {
			texts[i] = msg.Content
		}

		vectors, fellBack := idx.embedBatch(ctx, texts)
		if fellBack > 0 {
			report.Fallback += fellBack
		}

		records := make([]types.VectorRecord, len(batch))
		for i, msg := range batch {
			records[i] = types.VectorRecord{
				ID:        msg.ID,
				Content:   msg.Content,
				Embedding: vectors[i],
				Metadata: types.RecordMetadata{
					Sender:     msg.Sender,
					RoomLabel:  msg.RoomLabel,
					Timestamp:  msg.Timestamp,
					SourceType: types.SourceTypeMessage,
				},
			}
		}
		report.Indexed += idx.store(records, fellBack)
	}

	idx.logger.InfoContext(ctx, "insert completed",
		"indexed", report.Indexed, "skipped", report.Skipped, "fallback", report.Fallback)
	return report, nil
}

// InsertSummaries stores analysis summaries so semantic search can surface
// whole conversations, not just individual messages.
func (idx *Index) InsertSummaries(ctx context.Context, results []types.AnalysisResult) (*Report, error) {
	messages := make([]types.Message, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Summary) == "" {
			continue
		}
		messages = append(messages, types.Message{
			ID:        summaryID(&r),
			Content:   r.Summary,
			Sender:    "analysis",
			RoomLabel: r.RoomLabel,
			Timestamp: r.Date,
		})
	}

	report, err := idx.Insert(ctx, messages)
	if err != nil {
		return report, err
	}
	idx.retag(messages, types.SourceTypeSummary)
	return report, nil
}

// Search embeds the query and returns up to limit records ranked by cosine
// similarity, strongest first. Matches below the similarity floor are
// dropped. A blank query is embedded like any other text and ranked the
// same way; an empty index yields an empty result, never an error.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	vectors, fellBack := idx.embedBatch(ctx, []string{query})
	if fellBack > 0 {
		idx.logger.WarnContext(ctx, "query embedded with fallback vector, relevance degraded")
	}
	queryVec := vectors[0]

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]types.SearchResult, 0, len(idx.records))
	for i := range idx.records {
		similarity := cosine(queryVec, idx.records[i].Embedding)
		if similarity < idx.config.SimilarityFloor {
			continue
		}
		results = append(results, types.SearchResult{
			Content:    idx.records[i].Content,
			Similarity: similarity,
			Metadata:   idx.records[i].Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Stats aggregates current index contents.
func (idx *Index) Stats() types.IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stats := types.IndexStats{
		TotalRecords:       len(idx.records),
		BySourceType:       make(map[string]int),
		ByRoom:             make(map[string]int),
		FallbackEmbeddings: idx.fallback,
	}

	for i := range idx.records {
		meta := &idx.records[i].Metadata
		stats.BySourceType[string(meta.SourceType)]++
		stats.ByRoom[meta.RoomLabel]++

		ts := meta.Timestamp
		if stats.OldestTimestamp == nil || ts.Before(*stats.OldestTimestamp) {
			t := ts
			stats.OldestTimestamp = &t
		}
		if stats.NewestTimestamp == nil || ts.After(*stats.NewestTimestamp) {
			t := ts
			stats.NewestTimestamp = &t
		}
	}
	return stats
}

// embedBatch returns one vector per text. Provider failures degrade to
// deterministic pseudo-random vectors instead of failing the batch; the
// second return is how many texts fell back.
func (idx *Index) embedBatch(ctx context.Context, texts []string) ([][]float64, int) {
	if idx.embedder != nil {
		var vectors [][]float64
		retryConfig := &retry.Config{
			MaxAttempts:     3,
			InitialDelay:    200 * time.Millisecond,
			MaxDelay:        5 * time.Second,
			Multiplier:      2.0,
			RandomizeFactor: 0.1,
			RetryIf: func(err error) bool {
				if pe, ok := provider.AsError(err); ok {
					return pe.Temporary()
				}
				return retry.DefaultRetryIf(err)
			},
		}
		result := retry.New(retryConfig).Do(ctx, func(ctx context.Context) error {
			var err error
			vectors, err = idx.embedder.Embed(ctx, texts)
			return err
		})
		if result.Err == nil && len(vectors) == len(texts) {
			return vectors, 0
		}
		idx.logger.WarnContext(ctx, "embedding failed, using fallback vectors",
			"texts", len(texts), "attempts", result.Attempts, "error", errString(result.Err))
	}

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = fallbackVector(text)
	}
	return vectors, len(texts)
}

func (idx *Index) has(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.byID[id]
	return ok
}

func (idx *Index) store(records []types.VectorRecord, fellBack int) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	stored := 0
	for i := range records {
		if _, ok := idx.byID[records[i].ID]; ok {
			continue
		}
		idx.byID[records[i].ID] = len(idx.records)
		idx.records = append(idx.records, records[i])
		stored++
	}
	idx.fallback += fellBack
	return stored
}

func (idx *Index) retag(messages []types.Message, sourceType types.SourceType) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, msg := range messages {
		if pos, ok := idx.byID[msg.ID]; ok {
			idx.records[pos].Metadata.SourceType = sourceType
		}
	}
}

// indexable rejects messages too short or too mechanical to embed usefully.
func indexable(msg *types.Message) bool {
	content := strings.TrimSpace(msg.Content)
	if len(content) < minContentLength || msg.ID == "" {
		return false
	}
	lowered := strings.ToLower(content)
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return false
		}
	}
	return true
}

// fallbackVector derives a unit-length pseudo-random vector from the text
// itself, so repeated inserts of the same content stay deterministic.
func fallbackVector(text string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float64, types.EmbeddingDimensions)
	var norm float64
	for i := range vec {
		vec[i] = rng.Float64()*2 - 1
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// cosine computes cosine similarity, zero when either vector is degenerate
// or the lengths disagree.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func summaryID(r *types.AnalysisResult) string {
	return "summary-" + r.RoomLabel + "-" + r.Date.UTC().Format(time.RFC3339)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
