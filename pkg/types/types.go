// Package types provides the shared data structures for the chat analysis
// pipeline and the semantic message index.
package types

import (
	"fmt"
	"time"
)

// Message is a single chat message as handed over by the ingestion layer.
// Messages are immutable once ingested; the core only reads them.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	RoomLabel string    `json:"room_label"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks that a message is usable as analysis input.
func (m *Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message id cannot be empty")
	}
	if m.RoomLabel == "" {
		return fmt.Errorf("message %s: room label cannot be empty", m.ID)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("message %s: timestamp cannot be zero", m.ID)
	}
	return nil
}

// ConversationUnit is a room- and time-bounded group of messages treated as
// one analyzable exchange. Messages are sorted ascending by timestamp, all
// share the same room, and no inter-message gap exceeds the segmenter window.
type ConversationUnit struct {
	RoomLabel    string    `json:"room_label"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
}

// Start returns the timestamp of the first message in the unit.
func (u *ConversationUnit) Start() time.Time {
	if len(u.Messages) == 0 {
		return time.Time{}
	}
	return u.Messages[0].Timestamp
}

// End returns the timestamp of the last message in the unit.
func (u *ConversationUnit) End() time.Time {
	if len(u.Messages) == 0 {
		return time.Time{}
	}
	return u.Messages[len(u.Messages)-1].Timestamp
}

// Sentiment classifies the overall tone of a conversation unit.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the defined sentiment values.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Priority classifies how urgently a conversation unit needs attention.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the defined priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Weight returns the sort weight for a priority (high=3, medium=2, low=1).
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Limits on list-valued analysis fields.
const (
	MaxKeyTopics   = 5
	MaxInsights    = 3
	MaxPatterns    = 3
	MaxActionItems = 3
)

// AnalysisResult is the derived artifact produced once per conversation
// unit. It is never mutated after creation.
type AnalysisResult struct {
	Date         time.Time `json:"date"`
	RoomLabel    string    `json:"room_label"`
	MessageCount int       `json:"message_count"`
	Participants []string  `json:"participants"`
	Summary      string    `json:"summary"`
	KeyTopics    []string  `json:"key_topics"`
	Sentiment    Sentiment `json:"sentiment"`
	Priority     Priority  `json:"priority"`
	Insights     []string  `json:"insights"`
	Patterns     []string  `json:"patterns"`
	ActionItems  []string  `json:"action_items"`
}

// EmbeddingDimensions is the fixed dimensionality of every vector stored in
// the index. Records with any other dimensionality are rejected.
const EmbeddingDimensions = 384

// SourceType tags where an indexed record came from.
type SourceType string

const (
	SourceTypeMessage SourceType = "message"
	SourceTypeSummary SourceType = "summary"
)

// RecordMetadata carries the searchable attributes of an indexed record.
type RecordMetadata struct {
	Sender     string     `json:"sender"`
	RoomLabel  string     `json:"room_label"`
	Timestamp  time.Time  `json:"timestamp"`
	SourceType SourceType `json:"source_type"`
}

// VectorRecord is one stored entry in the semantic index.
type VectorRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float64      `json:"embedding"`
	Metadata  RecordMetadata `json:"metadata"`
}

// SearchResult is one ranked hit from a semantic query. It is computed per
// query and never persisted.
type SearchResult struct {
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   RecordMetadata `json:"metadata"`
}

// IndexStats is a point-in-time aggregation over the index contents.
type IndexStats struct {
	TotalRecords    int            `json:"total_records"`
	BySourceType    map[string]int `json:"by_source_type"`
	ByRoom          map[string]int `json:"by_room"`
	OldestTimestamp *time.Time     `json:"oldest_timestamp,omitempty"`
	NewestTimestamp *time.Time     `json:"newest_timestamp,omitempty"`
	// FallbackEmbeddings counts records stored with locally generated
	// vectors because the embedding provider was unavailable. Search over
	// those records works but relevance is degraded.
	FallbackEmbeddings int `json:"fallback_embeddings"`
}
