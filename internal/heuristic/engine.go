// Package heuristic implements the deterministic, dependency-free fallback
// analyzers. Every function here is pure local computation: no network, no
// shared state, and no failure mode.
package heuristic

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"chat-insights/pkg/types"
)

// InsightSet bundles the free-text observations derived from one unit.
type InsightSet struct {
	Insights    []string
	Patterns    []string
	ActionItems []string
}

// Engine is the always-available analyzer of last resort.
type Engine struct{}

// NewEngine creates a heuristic engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze produces a complete result for one unit using heuristics only.
func (e *Engine) Analyze(unit *types.ConversationUnit, now time.Time) types.AnalysisResult {
	set := e.Insights(unit)
	return types.AnalysisResult{
		Date:         unit.Start(),
		RoomLabel:    unit.RoomLabel,
		MessageCount: len(unit.Messages),
		Participants: unit.Participants,
		Summary:      e.Summarize(unit),
		KeyTopics:    e.Topics(unit),
		Sentiment:    e.Sentiment(unit),
		Priority:     e.Priority(unit, now),
		Insights:     set.Insights,
		Patterns:     set.Patterns,
		ActionItems:  set.ActionItems,
	}
}

// Summarize matches the joined text against known conversation shapes and
// falls back to a generic participant/count statement.
func (e *Engine) Summarize(unit *types.ConversationUnit) string {
	joined := normalize(joinContents(unit))
	n := len(unit.Messages)
	p := len(unit.Participants)

	for _, family := range summaryFamilies {
		for _, keyword := range family.keywords {
			if strings.Contains(joined, keyword) {
				return fmt.Sprintf("%s between %d participants in %s (%d messages)",
					family.template, p, unit.RoomLabel, n)
			}
		}
	}

	return fmt.Sprintf("%d messages between %d participants in %s", n, p, unit.RoomLabel)
}

// Sentiment scores weighted positive and negative vocabulary, with a few
// contextual boosts. A difference above 1 is positive, below -1 negative.
func (e *Engine) Sentiment(unit *types.ConversationUnit) types.Sentiment {
	joined := normalize(joinContents(unit))

	score := 0
	for _, token := range tokenize(joined) {
		score += positiveWords[token]
		score -= negativeWords[token]
	}
	for _, emoji := range positiveEmoji {
		score += strings.Count(joined, emoji)
	}
	for _, emoji := range negativeEmoji {
		score -= strings.Count(joined, emoji)
	}

	// Contextual boosts: gratitude around help outweighs the individual
	// words; an unresolved breakage outweighs polite phrasing.
	if strings.Contains(joined, "thank") && strings.Contains(joined, "help") {
		score += 2
	}
	if strings.Contains(joined, "not working") || strings.Contains(joined, "doesnt work") {
		score -= 2
	}

	switch {
	case score > 1:
		return types.SentimentPositive
	case score < -1:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

// Topics returns the top weighted tokens after stop-word and platform-noise
// filtering.
func (e *Engine) Topics(unit *types.ConversationUnit) []string {
	counts := make(map[string]int)
	for _, msg := range unit.Messages {
		for _, token := range tokenize(msg.Content) {
			if len(token) < 3 || stopWords[token] || platformNoise[token] {
				continue
			}
			counts[token]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	type scored struct {
		token  string
		weight int
	}
	ranked := make([]scored, 0, len(counts))
	for token, count := range counts {
		weight := count
		if len(token) >= 7 {
			weight *= 2
		}
		if importantTopics[token] {
			weight += 3
		}
		ranked = append(ranked, scored{token, weight})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].token < ranked[j].token
	})

	limit := types.MaxKeyTopics
	if len(ranked) < limit {
		limit = len(ranked)
	}
	topics := make([]string, 0, limit)
	for _, s := range ranked[:limit] {
		topics = append(topics, s.token)
	}
	return topics
}

// Insights derives observations from message timing, length, and phrasing.
func (e *Engine) Insights(unit *types.ConversationUnit) InsightSet {
	var set InsightSet
	msgs := unit.Messages
	n := len(msgs)
	if n == 0 {
		return set
	}

	totalLen := 0
	questions := 0
	bySender := make(map[string]int)
	for _, msg := range msgs {
		totalLen += len(msg.Content)
		questions += strings.Count(msg.Content, "?")
		bySender[msg.Sender]++
	}
	avgLen := totalLen / n

	var gapSum time.Duration
	longPauses := 0
	for i := 1; i < n; i++ {
		gap := msgs[i].Timestamp.Sub(msgs[i-1].Timestamp)
		gapSum += gap
		if gap > 15*time.Minute {
			longPauses++
		}
	}

	// Insights: pace, verbosity, question density, dominance.
	if n >= 5 {
		avgGap := gapSum / time.Duration(n-1)
		if avgGap < 2*time.Minute {
			set.Insights = append(set.Insights,
				fmt.Sprintf("Rapid exchange: messages averaged %d seconds apart", int(avgGap.Seconds())))
		}
	}
	switch {
	case avgLen > 120:
		set.Insights = append(set.Insights,
			fmt.Sprintf("Participants wrote long, detailed messages (avg %d characters)", avgLen))
	case avgLen > 0 && avgLen < 20:
		set.Insights = append(set.Insights, "Mostly short, quick messages")
	}
	if questions*3 > n {
		set.Insights = append(set.Insights,
			fmt.Sprintf("Question-heavy conversation (%d questions)", questions))
	}
	for sender, count := range bySender {
		if sender != "" && count*10 > n*7 && len(bySender) > 1 {
			set.Insights = append(set.Insights,
				fmt.Sprintf("Conversation driven mostly by %s", sender))
			break
		}
	}
	set.Insights = clipStrings(set.Insights, types.MaxInsights)

	// Patterns: pauses, spread, turn-taking.
	if longPauses > 0 {
		set.Patterns = append(set.Patterns,
			fmt.Sprintf("Conversation resumed after %d long pauses", longPauses))
	}
	if span := unit.End().Sub(unit.Start()); span > 3*time.Hour {
		set.Patterns = append(set.Patterns,
			fmt.Sprintf("Activity spread across %.0f hours", span.Hours()))
	}
	if n > 2 {
		alternations := 0
		for i := 1; i < n; i++ {
			if msgs[i].Sender != msgs[i-1].Sender {
				alternations++
			}
		}
		if alternations*10 > (n-1)*6 {
			set.Patterns = append(set.Patterns, "Steady back-and-forth between participants")
		}
	}
	set.Patterns = clipStrings(set.Patterns, types.MaxPatterns)

	// Action items: imperative phrasing quoted back with its sender.
	for _, msg := range msgs {
		lowered := normalize(msg.Content)
		for _, phrase := range imperativePhrases {
			if strings.Contains(lowered, phrase) {
				set.ActionItems = append(set.ActionItems,
					fmt.Sprintf("%s: %s", msg.Sender, truncateContent(msg.Content, 80)))
				break
			}
		}
		if len(set.ActionItems) >= types.MaxActionItems {
			break
		}
	}

	return set
}

// Priority scores urgency signals; score >= 3 is high, >= 1 medium, else
// low.
func (e *Engine) Priority(unit *types.ConversationUnit, now time.Time) types.Priority {
	joined := normalize(joinContents(unit))

	urgentHits := 0
	for _, keyword := range urgentKeywords {
		urgentHits += strings.Count(joined, keyword)
	}

	questions := strings.Count(joined, "?")
	recent := 0
	for _, msg := range unit.Messages {
		if now.Sub(msg.Timestamp) <= 24*time.Hour {
			recent++
		}
	}

	score := 2 * urgentHits
	if len(unit.Messages) > 20 {
		score++
	}
	if questions > 3 {
		score++
	}
	if recent > 10 {
		score++
	}

	switch {
	case score >= 3:
		return types.PriorityHigh
	case score >= 1:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}

func joinContents(unit *types.ConversationUnit) string {
	parts := make([]string, 0, len(unit.Messages))
	for _, msg := range unit.Messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, " ")
}

func truncateContent(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func clipStrings(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
