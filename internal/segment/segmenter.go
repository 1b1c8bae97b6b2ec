// Package segment groups flat message lists into per-room, time-windowed
// conversation units.
package segment

import (
	"sort"
	"time"

	"chat-insights/pkg/types"
)

// AllDates selects every message regardless of calendar date.
const AllDates = "all"

// Segmenter partitions messages into conversation units. Output is
// deterministic for a given input set regardless of input order.
type Segmenter struct {
	window      time.Duration
	minMessages int
}

// New creates a segmenter. Non-positive arguments fall back to the defaults
// (1 hour window, 3 message minimum).
func New(window time.Duration, minMessages int) *Segmenter {
	if window <= 0 {
		window = time.Hour
	}
	if minMessages <= 0 {
		minMessages = 3
	}
	return &Segmenter{window: window, minMessages: minMessages}
}

// Split groups messages into conversation units. date filters messages to
// one UTC calendar day in "2006-01-02" form; empty or AllDates keeps all.
// Units smaller than the configured minimum are dropped.
func (s *Segmenter) Split(messages []types.Message, date string) []types.ConversationUnit {
	filtered := filterByDate(messages, date)
	if len(filtered) == 0 {
		return nil
	}

	// Sorting first makes segmentation independent of input order. The ID
	// tiebreak keeps equal timestamps deterministic too.
	sorted := make([]types.Message, len(filtered))
	copy(sorted, filtered)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	byRoom := make(map[string][]types.Message)
	for _, msg := range sorted {
		byRoom[msg.RoomLabel] = append(byRoom[msg.RoomLabel], msg)
	}

	var units []types.ConversationUnit
	for room, roomMessages := range byRoom {
		units = append(units, s.splitRoom(room, roomMessages)...)
	}

	sort.SliceStable(units, func(i, j int) bool {
		si, sj := units[i].Start(), units[j].Start()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return units[i].RoomLabel < units[j].RoomLabel
	})

	return units
}

// splitRoom cuts one room's time-sorted messages at gaps larger than the
// window.
func (s *Segmenter) splitRoom(room string, messages []types.Message) []types.ConversationUnit {
	var units []types.ConversationUnit
	var current []types.Message

	flush := func() {
		if len(current) >= s.minMessages {
			units = append(units, types.ConversationUnit{
				RoomLabel:    room,
				Participants: participants(current),
				Messages:     current,
			})
		}
		current = nil
	}

	for _, msg := range messages {
		if len(current) > 0 {
			gap := msg.Timestamp.Sub(current[len(current)-1].Timestamp)
			if gap > s.window {
				flush()
			}
		}
		current = append(current, msg)
	}
	flush()

	return units
}

func participants(messages []types.Message) []string {
	seen := make(map[string]bool, len(messages))
	var senders []string
	for _, msg := range messages {
		if msg.Sender == "" || seen[msg.Sender] {
			continue
		}
		seen[msg.Sender] = true
		senders = append(senders, msg.Sender)
	}
	sort.Strings(senders)
	return senders
}

func filterByDate(messages []types.Message, date string) []types.Message {
	if date == "" || date == AllDates {
		return messages
	}
	var filtered []types.Message
	for _, msg := range messages {
		if msg.Timestamp.UTC().Format("2006-01-02") == date {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}
