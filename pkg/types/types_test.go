package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageValidate(t *testing.T) {
	valid := Message{
		ID:        "m1",
		Content:   "hello",
		Sender:    "alice",
		RoomLabel: "general",
		Timestamp: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.ID = ""
	assert.Error(t, noID.Validate())

	noRoom := valid
	noRoom.RoomLabel = ""
	assert.Error(t, noRoom.Validate())

	noTime := valid
	noTime.Timestamp = time.Time{}
	assert.Error(t, noTime.Validate())
}

func TestConversationUnitBounds(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	unit := ConversationUnit{
		RoomLabel: "general",
		Messages: []Message{
			{ID: "1", Timestamp: start},
			{ID: "2", Timestamp: start.Add(time.Minute)},
			{ID: "3", Timestamp: start.Add(2 * time.Minute)},
		},
	}

	assert.Equal(t, start, unit.Start())
	assert.Equal(t, start.Add(2*time.Minute), unit.End())

	var empty ConversationUnit
	assert.True(t, empty.Start().IsZero())
	assert.True(t, empty.End().IsZero())
}

func TestSentimentValid(t *testing.T) {
	assert.True(t, SentimentPositive.Valid())
	assert.True(t, SentimentNeutral.Valid())
	assert.True(t, SentimentNegative.Valid())
	assert.False(t, Sentiment("mixed").Valid())
	assert.False(t, Sentiment("").Valid())
}

func TestPriorityWeight(t *testing.T) {
	assert.Equal(t, 3, PriorityHigh.Weight())
	assert.Equal(t, 2, PriorityMedium.Weight())
	assert.Equal(t, 1, PriorityLow.Weight())
	assert.Equal(t, 0, Priority("").Weight())
	assert.True(t, PriorityHigh.Weight() > PriorityMedium.Weight())
}
