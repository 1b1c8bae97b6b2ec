package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
			ok:    true,
		},
		{
			name:  "object wrapped in prose",
			input: "Here is the analysis:\n```json\n{\"a\": [1, 2]}\n```\nhope that helps",
			want:  `{"a": [1, 2]}`,
			ok:    true,
		},
		{
			name:  "braces inside string literals are ignored",
			input: `{"text": "a } inside \" quotes"}`,
			want:  `{"text": "a } inside \" quotes"}`,
			ok:    true,
		},
		{
			name:  "array",
			input: `the topics are ["a", "b"] as requested`,
			want:  `["a", "b"]`,
			ok:    true,
		},
		{
			name:  "unbalanced",
			input: `{"a": [1, 2`,
			ok:    false,
		},
		{
			name:  "no json at all",
			input: "just some prose",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	var payload struct {
		Priority string   `json:"priority"`
		Insights []string `json:"insights"`
	}
	text := "Sure! Here you go:\n{\"priority\": \"high\", \"insights\": [\"a\", \"b\"]}"

	require.True(t, DecodeObject(text, &payload))
	assert.Equal(t, "high", payload.Priority)
	assert.Equal(t, []string{"a", "b"}, payload.Insights)

	assert.False(t, DecodeObject("no structure here", &payload))
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		ok    bool
	}{
		{
			name:  "json array",
			input: `["deadline", "project", "budget"]`,
			want:  []string{"deadline", "project", "budget"},
			ok:    true,
		},
		{
			name:  "wrapped single key object",
			input: `{"topics": ["a", "b"]}`,
			want:  []string{"a", "b"},
			ok:    true,
		},
		{
			name:  "numbered lines",
			input: "The key topics are:\n1. deadline pressure\n2) budget review\n3. travel plans",
			want:  []string{"deadline pressure", "budget review", "travel plans"},
			ok:    true,
		},
		{
			name:  "bulleted lines",
			input: "- alpha\n* beta\n• gamma",
			want:  []string{"alpha", "beta", "gamma"},
			ok:    true,
		},
		{
			name:  "comma separated single line",
			input: "deadline, budget, travel",
			want:  []string{"deadline", "budget", "travel"},
			ok:    true,
		},
		{
			name:  "quoted items get unquoted",
			input: `"alpha", "beta"`,
			want:  []string{"alpha", "beta"},
			ok:    true,
		},
		{
			name:  "multi-line prose without markers fails",
			input: "some prose\nacross two lines",
			ok:    false,
		},
		{
			name:  "empty input fails",
			input: "   ",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StringList(tt.input, 5)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStringListHonorsMax(t *testing.T) {
	got, ok := StringList(`["a", "b", "c", "d"]`, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
}
