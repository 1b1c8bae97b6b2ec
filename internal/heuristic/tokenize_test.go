package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cafe latte", normalize("Café Latte"))
	assert.Equal(t, "uber", normalize("Über"))
	assert.Equal(t, "plain text", normalize("plain text"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"can", "you", "help", "me"},
		tokenize("Can you help me?"))

	assert.Equal(t,
		[]string{"meeting", "at", "3pm", "room", "b"},
		tokenize("meeting at 3pm, room B!"))

	assert.Empty(t, tokenize("?!... ---"))
}
