package analysis

import (
	"fmt"
	"strings"

	"chat-insights/pkg/types"
)

// maxTranscriptChars bounds prompt size so a long room history cannot blow
// past provider context limits.
const maxTranscriptChars = 6000

const systemPrompt = "You analyze chat conversations. Answer with exactly what is asked, no preamble."

// transcript renders a unit as "sender: content" lines, oldest first.
func transcript(unit *types.ConversationUnit) string {
	var b strings.Builder
	for _, msg := range unit.Messages {
		line := fmt.Sprintf("%s: %s\n", msg.Sender, strings.ReplaceAll(msg.Content, "\n", " "))
		if b.Len()+len(line) > maxTranscriptChars {
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

func summaryPrompt(unit *types.ConversationUnit) string {
	return fmt.Sprintf(
		"Summarize this conversation from room %q in one or two sentences.\n\n%s",
		unit.RoomLabel, transcript(unit))
}

func sentimentPrompt(unit *types.ConversationUnit) string {
	return fmt.Sprintf(
		"Classify the overall sentiment of this conversation as exactly one word: positive, neutral, or negative.\n\n%s",
		transcript(unit))
}

func topicsPrompt(unit *types.ConversationUnit) string {
	return fmt.Sprintf(
		"List the main topics of this conversation as a JSON array of at most %d short strings.\n\n%s",
		types.MaxKeyTopics, transcript(unit))
}

func insightsPrompt(unit *types.ConversationUnit) string {
	return fmt.Sprintf(
		`Analyze this conversation and respond with a JSON object of this exact shape:
{"insights": ["..."], "patterns": ["..."], "action_items": ["..."], "priority": "high|medium|low"}
Use at most %d insights, %d patterns, and %d action items.

%s`,
		types.MaxInsights, types.MaxPatterns, types.MaxActionItems, transcript(unit))
}
