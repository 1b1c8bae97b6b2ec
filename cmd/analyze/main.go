// Command analyze runs the analysis pipeline over a JSON message dump and
// prints a colored report. Without provider credentials the output is
// entirely heuristic, which is still a complete report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"chat-insights/internal/analysis"
	"chat-insights/internal/config"
	"chat-insights/internal/logging"
	"chat-insights/internal/provider"
	"chat-insights/internal/segment"
	"chat-insights/pkg/types"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "path to a JSON array of messages (default stdin)")
		date       = flag.String("date", segment.AllDates, "restrict to one UTC day (YYYY-MM-DD) or \"all\"")
		asJSON     = flag.Bool("json", false, "emit raw JSON instead of the report")
		timeoutSec = flag.Int("timeout", 120, "overall analysis timeout in seconds")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fatalf("failed to load configuration: %v", err)
	}
	logger := logging.NewNop()

	messages, err := readMessages(*inputPath)
	if err != nil {
		fatalf("failed to read messages: %v", err)
	}
	if len(messages) == 0 {
		fatalf("no messages in input")
	}

	orchestrator := analysis.New(cfg, buildAdapters(cfg), logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeoutSec)*time.Second)
	defer cancel()

	results := orchestrator.AnalyzeConversations(ctx, messages, *date)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fatalf("failed to encode results: %v", err)
		}
		return
	}

	printReport(messages, results)
}

func readMessages(path string) ([]types.Message, error) {
	in := os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var messages []types.Message
	if err := json.NewDecoder(in).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode message array: %w", err)
	}
	return messages, nil
}

func buildAdapters(cfg *config.Config) []provider.Adapter {
	byName := map[string]config.ChatProviderConfig{
		"openai":    cfg.OpenAI,
		"anthropic": cfg.Anthropic,
		"gemini":    cfg.Gemini,
	}

	var adapters []provider.Adapter
	for _, name := range cfg.Orchestrator.ProviderOrder {
		pc, ok := byName[name]
		if !ok || !pc.Enabled() {
			continue
		}

		var (
			adapter provider.Adapter
			err     error
		)
		switch name {
		case "openai":
			adapter, err = provider.NewOpenAIAdapter(pc)
		case "anthropic":
			adapter, err = provider.NewAnthropicAdapter(pc)
		case "gemini":
			adapter, err = provider.NewGeminiAdapter(pc)
		}
		if err == nil {
			adapters = append(adapters, adapter)
		}
	}
	return adapters
}

func printReport(messages []types.Message, results []types.AnalysisResult) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite, color.Bold)
	dim := color.New(color.FgHiBlack)

	title.Printf("Conversation Analysis\n")
	dim.Printf("%d messages, %d conversation units\n\n", len(messages), len(results))

	if len(results) == 0 {
		fmt.Println("No conversation units found (units need at least 3 messages).")
		return
	}

	for i, r := range results {
		label.Printf("[%d] %s", i+1, r.RoomLabel)
		fmt.Printf("  %s  %d messages, %d participants\n",
			r.Date.UTC().Format("2006-01-02 15:04"), r.MessageCount, len(r.Participants))

		fmt.Printf("    %s\n", r.Summary)
		fmt.Printf("    priority: %s  sentiment: %s\n",
			priorityColor(r.Priority).Sprint(string(r.Priority)),
			sentimentColor(r.Sentiment).Sprint(string(r.Sentiment)))

		if len(r.KeyTopics) > 0 {
			fmt.Printf("    topics: %s\n", strings.Join(r.KeyTopics, ", "))
		}
		for _, insight := range r.Insights {
			dim.Printf("    - %s\n", insight)
		}
		for _, item := range r.ActionItems {
			color.New(color.FgYellow).Printf("    > %s\n", item)
		}
		fmt.Println()
	}
}

func priorityColor(p types.Priority) *color.Color {
	switch p {
	case types.PriorityHigh:
		return color.New(color.FgRed, color.Bold)
	case types.PriorityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func sentimentColor(s types.Sentiment) *color.Color {
	switch s {
	case types.SentimentPositive:
		return color.New(color.FgGreen)
	case types.SentimentNegative:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
