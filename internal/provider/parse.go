package provider

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Generative providers asked for structured output often wrap it in prose
// or markdown fences. The decoders here are best effort: structured parse
// first, then delimiter heuristics, each step reporting success instead of
// failing the cascade.

// ExtractJSON returns the first balanced JSON object or array substring of
// s, honoring string literals and escapes.
func ExtractJSON(s string) (string, bool) {
	start := -1
	for i, r := range s {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	var (
		depth    int
		inString bool
		escaped  bool
	)
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeObject unmarshals the first balanced JSON value in s into v.
func DecodeObject(s string, v interface{}) bool {
	raw, ok := ExtractJSON(s)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), v) == nil
}

var (
	numberedItem = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+(.+)$`)
)

// StringList decodes a list of strings from free text. Fallback chain:
// JSON array, numbered or bulleted lines, comma-separated single line.
// Returns at most max items; ok is false when nothing list-like was found.
func StringList(s string, max int) ([]string, bool) {
	if items, ok := jsonStringList(s); ok {
		return clip(items, max), true
	}

	var items []string
	for _, line := range strings.Split(s, "\n") {
		if m := numberedItem.FindStringSubmatch(line); m != nil {
			if item := cleanItem(m[1]); item != "" {
				items = append(items, item)
			}
		}
	}
	if len(items) > 0 {
		return clip(items, max), true
	}

	// Last resort: one comma-separated line.
	line := strings.TrimSpace(s)
	if line == "" || strings.Contains(line, "\n") {
		return nil, false
	}
	for _, part := range strings.Split(line, ",") {
		if item := cleanItem(part); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, false
	}
	return clip(items, max), true
}

func jsonStringList(s string) ([]string, bool) {
	raw, ok := ExtractJSON(s)
	if !ok {
		return nil, false
	}

	var direct []string
	if json.Unmarshal([]byte(raw), &direct) == nil {
		return nonEmpty(direct), true
	}

	// Some models return {"items": [...]} or similar single-key wrappers.
	var wrapped map[string][]string
	if json.Unmarshal([]byte(raw), &wrapped) == nil {
		for _, v := range wrapped {
			if len(v) > 0 {
				return nonEmpty(v), true
			}
		}
	}
	return nil, false
}

func nonEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		if item = cleanItem(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func clip(items []string, max int) []string {
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}
