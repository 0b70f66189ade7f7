package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/cliptune/internal/shared"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// ExtractJSON pulls the first complete JSON object or array out of model
// output. Models wrap JSON in prose, code fences, and reasoning blocks;
// this strips all of that. A schema error is returned when no JSON value
// can be found.
func ExtractJSON(s string) (json.RawMessage, error) {
	if raw, ok := scanJSON(s); ok {
		return raw, nil
	}

	// Reasoning models leak <think> blocks; chat models love code fences.
	cleaned := thinkBlockRe.ReplaceAllString(s, "")
	if m := codeFenceRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	if idx := strings.Index(cleaned, "**Explanation:**"); idx >= 0 {
		cleaned = cleaned[:idx]
	}

	if raw, ok := scanJSON(cleaned); ok {
		return raw, nil
	}

	return nil, fmt.Errorf("%w: no JSON value in %q", shared.ErrSchema, truncate(s, 200))
}

// scanJSON finds the first balanced JSON object or array. Brace depth is
// tracked outside string literals so embedded braces don't end the scan
// early.
func scanJSON(s string) (json.RawMessage, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, false
	}

	open := s[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), true
				}
				return nil, false
			}
		}
	}

	return nil, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
