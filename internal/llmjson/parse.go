// Package llmjson extracts structured data from raw language-model output.
//
// Completions are adversarial input: models wrap JSON in markdown fences,
// prepend prose, append commentary, or emit truncated objects. Parse never
// fails: callers always get either the extracted object or their fallback.
package llmjson

import (
	"encoding/json"
	"strings"

	"github.com/emberline/inboxsim/internal/pkg/logger"
)

// Parse extracts a JSON object from raw model output. On total failure it
// logs a clipped sample of the offending text and returns fallback (or an
// empty map when fallback is nil). It never returns an error.
func Parse(raw string, fallback map[string]any) map[string]any {
	if fallback == nil {
		fallback = map[string]any{}
	}
	if strings.TrimSpace(raw) == "" {
		logger.Warn("empty model response")
		return fallback
	}

	cleaned := stripFences(raw)

	// Direct parse first: the prompts demand bare JSON and models usually
	// comply.
	var direct map[string]any
	if err := json.Unmarshal([]byte(cleaned), &direct); err == nil {
		return direct
	}

	// Hunt for the first balanced object embedded in surrounding prose.
	if obj, ok := balancedSpan(cleaned, '{', '}'); ok {
		var m map[string]any
		if err := json.Unmarshal([]byte(obj), &m); err == nil {
			return m
		}
	}

	// Last resort: a bare array, wrapped so callers always see an object.
	if arr, ok := balancedSpan(cleaned, '[', ']'); ok {
		var a []any
		if err := json.Unmarshal([]byte(arr), &a); err == nil {
			return map[string]any{"data": a}
		}
	}

	logger.Error("could not extract JSON from model response",
		"sample", logger.Truncate(raw, 200))
	return fallback
}

// Str reads a string field from a parsed object, returning def when the
// field is missing, empty, or not a string.
func Str(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

// stripFences removes a surrounding markdown code fence, with or without a
// "json" language tag (any case).
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
		s = strings.TrimLeft(s, " \t\r\n")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// balancedSpan returns the first balanced open..close substring of s,
// tracking nesting depth and skipping delimiters inside JSON strings.
// Truncated output never balances, so the caller falls through.
func balancedSpan(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
