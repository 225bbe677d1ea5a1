// Package extract parses raw provider output into the shapes the
// pipeline expects.
package extract

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrEmptyOutput       = errors.New("provider output is empty")
	ErrInvalidStructured = errors.New("no valid JSON object in provider output")
)

// Text trims provider output and rejects empty results.
func Text(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyOutput
	}
	return trimmed, nil
}

// Structured finds the first balanced {...} span in raw and unmarshals
// it into v. Providers routinely wrap JSON in prose or code fences, so
// the output is never assumed to be pure JSON.
func Structured(raw string, v any) error {
	span, ok := firstObjectSpan(raw)
	if !ok {
		return ErrInvalidStructured
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return ErrInvalidStructured
	}
	return nil
}

// firstObjectSpan returns the first brace-balanced object span,
// ignoring braces inside JSON string literals.
func firstObjectSpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
