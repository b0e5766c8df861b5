package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/titanous/json5"
)

// ErrNoJSON is returned when a response contains no balanced JSON object.
var ErrNoJSON = errors.New("llm: no json object in response")

// ParseError reports a JSON object that was found but could not be decoded.
type ParseError struct {
	Span string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("llm: parse json: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractJSON decodes the longest balanced {...} span of text into dst.
// Strict JSON is tried first, then JSON5 to tolerate trailing commas,
// comments, and single quotes that models sometimes emit.
func ExtractJSON(text string, dst any) error {
	span, ok := LongestObject(text)
	if !ok {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(span), dst); err == nil {
		return nil
	}
	if err := json5.Unmarshal([]byte(span), dst); err != nil {
		return &ParseError{Span: span, Err: err}
	}
	return nil
}

// LongestObject returns the longest balanced {...} substring of text.
// Braces inside JSON string literals are ignored.
func LongestObject(text string) (string, bool) {
	best := ""
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := matchBrace(text, i)
		if end < 0 {
			continue
		}
		if span := text[i : end+1]; len(span) > len(best) {
			best = span
		}
		// Any object starting inside this one is contained in it.
		i = end
	}
	return best, best != ""
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for j := start; j < len(text); j++ {
		c := text[j]
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
				return j
			}
		}
	}
	return -1
}

// CleanText trims whitespace and surrounding code fences from free-form
// model output.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.Trim(strings.TrimSpace(s), `"`)
}
