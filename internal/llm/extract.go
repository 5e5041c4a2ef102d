package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(\\w*)\\s*\\n(.+?)\\n```")

// ExtractJSON pulls a JSON document out of a model response that may wrap it
// in prose or a markdown code fence. Fenced ```json blocks are preferred;
// otherwise the first balanced object or array in the text is used.
func ExtractJSON(response string) (string, error) {
	for _, match := range fencedBlock.FindAllStringSubmatch(response, -1) {
		lang := strings.ToLower(match[1])
		if lang != "" && lang != "json" {
			continue
		}
		content := strings.TrimSpace(match[2])
		if json.Valid([]byte(content)) {
			return content, nil
		}
	}

	if doc, ok := firstBalancedJSON(response); ok {
		return doc, nil
	}
	return "", fmt.Errorf("no valid JSON found in model response")
}

// ExtractJSONAs extracts JSON from a response and unmarshals it into T.
func ExtractJSONAs[T any](response string) (T, error) {
	var out T
	doc, err := ExtractJSON(response)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return out, fmt.Errorf("unmarshal extracted JSON: %w", err)
	}
	return out, nil
}

// firstBalancedJSON scans for the first '{' or '[' and returns the balanced
// document starting there, honoring string literals and escapes.
func firstBalancedJSON(s string) (string, bool) {
	start := -1
	var open, closing byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			closing = '}'
			if open == '[' {
				closing = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
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
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				doc := s[start : i+1]
				if json.Valid([]byte(doc)) {
					return doc, true
				}
				return "", false
			}
		}
	}
	return "", false
}
