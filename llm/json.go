package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSON = errors.New("no JSON object in response")

// extractJSON finds the outermost JSON object in a model response,
// tolerating markdown code fences and prose around it.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}

	return ""
}

// DecodeJSON parses a model response into the expected schema type.
// The response is free-form text expected to contain a JSON object; a
// response with no parseable object, or one that does not match the
// schema, is a decode failure the evaluator turns into its empty shape.
func DecodeJSON(response string, v any) error {
	payload := extractJSON(response)
	if payload == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
