package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON unmarshals a model answer that may be wrapped in a code fence
// or surrounded by prose.
func DecodeJSON(text string, v any) error {
	if looksLikeHTML(text) {
		return ErrHTMLResponse
	}
	block := normalizeJSONBlock(text)
	if block == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("parse ai json: %w", err)
	}
	return nil
}

func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}
