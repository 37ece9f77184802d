// internal/host/normalize.go
package host

import (
	"encoding/json"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Normalize coerces the host's varying response shapes into plain text:
// a bare string, an object exposing a content/text field, or a
// chat-completion style nested choice list.
func Normalize(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return normalizeJSON([]byte(v))
	case map[string]any:
		return normalizeMap(v)
	}
	// Unknown shape: round-trip through JSON so object-like values still
	// yield their content field.
	if data, err := json.Marshal(raw); err == nil {
		if text := normalizeJSON(data); text != "" {
			return text
		}
	}
	return fmt.Sprintf("%v", raw)
}

func normalizeJSON(data []byte) string {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		return normalizeMap(m)
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}

func normalizeMap(m map[string]any) string {
	if s, ok := m["content"].(string); ok {
		return s
	}
	if s, ok := m["text"].(string); ok {
		return s
	}
	// chat-completion shape: choices[0].message.content
	if choices, ok := m["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if s, ok := message["content"].(string); ok {
					return s
				}
			}
		}
	}
	if data, err := json.Marshal(m); err == nil {
		return string(data)
	}
	return ""
}

// FlattenHTML converts an HTML message payload into plain text. Hosts that
// deliver rendered markup would otherwise confuse date extraction. Payloads
// without markup pass through untouched.
func FlattenHTML(payload string) string {
	if !strings.Contains(payload, "<") || !strings.Contains(payload, ">") {
		return payload
	}
	md, err := htmltomarkdown.ConvertString(payload)
	if err != nil {
		return payload
	}
	return strings.TrimSpace(md)
}
