package tools

import (
	"strings"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
)

// ExtractResult unwraps the text content of a tool_result payload.
//
// Servers wrap tool output as {"content":{"content":[{"type":"text","text":...}]}}
// (or with the item list directly under "content"). When the first item
// carries text, that text is decoded as JSON if possible and otherwise
// returned as {"text": text}. A tool_result event without that wrapper
// carries the output in its own fields; those are returned without the
// event's "type" and "id". Any other payload is returned unchanged.
func ExtractResult(payload any) any {
	m, ok := payload.(map[string]any)
	if !ok {
		return payload
	}
	if _, wrapped := m["content"]; !wrapped {
		return stripEnvelope(m)
	}
	var items []any
	switch c := m["content"].(type) {
	case map[string]any:
		items, _ = c["content"].([]any)
	case []any:
		items = c
	}
	if len(items) == 0 {
		return payload
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return payload
	}
	text, ok := first["text"].(string)
	if !ok {
		return payload
	}
	var decoded any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &decoded); err == nil {
		return decoded
	}
	return map[string]any{"text": text}
}

// stripEnvelope drops the protocol fields of a tool_result event.
func stripEnvelope(m map[string]any) map[string]any {
	if t, _ := m["type"].(string); t != "tool_result" {
		return m
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != "type" && k != "id" {
			out[k] = v
		}
	}
	return out
}
