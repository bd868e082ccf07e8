package cli

import (
	"strings"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
)

// ParseParams turns a command-line parameter argument into a tool
// parameter map. It accepts plain JSON, JSON whose quotes were
// backslash-escaped by the shell (as PowerShell does), and otherwise wraps
// the raw text as {"input": raw}.
func ParseParams(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	if params, ok := decodeParams(raw); ok {
		return params
	}
	cleaned := strings.ReplaceAll(raw, `\"`, `"`)
	cleaned = strings.ReplaceAll(cleaned, `\\`, `\`)
	if strings.HasPrefix(cleaned, `{\`) || strings.HasPrefix(cleaned, `{"`) {
		if params, ok := decodeParams(strings.ReplaceAll(cleaned, `\`, "")); ok {
			return params
		}
	}
	return map[string]any{"input": raw}
}

func decodeParams(s string) (map[string]any, bool) {
	var params map[string]any
	if err := json.Unmarshal([]byte(s), &params); err != nil || params == nil {
		return nil, false
	}
	return params, true
}
