package dispatch

import "net/http"

// Ack is the response to a submission.
type Ack struct {
	ID     string
	Status int
	Body   map[string]any
}

// Result reports whether the acknowledgment already embeds the final tool
// result, and returns it. A top-level "error" member counts as an embedded
// failure. A bare acknowledgment such as {"status":"accepted"} or an empty
// 202 returns false.
func (a Ack) Result() (any, bool) {
	if a.Status == http.StatusAccepted || len(a.Body) == 0 {
		return nil, false
	}
	if t, _ := a.Body["type"].(string); t == "tool_result" || t == "error" {
		if id, ok := a.Body["id"].(string); ok && id != a.ID {
			return nil, false
		}
		return a.Body, true
	}
	if a.Body["error"] != nil {
		return a.Body, true
	}
	if _, ok := a.Body["result"]; ok {
		return a.Body, true
	}
	if _, ok := a.Body["content"]; ok {
		return a.Body, true
	}
	return nil, false
}

// Failed reports whether an embedded result is an error result.
func (a Ack) Failed() bool {
	if isErr, _ := a.Body["isError"].(bool); isErr {
		return true
	}
	switch t, _ := a.Body["type"].(string); t {
	case "error":
		return true
	case "tool_result":
		return false
	}
	return a.Body["error"] != nil
}
