package events

import (
	"strings"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
	"github.com/Yaswanth-ampolu/productdemo/src/mcperr"
)

// Kind discriminates stream events.
type Kind string

const (
	KindConnected  Kind = "connected"
	KindToolResult Kind = "tool_result"
	KindError      Kind = "error"
	// KindPing is a keep-alive with no payload.
	KindPing Kind = "ping"
	// KindClosed is a server announcement that the stream is ending.
	KindClosed Kind = "closed"
)

// Event is one decoded server-pushed event.
type Event struct {
	Kind Kind
	// ClientID is set for connected events.
	ClientID string
	// ID is the request identifier for tool_result and error events.
	ID string
	// Name is the transport-level event name (SSE "event:" field), if any.
	Name string
	// LastEventID is the transport-level event id, if any.
	LastEventID string
	// Data is the full JSON object the event was decoded from.
	Data json.RawMessage
}

// Correlated reports whether the event answers a pending request.
func (e Event) Correlated() bool {
	return e.Kind == KindToolResult || e.Kind == KindError
}

// Terminal reports whether the event ends the session.
func (e Event) Terminal() bool {
	return e.Kind == KindClosed
}

type envelope struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
	ID       string `json:"id"`
}

// Parse converts a raw frame into an Event. Frames without data are treated as
// keep-alives. Data that is not a JSON object with a "type" member is reported
// as a MalformedEvent error.
func Parse(f Frame) (Event, error) {
	ev := Event{Name: f.Event, LastEventID: f.ID}
	data := strings.TrimSpace(f.Data)
	if data == "" {
		switch f.Event {
		case "", "ping", "heartbeat", "keepalive":
			ev.Kind = KindPing
			return ev, nil
		case string(KindClosed), "close", "end":
			ev.Kind = KindClosed
			return ev, nil
		}
		return ev, mcperr.Newf(mcperr.KindMalformedEvent, "", "", "event %q has no data", f.Event)
	}

	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return ev, mcperr.New(mcperr.KindMalformedEvent, "", "", err)
	}
	if env.Type == "" {
		return ev, mcperr.Newf(mcperr.KindMalformedEvent, "", "", "event data has no type: %s", truncate(data, 120))
	}
	ev.Kind = Kind(env.Type)
	ev.ClientID = env.ClientID
	ev.ID = env.ID
	ev.Data = json.RawMessage(data)

	switch ev.Kind {
	case KindConnected:
		if ev.ClientID == "" {
			return ev, mcperr.Newf(mcperr.KindMalformedEvent, "", "", "connected event without clientId")
		}
	case KindToolResult, KindError:
		if ev.ID == "" {
			return ev, mcperr.Newf(mcperr.KindMalformedEvent, "", "", "%s event without id", ev.Kind)
		}
	}
	return ev, nil
}

// Payload decodes the event's data into a generic JSON value.
func (e Event) Payload() any {
	if len(e.Data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return nil
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
