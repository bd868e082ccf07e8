// Package mcperr defines the typed failures surfaced by the tool-invocation
// client. Every failure carries the offending request identifier and tool
// name when they are known, plus a human-readable cause.
package mcperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindConnectionTimeout   Kind = "connection_timeout"
	KindConnectionLost      Kind = "connection_lost"
	KindNotConnected        Kind = "not_connected"
	KindResultTimeout       Kind = "result_timeout"
	KindTransportError      Kind = "transport_error"
	KindMalformedEvent      Kind = "malformed_event"
	KindDuplicateIdentifier Kind = "duplicate_identifier"
	// KindRemoteError is an "error" event delivered by the server for a request.
	KindRemoteError Kind = "remote_error"
)

// Sentinels for errors.Is comparisons. They match any *Error of the same kind.
var (
	ErrConnectionTimeout   = &Error{Kind: KindConnectionTimeout}
	ErrConnectionLost      = &Error{Kind: KindConnectionLost}
	ErrNotConnected        = &Error{Kind: KindNotConnected}
	ErrResultTimeout       = &Error{Kind: KindResultTimeout}
	ErrTransportError      = &Error{Kind: KindTransportError}
	ErrMalformedEvent      = &Error{Kind: KindMalformedEvent}
	ErrDuplicateIdentifier = &Error{Kind: KindDuplicateIdentifier}
	ErrRemoteError         = &Error{Kind: KindRemoteError}
)

// Error is the single concrete failure type.
type Error struct {
	Kind Kind
	// ID is the request identifier, empty for session-level failures.
	ID string
	// Tool is the target tool name, empty for session-level failures.
	Tool string
	// Payload holds the server-provided body of a remote error, if any.
	Payload any
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Tool != "" {
		fmt.Fprintf(&b, " tool=%q", e.Tool)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " id=%q", e.ID)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of the given kind. cause may be nil.
func New(kind Kind, id, tool string, cause error) *Error {
	return &Error{Kind: kind, ID: id, Tool: tool, Cause: cause}
}

// Newf builds an *Error whose cause is a formatted message.
func Newf(kind Kind, id, tool, format string, args ...any) *Error {
	return &Error{Kind: kind, ID: id, Tool: tool, Cause: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// WithCall returns a copy of err annotated with id and tool where they are
// missing. Non-*Error values are returned unchanged.
func WithCall(err error, id, tool string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	cp := *e
	if cp.ID == "" {
		cp.ID = id
	}
	if cp.Tool == "" {
		cp.Tool = tool
	}
	return &cp
}

// Remote builds a RemoteError from a server error body. The message is taken
// from "error" (string or {"message":...}) or "message", in that order.
func Remote(id, tool string, payload any) *Error {
	msg := "remote tool error"
	if m, ok := payload.(map[string]any); ok {
		switch e := m["error"].(type) {
		case string:
			msg = e
		case map[string]any:
			if s, ok := e["message"].(string); ok {
				msg = s
			}
		default:
			if s, ok := m["message"].(string); ok {
				msg = s
			}
		}
	}
	return &Error{Kind: KindRemoteError, ID: id, Tool: tool, Payload: payload, Cause: errors.New(msg)}
}
