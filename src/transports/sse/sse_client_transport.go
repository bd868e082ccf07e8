// Package sse opens the server-pushed event stream over HTTP
// Server-Sent Events.
package sse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/Yaswanth-ampolu/productdemo/src/events"
	"github.com/Yaswanth-ampolu/productdemo/src/transports"
)

// DefaultPath is the streaming endpoint relative to the server base URL.
const DefaultPath = "/sse"

// Source connects to {base}{path} and decodes text/event-stream frames.
type Source struct {
	url     string
	client  *http.Client
	headers map[string]string
	logger  func(format string, args ...interface{})

	mu          sync.Mutex
	lastEventID string
}

// NewSource constructs a Source. The client must not carry a global timeout:
// the stream is long-lived and is bounded by the context passed to Open.
// A nil client gets a fresh one.
func NewSource(baseURL, path string, client *http.Client, headers map[string]string, logger func(format string, args ...interface{})) *Source {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = func(format string, args ...interface{}) {}
	}
	if path == "" {
		path = DefaultPath
	}
	return &Source{
		url:     strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"),
		client:  client,
		headers: headers,
		logger:  logger,
	}
}

// URL returns the stream endpoint.
func (s *Source) URL() string { return s.url }

// LastEventID returns the id of the most recent frame that carried one.
func (s *Source) LastEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEventID
}

// Open issues the GET and returns once response headers arrive.
func (s *Source) Open(ctx context.Context) (transports.EventStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if id := s.LastEventID(); id != "" {
		req.Header.Set("Last-Event-ID", id)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	s.logger("connecting to SSE endpoint: %s", s.url)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	// Fail fast on non-2xx status codes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("event stream %s error: %s: %s", s.url, resp.Status, strings.TrimSpace(string(body)))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "event-stream") {
		s.logger("event stream content type is %q, decoding as event-stream anyway", ct)
	}
	return &stream{src: s, body: resp.Body, dec: events.NewDecoder(resp.Body)}, nil
}

type stream struct {
	src  *Source
	body io.ReadCloser
	dec  *events.Decoder
	once sync.Once
}

func (st *stream) Next() (events.Frame, error) {
	f, err := st.dec.Next()
	if err != nil {
		return f, err
	}
	// capture event-id for reconnect support
	if f.ID != "" {
		st.src.mu.Lock()
		st.src.lastEventID = f.ID
		st.src.mu.Unlock()
	}
	return f, nil
}

func (st *stream) Close() error {
	var err error
	st.once.Do(func() { err = st.body.Close() })
	return err
}
