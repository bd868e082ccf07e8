// Package testserver is an in-process tool server speaking the stream +
// submission protocol, for tests.
package testserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
)

// ToolFunc produces the result of one call.
type ToolFunc func(params map[string]any) (any, error)

// Message is a submission received on /messages.
type Message struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	ClientID string         `json:"clientId"`
	Content  MessageContent `json:"content"`
}

type MessageContent struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

type Option func(*Server)

// WithClientID sets the identity announced in the connected event.
func WithClientID(id string) Option { return func(s *Server) { s.clientID = id } }

// WithoutHandshake makes the stream stay silent after it opens.
func WithoutHandshake() Option { return func(s *Server) { s.silent = true } }

// WithImmediateResults returns results in the /messages response body.
func WithImmediateResults() Option { return func(s *Server) { s.immediate = true } }

// WithResultDelay delays results pushed on the stream.
func WithResultDelay(d time.Duration) Option { return func(s *Server) { s.delay = d } }

// WithTool registers a tool. tools lists it with the given description.
func WithTool(name, description string, fn ToolFunc) Option {
	return func(s *Server) {
		s.tools[name] = fn
		s.order = append(s.order, map[string]any{
			"name":        name,
			"description": description,
			"parameters":  map[string]any{},
		})
	}
}

// WithToolList replaces the /tools listing with raw descriptors.
// WithUnknownToolReply answers calls to unregistered tools with 200 and body
// instead of a 404.
func WithUnknownToolReply(body map[string]any) Option {
	return func(s *Server) { s.unknownReply = body }
}

// WithUnwrappedResults puts a map result's fields directly on the
// tool_result event instead of inside content.content.
func WithUnwrappedResults() Option { return func(s *Server) { s.unwrapped = true } }

func WithToolList(list ...map[string]any) Option { return func(s *Server) { s.order = list } }

// WithInfo sets the /info response.
func WithInfo(name, version string) Option {
	return func(s *Server) { s.info = map[string]any{"name": name, "version": version} }
}

// Server wraps httptest.Server. It serves one active stream at a time.
type Server struct {
	*httptest.Server

	clientID  string
	silent    bool
	immediate bool
	unwrapped bool
	delay     time.Duration

	unknownReply map[string]any
	tools     map[string]ToolFunc
	order     []map[string]any
	info      map[string]any

	push chan string
	drop chan struct{}

	mu       sync.Mutex
	received []Message

	streams   atomic.Int32
	posts     atomic.Int32
	toolGets  atomic.Int32
	streamsUp chan struct{}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// New starts a server. Close it with Close.
func New(opts ...Option) *Server {
	s := &Server{
		clientID:  "abc123",
		tools:     map[string]ToolFunc{},
		info:      map[string]any{"name": "test-server", "version": "1.0.0"},
		push:      make(chan string, 64),
		drop:      make(chan struct{}, 1),
		streamsUp: make(chan struct{}, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", s.handleSSE)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/tools", s.handleTools)
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/messages", s.handleMessages)
	s.Server = httptest.NewServer(mux)
	return s
}

// Close drops open streams and shuts the server down.
func (s *Server) Close() {
	s.Server.CloseClientConnections()
	s.Server.Close()
}

// Push sends raw event data on the active stream.
func (s *Server) Push(data string) { s.push <- data }

// Drop ends the active stream from the server side.
func (s *Server) Drop() { s.drop <- struct{}{} }

// StreamOpened is signalled every time a stream is accepted.
func (s *Server) StreamOpened() <-chan struct{} { return s.streamsUp }

// Streams is the number of streams opened so far.
func (s *Server) Streams() int { return int(s.streams.Load()) }

// Posts is the number of submissions received.
func (s *Server) Posts() int { return int(s.posts.Load()) }

// ToolListings is the number of GET /tools requests served.
func (s *Server) ToolListings() int { return int(s.toolGets.Load()) }

// Received returns a copy of the submissions received so far.
func (s *Server) Received() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.received...)
}

func (s *Server) opened() {
	s.streams.Add(1)
	select {
	case s.streamsUp <- struct{}{}:
	default:
	}
}

func (s *Server) connectedEvent() string {
	return fmt.Sprintf(`{"type":"connected","clientId":%q}`, s.clientID)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	s.opened()

	if !s.silent {
		fmt.Fprintf(w, "event: connected\ndata: %s\n\n", s.connectedEvent())
		flusher.Flush()
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.drop:
			return
		case data := <-s.push:
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.opened()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if !s.silent {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(s.connectedEvent())); err != nil {
			return
		}
	}
	for {
		select {
		case <-gone:
			return
		case <-s.drop:
			return
		case data := <-s.push:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(data)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	s.toolGets.Add(1)
	list := s.order
	if list == nil {
		list = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": list})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.posts.Add(1)
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.received = append(s.received, msg)
	s.mu.Unlock()

	fn, ok := s.tools[msg.Content.Name]
	if !ok {
		if s.unknownReply != nil {
			writeJSON(w, http.StatusOK, s.unknownReply)
			return
		}
		http.Error(w, fmt.Sprintf("unknown tool %q", msg.Content.Name), http.StatusNotFound)
		return
	}
	event := resultEvent(msg.ID, fn, msg.Content.Parameters, s.unwrapped)

	if s.immediate {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(event)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "accepted"})
	go func() {
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		s.push <- string(event)
	}()
}

// resultEvent runs fn and wraps its output the way tool servers do: the
// result is JSON text inside content.content[0]. With unwrapped set, a map
// result is merged into the event itself.
func resultEvent(id string, fn ToolFunc, params map[string]any, unwrapped bool) []byte {
	out, err := fn(params)
	var ev map[string]any
	fields, isMap := out.(map[string]any)
	switch {
	case err != nil:
		ev = map[string]any{"type": "error", "id": id, "error": map[string]any{"message": err.Error()}}
	case unwrapped && isMap:
		ev = make(map[string]any, len(fields)+2)
		for k, v := range fields {
			ev[k] = v
		}
		ev["type"] = "tool_result"
		ev["id"] = id
	default:
		text, _ := json.Marshal(out)
		ev = map[string]any{
			"type": "tool_result",
			"id":   id,
			"content": map[string]any{
				"content": []any{map[string]any{"type": "text", "text": string(text)}},
			},
		}
	}
	data, _ := json.Marshal(ev)
	return data
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
