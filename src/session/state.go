// Package session holds the per-connection state shared between the stream
// listener, which writes it, and callers, which read it.
package session

import (
	"sync"

	"github.com/Yaswanth-ampolu/productdemo/src/tools"
)

// State is safe for concurrent use. The zero value is not usable; call New.
type State struct {
	mu        sync.RWMutex
	identity  string
	connected bool
	tools     []tools.Descriptor
	info      *tools.ServerInfo

	// handshake is closed once per connection lifetime, on success or failure.
	handshake     chan struct{}
	handshakeDone bool
	handshakeErr  error
}

// New returns a disconnected state with an open handshake.
func New() *State {
	return &State{handshake: make(chan struct{})}
}

// Identity returns the session identity, or "" before the handshake.
func (s *State) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Connected reports whether a handshake succeeded and the stream is alive.
func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// SetIdentity records the identity assigned by the server and completes the
// handshake. The identity is immutable once set: later calls return false
// and change nothing.
func (s *State) SetIdentity(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != "" {
		return false
	}
	s.identity = id
	s.connected = true
	s.finishHandshakeLocked(nil)
	return true
}

// Fail marks the session as no longer connected and, if the handshake is
// still pending, completes it with err.
func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.finishHandshakeLocked(err)
}

// Handshake returns a channel closed when the handshake completes.
func (s *State) Handshake() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handshake
}

// HandshakeErr returns the failure that completed the handshake, if any.
func (s *State) HandshakeErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handshakeErr
}

func (s *State) finishHandshakeLocked(err error) {
	if s.handshakeDone {
		return
	}
	s.handshakeDone = true
	s.handshakeErr = err
	close(s.handshake)
}

// Reset clears identity, connection flag and caches and arms a fresh
// handshake for the next connection.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = ""
	s.connected = false
	s.tools = nil
	s.info = nil
	s.handshake = make(chan struct{})
	s.handshakeDone = false
	s.handshakeErr = nil
}

// Tools returns the cached descriptors and whether the cache is populated.
func (s *State) Tools() ([]tools.Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tools == nil {
		return nil, false
	}
	return cloneTools(s.tools), true
}

// SetTools populates the descriptor cache.
func (s *State) SetTools(list []tools.Descriptor) {
	list = cloneTools(list)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = list
}

// cloneTools copies list deeply enough that the cache never aliases a
// caller's parameter maps. A nil list becomes an empty one.
func cloneTools(list []tools.Descriptor) []tools.Descriptor {
	out := make([]tools.Descriptor, len(list))
	for i, d := range list {
		out[i] = d.Clone()
	}
	return out
}

// ClearTools invalidates the descriptor cache.
func (s *State) ClearTools() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = nil
}

// Info returns the cached server info, if fetched.
func (s *State) Info() (tools.ServerInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return tools.ServerInfo{}, false
	}
	return *s.info, true
}

// SetInfo caches the server info.
func (s *State) SetInfo(info tools.ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = &info
}
