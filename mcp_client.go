// Package mcpclient is a client for tool servers that push results over a
// long-lived event stream and accept invocations as separate POST requests.
//
// A Client owns one session at a time: Connect opens the stream and waits
// for the server to assign an identity, Invoke submits a call and waits for
// the event carrying its identifier, Disconnect tears the session down.
package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Yaswanth-ampolu/productdemo/src/correlation"
	"github.com/Yaswanth-ampolu/productdemo/src/dispatch"
	"github.com/Yaswanth-ampolu/productdemo/src/listener"
	"github.com/Yaswanth-ampolu/productdemo/src/mcperr"
	"github.com/Yaswanth-ampolu/productdemo/src/observe"
	"github.com/Yaswanth-ampolu/productdemo/src/session"
	"github.com/Yaswanth-ampolu/productdemo/src/tools"
	"github.com/Yaswanth-ampolu/productdemo/src/transports"
	"github.com/Yaswanth-ampolu/productdemo/src/transports/sse"
	"github.com/Yaswanth-ampolu/productdemo/src/transports/websocket"
)

// State is the facade's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ClientInterface is the public API.
type ClientInterface interface {
	Connect(ctx context.Context, timeout time.Duration) (string, error)
	Tools(ctx context.Context) ([]tools.Descriptor, error)
	ServerInfo(ctx context.Context) (tools.ServerInfo, error)
	Invoke(ctx context.Context, tool string, params map[string]any, timeout time.Duration) (any, error)
	Disconnect()
}

// Call is one entry of an InvokeBatch.
type Call struct {
	Tool   string
	Params map[string]any
}

// CallResult pairs a batch entry with its outcome.
type CallResult struct {
	Call   Call
	Result any
	Err    error
}

// Stats is a snapshot of session counters.
type Stats struct {
	Pending   int
	Discarded uint64
	Listener  listener.Stats
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the debug logger used by the client and its components.
func WithLogger(logger func(format string, args ...interface{})) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient sets the client used for submissions and metadata requests.
// The event stream uses its own client without a global timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records client instruments on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithIDGenerator replaces the msg-<uuid> request identifier generator.
func WithIDGenerator(gen func() string) Option {
	return func(c *Client) { c.newID = gen }
}

// WithEventSource replaces the configured SSE or WebSocket source.
func WithEventSource(src transports.EventSource) Option {
	return func(c *Client) { c.source = src }
}

// NewRequestID returns a fresh "msg-<uuid>" identifier.
func NewRequestID() string {
	return "msg-" + uuid.NewString()
}

// Client implements ClientInterface.
type Client struct {
	config     *ClientConfig
	logger     func(format string, args ...interface{})
	httpClient *http.Client
	metrics    *observe.Metrics
	newID      func() string

	source     transports.EventSource
	dispatcher *dispatch.Dispatcher
	fetcher    *tools.Fetcher
	table      *correlation.Table
	session    *session.State

	mu       sync.Mutex
	state    State
	listener *listener.Listener
	cancel   context.CancelFunc
	lost     error
}

var _ ClientInterface = (*Client)(nil)

// NewClient validates cfg and builds a disconnected client.
func NewClient(cfg *ClientConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = NewClientConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config:  cfg,
		session: session.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = func(format string, args ...interface{}) {}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.metrics == nil {
		c.metrics = observe.Noop()
	}
	if c.newID == nil {
		c.newID = NewRequestID
	}
	if c.source == nil {
		src, err := newEventSource(cfg, c.logger)
		if err != nil {
			return nil, err
		}
		c.source = src
	}
	c.table = correlation.NewTable(func(id string) {
		c.metrics.DiscardedResults.Add(context.Background(), 1)
		c.logger("discarded result for unknown or expired request %s", id)
	})
	c.dispatcher = dispatch.New(cfg.ServerURL, c.httpClient, cfg.Headers, c.logger)
	c.fetcher = tools.NewFetcher(cfg.ServerURL, c.httpClient, cfg.Headers, c.logger)
	return c, nil
}

func newEventSource(cfg *ClientConfig, logger func(format string, args ...interface{})) (transports.EventSource, error) {
	switch cfg.EventTransport {
	case TransportWebSocket:
		return websocket.NewSource(cfg.ServerURL, cfg.EventPath, cfg.Headers, logger)
	default:
		return sse.NewSource(cfg.ServerURL, cfg.EventPath, nil, cfg.Headers, logger), nil
	}
}

// Config returns the client's configuration.
func (c *Client) Config() *ClientConfig { return c.config }

// State reports the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the identity assigned by the server, or "".
func (c *Client) SessionID() string {
	return c.session.Identity()
}

// Stats returns session counters. Discarded counts results that arrived for
// requests no longer waiting, including late results after a timeout.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	st := Stats{Pending: c.table.Len(), Discarded: c.table.Discarded()}
	if l != nil {
		st.Listener = l.Stats()
	}
	return st
}

// Connect opens the event stream and blocks until the server assigns a
// session identity or timeout elapses. A non-positive timeout uses the
// configured default. Connecting an already connected client returns the
// existing identity; a concurrent Connect waits on the same handshake.
func (c *Client) Connect(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.config.ConnectTimeout
	}

	c.mu.Lock()
	for c.state != StateDisconnected {
		if c.state == StateConnecting {
			l := c.listener
			hs := c.session.Handshake()
			c.mu.Unlock()
			return c.awaitHandshake(ctx, l, hs, timeout, false)
		}
		if c.alive(c.listener) {
			id := c.session.Identity()
			c.mu.Unlock()
			return id, nil
		}
		// the stream died but watch has not caught up yet
		stale := c.listener
		c.stopLocked()
		c.mu.Unlock()
		c.waitListener(stale)
		c.mu.Lock()
	}

	c.session.Reset()
	c.lost = nil
	lctx, cancel := context.WithCancel(context.Background())
	l := listener.New(c.source, c.table, c.session, c.metrics, c.logger)
	c.listener = l
	c.cancel = cancel
	c.state = StateConnecting
	hs := c.session.Handshake()
	c.mu.Unlock()

	c.logger("connecting to %s", c.config.ServerURL)
	go l.Run(lctx)
	go c.watch(l)
	return c.awaitHandshake(ctx, l, hs, timeout, true)
}

// alive reports whether l is running. Callers hold c.mu.
func (c *Client) alive(l *listener.Listener) bool {
	if l == nil {
		return false
	}
	select {
	case <-l.Done():
		return false
	default:
		return c.session.Connected()
	}
}

func (c *Client) awaitHandshake(ctx context.Context, l *listener.Listener, hs <-chan struct{}, timeout time.Duration, owner bool) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-hs:
		if err := c.session.HandshakeErr(); err != nil {
			if owner {
				c.abort(l)
			}
			return "", mcperr.New(mcperr.KindConnectionTimeout, "", "", err)
		}
		c.mu.Lock()
		if c.listener == l && c.state == StateConnecting {
			c.state = StateConnected
		}
		c.mu.Unlock()
		id := c.session.Identity()
		c.logger("connected with session identity %s", id)
		return id, nil
	case <-timer.C:
		if owner {
			c.abort(l)
		}
		return "", mcperr.Newf(mcperr.KindConnectionTimeout, "", "", "no connected event within %s", timeout)
	case <-ctx.Done():
		if owner {
			c.abort(l)
		}
		return "", mcperr.New(mcperr.KindConnectionTimeout, "", "", ctx.Err())
	}
}

// watch moves the facade to disconnected when l exits on its own.
func (c *Client) watch(l *listener.Listener) {
	<-l.Done()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener != l {
		return
	}
	if err := l.Err(); err != nil {
		c.lost = err
		c.logger("session ended: %v", err)
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.listener = nil
	c.cancel = nil
	c.state = StateDisconnected
}

// abort stops l if it is still the active listener.
func (c *Client) abort(l *listener.Listener) {
	c.mu.Lock()
	if c.listener != l {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.mu.Unlock()
	c.waitListener(l)
}

// stopLocked cancels the active listener and clears the session. Callers
// hold c.mu.
func (c *Client) stopLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.listener = nil
	c.cancel = nil
	c.state = StateDisconnected
}

// waitListener waits up to DisconnectWait for a cancelled listener to exit.
// A listener that outlives the wait is detached and its waiters are released
// here, so it cannot touch the session or table of a later connection.
func (c *Client) waitListener(l *listener.Listener) {
	if l == nil {
		return
	}
	wait := c.config.DisconnectWait
	if wait <= 0 {
		wait = time.Second
	}
	select {
	case <-l.Done():
	case <-time.After(wait):
		c.logger("listener did not stop within %s; detaching it", wait)
		l.Detach()
		lost := mcperr.Newf(mcperr.KindConnectionLost, "", "", "session disconnected")
		c.session.Fail(lost)
		if n := c.table.FailAll(lost); n > 0 {
			c.logger("failed %d pending requests: %v", n, lost)
		}
	}
}

// Disconnect stops the listener, waits briefly for it to exit and clears the
// session. It is safe to call at any time and more than once.
func (c *Client) Disconnect() {
	c.mu.Lock()
	l := c.listener
	c.stopLocked()
	c.lost = nil
	c.mu.Unlock()

	if l != nil {
		c.logger("disconnecting session %s", c.session.Identity())
	}
	c.waitListener(l)
	c.session.Reset()
}

// checkConnected fails fast unless the session is usable.
func (c *Client) checkConnected(tool string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnected && c.alive(c.listener) {
		return nil
	}
	if c.lost != nil {
		return mcperr.WithCall(c.lost, "", tool)
	}
	return mcperr.Newf(mcperr.KindNotConnected, "", tool, "client is %s; call Connect first", c.state)
}

// Tools returns the server's tool descriptors, fetching them once per
// session and serving later calls from the cache.
func (c *Client) Tools(ctx context.Context) ([]tools.Descriptor, error) {
	if err := c.checkConnected(""); err != nil {
		return nil, err
	}
	if list, ok := c.session.Tools(); ok {
		return list, nil
	}
	list, err := c.fetcher.Tools(ctx)
	if err != nil {
		return nil, err
	}
	c.session.SetTools(list)
	out, _ := c.session.Tools()
	return out, nil
}

// ClearToolCache drops cached descriptors so the next Tools call refetches.
func (c *Client) ClearToolCache() {
	c.session.ClearTools()
}

// ServerInfo returns the server's name and version, cached per session.
func (c *Client) ServerInfo(ctx context.Context) (tools.ServerInfo, error) {
	if err := c.checkConnected(""); err != nil {
		return tools.ServerInfo{}, err
	}
	if info, ok := c.session.Info(); ok {
		return info, nil
	}
	info, err := c.fetcher.Info(ctx)
	if err != nil {
		return tools.ServerInfo{}, err
	}
	c.session.SetInfo(info)
	return info, nil
}

// Invoke calls tool with params and waits up to timeout for its result. A
// non-positive timeout uses the configured default.
func (c *Client) Invoke(ctx context.Context, tool string, params map[string]any, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = c.config.InvokeTimeout
	}
	if err := c.checkConnected(tool); err != nil {
		return nil, err
	}
	clientID := c.session.Identity()
	if clientID == "" {
		return nil, mcperr.Newf(mcperr.KindNotConnected, "", tool, "no session identity")
	}

	id := c.newID()
	// register before dispatch so a fast result cannot arrive unmatched
	pending, err := c.table.Register(id)
	if err != nil {
		return nil, mcperr.WithCall(err, id, tool)
	}
	c.metrics.PendingRequests.Add(ctx, 1)
	defer c.metrics.PendingRequests.Add(ctx, -1)

	start := time.Now()
	res, err := c.await(ctx, pending, dispatch.Invocation{
		ID:         id,
		Tool:       tool,
		Parameters: params,
		ClientID:   clientID,
	}, timeout)
	c.metrics.RecordInvocation(ctx, tool, status(err), time.Since(start))
	if err != nil {
		c.logger("invoke %s (id %s) failed: %v", tool, id, err)
		return nil, err
	}
	return res, nil
}

func (c *Client) await(ctx context.Context, pending *correlation.Pending, inv dispatch.Invocation, timeout time.Duration) (any, error) {
	id, tool := inv.ID, inv.Tool
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ack, err := c.dispatcher.Send(callCtx, inv)
	if err != nil {
		c.table.Take(id)
		return nil, err
	}

	if c.config.Variant != VariantStream {
		if payload, ok := ack.Result(); ok {
			c.table.Take(id)
			if ack.Failed() {
				return nil, mcperr.Remote(id, tool, payload)
			}
			return c.deliver(payload), nil
		}
		if c.config.Variant == VariantImmediate {
			c.table.Take(id)
			return nil, mcperr.Newf(mcperr.KindTransportError, id, tool, "acknowledgment carried no result")
		}
	}

	select {
	case <-pending.Done():
		res, _ := c.table.Take(id)
		if res.Err != nil {
			return nil, mcperr.WithCall(res.Err, id, tool)
		}
		return c.deliver(res.Payload), nil
	case <-callCtx.Done():
		// a result resolved between the deadline and Take is still ours
		if res, ok := c.table.Take(id); ok {
			if res.Err != nil {
				return nil, mcperr.WithCall(res.Err, id, tool)
			}
			return c.deliver(res.Payload), nil
		}
		if ctx.Err() != nil {
			return nil, mcperr.New(mcperr.KindResultTimeout, id, tool, ctx.Err())
		}
		return nil, mcperr.Newf(mcperr.KindResultTimeout, id, tool, "no result within %s", timeout)
	}
}

func (c *Client) deliver(payload any) any {
	if c.config.RawResults {
		return payload
	}
	return tools.ExtractResult(payload)
}

func status(err error) string {
	if err == nil {
		return "ok"
	}
	if k := mcperr.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

// InvokeBatch runs calls concurrently on the current session. Each result
// carries its own error; the returned error is non-nil only when ctx ends
// before every call has finished.
func (c *Client) InvokeBatch(ctx context.Context, calls []Call, timeout time.Duration) ([]CallResult, error) {
	results := make([]CallResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			out, err := c.Invoke(gctx, call.Tool, call.Params, timeout)
			results[i] = CallResult{Call: call, Result: out, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch interrupted: %w", err)
	}
	return results, nil
}

// IsTimeout reports whether err is a connection or result timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, mcperr.ErrResultTimeout) || errors.Is(err, mcperr.ErrConnectionTimeout)
}
