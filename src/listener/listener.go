// Package listener runs the background loop that reads the event stream and
// routes each event to session state or to the correlation table.
//
// The loop never waits on callers: resolving a request is a single table
// operation, and session updates are short critical sections.
package listener

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/Yaswanth-ampolu/productdemo/src/correlation"
	"github.com/Yaswanth-ampolu/productdemo/src/events"
	"github.com/Yaswanth-ampolu/productdemo/src/mcperr"
	"github.com/Yaswanth-ampolu/productdemo/src/observe"
	"github.com/Yaswanth-ampolu/productdemo/src/session"
	"github.com/Yaswanth-ampolu/productdemo/src/transports"
)

// Stats is a snapshot of listener counters.
type Stats struct {
	Events    uint64
	Delivered uint64
	Malformed uint64
	Ignored   uint64
}

// Listener consumes one event stream for the lifetime of a session.
type Listener struct {
	source  transports.EventSource
	table   *correlation.Table
	state   *session.State
	metrics *observe.Metrics
	logger  func(format string, args ...interface{})

	done chan struct{}
	mu   sync.Mutex
	err  error

	// gate serialises routing against Detach.
	gate     sync.Mutex
	detached bool

	events    atomic.Uint64
	delivered atomic.Uint64
	malformed atomic.Uint64
	ignored   atomic.Uint64
}

// New wires a listener. metrics and logger may be nil.
func New(source transports.EventSource, table *correlation.Table, state *session.State, metrics *observe.Metrics, logger func(format string, args ...interface{})) *Listener {
	if metrics == nil {
		metrics = observe.Noop()
	}
	if logger == nil {
		logger = func(format string, args ...interface{}) {}
	}
	return &Listener{
		source:  source,
		table:   table,
		state:   state,
		metrics: metrics,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Done is closed when Run returns.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Err returns the error that ended the loop, or nil if it was stopped via
// its context or has not finished.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Detach cuts the listener off from the table and session it was built
// with. Once Detach returns, no later event or stream failure from this
// listener resolves a request or changes session state.
func (l *Listener) Detach() {
	l.gate.Lock()
	l.detached = true
	l.gate.Unlock()
}

// Stats returns the current counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Events:    l.events.Load(),
		Delivered: l.delivered.Load(),
		Malformed: l.malformed.Load(),
		Ignored:   l.ignored.Load(),
	}
}

// Run opens the stream and processes events until the stream ends or ctx is
// cancelled. Run must be called at most once.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.done)

	stream, err := l.source.Open(ctx)
	if err != nil {
		return l.finish(ctx, err)
	}
	defer stream.Close()

	for {
		frame, err := stream.Next()
		if err != nil {
			return l.finish(ctx, err)
		}
		ev, err := events.Parse(frame)
		if err != nil {
			l.malformed.Add(1)
			l.metrics.MalformedEvents.Add(ctx, 1)
			l.logger("received undecodable event: %v", err)
			continue
		}
		l.events.Add(1)
		l.metrics.RecordEvent(ctx, string(ev.Kind))
		if stop := l.handle(ev); stop != nil {
			return l.finish(ctx, stop)
		}
	}
}

// handle dispatches one event and returns a non-nil error if the event
// terminates the session.
func (l *Listener) handle(ev events.Event) error {
	l.gate.Lock()
	defer l.gate.Unlock()
	if l.detached {
		l.ignored.Add(1)
		return nil
	}
	switch ev.Kind {
	case events.KindConnected:
		if l.state.SetIdentity(ev.ClientID) {
			l.logger("connected with client ID: %s", ev.ClientID)
		} else {
			l.ignored.Add(1)
			l.logger("ignoring repeated connected event (client ID %s)", ev.ClientID)
		}
	case events.KindToolResult:
		l.logger("received tool result for message: %s", ev.ID)
		if l.table.Resolve(ev.ID, correlation.Result{Payload: ev.Payload()}) {
			l.delivered.Add(1)
		}
	case events.KindError:
		l.logger("received error for message: %s", ev.ID)
		if l.table.Resolve(ev.ID, correlation.Result{Err: remoteError(ev)}) {
			l.delivered.Add(1)
		}
	case events.KindPing:
	case events.KindClosed:
		return errors.New("server closed the event stream")
	default:
		l.ignored.Add(1)
		l.logger("ignoring event of kind %q", ev.Kind)
	}
	return nil
}

// finish records why the loop ended and releases everyone waiting on the
// session: a pending handshake and all pending requests.
func (l *Listener) finish(ctx context.Context, cause error) error {
	var lost *mcperr.Error
	stopped := ctx.Err() != nil
	switch {
	case stopped:
		lost = mcperr.Newf(mcperr.KindConnectionLost, "", "", "session disconnected")
	case errors.Is(cause, io.EOF):
		lost = mcperr.Newf(mcperr.KindConnectionLost, "", "", "event stream ended")
	default:
		lost = mcperr.New(mcperr.KindConnectionLost, "", "", cause)
	}

	l.gate.Lock()
	if !l.detached {
		l.state.Fail(lost)
		if n := l.table.FailAll(lost); n > 0 {
			l.logger("failed %d pending requests: %v", n, lost)
		}
	}
	l.gate.Unlock()
	if stopped {
		return nil
	}
	l.logger("event stream error: %v", lost)
	l.mu.Lock()
	l.err = lost
	l.mu.Unlock()
	return lost
}

func remoteError(ev events.Event) error {
	return mcperr.Remote(ev.ID, "", ev.Payload())
}
