// Package transports defines how the client obtains its inbound event
// stream. Concrete sources live in sub-packages (sse, websocket).
package transports

import (
	"context"
	"io"

	"github.com/Yaswanth-ampolu/productdemo/src/events"
)

// EventStream yields raw frames from one open connection.
type EventStream interface {
	// Next blocks until the next frame arrives. It returns an error when the
	// connection ends, including io.EOF for a clean close by the server.
	Next() (events.Frame, error)
	Close() error
}

// EventSource opens event streams. Cancelling ctx must unblock a pending
// Next on the returned stream.
type EventSource interface {
	Open(ctx context.Context) (EventStream, error)
}

// SliceStream replays a fixed list of frames and then returns io.EOF, or
// the configured terminal error.
type SliceStream struct {
	frames  []events.Frame
	index   int
	err     error
	closeFn func() error
}

// NewSliceStream constructs a SliceStream. err, if non-nil, is returned
// after the frames are exhausted instead of io.EOF.
func NewSliceStream(frames []events.Frame, err error, closeFn func() error) *SliceStream {
	return &SliceStream{frames: frames, err: err, closeFn: closeFn}
}

func (s *SliceStream) Next() (events.Frame, error) {
	if s.index >= len(s.frames) {
		if s.err != nil {
			return events.Frame{}, s.err
		}
		return events.Frame{}, io.EOF
	}
	f := s.frames[s.index]
	s.index++
	return f, nil
}

func (s *SliceStream) Close() error {
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

// ChannelStream adapts a channel of frames into an EventStream. Closing the
// channel ends the stream with io.EOF; cancelling ctx ends it with ctx.Err().
type ChannelStream struct {
	ctx     context.Context
	ch      <-chan events.Frame
	closeFn func() error
}

// NewChannelStream constructs a ChannelStream bound to ctx.
func NewChannelStream(ctx context.Context, ch <-chan events.Frame, closeFn func() error) *ChannelStream {
	return &ChannelStream{ctx: ctx, ch: ch, closeFn: closeFn}
}

func (s *ChannelStream) Next() (events.Frame, error) {
	select {
	case <-s.ctx.Done():
		return events.Frame{}, s.ctx.Err()
	case f, ok := <-s.ch:
		if !ok {
			return events.Frame{}, io.EOF
		}
		return f, nil
	}
}

func (s *ChannelStream) Close() error {
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

// SourceFunc adapts a function to EventSource.
type SourceFunc func(ctx context.Context) (EventStream, error)

func (f SourceFunc) Open(ctx context.Context) (EventStream, error) { return f(ctx) }
