// Package websocket opens the server-pushed event stream over a WebSocket.
// Each text message carries the JSON data of one event.
package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Yaswanth-ampolu/productdemo/src/events"
	"github.com/Yaswanth-ampolu/productdemo/src/transports"
)

// DefaultPath is the WebSocket endpoint relative to the server base URL.
const DefaultPath = "/ws"

// Source dials the WebSocket endpoint.
type Source struct {
	url     string
	dialer  *websocket.Dialer
	headers map[string]string
	logger  func(format string, args ...interface{})
}

// NewSource builds a Source for baseURL, which may use an http(s) or ws(s)
// scheme.
func NewSource(baseURL, path string, headers map[string]string, logger func(format string, args ...interface{})) (*Source, error) {
	if logger == nil {
		logger = func(format string, args ...interface{}) {}
	}
	if path == "" {
		path = DefaultPath
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, errors.New("websocket source requires an http, https, ws or wss URL")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return &Source{
		url:     u.String(),
		dialer:  &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		headers: headers,
		logger:  logger,
	}, nil
}

// URL returns the stream endpoint.
func (s *Source) URL() string { return s.url }

// Open dials the endpoint. Cancelling ctx closes the connection.
func (s *Source) Open(ctx context.Context) (transports.EventStream, error) {
	hdr := http.Header{}
	for k, v := range s.headers {
		hdr.Set(k, v)
	}
	s.logger("connecting to websocket endpoint: %s", s.url)
	conn, _, err := s.dialer.DialContext(ctx, s.url, hdr)
	if err != nil {
		return nil, err
	}
	st := &stream{conn: conn, stop: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-st.stop:
		}
	}()
	return st, nil
}

type stream struct {
	conn *websocket.Conn
	stop chan struct{}
	once sync.Once
}

func (st *stream) Next() (events.Frame, error) {
	for {
		kind, msg, err := st.conn.ReadMessage()
		if err != nil {
			return events.Frame{}, err
		}
		if kind != websocket.TextMessage {
			continue
		}
		if len(strings.TrimSpace(string(msg))) == 0 {
			// empty text message is a keep-alive
			return events.Frame{Comment: true}, nil
		}
		return events.Frame{Data: string(msg)}, nil
	}
}

func (st *stream) Close() error {
	var err error
	st.once.Do(func() {
		close(st.stop)
		_ = st.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = st.conn.Close()
	})
	return err
}
