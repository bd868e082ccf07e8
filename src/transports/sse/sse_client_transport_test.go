package sse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceStreamsFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sse", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "id: 1\ndata: {\"type\":\"connected\",\"clientId\":\"abc123\"}\n\n")
		flusher.Flush()
		fmt.Fprint(w, ": ping\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	src := NewSource(srv.URL+"/", "", nil, map[string]string{"Authorization": "tok"}, nil)
	assert.Equal(t, srv.URL+"/sse", src.URL())

	st, err := src.Open(context.Background())
	require.NoError(t, err)
	defer st.Close()

	f, err := st.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"connected","clientId":"abc123"}`, f.Data)
	assert.Equal(t, "1", src.LastEventID())

	f, err = st.Next()
	require.NoError(t, err)
	assert.True(t, f.Comment)

	_, err = st.Next()
	assert.Equal(t, io.EOF, err)
}

func TestSourceSendsLastEventIDOnReopen(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Last-Event-ID"))
		mu.Unlock()
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "id: 42\ndata: {}\n\n")
	}))
	defer srv.Close()

	src := NewSource(srv.URL, "/events", nil, nil, nil)
	for i := 0; i < 2; i++ {
		st, err := src.Open(context.Background())
		require.NoError(t, err)
		_, err = st.Next()
		require.NoError(t, err)
		require.NoError(t, st.Close())
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "42"}, seen)
}

func TestSourceNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no streams", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewSource(srv.URL, "", nil, nil, nil).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "no streams")
}

func TestSourceCancelUnblocksNext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	st, err := NewSource(srv.URL, "", nil, nil, nil).Open(ctx)
	require.NoError(t, err)
	defer st.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := st.Next()
		errCh <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after cancel")
	}
}
