package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherToolsAndInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tools":
			_, _ = w.Write([]byte(`{"tools":[{"name":"readDirectory","description":"List","parameters":{"dirPath":{"type":"string","required":true}}}]}`))
		case "/info":
			_, _ = w.Write([]byte(`{"name":"demo","version":"1.2.3"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var logged []string
	f := NewFetcher(srv.URL+"/", nil, map[string]string{"X-Token": "secret"}, func(format string, args ...interface{}) {
		logged = append(logged, format)
	})

	list, err := f.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "readDirectory", list[0].Name)
	assert.True(t, list[0].Parameters["dirPath"].Required)
	assert.NotEmpty(t, logged)

	info, err := f.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ServerInfo{Name: "demo", Version: "1.2.3"}, info)
}

func TestFetcherNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, nil, nil, nil).Tools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "maintenance")
}

func TestDecodeToolsResponse(t *testing.T) {
	list, err := DecodeToolsResponse(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = DecodeToolsResponse(strings.NewReader(`bad`))
	assert.Error(t, err)
}
