// Package tools describes remote tools and fetches their metadata.
package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
)

// Fetcher performs the informational GET requests of the protocol.
type Fetcher struct {
	baseURL string
	client  *http.Client
	headers map[string]string
	logger  func(format string, args ...interface{})
}

// NewFetcher builds a Fetcher rooted at baseURL. A nil client uses
// http.DefaultClient; a nil logger discards output.
func NewFetcher(baseURL string, client *http.Client, headers map[string]string, logger func(format string, args ...interface{})) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = func(format string, args ...interface{}) {}
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		headers: headers,
		logger:  logger,
	}
}

// Tools fetches the descriptor list.
func (f *Fetcher) Tools(ctx context.Context) ([]Descriptor, error) {
	body, err := f.get(ctx, "/tools")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	list, err := DecodeToolsResponse(body)
	if err != nil {
		return nil, err
	}
	f.logger("retrieved %d tools", len(list))
	return list, nil
}

// Info fetches the server name and version.
func (f *Fetcher) Info(ctx context.Context) (ServerInfo, error) {
	body, err := f.get(ctx, "/info")
	if err != nil {
		return ServerInfo{}, err
	}
	defer body.Close()
	var info ServerInfo
	if err := json.NewDecoder(body).Decode(&info); err != nil {
		return ServerInfo{}, fmt.Errorf("decode server info: %w", err)
	}
	return info, nil
}

func (f *Fetcher) get(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	// Fail fast on non-2xx status codes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s error: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

// DecodeToolsResponse decodes {"tools":[...]} from r.
func DecodeToolsResponse(r io.Reader) ([]Descriptor, error) {
	var payload struct {
		Tools []Descriptor `json:"tools"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tools response: %w", err)
	}
	if payload.Tools == nil {
		payload.Tools = []Descriptor{}
	}
	return payload.Tools, nil
}
