// Package dispatch submits tool invocations over the request channel.
//
// The submission is a plain HTTP POST whose response is only a transport
// acknowledgment. The actual result normally arrives later on the event
// stream, but some servers answer inline; Ack.Result tells the two apart.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
	"github.com/Yaswanth-ampolu/productdemo/src/mcperr"
)

const messageType = "invoke_tool"

// Invocation is one tool call to submit.
type Invocation struct {
	ID         string
	Tool       string
	Parameters map[string]any
	ClientID   string
}

type content struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

type message struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Content  content `json:"content"`
	ClientID string  `json:"clientId"`
}

// Dispatcher posts invocations to {base}/messages.
type Dispatcher struct {
	url     string
	client  *http.Client
	headers map[string]string
	logger  func(format string, args ...interface{})
}

// New builds a Dispatcher. A nil client uses http.DefaultClient.
func New(baseURL string, client *http.Client, headers map[string]string, logger func(format string, args ...interface{})) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = func(format string, args ...interface{}) {}
	}
	return &Dispatcher{
		url:     strings.TrimRight(baseURL, "/") + "/messages",
		client:  client,
		headers: headers,
		logger:  logger,
	}
}

// Send submits inv and returns the acknowledgment. The caller must already
// have registered inv.ID for correlation; Send never touches the table.
func (d *Dispatcher) Send(ctx context.Context, inv Invocation) (Ack, error) {
	switch {
	case inv.ID == "":
		return Ack{}, mcperr.Newf(mcperr.KindTransportError, "", inv.Tool, "empty request identifier")
	case inv.Tool == "":
		return Ack{}, mcperr.Newf(mcperr.KindTransportError, inv.ID, "", "empty tool name")
	case inv.ClientID == "":
		return Ack{}, mcperr.Newf(mcperr.KindNotConnected, inv.ID, inv.Tool, "no session identity")
	}
	params := inv.Parameters
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(message{
		ID:       inv.ID,
		Type:     messageType,
		Content:  content{Name: inv.Tool, Parameters: params},
		ClientID: inv.ClientID,
	})
	if err != nil {
		return Ack{}, mcperr.New(mcperr.KindTransportError, inv.ID, inv.Tool, fmt.Errorf("encode invocation: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(data))
	if err != nil {
		return Ack{}, mcperr.New(mcperr.KindTransportError, inv.ID, inv.Tool, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}

	d.logger("invoking tool %s (id %s)", inv.Tool, inv.ID)
	resp, err := d.client.Do(req)
	if err != nil {
		return Ack{}, mcperr.New(mcperr.KindTransportError, inv.ID, inv.Tool, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Ack{}, mcperr.New(mcperr.KindTransportError, inv.ID, inv.Tool, fmt.Errorf("read acknowledgment: %w", err))
	}

	// Fail fast on non-2xx status codes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Ack{}, mcperr.Newf(mcperr.KindTransportError, inv.ID, inv.Tool, "%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	ack := Ack{ID: inv.ID, Status: resp.StatusCode}
	if ack.Body, err = json.DecodeObject(body); err != nil {
		// a non-JSON 2xx body is still a valid acknowledgment
		d.logger("acknowledgment for %s is not a JSON object: %v", inv.ID, err)
		ack.Body = map[string]any{"text": string(body)}
	}
	return ack, nil
}
