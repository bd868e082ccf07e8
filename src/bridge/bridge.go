// Package bridge republishes a remote tool server's tools as a local MCP
// server, so stdio MCP hosts can call them.
package bridge

import (
	"context"
	"fmt"
	"time"

	mcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
	"github.com/Yaswanth-ampolu/productdemo/src/tools"
)

// Invoker is the part of the client the bridge needs.
type Invoker interface {
	Tools(ctx context.Context) ([]tools.Descriptor, error)
	Invoke(ctx context.Context, tool string, params map[string]any, timeout time.Duration) (any, error)
}

// Bridge owns an MCP server whose tools forward to an Invoker.
type Bridge struct {
	client  Invoker
	timeout time.Duration
	logger  func(format string, args ...interface{})
	server  *mcpserver.MCPServer
	names   []string
}

// New fetches the remote descriptors and registers one MCP tool per
// descriptor. A non-positive timeout uses the client's default.
func New(ctx context.Context, client Invoker, name, version string, timeout time.Duration, logger func(format string, args ...interface{})) (*Bridge, error) {
	if logger == nil {
		logger = func(format string, args ...interface{}) {}
	}
	list, err := client.Tools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote tools: %w", err)
	}
	b := &Bridge{
		client:  client,
		timeout: timeout,
		logger:  logger,
		server: mcpserver.NewMCPServer(name, version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
	}
	for _, d := range list {
		b.server.AddTool(ToolFor(d), b.Handler(d))
		b.names = append(b.names, d.Name)
		logger("bridged tool %s", d.Name)
	}
	return b, nil
}

// Server returns the underlying MCP server.
func (b *Bridge) Server() *mcpserver.MCPServer { return b.server }

// ToolNames lists the bridged tools in registration order.
func (b *Bridge) ToolNames() []string { return append([]string(nil), b.names...) }

// ServeStdio serves MCP over stdin/stdout until the input closes.
func (b *Bridge) ServeStdio() error {
	return mcpserver.ServeStdio(b.server)
}

// ToolFor converts a descriptor into an MCP tool definition.
func ToolFor(d tools.Descriptor) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	for _, name := range d.ParameterNames() {
		p := d.Parameters[name]
		var props []mcp.PropertyOption
		if p.Required {
			props = append(props, mcp.Required())
		}
		if p.Description != "" {
			props = append(props, mcp.Description(p.Description))
		}
		switch p.Type {
		case "number", "integer":
			opts = append(opts, mcp.WithNumber(name, props...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(name, props...))
		case "object":
			opts = append(opts, mcp.WithObject(name, props...))
		case "array":
			opts = append(opts, mcp.WithArray(name, props...))
		default:
			opts = append(opts, mcp.WithString(name, props...))
		}
	}
	return mcp.NewTool(d.Name, opts...)
}

// Handler returns the MCP handler forwarding calls for d. Failures are
// reported as tool errors, not protocol errors.
func (b *Bridge) Handler(d tools.Descriptor) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := Coerce(d, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := d.Validate(args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := b.client.Invoke(ctx, d.Name, args, b.timeout)
		if err != nil {
			b.logger("bridged call %s failed: %v", d.Name, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if s, ok := out.(string); ok {
			return mcp.NewToolResultText(s), nil
		}
		text, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}

// Coerce converts arguments to the declared parameter types. Undeclared
// arguments pass through unchanged.
func Coerce(d tools.Descriptor, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		p, ok := d.Parameters[k]
		if !ok || v == nil {
			out[k] = v
			continue
		}
		var err error
		switch p.Type {
		case "string":
			out[k], err = cast.ToStringE(v)
		case "number":
			out[k], err = cast.ToFloat64E(v)
		case "integer":
			out[k], err = cast.ToInt64E(v)
		case "boolean":
			out[k], err = cast.ToBoolE(v)
		default:
			out[k] = v
		}
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
	}
	return out, nil
}
