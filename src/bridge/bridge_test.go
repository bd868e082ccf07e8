package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	mcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yaswanth-ampolu/productdemo/src/tools"
)

type fakeInvoker struct {
	list    []tools.Descriptor
	listErr error
	result  any
	err     error

	gotTool   string
	gotParams map[string]any
}

func (f *fakeInvoker) Tools(context.Context) ([]tools.Descriptor, error) { return f.list, f.listErr }

func (f *fakeInvoker) Invoke(_ context.Context, tool string, params map[string]any, _ time.Duration) (any, error) {
	f.gotTool, f.gotParams = tool, params
	return f.result, f.err
}

var readFileDescriptor = tools.Descriptor{
	Name:        "readFile",
	Description: "Read a file",
	Parameters: map[string]tools.Parameter{
		"filePath":  {Type: "string", Required: true, Description: "Path to read"},
		"startLine": {Type: "integer"},
		"verbose":   {Type: "boolean"},
	},
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return tc.Text
}

func TestToolForMapsParameters(t *testing.T) {
	tool := ToolFor(readFileDescriptor)
	assert.Equal(t, "readFile", tool.Name)
	assert.Equal(t, "Read a file", tool.Description)
	assert.Equal(t, []string{"filePath"}, tool.InputSchema.Required)
	require.Contains(t, tool.InputSchema.Properties, "startLine")
	start := tool.InputSchema.Properties["startLine"].(map[string]any)
	assert.Equal(t, "number", start["type"])
	path := tool.InputSchema.Properties["filePath"].(map[string]any)
	assert.Equal(t, "Path to read", path["description"])
}

func TestNewRegistersEveryRemoteTool(t *testing.T) {
	inv := &fakeInvoker{list: []tools.Descriptor{readFileDescriptor, {Name: "readDirectory"}}}
	b, err := New(context.Background(), inv, "bridge", "test", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"readFile", "readDirectory"}, b.ToolNames())
	assert.NotNil(t, b.Server())
}

func TestNewFailsWhenListingFails(t *testing.T) {
	_, err := New(context.Background(), &fakeInvoker{listErr: errors.New("offline")}, "bridge", "test", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}

func TestHandlerForwardsCoercedArguments(t *testing.T) {
	inv := &fakeInvoker{result: map[string]any{"content": "hello"}}
	b, err := New(context.Background(), inv, "bridge", "test", time.Second, nil)
	require.NoError(t, err)

	res, err := b.Handler(readFileDescriptor)(context.Background(), callRequest("readFile", map[string]any{
		"filePath":  "a.txt",
		"startLine": "3",
		"verbose":   "true",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"content":"hello"}`, textOf(t, res))

	assert.Equal(t, "readFile", inv.gotTool)
	assert.Equal(t, map[string]any{"filePath": "a.txt", "startLine": int64(3), "verbose": true}, inv.gotParams)
}

func TestHandlerReportsFailuresAsToolErrors(t *testing.T) {
	cases := []struct {
		name string
		inv  *fakeInvoker
		args map[string]any
		want string
	}{
		{"missing required", &fakeInvoker{}, map[string]any{}, "missing required parameters: filePath"},
		{"bad type", &fakeInvoker{}, map[string]any{"filePath": "a", "startLine": "x"}, `parameter "startLine"`},
		{"invoke error", &fakeInvoker{err: errors.New("result_timeout")}, map[string]any{"filePath": "a"}, "result_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := New(context.Background(), tc.inv, "bridge", "test", time.Second, nil)
			require.NoError(t, err)
			res, err := b.Handler(readFileDescriptor)(context.Background(), callRequest("readFile", tc.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, textOf(t, res), tc.want)
		})
	}
}

func TestHandlerPassesStringResultsThrough(t *testing.T) {
	inv := &fakeInvoker{result: "plain text"}
	b, err := New(context.Background(), inv, "bridge", "test", time.Second, nil)
	require.NoError(t, err)
	res, err := b.Handler(tools.Descriptor{Name: "echo"})(context.Background(), callRequest("echo", nil))
	require.NoError(t, err)
	assert.Equal(t, "plain text", textOf(t, res))
}
