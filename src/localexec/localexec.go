// Package localexec implements the file and shell tools in-process, so
// they can be used without a remote server.
//
// Every tool reports failures in-band as {"error": "..."} rather than as a Go
// error, matching what remote servers return.
package localexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/Yaswanth-ampolu/productdemo/src/tools"
)

// ToolFunc runs one tool.
type ToolFunc func(ctx context.Context, params map[string]any) map[string]any

// CommandTimeout bounds runShellCommand.
const CommandTimeout = 30 * time.Second

// Executor dispatches tool names to implementations.
type Executor struct {
	funcs  map[string]ToolFunc
	logger func(format string, args ...interface{})
}

func NewExecutor(logger func(format string, args ...interface{})) *Executor {
	if logger == nil {
		logger = func(format string, args ...interface{}) {}
	}
	e := &Executor{logger: logger}
	e.funcs = map[string]ToolFunc{
		"runShellCommand": e.runShellCommand,
		"readDirectory":   readDirectory,
		"createFile":      createFile,
		"readFile":        readFile,
		"deleteFile":      deleteFile,
	}
	return e
}

// Names lists the available tools in a stable order.
func (e *Executor) Names() []string {
	names := make([]string, 0, len(e.funcs))
	for _, d := range Descriptors() {
		names = append(names, d.Name)
	}
	return names
}

// Execute runs tool with params. Unknown tools produce an error result.
func (e *Executor) Execute(ctx context.Context, tool string, params map[string]any) map[string]any {
	fn, ok := e.funcs[tool]
	if !ok {
		return errResult("Unknown tool: %s. Available tools: %s", tool, strings.Join(e.Names(), ", "))
	}
	if params == nil {
		params = map[string]any{}
	}
	e.logger("executing %s locally", tool)
	return fn(ctx, params)
}

// Descriptors describes the local tools in the same shape as a server's
// /tools listing.
func Descriptors() []tools.Descriptor {
	str := func(desc string, required bool) tools.Parameter {
		return tools.Parameter{Type: "string", Required: required, Description: desc}
	}
	return []tools.Descriptor{
		{
			Name:        "runShellCommand",
			Description: "Execute a shell command",
			Parameters:  map[string]tools.Parameter{"command": str("The command to execute", true)},
		},
		{
			Name:        "readDirectory",
			Description: "List files and directories in a path",
			Parameters:  map[string]tools.Parameter{"dirPath": str("Directory to read (default .)", false)},
		},
		{
			Name:        "createFile",
			Description: "Create a file with the given content",
			Parameters: map[string]tools.Parameter{
				"filePath": str("Path of the file to create", true),
				"content":  str("Content to write", false),
			},
		},
		{
			Name:        "readFile",
			Description: "Read a file, optionally a line range",
			Parameters: map[string]tools.Parameter{
				"filePath":  str("Path of the file to read", true),
				"startLine": {Type: "number", Description: "First line, 0-based inclusive"},
				"endLine":   {Type: "number", Description: "Last line, 0-based inclusive"},
			},
		},
		{
			Name:        "deleteFile",
			Description: "Delete a file",
			Parameters:  map[string]tools.Parameter{"filePath": str("Path of the file to delete", true)},
		},
	}
}

func errResult(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

func (e *Executor) runShellCommand(ctx context.Context, params map[string]any) map[string]any {
	command := cast.ToString(params["command"])
	if command == "" {
		return errResult("No command specified")
	}
	ctx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.logger("command timed out: %s", command)
		}
		return errResult("Error executing command: %v", err)
	}
	return map[string]any{
		"stdout":   stdoutBuf.String(),
		"stderr":   stderrBuf.String(),
		"exitCode": exitCode,
	}
}

func readDirectory(_ context.Context, params map[string]any) map[string]any {
	dir := cast.ToString(params["dirPath"])
	if dir == "" {
		dir = "."
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errResult("Directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return errResult("Path is not a directory: %s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errResult("Error reading directory: %v", err)
	}
	files, dirs := []string{}, []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)
	abs, _ := filepath.Abs(dir)
	return map[string]any{"files": files, "directories": dirs, "path": abs}
}

func createFile(_ context.Context, params map[string]any) map[string]any {
	path := cast.ToString(params["filePath"])
	if path == "" {
		return errResult("No file path specified")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errResult("Error creating file: %v", err)
		}
	}
	if err := os.WriteFile(path, []byte(cast.ToString(params["content"])), 0o644); err != nil {
		return errResult("Error creating file: %v", err)
	}
	abs, _ := filepath.Abs(path)
	return map[string]any{"success": true, "filePath": abs}
}

func readFile(_ context.Context, params map[string]any) map[string]any {
	path := cast.ToString(params["filePath"])
	if path == "" {
		return errResult("No file path specified")
	}
	info, err := os.Stat(path)
	if err != nil {
		return errResult("File does not exist: %s", path)
	}
	if info.IsDir() {
		return errResult("Path is not a file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errResult("Error reading file: %v", err)
	}
	content := string(data)

	_, hasStart := params["startLine"]
	_, hasEnd := params["endLine"]
	if !hasStart && !hasEnd {
		total := strings.Count(content, "\n")
		if content != "" {
			total++
		}
		return map[string]any{"content": content, "startLine": 0, "endLine": total - 1, "totalLines": total}
	}

	lines := strings.SplitAfter(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	total := len(lines)
	start, end := 0, total-1
	if hasStart {
		start = cast.ToInt(params["startLine"])
	}
	if hasEnd {
		end = cast.ToInt(params["endLine"])
	}
	start = max(0, min(start, total-1))
	end = max(start, min(end, total-1))

	var out string
	if total > 0 {
		out = strings.Join(lines[start:end+1], "")
	}
	return map[string]any{"content": out, "startLine": start, "endLine": end, "totalLines": total}
}

func deleteFile(_ context.Context, params map[string]any) map[string]any {
	path := cast.ToString(params["filePath"])
	if path == "" {
		return errResult("No file path specified")
	}
	info, err := os.Stat(path)
	if err != nil {
		return errResult("File does not exist: %s", path)
	}
	if info.IsDir() {
		return errResult("Path is not a file: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return errResult("Error deleting file: %v", err)
	}
	abs, _ := filepath.Abs(path)
	return map[string]any{"success": true, "filePath": abs}
}
