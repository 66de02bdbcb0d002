// Package main runs a one-off MCP client: spawns the mssql-mcp server, calls
// one tool with optional JSON arguments, and prints the result. Run from repo root:
//
//	go run ./cmd/mcpclient -list                      # list tools
//	go run ./cmd/mcpclient <tool_name>                # no arguments
//	go run ./cmd/mcpclient <tool_name> '<json>'       # with arguments
//
// Examples:
//
//	go run ./cmd/mcpclient list_tables
//	go run ./cmd/mcpclient read_query '{"query":"SELECT TOP 5 * FROM dbo.Orders"}'
//	go run ./cmd/mcpclient -server ./bin/mssql-mcp list_tables
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	clientName    = "mcpclient"
	clientVersion = "0.1.0"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(clientName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	serverBin := fs.String("server", "", "path to a built server binary (default: go run ./cmd/server)")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	list := fs.Bool("list", false, "list the server's tools instead of calling one")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [flags] <tool_name> [json_arguments]\n", clientName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if !*list && fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	var args any
	if fs.NArg() >= 2 && fs.Arg(1) != "" {
		if err := json.Unmarshal([]byte(fs.Arg(1)), &args); err != nil {
			fmt.Fprintf(stderr, "invalid json arguments: %v\n", err)
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cmd, err := serverCommand(ctx, *serverBin)
	if err != nil {
		fmt.Fprintf(stderr, "server command: %v\n", err)
		return 1
	}
	cmd.Env = os.Environ() // pass through so the server sees MSSQL_* etc.
	cmd.Stderr = stderr

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		fmt.Fprintf(stderr, "stdin pipe: %v\n", err)
		return 1
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		fmt.Fprintf(stderr, "stdout pipe: %v\n", err)
		return 1
	}
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(stderr, "start server: %v\n", err)
		return 1
	}
	defer func() {
		stdinPipe.Close()
		_ = cmd.Wait()
	}()

	session, err := connect(ctx, stdoutPipe, stdinPipe)
	if err != nil {
		fmt.Fprintf(stderr, "connect: %v\n", err)
		return 1
	}
	defer session.Close()

	if *list {
		names, err := listTools(ctx, session)
		if err != nil {
			fmt.Fprintf(stderr, "list tools: %v\n", err)
			return 1
		}
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return 0
	}

	text, err := callTool(ctx, session, fs.Arg(0), args)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, text)
	return 0
}

func serverCommand(ctx context.Context, bin string) (*exec.Cmd, error) {
	if bin != "" {
		return exec.CommandContext(ctx, bin), nil
	}
	repoRoot, err := findRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("find repo root: %w", err)
	}
	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/server")
	cmd.Dir = repoRoot
	return cmd, nil
}

// connect starts an MCP session over a server's stdout (r) and stdin (w).
func connect(ctx context.Context, r io.ReadCloser, w io.WriteCloser) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil)
	return client.Connect(ctx, &mcp.IOTransport{Reader: r, Writer: w}, nil)
}

func listTools(ctx context.Context, session *mcp.ClientSession) ([]string, error) {
	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names, nil
}

// callTool returns the text of the first content block. A result flagged
// isError is returned as an error carrying that text.
func callTool(ctx context.Context, session *mcp.ClientSession, name string, args any) (string, error) {
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("call tool: %w", err)
	}
	text := ""
	if len(res.Content) > 0 {
		if tc, ok := res.Content[0].(*mcp.TextContent); ok {
			text = tc.Text
		}
	}
	// The bundled server reports failures as JSON-RPC errors; isError
	// results come from other servers.
	if res.IsError {
		return "", errors.New("tool error: " + text)
	}
	return text, nil
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
