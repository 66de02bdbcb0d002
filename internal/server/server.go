// Package server exposes the database tools over the Model Context
// Protocol. Every tool failure, including a call to an unregistered tool,
// is reported to the client as a JSON-RPC error; successful calls return a
// single text block.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"time"

	"github.com/SedlarDavid/mssql-mcp/internal/config"
	"github.com/SedlarDavid/mssql-mcp/internal/db"
	"github.com/SedlarDavid/mssql-mcp/internal/metrics"
	"github.com/SedlarDavid/mssql-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Dispatcher runs a tool by name. *tools.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) (string, error)
}

// New creates the MCP server and registers every tool from tools.Registry.
func New(id config.Identity, d Dispatcher, logger zerolog.Logger) *server.MCPServer {
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, _ any, req *mcp.InitializeRequest, _ *mcp.InitializeResult) {
		logger.Info().
			Str("client_name", req.Params.ClientInfo.Name).
			Str("client_version", req.Params.ClientInfo.Version).
			Str("protocol_version", req.Params.ProtocolVersion).
			Msg("client connected (MCP initialize)")
	})
	hooks.AddOnError(func(_ context.Context, _ any, method mcp.MCPMethod, message any, err error) {
		// Handler failures are observed in toolHandler; only routing misses land here.
		if method != mcp.MethodToolsCall || !errors.Is(err, server.ErrToolNotFound) {
			return
		}
		name := ""
		if req, ok := message.(*mcp.CallToolRequest); ok {
			name = req.Params.Name
		}
		metrics.ToolCallsTotal.WithLabelValues(unknownToolLabel, statusUnknownTool).Inc()
		logger.Warn().
			Str("tool", name).
			Str("status", statusUnknownTool).
			Msg("tool call")
	})

	s := server.NewMCPServer(id.Name, id.Version,
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)
	Register(s, d, logger)
	return s
}

// Register adds the tools to s.
func Register(s *server.MCPServer, d Dispatcher, logger zerolog.Logger) {
	for _, desc := range tools.Registry() {
		s.AddTool(newTool(desc), toolHandler(desc.Name, d, logger))
	}
}

func newTool(desc tools.Descriptor) mcp.Tool {
	schema, err := json.Marshal(desc.InputSchema)
	if err != nil {
		panic(fmt.Sprintf("tool %s: input schema: %v", desc.Name, err))
	}
	tool := mcp.NewToolWithRawSchema(desc.Name, desc.Description, schema)
	tool.Annotations.ReadOnlyHint = mcp.ToBoolPtr(desc.ReadOnly)
	return tool
}

// toolHandler adapts d to mcp-go. Dispatcher errors are returned to
// mcp-go, which answers with a JSON-RPC error; a panic is turned into one
// too and the process keeps serving.
func toolHandler(name string, d Dispatcher, logger zerolog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		start := time.Now()
		status := metrics.StatusOK

		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("tool", name).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("tool handler panicked")
				result, err = nil, fmt.Errorf("%s: internal error: %v", statusPanic, r)
				status = statusPanic
			}
			elapsed := time.Since(start)
			metrics.ToolCallsTotal.WithLabelValues(name, status).Inc()
			metrics.ToolCallDuration.WithLabelValues(name).Observe(elapsed.Seconds())
			logger.Info().
				Str("tool", name).
				Int("request_bytes", requestLength(req)).
				Int("response_bytes", resultLength(result)).
				Bool("is_error", err != nil).
				Str("status", status).
				Err(err).
				Dur("duration", elapsed).
				Msg("tool call")
		}()

		text, dispatchErr := d.Dispatch(ctx, name, req.GetArguments())
		if dispatchErr != nil {
			status = errorStatus(dispatchErr)
			return nil, fmt.Errorf("%s: %w", status, dispatchErr)
		}
		return mcp.NewToolResultText(text), nil
	}
}

const (
	statusPanic       = "panic"
	statusUnknownTool = "unknown_tool"

	// unknownToolLabel keeps client-chosen names out of metric labels.
	unknownToolLabel = "unknown"
)

// errorStatus labels err for the tool call metrics and prefixes the error
// message returned to the client.
func errorStatus(err error) string {
	var (
		argErr     *tools.ArgumentError
		valErr     *tools.ValidationError
		unknownErr *tools.UnknownToolError
		connErr    *db.ConnectionError
		queryErr   *db.QueryError
	)
	switch {
	case errors.As(err, &argErr):
		return "invalid_arguments"
	case errors.As(err, &valErr):
		return "rejected"
	case errors.As(err, &unknownErr):
		return statusUnknownTool
	case errors.As(err, &connErr):
		return "connection_error"
	case errors.As(err, &queryErr):
		return "query_error"
	default:
		return metrics.StatusError
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}

// Serve runs s over a newline-delimited JSON-RPC stream until in is
// exhausted or ctx is canceled. Transport errors are written to logger.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger zerolog.Logger) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(logger, "", 0))
	return stdio.Listen(ctx, in, out)
}
