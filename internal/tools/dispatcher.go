package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SedlarDavid/mssql-mcp/internal/db"
	"github.com/SedlarDavid/mssql-mcp/internal/normalize"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Querier executes single statements. *db.Executor implements it.
type Querier interface {
	Execute(ctx context.Context, statement string, args ...any) (db.Result, error)
	Catalog() db.Catalog
}

// Column describes one table column in list_tables output.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Dispatcher routes tool calls to their handlers. It keeps no state between
// calls.
type Dispatcher struct {
	q      Querier
	logger zerolog.Logger
}

// NewDispatcher returns a Dispatcher that runs statements with q.
func NewDispatcher(q Querier, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{q: q, logger: logger}
}

// Dispatch runs the named tool and returns its JSON response text.
// Errors are *ArgumentError, *ValidationError, *UnknownToolError or a
// *db.QueryError from the database.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case ListTables:
		return d.listTables(ctx)
	case ReadQuery:
		return d.readQuery(ctx, args)
	default:
		return "", &UnknownToolError{Name: name}
	}
}

// listTables maps every base table to its columns, in catalog order.
func (d *Dispatcher) listTables(ctx context.Context) (string, error) {
	catalog := d.q.Catalog()
	tables, err := d.q.Execute(ctx, catalog.Tables)
	if err != nil {
		return "", err
	}

	info := orderedmap.New[string, []Column](len(tables))
	for _, t := range tables {
		name := cast.ToString(t.Value("name"))
		rows, err := d.q.Execute(ctx, catalog.Columns, name)
		if err != nil {
			return "", fmt.Errorf("columns of %s: %w", name, err)
		}
		cols := make([]Column, 0, len(rows))
		for _, r := range rows {
			cols = append(cols, Column{
				Name: cast.ToString(r.Value("name")),
				Type: cast.ToString(r.Value("type")),
			})
		}
		info.Set(name, cols)
	}
	d.logger.Debug().Int("tables", info.Len()).Msg("listed tables")
	return marshalIndent(info)
}

func (d *Dispatcher) readQuery(ctx context.Context, args map[string]any) (string, error) {
	if args == nil {
		return "", &ArgumentError{Tool: ReadQuery, Msg: "No arguments provided for tool execution"}
	}
	raw, ok := args[QueryArgument]
	if !ok {
		return "", &ArgumentError{Tool: ReadQuery, Msg: "missing required argument \"query\""}
	}
	query, ok := raw.(string)
	if !ok {
		return "", &ArgumentError{Tool: ReadQuery, Msg: fmt.Sprintf("argument \"query\" must be a string, got %T", raw)}
	}
	if strings.TrimSpace(query) == "" {
		return "", &ArgumentError{Tool: ReadQuery, Msg: "argument \"query\" must not be empty"}
	}
	if !db.HasLeadingKeyword(query, "SELECT", "WITH") {
		return "", &ValidationError{Tool: ReadQuery, Msg: "Invalid query type for read_query, must be a SELECT or WITH statement"}
	}

	result, err := d.q.Execute(ctx, query)
	if err != nil {
		return "", err
	}
	rows := make([]any, len(result))
	for i, r := range result {
		rows[i] = r
	}
	return marshalIndent(normalize.Normalize(map[string]any{"results": rows}))
}

// marshalIndent encodes v as two-space indented JSON with non-ASCII text
// and <, >, & kept as is.
func marshalIndent(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return strings.TrimSuffix(string(unescapeHTML(buf.Bytes())), "\n"), nil
}

// unescapeHTML undoes the \u003c, \u003e and \u0026 escapes that ordered
// maps apply to their values regardless of SetEscapeHTML. Escape sequences
// are consumed whole, so `\\u003c` stays an escaped backslash.
func unescapeHTML(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u00`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "003c":
				out = append(out, '<')
				i += 5
				continue
			case "003e":
				out = append(out, '>')
				i += 5
				continue
			case "0026":
				out = append(out, '&')
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}
