package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/SedlarDavid/mssql-mcp/internal/metrics"
	"github.com/SedlarDavid/mssql-mcp/internal/normalize"
	"github.com/rs/zerolog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row is one result row. Keys are column names in result-descriptor order.
type Row = *orderedmap.OrderedMap[string, any]

// Result is the rows returned by Execute, in driver order.
type Result []Row

// NewRow returns an empty Row.
func NewRow() Row {
	return orderedmap.New[string, any]()
}

// AffectedRowsColumn is the single column of a mutation result.
const AffectedRowsColumn = "affected_rows"

const maxLoggedSQL = 200

// Executor runs single statements, each on its own fresh connection.
// It holds no per-call state and is safe for concurrent use.
type Executor struct {
	factory *Factory
	logger  zerolog.Logger
}

// NewExecutor returns an Executor that opens connections with f.
func NewExecutor(f *Factory, logger zerolog.Logger) *Executor {
	return &Executor{factory: f, logger: logger}
}

// Catalog returns the schema-catalog statements of the underlying factory.
func (e *Executor) Catalog() Catalog { return e.factory.Catalog() }

// Execute opens a connection, runs statement with args inside a
// transaction and closes the connection before returning.
//
// Statements classified as Mutation are committed and yield a single row
// {"affected_rows": n}. Anything else is treated as a read: all rows are
// fetched, each value is decoded by its column's database type, and the
// transaction is rolled back. Every failure is a *QueryError.
func (e *Executor) Execute(ctx context.Context, statement string, args ...any) (Result, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, &QueryError{Statement: statement, Err: ErrEmptyStatement}
	}

	kind := Classify(statement)
	start := time.Now()
	result, err := e.execute(ctx, kind, statement, args)
	elapsed := time.Since(start)

	metrics.QueriesTotal.WithLabelValues(kind.String(), metrics.Status(err)).Inc()
	metrics.QueryDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())

	if err != nil {
		e.logger.Error().
			Err(err).
			Str("kind", kind.String()).
			Str("sql", truncateForLog(statement, maxLoggedSQL)).
			Dur("duration", elapsed).
			Msg("statement failed")
		return nil, &QueryError{Statement: statement, Err: err}
	}

	ev := e.logger.Debug().
		Str("kind", kind.String()).
		Str("sql", truncateForLog(statement, maxLoggedSQL)).
		Dur("duration", elapsed)
	if kind == Mutation {
		ev.Interface(AffectedRowsColumn, result[0].Value(AffectedRowsColumn))
	} else {
		ev.Int("rows", len(result))
	}
	ev.Msg("statement executed")
	return result, nil
}

func (e *Executor) execute(ctx context.Context, kind StatementKind, statement string, args []any) (Result, error) {
	conn, err := e.factory.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	// No-op once committed; reads are never committed.
	defer tx.Rollback()

	if kind == Mutation {
		return execMutation(ctx, tx, statement, args)
	}

	rows, err := tx.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func execMutation(ctx context.Context, tx *sql.Tx, statement string, args []any) (Result, error) {
	res, err := tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil || n < 0 {
		n = 0
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	row := NewRow()
	row.Set(AffectedRowsColumn, n)
	return Result{row}, nil
}

// scanRows reads every row, decoding each value by its column's database
// type. A statement without a result set yields an empty Result.
func scanRows(rows *sql.Rows) (Result, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := Result{}
	if len(types) == 0 {
		return out, rows.Err()
	}

	cols := make([]string, len(types))
	kinds := make([]normalize.Kind, len(types))
	for i, ct := range types {
		cols[i] = ct.Name()
		kinds[i] = normalize.KindOf(ct.DatabaseTypeName())
	}

	scan := make([]any, len(cols))
	for i := range scan {
		scan[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		row := orderedmap.New[string, any](len(cols))
		for i, c := range cols {
			row.Set(c, normalize.Decode(kinds[i], *(scan[i].(*any))))
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
