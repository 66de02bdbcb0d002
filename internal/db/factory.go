package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/SedlarDavid/mssql-mcp/internal/config"
)

// Factory opens database connections from fixed connection parameters.
// Every Open creates a brand-new connection; nothing is pooled or reused
// between calls.
type Factory struct {
	dialect dialect
	dsn     string
	secret  string
}

// NewFactory resolves the dialect for conn.Driver (sqlserver when empty)
// and prepares the DSN. It does not connect.
func NewFactory(conn config.Connection) (*Factory, error) {
	d, err := lookupDialect(conn.Driver)
	if err != nil {
		return nil, err
	}
	return &Factory{
		dialect: d,
		dsn:     d.dsn(conn),
		secret:  conn.Password,
	}, nil
}

// Driver returns the configured driver name. Safe to log.
func (f *Factory) Driver() string { return f.dialect.name }

// Catalog returns the schema-catalog statements for the configured driver.
func (f *Factory) Catalog() Catalog { return f.dialect.catalog }

// Open establishes a new connection and verifies it with a ping. The caller
// must Close the returned Conn. Failures are *ConnectionError.
func (f *Factory) Open(ctx context.Context) (*Conn, error) {
	db, err := sql.Open(f.dialect.driverName, f.dsn)
	if err != nil {
		return nil, f.connectionError(err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, f.connectionError(err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, f.connectionError(err)
	}
	return &Conn{conn: conn, db: db}, nil
}

// Check opens and closes one connection. Used as the startup connectivity
// check.
func (f *Factory) Check(ctx context.Context) error {
	conn, err := f.Open(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (f *Factory) connectionError(err error) *ConnectionError {
	return &ConnectionError{Driver: f.dialect.name, Err: err, secret: f.secret}
}

// Conn is a single open database connection.
type Conn struct {
	conn *sql.Conn
	db   *sql.DB

	closeOnce sync.Once
	closeErr  error
}

// BeginTx starts a transaction on the connection.
func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.conn.BeginTx(ctx, opts)
}

// Close releases the connection. It is safe to call more than once; only
// the first call does any work.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = errors.Join(c.conn.Close(), c.db.Close())
	})
	return c.closeErr
}
