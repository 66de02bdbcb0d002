package db

import (
	"fmt"
	"strings"

	"github.com/SedlarDavid/mssql-mcp/internal/config"
)

// Catalog holds the schema-catalog statements used by list_tables.
// Tables yields one column "name" per base table. Columns takes the table
// name as its only parameter and yields "name" and "type" per column, in
// declaration order.
type Catalog struct {
	Tables  string
	Columns string
}

// dialect describes one supported database backend.
type dialect struct {
	name       string // config driver name
	driverName string // database/sql driver name
	dsn        func(config.Connection) string
	catalog    Catalog
}

var dialects = map[string]dialect{
	config.DriverSQLServer: sqlServerDialect,
	config.DriverSQLite:    sqliteDialect,
	config.DriverPostgres:  postgresDialect,
	config.DriverMySQL:     mysqlDialect,
}

func lookupDialect(name string) (dialect, error) {
	if name == "" {
		name = config.DriverSQLServer
	}
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q", name)
	}
	return d, nil
}
