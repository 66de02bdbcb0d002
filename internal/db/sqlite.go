package db

import (
	"github.com/SedlarDavid/mssql-mcp/internal/config"
	_ "modernc.org/sqlite"
)

// sqliteDialect treats the database name as the database file path.
var sqliteDialect = dialect{
	name:       config.DriverSQLite,
	driverName: "sqlite",
	dsn:        func(c config.Connection) string { return c.Database },
	catalog: Catalog{
		Tables:  `SELECT name AS name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		Columns: `SELECT name AS name, type AS type FROM pragma_table_info(?) ORDER BY cid`,
	},
}
