package db

import (
	"github.com/SedlarDavid/mssql-mcp/internal/config"
	"github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name:       config.DriverMySQL,
	driverName: "mysql",
	dsn:        mysqlDSN,
	catalog: Catalog{
		Tables: `SELECT TABLE_NAME AS name FROM INFORMATION_SCHEMA.TABLES ` +
			`WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`,
		Columns: `SELECT COLUMN_NAME AS name, DATA_TYPE AS type FROM INFORMATION_SCHEMA.COLUMNS ` +
			`WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`,
	},
}

// mysqlDSN builds a go-sql-driver DSN. ParseTime makes DATE and DATETIME
// columns scan as time.Time so they normalize like the other backends.
func mysqlDSN(c config.Connection) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = c.Host
	cfg.DBName = c.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}
