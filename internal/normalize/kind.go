// Package normalize turns values produced by database drivers into values
// that encode cleanly as JSON. Column values are first decoded into typed
// Go values according to the column's database type (Decode), then
// converted into JSON-safe primitives (Normalize).
package normalize

import "strings"

// Kind classifies a result column by how its raw driver value must be
// decoded before it can be normalized.
type Kind int

const (
	Primitive Kind = iota
	Decimal
	UUID
	Date
	DateTime
	DateTimeOffset
	Time
	Binary
)

var kindNames = [...]string{
	Primitive:      "primitive",
	Decimal:        "decimal",
	UUID:           "uuid",
	Date:           "date",
	DateTime:       "datetime",
	DateTimeOffset: "datetimeoffset",
	Time:           "time",
	Binary:         "binary",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// KindOf maps a driver-reported column type name (sql.ColumnType's
// DatabaseTypeName) to a Kind. Length or precision suffixes such as
// "DECIMAL(10,2)" are ignored. Unknown names are Primitive.
func KindOf(databaseTypeName string) Kind {
	name := strings.ToUpper(strings.TrimSpace(databaseTypeName))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	switch name {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return Decimal
	case "UNIQUEIDENTIFIER", "UUID":
		return UUID
	case "DATE":
		return Date
	case "DATETIME", "DATETIME2", "SMALLDATETIME", "TIMESTAMP":
		return DateTime
	case "DATETIMEOFFSET", "TIMESTAMPTZ":
		return DateTimeOffset
	case "TIME":
		return Time
	case "BINARY", "VARBINARY", "IMAGE", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BYTEA":
		return Binary
	default:
		return Primitive
	}
}
