package normalize

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/shopspring/decimal"
)

// Decode converts a raw value scanned into *any into the typed value for
// kind. Values the kind does not recognize are returned unchanged, so a
// driver that already returns a usable type is never broken by Decode.
func Decode(kind Kind, raw any) any {
	if raw == nil {
		return nil
	}
	switch kind {
	case Decimal:
		if d, ok := decodeDecimal(raw); ok {
			return d
		}
	case UUID:
		if u, ok := decodeUUID(raw); ok {
			return u
		}
	case Date:
		if t, ok := raw.(time.Time); ok {
			return civil.DateOf(t)
		}
	case DateTime:
		if t, ok := raw.(time.Time); ok {
			return civil.DateTimeOf(t)
		}
	case Time:
		if t, ok := raw.(time.Time); ok {
			return civil.TimeOf(t)
		}
	case DateTimeOffset:
		// time.Time already carries the offset.
	case Binary:
		if b, ok := raw.([]byte); ok {
			return append([]byte(nil), b...)
		}
	}
	return raw
}

func decodeDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case []byte:
		d, err := decimal.NewFromString(string(v))
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(v)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	}
	return decimal.Decimal{}, false
}

// decodeUUID accepts the 16 wire-order bytes SQL Server sends for a
// UNIQUEIDENTIFIER as well as the textual forms other drivers return.
func decodeUUID(raw any) (uuid.UUID, bool) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, true
	case mssql.UniqueIdentifier:
		return uuid.UUID(v), true
	case [16]byte:
		return uuid.UUID(v), true
	case []byte:
		if len(v) == 16 {
			var u mssql.UniqueIdentifier
			if err := u.Scan(v); err != nil {
				return uuid.Nil, false
			}
			return uuid.UUID(u), true
		}
		u, err := uuid.ParseBytes(v)
		return u, err == nil
	case string:
		u, err := uuid.Parse(v)
		return u, err == nil
	}
	return uuid.Nil, false
}
