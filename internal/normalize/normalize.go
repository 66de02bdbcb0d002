package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/encoding/unicode"
)

// Normalize returns a copy of v in which every value is safe to pass to
// encoding/json. Sequences and mappings are walked recursively and keep
// their order; leaf values are converted as follows:
//
//	decimal.Decimal         float64
//	uuid.UUID               lowercase hyphenated string
//	mssql.UniqueIdentifier  lowercase hyphenated string
//	civil.Date              "2006-01-02"
//	civil.DateTime          "2006-01-02T15:04:05[.ffffff]"
//	civil.Time              "15:04:05[.ffffff]"
//	time.Time               "2006-01-02T15:04:05[.ffffff]-07:00"
//	[]byte                  UTF-8 text, invalid bytes as U+FFFD
//	NaN, +Inf, -Inf         "NaN", "Infinity", "-Infinity"
//
// Anything else is returned unchanged.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case []*orderedmap.OrderedMap[string, any]:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case *orderedmap.OrderedMap[string, any]:
		if x == nil {
			return nil
		}
		out := orderedmap.New[string, any](x.Len())
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Normalize(pair.Value))
		}
		return out
	case decimal.Decimal:
		f, _ := x.Float64()
		return normalizeFloat(f)
	case uuid.UUID:
		return x.String()
	case mssql.UniqueIdentifier:
		return strings.ToLower(x.String())
	case civil.Date:
		return x.String()
	case civil.DateTime:
		return x.Date.String() + "T" + formatTime(x.Time)
	case civil.Time:
		return formatTime(x)
	case time.Time:
		return x.Format("2006-01-02T") + formatTime(civil.TimeOf(x)) + x.Format("-07:00")
	case []byte:
		return decodeText(x)
	case float64:
		return normalizeFloat(x)
	case float32:
		return normalizeFloat(float64(x))
	default:
		return v
	}
}

// formatTime writes t with microsecond precision, omitting a zero fraction.
func formatTime(t civil.Time) string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if us := t.Nanosecond / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

// encoding/json rejects NaN and infinities.
func normalizeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}

func decodeText(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
