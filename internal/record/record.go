package record

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/tobsdb/tdbview/pkg"
)

const DEFAULT_ID_FIELD = "Id"

// Maps field name to its value
type Record = pkg.Map[string, any]

// A partial record: the fields an overlay or a mutation carries
type Fields = pkg.Map[string, any]

// ID is the string form of a record's identifier field.
type ID string

func (id ID) String() string { return string(id) }

// GetID reads the identifier field of r. Records without a usable identifier
// report false instead of failing.
func GetID(r Record, id_field string) (ID, bool) {
	v, ok := r[id_field]
	if !ok || v == nil {
		return "", false
	}
	s := Stringify(v)
	if s == "" {
		return "", false
	}
	return ID(s), true
}

// Stringify is the string representation used by search and by the
// fallback sort comparison. nil is the empty string.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case ID:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

// Falsy mirrors the loose truthiness the table has always used for search
// and sort: nil, "", zero numbers, NaN and false count as "no value".
func Falsy(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case uint:
		return v == 0
	case uint64:
		return v == 0
	case float32:
		return v == 0 || math.IsNaN(float64(v))
	case float64:
		return v == 0 || math.IsNaN(v)
	}
	return false
}

// Clone copies r so the caller may change the copy freely.
func Clone(r Record) Record {
	if r == nil {
		return Record{}
	}
	return r.Clone()
}
