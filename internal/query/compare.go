package query

import (
	"strings"
	"time"

	"github.com/tobsdb/tdbview/internal/record"
)

// Compare orders two field values and returns -1, 0 or 1.
//
// Falsy values (nil, "", 0, NaN, false) sort as the empty string, before every
// other value. Two numbers compare numerically, two times chronologically,
// two bools false-first. Any other pairing falls back to comparing the
// string forms. Compare never panics.
func Compare(a, b any) int {
	a_empty, b_empty := record.Falsy(a), record.Falsy(b)
	switch {
	case a_empty && b_empty:
		return 0
	case a_empty:
		return -1
	case b_empty:
		return 1
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}

	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			}
			return 1
		}
	}

	return strings.Compare(record.Stringify(a), record.Stringify(b))
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
