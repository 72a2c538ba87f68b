package query

import (
	"strings"

	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/pkg"
)

// Filter keeps the records where any field contains term, ignoring case.
// An empty term keeps everything. records is never modified; the result is
// always a new slice.
func Filter(records []record.Record, term string) []record.Record {
	term = strings.ToLower(term)
	if term == "" {
		return append([]record.Record{}, records...)
	}
	return pkg.Filter(records, func(r record.Record) bool {
		return matches(r, term)
	})
}

// term must already be lower case
func matches(r record.Record, term string) bool {
	for _, v := range r {
		// falsy values never match, same as an absent field
		if record.Falsy(v) {
			continue
		}
		if strings.Contains(strings.ToLower(record.Stringify(v)), term) {
			return true
		}
	}
	return false
}
