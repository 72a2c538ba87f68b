package query

import (
	"fmt"
	"strings"

	"github.com/tobsdb/tdbview/internal/record"
	sorted "github.com/tobshub/go-sortedmap"
)

type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return DirectionAsc, nil
	case "desc", "descending":
		return DirectionDesc, nil
	}
	return DirectionAsc, fmt.Errorf("invalid sort direction %q", s)
}

// positionedRecord remembers where a record sat before sorting so ties keep
// their original relative order.
type positionedRecord struct {
	pos int
	rec record.Record
}

func sortComparisonFunc(field string, dir Direction) func(a, b positionedRecord) bool {
	return func(a, b positionedRecord) bool {
		c := Compare(a.rec[field], b.rec[field])
		if dir == DirectionDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.pos < b.pos
	}
}

// Sort orders records by field. An empty field keeps the input order.
// The sort is stable in both directions: desc flips the comparison, not the
// output. records is never modified.
func Sort(records []record.Record, field string, dir Direction) []record.Record {
	out := make([]record.Record, 0, len(records))
	if field == "" || len(records) < 2 {
		return append(out, records...)
	}

	m := sorted.New[int, positionedRecord](len(records), sortComparisonFunc(field, dir))
	for i, r := range records {
		m.Insert(i, positionedRecord{i, r})
	}

	iterCh, err := m.IterCh()
	if err != nil {
		return append(out, records...)
	}
	for row := range iterCh.Records() {
		out = append(out, row.Val.rec)
	}
	return out
}
