package query_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	. "github.com/tobsdb/tdbview/internal/query"
	"github.com/tobsdb/tdbview/internal/record"
	"gotest.tools/assert"
)

func names(records []record.Record) []any {
	out := []any{}
	for _, r := range records {
		out = append(out, r["Name"])
	}
	return out
}

func newTestRecords() []record.Record {
	return []record.Record{
		{"Id": "1", "Name": "Acme Corp", "Industry": "Manufacturing", "Employees": 120},
		{"Id": "2", "Name": "Globex", "Industry": "Energy", "Employees": 45},
		{"Id": "3", "Name": "Initech", "Industry": nil, "Employees": 45},
		{"Id": "4", "Name": "Umbrella", "Phone": "555-0100"},
	}
}

func TestFilter(t *testing.T) {
	records := newTestRecords()

	t.Run("case insensitive substring", func(t *testing.T) {
		res := Filter([]record.Record{{"Name": "Acme Corp"}, {"Name": "Globex"}}, "acme")
		assert.DeepEqual(t, names(res), []any{"Acme Corp"})

		res = Filter(records, "ENERGY")
		assert.DeepEqual(t, names(res), []any{"Globex"})
	})

	t.Run("matches any field including numbers", func(t *testing.T) {
		assert.DeepEqual(t, names(Filter(records, "120")), []any{"Acme Corp"})
		assert.DeepEqual(t, names(Filter(records, "0100")), []any{"Umbrella"})
	})

	t.Run("empty term is identity", func(t *testing.T) {
		res := Filter(records, "")
		assert.DeepEqual(t, res, records)
		res[0] = record.Record{}
		assert.Equal(t, records[0]["Name"], "Acme Corp")
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, term := range []string{"", "e", "corp", "45", "zzz"} {
			once := Filter(records, term)
			assert.DeepEqual(t, Filter(once, term), once)
		}
	})

	t.Run("absent and falsy values never match", func(t *testing.T) {
		assert.Equal(t, len(Filter(records, "nil")), 0)
		assert.Equal(t, len(Filter([]record.Record{{"Flag": false}}, "false")), 0)
		assert.Equal(t, len(Filter([]record.Record{{"Count": 0}}, "0")), 0)
		assert.Equal(t, len(Filter([]record.Record{{}}, "x")), 0)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := fmt.Sprint(records)
		Filter(records, "globex")
		assert.Equal(t, fmt.Sprint(records), before)
	})
}

func TestCompare(t *testing.T) {
	assert.Equal(t, Compare(1, 2), -1)
	assert.Equal(t, Compare(2.5, 2), 1)
	assert.Equal(t, Compare(3, 3.0), 0)
	assert.Equal(t, Compare("b", "a"), 1)
	assert.Equal(t, Compare("B", "a"), -1)
	assert.Equal(t, Compare(nil, "a"), -1)
	assert.Equal(t, Compare("a", ""), 1)
	assert.Equal(t, Compare(nil, ""), 0)
	assert.Equal(t, Compare(true, true), 0)
	assert.Equal(t, Compare(false, true), -1)
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Compare(early, early.Add(time.Hour)), -1)
	assert.Equal(t, Compare(10, "9"), -1)

	t.Run("NaN sorts with the empty values", func(t *testing.T) {
		nan := math.NaN()
		assert.Equal(t, Compare(nan, nan), 0)
		assert.Equal(t, Compare(nan, nil), 0)
		assert.Equal(t, Compare(nan, 1), -1)
		assert.Equal(t, Compare(-1, nan), 1)
		assert.Equal(t, Compare(nan, "a"), -1)

		rows := []record.Record{
			{"Name": "b", "Score": 2.0},
			{"Name": "nan", "Score": nan},
			{"Name": "a", "Score": 1.0},
		}
		assert.DeepEqual(t, names(Sort(rows, "Score", DirectionAsc)), []any{"nan", "a", "b"})
		assert.DeepEqual(t, names(Sort(rows, "Score", DirectionDesc)), []any{"b", "a", "nan"})
	})
}

func TestSort(t *testing.T) {
	records := newTestRecords()

	t.Run("no field keeps order", func(t *testing.T) {
		assert.DeepEqual(t, Sort(records, "", DirectionAsc), records)
	})

	t.Run("asc by string", func(t *testing.T) {
		res := Sort(records, "Industry", DirectionAsc)
		assert.DeepEqual(t, names(res), []any{"Initech", "Umbrella", "Globex", "Acme Corp"})
	})

	t.Run("desc by number is stable", func(t *testing.T) {
		res := Sort(records, "Employees", DirectionDesc)
		assert.DeepEqual(t, names(res), []any{"Acme Corp", "Globex", "Initech", "Umbrella"})

		res = Sort(records, "Employees", DirectionAsc)
		assert.DeepEqual(t, names(res), []any{"Umbrella", "Globex", "Initech", "Acme Corp"})
	})

	t.Run("direction symmetry without ties", func(t *testing.T) {
		asc := Sort(records, "Name", DirectionAsc)
		desc := Sort(records, "Name", DirectionDesc)
		for i := range asc {
			assert.DeepEqual(t, desc[i], asc[len(asc)-1-i])
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := names(records)
		Sort(records, "Name", DirectionDesc)
		assert.DeepEqual(t, names(records), before)
	})

	t.Run("empty and single", func(t *testing.T) {
		assert.Equal(t, len(Sort(nil, "Name", DirectionAsc)), 0)
		assert.Equal(t, len(Sort(records[:1], "Name", DirectionAsc)), 1)
	})
}

func TestParseDirection(t *testing.T) {
	dir, err := ParseDirection("DESC")
	assert.NilError(t, err)
	assert.Equal(t, dir, DirectionDesc)

	dir, err = ParseDirection("")
	assert.NilError(t, err)
	assert.Equal(t, dir, DirectionAsc)

	_, err = ParseDirection("sideways")
	assert.ErrorContains(t, err, "invalid sort direction")
}
