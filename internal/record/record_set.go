package record

import (
	"github.com/tobsdb/tdbview/internal/types"
	"github.com/tobsdb/tdbview/pkg"
)

type Column struct {
	FieldName string           `json:"fieldName" yaml:"fieldName"`
	Label     string           `json:"label" yaml:"label"`
	Editable  bool             `json:"editable" yaml:"editable"`
	Type      types.ColumnType `json:"type" yaml:"type"`
}

// MarkEditable returns a copy of columns with every column editable.
func MarkEditable(columns []Column) []Column {
	out := make([]Column, len(columns))
	for i, col := range columns {
		col.Editable = true
		out[i] = col
	}
	return out
}

// RecordSet is the raw data one load/refresh hands to the view. It is
// replaced wholesale and never modified after construction.
type RecordSet struct {
	IDField string
	Records []Record
	Columns []Column

	columns *pkg.InsertSortMap[string, Column]
	by_id   pkg.Map[ID, int]
}

// NewRecordSet copies records and columns. Columns without a field name are
// skipped; duplicate field names keep the first position and the last
// definition. Records whose id is missing are kept but cannot be targeted.
func NewRecordSet(id_field string, records []Record, columns []Column) *RecordSet {
	if id_field == "" {
		id_field = DEFAULT_ID_FIELD
	}

	rs := &RecordSet{
		IDField: id_field,
		Records: make([]Record, 0, len(records)),
		columns: pkg.NewInsertSortMap[string, Column](),
		by_id:   pkg.Map[ID, int]{},
	}

	for _, col := range columns {
		if col.FieldName == "" {
			continue
		}
		if col.Label == "" {
			col.Label = col.FieldName
		}
		if col.Type == "" {
			col.Type = types.ColumnTypeString
		}
		rs.columns.Push(col.FieldName, col)
	}
	rs.Columns = rs.columns.Values()

	for _, r := range records {
		r = Clone(r)
		if id, ok := GetID(r, id_field); ok && !rs.by_id.Has(id) {
			rs.by_id.Set(id, len(rs.Records))
		}
		rs.Records = append(rs.Records, r)
	}

	return rs
}

// Empty is a record set with no rows and no columns.
func Empty(id_field string) *RecordSet { return NewRecordSet(id_field, nil, nil) }

func (rs *RecordSet) Len() int { return len(rs.Records) }

func (rs *RecordSet) Column(field_name string) (Column, bool) {
	if !rs.columns.Has(field_name) {
		return Column{}, false
	}
	return rs.columns.Get(field_name), true
}

// Find returns the first record carrying id.
func (rs *RecordSet) Find(id ID) (Record, bool) {
	if !rs.by_id.Has(id) {
		return nil, false
	}
	return rs.Records[rs.by_id.Get(id)], true
}

func (rs *RecordSet) IDOf(r Record) (ID, bool) { return GetID(r, rs.IDField) }

// IDs collects the identifiers of records, skipping those without one.
func (rs *RecordSet) IDs(records []Record) []ID {
	ids := make([]ID, 0, len(records))
	for _, r := range records {
		if id, ok := rs.IDOf(r); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// EditableColumns lists the columns that may appear in an edit overlay.
func (rs *RecordSet) EditableColumns() []Column {
	return pkg.Filter(rs.Columns, func(c Column) bool { return c.Editable })
}
