package store

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/pkg"
	sorted "github.com/tobshub/go-sortedmap"
)

// row is a stored record and the sequence it was inserted at.
type row struct {
	seq int
	rec record.Record
}

func rowComparisonFunc(a, b row) bool { return a.seq < b.seq }

// Table is an in-memory table of records keyed by id. Rows come back in
// insertion order.
type Table struct {
	locker sync.RWMutex

	Name    string
	IDField string
	Columns []record.Column
	// Limit caps how many rows Fetch and FindMany return. 0 means no cap.
	Limit int

	next_seq int
	rows     *sorted.SortedMap[int, row]
	// id -> seq
	index pkg.Map[record.ID, int]
}

func NewTable(name, id_field string, columns []record.Column) *Table {
	if id_field == "" {
		id_field = record.DEFAULT_ID_FIELD
	}
	return &Table{
		Name:    name,
		IDField: id_field,
		Columns: append([]record.Column{}, columns...),
		rows:    sorted.New[int, row](0, rowComparisonFunc),
		index:   pkg.Map[record.ID, int]{},
	}
}

func (t *Table) GetLocker() *sync.RWMutex { return &t.locker }

func (t *Table) Len() int {
	return pkg.RLockValue(t, func() int { return len(t.index) })
}

func (t *Table) validateFields(fields record.Fields) error {
	if len(t.Columns) == 0 {
		return nil
	}
	for name := range fields {
		if name == t.IDField {
			continue
		}
		found := false
		for _, col := range t.Columns {
			if col.FieldName == name {
				found = true
				break
			}
		}
		if !found {
			return NewError(http.StatusBadRequest, fmt.Sprintf("Field %q does not exist in table %s", name, t.Name))
		}
	}
	return nil
}

// Create stores a new record. A record without an id gets a fresh uuid.
func (t *Table) Create(fields record.Fields) (record.Record, error) {
	t.locker.Lock()
	defer t.locker.Unlock()

	if err := t.validateFields(fields); err != nil {
		return nil, err
	}

	rec := record.Clone(fields)
	id, ok := record.GetID(rec, t.IDField)
	if !ok {
		id = record.ID(uuid.NewString())
		rec.Set(t.IDField, id.String())
	}
	if t.index.Has(id) {
		return nil, NewError(http.StatusConflict, fmt.Sprintf("Record with %s %s already exists", t.IDField, id))
	}

	seq := t.next_seq
	t.next_seq++
	t.rows.Insert(seq, row{seq, rec})
	t.index.Set(id, seq)
	return record.Clone(rec), nil
}

// Update merges fields into every target. Nothing is written unless all
// targets exist.
func (t *Table) Update(ids []record.ID, fields record.Fields) ([]record.Record, error) {
	t.locker.Lock()
	defer t.locker.Unlock()

	if len(ids) == 0 {
		return nil, NewError(http.StatusBadRequest, "No records to update")
	}
	if len(fields) == 0 {
		return nil, NewError(http.StatusBadRequest, "No fields to update")
	}
	if fields.Has(t.IDField) {
		return nil, NewError(http.StatusBadRequest, fmt.Sprintf("Cannot update %s", t.IDField))
	}
	if err := t.validateFields(fields); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !t.index.Has(id) {
			return nil, NewError(http.StatusNotFound, fmt.Sprintf("Record %s not found", id))
		}
	}

	updated := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		seq := t.index.Get(id)
		r, _ := t.rows.Get(seq)
		rec := record.Clone(r.rec)
		for k, v := range fields {
			rec.Set(k, v)
		}
		t.rows.Replace(seq, row{seq, rec})
		updated = append(updated, record.Clone(rec))
	}
	return updated, nil
}

func (t *Table) Delete(id record.ID) (record.Record, error) {
	t.locker.Lock()
	defer t.locker.Unlock()

	if !t.index.Has(id) {
		return nil, NewError(http.StatusNotFound, fmt.Sprintf("Record %s not found", id))
	}
	seq := t.index.Get(id)
	r, _ := t.rows.Get(seq)
	t.rows.Delete(seq)
	t.index.Delete(id)
	return record.Clone(r.rec), nil
}

func (t *Table) Get(id record.ID) (record.Record, bool) {
	t.locker.RLock()
	defer t.locker.RUnlock()

	if !t.index.Has(id) {
		return nil, false
	}
	r, ok := t.rows.Get(t.index.Get(id))
	if !ok {
		return nil, false
	}
	return record.Clone(r.rec), true
}

// FindMany returns the rows whose fields equal every value in where, by
// string form. An empty where matches everything.
func (t *Table) FindMany(where record.Fields) []record.Record {
	t.locker.RLock()
	defer t.locker.RUnlock()
	return t.scan(where, t.Limit)
}

// scan expects the read lock to be held.
func (t *Table) scan(where record.Fields, limit int) []record.Record {
	found := []record.Record{}
	if t.rows.Len() == 0 {
		return found
	}
	iterCh, err := t.rows.IterCh()
	if err != nil {
		pkg.ErrorLog(err)
		return found
	}
	defer iterCh.Close()

	for r := range iterCh.Records() {
		if limit > 0 && len(found) >= limit {
			break
		}
		if matchesWhere(r.Val.rec, where) {
			found = append(found, record.Clone(r.Val.rec))
		}
	}
	return found
}

func matchesWhere(rec record.Record, where record.Fields) bool {
	for k, v := range where {
		if record.Stringify(rec.Get(k)) != record.Stringify(v) {
			return false
		}
	}
	return true
}

// Snapshot returns the table's current rows as a RecordSet.
func (t *Table) Snapshot() *record.RecordSet {
	t.locker.RLock()
	defer t.locker.RUnlock()
	return record.NewRecordSet(t.IDField, t.scan(nil, t.Limit), t.Columns)
}

// Apply carries out req against the table. Failures are
// *mutation.Failure values with an HTTP status.
func (t *Table) Apply(ctx context.Context, req mutation.Request) (mutation.Ack, error) {
	if err := ctx.Err(); err != nil {
		return mutation.Ack{}, err
	}

	var data any
	var err error
	switch req.Kind {
	case mutation.KindCreate:
		data, err = t.Create(req.Fields)
	case mutation.KindUpdate:
		data, err = t.Update(req.Targets, req.Fields)
	case mutation.KindDelete:
		data, err = t.Delete(req.Target)
	default:
		err = NewError(http.StatusBadRequest, fmt.Sprintf("Unknown mutation kind %q", req.Kind))
	}
	if err != nil {
		if e, ok := err.(*Error); ok {
			return mutation.Ack{}, e.Failure()
		}
		return mutation.Ack{}, err
	}

	pkg.DebugLog("applied", req.Kind, "on", t.Name)
	return mutation.Ack{Message: req.SuccessMessage(), Data: data, RecordSet: t.Snapshot()}, nil
}

func (t *Table) Fetch(ctx context.Context) (*record.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.Snapshot(), nil
}
