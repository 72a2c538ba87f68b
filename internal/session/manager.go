package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/pkg"
)

type State int

const (
	StateClosed State = iota
	StateSingleEdit
	StateBulkEdit
	StateCreate
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateSingleEdit:
		return "single-edit"
	case StateBulkEdit:
		return "bulk-edit"
	case StateCreate:
		return "create"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNoSession     = errors.New("no edit session is open")
	ErrBulkSelection = errors.New("not enough rows selected for bulk edit")
	ErrEmptyOverlay  = errors.New("no fields have been set")
	ErrNoTarget      = errors.New("record has no identifier")
)

// Manager owns the single edit overlay. Opening any session throws away the
// previous overlay. The base record is copied on open and never touched.
type Manager struct {
	MinBulk int

	state   State
	id      uuid.UUID
	opened  time.Time
	targets []record.ID
	base    record.Record
	overlay record.Fields
	form    []record.Column
	allowed pkg.Set[string]
}

func NewManager(min_bulk int) *Manager {
	if min_bulk <= 0 {
		min_bulk = 2
	}
	return &Manager{MinBulk: min_bulk}
}

func (m *Manager) State() State { return m.state }
func (m *Manager) IsOpen() bool { return m.state != StateClosed }

func (m *Manager) open(state State, targets []record.ID, base record.Record, form []record.Column) {
	m.state = state
	m.id = uuid.Must(uuid.NewV7())
	m.opened = time.Now()
	m.targets = append([]record.ID{}, targets...)
	m.base = base
	m.overlay = record.Fields{}
	m.form = form
	m.allowed = pkg.NewSet[string]()
	for _, col := range form {
		m.allowed.Add(col.FieldName)
	}
}

// OpenSingleEdit opens an overlay on one record, seeded with the current
// values of its editable columns.
func (m *Manager) OpenSingleEdit(id record.ID, rec record.Record, columns []record.Column) error {
	if id == "" {
		return ErrNoTarget
	}
	form := editable(columns)
	m.open(StateSingleEdit, []record.ID{id}, record.Clone(rec), form)
	for _, col := range form {
		if v, ok := m.base[col.FieldName]; ok {
			m.overlay.Set(col.FieldName, v)
		}
	}
	return nil
}

// OpenBulkEdit opens an empty overlay over ids. With fewer than MinBulk ids
// it refuses and leaves any current session alone.
func (m *Manager) OpenBulkEdit(ids []record.ID, columns []record.Column) error {
	if len(ids) < m.MinBulk {
		return fmt.Errorf("%w: %d selected, %d required", ErrBulkSelection, len(ids), m.MinBulk)
	}
	m.open(StateBulkEdit, ids, nil, editable(columns))
	return nil
}

// OpenCreate opens an empty overlay for a new record. Any column may be set.
func (m *Manager) OpenCreate(columns []record.Column) {
	m.open(StateCreate, nil, nil, append([]record.Column{}, columns...))
}

// SetField merges one value into the overlay; the last write per field
// wins. Fields the session does not allow are dropped and reported as not
// applied, which is not an error.
func (m *Manager) SetField(name string, value any) (bool, error) {
	if !m.IsOpen() {
		return false, ErrNoSession
	}
	if !m.allowed.Has(name) {
		return false, nil
	}
	m.overlay.Set(name, value)
	return true, nil
}

// Commit turns the overlay into a request and closes the session. The
// session counts as submitted from here on, whatever the collaborator says.
func (m *Manager) Commit() (mutation.Request, error) {
	var req mutation.Request
	switch m.state {
	case StateClosed:
		return req, ErrNoSession
	case StateSingleEdit, StateBulkEdit:
		if m.state == StateBulkEdit && len(m.overlay) == 0 {
			return req, ErrEmptyOverlay
		}
		req = mutation.NewUpdate(m.targets, m.overlay)
	case StateCreate:
		req = mutation.NewCreate(m.overlay)
	}
	m.close()
	return req, nil
}

// Cancel discards the overlay. It reports whether a session was open.
func (m *Manager) Cancel() bool {
	was_open := m.IsOpen()
	m.close()
	return was_open
}

func (m *Manager) close() {
	m.state = StateClosed
	m.id = uuid.Nil
	m.opened = time.Time{}
	m.targets = nil
	m.base = nil
	m.overlay = nil
	m.form = nil
	m.allowed = nil
}

func editable(columns []record.Column) []record.Column {
	return pkg.Filter(columns, func(c record.Column) bool { return c.Editable })
}
