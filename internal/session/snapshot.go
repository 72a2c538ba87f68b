package session

import (
	"time"

	"github.com/tobsdb/tdbview/internal/record"
)

// Snapshot is a detached copy of the current session for consumers.
type Snapshot struct {
	ID      string          `json:"id,omitempty" yaml:"id,omitempty"`
	State   State           `json:"state" yaml:"state"`
	Opened  time.Time       `json:"opened,omitempty" yaml:"opened,omitempty"`
	Targets []record.ID     `json:"targets,omitempty" yaml:"targets,omitempty"`
	Base    record.Record   `json:"base,omitempty" yaml:"base,omitempty"`
	Overlay record.Fields   `json:"overlay,omitempty" yaml:"overlay,omitempty"`
	Form    []record.Column `json:"form,omitempty" yaml:"form,omitempty"`
}

func (m *Manager) Snapshot() Snapshot {
	if !m.IsOpen() {
		return Snapshot{State: StateClosed}
	}
	return Snapshot{
		ID:      m.id.String(),
		State:   m.state,
		Opened:  m.opened,
		Targets: append([]record.ID{}, m.targets...),
		Base:    clonePresent(m.base),
		Overlay: record.Clone(m.overlay),
		Form:    append([]record.Column{}, m.form...),
	}
}

func clonePresent(r record.Record) record.Record {
	if r == nil {
		return nil
	}
	return record.Clone(r)
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
