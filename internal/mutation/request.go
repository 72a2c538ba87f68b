package mutation

import (
	"encoding/json"

	"github.com/tobsdb/tdbview/internal/record"
)

type Kind string

const (
	KindUpdate Kind = "update"
	KindCreate Kind = "create"
	KindDelete Kind = "delete"
)

// Request is what the view hands to the persistence collaborator. It only
// describes intent; the view never applies it locally.
type Request struct {
	Kind    Kind          `json:"kind" yaml:"kind"`
	Targets []record.ID   `json:"targets,omitempty" yaml:"targets,omitempty"`
	Target  record.ID     `json:"target,omitempty" yaml:"target,omitempty"`
	Fields  record.Fields `json:"fields,omitempty" yaml:"fields,omitempty"`
}

func NewUpdate(targets []record.ID, fields record.Fields) Request {
	return Request{
		Kind:    KindUpdate,
		Targets: append([]record.ID{}, targets...),
		Fields:  record.Clone(fields),
	}
}

func NewCreate(fields record.Fields) Request {
	return Request{Kind: KindCreate, Fields: record.Clone(fields)}
}

func NewDelete(target record.ID) Request {
	return Request{Kind: KindDelete, Target: target}
}

// MarshalJSON writes only the keys that belong to r's kind. Creates and
// updates always carry a fields object, even an empty one.
func (r Request) MarshalJSON() ([]byte, error) {
	fields := r.Fields
	if fields == nil {
		fields = record.Fields{}
	}
	switch r.Kind {
	case KindDelete:
		return json.Marshal(struct {
			Kind   Kind      `json:"kind"`
			Target record.ID `json:"target"`
		}{r.Kind, r.Target})
	case KindCreate:
		return json.Marshal(struct {
			Kind   Kind          `json:"kind"`
			Fields record.Fields `json:"fields"`
		}{r.Kind, fields})
	}
	targets := r.Targets
	if targets == nil {
		targets = []record.ID{}
	}
	return json.Marshal(struct {
		Kind    Kind          `json:"kind"`
		Targets []record.ID   `json:"targets"`
		Fields  record.Fields `json:"fields"`
	}{r.Kind, targets, fields})
}

// DefaultFailureMessage is shown when a collaborator fails without saying why.
func (r Request) DefaultFailureMessage() string {
	switch r.Kind {
	case KindCreate:
		return "Create failed"
	case KindDelete:
		return "Delete failed"
	}
	return "Update failed"
}

func (r Request) SuccessMessage() string {
	switch r.Kind {
	case KindCreate:
		return "Record created successfully"
	case KindDelete:
		return "Record deleted successfully"
	}
	if len(r.Targets) > 1 {
		return "Records updated successfully"
	}
	return "Record updated successfully"
}
