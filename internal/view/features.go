package view

import (
	"errors"

	"github.com/tobsdb/tdbview/internal/record"
)

var (
	ErrReadOnly        = errors.New("table is read-only")
	ErrFeatureDisabled = errors.New("feature is disabled")
	ErrUnknownRecord   = errors.New("record not found")
	ErrNoCollaborator  = errors.New("no persistence collaborator configured")
)

// Features switches the optional capabilities of one table.
//
//   - BulkEdit allows editing several selected rows at once.
//   - Navigation allows opening a record's own page through the Navigator.
//   - RemoteSave allows any edit or delete at all; without it the table is
//     a read-only viewer.
type Features struct {
	BulkEdit   bool `json:"bulk_edit" yaml:"bulk_edit"`
	Navigation bool `json:"navigation" yaml:"navigation"`
	RemoteSave bool `json:"remote_save" yaml:"remote_save"`
}

func AllFeatures() Features { return Features{BulkEdit: true, Navigation: true, RemoteSave: true} }

// Navigator opens a record outside the table.
type Navigator interface {
	OpenRecord(id record.ID) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(id record.ID) error

func (f NavigatorFunc) OpenRecord(id record.ID) error { return f(id) }

type RowAction string

const (
	RowActionView   RowAction = "view"
	RowActionEdit   RowAction = "edit"
	RowActionDelete RowAction = "delete"
)

func (f Features) RowActions() []RowAction {
	actions := []RowAction{}
	if f.Navigation {
		actions = append(actions, RowActionView)
	}
	if f.RemoteSave {
		actions = append(actions, RowActionEdit, RowActionDelete)
	}
	return actions
}
