package view

import (
	"github.com/tobsdb/tdbview/internal/paging"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/session"
)

// Snapshot is what a consumer renders. It shares nothing with the
// controller, so it can be kept after the next call.
type Snapshot struct {
	State   ViewState       `json:"state" yaml:"state"`
	Page    paging.Page     `json:"page" yaml:"page"`
	Columns []record.Column `json:"columns" yaml:"columns"`
	IDField string          `json:"id_field" yaml:"id_field"`

	Total    int `json:"total" yaml:"total"`
	Filtered int `json:"filtered" yaml:"filtered"`

	Selection   []record.ID `json:"selection" yaml:"selection"`
	CanBulkEdit bool        `json:"can_bulk_edit" yaml:"can_bulk_edit"`

	Session    session.Snapshot `json:"session" yaml:"session"`
	RowActions []RowAction      `json:"row_actions" yaml:"row_actions"`
	Submitting int              `json:"submitting" yaml:"submitting"`
}

// Visible is shorthand for the records on the current page.
func (s Snapshot) Visible() []record.Record { return s.Page.Visible }

func (c *Controller) snapshot() Snapshot {
	page := c.page
	page.Visible = make([]record.Record, len(c.page.Visible))
	for i, r := range c.page.Visible {
		page.Visible[i] = record.Clone(r)
	}

	return Snapshot{
		State: ViewState{
			SearchTerm:    c.term,
			SortField:     c.field,
			SortDirection: c.dir,
			PageIndex:     page.Index,
			PageSize:      c.pager.Size(),
		},
		Page:        page,
		Columns:     append([]record.Column{}, c.rs.Columns...),
		IDField:     c.rs.IDField,
		Total:       c.rs.Len(),
		Filtered:    len(c.filtered),
		Selection:   c.selection.IDs(),
		CanBulkEdit: c.features.BulkEdit && c.features.RemoteSave && c.selection.CanBulkEdit(),
		Session:     c.sessions.Snapshot(),
		RowActions:  c.features.RowActions(),
		Submitting:  c.inflight,
	}
}
