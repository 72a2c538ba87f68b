package view

import (
	"context"
	"strings"
	"sync"

	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/paging"
	"github.com/tobsdb/tdbview/internal/query"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/selection"
	"github.com/tobsdb/tdbview/internal/session"
	"github.com/tobsdb/tdbview/pkg"
)

type ViewState struct {
	SearchTerm    string          `json:"search_term" yaml:"search_term"`
	SortField     string          `json:"sort_field,omitempty" yaml:"sort_field,omitempty"`
	SortDirection query.Direction `json:"sort_direction" yaml:"sort_direction"`
	PageIndex     int             `json:"page_index" yaml:"page_index"`
	PageSize      int             `json:"page_size" yaml:"page_size"`
}

type Options struct {
	Features     Features
	Navigator    Navigator
	Collaborator mutation.Collaborator

	IDField    string
	PageSize   int
	MinBulk    int
	TrimSearch bool
}

// Controller derives the visible slice of a RecordSet and tracks the edit
// overlay. Every public method runs to completion under one lock, so a
// reader never sees a half-recomputed view.
type Controller struct {
	locker sync.RWMutex

	features     Features
	navigator    Navigator
	collaborator mutation.Collaborator
	trim_search  bool

	rs       *record.RecordSet
	term     string
	field    string
	dir      query.Direction
	filtered []record.Record
	ordered  []record.Record
	page     paging.Page

	pager     *paging.Pager
	selection *selection.Tracker
	sessions  *session.Manager

	inflight int
	wg       sync.WaitGroup
	// sequence numbers of the last submission and of the submission
	// whose data the view currently shows
	submitted uint64
	refreshed uint64
}

func NewController(opts Options) *Controller {
	c := &Controller{
		features:     opts.Features,
		navigator:    opts.Navigator,
		collaborator: opts.Collaborator,
		trim_search:  opts.TrimSearch,
		rs:           record.Empty(opts.IDField),
		dir:          query.DirectionAsc,
		pager:        paging.NewPager(opts.PageSize),
		selection:    selection.NewTracker(opts.MinBulk),
		sessions:     session.NewManager(opts.MinBulk),
	}
	c.recompute()
	return c
}

func (c *Controller) GetLocker() *sync.RWMutex { return &c.locker }

func (c *Controller) Features() Features { return c.features }

// Load replaces the RecordSet, drops selected ids that are no longer in the
// filtered view and starts again from page 1.
func (c *Controller) Load(rs *record.RecordSet) Snapshot {
	c.locker.Lock()
	defer c.locker.Unlock()
	c.load(rs)
	return c.snapshot()
}

// load expects the write lock to be held.
func (c *Controller) load(rs *record.RecordSet) {
	if rs == nil {
		rs = record.Empty(c.rs.IDField)
	}
	c.rs = rs
	c.recompute()
}

func (c *Controller) Search(term string) Snapshot {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.trim_search {
		term = strings.TrimSpace(term)
	}
	c.term = term
	c.recompute()
	return c.snapshot()
}

// Sort orders by field; an empty field restores the loaded order.
func (c *Controller) Sort(field string, dir query.Direction) Snapshot {
	c.locker.Lock()
	defer c.locker.Unlock()

	if dir != query.DirectionDesc {
		dir = query.DirectionAsc
	}
	c.field = field
	c.dir = dir
	c.recompute()
	return c.snapshot()
}

func (c *Controller) SetPageSize(n int) (Snapshot, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.pager.SetSize(n); err != nil {
		pkg.WarnLog("set page size:", err)
		return c.snapshot(), err
	}
	c.recompute()
	return c.snapshot(), nil
}

func (c *Controller) NextPage() Snapshot {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.pager.Next(c.page.TotalPages) {
		c.page = c.pager.Apply(c.ordered)
	}
	return c.snapshot()
}

func (c *Controller) PreviousPage() Snapshot {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.pager.Previous() {
		c.page = c.pager.Apply(c.ordered)
	}
	return c.snapshot()
}

// SelectRows replaces the selection. Ids outside the filtered view are
// ignored.
func (c *Controller) SelectRows(ids []record.ID) Snapshot {
	c.locker.Lock()
	defer c.locker.Unlock()

	visible := pkg.NewSet(c.rs.IDs(c.filtered)...)
	c.selection.Set(pkg.Filter(ids, visible.Has))
	return c.snapshot()
}

func (c *Controller) OpenRecord(id record.ID) error {
	c.locker.RLock()
	defer c.locker.RUnlock()

	if !c.features.Navigation || c.navigator == nil {
		return ErrFeatureDisabled
	}
	if _, ok := c.rs.Find(id); !ok {
		return ErrUnknownRecord
	}
	return c.navigator.OpenRecord(id)
}

// Refresh asks the collaborator for fresh data and loads it.
func (c *Controller) Refresh(ctx context.Context) (Snapshot, error) {
	if c.collaborator == nil {
		return c.Snapshot(), ErrNoCollaborator
	}
	rs, err := c.collaborator.Fetch(ctx)
	if err != nil {
		pkg.ErrorLog("refresh:", err)
		return c.Snapshot(), err
	}
	return c.Load(rs), nil
}

func (c *Controller) Snapshot() Snapshot {
	c.locker.RLock()
	defer c.locker.RUnlock()
	return c.snapshot()
}

// recompute runs filter -> sort -> paginate from page 1 and prunes the
// selection against the new filtered ids. Callers hold the lock.
func (c *Controller) recompute() {
	c.filtered = query.Filter(c.rs.Records, c.term)
	c.ordered = query.Sort(c.filtered, c.field, c.dir)
	c.pager.Reset()
	c.page = c.pager.Apply(c.ordered)

	if dropped := c.selection.Prune(c.rs.IDs(c.filtered)); len(dropped) > 0 {
		pkg.DebugLog("pruned stale selection", dropped)
	}
	pkg.DebugLog("recomputed view:", len(c.rs.Records), "records,", len(c.filtered), "filtered,", c.page.Info())
}
