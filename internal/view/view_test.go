package view_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/query"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/session"
	. "github.com/tobsdb/tdbview/internal/view"
	"gotest.tools/assert"
)

var testColumns = []record.Column{
	{FieldName: "Name", Label: "Account Name"},
	{FieldName: "Phone", Label: "Phone", Editable: true},
	{FieldName: "Industry", Label: "Industry", Editable: true},
}

func newTestRecordSet(n int) *record.RecordSet {
	records := make([]record.Record, n)
	for i := range n {
		records[i] = record.Record{
			"Id":   fmt.Sprintf("%03d", i+1),
			"Name": fmt.Sprintf("Account %03d", i+1),
		}
	}
	return record.NewRecordSet("Id", records, testColumns)
}

type testCollaborator struct {
	mu      sync.Mutex
	applied []mutation.Request
	fetches int
	fail    error
	data    *record.RecordSet
	// release, when set, holds Apply until it is closed
	release chan struct{}
}

func (tc *testCollaborator) Apply(ctx context.Context, req mutation.Request) (mutation.Ack, error) {
	if tc.release != nil {
		<-tc.release
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.applied = append(tc.applied, req)
	if tc.fail != nil {
		return mutation.Ack{}, tc.fail
	}
	return mutation.Ack{}, nil
}

func (tc *testCollaborator) Fetch(ctx context.Context) (*record.RecordSet, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.fetches++
	return tc.data, nil
}

// gatedCollaborator deletes from its own copy of the rows at once but holds
// each acknowledgement until that target's gate is closed.
type gatedCollaborator struct {
	mu      sync.Mutex
	records []record.Record
	gates   map[record.ID]chan struct{}
	reached chan record.ID
}

func newGatedCollaborator(rs *record.RecordSet, ids ...record.ID) *gatedCollaborator {
	gc := &gatedCollaborator{
		records: append([]record.Record{}, rs.Records...),
		gates:   map[record.ID]chan struct{}{},
		reached: make(chan record.ID, len(ids)),
	}
	for _, id := range ids {
		gc.gates[id] = make(chan struct{})
	}
	return gc
}

func (gc *gatedCollaborator) Apply(ctx context.Context, req mutation.Request) (mutation.Ack, error) {
	gc.mu.Lock()
	kept := []record.Record{}
	for _, r := range gc.records {
		if r["Id"] != req.Target.String() {
			kept = append(kept, r)
		}
	}
	gc.records = kept
	rs := record.NewRecordSet("Id", kept, testColumns)
	gate := gc.gates[req.Target]
	gc.mu.Unlock()

	gc.reached <- req.Target
	<-gate
	return mutation.Ack{RecordSet: rs}, nil
}

func (gc *gatedCollaborator) Fetch(ctx context.Context) (*record.RecordSet, error) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return record.NewRecordSet("Id", gc.records, testColumns), nil
}

func newTestController(tc *testCollaborator, features Features) *Controller {
	c := NewController(Options{Features: features, Collaborator: tc, IDField: "Id", PageSize: 10, MinBulk: 2})
	return c
}

func TestPaging(t *testing.T) {
	c := newTestController(&testCollaborator{}, AllFeatures())
	snap := c.Load(newTestRecordSet(25))
	assert.Equal(t, snap.Page.TotalPages, 3)
	assert.Equal(t, snap.Page.Index, 1)

	c.NextPage()
	snap = c.NextPage()
	assert.Equal(t, snap.Page.Index, 3)
	assert.Equal(t, len(snap.Visible()), 5)

	snap = c.NextPage()
	assert.Equal(t, snap.Page.Index, 3)

	snap = c.PreviousPage()
	assert.Equal(t, snap.State.PageIndex, 2)

	t.Run("page size change starts over", func(t *testing.T) {
		snap, err := c.SetPageSize(20)
		assert.NilError(t, err)
		assert.Equal(t, snap.Page.Index, 1)
		assert.Equal(t, snap.Page.TotalPages, 2)

		_, err = c.SetPageSize(0)
		assert.Assert(t, err != nil)
		assert.Equal(t, c.Snapshot().State.PageSize, 20)
	})

	t.Run("empty data", func(t *testing.T) {
		snap := c.Load(nil)
		assert.Assert(t, snap.Page.NoData)
		assert.Equal(t, snap.Page.Index, 1)
		assert.Equal(t, c.NextPage().Page.Index, 1)
	})
}

func TestSearchAndSort(t *testing.T) {
	c := newTestController(&testCollaborator{}, AllFeatures())
	c.Load(record.NewRecordSet("Id", []record.Record{
		{"Id": "1", "Name": "Acme Corp"},
		{"Id": "2", "Name": "Globex"},
	}, testColumns))

	snap := c.Search("acme")
	assert.Equal(t, snap.Filtered, 1)
	assert.Equal(t, snap.Total, 2)
	assert.Equal(t, snap.Visible()[0]["Name"], "Acme Corp")

	snap = c.Search("")
	assert.Equal(t, snap.Filtered, 2)

	snap = c.Sort("Name", query.DirectionDesc)
	assert.Equal(t, snap.Visible()[0]["Name"], "Globex")
	assert.Equal(t, snap.State.SortField, "Name")

	snap = c.Sort("", query.DirectionAsc)
	assert.Equal(t, snap.Visible()[0]["Name"], "Acme Corp")

	t.Run("snapshots are detached", func(t *testing.T) {
		snap := c.Snapshot()
		snap.Visible()[0]["Name"] = "changed"
		assert.Equal(t, c.Snapshot().Visible()[0]["Name"], "Acme Corp")
	})
}

func TestSelection(t *testing.T) {
	c := newTestController(&testCollaborator{}, AllFeatures())
	c.Load(newTestRecordSet(5))

	snap := c.SelectRows([]record.ID{"001", "002", "999"})
	assert.DeepEqual(t, snap.Selection, []record.ID{"001", "002"})
	assert.Assert(t, snap.CanBulkEdit)

	snap = c.Search("Account 001")
	assert.DeepEqual(t, snap.Selection, []record.ID{"001"})
	assert.Assert(t, !snap.CanBulkEdit)

	t.Run("reload prunes", func(t *testing.T) {
		c.Search("")
		c.SelectRows([]record.ID{"001", "005"})
		snap := c.Load(newTestRecordSet(3))
		assert.DeepEqual(t, snap.Selection, []record.ID{"001"})
	})
}

func TestEditSessions(t *testing.T) {
	t.Run("bulk edit needs two rows", func(t *testing.T) {
		c := newTestController(&testCollaborator{}, AllFeatures())
		c.Load(newTestRecordSet(3))
		c.SelectRows([]record.ID{"001"})

		snap, err := c.OpenBulkEdit()
		assert.Assert(t, errors.Is(err, session.ErrBulkSelection))
		assert.Equal(t, snap.Session.State, session.StateClosed)
	})

	t.Run("cancel emits nothing", func(t *testing.T) {
		tc := &testCollaborator{}
		c := newTestController(tc, AllFeatures())
		c.Load(newTestRecordSet(3))

		_, err := c.OpenEdit("001")
		assert.NilError(t, err)
		_, err = c.SetEditField("Phone", "555-0100")
		assert.NilError(t, err)
		snap := c.CancelEdit()
		assert.Equal(t, snap.Session.State, session.StateClosed)

		c.Wait()
		assert.Equal(t, len(tc.applied), 0)
		_, err = c.CommitEdit(context.Background())
		assert.Equal(t, err, session.ErrNoSession)
	})

	t.Run("commit sends editable fields only", func(t *testing.T) {
		tc := &testCollaborator{}
		c := newTestController(tc, AllFeatures())
		c.Load(newTestRecordSet(3))
		tc.data = newTestRecordSet(3)

		c.OpenEdit("002")
		applied, _ := c.SetEditField("Phone", "555-0100")
		assert.Assert(t, applied)
		applied, _ = c.SetEditField("Name", "Renamed")
		assert.Assert(t, !applied)

		p, err := c.CommitEdit(context.Background())
		assert.NilError(t, err)
		assert.Equal(t, c.Snapshot().Session.State, session.StateClosed)

		res, err := p.Wait(context.Background())
		assert.NilError(t, err)
		assert.Assert(t, res.OK)
		assert.Equal(t, res.Message, "Record updated successfully")
		assert.DeepEqual(t, tc.applied, []mutation.Request{{
			Kind:    mutation.KindUpdate,
			Targets: []record.ID{"002"},
			Fields:  record.Fields{"Phone": "555-0100"},
		}})
		assert.Equal(t, tc.fetches, 1)
	})

	t.Run("bulk commit", func(t *testing.T) {
		tc := &testCollaborator{data: newTestRecordSet(3)}
		c := newTestController(tc, AllFeatures())
		c.Load(newTestRecordSet(3))
		c.SelectRows([]record.ID{"003", "001"})

		_, err := c.OpenBulkEdit()
		assert.NilError(t, err)
		c.SetEditField("Industry", "Energy")
		p, err := c.CommitEdit(context.Background())
		assert.NilError(t, err)

		res, _ := p.Wait(context.Background())
		assert.Equal(t, res.Message, "Records updated successfully")
		assert.DeepEqual(t, tc.applied[0].Targets, []record.ID{"001", "003"})
	})

	t.Run("unknown record", func(t *testing.T) {
		c := newTestController(&testCollaborator{}, AllFeatures())
		c.Load(newTestRecordSet(1))
		_, err := c.OpenEdit("404")
		assert.Assert(t, errors.Is(err, ErrUnknownRecord))
	})
}

func TestMutationResults(t *testing.T) {
	t.Run("failure message is forwarded", func(t *testing.T) {
		tc := &testCollaborator{fail: mutation.NewFailure(400, "FIELD_CUSTOM_VALIDATION_EXCEPTION")}
		c := newTestController(tc, AllFeatures())
		c.Load(newTestRecordSet(2))

		c.OpenCreate()
		c.SetEditField("Phone", "1")
		p, err := c.CommitEdit(context.Background())
		assert.NilError(t, err)

		res, _ := p.Wait(context.Background())
		assert.Assert(t, !res.OK)
		assert.Equal(t, res.Message, "FIELD_CUSTOM_VALIDATION_EXCEPTION")
		assert.Equal(t, res.Status, 400)
		assert.Equal(t, tc.fetches, 0)
		assert.Equal(t, c.Snapshot().Session.State, session.StateClosed)
	})

	t.Run("empty failure falls back", func(t *testing.T) {
		tc := &testCollaborator{fail: errors.New("")}
		c := newTestController(tc, AllFeatures())
		c.Load(newTestRecordSet(2))

		p, err := c.RequestDelete(context.Background(), "001")
		assert.NilError(t, err)
		res, _ := p.Wait(context.Background())
		assert.Equal(t, res.Message, "Delete failed")
	})

	t.Run("delete refreshes before resolving", func(t *testing.T) {
		tc := &testCollaborator{data: newTestRecordSet(1), release: make(chan struct{})}
		c := newTestController(tc, AllFeatures())
		c.Load(newTestRecordSet(2))

		p, err := c.RequestDelete(context.Background(), "002")
		assert.NilError(t, err)
		assert.Equal(t, c.Snapshot().Total, 2)
		assert.Equal(t, c.Snapshot().Submitting, 1)

		close(tc.release)
		res, _ := p.Wait(context.Background())
		assert.Assert(t, res.OK)
		assert.Equal(t, c.Snapshot().Total, 1)

		c.Wait()
		assert.Equal(t, c.Snapshot().Submitting, 0)
	})

	t.Run("late acknowledgement does not roll back the view", func(t *testing.T) {
		gc := newGatedCollaborator(newTestRecordSet(4), "001", "002")
		c := NewController(Options{Features: AllFeatures(), Collaborator: gc, IDField: "Id", PageSize: 10})
		c.Load(newTestRecordSet(4))

		first, err := c.RequestDelete(context.Background(), "001")
		assert.NilError(t, err)
		assert.Equal(t, <-gc.reached, record.ID("001"))
		second, err := c.RequestDelete(context.Background(), "002")
		assert.NilError(t, err)
		assert.Equal(t, <-gc.reached, record.ID("002"))

		close(gc.gates["002"])
		res, _ := second.Wait(context.Background())
		assert.Assert(t, res.OK)
		assert.Equal(t, c.Snapshot().Total, 2)

		close(gc.gates["001"])
		res, _ = first.Wait(context.Background())
		assert.Assert(t, res.OK)
		c.Wait()
		assert.Equal(t, c.Snapshot().Total, 2)
		for _, r := range c.Snapshot().Visible() {
			assert.Assert(t, r["Id"] != "002")
		}
	})

	t.Run("cancelled context does not stop the request", func(t *testing.T) {
		tc := &testCollaborator{data: newTestRecordSet(2)}
		c := newTestController(tc, AllFeatures())
		c.Load(newTestRecordSet(2))

		ctx, cancel := context.WithCancel(context.Background())
		p, _ := c.RequestDelete(ctx, "001")
		cancel()
		res, err := p.Wait(context.Background())
		assert.NilError(t, err)
		assert.Assert(t, res.OK)
	})

	t.Run("inline save", func(t *testing.T) {
		tc := &testCollaborator{data: newTestRecordSet(3)}
		c := newTestController(tc, AllFeatures())
		c.Load(newTestRecordSet(3))

		p, err := c.SaveInline(context.Background(), map[record.ID]record.Fields{
			"001": {"Phone": "1", "Name": "dropped"},
			"002": {"Name": "dropped"},
			"003": {"Industry": "Retail"},
			"999": {"Phone": "2"},
		})
		assert.NilError(t, err)
		res, _ := p.Wait(context.Background())
		assert.Assert(t, res.OK)
		assert.Equal(t, len(tc.applied), 2)
		assert.Equal(t, tc.fetches, 1)

		p, err = c.SaveInline(context.Background(), nil)
		assert.NilError(t, err)
		res, _ = p.Wait(context.Background())
		assert.Assert(t, res.OK)
	})
}

func TestFeatures(t *testing.T) {
	t.Run("read only", func(t *testing.T) {
		c := newTestController(&testCollaborator{}, Features{Navigation: true})
		c.Load(newTestRecordSet(2))

		_, err := c.OpenEdit("001")
		assert.Equal(t, err, ErrReadOnly)
		_, err = c.RequestDelete(context.Background(), "001")
		assert.Equal(t, err, ErrReadOnly)
		assert.DeepEqual(t, c.Snapshot().RowActions, []RowAction{RowActionView})
	})

	t.Run("bulk edit disabled", func(t *testing.T) {
		c := newTestController(&testCollaborator{}, Features{RemoteSave: true})
		c.Load(newTestRecordSet(2))
		snap := c.SelectRows([]record.ID{"001", "002"})
		assert.Assert(t, !snap.CanBulkEdit)
		_, err := c.OpenBulkEdit()
		assert.Assert(t, errors.Is(err, ErrFeatureDisabled))
	})

	t.Run("navigation", func(t *testing.T) {
		opened := []record.ID{}
		c := NewController(Options{
			Features:  AllFeatures(),
			Navigator: NavigatorFunc(func(id record.ID) error { opened = append(opened, id); return nil }),
			IDField:   "Id",
		})
		c.Load(newTestRecordSet(2))
		assert.NilError(t, c.OpenRecord("002"))
		assert.Assert(t, errors.Is(c.OpenRecord("404"), ErrUnknownRecord))
		assert.DeepEqual(t, opened, []record.ID{"002"})

		c = NewController(Options{IDField: "Id"})
		assert.Equal(t, c.OpenRecord("002"), ErrFeatureDisabled)
	})
}
