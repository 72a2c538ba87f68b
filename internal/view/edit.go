package view

import (
	"context"
	"fmt"

	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/pkg"
)

func (c *Controller) checkWritable() error {
	if !c.features.RemoteSave {
		return ErrReadOnly
	}
	if c.collaborator == nil {
		return ErrNoCollaborator
	}
	return nil
}

// OpenEdit opens a single-record edit on id, discarding any open overlay.
func (c *Controller) OpenEdit(id record.ID) (Snapshot, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.checkWritable(); err != nil {
		return c.deny("open edit", err)
	}
	rec, ok := c.rs.Find(id)
	if !ok {
		return c.deny("open edit", fmt.Errorf("%w: %s", ErrUnknownRecord, id))
	}
	if err := c.sessions.OpenSingleEdit(id, rec, c.rs.Columns); err != nil {
		return c.deny("open edit", err)
	}
	return c.snapshot(), nil
}

// OpenBulkEdit opens a bulk edit over the current selection.
func (c *Controller) OpenBulkEdit() (Snapshot, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.checkWritable(); err != nil {
		return c.deny("open bulk edit", err)
	}
	if !c.features.BulkEdit {
		return c.deny("open bulk edit", fmt.Errorf("%w: bulk edit", ErrFeatureDisabled))
	}
	if err := c.sessions.OpenBulkEdit(c.selection.IDs(), c.rs.Columns); err != nil {
		return c.deny("open bulk edit", err)
	}
	return c.snapshot(), nil
}

func (c *Controller) OpenCreate() (Snapshot, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.checkWritable(); err != nil {
		return c.deny("open create", err)
	}
	c.sessions.OpenCreate(c.rs.Columns)
	return c.snapshot(), nil
}

// SetEditField merges one value into the open overlay. It reports false
// when the field is not allowed in this session and was dropped.
func (c *Controller) SetEditField(name string, value any) (bool, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	applied, err := c.sessions.SetField(name, value)
	if err != nil {
		pkg.WarnLog("set edit field:", err)
		return false, err
	}
	if !applied {
		pkg.DebugLog("dropped field", name, "from", c.sessions.State(), "overlay")
	}
	return applied, nil
}

func (c *Controller) CancelEdit() Snapshot {
	c.locker.Lock()
	defer c.locker.Unlock()

	c.sessions.Cancel()
	return c.snapshot()
}

// CommitEdit closes the open session and submits its request. The session
// is gone as soon as this returns, whatever the collaborator later says.
func (c *Controller) CommitEdit(ctx context.Context) (*mutation.Pending, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.checkWritable(); err != nil {
		c.deny("commit edit", err)
		return nil, err
	}
	req, err := c.sessions.Commit()
	if err != nil {
		c.deny("commit edit", err)
		return nil, err
	}
	return c.submit(ctx, []mutation.Request{req}), nil
}

// RequestDelete submits a delete for id. The record stays in the view
// until the refresh that follows a successful delete.
func (c *Controller) RequestDelete(ctx context.Context, id record.ID) (*mutation.Pending, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.checkWritable(); err != nil {
		c.deny("delete", err)
		return nil, err
	}
	if _, ok := c.rs.Find(id); !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownRecord, id)
		c.deny("delete", err)
		return nil, err
	}
	return c.submit(ctx, []mutation.Request{mutation.NewDelete(id)}), nil
}

// SaveInline submits draft values typed straight into table cells, one
// update per drafted row. Only editable columns are kept; rows left with
// nothing to save and unknown rows are skipped.
func (c *Controller) SaveInline(ctx context.Context, drafts map[record.ID]record.Fields) (*mutation.Pending, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.checkWritable(); err != nil {
		c.deny("inline save", err)
		return nil, err
	}

	editable := pkg.NewSet[string]()
	for _, col := range c.rs.EditableColumns() {
		editable.Add(col.FieldName)
	}

	reqs := []mutation.Request{}
	for _, id := range pkg.SortedSetKeys(pkg.NewSet(pkg.Map[record.ID, record.Fields](drafts).Keys()...)) {
		if _, ok := c.rs.Find(id); !ok {
			pkg.DebugLog("inline save: skipping unknown row", id)
			continue
		}
		fields := record.Fields{}
		for name, v := range drafts[id] {
			if editable.Has(name) {
				fields.Set(name, v)
			}
		}
		if len(fields) == 0 {
			continue
		}
		reqs = append(reqs, mutation.NewUpdate([]record.ID{id}, fields))
	}

	if len(reqs) == 0 {
		return mutation.Resolved(mutation.Result{OK: true, Message: "Nothing to save"}), nil
	}
	return c.submit(ctx, reqs), nil
}

// deny logs a refused operation; state is left as it was.
func (c *Controller) deny(op string, err error) (Snapshot, error) {
	pkg.WarnLog(op, "refused:", err)
	return c.snapshot(), err
}
