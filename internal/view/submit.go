package view

import (
	"context"

	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/pkg"
	"golang.org/x/sync/errgroup"
)

// submit hands reqs to the collaborator on its own goroutine. Callers hold
// the lock; the goroutine takes it again only to refresh and to count.
func (c *Controller) submit(ctx context.Context, reqs []mutation.Request) *mutation.Pending {
	ctx = context.WithoutCancel(ctx)
	p := mutation.NewPending(reqs...)
	c.inflight++
	c.submitted++
	seq := c.submitted
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		defer pkg.LockWrap(c, func() { c.inflight-- })

		var res mutation.Result
		if len(reqs) == 1 {
			res = c.applyOne(ctx, seq, reqs[0])
		} else {
			res = c.applyAll(ctx, seq, reqs)
		}
		if !res.OK {
			pkg.ErrorLog("mutation failed:", res.Message)
		} else {
			pkg.InfoLog(res.Message)
		}
		p.Resolve(res)
	}()
	return p
}

func (c *Controller) applyOne(ctx context.Context, seq uint64, req mutation.Request) mutation.Result {
	reqs := []mutation.Request{req}
	ack, err := c.collaborator.Apply(ctx, req)
	if err != nil {
		return mutation.Failed(reqs, err)
	}
	if err := c.reload(ctx, seq, ack.RecordSet); err != nil {
		res := mutation.Succeeded(reqs, ack)
		res.Err = err
		return res
	}
	return mutation.Succeeded(reqs, ack)
}

// applyAll sends inline saves side by side. One failure fails the batch,
// but the others still run to completion and the view is refreshed once.
func (c *Controller) applyAll(ctx context.Context, seq uint64, reqs []mutation.Request) mutation.Result {
	g := errgroup.Group{}
	for _, req := range reqs {
		g.Go(func() error {
			_, err := c.collaborator.Apply(ctx, req)
			return err
		})
	}
	apply_err := g.Wait()

	if err := c.reload(ctx, seq, nil); err != nil && apply_err == nil {
		res := mutation.Succeeded(reqs, mutation.Ack{Message: "Records updated successfully"})
		res.Err = err
		return res
	}
	if apply_err != nil {
		return mutation.Failed(reqs, apply_err)
	}
	return mutation.Succeeded(reqs, mutation.Ack{Message: "Records updated successfully"})
}

// reload loads rs, or whatever the collaborator fetches when rs is nil.
// A failed fetch leaves the stale data in place. Submissions settle in any
// order, so data from submission seq is dropped once a later submission
// has already refreshed the view.
func (c *Controller) reload(ctx context.Context, seq uint64, rs *record.RecordSet) error {
	if rs == nil {
		var err error
		rs, err = c.collaborator.Fetch(ctx)
		if err != nil {
			pkg.ErrorLog("refresh after mutation:", err)
			return err
		}
	}
	pkg.LockWrap(c, func() {
		if seq < c.refreshed {
			pkg.DebugLog("dropping refresh from submission", seq, "superseded by", c.refreshed)
			return
		}
		c.refreshed = seq
		c.load(rs)
	})
	return nil
}

// Wait blocks until every submitted mutation has settled.
func (c *Controller) Wait() { c.wg.Wait() }
