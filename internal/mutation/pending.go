package mutation

import (
	"context"
	"sync"
)

// Pending is a submitted request whose result may not be in yet.
type Pending struct {
	Requests []Request

	once   sync.Once
	done   chan struct{}
	result Result
}

func NewPending(reqs ...Request) *Pending {
	return &Pending{Requests: reqs, done: make(chan struct{})}
}

// Resolved is a Pending that is already settled.
func Resolved(res Result) *Pending {
	p := NewPending(res.Requests...)
	p.Resolve(res)
	return p
}

// Resolve settles p. Only the first call has any effect.
func (p *Pending) Resolve(res Result) {
	p.once.Do(func() {
		p.result = res
		close(p.done)
	})
}

func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until p settles or ctx ends.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return Result{Requests: p.Requests}, ctx.Err()
	}
}
