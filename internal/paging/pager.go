package paging

import "github.com/tobsdb/tdbview/internal/record"

// Pager holds the requested page position and size between recomputes.
type Pager struct {
	index int
	size  int
}

func NewPager(size int) *Pager {
	if size <= 0 {
		size = DEFAULT_PAGE_SIZE
	}
	return &Pager{index: 1, size: size}
}

func (p *Pager) Index() int { return p.index }
func (p *Pager) Size() int  { return p.size }

func (p *Pager) Reset() { p.index = 1 }

// Next moves forward only while index < total. It reports whether it moved.
func (p *Pager) Next(total int) bool {
	if p.index >= total {
		return false
	}
	p.index++
	return true
}

// Previous moves back only while index > 1. It reports whether it moved.
func (p *Pager) Previous() bool {
	if p.index <= 1 {
		return false
	}
	p.index--
	return true
}

// SetSize changes the page size and rewinds to the first page.
func (p *Pager) SetSize(size int) error {
	if size <= 0 {
		return ErrInvalidPageSize
	}
	p.size = size
	p.index = 1
	return nil
}

// Apply paginates records at the current position and stores the clamped
// index back, so the pager never points past the last page.
func (p *Pager) Apply(records []record.Record) Page {
	page := Paginate(records, p.size, p.index)
	p.index = page.Index
	return page
}
