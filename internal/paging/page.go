package paging

import (
	"errors"
	"fmt"

	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/pkg"
)

const DEFAULT_PAGE_SIZE = 10

var ErrInvalidPageSize = errors.New("page size must be greater than 0")

// Page is one derived slice of an ordered sequence.
type Page struct {
	// 1-based and always within [1, max(1, TotalPages)]
	Index      int
	Size       int
	TotalPages int
	Count      int
	// NoData is set when there is nothing to page through, which is
	// different from asking for a page past the end.
	NoData  bool
	Visible []record.Record
}

// Paginate clamps requested into range and slices out that page.
// A non-positive size falls back to DEFAULT_PAGE_SIZE.
func Paginate(records []record.Record, size, requested int) Page {
	if size <= 0 {
		size = DEFAULT_PAGE_SIZE
	}
	count := len(records)
	total := pkg.CeilDiv(count, size)
	index := pkg.Clamp(requested, 1, max(1, total))

	start := (index - 1) * size
	end := min(start+size, count)
	visible := []record.Record{}
	if start < end {
		visible = append(visible, records[start:end]...)
	}

	return Page{
		Index:      index,
		Size:       size,
		TotalPages: total,
		Count:      count,
		NoData:     count == 0,
		Visible:    visible,
	}
}

func (p Page) HasNext() bool     { return p.Index < p.TotalPages }
func (p Page) HasPrevious() bool { return p.Index > 1 }

// Info is the "Page X of Y" caption.
func (p Page) Info() string { return fmt.Sprintf("Page %d of %d", p.Index, p.TotalPages) }
