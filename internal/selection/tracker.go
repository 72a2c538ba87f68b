package selection

import (
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/pkg"
)

// DEFAULT_MIN_BULK is the policy default for how many rows must be selected
// before a bulk edit may open. It is configurable, not a data-model rule.
const DEFAULT_MIN_BULK = 2

// Tracker holds the selected record ids, independent of paging.
type Tracker struct {
	ids     pkg.Set[record.ID]
	MinBulk int
}

func NewTracker(min_bulk int) *Tracker {
	if min_bulk <= 0 {
		min_bulk = DEFAULT_MIN_BULK
	}
	return &Tracker{ids: pkg.NewSet[record.ID](), MinBulk: min_bulk}
}

// Set replaces the selection wholesale.
func (t *Tracker) Set(ids []record.ID) {
	t.ids = pkg.NewSet(ids...)
}

// Prune drops every tracked id not in valid and returns the dropped ids.
func (t *Tracker) Prune(valid []record.ID) []record.ID {
	keep := pkg.NewSet(valid...)
	dropped := []record.ID{}
	for _, id := range pkg.SortedSetKeys(t.ids) {
		if !keep.Has(id) {
			t.ids.Delete(id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

func (t *Tracker) Clear() { t.ids = pkg.NewSet[record.ID]() }

func (t *Tracker) Count() int { return t.ids.Len() }

func (t *Tracker) Has(id record.ID) bool { return t.ids.Has(id) }

// IDs returns the selection sorted, so payloads built from it are stable.
func (t *Tracker) IDs() []record.ID { return pkg.SortedSetKeys(t.ids) }

func (t *Tracker) CanBulkEdit() bool { return t.Count() >= t.MinBulk }
