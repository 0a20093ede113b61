package units

import (
	"math/rand"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

var _ ports.AssignmentResolver = (*AssignmentResolverUnit)(nil)

// AssignmentResolverUnit turns a persisted split plan into the concrete,
// ordered item list one annotator works through.
//
// The annotator's planned IDs (overlap plus unique) are shuffled with a
// source seeded by plan.Seed + annotatorID, so each annotator sees a
// stable personal order in which overlap and unique items are
// indistinguishable. The shuffle happens on the planned ID list before
// resolving against the live dataset: if the dataset has since lost items,
// those IDs drop out without disturbing the relative order of the rest.
//
// Concurrency: the unit is stateless and side-effect free; Resolve is safe
// to call repeatedly and concurrently for any annotators.
type AssignmentResolverUnit struct {
	// name is the unique identifier for this unit instance.
	name string
}

// NewAssignmentResolverUnit creates an AssignmentResolverUnit with the
// given name. The name must be non-empty.
func NewAssignmentResolverUnit(name string) (*AssignmentResolverUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &AssignmentResolverUnit{name: name}, nil
}

// Name returns the unique identifier for this unit instance.
func (aru *AssignmentResolverUnit) Name() string { return aru.name }

// Resolve returns the annotator's items in their personal display order.
// An annotator the plan does not know yields an empty, valid slice; plan
// IDs missing from the live dataset are skipped.
func (aru *AssignmentResolverUnit) Resolve(annotatorID int, plan *domain.SplitPlan, items []domain.Item) []domain.Item {
	ids := plan.AssignedItemIDs(annotatorID)

	rng := rand.New(rand.NewSource(plan.Seed + int64(annotatorID))) // #nosec G404 -- deterministic display order, not security
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	index := domain.IndexItems(items)
	resolved := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := index[id]; ok {
			resolved = append(resolved, item)
		}
	}
	return resolved
}
