package domain

import (
	"fmt"
	"slices"
	"time"
)

// PlanConfig captures the parameters a split plan was generated from.
// It is embedded in the persisted plan so a stored plan remains
// self-describing even after config.json changes.
type PlanConfig struct {
	// NumAnnotators is the number of annotators items are distributed over.
	NumAnnotators int `json:"num_annotators" validate:"required,min=1"`

	// OverlapPercentage is the share of items, in percent, annotated by
	// multiple annotators for agreement measurement.
	OverlapPercentage float64 `json:"overlap_percentage" validate:"min=0,max=100"`

	// OverlapAnnotators is how many annotators each overlap item goes to.
	// Values above NumAnnotators are clamped during planning.
	OverlapAnnotators int `json:"overlap_annotators" validate:"min=1"`

	// Seed drives every random choice the planner makes. Identical items
	// and config with the same seed reproduce the plan bit for bit.
	Seed int64 `json:"seed"`
}

// SplitPlan is the persisted, frozen assignment of items to annotators.
// A plan is generated exactly once per dataset and reused afterwards;
// changing config.json does not move items between annotators.
type SplitPlan struct {
	// OverlapItemIDs is the sorted set of item IDs annotated by multiple
	// annotators.
	OverlapItemIDs []int `json:"overlap_item_ids"`

	// OverlapAssignments maps each overlap item ID to the sorted annotator
	// IDs assigned to it.
	OverlapAssignments map[int][]int `json:"overlap_assignments"`

	// UniqueAssignments maps each annotator ID to the item IDs only that
	// annotator sees, in planned order.
	UniqueAssignments map[int][]int `json:"unique_assignments"`

	// Seed is the seed the plan was generated with; per-annotator display
	// shuffles derive from it.
	Seed int64 `json:"seed"`

	// Config is the generation-time parameter snapshot.
	Config PlanConfig `json:"config"`

	// GeneratedAt is the UTC time the plan was created.
	GeneratedAt time.Time `json:"generated_at"`
}

// IsOverlap reports whether the item belongs to the plan's overlap set.
func (p *SplitPlan) IsOverlap(itemID int) bool {
	return slices.Contains(p.OverlapItemIDs, itemID)
}

// AssignedOverlapIDs returns the overlap item IDs assigned to the
// annotator, in ascending item-ID order.
func (p *SplitPlan) AssignedOverlapIDs(annotatorID int) []int {
	ids := make([]int, 0)
	for _, itemID := range p.OverlapItemIDs {
		if slices.Contains(p.OverlapAssignments[itemID], annotatorID) {
			ids = append(ids, itemID)
		}
	}
	return ids
}

// AssignedItemIDs returns every item ID planned for the annotator: the
// annotator's overlap items in ascending item-ID order followed by the
// annotator's unique items in planned order. Unknown annotators get an
// empty slice.
func (p *SplitPlan) AssignedItemIDs(annotatorID int) []int {
	ids := p.AssignedOverlapIDs(annotatorID)
	return append(ids, p.UniqueAssignments[annotatorID]...)
}

// Validate checks the plan's partition invariant against the item universe
// it was generated over: every item lands either in the overlap set with
// the configured number of annotators, or in exactly one annotator's
// unique list. All failures wrap ErrInvalidSplitState.
func (p *SplitPlan) Validate(items []Item) error {
	n := p.Config.NumAnnotators
	if n < 1 {
		return fmt.Errorf("%w: plan has %d annotators", ErrInvalidSplitState, n)
	}

	perItem := min(p.Config.OverlapAnnotators, n)
	overlap := make(map[int]bool, len(p.OverlapItemIDs))
	for i, itemID := range p.OverlapItemIDs {
		if i > 0 && itemID <= p.OverlapItemIDs[i-1] {
			return fmt.Errorf("%w: overlap item IDs not strictly ascending at index %d", ErrInvalidSplitState, i)
		}
		overlap[itemID] = true

		assigned := p.OverlapAssignments[itemID]
		if len(assigned) != perItem {
			return fmt.Errorf("%w: overlap item %d assigned to %d annotators, want %d",
				ErrInvalidSplitState, itemID, len(assigned), perItem)
		}
		for j, annotatorID := range assigned {
			if annotatorID < 0 || annotatorID >= n {
				return fmt.Errorf("%w: overlap item %d assigned to unknown annotator %d",
					ErrInvalidSplitState, itemID, annotatorID)
			}
			if j > 0 && annotatorID <= assigned[j-1] {
				return fmt.Errorf("%w: overlap item %d annotator IDs not strictly ascending",
					ErrInvalidSplitState, itemID)
			}
		}
	}
	if len(p.OverlapAssignments) != len(p.OverlapItemIDs) {
		return fmt.Errorf("%w: %d overlap assignments for %d overlap items",
			ErrInvalidSplitState, len(p.OverlapAssignments), len(p.OverlapItemIDs))
	}

	uniqueOwner := make(map[int]int, len(items))
	for annotatorID, ids := range p.UniqueAssignments {
		if annotatorID < 0 || annotatorID >= n {
			return fmt.Errorf("%w: unique assignments for unknown annotator %d", ErrInvalidSplitState, annotatorID)
		}
		for _, itemID := range ids {
			if overlap[itemID] {
				return fmt.Errorf("%w: item %d is both overlap and unique", ErrInvalidSplitState, itemID)
			}
			if owner, dup := uniqueOwner[itemID]; dup {
				return fmt.Errorf("%w: item %d uniquely assigned to annotators %d and %d",
					ErrInvalidSplitState, itemID, owner, annotatorID)
			}
			uniqueOwner[itemID] = annotatorID
		}
	}

	for _, item := range items {
		if _, ok := uniqueOwner[item.ID]; !ok && !overlap[item.ID] {
			return fmt.Errorf("%w: item %d is unassigned", ErrInvalidSplitState, item.ID)
		}
	}
	if want := len(items) - len(p.OverlapItemIDs); len(uniqueOwner) != want {
		return fmt.Errorf("%w: %d unique items planned, want %d", ErrInvalidSplitState, len(uniqueOwner), want)
	}
	return nil
}
