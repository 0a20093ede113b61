package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
)

func resolverPlan() *domain.SplitPlan {
	return &domain.SplitPlan{
		OverlapItemIDs: []int{2, 5},
		OverlapAssignments: map[int][]int{
			2: {0, 1},
			5: {1, 2},
		},
		UniqueAssignments: map[int][]int{
			0: {1, 7, 9},
			1: {3},
			2: {4, 6},
		},
		Seed: 42,
		Config: domain.PlanConfig{
			NumAnnotators: 3, OverlapPercentage: 20, OverlapAnnotators: 2, Seed: 42,
		},
	}
}

func TestNewAssignmentResolverUnit(t *testing.T) {
	t.Run("valid name", func(t *testing.T) {
		unit, err := NewAssignmentResolverUnit("assignment_resolver")

		require.NoError(t, err)
		assert.Equal(t, "assignment_resolver", unit.Name())
	})

	t.Run("empty name", func(t *testing.T) {
		unit, err := NewAssignmentResolverUnit("")

		assert.ErrorIs(t, err, ErrEmptyUnitName)
		assert.Nil(t, unit)
	})
}

func TestAssignmentResolverUnit_ResolveCoversPlannedItems(t *testing.T) {
	resolver, err := NewAssignmentResolverUnit("assignment_resolver")
	require.NoError(t, err)

	plan := resolverPlan()
	items := planItems(10)

	for annotatorID := 0; annotatorID < 3; annotatorID++ {
		resolved := resolver.Resolve(annotatorID, plan, items)

		resolvedIDs := make([]int, len(resolved))
		for i, item := range resolved {
			resolvedIDs[i] = item.ID
		}
		assert.ElementsMatch(t, plan.AssignedItemIDs(annotatorID), resolvedIDs,
			"Annotator %d should see exactly the planned items", annotatorID)
	}
}

func TestAssignmentResolverUnit_ResolveStableOrder(t *testing.T) {
	resolver, err := NewAssignmentResolverUnit("assignment_resolver")
	require.NoError(t, err)

	plan := resolverPlan()
	items := planItems(10)

	first := resolver.Resolve(0, plan, items)
	second := resolver.Resolve(0, plan, items)

	assert.Equal(t, first, second, "Repeated calls must keep the same order")
}

func TestAssignmentResolverUnit_ResolveSkipsMissingItemsStably(t *testing.T) {
	resolver, err := NewAssignmentResolverUnit("assignment_resolver")
	require.NoError(t, err)

	plan := resolverPlan()
	items := planItems(10)

	full := resolver.Resolve(0, plan, items)
	require.NotEmpty(t, full)

	// Drop item 7 from the live dataset; the remaining items must keep
	// their relative order from the full resolution.
	reduced := make([]domain.Item, 0, len(items)-1)
	for _, item := range items {
		if item.ID != 7 {
			reduced = append(reduced, item)
		}
	}
	want := make([]domain.Item, 0, len(full)-1)
	for _, item := range full {
		if item.ID != 7 {
			want = append(want, item)
		}
	}

	got := resolver.Resolve(0, plan, reduced)
	assert.Equal(t, want, got, "Missing IDs must drop out without reshuffling the rest")
}

func TestAssignmentResolverUnit_ResolveUnknownAnnotator(t *testing.T) {
	resolver, err := NewAssignmentResolverUnit("assignment_resolver")
	require.NoError(t, err)

	resolved := resolver.Resolve(9, resolverPlan(), planItems(10))

	assert.NotNil(t, resolved, "Unknown annotators get an empty slice, not nil")
	assert.Empty(t, resolved, "Unknown annotators have no assignments")
}

func TestAssignmentResolverUnit_ResolveMatchesGeneratedPlan(t *testing.T) {
	planner, err := NewSplitPlannerUnit("split_planner")
	require.NoError(t, err)
	resolver, err := NewAssignmentResolverUnit("assignment_resolver")
	require.NoError(t, err)

	items := planItems(20)
	cfg := domain.PlanConfig{NumAnnotators: 3, OverlapPercentage: 25, OverlapAnnotators: 2, Seed: 11}
	plan, err := planner.Generate(context.Background(), items, cfg)
	require.NoError(t, err)

	// Every item is seen by someone, and unique items by exactly one.
	seenBy := make(map[int]int, len(items))
	for annotatorID := 0; annotatorID < cfg.NumAnnotators; annotatorID++ {
		for _, item := range resolver.Resolve(annotatorID, plan, items) {
			seenBy[item.ID]++
		}
	}
	require.Len(t, seenBy, len(items), "Every item must be assigned")
	for _, item := range items {
		if plan.IsOverlap(item.ID) {
			assert.Equal(t, 2, seenBy[item.ID], "Overlap item %d should be seen by two annotators", item.ID)
		} else {
			assert.Equal(t, 1, seenBy[item.ID], "Unique item %d should be seen once", item.ID)
		}
	}
}
