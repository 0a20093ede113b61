package units

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

var _ ports.SplitPlanner = (*SplitPlannerUnit)(nil)

// SplitPlannerUnit computes the one-time assignment of items to annotators:
// a seeded sample of items becomes the overlap set annotated by multiple
// annotators for agreement measurement, and the rest is distributed
// round-robin as unique work.
//
// All randomness flows from a single seeded source consumed in a fixed
// order (overlap sample, then per-item tie-breaks, then the unique
// shuffle), so two calls with identical items and config produce
// bit-identical plans. The caller persists the plan; the planner itself
// never writes.
//
// Overlap load is balanced greedily: each overlap item goes to the
// annotators currently holding the fewest overlap items, ties broken
// uniformly at random from the seeded source. This is deterministic for a
// fixed seed but is a heuristic, not a perfect-balance guarantee.
//
// Concurrency: SplitPlannerUnit is stateless and safe for concurrent use.
//
// Error Conditions:
//   - Returns ErrNoItems when the item set is empty
//   - Returns ErrDuplicateItemID when two items share an ID
//   - Returns a validation error for an out-of-range config
type SplitPlannerUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewSplitPlannerUnit creates a SplitPlannerUnit with the given name.
// The name is used for logging, metrics, and observability spans and must
// be non-empty.
func NewSplitPlannerUnit(name string) (*SplitPlannerUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &SplitPlannerUnit{
		name:   name,
		tracer: otel.Tracer("split-planner-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
// The returned value is immutable and safe for concurrent access.
func (spu *SplitPlannerUnit) Name() string { return spu.name }

// Generate builds a split plan over the given items.
//
// Algorithm:
//  1. overlapCount = ceil(len(items) * OverlapPercentage / 100), capped at
//     the item count
//  2. Sample overlapCount distinct items without replacement from the
//     seeded source; store their IDs sorted
//  3. Assign each overlap item, in ascending item-ID order, to the
//     min(OverlapAnnotators, NumAnnotators) annotators with the fewest
//     overlap items so far, breaking ties uniformly at random
//  4. Shuffle the remaining item IDs and deal them round-robin by index
//     modulo NumAnnotators
//
// The returned plan snapshots the config so later config edits cannot
// silently invalidate an already-distributed plan. GeneratedAt is left for
// the caller to stamp at persist time, keeping Generate bit-deterministic.
//
// The context is used for tracing only; planning is CPU-bound.
func (spu *SplitPlannerUnit) Generate(ctx context.Context, items []domain.Item, cfg domain.PlanConfig) (*domain.SplitPlan, error) {
	_, span := spu.tracer.Start(ctx, "SplitPlannerUnit.Generate",
		trace.WithAttributes(
			attribute.String("unit.id", spu.name),
			attribute.Int("plan.items", len(items)),
			attribute.Int("plan.annotators", cfg.NumAnnotators),
			attribute.Float64("plan.overlap_percentage", cfg.OverlapPercentage),
			attribute.Int("plan.overlap_annotators", cfg.OverlapAnnotators),
			attribute.Int64("plan.seed", cfg.Seed),
		),
	)
	defer span.End()

	if err := validate.Struct(cfg); err != nil {
		err = fmt.Errorf("plan configuration validation failed: %w", err)
		span.RecordError(err)
		return nil, err
	}
	if len(items) == 0 {
		span.RecordError(ErrNoItems)
		return nil, ErrNoItems
	}

	seen := make(map[int]bool, len(items))
	for _, item := range items {
		if seen[item.ID] {
			err := fmt.Errorf("%w: %d", ErrDuplicateItemID, item.ID)
			span.RecordError(err)
			return nil, err
		}
		seen[item.ID] = true
	}

	// Single seeded source; consumption order is part of the contract.
	rng := rand.New(rand.NewSource(cfg.Seed)) // #nosec G404 -- deterministic planning, not security

	total := len(items)
	overlapCount := int(math.Ceil(float64(total) * cfg.OverlapPercentage / 100))
	if overlapCount > total {
		overlapCount = total
	}

	overlapIDs := make([]int, 0, overlapCount)
	overlapSet := make(map[int]bool, overlapCount)
	for _, idx := range rng.Perm(total)[:overlapCount] {
		overlapIDs = append(overlapIDs, items[idx].ID)
		overlapSet[items[idx].ID] = true
	}
	sort.Ints(overlapIDs)

	perItem := cfg.OverlapAnnotators
	if perItem > cfg.NumAnnotators {
		perItem = cfg.NumAnnotators
	}

	overlapAssignments := make(map[int][]int, overlapCount)
	loads := make([]int, cfg.NumAnnotators)
	for _, itemID := range overlapIDs {
		chosen := make([]int, 0, perItem)
		taken := make([]bool, cfg.NumAnnotators)
		for pick := 0; pick < perItem; pick++ {
			lowest := -1
			for id := 0; id < cfg.NumAnnotators; id++ {
				if !taken[id] && (lowest == -1 || loads[id] < loads[lowest]) {
					lowest = id
				}
			}
			ties := make([]int, 0, cfg.NumAnnotators)
			for id := 0; id < cfg.NumAnnotators; id++ {
				if !taken[id] && loads[id] == loads[lowest] {
					ties = append(ties, id)
				}
			}
			selected := ties[rng.Intn(len(ties))]
			taken[selected] = true
			loads[selected]++
			chosen = append(chosen, selected)
		}
		sort.Ints(chosen)
		overlapAssignments[itemID] = chosen
	}

	uniqueIDs := make([]int, 0, total-overlapCount)
	for _, item := range items {
		if !overlapSet[item.ID] {
			uniqueIDs = append(uniqueIDs, item.ID)
		}
	}
	rng.Shuffle(len(uniqueIDs), func(i, j int) {
		uniqueIDs[i], uniqueIDs[j] = uniqueIDs[j], uniqueIDs[i]
	})

	uniqueAssignments := make(map[int][]int, cfg.NumAnnotators)
	for id := 0; id < cfg.NumAnnotators; id++ {
		uniqueAssignments[id] = make([]int, 0)
	}
	for i, itemID := range uniqueIDs {
		annotatorID := i % cfg.NumAnnotators
		uniqueAssignments[annotatorID] = append(uniqueAssignments[annotatorID], itemID)
	}

	plan := &domain.SplitPlan{
		OverlapItemIDs:     overlapIDs,
		OverlapAssignments: overlapAssignments,
		UniqueAssignments:  uniqueAssignments,
		Seed:               cfg.Seed,
		Config:             cfg,
	}

	span.SetAttributes(
		attribute.Int("plan.overlap_items", len(overlapIDs)),
		attribute.Int("plan.unique_items", len(uniqueIDs)),
	)

	return plan, nil
}
