// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
)

// SplitPlanner produces the one-time assignment of items to annotators.
// Implementations must be deterministic: the same items, config, and seed
// always yield an identical plan, so regenerating after a crash cannot
// silently reshuffle anyone's work.
type SplitPlanner interface {
	// Name returns a unique identifier for this planner.
	// The name is used for logging, metrics, and debugging.
	Name() string

	// Generate builds a split plan over the given items. It validates the
	// config, errors on an empty item set or duplicate item IDs, and never
	// mutates its inputs.
	//
	// The context parameter allows for cancellation and tracing; planning
	// itself is CPU-bound and does not block.
	Generate(ctx context.Context, items []domain.Item, cfg domain.PlanConfig) (*domain.SplitPlan, error)
}

// AssignmentResolver turns a persisted plan into the concrete item list one
// annotator should see, in a per-annotator stable display order.
// Implementations must be pure: no I/O, no mutation of the plan or items.
type AssignmentResolver interface {
	// Name returns a unique identifier for this resolver.
	Name() string

	// Resolve returns the annotator's items in display order. Item IDs the
	// plan references but the dataset no longer contains are skipped
	// without disturbing the order of the rest. An annotator unknown to
	// the plan gets an empty, valid slice.
	Resolve(annotatorID int, plan *domain.SplitPlan, items []domain.Item) []domain.Item
}

// AgreementEngine computes inter-annotator agreement statistics over
// collected annotation records.
//
// Record collections are indexed by annotator ID throughout: all[i] holds
// annotator i's full record list. Records whose Annotation is nil are
// ignored by every metric. Metrics that are undefined for the collected
// data return domain.ErrUndefinedMetric rather than a fabricated score.
type AgreementEngine interface {
	// Name returns a unique identifier for this engine.
	Name() string

	// CohenKappa computes Cohen's kappa over the event-type labels of the
	// items both annotators have annotated. The returned value is rounded
	// to three decimals.
	CohenKappa(a, b []domain.AnnotationRecord) (float64, error)

	// FleissKappa computes Fleiss' kappa across all annotators over the
	// overlap items that carry at least two annotations. The returned
	// value is rounded to three decimals.
	FleissKappa(all [][]domain.AnnotationRecord, overlapIDs []int) (float64, error)

	// TriggerF1 computes the span-level F1 between two annotators' trigger
	// selections over their common annotated items, rounded to three
	// decimals.
	TriggerF1(a, b []domain.AnnotationRecord) (float64, error)

	// Disagreements lists the overlap items with at least two collected
	// annotations whose event types or trigger spans conflict, in
	// ascending item-ID order. Names supply display names per annotator ID.
	Disagreements(plan *domain.SplitPlan, items []domain.Item, all [][]domain.AnnotationRecord, names []string) []domain.DisagreementItem

	// ComputeReport assembles the full reviewer-facing agreement payload:
	// every unordered pair's Cohen kappa and trigger F1, the Fleiss kappa,
	// and the disagreement listing. Undefined metrics appear as null
	// scores, never as errors.
	ComputeReport(ctx context.Context, plan *domain.SplitPlan, items []domain.Item, all [][]domain.AnnotationRecord, names []string) (*domain.AgreementReport, error)
}

// MergeResolver reconciles collected annotations into the final merged
// dataset: unique items pass through, overlap items resolve by majority
// vote or get flagged for adjudication.
type MergeResolver interface {
	// Name returns a unique identifier for this resolver.
	Name() string

	// Merge builds the merged dataset from the plan and the collected
	// records (indexed by annotator ID). Merging never writes; calling it
	// twice over unchanged inputs yields deeply equal results.
	Merge(ctx context.Context, plan *domain.SplitPlan, items []domain.Item, all [][]domain.AnnotationRecord, names []string) (*domain.MergeResult, error)
}
