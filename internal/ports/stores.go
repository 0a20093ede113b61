package ports

import (
	"context"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
)

// ItemSource loads the item universe to annotate.
// Implementations read input_data.json or an equivalent backing source.
type ItemSource interface {
	// LoadItems returns every item in stable dataset order.
	// A missing dataset surfaces as domain.ErrDataMissing.
	LoadItems(ctx context.Context) ([]domain.Item, error)
}

// EventTypeSource loads the event-type catalog annotators choose from.
type EventTypeSource interface {
	// LoadEventTypes returns the catalog in file order.
	// A missing catalog surfaces as domain.ErrDataMissing.
	LoadEventTypes(ctx context.Context) ([]domain.EventTypeDef, error)
}

// ProjectConfigSource loads the operator-authored project configuration.
type ProjectConfigSource interface {
	// LoadProjectConfig returns the raw configuration; structural
	// validation is the caller's concern. A missing config surfaces as
	// domain.ErrConfigMissing.
	LoadProjectConfig(ctx context.Context) (domain.ProjectConfig, error)
}

// AnnotationStore persists per-annotator record collections.
// Collections are read and replaced whole; implementations must keep them
// sorted by item ID and must serialize concurrent writes for the same
// annotator so one browser tab cannot drop another's save.
type AnnotationStore interface {
	// LoadAnnotatorRecords returns the annotator's saved records.
	// A never-written annotator yields an empty collection, not an error.
	LoadAnnotatorRecords(ctx context.Context, annotatorID int) ([]domain.AnnotationRecord, error)

	// SaveAnnotatorRecords replaces the annotator's whole collection.
	// The write must be atomic: readers see either the old file or the
	// new one, never a truncated mix.
	SaveAnnotatorRecords(ctx context.Context, annotatorID int, records []domain.AnnotationRecord) error

	// UpsertAnnotatorRecord inserts or replaces one record by item ID and
	// persists the updated collection, returning it. Load-modify-write is
	// performed under the annotator's write lock.
	UpsertAnnotatorRecord(ctx context.Context, annotatorID int, rec domain.AnnotationRecord) ([]domain.AnnotationRecord, error)
}

// PlanStore persists the split plan.
type PlanStore interface {
	// LoadPlan returns the persisted plan, or domain.ErrPlanMissing when
	// none has been generated yet.
	LoadPlan(ctx context.Context) (*domain.SplitPlan, error)

	// SavePlan persists the plan atomically.
	SavePlan(ctx context.Context, plan *domain.SplitPlan) error

	// DeletePlan removes the persisted plan so the next assignment request
	// regenerates it. Destructive: annotators may receive different items
	// afterwards. Deleting an absent plan is not an error.
	DeletePlan(ctx context.Context) error
}

// GoldStore persists adjudicated gold answers, keyed by decimal item ID.
// Gold lives beside, never inside, the merged dataset.
type GoldStore interface {
	// LoadGold returns the gold map. A never-written store yields an
	// empty map, not an error.
	LoadGold(ctx context.Context) (map[string]domain.GoldEntry, error)

	// SaveGold replaces the whole gold map atomically.
	SaveGold(ctx context.Context, gold map[string]domain.GoldEntry) error

	// UpsertGoldEntry inserts or replaces one adjudicated answer.
	UpsertGoldEntry(ctx context.Context, itemID int, entry domain.GoldEntry) error
}

// DataStore bundles every persistence contract the application layer
// needs. The flat-file JSON store implements all of them over one data
// directory.
type DataStore interface {
	ItemSource
	EventTypeSource
	ProjectConfigSource
	AnnotationStore
	PlanStore
	GoldStore
}
