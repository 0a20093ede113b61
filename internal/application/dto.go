package application

import (
	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
)

// AssignmentPage is the annotator-facing working set: the annotator's
// items in their stable display order with any previously saved
// annotations merged in.
type AssignmentPage struct {
	AnnotatorID int                    `json:"annotator_id"`
	Annotator   string                 `json:"annotator"`
	Items       []domain.AnnotatedItem `json:"items"`
	Total       int                    `json:"total"`
}

// SubmitAnnotationRequest is one annotator's answer for one item.
// EventType nil means the annotator judged that no catalog event applies;
// NotInList additionally flags that the right label is missing from the
// catalog.
type SubmitAnnotationRequest struct {
	AnnotatorID    int     `json:"annotator_id" validate:"min=0"`
	ItemID         int     `json:"item_id" validate:"min=0"`
	EventType      *string `json:"event_type"`
	TriggerIndices []int   `json:"trigger_indices" validate:"omitempty,dive,min=0"`
	NotInList      bool    `json:"not_in_list"`
}

// ProgressOverview is the admin progress payload: per-annotator counts
// plus the roll-up across all annotators.
type ProgressOverview struct {
	Annotators []domain.AnnotatorProgress `json:"annotators"`
	Overall    domain.Progress            `json:"overall"`
}

// MergedDataset is the export payload produced by the merge workflow.
// PendingIDs lists unique items whose owner has not annotated them yet;
// those items are omitted from UniqueItems rather than exported with an
// empty annotation.
type MergedDataset struct {
	UniqueItems  []domain.MergedUniqueItem  `json:"unique_items"`
	OverlapItems []domain.MergedOverlapItem `json:"overlap_items"`
	PendingIDs   []int                      `json:"pending_ids"`
}

// AdjudicationItem is one entry of the adjudication queue: a merged
// overlap item that lacks a strict majority, flagged with whether a gold
// answer has already been recorded for it.
type AdjudicationItem struct {
	domain.MergedOverlapItem

	Adjudicated bool              `json:"adjudicated"`
	Gold        *domain.GoldEntry `json:"gold,omitempty"`
}

// AdjudicationQueue lists every overlap item awaiting a tie-break.
type AdjudicationQueue struct {
	Items []AdjudicationItem `json:"items"`
	Total int                `json:"total"`
}

// SubmitAdjudicationRequest records the adjudicator's authoritative
// answer for one contested overlap item. The answer goes to the gold
// store only and never mutates merged or per-annotator data.
type SubmitAdjudicationRequest struct {
	ItemID         int     `json:"item_id" validate:"min=0"`
	EventType      *string `json:"event_type"`
	TriggerIndices []int   `json:"trigger_indices" validate:"omitempty,dive,min=0"`
	NotInList      bool    `json:"not_in_list"`
}
