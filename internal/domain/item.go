// Package domain contains pure, dependency-free domain models and types
// for the annotation workflow: work items, annotation values and records,
// split plans, merged datasets, and agreement reports.
package domain

import (
	"encoding/json"
)

// Item represents a single annotation work item loaded from the input
// dataset. Items are immutable once loaded; the universe of items is fixed
// for the lifetime of a split plan.
type Item struct {
	// ID uniquely and stably identifies this item within the dataset.
	ID int `json:"id"`

	// Sentence is the full surface text shown to the annotator.
	Sentence string `json:"sentence"`

	// Tokens is the ordered tokenization of Sentence. Trigger indices in
	// annotations refer to positions in this slice.
	Tokens []string `json:"tokens"`

	// ModelPrediction carries the upstream model's output for this item.
	// The annotation workflow treats it as an opaque blob and round-trips
	// it verbatim.
	ModelPrediction json.RawMessage `json:"model_prediction,omitempty"`
}

// AnnotatedItem is an Item with the annotator's previously saved annotation
// merged in. It is the unit of the working-set payload returned to an
// annotator: overlap and unique items are indistinguishable in this view.
type AnnotatedItem struct {
	Item

	// Annotation is the annotator's saved value for this item, or nil when
	// the item has not been annotated yet.
	Annotation *AnnotationValue `json:"annotation,omitempty"`
}

// EventTypeDef describes one entry of the event-type catalog presented to
// annotators. The catalog is reference data; the workflow only consumes the
// names for validation and suggestions.
type EventTypeDef struct {
	// Name is the canonical event-type label as stored in annotations.
	Name string `json:"name"`

	// Description is the human-readable definition shown in the UI.
	Description string `json:"description,omitempty"`
}

// IndexItems builds an ID-keyed index over the item universe.
// Later duplicates win, mirroring the behavior of a keyed store; callers
// that must reject duplicates validate the universe separately.
func IndexItems(items []Item) map[int]Item {
	idx := make(map[int]Item, len(items))
	for _, it := range items {
		idx[it.ID] = it
	}
	return idx
}
