package domain

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"
)

// AnnotationValue is the payload a human annotator produces for one item.
// A value is immutable once saved; resubmitting an item replaces the whole
// value rather than patching it.
type AnnotationValue struct {
	// EventType is the selected event-type label, or nil when the annotator
	// judged that the sentence contains no event (or none from the catalog).
	// The null/absent state is a first-class category for agreement and
	// merge purposes, not missing data.
	EventType *string `json:"event_type"`

	// TriggerIndices is the set of token positions marked as the event
	// trigger span. Stored normalized: ascending, duplicates removed.
	TriggerIndices []int `json:"trigger_indices"`

	// NotInList records that the annotator looked for an event type but the
	// correct one is missing from the catalog. Only meaningful when
	// EventType is nil.
	NotInList bool `json:"not_in_list,omitempty"`

	// AnnotatedAt is the server-side UTC timestamp of the save that
	// produced this value.
	AnnotatedAt time.Time `json:"annotated_at"`
}

// EventTypeKey returns the tally key for the value's event type.
// The null/absent event type maps to the empty string so that it tallies
// as its own category.
func (v AnnotationValue) EventTypeKey() string {
	if v.EventType == nil {
		return ""
	}
	return *v.EventType
}

// TriggerKey returns a canonical string form of the trigger span, suitable
// for exact set-equality tallies. Two values have equal keys exactly when
// their normalized trigger sets are equal.
func (v AnnotationValue) TriggerKey() string {
	normalized := NormalizeTriggerIndices(v.TriggerIndices)
	parts := make([]string, len(normalized))
	for i, idx := range normalized {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

// NormalizeTriggerIndices returns the indices sorted ascending with
// duplicates removed. The input slice is not modified; a nil or empty input
// yields an empty non-nil slice so stored JSON is always an array.
func NormalizeTriggerIndices(indices []int) []int {
	out := make([]int, 0, len(indices))
	out = append(out, indices...)
	slices.Sort(out)
	return slices.Compact(out)
}

// AnnotationRecord is one (annotator, item) row of an annotator's store.
// The item fields are a denormalized snapshot taken at save time so the
// record remains interpretable even if the input dataset later changes.
type AnnotationRecord struct {
	// ID is the item ID this record annotates; records are keyed and
	// sorted by it within an annotator's collection.
	ID int `json:"id"`

	// Sentence, Tokens and ModelPrediction mirror the Item at save time.
	Sentence        string          `json:"sentence"`
	Tokens          []string        `json:"tokens"`
	ModelPrediction json.RawMessage `json:"model_prediction,omitempty"`

	// Annotation is the annotator's value. A nil Annotation marks an
	// incomplete save; such records are excluded from every metric and
	// merge computation rather than counted as a disagreement.
	Annotation *AnnotationValue `json:"annotation,omitempty"`
}

// NewAnnotationRecord snapshots an item together with its annotation value.
func NewAnnotationRecord(item Item, value AnnotationValue) AnnotationRecord {
	return AnnotationRecord{
		ID:              item.ID,
		Sentence:        item.Sentence,
		Tokens:          item.Tokens,
		ModelPrediction: item.ModelPrediction,
		Annotation:      &value,
	}
}

// UpsertRecord inserts rec into records keyed by item ID, replacing any
// prior record for the same item, and returns the collection sorted by ID.
// The returned slice may alias the input's backing array.
func UpsertRecord(records []AnnotationRecord, rec AnnotationRecord) []AnnotationRecord {
	replaced := false
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	SortRecords(records)
	return records
}

// SortRecords orders a record collection by item ID in place. Stored
// collections are kept sorted for deterministic files and diffs.
func SortRecords(records []AnnotationRecord) {
	slices.SortFunc(records, func(a, b AnnotationRecord) int { return a.ID - b.ID })
}

// IndexRecords builds an item-ID-keyed index over a record collection.
func IndexRecords(records []AnnotationRecord) map[int]AnnotationRecord {
	idx := make(map[int]AnnotationRecord, len(records))
	for _, r := range records {
		idx[r.ID] = r
	}
	return idx
}

// GoldEntry is one adjudicated answer in the gold-standard store. Gold
// entries are written exclusively by the adjudication workflow and never
// overwrite merged/majority records.
type GoldEntry struct {
	AnnotationValue

	// AdjudicatedAt is the server-side UTC timestamp of the adjudication.
	AdjudicatedAt time.Time `json:"adjudicated_at"`
}

// GoldKey converts an item ID to the string key used by the gold store.
// Gold is persisted as a JSON object, so keys are decimal strings.
func GoldKey(itemID int) string { return strconv.Itoa(itemID) }
