package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTriggerIndices(t *testing.T) {
	tests := []struct {
		name  string
		input []int
		want  []int
	}{
		{
			name:  "already normalized",
			input: []int{1, 2, 5},
			want:  []int{1, 2, 5},
		},
		{
			name:  "unsorted with duplicates",
			input: []int{5, 1, 2, 2, 1},
			want:  []int{1, 2, 5},
		},
		{
			name:  "single index",
			input: []int{3},
			want:  []int{3},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []int{},
		},
		{
			name:  "empty input",
			input: []int{},
			want:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTriggerIndices(tt.input)

			assert.Equal(t, tt.want, got, "Normalized indices mismatch")
			assert.NotNil(t, got, "Result must be non-nil for JSON round-trips")
		})
	}
}

func TestNormalizeTriggerIndicesDoesNotMutateInput(t *testing.T) {
	input := []int{4, 1, 3}
	NormalizeTriggerIndices(input)

	assert.Equal(t, []int{4, 1, 3}, input, "Input slice should be untouched")
}

func TestAnnotationValueKeys(t *testing.T) {
	attack := "Attack"

	tests := []struct {
		name         string
		value        AnnotationValue
		wantEvent    string
		wantTriggers string
	}{
		{
			name:         "labeled with span",
			value:        AnnotationValue{EventType: &attack, TriggerIndices: []int{2, 0}},
			wantEvent:    "Attack",
			wantTriggers: "0,2",
		},
		{
			name:         "null event type",
			value:        AnnotationValue{EventType: nil, TriggerIndices: []int{1}},
			wantEvent:    "",
			wantTriggers: "1",
		},
		{
			name:         "no triggers",
			value:        AnnotationValue{EventType: &attack},
			wantEvent:    "Attack",
			wantTriggers: "",
		},
		{
			name:         "duplicate triggers collapse",
			value:        AnnotationValue{TriggerIndices: []int{7, 7, 3}},
			wantEvent:    "",
			wantTriggers: "3,7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantEvent, tt.value.EventTypeKey(), "Event key mismatch")
			assert.Equal(t, tt.wantTriggers, tt.value.TriggerKey(), "Trigger key mismatch")
		})
	}
}

func TestTriggerKeyEqualityMatchesSetEquality(t *testing.T) {
	a := AnnotationValue{TriggerIndices: []int{2, 1}}
	b := AnnotationValue{TriggerIndices: []int{1, 2, 2}}
	c := AnnotationValue{TriggerIndices: []int{1, 3}}

	assert.Equal(t, a.TriggerKey(), b.TriggerKey(), "Equal sets should share a key")
	assert.NotEqual(t, a.TriggerKey(), c.TriggerKey(), "Different sets should differ")
}

func TestNewAnnotationRecord(t *testing.T) {
	item := Item{ID: 4, Sentence: "Troops entered the city.", Tokens: []string{"Troops", "entered", "the", "city", "."}}
	attack := "Attack"
	value := AnnotationValue{
		EventType:      &attack,
		TriggerIndices: []int{1},
		AnnotatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	rec := NewAnnotationRecord(item, value)

	assert.Equal(t, item.ID, rec.ID, "ID should snapshot the item")
	assert.Equal(t, item.Sentence, rec.Sentence, "Sentence should snapshot the item")
	assert.Equal(t, item.Tokens, rec.Tokens, "Tokens should snapshot the item")
	require.NotNil(t, rec.Annotation, "Annotation should be set")
	assert.Equal(t, value, *rec.Annotation, "Annotation value mismatch")
}

func TestUpsertRecord(t *testing.T) {
	attack := "Attack"
	transport := "Transport"

	rec := func(id int, eventType *string) AnnotationRecord {
		return AnnotationRecord{
			ID:         id,
			Annotation: &AnnotationValue{EventType: eventType},
		}
	}

	t.Run("insert keeps collection sorted", func(t *testing.T) {
		records := []AnnotationRecord{rec(2, &attack), rec(9, nil)}

		records = UpsertRecord(records, rec(5, &transport))

		require.Len(t, records, 3, "Should have three records")
		assert.Equal(t, []int{2, 5, 9}, []int{records[0].ID, records[1].ID, records[2].ID}, "Records should be sorted by ID")
	})

	t.Run("replace overwrites in place", func(t *testing.T) {
		records := []AnnotationRecord{rec(2, &attack), rec(5, &attack)}

		records = UpsertRecord(records, rec(5, &transport))

		require.Len(t, records, 2, "Replacement should not grow the collection")
		require.NotNil(t, records[1].Annotation, "Annotation should survive replacement")
		assert.Equal(t, &transport, records[1].Annotation.EventType, "Replacement value should win")
	})

	t.Run("insert into empty collection", func(t *testing.T) {
		records := UpsertRecord(nil, rec(1, &attack))

		require.Len(t, records, 1, "Should contain the inserted record")
		assert.Equal(t, 1, records[0].ID, "ID mismatch")
	})
}

func TestIndexRecords(t *testing.T) {
	records := []AnnotationRecord{{ID: 3}, {ID: 1}, {ID: 7}}

	idx := IndexRecords(records)

	require.Len(t, idx, 3, "Index size mismatch")
	assert.Equal(t, 7, idx[7].ID, "Index should map ID to record")
	_, ok := idx[2]
	assert.False(t, ok, "Absent IDs should not be present")
}
