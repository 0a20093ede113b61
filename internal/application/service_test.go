package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohaimin66/event-annotation-tool/infrastructure/units"
	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/testutils"
)

var testClock = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

// newTestService wires a service over the given store with real engine
// units, a recording metrics collector, and a fixed clock.
func newTestService(t *testing.T, store *testutils.MemoryStore) (*AnnotationService, *testutils.RecordingMetrics) {
	t.Helper()

	planner, err := units.NewSplitPlannerUnit("split_planner")
	require.NoError(t, err)
	resolver, err := units.NewAssignmentResolverUnit("assignment_resolver")
	require.NoError(t, err)
	agreement, err := units.NewAgreementEngineUnit("agreement_engine")
	require.NoError(t, err)
	merger, err := units.NewMergeResolverUnit("merge_resolver")
	require.NoError(t, err)

	metrics := testutils.NewRecordingMetrics()
	svc, err := NewAnnotationService(store, planner, resolver, agreement, merger, metrics)
	require.NoError(t, err)
	svc.now = func() time.Time { return testClock }
	return svc, metrics
}

// corpusStore seeds a memory store with a generated 20-item corpus for two
// annotators at 20% overlap with multiplicity 2: 4 overlap items in both
// working sets plus 8 unique items each.
func corpusStore() (*testutils.MemoryStore, *testutils.Corpus) {
	corpus := testutils.GenerateCorpus(20, 42)
	cfg := testutils.GenerateProjectConfig(2, 20, 2, 42)
	return testutils.NewMemoryStoreFromCorpus(corpus, cfg), corpus
}

func label(s string) *string { return &s }

// craftedStore builds a fixed four-item project with a hand-written plan:
// items 1 and 2 overlap for both annotators, item 3 is alice's, item 4 is
// bob's.
func craftedStore() *testutils.MemoryStore {
	store := testutils.NewMemoryStore()
	store.SetItems([]domain.Item{
		{ID: 1, Sentence: "Rebels attacked the village.", Tokens: []string{"Rebels", "attacked", "the", "village", "."}},
		{ID: 2, Sentence: "The presidents met in Geneva.", Tokens: []string{"The", "presidents", "met", "in", "Geneva", "."}},
		{ID: 3, Sentence: "The harbor was quiet.", Tokens: []string{"The", "harbor", "was", "quiet", "."}},
		{ID: 4, Sentence: "Prices remained stable.", Tokens: []string{"Prices", "remained", "stable", "."}},
	})
	store.SetEventTypes([]domain.EventTypeDef{
		{Name: "Conflict.Attack", Description: "A violent act."},
		{Name: "Contact.Meet", Description: "Parties coming together."},
	})
	cfg := domain.ProjectConfig{
		NumAnnotators:     2,
		AnnotatorNames:    []string{"alice", "bob"},
		OverlapPercentage: 50,
		OverlapAnnotators: 2,
		SplitSeed:         42,
	}
	store.SetProjectConfig(cfg)
	store.SetPlan(&domain.SplitPlan{
		OverlapItemIDs:     []int{1, 2},
		OverlapAssignments: map[int][]int{1: {0, 1}, 2: {0, 1}},
		UniqueAssignments:  map[int][]int{0: {3}, 1: {4}},
		Seed:               42,
		Config:             cfg.PlanConfig(),
		GeneratedAt:        testClock,
	})
	return store
}

// saveValue stores a complete annotation for one item directly through the
// record store, bypassing submission validation.
func saveValue(t *testing.T, store *testutils.MemoryStore, annotatorID, itemID int, eventType *string, triggers []int) {
	t.Helper()
	ctx := context.Background()

	items, err := store.LoadItems(ctx)
	require.NoError(t, err)
	item, ok := domain.IndexItems(items)[itemID]
	require.True(t, ok, "item %d must exist", itemID)

	rec := domain.NewAnnotationRecord(item, domain.AnnotationValue{
		EventType:      eventType,
		TriggerIndices: domain.NormalizeTriggerIndices(triggers),
		AnnotatedAt:    testClock,
	})
	_, err = store.UpsertAnnotatorRecord(ctx, annotatorID, rec)
	require.NoError(t, err)
}

func TestNewAnnotationService_NilDependencies(t *testing.T) {
	store, _ := corpusStore()
	planner, err := units.NewSplitPlannerUnit("p")
	require.NoError(t, err)
	resolver, err := units.NewAssignmentResolverUnit("r")
	require.NoError(t, err)
	agreement, err := units.NewAgreementEngineUnit("a")
	require.NoError(t, err)
	merger, err := units.NewMergeResolverUnit("m")
	require.NoError(t, err)
	metrics := testutils.NewRecordingMetrics()

	tests := []struct {
		name string
		run  func() (*AnnotationService, error)
	}{
		{"nil store", func() (*AnnotationService, error) {
			return NewAnnotationService(nil, planner, resolver, agreement, merger, metrics)
		}},
		{"nil planner", func() (*AnnotationService, error) {
			return NewAnnotationService(store, nil, resolver, agreement, merger, metrics)
		}},
		{"nil resolver", func() (*AnnotationService, error) {
			return NewAnnotationService(store, planner, nil, agreement, merger, metrics)
		}},
		{"nil agreement engine", func() (*AnnotationService, error) {
			return NewAnnotationService(store, planner, resolver, nil, merger, metrics)
		}},
		{"nil merge resolver", func() (*AnnotationService, error) {
			return NewAnnotationService(store, planner, resolver, agreement, nil, metrics)
		}},
		{"nil metrics", func() (*AnnotationService, error) {
			return NewAnnotationService(store, planner, resolver, agreement, merger, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := tt.run()
			require.Error(t, err)
			assert.Nil(t, svc)
		})
	}
}

func TestAnnotationServiceAssignmentFor(t *testing.T) {
	ctx := context.Background()

	t.Run("first request generates and persists the plan", func(t *testing.T) {
		store, _ := corpusStore()
		svc, _ := newTestService(t, store)

		page, err := svc.AssignmentFor(ctx, 0)
		require.NoError(t, err)

		assert.Equal(t, 1, store.PlanSaveCalls())
		assert.Equal(t, "alice", page.Annotator)
		assert.Equal(t, 12, page.Total, "4 overlap + 8 unique items")
		assert.Len(t, page.Items, 12)

		plan, err := store.LoadPlan(ctx)
		require.NoError(t, err)
		assert.Len(t, plan.OverlapItemIDs, 4)
		assert.Equal(t, testClock, plan.GeneratedAt)
	})

	t.Run("display order is stable across calls", func(t *testing.T) {
		store, _ := corpusStore()
		svc, _ := newTestService(t, store)

		first, err := svc.AssignmentFor(ctx, 0)
		require.NoError(t, err)
		second, err := svc.AssignmentFor(ctx, 0)
		require.NoError(t, err)

		firstIDs := make([]int, len(first.Items))
		secondIDs := make([]int, len(second.Items))
		for i := range first.Items {
			firstIDs[i] = first.Items[i].ID
			secondIDs[i] = second.Items[i].ID
		}
		assert.Equal(t, firstIDs, secondIDs)
		assert.Equal(t, 1, store.PlanSaveCalls(), "Replays must not regenerate the plan")
	})

	t.Run("saved annotations are merged into the page", func(t *testing.T) {
		store, _ := corpusStore()
		svc, _ := newTestService(t, store)

		page, err := svc.AssignmentFor(ctx, 0)
		require.NoError(t, err)
		target := page.Items[0].Item

		_, err = svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
			AnnotatorID: 0,
			ItemID:      target.ID,
			EventType:   label("Conflict.Attack"),
		})
		require.NoError(t, err)

		page, err = svc.AssignmentFor(ctx, 0)
		require.NoError(t, err)
		found := false
		for _, item := range page.Items {
			if item.ID == target.ID {
				found = true
				require.NotNil(t, item.Annotation)
				assert.Equal(t, "Conflict.Attack", *item.Annotation.EventType)
			} else {
				assert.Nil(t, item.Annotation)
			}
		}
		assert.True(t, found)
	})

	t.Run("unknown annotator is rejected", func(t *testing.T) {
		store, _ := corpusStore()
		svc, _ := newTestService(t, store)

		_, err := svc.AssignmentFor(ctx, 9)
		assert.ErrorIs(t, err, domain.ErrUnknownAnnotator)

		_, err = svc.AssignmentFor(ctx, -1)
		assert.ErrorIs(t, err, domain.ErrUnknownAnnotator)
	})

	t.Run("missing config surfaces the sentinel", func(t *testing.T) {
		store := testutils.NewMemoryStore()
		svc, _ := newTestService(t, store)

		_, err := svc.AssignmentFor(ctx, 0)
		assert.ErrorIs(t, err, domain.ErrConfigMissing)
	})
}

func TestAnnotationServiceAssignmentForGeneratesPlanOnce(t *testing.T) {
	// A burst of concurrent first requests must persist exactly one plan.
	ctx := context.Background()
	store, _ := corpusStore()
	svc, _ := newTestService(t, store)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for worker := 0; worker < 8; worker++ {
		for annotatorID := 0; annotatorID < 2; annotatorID++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				if _, err := svc.AssignmentFor(ctx, id); err != nil {
					errs <- err
				}
			}(annotatorID)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, store.PlanSaveCalls(), "Concurrent first requests must persist exactly one plan")
}

func TestAnnotationServicePlanFrozenAcrossConfigChange(t *testing.T) {
	ctx := context.Background()
	store, _ := corpusStore()
	svc, _ := newTestService(t, store)

	before, err := svc.AssignmentFor(ctx, 0)
	require.NoError(t, err)

	// Growing the team later must not move existing items around.
	cfg := testutils.GenerateProjectConfig(3, 20, 2, 42)
	store.SetProjectConfig(cfg)

	after, err := svc.AssignmentFor(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, before.Total, after.Total)
	for i := range before.Items {
		assert.Equal(t, before.Items[i].ID, after.Items[i].ID)
	}

	// The late-joining annotator gets an empty but valid working set.
	page, err := svc.AssignmentFor(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, store.PlanSaveCalls())
}

func TestAnnotationServiceSubmitAnnotation(t *testing.T) {
	ctx := context.Background()

	t.Run("valid submission persists a denormalized record", func(t *testing.T) {
		store := craftedStore()
		svc, metrics := newTestService(t, store)

		rec, err := svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
			AnnotatorID:    0,
			ItemID:         1,
			EventType:      label("Conflict.Attack"),
			TriggerIndices: []int{1, 1, 0},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, rec.ID)
		assert.Equal(t, "Rebels attacked the village.", rec.Sentence)
		require.NotNil(t, rec.Annotation)
		assert.Equal(t, []int{0, 1}, rec.Annotation.TriggerIndices, "Triggers should be sorted and deduplicated")
		assert.Equal(t, testClock, rec.Annotation.AnnotatedAt)

		records, err := store.LoadAnnotatorRecords(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 1.0, metrics.CounterTotal("annotations_saved_total"))
	})

	t.Run("resubmission replaces the prior record", func(t *testing.T) {
		store := craftedStore()
		svc, _ := newTestService(t, store)

		_, err := svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
			AnnotatorID: 0, ItemID: 1, EventType: label("Conflict.Attack"), TriggerIndices: []int{1},
		})
		require.NoError(t, err)
		_, err = svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
			AnnotatorID: 0, ItemID: 1, EventType: label("Contact.Meet"),
		})
		require.NoError(t, err)

		records, err := store.LoadAnnotatorRecords(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Contact.Meet", *records[0].Annotation.EventType)
	})

	t.Run("catalog match is case folded", func(t *testing.T) {
		store := craftedStore()
		svc, _ := newTestService(t, store)

		_, err := svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
			AnnotatorID: 0, ItemID: 1, EventType: label("conflict.ATTACK"),
		})
		assert.NoError(t, err)
	})

	t.Run("null event type and not-in-list are accepted", func(t *testing.T) {
		store := craftedStore()
		svc, _ := newTestService(t, store)

		_, err := svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
			AnnotatorID: 0, ItemID: 3,
		})
		assert.NoError(t, err)

		_, err = svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
			AnnotatorID: 0, ItemID: 4, EventType: label("Disaster.Flood"), NotInList: true,
		})
		assert.NoError(t, err, "not_in_list should allow labels outside the catalog")
	})

	t.Run("rejections leave the store untouched", func(t *testing.T) {
		store := craftedStore()
		svc, _ := newTestService(t, store)

		tests := []struct {
			name string
			req  SubmitAnnotationRequest
			want error
		}{
			{
				name: "unknown item",
				req:  SubmitAnnotationRequest{AnnotatorID: 0, ItemID: 99, EventType: label("Conflict.Attack")},
				want: domain.ErrMalformedAnnotation,
			},
			{
				name: "trigger index out of range",
				req:  SubmitAnnotationRequest{AnnotatorID: 0, ItemID: 1, EventType: label("Conflict.Attack"), TriggerIndices: []int{5}},
				want: domain.ErrMalformedAnnotation,
			},
			{
				name: "negative trigger index",
				req:  SubmitAnnotationRequest{AnnotatorID: 0, ItemID: 1, EventType: label("Conflict.Attack"), TriggerIndices: []int{-1}},
				want: domain.ErrMalformedAnnotation,
			},
			{
				name: "event type outside the catalog",
				req:  SubmitAnnotationRequest{AnnotatorID: 0, ItemID: 1, EventType: label("Conflict.Atack")},
				want: domain.ErrMalformedAnnotation,
			},
			{
				name: "unknown annotator",
				req:  SubmitAnnotationRequest{AnnotatorID: 7, ItemID: 1, EventType: label("Conflict.Attack")},
				want: domain.ErrUnknownAnnotator,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.SubmitAnnotation(ctx, tt.req)
				assert.ErrorIs(t, err, tt.want)
			})
		}

		records, err := store.LoadAnnotatorRecords(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, records, "No rejection may leave a partial write")
	})

	t.Run("unknown event type names the closest catalog entry", func(t *testing.T) {
		store := craftedStore()
		svc, _ := newTestService(t, store)

		_, err := svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
			AnnotatorID: 0, ItemID: 1, EventType: label("Conflict.Atack"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Conflict.Attack")
	})
}

func TestAnnotationServiceProgress(t *testing.T) {
	ctx := context.Background()
	store := craftedStore()
	svc, _ := newTestService(t, store)

	progress, err := svc.Progress(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.Progress{Completed: 0, Total: 3, Percentage: 0}, progress)

	_, err = svc.SubmitAnnotation(ctx, SubmitAnnotationRequest{
		AnnotatorID: 0, ItemID: 1, EventType: label("Conflict.Attack"), TriggerIndices: []int{1},
	})
	require.NoError(t, err)

	progress, err = svc.Progress(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, 3, progress.Total)
	assert.Equal(t, 33.3, progress.Percentage, "Percentage should round to one decimal")

	_, err = svc.Progress(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrUnknownAnnotator)
}

func TestAnnotationServiceAdminProgress(t *testing.T) {
	ctx := context.Background()
	store := craftedStore()
	svc, _ := newTestService(t, store)

	saveValue(t, store, 0, 1, label("Conflict.Attack"), []int{1})
	saveValue(t, store, 0, 3, nil, nil)
	saveValue(t, store, 1, 1, label("Conflict.Attack"), []int{1})

	overview, err := svc.AdminProgress(ctx)
	require.NoError(t, err)

	require.Len(t, overview.Annotators, 2)
	assert.Equal(t, "alice", overview.Annotators[0].Annotator)
	assert.Equal(t, 2, overview.Annotators[0].Completed)
	assert.Equal(t, 3, overview.Annotators[0].Total)
	assert.Equal(t, "bob", overview.Annotators[1].Annotator)
	assert.Equal(t, 1, overview.Annotators[1].Completed)

	assert.Equal(t, 3, overview.Overall.Completed)
	assert.Equal(t, 6, overview.Overall.Total)
	assert.Equal(t, 50.0, overview.Overall.Percentage)
}

func TestAnnotationServiceAgreementReport(t *testing.T) {
	ctx := context.Background()

	t.Run("empty stores yield null scores, not errors", func(t *testing.T) {
		store := craftedStore()
		svc, _ := newTestService(t, store)

		report, err := svc.AgreementReport(ctx)
		require.NoError(t, err)

		require.Len(t, report.Pairwise, 1)
		pair := report.Pairwise[0]
		assert.Equal(t, "alice", pair.NameA)
		assert.Equal(t, "bob", pair.NameB)
		assert.Zero(t, pair.CommonItems)
		assert.Nil(t, pair.EventKappa.Score)
		assert.Equal(t, domain.InterpretationInsufficient, pair.EventKappa.Interpretation)
		assert.Nil(t, report.FleissKappa.Score)
		assert.Empty(t, report.Disagreements)
		assert.Equal(t, 2, report.OverlapItems)
	})

	t.Run("collected annotations produce scores and disagreements", func(t *testing.T) {
		store := craftedStore()
		svc, metrics := newTestService(t, store)

		// Agree on item 1, disagree on item 2.
		saveValue(t, store, 0, 1, label("Conflict.Attack"), []int{1})
		saveValue(t, store, 1, 1, label("Conflict.Attack"), []int{1})
		saveValue(t, store, 0, 2, label("Contact.Meet"), []int{2})
		saveValue(t, store, 1, 2, label("Conflict.Attack"), []int{2})

		report, err := svc.AgreementReport(ctx)
		require.NoError(t, err)

		require.Len(t, report.Pairwise, 1)
		pair := report.Pairwise[0]
		assert.Equal(t, 2, pair.CommonItems)
		require.NotNil(t, pair.EventKappa.Score)
		require.NotNil(t, pair.TriggerF1.Score)
		assert.Equal(t, 1.0, *pair.TriggerF1.Score, "Identical triggers should score a perfect F1")

		require.NotNil(t, report.FleissKappa.Score)

		require.Len(t, report.Disagreements, 1)
		disagreement := report.Disagreements[0]
		assert.Equal(t, 2, disagreement.ItemID)
		assert.True(t, disagreement.EventTypesDiffer)
		assert.False(t, disagreement.TriggersDiffer)
		require.Len(t, disagreement.Annotations, 2)

		calls := metrics.Calls()
		found := false
		for _, call := range calls {
			if call.Kind == "gauge" && call.Metric == "agreement_score" {
				found = true
				break
			}
		}
		assert.True(t, found, "Agreement scores should be exported as gauges")
	})
}

func TestAnnotationServiceMergedDataset(t *testing.T) {
	ctx := context.Background()
	store := craftedStore()
	svc, _ := newTestService(t, store)

	// Item 1: both agree. Item 2: only alice. Item 3: alice's unique,
	// annotated. Item 4: bob's unique, still pending.
	saveValue(t, store, 0, 1, label("Conflict.Attack"), []int{1})
	saveValue(t, store, 1, 1, label("Conflict.Attack"), []int{1})
	saveValue(t, store, 0, 2, label("Contact.Meet"), []int{2})
	saveValue(t, store, 0, 3, nil, nil)

	dataset, err := svc.MergedDataset(ctx)
	require.NoError(t, err)

	require.Len(t, dataset.UniqueItems, 1)
	assert.Equal(t, 3, dataset.UniqueItems[0].ID)
	assert.Equal(t, "alice", dataset.UniqueItems[0].Annotator)

	require.Len(t, dataset.OverlapItems, 2)
	first, second := dataset.OverlapItems[0], dataset.OverlapItems[1]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, domain.ResolutionMajorityVote, first.ResolutionStatus)
	assert.Equal(t, "2/2", first.AgreementRatio)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, domain.ResolutionMajorityVote, second.ResolutionStatus, "A single vote is its own majority")
	assert.Equal(t, "1/1", second.AgreementRatio)

	assert.Equal(t, []int{4}, dataset.PendingIDs, "Bob's unannotated unique item should be reported pending")

	// Merging is read-only: a second pass reproduces the result exactly.
	again, err := svc.MergedDataset(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(dataset, again))
}

func TestAnnotationServiceAdjudicationFlow(t *testing.T) {
	ctx := context.Background()
	store := craftedStore()
	svc, metrics := newTestService(t, store)

	// A clean 1-1 split on item 1 has no majority.
	saveValue(t, store, 0, 1, label("Conflict.Attack"), []int{1})
	saveValue(t, store, 1, 1, label("Contact.Meet"), []int{1})

	queue, err := svc.AdjudicationQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, queue.Total)
	contested := queue.Items[0]
	assert.Equal(t, 1, contested.ID)
	assert.Equal(t, domain.ResolutionNeedsAdjudication, contested.ResolutionStatus)
	assert.Equal(t, "1/2", contested.AgreementRatio)
	assert.False(t, contested.Adjudicated)
	assert.Nil(t, contested.Gold)

	entry, err := svc.SubmitAdjudication(ctx, SubmitAdjudicationRequest{
		ItemID:         1,
		EventType:      label("Conflict.Attack"),
		TriggerIndices: []int{1},
	})
	require.NoError(t, err)
	assert.Equal(t, testClock, entry.AdjudicatedAt)
	assert.Equal(t, 1.0, metrics.CounterTotal("adjudications_saved_total"))

	// The queue reflects the gold entry; the merged record does not change.
	queue, err = svc.AdjudicationQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, queue.Total)
	assert.True(t, queue.Items[0].Adjudicated)
	require.NotNil(t, queue.Items[0].Gold)
	assert.Equal(t, domain.ResolutionNeedsAdjudication, queue.Items[0].ResolutionStatus)

	dataset, err := svc.MergedDataset(ctx)
	require.NoError(t, err)
	for _, item := range dataset.OverlapItems {
		if item.ID == 1 {
			assert.Equal(t, domain.ResolutionNeedsAdjudication, item.ResolutionStatus,
				"Gold entries must never overwrite the merged record")
		}
	}

	t.Run("invalid adjudications are rejected", func(t *testing.T) {
		_, err := svc.SubmitAdjudication(ctx, SubmitAdjudicationRequest{
			ItemID: 99, EventType: label("Conflict.Attack"),
		})
		assert.ErrorIs(t, err, domain.ErrMalformedAnnotation)

		_, err = svc.SubmitAdjudication(ctx, SubmitAdjudicationRequest{
			ItemID: 1, EventType: label("Not.AType"),
		})
		assert.ErrorIs(t, err, domain.ErrMalformedAnnotation)
	})
}

func TestAnnotationServiceRegeneratePlan(t *testing.T) {
	ctx := context.Background()
	store, _ := corpusStore()
	svc, _ := newTestService(t, store)

	_, err := svc.AssignmentFor(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, store.PlanSaveCalls())

	require.NoError(t, svc.RegeneratePlan(ctx))
	_, err = store.LoadPlan(ctx)
	assert.ErrorIs(t, err, domain.ErrPlanMissing)

	_, err = svc.AssignmentFor(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, store.PlanSaveCalls(), "The next request should generate a fresh plan")
}

func TestAnnotationServicePublicConfigAndEventTypes(t *testing.T) {
	ctx := context.Background()
	store := craftedStore()
	svc, _ := newTestService(t, store)

	public, err := svc.PublicConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, public.NumAnnotators)
	assert.Equal(t, []string{"alice", "bob"}, public.AnnotatorNames)

	types, err := svc.EventTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Conflict.Attack", types[0].Name)
}

func TestAnnotationServiceProjectConfigValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  domain.ProjectConfig
	}{
		{
			name: "zero annotators",
			cfg:  domain.ProjectConfig{NumAnnotators: 0, OverlapPercentage: 20, OverlapAnnotators: 2},
		},
		{
			name: "names count mismatch",
			cfg: domain.ProjectConfig{
				NumAnnotators: 2, AnnotatorNames: []string{"alice"},
				OverlapPercentage: 20, OverlapAnnotators: 2,
			},
		},
		{
			name: "passwords count mismatch",
			cfg: domain.ProjectConfig{
				NumAnnotators: 2, AnnotatorPasswords: []string{"only-one"},
				OverlapPercentage: 20, OverlapAnnotators: 2,
			},
		},
		{
			name: "percentage out of range",
			cfg:  domain.ProjectConfig{NumAnnotators: 2, OverlapPercentage: 150, OverlapAnnotators: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corpus := testutils.GenerateCorpus(5, 1)
			store := testutils.NewMemoryStoreFromCorpus(corpus, tt.cfg)
			svc, _ := newTestService(t, store)

			_, err := svc.AssignmentFor(ctx, 0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestAnnotationServiceProgressEmptySplit(t *testing.T) {
	// An annotator the plan does not know must see empty-but-valid
	// progress rather than an error.
	ctx := context.Background()
	store := craftedStore()
	cfg := domain.ProjectConfig{
		NumAnnotators:     3,
		AnnotatorNames:    []string{"alice", "bob", "carol"},
		OverlapPercentage: 50,
		OverlapAnnotators: 2,
		SplitSeed:         42,
	}
	store.SetProjectConfig(cfg)
	svc, _ := newTestService(t, store)

	progress, err := svc.Progress(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.Progress{Completed: 0, Total: 0, Percentage: 0}, progress)
}

func TestAnnotationServiceStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	store := craftedStore()
	svc, _ := newTestService(t, store)
	boom := fmt.Errorf("storage offline")

	store.FailWith("LoadAnnotatorRecords", boom)
	_, err := svc.AssignmentFor(ctx, 0)
	assert.ErrorIs(t, err, boom)

	_, err = svc.AdminProgress(ctx)
	assert.ErrorIs(t, err, boom)
	store.FailWith("LoadAnnotatorRecords", nil)

	store.FailWith("UpsertGoldEntry", boom)
	_, err = svc.SubmitAdjudication(ctx, SubmitAdjudicationRequest{
		ItemID: 1, EventType: label("Conflict.Attack"),
	})
	assert.ErrorIs(t, err, boom)
}
