package units

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

var _ ports.MergeResolver = (*MergeResolverUnit)(nil)

// MergeResolverUnit reconciles all annotators' saved work into the final
// merged dataset. Unique items pass through with their single annotation
// and attributed annotator; overlap items resolve by majority vote over
// the event type, with explicit needs-adjudication flagging when no strict
// majority exists.
//
// Votes are always visited in ascending annotator-ID order, so the
// "first encountered wins" tie-break is deterministic. The null/absent
// event type participates in the tally as a real category. The merged
// trigger span is the most frequent exact set among the votes, resolved
// independently of the event-type outcome.
//
// Merging is read-only: calling Merge twice over unchanged inputs yields
// deeply equal results.
//
// Concurrency: the unit is stateless and safe for concurrent use.
type MergeResolverUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewMergeResolverUnit creates a MergeResolverUnit with the given name.
// The name must be non-empty.
func NewMergeResolverUnit(name string) (*MergeResolverUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &MergeResolverUnit{
		name:   name,
		tracer: otel.Tracer("merge-resolver-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (mru *MergeResolverUnit) Name() string { return mru.name }

// Merge builds the merged dataset from the plan and the collected records,
// indexed by annotator ID. Items appear in ascending item-ID order.
// Unique items without a saved annotation are omitted; overlap items
// appear once any vote exists.
func (mru *MergeResolverUnit) Merge(ctx context.Context, plan *domain.SplitPlan, items []domain.Item, all [][]domain.AnnotationRecord, names []string) (*domain.MergeResult, error) {
	_, span := mru.tracer.Start(ctx, "MergeResolverUnit.Merge",
		trace.WithAttributes(
			attribute.String("unit.id", mru.name),
			attribute.Int("merge.items", len(items)),
			attribute.Int("merge.annotators", len(all)),
		),
	)
	defer span.End()

	indexes := make([]map[int]domain.AnnotationValue, len(all))
	for i, records := range all {
		indexes[i] = annotatedIndex(records)
	}

	uniqueOwner := make(map[int]int)
	for annotatorID, ids := range plan.UniqueAssignments {
		for _, itemID := range ids {
			uniqueOwner[itemID] = annotatorID
		}
	}

	ordered := make([]domain.Item, len(items))
	copy(ordered, items)
	slices.SortFunc(ordered, func(a, b domain.Item) int { return a.ID - b.ID })

	result := &domain.MergeResult{
		UniqueItems:  make([]domain.MergedUniqueItem, 0, len(items)),
		OverlapItems: make([]domain.MergedOverlapItem, 0, len(plan.OverlapItemIDs)),
	}
	pending := 0

	for _, item := range ordered {
		if plan.IsOverlap(item.ID) {
			votes := make([]domain.AnnotatorVote, 0, len(all))
			for annotatorID, index := range indexes {
				if value, ok := index[item.ID]; ok {
					votes = append(votes, domain.AnnotatorVote{
						AnnotatorID: annotatorID,
						Annotator:   annotatorName(names, annotatorID),
						Annotation:  value,
					})
				}
			}
			if len(votes) == 0 {
				continue
			}

			merged := mru.resolveOverlap(item, votes)
			if merged.ResolutionStatus == domain.ResolutionNeedsAdjudication {
				pending++
			}
			result.OverlapItems = append(result.OverlapItems, merged)
			continue
		}

		// Plans referencing annotators beyond the loaded collections (the
		// config shrank) degrade to skipping, same as an unannotated item.
		owner, ok := uniqueOwner[item.ID]
		if !ok || owner < 0 || owner >= len(indexes) {
			continue
		}
		if value, ok := indexes[owner][item.ID]; ok {
			result.UniqueItems = append(result.UniqueItems, domain.MergedUniqueItem{
				Item:       item,
				Annotation: value,
				Annotator:  annotatorName(names, owner),
			})
		}
	}

	span.SetAttributes(
		attribute.Int("merge.unique_items", len(result.UniqueItems)),
		attribute.Int("merge.overlap_items", len(result.OverlapItems)),
		attribute.Int("merge.needs_adjudication", pending),
	)

	return result, nil
}

// resolveOverlap applies the majority-vote rules to one overlap item's
// votes, which arrive in ascending annotator-ID order.
func (mru *MergeResolverUnit) resolveOverlap(item domain.Item, votes []domain.AnnotatorVote) domain.MergedOverlapItem {
	eventCounts := make(map[string]int, len(votes))
	eventOrder := make([]string, 0, len(votes))
	for _, vote := range votes {
		key := vote.Annotation.EventTypeKey()
		if _, seen := eventCounts[key]; !seen {
			eventOrder = append(eventOrder, key)
		}
		eventCounts[key]++
	}

	winner := eventOrder[0]
	for _, key := range eventOrder[1:] {
		if eventCounts[key] > eventCounts[winner] {
			winner = key
		}
	}
	winningVotes := eventCounts[winner]
	total := len(votes)

	status := domain.ResolutionNeedsAdjudication
	if winningVotes*2 > total {
		status = domain.ResolutionMajorityVote
	}

	triggerCounts := make(map[string]int, len(votes))
	triggerOrder := make([]string, 0, len(votes))
	triggerSets := make(map[string][]int, len(votes))
	for _, vote := range votes {
		key := vote.Annotation.TriggerKey()
		if _, seen := triggerCounts[key]; !seen {
			triggerOrder = append(triggerOrder, key)
			triggerSets[key] = domain.NormalizeTriggerIndices(vote.Annotation.TriggerIndices)
		}
		triggerCounts[key]++
	}
	bestTrigger := triggerOrder[0]
	for _, key := range triggerOrder[1:] {
		if triggerCounts[key] > triggerCounts[bestTrigger] {
			bestTrigger = key
		}
	}

	notInList := false
	if winner == "" {
		for _, vote := range votes {
			if vote.Annotation.NotInList {
				notInList = true
				break
			}
		}
	}

	var eventType *string
	if winner != "" {
		value := winner
		eventType = &value
	}

	var latest time.Time
	for _, vote := range votes {
		if vote.Annotation.AnnotatedAt.After(latest) {
			latest = vote.Annotation.AnnotatedAt
		}
	}

	return domain.MergedOverlapItem{
		Item: item,
		Annotation: domain.AnnotationValue{
			EventType:      eventType,
			TriggerIndices: triggerSets[bestTrigger],
			NotInList:      notInList,
			AnnotatedAt:    latest,
		},
		ResolutionStatus: status,
		Votes:            votes,
		AgreementRatio:   domain.FormatAgreementRatio(winningVotes, total),
	}
}
