package units

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/stat"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

var _ ports.AgreementEngine = (*AgreementEngineUnit)(nil)

// AgreementEngineUnit computes inter-annotator agreement statistics over
// collected annotation records: pairwise Cohen's kappa on event-type
// labels, multi-rater Fleiss' kappa over the overlap set, span-level
// trigger F1, and a disagreement listing for manual review.
//
// Records whose Annotation is nil (incomplete saves) are invisible to
// every metric: they are excluded from the data, never counted as a
// disagreement value. Metrics that are undefined for the collected data
// return domain.ErrUndefinedMetric; callers surface those as explicit
// "not available" values rather than fabricated zeros.
//
// All scores are rounded to three decimals. Internal summations iterate
// categories in sorted order so results are reproducible bit for bit.
//
// Concurrency: the unit is stateless and read-only over its inputs; all
// methods are safe for concurrent use.
type AgreementEngineUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewAgreementEngineUnit creates an AgreementEngineUnit with the given
// name. The name must be non-empty.
func NewAgreementEngineUnit(name string) (*AgreementEngineUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &AgreementEngineUnit{
		name:   name,
		tracer: otel.Tracer("agreement-engine-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (aeu *AgreementEngineUnit) Name() string { return aeu.name }

// ratedPair is one item annotated by both annotators of a pair.
type ratedPair struct {
	a, b domain.AnnotationValue
}

// commonAnnotated intersects two record collections on item ID, keeping
// only items both annotators have actually annotated. Pairs come out in
// collection a's (ascending item ID) order.
func commonAnnotated(a, b []domain.AnnotationRecord) []ratedPair {
	bValues := make(map[int]domain.AnnotationValue, len(b))
	for _, rec := range b {
		if rec.Annotation != nil {
			bValues[rec.ID] = *rec.Annotation
		}
	}

	pairs := make([]ratedPair, 0, len(a))
	for _, rec := range a {
		if rec.Annotation == nil {
			continue
		}
		if vb, ok := bValues[rec.ID]; ok {
			pairs = append(pairs, ratedPair{a: *rec.Annotation, b: vb})
		}
	}
	return pairs
}

// annotatedIndex maps item ID to annotation value for one annotator,
// dropping records without a saved annotation.
func annotatedIndex(records []domain.AnnotationRecord) map[int]domain.AnnotationValue {
	index := make(map[int]domain.AnnotationValue, len(records))
	for _, rec := range records {
		if rec.Annotation != nil {
			index[rec.ID] = *rec.Annotation
		}
	}
	return index
}

// round3 rounds a metric to three decimal places, the precision all
// agreement scores are reported at.
func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// sortedKeys returns a map's string keys in sorted order so float
// summations stay deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CohenKappa computes Cohen's kappa between two annotators over the
// event-type labels of their common annotated items.
//
// Observed agreement po is the fraction of common items with equal labels;
// expected agreement pe sums each label's marginal frequency product. The
// degenerate pe == 1 case (both annotators used a single identical label)
// returns 1.0 rather than dividing by zero.
//
// Returns domain.ErrUndefinedMetric when fewer than two common annotated
// items exist.
func (aeu *AgreementEngineUnit) CohenKappa(a, b []domain.AnnotationRecord) (float64, error) {
	pairs := commonAnnotated(a, b)
	if len(pairs) < 2 {
		return 0, fmt.Errorf("%w: cohen's kappa needs at least 2 common items, have %d",
			domain.ErrUndefinedMetric, len(pairs))
	}

	agreements := 0
	countsA := make(map[string]float64)
	countsB := make(map[string]float64)
	for _, pair := range pairs {
		keyA, keyB := pair.a.EventTypeKey(), pair.b.EventTypeKey()
		if keyA == keyB {
			agreements++
		}
		countsA[keyA]++
		countsB[keyB]++
	}

	n := float64(len(pairs))
	po := float64(agreements) / n

	pe := 0.0
	for _, category := range sortedKeys(countsA) {
		pe += (countsA[category] / n) * (countsB[category] / n)
	}

	if pe == 1 {
		return 1.0, nil
	}
	return round3((po - pe) / (1 - pe)), nil
}

// FleissKappa computes Fleiss' kappa across all annotators over the
// overlap items carrying at least two annotations.
//
// Each qualifying item contributes a per-item agreement P_i computed with
// its own rater count n_i; the mean of those and the squared category
// marginals over all ratings give the chance-corrected score. The
// degenerate P_e == 1 case returns 1.0.
//
// Returns domain.ErrUndefinedMetric when no overlap item has two or more
// ratings, or when fewer than two distinct categories appear.
func (aeu *AgreementEngineUnit) FleissKappa(all [][]domain.AnnotationRecord, overlapIDs []int) (float64, error) {
	indexes := make([]map[int]domain.AnnotationValue, len(all))
	for i, records := range all {
		indexes[i] = annotatedIndex(records)
	}

	perItem := make([]float64, 0, len(overlapIDs))
	categoryTotals := make(map[string]float64)
	totalRatings := 0.0
	for _, itemID := range overlapIDs {
		counts := make(map[string]int)
		raters := 0
		for _, index := range indexes {
			if value, ok := index[itemID]; ok {
				counts[value.EventTypeKey()]++
				raters++
			}
		}
		if raters < 2 {
			continue
		}

		sumSquares := 0.0
		for _, category := range sortedKeys(counts) {
			count := float64(counts[category])
			sumSquares += count * count
			categoryTotals[category] += count
			totalRatings += count
		}
		ni := float64(raters)
		perItem = append(perItem, (sumSquares-ni)/(ni*(ni-1)))
	}

	if len(perItem) == 0 {
		return 0, fmt.Errorf("%w: no overlap items with 2+ ratings", domain.ErrUndefinedMetric)
	}
	if len(categoryTotals) < 2 {
		return 0, fmt.Errorf("%w: fleiss' kappa needs at least 2 categories, have %d",
			domain.ErrUndefinedMetric, len(categoryTotals))
	}

	pBar := stat.Mean(perItem, nil)

	pe := 0.0
	for _, category := range sortedKeys(categoryTotals) {
		marginal := categoryTotals[category] / totalRatings
		pe += marginal * marginal
	}

	if pe == 1 {
		return 1.0, nil
	}
	return round3((pBar - pe) / (1 - pe)), nil
}

// TriggerF1 computes span-level F1 between two annotators' trigger
// selections over their common annotated items.
//
// Per item, trigger indices are compared as sets: both empty counts as
// precision 1 and recall 1 (both agree there is no trigger), exactly one
// empty contributes 0 to both, and otherwise precision and recall are the
// intersection over each annotator's set size. Precision and recall are
// averaged across items before taking the harmonic mean; a zero sum yields
// F1 0.
//
// Returns domain.ErrUndefinedMetric when no common annotated items exist.
func (aeu *AgreementEngineUnit) TriggerF1(a, b []domain.AnnotationRecord) (float64, error) {
	pairs := commonAnnotated(a, b)
	if len(pairs) == 0 {
		return 0, fmt.Errorf("%w: trigger f1 needs common items", domain.ErrUndefinedMetric)
	}

	precisions := make([]float64, len(pairs))
	recalls := make([]float64, len(pairs))
	for i, pair := range pairs {
		setA := domain.NormalizeTriggerIndices(pair.a.TriggerIndices)
		setB := domain.NormalizeTriggerIndices(pair.b.TriggerIndices)

		switch {
		case len(setA) == 0 && len(setB) == 0:
			precisions[i], recalls[i] = 1, 1
		case len(setA) == 0 || len(setB) == 0:
			precisions[i], recalls[i] = 0, 0
		default:
			inB := make(map[int]bool, len(setB))
			for _, idx := range setB {
				inB[idx] = true
			}
			overlap := 0
			for _, idx := range setA {
				if inB[idx] {
					overlap++
				}
			}
			precisions[i] = float64(overlap) / float64(len(setA))
			recalls[i] = float64(overlap) / float64(len(setB))
		}
	}

	avgPrecision := stat.Mean(precisions, nil)
	avgRecall := stat.Mean(recalls, nil)
	if avgPrecision+avgRecall == 0 {
		return 0, nil
	}
	return round3(2 * avgPrecision * avgRecall / (avgPrecision + avgRecall)), nil
}

// Disagreements lists every overlap item with at least two collected
// annotations whose event types or trigger spans conflict, in ascending
// item-ID order. Items the live dataset no longer contains are skipped.
func (aeu *AgreementEngineUnit) Disagreements(plan *domain.SplitPlan, items []domain.Item, all [][]domain.AnnotationRecord, names []string) []domain.DisagreementItem {
	itemIndex := domain.IndexItems(items)
	indexes := make([]map[int]domain.AnnotationValue, len(all))
	for i, records := range all {
		indexes[i] = annotatedIndex(records)
	}

	disagreements := make([]domain.DisagreementItem, 0)
	for _, itemID := range plan.OverlapItemIDs {
		votes := make([]domain.AnnotatorVote, 0, len(all))
		for annotatorID, index := range indexes {
			if value, ok := index[itemID]; ok {
				votes = append(votes, domain.AnnotatorVote{
					AnnotatorID: annotatorID,
					Annotator:   annotatorName(names, annotatorID),
					Annotation:  value,
				})
			}
		}
		if len(votes) < 2 {
			continue
		}

		eventKeys := make(map[string]bool, len(votes))
		triggerKeys := make(map[string]bool, len(votes))
		for _, vote := range votes {
			eventKeys[vote.Annotation.EventTypeKey()] = true
			triggerKeys[vote.Annotation.TriggerKey()] = true
		}

		eventsDiffer := len(eventKeys) > 1
		triggersDiffer := len(triggerKeys) > 1
		if !eventsDiffer && !triggersDiffer {
			continue
		}

		item, ok := itemIndex[itemID]
		if !ok {
			continue
		}
		disagreements = append(disagreements, domain.DisagreementItem{
			ItemID:           itemID,
			Sentence:         item.Sentence,
			Tokens:           item.Tokens,
			EventTypesDiffer: eventsDiffer,
			TriggersDiffer:   triggersDiffer,
			Annotations:      votes,
		})
	}
	return disagreements
}

// ComputeReport assembles the full reviewer-facing agreement payload:
// Cohen's kappa and trigger F1 for every unordered annotator pair, Fleiss'
// kappa across all annotators, and the disagreement listing. Undefined
// metrics become null scores with the insufficiency marker; they are never
// surfaced as errors.
func (aeu *AgreementEngineUnit) ComputeReport(ctx context.Context, plan *domain.SplitPlan, items []domain.Item, all [][]domain.AnnotationRecord, names []string) (*domain.AgreementReport, error) {
	_, span := aeu.tracer.Start(ctx, "AgreementEngineUnit.ComputeReport",
		trace.WithAttributes(
			attribute.String("unit.id", aeu.name),
			attribute.Int("agreement.annotators", len(all)),
			attribute.Int("agreement.overlap_items", len(plan.OverlapItemIDs)),
		),
	)
	defer span.End()

	report := &domain.AgreementReport{
		Pairwise:     make([]domain.PairwiseAgreement, 0, len(all)*(len(all)-1)/2),
		OverlapItems: len(plan.OverlapItemIDs),
	}

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			pair := domain.PairwiseAgreement{
				AnnotatorA:  i,
				AnnotatorB:  j,
				NameA:       annotatorName(names, i),
				NameB:       annotatorName(names, j),
				CommonItems: len(commonAnnotated(all[i], all[j])),
			}

			kappa, err := aeu.CohenKappa(all[i], all[j])
			switch {
			case err == nil:
				pair.EventKappa = domain.DefinedScore(kappa)
			case errors.Is(err, domain.ErrUndefinedMetric):
				pair.EventKappa = domain.UndefinedScore()
			default:
				span.RecordError(err)
				return nil, err
			}

			f1, err := aeu.TriggerF1(all[i], all[j])
			switch {
			case err == nil:
				pair.TriggerF1 = domain.DefinedScore(f1)
			case errors.Is(err, domain.ErrUndefinedMetric):
				pair.TriggerF1 = domain.UndefinedScore()
			default:
				span.RecordError(err)
				return nil, err
			}

			report.Pairwise = append(report.Pairwise, pair)
		}
	}

	fleiss, err := aeu.FleissKappa(all, plan.OverlapItemIDs)
	switch {
	case err == nil:
		report.FleissKappa = domain.DefinedScore(fleiss)
	case errors.Is(err, domain.ErrUndefinedMetric):
		report.FleissKappa = domain.UndefinedScore()
	default:
		span.RecordError(err)
		return nil, err
	}

	report.Disagreements = aeu.Disagreements(plan, items, all, names)

	span.SetAttributes(
		attribute.Int("agreement.pairs", len(report.Pairwise)),
		attribute.Int("agreement.disagreements", len(report.Disagreements)),
	)

	return report, nil
}
