package domain

import "math"

// Progress summarizes how far an annotator has gotten through their
// assigned items.
type Progress struct {
	// Completed is the number of assigned items with a saved annotation.
	Completed int `json:"completed"`

	// Total is the number of items assigned to the annotator.
	Total int `json:"total"`

	// Percentage is Completed/Total as a percentage rounded to one
	// decimal place, 0 when nothing is assigned.
	Percentage float64 `json:"percentage"`
}

// NewProgress computes a Progress value with the percentage rounding rule
// applied.
func NewProgress(completed, total int) Progress {
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Percentage = math.Round(float64(completed)/float64(total)*1000) / 10
	}
	return p
}

// AnnotatorProgress is one annotator's progress row in the admin overview.
type AnnotatorProgress struct {
	// AnnotatorID is the integer annotator ID the row describes.
	AnnotatorID int `json:"annotator_id"`

	// Annotator is the display name.
	Annotator string `json:"annotator"`

	Progress
}

// Kappa interpretation bands (Landis & Koch style, collapsed at the low
// end: anything below 0.20 reads as poor agreement).
const (
	InterpretationPoor          = "Poor"
	InterpretationFair          = "Fair"
	InterpretationModerate      = "Moderate"
	InterpretationSubstantial   = "Substantial"
	InterpretationAlmostPerfect = "Almost Perfect"

	// InterpretationInsufficient accompanies a null score when a metric is
	// undefined for the collected data.
	InterpretationInsufficient = "Insufficient data"
)

// InterpretKappa maps a kappa-style score onto its qualitative band.
func InterpretKappa(score float64) string {
	switch {
	case score < 0.20:
		return InterpretationPoor
	case score < 0.40:
		return InterpretationFair
	case score < 0.60:
		return InterpretationModerate
	case score < 0.80:
		return InterpretationSubstantial
	default:
		return InterpretationAlmostPerfect
	}
}

// MetricScore is a metric value paired with its qualitative band. A nil
// Score means the metric was undefined for the collected data, which is a
// normal early-project state rather than an error.
type MetricScore struct {
	// Score is the rounded metric value, or nil when undefined.
	Score *float64 `json:"score"`

	// Interpretation is the qualitative band for Score, or
	// "Insufficient data" when Score is nil.
	Interpretation string `json:"interpretation"`
}

// DefinedScore builds a MetricScore for a computed value.
func DefinedScore(score float64) MetricScore {
	return MetricScore{Score: &score, Interpretation: InterpretKappa(score)}
}

// UndefinedScore builds the null MetricScore used when a metric cannot be
// computed.
func UndefinedScore() MetricScore {
	return MetricScore{Interpretation: InterpretationInsufficient}
}

// PairwiseAgreement holds the agreement metrics for one unordered
// annotator pair, computed over the items both have annotated.
type PairwiseAgreement struct {
	// AnnotatorA and AnnotatorB identify the pair, with A < B.
	AnnotatorA int `json:"annotator_a"`
	AnnotatorB int `json:"annotator_b"`

	// NameA and NameB are the pair's display names.
	NameA string `json:"name_a"`
	NameB string `json:"name_b"`

	// CommonItems is the number of items with a saved annotation from
	// both annotators.
	CommonItems int `json:"common_items"`

	// EventKappa is Cohen's kappa over the pair's event-type labels.
	EventKappa MetricScore `json:"event_kappa"`

	// TriggerF1 is the span-level F1 over the pair's trigger selections.
	TriggerF1 MetricScore `json:"trigger_f1"`
}

// DisagreementItem is one overlap item on which annotators differ, with
// the conflicting payloads attached for review.
type DisagreementItem struct {
	// ItemID identifies the contested item.
	ItemID int `json:"item_id"`

	// Sentence and Tokens reproduce the item text for display.
	Sentence string   `json:"sentence"`
	Tokens   []string `json:"tokens"`

	// EventTypesDiffer is true when the collected event-type labels are
	// not all equal.
	EventTypesDiffer bool `json:"event_types_differ"`

	// TriggersDiffer is true when the collected trigger spans are not all
	// equal as sorted sets.
	TriggersDiffer bool `json:"triggers_differ"`

	// Annotations lists the collected payloads in ascending annotator-ID
	// order.
	Annotations []AnnotatorVote `json:"annotations"`
}

// AgreementReport is the full inter-annotator agreement payload served to
// reviewers.
type AgreementReport struct {
	// Pairwise holds one row per unordered annotator pair, ordered by
	// (AnnotatorA, AnnotatorB).
	Pairwise []PairwiseAgreement `json:"pairwise"`

	// FleissKappa is the multi-rater agreement across all annotators over
	// the overlap set.
	FleissKappa MetricScore `json:"fleiss_kappa"`

	// Disagreements lists the overlap items whose annotations conflict.
	Disagreements []DisagreementItem `json:"disagreements"`

	// OverlapItems is the size of the plan's overlap set.
	OverlapItems int `json:"overlap_items"`
}
