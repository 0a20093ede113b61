package domain

import "fmt"

// ResolutionStatus records how an overlap item's final annotation was
// decided during merging.
type ResolutionStatus string

const (
	// ResolutionMajorityVote means a strict majority of the item's voters
	// agreed on the event type.
	ResolutionMajorityVote ResolutionStatus = "majority_vote"

	// ResolutionNeedsAdjudication means no strict majority existed and the
	// merged value is a deterministic placeholder awaiting human review.
	ResolutionNeedsAdjudication ResolutionStatus = "needs_adjudication"
)

// AnnotatorVote is one annotator's full payload for an overlap item,
// preserved in merge and disagreement output so reviewers can see who
// said what.
type AnnotatorVote struct {
	// AnnotatorID is the voter's integer ID.
	AnnotatorID int `json:"annotator_id"`

	// Annotator is the voter's display name.
	Annotator string `json:"annotator"`

	// Annotation is the voter's value, unmodified.
	Annotation AnnotationValue `json:"annotation"`
}

// MergedUniqueItem is a single-annotator item in the merged dataset. Its
// annotation is taken verbatim from the one annotator who saw it.
type MergedUniqueItem struct {
	Item

	// Annotation is the sole annotator's value.
	Annotation AnnotationValue `json:"annotation"`

	// Annotator is the display name of the annotator who produced it.
	Annotator string `json:"annotator"`
}

// MergedOverlapItem is a multi-annotator item in the merged dataset,
// resolved by majority vote or flagged for adjudication.
type MergedOverlapItem struct {
	Item

	// Annotation is the resolved value: the majority event type plus the
	// most frequent trigger span, timestamped with the latest vote.
	Annotation AnnotationValue `json:"annotation"`

	// ResolutionStatus says whether Annotation carries a real majority or
	// a placeholder pending adjudication.
	ResolutionStatus ResolutionStatus `json:"resolution_status"`

	// Votes lists every collected annotation in ascending annotator-ID
	// order.
	Votes []AnnotatorVote `json:"votes"`

	// AgreementRatio is "M/N": M voters backing the winning event type out
	// of N collected votes.
	AgreementRatio string `json:"agreement_ratio"`
}

// MergeResult is the full merged dataset produced by one merge pass.
// Merging reads annotator stores and writes nothing, so repeating it over
// unchanged stores yields a deeply equal result.
type MergeResult struct {
	// UniqueItems holds the annotated single-annotator items, ascending by
	// item ID. Unannotated unique items are omitted.
	UniqueItems []MergedUniqueItem `json:"unique_items"`

	// OverlapItems holds every overlap item with at least one collected
	// vote, ascending by item ID.
	OverlapItems []MergedOverlapItem `json:"overlap_items"`
}

// NeedsAdjudication returns the overlap items whose votes produced no
// strict majority, in ascending item-ID order.
func (r *MergeResult) NeedsAdjudication() []MergedOverlapItem {
	pending := make([]MergedOverlapItem, 0)
	for _, item := range r.OverlapItems {
		if item.ResolutionStatus == ResolutionNeedsAdjudication {
			pending = append(pending, item)
		}
	}
	return pending
}

// FormatAgreementRatio renders the "M/N" agreement string stored on merged
// overlap items.
func FormatAgreementRatio(winning, total int) string {
	return fmt.Sprintf("%d/%d", winning, total)
}
