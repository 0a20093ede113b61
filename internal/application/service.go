// Package application orchestrates the annotation workflow: it wires the
// flat-file store to the deterministic engines and exposes the operations
// the HTTP layer serves, from assignment fetches and annotation saves to
// agreement reports, merged exports, and adjudication.
package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

// planKey is the singleflight key guarding split-plan generation. One
// project has one plan, so a single key suffices.
const planKey = "split_plan"

// AnnotationService coordinates every annotation workflow against the
// backing store. It holds no request state: all flows re-read the store
// on each call, so externally edited data files take effect immediately.
//
// Concurrency: safe for concurrent use. Plan generation is collapsed
// through a singleflight group so a burst of first requests persists
// exactly one plan; everything else relies on the store's own locking.
type AnnotationService struct {
	store     ports.DataStore
	planner   ports.SplitPlanner
	resolver  ports.AssignmentResolver
	agreement ports.AgreementEngine
	merger    ports.MergeResolver
	metrics   ports.MetricsCollector

	planSF singleflight.Group

	// now stamps server-side timestamps; tests substitute a fixed clock.
	now func() time.Time
}

// NewAnnotationService creates the orchestration layer over a store and
// the four workflow engines.
//
// Error Conditions:
//   - returns an error when any dependency is nil.
func NewAnnotationService(
	store ports.DataStore,
	planner ports.SplitPlanner,
	resolver ports.AssignmentResolver,
	agreement ports.AgreementEngine,
	merger ports.MergeResolver,
	metrics ports.MetricsCollector,
) (*AnnotationService, error) {
	switch {
	case store == nil:
		return nil, errors.New("store cannot be nil")
	case planner == nil:
		return nil, errors.New("planner cannot be nil")
	case resolver == nil:
		return nil, errors.New("resolver cannot be nil")
	case agreement == nil:
		return nil, errors.New("agreement engine cannot be nil")
	case merger == nil:
		return nil, errors.New("merge resolver cannot be nil")
	case metrics == nil:
		return nil, errors.New("metrics collector cannot be nil")
	}

	return &AnnotationService{
		store:     store,
		planner:   planner,
		resolver:  resolver,
		agreement: agreement,
		merger:    merger,
		metrics:   metrics,
		now:       time.Now,
	}, nil
}

// AssignmentFor returns the annotator's working set in its stable display
// order with previously saved annotations merged in. The split plan is
// generated and persisted on first use; later calls resolve against the
// persisted plan even if the configuration has changed since.
func (s *AnnotationService) AssignmentFor(ctx context.Context, annotatorID int) (*AssignmentPage, error) {
	cfg, items, err := s.loadProject(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkAnnotatorID(cfg, annotatorID); err != nil {
		return nil, err
	}

	plan, err := s.ensurePlan(ctx, cfg, items)
	if err != nil {
		return nil, err
	}

	ordered := s.resolver.Resolve(annotatorID, plan, items)

	records, err := s.store.LoadAnnotatorRecords(ctx, annotatorID)
	if err != nil {
		return nil, err
	}
	saved := domain.IndexRecords(records)

	annotated := make([]domain.AnnotatedItem, 0, len(ordered))
	for _, item := range ordered {
		ai := domain.AnnotatedItem{Item: item}
		if rec, ok := saved[item.ID]; ok {
			ai.Annotation = rec.Annotation
		}
		annotated = append(annotated, ai)
	}

	return &AssignmentPage{
		AnnotatorID: annotatorID,
		Annotator:   cfg.AnnotatorName(annotatorID),
		Items:       annotated,
		Total:       len(annotated),
	}, nil
}

// SubmitAnnotation validates one answer and persists it as a denormalized
// record with a server-side UTC timestamp. Resubmitting an item replaces
// the previous record. The returned record is what was persisted.
//
// Error Conditions:
//   - domain.ErrMalformedAnnotation: payload fails validation, the item
//     does not exist, a trigger index is out of range for the item's
//     tokens, or the event type is not in the catalog (the message names
//     the closest catalog entry).
//   - domain.ErrUnknownAnnotator: annotator ID outside the configured range.
func (s *AnnotationService) SubmitAnnotation(ctx context.Context, req SubmitAnnotationRequest) (*domain.AnnotationRecord, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedAnnotation, err)
	}

	cfg, items, err := s.loadProject(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkAnnotatorID(cfg, req.AnnotatorID); err != nil {
		return nil, err
	}

	item, ok := domain.IndexItems(items)[req.ItemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %d not found", domain.ErrMalformedAnnotation, req.ItemID)
	}
	if err := checkTriggerBounds(req.TriggerIndices, item); err != nil {
		return nil, err
	}

	catalog, err := s.store.LoadEventTypes(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkEventType(req.EventType, req.NotInList, catalog); err != nil {
		return nil, err
	}

	value := domain.AnnotationValue{
		EventType:      req.EventType,
		TriggerIndices: domain.NormalizeTriggerIndices(req.TriggerIndices),
		NotInList:      req.NotInList,
		AnnotatedAt:    s.now().UTC(),
	}
	rec := domain.NewAnnotationRecord(item, value)
	if _, err := s.store.UpsertAnnotatorRecord(ctx, req.AnnotatorID, rec); err != nil {
		return nil, err
	}

	s.metrics.RecordCounter("annotations_saved_total", 1,
		map[string]string{"annotator": cfg.AnnotatorName(req.AnnotatorID)})
	return &rec, nil
}

// Progress reports how many of the annotator's assigned live items carry
// a saved annotation. Percentage is rounded to one decimal and is 0 for
// an empty assignment.
func (s *AnnotationService) Progress(ctx context.Context, annotatorID int) (domain.Progress, error) {
	cfg, items, err := s.loadProject(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	if err := checkAnnotatorID(cfg, annotatorID); err != nil {
		return domain.Progress{}, err
	}

	plan, err := s.ensurePlan(ctx, cfg, items)
	if err != nil {
		return domain.Progress{}, err
	}
	records, err := s.store.LoadAnnotatorRecords(ctx, annotatorID)
	if err != nil {
		return domain.Progress{}, err
	}

	return s.annotatorProgress(annotatorID, plan, items, records), nil
}

// AdminProgress reports per-annotator progress plus the overall roll-up.
// Per-annotator collections load concurrently.
func (s *AnnotationService) AdminProgress(ctx context.Context) (*ProgressOverview, error) {
	cfg, items, err := s.loadProject(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.ensurePlan(ctx, cfg, items)
	if err != nil {
		return nil, err
	}

	perAnnotator := make([]domain.AnnotatorProgress, cfg.NumAnnotators)
	g, gctx := errgroup.WithContext(ctx)
	for annotatorID := 0; annotatorID < cfg.NumAnnotators; annotatorID++ {
		g.Go(func() error {
			records, err := s.store.LoadAnnotatorRecords(gctx, annotatorID)
			if err != nil {
				return err
			}
			perAnnotator[annotatorID] = domain.AnnotatorProgress{
				AnnotatorID: annotatorID,
				Annotator:   cfg.AnnotatorName(annotatorID),
				Progress:    s.annotatorProgress(annotatorID, plan, items, records),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	completed, total := 0, 0
	for _, p := range perAnnotator {
		completed += p.Completed
		total += p.Total
	}

	return &ProgressOverview{
		Annotators: perAnnotator,
		Overall:    domain.NewProgress(completed, total),
	}, nil
}

// AgreementReport computes the full inter-annotator agreement payload:
// pairwise Cohen's kappa and trigger F1 for every unordered annotator
// pair, Fleiss' kappa across all annotators, and the disagreement
// listing. Undefined metrics surface as null scores rather than errors.
func (s *AnnotationService) AgreementReport(ctx context.Context) (*domain.AgreementReport, error) {
	start := time.Now()

	cfg, items, err := s.loadProject(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.ensurePlan(ctx, cfg, items)
	if err != nil {
		return nil, err
	}
	all, err := s.loadAllRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}

	report, err := s.agreement.ComputeReport(ctx, plan, items, all, cfg.AnnotatorNameList())
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLatency("agreement_report", time.Since(start),
		map[string]string{"component": "agreement_engine"})
	if report.FleissKappa.Score != nil {
		s.metrics.RecordGauge("agreement_score", *report.FleissKappa.Score,
			map[string]string{"kind": "fleiss_kappa", "pair": "all"})
	}
	for _, pair := range report.Pairwise {
		pairLabel := fmt.Sprintf("%d-%d", pair.AnnotatorA, pair.AnnotatorB)
		if pair.EventKappa.Score != nil {
			s.metrics.RecordGauge("agreement_score", *pair.EventKappa.Score,
				map[string]string{"kind": "cohen_kappa", "pair": pairLabel})
		}
		if pair.TriggerF1.Score != nil {
			s.metrics.RecordGauge("agreement_score", *pair.TriggerF1.Score,
				map[string]string{"kind": "trigger_f1", "pair": pairLabel})
		}
	}

	return report, nil
}

// MergedDataset resolves every annotated item into the export payload.
// Unique items whose owner has not annotated them are reported in
// PendingIDs and omitted from the merged collections.
func (s *AnnotationService) MergedDataset(ctx context.Context) (*MergedDataset, error) {
	start := time.Now()

	cfg, items, err := s.loadProject(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.ensurePlan(ctx, cfg, items)
	if err != nil {
		return nil, err
	}
	all, err := s.loadAllRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}

	result, err := s.merger.Merge(ctx, plan, items, all, cfg.AnnotatorNameList())
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLatency("merge_dataset", time.Since(start),
		map[string]string{"component": "merge_resolver"})

	return &MergedDataset{
		UniqueItems:  result.UniqueItems,
		OverlapItems: result.OverlapItems,
		PendingIDs:   pendingUniqueIDs(plan, items, result),
	}, nil
}

// AdjudicationQueue lists the overlap items that lack a strict majority,
// each flagged with whether a gold answer already exists. Adjudicating an
// item flips its flag but never changes the merge result itself.
func (s *AnnotationService) AdjudicationQueue(ctx context.Context) (*AdjudicationQueue, error) {
	dataset, err := s.MergedDataset(ctx)
	if err != nil {
		return nil, err
	}
	gold, err := s.store.LoadGold(ctx)
	if err != nil {
		return nil, err
	}

	queue := make([]AdjudicationItem, 0)
	for _, item := range dataset.OverlapItems {
		if item.ResolutionStatus != domain.ResolutionNeedsAdjudication {
			continue
		}
		qi := AdjudicationItem{MergedOverlapItem: item}
		if entry, ok := gold[domain.GoldKey(item.ID)]; ok {
			qi.Adjudicated = true
			qi.Gold = &entry
		}
		queue = append(queue, qi)
	}

	return &AdjudicationQueue{Items: queue, Total: len(queue)}, nil
}

// SubmitAdjudication validates and records the authoritative answer for
// one item. The entry goes into the gold store only; merged and
// per-annotator data stay untouched.
//
// Error Conditions: same as SubmitAnnotation, minus the annotator check.
func (s *AnnotationService) SubmitAdjudication(ctx context.Context, req SubmitAdjudicationRequest) (*domain.GoldEntry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedAnnotation, err)
	}

	items, err := s.store.LoadItems(ctx)
	if err != nil {
		return nil, err
	}
	item, ok := domain.IndexItems(items)[req.ItemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %d not found", domain.ErrMalformedAnnotation, req.ItemID)
	}
	if err := checkTriggerBounds(req.TriggerIndices, item); err != nil {
		return nil, err
	}

	catalog, err := s.store.LoadEventTypes(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkEventType(req.EventType, req.NotInList, catalog); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := domain.GoldEntry{
		AnnotationValue: domain.AnnotationValue{
			EventType:      req.EventType,
			TriggerIndices: domain.NormalizeTriggerIndices(req.TriggerIndices),
			NotInList:      req.NotInList,
			AnnotatedAt:    now,
		},
		AdjudicatedAt: now,
	}
	if err := s.store.UpsertGoldEntry(ctx, req.ItemID, entry); err != nil {
		return nil, err
	}

	s.metrics.RecordCounter("adjudications_saved_total", 1, nil)
	return &entry, nil
}

// EventTypes returns the event-type catalog in file order.
func (s *AnnotationService) EventTypes(ctx context.Context) ([]domain.EventTypeDef, error) {
	return s.store.LoadEventTypes(ctx)
}

// PublicConfig returns the credential-free view of the project
// configuration.
func (s *AnnotationService) PublicConfig(ctx context.Context) (domain.PublicConfig, error) {
	cfg, err := s.store.LoadProjectConfig(ctx)
	if err != nil {
		return domain.PublicConfig{}, err
	}
	return cfg.Redacted(), nil
}

// RegeneratePlan removes the persisted split plan so the next assignment
// request generates a fresh one. Destructive: annotators may receive
// different items afterwards.
func (s *AnnotationService) RegeneratePlan(ctx context.Context) error {
	return s.store.DeletePlan(ctx)
}

// ensurePlan returns the persisted plan, generating and persisting one
// when none exists. Generation runs inside a singleflight group and
// re-checks the store first, so a burst of concurrent first requests
// yields exactly one persisted plan.
func (s *AnnotationService) ensurePlan(ctx context.Context, cfg domain.ProjectConfig, items []domain.Item) (*domain.SplitPlan, error) {
	plan, err := s.store.LoadPlan(ctx)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, domain.ErrPlanMissing) {
		return nil, err
	}

	v, err, _ := s.planSF.Do(planKey, func() (any, error) {
		// A concurrent caller may have persisted the plan between our
		// miss and this callback.
		existing, err := s.store.LoadPlan(ctx)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrPlanMissing) {
			return nil, err
		}

		generated, err := s.planner.Generate(ctx, items, cfg.PlanConfig())
		if err != nil {
			return nil, err
		}
		if err := generated.Validate(items); err != nil {
			return nil, err
		}
		generated.GeneratedAt = s.now().UTC()

		if err := s.store.SavePlan(ctx, generated); err != nil {
			return nil, err
		}
		s.metrics.RecordCounter("plan_generations_total", 1,
			map[string]string{"trigger": "first_request"})
		return generated, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SplitPlan), nil
}

// loadProject loads and validates the configuration together with the
// item universe, the inputs nearly every flow starts from.
func (s *AnnotationService) loadProject(ctx context.Context) (domain.ProjectConfig, []domain.Item, error) {
	cfg, err := s.store.LoadProjectConfig(ctx)
	if err != nil {
		return domain.ProjectConfig{}, nil, err
	}
	if err := validateProjectConfig(cfg); err != nil {
		return domain.ProjectConfig{}, nil, err
	}

	items, err := s.store.LoadItems(ctx)
	if err != nil {
		return domain.ProjectConfig{}, nil, err
	}
	return cfg, items, nil
}

// loadAllRecords loads every annotator's collection concurrently, indexed
// by annotator ID.
func (s *AnnotationService) loadAllRecords(ctx context.Context, cfg domain.ProjectConfig) ([][]domain.AnnotationRecord, error) {
	all := make([][]domain.AnnotationRecord, cfg.NumAnnotators)
	g, gctx := errgroup.WithContext(ctx)
	for annotatorID := 0; annotatorID < cfg.NumAnnotators; annotatorID++ {
		g.Go(func() error {
			records, err := s.store.LoadAnnotatorRecords(gctx, annotatorID)
			if err != nil {
				return err
			}
			all[annotatorID] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// annotatorProgress counts saved annotations over the annotator's
// assigned live items.
func (s *AnnotationService) annotatorProgress(annotatorID int, plan *domain.SplitPlan, items []domain.Item, records []domain.AnnotationRecord) domain.Progress {
	assigned := s.resolver.Resolve(annotatorID, plan, items)
	saved := domain.IndexRecords(records)

	completed := 0
	for _, item := range assigned {
		if rec, ok := saved[item.ID]; ok && rec.Annotation != nil {
			completed++
		}
	}
	return domain.NewProgress(completed, len(assigned))
}

// pendingUniqueIDs lists live unique items that no merged record covers,
// ascending by item ID.
func pendingUniqueIDs(plan *domain.SplitPlan, items []domain.Item, result *domain.MergeResult) []int {
	merged := make(map[int]struct{}, len(result.UniqueItems))
	for _, item := range result.UniqueItems {
		merged[item.ID] = struct{}{}
	}
	live := domain.IndexItems(items)

	pending := make([]int, 0)
	for _, itemIDs := range plan.UniqueAssignments {
		for _, id := range itemIDs {
			if _, ok := live[id]; !ok {
				continue
			}
			if _, ok := merged[id]; ok {
				continue
			}
			pending = append(pending, id)
		}
	}
	sort.Ints(pending)
	return pending
}

// validateProjectConfig applies the struct tags plus the cross-field
// rules that tags cannot express.
func validateProjectConfig(cfg domain.ProjectConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("project config validation failed: %w", err)
	}
	if len(cfg.AnnotatorNames) != 0 && len(cfg.AnnotatorNames) != cfg.NumAnnotators {
		return fmt.Errorf("project config validation failed: annotator_names has %d entries for %d annotators",
			len(cfg.AnnotatorNames), cfg.NumAnnotators)
	}
	if len(cfg.AnnotatorPasswords) != 0 && len(cfg.AnnotatorPasswords) != cfg.NumAnnotators {
		return fmt.Errorf("project config validation failed: annotator_passwords has %d entries for %d annotators",
			len(cfg.AnnotatorPasswords), cfg.NumAnnotators)
	}
	return nil
}

// checkAnnotatorID rejects annotator IDs outside the configured range.
func checkAnnotatorID(cfg domain.ProjectConfig, annotatorID int) error {
	if annotatorID < 0 || annotatorID >= cfg.NumAnnotators {
		return fmt.Errorf("%w: annotator %d", domain.ErrUnknownAnnotator, annotatorID)
	}
	return nil
}

// checkTriggerBounds rejects trigger indices outside the item's tokens.
// Negative indices are already rejected by struct validation.
func checkTriggerBounds(indices []int, item domain.Item) error {
	for _, idx := range indices {
		if idx >= len(item.Tokens) {
			return fmt.Errorf("%w: trigger index %d out of range for %d tokens",
				domain.ErrMalformedAnnotation, idx, len(item.Tokens))
		}
	}
	return nil
}

// checkEventType accepts a null event type, a not-in-list proposal, or a
// label present in the catalog under Unicode case folding. Anything else
// is rejected with the closest catalog entry by Levenshtein distance.
func checkEventType(eventType *string, notInList bool, catalog []domain.EventTypeDef) error {
	if eventType == nil || notInList {
		return nil
	}

	folder := cases.Fold()
	want := folder.String(*eventType)
	for _, def := range catalog {
		if folder.String(def.Name) == want {
			return nil
		}
	}

	if suggestion, ok := closestEventType(want, catalog); ok {
		return fmt.Errorf("%w: event type %q is not in the catalog (closest match %q)",
			domain.ErrMalformedAnnotation, *eventType, suggestion)
	}
	return fmt.Errorf("%w: event type %q is not in the catalog", domain.ErrMalformedAnnotation, *eventType)
}

// closestEventType returns the catalog name nearest to the folded input.
// Ties keep the first catalog entry. The bool is false for an empty
// catalog.
func closestEventType(folded string, catalog []domain.EventTypeDef) (string, bool) {
	folder := cases.Fold()
	best, bestDist := "", -1
	for _, def := range catalog {
		dist := levenshtein.ComputeDistance(folded, folder.String(def.Name))
		if bestDist < 0 || dist < bestDist {
			best, bestDist = def.Name, dist
		}
	}
	return best, bestDist >= 0
}
