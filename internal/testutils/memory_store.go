package testutils

import (
	"context"
	"sync"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

// MemoryStore implements ports.DataStore entirely in memory for
// deterministic tests. It mirrors the flat-file store's contract: missing
// inputs surface as the domain sentinels, absent annotator collections
// read as empty, and record collections stay sorted by item ID.
//
// Error injection: FailWith arms one operation (by method name) to return
// an error, which supports exercising degraded paths without a real
// filesystem.
//
// Concurrency: safe for concurrent use; one mutex guards all state, which
// also serializes same-annotator upserts the way the file store's
// per-annotator locks do.
type MemoryStore struct {
	mu sync.Mutex

	config     *domain.ProjectConfig
	items      []domain.Item
	eventTypes []domain.EventTypeDef
	plan       *domain.SplitPlan
	gold       map[string]domain.GoldEntry
	records    map[int][]domain.AnnotationRecord

	failures      map[string]error
	planSaveCalls int
}

var _ ports.DataStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. Loads of the config, items, or
// catalog fail with the matching domain sentinel until set.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		gold:     make(map[string]domain.GoldEntry),
		records:  make(map[int][]domain.AnnotationRecord),
		failures: make(map[string]error),
	}
}

// NewMemoryStoreFromCorpus creates a store pre-seeded with a generated
// corpus and project configuration, the usual starting point for
// application-level tests.
func NewMemoryStoreFromCorpus(corpus *Corpus, cfg domain.ProjectConfig) *MemoryStore {
	store := NewMemoryStore()
	store.SetItems(corpus.Items)
	store.SetEventTypes(corpus.EventTypes)
	store.SetProjectConfig(cfg)
	return store
}

// FailWith arms the named operation (e.g. "SavePlan") to return err on
// every call until cleared with a nil err.
func (s *MemoryStore) FailWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// SetProjectConfig installs the project configuration.
func (s *MemoryStore) SetProjectConfig(cfg domain.ProjectConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = &cfg
}

// SetItems installs the item universe.
func (s *MemoryStore) SetItems(items []domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.Item(nil), items...)
}

// SetEventTypes installs the event-type catalog.
func (s *MemoryStore) SetEventTypes(types []domain.EventTypeDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventTypes = append([]domain.EventTypeDef(nil), types...)
}

// SetPlan installs a persisted plan directly, bypassing generation.
func (s *MemoryStore) SetPlan(plan *domain.SplitPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
}

// PlanSaveCalls reports how many times SavePlan succeeded, which lets
// tests assert the generate-once guarantee under concurrency.
func (s *MemoryStore) PlanSaveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planSaveCalls
}

func (s *MemoryStore) failure(op string) error {
	return s.failures[op]
}

// LoadProjectConfig implements ports.ProjectConfigSource.
func (s *MemoryStore) LoadProjectConfig(ctx context.Context) (domain.ProjectConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LoadProjectConfig"); err != nil {
		return domain.ProjectConfig{}, err
	}
	if s.config == nil {
		return domain.ProjectConfig{}, domain.ErrConfigMissing
	}
	return *s.config, nil
}

// LoadItems implements ports.ItemSource.
func (s *MemoryStore) LoadItems(ctx context.Context) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LoadItems"); err != nil {
		return nil, err
	}
	if s.items == nil {
		return nil, domain.ErrDataMissing
	}
	return append([]domain.Item(nil), s.items...), nil
}

// LoadEventTypes implements ports.EventTypeSource.
func (s *MemoryStore) LoadEventTypes(ctx context.Context) ([]domain.EventTypeDef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LoadEventTypes"); err != nil {
		return nil, err
	}
	if s.eventTypes == nil {
		return nil, domain.ErrDataMissing
	}
	return append([]domain.EventTypeDef(nil), s.eventTypes...), nil
}

// LoadAnnotatorRecords implements ports.AnnotationStore.
func (s *MemoryStore) LoadAnnotatorRecords(ctx context.Context, annotatorID int) ([]domain.AnnotationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LoadAnnotatorRecords"); err != nil {
		return nil, err
	}
	return append([]domain.AnnotationRecord{}, s.records[annotatorID]...), nil
}

// SaveAnnotatorRecords implements ports.AnnotationStore.
func (s *MemoryStore) SaveAnnotatorRecords(ctx context.Context, annotatorID int, records []domain.AnnotationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SaveAnnotatorRecords"); err != nil {
		return err
	}
	stored := append([]domain.AnnotationRecord{}, records...)
	domain.SortRecords(stored)
	s.records[annotatorID] = stored
	return nil
}

// UpsertAnnotatorRecord implements ports.AnnotationStore.
func (s *MemoryStore) UpsertAnnotatorRecord(ctx context.Context, annotatorID int, rec domain.AnnotationRecord) ([]domain.AnnotationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpsertAnnotatorRecord"); err != nil {
		return nil, err
	}
	updated := domain.UpsertRecord(append([]domain.AnnotationRecord{}, s.records[annotatorID]...), rec)
	s.records[annotatorID] = updated
	return append([]domain.AnnotationRecord{}, updated...), nil
}

// LoadPlan implements ports.PlanStore.
func (s *MemoryStore) LoadPlan(ctx context.Context) (*domain.SplitPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LoadPlan"); err != nil {
		return nil, err
	}
	if s.plan == nil {
		return nil, domain.ErrPlanMissing
	}
	return s.plan, nil
}

// SavePlan implements ports.PlanStore.
func (s *MemoryStore) SavePlan(ctx context.Context, plan *domain.SplitPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SavePlan"); err != nil {
		return err
	}
	s.plan = plan
	s.planSaveCalls++
	return nil
}

// DeletePlan implements ports.PlanStore.
func (s *MemoryStore) DeletePlan(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeletePlan"); err != nil {
		return err
	}
	s.plan = nil
	return nil
}

// LoadGold implements ports.GoldStore.
func (s *MemoryStore) LoadGold(ctx context.Context) (map[string]domain.GoldEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LoadGold"); err != nil {
		return nil, err
	}
	gold := make(map[string]domain.GoldEntry, len(s.gold))
	for k, v := range s.gold {
		gold[k] = v
	}
	return gold, nil
}

// SaveGold implements ports.GoldStore.
func (s *MemoryStore) SaveGold(ctx context.Context, gold map[string]domain.GoldEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SaveGold"); err != nil {
		return err
	}
	replaced := make(map[string]domain.GoldEntry, len(gold))
	for k, v := range gold {
		replaced[k] = v
	}
	s.gold = replaced
	return nil
}

// UpsertGoldEntry implements ports.GoldStore.
func (s *MemoryStore) UpsertGoldEntry(ctx context.Context, itemID int, entry domain.GoldEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpsertGoldEntry"); err != nil {
		return err
	}
	s.gold[domain.GoldKey(itemID)] = entry
	return nil
}
