// Package storage persists annotation project state as flat JSON files
// under a single data directory. The layout mirrors what operators edit
// by hand: config.json, input_data.json and event_types.json are
// authored inputs, while split_plan.json, gold_annotations.json and
// annotations/annotator_<id>.json are written by the server.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

// ErrEmptyDataDir is returned when a JSONStore is constructed without a
// data directory.
var ErrEmptyDataDir = errors.New("data directory cannot be empty")

const (
	configFile     = "config.json"
	eventTypesFile = "event_types.json"
	inputDataFile  = "input_data.json"
	planFile       = "split_plan.json"
	goldFile       = "gold_annotations.json"
	annotationsDir = "annotations"
)

// JSONStore implements ports.DataStore over flat files in dataDir.
//
// Every write is atomic at the file level: the payload is encoded, written
// to a sibling temp file and renamed over the destination, so a reader
// sees either the previous file or the new one, never a truncated mix.
//
// Concurrency: safe for concurrent use. Load-modify-write cycles for a
// given annotator are serialized by a per-annotator mutex; the plan and
// gold files each have their own. Plain loads take no lock because
// rename makes file replacement atomic.
type JSONStore struct {
	dataDir string

	planMu sync.Mutex
	goldMu sync.Mutex

	mu    sync.Mutex
	annMu map[int]*sync.Mutex
}

var _ ports.DataStore = (*JSONStore)(nil)

// NewJSONStore creates a store rooted at dataDir and ensures the
// annotations subdirectory exists.
//
// Error Conditions:
//   - ErrEmptyDataDir: dataDir is empty.
//   - domain.StoreError: the annotations directory could not be created.
func NewJSONStore(dataDir string) (*JSONStore, error) {
	if dataDir == "" {
		return nil, ErrEmptyDataDir
	}
	if err := os.MkdirAll(filepath.Join(dataDir, annotationsDir), 0o755); err != nil {
		return nil, domain.NewStoreError("mkdir", dataDir, err)
	}

	return &JSONStore{
		dataDir: dataDir,
		annMu:   make(map[int]*sync.Mutex),
	}, nil
}

// DataDir returns the directory the store reads and writes.
func (s *JSONStore) DataDir() string { return s.dataDir }

// LoadProjectConfig reads config.json.
func (s *JSONStore) LoadProjectConfig(ctx context.Context) (domain.ProjectConfig, error) {
	var cfg domain.ProjectConfig
	ok, err := readJSON(filepath.Join(s.dataDir, configFile), &cfg)
	if err != nil {
		return domain.ProjectConfig{}, err
	}
	if !ok {
		return domain.ProjectConfig{}, domain.ErrConfigMissing
	}
	return cfg, nil
}

// LoadItems reads input_data.json in dataset order.
func (s *JSONStore) LoadItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	ok, err := readJSON(filepath.Join(s.dataDir, inputDataFile), &items)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrDataMissing
	}
	return items, nil
}

// LoadEventTypes reads event_types.json in catalog order.
func (s *JSONStore) LoadEventTypes(ctx context.Context) ([]domain.EventTypeDef, error) {
	var types []domain.EventTypeDef
	ok, err := readJSON(filepath.Join(s.dataDir, eventTypesFile), &types)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrDataMissing
	}
	return types, nil
}

// LoadAnnotatorRecords reads annotations/annotator_<id>.json. An
// annotator who has never saved yields an empty collection.
func (s *JSONStore) LoadAnnotatorRecords(ctx context.Context, annotatorID int) ([]domain.AnnotationRecord, error) {
	var records []domain.AnnotationRecord
	if _, err := readJSON(s.annotatorPath(annotatorID), &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.AnnotationRecord{}
	}
	return records, nil
}

// SaveAnnotatorRecords replaces the annotator's collection. Records are
// sorted by item ID before writing; the input slice is sorted in place.
func (s *JSONStore) SaveAnnotatorRecords(ctx context.Context, annotatorID int, records []domain.AnnotationRecord) error {
	lock := s.annotatorLock(annotatorID)
	lock.Lock()
	defer lock.Unlock()

	return s.writeAnnotatorRecords(annotatorID, records)
}

// UpsertAnnotatorRecord inserts or replaces one record by item ID under
// the annotator's write lock and returns the persisted collection.
func (s *JSONStore) UpsertAnnotatorRecord(ctx context.Context, annotatorID int, rec domain.AnnotationRecord) ([]domain.AnnotationRecord, error) {
	lock := s.annotatorLock(annotatorID)
	lock.Lock()
	defer lock.Unlock()

	var records []domain.AnnotationRecord
	if _, err := readJSON(s.annotatorPath(annotatorID), &records); err != nil {
		return nil, err
	}
	records = domain.UpsertRecord(records, rec)
	if err := s.writeAnnotatorRecords(annotatorID, records); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadPlan reads split_plan.json.
func (s *JSONStore) LoadPlan(ctx context.Context) (*domain.SplitPlan, error) {
	var plan domain.SplitPlan
	ok, err := readJSON(filepath.Join(s.dataDir, planFile), &plan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPlanMissing
	}
	return &plan, nil
}

// SavePlan writes split_plan.json atomically.
func (s *JSONStore) SavePlan(ctx context.Context, plan *domain.SplitPlan) error {
	s.planMu.Lock()
	defer s.planMu.Unlock()

	return writeJSON(filepath.Join(s.dataDir, planFile), plan)
}

// DeletePlan removes split_plan.json. Deleting an absent plan is a no-op.
func (s *JSONStore) DeletePlan(ctx context.Context) error {
	s.planMu.Lock()
	defer s.planMu.Unlock()

	path := filepath.Join(s.dataDir, planFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.NewStoreError("remove", path, err)
	}
	return nil
}

// LoadGold reads gold_annotations.json. A never-written store yields an
// empty map.
func (s *JSONStore) LoadGold(ctx context.Context) (map[string]domain.GoldEntry, error) {
	var gold map[string]domain.GoldEntry
	if _, err := readJSON(filepath.Join(s.dataDir, goldFile), &gold); err != nil {
		return nil, err
	}
	if gold == nil {
		gold = make(map[string]domain.GoldEntry)
	}
	return gold, nil
}

// SaveGold replaces gold_annotations.json atomically.
func (s *JSONStore) SaveGold(ctx context.Context, gold map[string]domain.GoldEntry) error {
	s.goldMu.Lock()
	defer s.goldMu.Unlock()

	return writeJSON(filepath.Join(s.dataDir, goldFile), gold)
}

// UpsertGoldEntry inserts or replaces one adjudicated answer under the
// gold write lock.
func (s *JSONStore) UpsertGoldEntry(ctx context.Context, itemID int, entry domain.GoldEntry) error {
	s.goldMu.Lock()
	defer s.goldMu.Unlock()

	var gold map[string]domain.GoldEntry
	if _, err := readJSON(filepath.Join(s.dataDir, goldFile), &gold); err != nil {
		return err
	}
	if gold == nil {
		gold = make(map[string]domain.GoldEntry)
	}
	gold[domain.GoldKey(itemID)] = entry

	return writeJSON(filepath.Join(s.dataDir, goldFile), gold)
}

func (s *JSONStore) annotatorPath(annotatorID int) string {
	return filepath.Join(s.dataDir, annotationsDir, fmt.Sprintf("annotator_%d.json", annotatorID))
}

// annotatorLock returns the mutex serializing writes for one annotator,
// creating it on first use.
func (s *JSONStore) annotatorLock(annotatorID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.annMu[annotatorID]
	if !ok {
		lock = &sync.Mutex{}
		s.annMu[annotatorID] = lock
	}
	return lock
}

// writeAnnotatorRecords persists the collection sorted by item ID.
// Callers must hold the annotator's lock.
func (s *JSONStore) writeAnnotatorRecords(annotatorID int, records []domain.AnnotationRecord) error {
	if records == nil {
		records = []domain.AnnotationRecord{}
	}
	domain.SortRecords(records)
	return writeJSON(s.annotatorPath(annotatorID), records)
}

// readJSON decodes the file at path into v. The returned bool reports
// whether the file existed; a missing file is not an error.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, domain.NewStoreError("read", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, domain.NewStoreError("decode", path, err)
	}
	return true, nil
}

// writeJSON encodes v and replaces path atomically via a sibling temp
// file and rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.NewStoreError("encode", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return domain.NewStoreError("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return domain.NewStoreError("rename", path, err)
	}
	return nil
}
