// Package testutils provides synthetic corpora, simulated annotators, and
// in-memory collaborator implementations shared by the test suites and the
// sample-dataset generator. These components are for internal use and are
// not part of the public API.
package testutils

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
)

// annotatorNamePool supplies display names for generated project
// configurations, cycling with a numeric suffix when exhausted.
var annotatorNamePool = []string{
	"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi",
}

// GroundTruth is the reference answer for one generated item. Simulated
// annotators produce it with the configured accuracy; everything else they
// produce is a plausible mistake.
type GroundTruth struct {
	// EventType is the correct catalog label, or "" when the sentence
	// contains no event.
	EventType string

	// TriggerIndices are the correct trigger token positions.
	TriggerIndices []int
}

// Corpus bundles generated items with their reference answers and the
// event-type catalog they draw from.
type Corpus struct {
	// Items is the generated item universe in dataset order.
	Items []domain.Item

	// EventTypes is the catalog the items' events come from.
	EventTypes []domain.EventTypeDef

	// Truth maps item ID to the reference answer.
	Truth map[int]GroundTruth
}

// modelPrediction is the synthetic upstream-model output embedded in each
// generated item. The annotation workflow treats it as opaque; only the
// generator knows its shape.
type modelPrediction struct {
	EventType      string  `json:"event_type"`
	TriggerIndices []int   `json:"trigger_indices"`
	Confidence     float64 `json:"confidence"`
}

// GenerateCorpus creates a synthetic annotation corpus of the given size.
// The seed controls every random choice, so a fixed seed reproduces the
// corpus exactly. Item IDs are sequential starting at 1.
//
// Each item's model prediction agrees with the ground truth roughly 80% of
// the time; the rest carry a wrong label or a shifted trigger so review
// flows have something to disagree with.
func GenerateCorpus(size int, seed int64) *Corpus {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- synthetic test data

	corpus := &Corpus{
		Items:      make([]domain.Item, 0, size),
		EventTypes: EventTypeCatalog,
		Truth:      make(map[int]GroundTruth, size),
	}

	for i := 0; i < size; i++ {
		template := sentenceTemplates[rng.Intn(len(sentenceTemplates))]
		id := i + 1

		item := domain.Item{
			ID:       id,
			Sentence: joinTokens(template.Tokens),
			Tokens:   template.Tokens,
		}

		prediction := modelPrediction{
			EventType:      template.EventType,
			TriggerIndices: append([]int(nil), template.TriggerIndices...),
			Confidence:     0.60 + 0.39*rng.Float64(),
		}
		if rng.Float64() >= 0.8 {
			prediction = perturbPrediction(rng, template)
		}
		raw, err := json.Marshal(prediction)
		if err != nil {
			// Marshaling a plain struct cannot fail; guard stays for safety.
			panic(fmt.Sprintf("testutils: marshal model prediction: %v", err))
		}
		item.ModelPrediction = raw

		corpus.Items = append(corpus.Items, item)
		corpus.Truth[id] = GroundTruth{
			EventType:      template.EventType,
			TriggerIndices: append([]int(nil), template.TriggerIndices...),
		}
	}

	return corpus
}

// perturbPrediction builds a wrong model prediction for a template: either
// a different catalog label or the right label with a shifted trigger.
func perturbPrediction(rng *rand.Rand, template sentenceTemplate) modelPrediction {
	prediction := modelPrediction{
		EventType:      template.EventType,
		TriggerIndices: append([]int(nil), template.TriggerIndices...),
		Confidence:     0.30 + 0.40*rng.Float64(),
	}

	if rng.Intn(2) == 0 || len(template.TriggerIndices) == 0 {
		prediction.EventType = EventTypeCatalog[rng.Intn(len(EventTypeCatalog))].Name
		return prediction
	}

	shifted := make([]int, 0, len(template.TriggerIndices))
	for _, idx := range template.TriggerIndices {
		next := idx + 1
		if next >= len(template.Tokens) {
			next = idx - 1
		}
		if next >= 0 {
			shifted = append(shifted, next)
		}
	}
	prediction.TriggerIndices = shifted
	return prediction
}

// joinTokens renders a token slice as a display sentence with simple
// detokenization for trailing punctuation.
func joinTokens(tokens []string) string {
	out := ""
	for i, tok := range tokens {
		if i > 0 && tok != "." && tok != "," && tok != "!" && tok != "?" {
			out += " "
		}
		out += tok
	}
	return out
}

// GenerateProjectConfig builds a project configuration for the given
// annotator count with deterministic names and passwords drawn from the
// seed. The admin password is likewise deterministic so generated projects
// are immediately usable in tests and demos.
func GenerateProjectConfig(numAnnotators int, overlapPercentage float64, overlapAnnotators int, seed int64) domain.ProjectConfig {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- synthetic test data

	names := make([]string, numAnnotators)
	passwords := make([]string, numAnnotators)
	for i := 0; i < numAnnotators; i++ {
		name := annotatorNamePool[i%len(annotatorNamePool)]
		if i >= len(annotatorNamePool) {
			name = fmt.Sprintf("%s%d", name, i/len(annotatorNamePool)+1)
		}
		names[i] = name
		passwords[i] = fmt.Sprintf("%s-%04x", name, rng.Intn(0x10000))
	}

	return domain.ProjectConfig{
		NumAnnotators:      numAnnotators,
		AnnotatorNames:     names,
		AnnotatorPasswords: passwords,
		AdminPassword:      fmt.Sprintf("admin-%04x", rng.Intn(0x10000)),
		OverlapPercentage:  overlapPercentage,
		OverlapAnnotators:  overlapAnnotators,
		SplitSeed:          seed,
	}
}

// AnnotateItems simulates one annotator working through the given items.
// With probability accuracy the annotator reproduces the ground truth;
// otherwise they make a plausible mistake: a wrong or null label, a
// not-in-list claim, or a shifted trigger. Records come out sorted by item
// ID with deterministic timestamps.
//
// Items without a ground-truth entry in the corpus are skipped.
func (c *Corpus) AnnotateItems(items []domain.Item, accuracy float64, seed int64) []domain.AnnotationRecord {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- synthetic test data
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	records := make([]domain.AnnotationRecord, 0, len(items))
	for i, item := range items {
		truth, ok := c.Truth[item.ID]
		if !ok {
			continue
		}

		value := domain.AnnotationValue{
			TriggerIndices: domain.NormalizeTriggerIndices(truth.TriggerIndices),
			AnnotatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if truth.EventType != "" {
			label := truth.EventType
			value.EventType = &label
		}

		if rng.Float64() >= accuracy {
			value = c.mistake(rng, item, truth, value)
		}

		records = append(records, domain.NewAnnotationRecord(item, value))
	}
	domain.SortRecords(records)
	return records
}

// mistake replaces a correct answer with a plausible wrong one.
func (c *Corpus) mistake(rng *rand.Rand, item domain.Item, truth GroundTruth, value domain.AnnotationValue) domain.AnnotationValue {
	switch rng.Intn(3) {
	case 0:
		// Wrong catalog label, trigger kept.
		label := c.EventTypes[rng.Intn(len(c.EventTypes))].Name
		value.EventType = &label
	case 1:
		// Null label; sometimes claimed missing from the catalog.
		value.EventType = nil
		value.TriggerIndices = []int{}
		value.NotInList = rng.Intn(2) == 0
	default:
		// Right label, trigger shifted off the reference span.
		if len(truth.TriggerIndices) > 0 {
			shifted := truth.TriggerIndices[0] + 1
			if shifted >= len(item.Tokens) {
				shifted = truth.TriggerIndices[0] - 1
			}
			if shifted >= 0 {
				value.TriggerIndices = []int{shifted}
			}
		} else if len(item.Tokens) > 0 {
			value.TriggerIndices = []int{rng.Intn(len(item.Tokens))}
			label := c.EventTypes[rng.Intn(len(c.EventTypes))].Name
			value.EventType = &label
		}
	}
	return value
}

// CorpusStatistics summarizes a generated corpus for generator output and
// sanity checks.
type CorpusStatistics struct {
	// TotalItems is the number of generated items.
	TotalItems int

	// EventCounts maps each event-type label to its item count; the ""
	// key counts no-event sentences.
	EventCounts map[string]int
}

// ComputeCorpusStatistics tallies items per ground-truth event type.
func ComputeCorpusStatistics(corpus *Corpus) *CorpusStatistics {
	stats := &CorpusStatistics{
		TotalItems:  len(corpus.Items),
		EventCounts: make(map[string]int),
	}
	for _, item := range corpus.Items {
		stats.EventCounts[corpus.Truth[item.ID].EventType]++
	}
	return stats
}

// WriteProjectFiles lays a generated corpus out as a ready-to-serve data
// directory: input_data.json, event_types.json, config.json, and an empty
// annotations subdirectory.
func WriteProjectFiles(dir string, corpus *Corpus, cfg domain.ProjectConfig) error {
	if err := os.MkdirAll(filepath.Join(dir, "annotations"), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	files := []struct {
		name string
		data any
	}{
		{"input_data.json", corpus.Items},
		{"event_types.json", corpus.EventTypes},
		{"config.json", cfg},
	}
	for _, f := range files {
		data, err := json.MarshalIndent(f.data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", f.name, err)
		}
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	return nil
}
