// Command generate-sample-dataset writes a ready-to-serve synthetic
// annotation project: input items, the event-type catalog, and a project
// config with generated credentials.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Mohaimin66/event-annotation-tool/internal/testutils"
)

func main() {
	var (
		items      = flag.Int("items", 100, "Number of items to generate")
		annotators = flag.Int("annotators", 2, "Number of annotator slots")
		overlap    = flag.Float64("overlap", 20, "Percentage of items assigned to multiple annotators")
		perItem    = flag.Int("overlap-annotators", 2, "Annotators per overlap item")
		seed       = flag.Int64("seed", 0, "Generation seed (0 uses the current time)")
		outputDir  = flag.String("out", "data", "Output data directory")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	corpus := testutils.GenerateCorpus(*items, *seed)
	cfg := testutils.GenerateProjectConfig(*annotators, *overlap, *perItem, *seed)

	if err := testutils.WriteProjectFiles(*outputDir, corpus, cfg); err != nil {
		log.Fatalf("Failed to write project files: %v", err)
	}

	stats := testutils.ComputeCorpusStatistics(corpus)

	fmt.Printf("Generated annotation project:\n")
	fmt.Printf("- Data directory: %s\n", *outputDir)
	fmt.Printf("- Items: %d\n", stats.TotalItems)
	fmt.Printf("- Annotators: %d (overlap %.0f%%, %d per overlap item)\n",
		*annotators, *overlap, *perItem)
	fmt.Printf("- Seed: %d\n", *seed)

	labels := make([]string, 0, len(stats.EventCounts))
	for label := range stats.EventCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	fmt.Printf("- Ground-truth distribution:\n")
	for _, label := range labels {
		name := label
		if name == "" {
			name = "(no event)"
		}
		fmt.Printf("    %-24s %d\n", name, stats.EventCounts[label])
	}

	fmt.Printf("\nCredentials (config.json):\n")
	for id, name := range cfg.AnnotatorNames {
		fmt.Printf("- %s: %s\n", name, cfg.AnnotatorPasswords[id])
	}
	fmt.Printf("- admin: %s\n", cfg.AdminPassword)
	fmt.Printf("\nServe it with: annotation-server -data %s\n", *outputDir)
}
