package domain

import "fmt"

// DefaultSplitSeed is used when config.json omits split_seed or sets it
// to zero, so a fresh project is reproducible out of the box.
const DefaultSplitSeed int64 = 42

// ProjectConfig mirrors config.json in the data directory. It is the
// operator-authored description of the annotation project: who annotates,
// how much overlap to plan, and the credentials for the HTTP surface.
type ProjectConfig struct {
	// NumAnnotators is the number of annotator slots, identified by the
	// integer IDs 0..NumAnnotators-1.
	NumAnnotators int `json:"num_annotators" validate:"required,min=1"`

	// AnnotatorNames holds optional display names, indexed by annotator ID.
	// Missing or empty entries fall back to a generated name.
	AnnotatorNames []string `json:"annotator_names,omitempty"`

	// AnnotatorPasswords holds per-annotator login passwords, indexed by
	// annotator ID. An empty entry disables login for that slot.
	AnnotatorPasswords []string `json:"annotator_passwords,omitempty"`

	// AdminPassword guards the review endpoints. Empty disables admin login.
	AdminPassword string `json:"admin_password,omitempty"`

	// OverlapPercentage is the share of items, in percent, assigned to
	// multiple annotators.
	OverlapPercentage float64 `json:"overlap_percentage" validate:"min=0,max=100"`

	// OverlapAnnotators is how many annotators each overlap item goes to.
	OverlapAnnotators int `json:"overlap_annotators" validate:"min=1"`

	// SplitSeed seeds the split planner. Zero means DefaultSplitSeed.
	SplitSeed int64 `json:"split_seed,omitempty"`
}

// AnnotatorName returns the display name for an annotator ID, falling back
// to "annotator_<id>" when no name is configured.
func (c ProjectConfig) AnnotatorName(id int) string {
	if id >= 0 && id < len(c.AnnotatorNames) && c.AnnotatorNames[id] != "" {
		return c.AnnotatorNames[id]
	}
	return fmt.Sprintf("annotator_%d", id)
}

// AnnotatorNameList returns display names for all annotator slots, with
// fallbacks applied, indexed by annotator ID.
func (c ProjectConfig) AnnotatorNameList() []string {
	names := make([]string, c.NumAnnotators)
	for id := range names {
		names[id] = c.AnnotatorName(id)
	}
	return names
}

// PlanConfig derives the split planner's parameters from the project
// configuration, applying the default seed.
func (c ProjectConfig) PlanConfig() PlanConfig {
	seed := c.SplitSeed
	if seed == 0 {
		seed = DefaultSplitSeed
	}
	return PlanConfig{
		NumAnnotators:     c.NumAnnotators,
		OverlapPercentage: c.OverlapPercentage,
		OverlapAnnotators: c.OverlapAnnotators,
		Seed:              seed,
	}
}

// PublicConfig is the credential-free view of the project configuration
// served to clients.
type PublicConfig struct {
	NumAnnotators     int      `json:"num_annotators"`
	AnnotatorNames    []string `json:"annotator_names"`
	OverlapPercentage float64  `json:"overlap_percentage"`
	OverlapAnnotators int      `json:"overlap_annotators"`
}

// Redacted strips credentials and internal knobs from the configuration.
// Display-name fallbacks are already applied in the result.
func (c ProjectConfig) Redacted() PublicConfig {
	return PublicConfig{
		NumAnnotators:     c.NumAnnotators,
		AnnotatorNames:    c.AnnotatorNameList(),
		OverlapPercentage: c.OverlapPercentage,
		OverlapAnnotators: c.OverlapAnnotators,
	}
}
