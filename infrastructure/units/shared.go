// Package units provides the deterministic annotation-workflow engines that
// implement the ports contracts for the event annotation tool.
package units

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Common errors returned by annotation engines.
// These errors provide consistent error handling across all engine implementations.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrNoItems is returned when planning is attempted over an empty item set.
	ErrNoItems = errors.New("no items to plan")

	// ErrDuplicateItemID is returned when the item universe contains the same ID twice.
	ErrDuplicateItemID = errors.New("duplicate item id")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// annotatorName resolves a display name for an annotator ID against the
// configured name list, falling back to a generated name for IDs beyond it.
func annotatorName(names []string, annotatorID int) string {
	if annotatorID >= 0 && annotatorID < len(names) && names[annotatorID] != "" {
		return names[annotatorID]
	}
	return fmt.Sprintf("annotator_%d", annotatorID)
}
