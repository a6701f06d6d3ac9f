package engine

import (
	"fmt"
	"math"
)

// Program years accepted at the input boundary.
const (
	MinProgramYear = 2020
	MaxProgramYear = 2040
)

// Validate rejects inputs the engine would otherwise model into nonsense
// (negative spend, unknown profiles). The engine itself never calls this;
// callers run it at the boundary before EvaluateAll.
func Validate(input FarmInput) error {
	if !input.Province.Valid() {
		return &InvalidInputError{Field: "province", Reason: fmt.Sprintf("unknown province %q", input.Province)}
	}
	if input.Year < MinProgramYear || input.Year > MaxProgramYear {
		return &InvalidInputError{
			Field:  "year",
			Reason: fmt.Sprintf("%d outside %d-%d", input.Year, MinProgramYear, MaxProgramYear),
		}
	}

	for i, plan := range input.Plans {
		field := fmt.Sprintf("plans[%d]", i)
		if !plan.Crop.Valid() {
			return &InvalidInputError{Field: field + ".crop", Reason: fmt.Sprintf("unknown crop %q", plan.Crop)}
		}
		if math.IsNaN(plan.Acres) || math.IsInf(plan.Acres, 0) {
			return &InvalidInputError{Field: field + ".acres", Reason: "must be a finite number"}
		}
		if plan.Acres < 0 {
			return &InvalidInputError{Field: field + ".acres", Reason: "must not be negative"}
		}
		for cat, intent := range plan.Intents {
			if !cat.Valid() {
				return &InvalidInputError{Field: field + ".intents", Reason: fmt.Sprintf("unknown category %q", cat)}
			}
			// budget is only a lookup key when enabled; a disabled intent may leave it empty
			if !intent.Enabled && intent.Budget == "" {
				continue
			}
			if !intent.Budget.Valid() {
				return &InvalidInputError{
					Field:  fmt.Sprintf("%s.intents.%s.budget", field, cat),
					Reason: fmt.Sprintf("unknown budget %q", intent.Budget),
				}
			}
		}
	}
	return nil
}
