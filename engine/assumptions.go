package engine

import (
	"fmt"
	"math"
)

// =============================================================================
// ASSUMPTION TABLE - Expected dollars per acre by crop, category, budget
// =============================================================================

// BudgetRates maps a budget level to dollars per acre.
type BudgetRates map[BudgetLevel]float64

// CropProfile maps a category to its budget rates. May be sparse.
type CropProfile map[Category]BudgetRates

// AssumptionTable is the external per-acre spend lookup.
// The "other" crop is required and serves as the fallback profile.
type AssumptionTable map[Crop]CropProfile

// ProfileFor returns the crop's profile, falling back to CropOther.
func (t AssumptionTable) ProfileFor(crop Crop) CropProfile {
	if p, ok := t[crop]; ok {
		return p
	}
	return t[CropOther]
}

// PerAcre returns dollars per acre, or 0 when the combination is absent.
func (p CropProfile) PerAcre(c Category, b BudgetLevel) float64 {
	rates, ok := p[c]
	if !ok {
		return 0
	}
	return rates[b]
}

// Validate checks enum keys, value ranges, and the fallback profile.
func (t AssumptionTable) Validate() error {
	if _, ok := t[CropOther]; !ok {
		return ErrMissingFallbackProfile
	}
	for crop, profile := range t {
		if !crop.Valid() {
			return fmt.Errorf("%w: unknown crop %q", ErrInvalidAssumptions, crop)
		}
		for cat, rates := range profile {
			if !cat.Valid() {
				return fmt.Errorf("%w: %s: unknown category %q", ErrInvalidAssumptions, crop, cat)
			}
			for b, v := range rates {
				if !b.Valid() {
					return fmt.Errorf("%w: %s/%s: unknown budget %q", ErrInvalidAssumptions, crop, cat, b)
				}
				if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: %s/%s/%s: value %v must be a non-negative number", ErrInvalidAssumptions, crop, cat, b, v)
				}
			}
		}
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate a shared table.
func (t AssumptionTable) Clone() AssumptionTable {
	out := make(AssumptionTable, len(t))
	for crop, profile := range t {
		p := make(CropProfile, len(profile))
		for cat, rates := range profile {
			r := make(BudgetRates, len(rates))
			for b, v := range rates {
				r[b] = v
			}
			p[cat] = r
		}
		out[crop] = p
	}
	return out
}
