/*
Package programs provides the supplier rebate programs evaluated by the engine.

PURPOSE:
  Each program encodes one supplier's tier, segment, or bonus rules as a
  rule table plus a pure Evaluate function. These are simplified models of
  the published programs, not exact replicas of any official calculator.

PROGRAM KINDS:
  tiered_total:     Rate schedule chosen by total modeled spend (FMC-style)
  segment_loyalty:  Rate chosen by count of segments over an acreage gate (Bayer-style)
  category_breadth: Rate chosen by number of engaged categories (BASF-style)
  bundle:           Bundle and early-purchase rates gated on grower flags (UPL-style)
  per_crop_tier:    Each crop tiered on its own spend, rebates summed (Syngenta-style)

RULE TABLES:
  Breakpoints are ascending dollar thresholds; tier N starts at
  Breakpoints[N-1] inclusive. Rate arrays are indexed by tier, so they
  hold len(Breakpoints)+1 entries and index 0 is "not reached".

SEE ALSO:
  - presets.go: Default rule tables and registry
  - factory/program.go: JSON/YAML program configs
  - engine/evaluator.go: Evaluator contract
*/
package programs

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/warp/rebate-engine/engine"
)

// Kind identifies a program rule family.
type Kind string

const (
	KindTieredTotal     Kind = "tiered_total"
	KindSegmentLoyalty  Kind = "segment_loyalty"
	KindCategoryBreadth Kind = "category_breadth"
	KindBundle          Kind = "bundle"
	KindPerCropTier     Kind = "per_crop_tier"
)

// AllKinds lists supported kinds.
var AllKinds = []Kind{KindTieredTotal, KindSegmentLoyalty, KindCategoryBreadth, KindBundle, KindPerCropTier}

// Program is an evaluator that also exposes its rule family and can check its table.
type Program interface {
	engine.Evaluator
	Kind() Kind
	Validate() error
}

// Meta carries a program's identity. Embedded in every program type.
type Meta struct {
	ProgramID   string `json:"-" yaml:"-"`
	CompanyName string `json:"-" yaml:"-"`
}

func (m Meta) ID() string      { return m.ProgramID }
func (m Meta) Company() string { return m.CompanyName }

// SetMeta is used by the factory to stamp identity onto a decoded rule table.
func (m *Meta) SetMeta(id, company string) {
	m.ProgramID = id
	m.CompanyName = company
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// engagedCategories are the spend categories programs treat as product lines.
// Seed trait is excluded; no modeled program pays on it.
var engagedCategories = []engine.Category{
	engine.CategoryPreSeedHerb,
	engine.CategoryInCropHerb,
	engine.CategoryFungicide,
	engine.CategoryInsecticide,
	engine.CategorySeedTreatment,
	engine.CategoryBiologicalsPGR,
}

// tierFor counts how many breakpoints total has reached.
func tierFor(total float64, breakpoints []float64) int {
	t := 0
	for _, bp := range breakpoints {
		if total >= bp {
			t++
		}
	}
	return t
}

// rateAt returns rates[i], 0 when out of range.
func rateAt(rates []float64, i int) float64 {
	if i < 0 || i >= len(rates) {
		return 0
	}
	return rates[i]
}

func dollars(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

func acres(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func percent(rate float64) string {
	return humanize.FtoaWithDigits(rate*100, 2) + "%"
}

func cropLabel(c engine.Crop) string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func categoryLabels(cats []engine.Category) string {
	labels := make([]string, len(cats))
	for i, c := range cats {
		labels[i] = c.Label()
	}
	return strings.Join(labels, ", ")
}

func validateSchedule(id string, breakpoints, rates []float64) error {
	prev := 0.0
	for _, bp := range breakpoints {
		if bp <= prev {
			return &engine.ProgramConfigError{ProgramID: id, Reason: fmt.Sprintf("breakpoints must be positive and ascending, got %v", breakpoints)}
		}
		prev = bp
	}
	if len(rates) != len(breakpoints)+1 {
		return &engine.ProgramConfigError{
			ProgramID: id,
			Reason:    fmt.Sprintf("need %d rates for %d breakpoints, got %d", len(breakpoints)+1, len(breakpoints), len(rates)),
		}
	}
	return validateRates(id, rates)
}

func validateRates(id string, rates []float64) error {
	for _, r := range rates {
		if r < 0 || r > 1 || math.IsNaN(r) {
			return &engine.ProgramConfigError{ProgramID: id, Reason: fmt.Sprintf("rate %v outside [0, 1]", r)}
		}
	}
	return nil
}

func validateCategories(id string, cats []engine.Category) error {
	if len(cats) == 0 {
		return &engine.ProgramConfigError{ProgramID: id, Reason: "no categories"}
	}
	for _, c := range cats {
		if !c.Valid() {
			return &engine.ProgramConfigError{ProgramID: id, Reason: fmt.Sprintf("unknown category %q", c)}
		}
	}
	return nil
}
