/*
Package engine provides the spend-modeling and rebate-evaluation core.

PURPOSE:
  Converts a grower's declared intentions (crops, acres, enabled spend
  categories, budget tier per category) into modeled dollar spend, then
  runs every registered supplier program against that spend and ranks
  the results by estimated cash back.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category / BudgetLevel / Crop / Province: closed enumerations
  - CropPlan / FarmInput: what the grower declares
  - CropModeledSpend / ModeledSpend: what the spend model produces
  - ProgramResult / LineItem: what each supplier program produces

DESIGN PRINCIPLES:
  1. Immutability: every value is built fresh per evaluation, never mutated after
  2. Materialized keys: every Category is always present in a spend map
  3. Raw floats: no rounding inside the engine, presentation rounds at the edge
  4. No failure exits: absent data degrades to zero plus a note

SEE ALSO:
  - spend.go: SpendModel
  - evaluator.go: Evaluator interface and Registry
  - orchestrator.go: EvaluateAll and ranking
*/
package engine

// =============================================================================
// ENUMERATIONS
// =============================================================================

// Category is a spend category. Closed set.
type Category string

const (
	CategoryPreSeedHerb    Category = "preSeedHerb"
	CategoryInCropHerb     Category = "inCropHerb"
	CategoryFungicide      Category = "fungicide"
	CategoryInsecticide    Category = "insecticide"
	CategorySeedTreatment  Category = "seedTreatment"
	CategoryBiologicalsPGR Category = "biologicalsPGR"
	CategorySeedTrait      Category = "seedTrait"
)

// AllCategories lists every category in canonical order.
var AllCategories = []Category{
	CategoryPreSeedHerb,
	CategoryInCropHerb,
	CategoryFungicide,
	CategoryInsecticide,
	CategorySeedTreatment,
	CategoryBiologicalsPGR,
	CategorySeedTrait,
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	for _, k := range AllCategories {
		if k == c {
			return true
		}
	}
	return false
}

// Label returns the human-readable category name.
func (c Category) Label() string {
	switch c {
	case CategoryPreSeedHerb:
		return "Pre-seed herbicide"
	case CategoryInCropHerb:
		return "In-crop herbicide"
	case CategoryFungicide:
		return "Fungicide"
	case CategoryInsecticide:
		return "Insecticide"
	case CategorySeedTreatment:
		return "Seed treatment"
	case CategoryBiologicalsPGR:
		return "Biologicals / PGR"
	case CategorySeedTrait:
		return "Seed trait"
	}
	return string(c)
}

// BudgetLevel is a lookup key into the assumption table. Never interpolated.
type BudgetLevel string

const (
	BudgetLow  BudgetLevel = "low"
	BudgetMed  BudgetLevel = "med"
	BudgetHigh BudgetLevel = "high"
)

var AllBudgetLevels = []BudgetLevel{BudgetLow, BudgetMed, BudgetHigh}

func (b BudgetLevel) Valid() bool {
	return b == BudgetLow || b == BudgetMed || b == BudgetHigh
}

// Crop identifies a crop profile. CropOther is the fallback profile.
type Crop string

const (
	CropCanola     Crop = "canola"
	CropWheat      Crop = "wheat"
	CropBarley     Crop = "barley"
	CropOats       Crop = "oats"
	CropDurum      Crop = "durum"
	CropPeas       Crop = "peas"
	CropLentils    Crop = "lentils"
	CropSoybeans   Crop = "soybeans"
	CropCorn       Crop = "corn"
	CropSunflowers Crop = "sunflowers"
	CropOther      Crop = "other"
)

// AllCrops lists every crop in canonical order.
var AllCrops = []Crop{
	CropCanola, CropWheat, CropBarley, CropOats, CropDurum, CropPeas,
	CropLentils, CropSoybeans, CropCorn, CropSunflowers, CropOther,
}

func (c Crop) Valid() bool {
	for _, k := range AllCrops {
		if k == c {
			return true
		}
	}
	return false
}

// Province is a Canadian province code.
type Province string

var AllProvinces = []Province{"AB", "SK", "MB", "BC", "ON", "QC", "NB", "NS", "PE", "NL"}

func (p Province) Valid() bool {
	for _, k := range AllProvinces {
		if k == p {
			return true
		}
	}
	return false
}

// =============================================================================
// INPUT - What the grower declares
// =============================================================================

// Intent is a grower's intention for one category on one crop plan.
type Intent struct {
	Enabled bool
	Budget  BudgetLevel
}

// CropPlan is one grower declaration. Missing or disabled categories contribute nothing.
type CropPlan struct {
	Crop    Crop
	Acres   float64
	Intents map[Category]Intent
}

// FarmInput is the full snapshot evaluated by the engine.
// Plan order does not affect results; plans sharing a crop are aggregated.
type FarmInput struct {
	Province       Province
	Year           int
	EarlyPurchase  bool // accepted by every program, consumed by some
	BundleFriendly bool // grower will coordinate product choices to hit bundles
	Plans          []CropPlan
}

// =============================================================================
// MODELED SPEND - What the spend model produces
// =============================================================================

// CategoryAmounts maps every Category to a value. Always fully materialized.
type CategoryAmounts map[Category]float64

// NewCategoryAmounts returns a map with every category present and zeroed.
func NewCategoryAmounts() CategoryAmounts {
	m := make(CategoryAmounts, len(AllCategories))
	for _, c := range AllCategories {
		m[c] = 0
	}
	return m
}

// Sum adds every category value.
func (m CategoryAmounts) Sum() float64 {
	var total float64
	for _, c := range AllCategories {
		total += m[c]
	}
	return total
}

// Max returns the largest value across the given categories.
func (m CategoryAmounts) Max(categories ...Category) float64 {
	var best float64
	for _, c := range categories {
		if m[c] > best {
			best = m[c]
		}
	}
	return best
}

// CropModeledSpend is modeled spend for one crop, or for the whole farm.
//
// AcresByCategory holds proxy acres: a plan's acreage is credited to every
// category it enables, so the values are not additive across categories.
type CropModeledSpend struct {
	ByCategory      CategoryAmounts
	AcresByCategory CategoryAmounts
	Total           float64
}

func newCropModeledSpend() CropModeledSpend {
	return CropModeledSpend{
		ByCategory:      NewCategoryAmounts(),
		AcresByCategory: NewCategoryAmounts(),
	}
}

// ModeledSpend is the farm-wide spend plus a bucket per crop actually present.
// The embedded CropModeledSpend is the overall bucket.
type ModeledSpend struct {
	CropModeledSpend
	ByCrop map[Crop]CropModeledSpend
}

// Crops returns the crops present in ByCrop in canonical order.
func (m ModeledSpend) Crops() []Crop {
	var out []Crop
	for _, c := range AllCrops {
		if _, ok := m.ByCrop[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// PROGRAM RESULT - What each supplier program produces
// =============================================================================

// LineItem is one labeled breakdown value.
// Informational lines (e.g. eligible spend) are not part of the cash-back sum.
type LineItem struct {
	Label         string
	Value         float64
	Informational bool
}

// ProgramResult is the outcome of one supplier program.
type ProgramResult struct {
	ProgramID         string
	Company           string
	EstimatedCashback float64
	EstimatedPerAcre  float64
	Notes             []string
	Breakdown         []LineItem
}

// AdditiveTotal sums the non-informational breakdown lines.
func (r ProgramResult) AdditiveTotal() float64 {
	var total float64
	for _, li := range r.Breakdown {
		if !li.Informational {
			total += li.Value
		}
	}
	return total
}

// PerAcre divides cash back by acres, returning 0 when no acreage is recorded.
func PerAcre(cashback, acres float64) float64 {
	if acres <= 0 {
		return 0
	}
	return cashback / acres
}
