/*
presets.go - Default supplier program rule tables

PURPOSE:
  Ready-to-use program configurations for the five modeled suppliers.
  The server seeds its store from these on first start and restores them
  on reset.

DEFAULT PROGRAMS (registration order):
  fmc-cashback:       Tiered total, $5k/$30k/$50k/$75k breakpoints, $1/acre matching bonus
  bayer-value:        3 segments, 300-acre gate, 5% at 2 segments, 10% at 3
  basf-breadth:       3/5/7% for 2/3/4+ engaged categories over $2,500
  upl-bundle:         4% on a 2+ category bundle, +2% early purchase
  syngenta-crop-tier: Per-crop $10k/$25k/$50k breakpoints at 2/4/6%

EXAMPLE:
  reg, err := programs.DefaultRegistry()
  orch := engine.NewOrchestrator(table, reg)

SEE ALSO:
  - types.go: Rule table conventions
  - factory/program.go: Loading replacement tables from JSON/YAML
*/
package programs

import "github.com/warp/rebate-engine/engine"

// Default program IDs.
const (
	FMCCashbackID      = "fmc-cashback"
	BayerValueID       = "bayer-value"
	BASFBreadthID      = "basf-breadth"
	UPLBundleID        = "upl-bundle"
	SyngentaCropTierID = "syngenta-crop-tier"
)

// FMCCashback is the tiered-total program on total modeled spend.
func FMCCashback() *TieredTotal {
	return &TieredTotal{
		Meta:                 Meta{ProgramID: FMCCashbackID, CompanyName: "FMC CashBack (modeled)"},
		Breakpoints:          []float64{5000, 30000, 50000, 75000},
		BiologicalsRates:     []float64{0, 0.02, 0.04, 0.06, 0.08},
		InCropRates:          []float64{0, 0.06, 0.09, 0.12, 0.15},
		MatchingBonusPerAcre: 1,
	}
}

// BayerValue is the segment-loyalty program.
func BayerValue() *SegmentLoyalty {
	return &SegmentLoyalty{
		Meta:            Meta{ProgramID: BayerValueID, CompanyName: "BayerValue (modeled segment savings)"},
		MinSegmentAcres: 300,
		Rates:           []float64{0, 0, 0.05, 0.10},
		Unmodeled: []string{
			"Trait Rewards",
			"Pre-burn Tank Mix Bonus",
			"FieldView rewards",
			"early-book incentives",
		},
	}
}

// BASFBreadth rewards spend spread across product lines.
func BASFBreadth() *CategoryBreadth {
	return &CategoryBreadth{
		Meta: Meta{ProgramID: BASFBreadthID, CompanyName: "BASF Ag Rewards (modeled breadth)"},
		Categories: []engine.Category{
			engine.CategoryPreSeedHerb,
			engine.CategoryInCropHerb,
			engine.CategoryFungicide,
			engine.CategoryInsecticide,
			engine.CategorySeedTreatment,
			engine.CategoryBiologicalsPGR,
		},
		CountRates:       []float64{0, 0, 0.03, 0.05, 0.07},
		MinEligibleSpend: 2500,
	}
}

// UPLBundle pays on coordinated bundles.
func UPLBundle() *Bundle {
	return &Bundle{
		Meta: Meta{ProgramID: UPLBundleID, CompanyName: "UPL Bundle (modeled)"},
		Categories: []engine.Category{
			engine.CategoryPreSeedHerb,
			engine.CategoryInCropHerb,
			engine.CategoryFungicide,
			engine.CategoryInsecticide,
		},
		MinCategories:     2,
		BundleRate:        0.04,
		EarlyPurchaseRate: 0.02,
	}
}

// SyngentaCropTier tiers each crop separately.
func SyngentaCropTier() *PerCropTier {
	return &PerCropTier{
		Meta:        Meta{ProgramID: SyngentaCropTierID, CompanyName: "Syngenta Grower Rewards (modeled per crop)"},
		Breakpoints: []float64{10000, 25000, 50000},
		Rates:       []float64{0, 0.02, 0.04, 0.06},
	}
}

// DefaultPrograms returns fresh copies of every default program in registration order.
func DefaultPrograms() []Program {
	return []Program{
		FMCCashback(),
		BayerValue(),
		BASFBreadth(),
		UPLBundle(),
		SyngentaCropTier(),
	}
}

// DefaultRegistry returns a registry holding DefaultPrograms.
func DefaultRegistry() (*engine.Registry, error) {
	progs := DefaultPrograms()
	evs := make([]engine.Evaluator, len(progs))
	for i, p := range progs {
		evs[i] = p
	}
	return engine.NewRegistry(evs...)
}
