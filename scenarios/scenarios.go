/*
Package scenarios holds demo farm inputs for the API and CLI.

AVAILABLE SCENARIOS:
  default-form:   Canola, wheat, and peas; the calculator's starting form
  early-bundle:   default-form with early purchase
  single-canola:  1,000 acres of canola, not bundle-friendly
  small-farm:     200 acres of canola, below segment thresholds
  zero-acres:     A plan with categories enabled and no acres

ADDING NEW SCENARIOS:
  Append to the list in All. IDs are stable URL segments.
*/
package scenarios

import (
	"fmt"

	"github.com/warp/rebate-engine/engine"
)

// Scenario is a named demo input.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Input       engine.FarmInput
}

// All returns every scenario. Each call builds fresh inputs.
func All() []Scenario {
	return []Scenario{
		{
			ID:          "default-form",
			Name:        "Default form",
			Description: "1,000 ac canola, 1,500 ac wheat, 500 ac peas with insecticide; bundle-friendly",
			Input:       defaultForm(),
		},
		{
			ID:          "early-bundle",
			Name:        "Early bundle",
			Description: "Default form with early purchase",
			Input:       earlyBundle(),
		},
		{
			ID:          "single-canola",
			Name:        "Single canola plan",
			Description: "1,000 ac canola with four categories, no bundle coordination",
			Input:       canola(1000),
		},
		{
			ID:          "small-farm",
			Name:        "Small farm",
			Description: "200 ac canola; segments stay under the acreage threshold",
			Input:       canola(200),
		},
		{
			ID:          "zero-acres",
			Name:        "Zero acres",
			Description: "Categories enabled on a zero-acre plan; every program reports not reached",
			Input:       canola(0),
		},
	}
}

// Get returns the scenario with the given ID.
func Get(id string) (Scenario, error) {
	for _, s := range All() {
		if s.ID == id {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario: %s", id)
}

func on(b engine.BudgetLevel) engine.Intent {
	return engine.Intent{Enabled: true, Budget: b}
}

func off() engine.Intent {
	return engine.Intent{Enabled: false, Budget: engine.BudgetLow}
}

func basePlan(crop engine.Crop, acres float64) engine.CropPlan {
	return engine.CropPlan{
		Crop:  crop,
		Acres: acres,
		Intents: map[engine.Category]engine.Intent{
			engine.CategoryPreSeedHerb:    on(engine.BudgetMed),
			engine.CategoryInCropHerb:     on(engine.BudgetMed),
			engine.CategoryFungicide:      on(engine.BudgetLow),
			engine.CategorySeedTreatment:  on(engine.BudgetLow),
			engine.CategoryInsecticide:    off(),
			engine.CategoryBiologicalsPGR: off(),
		},
	}
}

func defaultForm() engine.FarmInput {
	peas := basePlan(engine.CropPeas, 500)
	peas.Intents[engine.CategoryInsecticide] = on(engine.BudgetLow)

	return engine.FarmInput{
		Province:       "SK",
		Year:           2026,
		BundleFriendly: true,
		Plans: []engine.CropPlan{
			basePlan(engine.CropCanola, 1000),
			basePlan(engine.CropWheat, 1500),
			peas,
		},
	}
}

func earlyBundle() engine.FarmInput {
	in := defaultForm()
	in.EarlyPurchase = true
	return in
}

func canola(acres float64) engine.FarmInput {
	return engine.FarmInput{
		Province: "SK",
		Year:     2025,
		Plans:    []engine.CropPlan{basePlan(engine.CropCanola, acres)},
	}
}
