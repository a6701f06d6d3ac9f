package engine_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/rebate-engine/engine"
)

func TestAssumptionTable_Validate(t *testing.T) {
	assert.NoError(t, testTable().Validate())

	missing := testTable()
	delete(missing, engine.CropOther)
	assert.ErrorIs(t, missing.Validate(), engine.ErrMissingFallbackProfile)

	negative := testTable()
	negative[engine.CropWheat][engine.CategoryInCropHerb][engine.BudgetMed] = -1
	assert.ErrorIs(t, negative.Validate(), engine.ErrInvalidAssumptions)

	nan := testTable()
	nan[engine.CropWheat][engine.CategoryInCropHerb][engine.BudgetMed] = math.NaN()
	assert.ErrorIs(t, nan.Validate(), engine.ErrInvalidAssumptions)

	badCrop := testTable()
	badCrop["quinoa"] = engine.CropProfile{}
	assert.ErrorIs(t, badCrop.Validate(), engine.ErrInvalidAssumptions)

	badBudget := testTable()
	badBudget[engine.CropWheat][engine.CategoryInCropHerb]["max"] = 3
	assert.True(t, engine.IsClientError(badBudget.Validate()))
}

func TestAssumptionTable_CloneIsDeep(t *testing.T) {
	orig := testTable()
	clone := orig.Clone()

	clone[engine.CropCanola][engine.CategoryPreSeedHerb][engine.BudgetMed] = 99

	assert.Equal(t, 18.0, orig[engine.CropCanola][engine.CategoryPreSeedHerb][engine.BudgetMed])
}

func TestAssumptionTable_ProfileFor(t *testing.T) {
	table := testTable()

	assert.Equal(t, 18.0, table.ProfileFor(engine.CropCanola).PerAcre(engine.CategoryPreSeedHerb, engine.BudgetMed))
	assert.Equal(t, 8.0, table.ProfileFor(engine.CropPeas).PerAcre(engine.CategoryPreSeedHerb, engine.BudgetMed))
	assert.Zero(t, table.ProfileFor(engine.CropPeas).PerAcre(engine.CategoryFungicide, engine.BudgetMed))
}
