package engine_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rebate-engine/engine"
)

func TestValidate_AcceptsScenarioA(t *testing.T) {
	assert.NoError(t, engine.Validate(scenarioA(1000)))
	assert.NoError(t, engine.Validate(scenarioA(0)))
}

func TestValidate_DisabledIntentMayOmitBudget(t *testing.T) {
	input := scenarioA(1000)
	input.Plans[0].Intents[engine.CategorySeedTrait] = engine.Intent{Enabled: false}

	assert.NoError(t, engine.Validate(input))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*engine.FarmInput)
		field  string
	}{
		{
			name:   "unknown province",
			mutate: func(in *engine.FarmInput) { in.Province = "XX" },
			field:  "province",
		},
		{
			name:   "year too early",
			mutate: func(in *engine.FarmInput) { in.Year = 2019 },
			field:  "year",
		},
		{
			name:   "year too late",
			mutate: func(in *engine.FarmInput) { in.Year = 2041 },
			field:  "year",
		},
		{
			name:   "unknown crop",
			mutate: func(in *engine.FarmInput) { in.Plans[0].Crop = "quinoa" },
			field:  "plans[0].crop",
		},
		{
			name:   "negative acres",
			mutate: func(in *engine.FarmInput) { in.Plans[0].Acres = -1 },
			field:  "plans[0].acres",
		},
		{
			name:   "NaN acres",
			mutate: func(in *engine.FarmInput) { in.Plans[0].Acres = math.NaN() },
			field:  "plans[0].acres",
		},
		{
			name:   "infinite acres",
			mutate: func(in *engine.FarmInput) { in.Plans[0].Acres = math.Inf(1) },
			field:  "plans[0].acres",
		},
		{
			name: "unknown category",
			mutate: func(in *engine.FarmInput) {
				in.Plans[0].Intents["fertilizer"] = engine.Intent{Enabled: true, Budget: engine.BudgetLow}
			},
			field: "plans[0].intents",
		},
		{
			name: "unknown budget",
			mutate: func(in *engine.FarmInput) {
				in.Plans[0].Intents[engine.CategoryFungicide] = engine.Intent{Enabled: true, Budget: "extreme"}
			},
			field: "plans[0].intents.fungicide.budget",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := scenarioA(1000)
			tt.mutate(&input)

			err := engine.Validate(input)

			require.Error(t, err)
			assert.ErrorIs(t, err, engine.ErrInvalidInput)
			assert.True(t, engine.IsClientError(err))

			var iie *engine.InvalidInputError
			require.True(t, errors.As(err, &iie))
			assert.Equal(t, tt.field, iie.Field)
		})
	}
}
