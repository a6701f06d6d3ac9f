package factory_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/programs"
)

func TestParseProgram_TieredTotal(t *testing.T) {
	f := factory.NewProgramFactory()

	p, err := f.ParseProgram(`{
		"id": "fmc-2026",
		"company": "FMC 2026",
		"kind": "tiered_total",
		"params": {
			"breakpoints": [5000, 30000],
			"biologicals_rates": [0, 0.02, 0.04],
			"in_crop_rates": [0, 0.06, 0.09],
			"matching_bonus_per_acre": 0.5
		}
	}`)
	require.NoError(t, err)

	assert.Equal(t, "fmc-2026", p.ID())
	assert.Equal(t, "FMC 2026", p.Company())
	assert.Equal(t, programs.KindTieredTotal, p.Kind())

	tt, ok := p.(*programs.TieredTotal)
	require.True(t, ok)
	assert.Equal(t, []float64{5000, 30000}, tt.Breakpoints)
	assert.Equal(t, 0.5, tt.MatchingBonusPerAcre)
}

func TestParseProgram_CompanyDefaultsToID(t *testing.T) {
	p, err := factory.NewProgramFactory().ParseProgram(`{
		"id": "crop-tier",
		"kind": "per_crop_tier",
		"params": {"breakpoints": [1000], "rates": [0, 0.01]}
	}`)
	require.NoError(t, err)

	assert.Equal(t, "crop-tier", p.Company())
}

func TestParseProgram_Errors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr error
	}{
		{
			name:    "malformed",
			json:    `{"id": `,
			wantErr: engine.ErrInvalidProgramConfig,
		},
		{
			name:    "missing id",
			json:    `{"kind": "bundle"}`,
			wantErr: engine.ErrInvalidProgramConfig,
		},
		{
			name:    "unknown kind",
			json:    `{"id": "x", "kind": "lottery"}`,
			wantErr: engine.ErrUnknownProgramKind,
		},
		{
			name:    "unknown param",
			json:    `{"id": "x", "kind": "per_crop_tier", "params": {"breakpoints": [1000], "rates": [0, 0.01], "ratez": []}}`,
			wantErr: engine.ErrInvalidProgramConfig,
		},
		{
			name:    "rates do not match breakpoints",
			json:    `{"id": "x", "kind": "per_crop_tier", "params": {"breakpoints": [1000, 2000], "rates": [0, 0.01]}}`,
			wantErr: engine.ErrInvalidProgramConfig,
		},
		{
			name:    "descending breakpoints",
			json:    `{"id": "x", "kind": "per_crop_tier", "params": {"breakpoints": [2000, 1000], "rates": [0, 0.01, 0.02]}}`,
			wantErr: engine.ErrInvalidProgramConfig,
		},
		{
			name:    "negative rate",
			json:    `{"id": "x", "kind": "segment_loyalty", "params": {"min_segment_acres": 300, "rates": [0, 0, -0.05, 0.1]}}`,
			wantErr: engine.ErrInvalidProgramConfig,
		},
		{
			name:    "unknown category",
			json:    `{"id": "x", "kind": "bundle", "params": {"categories": ["fertilizer"], "min_categories": 1, "bundle_rate": 0.04}}`,
			wantErr: engine.ErrInvalidProgramConfig,
		},
	}

	f := factory.NewProgramFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseProgram(tt.json)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, engine.IsClientError(err))
		})
	}
}

func TestToJSON_RoundTripsDefaults(t *testing.T) {
	f := factory.NewProgramFactory()

	for i, orig := range programs.DefaultPrograms() {
		pj, err := f.ToJSON(orig, i)
		require.NoError(t, err)
		assert.Equal(t, i, pj.Position)
		assert.Equal(t, orig.Kind(), pj.Kind)
		// identity lives on the envelope, never inside params
		assert.NotContains(t, string(pj.Params), "ProgramID")

		back, err := f.FromJSON(pj)
		require.NoError(t, err)
		assert.Equal(t, orig, back, orig.ID())
	}
}

func TestParseProgramsYAML_OrderedByPosition(t *testing.T) {
	doc := `
programs:
  - id: second
    company: Second
    kind: category_breadth
    position: 2
    params:
      categories: [preSeedHerb, inCropHerb, fungicide]
      count_rates: [0, 0, 0.03, 0.05]
      min_eligible_spend: 2500
  - id: first
    company: First
    kind: bundle
    position: 1
    params:
      categories: [fungicide, insecticide]
      min_categories: 2
      bundle_rate: 0.04
      early_purchase_rate: 0.01
`

	progs, err := factory.NewProgramFactory().ParseProgramsYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, progs, 2)

	assert.Equal(t, "first", progs[0].ID())
	assert.Equal(t, "second", progs[1].ID())

	breadth := progs[1].(*programs.CategoryBreadth)
	assert.Equal(t, []engine.Category{engine.CategoryPreSeedHerb, engine.CategoryInCropHerb, engine.CategoryFungicide}, breadth.Categories)
	assert.Equal(t, 2500.0, breadth.MinEligibleSpend)
}

func TestParsePrograms_DuplicateID(t *testing.T) {
	data := []byte(`[
		{"id": "a", "kind": "per_crop_tier", "params": {"breakpoints": [1000], "rates": [0, 0.01]}},
		{"id": "a", "kind": "per_crop_tier", "params": {"breakpoints": [1000], "rates": [0, 0.02]}}
	]`)

	_, err := factory.NewProgramFactory().ParsePrograms(data)

	assert.True(t, engine.IsConflict(err))
}

func TestParseProgramsYAML_ExampleFileMatchesPresets(t *testing.T) {
	data, err := os.ReadFile("../configs/programs.example.yaml")
	require.NoError(t, err)

	progs, err := factory.NewProgramFactory().ParseProgramsYAML(data)
	require.NoError(t, err)

	assert.Equal(t, programs.DefaultPrograms(), progs)
}
