package assumptions_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/rebate-engine/assumptions"
	"github.com/warp/rebate-engine/engine"
)

func TestDefault_ValidAndCoversScenarioA(t *testing.T) {
	table := assumptions.Default()

	require.NoError(t, table.Validate())
	canola := table[engine.CropCanola]
	assert.Equal(t, 18.0, canola.PerAcre(engine.CategoryPreSeedHerb, engine.BudgetMed))
	assert.Equal(t, 22.0, canola.PerAcre(engine.CategoryInCropHerb, engine.BudgetMed))
	assert.Equal(t, 10.0, canola.PerAcre(engine.CategoryFungicide, engine.BudgetLow))
	assert.Equal(t, 12.0, canola.PerAcre(engine.CategorySeedTreatment, engine.BudgetLow))
}

func TestDefault_ReturnsPrivateCopy(t *testing.T) {
	a := assumptions.Default()
	a[engine.CropCanola][engine.CategoryPreSeedHerb][engine.BudgetMed] = 999

	b := assumptions.Default()
	assert.Equal(t, 18.0, b[engine.CropCanola][engine.CategoryPreSeedHerb][engine.BudgetMed])
}

func TestLoadYAML(t *testing.T) {
	table, err := assumptions.LoadYAML([]byte(`
other:
  fungicide: {low: 5}
peas:
  insecticide: {med: 9.5}
`))
	require.NoError(t, err)

	assert.Equal(t, 9.5, table[engine.CropPeas].PerAcre(engine.CategoryInsecticide, engine.BudgetMed))
	assert.Zero(t, table[engine.CropPeas].PerAcre(engine.CategoryInsecticide, engine.BudgetHigh))
}

func TestLoadYAML_Errors(t *testing.T) {
	_, err := assumptions.LoadYAML([]byte(`peas: {insecticide: {med: 9}}`))
	assert.ErrorIs(t, err, engine.ErrMissingFallbackProfile)

	_, err = assumptions.LoadYAML([]byte(`other: {fungicide: {low: -1}}`))
	assert.ErrorIs(t, err, engine.ErrInvalidAssumptions)

	_, err = assumptions.LoadYAML([]byte("other: [not, a, map]"))
	assert.ErrorIs(t, err, engine.ErrInvalidAssumptions)

	_, err = assumptions.LoadYAML(nil)
	assert.ErrorIs(t, err, engine.ErrMissingFallbackProfile)
}

func TestLoadJSON(t *testing.T) {
	table, err := assumptions.LoadJSON([]byte(`{"other": {"fungicide": {"low": 5, "med": 8}}}`))
	require.NoError(t, err)
	assert.Equal(t, 8.0, table.ProfileFor(engine.CropCorn).PerAcre(engine.CategoryFungicide, engine.BudgetMed))

	_, err = assumptions.LoadJSON([]byte(`{"other": {"fungicide": {"extreme": 5}}}`))
	assert.ErrorIs(t, err, engine.ErrInvalidAssumptions)
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	orig := assumptions.Default()

	data, err := assumptions.MarshalYAML(orig)
	require.NoError(t, err)
	back, err := assumptions.LoadYAML(data)
	require.NoError(t, err)

	assert.Equal(t, orig, back)
}

func TestXLSX_RoundTrip(t *testing.T) {
	orig := assumptions.Default()

	var buf bytes.Buffer
	require.NoError(t, assumptions.WriteXLSX(orig, &buf))

	back, err := assumptions.LoadXLSX(&buf, "")
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}

// workbook builds an in-memory spreadsheet from rows.
func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestLoadXLSX_SkipsBlankRowsAndNormalizesBudget(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Crop", "Category", "Budget", "Per_Acre"},
		{"other", "fungicide", "LOW", 7},
		{},
		{"canola", "preSeedHerb", "med", 18.5},
	})

	table, err := assumptions.LoadXLSX(buf, "")
	require.NoError(t, err)

	assert.Equal(t, 7.0, table[engine.CropOther].PerAcre(engine.CategoryFungicide, engine.BudgetLow))
	assert.Equal(t, 18.5, table[engine.CropCanola].PerAcre(engine.CategoryPreSeedHerb, engine.BudgetMed))
}

func TestLoadXLSX_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]interface{}
	}{
		{"missing header", [][]interface{}{{"other", "fungicide", "low", 7}}},
		{"not a number", [][]interface{}{
			{"crop", "category", "budget", "per_acre"},
			{"other", "fungicide", "low", "lots"},
		}},
		{"short row", [][]interface{}{
			{"crop", "category", "budget", "per_acre"},
			{"other", "fungicide"},
		}},
		{"unknown crop", [][]interface{}{
			{"crop", "category", "budget", "per_acre"},
			{"other", "fungicide", "low", 7},
			{"quinoa", "fungicide", "low", 7},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := assumptions.LoadXLSX(workbook(t, tt.rows), "")
			assert.ErrorIs(t, err, engine.ErrInvalidAssumptions)
		})
	}
}

func TestLoadXLSX_NotAWorkbook(t *testing.T) {
	_, err := assumptions.LoadXLSX(bytes.NewBufferString("crop,category"), "")
	assert.ErrorIs(t, err, engine.ErrInvalidAssumptions)
}

func TestLoadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	orig := assumptions.Default()

	yamlData, err := assumptions.MarshalYAML(orig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table.yml"), yamlData, 0o600))

	var xlsx bytes.Buffer
	require.NoError(t, assumptions.WriteXLSX(orig, &xlsx))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table.XLSX"), xlsx.Bytes(), 0o600))

	for _, name := range []string{"table.yml", "table.XLSX"} {
		got, err := assumptions.LoadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, orig, got, name)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "table.csv"), []byte("x"), 0o600))
	_, err = assumptions.LoadFile(filepath.Join(dir, "table.csv"))
	assert.True(t, errors.Is(err, engine.ErrInvalidAssumptions))

	_, err = assumptions.LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
