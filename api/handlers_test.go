/*
handlers_test.go - HTTP tests for the rebate API

Tests for:
- Evaluation (ranking, display rounding, cache flag, schema and input errors)
- Program CRUD
- Assumption table read, replace, and spreadsheet import
- Scenarios, reset, health, metrics
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/rebate-engine/api"
	"github.com/warp/rebate-engine/assumptions"
	"github.com/warp/rebate-engine/cache"
	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/programs"
	"github.com/warp/rebate-engine/service"
	"github.com/warp/rebate-engine/store"
)

const canolaBody = `{
  "province": "SK",
  "year": 2025,
  "plans": [{
    "crop": "canola",
    "acres": 1000,
    "intents": {
      "preSeedHerb":   {"enabled": true, "budget": "med"},
      "inCropHerb":    {"enabled": true, "budget": "med"},
      "fungicide":     {"enabled": true, "budget": "low"},
      "seedTreatment": {"enabled": true, "budget": "low"},
      "insecticide":   {"enabled": false, "budget": "high"}
    }
  }]
}`

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()
	log := zaptest.NewLogger(t)
	svc := service.New(store.NewMemory(), cache.NewMemory(32), log, service.DefaultSeed())
	require.NoError(t, svc.Load(context.Background()))
	return api.NewRouter(api.NewHandler(svc, log), api.RouterOptions{Logger: log})
}

func do(t *testing.T, r http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, r, method, path, "application/json", []byte(body))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// EVALUATION
// =============================================================================

func TestEvaluate_RanksAndFormats(t *testing.T) {
	// GIVEN: The default programs and table
	r := newRouter(t)

	// WHEN: A 1,000 acre canola plan is evaluated
	rec := doJSON(t, r, http.MethodPost, "/api/evaluate", canolaBody)

	// THEN: Results are ranked with raw and display values
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.EvaluationResponse](t, rec)

	_, err := uuid.Parse(resp.EvaluationID)
	assert.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.NotZero(t, resp.Generation)

	assert.InDelta(t, 62000, resp.Modeled.Total, 1e-6)
	assert.Equal(t, "$62,000", resp.Modeled.TotalDisplay)
	assert.Len(t, resp.Modeled.Categories, len(engine.AllCategories))
	require.Len(t, resp.Modeled.Crops, 1)
	assert.Equal(t, "canola", resp.Modeled.Crops[0].Crop)

	require.Len(t, resp.Results, 5)
	top := resp.Results[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, programs.BayerValueID, top.ProgramID)
	assert.Equal(t, "$6,200", top.CashbackDisplay)
	assert.Equal(t, "$6.20/ac", top.PerAcreDisplay)
	assert.NotEmpty(t, top.Notes)

	last := resp.Results[4]
	assert.Equal(t, programs.UPLBundleID, last.ProgramID)
	assert.Equal(t, "$0", last.CashbackDisplay)
	assert.NotNil(t, last.Breakdown)
}

func TestEvaluate_RepeatIsCached(t *testing.T) {
	r := newRouter(t)

	first := decode[api.EvaluationResponse](t, doJSON(t, r, http.MethodPost, "/api/evaluate", canolaBody))
	second := decode[api.EvaluationResponse](t, doJSON(t, r, http.MethodPost, "/api/evaluate", canolaBody))

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.EvaluationID, second.EvaluationID)
	assert.Equal(t, first.Results, second.Results)
}

func TestEvaluate_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"missing plans":   `{"province":"SK","year":2025}`,
		"acres as string": `{"province":"SK","year":2025,"plans":[{"crop":"canola","acres":"many"}]}`,
		"unknown field":   `{"province":"SK","year":2025,"plans":[],"color":"red"}`,
		"not json":        `{"province":`,
	}

	r := newRouter(t)
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/evaluate", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[api.ErrorResponse](t, rec)
			assert.Equal(t, "schema_violation", resp.Code)
		})
	}
}

func TestEvaluate_InvalidInputNamesField(t *testing.T) {
	r := newRouter(t)
	body := strings.Replace(canolaBody, `"canola"`, `"rice"`, 1)

	rec := doJSON(t, r, http.MethodPost, "/api/evaluate", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "invalid_input", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "plans[0].crop", details["field"])
}

func TestEvaluate_NegativeAcres(t *testing.T) {
	r := newRouter(t)
	body := strings.Replace(canolaBody, `"acres": 1000`, `"acres": -5`, 1)

	rec := doJSON(t, r, http.MethodPost, "/api/evaluate", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decode[api.ErrorResponse](t, rec).Details.(map[string]any)
	assert.Equal(t, "plans[0].acres", details["field"])
}

// =============================================================================
// PROGRAMS
// =============================================================================

func TestPrograms_ListAndGet(t *testing.T) {
	r := newRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/programs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]api.ProgramDTO](t, rec)
	require.Len(t, list, 5)
	assert.Equal(t, programs.FMCCashbackID, list[0].ID)
	assert.Equal(t, programs.KindTieredTotal, list[0].Kind)
	assert.Equal(t, 1, list[0].Version)

	rec = doJSON(t, r, http.MethodGet, "/api/programs/"+programs.BASFBreadthID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	one := decode[api.ProgramDTO](t, rec)
	assert.Equal(t, 2, one.Position)
	assert.Contains(t, string(one.Config.Params), "count_rates")

	rec = doJSON(t, r, http.MethodGet, "/api/programs/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrograms_CreateReplaceDelete(t *testing.T) {
	r := newRouter(t)
	body := `{
	  "id": "acme-crop",
	  "company": "Acme Crop Rewards",
	  "kind": "per_crop_tier",
	  "params": {"breakpoints": [1000], "rates": [0, 0.5]}
	}`

	// WHEN: A new program is posted
	rec := doJSON(t, r, http.MethodPost, "/api/programs", body)

	// THEN: It is created at the end and ranks first for canola
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.ProgramDTO](t, rec)
	assert.Equal(t, 5, created.Position)

	eval := decode[api.EvaluationResponse](t, doJSON(t, r, http.MethodPost, "/api/evaluate", canolaBody))
	assert.Equal(t, "acme-crop", eval.Results[0].ProgramID)
	assert.Equal(t, "$31,000", eval.Results[0].CashbackDisplay)

	// WHEN: The same ID is posted again
	rec = doJSON(t, r, http.MethodPost, "/api/programs", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[api.ProgramDTO](t, rec).Version)

	// WHEN: It is deleted
	rec = doJSON(t, r, http.MethodDelete, "/api/programs/acme-crop", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/programs/acme-crop", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrograms_RejectsBadConfig(t *testing.T) {
	tests := map[string]string{
		"unknown kind":   `{"id":"x","kind":"lottery","params":{}}`,
		"rates mismatch": `{"id":"x","kind":"per_crop_tier","params":{"breakpoints":[1000],"rates":[0]}}`,
		"unknown param":  `{"id":"x","kind":"per_crop_tier","params":{"breakpoints":[1000],"rates":[0,0.1],"bonus":1}}`,
		"missing id":     `{"kind":"per_crop_tier","params":{"breakpoints":[1000],"rates":[0,0.1]}}`,
		"unknown field":  `{"id":"x","kind":"bundle","owner":"me"}`,
	}

	r := newRouter(t)
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/programs", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	list := decode[[]api.ProgramDTO](t, doJSON(t, r, http.MethodGet, "/api/programs", ""))
	assert.Len(t, list, 5)
}

// =============================================================================
// ASSUMPTIONS
// =============================================================================

func TestAssumptions_GetFormats(t *testing.T) {
	r := newRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/assumptions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	table := decode[engine.AssumptionTable](t, rec)
	assert.Contains(t, table, engine.CropOther)
	assert.Equal(t, 18.0, table[engine.CropCanola][engine.CategoryPreSeedHerb][engine.BudgetMed])

	rec = doJSON(t, r, http.MethodGet, "/api/assumptions?format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	fromYAML, err := assumptions.LoadYAML(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, table, fromYAML)

	rec = doJSON(t, r, http.MethodGet, "/api/assumptions?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	fromXLSX, err := assumptions.LoadXLSX(bytes.NewReader(rec.Body.Bytes()), "")
	require.NoError(t, err)
	assert.Equal(t, table, fromXLSX)

	rec = doJSON(t, r, http.MethodGet, "/api/assumptions?format=csv", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssumptions_Put(t *testing.T) {
	r := newRouter(t)

	t.Run("missing fallback is rejected", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPut, "/api/assumptions",
			`{"canola":{"preSeedHerb":{"low":1,"med":2,"high":3}}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("yaml table goes live", func(t *testing.T) {
		yamlBody := "canola:\n  preSeedHerb: {low: 10, med: 20, high: 30}\nother:\n  preSeedHerb: {low: 1, med: 2, high: 3}\n"
		rec := do(t, r, http.MethodPut, "/api/assumptions", "application/yaml", []byte(yamlBody))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		eval := decode[api.EvaluationResponse](t, doJSON(t, r, http.MethodPost, "/api/evaluate", canolaBody))
		assert.InDelta(t, 20000, eval.Modeled.Total, 1e-6)
	})
}

func TestAssumptions_ImportXLSX(t *testing.T) {
	r := newRouter(t)

	// GIVEN: A workbook where canola pre-seed med is $25/ac
	table := assumptions.Default()
	table[engine.CropCanola][engine.CategoryPreSeedHerb][engine.BudgetMed] = 25
	var workbook bytes.Buffer
	require.NoError(t, assumptions.WriteXLSX(table, &workbook))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "assumptions.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	// WHEN: It is uploaded
	rec := do(t, r, http.MethodPost, "/api/assumptions/import", mw.FormDataContentType(), body.Bytes())

	// THEN: Evaluations use the imported rate
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	eval := decode[api.EvaluationResponse](t, doJSON(t, r, http.MethodPost, "/api/evaluate", canolaBody))
	assert.InDelta(t, 69000, eval.Modeled.Total, 1e-6)
}

func TestAssumptions_ImportRejectsMissingFile(t *testing.T) {
	r := newRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("sheet", "assumptions"))
	require.NoError(t, mw.Close())

	rec := do(t, r, http.MethodPost, "/api/assumptions/import", mw.FormDataContentType(), body.Bytes())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SCENARIOS & ADMIN
// =============================================================================

func TestScenarios(t *testing.T) {
	r := newRouter(t)

	list := decode[[]api.ScenarioDTO](t, doJSON(t, r, http.MethodGet, "/api/scenarios", ""))
	require.NotEmpty(t, list)
	assert.Equal(t, "default-form", list[0].ID)
	assert.Len(t, list[0].Input.Plans, 3)

	rec := doJSON(t, r, http.MethodPost, "/api/scenarios/default-form/evaluate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.EvaluationResponse](t, rec)
	assert.Len(t, resp.Modeled.Crops, 3)
	assert.Len(t, resp.Results, 5)

	rec = doJSON(t, r, http.MethodPost, "/api/scenarios/nope/evaluate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarios_ListedInputRoundTrips(t *testing.T) {
	r := newRouter(t)
	list := decode[[]api.ScenarioDTO](t, doJSON(t, r, http.MethodGet, "/api/scenarios", ""))

	body, err := json.Marshal(list[0].Input)
	require.NoError(t, err)

	viaBody := decode[api.EvaluationResponse](t, doJSON(t, r, http.MethodPost, "/api/evaluate", string(body)))
	viaID := decode[api.EvaluationResponse](t, doJSON(t, r, http.MethodPost, "/api/scenarios/"+list[0].ID+"/evaluate", ""))

	assert.Equal(t, viaBody.Results, viaID.Results)
	assert.True(t, viaID.Cached)
}

func TestReset(t *testing.T) {
	r := newRouter(t)
	before := decode[api.HealthResponse](t, doJSON(t, r, http.MethodGet, "/healthz", ""))

	require.Equal(t, http.StatusNoContent,
		doJSON(t, r, http.MethodDelete, "/api/programs/"+programs.FMCCashbackID, "").Code)
	assert.Equal(t, 4, decode[api.HealthResponse](t, doJSON(t, r, http.MethodGet, "/healthz", "")).Programs)

	rec := doJSON(t, r, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	after := decode[api.HealthResponse](t, doJSON(t, r, http.MethodGet, "/healthz", ""))
	assert.Equal(t, 5, after.Programs)
	assert.Equal(t, before.Generation, after.Generation)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newRouter(t)
	doJSON(t, r, http.MethodPost, "/api/evaluate", canolaBody)

	rec := doJSON(t, r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 5, health.Programs)

	rec = doJSON(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rebate_evaluations_total")
}
