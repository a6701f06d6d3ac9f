/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's model from the external API contract:
  - snake_case field names
  - display strings rounded at the edge, raw values kept alongside
  - stable key order for categories and crops

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Evaluation:
    FarmInputRequest, CropPlanRequest, IntentRequest
    EvaluationResponse, ModeledSpendDTO, CategorySpendDTO, ProgramResultDTO

  Programs:
    ProgramDTO (wraps factory.ProgramJSON), SaveProgramRequest

  Scenarios:
    ScenarioDTO

VALIDATION:
  Shape is checked against requestSchema (schema.go) before decoding;
  values are checked by engine.Validate. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/program.go: ProgramJSON type
  - money/: Display rounding
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/money"
	"github.com/warp/rebate-engine/programs"
	"github.com/warp/rebate-engine/service"
)

// =============================================================================
// EVALUATION REQUEST
// =============================================================================

// FarmInputRequest is the body of POST /api/evaluate.
type FarmInputRequest struct {
	Province       string            `json:"province"`
	Year           int               `json:"year"`
	EarlyPurchase  bool              `json:"early_purchase"`
	BundleFriendly bool              `json:"bundle_friendly"`
	Plans          []CropPlanRequest `json:"plans"`
}

// CropPlanRequest is one crop declaration. Intents are keyed by category.
type CropPlanRequest struct {
	Crop    string                   `json:"crop"`
	Acres   float64                  `json:"acres"`
	Intents map[string]IntentRequest `json:"intents"`
}

type IntentRequest struct {
	Enabled bool   `json:"enabled"`
	Budget  string `json:"budget"`
}

// ToFarmInput converts the request to the engine type. Enum values are
// checked later by engine.Validate.
func (r FarmInputRequest) ToFarmInput() engine.FarmInput {
	in := engine.FarmInput{
		Province:       engine.Province(r.Province),
		Year:           r.Year,
		EarlyPurchase:  r.EarlyPurchase,
		BundleFriendly: r.BundleFriendly,
		Plans:          make([]engine.CropPlan, 0, len(r.Plans)),
	}
	for _, p := range r.Plans {
		plan := engine.CropPlan{
			Crop:    engine.Crop(p.Crop),
			Acres:   p.Acres,
			Intents: make(map[engine.Category]engine.Intent, len(p.Intents)),
		}
		for cat, intent := range p.Intents {
			plan.Intents[engine.Category(cat)] = engine.Intent{
				Enabled: intent.Enabled,
				Budget:  engine.BudgetLevel(intent.Budget),
			}
		}
		in.Plans = append(in.Plans, plan)
	}
	return in
}

// FarmInputRequestFrom converts an engine input to its wire form.
func FarmInputRequestFrom(in engine.FarmInput) FarmInputRequest {
	r := FarmInputRequest{
		Province:       string(in.Province),
		Year:           in.Year,
		EarlyPurchase:  in.EarlyPurchase,
		BundleFriendly: in.BundleFriendly,
		Plans:          make([]CropPlanRequest, 0, len(in.Plans)),
	}
	for _, p := range in.Plans {
		plan := CropPlanRequest{
			Crop:    string(p.Crop),
			Acres:   p.Acres,
			Intents: make(map[string]IntentRequest, len(p.Intents)),
		}
		for cat, intent := range p.Intents {
			plan.Intents[string(cat)] = IntentRequest{Enabled: intent.Enabled, Budget: string(intent.Budget)}
		}
		r.Plans = append(r.Plans, plan)
	}
	return r
}

// =============================================================================
// EVALUATION RESPONSE
// =============================================================================

// EvaluationResponse is the body returned by the evaluate endpoints.
type EvaluationResponse struct {
	EvaluationID string             `json:"evaluation_id"`
	Generation   uint64             `json:"generation"`
	Cached       bool               `json:"cached"`
	Modeled      ModeledSpendDTO    `json:"modeled"`
	Results      []ProgramResultDTO `json:"results"`
}

// ModeledSpendDTO is the farm-wide spend plus one bucket per crop present.
type ModeledSpendDTO struct {
	Total        float64            `json:"total"`
	TotalDisplay string             `json:"total_display"`
	Categories   []CategorySpendDTO `json:"categories"`
	Crops        []CropSpendDTO     `json:"crops"`
}

// CategorySpendDTO is one category line, always present for every category.
type CategorySpendDTO struct {
	Category       string  `json:"category"`
	Label          string  `json:"label"`
	Dollars        float64 `json:"dollars"`
	DollarsDisplay string  `json:"dollars_display"`
	ProxyAcres     float64 `json:"proxy_acres"`
}

type CropSpendDTO struct {
	Crop         string             `json:"crop"`
	Total        float64            `json:"total"`
	TotalDisplay string             `json:"total_display"`
	Categories   []CategorySpendDTO `json:"categories"`
}

// ProgramResultDTO is one ranked program outcome.
type ProgramResultDTO struct {
	Rank              int           `json:"rank"`
	ProgramID         string        `json:"program_id"`
	Company           string        `json:"company"`
	EstimatedCashback float64       `json:"estimated_cashback"`
	CashbackDisplay   string        `json:"cashback_display"`
	EstimatedPerAcre  float64       `json:"estimated_per_acre"`
	PerAcreDisplay    string        `json:"per_acre_display"`
	Notes             []string      `json:"notes"`
	Breakdown         []LineItemDTO `json:"breakdown"`
}

type LineItemDTO struct {
	Label         string  `json:"label"`
	Value         float64 `json:"value"`
	Display       string  `json:"display"`
	Informational bool    `json:"informational,omitempty"`
}

// NewEvaluationResponse converts a service outcome to its wire form.
func NewEvaluationResponse(id string, out service.Outcome) EvaluationResponse {
	results := make([]ProgramResultDTO, len(out.Results))
	for i, r := range out.Results {
		results[i] = toProgramResultDTO(i+1, r)
	}
	return EvaluationResponse{
		EvaluationID: id,
		Generation:   out.Generation,
		Cached:       out.Cached,
		Modeled:      toModeledSpendDTO(out.Modeled),
		Results:      results,
	}
}

func toModeledSpendDTO(m engine.ModeledSpend) ModeledSpendDTO {
	dto := ModeledSpendDTO{
		Total:        m.Total,
		TotalDisplay: money.Dollars(m.Total).String(),
		Categories:   toCategorySpendDTOs(m.CropModeledSpend),
		Crops:        []CropSpendDTO{},
	}
	for _, crop := range m.Crops() {
		bucket := m.ByCrop[crop]
		dto.Crops = append(dto.Crops, CropSpendDTO{
			Crop:         string(crop),
			Total:        bucket.Total,
			TotalDisplay: money.Dollars(bucket.Total).String(),
			Categories:   toCategorySpendDTOs(bucket),
		})
	}
	return dto
}

func toCategorySpendDTOs(b engine.CropModeledSpend) []CategorySpendDTO {
	out := make([]CategorySpendDTO, 0, len(engine.AllCategories))
	for _, c := range engine.AllCategories {
		out = append(out, CategorySpendDTO{
			Category:       string(c),
			Label:          c.Label(),
			Dollars:        b.ByCategory[c],
			DollarsDisplay: money.Dollars(b.ByCategory[c]).String(),
			ProxyAcres:     b.AcresByCategory[c],
		})
	}
	return out
}

func toProgramResultDTO(rank int, r engine.ProgramResult) ProgramResultDTO {
	notes := r.Notes
	if notes == nil {
		notes = []string{}
	}
	lines := make([]LineItemDTO, len(r.Breakdown))
	for i, li := range r.Breakdown {
		lines[i] = LineItemDTO{
			Label:         li.Label,
			Value:         li.Value,
			Display:       money.Dollars(li.Value).String(),
			Informational: li.Informational,
		}
	}
	return ProgramResultDTO{
		Rank:              rank,
		ProgramID:         r.ProgramID,
		Company:           r.Company,
		EstimatedCashback: r.EstimatedCashback,
		CashbackDisplay:   money.Dollars(r.EstimatedCashback).String(),
		EstimatedPerAcre:  r.EstimatedPerAcre,
		PerAcreDisplay:    money.PerAcre(r.EstimatedPerAcre).String(),
		Notes:             notes,
		Breakdown:         lines,
	}
}

// =============================================================================
// PROGRAMS
// =============================================================================

// ProgramDTO represents a registered program in API responses.
type ProgramDTO struct {
	ID       string              `json:"id"`
	Company  string              `json:"company"`
	Kind     programs.Kind       `json:"kind"`
	Position int                 `json:"position"`
	Version  int                 `json:"version"`
	Config   factory.ProgramJSON `json:"config"`
}

// SaveProgramRequest is the body of POST /api/programs. Position may be
// omitted to keep an existing program's slot or append a new one.
type SaveProgramRequest struct {
	ID       string          `json:"id"`
	Company  string          `json:"company"`
	Kind     programs.Kind   `json:"kind"`
	Position *int            `json:"position,omitempty"`
	Params   json.RawMessage `json:"params"`
}

func (r SaveProgramRequest) toProgramJSON() factory.ProgramJSON {
	pj := factory.ProgramJSON{
		ID:      r.ID,
		Company: r.Company,
		Kind:    r.Kind,
		Params:  r.Params,
	}
	if r.Position != nil {
		pj.Position = *r.Position
	}
	return pj
}

func toProgramDTO(f *factory.ProgramFactory, e service.ProgramEntry) (ProgramDTO, error) {
	pj, err := f.ToJSON(e.Program, e.Position)
	if err != nil {
		return ProgramDTO{}, err
	}
	return ProgramDTO{
		ID:       e.Program.ID(),
		Company:  e.Program.Company(),
		Kind:     e.Program.Kind(),
		Position: e.Position,
		Version:  e.Version,
		Config:   pj,
	}, nil
}

// =============================================================================
// SCENARIOS & MISC
// =============================================================================

// ScenarioDTO represents a demo farm input.
type ScenarioDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Input       FarmInputRequest `json:"input"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Programs   int    `json:"programs"`
	Generation uint64 `json:"generation"`
	Time       string `json:"time"`
}

func newHealthResponse(programs int, generation uint64) HealthResponse {
	return HealthResponse{
		Status:     "ok",
		Programs:   programs,
		Generation: generation,
		Time:       time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
