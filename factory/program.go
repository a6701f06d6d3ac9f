/*
Package factory provides JSON/YAML to Go program conversion.

PURPOSE:
  Converts program definitions into programs.Program values. Rule tables
  change every season; the factory lets an operator replace breakpoints
  and rates in a config file or through the API without a code change.

JSON SCHEMA:
  {
    "id": "fmc-cashback",
    "company": "FMC CashBack (modeled)",
    "kind": "tiered_total",
    "position": 0,
    "params": {
      "breakpoints": [5000, 30000, 50000, 75000],
      "biologicals_rates": [0, 0.02, 0.04, 0.06, 0.08],
      "in_crop_rates": [0, 0.06, 0.09, 0.12, 0.15],
      "matching_bonus_per_acre": 1
    }
  }

  params is decoded strictly into the rule table for kind; unknown
  fields are rejected so a typo can't silently zero a rate.

YAML:
  programs:
    - id: basf-breadth
      company: BASF Ag Rewards (modeled breadth)
      kind: category_breadth
      params:
        categories: [preSeedHerb, inCropHerb, fungicide]
        count_rates: [0, 0, 0.03, 0.05]
        min_eligible_spend: 2500

USAGE:
  f := factory.NewProgramFactory()
  p, err := f.ParseProgram(jsonString)
  reg.Replace(p)

SEE ALSO:
  - programs/types.go: Program kinds and rule table conventions
  - programs/presets.go: Default programs
  - store/: Persists ProgramJSON rows
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/programs"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProgramJSON is the serialized representation of a program.
type ProgramJSON struct {
	ID       string          `json:"id"`
	Company  string          `json:"company"`
	Kind     programs.Kind   `json:"kind"`
	Position int             `json:"position"`
	Params   json.RawMessage `json:"params"`
}

// programYAML mirrors ProgramJSON; params stays a node until the kind is known.
type programYAML struct {
	ID       string        `yaml:"id"`
	Company  string        `yaml:"company"`
	Kind     programs.Kind `yaml:"kind"`
	Position int           `yaml:"position"`
	Params   yaml.Node     `yaml:"params"`
}

type programsFileYAML struct {
	Programs []programYAML `yaml:"programs"`
}

// =============================================================================
// PROGRAM FACTORY
// =============================================================================

// ProgramFactory converts serialized programs to Go structs.
type ProgramFactory struct{}

// NewProgramFactory creates a new program factory.
func NewProgramFactory() *ProgramFactory {
	return &ProgramFactory{}
}

// ParseProgram parses a single JSON program definition.
func (f *ProgramFactory) ParseProgram(jsonStr string) (programs.Program, error) {
	var pj ProgramJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("%w: failed to parse program JSON: %v", engine.ErrInvalidProgramConfig, err)
	}
	return f.FromJSON(pj)
}

// FromJSON builds and validates the program described by pj.
func (f *ProgramFactory) FromJSON(pj ProgramJSON) (programs.Program, error) {
	if pj.ID == "" {
		return nil, &engine.ProgramConfigError{Reason: "id is required"}
	}

	p, err := newProgram(pj.Kind)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", pj.ID, err)
	}

	if len(pj.Params) > 0 {
		dec := json.NewDecoder(bytes.NewReader(pj.Params))
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return nil, &engine.ProgramConfigError{ProgramID: pj.ID, Reason: "params: " + err.Error()}
		}
	}

	company := pj.Company
	if company == "" {
		company = pj.ID
	}
	p.(metaSetter).SetMeta(pj.ID, company)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ToJSON converts a Program to ProgramJSON at the given position.
func (f *ProgramFactory) ToJSON(p programs.Program, position int) (ProgramJSON, error) {
	params, err := json.Marshal(p)
	if err != nil {
		return ProgramJSON{}, fmt.Errorf("marshal %s params: %w", p.ID(), err)
	}
	return ProgramJSON{
		ID:       p.ID(),
		Company:  p.Company(),
		Kind:     p.Kind(),
		Position: position,
		Params:   params,
	}, nil
}

// ParsePrograms parses a JSON array of program definitions, ordered by position.
func (f *ProgramFactory) ParsePrograms(data []byte) ([]programs.Program, error) {
	var pjs []ProgramJSON
	if err := json.Unmarshal(data, &pjs); err != nil {
		return nil, fmt.Errorf("%w: failed to parse programs JSON: %v", engine.ErrInvalidProgramConfig, err)
	}
	return f.FromJSONList(pjs)
}

// ParseProgramsYAML parses a YAML document with a top-level "programs" list.
func (f *ProgramFactory) ParseProgramsYAML(data []byte) ([]programs.Program, error) {
	var doc programsFileYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse programs YAML: %v", engine.ErrInvalidProgramConfig, err)
	}

	pjs := make([]ProgramJSON, 0, len(doc.Programs))
	for _, py := range doc.Programs {
		params, err := yamlNodeToJSON(py.Params)
		if err != nil {
			return nil, &engine.ProgramConfigError{ProgramID: py.ID, Reason: "params: " + err.Error()}
		}
		pjs = append(pjs, ProgramJSON{
			ID:       py.ID,
			Company:  py.Company,
			Kind:     py.Kind,
			Position: py.Position,
			Params:   params,
		})
	}
	return f.FromJSONList(pjs)
}

// FromJSONList builds every program, ordered by position (ties keep input order).
// IDs must be unique.
func (f *ProgramFactory) FromJSONList(pjs []ProgramJSON) ([]programs.Program, error) {
	sorted := make([]ProgramJSON, len(pjs))
	copy(sorted, pjs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	seen := make(map[string]bool, len(sorted))
	out := make([]programs.Program, 0, len(sorted))
	for _, pj := range sorted {
		if seen[pj.ID] {
			return nil, fmt.Errorf("%w: %s", engine.ErrDuplicateProgram, pj.ID)
		}
		seen[pj.ID] = true

		p, err := f.FromJSON(pj)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

type metaSetter interface {
	SetMeta(id, company string)
}

func newProgram(kind programs.Kind) (programs.Program, error) {
	switch kind {
	case programs.KindTieredTotal:
		return &programs.TieredTotal{}, nil
	case programs.KindSegmentLoyalty:
		return &programs.SegmentLoyalty{}, nil
	case programs.KindCategoryBreadth:
		return &programs.CategoryBreadth{}, nil
	case programs.KindBundle:
		return &programs.Bundle{}, nil
	case programs.KindPerCropTier:
		return &programs.PerCropTier{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownProgramKind, kind)
	}
}

// yamlNodeToJSON re-encodes a YAML params node as JSON so both formats
// share the strict JSON decode path.
func yamlNodeToJSON(node yaml.Node) (json.RawMessage, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	var v map[string]any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
