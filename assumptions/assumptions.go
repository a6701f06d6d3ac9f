/*
Package assumptions loads the per-acre spend table the engine models with.

PURPOSE:
  The table is the only market data in the system. It ships embedded as
  default.yaml and can be replaced from YAML, JSON, or an agronomist's
  spreadsheet.

FORMATS:
  YAML / JSON: crop -> category -> budget -> dollars per acre
    canola:
      preSeedHerb: {low: 12, med: 18, high: 26}

  XLSX: one row per value, first sheet unless named, header row required
    | crop   | category    | budget | per_acre |
    | canola | preSeedHerb | med    | 18       |

Every loader validates before returning, so a table that comes back
without error always has the "other" fallback profile.

SEE ALSO:
  - engine/assumptions.go: AssumptionTable and Validate
*/
package assumptions

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/warp/rebate-engine/engine"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	defaultOnce  sync.Once
	defaultTable engine.AssumptionTable
)

// Default returns a private copy of the embedded table.
// Panics if the embedded file is invalid; that is a build defect.
func Default() engine.AssumptionTable {
	defaultOnce.Do(func() {
		t, err := LoadYAML(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("assumptions: embedded default table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable.Clone()
}

// LoadYAML parses and validates a YAML table.
func LoadYAML(data []byte) (engine.AssumptionTable, error) {
	var t engine.AssumptionTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", engine.ErrInvalidAssumptions, err)
	}
	return checked(t)
}

// LoadJSON parses and validates a JSON table.
func LoadJSON(data []byte) (engine.AssumptionTable, error) {
	var t engine.AssumptionTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: json: %v", engine.ErrInvalidAssumptions, err)
	}
	return checked(t)
}

// LoadFile loads a table from path, choosing the format by extension:
// .yaml/.yml, .json, or .xlsx (first sheet).
func LoadFile(path string) (engine.AssumptionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assumptions: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return LoadYAML(data)
	case ".json":
		return LoadJSON(data)
	case ".xlsx":
		return LoadXLSX(bytes.NewReader(data), "")
	default:
		return nil, fmt.Errorf("%w: unsupported file extension %q", engine.ErrInvalidAssumptions, ext)
	}
}

// MarshalYAML renders a table in the default.yaml layout.
func MarshalYAML(t engine.AssumptionTable) ([]byte, error) {
	return yaml.Marshal(t)
}

func checked(t engine.AssumptionTable) (engine.AssumptionTable, error) {
	if t == nil {
		t = engine.AssumptionTable{}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
