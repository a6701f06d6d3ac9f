package api

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// farmInputSchema checks the request shape only. Enum membership and
// value ranges are engine.Validate's job so errors name engine fields.
var farmInputSchema = map[string]any{
	"$schema":  "http://json-schema.org/draft-07/schema#",
	"type":     "object",
	"required": []any{"province", "year", "plans"},
	"properties": map[string]any{
		"province":        map[string]any{"type": "string"},
		"year":            map[string]any{"type": "integer"},
		"early_purchase":  map[string]any{"type": "boolean"},
		"bundle_friendly": map[string]any{"type": "boolean"},
		"plans": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"crop", "acres"},
				"properties": map[string]any{
					"crop":  map[string]any{"type": "string"},
					"acres": map[string]any{"type": "number"},
					"intents": map[string]any{
						"type": "object",
						"additionalProperties": map[string]any{
							"type":     "object",
							"required": []any{"enabled"},
							"properties": map[string]any{
								"enabled": map[string]any{"type": "boolean"},
								"budget":  map[string]any{"type": "string"},
							},
							"additionalProperties": false,
						},
					},
				},
				"additionalProperties": false,
			},
		},
	},
	"additionalProperties": false,
}

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(farmInputSchema))
	})
	return compiledSchema, schemaErr
}

// SchemaError lists every schema violation in a request body.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "request does not match schema: " + strings.Join(e.Violations, "; ")
}

// ValidateFarmInputJSON checks body against the farm input schema.
// Violations are returned as *SchemaError.
func ValidateFarmInputJSON(body []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &SchemaError{Violations: []string{err.Error()}}
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return &SchemaError{Violations: errs}
	}
	return nil
}
