package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// evaluateRequestSchema describes the body of POST /api/evaluate.
var evaluateRequestSchema = map[string]any{
	"type":     "object",
	"required": []any{"question", "answer"},
	"properties": map[string]any{
		"question": map[string]any{"type": "string", "minLength": 1},
		"answer":   map[string]any{"type": "string", "minLength": 1},
	},
	"additionalProperties": false,
}

var evaluateSchemaLoader = gojsonschema.NewGoLoader(evaluateRequestSchema)

// validateEvaluateRequest checks a raw JSON body against evaluateRequestSchema.
func validateEvaluateRequest(body []byte) error {
	result, err := gojsonschema.Validate(evaluateSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("request failed validation: %s", strings.Join(details, "; "))
}
