package writer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// classificationSchema constrains what the model may return for the
// degree-approach decision. Anything outside this shape is rejected before
// it can reach the database.
const classificationSchema = `{
	"type": "object",
	"required": ["approach", "reason", "title"],
	"additionalProperties": false,
	"properties": {
		"approach": {"type": "string", "enum": ["emphasize", "minimize"]},
		"reason":   {"type": "string", "minLength": 1},
		"title":    {"type": "string"},
		"company":  {"type": "string"}
	}
}`

// ValidationError reports schema violations in a model response.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model response failed validation: %s", strings.Join(e.Errors, "; "))
}

func validateClassification(jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(classificationSchema)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate classification: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return verr
}
