// Package schemas provides JSON Schema validation for the payloads the client sends.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SaveSchemaPath is the embedded path of the save payload schema.
const SaveSchemaPath = "json/resume_save.schema.json"

//go:embed json/*.schema.json
var schemaFS embed.FS

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

var (
	saveSchemaOnce sync.Once
	saveSchema     *gojsonschema.Schema
	saveSchemaErr  error
)

func loadSaveSchema() (*gojsonschema.Schema, error) {
	saveSchemaOnce.Do(func() {
		data, err := schemaFS.ReadFile(SaveSchemaPath)
		if err != nil {
			saveSchemaErr = &SchemaLoadError{Path: SaveSchemaPath, Message: "schema not embedded", Cause: err}
			return
		}
		saveSchema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			saveSchemaErr = &SchemaLoadError{Path: SaveSchemaPath, Message: "invalid schema", Cause: err}
		}
	})
	return saveSchema, saveSchemaErr
}

// ValidateSavePayload checks an outgoing save payload. payload may be any
// value that encodes to JSON (typically types.SavePayload).
func ValidateSavePayload(payload any) error {
	schema, err := loadSaveSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate payload: %w", err)
	}
	return toValidationError(result)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
