package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator validates a Config against the generated JSON Schema.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

var (
	validatorOnce sync.Once
	validatorInst *SchemaValidator
	validatorErr  error
)

// NewSchemaValidator compiles the schema once per process.
func NewSchemaValidator() (*SchemaValidator, error) {
	validatorOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			validatorErr = fmt.Errorf("failed to generate schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("ftrack.json", bytes.NewReader(data)); err != nil {
			validatorErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("ftrack.json")
		if err != nil {
			validatorErr = fmt.Errorf("failed to compile schema: %w", err)
			return
		}
		validatorInst = &SchemaValidator{schema: schema}
	})
	return validatorInst, validatorErr
}

// Validate checks any JSON-marshalable value against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	jsonData, err := json.Marshal(configData)
	if err != nil {
		return fmt.Errorf("failed to marshal config to JSON for validation: %w", err)
	}

	var dataToValidate interface{}
	if err := json.Unmarshal(jsonData, &dataToValidate); err != nil {
		return fmt.Errorf("failed to unmarshal JSON for validation: %w", err)
	}

	if err := v.schema.Validate(dataToValidate); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			var messages []string
			collectErrors(validationErr, &messages)
			return fmt.Errorf("schema validation failed:\n%s", strings.Join(messages, "\n"))
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// collectErrors recursively collects all validation errors into a slice
func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	switch {
	case err.InstanceLocation != "":
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	case len(err.Causes) == 0:
		*messages = append(*messages, fmt.Sprintf("- #: %s", err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
