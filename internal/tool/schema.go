package tool

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode unmarshals raw tool arguments into args and runs its validator
// tags. Failures map to ErrInvalidArgument so handlers can return a
// validation_error Result without touching the network.
func Decode(raw json.RawMessage, args any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, args); err != nil {
		return fmt.Errorf("%w: malformed arguments: %v", domain.ErrInvalidArgument, err)
	}
	if err := validate.Struct(args); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("op=tool.Decode: %w", err)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

// Schema helpers. Tool inputs are always flat objects; these keep the
// builders declarative.

// Object builds an object schema from property schemas and the required
// property names.
func Object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// String builds a string property schema.
func String(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

// Integer builds an integer property schema.
func Integer(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

// StringEnum builds a string property restricted to the given values.
// With no values it degrades to a plain string so an empty catalogue
// never produces an unsatisfiable schema.
func StringEnum(description string, values []string) *jsonschema.Schema {
	s := String(description)
	if len(values) == 0 {
		return s
	}
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	s.Enum = enum
	return s
}

// StringArray builds an array-of-strings property schema.
func StringArray(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: description, Items: &jsonschema.Schema{Type: "string"}}
}
