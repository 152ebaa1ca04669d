// Package schema implements the minimal JSON-Schema subset used to describe
// and validate tool parameters. Schemas are plain maps in the shape model
// providers expect ("type", "properties", "required", per-property "type" and
// "description"); validation covers required-field presence and primitive
// type conformance.
package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError reports a parameter that failed schema validation.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// Check verifies the schema itself is structurally sound: an object schema
// with a properties map whose entries carry a string "type". Called once at
// tool registration so malformed schemas surface early instead of on the
// first model call.
func Check(s map[string]any) error {
	if s == nil {
		return fmt.Errorf("schema is nil")
	}
	if typ, _ := s["type"].(string); typ != "" && typ != "object" {
		return fmt.Errorf("top-level schema type must be object, got %q", typ)
	}
	props, ok := s["properties"]
	if !ok {
		return nil // schemas without properties accept any arguments
	}
	propMap, ok := props.(map[string]any)
	if !ok {
		return fmt.Errorf("schema properties must be an object")
	}
	for name, p := range propMap {
		pm, ok := p.(map[string]any)
		if !ok {
			return fmt.Errorf("property %q must be an object", name)
		}
		if t, ok := pm["type"]; ok {
			if _, ok := t.(string); !ok {
				return fmt.Errorf("property %q has non-string type", name)
			}
		}
	}
	return nil
}

// Validate checks arguments against a schema. Required fields must be
// present; present fields must match their declared primitive type. Fields
// absent from the schema pass through unchecked.
func Validate(args map[string]any, s map[string]any) error {
	required, _ := s["required"].([]any)
	for _, req := range required {
		name, ok := req.(string)
		if !ok {
			continue
		}
		if _, exists := args[name]; !exists {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}
	// Schemas built in Go supply []string rather than []any.
	if reqStrings, ok := s["required"].([]string); ok {
		for _, name := range reqStrings {
			if _, exists := args[name]; !exists {
				return &ValidationError{Field: name, Message: "required field is missing"}
			}
		}
	}

	properties, _ := s["properties"].(map[string]any)
	for name, value := range args {
		prop, exists := properties[name]
		if !exists {
			continue
		}
		pm, ok := prop.(map[string]any)
		if !ok {
			continue
		}
		want, _ := pm["type"].(string)
		if !conforms(value, want) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", want, value),
			}
		}
	}
	return nil
}

// FromStruct derives a parameter schema from a Go struct using reflection.
// Field names follow json tags; a "description" tag becomes the property
// description; non-pointer fields without omitempty are required.
func FromStruct(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	properties := make(map[string]any)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := field.Name
		if jsonTag != "" {
			if p := strings.Split(jsonTag, ",")[0]; p != "" {
				name = p
			}
		}
		prop := map[string]any{"type": jsonType(field.Type)}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop
		if !strings.Contains(jsonTag, "omitempty") && field.Type.Kind() != reflect.Ptr {
			required = append(required, name)
		}
	}

	s := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

func conforms(value any, want string) bool {
	if value == nil {
		return true
	}
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling produces float64 for all numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
