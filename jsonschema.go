package fabrica

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToJSONSchema builds a JSON Schema for the scalar portion of an entity
// definition. Relation fields are excluded: their values are identities
// assigned by the store, not content the backend may produce. Prompt fields
// are declared as strings with the authored prompt as their description.
func ToJSONSchema(def *EntityDefinition) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema),
	}

	for i := range def.Fields {
		field := &def.Fields[i]
		if field.IsRelation {
			continue
		}

		prop := &jsonschema.Schema{Description: field.Prompt}
		switch {
		case len(field.Enum) > 0:
			prop.Type = "string"
			enum := make([]any, len(field.Enum))
			for j, v := range field.Enum {
				enum[j] = v
			}
			prop.Enum = enum
		case field.Type == TypeNumber:
			prop.Type = "number"
		case field.Type == TypeBoolean:
			prop.Type = "boolean"
		case field.IsPromptField():
			prop.Type = "string"
			prop.Description = field.Type
		default:
			prop.Type = "string"
		}

		if field.IsArray {
			schema.Properties[field.Name] = &jsonschema.Schema{Type: "array", Items: prop}
			continue
		}
		schema.Properties[field.Name] = prop

		if !field.IsOptional {
			schema.Required = append(schema.Required, field.Name)
		}
	}

	return schema
}

// ValidateRecord validates backend-produced data against the definition's
// scalar schema. Extra fields are tolerated; declared fields must match
// their declared shape.
func ValidateRecord(def *EntityDefinition, data map[string]any) error {
	resolved, err := ToJSONSchema(def).Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("resolve schema for %s: %w", def.Name, err)
	}

	// Validate only declared scalar fields; the backend may echo extra keys.
	subset := make(map[string]any, len(data))
	for i := range def.Fields {
		field := &def.Fields[i]
		if field.IsRelation {
			continue
		}
		if v, ok := data[field.Name]; ok {
			subset[field.Name] = v
		}
	}
	if err := resolved.Validate(subset); err != nil {
		return fmt.Errorf("validate generated record for %s: %w", def.Name, err)
	}
	return nil
}
