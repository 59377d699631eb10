package internal

import (
	"context"
	"sort"
	"strings"

	"github.com/lychee-technology/fabrica"
)

// GenerateAIFields enriches the remaining prompt-typed and
// instruction-driven scalar fields of an entity that already has its
// identity. All candidate fields are covered by one batched backend call.
// Unlike GenerateEntity there is no placeholder safety net for backend
// failures here: silently substituting placeholder content for an explicit
// enrichment request could mask a real outage, so the classified error
// propagates to the caller.
func (e *Engine) GenerateAIFields(ctx context.Context, typeName string, data map[string]any) (map[string]any, error) {
	def, ok := e.schema.Lookup(typeName)
	if !ok {
		return nil, fabrica.NewUnknownTypeError(typeName)
	}

	instructions := def.Instructions()
	contextPaths := def.ContextPaths()
	result := copyMapDeep(data)

	var fetched map[string]map[string]any
	if len(contextPaths) > 0 && e.prefetcher != nil {
		var err error
		fetched, err = e.prefetcher.Prefetch(ctx, contextPaths, result, typeName)
		if err != nil {
			return nil, err
		}
	}

	// Overlay the fetched context onto the entity's own data so template
	// references that currently hold raw identity strings resolve to the
	// fetched records.
	combined := copyMapDeep(result)
	for _, path := range sortedPaths(fetched) {
		setNestedValue(combined, path, fetched[path])
	}

	resolvedInstructions := instructions
	if instructions != "" && strings.Contains(instructions, "{") && e.templates != nil {
		var err error
		resolvedInstructions, err = e.templates.Resolve(ctx, instructions, combined, typeName)
		if err != nil {
			return nil, err
		}
	}

	flat := flattenContext(resolvedInstructions, result, fetched)
	richContext := len(contextPaths) > 0 || strings.Contains(instructions, "{")
	enabled := e.GenerationEnabled()

	candidates := make([]*fabrica.Field, 0, len(def.Fields))
	for i := range def.Fields {
		field := &def.Fields[i]
		if field.IsRelation {
			continue
		}
		switch {
		case field.IsPromptField():
			// Prompt fields qualify even when populated, given generation or
			// rich context; placeholder-era values are then overwritten.
			if !isPopulated(result[field.Name]) || enabled || richContext {
				candidates = append(candidates, field)
			}
		case field.Type == fabrica.TypeString && instructions != "" && !isPopulated(result[field.Name]):
			candidates = append(candidates, field)
		}
	}

	if len(candidates) > 0 && enabled {
		shape := make(map[string]string, len(candidates))
		for _, field := range candidates {
			switch {
			case field.IsPromptField():
				shape[field.Name] = field.Type
			case field.Prompt != "":
				shape[field.Name] = field.Prompt
			default:
				shape[field.Name] = "Generate a " + field.Name
			}
		}

		prompt := flat
		if resolvedInstructions != "" {
			prompt = resolvedInstructions + "\n" + flat
		}

		generated, err := e.backend.Generate(ctx, shape, prompt, e.Model())
		if err != nil {
			if fabrica.IsGenerationError(err) {
				return nil, fabrica.NewGenerationError(typeName, "", err)
			}
			return nil, err
		}
		for _, field := range candidates {
			if value, found := generated[field.Name]; found && isPopulated(value) {
				result[field.Name] = value
			}
		}
	}

	// Whatever is still unset, including the whole disabled-backend path,
	// falls back to placeholder synthesis.
	for _, field := range candidates {
		if isPopulated(result[field.Name]) {
			continue
		}
		hint := field.Prompt
		if field.IsPromptField() {
			hint = field.Type
		}
		value := e.synth.Synthesize(field.Name, typeName, flat, hint)
		if field.IsArray {
			result[field.Name] = []any{value}
			continue
		}
		result[field.Name] = value
	}

	enforceLengthBounds(def, result)
	return result, nil
}

// enforceLengthBounds truncates string values whose authored type hint
// declares a character bound such as "(30 chars)".
func enforceLengthBounds(def *fabrica.EntityDefinition, data map[string]any) {
	for i := range def.Fields {
		field := &def.Fields[i]
		hint := field.Type
		if !field.IsPromptField() {
			hint = field.Prompt
		}
		bound, ok := charBound(hint)
		if !ok {
			continue
		}
		if s, isString := data[field.Name].(string); isString && len(s) > bound {
			data[field.Name] = truncate(s, bound)
		}
	}
}

// flattenContext builds the single " | "-joined context string from the
// resolved instructions, the entity's own string fields, and the prefetched
// context entities' string fields.
func flattenContext(instructions string, data map[string]any, fetched map[string]map[string]any) string {
	parts := make([]string, 0, 8)
	if instructions != "" {
		parts = append(parts, instructions)
	}
	parts = append(parts, stringFields(data, "")...)
	for _, path := range sortedPaths(fetched) {
		parts = append(parts, stringFields(fetched[path], path)...)
	}
	return strings.Join(parts, " | ")
}

// sortedPaths orders context paths shallowest first so ancestor records are
// attached before their children.
func sortedPaths(fetched map[string]map[string]any) []string {
	paths := make([]string, 0, len(fetched))
	for path := range fetched {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "."), strings.Count(paths[j], ".")
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})
	return paths
}
