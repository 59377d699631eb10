package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/lychee-technology/fabrica"
)

// GenerateEntity produces an in-memory record for the type: the content
// backend is tried first, placeholder synthesis fills in when the backend is
// disabled or classifies a failure, and required singular forward relations
// are expanded recursively. The result is never persisted here; nested
// entities come back as pending children for the materializer.
func (e *Engine) GenerateEntity(ctx context.Context, typeName, prompt string, gctx *fabrica.GenerationContext) (*fabrica.GeneratedEntity, error) {
	depth := 0
	if gctx != nil {
		depth = gctx.Depth
	}
	if depth >= e.maxDepth() {
		e.logger.Warnw("generation depth ceiling reached", "type", typeName, "depth", depth)
		return fabrica.NewGeneratedEntity(), nil
	}

	def, ok := e.schema.Lookup(typeName)
	if !ok {
		return nil, fabrica.NewUnknownTypeError(typeName)
	}

	// Ambient guidance comes from the parent's definition, not the target's.
	var instructions string
	var contextPaths []string
	if gctx != nil && gctx.ParentType != "" {
		if parentDef, found := e.schema.Lookup(gctx.ParentType); found {
			instructions = parentDef.Instructions()
			contextPaths = parentDef.ContextPaths()
		}
	}

	gen := fabrica.NewGeneratedEntity()
	contextStr := buildGenerationPrompt(prompt, instructions, contextPaths, gctx)

	base, err := e.generateBase(ctx, def, contextStr)
	switch {
	case err == nil && base != nil:
		gen.Data = base
	case err == nil:
		e.synthesizeScalars(def, gen.Data, prompt, contextStr)
	case fabrica.IsGenerationError(err):
		e.logger.Warnw("backend generation failed, falling back to placeholder synthesis",
			"type", typeName, "error", err)
		e.synthesizeScalars(def, gen.Data, prompt, contextStr)
	default:
		return nil, err
	}

	// Relationship post-processing is the same whether the base record came
	// from the backend or from synthesis.
	for i := range def.Fields {
		field := &def.Fields[i]
		if !field.IsRelation {
			continue
		}

		switch {
		case field.Operator == fabrica.OperatorBackwardExact &&
			gctx != nil && field.RelatedType == gctx.ParentType && gctx.ParentID != "":
			// Pure link back to the immediate parent, no generation.
			gen.Data[field.Name] = gctx.ParentID

		case field.Operator == fabrica.OperatorForwardExact && !field.IsOptional && !field.IsArray:
			target := field.GenerationTarget()
			child, err := e.GenerateEntity(ctx, target, "", gctx.Child(typeName, gen.Data, ""))
			if err != nil {
				return nil, err
			}
			gen.AddPending(field.Name, target, child)
		}
	}

	return gen, nil
}

// generateBase attempts one backend call for the scalar shape of the
// definition. A nil, nil return means the backend is disabled and the caller
// should synthesize instead.
func (e *Engine) generateBase(ctx context.Context, def *fabrica.EntityDefinition, prompt string) (map[string]any, error) {
	if !e.GenerationEnabled() {
		return nil, nil
	}

	shape := buildFieldShape(def)
	if len(shape) == 0 {
		return nil, nil
	}

	data, err := e.backend.Generate(ctx, shape, prompt, e.Model())
	if err != nil {
		return nil, err
	}

	if err := fabrica.ValidateRecord(def, data); err != nil {
		e.logger.Warnw("backend output does not match the declared shape",
			"type", def.Name, "error", err)
	}
	return data, nil
}

// synthesizeScalars fills plain string and prompt-typed fields with
// deterministic placeholder values. Array fields get a one-element array.
func (e *Engine) synthesizeScalars(def *fabrica.EntityDefinition, data map[string]any, prompt, contextStr string) {
	for i := range def.Fields {
		field := &def.Fields[i]
		if field.IsRelation {
			continue
		}
		isPrompt := field.IsPromptField()
		if field.Type != fabrica.TypeString && !isPrompt {
			continue
		}

		hint := prompt
		if isPrompt {
			hint = field.Type
		}
		value := e.synth.Synthesize(field.Name, def.Name, contextStr, hint)
		if field.IsArray {
			data[field.Name] = []any{value}
			continue
		}
		data[field.Name] = value
	}
}

// buildFieldShape maps each non-relation field to its generation
// instruction: prompt fields use their declared type string, other fields
// use their authored prompt or a generic instruction.
func buildFieldShape(def *fabrica.EntityDefinition) map[string]string {
	shape := make(map[string]string)
	for i := range def.Fields {
		field := &def.Fields[i]
		if field.IsRelation {
			continue
		}
		switch {
		case field.IsPromptField():
			shape[field.Name] = field.Type
		case field.Prompt != "":
			shape[field.Name] = field.Prompt
		case len(field.Enum) > 0:
			shape[field.Name] = fmt.Sprintf("One of: %s", strings.Join(field.Enum, ", "))
		default:
			shape[field.Name] = fmt.Sprintf("Generate a %s", field.Name)
		}
	}
	return shape
}

// buildGenerationPrompt assembles the combined prompt from the caller's
// prompt, the parent's instructions and context, and the parent's
// non-internal string fields.
func buildGenerationPrompt(prompt, instructions string, contextPaths []string, gctx *fabrica.GenerationContext) string {
	parts := make([]string, 0, 4)
	if prompt != "" {
		parts = append(parts, prompt)
	}
	if instructions != "" {
		parts = append(parts, "Context: "+instructions)
	}
	if len(contextPaths) > 0 {
		parts = append(parts, "Related: "+strings.Join(contextPaths, ", "))
	}
	if gctx != nil && len(gctx.ParentData) > 0 {
		parts = append(parts, stringFields(gctx.ParentData, "")...)
	}
	return strings.Join(parts, "\n")
}
