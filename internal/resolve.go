package internal

import (
	"context"

	"github.com/lychee-technology/fabrica"
)

// ShouldAutoGenerate decides whether an unpopulated, required array relation
// from ownerType should be auto-populated with a generated target. The
// predicate avoids generating duplicate content for targets that will be
// linked from their own side: a target that declares a backward reference to
// the owner and carries required scalar fields of its own is expected to be
// created explicitly, unless the field narrows the target through union
// types.
func ShouldAutoGenerate(targetDef *fabrica.EntityDefinition, ownerType string, field *fabrica.Field, lexicon *fabrica.VerbLexicon) bool {
	hasBackwardRef := backwardFieldFor(targetDef, ownerType, lexicon) != nil
	hasRequiredScalars := hasRequiredScalarFields(targetDef)
	hasUnion := len(field.UnionTypes) > 0

	shouldSkip := hasBackwardRef && hasRequiredScalars && !hasUnion
	if shouldSkip {
		return false
	}
	return hasBackwardRef || field.Prompt != "" || !hasRequiredScalars || hasUnion
}

// backwardFieldFor locates the field on target acting as the backward
// counterpart of a relation from ownerType: a declared backward-exact edge,
// or a relation field whose name is a passive verb form per the lexicon.
func backwardFieldFor(targetDef *fabrica.EntityDefinition, ownerType string, lexicon *fabrica.VerbLexicon) *fabrica.Field {
	for i := range targetDef.Fields {
		field := &targetDef.Fields[i]
		if !field.IsRelation || field.RelatedType != ownerType {
			continue
		}
		if field.Operator == fabrica.OperatorBackwardExact || field.Direction == fabrica.DirectionBackward {
			return field
		}
		if lexicon != nil && fabrica.IsPassiveVerb(lexicon.FieldNameToVerb(field.Name)) {
			return field
		}
	}
	return nil
}

func hasRequiredScalarFields(def *fabrica.EntityDefinition) bool {
	for i := range def.Fields {
		field := &def.Fields[i]
		if !field.IsRelation && !field.IsOptional {
			return true
		}
	}
	return false
}

// ResolveForwardExact materializes the forward relations of a generated
// record once the owning identity is known. Relation fields are processed in
// declaration order; a PendingRelation is never emitted before the target it
// names has been persisted. The returned data carries singular identities
// inline; array link rows are left to the caller.
func (e *Engine) ResolveForwardExact(ctx context.Context, typeName string, gen *fabrica.GeneratedEntity, ownerID string) (map[string]any, []fabrica.PendingRelation, error) {
	return e.resolveForwardExact(ctx, typeName, gen, ownerID, 0)
}

func (e *Engine) resolveForwardExact(ctx context.Context, typeName string, gen *fabrica.GeneratedEntity, ownerID string, depth int) (map[string]any, []fabrica.PendingRelation, error) {
	def, ok := e.schema.Lookup(typeName)
	if !ok {
		return nil, nil, fabrica.NewUnknownTypeError(typeName)
	}
	if gen == nil {
		gen = fabrica.NewGeneratedEntity()
	}

	data := copyMapDeep(gen.Data)
	pending := make([]fabrica.PendingRelation, 0)

	for i := range def.Fields {
		field := &def.Fields[i]
		if !field.IsRelation || field.Operator != fabrica.OperatorForwardExact {
			continue
		}

		if isPopulated(data[field.Name]) {
			if field.IsArray {
				for _, id := range toStringSlice(data[field.Name]) {
					pending = append(pending, fabrica.PendingRelation{
						FieldName:  field.Name,
						TargetType: field.GenerationTarget(),
						TargetID:   id,
					})
				}
			}
			continue
		}

		// Optional relations are never auto-generated.
		if field.IsOptional {
			continue
		}

		// Materialization triggers nested generation; the same ceiling that
		// bounds the generation cascade bounds the resolve cascade.
		if depth >= e.maxDepth() {
			e.logger.Warnw("materialization depth ceiling reached",
				"type", typeName, "field", field.Name, "depth", depth)
			continue
		}

		target := field.GenerationTarget()

		if field.IsArray {
			targetDef, found := e.schema.Lookup(target)
			if !found {
				e.logger.Warnw("array relation targets an undeclared type",
					"type", typeName, "field", field.Name, "target", target)
				continue
			}
			if !ShouldAutoGenerate(targetDef, typeName, field, e.lexicon) {
				continue
			}

			child, err := e.GenerateEntity(ctx, target, field.Prompt, &fabrica.GenerationContext{
				ParentType: typeName,
				ParentData: data,
				ParentID:   ownerID,
			})
			if err != nil {
				return nil, nil, err
			}
			id, err := e.materialize(ctx, target, child, depth+1)
			if err != nil {
				return nil, nil, err
			}

			data[field.Name] = []any{id}
			pending = append(pending, fabrica.PendingRelation{
				FieldName:  field.Name,
				TargetType: target,
				TargetID:   id,
			})
			continue
		}

		// Required singular relation: consume the generator's pending child
		// when one exists, generate fresh otherwise. The identity is stored
		// inline, so no PendingRelation is emitted.
		var child *fabrica.GeneratedEntity
		if pc, found := gen.Pending[field.Name]; found {
			child = pc.Entity
			target = pc.TargetType
		} else {
			generated, err := e.GenerateEntity(ctx, target, field.Prompt, &fabrica.GenerationContext{
				ParentType: typeName,
				ParentData: data,
				ParentID:   ownerID,
			})
			if err != nil {
				return nil, nil, err
			}
			child = generated
		}

		id, err := e.materialize(ctx, target, child, depth+1)
		if err != nil {
			return nil, nil, err
		}
		data[field.Name] = id
	}

	return data, pending, nil
}

// materialize resolves a generated entity's own pending relations and
// persists it, returning the assigned identity. Relation rows for nested
// levels are not surfaced to the top-level caller.
func (e *Engine) materialize(ctx context.Context, typeName string, child *fabrica.GeneratedEntity, depth int) (string, error) {
	resolved, _, err := e.resolveForwardExact(ctx, typeName, child, "", depth)
	if err != nil {
		return "", err
	}

	created, err := e.store.Create(ctx, typeName, "", resolved)
	if err != nil {
		return "", err
	}

	id, _ := created[fabrica.IdentityField].(string)
	return id, nil
}
