package fabrica

import "context"

// Store is the persistence collaborator. Its consistency guarantees are its
// own; this engine never retries or wraps store failures.
type Store interface {
	// Create persists a record of the given type. When id is empty the store
	// assigns one. The returned record carries its identity under $id.
	Create(ctx context.Context, typeName, id string, data map[string]any) (map[string]any, error)

	// List returns all records of the given type.
	List(ctx context.Context, typeName string) ([]map[string]any, error)

	// Search returns records of the given type matching the query.
	Search(ctx context.Context, typeName, query string) ([]map[string]any, error)
}

// ContentBackend generates field values for a target shape. Implementations
// classify their failures by returning a FabricaError with code
// GENERATION_FAILED; any other error propagates uncaught through the engine.
type ContentBackend interface {
	// Generate produces a value per field of the shape, guided by the
	// combined prompt. The shape maps field names to per-field instructions.
	Generate(ctx context.Context, shape map[string]string, prompt, model string) (map[string]any, error)
}

// ContextPrefetcher fetches the related entities named by an entity's
// $context metadata into a path-to-record map.
type ContextPrefetcher interface {
	Prefetch(ctx context.Context, paths []string, ownerData map[string]any, ownerType string) (map[string]map[string]any, error)
}

// TemplateResolver resolves {field} placeholders in an $instructions string
// against the combined entity view.
type TemplateResolver interface {
	Resolve(ctx context.Context, instructions string, combined map[string]any, typeName string) (string, error)
}

// Synthesizer produces deterministic placeholder values when the content
// backend is disabled, unavailable, or partially incomplete.
type Synthesizer interface {
	Synthesize(field, typeName, contextStr, hint string) string
}

// Generator is the public surface of the generation engine.
type Generator interface {
	// GenerateEntity produces an unpersisted record for the type, expanding
	// required singular forward relationships recursively. Best effort: on a
	// classified backend failure the record is placeholder-filled instead.
	GenerateEntity(ctx context.Context, typeName, prompt string, gctx *GenerationContext) (*GeneratedEntity, error)

	// ResolveForwardExact materializes forward relationships of a generated
	// record once its owner identity is known, returning the updated data and
	// the relation rows the caller must still create.
	ResolveForwardExact(ctx context.Context, typeName string, gen *GeneratedEntity, ownerID string) (map[string]any, []PendingRelation, error)

	// GenerateAIFields enriches remaining prompt-typed and instruction-driven
	// scalar fields of an existing record in one batched backend call.
	// Unlike GenerateEntity, a backend failure here propagates to the caller.
	GenerateAIFields(ctx context.Context, typeName string, data map[string]any) (map[string]any, error)

	// Lexicon returns the verb lexicon this engine consults.
	Lexicon() *VerbLexicon

	// Generation configuration, scoped to this engine.
	GenerationEnabled() bool
	SetGenerationEnabled(enabled bool)
	Model() string
	SetModel(model string)
}
