package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/fabrica"
)

func articleSchema() fabrica.MapSchema {
	return fabrica.MapSchema{
		"Article": {
			Name: "Article",
			Fields: []fabrica.Field{
				{Name: "title", Type: fabrica.TypeString, Prompt: "A punchy article title"},
				{Name: "summary", Type: "Two-sentence article summary"},
				{Name: "wordCount", Type: fabrica.TypeNumber, IsOptional: true},
				{Name: "tags", Type: fabrica.TypeString, IsArray: true, IsOptional: true},
				{Name: "author", Type: "Author", IsRelation: true, Operator: fabrica.OperatorForwardExact,
					Direction: fabrica.DirectionForward, RelatedType: "Author"},
			},
		},
		"Author": {
			Name: "Author",
			Fields: []fabrica.Field{
				{Name: "fullName", Type: fabrica.TypeString},
				{Name: "articles", Type: "Article", IsRelation: true, Operator: fabrica.OperatorBackwardExact,
					Direction: fabrica.DirectionBackward, RelatedType: "Article", IsArray: true, IsOptional: true},
			},
		},
	}
}

func TestGenerateEntityUnknownType(t *testing.T) {
	engine, _ := newTestEngine(t, articleSchema(), nil)

	_, err := engine.GenerateEntity(context.Background(), "Missing", "", nil)
	require.Error(t, err)
	assert.True(t, fabrica.IsUnknownTypeError(err))
}

func TestGenerateEntitySynthesizesWhenDisabled(t *testing.T) {
	engine, _ := newTestEngine(t, articleSchema(), nil)

	gen, err := engine.GenerateEntity(context.Background(), "Article", "about lighthouses", nil)
	require.NoError(t, err)

	title, ok := gen.Data["title"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, title)
	assert.NotEmpty(t, gen.Data["summary"])

	// Array string fields synthesize a one-element array.
	tags, ok := gen.Data["tags"].([]any)
	require.True(t, ok)
	assert.Len(t, tags, 1)

	// Number fields are not synthesized.
	assert.NotContains(t, gen.Data, "wordCount")

	// Required singular forward relation expands into a pending child.
	require.Contains(t, gen.Pending, "author")
	author := gen.Pending["author"]
	assert.Equal(t, "Author", author.TargetType)
	assert.NotEmpty(t, author.Entity.Data["fullName"])
}

func TestGenerateEntityDeterministicWhenDisabled(t *testing.T) {
	engine, _ := newTestEngine(t, articleSchema(), nil)

	first, err := engine.GenerateEntity(context.Background(), "Article", "about lighthouses", nil)
	require.NoError(t, err)
	second, err := engine.GenerateEntity(context.Background(), "Article", "about lighthouses", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Data["title"], second.Data["title"])
	assert.Equal(t, first.Data["summary"], second.Data["summary"])
}

func TestGenerateEntityUsesBackend(t *testing.T) {
	backend := &stubBackend{
		generate: func(shape map[string]string, prompt, model string) (map[string]any, error) {
			return map[string]any{
				"title":   "The Keeper's Light",
				"summary": "A lighthouse story. It ends well.",
			}, nil
		},
	}
	engine, _ := newTestEngine(t, articleSchema(), backend)
	engine.SetGenerationEnabled(true)
	engine.SetModel("test-model")

	gen, err := engine.GenerateEntity(context.Background(), "Article", "about lighthouses", nil)
	require.NoError(t, err)

	assert.Equal(t, "The Keeper's Light", gen.Data["title"])
	assert.Equal(t, 1, backend.callCount())
	assert.Equal(t, "test-model", backend.lastModel)

	// Prompt fields carry their declared type as the instruction; string
	// fields their authored prompt.
	assert.Equal(t, "Two-sentence article summary", backend.lastShape["summary"])
	assert.Equal(t, "A punchy article title", backend.lastShape["title"])
	assert.NotContains(t, backend.lastShape, "author")
	assert.Contains(t, backend.lastPrompt, "about lighthouses")

	// Relation post-processing applies to backend output too.
	assert.Contains(t, gen.Pending, "author")
}

func TestGenerateEntityFallsBackOnClassifiedFailure(t *testing.T) {
	backend := &stubBackend{
		generate: func(shape map[string]string, prompt, model string) (map[string]any, error) {
			return nil, fabrica.NewGenerationError("Article", "", errors.New("model overloaded"))
		},
	}
	engine, _ := newTestEngine(t, articleSchema(), backend)
	engine.SetGenerationEnabled(true)

	gen, err := engine.GenerateEntity(context.Background(), "Article", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, gen.Data["title"])
}

func TestGenerateEntityPropagatesUnclassifiedErrors(t *testing.T) {
	backend := &stubBackend{
		generate: func(shape map[string]string, prompt, model string) (map[string]any, error) {
			return nil, errors.New("network down")
		},
	}
	engine, _ := newTestEngine(t, articleSchema(), backend)
	engine.SetGenerationEnabled(true)

	_, err := engine.GenerateEntity(context.Background(), "Article", "", nil)
	require.Error(t, err)
	assert.False(t, fabrica.IsGenerationError(err))
}

func TestGenerateEntityLinksBackToParent(t *testing.T) {
	engine, _ := newTestEngine(t, articleSchema(), nil)

	gctx := &fabrica.GenerationContext{
		ParentType: "Article",
		ParentData: map[string]any{"title": "The Keeper's Light"},
		ParentID:   "article-1",
	}
	gen, err := engine.GenerateEntity(context.Background(), "Author", "", gctx)
	require.NoError(t, err)

	// Backward-exact field targeting the immediate parent takes the parent
	// identity without generating anything.
	assert.Equal(t, "article-1", gen.Data["articles"])
}

func TestGenerateEntityDepthCeiling(t *testing.T) {
	// A type with a required singular forward relation to itself.
	schema := fabrica.MapSchema{
		"Node": {
			Name: "Node",
			Fields: []fabrica.Field{
				{Name: "label", Type: fabrica.TypeString},
				{Name: "next", Type: "Node", IsRelation: true, Operator: fabrica.OperatorForwardExact,
					Direction: fabrica.DirectionForward, RelatedType: "Node"},
			},
		},
	}
	engine, _ := newTestEngine(t, schema, nil)
	synth := newCountingSynthesizer()
	engine.UseSynthesizer(synth)

	gen, err := engine.GenerateEntity(context.Background(), "Node", "", nil)
	require.NoError(t, err)

	// Following the pending chain must reach an empty record at the ceiling:
	// ten nested children below the root, the last one empty.
	levels := 0
	current := gen
	for {
		child, ok := current.Pending["next"]
		if !ok {
			break
		}
		levels++
		current = child.Entity
	}
	assert.Equal(t, 10, levels)
	assert.Empty(t, current.Data)
	assert.Empty(t, current.Pending)

	// Root plus nine nested calls synthesize; the ceiling call does not.
	assert.Equal(t, 10, synth.callCount())
}
