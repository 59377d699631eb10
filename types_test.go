package fabrica

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldIsPromptField(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  bool
	}{
		{"plain string", Field{Name: "title", Type: TypeString}, false},
		{"number", Field{Name: "age", Type: TypeNumber}, false},
		{"boolean", Field{Name: "active", Type: TypeBoolean}, false},
		{"enum", Field{Name: "status", Type: "enum", Enum: []string{"open", "closed"}}, false},
		{"relation", Field{Name: "team", Type: "Team", IsRelation: true, RelatedType: "Team"}, false},
		{"prompt typed", Field{Name: "bio", Type: "A short professional biography"}, true},
		{"empty type", Field{Name: "misc"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.IsPromptField())
		})
	}
}

func TestFieldGenerationTarget(t *testing.T) {
	plain := Field{RelatedType: "Member"}
	assert.Equal(t, "Member", plain.GenerationTarget())

	union := Field{RelatedType: "Member", UnionTypes: []string{"Admin", "Member"}}
	assert.Equal(t, "Admin", union.GenerationTarget())
}

func TestEntityDefinitionMetadata(t *testing.T) {
	def := &EntityDefinition{
		Name: "Profile",
		Metadata: map[string]any{
			MetaInstructions: "Describe {owner} in one sentence",
			MetaContext:      []any{"owner", "owner.team"},
		},
	}

	assert.Equal(t, "Describe {owner} in one sentence", def.Instructions())
	assert.Equal(t, []string{"owner", "owner.team"}, def.ContextPaths())

	empty := &EntityDefinition{Name: "Bare"}
	assert.Empty(t, empty.Instructions())
	assert.Nil(t, empty.ContextPaths())
}

func TestEntityDefinitionFieldLookup(t *testing.T) {
	def := &EntityDefinition{
		Name: "Task",
		Fields: []Field{
			{Name: "title", Type: TypeString},
			{Name: "assignee", Type: "Member", IsRelation: true, RelatedType: "Member"},
		},
	}

	field, ok := def.Field("assignee")
	require.True(t, ok)
	assert.Equal(t, "Member", field.RelatedType)

	_, ok = def.Field("missing")
	assert.False(t, ok)
}

func TestMapSchema(t *testing.T) {
	schema := MapSchema{
		"Team":   {Name: "Team"},
		"Member": {Name: "Member"},
	}

	def, ok := schema.Lookup("Team")
	require.True(t, ok)
	assert.Equal(t, "Team", def.Name)

	_, ok = schema.Lookup("Missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Member", "Team"}, schema.Types())
}

func TestGenerationContextChild(t *testing.T) {
	var root *GenerationContext
	child := root.Child("Team", map[string]any{"name": "core"}, "t-1")
	assert.Equal(t, 1, child.Depth)
	assert.Equal(t, "Team", child.ParentType)

	grandchild := child.Child("Member", nil, "")
	assert.Equal(t, 2, grandchild.Depth)
}

func TestGeneratedEntityAddPending(t *testing.T) {
	gen := NewGeneratedEntity()
	child := NewGeneratedEntity()
	gen.AddPending("profile", "Profile", child)

	require.Contains(t, gen.Pending, "profile")
	assert.Equal(t, "Profile", gen.Pending["profile"].TargetType)
	assert.Same(t, child, gen.Pending["profile"].Entity)
}
