package fabrica

import "sort"

// Direction indicates which way a relation field points relative to its owner.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// Operator identifies how a relation field is resolved.
type Operator string

const (
	OperatorForwardExact  Operator = "forward-exact"
	OperatorBackwardExact Operator = "backward-exact"
)

// Well-known metadata keys and record fields.
const (
	MetaInstructions = "$instructions"
	MetaContext      = "$context"
	IdentityField    = "$id"
)

// Primitive type names a field may declare. Anything else that is not an
// enum or a relation is treated as a prompt field: the type string itself is
// the generation instruction.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Field describes a single named field of an entity definition.
type Field struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Prompt      string    `json:"prompt,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	IsRelation  bool      `json:"isRelation,omitempty"`
	Operator    Operator  `json:"operator,omitempty"`
	Direction   Direction `json:"direction,omitempty"`
	RelatedType string    `json:"relatedType,omitempty"`
	UnionTypes  []string  `json:"unionTypes,omitempty"`
	IsArray     bool      `json:"isArray,omitempty"`
	IsOptional  bool      `json:"isOptional,omitempty"`
}

// IsPrimitive reports whether the declared type is one of the primitive names.
func (f *Field) IsPrimitive() bool {
	switch f.Type {
	case TypeString, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// IsPromptField reports whether the field's declared type string is itself
// the generation instruction.
func (f *Field) IsPromptField() bool {
	return !f.IsRelation && len(f.Enum) == 0 && !f.IsPrimitive() && f.Type != ""
}

// GenerationTarget returns the type used when generating a related entity:
// the first union type when present, the related type otherwise.
func (f *Field) GenerationTarget() string {
	if len(f.UnionTypes) > 0 {
		return f.UnionTypes[0]
	}
	return f.RelatedType
}

// EntityDefinition is an ordered set of named fields plus a metadata bag.
// Definitions are owned by the schema compiler and treated as read-only here.
type EntityDefinition struct {
	Name     string         `json:"name"`
	Fields   []Field        `json:"fields"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Field returns the named field definition, if declared.
func (d *EntityDefinition) Field(name string) (*Field, bool) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// Instructions returns the $instructions metadata string, if any.
func (d *EntityDefinition) Instructions() string {
	if d == nil || d.Metadata == nil {
		return ""
	}
	if s, ok := d.Metadata[MetaInstructions].(string); ok {
		return s
	}
	return ""
}

// ContextPaths returns the $context metadata list, if any. Both []string and
// []any (as produced by JSON decoding) are accepted.
func (d *EntityDefinition) ContextPaths() []string {
	if d == nil || d.Metadata == nil {
		return nil
	}
	switch v := d.Metadata[MetaContext].(type) {
	case []string:
		return v
	case []any:
		paths := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				paths = append(paths, s)
			}
		}
		return paths
	}
	return nil
}

// SchemaSource provides entity definitions by type name.
type SchemaSource interface {
	Lookup(typeName string) (*EntityDefinition, bool)
	Types() []string
}

// MapSchema is an in-memory SchemaSource keyed by type name.
type MapSchema map[string]*EntityDefinition

func (m MapSchema) Lookup(typeName string) (*EntityDefinition, bool) {
	def, ok := m[typeName]
	return def, ok
}

func (m MapSchema) Types() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerationContext carries the immediate parent of a generation call.
// A fresh context is built per top-level request; Depth increases by one for
// each nested generation call.
type GenerationContext struct {
	ParentType string
	ParentData map[string]any
	ParentID   string
	Depth      int
}

// Child derives the context for a nested generation call.
func (g *GenerationContext) Child(parentType string, parentData map[string]any, parentID string) *GenerationContext {
	depth := 1
	if g != nil {
		depth = g.Depth + 1
	}
	return &GenerationContext{
		ParentType: parentType,
		ParentData: parentData,
		ParentID:   parentID,
		Depth:      depth,
	}
}

// PendingChild is a generated related entity that cannot be persisted until
// its owner has an identity.
type PendingChild struct {
	TargetType string           `json:"targetType"`
	Entity     *GeneratedEntity `json:"entity"`
}

// GeneratedEntity is the unpersisted result of one generation call: the
// record data plus, keyed by field name, the related entities still awaiting
// materialization.
type GeneratedEntity struct {
	Data    map[string]any           `json:"data"`
	Pending map[string]*PendingChild `json:"pending,omitempty"`
}

// NewGeneratedEntity returns an empty generation result.
func NewGeneratedEntity() *GeneratedEntity {
	return &GeneratedEntity{Data: make(map[string]any)}
}

// AddPending records a pending related entity for the named field.
func (g *GeneratedEntity) AddPending(field, targetType string, entity *GeneratedEntity) {
	if g.Pending == nil {
		g.Pending = make(map[string]*PendingChild)
	}
	g.Pending[field] = &PendingChild{TargetType: targetType, Entity: entity}
}

// PendingRelation is a relation row the caller must create once the owning
// identity is known. Emitted by the materializer for array-typed relations
// only; singular values are stored inline.
type PendingRelation struct {
	FieldName  string `json:"fieldName"`
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
}
