package internal

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lychee-technology/fabrica"
)

// StorePrefetcher resolves $context paths against the store. Dotted paths
// are fetched shallowest first so ancestor records exist before their
// children are looked up through them.
type StorePrefetcher struct {
	schema fabrica.SchemaSource
	store  fabrica.Store
}

func NewStorePrefetcher(schema fabrica.SchemaSource, store fabrica.Store) *StorePrefetcher {
	return &StorePrefetcher{schema: schema, store: store}
}

func (p *StorePrefetcher) Prefetch(ctx context.Context, paths []string, ownerData map[string]any, ownerType string) (map[string]map[string]any, error) {
	ordered := make([]string, len(paths))
	copy(ordered, paths)
	sort.Slice(ordered, func(i, j int) bool {
		di, dj := strings.Count(ordered[i], "."), strings.Count(ordered[j], ".")
		if di != dj {
			return di < dj
		}
		return ordered[i] < ordered[j]
	})

	fetched := make(map[string]map[string]any)
	for _, path := range ordered {
		record, err := p.resolvePath(ctx, path, ownerData, ownerType, fetched)
		if err != nil {
			return nil, err
		}
		if record != nil {
			fetched[path] = record
		}
	}
	return fetched, nil
}

// resolvePath walks one dotted path from the owner, following relation
// fields through previously fetched ancestors.
func (p *StorePrefetcher) resolvePath(ctx context.Context, path string, ownerData map[string]any, ownerType string, fetched map[string]map[string]any) (map[string]any, error) {
	segments := strings.Split(path, ".")
	currentType := ownerType
	currentData := ownerData

	// Reuse the closest already fetched ancestor.
	start := 0
	for i := len(segments) - 1; i > 0; i-- {
		ancestor := strings.Join(segments[:i], ".")
		if record, ok := fetched[ancestor]; ok {
			currentData = record
			currentType = p.typeOfPath(ownerType, segments[:i])
			start = i
			break
		}
	}

	var record map[string]any
	for _, segment := range segments[start:] {
		def, ok := p.schema.Lookup(currentType)
		if !ok {
			return nil, nil
		}
		field, ok := def.Field(segment)
		if !ok || !field.IsRelation {
			return nil, nil
		}

		id, ok := readStringAtPath(currentData, segment)
		if !ok || id == "" {
			return nil, nil
		}

		target := field.RelatedType
		found, err := p.fetchByID(ctx, target, id)
		if err != nil {
			return nil, fabrica.NewPrefetchError(path, err)
		}
		if found == nil {
			return nil, nil
		}

		record = found
		currentData = found
		currentType = target
	}
	return record, nil
}

func (p *StorePrefetcher) typeOfPath(ownerType string, segments []string) string {
	currentType := ownerType
	for _, segment := range segments {
		def, ok := p.schema.Lookup(currentType)
		if !ok {
			return currentType
		}
		field, ok := def.Field(segment)
		if !ok {
			return currentType
		}
		currentType = field.RelatedType
	}
	return currentType
}

func (p *StorePrefetcher) fetchByID(ctx context.Context, typeName, id string) (map[string]any, error) {
	records, err := p.store.Search(ctx, typeName, id)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if recordID, _ := record[fabrica.IdentityField].(string); recordID == id {
			return record, nil
		}
	}

	records, err = p.store.List(ctx, typeName)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if recordID, _ := record[fabrica.IdentityField].(string); recordID == id {
			return record, nil
		}
	}
	return nil, nil
}

// templatePattern matches {field} and {path.to.field} placeholders.
var templatePattern = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)

// StoreTemplateResolver substitutes {field} placeholders in an $instructions
// string against the combined entity view. References that still hold a raw
// identity string for a relation field are fetched from the store before
// rendering.
type StoreTemplateResolver struct {
	schema fabrica.SchemaSource
	store  fabrica.Store
}

func NewStoreTemplateResolver(schema fabrica.SchemaSource, store fabrica.Store) *StoreTemplateResolver {
	return &StoreTemplateResolver{schema: schema, store: store}
}

func (r *StoreTemplateResolver) Resolve(ctx context.Context, instructions string, combined map[string]any, typeName string) (string, error) {
	var resolveErr error
	resolved := templatePattern.ReplaceAllStringFunc(instructions, func(match string) string {
		if resolveErr != nil {
			return match
		}
		name := strings.Trim(match, "{}")
		value := getValueAtPath(combined, name)

		if id, isString := value.(string); isString {
			if record := r.fetchRelation(ctx, typeName, name, id, &resolveErr); record != nil {
				return renderRecord(record)
			}
			return id
		}
		if record, isMap := value.(map[string]any); isMap {
			return renderRecord(record)
		}
		if value == nil {
			// Unresolvable references stay visible rather than vanishing.
			return match
		}
		return fmt.Sprintf("%v", value)
	})
	return resolved, resolveErr
}

// fetchRelation fetches the record behind an identity string when the
// referenced field is a relation on the entity's own definition.
func (r *StoreTemplateResolver) fetchRelation(ctx context.Context, typeName, name, id string, resolveErr *error) map[string]any {
	def, ok := r.schema.Lookup(typeName)
	if !ok {
		return nil
	}
	field, ok := def.Field(name)
	if !ok || !field.IsRelation {
		return nil
	}

	prefetcher := &StorePrefetcher{schema: r.schema, store: r.store}
	record, err := prefetcher.fetchByID(ctx, field.RelatedType, id)
	if err != nil {
		*resolveErr = fabrica.NewPrefetchError(name, err)
		return nil
	}
	return record
}

// renderRecord renders a record for inline template substitution: its name
// or title when present, its string fields otherwise.
func renderRecord(record map[string]any) string {
	for _, key := range []string{"name", "title", "label"} {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}
	return strings.Join(stringFields(record, ""), ", ")
}
