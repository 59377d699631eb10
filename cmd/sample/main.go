package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lychee-technology/fabrica"
	"github.com/lychee-technology/fabrica/factory"
)

func main() {
	typeName := flag.String("type", "Company", "Entity type to generate")
	count := flag.Int("count", 1, "Number of entities to generate")
	prompt := flag.String("prompt", "", "Free-form generation prompt")
	enrich := flag.Bool("enrich", false, "Run field enrichment on each generated record")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if *verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	schema := demoSchema()
	gen, store, err := factory.NewMemoryGenerator(fabrica.DefaultConfig(), schema, nil)
	if err != nil {
		sugar.Fatalf("failed to create generator: %v", err)
	}

	ctx := context.Background()
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	for i := 0; i < *count; i++ {
		entity, err := gen.GenerateEntity(ctx, *typeName, *prompt, nil)
		if err != nil {
			sugar.Fatalf("generation failed: %v", err)
		}

		created, err := store.Create(ctx, *typeName, "", entity.Data)
		if err != nil {
			sugar.Fatalf("store failed: %v", err)
		}
		id, _ := created[fabrica.IdentityField].(string)

		resolved, relations, err := gen.ResolveForwardExact(ctx, *typeName, entity, id)
		if err != nil {
			sugar.Fatalf("relation materialization failed: %v", err)
		}
		resolved[fabrica.IdentityField] = id

		if *enrich {
			resolved, err = gen.GenerateAIFields(ctx, *typeName, resolved)
			if err != nil {
				sugar.Fatalf("enrichment failed: %v", err)
			}
		}

		if err := encoder.Encode(resolved); err != nil {
			sugar.Fatalf("failed to encode record: %v", err)
		}
		for _, relation := range relations {
			sugar.Infow("relation row",
				"field", relation.FieldName,
				"target", relation.TargetType,
				"id", relation.TargetID)
		}
	}

	for _, name := range schema.Types() {
		records, err := store.List(ctx, name)
		if err != nil {
			sugar.Fatalf("list failed: %v", err)
		}
		sugar.Infow("stored entities", "type", name, "count", len(records))
	}
}

// demoSchema models a small publishing house. Company owns departments,
// departments employ people, and the enrichment metadata shows context
// prefetch plus instruction templates.
func demoSchema() fabrica.MapSchema {
	return fabrica.MapSchema{
		"Company": {
			Name: "Company",
			Fields: []fabrica.Field{
				{Name: "name", Type: fabrica.TypeString},
				{Name: "tagline", Type: "Short company tagline (60 chars)", IsOptional: true},
				{Name: "departments", Type: "Department", IsRelation: true,
					Operator: fabrica.OperatorForwardExact, Direction: fabrica.DirectionForward,
					RelatedType: "Department", IsArray: true},
			},
		},
		"Department": {
			Name: "Department",
			Fields: []fabrica.Field{
				{Name: "name", Type: fabrica.TypeString, IsOptional: true},
				{Name: "focus", Type: "One-line mission statement", IsOptional: true},
				{Name: "company", Type: "Company", IsRelation: true,
					Operator: fabrica.OperatorBackwardExact, Direction: fabrica.DirectionBackward,
					RelatedType: "Company"},
				{Name: "head", Type: "Employee", IsRelation: true,
					Operator: fabrica.OperatorForwardExact, Direction: fabrica.DirectionForward,
					RelatedType: "Employee"},
			},
			Metadata: map[string]any{
				fabrica.MetaInstructions: "Describe a department of {company}",
				fabrica.MetaContext:      []string{"company"},
			},
		},
		"Employee": {
			Name: "Employee",
			Fields: []fabrica.Field{
				{Name: "fullName", Type: fabrica.TypeString},
				{Name: "email", Type: fabrica.TypeString, IsOptional: true},
				{Name: "bio", Type: "Two-sentence professional bio", IsOptional: true},
			},
		},
	}
}
