package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/lychee-technology/fabrica"
	"github.com/lychee-technology/fabrica/factory"
)

type options struct {
	count    int
	enrich   bool
	maxDepth int
}

func main() {
	log.SetFlags(0)

	opts := options{}
	flag.IntVar(&opts.count, "count", 1000, "number of order trees to generate")
	flag.BoolVar(&opts.enrich, "enrich", false, "run field enrichment on every generated order")
	flag.IntVar(&opts.maxDepth, "max-depth", 10, "generation depth ceiling")
	flag.Parse()

	config := fabrica.DefaultConfig()
	config.Generation.MaxDepth = opts.maxDepth

	gen, store, err := factory.NewMemoryGenerator(config, benchmarkSchema(), nil)
	if err != nil {
		log.Fatalf("failed to create generator: %v", err)
	}

	ctx := context.Background()
	relations := 0

	start := time.Now()
	for i := 0; i < opts.count; i++ {
		entity, err := gen.GenerateEntity(ctx, "Order", "", nil)
		if err != nil {
			log.Fatalf("generation failed at %d: %v", i, err)
		}

		created, err := store.Create(ctx, "Order", "", entity.Data)
		if err != nil {
			log.Fatalf("store failed at %d: %v", i, err)
		}
		id, _ := created[fabrica.IdentityField].(string)

		resolved, rows, err := gen.ResolveForwardExact(ctx, "Order", entity, id)
		if err != nil {
			log.Fatalf("materialization failed at %d: %v", i, err)
		}
		relations += len(rows)

		if opts.enrich {
			if _, err := gen.GenerateAIFields(ctx, "Order", resolved); err != nil {
				log.Fatalf("enrichment failed at %d: %v", i, err)
			}
		}
	}
	elapsed := time.Since(start)

	perSecond := float64(opts.count) / elapsed.Seconds()
	fmt.Printf("generated %d order trees in %s (%.0f/sec)\n", opts.count, elapsed.Round(time.Millisecond), perSecond)
	fmt.Printf("relation rows emitted: %d\n", relations)
	for _, name := range benchmarkSchema().Types() {
		fmt.Printf("stored %-10s %d\n", name, store.Count(name))
	}
}

// benchmarkSchema exercises the expensive paths: a required singular
// relation, a materialized array relation and prompt fields.
func benchmarkSchema() fabrica.MapSchema {
	return fabrica.MapSchema{
		"Order": {
			Name: "Order",
			Fields: []fabrica.Field{
				{Name: "reference", Type: fabrica.TypeString},
				{Name: "summary", Type: "One-line order summary", IsOptional: true},
				{Name: "customer", Type: "Customer", IsRelation: true,
					Operator: fabrica.OperatorForwardExact, Direction: fabrica.DirectionForward,
					RelatedType: "Customer"},
				{Name: "items", Type: "LineItem", IsRelation: true,
					Operator: fabrica.OperatorForwardExact, Direction: fabrica.DirectionForward,
					RelatedType: "LineItem", IsArray: true},
			},
		},
		"Customer": {
			Name: "Customer",
			Fields: []fabrica.Field{
				{Name: "fullName", Type: fabrica.TypeString},
				{Name: "email", Type: fabrica.TypeString, IsOptional: true},
			},
		},
		"LineItem": {
			Name: "LineItem",
			Fields: []fabrica.Field{
				{Name: "productName", Type: fabrica.TypeString, IsOptional: true},
				{Name: "order", Type: "Order", IsRelation: true,
					Operator: fabrica.OperatorBackwardExact, Direction: fabrica.DirectionBackward,
					RelatedType: "Order"},
			},
		},
	}
}
