package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lychee-technology/fabrica"
	"github.com/lychee-technology/fabrica/factory"
	"github.com/lychee-technology/fabrica/internal"
)

// Server exposes the generation engine over HTTP.
type Server struct {
	gen    fabrica.Generator
	store  fabrica.Store
	schema fabrica.SchemaSource
	mux    *http.ServeMux
}

// NewServer creates a new Server instance.
func NewServer(gen fabrica.Generator, store fabrica.Store, schema fabrica.SchemaSource) *Server {
	return &Server{
		gen:    gen,
		store:  store,
		schema: schema,
		mux:    http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes.
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/api/v1/generate/", s.handleGenerate)
	s.mux.HandleFunc("/api/v1/enrich/", s.handleEnrich)
	s.mux.HandleFunc("/api/v1/entities/", s.handleEntities)
	s.mux.HandleFunc("/api/v1/types", s.handleTypes)
}

// Start starts the HTTP server on the given port.
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	return http.ListenAndServe(":"+port, s.mux)
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	schemaFile := getEnv("SCHEMA_FILE", "./schema.json")
	schema, err := loadSchemaFile(schemaFile)
	if err != nil {
		sugar.Fatalf("failed to load schema from %s: %v", schemaFile, err)
	}
	sugar.Infow("schema loaded", "file", schemaFile, "types", len(schema.Types()))

	config := fabrica.DefaultConfig()
	config.Generation.Enabled = getEnvBool("GENERATION_ENABLED", false)
	config.Generation.Model = getEnv("GENERATION_MODEL", config.Generation.Model)

	var gen fabrica.Generator
	var store fabrica.Store

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			sugar.Fatalf("failed to create database pool: %v", err)
		}
		defer pool.Close()

		table := getEnv("RECORDS_TABLE", "")
		pgStore := internal.NewPostgresStore(pool, table)
		gen, err = factory.NewGeneratorWithPool(config, schema, pool, table, nil)
		if err != nil {
			sugar.Fatalf("failed to create generator: %v", err)
		}
		store = pgStore
		sugar.Infow("using postgres store", "table", pgStore.Table())
	} else {
		memStore := internal.NewMemoryStore()
		gen, err = factory.NewGenerator(config, schema, memStore, nil)
		if err != nil {
			sugar.Fatalf("failed to create generator: %v", err)
		}
		store = memStore
		sugar.Info("using in-memory store")
	}

	server := NewServer(gen, store, schema)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
