package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/lychee-technology/fabrica"
)

// parsePath extracts the entity type from paths like {prefix}{type}.
func parsePath(path, prefix string) (string, error) {
	path = strings.TrimPrefix(path, prefix)
	path = strings.Trim(path, "/")
	if path == "" {
		return "", fmt.Errorf("entity type is required")
	}
	if strings.Contains(path, "/") {
		return "", fmt.Errorf("unexpected path segments after entity type")
	}
	return path, nil
}

func readJSONBody(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": message})
}

// loadSchemaFile reads a JSON file mapping type names to entity definitions.
func loadSchemaFile(path string) (fabrica.MapSchema, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	schema := make(fabrica.MapSchema)
	if err := json.Unmarshal(payload, &schema); err != nil {
		return nil, fmt.Errorf("decode schema file: %w", err)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("schema file declares no entity types")
	}

	// Definitions carry their own name keyed by the map.
	for name, def := range schema {
		if def.Name == "" {
			def.Name = name
		}
	}
	return schema, nil
}
