package main

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/lychee-technology/fabrica"
)

type generateRequest struct {
	Prompt string `json:"prompt,omitempty"`
	Count  int    `json:"count,omitempty"`
}

type generatedRecord struct {
	Record    map[string]any            `json:"record"`
	Relations []fabrica.PendingRelation `json:"relations,omitempty"`
}

// handleGenerate handles POST /api/v1/generate/{type}: generates one or more
// entities, materializes their forward relations and persists them.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	typeName, err := parsePath(r.URL.Path, "/api/v1/generate/")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	req := generateRequest{Count: 1}
	if r.ContentLength > 0 {
		if err := readJSONBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
			return
		}
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > 100 {
		writeError(w, http.StatusBadRequest, "count must be at most 100")
		return
	}

	results := make([]generatedRecord, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		gen, err := s.gen.GenerateEntity(r.Context(), typeName, req.Prompt, nil)
		if err != nil {
			writeGenerationError(w, err)
			return
		}

		// The identity is assigned up front so backward links inside the
		// materialized subtree can reference the owner before it is stored.
		id := uuid.NewString()
		resolved, relations, err := s.gen.ResolveForwardExact(r.Context(), typeName, gen, id)
		if err != nil {
			writeGenerationError(w, err)
			return
		}

		created, err := s.store.Create(r.Context(), typeName, id, resolved)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("store failed: %v", err))
			return
		}

		results = append(results, generatedRecord{Record: created, Relations: relations})
	}

	if req.Count == 1 {
		writeSuccess(w, http.StatusCreated, results[0])
		return
	}
	writeSuccess(w, http.StatusCreated, results)
}

// handleEnrich handles POST /api/v1/enrich/{type}: fills the remaining
// prompt-typed and instruction-driven fields of the record in the body.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	typeName, err := parsePath(r.URL.Path, "/api/v1/enrich/")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	var data map[string]any
	if err := readJSONBody(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	enriched, err := s.gen.GenerateAIFields(r.Context(), typeName, data)
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, enriched)
}

// handleEntities handles GET /api/v1/entities/{type}, with an optional ?q=
// search query.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	typeName, err := parsePath(r.URL.Path, "/api/v1/entities/")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	var records []map[string]any
	if query := r.URL.Query().Get("q"); query != "" {
		records, err = s.store.Search(r.Context(), typeName, query)
	} else {
		records, err = s.store.List(r.Context(), typeName)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("store failed: %v", err))
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"type":    typeName,
		"count":   len(records),
		"records": records,
	})
}

// handleTypes handles GET /api/v1/types.
func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"types": s.schema.Types()})
}

// writeGenerationError maps engine errors onto HTTP status codes.
func writeGenerationError(w http.ResponseWriter, err error) {
	switch {
	case fabrica.IsUnknownTypeError(err):
		writeError(w, http.StatusNotFound, err.Error())
	case fabrica.IsGenerationError(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
