package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/reanchor/internal/annostore"
	"github.com/dgallion1/reanchor/internal/selector"
	"github.com/dgallion1/reanchor/internal/textpos"
	"github.com/go-chi/chi/v5"
)

// handleCreateAnnotation builds the full selector set for a span of the
// document's text stream and persists it as an annotation.
func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	doc := s.docs.Get(chi.URLParam(r, "docID"))
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var req struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Start < 0 || req.End < 0 {
		jsonError(w, "offsets must be non-negative", http.StatusBadRequest)
		return
	}

	root := doc.Parsed.Root
	lo, hi := req.Start, req.End
	if lo > hi {
		lo, hi = hi, lo
	}
	positions, err := textpos.ResolveOffsets(root, []int{lo, hi})
	if err != nil {
		jsonError(w, "map offsets: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	loc, err := selector.Build(root, selector.Selection{
		StartNode:   positions[0].Node,
		StartOffset: positions[0].Local,
		EndNode:     positions[1].Node,
		EndOffset:   positions[1].Local,
	})
	if err != nil {
		jsonError(w, "build selectors: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	stored := s.annos.Put(doc.ID, loc)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(stored)
}

// handleListAnnotations returns all annotations of a document.
func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if s.docs.Get(docID) == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"annotations": s.annos.List(docID)})
}

// handleGetAnnotation returns one stored annotation record verbatim.
func (s *Server) handleGetAnnotation(w http.ResponseWriter, r *http.Request) {
	loc, err := s.annos.Get(chi.URLParam(r, "docID"), chi.URLParam(r, "annoID"))
	if err != nil {
		jsonError(w, "annotation not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loc)
}

// handleDeleteAnnotation removes one annotation.
func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	err := s.annos.Delete(chi.URLParam(r, "docID"), chi.URLParam(r, "annoID"))
	if errors.Is(err, annostore.ErrNotFound) {
		jsonError(w, "annotation not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": chi.URLParam(r, "annoID")})
}
