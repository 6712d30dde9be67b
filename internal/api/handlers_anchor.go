package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgallion1/reanchor/internal/docstore"
	"github.com/dgallion1/reanchor/internal/pipeline"
	"github.com/dgallion1/reanchor/internal/resolve"
	"github.com/dgallion1/reanchor/internal/selector"
	"github.com/dgallion1/reanchor/internal/textpos"
	"github.com/go-chi/chi/v5"
)

// anchorRequest addresses either a stored annotation or an inline location.
type anchorRequest struct {
	AnnotationID string             `json:"annotation_id,omitempty"`
	Location     *selector.Location `json:"location,omitempty"`
}

// handleAnchor resolves a single location synchronously.
func (s *Server) handleAnchor(w http.ResponseWriter, r *http.Request) {
	doc := s.docs.Get(chi.URLParam(r, "docID"))
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var req anchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	loc, err := s.requestedLocation(doc, req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	root := doc.Parsed.Root
	started := time.Now()
	anchor, err := s.resolver.Resolve(root, loc)
	elapsed := time.Since(started)

	if err != nil {
		s.stats.Record(elapsed, "", false)
		if errors.Is(err, resolve.ErrNoAnchor) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.stats.Record(elapsed, anchor.Method, true)

	start, err := textpos.PositionToOffset(root, anchor.Span.Start.Node, anchor.Span.Start.Local)
	if err != nil {
		jsonError(w, "map anchor: "+err.Error(), http.StatusInternalServerError)
		return
	}
	end, err := textpos.PositionToOffset(root, anchor.Span.End.Node, anchor.Span.End.Local)
	if err != nil {
		jsonError(w, "map anchor: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"location_id": loc.ID,
		"method":      anchor.Method,
		"start":       start,
		"end":         end,
		"text":        anchor.Text(),
	})
}

// handleBatchAnchor queues a batch of locations for asynchronous anchoring.
func (s *Server) handleBatchAnchor(w http.ResponseWriter, r *http.Request) {
	doc := s.docs.Get(chi.URLParam(r, "docID"))
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var req struct {
		AnnotationIDs []string            `json:"annotation_ids,omitempty"`
		Locations     []selector.Location `json:"locations,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	locations := req.Locations
	for _, id := range req.AnnotationIDs {
		loc, err := s.annos.Get(doc.ID, id)
		if err != nil {
			jsonError(w, fmt.Sprintf("annotation %s not found", id), http.StatusNotFound)
			return
		}
		locations = append(locations, loc)
	}
	if len(locations) == 0 {
		jsonError(w, "at least one location or annotation_id is required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	jobID := docstore.ContentHashHex([]byte(fmt.Sprintf("%s-%d", doc.ID, now.UnixNano())))[:20]
	job := pipeline.NewJob(jobID, doc.ID, locations)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/anchor/%s/status", snap.ID),
	})
}

// handleAnchorStatus reports a batch job's progress and results.
func (s *Server) handleAnchorStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"progress": snap.Progress,
		"results":  snap.Results,
	})
}

func (s *Server) requestedLocation(doc *docstore.Document, req anchorRequest) (selector.Location, error) {
	switch {
	case req.AnnotationID != "" && req.Location != nil:
		return selector.Location{}, fmt.Errorf("annotation_id and location are mutually exclusive")
	case req.AnnotationID != "":
		loc, err := s.annos.Get(doc.ID, req.AnnotationID)
		if err != nil {
			return selector.Location{}, fmt.Errorf("annotation %s not found", req.AnnotationID)
		}
		return loc, nil
	case req.Location != nil:
		return *req.Location, nil
	default:
		return selector.Location{}, fmt.Errorf("annotation_id or location is required")
	}
}
