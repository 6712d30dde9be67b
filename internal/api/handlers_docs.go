package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/reanchor/internal/docstore"
	"github.com/dgallion1/reanchor/internal/parser"
	"github.com/dgallion1/reanchor/internal/textpos"
	"github.com/go-chi/chi/v5"
)

// handleUploadDocument parses an uploaded file into an anchorable tree and
// registers it. Parsing is synchronous: the document must be queryable as
// soon as the request returns.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	p, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	parsed, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	docID := r.FormValue("doc_id")
	if docID == "" {
		docID = docstore.ContentHashHex(data)[:16]
	}

	doc := &docstore.Document{
		ID:        docID,
		Filename:  filename,
		Title:     parsed.Title,
		CreatedAt: time.Now(),
		Parsed:    parsed,
	}
	s.docs.Put(doc)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":        doc.ID,
		"title":         doc.Title,
		"filename":      doc.Filename,
		"stream_length": textpos.StreamLength(parsed.Root),
	})
}

// handleListDocuments lists all stored documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.docs.List()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleGetDocument returns one document's metadata and text stream.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.docs.Get(chi.URLParam(r, "docID"))
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":   doc.ID,
		"title":    doc.Title,
		"filename": doc.Filename,
		"text":     textpos.Stream(doc.Parsed.Root),
	})
}

// handleDeleteDocument deletes a document and its annotations.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.docs.Delete(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.annos.DeleteDoc(docID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": docID})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
