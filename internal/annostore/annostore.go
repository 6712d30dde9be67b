// Package annostore persists annotation Locations per document. It stores
// and returns records verbatim: no interpretation of selector contents
// happens here, that is the resolution engine's job.
package annostore

import (
	"errors"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/dgallion1/reanchor/internal/selector"
	"github.com/n2code/ndocid"
)

// ErrNotFound indicates a missing annotation or document.
var ErrNotFound = errors.New("annotation not found")

// Store is a thread-safe in-memory annotation registry keyed by document.
type Store struct {
	mu    sync.Mutex
	byDoc map[string]map[string]selector.Location
}

func New() *Store {
	return &Store{byDoc: make(map[string]map[string]selector.Location)}
}

// Put saves a Location under a document, assigning a fresh ID when the
// record has none. Returns the stored record.
func (s *Store) Put(docID string, loc selector.Location) selector.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	annos, ok := s.byDoc[docID]
	if !ok {
		annos = make(map[string]selector.Location)
		s.byDoc[docID] = annos
	}
	if loc.ID == "" {
		loc.ID = newID()
	}
	annos[loc.ID] = loc
	return loc
}

// Get returns one annotation.
func (s *Store) Get(docID, id string) (selector.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.byDoc[docID][id]
	if !ok {
		return selector.Location{}, ErrNotFound
	}
	return loc, nil
}

// List returns a document's annotations ordered by ID.
func (s *Store) List(docID string) []selector.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	annos := s.byDoc[docID]
	out := make([]selector.Location, 0, len(annos))
	for _, loc := range annos {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete removes one annotation.
func (s *Store) Delete(docID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byDoc[docID][id]; !ok {
		return ErrNotFound
	}
	delete(s.byDoc[docID], id)
	return nil
}

// DeleteDoc removes every annotation of a document.
func (s *Store) DeleteDoc(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byDoc, docID)
}

// newID produces a short human-friendly annotation ID.
func newID() string {
	return ndocid.EncodeUint64(rand.Uint64() >> 16)
}
