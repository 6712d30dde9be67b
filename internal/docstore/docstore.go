// Package docstore keeps parsed documents in memory so annotations can be
// built and anchored against them across requests. Entries are evicted
// after a TTL since last access.
package docstore

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dgallion1/reanchor/internal/parser"
)

// Document is one stored, parsed document.
type Document struct {
	ID        string    `json:"doc_id"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`

	// Parsed is the anchorable tree; not serialized.
	Parsed *parser.Document `json:"-"`
}

type entry struct {
	doc        *Document
	lastAccess time.Time
}

// Store is a thread-safe in-memory document registry with TTL eviction.
type Store struct {
	mu   sync.Mutex
	docs map[string]*entry
	ttl  time.Duration
}

func New(ttl time.Duration) *Store {
	return &Store{
		docs: make(map[string]*entry),
		ttl:  ttl,
	}
}

// Put registers a document. Re-registering the same ID replaces the entry.
func (s *Store) Put(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = &entry{doc: doc, lastAccess: time.Now()}
}

// Get returns a document by ID, or nil. Access refreshes the TTL clock.
func (s *Store) Get(id string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[id]
	if !ok {
		return nil
	}
	e.lastAccess = time.Now()
	return e.doc
}

// List returns all stored documents, unordered.
func (s *Store) List() []*Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Document, 0, len(s.docs))
	for _, e := range s.docs {
		out = append(out, e.doc)
	}
	return out
}

// Delete removes a document. Returns whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[id]
	delete(s.docs, id)
	return ok
}

// Cleanup evicts entries whose last access is older than the TTL.
func (s *Store) Cleanup() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.docs {
		if e.lastAccess.Before(cutoff) {
			delete(s.docs, id)
		}
	}
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// ContentHashHex returns the hex SHA-256 of data, used for content-derived
// document IDs.
func ContentHashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
