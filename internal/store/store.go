// Package store keeps the client-side view of the document collection.
//
// DocumentStore owns the records and the search term. Intents such as
// Upload or Remove delegate to a repository.DocumentRepository and apply a
// state transition only after the backend confirmed the change.
//
// At most one mutation per document id is in flight. A second Edit or
// Remove of an id issued before the first resolved is rejected with
// ErrPending and never reaches the network. Every mutation also takes a
// generation, and a result is discarded with ErrSuperseded when a
// later-issued change of that id has already been applied.
package store

import (
	"errors"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"docvault/internal/apperror"
	"docvault/internal/download"
	"docvault/internal/logger"
	"docvault/internal/model"
	"docvault/internal/repository"
)

var (
	// ErrSuperseded is returned by an intent whose result arrived after a
	// later-issued operation on the same target was applied. The backend may
	// still have performed the request.
	ErrSuperseded = errors.New("store: result superseded by a later operation")
	ErrNoSaver    = errors.New("store: no download saver configured")
	// ErrPending is wrapped by the validation error an intent returns while
	// another mutation of the same id is in flight.
	ErrPending = errors.New("store: mutation already in flight")
)

// Saver persists downloaded payloads.
type Saver interface {
	Save(data []byte, contentType, fileName string) (download.Result, error)
}

// DocumentStore is safe for concurrent use.
type DocumentStore struct {
	repo  repository.DocumentRepository
	saver Saver
	log   *zap.Logger

	mu      sync.RWMutex
	records []model.Document
	search  string

	// seq is the source of every generation.
	seq uint64
	// issued is the newest generation handed out per id, applied the newest
	// one whose result was accepted.
	issued   map[string]uint64
	applied  map[string]uint64
	inflight map[string]int

	refreshIssued  uint64
	refreshApplied uint64
}

type Option func(*DocumentStore)

func WithSaver(s Saver) Option {
	return func(st *DocumentStore) { st.saver = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(st *DocumentStore) { st.log = l }
}

// New returns an empty store backed by repo.
func New(repo repository.DocumentRepository, opts ...Option) *DocumentStore {
	s := &DocumentStore{
		repo:     repo,
		issued:   make(map[string]uint64),
		applied:  make(map[string]uint64),
		inflight: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log).Named("store")
	return s
}

// Records returns a copy of every record in display order.
func (s *DocumentStore) Records() []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records)
}

// Get returns the record with the given id.
func (s *DocumentStore) Get(id string) (model.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i].Clone(), true
	}
	return model.Document{}, false
}

// SearchTerm returns the current search term.
func (s *DocumentStore) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// SetSearchTerm replaces the search term. It never touches the network.
func (s *DocumentStore) SetSearchTerm(term string) {
	s.mu.Lock()
	s.search = term
	s.mu.Unlock()
}

// Filtered returns the records matching the search term. A record matches
// when the term is a case-insensitive substring of its file name, its
// category, or any of its tags. An empty term matches everything.
func (s *DocumentStore) Filtered() []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(filter(s.records, s.search))
}

func filter(records []model.Document, term string) []model.Document {
	if strings.TrimSpace(term) == "" {
		return records
	}
	return lo.Filter(records, func(d model.Document, _ int) bool {
		return Matches(d, term)
	})
}

// Matches reports whether d matches the search term the way Filtered does.
func Matches(d model.Document, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.FileName), term) ||
		strings.Contains(strings.ToLower(string(d.Category)), term) {
		return true
	}
	return lo.ContainsBy(d.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), term)
	})
}

// Pending reports whether a mutation of id is in flight.
func (s *DocumentStore) Pending(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight[id] > 0
}

// ApplyUpload puts rec first. A record with the same id is replaced.
func (s *DocumentStore) ApplyUpload(rec model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyUpload(rec)
}

// ApplyUpdate replaces the mutable fields of the record with the given id.
// It is a no-op when the id is absent.
func (s *DocumentStore) ApplyUpdate(id string, patch model.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyUpdate(id, patch)
}

// ApplyDelete removes the record with the given id, if any.
func (s *DocumentStore) ApplyDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyDelete(id)
}

func (s *DocumentStore) applyUpload(rec model.Document) {
	rec = rec.Clone()
	kept := lo.Reject(s.records, func(d model.Document, _ int) bool { return d.ID == rec.ID })
	s.records = append([]model.Document{rec}, kept...)
}

func (s *DocumentStore) applyUpdate(id string, patch model.Patch) {
	if i := s.indexOf(id); i >= 0 {
		s.records[i] = patch.Apply(s.records[i].Clone())
	}
}

func (s *DocumentStore) applyDelete(id string) {
	if i := s.indexOf(id); i >= 0 {
		s.records = append(s.records[:i:i], s.records[i+1:]...)
	}
}

func (s *DocumentStore) indexOf(id string) int {
	_, i, ok := lo.FindIndexOf(s.records, func(d model.Document) bool { return d.ID == id })
	if !ok {
		return -1
	}
	return i
}

// begin hands out a new generation for id and marks it in flight. It fails
// while an earlier mutation of id has not resolved.
func (s *DocumentStore) begin(op, id string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[id] > 0 {
		s.log.Debug("rejecting mutation", zap.String("op", op), zap.String("id", id))
		return 0, apperror.Wrap(apperror.KindValidation, op,
			"another change to this document is still in progress", ErrPending)
	}
	s.seq++
	s.issued[id] = s.seq
	s.inflight[id]++
	return s.seq, nil
}

// finish ends the operation started with begin. When ok is true and no
// later-issued operation on id has been applied yet, apply runs under the
// lock and the generation is recorded as applied.
func (s *DocumentStore) finish(id string, gen uint64, ok bool, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[id]--; s.inflight[id] <= 0 {
		delete(s.inflight, id)
	}
	if !ok {
		return nil
	}
	if gen < s.applied[id] {
		s.log.Debug("discarding stale result",
			zap.String("id", id),
			zap.Uint64("generation", gen),
			zap.Uint64("applied", s.applied[id]),
		)
		return ErrSuperseded
	}
	s.applied[id] = gen
	apply()
	return nil
}

// touch records a change of id that had no generation of its own, such as
// a confirmed upload.
func (s *DocumentStore) touch(id string) {
	s.seq++
	s.issued[id] = s.seq
	s.applied[id] = s.seq
}

func cloneAll(records []model.Document) []model.Document {
	return lo.Map(records, func(d model.Document, _ int) model.Document { return d.Clone() })
}
