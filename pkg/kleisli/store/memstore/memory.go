package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cognicore/kleisli/pkg/kleisli/internalerr"
	"github.com/cognicore/kleisli/pkg/kleisli/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu          sync.RWMutex
	runs        map[string]store.Run
	digestIndex map[string][]string
	stops       map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:        make(map[string]store.Run),
		digestIndex: make(map[string][]string),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun inserts or replaces a run, keyed by ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: %w: empty id", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.runs[r.ID]
	if existed && prev.Digest != r.Digest {
		s.unindex(prev.Digest, r.ID)
	}
	s.runs[r.ID] = copyRun(r)
	if r.Digest != "" && (!existed || prev.Digest != r.Digest) {
		s.digestIndex[r.Digest] = append(s.digestIndex[r.Digest], r.ID)
	}
	return nil
}

func (s *Store) unindex(digest, id string) {
	ids := s.digestIndex[digest]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.digestIndex, digest)
		return
	}
	s.digestIndex[digest] = ids
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.runs[id]; ok {
		return copyRun(r), nil
	}
	return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
}

// RunsByDigest returns every run recorded for an input digest, newest first.
func (s *Store) RunsByDigest(ctx context.Context, digest string) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.digestIndex[digest]
	runs := make([]store.Run, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.runs[id]; ok {
			runs = append(runs, copyRun(r))
		}
	}
	newestFirst(runs)
	return runs, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, copyRun(r))
	}

	newestFirst(runs)

	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// CountRuns returns the number of stored runs.
func (s *Store) CountRuns(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.runs)), nil
}

// UpsertStoplist replaces the stopword set.
func (s *Store) UpsertStoplist(ctx context.Context, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stops := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		stops[tok] = struct{}{}
	}
	s.stops = stops
	return nil
}

// Stoplist returns a nil view until a stoplist has been stored.
func (s *Store) Stoplist(ctx context.Context) (store.StoplistView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.stops) == 0 {
		return nil, nil
	}
	return &stoplistView{s: s}, nil
}

type stoplistView struct{ s *Store }

func (v *stoplistView) IsStop(ctx context.Context, token string) (bool, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	_, ok := v.s.stops[strings.ToLower(token)]
	return ok, nil
}

func (v *stoplistView) AllStops(ctx context.Context) ([]string, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]string, 0, len(v.s.stops))
	for tok := range v.s.stops {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out, nil
}

func newestFirst(runs []store.Run) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID > runs[j].ID
	})
}

func copyRun(r store.Run) store.Run {
	tokens := make([]string, len(r.Tokens))
	copy(tokens, r.Tokens)
	r.Tokens = tokens
	return r
}
