// Package memory is an in-process db.Store for local runs and tests.
// Vector search is brute-force cosine over every hash under the index prefixes.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/mfgchat/internal/db"
)

var _ db.Store = (*Store)(nil)

type kvEntry struct {
	value     []byte
	expiresAt time.Time
}

// Store keeps hashes, plain values and index definitions in maps guarded by one RWMutex.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string]map[string]string
	values  map[string]kvEntry
	indexes map[string]*db.IndexDefinition
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		hashes:  make(map[string]map[string]string),
		values:  make(map[string]kvEntry),
		indexes: make(map[string]*db.IndexDefinition),
		now:     time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// --- hashes ---

// HSet merges fields into the hash at key.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hsetLocked(key, fields)
	return nil
}

// HSetMulti stores several hashes atomically.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.hsetLocked(it.Key, it.Fields)
	}
	return nil
}

func (s *Store) hsetLocked(key string, fields map[string]string) {
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
}

// HGetAll returns a full copy of the hash including the vector blob, empty when absent (as Redis does).
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.hashes[key]
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

// Del removes a hash or value.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, key)
	delete(s.values, key)
	return nil
}

// Exists reports whether key holds a hash or a live value.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	_, ok := s.liveValueLocked(key)
	return ok, nil
}

// Scan supports exact keys and trailing-* prefix patterns.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.hashes {
		if matchPattern(pattern, k) {
			keys = append(keys, k)
		}
	}
	for k := range s.values {
		if _, live := s.liveValueLocked(k); live && matchPattern(pattern, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// DeletePrefix removes every hash and value under prefix.
func (s *Store) DeletePrefix(_ context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, fmt.Errorf("prefix is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.hashes {
		if strings.HasPrefix(k, prefix) {
			delete(s.hashes, k)
			n++
		}
	}
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			delete(s.values, k)
			n++
		}
	}
	return n, nil
}

// --- values ---

// Get returns db.ErrKeyNotFound for absent or expired keys.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.liveValueLocked(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value; a non-positive ttl means no expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := kvEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.values[key] = e
	return nil
}

func (s *Store) liveValueLocked(key string) (kvEntry, bool) {
	e, ok := s.values[key]
	if !ok {
		return kvEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		return kvEntry{}, false
	}
	return e, true
}

// --- indexes ---

// CreateIndex registers the definition; documents written before or after are both visible.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	cp := *def
	s.indexes[def.Name] = &cp
	return nil
}

// DropIndex forgets the definition and keeps the documents, like FT.DROPINDEX without DD.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists reports whether the index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// --- search ---

// SearchKNN scores every indexed hash by cosine similarity and keeps the top K.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	vf, _ := def.VectorField()
	if len(q.Vector) != vf.VectorDim {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf(
			"query vector has %d dims, index expects %d", len(q.Vector), vf.VectorDim)}
	}

	var entries []db.SearchEntry
	for _, key := range s.indexedKeysLocked(def) {
		h := s.hashes[key]
		blob, ok := h[vf.Name]
		if !ok {
			continue
		}
		vec := db.DecodeVector(blob)
		if len(vec) != vf.VectorDim {
			continue // Redis skips hashes whose blob does not match DIM
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  db.DistanceToSimilarity(1 - cosine(q.Vector, vec)),
			Fields: copyFields(h, q.ReturnFields),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Total: min(total, q.K), Entries: entries}, nil
}

// SearchList pages through indexed hashes in key order. Only the match-all query "*" is supported.
func (s *Store) SearchList(
	_ context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if query != "*" {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("unsupported query %q", query)}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[index]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	keys := s.indexedKeysLocked(def)
	total := len(keys)
	if offset >= total {
		return &db.SearchResult{Total: total}, nil
	}
	page := keys[offset:min(offset+limit, total)]

	entries := make([]db.SearchEntry, 0, len(page))
	for _, key := range page {
		entries = append(entries, db.SearchEntry{Key: key, Fields: copyFields(s.hashes[key], fields)})
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// SearchCount counts indexed hashes. Only "*" is supported.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	res, err := s.SearchList(ctx, index, query, 0, 0, nil)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (s *Store) indexedKeysLocked(def *db.IndexDefinition) []string {
	var keys []string
	for k := range s.hashes {
		if len(def.Prefixes) == 0 {
			keys = append(keys, k)
			continue
		}
		for _, p := range def.Prefixes {
			if strings.HasPrefix(k, p) {
				keys = append(keys, k)
				break
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// copyFields copies the requested fields, or everything except the vector blob when none are given.
func copyFields(h map[string]string, fields []string) map[string]string {
	if len(fields) == 0 {
		out := make(map[string]string, len(h))
		for k, v := range h {
			if k != db.VectorField {
				out[k] = v
			}
		}
		return out
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := h[f]; ok {
			out[f] = v
		}
	}
	return out
}

func matchPattern(pattern, key string) bool {
	if p, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, p)
	}
	return pattern == key
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
