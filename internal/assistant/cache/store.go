// Package cache memoizes resolved chat responses in a bounded, time-expiring
// in-process map keyed by message fingerprint.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultMaxSize = 200
	DefaultTTL     = 60 * time.Minute
)

// Entry is a cached response.
type Entry struct {
	Fingerprint string
	Response    string
	CreatedAt   time.Time

	seq uint64 // insertion order, breaks CreatedAt ties on eviction
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	TTL     time.Duration `json:"-"`
	Hits    int64         `json:"hits"`
	Misses  int64         `json:"misses"`
}

// Store is safe for concurrent use. Size never exceeds maxSize; when full, a
// new key evicts the oldest-created entry regardless of how often it was read.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	seq     uint64

	maxSize int
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store. Non-positive arguments fall back to the defaults.
func New(maxSize int, ttl time.Duration, opts ...Option) *Store {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		entries: make(map[string]*Entry, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fingerprint is the hex SHA-256 of the case-folded, trimmed message.
func Fingerprint(message string) string {
	sum := sha256.Sum256([]byte(Normalize(message)))
	return hex.EncodeToString(sum[:])
}

// Normalize case-folds and trims a message.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// Get returns the response for fingerprint if it exists and is younger than
// the TTL. An expired entry is deleted.
func (s *Store) Get(fingerprint string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fingerprint]
	if !ok {
		s.misses.Add(1)
		return "", false
	}
	if s.now().Sub(e.CreatedAt) >= s.ttl {
		delete(s.entries, fingerprint)
		s.misses.Add(1)
		return "", false
	}
	s.hits.Add(1)
	return e.Response, true
}

// Put inserts or overwrites the entry for fingerprint with CreatedAt = now.
func (s *Store) Put(fingerprint, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[fingerprint]; !exists && len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
	}
	s.seq++
	s.entries[fingerprint] = &Entry{
		Fingerprint: fingerprint,
		Response:    response,
		CreatedAt:   s.now(),
		seq:         s.seq,
	}
}

func (s *Store) evictOldestLocked() {
	var oldest *Entry
	for _, e := range s.entries {
		if oldest == nil || e.CreatedAt.Before(oldest.CreatedAt) ||
			(e.CreatedAt.Equal(oldest.CreatedAt) && e.seq < oldest.seq) {
			oldest = e
		}
	}
	if oldest != nil {
		delete(s.entries, oldest.Fingerprint)
	}
}

// Len counts stored entries, including expired ones not yet read.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) MaxSize() int       { return s.maxSize }
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) Stats() Stats {
	return Stats{
		Size:    s.Len(),
		MaxSize: s.maxSize,
		TTL:     s.ttl,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}
