package otp

import (
	"context"
	"sync"
	"time"
)

// Record is one issued verification code, keyed by email address.
// At most one live record exists per email; reissuing overwrites it.
type Record struct {
	// Code is string-typed so leading zeros survive
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store is the key-value backing for OTP records. Implementations exist for
// an in-process map and for a shared Redis cache.
type Store interface {
	// Get returns the live record for the email, or nil when none exists
	Get(ctx context.Context, email string) (*Record, error)
	// Set stores (or overwrites) the record for the email
	Set(ctx context.Context, email string, record *Record, ttl time.Duration) error
	// Delete removes the record for the email; deleting a missing record is not an error
	Delete(ctx context.Context, email string) error
}

// MemoryStore keeps OTP records in an in-process map. Suitable for a single
// instance deployment and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory OTP store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, email string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[email]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) Set(ctx context.Context, email string, record *Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[email] = *record
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}

// Sweep removes records whose extended retention window has passed and
// returns how many were dropped. Expired records are normally deleted on the
// verification path; the sweep catches codes nobody ever tried to verify.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for email, rec := range s.records {
		if now.After(rec.ExpiresAt.Add(expiredRetention)) {
			delete(s.records, email)
			removed++
		}
	}
	return removed
}

// Len reports the number of live records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
