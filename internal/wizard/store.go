package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DraftStore is the durable backing for wizard sessions. Drafts are advisory
// state: losing one costs the user re-entry, never correctness.
type DraftStore interface {
	// Get returns the draft, or nil when none exists
	Get(ctx context.Context, id uuid.UUID) (*domain.QuoteDraft, error)
	// Save stores (or overwrites) the draft
	Save(ctx context.Context, draft *domain.QuoteDraft, ttl time.Duration) error
	// Delete removes the draft; deleting a missing draft is not an error
	Delete(ctx context.Context, id uuid.UUID) error
}

type memoryEntry struct {
	draft     domain.QuoteDraft
	expiresAt time.Time
}

// MemoryDraftStore keeps drafts in an in-process map
type MemoryDraftStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{entries: make(map[uuid.UUID]memoryEntry)}
}

func (s *MemoryDraftStore) Get(ctx context.Context, id uuid.UUID) (*domain.QuoteDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	out := entry.draft
	return &out, nil
}

func (s *MemoryDraftStore) Save(ctx context.Context, draft *domain.QuoteDraft, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[draft.ID] = memoryEntry{draft: *draft, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Sweep drops expired drafts and returns how many were removed
func (s *MemoryDraftStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

const draftKeyPrefix = "draft:"

// RedisDraftStore keeps drafts in a shared Redis cache; Redis owns expiry
type RedisDraftStore struct {
	client *redis.Client
}

func NewRedisDraftStore(client *redis.Client) *RedisDraftStore {
	return &RedisDraftStore{client: client}
}

func (s *RedisDraftStore) Get(ctx context.Context, id uuid.UUID) (*domain.QuoteDraft, error) {
	data, err := s.client.Get(ctx, draftKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	var draft domain.QuoteDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &draft, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, draft *domain.QuoteDraft, ttl time.Duration) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKeyPrefix+draft.ID.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, draftKeyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
