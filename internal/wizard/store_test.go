package wizard_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/wizard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDraftStore(t *testing.T) {
	ctx := context.Background()
	store := wizard.NewMemoryDraftStore()

	draft := &domain.QuoteDraft{ID: uuid.New(), CurrentStep: 1}

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, draft, time.Hour))

		got, err := store.Get(ctx, draft.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, draft.ID, got.ID)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := store.Get(ctx, draft.ID)
		require.NoError(t, err)
		got.CurrentStep = 5

		again, err := store.Get(ctx, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, again.CurrentStep)
	})

	t.Run("missing draft is nil without error", func(t *testing.T) {
		got, err := store.Get(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, draft.ID))
		require.NoError(t, store.Delete(ctx, draft.ID))

		got, err := store.Get(ctx, draft.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestMemoryDraftStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := wizard.NewMemoryDraftStore()

	expired := &domain.QuoteDraft{ID: uuid.New()}
	live := &domain.QuoteDraft{ID: uuid.New()}
	require.NoError(t, store.Save(ctx, expired, time.Minute))
	require.NoError(t, store.Save(ctx, live, time.Hour))

	removed := store.Sweep(time.Now().Add(30 * time.Minute))
	assert.Equal(t, 1, removed)

	got, err := store.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRedisDraftStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := wizard.NewRedisDraftStore(client)

	draft := &domain.QuoteDraft{
		ID:          uuid.New(),
		CurrentStep: 2,
		CompanyDetails: domain.CompanyDetails{
			CompanyName: "Acme Mining AS",
			Email:       "kari.berg@acmemining.com",
		},
	}

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, draft, time.Hour))

		got, err := store.Get(ctx, draft.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, draft.ID, got.ID)
		assert.Equal(t, 2, got.CurrentStep)
		assert.Equal(t, "Acme Mining AS", got.CompanyDetails.CompanyName)
	})

	t.Run("missing draft is nil without error", func(t *testing.T) {
		got, err := store.Get(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("redis owns expiry", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, draft, time.Minute))
		mr.FastForward(2 * time.Minute)

		got, err := store.Get(ctx, draft.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, draft, time.Hour))
		require.NoError(t, store.Delete(ctx, draft.ID))

		got, err := store.Get(ctx, draft.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
