package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Quote{}))
	return db
}

func sampleRecord(key string) map[string]interface{} {
	return map[string]interface{}{
		"company_name": "Acme Mining AS",
		"contact_name": "Kari Berg",
		"email":        "kari.berg@acmemining.com",
		"phone":        "+47 900 12 345",
		"equipment_items": []interface{}{
			map[string]interface{}{
				"type":      "excavator",
				"brand":     "Caterpillar",
				"model":     "390F",
				"quantity":  2,
				"condition": "new",
			},
		},
		"urgency":         "within_3_months",
		"specific_budget": 750000.0,
		"trade_in_year":   int64(2018),
		"status":          "new",
		"priority":        "normal",
		"submission_key":  key,
	}
}

func TestDecodeRecord(t *testing.T) {
	t.Run("typed fields land in their columns", func(t *testing.T) {
		quote, err := repository.DecodeRecord(sampleRecord("key-1"))
		require.NoError(t, err)

		assert.Equal(t, "Acme Mining AS", quote.CompanyName)
		require.NotNil(t, quote.SpecificBudget)
		assert.Equal(t, 750000.0, *quote.SpecificBudget)
		require.NotNil(t, quote.TradeInYear)
		assert.Equal(t, 2018, *quote.TradeInYear)
		require.Len(t, quote.EquipmentItems, 1)
		assert.Equal(t, "Caterpillar", quote.EquipmentItems[0].Brand)
		assert.Equal(t, 2, quote.EquipmentItems[0].Quantity)
		assert.Equal(t, domain.QuoteStatusNew, quote.Status)
	})

	t.Run("null values leave pointers nil", func(t *testing.T) {
		record := sampleRecord("key-2")
		record["specific_budget"] = nil
		record["delivery_date"] = nil

		quote, err := repository.DecodeRecord(record)
		require.NoError(t, err)
		assert.Nil(t, quote.SpecificBudget)
		assert.Nil(t, quote.DeliveryDate)
	})
}

func TestQuoteRepository_CreateFromRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and assigns an id", func(t *testing.T) {
		repo := repository.NewQuoteRepository(setupTestDB(t))

		quote, err := repo.CreateFromRecord(ctx, sampleRecord("key-1"))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, quote.ID)

		got, err := repo.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Mining AS", got.CompanyName)
		require.Len(t, got.EquipmentItems, 1)
		assert.Equal(t, "390F", got.EquipmentItems[0].Model)
	})

	t.Run("keyless records store null and never collide", func(t *testing.T) {
		repo := repository.NewQuoteRepository(setupTestDB(t))

		recordWithoutKey := func() map[string]interface{} {
			record := sampleRecord("")
			delete(record, "submission_key")
			return record
		}

		first, err := repo.CreateFromRecord(ctx, recordWithoutKey())
		require.NoError(t, err)
		assert.Nil(t, first.SubmissionKey)

		second, err := repo.CreateFromRecord(ctx, recordWithoutKey())
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("an empty submission key counts as no key", func(t *testing.T) {
		repo := repository.NewQuoteRepository(setupTestDB(t))

		first, err := repo.CreateFromRecord(ctx, sampleRecord(""))
		require.NoError(t, err)
		assert.Nil(t, first.SubmissionKey)

		_, err = repo.CreateFromRecord(ctx, sampleRecord(""))
		require.NoError(t, err)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("duplicate submission key returns the existing row", func(t *testing.T) {
		repo := repository.NewQuoteRepository(setupTestDB(t))

		first, err := repo.CreateFromRecord(ctx, sampleRecord("key-dup"))
		require.NoError(t, err)

		second, err := repo.CreateFromRecord(ctx, sampleRecord("key-dup"))
		assert.ErrorIs(t, err, repository.ErrDuplicateSubmission)
		require.NotNil(t, second)
		assert.Equal(t, first.ID, second.ID)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestQuoteRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewQuoteRepository(setupTestDB(t))

	for _, key := range []string{"key-a", "key-b", "key-c"} {
		_, err := repo.CreateFromRecord(ctx, sampleRecord(key))
		require.NoError(t, err)
	}

	quotes, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	// Newest first
	for i := 1; i < len(quotes); i++ {
		assert.False(t, quotes[i-1].CreatedAt.Before(quotes[i].CreatedAt))
	}
}

func TestQuoteRepository_UpdateFromRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("applies a partial record", func(t *testing.T) {
		repo := repository.NewQuoteRepository(setupTestDB(t))
		quote, err := repo.CreateFromRecord(ctx, sampleRecord("key-1"))
		require.NoError(t, err)

		updated, err := repo.UpdateFromRecord(ctx, quote.ID, map[string]interface{}{
			"status":   "in_review",
			"priority": "high",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStatusInReview, updated.Status)
		assert.Equal(t, domain.QuotePriorityHigh, updated.Priority)
		// Untouched fields survive
		assert.Equal(t, "Acme Mining AS", updated.CompanyName)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		repo := repository.NewQuoteRepository(setupTestDB(t))

		_, err := repo.UpdateFromRecord(ctx, uuid.New(), map[string]interface{}{
			"status": "in_review",
		})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestQuoteRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewQuoteRepository(setupTestDB(t))

	quote, err := repo.CreateFromRecord(ctx, sampleRecord("key-1"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, quote.ID))

	_, err = repo.GetByID(ctx, quote.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
