package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"
)

// ErrDuplicateSubmission is returned when a create carries a submission key
// that already produced a row
var ErrDuplicateSubmission = errors.New("submission already persisted")

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// DecodeRecord converts a normalized flat snake_case record into the Quote
// model. Decoding is weakly typed so values that survived client-side string
// handling still land in their typed columns.
func DecodeRecord(record map[string]interface{}) (*domain.Quote, error) {
	var quote domain.Quote
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &quote,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build record decoder: %w", err)
	}
	if err := decoder.Decode(record); err != nil {
		return nil, fmt.Errorf("failed to decode quote record: %w", err)
	}
	return &quote, nil
}

// CreateFromRecord persists a normalized record. When the record carries a
// submission key that already produced a row, the existing row is returned
// unchanged; retries after a reported failure therefore cannot double-insert.
func (r *QuoteRepository) CreateFromRecord(ctx context.Context, record map[string]interface{}) (*domain.Quote, error) {
	quote, err := DecodeRecord(record)
	if err != nil {
		return nil, err
	}

	// A decoded empty key counts as no key at all
	if quote.SubmissionKey != nil && *quote.SubmissionKey == "" {
		quote.SubmissionKey = nil
	}

	if quote.SubmissionKey != nil {
		existing, err := r.GetBySubmissionKey(ctx, *quote.SubmissionKey)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return existing, ErrDuplicateSubmission
		}
	}

	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *QuoteRepository) GetBySubmissionKey(ctx context.Context, key string) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).Where("submission_key = ?", key).First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up submission key: %w", err)
	}
	return &quote, nil
}

// List returns every quote, newest submission first
func (r *QuoteRepository) List(ctx context.Context) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&quotes).Error
	return quotes, err
}

// UpdateFromRecord applies a normalized partial record to an existing row
// and returns the updated row. Empty fields in the record are left alone.
func (r *QuoteRepository) UpdateFromRecord(ctx context.Context, id uuid.UUID, record map[string]interface{}) (*domain.Quote, error) {
	updates, err := DecodeRecord(record)
	if err != nil {
		return nil, err
	}
	updates.ID = uuid.Nil

	result := r.db.WithContext(ctx).Model(&domain.Quote{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Quote{}, "id = ?", id).Error
}

func (r *QuoteRepository) Count(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quote{}).Count(&count).Error
	return int(count), err
}
