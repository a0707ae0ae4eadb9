package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/mailer"
	"github.com/mekrok/quote-api/internal/normalize"
	"github.com/mekrok/quote-api/internal/repository"
	"go.uber.org/zap"
)

// QuoteService handles persistence and follow-up of quote records
type QuoteService struct {
	repo   *repository.QuoteRepository
	mailer mailer.Mailer
	logger *zap.Logger
}

func NewQuoteService(repo *repository.QuoteRepository, m mailer.Mailer, logger *zap.Logger) *QuoteService {
	return &QuoteService{repo: repo, mailer: m, logger: logger}
}

// Create normalizes an incoming flat record and persists it. The caller's
// record is re-normalized even when a client claims to have done so already.
// A confirmation email goes out best-effort; its failure never fails the
// submission.
func (s *QuoteService) Create(ctx context.Context, record map[string]interface{}) (*domain.Quote, error) {
	payload := normalizeRecord(record)

	quote, err := s.repo.CreateFromRecord(ctx, payload)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			s.logger.Info("duplicate submission, returning existing quote",
				zap.Stringp("submission_key", quote.SubmissionKey),
			)
			return quote, nil
		}
		return nil, err
	}

	s.sendConfirmation(ctx, quote)
	return quote, nil
}

func (s *QuoteService) sendConfirmation(ctx context.Context, quote *domain.Quote) {
	if quote.Email == "" {
		return
	}
	err := s.mailer.Send(ctx, quote.Email, mailer.ConfirmationSubject, mailer.ConfirmationBody(quote))
	if err != nil {
		s.logger.Error("failed to send quote confirmation email",
			zap.String("email", quote.Email),
			zap.Error(err),
		)
	}
}

// List returns all quotes, newest first
func (s *QuoteService) List(ctx context.Context) ([]domain.Quote, error) {
	return s.repo.List(ctx)
}

// Update normalizes a partial record and applies it to the quote
func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*domain.Quote, error) {
	payload := normalizeRecord(updates)
	return s.repo.UpdateFromRecord(ctx, id, payload)
}

// normalizeRecord brings a raw payload to the snake_case wire format and
// applies value coercion. Records that already went through both steps pass
// through unchanged.
func normalizeRecord(record map[string]interface{}) map[string]interface{} {
	transformed, ok := normalize.TransformKeys(record).(map[string]interface{})
	if !ok {
		transformed = record
	}
	return normalize.Normalize(transformed)
}

// Delete removes a quote
func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
