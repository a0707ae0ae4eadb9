// Package wizard drives the multi-step quote request flow: one draft per
// session, step gating on validation plus email verification, and the final
// merge-normalize-persist pipeline.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/normalize"
	"github.com/mekrok/quote-api/internal/service"
	"github.com/mekrok/quote-api/internal/validation"
	"go.uber.org/zap"
)

// ErrDraftNotFound is returned when the draft expired or never existed
var ErrDraftNotFound = errors.New("draft not found")

// StepError reports why advancement or submission was blocked. Step points
// at the wizard step the user should return to.
type StepError struct {
	Section  string            `json:"section"`
	Step     int               `json:"step"`
	Errors   map[string]string `json:"errors"`
	Warnings map[string]string `json:"warnings,omitempty"`
}

func (e *StepError) Error() string {
	return fmt.Sprintf("section %s failed validation", e.Section)
}

// PersistenceError wraps a store failure so its message reaches the user
// verbatim while the draft stays intact for a retry.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Orchestrator owns quote drafts for the lifetime of one wizard session each
type Orchestrator struct {
	drafts   DraftStore
	quotes   *service.QuoteService
	draftTTL time.Duration
	logger   *zap.Logger

	// now is injectable for tests
	now func() time.Time
}

func NewOrchestrator(drafts DraftStore, quotes *service.QuoteService, draftTTL time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		drafts:   drafts,
		quotes:   quotes,
		draftTTL: draftTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the orchestrator's time source. Test hook.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// CreateDraft starts a wizard session. A deep-linked product seeds the first
// equipment item the way the storefront does.
func (o *Orchestrator) CreateDraft(ctx context.Context, product *domain.PrefilledProduct) (*domain.QuoteDraft, error) {
	now := o.now()
	draft := &domain.QuoteDraft{
		ID:                uuid.New(),
		CurrentStep:       1,
		CompletedSections: []string{},
		SubmissionKey:     uuid.NewString(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if product != nil {
		draft.ProductSpecs.EquipmentItems = []domain.EquipmentItem{{
			Type:      product.Category,
			Brand:     product.Brand,
			Model:     product.Model,
			Quantity:  1,
			Condition: product.Condition,
		}}
	}

	if err := o.drafts.Save(ctx, draft, o.draftTTL); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil
}

// GetDraft restores a session
func (o *Orchestrator) GetDraft(ctx context.Context, id uuid.UUID) (*domain.QuoteDraft, error) {
	draft, err := o.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, ErrDraftNotFound
	}
	return draft, nil
}

// UpdateSection replaces one section's data. Changing the company email
// voids a verification that was bound to the previous address.
func (o *Orchestrator) UpdateSection(ctx context.Context, id uuid.UUID, section string, data json.RawMessage) (*domain.QuoteDraft, error) {
	draft, err := o.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	switch section {
	case domain.SectionCompanyDetails:
		var payload domain.CompanyDetails
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid section payload: %w", err)
		}
		draft.CompanyDetails = payload
	case domain.SectionProductSpecs:
		var payload domain.ProductSpecs
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid section payload: %w", err)
		}
		// Quantity defaults to 1 when omitted
		for i := range payload.EquipmentItems {
			if payload.EquipmentItems[i].Quantity == 0 {
				payload.EquipmentItems[i].Quantity = 1
			}
		}
		draft.ProductSpecs = payload
	case domain.SectionBudgetFinancing:
		var payload domain.BudgetFinancing
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid section payload: %w", err)
		}
		draft.BudgetFinancing = payload
	case domain.SectionDeliveryRequirements:
		var payload domain.DeliveryRequirements
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid section payload: %w", err)
		}
		draft.DeliveryRequirements = payload
	case domain.SectionFileUploads:
		var payload domain.FileUploads
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid section payload: %w", err)
		}
		draft.FileUploads = payload
	default:
		return nil, fmt.Errorf("unknown section: %s", section)
	}

	if draft.EmailVerified && draft.VerifiedEmail != draft.CompanyDetails.Email {
		draft.EmailVerified = false
	}

	draft.UpdatedAt = o.now()
	if err := o.drafts.Save(ctx, draft, o.draftTTL); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil
}

// MarkEmailVerified records a successful OTP verification on the draft
func (o *Orchestrator) MarkEmailVerified(ctx context.Context, id uuid.UUID, email string) (*domain.QuoteDraft, error) {
	draft, err := o.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	draft.EmailVerified = true
	draft.VerifiedEmail = email
	draft.UpdatedAt = o.now()
	if err := o.drafts.Save(ctx, draft, o.draftTTL); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil
}

// Advance moves the draft one step forward. It requires the current step's
// section to validate clean and, on the company details step, a verified
// email matching the one entered. Blocked advancement never touches the
// completed-sections set.
func (o *Orchestrator) Advance(ctx context.Context, id uuid.UUID) (*domain.QuoteDraft, *StepError, error) {
	draft, err := o.GetDraft(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	section, ok := domain.SectionForStep(draft.CurrentStep)
	if ok {
		result := validation.ValidateSection(section, draft)
		if !result.Valid() {
			return draft, &StepError{
				Section:  section,
				Step:     draft.CurrentStep,
				Errors:   result.Errors,
				Warnings: result.Warnings,
			}, nil
		}

		if section == domain.SectionCompanyDetails && !o.emailVerified(draft) {
			return draft, &StepError{
				Section: section,
				Step:    draft.CurrentStep,
				Errors: map[string]string{
					"otp": "Please verify your email address before proceeding.",
				},
			}, nil
		}

		draft.MarkSectionCompleted(section)
	}

	if draft.CurrentStep < domain.TotalSteps {
		draft.CurrentStep++
	}
	draft.UpdatedAt = o.now()
	if err := o.drafts.Save(ctx, draft, o.draftTTL); err != nil {
		return nil, nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil, nil
}

// Back moves the draft one step back; it is never blocked
func (o *Orchestrator) Back(ctx context.Context, id uuid.UUID) (*domain.QuoteDraft, error) {
	draft, err := o.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.CurrentStep > 1 {
		draft.CurrentStep--
	}
	draft.UpdatedAt = o.now()
	if err := o.drafts.Save(ctx, draft, o.draftTTL); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil
}

// Submit runs the full pipeline: re-validate every section regardless of
// cached completion marks, require a verified email, merge the sections into
// one flat record, normalize it, and persist. The draft is cleared only on
// success; a persistence failure keeps it for a manual retry.
func (o *Orchestrator) Submit(ctx context.Context, id uuid.UUID) (*domain.Quote, *StepError, error) {
	draft, err := o.GetDraft(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if section, result, ok := validation.ValidateAll(draft); !ok {
		step, _ := domain.StepForSection(section)
		draft.CurrentStep = step
		draft.UpdatedAt = o.now()
		if err := o.drafts.Save(ctx, draft, o.draftTTL); err != nil {
			o.logger.Warn("failed to save draft after validation failure", zap.Error(err))
		}
		return nil, &StepError{
			Section:  section,
			Step:     step,
			Errors:   result.Errors,
			Warnings: result.Warnings,
		}, nil
	}

	if !o.emailVerified(draft) {
		step, _ := domain.StepForSection(domain.SectionCompanyDetails)
		return nil, &StepError{
			Section: domain.SectionCompanyDetails,
			Step:    step,
			Errors: map[string]string{
				"otp": "Please verify your email address with the OTP.",
			},
		}, nil
	}

	record, err := o.buildRecord(draft)
	if err != nil {
		return nil, nil, err
	}

	quote, err := o.quotes.Create(ctx, record)
	if err != nil {
		o.logger.Error("quote submission failed",
			zap.String("draft_id", draft.ID.String()),
			zap.Error(err),
		)
		return nil, nil, &PersistenceError{Err: err}
	}

	if err := o.drafts.Delete(ctx, draft.ID); err != nil {
		o.logger.Warn("failed to clear draft after submission", zap.Error(err))
	}

	o.logger.Info("quote submitted",
		zap.String("draft_id", draft.ID.String()),
		zap.String("quote_id", quote.ID.String()),
	)
	return quote, nil, nil
}

func (o *Orchestrator) emailVerified(draft *domain.QuoteDraft) bool {
	return draft.EmailVerified && draft.VerifiedEmail == draft.CompanyDetails.Email
}

// buildRecord merges all sections into one flat camelCase map in declaration
// order, stamps the lifecycle fields, and converts keys to the snake_case
// wire format. Typed value coercion happens later in the normalizer.
func (o *Orchestrator) buildRecord(draft *domain.QuoteDraft) (map[string]interface{}, error) {
	merged := make(map[string]interface{})

	sections := []interface{}{
		draft.CompanyDetails,
		draft.ProductSpecs,
		draft.BudgetFinancing,
		draft.DeliveryRequirements,
		draft.FileUploads,
	}
	for _, section := range sections {
		m, err := toMap(section)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			merged[k] = v
		}
	}

	now := o.now()
	merged["submissionDate"] = now
	merged["status"] = string(domain.QuoteStatusNew)
	merged["priority"] = string(domain.QuotePriorityNormal)
	merged["communications"] = []interface{}{}
	merged["lastActivity"] = now
	merged["submissionKey"] = draft.SubmissionKey

	record, ok := normalize.TransformKeys(merged).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected record shape after key transform")
	}
	return record, nil
}

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode section: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode section: %w", err)
	}
	return m, nil
}
