package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/wizard"
	"go.uber.org/zap"
)

// DraftHandler handles the quote wizard endpoints
type DraftHandler struct {
	orchestrator *wizard.Orchestrator
	logger       *zap.Logger
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(orchestrator *wizard.Orchestrator, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// stepErrorResponse is the body returned when a step blocks advancement
// or submission
type stepErrorResponse struct {
	Section  string            `json:"section"`
	Step     int               `json:"step"`
	Errors   map[string]string `json:"errors"`
	Warnings map[string]string `json:"warnings,omitempty"`
}

func respondStepError(w http.ResponseWriter, stepErr *wizard.StepError) {
	respondJSON(w, http.StatusUnprocessableEntity, stepErrorResponse{
		Section:  stepErr.Section,
		Step:     stepErr.Step,
		Errors:   stepErr.Errors,
		Warnings: stepErr.Warnings,
	})
}

// Create handles POST /api/drafts
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	draft, err := h.orchestrator.CreateDraft(r.Context(), req.Product)
	if err != nil {
		h.logger.Error("failed to create draft", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create draft")
		return
	}

	respondJSON(w, http.StatusCreated, draft)
}

// Get handles GET /api/drafts/{id}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftID(w, r)
	if !ok {
		return
	}

	draft, err := h.orchestrator.GetDraft(r.Context(), id)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// UpdateSection handles PUT /api/drafts/{id}/sections/{section}
func (h *DraftHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftID(w, r)
	if !ok {
		return
	}
	section := chi.URLParam(r, "section")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, err := h.orchestrator.UpdateSection(r.Context(), id, section, body)
	if err != nil {
		if errors.Is(err, wizard.ErrDraftNotFound) {
			h.respondDraftError(w, err)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// Advance handles POST /api/drafts/{id}/advance
func (h *DraftHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftID(w, r)
	if !ok {
		return
	}

	draft, stepErr, err := h.orchestrator.Advance(r.Context(), id)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	if stepErr != nil {
		respondStepError(w, stepErr)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// Back handles POST /api/drafts/{id}/back
func (h *DraftHandler) Back(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftID(w, r)
	if !ok {
		return
	}

	draft, err := h.orchestrator.Back(r.Context(), id)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// Submit handles POST /api/drafts/{id}/submit
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftID(w, r)
	if !ok {
		return
	}

	quote, stepErr, err := h.orchestrator.Submit(r.Context(), id)
	if err != nil {
		var persistErr *wizard.PersistenceError
		if errors.As(err, &persistErr) {
			// The draft survives; the client may retry with the same
			// submission key
			respondWithError(w, http.StatusInternalServerError, persistErr.Error())
			return
		}
		h.respondDraftError(w, err)
		return
	}
	if stepErr != nil {
		respondStepError(w, stepErr)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

func (h *DraftHandler) draftID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "A valid draft id is required")
		return uuid.Nil, false
	}
	return id, true
}

func (h *DraftHandler) respondDraftError(w http.ResponseWriter, err error) {
	if errors.Is(err, wizard.ErrDraftNotFound) {
		respondWithError(w, http.StatusNotFound, "Draft not found or expired")
		return
	}
	h.logger.Error("draft operation failed", zap.Error(err))
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}
