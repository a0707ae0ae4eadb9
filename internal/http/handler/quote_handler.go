package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuoteHandler handles the quote management endpoints
type QuoteHandler struct {
	service *service.QuoteService
	logger  *zap.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(svc *service.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: svc,
		logger:  logger,
	}
}

// Create handles POST /api/quotes. The body is a flat quote record; keys
// arrive in camelCase or snake_case and values may be loosely typed, both
// are normalized before persistence.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	quote, err := h.service.Create(r.Context(), payload)
	if err != nil {
		h.logger.Error("failed to create quote", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// List handles GET /api/quotes, newest first
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list quotes", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, quotes)
}

// Update handles PUT /api/quotes. The id rides in the body next to the
// updated fields.
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rawID, _ := payload["id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "A valid quote id is required")
		return
	}
	delete(payload, "id")

	quote, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(w, http.StatusNotFound, "Quote not found")
			return
		}
		h.logger.Error("failed to update quote",
			zap.String("quote_id", id.String()),
			zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// Delete handles DELETE /api/quotes?id=
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "A valid quote id is required")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete quote",
			zap.String("quote_id", id.String()),
			zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
