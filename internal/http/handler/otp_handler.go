package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/otp"
	"github.com/mekrok/quote-api/internal/wizard"
	"go.uber.org/zap"
)

// OtpHandler handles the email verification endpoints
type OtpHandler struct {
	gate         *otp.Gate
	orchestrator *wizard.Orchestrator
	logger       *zap.Logger
}

// NewOtpHandler creates a new OTP handler
func NewOtpHandler(gate *otp.Gate, orchestrator *wizard.Orchestrator, logger *zap.Logger) *OtpHandler {
	return &OtpHandler{
		gate:         gate,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Send handles POST /api/send-otp
func (h *OtpHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Email is required.")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Email is required.")
		return
	}

	if err := h.gate.Send(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, otp.ErrInvalidEmail):
			respondWithError(w, http.StatusBadRequest, "Invalid email format.")
		case errors.Is(err, otp.ErrThrottled):
			respondWithError(w, http.StatusTooManyRequests, "An OTP was recently sent to this address. Please wait before requesting another.")
		default:
			h.logger.Error("failed to send OTP", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to send OTP.")
		}
		return
	}

	respondMessage(w, http.StatusOK, "OTP sent successfully.")
}

// Verify handles POST /api/verify-otp
func (h *OtpHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Email and OTP are required.")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Email and OTP are required.")
		return
	}

	if err := h.gate.Verify(r.Context(), req.Email, req.Otp); err != nil {
		switch {
		case errors.Is(err, otp.ErrExpired):
			respondWithError(w, http.StatusUnauthorized, "OTP expired.")
		case errors.Is(err, otp.ErrMissing), errors.Is(err, otp.ErrMismatch):
			respondWithError(w, http.StatusUnauthorized, "Invalid OTP.")
		default:
			h.logger.Error("failed to verify OTP", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to verify OTP.")
		}
		return
	}

	// A draft id binds the verification to a wizard session so advancement
	// past the company step unlocks
	if req.DraftID != "" {
		if id, err := uuid.Parse(req.DraftID); err == nil {
			if _, err := h.orchestrator.MarkEmailVerified(r.Context(), id, req.Email); err != nil {
				h.logger.Warn("failed to record verification on draft",
					zap.String("draft_id", req.DraftID),
					zap.Error(err))
			}
		}
	}

	respondMessage(w, http.StatusOK, "OTP verified successfully.")
}
