package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/storage"
	"go.uber.org/zap"
)

// UploadHandler handles quote attachment uploads
type UploadHandler struct {
	storage     storage.Storage
	maxUploadMB int64
	logger      *zap.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store storage.Storage, maxUploadMB int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		storage:     store,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
}

// Upload handles POST /api/uploads. The response is the file reference the
// client places in the wizard's fileUploads section.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Limit request size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	storagePath, size, err := h.storage.Upload(r.Context(), header.Filename, contentType, file)
	if err != nil {
		h.logger.Error("failed to store attachment", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	respondJSON(w, http.StatusCreated, domain.UploadedFile{
		Name:        header.Filename,
		Size:        size,
		ContentType: contentType,
		URL:         "/api/uploads/" + storagePath,
	})
}

// Download handles GET /api/uploads/*
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	storagePath := chi.URLParam(r, "*")
	if storagePath == "" {
		respondWithError(w, http.StatusBadRequest, "A file path is required")
		return
	}

	reader, err := h.storage.Download(r.Context(), storagePath)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "File not found")
		return
	}
	defer reader.Close()

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream attachment",
			zap.String("path", storagePath),
			zap.Error(err))
	}
}
