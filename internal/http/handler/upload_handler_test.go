package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/http/handler"
	"github.com/mekrok/quote-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func uploadRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "attachments")
	store, err := storage.NewLocalStorage(base)
	require.NoError(t, err)
	h := handler.NewUploadHandler(store, 10, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/api/uploads", h.Upload)
	r.Get("/api/uploads/*", h.Download)
	return r, base
}

func multipartBody(t *testing.T, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadHandler_UploadAndDownload(t *testing.T) {
	r, _ := uploadRouter(t)

	body, contentType := multipartBody(t, "site-plan.pdf", "plan contents")
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var uploaded domain.UploadedFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Equal(t, "site-plan.pdf", uploaded.Name)
	require.NotEmpty(t, uploaded.URL)

	req = httptest.NewRequest(http.MethodGet, uploaded.URL, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plan contents", rec.Body.String())
}

func TestUploadHandler_Download_StaysInsideStorage(t *testing.T) {
	r, base := uploadRouter(t)

	// A file next to the storage base must be unreachable through the route
	outside := filepath.Join(filepath.Dir(base), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("do not serve"), 0644))

	for _, path := range []string{
		"/api/uploads/../secret.txt",
		"/api/uploads/2026-01-01/../../secret.txt",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "do not serve", path)
	}
}

func TestUploadHandler_Upload_RequiresFileField(t *testing.T) {
	r, _ := uploadRouter(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
