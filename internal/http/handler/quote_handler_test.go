package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/http/handler"
	"github.com/mekrok/quote-api/internal/repository"
	"github.com/mekrok/quote-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQuoteTestStack(t *testing.T) (*handler.QuoteHandler, *service.QuoteService, *fakeMailer) {
	t.Helper()
	mail := &fakeMailer{}
	svc := service.NewQuoteService(repository.NewQuoteRepository(testDB(t)), mail, zap.NewNop())
	return handler.NewQuoteHandler(svc, zap.NewNop()), svc, mail
}

func quotePayload() map[string]interface{} {
	return map[string]interface{}{
		"companyName": "Acme Mining AS",
		"contactName": "Kari Berg",
		"email":       "kari.berg@acmemining.com",
		"phone":       "+47 900 12 345",
		"equipmentItems": []map[string]interface{}{
			{"type": "excavator", "brand": "Caterpillar", "model": "390F", "quantity": 2, "condition": "new"},
		},
		"urgency":        "within_3_months",
		"specificBudget": "750000",
		"deliveryDate":   "",
	}
}

func TestQuoteHandler_Create(t *testing.T) {
	t.Run("normalizes and persists a camelCase payload", func(t *testing.T) {
		h, _, mail := newQuoteTestStack(t)

		rec := postJSON(t, h.Create, "/api/quotes", quotePayload())
		require.Equal(t, http.StatusOK, rec.Code)

		var quote domain.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
		assert.Equal(t, "Acme Mining AS", quote.CompanyName)
		require.NotNil(t, quote.SpecificBudget)
		assert.Equal(t, 750000.0, *quote.SpecificBudget)
		assert.Nil(t, quote.DeliveryDate)

		// Confirmation email went out to the requester
		assert.Len(t, mail.sent, 1)
	})

	t.Run("email failure does not fail the submission", func(t *testing.T) {
		h, svc, mail := newQuoteTestStack(t)
		mail.fail = assert.AnError

		rec := postJSON(t, h.Create, "/api/quotes", quotePayload())
		assert.Equal(t, http.StatusOK, rec.Code)

		quotes, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, quotes, 1)
	})

	t.Run("invalid body", func(t *testing.T) {
		h, _, _ := newQuoteTestStack(t)

		req := httptest.NewRequest(http.MethodPost, "/api/quotes", nil)
		rec := httptest.NewRecorder()
		h.Create(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQuoteHandler_List(t *testing.T) {
	h, _, _ := newQuoteTestStack(t)

	postJSON(t, h.Create, "/api/quotes", quotePayload())
	postJSON(t, h.Create, "/api/quotes", quotePayload())

	req := httptest.NewRequest(http.MethodGet, "/api/quotes", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var quotes []domain.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	assert.Len(t, quotes, 2)
}

func TestQuoteHandler_Update(t *testing.T) {
	t.Run("updates by id from the body", func(t *testing.T) {
		h, _, _ := newQuoteTestStack(t)

		rec := postJSON(t, h.Create, "/api/quotes", quotePayload())
		var created domain.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = postJSON(t, h.Update, "/api/quotes", map[string]interface{}{
			"id":     created.ID.String(),
			"status": "in_review",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated domain.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, domain.QuoteStatusInReview, updated.Status)
		assert.Equal(t, "Acme Mining AS", updated.CompanyName)
	})

	t.Run("missing id", func(t *testing.T) {
		h, _, _ := newQuoteTestStack(t)

		rec := postJSON(t, h.Update, "/api/quotes", map[string]interface{}{"status": "in_review"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		h, _, _ := newQuoteTestStack(t)

		rec := postJSON(t, h.Update, "/api/quotes", map[string]interface{}{
			"id":     "8f9e2c62-6f55-4f35-9f3b-0a2d6a9f3a11",
			"status": "in_review",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestQuoteHandler_Delete(t *testing.T) {
	t.Run("removes the quote", func(t *testing.T) {
		h, svc, _ := newQuoteTestStack(t)

		rec := postJSON(t, h.Create, "/api/quotes", quotePayload())
		var created domain.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		req := httptest.NewRequest(http.MethodDelete, "/api/quotes?id="+created.ID.String(), nil)
		del := httptest.NewRecorder()
		h.Delete(del, req)
		assert.Equal(t, http.StatusNoContent, del.Code)

		quotes, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, quotes)
	})

	t.Run("missing id", func(t *testing.T) {
		h, _, _ := newQuoteTestStack(t)

		req := httptest.NewRequest(http.MethodDelete, "/api/quotes", nil)
		rec := httptest.NewRecorder()
		h.Delete(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
