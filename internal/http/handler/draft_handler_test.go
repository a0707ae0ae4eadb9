package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/http/handler"
	"github.com/mekrok/quote-api/internal/repository"
	"github.com/mekrok/quote-api/internal/service"
	"github.com/mekrok/quote-api/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// draftRouter mounts the wizard routes the way the application router does,
// so URL parameters resolve
func draftRouter(t *testing.T) (*chi.Mux, *wizard.Orchestrator) {
	t.Helper()
	mail := &fakeMailer{}
	quotes := service.NewQuoteService(repository.NewQuoteRepository(testDB(t)), mail, zap.NewNop())
	orchestrator := wizard.NewOrchestrator(wizard.NewMemoryDraftStore(), quotes, time.Hour, zap.NewNop())
	h := handler.NewDraftHandler(orchestrator, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/api/drafts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/sections/{section}", h.UpdateSection)
			r.Post("/advance", h.Advance)
			r.Post("/back", h.Back)
			r.Post("/submit", h.Submit)
		})
	})
	return r, orchestrator
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createDraft(t *testing.T, r http.Handler) domain.QuoteDraft {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/drafts", domain.CreateDraftRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var draft domain.QuoteDraft
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	return draft
}

func TestDraftHandler_CreateAndGet(t *testing.T) {
	r, _ := draftRouter(t)

	draft := createDraft(t, r)
	assert.Equal(t, 1, draft.CurrentStep)

	rec := doJSON(t, r, http.MethodGet, "/api/drafts/"+draft.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/drafts/6f2d8a9e-1b3c-4d5e-8f90-a1b2c3d4e5f6", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/drafts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftHandler_Create_PrefilledProduct(t *testing.T) {
	r, _ := draftRouter(t)

	t.Run("seeds the first equipment item", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/drafts", domain.CreateDraftRequest{
			Product: &domain.PrefilledProduct{Category: "excavator", Brand: "Caterpillar"},
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var draft domain.QuoteDraft
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
		require.Len(t, draft.ProductSpecs.EquipmentItems, 1)
		assert.Equal(t, "excavator", draft.ProductSpecs.EquipmentItems[0].Type)
	})

	t.Run("rejects a deep link without a category", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/drafts", domain.CreateDraftRequest{
			Product: &domain.PrefilledProduct{Brand: "Caterpillar"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var apiErr domain.APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		assert.Contains(t, apiErr.Errors, "category")
	})
}

func TestDraftHandler_UpdateSection(t *testing.T) {
	r, _ := draftRouter(t)
	draft := createDraft(t, r)

	rec := doJSON(t, r, http.MethodPut, "/api/drafts/"+draft.ID.String()+"/sections/companyDetails", map[string]string{
		"companyName": "Acme Mining AS",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.QuoteDraft
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Acme Mining AS", updated.CompanyDetails.CompanyName)

	rec = doJSON(t, r, http.MethodPut, "/api/drafts/"+draft.ID.String()+"/sections/bogusSection", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftHandler_Advance(t *testing.T) {
	r, _ := draftRouter(t)
	draft := createDraft(t, r)

	// An empty company section blocks with field errors
	rec := doJSON(t, r, http.MethodPost, "/api/drafts/"+draft.ID.String()+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var stepErr struct {
		Section string            `json:"section"`
		Step    int               `json:"step"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stepErr))
	assert.Equal(t, "companyDetails", stepErr.Section)
	assert.Equal(t, 1, stepErr.Step)
	assert.Contains(t, stepErr.Errors, "companyName")
}

func TestDraftHandler_Submit(t *testing.T) {
	r, orchestrator := draftRouter(t)
	draft := createDraft(t, r)

	// Submitting an empty draft reports the first failing section
	rec := doJSON(t, r, http.MethodPost, "/api/drafts/"+draft.ID.String()+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// A complete, verified draft goes through end to end
	ctx := context.Background()
	_, err := orchestrator.UpdateSection(ctx, draft.ID, domain.SectionCompanyDetails, mustJSON(t, domain.CompanyDetails{
		CompanyName: "Acme Mining AS",
		CompanyType: "mining_operator",
		Address:     "Gruvegata 1",
		City:        "Kirkenes",
		State:       "Finnmark",
		ZipCode:     "9900",
		Country:     "Norway",
		ContactName: "Kari Berg",
		JobTitle:    "Procurement Manager",
		Email:       "kari.berg@acmemining.com",
		Phone:       "+47 900 12 345",
	}))
	require.NoError(t, err)
	_, err = orchestrator.UpdateSection(ctx, draft.ID, domain.SectionProductSpecs, mustJSON(t, domain.ProductSpecs{
		EquipmentItems: []domain.EquipmentItem{
			{Type: "excavator", Brand: "Caterpillar", Model: "390F", Quantity: 1, Condition: "new"},
		},
		Urgency: "immediate",
	}))
	require.NoError(t, err)
	_, err = orchestrator.UpdateSection(ctx, draft.ID, domain.SectionBudgetFinancing, mustJSON(t, domain.BudgetFinancing{
		BudgetRange:  "500k_1m",
		PaymentTerms: "net_30",
	}))
	require.NoError(t, err)
	_, err = orchestrator.UpdateSection(ctx, draft.ID, domain.SectionDeliveryRequirements, mustJSON(t, domain.DeliveryRequirements{
		LocationType:      "mine_site",
		SiteName:          "North Pit",
		DeliveryAddress:   "Gruvevegen 12",
		City:              "Kirkenes",
		State:             "Finnmark",
		ZipCode:           "9900",
		SiteContact:       "Ola Nordmann",
		SiteContactPhone:  "+47 900 54 321",
		AccessLimitations: "None",
	}))
	require.NoError(t, err)
	_, err = orchestrator.MarkEmailVerified(ctx, draft.ID, "kari.berg@acmemining.com")
	require.NoError(t, err)

	rec = doJSON(t, r, http.MethodPost, "/api/drafts/"+draft.ID.String()+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote domain.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, "Acme Mining AS", quote.CompanyName)
	assert.Equal(t, domain.QuoteStatusNew, quote.Status)

	// The draft is gone after a successful submission
	rec = doJSON(t, r, http.MethodGet, "/api/drafts/"+draft.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
