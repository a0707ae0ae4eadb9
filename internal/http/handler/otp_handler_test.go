package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/mekrok/quote-api/internal/domain"
	"github.com/mekrok/quote-api/internal/http/handler"
	"github.com/mekrok/quote-api/internal/otp"
	"github.com/mekrok/quote-api/internal/repository"
	"github.com/mekrok/quote-api/internal/service"
	"github.com/mekrok/quote-api/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMailer struct {
	sent []string
	fail error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, htmlBody)
	return nil
}

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.sent)
	code := regexp.MustCompile(`\d{6}`).FindString(m.sent[len(m.sent)-1])
	require.Len(t, code, 6)
	return code
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Quote{}))
	return db
}

func newOtpTestStack(t *testing.T) (*handler.OtpHandler, *fakeMailer, *wizard.Orchestrator) {
	t.Helper()
	mail := &fakeMailer{}
	gate := otp.NewGate(otp.NewMemoryStore(), mail, 5*time.Minute, 0, zap.NewNop())
	quotes := service.NewQuoteService(repository.NewQuoteRepository(testDB(t)), mail, zap.NewNop())
	orchestrator := wizard.NewOrchestrator(wizard.NewMemoryDraftStore(), quotes, time.Hour, zap.NewNop())
	return handler.NewOtpHandler(gate, orchestrator, zap.NewNop()), mail, orchestrator
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOtpHandler_Send(t *testing.T) {
	t.Run("sends a code", func(t *testing.T) {
		h, mail, _ := newOtpTestStack(t)

		rec := postJSON(t, h.Send, "/api/send-otp", domain.SendOtpRequest{Email: "buyer@acmemining.com"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OTP sent successfully.", decodeBody(t, rec)["message"])
		assert.Len(t, mail.sent, 1)
	})

	t.Run("missing email", func(t *testing.T) {
		h, _, _ := newOtpTestStack(t)

		rec := postJSON(t, h.Send, "/api/send-otp", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email is required.", decodeBody(t, rec)["error"])
	})

	t.Run("malformed email", func(t *testing.T) {
		h, _, _ := newOtpTestStack(t)

		rec := postJSON(t, h.Send, "/api/send-otp", domain.SendOtpRequest{Email: "not-an-email"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid email format.", decodeBody(t, rec)["error"])
	})

	t.Run("transport failure", func(t *testing.T) {
		h, mail, _ := newOtpTestStack(t)
		mail.fail = errors.New("smtp connection refused")

		rec := postJSON(t, h.Send, "/api/send-otp", domain.SendOtpRequest{Email: "buyer@acmemining.com"})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to send OTP.", decodeBody(t, rec)["error"])
	})
}

func TestOtpHandler_Verify(t *testing.T) {
	t.Run("verifies a fresh code once", func(t *testing.T) {
		h, mail, _ := newOtpTestStack(t)
		postJSON(t, h.Send, "/api/send-otp", domain.SendOtpRequest{Email: "buyer@acmemining.com"})
		code := mail.lastCode(t)

		rec := postJSON(t, h.Verify, "/api/verify-otp", domain.VerifyOtpRequest{
			Email: "buyer@acmemining.com",
			Otp:   code,
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OTP verified successfully.", decodeBody(t, rec)["message"])

		// Replaying the consumed code fails
		rec = postJSON(t, h.Verify, "/api/verify-otp", domain.VerifyOtpRequest{
			Email: "buyer@acmemining.com",
			Otp:   code,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid OTP.", decodeBody(t, rec)["error"])
	})

	t.Run("missing fields", func(t *testing.T) {
		h, _, _ := newOtpTestStack(t)

		rec := postJSON(t, h.Verify, "/api/verify-otp", domain.VerifyOtpRequest{Email: "buyer@acmemining.com"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email and OTP are required.", decodeBody(t, rec)["error"])
	})

	t.Run("wrong code", func(t *testing.T) {
		h, mail, _ := newOtpTestStack(t)
		postJSON(t, h.Send, "/api/send-otp", domain.SendOtpRequest{Email: "buyer@acmemining.com"})
		code := mail.lastCode(t)
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}

		rec := postJSON(t, h.Verify, "/api/verify-otp", domain.VerifyOtpRequest{
			Email: "buyer@acmemining.com",
			Otp:   wrong,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid OTP.", decodeBody(t, rec)["error"])
	})

	t.Run("verification with a draft id unlocks the draft", func(t *testing.T) {
		h, mail, orchestrator := newOtpTestStack(t)
		ctx := context.Background()

		draft, err := orchestrator.CreateDraft(ctx, nil)
		require.NoError(t, err)

		postJSON(t, h.Send, "/api/send-otp", domain.SendOtpRequest{Email: "buyer@acmemining.com"})
		code := mail.lastCode(t)

		rec := postJSON(t, h.Verify, "/api/verify-otp", domain.VerifyOtpRequest{
			Email:   "buyer@acmemining.com",
			Otp:     code,
			DraftID: draft.ID.String(),
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		got, err := orchestrator.GetDraft(ctx, draft.ID)
		require.NoError(t, err)
		assert.True(t, got.EmailVerified)
		assert.Equal(t, "buyer@acmemining.com", got.VerifiedEmail)
	})
}
