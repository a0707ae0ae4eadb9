// Package otp implements the email verification gate of the quote wizard:
// issuance and single-use verification of short-lived numeric codes, keyed
// by email address.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/mekrok/quote-api/internal/mailer"
	"go.uber.org/zap"
)

// Gate errors. Mismatch keeps the record so the user can retry until expiry;
// expiry deletes it, forcing a fresh issuance.
var (
	ErrInvalidEmail = errors.New("invalid email format")
	ErrThrottled    = errors.New("a code was sent recently, please wait before requesting another")
	ErrMissing      = errors.New("no verification code on record")
	ErrMismatch     = errors.New("verification code does not match")
	ErrExpired      = errors.New("verification code expired")
)

// basic local@domain.tld shape check; the step validator applies the
// stricter pattern
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const codeLength = 6

// Gate issues and verifies one-time codes. The state per email is held in an
// injected Store so a shared cache can back it in production.
type Gate struct {
	store          Store
	mailer         mailer.Mailer
	ttl            time.Duration
	resendInterval time.Duration
	logger         *zap.Logger

	// now is injectable for expiry tests
	now func() time.Time
}

// NewGate creates a verification gate. resendInterval of zero disables the
// server-side reissue throttle.
func NewGate(store Store, m mailer.Mailer, ttl, resendInterval time.Duration, logger *zap.Logger) *Gate {
	return &Gate{
		store:          store,
		mailer:         m,
		ttl:            ttl,
		resendInterval: resendInterval,
		logger:         logger,
		now:            time.Now,
	}
}

// WithClock replaces the gate's time source. Test hook.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Send issues a fresh code for the email and dispatches it through the mail
// transport. A prior unexpired code is overwritten, which invalidates it.
// No record is committed when the transport fails.
func (g *Gate) Send(ctx context.Context, email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}

	now := g.now()

	if g.resendInterval > 0 {
		existing, err := g.store.Get(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check otp record: %w", err)
		}
		if existing != nil && now.Before(existing.IssuedAt.Add(g.resendInterval)) {
			return ErrThrottled
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := g.mailer.Send(ctx, email, mailer.OtpSubject, mailer.OtpBody(code, g.ttl)); err != nil {
		return fmt.Errorf("failed to send OTP: %w", err)
	}

	record := &Record{
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.store.Set(ctx, email, record, g.ttl); err != nil {
		return fmt.Errorf("failed to store otp record: %w", err)
	}

	g.logger.Info("otp issued", zap.String("email", email))
	return nil
}

// Verify checks a submitted code against the live record for the email.
// The record is deleted on success and on detected expiry; a mismatch
// leaves it in place so the user may retry until the code expires.
func (g *Gate) Verify(ctx context.Context, email, submitted string) error {
	record, err := g.store.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to read otp record: %w", err)
	}
	if record == nil {
		return ErrMissing
	}

	if record.Code != submitted {
		return ErrMismatch
	}

	if g.now().After(record.ExpiresAt) {
		if err := g.store.Delete(ctx, email); err != nil {
			g.logger.Warn("failed to clear expired otp record", zap.String("email", email), zap.Error(err))
		}
		return ErrExpired
	}

	// Single use: consume the record on a correct, unexpired match
	if err := g.store.Delete(ctx, email); err != nil {
		return fmt.Errorf("failed to consume otp record: %w", err)
	}

	g.logger.Info("otp verified", zap.String("email", email))
	return nil
}

// generateCode returns a uniformly random 6-digit code, zero-padded
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
