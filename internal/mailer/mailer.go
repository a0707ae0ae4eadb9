// Package mailer provides the outbound email transport used by the OTP gate
// and the quote confirmation flow.
package mailer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mekrok/quote-api/internal/config"
	"go.uber.org/zap"
)

// recipient shape check mirrors the one applied at issuance; stricter
// validation belongs to the step validator
var recipientPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Mailer sends a single HTML email
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer selects the transport implementation from configuration
func NewMailer(ctx context.Context, cfg *config.EmailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPMailer(cfg, logger), nil
	case "ses":
		return NewSESMailer(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

func validRecipient(to string) error {
	if to == "" || !recipientPattern.MatchString(to) {
		return fmt.Errorf("invalid or missing recipient email address")
	}
	return nil
}
