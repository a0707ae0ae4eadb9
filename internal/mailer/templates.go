package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/mekrok/quote-api/internal/domain"
)

// OtpSubject is the subject line of every verification code email
const OtpSubject = "Your OTP for Mekrok Mining Equipment"

// OtpBody renders a verification code into a human-readable HTML message
func OtpBody(code string, validity time.Duration) string {
	minutes := int(validity.Minutes())
	return fmt.Sprintf(`
      <p>Dear Customer,</p>
      <p>Your One-Time Password (OTP) is: <strong>%s</strong>. It is valid for %d minutes.</p>
      <p>Please use this code to verify your email address.</p>
      <p>Best regards,</p>
      <p>The Mekrok Mining Equipment Team</p>
    `, code, minutes)
}

// ConfirmationSubject is the subject of the post-submission confirmation
const ConfirmationSubject = "Your Quote Request Has Been Sent!"

// ConfirmationBody renders the quote confirmation sent after a successful
// submission. Missing fields fall back to "N/A" like the storefront copy.
func ConfirmationBody(quote *domain.Quote) string {
	contact := quote.ContactName
	if contact == "" {
		contact = "Customer"
	}
	company := orNA(quote.CompanyName)
	urgency := orNA(quote.Urgency)

	items := "N/A"
	if len(quote.EquipmentItems) > 0 {
		parts := make([]string, 0, len(quote.EquipmentItems))
		for _, item := range quote.EquipmentItems {
			parts = append(parts, fmt.Sprintf("%d x %s %s", item.Quantity, item.Brand, item.Model))
		}
		items = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(`
        <p>Dear %s,</p>
        <p>Thank you for your quote request. We have received your submission and are processing it.</p>
        <p>Here are some of the details you provided:</p>
        <ul>
          <li>Company: %s</li>
          <li>Equipment Items: %s</li>
          <li>Urgency: %s</li>
        </ul>
        <p>Our team will review your request and get back to you shortly.</p>
        <p>Best regards,</p>
        <p>The Mekrok Mining Equipment Team</p>
      `, contact, company, items, urgency)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
