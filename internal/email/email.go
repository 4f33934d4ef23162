// Package email sends transactional email for Sparkwise.
//
// EmailService is implemented over SMTP, which covers Mailhog in
// development and any relay (Postmark, SES SMTP) in production.
package email

import (
	"context"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending transactional emails.
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendCertificateIssuedEmail tells a client their installation
	// certificate is ready and links to the rendered document.
	SendCertificateIssuedEmail(ctx context.Context, msg CertificateIssued) error
}

// CertificateIssued carries the details of an issued certificate email.
type CertificateIssued struct {
	To                string
	ClientName        string
	CertificateNumber string
	InstallerCompany  string
	DocumentURL       string
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "certificates@sparkwise.app"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Sparkwise"
)

// =============================================================================
// No-op implementation
// =============================================================================

// NoopEmailService discards every message. Used when SMTP is not configured.
type NoopEmailService struct{}

func (NoopEmailService) SendCertificateIssuedEmail(ctx context.Context, msg CertificateIssued) error {
	return nil
}

var _ EmailService = NoopEmailService{}
