// Package domain contains core business types and interfaces.
//
// This file defines the Certificate record: a solar PV installation
// certificate saved by an installer and rendered to a document by a
// background job.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Certificate Status
// =============================================================================

// CertificateStatus represents where a certificate is in its lifecycle.
type CertificateStatus string

const (
	// CertificateStatusDraft is a saved record with no rendered document.
	CertificateStatusDraft CertificateStatus = "draft"

	// CertificateStatusRendering means a render job has been queued or is running.
	CertificateStatusRendering CertificateStatus = "rendering"

	// CertificateStatusIssued means the document was rendered and stored.
	CertificateStatusIssued CertificateStatus = "issued"

	// CertificateStatusFailed means rendering failed permanently.
	CertificateStatusFailed CertificateStatus = "failed"
)

// String returns the string representation of the status.
func (s CertificateStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s CertificateStatus) IsValid() bool {
	switch s {
	case CertificateStatusDraft, CertificateStatusRendering,
		CertificateStatusIssued, CertificateStatusFailed:
		return true
	}
	return false
}

// =============================================================================
// Document Format
// =============================================================================

// DocumentFormat is the output format of a rendered certificate.
type DocumentFormat string

const (
	DocumentFormatPDF  DocumentFormat = "pdf"
	DocumentFormatHTML DocumentFormat = "html"
)

// String returns the string representation of the format.
func (f DocumentFormat) String() string {
	return string(f)
}

// IsValid returns true if the format is a recognized value.
func (f DocumentFormat) IsValid() bool {
	switch f {
	case DocumentFormatPDF, DocumentFormatHTML:
		return true
	}
	return false
}

// ContentType returns the MIME content type for the format.
func (f DocumentFormat) ContentType() string {
	switch f {
	case DocumentFormatPDF:
		return "application/pdf"
	case DocumentFormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FileExtension returns the file extension for the format.
func (f DocumentFormat) FileExtension() string {
	return string(f)
}

// =============================================================================
// Certificate
// =============================================================================

// Certificate is a stored solar PV installation certificate.
// FormData holds the raw (possibly sparse) installation record exactly as
// submitted; it is formatted on read and never mutated.
type Certificate struct {
	ID                uuid.UUID         `json:"id"`
	CertificateNumber string            `json:"certificateNumber"`
	FormData          json.RawMessage   `json:"formData"`
	Status            CertificateStatus `json:"status"`
	Format            DocumentFormat    `json:"format"`
	DocumentKey       string            `json:"documentKey,omitempty"`
	ThumbnailKeys     []string          `json:"thumbnailKeys,omitempty"`
	ErrorMessage      string            `json:"errorMessage,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// HasDocument returns true if a rendered document is stored.
func (c *Certificate) HasDocument() bool {
	return c.DocumentKey != ""
}

// =============================================================================
// Photo thumbnails
// =============================================================================

const (
	// ThumbnailMaxWidth is the maximum width of a photo embedded in a certificate.
	ThumbnailMaxWidth = 800

	// ThumbnailMaxHeight is the maximum height of a photo embedded in a certificate.
	ThumbnailMaxHeight = 600

	// ThumbnailJPEGQuality is the JPEG quality for thumbnail generation (0-100).
	ThumbnailJPEGQuality = 82
)
