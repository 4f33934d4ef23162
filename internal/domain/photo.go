package domain

import "time"

// =============================================================================
// Photo Constants
// =============================================================================

// SupportedPhotoTypes maps MIME types to their human-readable names.
// These are the formats the thumbnailer can decode.
var SupportedPhotoTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
}

// MaxPhotoSize is the maximum allowed size for an uploaded photo (20MB).
const MaxPhotoSize = 20 * 1024 * 1024

// =============================================================================
// Photo Domain Type
// =============================================================================

// Photo is an installation photo held in storage. Installation records
// reference it by Key.
type Photo struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// =============================================================================
// Validation Helpers
// =============================================================================

// IsValidPhotoContentType checks if the content type is supported.
func IsValidPhotoContentType(contentType string) bool {
	_, ok := SupportedPhotoTypes[contentType]
	return ok
}

// ValidatePhotoSize checks if the file size is within limits.
func ValidatePhotoSize(size int64) error {
	if size > MaxPhotoSize {
		return Errorf(ETOOLARGE, "photo.validate", "Photo size %d bytes exceeds maximum of %d bytes (%.1fMB)", size, MaxPhotoSize, float64(MaxPhotoSize)/(1024*1024))
	}
	if size == 0 {
		return Invalid("photo.validate", "Photo file is empty")
	}
	return nil
}
