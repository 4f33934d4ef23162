// Package storage provides object storage for certificate documents,
// installation photos and their thumbnails.
//
// Two providers implement Storage:
// - LocalStorage: files under a base directory, for development and tests
// - S3Storage: any S3-compatible bucket (AWS S3, Cloudflare R2, MinIO)
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for object storage operations.
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at key. Returns ErrKeyExists if the key is taken and
	// opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get returns the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for the object: a public URL when one is configured
	// and expires is 0, otherwise a link valid for expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type. Detected from the key when empty.
	ContentType string

	// MaxSize rejects objects larger than this many bytes with ErrTooLarge.
	// Zero means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool

	// Public requests a public-read ACL where the provider supports it.
	Public bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration
// =============================================================================

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "./storage".
	BasePath string

	// BaseURL is the public URL prefix files are served under,
	// e.g. "http://localhost:8080/files".
	BaseURL string
}

// S3Config holds configuration for an S3-compatible bucket.
type S3Config struct {
	// Endpoint overrides the service URL for non-AWS providers,
	// e.g. "https://<account>.r2.cloudflarestorage.com". Empty uses AWS.
	Endpoint string

	// Region defaults to "auto", which R2 expects.
	Region string

	Bucket          string
	AccessKeyID     string
	SecretAccessKey string

	// PublicURL is an optional public prefix for the bucket (custom domain).
	// Without it every URL is presigned.
	PublicURL string

	// UsePathStyle addresses the bucket in the path rather than the host name.
	// MinIO needs this.
	UsePathStyle bool
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	Local    LocalConfig
	S3       S3Config
}

// New returns the Storage implementation named by cfg.Provider.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStorage(cfg.Local, logger)
	case ProviderS3:
		return NewS3Storage(cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider: %q", cfg.Provider)
	}
}

// =============================================================================
// Key Generation Helpers
// =============================================================================

// CertificateDocumentKey returns the key for a rendered certificate.
// Each render gets a fresh key so earlier documents stay addressable.
//
// Example: "certificates/123e4567-e89b-12d3-a456-426614174000/documents/987fcdeb-51a2-43f1-b9c4-12345678abcd.pdf"
func CertificateDocumentKey(certificateID uuid.UUID, format string) string {
	return fmt.Sprintf("certificates/%s/documents/%s.%s", certificateID, uuid.New(), format)
}

// CertificateThumbnailKey returns the key for the thumbnail of photo index.
// Thumbnails are always JPEG.
//
// Example: "certificates/123e4567-e89b-12d3-a456-426614174000/thumbnails/02.jpg"
func CertificateThumbnailKey(certificateID uuid.UUID, index int) string {
	return fmt.Sprintf("certificates/%s/thumbnails/%02d.jpg", certificateID, index)
}

// PhotoUploadKey returns the key for an uploaded installation photo.
//
// Example: "uploads/987fcdeb-51a2-43f1-b9c4-12345678abcd.jpg"
func PhotoUploadKey(id uuid.UUID, ext string) string {
	return fmt.Sprintf("uploads/%s%s", id, ext)
}
