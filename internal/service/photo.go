package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/metrics"
	"github.com/DukeRupert/sparkwise/internal/storage"
)

// photoExtensions maps supported content types to the stored extension.
var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// PhotoService stores installation photos so records can reference them.
type PhotoService interface {
	// Upload validates and stores a photo. size is the size the client
	// declared; the stored size is what was actually read.
	Upload(ctx context.Context, file io.Reader, filename string, size int64) (*domain.Photo, error)
}

// photoService implements PhotoService.
type photoService struct {
	storage    storage.Storage
	thumbnails ThumbnailProcessor
	logger     *slog.Logger
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(store storage.Storage, thumbnails ThumbnailProcessor, logger *slog.Logger) PhotoService {
	return &photoService{
		storage:    store,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

// Upload validates the photo and stores it under a fresh key.
func (s *photoService) Upload(ctx context.Context, file io.Reader, filename string, size int64) (*domain.Photo, error) {
	const op = "PhotoService.Upload"

	if err := domain.ValidatePhotoSize(size); err != nil {
		return nil, err
	}

	// Read one byte past the limit so an understated size is caught
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxPhotoSize+1))
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to read photo")
	}
	if err := domain.ValidatePhotoSize(int64(len(data))); err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(data)
	if !domain.IsValidPhotoContentType(contentType) {
		return nil, domain.Invalid(op, fmt.Sprintf("Unsupported photo type: %s. Only JPEG, PNG and GIF are supported.", contentType))
	}

	// Decoding proves the photo can be embedded in a certificate later
	thumb, err := s.thumbnails.Thumbnail(bytes.NewReader(data))
	if errors.Is(err, ErrTooManyPixels) {
		return nil, domain.Errorf(domain.ETOOLARGE, op, "Photo dimensions exceed %d megapixels", MaxPhotoPixels/1_000_000)
	}
	if err != nil {
		return nil, domain.Invalid(op, "Photo could not be decoded")
	}
	width, height := thumb.SourceWidth, thumb.SourceHeight

	key := storage.PhotoUploadKey(uuid.New(), photoExtensions[contentType])
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxPhotoSize,
	}); err != nil {
		s.logger.Error("failed to store photo", "error", err, "op", op, "key", key)
		return nil, storage.ToDomainError(err, op, "Failed to store photo")
	}

	url, err := s.storage.URL(ctx, key, DocumentURLExpiry)
	if err != nil {
		s.logger.Warn("failed to create photo url", "error", err, "op", op, "key", key)
	}

	metrics.PhotosUploaded.Inc()
	s.logger.Info("photo uploaded", "key", key, "content_type", contentType, "size", len(data), "width", width, "height", height)

	return &domain.Photo{
		Key:         key,
		URL:         url,
		Filename:    cleanFilename(filename),
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Width:       width,
		Height:      height,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// cleanFilename keeps only the base name of a client-supplied filename.
func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
