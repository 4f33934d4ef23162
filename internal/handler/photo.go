package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/service"
)

// maxUploadBytes bounds a whole upload request, form overhead included.
const maxUploadBytes = domain.MaxPhotoSize + 1<<20

// PhotoHandler handles installation photo uploads.
type PhotoHandler struct {
	photos service.PhotoService
	logger *slog.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photos service.PhotoService, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photos: photos,
		logger: logger,
	}
}

// RegisterRoutes registers the upload route.
//
// Routes:
// - POST /api/uploads -> Upload
func (h *PhotoHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/uploads", h.Upload)
}

// Upload stores the multipart "photo" field and returns its key for use in
// an installation record.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "PhotoHandler.Upload"

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	// Parse multipart form (8MB memory limit, the rest spills to disk)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "Upload exceeds the maximum size"))
			return
		}
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Request must be multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "photo", "A photo file is required"))
		return
	}
	defer file.Close()

	photo, err := h.photos.Upload(r.Context(), file, header.Filename, header.Size)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if photo.URL != "" {
		w.Header().Set("Location", photo.URL)
	}
	writeJSON(w, http.StatusCreated, photo)
}
