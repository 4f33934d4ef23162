package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/service"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// CreateCertificateRequest is the body of POST /api/certificates.
type CreateCertificateRequest struct {
	FormData json.RawMessage `json:"formData"`
	Format   string          `json:"format"`
}

// RenderCertificateRequest is the optional body of POST /api/certificates/{id}/render.
type RenderCertificateRequest struct {
	Format string `json:"format"`
}

// CertificateResponse pairs the stored record with its formatted view.
type CertificateResponse struct {
	Record      *domain.Certificate `json:"record"`
	Certificate solarpv.Certificate `json:"certificate"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// CertificateHandler handles certificate HTTP requests.
type CertificateHandler struct {
	certificates service.CertificateService
	logger       *slog.Logger
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(certificates service.CertificateService, logger *slog.Logger) *CertificateHandler {
	return &CertificateHandler{
		certificates: certificates,
		logger:       logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all certificate routes with the provided mux.
//
// Routes:
// - POST /api/certificates                -> Create
// - GET  /api/certificates/{id}           -> Show
// - POST /api/certificates/{id}/render    -> Render
// - GET  /api/certificates/{id}/document  -> Document
func (h *CertificateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/certificates", h.Create)
	mux.HandleFunc("GET /api/certificates/{id}", h.Show)
	mux.HandleFunc("POST /api/certificates/{id}/render", h.Render)
	mux.HandleFunc("GET /api/certificates/{id}/document", h.Document)
}

// =============================================================================
// POST /api/certificates - Create Certificate
// =============================================================================

// Create saves an installation record and queues its document.
func (h *CertificateHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "CertificateHandler.Create"

	var req CreateCertificateRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	cert, err := h.certificates.Create(r.Context(), service.CreateCertificateParams{
		FormData: req.FormData,
		Format:   domain.DocumentFormat(req.Format),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/certificates/"+cert.ID.String())
	writeJSON(w, http.StatusCreated, newCertificateResponse(cert))
}

// =============================================================================
// GET /api/certificates/{id} - Show Certificate
// =============================================================================

// Show returns the record and its formatted certificate.
func (h *CertificateHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "CertificateHandler.Show")
	if !ok {
		return
	}

	cert, err := h.certificates.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newCertificateResponse(cert))
}

// =============================================================================
// POST /api/certificates/{id}/render - Re-render Certificate
// =============================================================================

// Render queues a fresh document. The body is optional; an empty format
// keeps the certificate's current one.
func (h *CertificateHandler) Render(w http.ResponseWriter, r *http.Request) {
	const op = "CertificateHandler.Render"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	var req RenderCertificateRequest
	body, err := readBody(w, r, op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "Request body must be valid JSON"))
			return
		}
	}
	if f := r.URL.Query().Get("format"); f != "" {
		req.Format = f
	}

	cert, err := h.certificates.Render(r.Context(), id, domain.DocumentFormat(req.Format))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, newCertificateResponse(cert))
}

// =============================================================================
// GET /api/certificates/{id}/document - Download Document
// =============================================================================

// Document redirects to a time-limited link to the rendered document.
func (h *CertificateHandler) Document(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "CertificateHandler.Document")
	if !ok {
		return
	}

	url, err := h.certificates.DocumentURL(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// =============================================================================
// Helper Methods
// =============================================================================

func (h *CertificateHandler) pathID(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "id", "Certificate ID must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func newCertificateResponse(cert *domain.Certificate) CertificateResponse {
	return CertificateResponse{
		Record:      cert,
		Certificate: solarpv.FormatJSON(cert.FormData),
	}
}
