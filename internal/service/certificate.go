package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/metrics"
	"github.com/DukeRupert/sparkwise/internal/repository"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
	"github.com/DukeRupert/sparkwise/internal/storage"
	"github.com/DukeRupert/sparkwise/internal/worker"
)

// DocumentURLExpiry is how long a document link returned to the API stays valid.
const DocumentURLExpiry = 15 * time.Minute

// maxFormDataBytes caps a stored installation record.
const maxFormDataBytes = 1 << 20

// pgUniqueViolation is the Postgres error code for a unique constraint violation.
const pgUniqueViolation = "23505"

// CreateCertificateParams contains the data needed to save a certificate.
type CreateCertificateParams struct {
	FormData json.RawMessage
	Format   domain.DocumentFormat
}

// CertificateService defines the interface for certificate operations.
type CertificateService interface {
	// Create saves the record and queues its document render.
	Create(ctx context.Context, params CreateCertificateParams) (*domain.Certificate, error)

	// GetByID retrieves a certificate by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Certificate, error)

	// Render queues a fresh document render in format.
	Render(ctx context.Context, id uuid.UUID, format domain.DocumentFormat) (*domain.Certificate, error)

	// DocumentURL returns a time-limited link to the rendered document.
	DocumentURL(ctx context.Context, id uuid.UUID) (string, error)
}

// certificateService implements CertificateService.
type certificateService struct {
	db      *sql.DB
	queries *repository.Queries
	storage storage.Storage
	logger  *slog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(db *sql.DB, queries *repository.Queries, store storage.Storage, logger *slog.Logger) CertificateService {
	return &certificateService{
		db:      db,
		queries: queries,
		storage: store,
		logger:  logger,
	}
}

// Create saves the record and queues its document render in one transaction.
func (s *certificateService) Create(ctx context.Context, params CreateCertificateParams) (*domain.Certificate, error) {
	const op = "CertificateService.Create"

	formData, err := validateFormData(op, params.FormData)
	if err != nil {
		return nil, err
	}

	format := params.Format
	if format == "" {
		format = domain.DocumentFormatPDF
	}
	if !format.IsValid() {
		return nil, domain.NewValidationError(op, "format", "Format must be pdf or html")
	}

	number := strings.TrimSpace(solarpv.ParseFormData(formData).CertificateNumber)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", "error", err, "op", op)
		return nil, domain.Internal(err, op, "Failed to save certificate")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	repoCert, err := qtx.CreateCertificate(ctx, repository.CreateCertificateParams{
		CertificateNumber: number,
		FormData:          formData,
		Status:            domain.CertificateStatusRendering.String(),
		Format:            format.String(),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.Conflict(op, fmt.Sprintf("Certificate number %q is already in use", number))
		}
		s.logger.Error("failed to create certificate", "error", err, "op", op)
		return nil, domain.Internal(err, op, "Failed to save certificate")
	}

	job, err := worker.EnqueueRenderCertificate(ctx, qtx, repoCert.ID, format.String(), worker.WithPriority(worker.PriorityHigh))
	if err != nil {
		s.logger.Error("failed to enqueue certificate render", "error", err, "op", op, "certificate_id", repoCert.ID)
		return nil, domain.Internal(err, op, "Failed to queue certificate")
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit certificate", "error", err, "op", op)
		return nil, domain.Internal(err, op, "Failed to save certificate")
	}

	metrics.CertificatesCreated.Inc()

	cert := repoCertificateToDomain(repoCert)
	s.logger.Info("certificate created",
		"certificate_id", cert.ID,
		"certificate_number", cert.CertificateNumber,
		"format", cert.Format,
		"job_id", job.ID,
	)
	return &cert, nil
}

// GetByID retrieves a certificate by ID.
func (s *certificateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	const op = "CertificateService.GetByID"

	repoCert, err := s.queries.GetCertificateByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "certificate", id.String())
		}
		s.logger.Error("failed to get certificate", "error", err, "op", op, "certificate_id", id)
		return nil, domain.Internal(err, op, "Failed to retrieve certificate")
	}

	cert := repoCertificateToDomain(repoCert)
	return &cert, nil
}

// Render queues a fresh document render. Moving the certificate into
// 'rendering' and enqueueing the job commit together, and only one render
// per certificate can be in flight.
func (s *certificateService) Render(ctx context.Context, id uuid.UUID, format domain.DocumentFormat) (*domain.Certificate, error) {
	const op = "CertificateService.Render"

	cert, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if format == "" {
		format = cert.Format
	}
	if !format.IsValid() {
		return nil, domain.NewValidationError(op, "format", "Format must be pdf or html")
	}
	if cert.Status == domain.CertificateStatusRendering {
		return nil, errRenderInProgress(op)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", "error", err, "op", op)
		return nil, domain.Internal(err, op, "Failed to queue certificate")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	n, err := qtx.BeginCertificateRender(ctx, repository.BeginCertificateRenderParams{
		ID:     id,
		Format: format.String(),
	})
	if err != nil {
		s.logger.Error("failed to update certificate status", "error", err, "op", op, "certificate_id", id)
		return nil, domain.Internal(err, op, "Failed to queue certificate")
	}
	if n == 0 {
		return nil, errRenderInProgress(op)
	}

	job, err := worker.EnqueueRenderCertificate(ctx, qtx, id, format.String())
	if err != nil {
		s.logger.Error("failed to enqueue certificate render", "error", err, "op", op, "certificate_id", id)
		return nil, domain.Internal(err, op, "Failed to queue certificate")
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit certificate render", "error", err, "op", op, "certificate_id", id)
		return nil, domain.Internal(err, op, "Failed to queue certificate")
	}

	cert.Status = domain.CertificateStatusRendering
	cert.Format = format
	cert.ErrorMessage = ""
	s.logger.Info("certificate render queued", "certificate_id", id, "format", format, "job_id", job.ID)
	return cert, nil
}

func errRenderInProgress(op string) error {
	return domain.Conflict(op, "A render is already in progress for this certificate")
}

// DocumentURL returns a time-limited link to the rendered document.
func (s *certificateService) DocumentURL(ctx context.Context, id uuid.UUID) (string, error) {
	const op = "CertificateService.DocumentURL"

	cert, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !cert.HasDocument() {
		return "", domain.Errorf(domain.ENOTFOUND, op, "Certificate %s has no rendered document yet (status: %s)", id, cert.Status)
	}

	url, err := s.storage.URL(ctx, cert.DocumentKey, DocumentURLExpiry)
	if err != nil {
		s.logger.Error("failed to create document url", "error", err, "op", op, "certificate_id", id)
		return "", storage.ToDomainError(err, op, "Failed to create document link")
	}
	return url, nil
}

// validateFormData requires a JSON object within the size limit. Its
// contents are not checked; formatting tolerates any shape.
func validateFormData(op string, raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, domain.NewValidationError(op, "formData", "Form data is required")
	}
	if len(trimmed) > maxFormDataBytes {
		return nil, domain.NewValidationError(op, "formData", "Form data must be under 1 MB")
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, domain.NewValidationError(op, "formData", "Form data must be a JSON object")
	}
	return json.RawMessage(trimmed), nil
}

func repoCertificateToDomain(r repository.Certificate) domain.Certificate {
	return domain.Certificate{
		ID:                r.ID,
		CertificateNumber: r.CertificateNumber,
		FormData:          r.FormData,
		Status:            domain.CertificateStatus(r.Status),
		Format:            domain.DocumentFormat(r.Format),
		DocumentKey:       domain.NullStringValue(r.DocumentKey),
		ThumbnailKeys:     r.ThumbnailKeys,
		ErrorMessage:      domain.NullStringValue(r.ErrorMessage),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
