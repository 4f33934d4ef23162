package jobs

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/email"
	"github.com/DukeRupert/sparkwise/internal/metrics"
	"github.com/DukeRupert/sparkwise/internal/report"
	"github.com/DukeRupert/sparkwise/internal/repository"
	"github.com/DukeRupert/sparkwise/internal/service"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
	"github.com/DukeRupert/sparkwise/internal/storage"
	"github.com/DukeRupert/sparkwise/internal/worker"
	"github.com/google/uuid"
)

// maxConcurrentPhotos limits concurrent photo fetches and resizes per job.
const maxConcurrentPhotos = 4

// maxPhotoBytes caps a stored photo read for thumbnailing.
const maxPhotoBytes = 25 << 20

// DefaultDocumentLinkExpiry is how long the emailed document link stays valid.
const DefaultDocumentLinkExpiry = 7 * 24 * time.Hour

// RenderCertificateHandler renders a stored certificate to a document,
// uploads it, and notifies the client.
type RenderCertificateHandler struct {
	queries      *repository.Queries
	storage      storage.Storage
	emailService email.EmailService
	downloader   report.ImageDownloader
	thumbnails   service.ThumbnailProcessor
	newGenerator func(domain.DocumentFormat) (report.Generator, error)
	linkExpiry   time.Duration
	logger       *slog.Logger
}

// NewRenderCertificateHandler creates a new handler for certificate render jobs.
func NewRenderCertificateHandler(
	queries *repository.Queries,
	store storage.Storage,
	emailService email.EmailService,
	logger *slog.Logger,
) *RenderCertificateHandler {
	if emailService == nil {
		emailService = email.NoopEmailService{}
	}
	return &RenderCertificateHandler{
		queries:      queries,
		storage:      store,
		emailService: emailService,
		downloader:   report.NewHTTPImageDownloader(),
		thumbnails:   service.NewImagingProcessor(),
		newGenerator: func(f domain.DocumentFormat) (report.Generator, error) {
			return report.NewGenerator(f, logger)
		},
		linkExpiry: DefaultDocumentLinkExpiry,
		logger:     logger,
	}
}

// Type returns the job type identifier.
func (h *RenderCertificateHandler) Type() string {
	return worker.JobTypeRenderCertificate
}

// Handle executes the certificate render job.
func (h *RenderCertificateHandler) Handle(ctx context.Context, payload []byte) error {
	// 1. Unmarshal and validate the payload
	p, err := decodePayload(payload)
	if err != nil {
		return err
	}

	format := domain.DocumentFormat(p.Format)
	if !format.IsValid() {
		return worker.Permanentf("invalid format: %q (must be 'pdf' or 'html')", p.Format)
	}

	log := h.logger.With("certificate_id", p.CertificateID, "format", format)
	log.Info("Rendering certificate")

	// 2. Fetch the record
	rec, err := h.queries.GetCertificateByID(ctx, p.CertificateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worker.Permanentf("certificate not found: %s", p.CertificateID)
		}
		return fmt.Errorf("fetch certificate: %w", err)
	}

	// 3. Format and gather photos
	cert := solarpv.FormatJSON(rec.FormData)
	images, thumbnailKeys := h.preparePhotos(ctx, rec.ID, cert.Photos, log)

	doc := &report.Document{
		Certificate: cert,
		Images:      images,
		GeneratedAt: time.Now(),
	}

	// 4. Render
	gen, err := h.newGenerator(format)
	if err != nil {
		return worker.NewPermanentError(fmt.Errorf("select generator: %w", err))
	}

	var buf bytes.Buffer
	size, err := gen.Generate(ctx, doc, &buf)
	if err != nil {
		return fmt.Errorf("generate %s: %w", format, err)
	}

	log.Info("Certificate rendered", "size_bytes", size, "photos", len(images))

	// 5. Upload
	key := storage.CertificateDocumentKey(rec.ID, format.FileExtension())
	if err := h.storage.Put(ctx, key, &buf, storage.PutOptions{
		ContentType: format.ContentType(),
		Overwrite:   true,
	}); err != nil {
		return fmt.Errorf("upload certificate to storage: %w", err)
	}

	// 6. Mark issued
	if err := h.queries.MarkCertificateIssued(ctx, repository.MarkCertificateIssuedParams{
		ID:            rec.ID,
		DocumentKey:   key,
		ThumbnailKeys: thumbnailKeys,
	}); err != nil {
		return fmt.Errorf("mark certificate issued: %w", err)
	}

	metrics.CertificatesGenerated.WithLabelValues(format.String()).Inc()

	// 7. Notify the client (optional - don't fail job if email fails)
	if cert.ClientEmail != "" {
		h.notifyClient(ctx, cert, key, log)
	}

	log.Info("Certificate issued", "storage_key", key)
	return nil
}

// OnFinalFailure marks the certificate failed once its render job will not
// run again, so a new render can be requested.
func (h *RenderCertificateHandler) OnFinalFailure(ctx context.Context, payload []byte, cause error) error {
	p, err := decodePayload(payload)
	if err != nil {
		return nil
	}

	n, err := h.queries.FailCertificateRender(ctx, repository.FailCertificateRenderParams{
		ID:           p.CertificateID,
		ErrorMessage: domain.ToNullString(cause.Error()),
	})
	if err != nil {
		return fmt.Errorf("mark certificate failed: %w", err)
	}
	if n > 0 {
		h.logger.Warn("Certificate render failed", "certificate_id", p.CertificateID, "error", cause)
	}
	return nil
}

func decodePayload(payload []byte) (worker.RenderCertificatePayload, error) {
	var p worker.RenderCertificatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}
	if p.CertificateID == uuid.Nil {
		return p, worker.NewPermanentError(errors.New("invalid payload: missing certificate_id"))
	}
	return p, nil
}

// preparePhotos fetches and thumbnails every photo, storing each thumbnail.
// Photos that cannot be fetched or decoded are logged and left out.
func (h *RenderCertificateHandler) preparePhotos(
	ctx context.Context,
	certificateID uuid.UUID,
	photos []solarpv.PhotoRow,
	log *slog.Logger,
) (map[int]*report.ImageData, []string) {
	thumbs := make([][]byte, len(photos))
	keys := make([]string, len(photos))

	var failCount atomic.Int32
	sem := make(chan struct{}, maxConcurrentPhotos)
	var wg sync.WaitGroup

	for i, photo := range photos {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, photo solarpv.PhotoRow) {
			defer wg.Done()
			defer func() { <-sem }()

			thumb, err := h.thumbnail(ctx, photo)
			if err != nil {
				log.Warn("Skipping photo", "index", i, "key", photo.Key, "url", photo.URL, "error", err)
				failCount.Add(1)
				return
			}

			key := storage.CertificateThumbnailKey(certificateID, i)
			if err := h.storage.Put(ctx, key, bytes.NewReader(thumb), storage.PutOptions{
				ContentType: "image/jpeg",
				Overwrite:   true,
			}); err != nil {
				log.Warn("Failed to store thumbnail", "index", i, "error", err)
			} else {
				keys[i] = key
			}
			thumbs[i] = thumb
		}(i, photo)
	}

	wg.Wait()

	images := make(map[int]*report.ImageData, len(photos))
	stored := make([]string, 0, len(photos))
	for i, thumb := range thumbs {
		if thumb != nil {
			images[i] = &report.ImageData{Data: thumb, ContentType: "image/jpeg"}
		}
		if keys[i] != "" {
			stored = append(stored, keys[i])
		}
	}

	if n := failCount.Load(); n > 0 {
		log.Warn("Some photos were left out", "failed", n, "total", len(photos))
	}
	return images, stored
}

// thumbnail loads a photo from storage or its URL and resizes it.
func (h *RenderCertificateHandler) thumbnail(ctx context.Context, photo solarpv.PhotoRow) ([]byte, error) {
	var src io.Reader
	switch {
	case photo.Key != "":
		rc, _, err := h.storage.Get(ctx, photo.Key)
		if err != nil {
			return nil, fmt.Errorf("get photo: %w", err)
		}
		defer rc.Close()
		src = io.LimitReader(rc, maxPhotoBytes)
	default:
		img, err := h.downloader.Download(ctx, photo.URL)
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, errors.New("photo has no source")
		}
		src = bytes.NewReader(img.Data)
	}

	thumb, err := h.thumbnails.Thumbnail(src)
	if err != nil {
		return nil, err
	}
	return thumb.JPEG, nil
}

func (h *RenderCertificateHandler) notifyClient(ctx context.Context, cert solarpv.Certificate, key string, log *slog.Logger) {
	url, err := h.storage.URL(ctx, key, h.linkExpiry)
	if err != nil {
		log.Error("Failed to create document link", "error", err)
		metrics.CertificateEmails.WithLabelValues("failed").Inc()
		return
	}

	if err := h.emailService.SendCertificateIssuedEmail(ctx, email.CertificateIssued{
		To:                cert.ClientEmail,
		ClientName:        cert.ClientName,
		CertificateNumber: cert.CertificateNumber,
		InstallerCompany:  cert.InstallerCompany,
		DocumentURL:       url,
	}); err != nil {
		log.Error("Failed to send certificate email", "error", err)
		metrics.CertificateEmails.WithLabelValues("failed").Inc()
		return
	}

	metrics.CertificateEmails.WithLabelValues("sent").Inc()
	log.Info("Certificate email sent", "email", cert.ClientEmail)
}
