package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

// =============================================================================
// HTML Generator
// =============================================================================

// HTMLGenerator renders the certificate page and, for PDF output, converts
// it with an external tool.
type HTMLGenerator struct {
	format       domain.DocumentFormat
	pdfConverter Converter
	logger       *slog.Logger
}

// NewHTMLGenerator creates a new HTML-based certificate generator.
func NewHTMLGenerator(format domain.DocumentFormat, logger *slog.Logger) *HTMLGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLGenerator{
		format:       format,
		pdfConverter: NewWeasyPrintConverter(),
		logger:       logger,
	}
}

// WithConverter replaces the PDF converter.
func (g *HTMLGenerator) WithConverter(c Converter) *HTMLGenerator {
	g.pdfConverter = c
	return g
}

// Format returns the output format of this generator.
func (g *HTMLGenerator) Format() domain.DocumentFormat {
	return g.format
}

// Generate renders the certificate and writes it to w.
func (g *HTMLGenerator) Generate(ctx context.Context, doc *Document, w io.Writer) (int64, error) {
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now()
	}

	// 1. Render HTML
	var htmlBuf bytes.Buffer
	if err := CertificatePage(doc).Render(ctx, &htmlBuf); err != nil {
		return 0, fmt.Errorf("render template: %w", err)
	}

	g.logger.Debug("Certificate HTML rendered",
		"format", g.format,
		"html_size", htmlBuf.Len(),
		"photo_count", len(doc.Certificate.Photos),
	)

	// 2. Convert if needed
	out := htmlBuf.Bytes()
	switch g.format {
	case domain.DocumentFormatHTML:
	case domain.DocumentFormatPDF:
		var pdfBuf bytes.Buffer
		if err := g.pdfConverter.Convert(ctx, htmlBuf.Bytes(), &pdfBuf); err != nil {
			return 0, fmt.Errorf("convert to %s: %w", g.format, err)
		}
		out = pdfBuf.Bytes()
	default:
		return 0, fmt.Errorf("unsupported format: %s", g.format)
	}

	// 3. Write output
	n, err := w.Write(out)
	if err != nil {
		return int64(n), fmt.Errorf("write output: %w", err)
	}

	g.logger.Info("Certificate generated",
		"format", g.format,
		"size_bytes", n,
		"certificate_number", doc.Certificate.CertificateNumber,
	)

	return int64(n), nil
}
