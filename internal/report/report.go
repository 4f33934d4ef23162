// Package report renders solar PV installation certificates to documents.
//
// A Generator writes one rendered Document in a single format. The HTML
// generator renders a templ component and optionally converts it to PDF
// with WeasyPrint; the PDF generator draws the certificate natively with
// fpdf and needs no external tools.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator defines the interface for certificate generators.
type Generator interface {
	// Generate renders the document and writes it to w.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, doc *Document, w io.Writer) (int64, error)

	// Format returns the output format of this generator.
	Format() domain.DocumentFormat
}

// Document is everything a generator needs to render one certificate.
type Document struct {
	Certificate solarpv.Certificate

	// Images holds photo data keyed by index into Certificate.Photos.
	// Photos without an entry are listed by caption only.
	Images map[int]*ImageData

	GeneratedAt time.Time
}

// Image returns the image for photo i, or nil.
func (d *Document) Image(i int) *ImageData {
	if d.Images == nil {
		return nil
	}
	return d.Images[i]
}

// NewGenerator returns the generator for format. PDF output goes through
// WeasyPrint when it is installed and falls back to the native renderer.
func NewGenerator(format domain.DocumentFormat, logger *slog.Logger) (Generator, error) {
	switch format {
	case domain.DocumentFormatHTML:
		return NewHTMLGenerator(format, logger), nil
	case domain.DocumentFormatPDF:
		if IsWeasyPrintAvailable() {
			return NewHTMLGenerator(format, logger), nil
		}
		return NewPDFGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// =============================================================================
// Brand Colors
// =============================================================================

// BrandColors defines the color palette for certificates.
var BrandColors = struct {
	Primary    string // Header bars and section rules
	Accent     string // Highlights
	TextDark   string // Primary text
	TextMuted  string // Secondary text
	Border     string // Borders and dividers
	Background string // Light background
	White      string // White
}{
	Primary:    "#14532D",
	Accent:     "#F59E0B",
	TextDark:   "#1F2937",
	TextMuted:  "#6B7280",
	Border:     "#E5E7EB",
	Background: "#F9FAFB",
	White:      "#FFFFFF",
}

// =============================================================================
// Outcome and Severity Colors
// =============================================================================

// OutcomeColors maps a test outcome class (pass, fail, na) to a display color.
var OutcomeColors = map[string]string{
	solarpv.Pass.Class():          "#16A34A", // Green-600
	solarpv.Fail.Class():          "#DC2626", // Red-600
	solarpv.NotApplicable.Class(): "#6B7280", // Gray-500
}

// OutcomeColor returns the color for an outcome class.
func OutcomeColor(class string) string {
	if color, ok := OutcomeColors[class]; ok {
		return color
	}
	return BrandColors.TextMuted
}

// SeverityColors maps defect severity codes to display colors.
var SeverityColors = map[string]string{
	solarpv.SeverityC1: "#DC2626", // Red-600
	solarpv.SeverityC2: "#F59E0B", // Amber-500
	solarpv.SeverityC3: "#3B82F6", // Blue-500
	solarpv.SeverityFI: "#8B5CF6", // Violet-500
}

// SeverityColor returns the color for a severity code.
func SeverityColor(code string) string {
	if color, ok := SeverityColors[code]; ok {
		return color
	}
	return BrandColors.TextMuted
}

// =============================================================================
// Color Conversion Helpers
// =============================================================================

// HexToRGB converts a hex color string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB"
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}

	r = hexToDec(hex[0:2])
	g = hexToDec(hex[2:4])
	b = hexToDec(hex[4:6])
	return
}

// hexToDec converts a 2-character hex string to decimal.
func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// =============================================================================
// Text Formatting Helpers
// =============================================================================

// TruncateText truncates text to at most maxLen runes, adding an ellipsis.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatDateTime formats a timestamp for certificate footers.
func FormatDateTime(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// orDash returns s, or an en dash placeholder for empty values.
func orDash(s string) string {
	if s == "" {
		return "–"
	}
	return s
}

// =============================================================================
// Image Download
// =============================================================================

// ImageData holds image bytes for embedding in a certificate.
type ImageData struct {
	Data        []byte
	ContentType string
}

// ImageDownloader abstracts image fetching for certificate rendering.
type ImageDownloader interface {
	Download(ctx context.Context, url string) (*ImageData, error)
}

// HTTPImageDownloader fetches images over HTTP.
type HTTPImageDownloader struct {
	client *http.Client
}

// NewHTTPImageDownloader creates an ImageDownloader that fetches images over HTTP.
func NewHTTPImageDownloader() *HTTPImageDownloader {
	return &HTTPImageDownloader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Download fetches an image from a URL and returns its data.
// Returns nil, nil if the URL is empty.
func (d *HTTPImageDownloader) Download(ctx context.Context, url string) (*ImageData, error) {
	if url == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		return nil, fmt.Errorf("read image data: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(buf.Bytes())
	}

	return &ImageData{
		Data:        buf.Bytes(),
		ContentType: contentType,
	}, nil
}

const maxImageBytes = 20 << 20
