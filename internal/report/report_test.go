package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDocument(t *testing.T) *Document {
	t.Helper()
	cert := solarpv.FormatJSON([]byte(`{
		"certificateNumber": "PV-2024-<001>",
		"installationDate": "2024-03-15",
		"client": {"name": "Jo & Sam Patel", "address": "1 High St"},
		"arrays": [{"name": "South", "panelWattage": 400, "panelCount": 10}],
		"inverters": [{"manufacturer": "SolarEdge", "type": "optimiser", "ratedPower": 3.6}],
		"testResults": {"polarity": true, "rcd": false},
		"defects": [{"description": "Label missing", "severity": "c3"}],
		"photos": [{"key": "photos/roof.jpg", "caption": "Roof", "category": "array"}],
		"notes": "All good"
	}`))

	return &Document{
		Certificate: cert,
		Images:      map[int]*ImageData{0: sampleJPEG(t)},
		GeneratedAt: time.Date(2024, 3, 16, 9, 30, 0, 0, time.UTC),
	}
}

func sampleJPEG(t *testing.T) *ImageData {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return &ImageData{Data: buf.Bytes(), ContentType: "image/jpeg"}
}

func TestHTMLGenerator_HTML(t *testing.T) {
	doc := sampleDocument(t)
	gen := NewHTMLGenerator(domain.DocumentFormatHTML, testLogger())

	var buf bytes.Buffer
	n, err := gen.Generate(context.Background(), doc, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	html := buf.String()
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "PV-2024-&lt;001&gt;")
	assert.Contains(t, html, "Jo &amp; Sam Patel")
	assert.NotContains(t, html, "<001>")
	assert.Contains(t, html, "String Inverter with Optimisers")
	assert.Contains(t, html, "C3 - Improvement Recommended")
	assert.Contains(t, html, "data:image/jpeg;base64,")
	assert.Contains(t, html, "Roof (Array)")
	assert.Contains(t, html, "bg-red-100")
	assert.Contains(t, html, "16/03/2024 09:30")
}

type fakeConverter struct {
	got []byte
	err error
}

func (c *fakeConverter) Convert(ctx context.Context, html []byte, w io.Writer) error {
	c.got = html
	if c.err != nil {
		return c.err
	}
	_, err := w.Write([]byte("%PDF-fake"))
	return err
}

func (c *fakeConverter) Format() domain.DocumentFormat { return domain.DocumentFormatPDF }

func TestHTMLGenerator_PDFUsesConverter(t *testing.T) {
	conv := &fakeConverter{}
	gen := NewHTMLGenerator(domain.DocumentFormatPDF, testLogger()).WithConverter(conv)

	var buf bytes.Buffer
	_, err := gen.Generate(context.Background(), sampleDocument(t), &buf)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", buf.String())
	assert.Contains(t, string(conv.got), "Solar PV Installation Certificate")

	conv.err = errors.New("weasyprint missing")
	_, err = gen.Generate(context.Background(), sampleDocument(t), &buf)
	assert.ErrorContains(t, err, "convert to pdf")
}

func TestPDFGenerator(t *testing.T) {
	gen := NewPDFGenerator()
	assert.Equal(t, domain.DocumentFormatPDF, gen.Format())

	var buf bytes.Buffer
	n, err := gen.Generate(context.Background(), sampleDocument(t), &buf)
	require.NoError(t, err)
	assert.Greater(t, n, int64(0))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestPDFGenerator_EmptyCertificate(t *testing.T) {
	doc := &Document{Certificate: solarpv.Format(nil)}

	var buf bytes.Buffer
	_, err := NewPDFGenerator().Generate(context.Background(), doc, &buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.False(t, doc.GeneratedAt.IsZero())
}

func TestPDFGenerator_BadImageSkipped(t *testing.T) {
	doc := sampleDocument(t)
	doc.Images[0] = &ImageData{Data: []byte("not an image"), ContentType: "image/jpeg"}

	var buf bytes.Buffer
	_, err := NewPDFGenerator().Generate(context.Background(), doc, &buf)
	require.NoError(t, err)
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(domain.DocumentFormatHTML, testLogger())
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentFormatHTML, gen.Format())

	gen, err = NewGenerator(domain.DocumentFormatPDF, testLogger())
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentFormatPDF, gen.Format())

	_, err = NewGenerator("docx", testLogger())
	assert.Error(t, err)
}

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b int
	}{
		{"#14532D", 20, 83, 45},
		{"ffffff", 255, 255, 255},
		{"#abc", 0, 0, 0},
	}

	for _, tt := range tests {
		r, g, b := HexToRGB(tt.hex)
		assert.Equal(t, []int{tt.r, tt.g, tt.b}, []int{r, g, b}, tt.hex)
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "Sola...", TruncateText("SolarEdge SE3600", 7))
	assert.Equal(t, "Ω Ω", TruncateText("Ω Ω", 3))
}

func TestBadgeClass(t *testing.T) {
	pass := BadgeClass("pass")
	assert.Contains(t, pass, "bg-green-100")
	assert.NotContains(t, pass, "bg-gray-100")

	assert.Contains(t, BadgeClass("unknown"), "bg-gray-100")
}

func TestOutcomeAndSeverityColors(t *testing.T) {
	assert.Equal(t, "#16A34A", OutcomeColor("pass"))
	assert.Equal(t, BrandColors.TextMuted, OutcomeColor("bogus"))
	assert.Equal(t, "#DC2626", SeverityColor(solarpv.SeverityC1))
	assert.Equal(t, BrandColors.TextMuted, SeverityColor(""))
}

func TestFormatKWh(t *testing.T) {
	assert.Equal(t, "4,590 kWh", FormatKWh("4590"))
	assert.Equal(t, "n/a", FormatKWh("n/a"))
}

func TestHTTPImageDownloader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	d := NewHTTPImageDownloader()

	img, err := d.Download(context.Background(), srv.URL+"/roof.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, []byte("png-bytes"), img.Data)

	_, err = d.Download(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)

	img, err = d.Download(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, img)
}
