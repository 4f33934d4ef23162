package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

// Converter turns a rendered HTML certificate into another document format.
type Converter interface {
	Convert(ctx context.Context, html []byte, w io.Writer) error
	Format() domain.DocumentFormat
}

// maxStderr caps how much converter output ends up in a job's error message.
const maxStderr = 512

var pdfMagic = []byte("%PDF-")

// WeasyPrintConverter prints certificates to PDF with an external weasyprint
// binary, piping the HTML through stdin and reading the PDF from stdout.
type WeasyPrintConverter struct {
	Command string
	Args    []string
}

// NewWeasyPrintConverter returns a converter for the weasyprint on PATH.
// Photos are embedded as data URIs, so no base URL is needed.
func NewWeasyPrintConverter() *WeasyPrintConverter {
	return &WeasyPrintConverter{
		Command: "weasyprint",
		Args:    []string{"--encoding", "utf-8", "--media-type", "print", "-", "-"},
	}
}

func (c *WeasyPrintConverter) Format() domain.DocumentFormat {
	return domain.DocumentFormatPDF
}

// Convert runs the command and writes its PDF to w. Output that is not a PDF
// is an error, since weasyprint can exit 0 after printing only warnings.
func (c *WeasyPrintConverter) Convert(ctx context.Context, html []byte, w io.Writer) error {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Stdin = bytes.NewReader(html)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", c.Command, ctx.Err())
		}
		return fmt.Errorf("%s: %w: %s", c.Command, err, trimStderr(stderr.String()))
	}
	if !bytes.HasPrefix(stdout.Bytes(), pdfMagic) {
		return fmt.Errorf("%s produced %d bytes that are not a PDF: %s", c.Command, stdout.Len(), trimStderr(stderr.String()))
	}

	if _, err := stdout.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return s[:maxStderr] + "..."
	}
	return s
}

// IsWeasyPrintAvailable reports whether weasyprint is on PATH.
func IsWeasyPrintAvailable() bool {
	_, err := exec.LookPath("weasyprint")
	return err == nil
}
