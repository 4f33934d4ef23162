package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/go-pdf/fpdf"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator draws certificates directly with fpdf.
type PDFGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	// Content area
	contentWidth float64
}

// NewPDFGenerator creates a new PDF generator with default settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0, // A4 height in mm
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Format returns the output format of this generator.
func (g *PDFGenerator) Format() domain.DocumentFormat {
	return domain.DocumentFormatPDF
}

// pdfPage bundles the document with a cp1252 translator for the core fonts.
type pdfPage struct {
	*fpdf.Fpdf
	tr func(string) string
}

// Generate creates a PDF certificate and writes it to w.
func (g *PDFGenerator) Generate(ctx context.Context, doc *Document, w io.Writer) (int64, error) {
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now()
	}
	c := &doc.Certificate

	f := fpdf.New("P", "mm", "A4", "")
	pdf := &pdfPage{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}

	pdf.SetTitle("Solar PV Installation Certificate "+c.CertificateNumber, true)
	pdf.SetAuthor(c.InstallerCompany, true)
	pdf.SetCreator("Sparkwise", true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, doc)
	})

	g.addHeader(pdf, doc)
	g.addInstallation(pdf, doc)
	g.addSystem(pdf, doc)
	g.addTests(pdf, doc)
	if c.HasDefects {
		g.addDefects(pdf, doc)
	}
	if c.HasPhotos {
		g.addPhotos(pdf, doc)
	}
	g.addDeclaration(pdf, doc)

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Sections
// =============================================================================

func (g *PDFGenerator) addHeader(pdf *pdfPage, doc *Document) {
	c := &doc.Certificate
	pdf.AddPage()

	r, gr, b := HexToRGB(BrandColors.Primary)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 0, g.pageWidth, 40, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(g.margin, 12)
	pdf.Cell(0, 10, "Solar PV Installation Certificate")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(g.margin, 25)
	pdf.Cell(0, 8, pdf.tr("Certificate No. "+orDash(c.CertificateNumber)))

	// Overall result badge
	r, gr, b = HexToRGB(OutcomeColor(c.OverallResultClass))
	pdf.SetFillColor(r, gr, b)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(g.pageWidth-g.margin-30, 15)
	pdf.CellFormat(30, 10, c.OverallResult, "", 0, "C", true, 0, "")

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetXY(g.margin, 50)
}

func (g *PDFGenerator) addInstallation(pdf *pdfPage, doc *Document) {
	c := &doc.Certificate
	g.addSectionHeader(pdf, "Installation")
	g.addLabelValue(pdf, "Installed", c.InstallationDate)
	g.addLabelValue(pdf, "Commissioned", c.CommissioningDate)
	g.addLabelValue(pdf, "Inspected", c.InspectionDate)
	g.addLabelValue(pdf, "Client", c.ClientName)
	g.addLabelValue(pdf, "Address", strings.TrimSpace(c.ClientAddress+" "+c.ClientPostcode))
	g.addLabelValue(pdf, "Installer", c.InstallerCompany)
	g.addLabelValue(pdf, "MCS Number", c.InstallerMCSNumber)
	g.addLabelValue(pdf, "Scheme", c.InstallerScheme)
	pdf.Ln(4)
}

func (g *PDFGenerator) addSystem(pdf *pdfPage, doc *Document) {
	c := &doc.Certificate
	g.addSectionHeader(pdf, "System")
	g.addLabelValue(pdf, "System Type", c.SystemType)
	g.addLabelValue(pdf, "Mounting", c.MountingType)
	g.addLabelValue(pdf, "Earthing", c.EarthingArrangement)
	g.addLabelValue(pdf, "Capacity", c.TotalCapacity+" kWp")
	g.addLabelValue(pdf, "Panels", FormatCount(c.TotalPanels))
	g.addLabelValue(pdf, "Est. Yield", FormatKWh(c.EstimatedYield)+" per year")
	g.addLabelValue(pdf, "CO2 Savings", c.CO2Savings+" kg per year")
	g.addLabelValue(pdf, "DC/AC Ratio", c.DCACRatio)

	if c.HasArrays {
		pdf.Ln(2)
		g.tableHeader(pdf, []string{"Array", "Panel", "Count", "kWp"}, []float64{40, 80, 30, 30})
		for _, a := range c.Arrays {
			g.tableRow(pdf, []string{
				TruncateText(a.Name, 22),
				TruncateText(strings.TrimSpace(a.Manufacturer+" "+a.Model), 45),
				FormatCount(a.PanelCount),
				a.Capacity,
			}, []float64{40, 80, 30, 30})
		}
	}

	if c.HasInverters {
		pdf.Ln(2)
		g.tableHeader(pdf, []string{"Inverter", "Type", "kW", "Qty"}, []float64{70, 60, 25, 25})
		for _, inv := range c.Inverters {
			g.tableRow(pdf, []string{
				TruncateText(strings.TrimSpace(inv.Manufacturer+" "+inv.Model), 40),
				TruncateText(inv.Type, 34),
				inv.RatedPower,
				FormatCount(inv.Quantity),
			}, []float64{70, 60, 25, 25})
		}
	}

	if c.HasBattery {
		pdf.Ln(2)
		g.addLabelValue(pdf, "Battery", strings.TrimSpace(c.BatteryManufacturer+" "+c.BatteryModel))
		g.addLabelValue(pdf, "Chemistry", c.BatteryChemistry)
		g.addLabelValue(pdf, "Capacity", c.BatteryCapacity)
	}

	g.addLabelValue(pdf, "DNO", c.DNO)
	g.addLabelValue(pdf, "Connection", c.ConnectionType)
	g.addLabelValue(pdf, "MPAN", c.MPAN)
	g.addLabelValue(pdf, "Meter", c.MeterType)
	pdf.Ln(4)
}

func (g *PDFGenerator) addTests(pdf *pdfPage, doc *Document) {
	c := &doc.Certificate
	g.addSectionHeader(pdf, "Test Results")

	pdf.SetFont("Helvetica", "", 10)
	for _, t := range testRows(c) {
		pdf.CellFormat(80, 7, t.Name, "B", 0, "L", false, 0, "")
		r, gr, b := HexToRGB(OutcomeColor(t.Class))
		pdf.SetTextColor(r, gr, b)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 7, t.Result, "B", 1, "C", false, 0, "")
		r, gr, b = HexToRGB(BrandColors.TextDark)
		pdf.SetTextColor(r, gr, b)
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.Ln(2)
	g.addLabelValue(pdf, "Insulation", withUnit(c.InsulationResistanceValue, "MOhm"))
	g.addLabelValue(pdf, "Zs", withUnit(c.EarthLoopImpedance, "Ohm"))
	g.addLabelValue(pdf, "RCD Trip", withUnit(c.RCDTripTime, "ms"))
	g.addLabelValue(pdf, "Tested By", c.TestedBy)
	g.addLabelValue(pdf, "Test Date", c.TestDate)
	pdf.Ln(4)
}

func (g *PDFGenerator) addDefects(pdf *pdfPage, doc *Document) {
	c := &doc.Certificate
	g.addSectionHeader(pdf, "Defects")

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("C1: %d   C2: %d   C3: %d   FI: %d", c.C1Count, c.C2Count, c.C3Count, c.FICount))
	pdf.Ln(8)

	for _, d := range c.Defects {
		r, gr, b := HexToRGB(SeverityColor(d.SeverityCode))
		pdf.SetTextColor(r, gr, b)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, pdf.tr(orDash(d.Severity)))
		pdf.Ln(6)

		r, gr, b = HexToRGB(BrandColors.TextDark)
		pdf.SetTextColor(r, gr, b)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(g.contentWidth, 5, pdf.tr(d.Description), "", "L", false)
		g.addLabelValue(pdf, "Location", d.Location)
		g.addLabelValue(pdf, "Remedial", d.RemedialAction)
		g.addLabelValue(pdf, "Remedied", d.Remedied)
		pdf.Ln(3)
	}
}

func (g *PDFGenerator) addPhotos(pdf *pdfPage, doc *Document) {
	c := &doc.Certificate
	pdf.AddPage()
	g.addSectionHeader(pdf, "Photographs")

	const imgWidth = 80.0
	for i, p := range c.Photos {
		img := doc.Image(i)
		if img != nil {
			name := fmt.Sprintf("photo-%d", i)
			opts := fpdf.ImageOptions{ImageType: imageType(img.ContentType), ReadDpi: true}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
			if pdf.Ok() {
				pdf.ImageOptions(name, g.margin, pdf.GetY(), imgWidth, 0, true, opts, 0, "")
			} else {
				// Skip undecodable photos.
				pdf.ClearError()
			}
		}
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(g.contentWidth, 5, pdf.tr(p.Caption), "", "L", false)
		pdf.Ln(3)
	}
}

func (g *PDFGenerator) addDeclaration(pdf *pdfPage, doc *Document) {
	c := &doc.Certificate
	g.addSectionHeader(pdf, "Declaration")
	g.addLabelValue(pdf, "Designer", c.DesignerName)
	g.addLabelValue(pdf, "Installer", c.InstallerSigned)
	g.addLabelValue(pdf, "Inspector", c.InspectorName)
	g.addLabelValue(pdf, "Date", c.DeclarationDate)
	g.addLabelValue(pdf, "BS 7671", c.CompliesBS7671)
	g.addLabelValue(pdf, "MCS", c.CompliesMCS)

	if c.HasNotes {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, "Notes")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(g.contentWidth, 5, pdf.tr(c.Notes), "", "L", false)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf *pdfPage, title string) {
	r, gr, b := HexToRGB(BrandColors.Primary)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.5)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)

	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(4)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *PDFGenerator) addLabelValue(pdf *pdfPage, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(40, 6, label+":")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.contentWidth-40, 6, pdf.tr(value), "", "L", false)
}

func (g *PDFGenerator) tableHeader(pdf *pdfPage, cols []string, widths []float64) {
	r, gr, b := HexToRGB(BrandColors.Background)
	pdf.SetFillColor(r, gr, b)
	pdf.SetFont("Helvetica", "B", 9)
	for i, col := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, col, "1", ln, "L", true, 0, "")
	}
}

func (g *PDFGenerator) tableRow(pdf *pdfPage, cells []string, widths []float64) {
	pdf.SetFont("Helvetica", "", 9)
	for i, cell := range cells {
		ln := 0
		if i == len(cells)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, pdf.tr(cell), "1", ln, "L", false, 0, "")
	}
}

func (g *PDFGenerator) addFooter(pdf *pdfPage, doc *Document) {
	pdf.SetY(-15)

	r, gr, b := HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	r, gr, b = HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 8)

	pdf.Cell(0, 10, "Generated: "+FormatDateTime(doc.GeneratedAt))

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}

func withUnit(value, unit string) string {
	if value == "" {
		return ""
	}
	return value + " " + unit
}

// imageType maps a content type to the fpdf image type name.
func imageType(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "PNG"
	case strings.Contains(contentType, "gif"):
		return "GIF"
	default:
		return "JPG"
	}
}
