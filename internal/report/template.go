package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/DukeRupert/sparkwise/internal/solarpv"
)

var (
	printer   = message.NewPrinter(language.BritishEnglish)
	titleCase = cases.Title(language.BritishEnglish)
)

// testRow is one commissioning test as printed on the certificate.
type testRow struct {
	Name   string
	Result string
	Class  string
}

func testRows(c *solarpv.Certificate) []testRow {
	return []testRow{
		{"DC isolator", c.DCIsolatorTest, c.DCIsolatorTestClass},
		{"AC isolator", c.ACIsolatorTest, c.ACIsolatorTestClass},
		{"Polarity", c.PolarityTest, c.PolarityTestClass},
		{"Earth continuity", c.EarthContinuityTest, c.EarthContinuityTestClass},
		{"Insulation resistance", c.InsulationResistanceTest, c.InsulationResistanceTestClass},
		{"String voltage", c.StringVoltageTest, c.StringVoltageTestClass},
		{"Anti-islanding", c.AntiIslandingTest, c.AntiIslandingTestClass},
		{"RCD", c.RCDTest, c.RCDTestClass},
		{"Functional", c.FunctionalTest, c.FunctionalTestClass},
	}
}

const badgeBase = "inline-block rounded px-2 py-0.5 text-xs font-semibold bg-gray-100 text-gray-700"

var badgeVariants = map[string]string{
	"pass": "bg-green-100 text-green-800",
	"fail": "bg-red-100 text-red-800",
	"na":   "text-gray-500",
}

// BadgeClass returns the merged utility classes for an outcome badge.
func BadgeClass(class string) string {
	return twmerge.Merge(badgeBase, badgeVariants[class])
}

// FormatKWh formats an energy figure with thousands grouping.
// Values that do not parse are returned unchanged.
func FormatKWh(s string) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return printer.Sprintf("%.0f kWh", v)
}

// FormatCount formats a whole number with thousands grouping.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

func (h *htmlWriter) field(label, value string) {
	if value == "" {
		return
	}
	h.raw(`<tr><th>`)
	h.text(label)
	h.raw(`</th><td>`)
	h.text(value)
	h.raw(`</td></tr>`)
}

func (h *htmlWriter) badge(label, class string) {
	h.rawf(`<span class="%s" style="color:%s">`, templ.EscapeString(BadgeClass(class)), OutcomeColor(class))
	h.text(label)
	h.raw(`</span>`)
}

func (h *htmlWriter) section(title string) {
	h.rawf(`<h2 style="color:%s;border-bottom:2px solid %s">`, BrandColors.Primary, BrandColors.Primary)
	h.text(title)
	h.raw(`</h2>`)
}

const certificateCSS = `body{font-family:Helvetica,Arial,sans-serif;color:#1F2937;font-size:10pt;margin:0}
header{padding:16px 24px;color:#fff}
main{padding:0 24px 24px}
table{width:100%;border-collapse:collapse;margin-bottom:12px}
th,td{text-align:left;padding:4px 6px;border-bottom:1px solid #E5E7EB;vertical-align:top}
th{width:35%;font-weight:600}
table.grid th{width:auto;background:#F9FAFB}
.photos img{max-width:240px;max-height:180px;display:block}
.photos figure{display:inline-block;margin:0 12px 12px 0}
footer{color:#6B7280;font-size:8pt;padding:0 24px 12px}`

// CertificatePage renders the certificate as a standalone HTML page.
func CertificatePage(doc *Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		c := &doc.Certificate
		h := &htmlWriter{w: w}

		h.raw(`<!DOCTYPE html><html lang="en-GB"><head><meta charset="utf-8"><title>`)
		h.text("Solar PV Installation Certificate " + c.CertificateNumber)
		h.raw(`</title><style>` + certificateCSS + `</style></head><body>`)

		h.rawf(`<header style="background:%s"><h1>Solar PV Installation Certificate</h1><p>`, BrandColors.Primary)
		h.text("Certificate No. " + orDash(c.CertificateNumber))
		h.raw(`</p><p>Overall result: `)
		h.badge(c.OverallResult, c.OverallResultClass)
		h.raw(`</p></header><main>`)

		h.section("Installation")
		h.raw(`<table>`)
		h.field("Installation date", c.InstallationDate)
		h.field("Commissioning date", c.CommissioningDate)
		h.field("Inspection date", c.InspectionDate)
		h.field("Client", c.ClientName)
		h.field("Address", c.ClientAddress)
		h.field("Postcode", c.ClientPostcode)
		h.field("Installer", c.InstallerCompany)
		h.field("MCS number", c.InstallerMCSNumber)
		h.field("Competent person scheme", c.InstallerScheme)
		h.raw(`</table>`)

		h.section("System")
		h.raw(`<table>`)
		h.field("System type", c.SystemType)
		h.field("Mounting", c.MountingType)
		h.field("Earthing", c.EarthingArrangement)
		h.field("Total capacity", c.TotalCapacity+" kWp")
		h.field("Total panels", FormatCount(c.TotalPanels))
		h.field("Estimated annual yield", FormatKWh(c.EstimatedYield))
		h.field("Estimated CO₂ savings", c.CO2Savings+" kg/year")
		h.field("DC/AC ratio", c.DCACRatio)
		h.raw(`</table>`)

		if c.HasArrays {
			h.raw(`<table class="grid"><tr><th>Array</th><th>Panel</th><th>Count</th><th>kWp</th><th>Orientation</th><th>Shading</th></tr>`)
			for _, a := range c.Arrays {
				h.raw(`<tr><td>`)
				h.text(a.Name)
				h.raw(`</td><td>`)
				h.text(strings.TrimSpace(a.Manufacturer + " " + a.Model))
				h.raw(`</td><td>`)
				h.text(FormatCount(a.PanelCount))
				h.raw(`</td><td>`)
				h.text(a.Capacity)
				h.raw(`</td><td>`)
				h.text(a.Orientation)
				h.raw(`</td><td>`)
				h.text(a.Shading)
				h.raw(`</td></tr>`)
			}
			h.raw(`</table>`)
		}

		if c.HasInverters {
			h.raw(`<table class="grid"><tr><th>Inverter</th><th>Type</th><th>Rated kW</th><th>Qty</th><th>Serial</th></tr>`)
			for _, inv := range c.Inverters {
				h.raw(`<tr><td>`)
				h.text(strings.TrimSpace(inv.Manufacturer + " " + inv.Model))
				h.raw(`</td><td>`)
				h.text(inv.Type)
				h.raw(`</td><td>`)
				h.text(inv.RatedPower)
				h.raw(`</td><td>`)
				h.text(FormatCount(inv.Quantity))
				h.raw(`</td><td>`)
				h.text(inv.SerialNumber)
				h.raw(`</td></tr>`)
			}
			h.raw(`</table>`)
		}

		if c.HasBattery {
			h.section("Battery Storage")
			h.raw(`<table>`)
			h.field("Battery", strings.TrimSpace(c.BatteryManufacturer+" "+c.BatteryModel))
			h.field("Chemistry", c.BatteryChemistry)
			h.field("Capacity (kWh)", c.BatteryCapacity)
			h.field("Usable capacity (kWh)", c.BatteryUsableCapacity)
			h.raw(`</table>`)
		}

		h.section("Grid Connection & Metering")
		h.raw(`<table>`)
		h.field("DNO", c.DNO)
		h.field("Connection", c.ConnectionType)
		h.field("MPAN", c.MPAN)
		h.field("Export limited", c.ExportLimited)
		h.field("Export limit (kW)", c.ExportLimit)
		h.field("Meter", c.MeterType)
		h.field("Initial reading", c.InitialMeterReading)
		h.raw(`</table>`)

		h.section("Test Results")
		h.raw(`<table>`)
		for _, t := range testRows(c) {
			h.raw(`<tr><th>`)
			h.text(t.Name)
			h.raw(`</th><td>`)
			h.badge(t.Result, t.Class)
			h.raw(`</td></tr>`)
		}
		h.field("Insulation resistance (MΩ)", c.InsulationResistanceValue)
		h.field("Earth loop impedance (Ω)", c.EarthLoopImpedance)
		h.field("RCD trip time (ms)", c.RCDTripTime)
		h.field("Tested by", c.TestedBy)
		h.field("Test date", c.TestDate)
		h.raw(`</table>`)

		if c.HasDefects {
			h.section("Defects")
			h.raw(`<table class="grid"><tr><th>Severity</th><th>Description</th><th>Location</th><th>Remedied</th></tr>`)
			for _, d := range c.Defects {
				h.rawf(`<tr><td style="color:%s">`, SeverityColor(d.SeverityCode))
				h.text(d.Severity)
				h.raw(`</td><td>`)
				h.text(d.Description)
				h.raw(`</td><td>`)
				h.text(d.Location)
				h.raw(`</td><td>`)
				h.text(d.Remedied)
				h.raw(`</td></tr>`)
			}
			h.raw(`</table>`)
		}

		if c.HasPhotos {
			h.section("Photographs")
			h.raw(`<div class="photos">`)
			for i, p := range c.Photos {
				h.raw(`<figure>`)
				if img := doc.Image(i); img != nil {
					h.rawf(`<img src="data:%s;base64,%s" alt="%s">`,
						templ.EscapeString(img.ContentType),
						base64.StdEncoding.EncodeToString(img.Data),
						templ.EscapeString(p.Caption))
				}
				h.raw(`<figcaption>`)
				h.text(p.Caption)
				if p.Category != "" {
					h.text(" (" + titleCase.String(p.Category) + ")")
				}
				h.raw(`</figcaption></figure>`)
			}
			h.raw(`</div>`)
		}

		h.section("Declaration")
		h.raw(`<table>`)
		h.field("Designer", c.DesignerName)
		h.field("Installer", c.InstallerSigned)
		h.field("Inspector", c.InspectorName)
		h.field("Date", c.DeclarationDate)
		h.field("Complies with BS 7671", c.CompliesBS7671)
		h.field("Complies with MCS", c.CompliesMCS)
		h.raw(`</table>`)

		if c.HasNotes {
			h.section("Notes")
			h.raw(`<p>`)
			h.text(c.Notes)
			h.raw(`</p>`)
		}

		h.raw(`</main><footer>Generated `)
		h.text(FormatDateTime(doc.GeneratedAt))
		h.raw(`</footer></body></html>`)

		return h.err
	})
}
