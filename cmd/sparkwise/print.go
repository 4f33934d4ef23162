package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/DukeRupert/sparkwise/internal/battery"
	"github.com/DukeRupert/sparkwise/internal/pool"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
)

var printer = message.NewPrinter(language.BritishEnglish)

func printBattery(w io.Writer, in battery.Inputs, r *battery.Results) {
	fmt.Fprintf(w, "BATTERY (%s mode)\n", modeOrDefault(in.Mode))
	printer.Fprintf(w, "  Usable energy:      %.0f Wh\n", r.UsableEnergyWh)
	printer.Fprintf(w, "  Average power:      %.0f W\n", r.AveragePower)
	printer.Fprintf(w, "  Peak surge power:   %.0f W\n", r.PeakSurgePower)
	fmt.Fprintf(w, "  DC current:         %.2f A\n", r.DCCurrent)
	fmt.Fprintf(w, "  C-rate:             %.3fC\n", r.CRate)
	fmt.Fprintf(w, "  Temperature factor: %.3f\n", r.TemperatureFactor)
	fmt.Fprintf(w, "  Peukert factor:     %.3f\n", r.PeukertFactor)
	if r.Runtime != nil {
		fmt.Fprintf(w, "  Runtime:            %.2f h\n", *r.Runtime)
	}
	if r.RequiredAh != nil {
		printer.Fprintf(w, "  Required capacity:  %.1f Ah\n", *r.RequiredAh)
	}

	if len(r.PowerByPriority) > 0 {
		fmt.Fprintln(w, "\nLOAD BY PRIORITY:")
		for _, p := range []battery.Priority{battery.PriorityEssential, battery.PriorityImportant, battery.PriorityConvenience} {
			if watts, ok := r.PowerByPriority[p]; ok {
				printer.Fprintf(w, "  %-12s %.0f W\n", p, watts)
			}
		}
	}

	printList(w, "WARNINGS", r.Warnings)
}

func modeOrDefault(m battery.Mode) battery.Mode {
	if m == "" {
		return battery.ModeRuntime
	}
	return m
}

func printPool(w io.Writer, r *pool.Result) {
	fmt.Fprintln(w, "POOL INSTALLATION")
	printer.Fprintf(w, "  Total load:     %.0f W\n", r.TotalLoad)
	fmt.Fprintf(w, "  Total current:  %.2f A\n", r.TotalCurrent)
	fmt.Fprintf(w, "  Supply:         %s\n", r.SupplyRequirements)
	fmt.Fprintf(w, "  Protection:     %s\n", r.MainProtection)
	fmt.Fprintf(w, "  Earthing:       %s\n", r.EarthingArrangements)
	fmt.Fprintf(w, "  Cable table:    %s\n", r.TableVersion)

	fmt.Fprintf(w, "\nCIRCUITS (%d):\n", len(r.Circuits))
	for _, c := range r.Circuits {
		selv := ""
		if c.SELV {
			selv = " SELV"
		}
		fmt.Fprintf(w, "  %s [%s, %s%s]\n", c.Name, c.Zone, c.IPRating, selv)
		printer.Fprintf(w, "    %.0f W, %.2f A, %gmm² cable, %dA protection, %.2f%% drop\n",
			c.Load, c.Current, c.CableSize, c.ProtectionRating, c.VoltageDropPercent)
		if c.RCDRequired {
			fmt.Fprintln(w, "    30mA RCD required")
		}
		for _, req := range c.SpecialRequirements {
			fmt.Fprintf(w, "    * %s\n", req)
		}
		fmt.Fprintf(w, "    status: %s\n", c.ComplianceStatus)
	}

	printList(w, "BONDING", r.BondingRequirements)
	printList(w, "ISSUES", r.RegulatoryCompliance.Issues)
	printList(w, "RECOMMENDATIONS", r.RegulatoryCompliance.Recommendations)

	if r.RegulatoryCompliance.BS7671Section702 {
		fmt.Fprintln(w, "\nResult: COMPLIANT (BS 7671 Section 702)")
	} else {
		fmt.Fprintln(w, "\nResult: NON-COMPLIANT (BS 7671 Section 702)")
	}
}

func printCertificate(w io.Writer, c solarpv.Certificate) {
	fmt.Fprintf(w, "SOLAR PV CERTIFICATE %s\n", c.CertificateNumber)
	fmt.Fprintf(w, "  Client:      %s\n", c.ClientName)
	fmt.Fprintf(w, "  Installer:   %s\n", c.InstallerCompany)
	fmt.Fprintf(w, "  Installed:   %s\n", c.InstallationDate)
	fmt.Fprintf(w, "  System:      %s, %s\n", c.SystemType, c.MountingType)
	fmt.Fprintf(w, "  Capacity:    %s kWp from %d panels\n", c.TotalCapacity, c.TotalPanels)
	fmt.Fprintf(w, "  Yield:       %s kWh/yr (%s kg CO₂ saved)\n", c.EstimatedYield, c.CO2Savings)
	fmt.Fprintf(w, "  Inverters:   %s kW, DC/AC ratio %s\n", c.TotalInverterCapacity, c.DCACRatio)

	fmt.Fprintln(w, "\nTESTS:")
	tests := []struct{ name, result string }{
		{"DC isolator", c.DCIsolatorTest},
		{"AC isolator", c.ACIsolatorTest},
		{"Polarity", c.PolarityTest},
		{"Earth continuity", c.EarthContinuityTest},
		{"Insulation resistance", c.InsulationResistanceTest},
		{"String voltage", c.StringVoltageTest},
		{"Anti-islanding", c.AntiIslandingTest},
		{"RCD", c.RCDTest},
		{"Functional", c.FunctionalTest},
	}
	for _, t := range tests {
		fmt.Fprintf(w, "  %-22s %s\n", t.name, t.result)
	}

	if c.HasDefects {
		fmt.Fprintf(w, "\nDEFECTS (C1 %d, C2 %d, C3 %d, FI %d):\n", c.C1Count, c.C2Count, c.C3Count, c.FICount)
		for _, d := range c.Defects {
			fmt.Fprintf(w, "  [%s] %s\n", d.SeverityCode, d.Description)
		}
	}

	fmt.Fprintf(w, "\nResult: %s\n", strings.ToUpper(c.OverallResult))
}

func printFieldErrors(w io.Writer, errs map[string]string) {
	if len(errs) == 0 {
		fmt.Fprintln(w, "Result: VALID")
		return
	}

	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	fmt.Fprintf(w, "ERRORS (%d):\n", len(errs))
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %s\n", f, errs[f])
	}
	fmt.Fprintln(w, "\nResult: INVALID")
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "  * %s\n", item)
	}
}
