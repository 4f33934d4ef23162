package solarpv

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// UK regional constants used for the derived figures.
var (
	// YieldFactor is the estimated annual yield in kWh per kWp installed.
	YieldFactor = decimal.NewFromInt(850)

	// EmissionFactor is the grid carbon intensity in kg CO₂ per kWh.
	EmissionFactor = decimal.RequireFromString("0.233")
)

// Certificate is the flat, display-ready form of FormData. Keys are
// snake_case; each test result has a _class sibling for styling.
type Certificate struct {
	CertificateNumber string `json:"certificate_number"`
	InstallationDate  string `json:"installation_date"`
	CommissioningDate string `json:"commissioning_date"`
	InspectionDate    string `json:"inspection_date"`

	ClientName     string `json:"client_name"`
	ClientAddress  string `json:"client_address"`
	ClientPostcode string `json:"client_postcode"`
	ClientEmail    string `json:"client_email"`
	ClientPhone    string `json:"client_phone"`

	InstallerCompany      string `json:"installer_company"`
	InstallerName         string `json:"installer_name"`
	InstallerMCSNumber    string `json:"installer_mcs_number"`
	InstallerAddress      string `json:"installer_address"`
	InstallerPhone        string `json:"installer_phone"`
	InstallerEmail        string `json:"installer_email"`
	InstallerScheme       string `json:"installer_scheme"`
	InstallerRegistration string `json:"installer_registration"`

	SystemType          string `json:"system_type"`
	MountingType        string `json:"mounting_type"`
	EarthingArrangement string `json:"earthing_arrangement"`
	SystemDescription   string `json:"system_description"`

	Arrays         []ArrayRow `json:"arrays"`
	HasArrays      bool       `json:"has_arrays"`
	TotalCapacity  string     `json:"total_capacity"`
	TotalPanels    int64      `json:"total_panels"`
	EstimatedYield string     `json:"estimated_yield"`
	CO2Savings     string     `json:"co2_savings"`

	Inverters             []InverterRow `json:"inverters"`
	HasInverters          bool          `json:"has_inverters"`
	TotalInverterCapacity string        `json:"total_inverter_capacity"`
	DCACRatio             string        `json:"dc_ac_ratio"`

	HasBattery            bool   `json:"has_battery"`
	BatteryManufacturer   string `json:"battery_manufacturer"`
	BatteryModel          string `json:"battery_model"`
	BatteryChemistry      string `json:"battery_chemistry"`
	BatteryCapacity       string `json:"battery_capacity"`
	BatteryUsableCapacity string `json:"battery_usable_capacity"`
	BatterySerial         string `json:"battery_serial"`

	DNO                  string `json:"dno"`
	ConnectionType       string `json:"connection_type"`
	ApplicationReference string `json:"application_reference"`
	MPAN                 string `json:"mpan"`
	ExportLimited        string `json:"export_limited"`
	ExportLimit          string `json:"export_limit"`

	MeterType             string `json:"meter_type"`
	GenerationMeterSerial string `json:"generation_meter_serial"`
	ExportMeterSerial     string `json:"export_meter_serial"`
	InitialMeterReading   string `json:"initial_meter_reading"`

	DCIsolatorTest                string `json:"dc_isolator_test"`
	DCIsolatorTestClass           string `json:"dc_isolator_test_class"`
	ACIsolatorTest                string `json:"ac_isolator_test"`
	ACIsolatorTestClass           string `json:"ac_isolator_test_class"`
	PolarityTest                  string `json:"polarity_test"`
	PolarityTestClass             string `json:"polarity_test_class"`
	EarthContinuityTest           string `json:"earth_continuity_test"`
	EarthContinuityTestClass      string `json:"earth_continuity_test_class"`
	InsulationResistanceTest      string `json:"insulation_resistance_test"`
	InsulationResistanceTestClass string `json:"insulation_resistance_test_class"`
	StringVoltageTest             string `json:"string_voltage_test"`
	StringVoltageTestClass        string `json:"string_voltage_test_class"`
	AntiIslandingTest             string `json:"anti_islanding_test"`
	AntiIslandingTestClass        string `json:"anti_islanding_test_class"`
	RCDTest                       string `json:"rcd_test"`
	RCDTestClass                  string `json:"rcd_test_class"`
	FunctionalTest                string `json:"functional_test"`
	FunctionalTestClass           string `json:"functional_test_class"`
	InsulationResistanceValue     string `json:"insulation_resistance_value"`
	EarthLoopImpedance            string `json:"earth_loop_impedance"`
	RCDTripTime                   string `json:"rcd_trip_time"`
	TestDate                      string `json:"test_date"`
	TestedBy                      string `json:"tested_by"`

	Defects    []DefectRow `json:"defects"`
	HasDefects bool        `json:"has_defects"`
	C1Count    int         `json:"c1_count"`
	C2Count    int         `json:"c2_count"`
	C3Count    int         `json:"c3_count"`
	FICount    int         `json:"fi_count"`

	Photos    []PhotoRow `json:"photos"`
	HasPhotos bool       `json:"has_photos"`

	DesignerName    string `json:"designer_name"`
	InstallerSigned string `json:"installer_signatory"`
	InspectorName   string `json:"inspector_name"`
	DeclarationDate string `json:"declaration_date"`
	CompliesBS7671  string `json:"complies_bs7671"`
	CompliesMCS     string `json:"complies_mcs"`

	OverallResult      string `json:"overall_result"`
	OverallResultClass string `json:"overall_result_class"`

	Notes    string `json:"notes"`
	HasNotes bool   `json:"has_notes"`
}

// ArrayRow is one PV array on the certificate.
type ArrayRow struct {
	Name                string  `json:"name"`
	Manufacturer        string  `json:"manufacturer"`
	Model               string  `json:"model"`
	PanelWattage        float64 `json:"panel_wattage"`
	PanelCount          int64   `json:"panel_count"`
	Capacity            string  `json:"capacity"`
	Orientation         string  `json:"orientation"`
	Tilt                float64 `json:"tilt"`
	Shading             string  `json:"shading"`
	StringConfiguration string  `json:"string_configuration"`
	OpenCircuitVoltage  float64 `json:"open_circuit_voltage"`
	ShortCircuitCurrent float64 `json:"short_circuit_current"`
}

// InverterRow is one inverter model on the certificate.
type InverterRow struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Type         string `json:"type"`
	RatedPower   string `json:"rated_power"`
	Quantity     int64  `json:"quantity"`
	SerialNumber string `json:"serial_number"`
}

// DefectRow is one recorded defect.
type DefectRow struct {
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	SeverityCode   string `json:"severity_code"`
	Location       string `json:"location"`
	RemedialAction string `json:"remedial_action"`
	Remedied       string `json:"remedied"`
}

// PhotoRow is one installation photo. URL is filled in by the renderer
// when the photo is held in storage.
type PhotoRow struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Category string `json:"category"`
}

// FormatJSON decodes raw leniently and formats it. It never fails: invalid
// JSON produces the fully defaulted certificate.
func FormatJSON(raw []byte) Certificate {
	return Format(ParseFormData(raw))
}

// Format flattens data into a Certificate. A nil data is treated as an
// empty form.
func Format(data *FormData) Certificate {
	if data == nil {
		data = &FormData{}
	}

	c := Certificate{
		CertificateNumber: data.CertificateNumber,
		InstallationDate:  FormatDate(data.InstallationDate),
		CommissioningDate: FormatDate(data.CommissioningDate),
		InspectionDate:    FormatDate(data.InspectionDate),

		ClientName:     data.Client.Name,
		ClientAddress:  data.Client.Address,
		ClientPostcode: data.Client.Postcode,
		ClientEmail:    data.Client.Email,
		ClientPhone:    data.Client.Phone,

		InstallerCompany:      data.Installer.Company,
		InstallerName:         data.Installer.Name,
		InstallerMCSNumber:    data.Installer.MCSNumber,
		InstallerAddress:      data.Installer.Address,
		InstallerPhone:        data.Installer.Phone,
		InstallerEmail:        data.Installer.Email,
		InstallerScheme:       data.Installer.Scheme,
		InstallerRegistration: data.Installer.RegistrationNumber,

		SystemType:          SystemTypeLabel(data.System.Type),
		MountingType:        MountingLabel(data.System.MountingType),
		EarthingArrangement: EarthingLabel(data.System.EarthingArrangement),
		SystemDescription:   data.System.Description,

		DNO:                  data.GridConnection.DNO,
		ConnectionType:       ConnectionTypeLabel(data.GridConnection.ConnectionType),
		ApplicationReference: data.GridConnection.ApplicationReference,
		MPAN:                 data.GridConnection.MPAN,
		ExportLimited:        YesNo(data.GridConnection.ExportLimited),
		ExportLimit:          fixedOrEmpty(data.GridConnection.ExportLimitKW, 2),

		MeterType:             MeterTypeLabel(data.Metering.MeterType),
		GenerationMeterSerial: data.Metering.GenerationMeterSerial,
		ExportMeterSerial:     data.Metering.ExportMeterSerial,
		InitialMeterReading:   fixedOrEmpty(data.Metering.InitialReading, 1),

		DesignerName:    data.Declarations.DesignerName,
		InstallerSigned: data.Declarations.InstallerName,
		InspectorName:   data.Declarations.InspectorName,
		DeclarationDate: FormatDate(data.Declarations.DeclarationDate),
		CompliesBS7671:  YesNo(data.Declarations.CompliesBS7671),
		CompliesMCS:     YesNo(data.Declarations.CompliesMCS),

		Notes:    data.Notes,
		HasNotes: data.Notes != "",
	}

	formatArrays(&c, data.Arrays)
	formatInverters(&c, data.Inverters)
	formatBattery(&c, data.Battery)
	formatTests(&c, data.TestResults)
	formatDefects(&c, data.Defects)
	formatPhotos(&c, data.Photos)

	overall := overallOutcome(data.TestResults, data.Defects)
	c.OverallResult = overall.Label()
	c.OverallResultClass = overall.Class()

	return c
}

func formatArrays(c *Certificate, arrays []Array) {
	c.Arrays = make([]ArrayRow, 0, len(arrays))

	total := decimal.Zero
	for _, a := range arrays {
		count := a.PanelCount.Count()
		capacity := arrayCapacity(a)
		total = total.Add(capacity)
		c.TotalPanels += count

		c.Arrays = append(c.Arrays, ArrayRow{
			Name:                a.Name,
			Manufacturer:        a.PanelManufacturer,
			Model:               a.PanelModel,
			PanelWattage:        nonNegative(a.PanelWattage),
			PanelCount:          count,
			Capacity:            capacity.StringFixed(2),
			Orientation:         a.Orientation,
			Tilt:                a.Tilt.Float(),
			Shading:             ShadingLabel(a.Shading),
			StringConfiguration: a.StringConfiguration,
			OpenCircuitVoltage:  nonNegative(a.OpenCircuitVoltage),
			ShortCircuitCurrent: nonNegative(a.ShortCircuitCurrent),
		})
	}
	c.HasArrays = len(c.Arrays) > 0

	capacity := total.Round(2)
	yield := capacity.Mul(YieldFactor).Round(0)
	co2 := yield.Mul(EmissionFactor).Round(2)

	c.TotalCapacity = capacity.StringFixed(2)
	c.EstimatedYield = yield.StringFixed(0)
	c.CO2Savings = co2.StringFixed(2)
}

// arrayCapacity returns the array's DC capacity in kWp.
func arrayCapacity(a Array) decimal.Decimal {
	watts := decimal.NewFromFloat(nonNegative(a.PanelWattage))
	return watts.Mul(decimal.NewFromInt(a.PanelCount.Count())).Div(decimal.NewFromInt(1000))
}

func formatInverters(c *Certificate, inverters []Inverter) {
	c.Inverters = make([]InverterRow, 0, len(inverters))

	total := decimal.Zero
	for _, inv := range inverters {
		qty := inv.Quantity.Count()
		if qty == 0 {
			qty = 1
		}
		rated := decimal.NewFromFloat(nonNegative(inv.RatedPowerKW))
		total = total.Add(rated.Mul(decimal.NewFromInt(qty)))

		c.Inverters = append(c.Inverters, InverterRow{
			Manufacturer: inv.Manufacturer,
			Model:        inv.Model,
			Type:         InverterTypeLabel(inv.Type),
			RatedPower:   rated.StringFixed(2),
			Quantity:     qty,
			SerialNumber: inv.SerialNumber,
		})
	}
	c.HasInverters = len(c.Inverters) > 0
	c.TotalInverterCapacity = total.Round(2).StringFixed(2)

	if total.IsPositive() {
		dc := decimal.RequireFromString(c.TotalCapacity)
		c.DCACRatio = dc.Div(total).Round(2).StringFixed(2)
	}
}

func formatBattery(c *Certificate, b *Battery) {
	if b == nil {
		return
	}
	c.HasBattery = true
	c.BatteryManufacturer = b.Manufacturer
	c.BatteryModel = b.Model
	c.BatteryChemistry = BatteryChemistryLabel(b.Chemistry)
	c.BatteryCapacity = fixedOrEmpty(b.CapacityKWh, 2)
	c.BatteryUsableCapacity = fixedOrEmpty(b.UsableKWh, 2)
	c.BatterySerial = b.SerialNumber
}

func formatTests(c *Certificate, t TestResults) {
	set := func(f Flag, label, class *string) {
		o := OutcomeOf(f)
		*label = o.Label()
		*class = o.Class()
	}
	set(t.DCIsolator, &c.DCIsolatorTest, &c.DCIsolatorTestClass)
	set(t.ACIsolator, &c.ACIsolatorTest, &c.ACIsolatorTestClass)
	set(t.Polarity, &c.PolarityTest, &c.PolarityTestClass)
	set(t.EarthContinuity, &c.EarthContinuityTest, &c.EarthContinuityTestClass)
	set(t.InsulationResistance, &c.InsulationResistanceTest, &c.InsulationResistanceTestClass)
	set(t.StringVoltage, &c.StringVoltageTest, &c.StringVoltageTestClass)
	set(t.AntiIslanding, &c.AntiIslandingTest, &c.AntiIslandingTestClass)
	set(t.RCD, &c.RCDTest, &c.RCDTestClass)
	set(t.Functional, &c.FunctionalTest, &c.FunctionalTestClass)

	c.InsulationResistanceValue = fixedOrEmpty(t.InsulationMegohms, 1)
	c.EarthLoopImpedance = fixedOrEmpty(t.EarthLoopImpedance, 2)
	c.RCDTripTime = fixedOrEmpty(t.RCDTripTimeMs, 0)
	c.TestDate = FormatDate(t.TestDate)
	c.TestedBy = t.TestedBy
}

func formatDefects(c *Certificate, defects []Defect) {
	c.Defects = make([]DefectRow, 0, len(defects))
	for _, d := range defects {
		code := normalize(d.Severity)
		switch code {
		case SeverityC1:
			c.C1Count++
		case SeverityC2:
			c.C2Count++
		case SeverityC3:
			c.C3Count++
		case SeverityFI:
			c.FICount++
		}
		c.Defects = append(c.Defects, DefectRow{
			Description:    d.Description,
			Severity:       DefectSeverityLabel(d.Severity),
			SeverityCode:   code,
			Location:       d.Location,
			RemedialAction: d.RemedialAction,
			Remedied:       YesNo(d.Remedied),
		})
	}
	c.HasDefects = len(c.Defects) > 0
}

func formatPhotos(c *Certificate, photos []Photo) {
	c.Photos = make([]PhotoRow, 0, len(photos))
	for _, p := range photos {
		if p.Key == "" && p.URL == "" {
			continue
		}
		c.Photos = append(c.Photos, PhotoRow{
			Key:      p.Key,
			URL:      p.URL,
			Caption:  p.Caption,
			Category: p.Category,
		})
	}
	c.HasPhotos = len(c.Photos) > 0
}

// overallOutcome fails the installation on any failed test or any
// unremedied C1 or C2 defect. It passes when at least one test passed.
func overallOutcome(t TestResults, defects []Defect) Outcome {
	for _, d := range defects {
		code := normalize(d.Severity)
		if (code == SeverityC1 || code == SeverityC2) && d.Remedied != FlagTrue {
			return Fail
		}
	}

	passed := false
	for _, f := range []Flag{
		t.DCIsolator, t.ACIsolator, t.Polarity, t.EarthContinuity,
		t.InsulationResistance, t.StringVoltage, t.AntiIslanding, t.RCD, t.Functional,
	} {
		switch OutcomeOf(f) {
		case Fail:
			return Fail
		case Pass:
			passed = true
		}
	}
	if passed {
		return Pass
	}
	return NotApplicable
}

var isoDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// FormatDate converts an ISO date (YYYY-MM-DD, optionally followed by a
// time) to DD/MM/YYYY. Any other string is returned unchanged.
func FormatDate(s string) string {
	m := isoDate.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[3] + "/" + m[2] + "/" + m[1]
}

func nonNegative(n Number) float64 {
	if n < 0 {
		return 0
	}
	return float64(n)
}

// fixedOrEmpty formats a positive measurement to places decimals and
// leaves unrecorded (zero or negative) values blank.
func fixedOrEmpty(n Number, places int32) string {
	if n <= 0 {
		return ""
	}
	return decimal.NewFromFloat(float64(n)).StringFixed(places)
}
