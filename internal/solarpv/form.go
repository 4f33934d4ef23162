// Package solarpv formats solar PV installation records into certificates.
//
// FormData mirrors the installer's form and may be arbitrarily sparse.
// Format is total: every missing or malformed value degrades to an empty
// string, zero or false, so the Certificate it returns can be rendered
// without further checks.
package solarpv

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// Lenient scalars
// =============================================================================

// Number is a float that decodes from a JSON number or numeric string.
// Anything else, including null, NaN and infinities, decodes as 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler. It never returns an error.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = 0
	s := string(bytes.TrimSpace(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = Number(v)
	return nil
}

// Float returns n as a float64.
func (n Number) Float() float64 {
	return float64(n)
}

// MaxCount is the largest quantity Count accepts. Larger values are
// treated as malformed.
const MaxCount = 1_000_000

// Count returns n as a non-negative whole number. Values above MaxCount
// count as 0.
func (n Number) Count() int64 {
	if n <= 0 || n > MaxCount {
		return 0
	}
	return int64(math.Round(float64(n)))
}

// Flag is a tri-state boolean: set true, set false, or not recorded.
type Flag int8

const (
	FlagUnset Flag = iota
	FlagTrue
	FlagFalse
)

// UnmarshalJSON implements json.Unmarshaler. Booleans, 1/0 and the strings
// yes/no, pass/fail and true/false are understood; anything else is unset.
func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = FlagUnset
	s := string(bytes.TrimSpace(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = str
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "pass", "passed", "ok", "1":
		*f = FlagTrue
	case "false", "no", "n", "fail", "failed", "0":
		*f = FlagFalse
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	switch f {
	case FlagTrue:
		return []byte("true"), nil
	case FlagFalse:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// IsSet reports whether a value was recorded.
func (f Flag) IsSet() bool {
	return f == FlagTrue || f == FlagFalse
}

// =============================================================================
// Form data
// =============================================================================

// FormData is the installer's record of a PV installation.
type FormData struct {
	CertificateNumber string         `json:"certificateNumber"`
	InstallationDate  string         `json:"installationDate"`
	CommissioningDate string         `json:"commissioningDate"`
	InspectionDate    string         `json:"inspectionDate"`
	Client            Client         `json:"client"`
	Installer         Installer      `json:"installer"`
	System            System         `json:"system"`
	Arrays            []Array        `json:"arrays"`
	Inverters         []Inverter     `json:"inverters"`
	Battery           *Battery       `json:"battery"`
	GridConnection    GridConnection `json:"gridConnection"`
	Metering          Metering       `json:"metering"`
	TestResults       TestResults    `json:"testResults"`
	Defects           []Defect       `json:"defects"`
	Photos            []Photo        `json:"photos"`
	Declarations      Declarations   `json:"declarations"`
	Notes             string         `json:"notes"`
}

type Client struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Postcode string `json:"postcode"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type Installer struct {
	Company            string `json:"company"`
	Name               string `json:"name"`
	MCSNumber          string `json:"mcsNumber"`
	Address            string `json:"address"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Scheme             string `json:"competentPersonScheme"`
	RegistrationNumber string `json:"registrationNumber"`
}

type System struct {
	Type                string `json:"systemType"`
	MountingType        string `json:"mountingType"`
	EarthingArrangement string `json:"earthingArrangement"`
	Description         string `json:"description"`
}

type Array struct {
	Name                string `json:"name"`
	PanelManufacturer   string `json:"panelManufacturer"`
	PanelModel          string `json:"panelModel"`
	PanelWattage        Number `json:"panelWattage"`
	PanelCount          Number `json:"panelCount"`
	Orientation         string `json:"orientation"`
	Tilt                Number `json:"tilt"`
	Shading             string `json:"shading"`
	StringConfiguration string `json:"stringConfiguration"`
	OpenCircuitVoltage  Number `json:"openCircuitVoltage"`
	ShortCircuitCurrent Number `json:"shortCircuitCurrent"`
}

type Inverter struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Type         string `json:"type"`
	RatedPowerKW Number `json:"ratedPower"`
	Quantity     Number `json:"quantity"`
	SerialNumber string `json:"serialNumber"`
}

type Battery struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Chemistry    string `json:"chemistry"`
	CapacityKWh  Number `json:"capacity"`
	UsableKWh    Number `json:"usableCapacity"`
	SerialNumber string `json:"serialNumber"`
}

type GridConnection struct {
	DNO                  string `json:"dno"`
	ConnectionType       string `json:"connectionType"`
	ApplicationReference string `json:"applicationReference"`
	MPAN                 string `json:"mpan"`
	ExportLimited        Flag   `json:"exportLimited"`
	ExportLimitKW        Number `json:"exportLimit"`
}

type Metering struct {
	MeterType             string `json:"meterType"`
	GenerationMeterSerial string `json:"generationMeterSerial"`
	ExportMeterSerial     string `json:"exportMeterSerial"`
	InitialReading        Number `json:"initialReading"`
}

// TestResults holds the commissioning tests. Flags record pass or fail;
// the measurements are in MΩ, Ω and ms.
type TestResults struct {
	DCIsolator           Flag   `json:"dcIsolator"`
	ACIsolator           Flag   `json:"acIsolator"`
	Polarity             Flag   `json:"polarity"`
	EarthContinuity      Flag   `json:"earthContinuity"`
	InsulationResistance Flag   `json:"insulationResistance"`
	StringVoltage        Flag   `json:"stringVoltage"`
	AntiIslanding        Flag   `json:"antiIslanding"`
	RCD                  Flag   `json:"rcd"`
	Functional           Flag   `json:"functional"`
	InsulationMegohms    Number `json:"insulationResistanceValue"`
	EarthLoopImpedance   Number `json:"earthLoopImpedance"`
	RCDTripTimeMs        Number `json:"rcdTripTime"`
	TestDate             string `json:"testDate"`
	TestedBy             string `json:"testedBy"`
}

type Defect struct {
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	Location       string `json:"location"`
	RemedialAction string `json:"remedialAction"`
	Remedied       Flag   `json:"remedied"`
}

// Photo is an installation photo held in object storage under Key, or at URL.
type Photo struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Category string `json:"category"`
}

type Declarations struct {
	DesignerName    string `json:"designerName"`
	InstallerName   string `json:"installerName"`
	InspectorName   string `json:"inspectorName"`
	DeclarationDate string `json:"declarationDate"`
	CompliesBS7671  Flag   `json:"compliesBS7671"`
	CompliesMCS     Flag   `json:"compliesMCS"`
}

// ParseFormData decodes raw leniently. Fields whose JSON type does not
// match are left at their zero value; malformed JSON yields an empty form.
func ParseFormData(raw []byte) *FormData {
	var data FormData
	if err := json.Unmarshal(raw, &data); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return &FormData{}
		}
	}
	return &data
}
