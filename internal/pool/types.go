// Package pool calculates the electrical installation for a swimming pool.
//
// Calculate builds one circuit per load category, selects protective
// devices and cables from a versioned rating table, and checks every
// circuit against the zone rules for swimming pool locations
// (BS 7671 Section 702). Input problems are reported per field by
// Validate; zone and bonding problems are reported as compliance issues
// in the Result, not as errors.
package pool

// =============================================================================
// Enumerations
// =============================================================================

// PoolType classifies the pool by use.
type PoolType string

const (
	PoolTypePrivate    PoolType = "private"
	PoolTypePublic     PoolType = "public"
	PoolTypeCommercial PoolType = "commercial"
	PoolTypeTherapy    PoolType = "therapy"
)

// String returns the string representation of the pool type.
func (p PoolType) String() string {
	return string(p)
}

// IsPrivate reports whether the pool is a private (domestic) pool.
func (p PoolType) IsPrivate() bool {
	return p == PoolTypePrivate
}

// Zone is a regulatory proximity band around the pool basin.
type Zone string

const (
	// Zone0 is the interior of the basin.
	Zone0 Zone = "zone0"

	// Zone1 extends 2 m horizontally from the rim and 2.5 m above it.
	Zone1 Zone = "zone1"

	// Zone2 extends a further 1.5 m beyond zone 1.
	Zone2 Zone = "zone2"
)

// String returns the string representation of the zone.
func (z Zone) String() string {
	return string(z)
}

// Label returns the display name of the zone.
func (z Zone) Label() string {
	switch z {
	case Zone0:
		return "Zone 0"
	case Zone1:
		return "Zone 1"
	case Zone2:
		return "Zone 2"
	default:
		return string(z)
	}
}

// InstallationMethod is the cable installation reference method.
type InstallationMethod string

const (
	MethodClippedDirect InstallationMethod = "clipped-direct"
	MethodConduit       InstallationMethod = "conduit"
	MethodTrunking      InstallationMethod = "trunking"
	MethodBuried        InstallationMethod = "buried"
)

// EarthingSystem is the supply earthing arrangement.
type EarthingSystem string

const (
	EarthingTNS  EarthingSystem = "TN-S"
	EarthingTNCS EarthingSystem = "TN-C-S"
	EarthingTT   EarthingSystem = "TT"
)

// ComplianceStatus is the outcome of checking a circuit.
type ComplianceStatus string

const (
	StatusCompliant    ComplianceStatus = "compliant"
	StatusWarning      ComplianceStatus = "warning"
	StatusNonCompliant ComplianceStatus = "non-compliant"
)

// String returns the string representation of the status.
func (s ComplianceStatus) String() string {
	return string(s)
}

// =============================================================================
// Inputs and results
// =============================================================================

// Inputs describes the pool and the electrical equipment serving it.
// Powers are in watts, volume in m³, lengths in metres and temperatures in °C.
type Inputs struct {
	PoolType              PoolType           `json:"poolType" yaml:"poolType" validate:"required,oneof=private public commercial therapy"`
	PoolVolume            float64            `json:"poolVolume" yaml:"poolVolume" validate:"gt=0,lte=100000"`
	HeaterPower           float64            `json:"heaterPower" yaml:"heaterPower" validate:"gte=0,lte=100000"`
	PumpPower             float64            `json:"pumpPower" yaml:"pumpPower" validate:"gt=0,lte=50000"`
	Lighting              float64            `json:"lighting" yaml:"lighting" validate:"gte=0,lte=50000"`
	HeatingType           string             `json:"heatingType" yaml:"heatingType" validate:"omitempty,oneof=electric heat-pump gas solar"`
	FiltrationSystem      string             `json:"filtrationSystem" yaml:"filtrationSystem" validate:"omitempty,oneof=sand cartridge diatomaceous-earth uv"`
	HasUnderwaterLighting bool               `json:"hasUnderwaterLighting" yaml:"hasUnderwaterLighting"`
	HasEmergencyStop      bool               `json:"hasEmergencyStop" yaml:"hasEmergencyStop"`
	SupplyVoltage         int                `json:"supplyVoltage" yaml:"supplyVoltage" validate:"oneof=230 400"`
	EarthingSystem        EarthingSystem     `json:"earthingSystem" yaml:"earthingSystem" validate:"required,oneof=TN-S TN-C-S TT"`
	Zone                  Zone               `json:"zone" yaml:"zone" validate:"required,oneof=zone0 zone1 zone2"`
	InstallationMethod    InstallationMethod `json:"installationMethod" yaml:"installationMethod" validate:"required,oneof=clipped-direct conduit trunking buried"`
	CableRunLength        float64            `json:"cableRunLength" yaml:"cableRunLength" validate:"gt=0,lte=500"`
	AmbientTemperature    float64            `json:"ambientTemperature" yaml:"ambientTemperature" validate:"gte=-20,lte=60"`
}

// Circuit is one final circuit serving pool equipment.
//
// Current is always Load / (Voltage × power factor). SELV circuits are
// costed on the supply side of their safety isolating transformer, so
// Voltage is the supply voltage for them too.
type Circuit struct {
	Name                string           `json:"name"`
	Load                float64          `json:"load"`
	Current             float64          `json:"current"`
	Voltage             int              `json:"voltage"`
	SELV                bool             `json:"selv"`
	Zone                Zone             `json:"zone"`
	CableSize           float64          `json:"cableSize"`
	ProtectionRating    int              `json:"protectionRating"`
	IPRating            string           `json:"ipRating"`
	RCDRequired         bool             `json:"rcdRequired"`
	SpecialRequirements []string         `json:"specialRequirements"`
	ComplianceStatus    ComplianceStatus `json:"complianceStatus"`
	VoltageDropPercent  float64          `json:"voltageDropPercent"`
}

// Compliance summarises the regulatory findings for the installation.
// Recommendations are advisory and do not affect BS7671Section702.
type Compliance struct {
	BS7671Section702 bool     `json:"bs7671Section702"`
	Issues           []string `json:"issues"`
	Recommendations  []string `json:"recommendations"`
}

// Result is the outcome of a pool calculation.
type Result struct {
	TotalLoad            float64    `json:"totalLoad"`
	TotalCurrent         float64    `json:"totalCurrent"`
	SupplyRequirements   string     `json:"supplyRequirements"`
	MainProtection       string     `json:"mainProtection"`
	Circuits             []Circuit  `json:"circuits"`
	EarthingArrangements string     `json:"earthingArrangements"`
	BondingRequirements  []string   `json:"bondingRequirements"`
	RegulatoryCompliance Compliance `json:"regulatoryCompliance"`
	TableVersion         string     `json:"tableVersion"`
}
