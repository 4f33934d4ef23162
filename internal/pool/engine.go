package pool

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

// PowerFactor is assumed for every pool load.
const PowerFactor = 1.0

// Voltage drop limits as a percentage of nominal voltage.
const (
	MaxLightingDropPercent = 3.0
	MaxPowerDropPercent    = 5.0
)

// Diversity factors applied to private pools. Other pool types are
// assessed at full load.
var privateDiversity = map[string]float64{
	"heater":   0.75,
	"pump":     1.0,
	"lighting": 0.8,
}

// supplyBreakpoints are the single-phase supply capacities total current
// is compared against, in ascending order.
var supplyBreakpoints = []struct {
	maxCurrent  float64
	requirement string
}{
	{32, "Single-phase 32A radial circuit from the existing consumer unit"},
	{63, "Dedicated single-phase 63A sub-main to a pool plant room distribution board"},
	{80, "Dedicated single-phase 80A sub-main; check the service cut-out fuse rating"},
	{100, "Single-phase 100A supply; confirm the DNO service fuse is 100A"},
}

// Calculate validates in and, if it is valid, designs the pool installation
// against DefaultTable. Validation failures are returned as a
// *domain.ValidationError whose Fields match Validate.
func Calculate(in Inputs) (*Result, error) {
	return CalculateWithTable(in, DefaultTable)
}

// CalculateWithTable is Calculate using an explicit cable table.
func CalculateWithTable(in Inputs, table CableTable) (*Result, error) {
	const op = "pool.Calculate"

	if err := domain.FieldErrors(op, Validate(in)); err != nil {
		return nil, err
	}

	res := &Result{
		Circuits:     []Circuit{},
		TableVersion: table.Version,
		RegulatoryCompliance: Compliance{
			Issues:          []string{},
			Recommendations: []string{},
		},
	}
	issues := &res.RegulatoryCompliance.Issues

	for _, spec := range circuitSpecs(in) {
		c, circuitIssues := buildCircuit(in, table, spec)
		res.Circuits = append(res.Circuits, c)
		*issues = append(*issues, circuitIssues...)
	}

	total := decimal.Zero
	for _, c := range res.Circuits {
		total = total.Add(toDecimal(c.Load))
	}
	res.TotalLoad = total.Round(2).InexactFloat64()
	res.TotalCurrent = round2(res.TotalLoad / (float64(in.SupplyVoltage) * PowerFactor))
	res.SupplyRequirements = supplyRequirement(res.TotalCurrent, in.SupplyVoltage)
	res.MainProtection = mainProtection(table, res.TotalCurrent, in)

	if !in.PoolType.IsPrivate() && !in.HasEmergencyStop {
		*issues = append(*issues, fmt.Sprintf(
			"An emergency stop is required for %s pools to isolate pumps and circulation equipment", in.PoolType))
	}

	arrangement, advisory := earthingArrangements(in.EarthingSystem)
	res.EarthingArrangements = arrangement
	if advisory != "" {
		res.RegulatoryCompliance.Recommendations = append(res.RegulatoryCompliance.Recommendations, advisory)
	}
	if res.TotalCurrent > 100 && in.SupplyVoltage == 230 {
		res.RegulatoryCompliance.Recommendations = append(res.RegulatoryCompliance.Recommendations,
			"Total demand exceeds a single-phase supply; design for a 400V three-phase supply")
	}

	res.BondingRequirements = bondingRequirements(in)
	res.RegulatoryCompliance.BS7671Section702 = len(*issues) == 0
	return res, nil
}

// circuitSpec is a load category before selection.
type circuitSpec struct {
	name     string
	category string
	rawLoad  float64
	zone     Zone
	selv     bool
}

func circuitSpecs(in Inputs) []circuitSpec {
	var specs []circuitSpec
	if in.HeaterPower > 0 {
		name := "Pool Heater"
		if in.HeatingType == "heat-pump" {
			name = "Heat Pump"
		}
		specs = append(specs, circuitSpec{name: name, category: "heater", rawLoad: in.HeaterPower, zone: in.Zone})
	}
	specs = append(specs, circuitSpec{name: "Filtration Pump", category: "pump", rawLoad: in.PumpPower, zone: in.Zone})
	if in.Lighting > 0 {
		specs = append(specs, circuitSpec{name: "Pool Area Lighting", category: "lighting", rawLoad: in.Lighting, zone: in.Zone})
	}
	if in.HasUnderwaterLighting {
		specs = append(specs, circuitSpec{
			name:     "Underwater Lighting",
			category: "underwater-lighting",
			rawLoad:  UnderwaterLightingLoad,
			zone:     Zone0,
			selv:     true,
		})
	}
	return specs
}

// diversity returns the factor applied to a load category.
func diversity(pt PoolType, category string) float64 {
	if !pt.IsPrivate() {
		return 1.0
	}
	if f, ok := privateDiversity[category]; ok {
		return f
	}
	return 1.0
}

func buildCircuit(in Inputs, table CableTable, spec circuitSpec) (Circuit, []string) {
	load := round2(spec.rawLoad * diversity(in.PoolType, spec.category))
	current := round2(load / (float64(in.SupplyVoltage) * PowerFactor))
	lighting := spec.category == "lighting" || spec.category == "underwater-lighting"

	c := Circuit{
		Name:                spec.name,
		Load:                load,
		Current:             current,
		Voltage:             in.SupplyVoltage,
		SELV:                spec.selv,
		Zone:                spec.zone,
		IPRating:            ipRating(spec.zone, in.PoolType),
		RCDRequired:         true,
		SpecialRequirements: []string{"30mA RCD protection"},
		ComplianceStatus:    StatusCompliant,
	}
	if spec.selv {
		c.SpecialRequirements = append(c.SpecialRequirements,
			fmt.Sprintf("%dV SELV via safety isolating transformer", SELVVoltage))
	}
	if spec.category == "pump" && in.FiltrationSystem == "uv" {
		c.SpecialRequirements = append(c.SpecialRequirements, "UV steriliser interlocked with pump operation")
	}

	var issues []string

	finding := checkZone(c, lighting)
	c.SpecialRequirements = append(c.SpecialRequirements, finding.requirements...)
	if !finding.permitted {
		c.ComplianceStatus = StatusNonCompliant
		issues = append(issues, finding.issue)
	}

	rating, ok := table.ProtectiveDevice(current)
	c.ProtectionRating = rating
	if !ok {
		c.ComplianceStatus = StatusNonCompliant
		issues = append(issues, fmt.Sprintf(
			"%s: design current %.2fA exceeds the largest standard protective device (%dA)", c.Name, current, rating))
	}

	maxDrop, minSize := MaxPowerDropPercent, 1.5
	if lighting {
		maxDrop, minSize = MaxLightingDropPercent, 1.0
	}
	sel := table.SelectCable(CableRequest{
		Method:         in.InstallationMethod,
		Ambient:        in.AmbientTemperature,
		DeviceRating:   rating,
		Current:        current,
		Length:         in.CableRunLength,
		Voltage:        in.SupplyVoltage,
		MaxDropPercent: maxDrop,
		MinSize:        minSize,
	})
	c.CableSize = sel.Size
	c.VoltageDropPercent = round2(sel.VoltageDropPercent)
	if !sel.Adequate && c.ComplianceStatus == StatusCompliant {
		c.ComplianceStatus = StatusWarning
		c.SpecialRequirements = append(c.SpecialRequirements, fmt.Sprintf(
			"No tabulated cable meets %.0f%% voltage drop over %.0fm; shorten the run or use a larger conductor",
			maxDrop, in.CableRunLength))
	}

	return c, issues
}

func supplyRequirement(totalCurrent float64, voltage int) string {
	if voltage == 400 {
		return fmt.Sprintf("Three-phase 400V supply; balance %.2fA of pool load across phases", totalCurrent)
	}
	for _, bp := range supplyBreakpoints {
		if totalCurrent <= bp.maxCurrent {
			return bp.requirement
		}
	}
	return "Three-phase supply required; apply to the DNO for a three-phase connection"
}

func mainProtection(table CableTable, totalCurrent float64, in Inputs) string {
	rating, ok := table.ProtectiveDevice(totalCurrent)
	poles := "double-pole"
	if in.SupplyVoltage == 400 {
		poles = "four-pole"
	}
	if !ok {
		return fmt.Sprintf("Main protection above %dA; %s switch-fuse sized by the designer", rating, poles)
	}
	if in.EarthingSystem == EarthingTT {
		return fmt.Sprintf("%dA %s main switch with 100mA time-delayed RCD", rating, poles)
	}
	return fmt.Sprintf("%dA %s main switch", rating, poles)
}

func round2(v float64) float64 {
	return toDecimal(v).Round(2).InexactFloat64()
}

// toDecimal converts v, mapping NaN and ±Inf to zero since decimal cannot
// represent them.
func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
