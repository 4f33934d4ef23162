package battery

import (
	"fmt"
	"math"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

// ReferenceTemperature is the temperature (°C) battery capacity is rated at.
const ReferenceTemperature = 20.0

// OversizeRatio is how many times the entered bank a sized bank may be
// before a warning is raised.
const OversizeRatio = 4.0

// Mode selects what Calculate solves for.
type Mode string

const (
	// ModeRuntime computes how long the bank runs the loads.
	ModeRuntime Mode = "runtime"

	// ModeSizing computes the capacity needed for RequiredRuntime.
	ModeSizing Mode = "sizing"
)

// IsValid returns true if the mode is a recognized value.
func (m Mode) IsValid() bool {
	switch m {
	case ModeRuntime, ModeSizing:
		return true
	}
	return false
}

// Priority ranks a load for load-shedding decisions.
type Priority string

const (
	PriorityEssential   Priority = "essential"
	PriorityImportant   Priority = "important"
	PriorityConvenience Priority = "convenience"
)

// IsValid returns true if the priority is a recognized value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityEssential, PriorityImportant, PriorityConvenience:
		return true
	}
	return false
}

// Load is a single appliance on the backed-up supply.
// A zero SurgeMultiplier is read as 1 and an empty Priority as important.
type Load struct {
	Name            string   `json:"name" yaml:"name"`
	Watts           float64  `json:"watts" yaml:"watts"`
	DutyCycle       float64  `json:"dutyCycle" yaml:"dutyCycle"`
	SurgeMultiplier float64  `json:"surgeMultiplier" yaml:"surgeMultiplier"`
	Priority        Priority `json:"priority" yaml:"priority"`
}

// Inputs describes the bank, inverter and loads to evaluate.
// RequiredRuntime (hours) is only read in sizing mode.
type Inputs struct {
	Mode            Mode    `json:"mode" yaml:"mode"`
	ChemistryID     string  `json:"chemistry" yaml:"chemistry"`
	NominalVoltage  float64 `json:"nominalVoltage" yaml:"nominalVoltage"`
	CapacityAh      float64 `json:"capacityAh" yaml:"capacityAh"`
	AmbientTemp     float64 `json:"ambientTemp" yaml:"ambientTemp"`
	BatteryHealth   float64 `json:"batteryHealth" yaml:"batteryHealth"`
	Loads           []Load  `json:"loads" yaml:"loads"`
	InverterTypeID  string  `json:"inverterType" yaml:"inverterType"`
	RequiredRuntime float64 `json:"requiredRuntime" yaml:"requiredRuntime"`
}

// Results is the outcome of a calculation. Exactly one of Runtime and
// RequiredAh is set, matching the mode.
type Results struct {
	UsableEnergyWh float64  `json:"usableEnergyWh"`
	DCCurrent      float64  `json:"dcCurrent"`
	CRate          float64  `json:"cRate"`
	AveragePower   float64  `json:"averagePower"`
	Runtime        *float64 `json:"runtime,omitempty"`
	RequiredAh     *float64 `json:"requiredAh,omitempty"`

	PeakSurgePower    float64              `json:"peakSurgePower"`
	TemperatureFactor float64              `json:"temperatureFactor"`
	PeukertFactor     float64              `json:"peukertFactor"`
	PowerByPriority   map[Priority]float64 `json:"powerByPriority"`
	Warnings          []string             `json:"warnings"`
}

const op = "battery.Calculate"

// Calculate evaluates a battery backup system.
//
// In runtime mode the bank described by CapacityAh is evaluated. In sizing
// mode the capacity that delivers exactly RequiredRuntime is solved for, and
// energy, current and C-rate are reported for that sized bank.
func Calculate(in Inputs) (*Results, error) {
	chem, inv, err := validate(in)
	if err != nil {
		return nil, err
	}

	mode := in.Mode
	if mode == "" {
		mode = ModeRuntime
	}

	avg, peak, byPriority := summarizeLoads(in.Loads)
	if avg <= 0 {
		return nil, domain.Invalid(op, "average load power is zero; at least one load needs a duty cycle above 0")
	}

	tempFactor := TemperatureFactor(chem, in.AmbientTemp)
	energyPerAh := in.NominalVoltage * chem.DefaultDoD * (in.BatteryHealth / 100) * tempFactor
	dcCurrent := (avg / inv.Efficiency) / in.NominalVoltage

	res := &Results{
		DCCurrent:         dcCurrent,
		AveragePower:      avg,
		PeakSurgePower:    peak,
		TemperatureFactor: tempFactor,
		PowerByPriority:   byPriority,
		Warnings:          []string{},
	}

	capacity := in.CapacityAh
	switch mode {
	case ModeRuntime:
		res.UsableEnergyWh = energyPerAh * capacity
		res.CRate = dcCurrent / capacity
		res.PeukertFactor = PeukertFactor(chem, res.CRate)
		runtime := res.UsableEnergyWh / avg * res.PeukertFactor
		res.Runtime = &runtime

	case ModeSizing:
		if in.RequiredRuntime <= 0 {
			return nil, domain.Invalid(op, "required runtime must be greater than 0 hours in sizing mode")
		}
		if energyPerAh <= 0 {
			return nil, domain.Invalid(op, "battery has no usable energy at this health; sizing is not possible")
		}
		required := requiredCapacity(chem, energyPerAh, avg, dcCurrent, in.RequiredRuntime)
		res.RequiredAh = &required
		res.UsableEnergyWh = energyPerAh * required
		res.CRate = dcCurrent / required
		res.PeukertFactor = PeukertFactor(chem, res.CRate)

		if required > OversizeRatio*capacity {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Required capacity %.0fAh is more than %.0f times the entered %.0fAh bank", required, OversizeRatio, capacity))
		}
	}

	if !finiteResults(res) {
		return nil, domain.Invalid(op, "inputs produce a result that is out of range; check voltage, capacity and loads")
	}

	res.Warnings = append(res.Warnings, warnings(chem, in, res)...)
	return res, nil
}

// TemperatureFactor returns the fraction of rated capacity available at
// ambient temperature t. It is 1 at or above ReferenceTemperature and falls
// linearly below it, clamped to [chem.MinTempFactor, 1].
func TemperatureFactor(chem Chemistry, t float64) float64 {
	if t >= ReferenceTemperature {
		return 1
	}
	f := 1 - chem.ColdCoefficient*(ReferenceTemperature-t)
	floor := math.Min(math.Max(chem.MinTempFactor, 0), 1)
	if f < floor {
		return floor
	}
	return f
}

// PeukertFactor scales effective capacity for a discharge at cRate:
// (ratedCRate / cRate)^(k-1). It is 1 for an ideal battery (k = 1) and
// drops below 1 when discharging faster than the rated rate.
func PeukertFactor(chem Chemistry, cRate float64) float64 {
	if cRate <= 0 || chem.PeukertExponent <= 1 {
		return 1
	}
	return math.Pow(chem.RatedCRate/cRate, chem.PeukertExponent-1)
}

// requiredCapacity inverts the runtime formula. Runtime for a bank of Ah
// amp-hours at constant current I is
//
//	R = (e·Ah / P) · (c0·Ah / I)^(k-1) = (e/P) · (c0/I)^(k-1) · Ah^k
//
// where e is usable Wh per Ah, so Ah = (R / ((e/P)·(c0/I)^(k-1)))^(1/k).
func requiredCapacity(chem Chemistry, energyPerAh, avgPower, dcCurrent, runtime float64) float64 {
	k := math.Max(chem.PeukertExponent, 1)
	coeff := (energyPerAh / avgPower) * math.Pow(chem.RatedCRate/dcCurrent, k-1)
	return math.Pow(runtime/coeff, 1/k)
}

func summarizeLoads(loads []Load) (avg, peak float64, byPriority map[Priority]float64) {
	byPriority = map[Priority]float64{
		PriorityEssential:   0,
		PriorityImportant:   0,
		PriorityConvenience: 0,
	}
	for _, l := range loads {
		p := l.Watts * l.DutyCycle
		avg += p
		peak += l.Watts * surgeOf(l)
		byPriority[priorityOf(l)] += p
	}
	return avg, peak, byPriority
}

func surgeOf(l Load) float64 {
	if l.SurgeMultiplier == 0 {
		return 1
	}
	return l.SurgeMultiplier
}

func priorityOf(l Load) Priority {
	if l.Priority == "" {
		return PriorityImportant
	}
	return l.Priority
}

func validate(in Inputs) (Chemistry, InverterType, error) {
	if in.Mode != "" && !in.Mode.IsValid() {
		return Chemistry{}, InverterType{}, domain.Invalid(op, fmt.Sprintf("unknown mode %q (must be runtime or sizing)", in.Mode))
	}
	if in.CapacityAh <= 0 {
		return Chemistry{}, InverterType{}, domain.Invalid(op, "capacity must be greater than 0 Ah")
	}
	if len(in.Loads) == 0 {
		return Chemistry{}, InverterType{}, domain.Invalid(op, "at least one load is required")
	}
	if in.NominalVoltage <= 0 {
		return Chemistry{}, InverterType{}, domain.Invalid(op, "nominal voltage must be greater than 0 V")
	}
	if in.BatteryHealth < 0 || in.BatteryHealth > 100 {
		return Chemistry{}, InverterType{}, domain.Invalid(op, "battery health must be between 0 and 100%")
	}

	chem, ok := LookupChemistry(in.ChemistryID)
	if !ok {
		return Chemistry{}, InverterType{}, domain.Invalid(op, fmt.Sprintf("unknown battery chemistry %q", in.ChemistryID))
	}
	inv, ok := LookupInverter(in.InverterTypeID)
	if !ok {
		return Chemistry{}, InverterType{}, domain.Invalid(op, fmt.Sprintf("unknown inverter type %q", in.InverterTypeID))
	}

	for i, l := range in.Loads {
		name := l.Name
		if name == "" {
			name = fmt.Sprintf("load %d", i+1)
		}
		switch {
		case l.Watts <= 0:
			return chem, inv, domain.Invalid(op, fmt.Sprintf("%s: watts must be greater than 0", name))
		case l.DutyCycle < 0 || l.DutyCycle > 1:
			return chem, inv, domain.Invalid(op, fmt.Sprintf("%s: duty cycle must be between 0 and 1", name))
		case l.SurgeMultiplier != 0 && l.SurgeMultiplier < 1:
			return chem, inv, domain.Invalid(op, fmt.Sprintf("%s: surge multiplier must be at least 1", name))
		case l.Priority != "" && !l.Priority.IsValid():
			return chem, inv, domain.Invalid(op, fmt.Sprintf("%s: unknown priority %q", name, l.Priority))
		}
	}

	return chem, inv, nil
}

func warnings(chem Chemistry, in Inputs, res *Results) []string {
	var out []string
	if res.CRate > chem.MaxCRate {
		out = append(out, fmt.Sprintf(
			"Discharge rate %.2fC exceeds the %.2fC maximum for %s", res.CRate, chem.MaxCRate, chem.Name))
	}
	if res.TemperatureFactor < 1 {
		out = append(out, fmt.Sprintf(
			"Capacity derated to %.0f%% at %.1f°C", res.TemperatureFactor*100, in.AmbientTemp))
	}
	if in.BatteryHealth < 70 {
		out = append(out, "Battery health is below 70%; plan for replacement")
	}
	return out
}

func finiteResults(res *Results) bool {
	values := []float64{res.UsableEnergyWh, res.DCCurrent, res.CRate, res.AveragePower, res.PeukertFactor}
	if res.Runtime != nil {
		values = append(values, *res.Runtime)
	}
	if res.RequiredAh != nil {
		values = append(values, *res.RequiredAh)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
