package pool

import (
	"math"
	"slices"
)

// CableRating is the tabulated current-carrying capacity of one
// conductor size.
type CableRating struct {
	Size     float64
	Capacity float64
}

// TemperatureFactor is the ambient correction factor for cables installed
// where the air temperature does not exceed MaxAmbient.
type TemperatureFactor struct {
	MaxAmbient float64
	Factor     float64
}

// CableTable holds the data protective device and cable selection is made
// from. It is kept apart from the calculation so the values can be
// audited and replaced as a unit.
type CableTable struct {
	Version            string
	DeviceRatings      []int
	Ratings            map[InstallationMethod][]CableRating
	VoltageDrop        map[float64]float64
	TemperatureFactors []TemperatureFactor
}

// DefaultTable is for 70 °C thermoplastic (PVC) insulated copper cable,
// two loaded conductors, single-phase a.c. Capacities are in amps and
// voltage drop in mV/A/m. Clipped direct and enclosed values are taken
// from BS 7671 Appendix 4 reference methods C and B; buried values are
// approximate.
var DefaultTable = CableTable{
	Version:       "bs7671-2018-a2",
	DeviceRatings: []int{6, 10, 16, 20, 25, 32, 40, 50, 63, 80, 100, 125},
	Ratings: map[InstallationMethod][]CableRating{
		MethodClippedDirect: {
			{1.0, 16}, {1.5, 20}, {2.5, 27}, {4, 37}, {6, 47},
			{10, 64}, {16, 85}, {25, 112}, {35, 138},
		},
		MethodConduit:  conduitRatings,
		MethodTrunking: conduitRatings,
		MethodBuried: {
			{1.5, 22}, {2.5, 29}, {4, 37}, {6, 46},
			{10, 61}, {16, 79}, {25, 101}, {35, 122},
		},
	},
	VoltageDrop: map[float64]float64{
		1.0: 44, 1.5: 29, 2.5: 18, 4: 11, 6: 7.3,
		10: 4.4, 16: 2.8, 25: 1.75, 35: 1.25,
	},
	TemperatureFactors: []TemperatureFactor{
		{25, 1.03}, {30, 1.00}, {35, 0.94}, {40, 0.87},
		{45, 0.79}, {50, 0.71}, {55, 0.61}, {60, 0.50},
	},
}

var conduitRatings = []CableRating{
	{1.0, 13.5}, {1.5, 17.5}, {2.5, 24}, {4, 32}, {6, 41},
	{10, 57}, {16, 76}, {25, 101}, {35, 125},
}

// ProtectiveDevice returns the smallest standard device rating that is at
// least current. ok is false when current exceeds the largest device, in
// which case the largest rating is returned.
func (t CableTable) ProtectiveDevice(current float64) (rating int, ok bool) {
	for _, r := range t.DeviceRatings {
		if float64(r) >= current {
			return r, true
		}
	}
	if len(t.DeviceRatings) == 0 {
		return 0, false
	}
	return t.DeviceRatings[len(t.DeviceRatings)-1], false
}

// AmbientFactor returns the correction factor for the ambient temperature.
// Temperatures below the first band use the first factor.
func (t CableTable) AmbientFactor(ambient float64) float64 {
	for _, f := range t.TemperatureFactors {
		if ambient <= f.MaxAmbient {
			return f.Factor
		}
	}
	if len(t.TemperatureFactors) == 0 {
		return 1
	}
	return t.TemperatureFactors[len(t.TemperatureFactors)-1].Factor
}

// VoltageDropPercent returns the voltage drop of a run as a percentage of
// the nominal voltage.
func (t CableTable) VoltageDropPercent(size, current, length float64, voltage int) float64 {
	mv, ok := t.VoltageDrop[size]
	if !ok || voltage <= 0 {
		return math.Inf(1)
	}
	volts := mv * current * length / 1000
	return volts / float64(voltage) * 100
}

// CableSelection is the conductor chosen for a circuit.
type CableSelection struct {
	Size               float64
	DeratedCapacity    float64
	VoltageDropPercent float64

	// Adequate is false when no tabulated size satisfies both the
	// capacity and voltage drop limits; the largest size is returned.
	Adequate bool
}

// CableRequest describes the circuit a cable is selected for.
type CableRequest struct {
	Method         InstallationMethod
	Ambient        float64
	DeviceRating   int
	Current        float64
	Length         float64
	Voltage        int
	MaxDropPercent float64
	MinSize        float64
}

// SelectCable returns the smallest conductor whose derated capacity is at
// least the protective device rating and whose voltage drop is within
// MaxDropPercent.
func (t CableTable) SelectCable(req CableRequest) CableSelection {
	ratings := slices.Clone(t.Ratings[req.Method])
	slices.SortFunc(ratings, func(a, b CableRating) int {
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		}
		return 0
	})
	if len(ratings) == 0 {
		return CableSelection{}
	}

	ca := t.AmbientFactor(req.Ambient)
	for _, r := range ratings {
		if r.Size < req.MinSize {
			continue
		}
		capacity := r.Capacity * ca
		drop := t.VoltageDropPercent(r.Size, req.Current, req.Length, req.Voltage)
		if capacity >= float64(req.DeviceRating) && drop <= req.MaxDropPercent {
			return CableSelection{
				Size:               r.Size,
				DeratedCapacity:    capacity,
				VoltageDropPercent: drop,
				Adequate:           true,
			}
		}
	}

	largest := ratings[len(ratings)-1]
	return CableSelection{
		Size:               largest.Size,
		DeratedCapacity:    largest.Capacity * ca,
		VoltageDropPercent: t.VoltageDropPercent(largest.Size, req.Current, req.Length, req.Voltage),
		Adequate:           false,
	}
}
