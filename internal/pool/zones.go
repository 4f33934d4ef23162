package pool

import "fmt"

// UnderwaterLightingLoad is the load (W) of the underwater luminaire set,
// supplied at SELVVoltage from a safety isolating transformer.
const (
	UnderwaterLightingLoad = 300.0
	SELVVoltage            = 12
)

// ipRating returns the minimum IP rating for equipment in zone z. Zones 1
// and 2 of pools that may be cleaned with water jets need IPX5.
func ipRating(z Zone, pt PoolType) string {
	switch z {
	case Zone0:
		return "IPX8"
	case Zone1:
		if pt.IsPrivate() {
			return "IPX4"
		}
		return "IPX5"
	default:
		if pt.IsPrivate() {
			return "IPX2"
		}
		return "IPX5"
	}
}

// zoneFinding is the result of checking one circuit against its zone.
type zoneFinding struct {
	permitted    bool
	issue        string
	requirements []string
}

// checkZone applies the equipment restrictions of zone c.Zone.
func checkZone(c Circuit, lighting bool) zoneFinding {
	switch c.Zone {
	case Zone0:
		if !c.SELV {
			return zoneFinding{issue: fmt.Sprintf(
				"%s: only SELV equipment (max 12V a.c. or 30V ripple-free d.c.) is permitted in zone 0, not %dV", c.Name, c.Voltage)}
		}
		return zoneFinding{permitted: true, requirements: []string{
			"Safety source for SELV installed outside zones 0, 1 and 2",
			"Luminaires to BS EN 60598-2-18",
		}}

	case Zone1:
		if c.SELV {
			return zoneFinding{permitted: true, requirements: []string{
				"Safety source for SELV installed outside zones 0, 1 and 2",
			}}
		}
		if lighting {
			return zoneFinding{issue: fmt.Sprintf(
				"%s: luminaires in zone 1 must be supplied by SELV", c.Name)}
		}
		if c.Voltage > 230 {
			return zoneFinding{issue: fmt.Sprintf(
				"%s: only 230V fixed pool equipment is permitted in zone 1, not %dV", c.Name, c.Voltage)}
		}
		return zoneFinding{permitted: true, requirements: []string{
			"Fixed equipment specifically intended for swimming pool use",
			"Class II or equivalent insulation",
		}}

	default:
		if c.SELV {
			return zoneFinding{permitted: true}
		}
		return zoneFinding{permitted: true, requirements: []string{
			"Socket-outlets and switches permitted only with RCD protection",
		}}
	}
}

// bondingRequirements lists the equipotential bonding for the features
// present. A metal pool structure is always assumed.
func bondingRequirements(in Inputs) []string {
	out := []string{
		"Supplementary equipotential bonding of all extraneous-conductive-parts in zones 0, 1 and 2",
		"Bond metal pool structure and reinforcement mesh to the protective conductors",
		"Bond metallic pipework and ladders entering the pool area",
	}
	if in.HasUnderwaterLighting {
		out = append(out, "Bond metallic luminaire niches and housings of underwater lighting")
	}
	if in.HeaterPower > 0 {
		out = append(out, "Bond metallic casing of the heater and heat exchanger")
	}
	if in.FiltrationSystem != "" {
		out = append(out, "Bond metallic filtration plant and pump bodies")
	}
	if in.HasEmergencyStop {
		out = append(out, "Protective conductor to emergency stop enclosure where metallic")
	}
	return out
}

// earthingArrangements describes the earthing for the supply system and
// returns any advisory that goes with it.
func earthingArrangements(es EarthingSystem) (string, string) {
	switch es {
	case EarthingTNS:
		return "TN-S: separate protective earth provided by the supply; main protective bonding to pool metalwork", ""
	case EarthingTNCS:
		return "TN-C-S (PME): PME earth may be used only after assessment of the bonded pool area",
			"Consider converting the pool installation to TT with a local earth electrode to avoid exporting the PME earth"
	case EarthingTT:
		return "TT: local earth electrode with 100mA time-delayed RCD at the origin; Ra × IΔn not to exceed 50V", ""
	default:
		return string(es), ""
	}
}
