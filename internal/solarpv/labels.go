package solarpv

import "strings"

// Outcome is the display state of a test or declaration.
type Outcome int

const (
	NotApplicable Outcome = iota
	Pass
	Fail
)

// OutcomeOf maps a recorded flag to an outcome.
func OutcomeOf(f Flag) Outcome {
	switch f {
	case FlagTrue:
		return Pass
	case FlagFalse:
		return Fail
	default:
		return NotApplicable
	}
}

// Label returns the printed form: PASS, FAIL or N/A.
func (o Outcome) Label() string {
	switch o {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	default:
		return "N/A"
	}
}

// Class returns the styling category: pass, fail or na.
func (o Outcome) Class() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "na"
	}
}

// String returns the label.
func (o Outcome) String() string {
	return o.Label()
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// SystemTypeLabel returns a human-readable label for a system type code.
func SystemTypeLabel(code string) string {
	switch normalize(code) {
	case "grid-tied", "grid_tied", "on-grid":
		return "Grid-Tied"
	case "hybrid":
		return "Hybrid (Grid + Battery)"
	case "off-grid", "off_grid", "standalone":
		return "Off-Grid"
	default:
		return code
	}
}

// EarthingLabel returns a human-readable label for an earthing arrangement.
func EarthingLabel(code string) string {
	switch normalize(code) {
	case "tn-s", "tn_s":
		return "TN-S"
	case "tn-c-s", "tn_c_s", "pme":
		return "TN-C-S (PME)"
	case "tt":
		return "TT"
	default:
		return code
	}
}

// MountingLabel returns a human-readable label for a mounting type.
func MountingLabel(code string) string {
	switch normalize(code) {
	case "roof-mounted", "on-roof":
		return "Roof Mounted (On-Roof)"
	case "in-roof":
		return "In-Roof (Integrated)"
	case "flat-roof":
		return "Flat Roof (Ballasted)"
	case "ground-mounted":
		return "Ground Mounted"
	case "facade":
		return "Facade / Wall Mounted"
	default:
		return code
	}
}

// InverterTypeLabel returns a human-readable label for an inverter type.
func InverterTypeLabel(code string) string {
	switch normalize(code) {
	case "string":
		return "String Inverter"
	case "micro", "microinverter":
		return "Microinverter"
	case "hybrid":
		return "Hybrid Inverter"
	case "optimiser", "optimizer":
		return "String Inverter with Optimisers"
	case "central":
		return "Central Inverter"
	default:
		return code
	}
}

// BatteryChemistryLabel returns a human-readable label for a battery chemistry.
func BatteryChemistryLabel(code string) string {
	switch normalize(code) {
	case "lithium-ion", "li-ion":
		return "Lithium-ion"
	case "lifepo4", "lfp":
		return "Lithium Iron Phosphate (LiFePO4)"
	case "lead-acid":
		return "Lead Acid"
	case "flow":
		return "Flow Battery"
	default:
		return code
	}
}

// ConnectionTypeLabel returns a human-readable label for a grid connection.
func ConnectionTypeLabel(code string) string {
	switch normalize(code) {
	case "g98":
		return "G98 (Notification)"
	case "g99":
		return "G99 (Application)"
	case "g100":
		return "G100 (Export Limitation)"
	case "off-grid", "none":
		return "Off-Grid (No Connection)"
	default:
		return code
	}
}

// MeterTypeLabel returns a human-readable label for a meter type.
func MeterTypeLabel(code string) string {
	switch normalize(code) {
	case "generation":
		return "Generation Meter"
	case "export":
		return "Export Meter"
	case "smart":
		return "Smart Meter (SMETS2)"
	case "none":
		return "None"
	default:
		return code
	}
}

// ShadingLabel returns a human-readable label for an array's shading.
func ShadingLabel(code string) string {
	switch normalize(code) {
	case "none":
		return "None"
	case "minimal":
		return "Minimal (<5%)"
	case "moderate":
		return "Moderate (5-20%)"
	case "significant":
		return "Significant (>20%)"
	default:
		return code
	}
}

// Defect severities as recorded on the form.
const (
	SeverityC1 = "c1"
	SeverityC2 = "c2"
	SeverityC3 = "c3"
	SeverityFI = "fi"
)

// DefectSeverityLabel returns a human-readable label for a defect code.
func DefectSeverityLabel(code string) string {
	switch normalize(code) {
	case SeverityC1:
		return "C1 - Danger Present"
	case SeverityC2:
		return "C2 - Potentially Dangerous"
	case SeverityC3:
		return "C3 - Improvement Recommended"
	case SeverityFI:
		return "FI - Further Investigation"
	default:
		return code
	}
}

// YesNo returns Yes, No or "" for an unrecorded flag.
func YesNo(f Flag) string {
	switch f {
	case FlagTrue:
		return "Yes"
	case FlagFalse:
		return "No"
	default:
		return ""
	}
}
