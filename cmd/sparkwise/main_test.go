package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/sparkwise/internal/battery"
	"github.com/DukeRupert/sparkwise/internal/pool"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
)

const batteryYAML = `
mode: runtime
chemistry: agm
nominalVoltage: 12
capacityAh: 200
ambientTemp: 25
batteryHealth: 100
inverterType: pure-sine
loads:
  - name: Fridge
    watts: 150
    dutyCycle: 0.4
    surgeMultiplier: 3
    priority: essential
`

const poolJSON = `{
	"poolType": "private",
	"poolVolume": 50,
	"heaterPower": 3000,
	"pumpPower": 750,
	"lighting": 200,
	"supplyVoltage": 230,
	"earthingSystem": "TN-S",
	"zone": "zone2",
	"installationMethod": "clipped-direct",
	"cableRunLength": 15,
	"ambientTemperature": 25
}`

// execute runs the CLI with stdin and returns stdout, stderr and the error.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBattery_YAMLFileText(t *testing.T) {
	path := writeFile(t, "bank.yaml", batteryYAML)

	out, _, err := execute(t, "", "battery", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "BATTERY (runtime mode)")
	assert.Contains(t, out, "Runtime:")
	assert.Contains(t, out, "essential")
}

func TestBattery_StdinJSONOutput(t *testing.T) {
	out, _, err := execute(t, batteryYAML, "battery", "-o", "json")
	require.NoError(t, err)

	var res battery.Results
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Runtime)
	assert.Greater(t, *res.Runtime, 0.0)
	assert.Nil(t, res.RequiredAh)
}

func TestBattery_InvalidInputs(t *testing.T) {
	_, _, err := execute(t, strings.Replace(batteryYAML, "agm", "coal", 1), "battery")
	require.Error(t, err)
}

func TestPool_JSONFile(t *testing.T) {
	path := writeFile(t, "pool.json", poolJSON)

	out, _, err := execute(t, "", "pool", "-f", path, "-o", "json")
	require.NoError(t, err)

	var res pool.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.Circuits)
	assert.Greater(t, res.TotalLoad, 0.0)
}

func TestPool_Text(t *testing.T) {
	out, _, err := execute(t, poolJSON, "pool")
	require.NoError(t, err)
	assert.Contains(t, out, "POOL INSTALLATION")
	assert.Contains(t, out, "CIRCUITS")
	assert.Contains(t, out, "Result:")
}

func TestPool_FieldErrorsExitNonZero(t *testing.T) {
	bad := strings.Replace(poolJSON, `"poolVolume": 50`, `"poolVolume": 0`, 1)

	out, errOut, err := execute(t, bad, "pool")
	require.ErrorIs(t, err, errInvalidInputs)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "poolVolume:")
	assert.Contains(t, errOut, "Result: INVALID")
}

func TestPool_ValidateOnly(t *testing.T) {
	out, _, err := execute(t, poolJSON, "pool", "--validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Result: VALID")

	bad := strings.Replace(poolJSON, `"zone": "zone2"`, `"zone": "zone9"`, 1)
	out, _, err = execute(t, bad, "pool", "--validate", "-o", "json")
	require.ErrorIs(t, err, errInvalidInputs)

	var resp struct {
		Valid  bool              `json:"valid"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Errors, "zone")
}

func TestSolarPV_YAMLRecord(t *testing.T) {
	record := `
certificateNumber: PV-2024-001
client:
  name: Jane Smith
arrays:
  - panelWattage: 400
    panelCount: 10
`
	out, _, err := execute(t, record, "solarpv", "-o", "json")
	require.NoError(t, err)

	var cert solarpv.Certificate
	require.NoError(t, json.Unmarshal([]byte(out), &cert))
	assert.Equal(t, "PV-2024-001", cert.CertificateNumber)
	assert.Equal(t, "Jane Smith", cert.ClientName)
	assert.Equal(t, int64(10), cert.TotalPanels)
}

func TestSolarPV_EmptyRecordIsDefaulted(t *testing.T) {
	out, _, err := execute(t, "", "solarpv")
	require.NoError(t, err)
	assert.Contains(t, out, "SOLAR PV CERTIFICATE")
	assert.Contains(t, out, "N/A")
}

func TestSolarPV_RenderHTML(t *testing.T) {
	target := filepath.Join(t.TempDir(), "certificate.html")

	_, errOut, err := execute(t, `{"certificateNumber": "PV-7"}`, "solarpv", "--render", target)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Wrote")

	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(b), "PV-7")
}

func TestSolarPV_RenderRejectsUnknownExtension(t *testing.T) {
	_, _, err := execute(t, `{}`, "solarpv", "--render", filepath.Join(t.TempDir(), "certificate.docx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".pdf or .html")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, _, err := execute(t, batteryYAML, "battery", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
