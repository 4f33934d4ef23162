package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/sparkwise/internal/battery"
	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/service"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
)

func newCalculatorMux(svc service.CalculationService) *http.ServeMux {
	mux := http.NewServeMux()
	NewCalculatorHandler(svc, discardLogger()).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const batteryBody = `{
	"mode": "runtime",
	"chemistry": "agm",
	"nominalVoltage": 12,
	"capacityAh": 200,
	"ambientTemp": 25,
	"batteryHealth": 100,
	"inverterType": "pure-sine",
	"loads": [{"name": "Fridge", "watts": 150, "dutyCycle": 0.4, "surgeMultiplier": 3, "priority": "essential"}]
}`

const poolBody = `{
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

func TestBatteryCatalog(t *testing.T) {
	rec := do(t, newCalculatorMux(service.NewCalculationService(nil, discardLogger())), "GET", "/api/battery/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BatteryCatalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Chemistries, len(battery.Chemistries()))
	assert.Len(t, resp.InverterTypes, len(battery.InverterTypes()))
}

func TestBatteryCalculate(t *testing.T) {
	mux := newCalculatorMux(service.NewCalculationService(nil, discardLogger()))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"valid", batteryBody, http.StatusOK, ""},
		{"unknown chemistry", strings.Replace(batteryBody, `"agm"`, `"coal"`, 1), http.StatusBadRequest, domain.EINVALID},
		{"wrong type", strings.Replace(batteryBody, `"capacityAh": 200`, `"capacityAh": "lots"`, 1), http.StatusBadRequest, domain.EINVALID},
		{"not json", `{"mode":`, http.StatusBadRequest, domain.EINVALID},
		{"empty body", ``, http.StatusBadRequest, domain.EINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "POST", "/api/battery/calculate", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantCode == "" {
				var res battery.Results
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				require.NotNil(t, res.Runtime)
				assert.Greater(t, *res.Runtime, 0.0)
				return
			}
			var resp JSONError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBatteryCalculate_TypeErrorNamesField(t *testing.T) {
	mux := newCalculatorMux(service.NewCalculationService(nil, discardLogger()))
	rec := do(t, mux, "POST", "/api/battery/calculate", strings.Replace(batteryBody, `"capacityAh": 200`, `"capacityAh": "lots"`, 1))

	var resp JSONError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Expected a number", resp.Error.Fields["capacityAh"])
}

func TestBatteryCalculate_BodyTooLarge(t *testing.T) {
	mux := newCalculatorMux(service.NewCalculationService(nil, discardLogger()))
	big := `{"loads":[` + strings.Repeat(`{"name":"x","watts":1},`, MaxBodyBytes/20) + `{}]}`

	rec := do(t, mux, "POST", "/api/battery/calculate", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPoolCalculate(t *testing.T) {
	mux := newCalculatorMux(service.NewCalculationService(nil, discardLogger()))

	rec := do(t, mux, "POST", "/api/pool/calculate", poolBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res, "circuits")
	assert.Contains(t, res, "regulatoryCompliance")

	rec = do(t, mux, "POST", "/api/pool/calculate", strings.Replace(poolBody, `"zone2"`, `"zone7"`, 1))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp JSONError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error.Fields, "zone")
}

func TestPoolValidate(t *testing.T) {
	mux := newCalculatorMux(service.NewCalculationService(nil, discardLogger()))

	tests := []struct {
		name       string
		body       string
		wantValid  bool
		wantFields []string
	}{
		{"valid", poolBody, true, nil},
		{"bad zone", strings.Replace(poolBody, `"zone2"`, `"zone7"`, 1), false, []string{"zone"}},
		{
			"type error and rule failure",
			strings.Replace(strings.Replace(poolBody, `"poolVolume": 50`, `"poolVolume": "big"`, 1), `"TN-S"`, `"IT"`, 1),
			false,
			[]string{"poolVolume", "earthingSystem"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "POST", "/api/pool/validate", tt.body)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp PoolValidationResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantValid, resp.Valid)
			assert.NotNil(t, resp.Errors)
			for _, f := range tt.wantFields {
				assert.Contains(t, resp.Errors, f)
			}
		})
	}
}

func TestSolarPVFormat_NeverRejectsContent(t *testing.T) {
	mux := newCalculatorMux(service.NewCalculationService(nil, discardLogger()))

	for _, body := range []string{``, `null`, `[1,2,3]`, `{"arrays": [`, `{"arrays":[{"panelWattage":400,"panelCount":10}]}`} {
		rec := do(t, mux, "POST", "/api/solar-pv/format", body)
		require.Equal(t, http.StatusOK, rec.Code, body)

		var cert solarpv.Certificate
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cert), body)
		assert.NotEmpty(t, cert.TotalCapacity)
		assert.NotEmpty(t, cert.OverallResult)
	}
}

// stubCalculations returns canned history.
type stubCalculations struct {
	service.CalculationService
	gotKind  string
	gotLimit int
	gotID    uuid.UUID
	err      error
}

func (s *stubCalculations) Get(ctx context.Context, id uuid.UUID) (*domain.Calculation, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Calculation{ID: id, Kind: domain.CalculationKindBattery, Results: json.RawMessage(`{"runtimeHours":4.2}`), Warnings: []string{}}, nil
}

func (s *stubCalculations) List(ctx context.Context, kind string, limit int) ([]domain.Calculation, error) {
	s.gotKind, s.gotLimit = kind, limit
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Calculation{{ID: uuid.New(), Kind: domain.CalculationKind(kind), Warnings: []string{}}}, nil
}

func TestListCalculations(t *testing.T) {
	stub := &stubCalculations{}
	mux := newCalculatorMux(stub)

	rec := do(t, mux, "GET", "/api/calculations?kind=pool&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pool", stub.gotKind)
	assert.Equal(t, 5, stub.gotLimit)

	var resp CalculationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Calculations, 1)

	rec = do(t, mux, "GET", "/api/calculations?limit=-3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stub.err = domain.NewValidationError("CalculationService.List", "kind", "Kind must be one of battery, pool or solar_pv")
	rec = do(t, mux, "GET", "/api/calculations?kind=wind", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCalculation(t *testing.T) {
	stub := &stubCalculations{}
	mux := newCalculatorMux(stub)
	id := uuid.New()

	rec := do(t, mux, "GET", "/api/calculations/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, stub.gotID)

	var calc domain.Calculation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calc))
	assert.Equal(t, id, calc.ID)
	assert.JSONEq(t, `{"runtimeHours":4.2}`, string(calc.Results))

	rec = do(t, mux, "GET", "/api/calculations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stub.err = domain.NotFound("CalculationService.Get", "calculation", id.String())
	rec = do(t, mux, "GET", "/api/calculations/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
