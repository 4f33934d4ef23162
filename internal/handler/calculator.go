// Package handler contains the HTTP handlers for the Sparkwise API.
//
// Every handler speaks JSON. Errors are written by ErrorResponse as
// {"error": {"code", "message", "fields"}}.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/DukeRupert/sparkwise/internal/battery"
	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/pool"
	"github.com/DukeRupert/sparkwise/internal/service"
)

// =============================================================================
// Response Types
// =============================================================================

// BatteryCatalogResponse lists the selectable chemistries and inverters.
type BatteryCatalogResponse struct {
	Chemistries   []battery.Chemistry    `json:"chemistries"`
	InverterTypes []battery.InverterType `json:"inverterTypes"`
}

// PoolValidationResponse is the result of a pool input check.
type PoolValidationResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// CalculationListResponse wraps calculation history.
type CalculationListResponse struct {
	Calculations []domain.Calculation `json:"calculations"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// CalculatorHandler serves the battery, pool and solar PV engines.
type CalculatorHandler struct {
	calculations service.CalculationService
	logger       *slog.Logger
}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler(calculations service.CalculationService, logger *slog.Logger) *CalculatorHandler {
	return &CalculatorHandler{
		calculations: calculations,
		logger:       logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the calculator routes with the provided mux.
//
// Routes:
// - GET  /api/battery/catalog   -> BatteryCatalog
// - POST /api/battery/calculate -> BatteryCalculate
// - POST /api/pool/calculate    -> PoolCalculate
// - POST /api/pool/validate     -> PoolValidate
// - POST /api/solar-pv/format   -> SolarPVFormat
// - GET  /api/calculations      -> ListCalculations
// - GET  /api/calculations/{id} -> GetCalculation
func (h *CalculatorHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/battery/catalog", h.BatteryCatalog)
	mux.HandleFunc("POST /api/battery/calculate", h.BatteryCalculate)
	mux.HandleFunc("POST /api/pool/calculate", h.PoolCalculate)
	mux.HandleFunc("POST /api/pool/validate", h.PoolValidate)
	mux.HandleFunc("POST /api/solar-pv/format", h.SolarPVFormat)
	mux.HandleFunc("GET /api/calculations", h.ListCalculations)
	mux.HandleFunc("GET /api/calculations/{id}", h.GetCalculation)
}

// =============================================================================
// Battery
// =============================================================================

// BatteryCatalog lists the chemistries and inverter types.
func (h *CalculatorHandler) BatteryCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BatteryCatalogResponse{
		Chemistries:   battery.Chemistries(),
		InverterTypes: battery.InverterTypes(),
	})
}

// BatteryCalculate evaluates a battery backup system.
func (h *CalculatorHandler) BatteryCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "CalculatorHandler.BatteryCalculate"

	var in battery.Inputs
	if err := decodeJSON(w, r, op, &in); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	res, err := h.calculations.Battery(r.Context(), in)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// Pool
// =============================================================================

// PoolCalculate designs a pool installation.
func (h *CalculatorHandler) PoolCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "CalculatorHandler.PoolCalculate"

	var in pool.Inputs
	if err := decodeJSON(w, r, op, &in); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	res, err := h.calculations.Pool(r.Context(), in)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// PoolValidate reports field errors without calculating. A field of the
// wrong JSON type is reported alongside the rule failures.
func (h *CalculatorHandler) PoolValidate(w http.ResponseWriter, r *http.Request) {
	const op = "CalculatorHandler.PoolValidate"

	var in pool.Inputs
	errs := map[string]string{}
	if err := decodeJSON(w, r, op, &in); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		for field, msg := range ve.Fields {
			errs[field] = msg
		}
	}

	for field, msg := range pool.Validate(in) {
		if _, seen := errs[field]; !seen {
			errs[field] = msg
		}
	}

	writeJSON(w, http.StatusOK, PoolValidationResponse{
		Valid:  len(errs) == 0,
		Errors: errs,
	})
}

// =============================================================================
// Solar PV
// =============================================================================

// SolarPVFormat formats any installation record. Malformed content yields
// the defaulted certificate, never a client error.
func (h *CalculatorHandler) SolarPVFormat(w http.ResponseWriter, r *http.Request) {
	const op = "CalculatorHandler.SolarPVFormat"

	body, err := readBody(w, r, op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, h.calculations.SolarPV(r.Context(), body))
}

// =============================================================================
// History
// =============================================================================

// ListCalculations returns recent calculation history.
//
// Query parameters: kind (battery, pool, solar_pv) and limit.
func (h *CalculatorHandler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	const op = "CalculatorHandler.ListCalculations"

	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "limit", "Limit must be a positive whole number"))
			return
		}
		limit = n
	}

	calcs, err := h.calculations.List(r.Context(), q.Get("kind"), limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, CalculationListResponse{Calculations: calcs})
}

// GetCalculation returns one recorded run, inputs and results included.
func (h *CalculatorHandler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	const op = "CalculatorHandler.GetCalculation"

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "id", "Calculation ID must be a UUID"))
		return
	}

	calc, err := h.calculations.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, calc)
}
