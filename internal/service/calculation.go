package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/DukeRupert/sparkwise/internal/battery"
	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/metrics"
	"github.com/DukeRupert/sparkwise/internal/pool"
	"github.com/DukeRupert/sparkwise/internal/repository"
	"github.com/DukeRupert/sparkwise/internal/solarpv"
)

// History list bounds.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// CalculationService runs the engines and keeps a history of runs.
type CalculationService interface {
	// Battery evaluates a battery backup system.
	Battery(ctx context.Context, in battery.Inputs) (*battery.Results, error)

	// Pool designs a pool installation. Invalid inputs return a
	// *domain.ValidationError keyed by field.
	Pool(ctx context.Context, in pool.Inputs) (*pool.Result, error)

	// SolarPV formats a raw installation record. It never fails.
	SolarPV(ctx context.Context, raw json.RawMessage) solarpv.Certificate

	// List returns the most recent runs, newest first. An empty kind
	// lists every engine.
	List(ctx context.Context, kind string, limit int) ([]domain.Calculation, error)

	// Get returns one recorded run with its inputs and results.
	Get(ctx context.Context, id uuid.UUID) (*domain.Calculation, error)
}

// calculationService implements CalculationService.
type calculationService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewCalculationService creates a new CalculationService. A nil queries
// disables history.
func NewCalculationService(queries *repository.Queries, logger *slog.Logger) CalculationService {
	return &calculationService{
		queries: queries,
		logger:  logger,
	}
}

// Battery evaluates a battery backup system.
func (s *calculationService) Battery(ctx context.Context, in battery.Inputs) (*battery.Results, error) {
	start := time.Now()
	res, err := battery.Calculate(in)
	observe(domain.CalculationKindBattery, start, err, res != nil && len(res.Warnings) > 0)
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.CalculationKindBattery, in, res, res.Warnings)
	return res, nil
}

// Pool designs a pool installation.
func (s *calculationService) Pool(ctx context.Context, in pool.Inputs) (*pool.Result, error) {
	start := time.Now()
	res, err := pool.Calculate(in)
	observe(domain.CalculationKindPool, start, err, res != nil && len(res.RegulatoryCompliance.Issues) > 0)
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.CalculationKindPool, in, res, res.RegulatoryCompliance.Issues)
	return res, nil
}

// SolarPV formats a raw installation record.
func (s *calculationService) SolarPV(ctx context.Context, raw json.RawMessage) solarpv.Certificate {
	start := time.Now()
	cert := solarpv.FormatJSON(raw)
	observe(domain.CalculationKindSolarPV, start, nil, cert.OverallResult == solarpv.Fail.Label())

	var inputs any = raw
	if !json.Valid(raw) {
		inputs = nil
	}
	s.record(ctx, domain.CalculationKindSolarPV, inputs, cert, nil)
	return cert
}

// List returns the most recent runs.
func (s *calculationService) List(ctx context.Context, kind string, limit int) ([]domain.Calculation, error) {
	const op = "CalculationService.List"

	if s.queries == nil {
		return []domain.Calculation{}, nil
	}

	var kindFilter sql.NullString
	if kind != "" {
		if !domain.CalculationKind(kind).IsValid() {
			return nil, domain.NewValidationError(op, "kind", "Kind must be one of battery, pool or solar_pv")
		}
		kindFilter = sql.NullString{String: kind, Valid: true}
	}

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	rows, err := s.queries.ListRecentCalculations(ctx, repository.ListRecentCalculationsParams{
		Kind:  kindFilter,
		Limit: int32(limit),
	})
	if err != nil {
		s.logger.Error("failed to list calculations", "error", err, "op", op)
		return nil, domain.Internal(err, op, "Failed to list calculations")
	}

	out := make([]domain.Calculation, len(rows))
	for i, r := range rows {
		out[i] = repoCalculationToDomain(r)
	}
	return out, nil
}

// Get returns one recorded run. Without history every ID is not found.
func (s *calculationService) Get(ctx context.Context, id uuid.UUID) (*domain.Calculation, error) {
	const op = "CalculationService.Get"

	if s.queries == nil {
		return nil, domain.NotFound(op, "calculation", id.String())
	}

	row, err := s.queries.GetCalculationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "calculation", id.String())
		}
		s.logger.Error("failed to get calculation", "error", err, "op", op, "calculation_id", id)
		return nil, domain.Internal(err, op, "Failed to retrieve calculation")
	}

	calc := repoCalculationToDomain(row)
	return &calc, nil
}

// record saves a successful run. Failures are logged; the caller already
// has its result.
func (s *calculationService) record(ctx context.Context, kind domain.CalculationKind, inputs, results any, warnings []string) {
	const op = "CalculationService.record"

	if s.queries == nil {
		return
	}

	in, err := json.Marshal(inputs)
	if err != nil {
		s.logger.Warn("failed to encode calculation inputs", "error", err, "op", op, "kind", kind)
		return
	}
	out, err := json.Marshal(results)
	if err != nil {
		s.logger.Warn("failed to encode calculation results", "error", err, "op", op, "kind", kind)
		return
	}

	row, err := s.queries.CreateCalculation(ctx, repository.CreateCalculationParams{
		Kind:     kind.String(),
		Inputs:   in,
		Results:  pqtype.NullRawMessage{RawMessage: out, Valid: true},
		Warnings: warnings,
	})
	if err != nil {
		s.logger.Warn("failed to record calculation", "error", err, "op", op, "kind", kind)
		return
	}

	s.logger.Debug("calculation recorded", "calculation_id", row.ID, "kind", kind, "warnings", len(warnings))
}

// observe records the outcome and duration of an engine run.
func observe(kind domain.CalculationKind, start time.Time, err error, warned bool) {
	outcome := "ok"
	switch {
	case err != nil && domain.ErrorCode(err) == domain.EINVALID:
		outcome = "invalid"
	case err != nil:
		outcome = "error"
	case warned:
		outcome = "warning"
	}

	metrics.CalculationsTotal.WithLabelValues(kind.String(), outcome).Inc()
	metrics.CalculationDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
}

func repoCalculationToDomain(r repository.Calculation) domain.Calculation {
	c := domain.Calculation{
		ID:        r.ID,
		Kind:      domain.CalculationKind(r.Kind),
		Inputs:    r.Inputs,
		Warnings:  r.Warnings,
		CreatedAt: r.CreatedAt,
	}
	if r.Results.Valid {
		c.Results = r.Results.RawMessage
	}
	if c.Warnings == nil {
		c.Warnings = []string{}
	}
	return c
}
