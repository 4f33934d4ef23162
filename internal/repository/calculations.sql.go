package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const calculationColumns = `id, kind, inputs, results, warnings, created_at`

func scanCalculation(row interface{ Scan(...interface{}) error }) (Calculation, error) {
	var i Calculation
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Inputs,
		&i.Results,
		pq.Array(&i.Warnings),
		&i.CreatedAt,
	)
	return i, err
}

const createCalculation = `-- name: CreateCalculation :one
INSERT INTO calculations (kind, inputs, results, warnings)
VALUES ($1, $2, $3, $4)
RETURNING ` + calculationColumns

type CreateCalculationParams struct {
	Kind     string
	Inputs   json.RawMessage
	Results  pqtype.NullRawMessage
	Warnings []string
}

func (q *Queries) CreateCalculation(ctx context.Context, arg CreateCalculationParams) (Calculation, error) {
	warnings := arg.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	row := q.db.QueryRowContext(ctx, createCalculation,
		arg.Kind,
		arg.Inputs,
		arg.Results,
		pq.Array(warnings),
	)
	return scanCalculation(row)
}

const getCalculationByID = `-- name: GetCalculationByID :one
SELECT ` + calculationColumns + `
FROM calculations
WHERE id = $1`

func (q *Queries) GetCalculationByID(ctx context.Context, id uuid.UUID) (Calculation, error) {
	row := q.db.QueryRowContext(ctx, getCalculationByID, id)
	return scanCalculation(row)
}

const listRecentCalculations = `-- name: ListRecentCalculations :many
SELECT ` + calculationColumns + `
FROM calculations
WHERE ($1::text IS NULL OR kind = $1::text)
ORDER BY created_at DESC
LIMIT $2`

type ListRecentCalculationsParams struct {
	Kind  sql.NullString
	Limit int32
}

func (q *Queries) ListRecentCalculations(ctx context.Context, arg ListRecentCalculationsParams) ([]Calculation, error) {
	rows, err := q.db.QueryContext(ctx, listRecentCalculations, arg.Kind, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Calculation{}
	for rows.Next() {
		i, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
