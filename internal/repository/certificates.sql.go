package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const certificateColumns = `id, certificate_number, form_data, status, format, document_key,
       thumbnail_keys, error_message, created_at, updated_at`

func scanCertificate(row interface{ Scan(...interface{}) error }) (Certificate, error) {
	var i Certificate
	err := row.Scan(
		&i.ID,
		&i.CertificateNumber,
		&i.FormData,
		&i.Status,
		&i.Format,
		&i.DocumentKey,
		pq.Array(&i.ThumbnailKeys),
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createCertificate = `-- name: CreateCertificate :one
INSERT INTO certificates (certificate_number, form_data, status, format)
VALUES ($1, $2, $3, $4)
RETURNING ` + certificateColumns

type CreateCertificateParams struct {
	CertificateNumber string
	FormData          json.RawMessage
	Status            string
	Format            string
}

func (q *Queries) CreateCertificate(ctx context.Context, arg CreateCertificateParams) (Certificate, error) {
	row := q.db.QueryRowContext(ctx, createCertificate,
		arg.CertificateNumber,
		arg.FormData,
		arg.Status,
		arg.Format,
	)
	return scanCertificate(row)
}

const getCertificateByID = `-- name: GetCertificateByID :one
SELECT ` + certificateColumns + `
FROM certificates
WHERE id = $1`

func (q *Queries) GetCertificateByID(ctx context.Context, id uuid.UUID) (Certificate, error) {
	row := q.db.QueryRowContext(ctx, getCertificateByID, id)
	return scanCertificate(row)
}

const beginCertificateRender = `-- name: BeginCertificateRender :execrows
UPDATE certificates
SET status = 'rendering', format = $2, error_message = NULL, updated_at = NOW()
WHERE id = $1 AND status <> 'rendering'`

type BeginCertificateRenderParams struct {
	ID     uuid.UUID
	Format string
}

// BeginCertificateRender moves a certificate into 'rendering'. It affects no
// rows when a render is already in progress.
func (q *Queries) BeginCertificateRender(ctx context.Context, arg BeginCertificateRenderParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, beginCertificateRender, arg.ID, arg.Format)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const failCertificateRender = `-- name: FailCertificateRender :execrows
UPDATE certificates
SET status = 'failed', error_message = $2, updated_at = NOW()
WHERE id = $1 AND status = 'rendering'`

type FailCertificateRenderParams struct {
	ID           uuid.UUID
	ErrorMessage sql.NullString
}

// FailCertificateRender ends an in-flight render as 'failed'. Certificates
// in any other status are left alone.
func (q *Queries) FailCertificateRender(ctx context.Context, arg FailCertificateRenderParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, failCertificateRender, arg.ID, arg.ErrorMessage)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markCertificateIssued = `-- name: MarkCertificateIssued :exec
UPDATE certificates
SET status = 'issued', document_key = $2, thumbnail_keys = $3, error_message = NULL, updated_at = NOW()
WHERE id = $1`

type MarkCertificateIssuedParams struct {
	ID            uuid.UUID
	DocumentKey   string
	ThumbnailKeys []string
}

func (q *Queries) MarkCertificateIssued(ctx context.Context, arg MarkCertificateIssuedParams) error {
	keys := arg.ThumbnailKeys
	if keys == nil {
		keys = []string{}
	}
	_, err := q.db.ExecContext(ctx, markCertificateIssued, arg.ID, arg.DocumentKey, pq.Array(keys))
	return err
}
