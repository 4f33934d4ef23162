package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Queries) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock, New(db)
}

var (
	jobCols = []string{"id", "job_type", "payload", "status", "priority", "attempts", "max_attempts",
		"error_message", "scheduled_at", "started_at", "completed_at", "created_at", "updated_at"}
	calculationCols = []string{"id", "kind", "inputs", "results", "warnings", "created_at"}
	certificateCols = []string{"id", "certificate_number", "form_data", "status", "format", "document_key",
		"thumbnail_keys", "error_message", "created_at", "updated_at"}
)

func TestEnqueueJob(t *testing.T) {
	_, mock, q := setupMockDB(t)

	id := uuid.New()
	now := time.Now()
	payload := json.RawMessage(`{"certificate_id":"abc"}`)

	mock.ExpectQuery(`INSERT INTO jobs`).
		WithArgs("render_certificate", payload, int32(10), int32(3), now).
		WillReturnRows(sqlmock.NewRows(jobCols).
			AddRow(id.String(), "render_certificate", []byte(payload), "pending", 10, 0, 3,
				nil, now, nil, nil, now, now))

	job, err := q.EnqueueJob(context.Background(), EnqueueJobParams{
		JobType:     "render_certificate",
		Payload:     payload,
		Priority:    10,
		MaxAttempts: 3,
		ScheduledAt: now,
	})

	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, "pending", job.Status)
	assert.JSONEq(t, string(payload), string(job.Payload))
	assert.False(t, job.StartedAt.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDequeueJob_NoRows(t *testing.T) {
	_, mock, q := setupMockDB(t)

	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WillReturnRows(sqlmock.NewRows(jobCols))

	_, err := q.DequeueJob(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDequeueJob_InTransaction(t *testing.T) {
	db, mock, q := setupMockDB(t)

	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM jobs\s+WHERE status = 'pending'`).
		WillReturnRows(sqlmock.NewRows(jobCols).
			AddRow(id.String(), "render_certificate", []byte(`{}`), "pending", 10, 1, 3,
				"timeout", now, nil, nil, now, now))
	mock.ExpectExec(`SET status = 'running'`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	qtx := q.WithTx(tx)

	job, err := qtx.DequeueJob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), job.Attempts)
	assert.Equal(t, "timeout", job.ErrorMessage.String)

	require.NoError(t, qtx.UpdateJobStarted(context.Background(), job.ID))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateJobFailed(t *testing.T) {
	tests := []struct {
		name      string
		permanent bool
		status    string
	}{
		{"retry", false, "pending"},
		{"permanent", true, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, q := setupMockDB(t)
			id := uuid.New()

			mock.ExpectQuery(`UPDATE jobs`).
				WithArgs(id, "boom", tt.permanent).
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(tt.status))

			status, err := q.UpdateJobFailed(context.Background(), UpdateJobFailedParams{
				ID:           id,
				ErrorMessage: sql.NullString{String: "boom", Valid: true},
				Permanent:    tt.permanent,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecoverStaleJobs(t *testing.T) {
	_, mock, q := setupMockDB(t)

	mock.ExpectExec(`SET status = 'pending', started_at = NULL`).
		WithArgs(600.0).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := q.RecoverStaleJobs(context.Background(), 600)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCalculation(t *testing.T) {
	_, mock, q := setupMockDB(t)

	id := uuid.New()
	now := time.Now()
	inputs := json.RawMessage(`{"mode":"runtime"}`)
	results := json.RawMessage(`{"runtime":4.2}`)

	mock.ExpectQuery(`INSERT INTO calculations`).
		WithArgs("battery", inputs, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(calculationCols).
			AddRow(id.String(), "battery", []byte(inputs), []byte(results),
				[]byte(`{"C-rate high","cold derating"}`), now))

	calc, err := q.CreateCalculation(context.Background(), CreateCalculationParams{
		Kind:     "battery",
		Inputs:   inputs,
		Results:  pqtype.NullRawMessage{RawMessage: results, Valid: true},
		Warnings: []string{"C-rate high", "cold derating"},
	})

	require.NoError(t, err)
	assert.Equal(t, id, calc.ID)
	assert.True(t, calc.Results.Valid)
	assert.Equal(t, []string{"C-rate high", "cold derating"}, calc.Warnings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentCalculations(t *testing.T) {
	_, mock, q := setupMockDB(t)

	now := time.Now()
	mock.ExpectQuery(`FROM calculations`).
		WithArgs("pool", int32(20)).
		WillReturnRows(sqlmock.NewRows(calculationCols).
			AddRow(uuid.NewString(), "pool", []byte(`{}`), nil, []byte(`{}`), now).
			AddRow(uuid.NewString(), "pool", []byte(`{}`), []byte(`{}`), []byte(`{}`), now))

	items, err := q.ListRecentCalculations(context.Background(), ListRecentCalculationsParams{
		Kind:  sql.NullString{String: "pool", Valid: true},
		Limit: 20,
	})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, items[0].Results.Valid)
	assert.Empty(t, items[0].Warnings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentCalculations_Empty(t *testing.T) {
	_, mock, q := setupMockDB(t)

	mock.ExpectQuery(`FROM calculations`).
		WithArgs(nil, int32(50)).
		WillReturnRows(sqlmock.NewRows(calculationCols))

	items, err := q.ListRecentCalculations(context.Background(), ListRecentCalculationsParams{Limit: 50})

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Len(t, items, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateLifecycle(t *testing.T) {
	_, mock, q := setupMockDB(t)
	ctx := context.Background()

	id := uuid.New()
	now := time.Now()
	form := json.RawMessage(`{"certificateNumber":"PV-001"}`)

	mock.ExpectQuery(`INSERT INTO certificates`).
		WithArgs("PV-001", form, "draft", "pdf").
		WillReturnRows(sqlmock.NewRows(certificateCols).
			AddRow(id.String(), "PV-001", []byte(form), "draft", "pdf", nil, []byte(`{}`), nil, now, now))
	mock.ExpectExec(`UPDATE certificates\s+SET status = 'rendering'`).
		WithArgs(id, "pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET status = 'issued'`).
		WithArgs(id, "certificates/doc.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM certificates\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(certificateCols).
			AddRow(id.String(), "PV-001", []byte(form), "issued", "pdf", "certificates/doc.pdf",
				[]byte(`{certificates/thumb.jpg}`), nil, now, now))

	cert, err := q.CreateCertificate(ctx, CreateCertificateParams{
		CertificateNumber: "PV-001",
		FormData:          form,
		Status:            "draft",
		Format:            "pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", cert.Status)
	assert.False(t, cert.DocumentKey.Valid)

	n, err := q.BeginCertificateRender(ctx, BeginCertificateRenderParams{ID: id, Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, q.MarkCertificateIssued(ctx, MarkCertificateIssuedParams{
		ID:            id,
		DocumentKey:   "certificates/doc.pdf",
		ThumbnailKeys: []string{"certificates/thumb.jpg"},
	}))

	got, err := q.GetCertificateByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "issued", got.Status)
	assert.Equal(t, "certificates/doc.pdf", got.DocumentKey.String)
	assert.Equal(t, []string{"certificates/thumb.jpg"}, got.ThumbnailKeys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRenderGuards(t *testing.T) {
	_, mock, q := setupMockDB(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectExec(`WHERE id = \$1 AND status <> 'rendering'`).
		WithArgs(id, "html").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)SET status = 'failed'.*WHERE id = \$1 AND status = 'rendering'`).
		WithArgs(id, sql.NullString{String: "upload failed", Valid: true}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := q.BeginCertificateRender(ctx, BeginCertificateRenderParams{ID: id, Format: "html"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = q.FailCertificateRender(ctx, FailCertificateRenderParams{
		ID:           id,
		ErrorMessage: sql.NullString{String: "upload failed", Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
