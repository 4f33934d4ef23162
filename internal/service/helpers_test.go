package service

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/sparkwise/internal/repository"
)

var (
	calculationCols = []string{"id", "kind", "inputs", "results", "warnings", "created_at"}
	certificateCols = []string{"id", "certificate_number", "form_data", "status", "format", "document_key",
		"thumbnail_keys", "error_message", "created_at", "updated_at"}
	jobCols = []string{"id", "job_type", "payload", "status", "priority", "attempts", "max_attempts",
		"error_message", "scheduled_at", "started_at", "completed_at", "created_at", "updated_at"}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *repository.Queries) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock, repository.New(db)
}
