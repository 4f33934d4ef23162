package internal

import (
	"bytes"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"migrations/00001_jobs.sql",
		"migrations/00002_calculations.sql",
		"migrations/00003_certificates.sql",
	}, files)

	for _, f := range files {
		body, err := fs.ReadFile(migrations, f)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", f)
		assert.Contains(t, string(body), "-- +goose Down", f)
	}
}

func TestGooseLogger(t *testing.T) {
	var buf bytes.Buffer
	l := gooseLogger{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	l.Printf("OK   %s (%v)\n", "00003_certificates.sql", "12ms")
	l.Fatalf("failed to open %s", "migrations")

	out := buf.String()
	assert.Contains(t, out, `level=INFO msg="OK   00003_certificates.sql (12ms)"`)
	assert.Contains(t, out, `level=ERROR msg="failed to open migrations"`)
}
