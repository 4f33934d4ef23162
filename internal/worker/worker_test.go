package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "no goroutines",
			mutate:  func(c *Config) { c.Concurrency = 0 },
			wantErr: []string{"concurrency"},
		},
		{
			name:    "too many goroutines",
			mutate:  func(c *Config) { c.Concurrency = 101 },
			wantErr: []string{"concurrency"},
		},
		{
			name:    "poll interval too short",
			mutate:  func(c *Config) { c.PollInterval = 500 * time.Millisecond },
			wantErr: []string{"poll interval"},
		},
		{
			name:    "render outlives stale threshold",
			mutate:  func(c *Config) { c.JobTimeout = 15 * time.Minute },
			wantErr: []string{"must exceed job timeout"},
		},
		{
			name: "every problem reported",
			mutate: func(c *Config) {
				c.Concurrency = 0
				c.ShutdownTimeout = 0
				c.StaleJobThreshold = 30 * time.Second
			},
			wantErr: []string{"concurrency", "shutdown timeout", "stale job threshold must be at least 1m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestPermanentErrors(t *testing.T) {
	id := uuid.New()
	err := Permanentf("certificate not found: %s", id)

	assert.True(t, IsPermanent(err))
	assert.True(t, IsPermanent(fmt.Errorf("render: %w", err)))
	assert.Equal(t, "certificate not found: "+id.String(), err.Error())

	assert.False(t, IsPermanent(errors.New("storage unavailable")))
	assert.False(t, IsPermanent(nil))
	assert.True(t, errors.Is(NewPermanentError(context.Canceled), context.Canceled))
}

// renderHandler stands in for the certificate render job and records the
// certificates it was told have failed for good.
type renderHandler struct {
	err    error
	failed []uuid.UUID
	causes []error
}

func (h *renderHandler) Type() string { return JobTypeRenderCertificate }

func (h *renderHandler) Handle(ctx context.Context, payload []byte) error {
	return h.err
}

func (h *renderHandler) OnFinalFailure(ctx context.Context, payload []byte, cause error) error {
	var p RenderCertificatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	h.failed = append(h.failed, p.CertificateID)
	h.causes = append(h.causes, cause)
	return nil
}

func renderPayload(t *testing.T, certificateID uuid.UUID) string {
	t.Helper()
	b, err := json.Marshal(RenderCertificatePayload{CertificateID: certificateID, Format: "pdf"})
	require.NoError(t, err)
	return string(b)
}

func TestRenderJob_FinalFailure(t *testing.T) {
	tests := []struct {
		name       string
		handleErr  error
		permanent  bool
		status     string
		wantFailed bool
	}{
		{"transient with attempts left", errors.New("upload certificate to storage: timeout"), false, StatusPending, false},
		{"transient on last attempt", errors.New("upload certificate to storage: timeout"), false, StatusFailed, true},
		{"permanent", Permanentf("select generator: unsupported"), true, StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, mock := newTestWorker(t)
			h := &renderHandler{err: tt.handleErr}
			w.Register(h)

			jobID := uuid.New()
			certID := uuid.New()
			expectDequeue(mock, jobID, JobTypeRenderCertificate, renderPayload(t, certID))
			mock.ExpectQuery(`UPDATE jobs`).
				WithArgs(jobID, sqlmock.AnyArg(), tt.permanent).
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(tt.status))

			err := w.processNextJob(context.Background(), w.logger)
			require.Error(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())

			if !tt.wantFailed {
				assert.Empty(t, h.failed)
				return
			}
			require.Equal(t, []uuid.UUID{certID}, h.failed)
			assert.ErrorIs(t, h.causes[0], tt.handleErr)
		})
	}
}

func TestRenderJob_FinalFailureSkippedWhenStatusNotRecorded(t *testing.T) {
	w, mock := newTestWorker(t)
	h := &renderHandler{err: errors.New("generate pdf: font missing")}
	w.Register(h)

	jobID := uuid.New()
	expectDequeue(mock, jobID, JobTypeRenderCertificate, renderPayload(t, uuid.New()))
	mock.ExpectQuery(`UPDATE jobs`).WillReturnError(errors.New("connection reset"))

	require.Error(t, w.processNextJob(context.Background(), w.logger))
	assert.Empty(t, h.failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
