package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      json.RawMessage
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ErrorMessage sql.NullString
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Calculation struct {
	ID        uuid.UUID
	Kind      string
	Inputs    json.RawMessage
	Results   pqtype.NullRawMessage
	Warnings  []string
	CreatedAt time.Time
}

type Certificate struct {
	ID                uuid.UUID
	CertificateNumber string
	FormData          json.RawMessage
	Status            string
	Format            string
	DocumentKey       sql.NullString
	ThumbnailKeys     []string
	ErrorMessage      sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
