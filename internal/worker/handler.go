package worker

import (
	"context"
	"errors"
	"fmt"
)

// JobHandler runs one job type. Type must match the job_type column the
// job was enqueued with.
type JobHandler interface {
	Type() string

	// Handle runs the job against its raw JSON payload. A returned error is
	// retried with backoff unless it is a PermanentError.
	Handle(ctx context.Context, payload []byte) error
}

// FinalFailureHandler is implemented by handlers whose jobs own the state
// of some other record, such as a certificate waiting on its render.
// OnFinalFailure is called once the queue gives up on a job: after a
// PermanentError, or after the last attempt fails.
type FinalFailureHandler interface {
	OnFinalFailure(ctx context.Context, payload []byte, cause error) error
}

// PermanentError marks a failure that a retry cannot fix, such as a
// malformed payload or a missing certificate.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err so the job is failed without retrying.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// Permanentf formats an error and marks it permanent.
func Permanentf(format string, args ...any) error {
	return NewPermanentError(fmt.Errorf(format, args...))
}

// IsPermanent reports whether err, or any error it wraps, is permanent.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
