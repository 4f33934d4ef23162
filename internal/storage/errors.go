package storage

import (
	"errors"
	"fmt"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrKeyExists    = errors.New("object already exists at this key")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrTooLarge     = errors.New("object exceeds maximum size")
	ErrAccessDenied = errors.New("access denied")
)

// StorageError records the provider operation and key behind a failure.
// The sentinel errors above are reachable through errors.Is.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ToDomainError converts a storage failure into the domain error the API
// reports. Missing documents are not found, oversized uploads are too large
// and bad keys are invalid; anything else is internal and keeps message.
func ToDomainError(err error, op, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return domain.Errorf(domain.ENOTFOUND, op, "The stored file no longer exists")
	case errors.Is(err, ErrTooLarge):
		return domain.Errorf(domain.ETOOLARGE, op, "File exceeds the maximum size")
	case errors.Is(err, ErrInvalidKey):
		return domain.Errorf(domain.EINVALID, op, "Invalid file name")
	default:
		return domain.Internal(err, op, message)
	}
}
