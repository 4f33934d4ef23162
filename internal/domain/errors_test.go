package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid", Invalid("battery.Calculate", "capacity must be positive"), EINVALID},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("certificate.Get", "certificate", "abc")), ENOTFOUND},
		{"validation", NewValidationError("pool.Calculate", "poolVolume", "required"), EINVALID},
		{"plain error", errors.New("boom"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage_HidesInternalDetails(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "certificate.Create", "insert failed")

	msg := ErrorMessage(err)

	assert.NotContains(t, msg, "pq")
	assert.Contains(t, msg, "internal error")
}

func TestFieldErrors(t *testing.T) {
	assert.Nil(t, FieldErrors("pool.Calculate", nil))
	assert.Nil(t, FieldErrors("pool.Calculate", map[string]string{}))

	err := FieldErrors("pool.Calculate", map[string]string{
		"pumpPower":  "Pump power must be greater than 0",
		"poolVolume": "Pool volume must be greater than 0",
	})

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 2)
	assert.Equal(t, "pool.Calculate: validation failed (poolVolume, pumpPower)", err.Error())
	assert.Equal(t, "pool.Calculate", ErrorOp(err))
}
