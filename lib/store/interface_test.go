package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := NewError(RetCUnsupportedOperation, "GetSet operation is not supported")
	assert.Equal(t, "StoreError (code UnsupportedOperation): GetSet operation is not supported", err.Error())
	assert.Equal(t, "Unknown", RetCode(99).String())
}

func TestIsUnavailable(t *testing.T) {
	unavailable := NewError(RetCUnavailable, "connection refused")

	assert.True(t, IsUnavailable(unavailable))
	assert.True(t, IsUnavailable(fmt.Errorf("lock key a:_lock: %w", unavailable)))
	assert.False(t, IsUnavailable(NewError(RetCInternalError, "boom")))
	assert.False(t, IsUnavailable(errors.New("plain")))
	assert.False(t, IsUnavailable(nil))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RetCode
	}{
		{"nil", nil, RetCSuccess},
		{"store error", Errorf(RetCInvalidOperation, "unknown op %d", 7), RetCInvalidOperation},
		{"wrapped", fmt.Errorf("get: %w", NewError(RetCUnavailable, "down")), RetCUnavailable},
		{"foreign", errors.New("other"), RetCInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}
