package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDraftError(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
		details string
	}{
		{"empty narrative", ErrInvalidInput, "Narrative is required", "The request body did not contain a narrative"},
		{"storage failure", ErrStorage, "Feedback could not be saved", "database is locked"},
		{"no details", ErrUpstream, "Completion backend unavailable", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDraftError(tt.code, tt.message, tt.details, "req-1")

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.details, err.Details)
			assert.Equal(t, "req-1", err.RequestID)
			assert.WithinDuration(t, time.Now().UTC(), err.Timestamp, time.Minute)
			assert.EqualError(t, err, tt.code+": "+tt.message)
		})
	}
}

func TestValidationError(t *testing.T) {
	var err error = NewValidationError("unit_type", "Unknown unit type", "spaceship")

	var vErr *ValidationError
	assert.True(t, errors.As(fmt.Errorf("drafting: %w", err), &vErr))
	assert.Equal(t, "unit_type", vErr.Field)
	assert.Equal(t, "spaceship", vErr.Value)
	assert.EqualError(t, err, "validation error for field 'unit_type': Unknown unit type")
}

func TestSentinelErrorsWrap(t *testing.T) {
	wrapped := fmt.Errorf("composing note: %w", ErrUpstreamUnavailable)
	assert.ErrorIs(t, wrapped, ErrUpstreamUnavailable)
}
