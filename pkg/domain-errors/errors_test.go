package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndHasCode(t *testing.T) {
	err := New(CodeNotFound, "case not found")
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.EqualError(t, err, "not_found: case not found")
}

func TestNewf(t *testing.T) {
	err := Newf(CodeValidation, "field %q is required", "policy")
	assert.True(t, HasCode(err, CodeValidation))
	assert.Contains(t, err.Error(), `field "policy" is required`)
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "queue unavailable")

	assert.True(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHasCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", New(CodeUnauthorized, "token expired"))
	assert.True(t, HasCode(err, CodeUnauthorized))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "duplicate")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain error")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "duplicate", MessageOf(New(CodeConflict, "duplicate")))

	// Internal details never leak.
	assert.Empty(t, MessageOf(New(CodeInternal, "pgx: connection reset")))
	assert.Empty(t, MessageOf(errors.New("plain error")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeInvalidSignal, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeConfiguration, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{Code("something_else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, ToHTTPStatus(tt.code), string(tt.code))
	}
}
