package relieferrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	err := New(CodeNotFound, "campaign 7 not found")
	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeUnauthorized))
	assert.False(t, Is(errors.New("plain"), CodeNotFound))
}

func TestIsWrapped(t *testing.T) {
	inner := New(CodePreconditionFailed, "insufficient escrow")
	outer := fmt.Errorf("distribute: %w", inner)
	assert.True(t, Is(outer, CodePreconditionFailed))
	assert.Equal(t, CodePreconditionFailed, CodeOf(outer))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeInternal, "store unavailable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized:       http.StatusForbidden,
		CodePaused:             http.StatusServiceUnavailable,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodePreconditionFailed: http.StatusUnprocessableEntity,
		CodeEditLocked:         http.StatusUnprocessableEntity,
		CodeAlreadyExists:      http.StatusConflict,
		CodeAlreadyInactive:    http.StatusConflict,
		CodeReentrant:          http.StatusConflict,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
