package errcode

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, SystemError, CodeOf(errors.New("boom")))
	assert.Equal(t, Conflict, CodeOf(New(Conflict, "dup")))

	wrapped := fmt.Errorf("submit: %w", New(InvalidState, "deadline passed"))
	assert.Equal(t, InvalidState, CodeOf(wrapped))
	assert.True(t, Is(wrapped, InvalidState))
	assert.False(t, Is(wrapped, Conflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(Unavailable, "store unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store unavailable: dial tcp: refused", err.Error())
}

func TestInvalidUsesFirstFieldMessage(t *testing.T) {
	err := Invalid(
		FieldError{Field: "coverLetter", Message: "coverLetter must be at least 50 characters"},
		FieldError{Field: "resume", Message: "resume is required"},
	)
	assert.Equal(t, Validation, err.Code)
	assert.Equal(t, "coverLetter must be at least 50 characters", err.Message)
	assert.Len(t, err.Fields, 2)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[int]int{
		Validation:   http.StatusBadRequest,
		Precondition: http.StatusBadRequest,
		Forbidden:    http.StatusForbidden,
		NotFound:     http.StatusNotFound,
		Conflict:     http.StatusConflict,
		InvalidState: http.StatusUnprocessableEntity,
		Unavailable:  http.StatusServiceUnavailable,
		SystemError:  http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatus(code), "code %d", code)
	}
}
