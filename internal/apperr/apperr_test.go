package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotVerified, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindUpstream, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(New(tt.kind, "boom")))
	}
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("raw")))
}

func TestMessageHidesUnclassifiedErrors(t *testing.T) {
	assert.Equal(t, "course not found", Message(New(KindNotFound, "course not found")))
	assert.Equal(t, "internal server error", Message(errors.New("pq: connection refused")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindUpstream, "payment provider error", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsKind(err, KindUpstream))
	assert.False(t, IsKind(err, KindValidation))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsKindThroughWrapping(t *testing.T) {
	inner := New(KindForbidden, "nope")
	outer := fmt.Errorf("handling request: %w", inner)

	assert.True(t, IsKind(outer, KindForbidden))
	assert.Equal(t, http.StatusForbidden, Status(outer))
	assert.Equal(t, "nope", Message(outer))
}
