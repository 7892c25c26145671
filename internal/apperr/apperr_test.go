package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound, "gone")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain error")))

	// Wrapping elsewhere in the chain still surfaces the kind
	wrapped := fmt.Errorf("handler: %w", New(KindQuotaExceeded, "limit reached"))
	assert.Equal(t, KindQuotaExceeded, KindOf(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindProviderTransient, "analysis request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "provider_transient")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(KindProviderTransient, "timeout")))
	assert.False(t, Retryable(New(KindProviderMalformed, "bad payload")))
	assert.False(t, Retryable(New(KindStorage, "disk full")))
	assert.False(t, Retryable(errors.New("plain error")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindInvalidInput, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindQuotaExceeded, http.StatusTooManyRequests},
		{KindProviderTransient, http.StatusBadGateway},
		{KindProviderMalformed, http.StatusBadGateway},
		{KindCacheUnavailable, http.StatusInternalServerError},
		{KindStorage, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(New(tt.kind, "boom")))
		})
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain error")))
}
