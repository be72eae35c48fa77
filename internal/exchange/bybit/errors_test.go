package bybit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthenticationError(t *testing.T) {
	assert.True(t, IsAuthenticationError(NewBybitError(ErrCodeInvalidAPIKey, "invalid api key")))
	assert.True(t, IsAuthenticationError(NewBybitError(ErrCodeInvalidSignature, "invalid signature")))
	assert.True(t, IsAuthenticationError(NewBybitError(ErrCodeInvalidTimestamp, "timestamp out of window")))

	assert.False(t, IsAuthenticationError(NewBybitError(ErrCodeRateLimitExceeded, "too many requests")))
	assert.False(t, IsAuthenticationError(errors.New("connection refused")))
	assert.False(t, IsAuthenticationError(nil))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewBybitError(ErrCodeRateLimitExceeded, "too many requests")))
	assert.True(t, IsRetryableError(NewBybitError(502, "bad gateway")))

	// Auth failures never retry; bad keys do not fix themselves.
	assert.False(t, IsRetryableError(NewBybitError(ErrCodeInvalidAPIKey, "invalid api key")))
	assert.False(t, IsRetryableError(errors.New("connection refused")))
}

func TestParseAPIError(t *testing.T) {
	assert.NoError(t, ParseAPIError(0, "OK"))

	err := ParseAPIError(ErrCodeSymbolNotFound, "symbol not found")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "110009")
}
