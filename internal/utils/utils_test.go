package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACRoundTrip(t *testing.T) {
	body := []byte(`{"event":"listing.added"}`)
	sig := HMACSHA256Hex("s3cret", body)

	assert.True(t, VerifyHMACSHA256("s3cret", body, sig))
	assert.True(t, VerifyHMACSHA256("s3cret", body, "sha256="+sig))
	assert.False(t, VerifyHMACSHA256("other", body, sig))
	assert.False(t, VerifyHMACSHA256("s3cret", []byte("tampered"), sig))
	assert.False(t, VerifyHMACSHA256("s3cret", body, "not-hex"))
	assert.False(t, VerifyHMACSHA256("s3cret", body, ""))
}

func TestPassword(t *testing.T) {
	hashed, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hashed, "admin123"))
	assert.False(t, CheckPassword(hashed, "admin124"))
}
