package crm

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/zaqqye/realty_backend/internal/utils"
)

var (
	ErrMissingSignature = errors.New("crm: missing signature")
	ErrStaleTimestamp   = errors.New("crm: timestamp outside allowed window")
	ErrInvalidSignature = errors.New("crm: invalid signature")
)

// SignedPayload is what gets signed: "<unix timestamp>.<raw body>".
func SignedPayload(timestamp string, body []byte) []byte {
	out := make([]byte, 0, len(timestamp)+1+len(body))
	out = append(out, timestamp...)
	out = append(out, '.')
	return append(out, body...)
}

// Sign returns the hex HMAC-SHA256 signature for body at timestamp.
func Sign(secret, timestamp string, body []byte) string {
	return utils.HMACSHA256Hex(secret, SignedPayload(timestamp, body))
}

// VerifySignature accepts the event only when the timestamp is within window of now (either
// direction) and the signature matches.
func VerifySignature(secret, timestamp string, body []byte, signature string, window time.Duration, now time.Time) error {
	timestamp = strings.TrimSpace(timestamp)
	if secret == "" || timestamp == "" || strings.TrimSpace(signature) == "" {
		return ErrMissingSignature
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrStaleTimestamp
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > window {
		return ErrStaleTimestamp
	}
	if !utils.VerifyHMACSHA256(secret, SignedPayload(timestamp, body), signature) {
		return ErrInvalidSignature
	}
	return nil
}
