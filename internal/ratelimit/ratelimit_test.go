package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinWindow(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	ok, _ := l.Allow("1.2.3.4", now)
	assert.True(t, ok)
	ok, _ = l.Allow("1.2.3.4", now.Add(10*time.Second))
	assert.True(t, ok)

	ok, retry := l.Allow("1.2.3.4", now.Add(20*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	ok, _ = l.Allow("5.6.7.8", now.Add(20*time.Second))
	assert.True(t, ok, "keys are independent")
}

func TestWindowResets(t *testing.T) {
	l := New(1, time.Minute)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	ok, _ := l.Allow("k", now)
	assert.True(t, ok)
	ok, _ = l.Allow("k", now.Add(59*time.Second))
	assert.False(t, ok)
	ok, _ = l.Allow("k", now.Add(time.Minute))
	assert.True(t, ok)
}

func TestExpiredWindowsAreCollected(t *testing.T) {
	l := New(5, time.Minute)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	l.Allow("a", now)
	l.Allow("b", now)
	assert.Equal(t, 2, l.Len())

	l.Allow("c", now.Add(2*time.Minute))
	assert.Equal(t, 1, l.Len())
}
