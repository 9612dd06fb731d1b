// Package ratelimit provides the fixed-window request counter used on public form endpoints.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter allows Limit hits per key inside each Window. State lives in memory and resets on restart.
type Limiter struct {
	Limit  int
	Window time.Duration

	mu      sync.Mutex
	windows map[string]*window
	lastGC  time.Time
}

func New(limit int, win time.Duration) *Limiter {
	return &Limiter{Limit: limit, Window: win, windows: map[string]*window{}}
}

// Allow records one hit for key at now. When the key is over its limit it returns false and
// the time left until the window resets.
func (l *Limiter) Allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > l.Window {
		l.gc(now)
	}
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.Window {
		l.windows[key] = &window{start: now, count: 1}
		return true, 0
	}
	if w.count >= l.Limit {
		return false, w.start.Add(l.Window).Sub(now)
	}
	w.count++
	return true, 0
}

// gc drops expired windows so idle clients do not accumulate.
func (l *Limiter) gc(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.Window {
			delete(l.windows, k)
		}
	}
	l.lastGC = now
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
