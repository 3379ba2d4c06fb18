package identity

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter throttles sign-in attempts per email address. Entries
// idle past the cleanup horizon are dropped to keep the map bounded.
type loginLimiter struct {
	perMinute float64
	burst     int

	mu       sync.Mutex
	limiters map[string]*emailLimiter
}

type emailLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLoginLimiter(perMinute float64, burst int) *loginLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &loginLimiter{
		perMinute: perMinute,
		burst:     burst,
		limiters:  make(map[string]*emailLimiter),
	}
}

func (l *loginLimiter) allow(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[email]
	if !ok {
		e = &emailLimiter{limiter: rate.NewLimiter(rate.Limit(l.perMinute/60.0), l.burst)}
		l.limiters[email] = e
	}
	e.lastAccess = now

	if len(l.limiters) > 10000 {
		l.cleanupLocked(now)
	}

	return e.limiter.Allow()
}

func (l *loginLimiter) cleanupLocked(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastAccess) > 30*time.Minute {
			delete(l.limiters, k)
		}
	}
}
