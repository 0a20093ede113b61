package httpapi

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter map; beyond it, idle entries are
// swept before admitting new clients.
const maxTrackedClients = 1024

// clientIdleEviction is how long a client bucket may sit unused before a
// sweep may drop it.
const clientIdleEviction = 10 * time.Minute

// loginLimiter applies a per-client token bucket to login attempts so a
// credential-guessing loop stalls without locking out other clients.
type loginLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newLoginLimiter builds a limiter allowing perMinute sustained attempts
// with the given burst per client.
func newLoginLimiter(perMinute float64, burst int) *loginLimiter {
	return &loginLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(perMinute / 60.0),
		burst:   burst,
		now:     time.Now,
	}
}

// allow reports whether the client may attempt another login now.
func (l *loginLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.clients[client]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.sweep(now)
		}
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.Allow()
}

func (l *loginLimiter) sweep(now time.Time) {
	for client, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > clientIdleEviction {
			delete(l.clients, client)
		}
	}
}

// clientKey extracts the client address used for rate limiting, the
// remote IP without the ephemeral port.
func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
