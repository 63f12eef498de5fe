package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter — token-bucket на клиента (по user_id из токена, иначе по IP).
// Неактивные записи вычищаются janitor-горутиной.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ent, ok := rl.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, ent := range rl.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(rl.entries, k)
		}
	}
}

// StartJanitor запускает периодическую чистку неактивных лимитеров.
// Останавливается по закрытию done.
func (rl *RateLimiter) StartJanitor(done <-chan struct{}) {
	t := time.NewTicker(2 * time.Minute)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				rl.cleanup()
			}
		}
	}()
}

// clientKey различает клиентов по user_id токена, для анонимных запросов по IP.
func clientKey(r *http.Request) string {
	if userID, err := GetUserIDFromContext(r.Context()); err == nil {
		return "user:" + strconv.Itoa(userID)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Handler ограничивает частоту запросов на клиента.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.get(clientKey(r)).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
