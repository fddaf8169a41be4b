package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает частоту запросов отдельно для каждого тенанта.
// Запросы без тенанта в контексте делят общий лимит.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter создаёт ограничитель на rps запросов в секунду. При rps <= 0 ограничение выключено.
func NewRateLimiter(rps float64) *RateLimiter {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Middleware отвечает 429 с заголовком Retry-After, когда лимит тенанта исчерпан.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rps <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key, _ := GetTenantIDFromContext(r.Context())
		if !l.limiter(key).Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
