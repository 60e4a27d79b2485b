package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gartstein/partnerhub/internal/partner/metrics"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	logger   *zap.Logger
}

func NewIPRateLimiter(r rate.Limit, burst int, logger *zap.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:   r,
		burst:  burst,
		logger: logger.Named("rate_limiter"),
	}
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	if existing, ok := l.limiters.Load(ip); ok {
		return existing.(*rate.Limiter)
	}
	created, _ := l.limiters.LoadOrStore(ip, rate.NewLimiter(l.rate, l.burst))
	return created.(*rate.Limiter)
}

// Limit rejects requests over the per-IP budget with 429.
func (l *IPRateLimiter) Limit(route string, next runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		ip := clientIP(r)
		if !l.limiter(ip).Allow() {
			l.logger.Warn("Rate limit exceeded",
				zap.String("ip", ip),
				zap.String("route", route),
			)
			metrics.RateLimited.WithLabelValues(route).Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r, pathParams)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
