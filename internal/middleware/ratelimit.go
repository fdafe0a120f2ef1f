package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/ratelimit"
	"github.com/tmsiti/backend/internal/server/respond"
)

// ClientIP returns the host part of r.RemoteAddr. When the router trusts
// proxy headers, chi's RealIP has already rewritten RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit admits requests of class per client address. Rejected requests
// get 429 with a Retry-After header in whole seconds and never reach the
// next handler.
func RateLimit(l *ratelimit.Limiter, class ratelimit.Class, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Admit(r.Context(), ClientIP(r), class)
			if d.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			}
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				p, _ := l.Policy(class)
				respond.Error(w, log, apperr.New(apperr.CodeRateLimited, "Rate limit exceeded: "+p.String()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
