package middleware

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/server/respond"
)

// HostMatcher checks Host headers against a list of patterns. A pattern
// "*.example.org" matches any subdomain of example.org but not example.org
// itself; "*" matches everything.
type HostMatcher struct {
	exact    map[string]struct{}
	suffixes []string
	any      bool
}

// NewHostMatcher compiles patterns. Matching is case-insensitive.
func NewHostMatcher(patterns []string) *HostMatcher {
	m := &HostMatcher{exact: map[string]struct{}{}}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "":
		case p == "*":
			m.any = true
		case strings.HasPrefix(p, "*."):
			m.suffixes = append(m.suffixes, p[1:])
		default:
			m.exact[p] = struct{}{}
		}
	}
	return m
}

// Allowed reports whether host (optionally with a port) matches.
func (m *HostMatcher) Allowed(host string) bool {
	if m.any {
		return true
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if _, ok := m.exact[host]; ok {
		return true
	}
	for _, s := range m.suffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	return false
}

// TrustedHosts answers 400 to requests whose Host header does not match
// patterns.
func TrustedHosts(patterns []string, log *zap.Logger) func(http.Handler) http.Handler {
	m := NewHostMatcher(patterns)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.Allowed(r.Host) {
				log.Warn("rejected host", zap.String("host", r.Host))
				respond.Error(w, log, apperr.Validation("Invalid host header"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
