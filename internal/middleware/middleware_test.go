package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/auth"
	"github.com/tmsiti/backend/internal/models"
	"github.com/tmsiti/backend/internal/ratelimit"
)

// dummyHandler records whether it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type fakeAuthenticator struct {
	users map[string]*models.User
}

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, apperr.ErrUnauthenticated
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(r), header)
	}
}

func TestRequireAuthAndPermission(t *testing.T) {
	reader := &models.User{Username: "reader", Permissions: []string{"read"}}
	writer := &models.User{Username: "writer", Permissions: []string{"write"}}
	a := fakeAuthenticator{users: map[string]*models.User{"r": reader, "w": writer}}
	log := zap.NewNop()

	chain := func(next http.Handler) http.Handler {
		return RequireAuth(a, log)(RequirePermission(models.PermWrite, log)(next))
	}

	tests := []struct {
		name      string
		token     string
		status    int
		called    bool
		challenge bool
	}{
		{"no token", "", http.StatusUnauthorized, false, true},
		{"bad token", "zzz", http.StatusUnauthorized, false, true},
		{"lacks write", "r", http.StatusForbidden, false, false},
		{"has write", "w", http.StatusOK, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/menu", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			chain(dummy).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.called, dummy.called)
			assert.Equal(t, tt.challenge, rec.Header().Get("WWW-Authenticate") == "Bearer")
			if dummy.called {
				assert.Same(t, writer, auth.UserFromContext(dummy.ctx))
			}
		})
	}
}

func TestRequirePermission_NoUser(t *testing.T) {
	dummy := &dummyHandler{}
	rec := httptest.NewRecorder()
	RequirePermission(models.PermRead, zap.NewNop())(dummy).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, dummy.called)
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	policies, err := ratelimit.ParsePolicies(map[ratelimit.Class]string{ratelimit.ClassLogin: "5/minute"})
	require.NoError(t, err)
	l := ratelimit.New(ratelimit.NewMemoryStore(), policies, ratelimit.WithClock(func() time.Time { return now }))

	dummy := &dummyHandler{}
	h := RateLimit(l, ratelimit.ClassLogin, zap.NewNop())(dummy)

	send := func(addr string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = addr
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 1; i <= 5; i++ {
		rec := send("10.0.0.1:5000")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	now = now.Add(20*time.Second + 500*time.Millisecond)
	dummy.called = false
	rec := send("10.0.0.1:6000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, dummy.called, "rejected request must not reach the handler")
	assert.Equal(t, "40", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)

	assert.Equal(t, http.StatusOK, send("10.0.0.2:5000").Code, "other clients unaffected")

	now = now.Add(40 * time.Second)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:5000").Code, "new window")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", ClientIP(r))
	r.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}

func TestHostMatcher(t *testing.T) {
	m := NewHostMatcher([]string{"tmsiti.uz", "*.tmsiti.uz", "localhost", "127.0.0.1"})
	for _, h := range []string{"tmsiti.uz", "api.tmsiti.uz", "API.TMSITI.UZ", "localhost:8000", "127.0.0.1:80", "tmsiti.uz."} {
		assert.True(t, m.Allowed(h), h)
	}
	for _, h := range []string{"evil.com", "tmsiti.uz.evil.com", "eviltmsiti.uz", ""} {
		assert.False(t, m.Allowed(h), h)
	}
	assert.True(t, NewHostMatcher([]string{"*"}).Allowed("anything"))
}

func TestTrustedHosts(t *testing.T) {
	dummy := &dummyHandler{}
	h := TrustedHosts([]string{"example.org"}, zap.NewNop())(dummy)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://evil.com/", nil)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, dummy.called)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "http://example.org/", nil)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := WithRequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/menu", strings.NewReader("{}"))
	h.ServeHTTP(rec, req)

	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, id, fields["request_id"])
	assert.EqualValues(t, http.StatusCreated, fields["status"])
	assert.EqualValues(t, 7, fields["size"])
	assert.Equal(t, "/api/menu", fields["path"])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestOptionalAuth(t *testing.T) {
	u := &models.User{Username: "u"}
	a := fakeAuthenticator{users: map[string]*models.User{"good": u}}

	for token, want := range map[string]*models.User{"good": u, "bad": nil, "": nil} {
		dummy := &dummyHandler{}
		req := httptest.NewRequest("POST", "/api/documents/1/download", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		OptionalAuth(a)(dummy).ServeHTTP(rec, req)

		assert.True(t, dummy.called, token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, auth.UserFromContext(dummy.ctx), token)
	}
}
