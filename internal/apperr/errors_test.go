package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:      http.StatusBadRequest,
		CodeConflict:        http.StatusBadRequest,
		CodeUnauthenticated: http.StatusUnauthorized,
		CodeForbidden:       http.StatusForbidden,
		CodeNotFound:        http.StatusNotFound,
		CodeRateLimited:     http.StatusTooManyRequests,
		CodeInternal:        http.StatusInternalServerError,
		Code("SOMETHING"):   http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), string(code))
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("load menu: %w", NotFound("menu item not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(CodeInternal, "query users", sql.ErrConnDone)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestPublicMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: password authentication failed")))
	assert.Equal(t, "internal server error", PublicMessage(Wrap(CodeInternal, "secret detail", nil)))
	assert.Equal(t, "Username already registered", PublicMessage(New(CodeConflict, "Username already registered")))
}
