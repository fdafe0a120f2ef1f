// Package respond writes JSON responses and maps domain errors onto them.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail string      `json:"detail"`
	Code   apperr.Code `json:"code"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as an ErrorBody. Unauthenticated errors carry the Bearer
// challenge; unclassified errors are logged and reported generically.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	code := apperr.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		code = apperr.CodeInternal
	}
	if code == apperr.CodeUnauthenticated {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	JSON(w, status, ErrorBody{Detail: apperr.PublicMessage(err), Code: code})
}
