// Package respond writes JSON bodies and maps application errors to HTTP
// status codes.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MsgInternal is shown when an error carries no user-facing message.
const MsgInternal = "Ocurrió un error inesperado."

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"error": msg} with status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// Status returns the HTTP status for err's kind.
func Status(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindCredential:
		return http.StatusUnauthorized
	case apperr.KindUpload:
		return http.StatusBadGateway
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"error": message}. Only the user-facing message is
// exposed; the cause goes to the log for 5xx responses.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err))
	}
	Message(w, status, apperr.MessageOf(err, MsgInternal))
}
