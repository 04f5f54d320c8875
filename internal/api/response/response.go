package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/query"
)

type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

type collectionEnvelope struct {
	StatusCode     int        `json:"statusCode"`
	Message        string     `json:"message"`
	Data           any        `json:"data"`
	PaginationMeta query.Meta `json:"paginationMeta"`
}

type errorEnvelope struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Error      string            `json:"error"`
	Details    map[string]string `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{StatusCode: http.StatusOK, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, envelope{StatusCode: http.StatusCreated, Message: message, Data: data})
}

func Collection(w http.ResponseWriter, message string, data any, meta query.Meta) {
	writeJSON(w, http.StatusOK, collectionEnvelope{
		StatusCode:     http.StatusOK,
		Message:        message,
		Data:           data,
		PaginationMeta: meta,
	})
}

func Error(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, errorEnvelope{
		StatusCode: status,
		Message:    message,
		Error:      code,
		Details:    details,
	})
}

// Err writes err as an error envelope. Errors without a caller-facing kind
// become a generic 500 so internal details never reach the client.
func Err(w http.ResponseWriter, err error) {
	status, code := Status(apperr.KindOf(err))
	if status == http.StatusInternalServerError {
		Error(w, status, code, "Internal server error", nil)
		return
	}
	var e *apperr.Error
	errors.As(err, &e)
	Error(w, status, code, e.Message, e.Details)
}

// Status maps an error kind to its HTTP status and error code.
func Status(k apperr.Kind) (int, string) {
	switch k {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case apperr.KindValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case apperr.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case apperr.KindConflict:
		return http.StatusConflict, "CONFLICT"
	case apperr.KindForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
