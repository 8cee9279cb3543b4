package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"DirectoryServer/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Fields      map[string]string `json:"fields,omitempty"`
	InvalidArgs map[string]any    `json:"invalid_args,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDomainError maps err onto the error envelope and returns the status
// it wrote.
func WriteDomainError(w http.ResponseWriter, err error) int {
	status, body := domainError(err)
	WriteJSON(w, status, errorEnvelope{Error: body})
	return status
}

func domainError(err error) (int, apiError) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, apiError{Code: "invalid_token", Message: "invalid token"}
	case errors.As(err, &ve):
		msg := ve.Message
		if msg == "" {
			msg = "invalid request"
		}
		return http.StatusBadRequest, apiError{
			Code:        "validation_error",
			Message:     msg,
			Fields:      ve.Fields,
			InvalidArgs: ve.InvalidArgs,
		}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, apiError{Code: "validation_error", Message: "invalid request"}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, apiError{Code: "unauthenticated", Message: "not authenticated"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, apiError{Code: "forbidden", Message: "forbidden"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, apiError{Code: "not_found", Message: "not found"}
	default:
		return http.StatusInternalServerError, apiError{Code: "internal_error", Message: "internal server error"}
	}
}
