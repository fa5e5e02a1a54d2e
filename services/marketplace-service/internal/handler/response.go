package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/storage"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/marketplace-api/shared/auth"
	authmiddleware "github.com/vasapolrittideah/marketplace-api/shared/middleware"
	"github.com/vasapolrittideah/marketplace-api/shared/validation"
)

type errorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, msg string) {
	writeErrorFields(w, status, code, msg, nil)
}

func writeErrorFields(w http.ResponseWriter, status int, code, msg string, fields map[string]string) {
	var res errorResponse
	res.Error.Code = code
	res.Error.Message = msg
	res.Error.Fields = fields
	writeJSON(w, status, res)
}

// handleError maps domain errors to their HTTP status. Anything unrecognised is logged and hidden.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeErrorFields(w, http.StatusBadRequest, "validation_failed", "request validation failed", fieldErrs)
		return
	}

	if errors.Is(err, storage.ErrEmptyFilename) {
		writeErrorFields(w, http.StatusBadRequest, "validation_failed", "request validation failed",
			map[string]string{"image": "image filename is required"})
		return
	}

	switch {
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, usecase.ErrAccountExists):
		writeError(w, http.StatusConflict, "account_exists", "an account with this email or username already exists")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, usecase.ErrEmailNotConfirmed):
		writeError(w, http.StatusForbidden, "email_not_confirmed", "email address has not been confirmed")
	case errors.Is(err, usecase.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "not_found", "account not found")
	case errors.Is(err, usecase.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, usecase.ErrNotProductOwner):
		writeError(w, http.StatusForbidden, "forbidden", "product belongs to another account")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token_expired", "token has expired")
	case errors.Is(err, auth.ErrTokenMalformed):
		writeError(w, http.StatusUnauthorized, "token_malformed", "token is invalid")
	case errors.Is(err, auth.ErrWrongPurpose):
		writeError(w, http.StatusUnauthorized, "wrong_token_purpose", "token was issued for a different purpose")
	case errors.Is(err, authmiddleware.ErrMissingAuthorization),
		errors.Is(err, authmiddleware.ErrInvalidAuthorization):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "something went wrong")
	}
}
