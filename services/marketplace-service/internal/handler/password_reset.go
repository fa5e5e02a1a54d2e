package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/payload"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/usecase"
)

// ForgotPassword answers the same way whether or not the account exists.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	err := h.accountUsecase.ForgotPassword(r.Context(), req.Email)
	if err != nil && !errors.Is(err, usecase.ErrAccountNotFound) {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{
		Message: "If an account with that email exists, a password reset link has been sent.",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.accountUsecase.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.NewPassword); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "Password has been reset."})
}
