package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/payload"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/usecase"
)

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if _, err := h.accountUsecase.Signup(r.Context(), usecase.SignupParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.MessageResponse{
		Message: "Account created. Check your email to confirm your address.",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if isForm(r) {
		values, err := formValues(w, r)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		req.Email = values["email"]
		if req.Email == "" {
			req.Email = values["username"]
		}
		req.Password = values["password"]
	} else if err := decodeRequest(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	session, err := h.accountUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.LoginResponse{
		Token:       session.Token,
		AccessToken: session.Token,
		TokenType:   "bearer",
		ExpiresAt:   session.ExpiresAt,
	})
}

func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	alreadyConfirmed, err := h.accountUsecase.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	msg := "Email confirmed. You can now log in."
	if alreadyConfirmed {
		msg = "Email already confirmed."
	}

	writeJSON(w, http.StatusOK, payload.ConfirmEmailResponse{
		Message:          msg,
		AlreadyConfirmed: alreadyConfirmed,
	})
}
