// Package handler exposes the account and product usecases over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/storage"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/usecase"
	authmiddleware "github.com/vasapolrittideah/marketplace-api/shared/middleware"
	"github.com/vasapolrittideah/marketplace-api/shared/validation"
)

// StorageInfoProvider reports where product images are stored.
type StorageInfoProvider interface {
	Info() storage.Info
}

type Handler struct {
	accountUsecase usecase.AccountUsecase
	productUsecase usecase.ProductUsecase
	pinger         repository.Pinger
	storage        StorageInfoProvider
	validator      *validation.Validator
	logger         *zerolog.Logger
	cfg            *config.Config
}

func NewHandler(
	accountUsecase usecase.AccountUsecase,
	productUsecase usecase.ProductUsecase,
	pinger repository.Pinger,
	storage StorageInfoProvider,
	logger *zerolog.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		accountUsecase: accountUsecase,
		productUsecase: productUsecase,
		pinger:         pinger,
		storage:        storage,
		validator:      validation.New(),
		logger:         logger,
		cfg:            cfg,
	}
}

// Routes builds the router with the middleware chain every request goes through.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(hlog.NewHandler(*h.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request handled")
	}))
	r.Use(h.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.HTTP.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/debug/storage", h.StorageInfo)

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Get("/confirm_email/{token}", h.ConfirmEmail)
	r.Post("/forgot_password", h.ForgotPassword)
	r.Post("/reset_password/{token}", h.ResetPassword)

	r.Get("/products", h.ListProducts)

	r.Group(func(r chi.Router) {
		r.Use(authmiddleware.NewJWTAuthenticator(h.accountUsecase.Authenticate, h.handleError))

		r.Post("/add-product", h.AddProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			h.logger.Error().
				Interface("panic", rec).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Msg("recovered from panic")
			writeError(w, http.StatusInternalServerError, "internal", "something went wrong")
		}()

		next.ServeHTTP(w, r)
	})
}
