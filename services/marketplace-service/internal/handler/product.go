package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/payload"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/storage"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/usecase"
	authmiddleware "github.com/vasapolrittideah/marketplace-api/shared/middleware"
	"github.com/vasapolrittideah/marketplace-api/shared/validation"
)

const maxListLimit = 100

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	owner, ok := authmiddleware.SubjectFromContext(r.Context())
	if !ok {
		h.handleError(w, r, authmiddleware.ErrMissingAuthorization)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.HTTP.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.HTTP.MaxUploadBytes); err != nil {
		h.handleError(w, r, errors.Join(errBadRequest, err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	fieldErrs := validation.FieldErrors{}

	req := payload.AddProductRequest{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
	if err != nil {
		fieldErrs["price"] = "price must be a number"
	}
	req.Price = price

	file, header, err := r.FormFile("image")
	if err != nil {
		fieldErrs["image"] = "image is required"
	} else {
		defer file.Close()
	}

	if err := h.validator.Struct(req); err != nil {
		var verrs validation.FieldErrors
		if !errors.As(err, &verrs) {
			h.handleError(w, r, err)
			return
		}
		for k, v := range verrs {
			if _, exists := fieldErrs[k]; !exists {
				fieldErrs[k] = v
			}
		}
	}
	if len(fieldErrs) > 0 {
		h.handleError(w, r, fieldErrs)
		return
	}

	product, err := h.productUsecase.AddProduct(r.Context(), owner, usecase.AddProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image: storage.Object{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		},
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.AddProductResponse{
		Message: "Product added.",
		Product: payload.NewProductResponse(product),
	})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	products, err := h.productUsecase.ListProducts(r.Context(), params)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res := make([]payload.ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, payload.NewProductResponse(p))
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	owner, ok := authmiddleware.SubjectFromContext(r.Context())
	if !ok {
		h.handleError(w, r, authmiddleware.ErrMissingAuthorization)
		return
	}

	if err := h.productUsecase.DeleteProduct(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseListParams(r *http.Request) (repository.ListProductsParams, error) {
	var params repository.ListProductsParams
	fieldErrs := validation.FieldErrors{}
	query := r.URL.Query()

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fieldErrs["limit"] = "limit must be a non-negative integer"
		}
		params.Limit = min(limit, maxListLimit)
	}
	if v := query.Get("offset"); v != "" {
		// Stores take a signed offset.
		offset, err := strconv.ParseUint(v, 10, 63)
		if err != nil {
			fieldErrs["offset"] = "offset must be a non-negative integer"
		}
		params.Offset = offset
	}

	if len(fieldErrs) > 0 {
		return params, fieldErrs
	}
	return params, nil
}
