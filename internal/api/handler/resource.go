package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/backoffice/internal/apperr"
	mw "github.com/kiranshivaraju/backoffice/internal/api/middleware"
	"github.com/kiranshivaraju/backoffice/internal/api/response"
	"github.com/kiranshivaraju/backoffice/internal/logger"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/tenant"
	"go.uber.org/zap"
)

// maxBodyBytes caps create and update payloads.
const maxBodyBytes = 1 << 20

// Service is the operation set every back-office resource exposes.
// C and U are the create and partial-update payloads.
type Service[T any, C any, U any] interface {
	Create(ctx context.Context, merchantID int64, in C) (T, error)
	List(ctx context.Context, merchantID int64, p query.Params, v url.Values) ([]T, query.Meta, error)
	Get(ctx context.Context, merchantID, id int64) (T, error)
	Update(ctx context.Context, merchantID, id int64, in U) (T, error)
	Remove(ctx context.Context, merchantID, id int64) (T, error)
}

// Resource serves the five CRUD routes of one resource.
type Resource[T any, C any, U any] struct {
	// Name is the singular display name, e.g. "Online store".
	Name    string
	Service Service[T, C, U]
}

// NewResource returns a handler for svc. name is used in response messages.
func NewResource[T any, C any, U any](name string, svc Service[T, C, U]) *Resource[T, C, U] {
	return &Resource[T, C, U]{Name: name, Service: svc}
}

// Routes mounts POST /, GET /, GET /{id}, PATCH /{id} and DELETE /{id}.
func (h *Resource[T, C, U]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Remove)
	return r
}

func (h *Resource[T, C, U]) Create(w http.ResponseWriter, r *http.Request) {
	mid, err := requireMerchant(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var in C
	if err := decode(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	v, err := h.Service.Create(r.Context(), mid, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, h.Name+" created successfully", v)
}

func (h *Resource[T, C, U]) List(w http.ResponseWriter, r *http.Request) {
	mid, err := requireMerchant(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	q := r.URL.Query()
	p, err := query.ParamsFromValues(q)
	if err != nil {
		fail(w, r, err)
		return
	}
	items, meta, err := h.Service.List(r.Context(), mid, p, q)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Collection(w, h.Name+" list retrieved successfully", items, meta)
}

func (h *Resource[T, C, U]) Get(w http.ResponseWriter, r *http.Request) {
	mid, err := requireMerchant(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	v, err := h.Service.Get(r.Context(), mid, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.JSON(w, h.Name+" retrieved successfully", v)
}

func (h *Resource[T, C, U]) Update(w http.ResponseWriter, r *http.Request) {
	mid, err := requireMerchant(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var in U
	if err := decode(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	v, err := h.Service.Update(r.Context(), mid, id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.JSON(w, h.Name+" updated successfully", v)
}

func (h *Resource[T, C, U]) Remove(w http.ResponseWriter, r *http.Request) {
	mid, err := requireMerchant(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	v, err := h.Service.Remove(r.Context(), mid, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.JSON(w, h.Name+" deleted successfully", v)
}

// requireMerchant runs before any input is parsed, so a request without a
// tenant is Unauthorized whatever else is wrong with it.
func requireMerchant(r *http.Request) (int64, error) {
	id, _ := mw.GetMerchantID(r)
	if err := tenant.Require(id); err != nil {
		return 0, err
	}
	return id, nil
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidField("id", "id must be a positive integer")
	}
	return id, nil
}

func decode(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return apperr.Validation("Content-Type must be application/json")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.InvalidField(typeErr.Field, "%s has the wrong type", typeErr.Field)
		}
		if strings.HasPrefix(err.Error(), "json: unknown field ") {
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return apperr.InvalidField(field, "unknown field %q", field)
		}
		return apperr.Validation("Invalid JSON body")
	}
	return nil
}

// fail writes err and logs it when it is not a caller error.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	response.Err(w, err)
}
