// Package handler exposes club settings: readable by every member, writable
// by admins only. Checklist writes are schema-validated before they land.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubreserve/clubreserve/domains/settings/be/service"
	"github.com/clubreserve/clubreserve/platform/go/auth"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/httpx"
)

// Handler serves the settings routes.
type Handler struct {
	svc *service.Service
}

// New constructs the handler.
func New(svc *service.Service) *Handler {
	if svc == nil {
		panic("settings service is required")
	}
	return &Handler{svc: svc}
}

// Mount attaches the settings routes.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/settings", h.load)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Put("/settings/{key}", h.set)
	})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	cc, ok := club.FromContext(r.Context())
	if !ok {
		httpx.Error(w, r, http.StatusInternalServerError, "club not resolved")
		return
	}
	st, err := h.svc.Load(r.Context(), cc.DB)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{"settings": st})
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	cc, ok := club.FromContext(r.Context())
	if !ok {
		httpx.Error(w, r, http.StatusInternalServerError, "club not resolved")
		return
	}
	var req struct {
		Value string `json:"value"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.svc.Set(r.Context(), cc.DB, chi.URLParam(r, "key"), req.Value); err != nil {
		if errors.Is(err, service.ErrInvalidChecklist) {
			httpx.Error(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		httpx.Internal(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusNoContent, nil)
}
