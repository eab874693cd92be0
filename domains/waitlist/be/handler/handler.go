// Package handler exposes the waitlist over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/domains/waitlist/be/service"
	"github.com/clubreserve/clubreserve/platform/go/auth"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/httpx"
)

// Handler serves the waitlist routes.
type Handler struct {
	svc *service.Service
}

// New constructs the handler.
func New(svc *service.Service) *Handler {
	if svc == nil {
		panic("waitlist service is required")
	}
	return &Handler{svc: svc}
}

// Mount attaches the waitlist routes.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/waitlist", h.list)
	r.Post("/waitlist/{date}", h.join)
	r.Delete("/waitlist/{date}", h.leave)
}

type entryJSON struct {
	ID          uuid.UUID `json:"id"`
	DesiredDate string    `json:"desired_date"`
	Notes       string    `json:"notes,omitempty"`
	Notified    bool      `json:"notified"`
}

func toJSON(e service.Entry) entryJSON {
	return entryJSON{
		ID:          e.ID,
		DesiredDate: e.DesiredDate.Format("2006-01-02"),
		Notes:       e.Notes,
		Notified:    e.Notified,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	cc, id, ok := requestScope(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.ListForMember(r.Context(), cc, id.MemberID)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		out[i] = toJSON(e)
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	cc, id, ok := requestScope(w, r)
	if !ok {
		return
	}
	date, ok := pathDate(w, r)
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes,omitempty"`
	}
	// An empty body is a plain join.
	_ = httpx.Decode(r, &req)

	e, err := h.svc.Join(r.Context(), cc, id.MemberID, date, req.Notes)
	if err != nil {
		httpx.Error(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	httpx.JSON(w, r, http.StatusOK, toJSON(e))
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	cc, id, ok := requestScope(w, r)
	if !ok {
		return
	}
	date, ok := pathDate(w, r)
	if !ok {
		return
	}
	if err := h.svc.Leave(r.Context(), cc, id.MemberID, date); err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusNoContent, nil)
}

func requestScope(w http.ResponseWriter, r *http.Request) (club.Context, auth.Identity, bool) {
	cc, ok := club.FromContext(r.Context())
	if !ok {
		httpx.Error(w, r, http.StatusInternalServerError, "club not resolved")
		return club.Context{}, auth.Identity{}, false
	}
	id, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, r, http.StatusUnauthorized, "authentication required")
		return club.Context{}, auth.Identity{}, false
	}
	return cc, id, true
}

func pathDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
