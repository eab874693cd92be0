// Package handler exposes the message board over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/domains/messages/be/service"
	"github.com/clubreserve/clubreserve/platform/go/auth"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/httpx"
)

// Handler serves the message board routes.
type Handler struct {
	svc *service.Service
}

// New constructs the handler.
func New(svc *service.Service) *Handler {
	if svc == nil {
		panic("messages service is required")
	}
	return &Handler{svc: svc}
}

// Mount attaches the board routes.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/messages", h.list)
	r.Post("/messages", h.post)
	r.Delete("/messages/{id}", h.delete)
}

type messageJSON struct {
	ID             uuid.UUID `json:"id"`
	AuthorName     string    `json:"author_name"`
	AuthorUsername string    `json:"author_username,omitempty"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	IsAnnouncement bool      `json:"is_announcement"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	cc, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.List(r.Context(), cc.DB)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	out := make([]messageJSON, len(entries))
	for i, e := range entries {
		out[i] = messageJSON{
			ID:             e.ID,
			AuthorName:     e.AuthorName,
			AuthorUsername: e.AuthorUsername,
			Title:          e.Title,
			Body:           e.Body,
			IsAnnouncement: e.IsAnnouncement,
			CreatedAt:      e.CreatedAt,
		}
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{"messages": out})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	cc, id, ok := requestScope(w, r)
	if !ok {
		return
	}
	var req struct {
		Title          string `json:"title"`
		Body           string `json:"body"`
		IsAnnouncement bool   `json:"is_announcement,omitempty"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	actor := service.Actor{MemberID: id.MemberID, IsAdmin: id.IsAdmin}
	m, err := h.svc.Post(r.Context(), cc.DB, actor, req.Title, req.Body, req.IsAnnouncement)
	if err != nil {
		httpx.Error(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	httpx.JSON(w, r, http.StatusCreated, messageJSON{
		ID:             m.ID,
		Title:          m.Title,
		Body:           m.Body,
		IsAnnouncement: m.IsAnnouncement,
		CreatedAt:      m.CreatedAt,
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	cc, id, ok := requestScope(w, r)
	if !ok {
		return
	}
	msgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed message id")
		return
	}
	actor := service.Actor{MemberID: id.MemberID, IsAdmin: id.IsAdmin}
	if err := h.svc.Delete(r.Context(), cc.DB, msgID, actor); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			httpx.Error(w, r, http.StatusNotFound, "message not found")
		case errors.Is(err, service.ErrForbidden):
			httpx.Error(w, r, http.StatusForbidden, "you cannot delete that message")
		default:
			httpx.Internal(w, r, err)
		}
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
