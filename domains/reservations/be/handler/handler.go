// Package handler exposes the reservation engine over HTTP. Routes are
// mounted behind the club resolver and the bearer-token middleware, so every
// request arrives with a club context and a caller identity.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	membersservice "github.com/clubreserve/clubreserve/domains/members/be/service"
	"github.com/clubreserve/clubreserve/domains/reservations/be/service"
	"github.com/clubreserve/clubreserve/platform/go/auth"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/httpx"
)

// Handler serves the reservation routes.
type Handler struct {
	svc *service.Service
}

// New constructs the handler.
func New(svc *service.Service) *Handler {
	if svc == nil {
		panic("reservations service is required")
	}
	return &Handler{svc: svc}
}

// Mount attaches the member-facing routes and, under adminOnly, the approval
// and reporting routes.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/reservations", h.book)
	r.Get("/reservations/{id}", h.get)
	r.Delete("/reservations/{id}", h.cancel)
	r.Get("/calendar", h.calendar)
	r.Get("/calendar/{date}", h.day)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/reservations/{id}/approve", h.approve)
		r.Post("/reservations/{id}/deny", h.deny)
		r.Get("/stats/usage", h.usage)
	})
}

type bookRequest struct {
	VehicleIDs []uuid.UUID `json:"vehicle_ids,omitempty"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Notes      string      `json:"notes,omitempty"`
}

type reservationJSON struct {
	ID          uuid.UUID  `json:"id"`
	MemberID    uuid.UUID  `json:"member_id"`
	VehicleID   *uuid.UUID `json:"vehicle_id,omitempty"`
	Date        string     `json:"date"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func toJSON(res service.Reservation) reservationJSON {
	return reservationJSON{
		ID:          res.ID,
		MemberID:    res.MemberID,
		VehicleID:   res.VehicleID,
		Date:        res.Date.Format("2006-01-02"),
		Start:       res.Start,
		End:         res.End,
		Status:      string(res.Status),
		Notes:       res.Notes,
		CancelledAt: res.CancelledAt,
	}
}

type calendarEntryJSON struct {
	reservationJSON
	MemberName string `json:"member_name"`
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	cc, id, ok := requestScope(w, r)
	if !ok {
		return
	}
	var req bookRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	rs, err := h.svc.Book(r.Context(), cc, service.BookInput{
		MemberID:   id.MemberID,
		VehicleIDs: req.VehicleIDs,
		Start:      req.Start,
		End:        req.End,
		Notes:      req.Notes,
	})
	if err != nil {
		h.bookError(w, r, err)
		return
	}

	out := make([]reservationJSON, len(rs))
	for i, res := range rs {
		out[i] = toJSON(res)
	}
	httpx.JSON(w, r, http.StatusCreated, map[string]any{"reservations": out})
}

func (h *Handler) bookError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := service.IsValidation(err); ok {
		details := make([]string, len(ve))
		for i, v := range ve {
			details[i] = v.Reason
		}
		httpx.Error(w, r, http.StatusUnprocessableEntity, "reservation request rejected", details...)
		return
	}
	if ce, ok := service.IsConflict(err); ok {
		details := make([]string, len(ce.Conflicts))
		for i, c := range ce.Conflicts {
			details[i] = c.Conflict.Message()
		}
		httpx.Error(w, r, http.StatusConflict, "requested time is not available", details...)
		return
	}
	if errors.Is(err, membersservice.ErrNotFound) {
		httpx.Error(w, r, http.StatusForbidden, "membership not active")
		return
	}
	httpx.Internal(w, r, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cc, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	resID, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Get(r.Context(), cc, resID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httpx.Error(w, r, http.StatusNotFound, "reservation not found")
			return
		}
		httpx.Internal(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, toJSON(res))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	cc, id, ok := requestScope(w, r)
	if !ok {
		return
	}
	resID, ok := pathID(w, r)
	if !ok {
		return
	}

	out, err := h.svc.Cancel(r.Context(), cc, resID, service.Actor{MemberID: id.MemberID, IsAdmin: id.IsAdmin})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			httpx.Error(w, r, http.StatusNotFound, "reservation not found")
		case errors.Is(err, service.ErrUnauthorized):
			httpx.Error(w, r, http.StatusForbidden, "you can only cancel your own reservations")
		default:
			httpx.Internal(w, r, err)
		}
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{
		"reservation":       toJSON(out.Reservation),
		"already_cancelled": out.AlreadyCancelled,
	})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.resolvePending(w, r, h.svc.Approve)
}

func (h *Handler) deny(w http.ResponseWriter, r *http.Request) {
	h.resolvePending(w, r, h.svc.Deny)
}

func (h *Handler) resolvePending(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, cc club.Context, id uuid.UUID) (service.Reservation, error)) {
	cc, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	resID, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := op(r.Context(), cc, resID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			httpx.Error(w, r, http.StatusNotFound, "reservation not found")
		case errors.Is(err, service.ErrNoTransition):
			httpx.Error(w, r, http.StatusConflict, "reservation is not pending approval")
		default:
			httpx.Internal(w, r, err)
		}
		return
	}
	httpx.JSON(w, r, http.StatusOK, toJSON(res))
}

func (h *Handler) calendar(w http.ResponseWriter, r *http.Request) {
	cc, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	from, err1 := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	to, err2 := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err1 != nil || err2 != nil {
		httpx.Error(w, r, http.StatusBadRequest, "from and to must be YYYY-MM-DD dates")
		return
	}
	entries, err := h.svc.Calendar(r.Context(), cc, from, to)
	h.writeEntries(w, r, entries, err)
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	cc, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	entries, err := h.svc.Day(r.Context(), cc, date)
	h.writeEntries(w, r, entries, err)
}

func (h *Handler) writeEntries(w http.ResponseWriter, r *http.Request, entries []service.CalendarEntry, err error) {
	if err != nil {
		if ve, ok := service.IsValidation(err); ok {
			httpx.Error(w, r, http.StatusBadRequest, ve.Error())
			return
		}
		httpx.Internal(w, r, err)
		return
	}
	out := make([]calendarEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = calendarEntryJSON{reservationJSON: toJSON(e.Reservation), MemberName: e.MemberName}
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	cc, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.UsageStats(r.Context(), cc)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{"members": stats})
}

// requestScope pulls the club context and caller identity the middlewares
// attached; missing state is a wiring bug surfaced as 500/401.
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

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed reservation id")
		return uuid.Nil, false
	}
	return id, true
}
