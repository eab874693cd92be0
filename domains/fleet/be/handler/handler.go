// Package handler exposes the fleet over HTTP: vehicle listing for members,
// vehicle and blackout management for admins.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/domains/fleet/be/service"
	"github.com/clubreserve/clubreserve/platform/go/auth"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/httpx"
)

// Handler serves the fleet routes.
type Handler struct {
	svc *service.Service
}

// New constructs the handler.
func New(svc *service.Service) *Handler {
	if svc == nil {
		panic("fleet service is required")
	}
	return &Handler{svc: svc}
}

// Mount attaches vehicle and blackout routes.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/vehicles", h.listVehicles)
	r.Get("/blackouts", h.listBlackouts)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/vehicles", h.createVehicle)
		r.Delete("/vehicles/{id}", h.retireVehicle)
		r.Post("/blackouts", h.createBlackout)
	})
}

type vehicleJSON struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Registration string    `json:"registration,omitempty"`
	IsActive     bool      `json:"is_active"`
	UsageHours   float64   `json:"usage_hours"`
}

func toVehicleJSON(v service.Vehicle) vehicleJSON {
	return vehicleJSON{
		ID: v.ID, Name: v.Name, Registration: v.Registration,
		IsActive: v.IsActive, UsageHours: v.UsageHours,
	}
}

func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	cc, ok := clubScope(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("all") == ""
	vehicles, err := h.svc.ListVehicles(r.Context(), cc.DB, activeOnly)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	out := make([]vehicleJSON, len(vehicles))
	for i, v := range vehicles {
		out[i] = toVehicleJSON(v)
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{"vehicles": out})
}

func (h *Handler) createVehicle(w http.ResponseWriter, r *http.Request) {
	cc, ok := clubScope(w, r)
	if !ok {
		return
	}
	var req struct {
		Name         string `json:"name"`
		Registration string `json:"registration,omitempty"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	v, err := h.svc.CreateVehicle(r.Context(), cc.DB, req.Name, req.Registration)
	if err != nil {
		httpx.Error(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	httpx.JSON(w, r, http.StatusCreated, toVehicleJSON(v))
}

func (h *Handler) retireVehicle(w http.ResponseWriter, r *http.Request) {
	cc, ok := clubScope(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed vehicle id")
		return
	}
	if err := h.svc.RetireVehicle(r.Context(), cc.DB, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httpx.Error(w, r, http.StatusNotFound, "vehicle not found")
			return
		}
		httpx.Internal(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusNoContent, nil)
}

type blackoutJSON struct {
	ID        uuid.UUID  `json:"id"`
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Reason    string     `json:"reason,omitempty"`
}

func (h *Handler) listBlackouts(w http.ResponseWriter, r *http.Request) {
	cc, ok := clubScope(w, r)
	if !ok {
		return
	}
	from, err1 := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	to, err2 := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err1 != nil || err2 != nil {
		httpx.Error(w, r, http.StatusBadRequest, "from and to must be YYYY-MM-DD dates")
		return
	}
	blackouts, err := h.svc.ListBlackouts(r.Context(), cc.DB, from, to.AddDate(0, 0, 1))
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	out := make([]blackoutJSON, len(blackouts))
	for i, b := range blackouts {
		out[i] = blackoutJSON{ID: b.ID, VehicleID: b.VehicleID, Start: b.Start, End: b.End, Reason: b.Reason}
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{"blackouts": out})
}

func (h *Handler) createBlackout(w http.ResponseWriter, r *http.Request) {
	cc, ok := clubScope(w, r)
	if !ok {
		return
	}
	id, _ := auth.FromContext(r.Context())
	var req struct {
		VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
		Start     time.Time  `json:"start"`
		End       time.Time  `json:"end"`
		Reason    string     `json:"reason,omitempty"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	b, err := h.svc.DeclareBlackout(r.Context(), cc.DB, req.VehicleID, req.Start, req.End, req.Reason, id.Username)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httpx.Error(w, r, http.StatusNotFound, "vehicle not found")
			return
		}
		httpx.Error(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	httpx.JSON(w, r, http.StatusCreated, blackoutJSON{
		ID: b.ID, VehicleID: b.VehicleID, Start: b.Start, End: b.End, Reason: b.Reason,
	})
}

func clubScope(w http.ResponseWriter, r *http.Request) (club.Context, bool) {
	cc, ok := club.FromContext(r.Context())
	if !ok {
		httpx.Error(w, r, http.StatusInternalServerError, "club not resolved")
		return club.Context{}, false
	}
	return cc, ok
}
