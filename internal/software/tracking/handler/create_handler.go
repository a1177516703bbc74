package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type createScheduleRequest struct {
	RouteID      string    `json:"route_id"`
	ProviderID   string    `json:"provider_id"`
	DriverID     string    `json:"driver_id"`
	VehiclePlate string    `json:"vehicle_plate"`
	StationID    string    `json:"station_id"`
	DepartureAt  time.Time `json:"departure_at"`
	Manifest     []string  `json:"manifest"`
	CostCents    *int64    `json:"cost_cents"` // omitted: priced from the route
}

// ----- Handler: POST /schedules -----

func (handler *TransportHTTPHandler) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	var req createScheduleRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
		return
	}

	// validate required fields at the boundary
	if strings.TrimSpace(req.RouteID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "route_id is required", nil)
		return
	}
	if strings.TrimSpace(req.ProviderID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "provider_id is required", nil)
		return
	}
	if req.DepartureAt.IsZero() {
		handler.httpError(ctx, w, http.StatusBadRequest, "departure_at is required", nil)
		return
	}
	if req.CostCents != nil && *req.CostCents < 0 {
		handler.httpError(ctx, w, http.StatusBadRequest, "cost_cents cannot be negative", nil)
		return
	}

	// map to service DTO defined in ports
	in := ports.CreateScheduleInput{
		RouteID:      strings.TrimSpace(req.RouteID),
		ProviderID:   strings.TrimSpace(req.ProviderID),
		DriverID:     strings.TrimSpace(req.DriverID),
		VehiclePlate: strings.TrimSpace(req.VehiclePlate),
		StationID:    strings.TrimSpace(req.StationID),
		DepartureAt:  req.DepartureAt,
		Manifest:     req.Manifest,
		CostCents:    req.CostCents,
	}

	// bound service call
	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.CreateSchedule(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithScheduleID(ctxWithTimeout, res.ScheduleID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}
