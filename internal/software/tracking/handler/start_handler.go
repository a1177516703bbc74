package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

type startExecutionRequest struct {
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	CapturedAt time.Time `json:"captured_at"`
}

// ----- Handler: POST /schedules/{schedule_id}/start -----

func (handler *TransportHTTPHandler) handleStartExecution(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	scheduleID := strings.TrimSpace(r.PathValue("schedule_id"))
	if scheduleID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing schedule_id in path", nil)
		return
	}
	ctx = handler.logger.WithScheduleID(ctx, scheduleID)

	var req startExecutionRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
		return
	}

	// a start position needs both coordinates or neither
	if (req.Latitude == nil) != (req.Longitude == nil) {
		handler.httpError(ctx, w, http.StatusBadRequest, "latitude and longitude must be provided together", nil)
		return
	}

	in := ports.StartExecutionInput{
		ScheduleID: scheduleID,
		CapturedAt: req.CapturedAt,
	}
	if req.Latitude != nil {
		in.InitialLocation = &contracts.GeoPoint{Lat: *req.Latitude, Lng: *req.Longitude}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.StartExecution(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
