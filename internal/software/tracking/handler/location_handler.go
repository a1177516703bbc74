package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/ports"
)

type appendLocationRequest struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"captured_at"`
}

// ----- Handler: POST /schedules/{schedule_id}/location -----

func (handler *TransportHTTPHandler) handleAppendLocation(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	scheduleID := strings.TrimSpace(r.PathValue("schedule_id"))
	if scheduleID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing schedule_id in path", nil)
		return
	}
	ctx = handler.logger.WithScheduleID(ctx, scheduleID)

	var req appendLocationRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
		return
	}

	if req.Latitude < -90 || req.Latitude > 90 {
		handler.httpError(ctx, w, http.StatusBadRequest, "latitude must be within [-90, 90]", nil)
		return
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		handler.httpError(ctx, w, http.StatusBadRequest, "longitude must be within [-180, 180]", nil)
		return
	}

	in := ports.AppendLocationInput{
		ScheduleID: scheduleID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		CapturedAt: req.CapturedAt,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.AppendLocation(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
