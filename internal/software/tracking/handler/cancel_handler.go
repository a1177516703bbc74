package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/wsaico/gestor360-sub002/internal/ports"
)

type cancelScheduleRequest struct {
	Reason string `json:"reason"`
}

// ----- Handler: POST /schedules/{schedule_id}/cancel -----

func (handler *TransportHTTPHandler) handleCancelSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	scheduleID := strings.TrimSpace(r.PathValue("schedule_id"))
	if scheduleID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing schedule_id in path", nil)
		return
	}
	ctx = handler.logger.WithScheduleID(ctx, scheduleID)

	var req cancelScheduleRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
		return
	}

	in := ports.CancelScheduleInput{
		ScheduleID: scheduleID,
		Reason:     strings.TrimSpace(req.Reason),
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.CancelSchedule(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
