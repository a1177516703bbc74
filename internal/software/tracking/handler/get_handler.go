package handler

import (
	"context"
	"net/http"
	"strings"
)

// ----- Handler: GET /schedules/{schedule_id} -----

func (handler *TransportHTTPHandler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	scheduleID := strings.TrimSpace(r.PathValue("schedule_id"))
	if scheduleID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing schedule_id in path", nil)
		return
	}
	ctx = handler.logger.WithScheduleID(ctx, scheduleID)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.GetSchedule(ctxWithTimeout, scheduleID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
