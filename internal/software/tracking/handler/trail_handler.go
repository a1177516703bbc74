package handler

import (
	"context"
	"net/http"
	"strings"
)

// ----- Handler: GET /schedules/{schedule_id}/trail -----

func (handler *TransportHTTPHandler) handleGetTrail(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	scheduleID := strings.TrimSpace(r.PathValue("schedule_id"))
	if scheduleID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing schedule_id in path", nil)
		return
	}
	ctx = handler.logger.WithScheduleID(ctx, scheduleID)

	byCapture := r.URL.Query().Get("order") == "captured"

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.GetScheduleTrail(ctxWithTimeout, scheduleID, byCapture)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
