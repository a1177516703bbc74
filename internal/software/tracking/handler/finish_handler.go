package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

type finishExecutionRequest struct {
	CheckIns   []contracts.CheckInRecord `json:"check_ins"`
	FinishedAt time.Time                 `json:"finished_at"`
}

// ----- Handler: POST /schedules/{schedule_id}/finish -----

func (handler *TransportHTTPHandler) handleFinishExecution(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	scheduleID := strings.TrimSpace(r.PathValue("schedule_id"))
	if scheduleID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing schedule_id in path", nil)
		return
	}
	ctx = handler.logger.WithScheduleID(ctx, scheduleID)

	var req finishExecutionRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
		return
	}

	for _, ci := range req.CheckIns {
		if strings.TrimSpace(ci.PassengerID) == "" {
			handler.httpError(ctx, w, http.StatusBadRequest, "check_ins[].passenger_id is required", nil)
			return
		}
	}

	in := ports.FinishExecutionInput{
		ScheduleID: scheduleID,
		CheckIns:   req.CheckIns,
		FinishedAt: req.FinishedAt,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.FinishExecution(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
