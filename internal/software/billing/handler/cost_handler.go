package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/wsaico/gestor360-sub002/internal/ports"
)

type updateCostRequest struct {
	CostCents int64 `json:"cost_cents"`
}

// ----- Handler: PATCH /schedules/{schedule_id}/cost -----

func (handler *SettlementHTTPHandler) handleUpdateCost(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	scheduleID := strings.TrimSpace(r.PathValue("schedule_id"))
	if scheduleID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing schedule_id in path", nil)
		return
	}
	ctx = handler.logger.WithScheduleID(ctx, scheduleID)

	var req updateCostRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
		return
	}

	if req.CostCents < 0 {
		handler.httpError(ctx, w, http.StatusBadRequest, "cost_cents cannot be negative", nil)
		return
	}

	in := ports.UpdateCostInput{
		ScheduleID: scheduleID,
		CostCents:  req.CostCents,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.UpdateScheduleCost(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
