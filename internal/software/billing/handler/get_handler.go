package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ----- Handler: GET /settlements/{settlement_id} -----

func (handler *SettlementHTTPHandler) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	settlementID := strings.TrimSpace(r.PathValue("settlement_id"))
	if settlementID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing settlement_id in path", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.GetSettlement(ctxWithTimeout, settlementID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: GET /settlements/health -----

func (handler *SettlementHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "settlement-service",
		"timestamp": time.Now().UTC(),
	})
}
