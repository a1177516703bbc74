package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/general/jwt"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

type generateSettlementRequest struct {
	ProviderID  string    `json:"provider_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// ----- Handler: POST /settlements -----

func (handler *SettlementHTTPHandler) handleGenerateSettlement(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req generateSettlementRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
		return
	}

	if strings.TrimSpace(req.ProviderID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "provider_id is required", nil)
		return
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		handler.httpError(ctx, w, http.StatusBadRequest, "period_start and period_end are required", nil)
		return
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		handler.httpError(ctx, w, http.StatusBadRequest, "period_end cannot be before period_start", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	in := ports.GenerateSettlementInput{
		ProviderID:  strings.TrimSpace(req.ProviderID),
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		RequestedBy: claims.Subject,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	res, err := handler.svc.GenerateSettlement(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	// zero-result runs create nothing and answer 200; creations answer 201
	status := http.StatusCreated
	if res.SettlementID == "" {
		status = http.StatusOK
	}
	handler.jsonResponse(ctxWithTimeout, w, status, res)
}
