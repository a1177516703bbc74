package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// ----- Handler: GET /settlements/unbilled -----

func (handler *SettlementHTTPHandler) handleListUnbilled(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	q := r.URL.Query()
	filter := ports.UnbilledFilter{
		ProviderID: strings.TrimSpace(q.Get("provider_id")),
		StationID:  strings.TrimSpace(q.Get("station_id")),
	}

	// date filters are RFC 3339; reject anything else outright
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "from must be RFC 3339", err)
			return
		}
		filter.From = t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "to must be RFC 3339", err)
			return
		}
		filter.To = t
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceCallTimeout)
	defer cancel()

	rows, err := handler.svc.ListUnbilled(ctxWithTimeout, filter)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{
		"trips": rows,
		"count": len(rows),
	})
}
