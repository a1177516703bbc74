package handler

import (
	"net/http"
	"time"
)

// ----- Handler: GET /schedules/health -----

func (handler *TransportHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "transport-service",
		"timestamp": time.Now().UTC(),
	})
}
