package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/identity"
	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/domain/settlement"
	"github.com/wsaico/gestor360-sub002/internal/general/jwt"
	"github.com/wsaico/gestor360-sub002/internal/general/logger"
	"github.com/wsaico/gestor360-sub002/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SettlementHTTPHandler adapts HTTP requests to the SettlementService.
type SettlementHTTPHandler struct {
	svc    ports.SettlementService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewSettlementHTTPHandler wires an HTTP handler around the SettlementService.
func NewSettlementHTTPHandler(
	svc ports.SettlementService,
	logger *logger.Logger,
	auth *jwt.Manager,
) *SettlementHTTPHandler {
	return &SettlementHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts settlement endpoints on the provided mux.
func (handler *SettlementHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /settlements",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleAdmin)(handler.handleGenerateSettlement),
	)
	mux.HandleFunc("GET /settlements/unbilled",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleAdmin)(handler.handleListUnbilled),
	)
	mux.HandleFunc("GET /settlements/{settlement_id}",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleAdmin)(handler.handleGetSettlement),
	)
	mux.HandleFunc("PATCH /schedules/{schedule_id}/cost",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleAdmin)(handler.handleUpdateCost),
	)

	mux.HandleFunc("GET /settlements/health", handler.handleHealth)
}

// decodeStrict decodes a JSON body with unknown fields rejected and size capped.
func (handler *SettlementHTTPHandler) decodeStrict(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

// serviceError maps service failures onto HTTP statuses.
func (handler *SettlementHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		handler.httpError(ctx, w, http.StatusNotFound, "not found", err)
	case errors.Is(err, settlement.ErrConcurrentClaimConflict):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, schedule.ErrAlreadySettled):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	}
}

func (handler *SettlementHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *SettlementHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *SettlementHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

const serviceCallTimeout = 5 * time.Second
