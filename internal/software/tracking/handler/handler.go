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

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/domain/identity"
	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/general/jwt"
	"github.com/wsaico/gestor360-sub002/internal/general/logger"
	"github.com/wsaico/gestor360-sub002/internal/general/websocket"
	"github.com/wsaico/gestor360-sub002/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TransportHTTPHandler adapts HTTP requests to the TransportService.
type TransportHTTPHandler struct {
	svc     ports.TransportService
	logger  *logger.Logger
	auth    *jwt.Manager
	tracker *websocket.Tracker
}

// NewTransportHTTPHandler wires an HTTP handler around the TransportService.
func NewTransportHTTPHandler(
	svc ports.TransportService,
	logger *logger.Logger,
	auth *jwt.Manager,
	tracker *websocket.Tracker,
) *TransportHTTPHandler {
	return &TransportHTTPHandler{svc: svc, logger: logger, auth: auth, tracker: tracker}
}

// RegisterRoutes mounts transport endpoints on the provided mux.
func (handler *TransportHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /schedules",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleDispatcher, identity.RoleAdmin)(handler.handleCreateSchedule),
	)
	mux.HandleFunc("GET /schedules/{schedule_id}",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleDispatcher, identity.RoleOperator, identity.RoleAdmin)(handler.handleGetSchedule),
	)
	mux.HandleFunc("GET /schedules/{schedule_id}/trail",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleDispatcher, identity.RoleOperator, identity.RoleAdmin)(handler.handleGetTrail),
	)
	mux.HandleFunc("POST /schedules/{schedule_id}/start",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleOperator, identity.RoleDispatcher, identity.RoleAdmin)(handler.handleStartExecution),
	)
	mux.HandleFunc("POST /schedules/{schedule_id}/location",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleOperator, identity.RoleDispatcher, identity.RoleAdmin)(handler.handleAppendLocation),
	)
	mux.HandleFunc("POST /schedules/{schedule_id}/finish",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleOperator, identity.RoleDispatcher, identity.RoleAdmin)(handler.handleFinishExecution),
	)
	mux.HandleFunc("POST /schedules/{schedule_id}/cancel",
		jwt.AuthMiddlewareFunc(handler.auth, identity.RoleDispatcher, identity.RoleAdmin)(handler.handleCancelSchedule),
	)

	// WebSocket handles its own auth (token may arrive as a query parameter)
	mux.HandleFunc("GET /ws/schedules/{schedule_id}/track", handler.tracker.HandleTrack)

	mux.HandleFunc("GET /schedules/health", handler.handleHealth)
}

// decodeStrict decodes a JSON body with unknown fields rejected and size capped.
func (handler *TransportHTTPHandler) decodeStrict(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
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
func (handler *TransportHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		handler.httpError(ctx, w, http.StatusNotFound, "schedule not found", err)
	case errors.Is(err, schedule.ErrInvalidStateTransition),
		errors.Is(err, execution.ErrAlreadyEnded),
		errors.Is(err, execution.ErrExecutionNotActive):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, execution.ErrUnknownPassenger),
		errors.Is(err, execution.ErrDuplicateCheckIn),
		errors.Is(err, execution.ErrInvalidCheckIn):
		handler.httpError(ctx, w, http.StatusUnprocessableEntity, err.Error(), err)
	default:
		// distinguish DB failures from validation errors
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	}
}

func (handler *TransportHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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
func (handler *TransportHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
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
func (handler *TransportHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
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
