package websocket

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/identity"
	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/general/jwt"
	"github.com/wsaico/gestor360-sub002/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// subscriber is one live-tracking connection with a serialized write path.
type subscriber struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *subscriber) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(v)
}

// Tracker fans execution snapshots out to live-tracking displays. It is a
// single-writer (the update bridge), multiple-reader hub keyed by schedule
// id: every subscriber of a schedule receives the latest snapshot whenever
// the execution changes.
type Tracker struct {
	logger *logger.Logger
	jwtMgr *jwt.Manager

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{} // schedule id -> connections
}

// NewTracker constructs the live-tracking hub.
func NewTracker(logger *logger.Logger, jwtMgr *jwt.Manager) *Tracker {
	return &Tracker{
		logger: logger,
		jwtMgr: jwtMgr,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// HandleTrack upgrades GET /ws/schedules/{schedule_id}/track to a WebSocket
// subscription. Auth uses the same bearer token as the HTTP API (header or
// query parameter for clients that cannot set headers).
func (t *Tracker) HandleTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scheduleID := strings.TrimSpace(r.PathValue("schedule_id"))
	if scheduleID == "" {
		http.Error(w, "missing schedule_id in path", http.StatusBadRequest)
		return
	}

	raw, err := jwt.FromAuthorization(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	_, claims, err := t.jwtMgr.ParseAndValidate(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err := jwt.RoleAllowed(claims, identity.RoleDispatcher, identity.RoleOperator, identity.RoleAdmin); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Error(ctx, "ws_upgrade_failed", "Failed to upgrade tracking connection", err, map[string]any{
			"schedule_id": scheduleID,
		})
		return
	}

	sub := &subscriber{conn: conn}
	t.add(scheduleID, sub)
	t.logger.Info(ctx, "ws_subscribed", "Live-tracking subscriber attached", map[string]any{
		"schedule_id": scheduleID,
		"subject":     claims.Subject,
	})

	// reader loop: we never expect client frames beyond control messages,
	// but reading is what surfaces close/ping/pong and connection loss
	go func() {
		defer func() {
			t.remove(scheduleID, sub)
			_ = conn.Close()
			t.logger.Info(t.logger.WithScheduleID(ctx, scheduleID), "ws_unsubscribed", "Live-tracking subscriber detached", nil)
		}()
		conn.SetPongHandler(func(string) error { return nil })
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// keepalive pings
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for range ticker.C {
			sub.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			sub.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}()
}

// Broadcast delivers the latest execution snapshot to every subscriber of
// the schedule. Dead connections are dropped on write failure.
func (t *Tracker) Broadcast(msg contracts.ExecutionUpdateMessage) {
	scheduleID := msg.Snapshot.ScheduleID

	t.mu.RLock()
	targets := make([]*subscriber, 0, len(t.subs[scheduleID]))
	for s := range t.subs[scheduleID] {
		targets = append(targets, s)
	}
	t.mu.RUnlock()

	for _, s := range targets {
		if err := s.writeJSON(msg); err != nil {
			t.remove(scheduleID, s)
			_ = s.conn.Close()
		}
	}
}

// SubscriberCount reports how many connections track a schedule (admin/debug).
func (t *Tracker) SubscriberCount(scheduleID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs[scheduleID])
}

// --- registry internals ---

func (t *Tracker) add(scheduleID string, s *subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.subs[scheduleID]
	if !ok {
		set = make(map[*subscriber]struct{})
		t.subs[scheduleID] = set
	}
	set[s] = struct{}{}
}

func (t *Tracker) remove(scheduleID string, s *subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.subs[scheduleID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(t.subs, scheduleID)
		}
	}
}
