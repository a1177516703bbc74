package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/identity"
	"github.com/wsaico/gestor360-sub002/internal/general/jwt"
	"github.com/wsaico/gestor360-sub002/internal/general/logger"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// stubTransportService accepts every call; the tests here exercise the HTTP
// boundary, not the trip semantics.
type stubTransportService struct{}

func (stubTransportService) CreateSchedule(context.Context, ports.CreateScheduleInput) (ports.CreateScheduleResult, error) {
	return ports.CreateScheduleResult{}, nil
}

func (stubTransportService) StartExecution(context.Context, ports.StartExecutionInput) (ports.StartExecutionResult, error) {
	return ports.StartExecutionResult{}, nil
}

func (stubTransportService) AppendLocation(context.Context, ports.AppendLocationInput) (ports.AppendLocationResult, error) {
	return ports.AppendLocationResult{}, nil
}

func (stubTransportService) FinishExecution(context.Context, ports.FinishExecutionInput) (ports.FinishExecutionResult, error) {
	return ports.FinishExecutionResult{}, nil
}

func (stubTransportService) CancelSchedule(context.Context, ports.CancelScheduleInput) (ports.CancelScheduleResult, error) {
	return ports.CancelScheduleResult{}, nil
}

func (stubTransportService) GetSchedule(context.Context, string) (ports.ScheduleView, error) {
	return ports.ScheduleView{}, nil
}

func (stubTransportService) GetScheduleTrail(context.Context, string, bool) (ports.ScheduleTrailView, error) {
	return ports.ScheduleTrailView{}, nil
}

func (stubTransportService) StartUpdateBridge(context.Context) {}

func newGateTestMux(t *testing.T) (*http.ServeMux, *jwt.Manager) {
	t.Helper()
	mgr := jwt.NewManager("gate-test-secret", time.Hour)
	h := NewTransportHTTPHandler(stubTransportService{}, logger.New("transport-handler-test"), mgr, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux, mgr
}

func gateRequest(t *testing.T, mux *http.ServeMux, mgr *jwt.Manager, method, path string, role identity.Role) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, _, err := mgr.IssueUserToken("user-1", role)
		if err != nil {
			t.Fatalf("IssueUserToken(%s): %v", role, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouteRoleGates(t *testing.T) {
	mux, mgr := newGateTestMux(t)

	cases := []struct {
		name      string
		method    string
		path      string
		role      identity.Role
		forbidden bool
	}{
		{"operator starts a trip", http.MethodPost, "/schedules/sch-1/start", identity.RoleOperator, false},
		{"operator appends a location", http.MethodPost, "/schedules/sch-1/location", identity.RoleOperator, false},
		{"operator finishes a trip", http.MethodPost, "/schedules/sch-1/finish", identity.RoleOperator, false},
		{"operator reads a trip", http.MethodGet, "/schedules/sch-1", identity.RoleOperator, false},
		{"operator cannot create", http.MethodPost, "/schedules", identity.RoleOperator, true},
		{"operator cannot cancel", http.MethodPost, "/schedules/sch-1/cancel", identity.RoleOperator, true},
		{"dispatcher creates", http.MethodPost, "/schedules", identity.RoleDispatcher, false},
		{"dispatcher cancels", http.MethodPost, "/schedules/sch-1/cancel", identity.RoleDispatcher, false},
		{"dispatcher finishes", http.MethodPost, "/schedules/sch-1/finish", identity.RoleDispatcher, false},
		{"admin cancels", http.MethodPost, "/schedules/sch-1/cancel", identity.RoleAdmin, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := gateRequest(t, mux, mgr, tc.method, tc.path, tc.role)
			if tc.forbidden && code != http.StatusForbidden {
				t.Errorf("%s %s as %s: code = %d, want %d", tc.method, tc.path, tc.role, code, http.StatusForbidden)
			}
			if !tc.forbidden && (code == http.StatusForbidden || code == http.StatusUnauthorized) {
				t.Errorf("%s %s as %s: rejected with %d", tc.method, tc.path, tc.role, code)
			}
		})
	}
}

func TestRoutesRejectMissingToken(t *testing.T) {
	mux, mgr := newGateTestMux(t)

	if code := gateRequest(t, mux, mgr, http.MethodPost, "/schedules/sch-1/finish", ""); code != http.StatusUnauthorized {
		t.Errorf("no token: code = %d, want %d", code, http.StatusUnauthorized)
	}
}
