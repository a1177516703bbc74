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

// stubSettlementService accepts every call; the tests here exercise the HTTP
// boundary, not the reconciliation semantics.
type stubSettlementService struct{}

func (stubSettlementService) GenerateSettlement(context.Context, ports.GenerateSettlementInput) (ports.GenerateSettlementResult, error) {
	return ports.GenerateSettlementResult{}, nil
}

func (stubSettlementService) ListUnbilled(context.Context, ports.UnbilledFilter) ([]ports.UnbilledTripRow, error) {
	return nil, nil
}

func (stubSettlementService) UpdateScheduleCost(context.Context, ports.UpdateCostInput) (ports.UpdateCostResult, error) {
	return ports.UpdateCostResult{}, nil
}

func (stubSettlementService) GetSettlement(context.Context, string) (ports.SettlementView, error) {
	return ports.SettlementView{}, nil
}

func (stubSettlementService) StartIntakeConsumer(context.Context) {}

func newGateTestMux(t *testing.T) (*http.ServeMux, *jwt.Manager) {
	t.Helper()
	mgr := jwt.NewManager("gate-test-secret", time.Hour)
	h := NewSettlementHTTPHandler(stubSettlementService{}, logger.New("settlement-handler-test"), mgr)
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

func TestSettlementRoutesAdminOnly(t *testing.T) {
	mux, mgr := newGateTestMux(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/settlements"},
		{http.MethodGet, "/settlements/unbilled"},
		{http.MethodGet, "/settlements/set-1"},
		{http.MethodPatch, "/schedules/sch-1/cost"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			if code := gateRequest(t, mux, mgr, rt.method, rt.path, identity.RoleAdmin); code == http.StatusForbidden || code == http.StatusUnauthorized {
				t.Errorf("admin rejected with %d", code)
			}
			if code := gateRequest(t, mux, mgr, rt.method, rt.path, identity.RoleOperator); code != http.StatusForbidden {
				t.Errorf("operator: code = %d, want %d", code, http.StatusForbidden)
			}
			if code := gateRequest(t, mux, mgr, rt.method, rt.path, identity.RoleDispatcher); code != http.StatusForbidden {
				t.Errorf("dispatcher: code = %d, want %d", code, http.StatusForbidden)
			}
		})
	}
}
