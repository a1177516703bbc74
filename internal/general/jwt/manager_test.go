package jwt

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/identity"
)

func TestIssueAndValidate(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)

	signed, claims, err := mgr.IssueUserToken("user-1", identity.RoleDispatcher)
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != identity.RoleDispatcher {
		t.Errorf("issued claims = %+v", claims)
	}

	_, parsed, err := mgr.ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if parsed.Subject != "user-1" || parsed.Role != identity.RoleDispatcher {
		t.Errorf("parsed claims = %+v", parsed)
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)
	if _, _, err := mgr.IssueUserToken("user-1", identity.Role("SUPERUSER")); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)

	signed, _, err := mgr.IssueUserToken("user-1", identity.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	if _, _, err := other.ParseAndValidate(signed); err == nil {
		t.Error("token signed with a different secret validated")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	mgr := NewManager("test-secret", -time.Minute)

	signed, _, err := mgr.IssueUserToken("user-1", identity.RoleOperator)
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	if _, _, err := mgr.ParseAndValidate(signed); err == nil {
		t.Error("expired token validated")
	}
}

func TestRoleAllowed(t *testing.T) {
	cl := &Claims{Role: identity.RoleOperator}

	if err := RoleAllowed(cl, identity.RoleOperator, identity.RoleAdmin); err != nil {
		t.Errorf("operator should be allowed: %v", err)
	}
	if err := RoleAllowed(cl, identity.RoleDispatcher, identity.RoleAdmin); !errors.Is(err, ErrRoleForbidden) {
		t.Errorf("got %v, want %v", err, ErrRoleForbidden)
	}
}

func TestFromAuthorization(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/schedules/sch-1", nil)
		r.Header.Set("Authorization", "Bearer tok-123")
		tok, err := FromAuthorization(r)
		if err != nil {
			t.Fatalf("FromAuthorization: %v", err)
		}
		if tok != "tok-123" {
			t.Errorf("token = %q, want tok-123", tok)
		}
	})

	t.Run("query parameter for websocket clients", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws/schedules/sch-1/track?Authorization=tok-456", nil)
		tok, err := FromAuthorization(r)
		if err != nil {
			t.Fatalf("FromAuthorization: %v", err)
		}
		if tok != "tok-456" {
			t.Errorf("token = %q, want tok-456", tok)
		}
	})

	t.Run("missing", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/schedules/sch-1", nil)
		if _, err := FromAuthorization(r); err == nil {
			t.Error("expected error for missing authorization")
		}
	})
}
