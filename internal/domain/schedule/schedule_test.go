package schedule

import (
	"errors"
	"testing"
	"time"
)

var testDeparture = time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)

func newTestSchedule(t *testing.T) *Schedule {
	t.Helper()
	s, err := NewSchedule("route-1", "prov-1", "drv-1", "ABC-123", "station-1",
		testDeparture, []string{"p1", "p2", "p3"}, 4500)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	return s
}

func TestNewScheduleDefaults(t *testing.T) {
	s := newTestSchedule(t)

	if s.Status != StatusScheduled {
		t.Errorf("status = %s, want %s", s.Status, StatusScheduled)
	}
	if s.CostCents != 4500 {
		t.Errorf("cost = %d, want 4500", s.CostCents)
	}
	if s.SettlementID != nil {
		t.Errorf("settlement id should start nil, got %v", *s.SettlementID)
	}
	if len(s.Manifest) != 3 {
		t.Errorf("manifest size = %d, want 3", len(s.Manifest))
	}
}

func TestNewScheduleValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(routeID, providerID, driverID, plate *string, dep *time.Time, manifest *[]string, cost *int64)
		wantErr error
	}{
		{"missing route", func(r, p, d, v *string, dep *time.Time, m *[]string, c *int64) { *r = " " }, ErrRouteRequired},
		{"missing provider", func(r, p, d, v *string, dep *time.Time, m *[]string, c *int64) { *p = "" }, ErrProviderRequired},
		{"missing driver", func(r, p, d, v *string, dep *time.Time, m *[]string, c *int64) { *d = "" }, ErrDriverRequired},
		{"missing plate", func(r, p, d, v *string, dep *time.Time, m *[]string, c *int64) { *v = "" }, ErrVehiclePlateRequired},
		{"zero departure", func(r, p, d, v *string, dep *time.Time, m *[]string, c *int64) { *dep = time.Time{} }, ErrDepartureRequired},
		{"duplicate passenger", func(r, p, d, v *string, dep *time.Time, m *[]string, c *int64) { *m = []string{"p1", "p1"} }, ErrDuplicateManifestEntry},
		{"negative cost", func(r, p, d, v *string, dep *time.Time, m *[]string, c *int64) { *c = -1 }, ErrNegativeCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routeID, providerID, driverID, plate := "route-1", "prov-1", "drv-1", "ABC-123"
			dep := testDeparture
			manifest := []string{"p1", "p2"}
			cost := int64(100)
			tt.mutate(&routeID, &providerID, &driverID, &plate, &dep, &manifest, &cost)

			_, err := NewSchedule(routeID, providerID, driverID, plate, "station-1", dep, manifest, cost)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewScheduleDropsBlankManifestEntries(t *testing.T) {
	s, err := NewSchedule("route-1", "prov-1", "drv-1", "ABC-123", "",
		testDeparture, []string{" p1 ", "", "  ", "p2"}, 0)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if len(s.Manifest) != 2 || s.Manifest[0] != "p1" || s.Manifest[1] != "p2" {
		t.Errorf("manifest = %v, want [p1 p2]", s.Manifest)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	t.Run("start then complete", func(t *testing.T) {
		s := newTestSchedule(t)
		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if s.Status != StatusInProgress {
			t.Fatalf("status = %s, want %s", s.Status, StatusInProgress)
		}
		if err := s.Complete(); err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if s.Status != StatusCompleted {
			t.Fatalf("status = %s, want %s", s.Status, StatusCompleted)
		}
	})

	t.Run("start is not idempotent", func(t *testing.T) {
		s := newTestSchedule(t)
		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := s.Start(); !errors.Is(err, ErrInvalidStateTransition) {
			t.Errorf("second Start: got %v, want %v", err, ErrInvalidStateTransition)
		}
	})

	t.Run("cancel only from scheduled", func(t *testing.T) {
		s := newTestSchedule(t)
		if err := s.Cancel(); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if s.Status != StatusCancelled {
			t.Fatalf("status = %s, want %s", s.Status, StatusCancelled)
		}

		started := newTestSchedule(t)
		if err := started.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := started.Cancel(); !errors.Is(err, ErrInvalidStateTransition) {
			t.Errorf("Cancel after start: got %v, want %v", err, ErrInvalidStateTransition)
		}
	})

	t.Run("complete requires in progress", func(t *testing.T) {
		s := newTestSchedule(t)
		if err := s.Complete(); !errors.Is(err, ErrInvalidStateTransition) {
			t.Errorf("Complete from scheduled: got %v, want %v", err, ErrInvalidStateTransition)
		}
	})
}

func TestUpdateCost(t *testing.T) {
	s := newTestSchedule(t)

	if err := s.UpdateCost(9900); err != nil {
		t.Fatalf("UpdateCost: %v", err)
	}
	if s.CostCents != 9900 {
		t.Errorf("cost = %d, want 9900", s.CostCents)
	}

	if err := s.UpdateCost(-5); !errors.Is(err, ErrNegativeCost) {
		t.Errorf("negative cost: got %v, want %v", err, ErrNegativeCost)
	}

	id := "stl-1"
	s.SettlementID = &id
	if err := s.UpdateCost(100); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("settled cost edit: got %v, want %v", err, ErrAlreadySettled)
	}
	if s.CostCents != 9900 {
		t.Errorf("cost changed after rejected edit: %d", s.CostCents)
	}
}

func TestClaimForSettlement(t *testing.T) {
	s := newTestSchedule(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Only completed trips can be claimed.
	if err := s.ClaimForSettlement("stl-1"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("claim before completion: got %v, want %v", err, ErrInvalidStateTransition)
	}

	if err := s.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := s.ClaimForSettlement("stl-1"); err != nil {
		t.Fatalf("ClaimForSettlement: %v", err)
	}
	if !s.Settled() || *s.SettlementID != "stl-1" {
		t.Fatalf("settlement id = %v, want stl-1", s.SettlementID)
	}

	// Write-once: a second claim is rejected even with the same id.
	if err := s.ClaimForSettlement("stl-2"); !errors.Is(err, ErrSettlementAlreadyClaims) {
		t.Errorf("second claim: got %v, want %v", err, ErrSettlementAlreadyClaims)
	}
	if *s.SettlementID != "stl-1" {
		t.Errorf("settlement id overwritten to %s", *s.SettlementID)
	}
}
