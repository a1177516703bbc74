package settlement

import (
	"errors"
	"testing"
	"time"
)

var (
	periodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
)

func TestNewSettlement(t *testing.T) {
	s, err := NewSettlement("prov-1", periodStart, periodEnd, []int64{4500, 3000, 1250}, "operator-7")
	if err != nil {
		t.Fatalf("NewSettlement: %v", err)
	}

	if s.TotalCents != 8750 {
		t.Errorf("total = %d, want 8750", s.TotalCents)
	}
	if s.TripCount != 3 {
		t.Errorf("trip count = %d, want 3", s.TripCount)
	}
	if s.Status != StatusGenerated {
		t.Errorf("status = %s, want %s", s.Status, StatusGenerated)
	}
	if s.CreatedBy != "operator-7" {
		t.Errorf("created by = %q, want operator-7", s.CreatedBy)
	}
}

func TestNewSettlementZeroCostTrips(t *testing.T) {
	// Zero-cost trips still count toward the locked set.
	s, err := NewSettlement("prov-1", periodStart, periodEnd, []int64{0, 0}, "")
	if err != nil {
		t.Fatalf("NewSettlement: %v", err)
	}
	if s.TotalCents != 0 || s.TripCount != 2 {
		t.Errorf("total = %d trips = %d, want 0 and 2", s.TotalCents, s.TripCount)
	}
}

func TestNewSettlementValidation(t *testing.T) {
	tests := []struct {
		name       string
		providerID string
		start, end time.Time
		costs      []int64
		wantErr    error
	}{
		{"missing provider", "  ", periodStart, periodEnd, []int64{100}, ErrProviderRequired},
		{"inverted period", "prov-1", periodEnd, periodStart, []int64{100}, ErrInvalidPeriod},
		{"empty trip set", "prov-1", periodStart, periodEnd, nil, ErrEmptySettlement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSettlement(tt.providerID, tt.start, tt.end, tt.costs, "op")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSettlementSingleDayPeriod(t *testing.T) {
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if _, err := NewSettlement("prov-1", day, day, []int64{500}, "op"); err != nil {
		t.Errorf("equal start and end should be a valid period: %v", err)
	}
}
