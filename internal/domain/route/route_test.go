package route

import "testing"

func TestParseBillingType(t *testing.T) {
	tests := []struct {
		in      string
		want    BillingType
		wantErr bool
	}{
		{"PER_TRIP", BillingPerTrip, false},
		{" per_passenger ", BillingPerPassenger, false},
		{"FLAT", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseBillingType(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseBillingType(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBillingType(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBillingType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultCostCents(t *testing.T) {
	tests := []struct {
		name         string
		billing      BillingType
		base         int64
		manifestSize int
		want         int64
	}{
		{"per trip ignores manifest", BillingPerTrip, 5000, 12, 5000},
		{"per trip empty manifest", BillingPerTrip, 5000, 0, 5000},
		{"per passenger multiplies", BillingPerPassenger, 300, 4, 1200},
		{"per passenger empty manifest", BillingPerPassenger, 300, 0, 0},
		{"per passenger negative size clamps", BillingPerPassenger, 300, -2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Route{ID: "route-1", BillingType: tt.billing, BasePriceCents: tt.base}
			if got := r.DefaultCostCents(tt.manifestSize); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
