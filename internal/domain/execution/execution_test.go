package execution

import (
	"errors"
	"testing"
	"time"
)

var execTestStart = time.Date(2026, 3, 10, 6, 35, 0, 0, time.UTC)

func TestNewExecution(t *testing.T) {
	lat, lng := -12.0464, -77.0428
	e, err := NewExecution("sch-1", execTestStart, &lat, &lng)
	if err != nil {
		t.Fatalf("NewExecution: %v", err)
	}
	if !e.Active() {
		t.Error("new execution should be active")
	}
	if e.StartLat == nil || *e.StartLat != lat {
		t.Errorf("start lat = %v, want %v", e.StartLat, lat)
	}

	if _, err := NewExecution("", execTestStart, nil, nil); !errors.Is(err, ErrScheduleRequired) {
		t.Errorf("missing schedule id: got %v, want %v", err, ErrScheduleRequired)
	}
}

func TestNewExecutionWithoutFix(t *testing.T) {
	e, err := NewExecution("sch-1", execTestStart, nil, nil)
	if err != nil {
		t.Fatalf("NewExecution: %v", err)
	}
	if e.StartLat != nil || e.StartLng != nil {
		t.Error("start position should stay nil when the device had no fix")
	}
}

func TestFinish(t *testing.T) {
	manifest := []string{"p1", "p2"}
	ended := execTestStart.Add(45 * time.Minute)

	e, err := NewExecution("sch-1", execTestStart, nil, nil)
	if err != nil {
		t.Fatalf("NewExecution: %v", err)
	}

	checkIns := []CheckIn{
		{PassengerID: "p1", Boarded: true, BoardedAt: execTestStart},
		{PassengerID: "p2", Boarded: false},
	}
	if err := e.Finish(manifest, checkIns, ended); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if e.Active() {
		t.Error("finished execution should not be active")
	}
	if e.EndedAt == nil || !e.EndedAt.Equal(ended) {
		t.Errorf("ended at = %v, want %v", e.EndedAt, ended)
	}
	if len(e.CheckIns) != 2 {
		t.Errorf("stored %d check-ins, want 2", len(e.CheckIns))
	}

	// A second finish is rejected, ledger untouched.
	if err := e.Finish(manifest, nil, ended.Add(time.Minute)); !errors.Is(err, ErrAlreadyEnded) {
		t.Errorf("second finish: got %v, want %v", err, ErrAlreadyEnded)
	}
	if len(e.CheckIns) != 2 {
		t.Errorf("ledger changed after rejected finish")
	}
}

func TestFinishRejectsBadLedger(t *testing.T) {
	e, err := NewExecution("sch-1", execTestStart, nil, nil)
	if err != nil {
		t.Fatalf("NewExecution: %v", err)
	}

	err = e.Finish([]string{"p1"}, []CheckIn{{PassengerID: "p9", Boarded: true}}, execTestStart.Add(time.Hour))
	if !errors.Is(err, ErrUnknownPassenger) {
		t.Fatalf("got %v, want %v", err, ErrUnknownPassenger)
	}
	if !e.Active() {
		t.Error("execution should remain active after a rejected finish")
	}
}

func TestNewLocationSample(t *testing.T) {
	captured := execTestStart.Add(5 * time.Minute)

	tests := []struct {
		name       string
		execID     string
		lat, lng   float64
		capturedAt time.Time
		wantErr    error
	}{
		{"valid", "exe-1", -12.05, -77.04, captured, nil},
		{"lat boundary", "exe-1", 90, 180, captured, nil},
		{"missing execution", "", 0, 0, captured, ErrScheduleRequired},
		{"lat too high", "exe-1", 90.1, 0, captured, ErrInvalidLatitude},
		{"lng too low", "exe-1", 0, -180.1, captured, ErrInvalidLongitude},
		{"zero captured at", "exe-1", 0, 0, time.Time{}, ErrCapturedAtZeroTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewLocationSample(tt.execID, tt.lat, tt.lng, tt.capturedAt)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Latitude != tt.lat || s.Longitude != tt.lng {
				t.Errorf("stored (%v, %v), want (%v, %v)", s.Latitude, s.Longitude, tt.lat, tt.lng)
			}
		})
	}
}

func TestLocationSampleAcceptsOutOfOrderCapture(t *testing.T) {
	// Samples flushed from an offline device can carry captured-at times
	// older than samples already stored. That is allowed.
	old := execTestStart.Add(-2 * time.Hour)
	s, err := NewLocationSample("exe-1", 1, 1, old)
	if err != nil {
		t.Fatalf("NewLocationSample: %v", err)
	}
	if !s.CapturedAt.Equal(old) {
		t.Errorf("captured at = %v, want %v", s.CapturedAt, old)
	}
}
