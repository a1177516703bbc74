package execution

import (
	"errors"
	"math"
	"time"
)

// LocationSample is the domain entity corresponding to the `location_log`
// table. The log is append-only: samples are stored in arrival order, and
// captured-at order is reconstructed only at read time for display.
type LocationSample struct {
	ID          int64 // arrival order (assigned by storage)
	ExecutionID string
	Latitude    float64
	Longitude   float64
	CapturedAt  time.Time
}

var (
	ErrInvalidLatitude    = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude   = errors.New("longitude must be between -180 and 180")
	ErrCapturedAtZeroTime = errors.New("captured_at must be a valid timestamp")
)

// NewLocationSample constructs a sample. Out-of-order captured-at timestamps
// are accepted as given; only range validity is enforced.
func NewLocationSample(executionID string, latitude, longitude float64, capturedAt time.Time) (*LocationSample, error) {
	if executionID == "" {
		return nil, ErrScheduleRequired
	}
	if latitude < -90 || latitude > 90 || math.IsNaN(latitude) {
		return nil, ErrInvalidLatitude
	}
	if longitude < -180 || longitude > 180 || math.IsNaN(longitude) {
		return nil, ErrInvalidLongitude
	}
	if capturedAt.IsZero() {
		return nil, ErrCapturedAtZeroTime
	}

	return &LocationSample{
		ExecutionID: executionID,
		Latitude:    latitude,
		Longitude:   longitude,
		CapturedAt:  capturedAt.UTC(),
	}, nil
}
