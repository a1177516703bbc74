package schedule

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Schedule is the domain entity corresponding to the `schedules` table.
// It represents one planned execution of a route on a specific date by a
// specific provider/driver/vehicle.
type Schedule struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// References
	RouteID      string
	ProviderID   string
	DriverID     string
	VehiclePlate string
	StationID    string

	// Planning
	DepartureAt time.Time // scheduled date + departure time
	Manifest    []string  // ordered passenger ids

	// Core state
	Status Status

	// Billing
	CostCents    int64   // mutable only while SettlementID is nil
	SettlementID *string // nil until locked into a settlement, write-once
}

var (
	ErrRouteRequired           = errors.New("route id is required")
	ErrProviderRequired        = errors.New("provider id is required")
	ErrDriverRequired          = errors.New("driver id is required")
	ErrVehiclePlateRequired    = errors.New("vehicle plate is required")
	ErrDepartureRequired       = errors.New("departure time is required")
	ErrDuplicateManifestEntry  = errors.New("manifest contains a duplicate passenger")
	ErrNegativeCost            = errors.New("cost cannot be negative")
	ErrInvalidStateTransition  = errors.New("invalid schedule status transition")
	ErrAlreadySettled          = errors.New("schedule is locked into a settlement")
	ErrSettlementAlreadyClaims = errors.New("settlement id is write-once")
)

// NewSchedule creates a new trip instance in SCHEDULED state.
func NewSchedule(routeID, providerID, driverID, vehiclePlate, stationID string, departureAt time.Time, manifest []string, costCents int64) (*Schedule, error) {
	if routeID = strings.TrimSpace(routeID); routeID == "" {
		return nil, ErrRouteRequired
	}
	if providerID = strings.TrimSpace(providerID); providerID == "" {
		return nil, ErrProviderRequired
	}
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return nil, ErrDriverRequired
	}
	if vehiclePlate = strings.TrimSpace(vehiclePlate); vehiclePlate == "" {
		return nil, ErrVehiclePlateRequired
	}
	if departureAt.IsZero() {
		return nil, ErrDepartureRequired
	}
	if costCents < 0 {
		return nil, ErrNegativeCost
	}

	cleaned := make([]string, 0, len(manifest))
	for _, p := range manifest {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if slices.Contains(cleaned, p) {
			return nil, ErrDuplicateManifestEntry
		}
		cleaned = append(cleaned, p)
	}

	now := time.Now().UTC()
	return &Schedule{
		CreatedAt:    now,
		UpdatedAt:    now,
		RouteID:      routeID,
		ProviderID:   providerID,
		DriverID:     driverID,
		VehiclePlate: vehiclePlate,
		StationID:    strings.TrimSpace(stationID),
		DepartureAt:  departureAt.UTC(),
		Manifest:     cleaned,
		Status:       StatusScheduled,
		CostCents:    costCents,
	}, nil
}

// InManifest reports whether the passenger belongs to the planned manifest.
func (s *Schedule) InManifest(passengerID string) bool {
	return slices.Contains(s.Manifest, passengerID)
}

// Start transitions SCHEDULED -> IN_PROGRESS. Not idempotent: callers that
// retry must check the current status first.
func (s *Schedule) Start() error {
	if s.Status != StatusScheduled {
		return ErrInvalidStateTransition
	}
	s.setStatus(StatusInProgress)
	return nil
}

// Complete transitions IN_PROGRESS -> COMPLETED.
func (s *Schedule) Complete() error {
	if s.Status != StatusInProgress {
		return ErrInvalidStateTransition
	}
	s.setStatus(StatusCompleted)
	return nil
}

// Cancel transitions SCHEDULED -> CANCELLED. A trip that has started can no
// longer be cancelled; it must run to completion.
func (s *Schedule) Cancel() error {
	if s.Status != StatusScheduled {
		return ErrInvalidStateTransition
	}
	s.setStatus(StatusCancelled)
	return nil
}

// Settled reports whether the trip has been locked into a settlement.
func (s *Schedule) Settled() bool {
	return s.SettlementID != nil && *s.SettlementID != ""
}

// UpdateCost replaces the trip cost. Allowed only while unsettled.
func (s *Schedule) UpdateCost(costCents int64) error {
	if costCents < 0 {
		return ErrNegativeCost
	}
	if s.Settled() {
		return ErrAlreadySettled
	}
	s.CostCents = costCents
	s.touch()
	return nil
}

// ClaimForSettlement stamps the settlement id. The transition is null->value
// exactly once; any later claim is rejected.
func (s *Schedule) ClaimForSettlement(settlementID string) error {
	if s.Settled() {
		return ErrSettlementAlreadyClaims
	}
	if s.Status != StatusCompleted {
		return ErrInvalidStateTransition
	}
	id := settlementID
	s.SettlementID = &id
	s.touch()
	return nil
}

// ----- internal helpers -----

func (s *Schedule) setStatus(status Status) {
	s.Status = status
	s.touch()
}

func (s *Schedule) touch() {
	s.UpdatedAt = time.Now().UTC()
}
