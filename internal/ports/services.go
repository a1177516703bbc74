package ports

import (
	"context"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
)

// ----- Transport service (execution tracker) -----

type CreateScheduleInput struct {
	RouteID      string
	ProviderID   string
	DriverID     string
	VehiclePlate string
	StationID    string
	DepartureAt  time.Time
	Manifest     []string
	CostCents    *int64 // nil: default from the route catalog
}

type CreateScheduleResult struct {
	ScheduleID  string    `json:"schedule_id"`
	Status      string    `json:"status"`
	CostCents   int64     `json:"cost_cents"`
	DepartureAt time.Time `json:"departure_at"`
	Message     string    `json:"message"`
}

type StartExecutionInput struct {
	ScheduleID      string
	InitialLocation *contracts.GeoPoint // optional first sample
	CapturedAt      time.Time
}

type StartExecutionResult struct {
	ScheduleID  string    `json:"schedule_id"`
	ExecutionID string    `json:"execution_id"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	Message     string    `json:"message"`
}

type AppendLocationInput struct {
	ScheduleID string
	Latitude   float64
	Longitude  float64
	CapturedAt time.Time
}

type AppendLocationResult struct {
	ScheduleID  string    `json:"schedule_id"`
	SampleCount int       `json:"sample_count"`
	CapturedAt  time.Time `json:"captured_at"`
}

type FinishExecutionInput struct {
	ScheduleID string
	CheckIns   []contracts.CheckInRecord
	FinishedAt time.Time
}

type FinishExecutionResult struct {
	ScheduleID   string     `json:"schedule_id"`
	Status       string     `json:"status"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CheckInCount int        `json:"check_in_count"`
	BoardedCount int        `json:"boarded_count"`
	Replayed     bool       `json:"replayed"` // true when an already-completed trip absorbed a retry
	Message      string     `json:"message"`
}

type CancelScheduleInput struct {
	ScheduleID string
	Reason     string
}

type CancelScheduleResult struct {
	ScheduleID  string    `json:"schedule_id"`
	Status      string    `json:"status"`
	CancelledAt time.Time `json:"cancelled_at"`
	Message     string    `json:"message"`
}

type ScheduleView struct {
	ScheduleID   string                       `json:"schedule_id"`
	RouteID      string                       `json:"route_id"`
	ProviderID   string                       `json:"provider_id"`
	DriverID     string                       `json:"driver_id"`
	VehiclePlate string                       `json:"vehicle_plate"`
	StationID    string                       `json:"station_id,omitempty"`
	DepartureAt  time.Time                    `json:"departure_at"`
	Manifest     []string                     `json:"manifest"`
	Status       string                       `json:"status"`
	CostCents    int64                        `json:"cost_cents"`
	SettlementID *string                      `json:"settlement_id,omitempty"`
	Execution    *contracts.ExecutionSnapshot `json:"execution,omitempty"`
}

type TrailPoint struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"captured_at"`
}

type ScheduleTrailView struct {
	ScheduleID  string       `json:"schedule_id"`
	ExecutionID string       `json:"execution_id"`
	SampleCount int          `json:"sample_count"`
	Trail       []TrailPoint `json:"trail"`
}

// TransportService owns the trip lifecycle: scheduling, the execution state
// machine, the location log, and the check-in ledger.
type TransportService interface {
	CreateSchedule(ctx context.Context, in CreateScheduleInput) (CreateScheduleResult, error)
	StartExecution(ctx context.Context, in StartExecutionInput) (StartExecutionResult, error)
	AppendLocation(ctx context.Context, in AppendLocationInput) (AppendLocationResult, error)
	FinishExecution(ctx context.Context, in FinishExecutionInput) (FinishExecutionResult, error)
	CancelSchedule(ctx context.Context, in CancelScheduleInput) (CancelScheduleResult, error)
	GetSchedule(ctx context.Context, scheduleID string) (ScheduleView, error)
	// GetScheduleTrail returns the recorded location log for a started trip,
	// in arrival order, or re-sorted by captured_at when byCapture is set.
	GetScheduleTrail(ctx context.Context, scheduleID string, byCapture bool) (ScheduleTrailView, error)

	// StartUpdateBridge runs the background consumer that feeds live-tracking
	// WebSocket subscribers from the execution fanout exchange.
	StartUpdateBridge(ctx context.Context)
}

// ----- Settlement service (reconciliation) -----

type GenerateSettlementInput struct {
	ProviderID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	RequestedBy string
}

type GenerateSettlementResult struct {
	SettlementID string `json:"settlement_id,omitempty"` // empty on zero-result
	TripCount    int    `json:"trip_count"`
	TotalCents   int64  `json:"total_cents"`
	Message      string `json:"message"`
}

type UnbilledTripRow struct {
	ScheduleID   string    `json:"schedule_id"`
	RouteID      string    `json:"route_id"`
	ProviderID   string    `json:"provider_id"`
	StationID    string    `json:"station_id,omitempty"`
	DriverID     string    `json:"driver_id"`
	VehiclePlate string    `json:"vehicle_plate"`
	DepartureAt  time.Time `json:"departure_at"`
	CostCents    int64     `json:"cost_cents"`
}

type UpdateCostInput struct {
	ScheduleID string
	CostCents  int64
}

type UpdateCostResult struct {
	ScheduleID string `json:"schedule_id"`
	CostCents  int64  `json:"cost_cents"`
	Message    string `json:"message"`
}

type SettlementView struct {
	SettlementID string    `json:"settlement_id"`
	ProviderID   string    `json:"provider_id"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	TotalCents   int64     `json:"total_cents"`
	TripCount    int       `json:"trip_count"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	TripIDs      []string  `json:"trip_ids"`
}

// SettlementService owns settlement generation and the reconciliation view.
type SettlementService interface {
	GenerateSettlement(ctx context.Context, in GenerateSettlementInput) (GenerateSettlementResult, error)
	ListUnbilled(ctx context.Context, filter UnbilledFilter) ([]UnbilledTripRow, error)
	UpdateScheduleCost(ctx context.Context, in UpdateCostInput) (UpdateCostResult, error)
	GetSettlement(ctx context.Context, settlementID string) (SettlementView, error)

	// StartIntakeConsumer observes trip completion messages so operators see
	// reconciliation candidates arrive without polling.
	StartIntakeConsumer(ctx context.Context)
}
