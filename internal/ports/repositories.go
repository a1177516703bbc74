package ports

import (
	"context"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/domain/route"
	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/domain/settlement"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RouteRepository reads the pricing catalog. The catalog is consumed, not
// owned, by this core: no write methods exist here.
type RouteRepository interface {
	GetByID(ctx context.Context, id string) (*route.Route, error)
}

// UnbilledFilter narrows the reconciliation view. Zero values mean "no
// filter" for that dimension.
type UnbilledFilter struct {
	ProviderID string
	StationID  string
	From       time.Time
	To         time.Time
}

// ScheduleRepository defines the methods for managing trip instances.
type ScheduleRepository interface {
	Create(ctx context.Context, s *schedule.Schedule) error
	GetByID(ctx context.Context, id string) (*schedule.Schedule, error)

	// GetByIDForUpdate fetches the schedule with its row locked for the
	// enclosing transaction, serializing concurrent lifecycle writes.
	GetByIDForUpdate(ctx context.Context, id string) (*schedule.Schedule, error)

	// Status transitions. Each locks the row, re-validates the transition
	// against the current stored status, and stamps the timeline.
	MarkInProgress(ctx context.Context, id string, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error

	// UpdateCost replaces the trip cost; the SQL predicate requires
	// settlement_id IS NULL and the call fails with the domain's
	// ErrAlreadySettled otherwise.
	UpdateCost(ctx context.Context, id string, costCents int64) error

	// ListUnbilled returns COMPLETED trips with no settlement claim.
	ListUnbilled(ctx context.Context, filter UnbilledFilter) ([]*schedule.Schedule, error)

	// SelectEligible returns COMPLETED, unclaimed trips for a provider and
	// date window, row-locked for the enclosing transaction.
	SelectEligible(ctx context.Context, providerID string, from, to time.Time) ([]*schedule.Schedule, error)

	// ClaimForSettlement sets settlement_id on every listed trip whose claim
	// slot is still empty and reports how many rows were actually claimed.
	ClaimForSettlement(ctx context.Context, ids []string, settlementID string) (int64, error)
}

// ExecutionRepository defines the methods for managing execution records.
type ExecutionRepository interface {
	Create(ctx context.Context, e *execution.Execution) error
	GetBySchedule(ctx context.Context, scheduleID string) (*execution.Execution, error)
	Finish(ctx context.Context, executionID string, endedAt time.Time, checkIns []execution.CheckIn) error
}

// LocationLogRepository defines the methods for the append-only location log.
type LocationLogRepository interface {
	Append(ctx context.Context, sample *execution.LocationSample) error

	// Trail returns the log in arrival order, or re-sorted by captured-at
	// when byCapture is set (display ordering).
	Trail(ctx context.Context, executionID string, byCapture bool) ([]execution.LocationSample, error)

	Last(ctx context.Context, executionID string) (*execution.LocationSample, error)
	Count(ctx context.Context, executionID string) (int, error)
}

// SettlementRepository defines the methods for settlement records.
type SettlementRepository interface {
	Create(ctx context.Context, s *settlement.Settlement) error
	GetByID(ctx context.Context, id string) (*settlement.Settlement, error)
	TripIDs(ctx context.Context, settlementID string) ([]string, error)
}
