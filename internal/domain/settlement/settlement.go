package settlement

import (
	"errors"
	"strings"
	"time"
)

// Status is a settlement status. GENERATED is the only state this core
// needs; downstream payment states live outside this module.
type Status string

const StatusGenerated Status = "GENERATED"

// Settlement is the domain entity corresponding to the `settlements` table.
// It is an immutable billing statement locking a set of completed trips for
// one provider/period: trips and totals cannot be edited once it exists.
type Settlement struct {
	ID          string
	ProviderID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalCents  int64
	TripCount   int
	Status      Status
	CreatedAt   time.Time
	CreatedBy   string
}

var (
	ErrProviderRequired        = errors.New("provider id is required")
	ErrInvalidPeriod           = errors.New("period end cannot be before period start")
	ErrEmptySettlement         = errors.New("a settlement must lock at least one trip")
	ErrConcurrentClaimConflict = errors.New("settlement claim conflict: eligible set changed concurrently")
)

// NewSettlement builds a settlement over an already-priced eligible set.
// tripCosts are the per-trip costs in minor units at lock time; the total is
// their exact sum.
func NewSettlement(providerID string, periodStart, periodEnd time.Time, tripCosts []int64, createdBy string) (*Settlement, error) {
	if providerID = strings.TrimSpace(providerID); providerID == "" {
		return nil, ErrProviderRequired
	}
	if periodEnd.Before(periodStart) {
		return nil, ErrInvalidPeriod
	}
	if len(tripCosts) == 0 {
		return nil, ErrEmptySettlement
	}

	var total int64
	for _, c := range tripCosts {
		total += c
	}

	return &Settlement{
		ProviderID:  providerID,
		PeriodStart: periodStart.UTC(),
		PeriodEnd:   periodEnd.UTC(),
		TotalCents:  total,
		TripCount:   len(tripCosts),
		Status:      StatusGenerated,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   strings.TrimSpace(createdBy),
	}, nil
}
