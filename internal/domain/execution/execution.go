package execution

import (
	"errors"
	"time"
)

// Execution is the domain entity corresponding to the `executions` table.
// Exactly one Execution exists per Schedule once the trip has started; it
// records the actual timing, the location trail, and the check-in ledger.
type Execution struct {
	ID         string
	ScheduleID string

	StartedAt time.Time
	StartLat  *float64
	StartLng  *float64

	EndedAt *time.Time

	CheckIns []CheckIn
}

var (
	ErrScheduleRequired   = errors.New("schedule id is required")
	ErrExecutionNotActive = errors.New("execution is not in progress")
	ErrAlreadyEnded       = errors.New("execution has already ended")
)

// NewExecution opens an execution for a schedule at the given start time.
// The start position is optional: field devices without a fix still start.
func NewExecution(scheduleID string, startedAt time.Time, startLat, startLng *float64) (*Execution, error) {
	if scheduleID == "" {
		return nil, ErrScheduleRequired
	}
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	return &Execution{
		ScheduleID: scheduleID,
		StartedAt:  startedAt.UTC(),
		StartLat:   startLat,
		StartLng:   startLng,
	}, nil
}

// Active reports whether the execution is still open for location appends.
func (e *Execution) Active() bool {
	return e.EndedAt == nil
}

// Finish stamps the end time and attaches the validated check-in ledger.
// The manifest is the planned passenger list the check-ins are validated
// against.
func (e *Execution) Finish(manifest []string, checkIns []CheckIn, endedAt time.Time) error {
	if !e.Active() {
		return ErrAlreadyEnded
	}
	validated, err := ValidateCheckIns(manifest, checkIns)
	if err != nil {
		return err
	}
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}
	ts := endedAt.UTC()
	e.EndedAt = &ts
	e.CheckIns = validated
	return nil
}
