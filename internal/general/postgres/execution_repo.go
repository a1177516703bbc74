package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/ports"

	"github.com/jackc/pgx/v5"
)

// ExecutionRepo persists execution records using pgx and plain SQL.
type ExecutionRepo struct{}

// NewExecutionRepo constructs a new ExecutionRepo.
func NewExecutionRepo() ports.ExecutionRepository {
	return &ExecutionRepo{}
}

// Create inserts a new execution row (one per schedule, enforced by a unique
// index on schedule_id).
func (repo *ExecutionRepo) Create(ctx context.Context, e *execution.Execution) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO executions (schedule_id, started_at, start_lat, start_lng)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		e.ScheduleID,
		e.StartedAt,
		e.StartLat,
		e.StartLng,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}

	return nil
}

// GetBySchedule fetches the execution (with its check-in ledger) for a
// schedule. Returns nil when the trip has not started.
func (repo *ExecutionRepo) GetBySchedule(ctx context.Context, scheduleID string) (*execution.Execution, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out execution.Execution
	err = tx.QueryRow(ctx, `
		SELECT id, schedule_id, started_at, start_lat, start_lng, ended_at
		FROM executions
		WHERE schedule_id = $1
	`, scheduleID).Scan(
		&out.ID, &out.ScheduleID, &out.StartedAt, &out.StartLat, &out.StartLng, &out.EndedAt,
	)
	if err != nil {
		// no execution yet
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT passenger_id, boarded, boarded_at
		FROM execution_checkins
		WHERE execution_id = $1
		ORDER BY boarded_at, passenger_id
	`, out.ID)
	if err != nil {
		return nil, fmt.Errorf("query check-ins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c execution.CheckIn
		if err := rows.Scan(&c.PassengerID, &c.Boarded, &c.BoardedAt); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		out.CheckIns = append(out.CheckIns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &out, nil
}

// Finish stamps ended_at and writes the check-in ledger. A unique index on
// (execution_id, passenger_id) backs the domain's duplicate rejection; the
// ledger is written once because a finished execution is never finished
// again (the service short-circuits on COMPLETED before reaching here).
func (repo *ExecutionRepo) Finish(ctx context.Context, executionID string, endedAt time.Time, checkIns []execution.CheckIn) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE executions
		SET ended_at = $1
		WHERE id = $2
		  AND ended_at IS NULL
	`, endedAt, executionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return execution.ErrAlreadyEnded
	}

	for _, c := range checkIns {
		_, err := tx.Exec(ctx, `
			INSERT INTO execution_checkins (execution_id, passenger_id, boarded, boarded_at)
			VALUES ($1, $2, $3, $4)
		`, executionID, c.PassengerID, c.Boarded, c.BoardedAt)
		if err != nil {
			return fmt.Errorf("insert check-in for %s: %w", c.PassengerID, err)
		}
	}

	return nil
}
