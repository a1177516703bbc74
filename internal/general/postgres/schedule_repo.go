package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/ports"

	"github.com/jackc/pgx/v5"
)

// ScheduleRepo persists trip instances using pgx and plain SQL.
type ScheduleRepo struct{}

// NewScheduleRepo constructs a new ScheduleRepo.
func NewScheduleRepo() ports.ScheduleRepository {
	return &ScheduleRepo{}
}

const scheduleColumns = `
	id, created_at, updated_at, route_id, provider_id, driver_id,
	vehicle_plate, station_id, departure_at, manifest, status,
	cost_cents, settlement_id`

// Create inserts a new schedule row in SCHEDULED state.
func (repo *ScheduleRepo) Create(ctx context.Context, s *schedule.Schedule) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	manifest, err := json.Marshal(s.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO schedules (
			route_id, provider_id, driver_id, vehicle_plate, station_id,
			departure_at, manifest, status, cost_cents
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		s.RouteID,
		s.ProviderID,
		s.DriverID,
		s.VehiclePlate,
		nullIfEmpty(s.StationID),
		s.DepartureAt,
		string(manifest),
		s.Status.String(), // typically "SCHEDULED"
		s.CostCents,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	return nil
}

// GetByID fetches a schedule by primary key (uuid).
func (repo *ScheduleRepo) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	return scanSchedule(row)
}

// GetByIDForUpdate fetches a schedule with its row locked until the
// transaction ends. A concurrent writer blocks on the lock and then reads
// the committed state, not the state it raced against.
func (repo *ScheduleRepo) GetByIDForUpdate(ctx context.Context, id string) (*schedule.Schedule, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1 FOR UPDATE`, id)
	return scanSchedule(row)
}

// MarkInProgress transitions SCHEDULED -> IN_PROGRESS under a row lock.
// Starting is deliberately NOT idempotent: a second start must fail so the
// caller can tell a double-tap from a fresh start.
func (repo *ScheduleRepo) MarkInProgress(ctx context.Context, id string, startedAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	current, err := lockScheduleStatus(ctx, tx, id)
	if err != nil {
		return err
	}

	if current != schedule.StatusScheduled.String() {
		return fmt.Errorf("%w: %s -> IN_PROGRESS", schedule.ErrInvalidStateTransition, current)
	}

	_, err = tx.Exec(ctx, `
		UPDATE schedules
		SET status = 'IN_PROGRESS',
		    updated_at = $1
		WHERE id = $2
	`, startedAt, id)
	return err
}

// MarkCompleted transitions IN_PROGRESS -> COMPLETED under a row lock.
// Idempotent: completing an already-completed trip succeeds silently so that
// offline retries converge.
func (repo *ScheduleRepo) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	current, err := lockScheduleStatus(ctx, tx, id)
	if err != nil {
		return err
	}

	// idempotent success
	if current == schedule.StatusCompleted.String() {
		return nil
	}

	if current != schedule.StatusInProgress.String() {
		return fmt.Errorf("%w: %s -> COMPLETED", schedule.ErrInvalidStateTransition, current)
	}

	_, err = tx.Exec(ctx, `
		UPDATE schedules
		SET status = 'COMPLETED',
		    updated_at = $1
		WHERE id = $2
	`, completedAt, id)
	return err
}

// MarkCancelled transitions SCHEDULED -> CANCELLED under a row lock.
func (repo *ScheduleRepo) MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	current, err := lockScheduleStatus(ctx, tx, id)
	if err != nil {
		return err
	}

	// idempotent success
	if current == schedule.StatusCancelled.String() {
		return nil
	}

	if current != schedule.StatusScheduled.String() {
		return fmt.Errorf("%w: %s -> CANCELLED", schedule.ErrInvalidStateTransition, current)
	}

	_, err = tx.Exec(ctx, `
		UPDATE schedules
		SET status = 'CANCELLED',
		    updated_at = $1
		WHERE id = $2
	`, cancelledAt, id)
	return err
}

// UpdateCost replaces the trip cost while the billing slot is unclaimed.
// The settlement_id IS NULL predicate is the guard: a settled trip matches
// zero rows and the caller gets ErrAlreadySettled.
func (repo *ScheduleRepo) UpdateCost(ctx context.Context, id string, costCents int64) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE schedules
		SET cost_cents = $1,
		    updated_at = now()
		WHERE id = $2
		  AND settlement_id IS NULL
	`, costCents, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		// distinguish "settled" from "missing"
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schedules WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return schedule.ErrAlreadySettled
	}

	return nil
}

// ListUnbilled returns COMPLETED trips whose billing slot is unclaimed,
// optionally narrowed by provider/station/date range.
func (repo *ScheduleRepo) ListUnbilled(ctx context.Context, filter ports.UnbilledFilter) ([]*schedule.Schedule, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE status = 'COMPLETED'
		  AND settlement_id IS NULL`
	args := []any{}
	n := 0

	if filter.ProviderID != "" {
		n++
		query += fmt.Sprintf(" AND provider_id = $%d", n)
		args = append(args, filter.ProviderID)
	}
	if filter.StationID != "" {
		n++
		query += fmt.Sprintf(" AND station_id = $%d", n)
		args = append(args, filter.StationID)
	}
	if !filter.From.IsZero() {
		n++
		query += fmt.Sprintf(" AND departure_at >= $%d", n)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		n++
		query += fmt.Sprintf(" AND departure_at <= $%d", n)
		args = append(args, filter.To)
	}

	query += " ORDER BY departure_at, id"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unbilled schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// SelectEligible returns COMPLETED, unclaimed trips for a provider and date
// window, row-locked so concurrent settlement runs serialize on the same set.
func (repo *ScheduleRepo) SelectEligible(ctx context.Context, providerID string, from, to time.Time) ([]*schedule.Schedule, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE status = 'COMPLETED'
		  AND settlement_id IS NULL
		  AND provider_id = $1
		  AND departure_at >= $2
		  AND departure_at <= $3
		ORDER BY departure_at, id
		FOR UPDATE
	`, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("select eligible schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// ClaimForSettlement performs the compare-and-set claim: settlement_id is
// written only where it is still null. The returned count lets the engine
// verify the claim covered the whole eligible set.
func (repo *ScheduleRepo) ClaimForSettlement(ctx context.Context, ids []string, settlementID string) (int64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE schedules
		SET settlement_id = $1,
		    updated_at = now()
		WHERE id = ANY($2)
		  AND status = 'COMPLETED'
		  AND settlement_id IS NULL
	`, settlementID, ids)
	if err != nil {
		return 0, fmt.Errorf("claim schedules for settlement: %w", err)
	}

	return tag.RowsAffected(), nil
}

// --- helpers ---

// lockScheduleStatus reads the current status under FOR UPDATE.
func lockScheduleStatus(ctx context.Context, tx pgx.Tx, id string) (string, error) {
	var current string
	err := tx.QueryRow(ctx, `
		SELECT status
		FROM schedules
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&current)
	if err != nil {
		return "", err
	}
	return current, nil
}

// scanSchedule reads one schedule row (manifest stored as jsonb).
func scanSchedule(row pgx.Row) (*schedule.Schedule, error) {
	var out schedule.Schedule
	var status string
	var station *string
	var manifest []byte

	err := row.Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt, &out.RouteID, &out.ProviderID, &out.DriverID,
		&out.VehiclePlate, &station, &out.DepartureAt, &manifest, &status,
		&out.CostCents, &out.SettlementID,
	)
	if err != nil {
		return nil, err
	}

	if station != nil {
		out.StationID = *station
	}
	if len(manifest) > 0 {
		if err := json.Unmarshal(manifest, &out.Manifest); err != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
	}
	out.Status = schedule.Status(status)

	return &out, nil
}

func scanSchedules(rows pgx.Rows) ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
