package postgres

import (
	"context"
	"fmt"

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/ports"

	"github.com/jackc/pgx/v5"
)

// LocationLogRepo persists the append-only location log using pgx and plain SQL.
type LocationLogRepo struct{}

// NewLocationLogRepo constructs a new LocationLogRepo.
func NewLocationLogRepo() ports.LocationLogRepository {
	return &LocationLogRepo{}
}

// Append inserts a single location sample. The bigserial primary key records
// arrival order; captured_at is stored exactly as given, even out of order.
func (repo *LocationLogRepo) Append(ctx context.Context, sample *execution.LocationSample) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO location_log (execution_id, latitude, longitude, captured_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		sample.ExecutionID,
		sample.Latitude,
		sample.Longitude,
		sample.CapturedAt,
	).Scan(&sample.ID)
	if err != nil {
		return fmt.Errorf("insert location sample: %w", err)
	}

	return nil
}

// Trail returns the full log for an execution. Storage order (arrival) is
// the default; byCapture re-sorts by captured_at for display.
func (repo *LocationLogRepo) Trail(ctx context.Context, executionID string, byCapture bool) ([]execution.LocationSample, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	order := "id"
	if byCapture {
		order = "captured_at, id"
	}

	rows, err := tx.Query(ctx, `
		SELECT id, execution_id, latitude, longitude, captured_at
		FROM location_log
		WHERE execution_id = $1
		ORDER BY `+order, executionID)
	if err != nil {
		return nil, fmt.Errorf("query location trail: %w", err)
	}
	defer rows.Close()

	var out []execution.LocationSample
	for rows.Next() {
		var s execution.LocationSample
		if err := rows.Scan(&s.ID, &s.ExecutionID, &s.Latitude, &s.Longitude, &s.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan location sample: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

// Last returns the most recently captured sample, or nil for an empty log.
func (repo *LocationLogRepo) Last(ctx context.Context, executionID string) (*execution.LocationSample, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var s execution.LocationSample
	err = tx.QueryRow(ctx, `
		SELECT id, execution_id, latitude, longitude, captured_at
		FROM location_log
		WHERE execution_id = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`, executionID).Scan(&s.ID, &s.ExecutionID, &s.Latitude, &s.Longitude, &s.CapturedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

// Count returns the number of samples in an execution's log.
func (repo *LocationLogRepo) Count(ctx context.Context, executionID string) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM location_log WHERE execution_id = $1
	`, executionID).Scan(&n)
	if err != nil {
		return 0, err
	}

	return n, nil
}
