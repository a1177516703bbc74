package postgres

import (
	"context"
	"fmt"

	"github.com/wsaico/gestor360-sub002/internal/domain/settlement"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// SettlementRepo persists settlement records using pgx and plain SQL.
// Settlements are insert-only: no update methods exist because a settlement
// is immutable after creation.
type SettlementRepo struct{}

// NewSettlementRepo constructs a new SettlementRepo.
func NewSettlementRepo() ports.SettlementRepository {
	return &SettlementRepo{}
}

// Create inserts a settlement row and fills in the generated id/created_at.
func (repo *SettlementRepo) Create(ctx context.Context, s *settlement.Settlement) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO settlements (
			provider_id, period_start, period_end, total_cents, trip_count, status, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`,
		s.ProviderID,
		s.PeriodStart,
		s.PeriodEnd,
		s.TotalCents,
		s.TripCount,
		string(s.Status),
		nullIfEmpty(s.CreatedBy),
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}

	return nil
}

// GetByID fetches a settlement by primary key.
func (repo *SettlementRepo) GetByID(ctx context.Context, id string) (*settlement.Settlement, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out settlement.Settlement
	var status string
	var createdBy *string

	err = tx.QueryRow(ctx, `
		SELECT id, provider_id, period_start, period_end, total_cents, trip_count, status, created_at, created_by
		FROM settlements
		WHERE id = $1
	`, id).Scan(
		&out.ID, &out.ProviderID, &out.PeriodStart, &out.PeriodEnd,
		&out.TotalCents, &out.TripCount, &status, &out.CreatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}

	out.Status = settlement.Status(status)
	if createdBy != nil {
		out.CreatedBy = *createdBy
	}

	return &out, nil
}

// TripIDs returns the ids of the trips locked into a settlement.
func (repo *SettlementRepo) TripIDs(ctx context.Context, settlementID string) ([]string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id
		FROM schedules
		WHERE settlement_id = $1
		ORDER BY departure_at, id
	`, settlementID)
	if err != nil {
		return nil, fmt.Errorf("query settlement trips: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan trip id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}
