package postgres

import (
	"context"

	"github.com/wsaico/gestor360-sub002/internal/domain/route"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// RouteRepo reads the pricing catalog. The routes table is maintained by the
// catalog module elsewhere in the platform; this core only prices against it.
type RouteRepo struct{}

// NewRouteRepo constructs a new RouteRepo.
func NewRouteRepo() ports.RouteRepository {
	return &RouteRepo{}
}

// GetByID fetches a route with its organization pricing.
func (repo *RouteRepo) GetByID(ctx context.Context, id string) (*route.Route, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out route.Route
	var billingType string

	err = tx.QueryRow(ctx, `
		SELECT id, organization_id, origin, destination, billing_type, base_price_cents
		FROM routes
		WHERE id = $1
	`, id).Scan(
		&out.ID, &out.OrganizationID, &out.Origin, &out.Destination, &billingType, &out.BasePriceCents,
	)
	if err != nil {
		return nil, err
	}

	out.BillingType = route.BillingType(billingType)

	return &out, nil
}
