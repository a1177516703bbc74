package service

import (
	"context"

	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// GetSettlement returns the settlement statement with the ids of the trips
// it locked.
func (service *settlementService) GetSettlement(ctx context.Context, settlementID string) (ports.SettlementView, error) {
	var out ports.SettlementView

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		stl, err := service.settlements.GetByID(ctx, settlementID)
		if err != nil {
			return err
		}

		tripIDs, err := service.settlements.TripIDs(ctx, settlementID)
		if err != nil {
			return err
		}

		out = ports.SettlementView{
			SettlementID: stl.ID,
			ProviderID:   stl.ProviderID,
			PeriodStart:  stl.PeriodStart,
			PeriodEnd:    stl.PeriodEnd,
			TotalCents:   stl.TotalCents,
			TripCount:    stl.TripCount,
			Status:       string(stl.Status),
			CreatedAt:    stl.CreatedAt,
			TripIDs:      tripIDs,
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "settlement_get_failed", "Failed to load settlement", err, map[string]any{
			"settlement_id": settlementID,
		})
		return ports.SettlementView{}, err
	}

	return out, nil
}
