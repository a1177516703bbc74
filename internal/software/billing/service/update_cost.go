package service

import (
	"context"

	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// UpdateScheduleCost replaces a trip's cost during reconciliation. The cost
// is mutable only while the trip is unsettled; once a settlement claims the
// trip the correction is rejected.
func (service *settlementService) UpdateScheduleCost(ctx context.Context, in ports.UpdateCostInput) (ports.UpdateCostResult, error) {
	var out ports.UpdateCostResult
	corrID := generateCorrelationID()

	if in.CostCents < 0 {
		return ports.UpdateCostResult{}, schedule.ErrNegativeCost
	}

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := service.schedules.UpdateCost(ctx, in.ScheduleID, in.CostCents); err != nil {
			return err
		}

		out.ScheduleID = in.ScheduleID
		out.CostCents = in.CostCents
		out.Message = "Cost updated successfully"

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "cost_update_failed", "Failed to update trip cost", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"cost_cents":  in.CostCents,
			"request_id":  corrID,
		})
		return ports.UpdateCostResult{}, err
	}

	service.logger.Info(ctx, "cost_updated", "Trip cost updated", map[string]any{
		"schedule_id": in.ScheduleID,
		"cost_cents":  in.CostCents,
		"request_id":  corrID,
	})

	return out, nil
}
