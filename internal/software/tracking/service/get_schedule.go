package service

import (
	"context"

	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// GetSchedule returns the full trip view: planning fields, current status,
// billing state, and the execution snapshot when the trip has started.
func (service *transportService) GetSchedule(ctx context.Context, scheduleID string) (ports.ScheduleView, error) {
	var out ports.ScheduleView

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		s, err := service.schedules.GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}

		out = ports.ScheduleView{
			ScheduleID:   s.ID,
			RouteID:      s.RouteID,
			ProviderID:   s.ProviderID,
			DriverID:     s.DriverID,
			VehiclePlate: s.VehiclePlate,
			StationID:    s.StationID,
			DepartureAt:  s.DepartureAt,
			Manifest:     s.Manifest,
			Status:       s.Status.String(),
			CostCents:    s.CostCents,
			SettlementID: s.SettlementID,
		}

		exec, err := service.executions.GetBySchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if exec == nil {
			return nil
		}

		last, err := service.locations.Last(ctx, exec.ID)
		if err != nil {
			return err
		}
		count, err := service.locations.Count(ctx, exec.ID)
		if err != nil {
			return err
		}

		snap := snapshotOf(s, exec, last, count)
		out.Execution = &snap

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "schedule_get_failed", "Failed to load schedule", err, map[string]any{
			"schedule_id": scheduleID,
		})
		return ports.ScheduleView{}, err
	}

	return out, nil
}
