package service

import (
	"context"

	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// ListUnbilled returns the reconciliation view: COMPLETED trips whose billing
// slot is still unclaimed, optionally narrowed by provider, station, or date
// range.
func (service *settlementService) ListUnbilled(ctx context.Context, filter ports.UnbilledFilter) ([]ports.UnbilledTripRow, error) {
	var rows []ports.UnbilledTripRow

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		schedules, err := service.schedules.ListUnbilled(ctx, filter)
		if err != nil {
			return err
		}

		rows = make([]ports.UnbilledTripRow, 0, len(schedules))
		for _, s := range schedules {
			rows = append(rows, ports.UnbilledTripRow{
				ScheduleID:   s.ID,
				RouteID:      s.RouteID,
				ProviderID:   s.ProviderID,
				StationID:    s.StationID,
				DriverID:     s.DriverID,
				VehiclePlate: s.VehiclePlate,
				DepartureAt:  s.DepartureAt,
				CostCents:    s.CostCents,
			})
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "unbilled_list_failed", "Failed to list unbilled trips", err, map[string]any{
			"provider_id": filter.ProviderID,
			"station_id":  filter.StationID,
		})
		return nil, err
	}

	return rows, nil
}
