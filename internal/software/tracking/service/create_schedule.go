package service

import (
	"context"

	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// CreateSchedule registers a planned trip in SCHEDULED state. When the caller
// omits the cost, it is defaulted from the route catalog at creation time and
// frozen on the trip from then on.
func (service *transportService) CreateSchedule(ctx context.Context, in ports.CreateScheduleInput) (ports.CreateScheduleResult, error) {
	var out ports.CreateScheduleResult
	corrID := generateCorrelationID()

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		// resolve pricing from the route catalog
		r, err := service.routes.GetByID(ctx, in.RouteID)
		if err != nil {
			return err
		}

		costCents := r.DefaultCostCents(len(in.Manifest))
		if in.CostCents != nil {
			costCents = *in.CostCents
		}

		// build and persist the trip instance
		s, err := schedule.NewSchedule(
			in.RouteID,
			in.ProviderID,
			in.DriverID,
			in.VehiclePlate,
			in.StationID,
			in.DepartureAt,
			in.Manifest,
			costCents,
		)
		if err != nil {
			return err
		}
		if err := service.schedules.Create(ctx, s); err != nil {
			return err
		}

		// prepare output
		out.ScheduleID = s.ID
		out.Status = s.Status.String()
		out.CostCents = s.CostCents
		out.DepartureAt = s.DepartureAt
		out.Message = "Schedule created successfully"

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "schedule_create_failed", "Failed to create schedule", err, map[string]any{
			"route_id":    in.RouteID,
			"provider_id": in.ProviderID,
			"request_id":  corrID,
		})
		return ports.CreateScheduleResult{}, err
	}

	// log successful creation
	service.logger.Info(ctx, "schedule_created", "Schedule created", map[string]any{
		"schedule_id":  out.ScheduleID,
		"route_id":     in.RouteID,
		"provider_id":  in.ProviderID,
		"departure_at": out.DepartureAt,
		"cost_cents":   out.CostCents,
		"request_id":   corrID,
	})

	return out, err
}
