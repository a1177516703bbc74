package service

import (
	"context"

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// GetScheduleTrail returns the recorded location log for a trip. Arrival
// order is the default; byCapture re-sorts by captured_at for display on a
// map, where device clock drift matters less than spatial continuity.
func (service *transportService) GetScheduleTrail(ctx context.Context, scheduleID string, byCapture bool) (ports.ScheduleTrailView, error) {
	var out ports.ScheduleTrailView

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		// resolve the schedule first so an unknown id surfaces as not-found
		s, err := service.schedules.GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}

		exec, err := service.executions.GetBySchedule(ctx, s.ID)
		if err != nil {
			return err
		}
		if exec == nil {
			return execution.ErrExecutionNotActive
		}

		samples, err := service.locations.Trail(ctx, exec.ID, byCapture)
		if err != nil {
			return err
		}

		trail := make([]ports.TrailPoint, 0, len(samples))
		for _, sample := range samples {
			trail = append(trail, ports.TrailPoint{
				Latitude:   sample.Latitude,
				Longitude:  sample.Longitude,
				CapturedAt: sample.CapturedAt,
			})
		}

		out = ports.ScheduleTrailView{
			ScheduleID:  s.ID,
			ExecutionID: exec.ID,
			SampleCount: len(trail),
			Trail:       trail,
		}

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "schedule_trail_failed", "Failed to load location trail", err, map[string]any{
			"schedule_id": scheduleID,
		})
		return ports.ScheduleTrailView{}, err
	}

	return out, nil
}
