package service

import (
	"context"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// AppendLocation appends one sample to the trip's location log. The log is
// append-only: samples are never edited or removed, and a captured-at earlier
// than the previous sample is stored as-is (device clocks drift; arrival
// order is the storage order).
func (service *transportService) AppendLocation(ctx context.Context, in ports.AppendLocationInput) (ports.AppendLocationResult, error) {
	var out ports.AppendLocationResult
	var snap contracts.ExecutionSnapshot
	corrID := generateCorrelationID()

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		// the trip must be running to receive samples
		s, err := service.schedules.GetByID(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		if s.Status != schedule.StatusInProgress {
			return execution.ErrExecutionNotActive
		}

		exec, err := service.executions.GetBySchedule(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		if exec == nil || !exec.Active() {
			return execution.ErrExecutionNotActive
		}

		capturedAt := in.CapturedAt
		if capturedAt.IsZero() {
			capturedAt = time.Now().UTC()
		}

		sample, err := execution.NewLocationSample(exec.ID, in.Latitude, in.Longitude, capturedAt)
		if err != nil {
			return err
		}
		if err := service.locations.Append(ctx, sample); err != nil {
			return err
		}

		count, err := service.locations.Count(ctx, exec.ID)
		if err != nil {
			return err
		}

		snap = snapshotOf(s, exec, sample, count)

		// prepare output
		out.ScheduleID = in.ScheduleID
		out.SampleCount = count
		out.CapturedAt = sample.CapturedAt

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "location_append_failed", "Failed to append location sample", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"latitude":    in.Latitude,
			"longitude":   in.Longitude,
			"request_id":  corrID,
		})
		return ports.AppendLocationResult{}, err
	}

	// broadcast the refreshed snapshot (fanout)
	updMsg := contracts.ExecutionUpdateMessage{
		Snapshot:  snap,
		Timestamp: time.Now().UTC(),
		Envelope: contracts.Envelope{
			Producer:      producerName,
			CorrelationID: corrID,
			SentAt:        time.Now().UTC(),
		},
	}
	if err = service.broadcastExecutionUpdate(ctx, updMsg); err != nil {
		service.logger.Error(ctx, "execution_update_publish_failed", "Failed to broadcast execution update to RabbitMQ", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"request_id":  corrID,
		})
	}

	// log successful append
	service.logger.Info(ctx, "location_appended", "Location sample appended", map[string]any{
		"schedule_id":  in.ScheduleID,
		"sample_count": out.SampleCount,
		"lat":          in.Latitude,
		"lng":          in.Longitude,
		"captured_at":  out.CapturedAt,
		"request_id":   corrID,
	})

	return out, nil
}
