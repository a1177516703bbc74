package service

import (
	"context"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// StartExecution transitions the schedule to IN_PROGRESS and opens its
// execution record. An optional initial position seeds the location log.
func (service *transportService) StartExecution(ctx context.Context, in ports.StartExecutionInput) (ports.StartExecutionResult, error) {
	var out ports.StartExecutionResult
	var snap contracts.ExecutionSnapshot
	var providerID string
	corrID := generateCorrelationID()

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		// fetch the schedule and validate the transition in memory first
		s, err := service.schedules.GetByID(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		if err := s.Start(); err != nil {
			return err
		}

		startedAt := in.CapturedAt
		if startedAt.IsZero() {
			startedAt = time.Now().UTC()
		}

		// update schedule status -> IN_PROGRESS (row-locked, re-validated)
		if err := service.schedules.MarkInProgress(ctx, in.ScheduleID, startedAt); err != nil {
			return err
		}

		// open the execution record
		var startLat, startLng *float64
		if in.InitialLocation != nil {
			lat, lng := in.InitialLocation.Lat, in.InitialLocation.Lng
			startLat, startLng = &lat, &lng
		}
		exec, err := execution.NewExecution(in.ScheduleID, startedAt, startLat, startLng)
		if err != nil {
			return err
		}
		if err := service.executions.Create(ctx, exec); err != nil {
			return err
		}

		// seed the location log with the start fix, if any
		sampleCount := 0
		var lastSample *execution.LocationSample
		if in.InitialLocation != nil {
			sample, err := execution.NewLocationSample(exec.ID, in.InitialLocation.Lat, in.InitialLocation.Lng, startedAt)
			if err != nil {
				return err
			}
			if err := service.locations.Append(ctx, sample); err != nil {
				return err
			}
			sampleCount = 1
			lastSample = sample
		}

		providerID = s.ProviderID
		snap = snapshotOf(s, exec, lastSample, sampleCount)

		// prepare output
		out.ScheduleID = in.ScheduleID
		out.ExecutionID = exec.ID
		out.Status = schedule.StatusInProgress.String()
		out.StartedAt = exec.StartedAt
		out.Message = "Execution started successfully"

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "execution_start_failed", "Failed to start execution", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"request_id":  corrID,
		})
		return ports.StartExecutionResult{}, err
	}

	now := time.Now().UTC()
	envelope := contracts.Envelope{
		Producer:      producerName,
		CorrelationID: corrID,
		SentAt:        now,
	}

	// publish schedule status change (topic)
	statusMsg := contracts.ScheduleStatusMessage{
		ScheduleID: in.ScheduleID,
		ProviderID: providerID,
		OldStatus:  schedule.StatusScheduled.String(),
		NewStatus:  schedule.StatusInProgress.String(),
		Timestamp:  now,
		Envelope:   envelope,
	}
	if err = service.publishScheduleStatus(ctx, statusMsg); err != nil {
		service.logger.Error(ctx, "schedule_status_publish_failed", "Failed to publish schedule status to RabbitMQ", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"new_status":  statusMsg.NewStatus,
			"request_id":  corrID,
		})
	}

	// broadcast the first execution snapshot (fanout)
	updMsg := contracts.ExecutionUpdateMessage{Snapshot: snap, Timestamp: now, Envelope: envelope}
	if err = service.broadcastExecutionUpdate(ctx, updMsg); err != nil {
		service.logger.Error(ctx, "execution_update_publish_failed", "Failed to broadcast execution update to RabbitMQ", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"request_id":  corrID,
		})
	}

	// log successful start
	service.logger.Info(ctx, "execution_started", "Trip execution started", map[string]any{
		"schedule_id":  in.ScheduleID,
		"execution_id": out.ExecutionID,
		"started_at":   out.StartedAt,
		"request_id":   corrID,
	})

	return out, nil
}
