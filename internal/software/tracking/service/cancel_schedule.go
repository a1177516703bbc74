package service

import (
	"context"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// CancelSchedule transitions SCHEDULED -> CANCELLED. A trip that has started
// cannot be cancelled anymore.
func (service *transportService) CancelSchedule(ctx context.Context, in ports.CancelScheduleInput) (ports.CancelScheduleResult, error) {
	var out ports.CancelScheduleResult
	var providerID string
	corrID := generateCorrelationID()

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		s, err := service.schedules.GetByID(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		providerID = s.ProviderID

		// validate the transition in memory first
		if err := s.Cancel(); err != nil {
			return err
		}

		cancelledAt := time.Now().UTC()
		if err := service.schedules.MarkCancelled(ctx, in.ScheduleID, cancelledAt); err != nil {
			return err
		}

		// prepare output
		out.ScheduleID = in.ScheduleID
		out.Status = schedule.StatusCancelled.String()
		out.CancelledAt = cancelledAt
		out.Message = "Schedule cancelled successfully"

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "schedule_cancel_failed", "Failed to cancel schedule", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"reason":      in.Reason,
			"request_id":  corrID,
		})
		return ports.CancelScheduleResult{}, err
	}

	// publish schedule status change (topic)
	statusMsg := contracts.ScheduleStatusMessage{
		ScheduleID: in.ScheduleID,
		ProviderID: providerID,
		OldStatus:  schedule.StatusScheduled.String(),
		NewStatus:  schedule.StatusCancelled.String(),
		Timestamp:  time.Now().UTC(),
		Envelope: contracts.Envelope{
			Producer:      producerName,
			CorrelationID: corrID,
			SentAt:        time.Now().UTC(),
		},
	}
	if err = service.publishScheduleStatus(ctx, statusMsg); err != nil {
		service.logger.Error(ctx, "schedule_status_publish_failed", "Failed to publish schedule status to RabbitMQ", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"new_status":  statusMsg.NewStatus,
			"request_id":  corrID,
		})
	}

	// log successful cancellation
	service.logger.Info(ctx, "schedule_cancelled", "Schedule cancelled", map[string]any{
		"schedule_id":  in.ScheduleID,
		"reason":       in.Reason,
		"cancelled_at": out.CancelledAt,
		"request_id":   corrID,
	})

	return out, nil
}
