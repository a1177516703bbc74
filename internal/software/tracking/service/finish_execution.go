package service

import (
	"context"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// FinishExecution closes the trip: validates the check-in ledger against the
// planned manifest, stamps the end time, and transitions the schedule to
// COMPLETED.
//
// The operation is safe to retry: a second finish carrying the same check-in
// set (timestamps ignored) is absorbed and answered with the stored terminal
// state, flagged as a replay. A second finish carrying a different check-in
// set is rejected, the first ledger stands.
func (service *transportService) FinishExecution(ctx context.Context, in ports.FinishExecutionInput) (ports.FinishExecutionResult, error) {
	var out ports.FinishExecutionResult
	var snap contracts.ExecutionSnapshot
	var providerID string
	var costCents int64
	corrID := generateCorrelationID()

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		// lock the schedule row so a concurrent duplicate finish waits here
		// and then observes the committed COMPLETED state (replay path)
		// instead of racing the ended_at predicate below.
		s, err := service.schedules.GetByIDForUpdate(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		providerID = s.ProviderID
		costCents = s.CostCents

		exec, err := service.executions.GetBySchedule(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		if exec == nil {
			return execution.ErrExecutionNotActive
		}

		incoming := toCheckIns(in.CheckIns)

		// replay path: the trip already completed with this exact ledger.
		// The retry is validated like a first delivery; a malformed ledger
		// is rejected, never absorbed.
		if s.Status == schedule.StatusCompleted {
			validated, err := execution.ValidateCheckIns(s.Manifest, incoming)
			if err != nil {
				return err
			}
			if !execution.SameCheckIns(exec.CheckIns, validated) {
				return execution.ErrAlreadyEnded
			}
			snap = snapshotOf(s, exec, nil, 0)
			out = finishResult(s, exec, true)
			return nil
		}
		if s.Status != schedule.StatusInProgress {
			return schedule.ErrInvalidStateTransition
		}

		finishedAt := in.FinishedAt
		if finishedAt.IsZero() {
			finishedAt = time.Now().UTC()
		}

		// validate the ledger and stamp the end time in memory
		if err := exec.Finish(s.Manifest, incoming, finishedAt); err != nil {
			return err
		}

		// persist: close the execution, then complete the schedule
		if err := service.executions.Finish(ctx, exec.ID, *exec.EndedAt, exec.CheckIns); err != nil {
			return err
		}
		if err := service.schedules.MarkCompleted(ctx, in.ScheduleID, *exec.EndedAt); err != nil {
			return err
		}
		s.Status = schedule.StatusCompleted

		last, err := service.locations.Last(ctx, exec.ID)
		if err != nil {
			return err
		}
		count, err := service.locations.Count(ctx, exec.ID)
		if err != nil {
			return err
		}

		snap = snapshotOf(s, exec, last, count)
		out = finishResult(s, exec, false)

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "execution_finish_failed", "Failed to finish execution", err, map[string]any{
			"schedule_id": in.ScheduleID,
			"request_id":  corrID,
		})
		return ports.FinishExecutionResult{}, err
	}

	// replays publish nothing: the original finish already announced itself
	if !out.Replayed {
		now := time.Now().UTC()
		envelope := contracts.Envelope{
			Producer:      producerName,
			CorrelationID: corrID,
			SentAt:        now,
		}

		statusMsg := contracts.ScheduleStatusMessage{
			ScheduleID: in.ScheduleID,
			ProviderID: providerID,
			OldStatus:  schedule.StatusInProgress.String(),
			NewStatus:  schedule.StatusCompleted.String(),
			CostCents:  costCents,
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

		updMsg := contracts.ExecutionUpdateMessage{Snapshot: snap, Timestamp: now, Envelope: envelope}
		if err = service.broadcastExecutionUpdate(ctx, updMsg); err != nil {
			service.logger.Error(ctx, "execution_update_publish_failed", "Failed to broadcast execution update to RabbitMQ", err, map[string]any{
				"schedule_id": in.ScheduleID,
				"request_id":  corrID,
			})
		}
	}

	// log successful finish
	service.logger.Info(ctx, "execution_finished", "Trip execution finished", map[string]any{
		"schedule_id":    in.ScheduleID,
		"check_in_count": out.CheckInCount,
		"boarded_count":  out.BoardedCount,
		"replayed":       out.Replayed,
		"request_id":     corrID,
	})

	return out, nil
}

// finishResult assembles the terminal result from the stored state, shared by
// the first finish and its replays.
func finishResult(s *schedule.Schedule, exec *execution.Execution, replayed bool) ports.FinishExecutionResult {
	out := ports.FinishExecutionResult{
		ScheduleID:   s.ID,
		Status:       s.Status.String(),
		EndedAt:      exec.EndedAt,
		CheckInCount: len(exec.CheckIns),
		Replayed:     replayed,
		Message:      "Execution finished successfully",
	}
	for _, ci := range exec.CheckIns {
		if ci.Boarded {
			out.BoardedCount++
		}
	}
	if replayed {
		out.Message = "Execution already finished; retry absorbed"
	}
	return out
}
