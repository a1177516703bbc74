package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/execution"
	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
)

const producerName = "transport-service"

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405")
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// publishScheduleStatus sends a schedule status change to the transport_topic
// exchange using routing key "schedule.status.{new_status}" (topic).
func (service *transportService) publishScheduleStatus(ctx context.Context, msg contracts.ScheduleStatusMessage) error {
	// construct routing key (e.g., "schedule.status.completed")
	routingKey := contracts.RouteScheduleStatusPrefix + strings.ToLower(msg.NewStatus)

	// marshal and publish
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := service.pub.Publish(contracts.ExchangeTransportTopic, routingKey, body); err != nil {
		return err
	}

	// log successful publication
	service.logger.Info(ctx, "schedule_status_published", "Published schedule status to RabbitMQ", map[string]any{
		"routing_key": routingKey,
		"schedule_id": msg.ScheduleID,
		"old_status":  msg.OldStatus,
		"new_status":  msg.NewStatus,
	})

	return nil
}

// broadcastExecutionUpdate broadcasts the latest execution snapshot using the
// fanout exchange. Fanout ignores routing keys; pass an empty routing key.
func (service *transportService) broadcastExecutionUpdate(ctx context.Context, msg contracts.ExecutionUpdateMessage) error {
	// marshal and publish (fanout exchange -> routingKey must be "")
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := service.pub.Publish(contracts.ExchangeExecutionFanout, "", body); err != nil {
		return err
	}

	// log successful publication
	service.logger.Info(ctx, "execution_update_published", "Broadcasted execution update to RabbitMQ", map[string]any{
		"schedule_id":  msg.Snapshot.ScheduleID,
		"status":       msg.Snapshot.Status,
		"sample_count": msg.Snapshot.SampleCount,
	})

	return nil
}

// snapshotOf assembles the wire snapshot for a schedule and its execution.
// exec may be nil for a trip that has not started.
func snapshotOf(s *schedule.Schedule, exec *execution.Execution, last *execution.LocationSample, sampleCount int) contracts.ExecutionSnapshot {
	snap := contracts.ExecutionSnapshot{
		ScheduleID:    s.ID,
		Status:        s.Status.String(),
		SampleCount:   sampleCount,
		ManifestCount: len(s.Manifest),
	}
	if exec != nil {
		startedAt := exec.StartedAt
		snap.StartedAt = &startedAt
		snap.EndedAt = exec.EndedAt
		snap.CheckInCount = len(exec.CheckIns)
		for _, ci := range exec.CheckIns {
			if ci.Boarded {
				snap.BoardedCount++
			}
		}
	}
	if last != nil {
		snap.LastLocation = &contracts.GeoPoint{Lat: last.Latitude, Lng: last.Longitude}
		captured := last.CapturedAt
		snap.LastCaptured = &captured
	}
	return snap
}

// toCheckIns converts wire check-in records to domain check-ins.
func toCheckIns(records []contracts.CheckInRecord) []execution.CheckIn {
	out := make([]execution.CheckIn, 0, len(records))
	for _, r := range records {
		out = append(out, execution.CheckIn{
			PassengerID: r.PassengerID,
			Boarded:     r.Boarded,
			BoardedAt:   r.BoardedAt,
		})
	}
	return out
}
