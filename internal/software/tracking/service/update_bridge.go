package service

import (
	"context"
	"encoding/json"

	"github.com/wsaico/gestor360-sub002/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartUpdateBridge starts the background consumer that bridges execution
// updates from the fanout exchange to live-tracking WebSocket subscribers.
func (service *transportService) StartUpdateBridge(ctx context.Context) {
	go service.rabbitmq.Consume(ctx, contracts.QueueExecutionUpdatesWS, "transport-service-ws-bridge", 50,
		func(ctx context.Context, d amqp.Delivery) error {
			var msg contracts.ExecutionUpdateMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				service.logger.Error(ctx, "mq_message_parse_failed", "Failed to parse execution update", err, nil)
				return err
			}

			service.tracker.Broadcast(msg)

			service.logger.Debug(ctx, "execution_update_bridged", "Execution update delivered to subscribers",
				map[string]any{
					"schedule_id": msg.Snapshot.ScheduleID,
					"status":      msg.Snapshot.Status,
					"subscribers": service.tracker.SubscriberCount(msg.Snapshot.ScheduleID),
				})

			return nil
		})

	service.logger.Info(ctx, "mq_consumer_started", "Execution update bridge started",
		map[string]any{"queue": contracts.QueueExecutionUpdatesWS})
}
