package service

import (
	"context"
	"encoding/json"

	"github.com/wsaico/gestor360-sub002/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartIntakeConsumer starts the background consumer watching trip
// completions so operators see reconciliation candidates arrive without
// polling the unbilled view.
func (service *settlementService) StartIntakeConsumer(ctx context.Context) {
	go service.rabbitmq.Consume(ctx, contracts.QueueSettlementIntake, "settlement-service-intake", 10,
		func(ctx context.Context, d amqp.Delivery) error {
			var msg contracts.ScheduleStatusMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				service.logger.Error(ctx, "mq_message_parse_failed", "Failed to parse schedule status message", err, nil)
				return err
			}

			service.logger.Info(ctx, "settlement_candidate_received", "Completed trip entered the reconciliation pool",
				map[string]any{
					"schedule_id": msg.ScheduleID,
					"provider_id": msg.ProviderID,
					"cost_cents":  msg.CostCents,
					"routing_key": d.RoutingKey,
				})

			return nil
		})

	service.logger.Info(ctx, "mq_consumer_started", "Settlement intake consumer started",
		map[string]any{"queue": contracts.QueueSettlementIntake})
}
