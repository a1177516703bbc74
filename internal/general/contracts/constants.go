package contracts

// Exchanges
const (
	ExchangeTransportTopic  = "transport_topic"
	ExchangeExecutionFanout = "execution_fanout"
)

// Queues
const (
	QueueScheduleStatus     = "schedule_status"
	QueueSettlementIntake   = "settlement_intake"
	QueueExecutionUpdatesWS = "execution_updates_ws"
)

// Routing patterns
const (
	RouteScheduleStatusPrefix = "schedule.status." // {status}
)
