package service

import (
	"github.com/wsaico/gestor360-sub002/internal/general/logger"
	"github.com/wsaico/gestor360-sub002/internal/general/rabbitmq"
	"github.com/wsaico/gestor360-sub002/internal/general/websocket"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// transportService holds all dependencies required by the transport tracker.
type transportService struct {
	logger     *logger.Logger
	uow        ports.UnitOfWork
	routes     ports.RouteRepository
	schedules  ports.ScheduleRepository
	executions ports.ExecutionRepository
	locations  ports.LocationLogRepository
	pub        *rabbitmq.MQPublisher
	rabbitmq   *rabbitmq.Client
	tracker    *websocket.Tracker
}

// NewTransportService constructs the service with required dependencies.
func NewTransportService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	routes ports.RouteRepository,
	schedules ports.ScheduleRepository,
	executions ports.ExecutionRepository,
	locations ports.LocationLogRepository,
	pub *rabbitmq.MQPublisher,
	rabbitmq *rabbitmq.Client,
	tracker *websocket.Tracker,
) ports.TransportService {
	return &transportService{
		logger:     logger,
		uow:        uow,
		routes:     routes,
		schedules:  schedules,
		executions: executions,
		locations:  locations,
		pub:        pub,
		rabbitmq:   rabbitmq,
		tracker:    tracker,
	}
}
