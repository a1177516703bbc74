package service

import (
	"github.com/wsaico/gestor360-sub002/internal/general/logger"
	"github.com/wsaico/gestor360-sub002/internal/general/rabbitmq"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// settlementService holds all dependencies required by the reconciliation engine.
type settlementService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	schedules   ports.ScheduleRepository
	settlements ports.SettlementRepository
	rabbitmq    *rabbitmq.Client
}

// NewSettlementService constructs the service with required dependencies.
func NewSettlementService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	schedules ports.ScheduleRepository,
	settlements ports.SettlementRepository,
	rabbitmq *rabbitmq.Client,
) ports.SettlementService {
	return &settlementService{
		logger:      logger,
		uow:         uow,
		schedules:   schedules,
		settlements: settlements,
		rabbitmq:    rabbitmq,
	}
}
