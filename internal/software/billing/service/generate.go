package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/settlement"
	"github.com/wsaico/gestor360-sub002/internal/ports"
)

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405")
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// GenerateSettlement locks every eligible trip of the provider/period into a
// new settlement. The whole run is one transaction: select the eligible set
// under row locks, create the settlement over its costs, then compare-and-set
// the claim. If the set changed between selection and claim the run aborts
// and nothing is written.
//
// An empty eligible set is not an error: the run reports zero trips and a
// zero total, and no settlement record is created.
func (service *settlementService) GenerateSettlement(ctx context.Context, in ports.GenerateSettlementInput) (ports.GenerateSettlementResult, error) {
	var out ports.GenerateSettlementResult
	corrID := generateCorrelationID()

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		eligible, err := service.schedules.SelectEligible(ctx, in.ProviderID, in.PeriodStart, in.PeriodEnd)
		if err != nil {
			return err
		}

		// zero-result run: nothing to lock, nothing created
		if len(eligible) == 0 {
			out.TripCount = 0
			out.TotalCents = 0
			out.Message = "No eligible trips in the period; no settlement created"
			return nil
		}

		ids := make([]string, 0, len(eligible))
		costs := make([]int64, 0, len(eligible))
		for _, s := range eligible {
			ids = append(ids, s.ID)
			costs = append(costs, s.CostCents)
		}

		stl, err := settlement.NewSettlement(in.ProviderID, in.PeriodStart, in.PeriodEnd, costs, in.RequestedBy)
		if err != nil {
			return err
		}
		if err := service.settlements.Create(ctx, stl); err != nil {
			return err
		}

		// compare-and-set: every selected trip must still be claimable
		claimed, err := service.schedules.ClaimForSettlement(ctx, ids, stl.ID)
		if err != nil {
			return err
		}
		if claimed != int64(len(ids)) {
			return settlement.ErrConcurrentClaimConflict
		}

		// prepare output
		out.SettlementID = stl.ID
		out.TripCount = stl.TripCount
		out.TotalCents = stl.TotalCents
		out.Message = "Settlement generated successfully"

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "settlement_generate_failed", "Failed to generate settlement", err, map[string]any{
			"provider_id":  in.ProviderID,
			"period_start": in.PeriodStart,
			"period_end":   in.PeriodEnd,
			"request_id":   corrID,
		})
		return ports.GenerateSettlementResult{}, err
	}

	// log run outcome
	service.logger.Info(ctx, "settlement_generated", "Settlement run finished", map[string]any{
		"settlement_id": out.SettlementID,
		"provider_id":   in.ProviderID,
		"trip_count":    out.TripCount,
		"total_cents":   out.TotalCents,
		"request_id":    corrID,
	})

	return out, nil
}
