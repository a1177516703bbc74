package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/domain/schedule"
	"github.com/wsaico/gestor360-sub002/internal/domain/settlement"
	"github.com/wsaico/gestor360-sub002/internal/general/logger"
	"github.com/wsaico/gestor360-sub002/internal/ports"

	"github.com/jackc/pgx/v5"
)

var (
	billingPeriodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	billingPeriodEnd   = time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
)

// ----- in-memory fakes -----

type fakeUOW struct{}

func (fakeUOW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeScheduleRepo struct {
	byID map[string]*schedule.Schedule
	seq  int

	// claimShort drops this many ids from the next claim, simulating a
	// concurrent settlement winning part of the eligible set.
	claimShort int
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{byID: make(map[string]*schedule.Schedule)}
}

func (r *fakeScheduleRepo) addCompleted(providerID, stationID string, departureAt time.Time, costCents int64) string {
	r.seq++
	id := fmt.Sprintf("sch-%d", r.seq)
	r.byID[id] = &schedule.Schedule{
		ID:           id,
		RouteID:      "route-1",
		ProviderID:   providerID,
		DriverID:     "drv-1",
		VehiclePlate: "ABC-123",
		StationID:    stationID,
		DepartureAt:  departureAt,
		Status:       schedule.StatusCompleted,
		CostCents:    costCents,
	}
	return id
}

func (r *fakeScheduleRepo) Create(_ context.Context, s *schedule.Schedule) error {
	r.seq++
	s.ID = fmt.Sprintf("sch-%d", r.seq)
	stored := *s
	r.byID[s.ID] = &stored
	return nil
}

func (r *fakeScheduleRepo) GetByID(_ context.Context, id string) (*schedule.Schedule, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (r *fakeScheduleRepo) GetByIDForUpdate(ctx context.Context, id string) (*schedule.Schedule, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeScheduleRepo) MarkInProgress(context.Context, string, time.Time) error { return nil }
func (r *fakeScheduleRepo) MarkCompleted(context.Context, string, time.Time) error  { return nil }
func (r *fakeScheduleRepo) MarkCancelled(context.Context, string, time.Time) error  { return nil }

func (r *fakeScheduleRepo) UpdateCost(_ context.Context, id string, costCents int64) error {
	s, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if s.Settled() {
		return schedule.ErrAlreadySettled
	}
	s.CostCents = costCents
	return nil
}

func (r *fakeScheduleRepo) ListUnbilled(_ context.Context, filter ports.UnbilledFilter) ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	for _, s := range r.byID {
		if s.Status != schedule.StatusCompleted || s.Settled() {
			continue
		}
		if filter.ProviderID != "" && s.ProviderID != filter.ProviderID {
			continue
		}
		if filter.StationID != "" && s.StationID != filter.StationID {
			continue
		}
		if !filter.From.IsZero() && s.DepartureAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && s.DepartureAt.After(filter.To) {
			continue
		}
		clone := *s
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeScheduleRepo) SelectEligible(_ context.Context, providerID string, from, to time.Time) ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	for _, s := range r.byID {
		if s.Status != schedule.StatusCompleted || s.Settled() || s.ProviderID != providerID {
			continue
		}
		if s.DepartureAt.Before(from) || s.DepartureAt.After(to) {
			continue
		}
		clone := *s
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeScheduleRepo) ClaimForSettlement(_ context.Context, ids []string, settlementID string) (int64, error) {
	if r.claimShort > 0 && r.claimShort <= len(ids) {
		ids = ids[:len(ids)-r.claimShort]
		r.claimShort = 0
	}
	var claimed int64
	for _, id := range ids {
		s, ok := r.byID[id]
		if !ok || s.Settled() {
			continue
		}
		sid := settlementID
		s.SettlementID = &sid
		claimed++
	}
	return claimed, nil
}

type fakeSettlementRepo struct {
	byID      map[string]*settlement.Settlement
	schedules *fakeScheduleRepo
	seq       int
}

func newFakeSettlementRepo(schedules *fakeScheduleRepo) *fakeSettlementRepo {
	return &fakeSettlementRepo{byID: make(map[string]*settlement.Settlement), schedules: schedules}
}

func (r *fakeSettlementRepo) Create(_ context.Context, s *settlement.Settlement) error {
	r.seq++
	s.ID = fmt.Sprintf("stl-%d", r.seq)
	stored := *s
	r.byID[s.ID] = &stored
	return nil
}

func (r *fakeSettlementRepo) GetByID(_ context.Context, id string) (*settlement.Settlement, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (r *fakeSettlementRepo) TripIDs(_ context.Context, settlementID string) ([]string, error) {
	var out []string
	for _, s := range r.schedules.byID {
		if s.SettlementID != nil && *s.SettlementID == settlementID {
			out = append(out, s.ID)
		}
	}
	slices.Sort(out)
	return out, nil
}

func newTestService(t *testing.T) (ports.SettlementService, *fakeScheduleRepo, *fakeSettlementRepo) {
	t.Helper()
	schedules := newFakeScheduleRepo()
	settlements := newFakeSettlementRepo(schedules)
	svc := NewSettlementService(logger.New("settlement-service-test"), fakeUOW{}, schedules, settlements, nil)
	return svc, schedules, settlements
}

// ----- tests -----

func TestGenerateSettlement(t *testing.T) {
	svc, schedules, settlements := newTestService(t)
	ctx := context.Background()

	id1 := schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 2), 4500)
	id2 := schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 9), 3000)
	schedules.addCompleted("prov-2", "station-1", billingPeriodStart.AddDate(0, 0, 5), 9999)                  // other provider
	schedules.addCompleted("prov-1", "station-1", billingPeriodEnd.AddDate(0, 0, 3), 100)                     // outside period
	alreadyClaimed := schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 4), 500) // claimed below
	prior := "stl-prior"
	schedules.byID[alreadyClaimed].SettlementID = &prior

	res, err := svc.GenerateSettlement(ctx, ports.GenerateSettlementInput{
		ProviderID: "prov-1", PeriodStart: billingPeriodStart, PeriodEnd: billingPeriodEnd, RequestedBy: "op-1",
	})
	if err != nil {
		t.Fatalf("GenerateSettlement: %v", err)
	}

	if res.TripCount != 2 {
		t.Errorf("trip count = %d, want 2", res.TripCount)
	}
	if res.TotalCents != 7500 {
		t.Errorf("total = %d, want 7500", res.TotalCents)
	}
	if res.SettlementID == "" {
		t.Fatal("settlement id not assigned")
	}

	// both trips are locked to the new settlement
	for _, id := range []string{id1, id2} {
		s := schedules.byID[id]
		if s.SettlementID == nil || *s.SettlementID != res.SettlementID {
			t.Errorf("trip %s not claimed: settlement id = %v", id, s.SettlementID)
		}
	}

	stored, err := settlements.GetByID(ctx, res.SettlementID)
	if err != nil {
		t.Fatalf("stored settlement: %v", err)
	}
	if stored.TotalCents != 7500 || stored.TripCount != 2 {
		t.Errorf("stored total = %d trips = %d, want 7500 and 2", stored.TotalCents, stored.TripCount)
	}
	if stored.CreatedBy != "op-1" {
		t.Errorf("created by = %q, want op-1", stored.CreatedBy)
	}
}

func TestGenerateSettlementEmptyPeriod(t *testing.T) {
	svc, schedules, settlements := newTestService(t)

	schedules.addCompleted("prov-2", "station-1", billingPeriodStart.AddDate(0, 0, 2), 4500)

	res, err := svc.GenerateSettlement(context.Background(), ports.GenerateSettlementInput{
		ProviderID: "prov-1", PeriodStart: billingPeriodStart, PeriodEnd: billingPeriodEnd,
	})
	if err != nil {
		t.Fatalf("GenerateSettlement: %v", err)
	}
	if res.SettlementID != "" {
		t.Errorf("settlement id = %q, want empty on zero-result run", res.SettlementID)
	}
	if res.TripCount != 0 || res.TotalCents != 0 {
		t.Errorf("trips = %d total = %d, want zeros", res.TripCount, res.TotalCents)
	}
	if len(settlements.byID) != 0 {
		t.Errorf("zero-result run created %d settlement records", len(settlements.byID))
	}
}

func TestGenerateSettlementClaimConflict(t *testing.T) {
	svc, schedules, _ := newTestService(t)

	schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 2), 4500)
	schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 3), 3000)
	schedules.claimShort = 1 // one trip gets claimed out from under the run

	_, err := svc.GenerateSettlement(context.Background(), ports.GenerateSettlementInput{
		ProviderID: "prov-1", PeriodStart: billingPeriodStart, PeriodEnd: billingPeriodEnd,
	})
	if !errors.Is(err, settlement.ErrConcurrentClaimConflict) {
		t.Fatalf("got %v, want %v", err, settlement.ErrConcurrentClaimConflict)
	}
}

func TestListUnbilled(t *testing.T) {
	svc, schedules, _ := newTestService(t)
	ctx := context.Background()

	schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 2), 4500)
	schedules.addCompleted("prov-1", "station-2", billingPeriodStart.AddDate(0, 0, 3), 3000)
	claimed := schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 4), 100)
	sid := "stl-x"
	schedules.byID[claimed].SettlementID = &sid

	t.Run("claimed trips excluded", func(t *testing.T) {
		rows, err := svc.ListUnbilled(ctx, ports.UnbilledFilter{ProviderID: "prov-1"})
		if err != nil {
			t.Fatalf("ListUnbilled: %v", err)
		}
		if len(rows) != 2 {
			t.Errorf("rows = %d, want 2", len(rows))
		}
	})

	t.Run("station filter", func(t *testing.T) {
		rows, err := svc.ListUnbilled(ctx, ports.UnbilledFilter{StationID: "station-2"})
		if err != nil {
			t.Fatalf("ListUnbilled: %v", err)
		}
		if len(rows) != 1 || rows[0].CostCents != 3000 {
			t.Errorf("rows = %+v, want the station-2 trip", rows)
		}
	})
}

func TestUpdateScheduleCost(t *testing.T) {
	svc, schedules, _ := newTestService(t)
	ctx := context.Background()

	id := schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 2), 4500)

	res, err := svc.UpdateScheduleCost(ctx, ports.UpdateCostInput{ScheduleID: id, CostCents: 5200})
	if err != nil {
		t.Fatalf("UpdateScheduleCost: %v", err)
	}
	if res.CostCents != 5200 || schedules.byID[id].CostCents != 5200 {
		t.Errorf("cost not updated: result %d, stored %d", res.CostCents, schedules.byID[id].CostCents)
	}

	t.Run("negative cost", func(t *testing.T) {
		_, err := svc.UpdateScheduleCost(ctx, ports.UpdateCostInput{ScheduleID: id, CostCents: -1})
		if !errors.Is(err, schedule.ErrNegativeCost) {
			t.Errorf("got %v, want %v", err, schedule.ErrNegativeCost)
		}
	})

	t.Run("settled trip is frozen", func(t *testing.T) {
		sid := "stl-1"
		schedules.byID[id].SettlementID = &sid
		_, err := svc.UpdateScheduleCost(ctx, ports.UpdateCostInput{ScheduleID: id, CostCents: 6000})
		if !errors.Is(err, schedule.ErrAlreadySettled) {
			t.Errorf("got %v, want %v", err, schedule.ErrAlreadySettled)
		}
		if schedules.byID[id].CostCents != 5200 {
			t.Errorf("settled cost changed to %d", schedules.byID[id].CostCents)
		}
	})

	t.Run("unknown schedule", func(t *testing.T) {
		_, err := svc.UpdateScheduleCost(ctx, ports.UpdateCostInput{ScheduleID: "sch-none", CostCents: 100})
		if !errors.Is(err, pgx.ErrNoRows) {
			t.Errorf("got %v, want pgx.ErrNoRows", err)
		}
	})
}

func TestGetSettlement(t *testing.T) {
	svc, schedules, _ := newTestService(t)
	ctx := context.Background()

	id1 := schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 2), 4500)
	id2 := schedules.addCompleted("prov-1", "station-1", billingPeriodStart.AddDate(0, 0, 3), 3000)

	gen, err := svc.GenerateSettlement(ctx, ports.GenerateSettlementInput{
		ProviderID: "prov-1", PeriodStart: billingPeriodStart, PeriodEnd: billingPeriodEnd, RequestedBy: "op-1",
	})
	if err != nil {
		t.Fatalf("GenerateSettlement: %v", err)
	}

	view, err := svc.GetSettlement(ctx, gen.SettlementID)
	if err != nil {
		t.Fatalf("GetSettlement: %v", err)
	}
	if view.TotalCents != 7500 || view.TripCount != 2 {
		t.Errorf("total = %d trips = %d, want 7500 and 2", view.TotalCents, view.TripCount)
	}
	if view.Status != string(settlement.StatusGenerated) {
		t.Errorf("status = %s, want %s", view.Status, settlement.StatusGenerated)
	}
	want := []string{id1, id2}
	slices.Sort(want)
	if !slices.Equal(view.TripIDs, want) {
		t.Errorf("trip ids = %v, want %v", view.TripIDs, want)
	}

	t.Run("unknown settlement", func(t *testing.T) {
		if _, err := svc.GetSettlement(ctx, "stl-none"); !errors.Is(err, pgx.ErrNoRows) {
			t.Errorf("got %v, want pgx.ErrNoRows", err)
		}
	})
}
