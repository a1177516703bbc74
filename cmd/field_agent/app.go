package fieldagent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/general/config"
	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/general/logger"
	"github.com/wsaico/gestor360-sub002/internal/syncqueue"
)

// Options controls a field-agent run.
type Options struct {
	// Token authenticates the agent against the transport service.
	Token string

	// RecordScheduleID enqueues a finish for this schedule and exits. The
	// check-in ledger is read from CheckInsPath when set; an empty path
	// records a finish with no check-ins.
	RecordScheduleID string

	// CheckInsPath points at a JSON file holding the check-in records.
	CheckInsPath string

	// DrainNow performs a single drain and exits instead of running the
	// periodic timer.
	DrainNow bool

	// ShowFailures prints the permanently rejected entries and exits.
	ShowFailures bool
}

// Run opens the local sync queue and either records a finish, drains it
// once, lists failures, or keeps draining on the configured interval until
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// set up a new logger and context with a static request ID for startup logs
	logger := logger.New("field-agent")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	// open the durable queue
	queue, err := syncqueue.Open(cfg.Sync.QueuePath, logger)
	if err != nil {
		logger.Error(ctx, "queue_open_failed", "Failed to open sync queue", err, map[string]any{
			"path": cfg.Sync.QueuePath,
		})
		return err
	}
	defer queue.Close()

	if opts.RecordScheduleID != "" {
		var checkIns []contracts.CheckInRecord
		if opts.CheckInsPath != "" {
			raw, err := os.ReadFile(opts.CheckInsPath)
			if err != nil {
				return fmt.Errorf("read check-ins file: %w", err)
			}
			if err := json.Unmarshal(raw, &checkIns); err != nil {
				return fmt.Errorf("parse check-ins file: %w", err)
			}
		}

		id, err := queue.Enqueue(ctx, opts.RecordScheduleID, checkIns, time.Now().UTC())
		if err != nil {
			logger.Error(ctx, "record_failed", "Failed to enqueue finish", err, map[string]any{
				"schedule_id": opts.RecordScheduleID,
			})
			return err
		}
		logger.Info(ctx, "finish_recorded", "Finish stored in the sync queue", map[string]any{
			"entry_id":    id,
			"schedule_id": opts.RecordScheduleID,
			"check_ins":   len(checkIns),
		})
		fmt.Printf("recorded entry %d for schedule %s (%d check-ins)\n", id, opts.RecordScheduleID, len(checkIns))
		return nil
	}

	if opts.ShowFailures {
		failures, err := queue.Failures(ctx)
		if err != nil {
			return err
		}
		if len(failures) == 0 {
			fmt.Println("no failed entries")
			return nil
		}
		for _, f := range failures {
			fmt.Printf("%d  schedule=%s  attempts=%d  failed_at=%s\n  reason: %s\n",
				f.ID, f.ScheduleID, f.RetryCount, f.FailedAt.Format(time.RFC3339), f.Reason)
		}
		return nil
	}

	finisher := syncqueue.NewHTTPFinisher(cfg.Sync.ServerBaseURL, opts.Token)

	pending, err := queue.Pending(ctx)
	if err != nil {
		return err
	}
	logger.Info(ctx, "agent_started", "Field agent started", map[string]any{
		"queue_path": cfg.Sync.QueuePath,
		"server":     cfg.Sync.ServerBaseURL,
		"pending":    pending,
	})

	if opts.DrainNow {
		delivered, err := queue.Drain(ctx, finisher)
		if err != nil {
			logger.Error(ctx, "drain_failed", "One-shot drain aborted", err, nil)
			return err
		}
		logger.Info(ctx, "drain_finished", "One-shot drain finished", map[string]any{
			"delivered": delivered,
		})
		return nil
	}

	// periodic drain until cancelled
	interval := time.Duration(cfg.Sync.DrainIntervalSeconds) * time.Second
	queue.StartTimer(ctx, interval, finisher)

	<-ctx.Done()
	logger.Info(ctx, "agent_stopped", "Field agent shutting down", nil)
	return nil
}
