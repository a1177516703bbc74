package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
	"github.com/wsaico/gestor360-sub002/internal/general/logger"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Entry is one not-yet-confirmed finish operation waiting in the queue.
// Rowid order is drain order: first enqueued, first attempted.
type Entry struct {
	ID         int64
	ScheduleID string
	CheckIns   []contracts.CheckInRecord
	CapturedAt time.Time
	RetryCount int
	EnqueuedAt time.Time
}

// Finisher delivers one queued finish to the server. Implementations return
// a *PermanentError for rejections retrying cannot fix; any other error is
// treated as transient (offline, timeout) and the entry stays queued.
type Finisher interface {
	Finish(ctx context.Context, e Entry) error
}

// PermanentError marks a server rejection that no retry can fix, e.g. a
// check-in set the server refuses to accept. The entry moves to the
// sync_failures table instead of being retried forever.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("permanent sync failure: %s: %v", e.Reason, e.Err)
	}
	return "permanent sync failure: " + e.Reason
}

func (e *PermanentError) Unwrap() error { return e.Err }

const schema = `
	CREATE TABLE IF NOT EXISTS sync_queue (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		schedule_id TEXT    NOT NULL,
		check_ins   TEXT    NOT NULL,
		captured_at TEXT    NOT NULL,
		retry_count INTEGER NOT NULL DEFAULT 0,
		enqueued_at TEXT    NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_failures (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		schedule_id TEXT    NOT NULL,
		check_ins   TEXT    NOT NULL,
		captured_at TEXT    NOT NULL,
		retry_count INTEGER NOT NULL,
		reason      TEXT    NOT NULL,
		failed_at   TEXT    NOT NULL
	);
`

// Queue is the durable client-local sync queue. Entries survive process
// restarts; the backing file lives wherever the agent config points it.
type Queue struct {
	pool   *sqlitex.Pool
	logger *logger.Logger
}

// Open opens (creating if needed) the queue database at path.
func Open(path string, log *logger.Logger) (*Queue, error) {
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: 1,
		PrepareConn: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteTransient(conn, "PRAGMA journal_mode = WAL;", nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("syncqueue: open %s: %w", path, err)
	}

	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("syncqueue: take conn: %w", err)
	}
	defer pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		pool.Close()
		return nil, fmt.Errorf("syncqueue: create schema: %w", err)
	}

	return &Queue{pool: pool, logger: log}, nil
}

// Close closes the underlying pool. Blocks until borrowed connections return.
func (q *Queue) Close() error {
	return q.pool.Close()
}

// Enqueue durably stores a finish operation. The insert commits before the
// call returns: once Enqueue succeeds, the operation survives a crash.
func (q *Queue) Enqueue(ctx context.Context, scheduleID string, checkIns []contracts.CheckInRecord, capturedAt time.Time) (int64, error) {
	if scheduleID == "" {
		return 0, errors.New("syncqueue: schedule id is required")
	}

	body, err := json.Marshal(checkIns)
	if err != nil {
		return 0, fmt.Errorf("syncqueue: encode check-ins: %w", err)
	}
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	conn, err := q.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("syncqueue: take conn: %w", err)
	}
	defer q.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO sync_queue (schedule_id, check_ins, captured_at, retry_count, enqueued_at)
		VALUES (?, ?, ?, 0, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				scheduleID,
				string(body),
				capturedAt.UTC().Format(time.RFC3339Nano),
				time.Now().UTC().Format(time.RFC3339Nano),
			},
		})
	if err != nil {
		return 0, fmt.Errorf("syncqueue: insert: %w", err)
	}

	id := conn.LastInsertRowID()
	q.logger.Info(ctx, "sync_enqueued", "Finish operation queued for sync", map[string]any{
		"entry_id":    id,
		"schedule_id": scheduleID,
		"check_ins":   len(checkIns),
	})
	return id, nil
}

// Pending reports how many entries wait in the queue.
func (q *Queue) Pending(ctx context.Context) (int, error) {
	conn, err := q.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("syncqueue: take conn: %w", err)
	}
	defer q.pool.Put(conn)

	var n int
	err = sqlitex.Execute(conn, `SELECT COUNT(*) FROM sync_queue`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("syncqueue: count: %w", err)
	}
	return n, nil
}

// Drain attempts delivery of queued entries oldest-first and reports how
// many it confirmed. Outcomes per entry:
//
//   - success: the entry is deleted.
//   - *PermanentError: the entry moves to sync_failures and drain continues.
//   - any other error: transient. The retry count is bumped and the drain
//     stops so ordering is preserved for the next run.
//
// Drain honors ctx cancellation between entries; a cancelled drain resumes
// where it left off on the next call.
func (q *Queue) Drain(ctx context.Context, finisher Finisher) (int, error) {
	delivered := 0

	for {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		entry, ok, err := q.oldest(ctx)
		if err != nil {
			return delivered, err
		}
		if !ok {
			return delivered, nil
		}

		err = finisher.Finish(ctx, entry)
		if err == nil {
			if err := q.delete(ctx, entry.ID); err != nil {
				return delivered, err
			}
			delivered++
			q.logger.Info(ctx, "sync_delivered", "Queued finish confirmed by server", map[string]any{
				"entry_id":    entry.ID,
				"schedule_id": entry.ScheduleID,
				"attempts":    entry.RetryCount + 1,
			})
			continue
		}

		var perm *PermanentError
		if errors.As(err, &perm) {
			if err := q.moveToFailures(ctx, entry, perm.Reason); err != nil {
				return delivered, err
			}
			q.logger.Error(ctx, "sync_rejected", "Server rejected queued finish; moved to failures", err, map[string]any{
				"entry_id":    entry.ID,
				"schedule_id": entry.ScheduleID,
				"reason":      perm.Reason,
			})
			continue
		}

		// transient: keep the entry and stop the run
		if bumpErr := q.bumpRetry(ctx, entry.ID); bumpErr != nil {
			return delivered, bumpErr
		}
		q.logger.Debug(ctx, "sync_deferred", "Delivery failed transiently; will retry", map[string]any{
			"entry_id":    entry.ID,
			"schedule_id": entry.ScheduleID,
			"retry_count": entry.RetryCount + 1,
			"error":       err.Error(),
		})
		return delivered, nil
	}
}

// StartTimer drains on a fixed interval until ctx is cancelled.
func (q *Queue) StartTimer(ctx context.Context, interval time.Duration, finisher Finisher) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := q.Drain(ctx, finisher); err != nil && !errors.Is(err, context.Canceled) {
					q.logger.Error(ctx, "sync_drain_failed", "Periodic drain aborted", err, nil)
				}
			}
		}
	}()
}

// --- storage internals ---

func (q *Queue) oldest(ctx context.Context) (Entry, bool, error) {
	conn, err := q.pool.Take(ctx)
	if err != nil {
		return Entry{}, false, fmt.Errorf("syncqueue: take conn: %w", err)
	}
	defer q.pool.Put(conn)

	var entry Entry
	found := false
	err = sqlitex.Execute(conn, `
		SELECT id, schedule_id, check_ins, captured_at, retry_count, enqueued_at
		FROM sync_queue
		ORDER BY id
		LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				entry.ID = stmt.ColumnInt64(0)
				entry.ScheduleID = stmt.ColumnText(1)
				entry.RetryCount = stmt.ColumnInt(4)

				if err := json.Unmarshal([]byte(stmt.ColumnText(2)), &entry.CheckIns); err != nil {
					return fmt.Errorf("decode check-ins: %w", err)
				}
				captured, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(3))
				if err != nil {
					return fmt.Errorf("parse captured_at: %w", err)
				}
				entry.CapturedAt = captured
				enqueued, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(5))
				if err != nil {
					return fmt.Errorf("parse enqueued_at: %w", err)
				}
				entry.EnqueuedAt = enqueued
				return nil
			},
		})
	if err != nil {
		return Entry{}, false, fmt.Errorf("syncqueue: read oldest: %w", err)
	}
	return entry, found, nil
}

func (q *Queue) delete(ctx context.Context, id int64) error {
	conn, err := q.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("syncqueue: take conn: %w", err)
	}
	defer q.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM sync_queue WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("syncqueue: delete entry %d: %w", id, err)
	}
	return nil
}

func (q *Queue) bumpRetry(ctx context.Context, id int64) error {
	conn, err := q.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("syncqueue: take conn: %w", err)
	}
	defer q.pool.Put(conn)

	err = sqlitex.Execute(conn, `UPDATE sync_queue SET retry_count = retry_count + 1 WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("syncqueue: bump retry %d: %w", id, err)
	}
	return nil
}

func (q *Queue) moveToFailures(ctx context.Context, entry Entry, reason string) error {
	conn, err := q.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("syncqueue: take conn: %w", err)
	}
	defer q.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("syncqueue: begin tx: %w", err)
	}
	defer endTransaction(&err)

	body, err := json.Marshal(entry.CheckIns)
	if err != nil {
		return fmt.Errorf("syncqueue: encode check-ins: %w", err)
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO sync_failures (schedule_id, check_ins, captured_at, retry_count, reason, failed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				entry.ScheduleID,
				string(body),
				entry.CapturedAt.UTC().Format(time.RFC3339Nano),
				entry.RetryCount,
				reason,
				time.Now().UTC().Format(time.RFC3339Nano),
			},
		})
	if err != nil {
		return fmt.Errorf("syncqueue: record failure: %w", err)
	}

	err = sqlitex.Execute(conn, `DELETE FROM sync_queue WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{entry.ID},
	})
	if err != nil {
		return fmt.Errorf("syncqueue: delete failed entry: %w", err)
	}
	return nil
}

// Failure is one permanently rejected entry, kept for operator review.
type Failure struct {
	ID         int64
	ScheduleID string
	Reason     string
	RetryCount int
	FailedAt   time.Time
}

// Failures lists permanently rejected entries, newest first.
func (q *Queue) Failures(ctx context.Context) ([]Failure, error) {
	conn, err := q.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("syncqueue: take conn: %w", err)
	}
	defer q.pool.Put(conn)

	var out []Failure
	err = sqlitex.Execute(conn, `
		SELECT id, schedule_id, reason, retry_count, failed_at
		FROM sync_failures
		ORDER BY id DESC`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				f := Failure{
					ID:         stmt.ColumnInt64(0),
					ScheduleID: stmt.ColumnText(1),
					Reason:     stmt.ColumnText(2),
					RetryCount: stmt.ColumnInt(3),
				}
				failedAt, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(4))
				if err != nil {
					return fmt.Errorf("parse failed_at: %w", err)
				}
				f.FailedAt = failedAt
				out = append(out, f)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("syncqueue: list failures: %w", err)
	}
	return out, nil
}
