package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Writer persists entries into audit_logs. It runs inside the worker.
type Writer struct {
	pool *pgxpool.Pool
}

// NewWriter returns a Writer backed by the given pool.
func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// Record implements Recorder synchronously against Postgres.
func (w *Writer) Record(ctx context.Context, entry Entry) error {
	if w == nil || w.pool == nil {
		return errors.New("audit: writer not configured")
	}
	if entry.Action == "" || entry.Entity == "" {
		return errors.New("audit: entry requires action and entity")
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	_, err := w.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor, action, entity, entity_id, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.Actor, entry.Action, entry.Entity, entry.EntityID, entry.At)
	return err
}

// HandleRecordTask adapts the Writer to an asynq handler.
func (w *Writer) HandleRecordTask(ctx context.Context, t *asynq.Task) error {
	var entry Entry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		return asynq.SkipRetry
	}
	return w.Record(ctx, entry)
}
