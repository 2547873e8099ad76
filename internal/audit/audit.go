// Package audit records administrative mutations. Entries are enqueued to
// the background worker so the admin request never blocks on, or fails
// because of, the trail.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue audit tasks are submitted to.
	QueueDefault = "default"
	// TaskTypeRecord is the asynq task type for persisting one entry.
	TaskTypeRecord = "audit:record"
)

// Entry describes one administrative mutation.
type Entry struct {
	Actor    string    `json:"actor"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	At       time.Time `json:"at"`
}

// Recorder accepts entries for eventual persistence.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NewRecordTask constructs the asynq task for an entry.
func NewRecordTask(entry Entry) (*asynq.Task, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRecord, data), nil
}

// Enqueuer is the Recorder used by the HTTP process.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// Record submits the entry to the queue.
func (e *Enqueuer) Record(ctx context.Context, entry Entry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	task, err := NewRecordTask(entry)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Discard is a no-op Recorder for tests and tooling.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(ctx context.Context, entry Entry) error { return nil }
