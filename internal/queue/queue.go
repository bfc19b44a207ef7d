package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"song-suggest/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	// TaskTypeReindex asks an indexer worker to rebuild the index from the catalog.
	TaskTypeReindex TaskType = "reindex"
	// TaskTypeReload tells every suggest replica to reload a freshly saved index.
	TaskTypeReload TaskType = "reload"
)

// Broadcast reports whether a task type is delivered to every worker rather than one.
func (t TaskType) Broadcast() bool {
	return t == TaskTypeReload
}

// Task represents a unit of work shared across services.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// ReindexPayload is carried by TaskTypeReindex.
type ReindexPayload struct {
	Reason string `json:"reason"`
}

// ReloadPayload is carried by TaskTypeReload.
type ReloadPayload struct {
	Dir     string `json:"dir"`
	BuildID string `json:"build_id"`
	Size    int    `json:"size"`
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// NewTask marshals payload into a task of the given type.
func NewTask(taskType TaskType, payload any) (Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Task{}, err
	}
	return Task{ID: uuid.New(), Type: taskType, Payload: body}, nil
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	return retry.Do(ctx, attempts, base, nil, func(ctx context.Context) error {
		return q.Enqueue(ctx, task)
	})
}
