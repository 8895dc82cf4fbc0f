package service

import (
	"context"
	"time"

	"github.com/eventshow/eventshow/pkg/queue"
)

// TaskPublisher is the slice of the queue the services need.
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

// Task mirrors the queue task shape without importing it everywhere.
type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	MaxRetries int                    `json:"max_retries"`
	Attempts   int                    `json:"attempts"`
}

// QueueAdapter adapts queue.Queue to the TaskPublisher interface.
type QueueAdapter struct {
	queue queue.Queue
}

func NewQueueAdapter(q queue.Queue) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

// Publish converts a service task into a queue task and hands it over.
func (a *QueueAdapter) Publish(ctx context.Context, task *Task) error {
	if a.queue == nil {
		return nil // queue not wired, drop silently
	}

	queueTask := &queue.Task{
		ID:         task.ID,
		Type:       queue.TaskType(task.Type),
		Data:       task.Data,
		ExecuteAt:  task.ExecuteAt,
		MaxRetries: task.MaxRetries,
		Attempts:   task.Attempts,
	}

	return a.queue.Publish(ctx, queueTask)
}
