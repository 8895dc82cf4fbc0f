package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// DLQHandler handles failed tasks by moving them to Dead Letter Queue
type DLQHandler interface {
	HandleFailedTask(task *Task, err error)
	GetFailedTasks(ctx context.Context, limit int) ([]*FailedTask, error)
	RequeueFailedTask(ctx context.Context, taskID string) error
	DeleteFailedTask(ctx context.Context, taskID string) error
}

// DefaultDLQHandler is the default implementation of DLQHandler
type DefaultDLQHandler struct {
	client    *redis.Client
	dlq       string
	mainQueue string
}

// FailedTask represents a task that failed execution
type FailedTask struct {
	Task     *Task     `json:"task"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
	Attempts int       `json:"attempts"`
}

// NewDefaultDLQHandler creates a new DefaultDLQHandler
func NewDefaultDLQHandler(client *redis.Client, dlq, mainQueue string) *DefaultDLQHandler {
	return &DefaultDLQHandler{
		client:    client,
		dlq:       dlq,
		mainQueue: mainQueue,
	}
}

// HandleFailedTask stores a failed task in the DLQ
func (d *DefaultDLQHandler) HandleFailedTask(task *Task, err error) {
	failedTask := &FailedTask{
		Task:     task,
		Error:    err.Error(),
		FailedAt: time.Now(),
		Attempts: task.Attempts,
	}

	taskData, marshalErr := json.Marshal(failedTask)
	if marshalErr != nil {
		log.Printf("Failed to marshal failed task: %v", marshalErr)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Score by failure time so the DLQ stays sorted
	score := float64(failedTask.FailedAt.UnixNano()) / 1e9
	_, redisErr := d.client.ZAdd(ctx, d.dlq, &redis.Z{
		Score:  score,
		Member: taskData,
	}).Result()

	if redisErr != nil {
		log.Printf("Failed to send task to DLQ: %v", redisErr)
		return
	}

	log.Printf("Task %s moved to DLQ: %v", task.ID, err)
}

// GetFailedTasks retrieves failed tasks from DLQ, newest first
func (d *DefaultDLQHandler) GetFailedTasks(ctx context.Context, limit int) ([]*FailedTask, error) {
	if limit <= 0 {
		limit = 50
	}

	tasks, err := d.client.ZRevRangeByScore(ctx, d.dlq, &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get failed tasks: %v", err)
	}

	if len(tasks) > limit {
		tasks = tasks[:limit]
	}

	var failedTasks []*FailedTask
	for _, taskData := range tasks {
		var failedTask FailedTask
		if err := json.Unmarshal([]byte(taskData), &failedTask); err != nil {
			log.Printf("Failed to unmarshal failed task: %v", err)
			continue
		}
		failedTasks = append(failedTasks, &failedTask)
	}

	return failedTasks, nil
}

// RequeueFailedTask moves a failed task back to the main queue for retry
func (d *DefaultDLQHandler) RequeueFailedTask(ctx context.Context, taskID string) error {
	tasks, err := d.client.ZRangeByScore(ctx, d.dlq, &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get DLQ tasks: %v", err)
	}

	for _, raw := range tasks {
		var failedTask FailedTask
		if err := json.Unmarshal([]byte(raw), &failedTask); err != nil {
			continue
		}

		if failedTask.Task.ID == taskID {
			// Reset attempt count for retry
			failedTask.Task.Attempts = 0
			failedTask.Task.ExecuteAt = time.Now()

			taskData, err := json.Marshal(failedTask.Task)
			if err != nil {
				return fmt.Errorf("failed to marshal task for requeue: %v", err)
			}

			pipe := d.client.Pipeline()
			pipe.LPush(ctx, d.mainQueue, taskData)
			pipe.ZRem(ctx, d.dlq, raw)

			_, err = pipe.Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to requeue task: %v", err)
			}

			log.Printf("Task %s requeued from DLQ", taskID)
			return nil
		}
	}

	return fmt.Errorf("task %s not found in DLQ", taskID)
}

// DeleteFailedTask permanently removes a failed task from DLQ
func (d *DefaultDLQHandler) DeleteFailedTask(ctx context.Context, taskID string) error {
	tasks, err := d.client.ZRangeByScore(ctx, d.dlq, &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get DLQ tasks: %v", err)
	}

	for _, raw := range tasks {
		var failedTask FailedTask
		if err := json.Unmarshal([]byte(raw), &failedTask); err != nil {
			continue
		}

		if failedTask.Task.ID == taskID {
			if err := d.client.ZRem(ctx, d.dlq, raw).Err(); err != nil {
				return fmt.Errorf("failed to delete task from DLQ: %v", err)
			}

			log.Printf("Task %s deleted from DLQ", taskID)
			return nil
		}
	}

	return fmt.Errorf("task %s not found in DLQ", taskID)
}
