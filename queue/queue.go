// Package queue carries durable side-effect work out of the synchronous
// request path. Tasks are validated at the boundary, sharded by matter so
// one matter's tasks are processed in emission order, and retried a bounded
// number of times before dead-lettering.
package queue

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"lexintake-backend/models"
)

var (
	ErrQueueClosed    = errors.New("task queue is closed")
	ErrQueueFull      = errors.New("task queue is full")
	ErrInvalidPayload = errors.New("task payload does not match task type")
)

// validTypes enumerates the task types the queue accepts
var validTypes = map[models.TaskType]bool{
	models.TaskAuditLog:         true,
	models.TaskRiskAssessment:   true,
	models.TaskDocumentRequest:  true,
	models.TaskConflictCheck:    true,
	models.TaskEngagementLetter: true,
}

// TaskQueue is an in-process sharded task queue. Tasks for the same matter
// always land on the same shard, preserving their emission order; shards are
// independent, so different matters' tasks process concurrently.
type TaskQueue struct {
	shards []chan models.QueuedTask

	// mu guards closed. Enqueue holds the read side across its shard send,
	// so Close (write side) can never close a channel mid-send.
	mu     sync.RWMutex
	closed bool
}

// NewTaskQueue creates a queue with the given shard count and per-shard
// buffer size
func NewTaskQueue(shardCount, bufferSize int) *TaskQueue {
	if shardCount <= 0 {
		shardCount = 4
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}

	shards := make([]chan models.QueuedTask, shardCount)
	for i := range shards {
		shards[i] = make(chan models.QueuedTask, bufferSize)
	}

	return &TaskQueue{shards: shards}
}

// Validate checks a task's shape: known type and a payload matching it
func Validate(task models.QueuedTask) error {
	if !validTypes[task.Type] {
		return fmt.Errorf("%w: unknown task type %q", ErrInvalidPayload, task.Type)
	}
	if task.Payload == nil {
		return fmt.Errorf("%w: nil payload for %s", ErrInvalidPayload, task.Type)
	}
	if task.Payload.TaskType() != task.Type {
		return fmt.Errorf("%w: %s payload on %s task", ErrInvalidPayload, task.Payload.TaskType(), task.Type)
	}
	return nil
}

// Enqueue validates and queues one task. A full shard is reported as an
// error rather than blocking the caller's request path.
func (q *TaskQueue) Enqueue(task models.QueuedTask) error {
	if err := Validate(task); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.shards[q.shardFor(task)] <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// shardFor maps a task to its shard by matter ID, so per-matter order holds
func (q *TaskQueue) shardFor(task models.QueuedTask) int {
	h := fnv.New32a()
	h.Write(task.MatterID[:])
	return int(h.Sum32() % uint32(len(q.shards)))
}

// Shards exposes the shard channels to the consumer
func (q *TaskQueue) Shards() []chan models.QueuedTask {
	return q.shards
}

// Close stops accepting new tasks and closes the shards so consumers drain
// and exit
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, shard := range q.shards {
		close(shard)
	}
}
