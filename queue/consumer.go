package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"lexintake-backend/models"

	"github.com/google/uuid"
)

// OutcomeStatus classifies the result of one handler invocation
type OutcomeStatus int

const (
	StatusProcessed OutcomeStatus = iota
	StatusRetry
	StatusDeadLetter
)

// Outcome is the explicit result a handler returns; the consumer loop, not
// the handler, decides what retrying means.
type Outcome struct {
	Status OutcomeStatus
	Reason string
}

// Processed reports successful handling
func Processed() Outcome { return Outcome{Status: StatusProcessed} }

// Retry asks the consumer to retry the message
func Retry(reason string) Outcome { return Outcome{Status: StatusRetry, Reason: reason} }

// DeadLetter marks the message permanently unprocessable
func DeadLetter(reason string) Outcome { return Outcome{Status: StatusDeadLetter, Reason: reason} }

// Handler processes one task of a given type
type Handler func(ctx context.Context, task models.QueuedTask) Outcome

// DeadLetteredTask records a task whose retries were exhausted
type DeadLetteredTask struct {
	Task   models.QueuedTask
	Reason string
	At     time.Time
}

// Writer interfaces for the side-effect handlers. Each handler performs one
// idempotent-safe write.

// AuditWriter appends audit entries
type AuditWriter interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
}

// RiskWriter records risk assessments
type RiskWriter interface {
	Create(ctx context.Context, assessment *models.RiskAssessment) error
}

// ConflictRecorder records conflict check results. Persistence failures are
// the recorder's own concern: the check is observability, not
// correctness-critical, so the handler treats every recording as processed.
type ConflictRecorder interface {
	RecordConflictCheck(ctx context.Context, result *models.ConflictCheckResult)
}

// RequirementUpdater updates document requirement status by key
type RequirementUpdater interface {
	UpdateStatus(ctx context.Context, matterID uuid.UUID, documentType string, status models.DocumentStatus) error
}

// LetterUpdater updates engagement letter status by ID
type LetterUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LetterStatus) error
}

// Consumer drains task shards, dispatching each task to the handler for its
// type. One failing message never aborts the rest; it is retried in place
// with backoff up to maxAttempts and then dead-lettered.
type Consumer struct {
	handlers    map[models.TaskType]Handler
	maxAttempts int
	backoff     time.Duration

	mu          sync.Mutex
	deadLetters []DeadLetteredTask
	wg          sync.WaitGroup
}

// ConsumerOption is a functional option for Consumer
type ConsumerOption func(*Consumer)

// ConsumerWithMaxAttempts bounds retries per message
func ConsumerWithMaxAttempts(n int) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// ConsumerWithBackoff sets the initial retry backoff
func ConsumerWithBackoff(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// ConsumerWithHandler registers or overrides the handler for a task type
func ConsumerWithHandler(taskType models.TaskType, handler Handler) ConsumerOption {
	return func(c *Consumer) {
		c.handlers[taskType] = handler
	}
}

// NewConsumer creates a consumer with handlers over the given writers
func NewConsumer(audit AuditWriter, risk RiskWriter, conflicts ConflictRecorder, requirements RequirementUpdater, letters LetterUpdater, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		handlers:    make(map[models.TaskType]Handler),
		maxAttempts: 3,
		backoff:     time.Second,
	}

	c.handlers[models.TaskAuditLog] = func(ctx context.Context, task models.QueuedTask) Outcome {
		payload, ok := task.Payload.(models.AuditLogPayload)
		if !ok {
			return DeadLetter("audit_log task carried wrong payload")
		}
		entry := payload.Entry
		if err := audit.Create(ctx, &entry); err != nil {
			return Retry(err.Error())
		}
		return Processed()
	}

	c.handlers[models.TaskRiskAssessment] = func(ctx context.Context, task models.QueuedTask) Outcome {
		payload, ok := task.Payload.(models.RiskAssessmentPayload)
		if !ok {
			return DeadLetter("risk_assessment task carried wrong payload")
		}
		assessment := payload.Assessment
		if err := risk.Create(ctx, &assessment); err != nil {
			return Retry(err.Error())
		}
		return Processed()
	}

	c.handlers[models.TaskConflictCheck] = func(ctx context.Context, task models.QueuedTask) Outcome {
		payload, ok := task.Payload.(models.ConflictCheckPayload)
		if !ok {
			return DeadLetter("conflict_check task carried wrong payload")
		}
		result := payload.Result
		conflicts.RecordConflictCheck(ctx, &result)
		return Processed()
	}

	c.handlers[models.TaskDocumentRequest] = func(ctx context.Context, task models.QueuedTask) Outcome {
		payload, ok := task.Payload.(models.DocumentRequestPayload)
		if !ok {
			return DeadLetter("document_request task carried wrong payload")
		}
		if err := requirements.UpdateStatus(ctx, payload.MatterID, payload.DocumentType, payload.Status); err != nil {
			return Retry(err.Error())
		}
		return Processed()
	}

	c.handlers[models.TaskEngagementLetter] = func(ctx context.Context, task models.QueuedTask) Outcome {
		payload, ok := task.Payload.(models.EngagementLetterPayload)
		if !ok {
			return DeadLetter("engagement_letter task carried wrong payload")
		}
		if err := letters.UpdateStatus(ctx, payload.LetterID, payload.Status); err != nil {
			return Retry(err.Error())
		}
		return Processed()
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches one worker per queue shard. Workers exit when the queue is
// closed and their shard drains, or when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, q *TaskQueue) {
	for _, shard := range q.Shards() {
		c.wg.Add(1)
		go func(shard chan models.QueuedTask) {
			defer c.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-shard:
					if !ok {
						return
					}
					c.consume(ctx, task)
				}
			}
		}(shard)
	}
}

// Wait blocks until all workers have exited
func (c *Consumer) Wait() {
	c.wg.Wait()
}

// ProcessBatch handles a batch of tasks synchronously, in order. Used at the
// internal boundary where callers hand over a batch rather than a stream.
func (c *Consumer) ProcessBatch(ctx context.Context, tasks []models.QueuedTask) {
	for _, task := range tasks {
		c.consume(ctx, task)
	}
}

// consume runs one task through its handler with in-place bounded retry.
// Retrying in place keeps the shard's per-matter ordering intact.
func (c *Consumer) consume(ctx context.Context, task models.QueuedTask) {
	backoff := c.backoff

	if task.Attempts >= c.maxAttempts {
		c.deadLetter(task, "attempts exhausted")
		return
	}

	for attempt := task.Attempts; attempt < c.maxAttempts; attempt++ {
		outcome := c.dispatch(ctx, task)

		switch outcome.Status {
		case StatusProcessed:
			return
		case StatusDeadLetter:
			c.deadLetter(task, outcome.Reason)
			return
		}

		log.Printf("task %s (%s) attempt %d failed: %s", task.ID, task.Type, attempt+1, outcome.Reason)

		if attempt+1 >= c.maxAttempts {
			c.deadLetter(task, outcome.Reason)
			return
		}

		select {
		case <-ctx.Done():
			c.deadLetter(task, "consumer shut down before retries completed")
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// dispatch validates the task and invokes its handler, converting panics
// and unknown types into explicit outcomes
func (c *Consumer) dispatch(ctx context.Context, task models.QueuedTask) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Retry("handler panicked")
		}
	}()

	if err := Validate(task); err != nil {
		// Malformed messages are retried within the same bound; they reach
		// the dead-letter path rather than cycling forever.
		log.Printf("warning: task %s failed validation: %v", task.ID, err)
		return Retry(err.Error())
	}

	handler, ok := c.handlers[task.Type]
	if !ok {
		log.Printf("warning: no handler for task type %q", task.Type)
		return Retry("no handler registered")
	}

	return handler(ctx, task)
}

// deadLetter records an exhausted task for operator inspection
func (c *Consumer) deadLetter(task models.QueuedTask, reason string) {
	log.Printf("dead-lettering task %s (%s): %s", task.ID, task.Type, reason)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadLetters = append(c.deadLetters, DeadLetteredTask{
		Task:   task,
		Reason: reason,
		At:     time.Now(),
	})
}

// DeadLetters returns a copy of the dead-letter list
func (c *Consumer) DeadLetters() []DeadLetteredTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DeadLetteredTask, len(c.deadLetters))
	copy(out, c.deadLetters)
	return out
}
