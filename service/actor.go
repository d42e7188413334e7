package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lexintake-backend/models"

	"github.com/google/uuid"
)

// FormationStore persists matters and their formation state
type FormationStore interface {
	GetByTeamAndID(ctx context.Context, teamID, id uuid.UUID) (*models.Matter, error)
	SaveFormationState(ctx context.Context, matterID uuid.UUID, state models.FormationState) error
	// SaveFormationStateWithRequirements commits the state together with the
	// matter's document-requirement batch in one transaction
	SaveFormationStateWithRequirements(ctx context.Context, matterID uuid.UUID, state models.FormationState, templates []models.RequirementTemplate) error
}

// ConflictChecker runs conflict scans for the actor
type ConflictChecker interface {
	CheckConflicts(ctx context.Context, teamID, matterID uuid.UUID, parties []string) *models.ConflictCheckResult
}

// RiskAssessor produces risk assessments for the actor
type RiskAssessor interface {
	AssessRisk(ctx context.Context, matterID uuid.UUID, summary, matterType string) *models.RiskAssessment
}

// LetterProducer generates engagement letters for the actor
type LetterProducer interface {
	GenerateLetter(ctx context.Context, matterID uuid.UUID, templateID string, data map[string]string) (*models.EngagementLetter, error)
	LatestForMatter(ctx context.Context, matterID uuid.UUID) (*models.EngagementLetter, error)
}

// TaskEnqueuer accepts side-effect tasks for asynchronous processing
type TaskEnqueuer interface {
	Enqueue(task models.QueuedTask) error
}

var (
	ErrMatterNotFound = errors.New("matter not found")
	ErrMatterClosed   = errors.New("matter is archived or closed")
	ErrInvalidEvent   = errors.New("advance event requires a type and an idempotency key")
)

// ledgerRetention bounds idempotency-ledger growth: entries older than this
// are pruned when state is loaded.
const ledgerRetention = 24 * time.Hour

// matterKey addresses one matter's actor
type matterKey struct {
	teamID   uuid.UUID
	matterID uuid.UUID
}

// matterActor is the single logical owner of one matter's formation state.
// Its mutex serializes every advance/status/checklist operation for the
// matter, so transitions and ledger writes never race.
type matterActor struct {
	mu     sync.Mutex
	matter *models.Matter
	state  *models.FormationState
}

// FormationService routes formation operations to per-matter actors and
// orchestrates the domain services around each transition.
type FormationService struct {
	store     FormationStore
	conflicts ConflictChecker
	catalog   *DocumentRequirementCatalog
	risk      RiskAssessor
	letters   LetterProducer
	tasks     TaskEnqueuer
	firmName  string
	now       func() time.Time

	mu     sync.Mutex
	actors map[matterKey]*matterActor
}

// FormationServiceOption is a functional option for FormationService
type FormationServiceOption func(*FormationService)

// FormationWithStore sets the formation store
func FormationWithStore(store FormationStore) FormationServiceOption {
	return func(s *FormationService) { s.store = store }
}

// FormationWithConflictChecker sets the conflict checker
func FormationWithConflictChecker(checker ConflictChecker) FormationServiceOption {
	return func(s *FormationService) { s.conflicts = checker }
}

// FormationWithCatalog sets the document requirement catalog
func FormationWithCatalog(catalog *DocumentRequirementCatalog) FormationServiceOption {
	return func(s *FormationService) { s.catalog = catalog }
}

// FormationWithRiskAssessor sets the risk assessor
func FormationWithRiskAssessor(risk RiskAssessor) FormationServiceOption {
	return func(s *FormationService) { s.risk = risk }
}

// FormationWithLetterProducer sets the letter producer
func FormationWithLetterProducer(letters LetterProducer) FormationServiceOption {
	return func(s *FormationService) { s.letters = letters }
}

// FormationWithTaskEnqueuer sets the task queue
func FormationWithTaskEnqueuer(tasks TaskEnqueuer) FormationServiceOption {
	return func(s *FormationService) { s.tasks = tasks }
}

// FormationWithFirmName sets the firm name used in engagement letters
func FormationWithFirmName(name string) FormationServiceOption {
	return func(s *FormationService) { s.firmName = name }
}

// FormationWithClock overrides the clock (used by tests)
func FormationWithClock(now func() time.Time) FormationServiceOption {
	return func(s *FormationService) { s.now = now }
}

// NewFormationService creates a new formation service
func NewFormationService(opts ...FormationServiceOption) *FormationService {
	s := &FormationService{
		firmName: "the Firm",
		now:      time.Now,
		actors:   make(map[matterKey]*matterActor),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// actorFor returns the actor owning a matter, creating it on first use
func (s *FormationService) actorFor(teamID, matterID uuid.UUID) *matterActor {
	key := matterKey{teamID, matterID}
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.actors[key]
	if !ok {
		actor = &matterActor{}
		s.actors[key] = actor
	}
	return actor
}

// loadLocked populates the actor's cached matter and state. Must be called
// with the actor's mutex held.
func (s *FormationService) loadLocked(ctx context.Context, actor *matterActor, teamID, matterID uuid.UUID) error {
	if actor.state != nil {
		return nil
	}

	matter, err := s.store.GetByTeamAndID(ctx, teamID, matterID)
	if err != nil || matter == nil {
		return ErrMatterNotFound
	}
	if matter.Status != models.MatterStatusActive {
		return ErrMatterClosed
	}

	state := matter.FormationState
	if state.Stage == "" {
		state = models.NewFormationState()
	}
	if matter.MatterType != "" {
		if _, ok := state.Metadata["matterType"]; !ok {
			state.Metadata["matterType"] = matter.MatterType
		}
	}
	s.pruneLedger(&state)

	actor.matter = matter
	actor.state = &state
	return nil
}

// pruneLedger drops ledger entries past the retention window
func (s *FormationService) pruneLedger(state *models.FormationState) {
	cutoff := s.now().Add(-ledgerRetention)
	for key, outcome := range state.Ledger {
		if outcome.RecordedAt.Before(cutoff) {
			delete(state.Ledger, key)
		}
	}
}

// copyState clones the state so a failed commit never corrupts the cache
func copyState(state models.FormationState) models.FormationState {
	clone := models.FormationState{
		Stage:    state.Stage,
		Metadata: make(models.Metadata, len(state.Metadata)),
		Ledger:   make(map[string]models.AdvanceOutcome, len(state.Ledger)),
	}
	for k, v := range state.Metadata {
		clone.Metadata[k] = v
	}
	for k, v := range state.Ledger {
		clone.Ledger[k] = v
	}
	return clone
}

// Advance applies one event to a matter's formation state. Guard failures
// are no-ops, not errors. Replays of a known idempotency key return the
// recorded outcome without re-evaluating guards or re-emitting side effects.
func (s *FormationService) Advance(ctx context.Context, teamID, matterID uuid.UUID, event *AdvanceEvent) (*AdvanceResult, error) {
	if event == nil || event.Type == "" || event.IdempotencyKey == "" {
		return nil, ErrInvalidEvent
	}

	actor := s.actorFor(teamID, matterID)
	actor.mu.Lock()
	defer actor.mu.Unlock()

	if err := s.loadLocked(ctx, actor, teamID, matterID); err != nil {
		return nil, err
	}
	matter, state := actor.matter, actor.state

	if outcome, ok := state.Ledger[event.IdempotencyKey]; ok {
		checklist := outcome.Checklist
		if checklist == nil {
			// Ledger entries written before checklists were snapshotted
			checklist = checklistFor(outcome.Stage, state.Metadata)
		}
		return &AdvanceResult{
			Stage:      outcome.Stage,
			Checklist:  checklist,
			Metadata:   state.Metadata,
			Advanced:   outcome.Advanced,
			Idempotent: true,
		}, nil
	}

	next, updates, ok := evaluateTransition(state.Stage, event, state.Metadata)
	working := copyState(*state)

	if !ok {
		// Conditions not met: record the no-op under the key and return the
		// unchanged state.
		checklist := checklistFor(working.Stage, working.Metadata)
		working.Ledger[event.IdempotencyKey] = models.AdvanceOutcome{
			Stage:      state.Stage,
			Advanced:   false,
			Checklist:  checklist,
			RecordedAt: s.now(),
		}
		if err := s.store.SaveFormationState(ctx, matterID, working); err != nil {
			return nil, fmt.Errorf("failed to persist formation state: %w", err)
		}
		actor.state = &working
		return &AdvanceResult{
			Stage:     working.Stage,
			Checklist: checklist,
			Metadata:  working.Metadata,
			Advanced:  false,
		}, nil
	}

	for k, v := range updates {
		working.Metadata[k] = v
	}

	// Transition side effects run before the commit; any failure aborts the
	// whole advance so the stage is never half-applied.
	tasks, err := s.runSideEffects(ctx, matter, &working, state.Stage, next)
	if err != nil {
		return nil, err
	}

	previous := working.Stage
	working.Stage = next
	checklist := checklistFor(next, working.Metadata)
	working.Ledger[event.IdempotencyKey] = models.AdvanceOutcome{
		Stage:      next,
		Advanced:   true,
		Checklist:  checklist,
		RecordedAt: s.now(),
	}

	if next == models.StageDocumentsNeeded {
		// Entering the documents stage seeds the requirement rows; the batch
		// and the stage commit are one transaction.
		err = s.store.SaveFormationStateWithRequirements(ctx, matterID, working, s.catalog.TemplatesFor(matter.MatterType))
	} else {
		err = s.store.SaveFormationState(ctx, matterID, working)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	actor.state = &working

	tasks = append(tasks, s.auditTask(matter, event, previous, next))
	for _, task := range tasks {
		if enqueueErr := s.tasks.Enqueue(task); enqueueErr != nil {
			log.Printf("failed to enqueue %s task for matter %s: %v", task.Type, matter.ID, enqueueErr)
		}
	}

	return &AdvanceResult{
		Stage:     working.Stage,
		Checklist: checklist,
		Metadata:  working.Metadata,
		Advanced:  true,
	}, nil
}

// runSideEffects invokes the domain services required by a transition and
// returns the queue tasks to emit once the transition commits.
func (s *FormationService) runSideEffects(ctx context.Context, matter *models.Matter, working *models.FormationState, from, to models.FormationStage) ([]models.QueuedTask, error) {
	var tasks []models.QueuedTask

	switch {
	case from == models.StageCollectParties && to == models.StageConflictsCheck:
		parties := partiesFromMetadata(working.Metadata)
		result := s.conflicts.CheckConflicts(ctx, matter.TeamID, matter.ID, parties)
		working.Metadata["conflictCheckedAt"] = s.now().Format(time.RFC3339)
		working.Metadata["conflictHits"] = len(result.Hits)
		working.Metadata["conflictScanCleared"] = result.Cleared
		tasks = append(tasks, s.newTask(matter, models.TaskConflictCheck, models.ConflictCheckPayload{Result: *result}))

	case from == models.StageConflictsCheck && to == models.StageDocumentsNeeded:
		working.Metadata["documentsRequested"] = true

	case from == models.StageDocumentsNeeded && to == models.StageFeeScope:
		summary := riskSummary(matter, working.Metadata)
		assessment := s.risk.AssessRisk(ctx, matter.ID, summary, matter.MatterType)
		working.Metadata["riskLevel"] = string(assessment.OverallRiskLevel)
		working.Metadata["riskConfidence"] = assessment.ConfidenceScore
		working.Metadata["feeProposed"] = true
		tasks = append(tasks, s.newTask(matter, models.TaskRiskAssessment, models.RiskAssessmentPayload{Assessment: *assessment}))

	case from == models.StageFeeScope && to == models.StageFilingPrep:
		letter, err := s.letters.GenerateLetter(ctx, matter.ID, letterTemplateFor(matter.MatterType), s.letterData(matter, working.Metadata))
		if err != nil {
			return nil, fmt.Errorf("failed to generate engagement letter: %w", err)
		}
		working.Metadata["letterGenerated"] = true
		working.Metadata["letterId"] = letter.ID.String()
		working.Metadata["letterVersion"] = letter.Version

	case to == models.StageCompleted:
		if letter, err := s.letters.LatestForMatter(ctx, matter.ID); err == nil && letter != nil {
			tasks = append(tasks, s.newTask(matter, models.TaskEngagementLetter, models.EngagementLetterPayload{
				LetterID: letter.ID,
				Status:   models.LetterSigned,
			}))
		}
	}

	return tasks, nil
}

// newTask builds one queue task for a matter
func (s *FormationService) newTask(matter *models.Matter, taskType models.TaskType, payload models.TaskPayload) models.QueuedTask {
	return models.QueuedTask{
		ID:        uuid.New(),
		Type:      taskType,
		MatterID:  matter.ID,
		TeamID:    matter.TeamID,
		Payload:   payload,
		Timestamp: s.now(),
	}
}

// auditTask builds the audit entry emitted once per committed operation
func (s *FormationService) auditTask(matter *models.Matter, event *AdvanceEvent, from, to models.FormationStage) models.QueuedTask {
	return s.newTask(matter, models.TaskAuditLog, models.AuditLogPayload{
		Entry: models.AuditLogEntry{
			MatterID:   matter.ID,
			TeamID:     matter.TeamID,
			Actor:      "formation-engine",
			Action:     "formation_advance",
			EntityType: "matter",
			EntityID:   matter.ID.String(),
			OldValues:  models.AuditValues{"stage": string(from)},
			NewValues:  models.AuditValues{"stage": string(to)},
			Metadata:   models.AuditValues{"event": event.Type, "idempotencyKey": event.IdempotencyKey},
		},
	})
}

// Status returns the read-only status projection for a matter
func (s *FormationService) Status(ctx context.Context, teamID, matterID uuid.UUID) (*StatusResult, error) {
	actor := s.actorFor(teamID, matterID)
	actor.mu.Lock()
	defer actor.mu.Unlock()

	if err := s.loadLocked(ctx, actor, teamID, matterID); err != nil {
		return nil, err
	}
	state := actor.state

	checklist := checklistFor(state.Stage, state.Metadata)
	return &StatusResult{
		Stage:       state.Stage,
		Checklist:   checklist,
		NextActions: stageNextActions[state.Stage],
		Missing:     missingItems(checklist),
		Metadata:    state.Metadata,
	}, nil
}

// Checklist returns the read-only checklist projection for a matter
func (s *FormationService) Checklist(ctx context.Context, teamID, matterID uuid.UUID) (*ChecklistResult, error) {
	actor := s.actorFor(teamID, matterID)
	actor.mu.Lock()
	defer actor.mu.Unlock()

	if err := s.loadLocked(ctx, actor, teamID, matterID); err != nil {
		return nil, err
	}
	state := actor.state

	checklist := checklistFor(state.Stage, state.Metadata)
	return &ChecklistResult{
		Stage:     state.Stage,
		Checklist: checklist,
		Completed: state.Stage == models.StageCompleted && checklistComplete(checklist),
	}, nil
}

// partiesFromMetadata extracts the proposed parties for a conflict scan
func partiesFromMetadata(meta models.Metadata) []string {
	var parties []string
	if opposing, ok := meta["opposingParty"].(string); ok && opposing != "" {
		parties = append(parties, opposing)
	}
	return parties
}

// clientNameFromMetadata extracts the client name from collected client info
func clientNameFromMetadata(meta models.Metadata) string {
	switch info := meta["clientInfo"].(type) {
	case string:
		return info
	case map[string]interface{}:
		if name, ok := info["name"].(string); ok {
			return name
		}
	}
	return ""
}

// riskSummary builds the matter summary given to the risk engine
func riskSummary(matter *models.Matter, meta models.Metadata) string {
	if summary, ok := meta["summary"].(string); ok && summary != "" {
		return summary
	}
	opposing, _ := meta["opposingParty"].(string)
	return fmt.Sprintf("%s matter for %s against %s", matter.MatterType, clientNameFromMetadata(meta), opposing)
}

// letterTemplateFor picks the letter template for a matter type
func letterTemplateFor(matterType string) string {
	switch normalizeMatterType(matterType) {
	case "family_law":
		return "family_law"
	case "employment":
		return "employment"
	}
	return "default"
}

// letterData assembles the placeholder values for letter generation
func (s *FormationService) letterData(matter *models.Matter, meta models.Metadata) map[string]string {
	fee, _ := meta["feeArrangement"].(string)
	if fee == "" {
		fee = "Hourly rates as set out in the attached fee schedule"
	}
	scope, _ := meta["scope"].(string)
	if scope == "" {
		scope = fmt.Sprintf("Representation in the client's %s matter", matter.MatterType)
	}
	return map[string]string{
		"client_name":     clientNameFromMetadata(meta),
		"firm_name":       s.firmName,
		"matter_type":     matter.MatterType,
		"fee_arrangement": fee,
		"scope":           scope,
	}
}
