package service

import (
	"lexintake-backend/models"
)

// Formation event types accepted by the advance operation
const (
	EventUserInput         = "user_input"
	EventConflictCheckDone = "conflict_check_complete"
	EventDocumentsReceived = "documents_received"
	EventPaymentComplete   = "payment_complete"
	EventLetterSigned      = "letter_signed"
	EventFilingComplete    = "filing_complete"
)

// AdvanceEvent is the body of one advance call
type AdvanceEvent struct {
	Type           string                 `json:"type" binding:"required"`
	Data           map[string]interface{} `json:"data"`
	IdempotencyKey string                 `json:"idempotencyKey" binding:"required"`
}

// AdvanceResult is the outcome of one advance call
type AdvanceResult struct {
	Stage      models.FormationStage  `json:"stage"`
	Checklist  []models.ChecklistItem `json:"checklist"`
	Metadata   models.Metadata        `json:"metadata"`
	Advanced   bool                   `json:"advanced"`
	Idempotent bool                   `json:"idempotent,omitempty"`
}

// StatusResult is the projection returned by the status operation
type StatusResult struct {
	Stage       models.FormationStage  `json:"stage"`
	Checklist   []models.ChecklistItem `json:"checklist"`
	NextActions []string               `json:"nextActions"`
	Missing     []string               `json:"missing"`
	Metadata    models.Metadata        `json:"metadata"`
}

// ChecklistResult is the projection returned by the checklist operation
type ChecklistResult struct {
	Stage     models.FormationStage  `json:"stage"`
	Checklist []models.ChecklistItem `json:"checklist"`
	Completed bool                   `json:"completed"`
}

// transition describes one edge of the fixed formation graph
type transition struct {
	event string
	next  models.FormationStage
	// guard inspects the event data and current metadata; a false return is
	// a legitimate no-op, not an error
	guard func(data map[string]interface{}, meta models.Metadata) bool
	// updates returns metadata entries to merge on a successful transition
	updates func(data map[string]interface{}) models.Metadata
}

// transitions is the fixed, compiled-in stage graph. Stages only ever move
// forward along these edges.
var transitions = map[models.FormationStage][]transition{
	models.StageCollectParties: {
		{
			event: EventUserInput,
			next:  models.StageConflictsCheck,
			guard: func(data map[string]interface{}, _ models.Metadata) bool {
				return hasValue(data, "clientInfo") && hasValue(data, "opposingParty")
			},
			updates: func(data map[string]interface{}) models.Metadata {
				return models.Metadata{
					"clientInfo":    data["clientInfo"],
					"opposingParty": data["opposingParty"],
				}
			},
		},
	},
	models.StageConflictsCheck: {
		{
			event: EventConflictCheckDone,
			next:  models.StageDocumentsNeeded,
			guard: func(data map[string]interface{}, _ models.Metadata) bool {
				return boolValue(data, "cleared")
			},
			updates: func(data map[string]interface{}) models.Metadata {
				return models.Metadata{"conflictsCleared": true}
			},
		},
	},
	models.StageDocumentsNeeded: {
		{
			event: EventDocumentsReceived,
			next:  models.StageFeeScope,
			guard: func(data map[string]interface{}, _ models.Metadata) bool {
				return boolValue(data, "allDocsReceived")
			},
			updates: func(data map[string]interface{}) models.Metadata {
				return models.Metadata{"allDocsReceived": true}
			},
		},
	},
	models.StageFeeScope: {
		{
			event: EventPaymentComplete,
			next:  models.StageFilingPrep,
			guard: func(data map[string]interface{}, _ models.Metadata) bool {
				return boolValue(data, "feeApproved")
			},
			updates: func(data map[string]interface{}) models.Metadata {
				return models.Metadata{"feeApproved": true}
			},
		},
	},
	models.StageFilingPrep: {
		{
			event: EventLetterSigned,
			next:  models.StageCompleted,
			guard: func(data map[string]interface{}, _ models.Metadata) bool {
				return boolValue(data, "letterSigned")
			},
			updates: func(data map[string]interface{}) models.Metadata {
				return models.Metadata{"letterSigned": true}
			},
		},
		{
			// filing_complete is accepted only once every filing-prep
			// checklist item is already satisfied
			event: EventFilingComplete,
			next:  models.StageCompleted,
			guard: func(_ map[string]interface{}, meta models.Metadata) bool {
				for _, item := range checklistFor(models.StageFilingPrep, meta) {
					if item.Required && item.Status != models.ChecklistDone {
						return false
					}
				}
				return true
			},
			updates: func(_ map[string]interface{}) models.Metadata {
				return models.Metadata{"filingComplete": true}
			},
		},
	},
}

// evaluateTransition finds the matching edge and checks its guard. ok is
// false both for unknown events and failed guards; either way the stage is
// left unchanged.
func evaluateTransition(stage models.FormationStage, event *AdvanceEvent, meta models.Metadata) (models.FormationStage, models.Metadata, bool) {
	for _, tr := range transitions[stage] {
		if tr.event != event.Type {
			continue
		}
		if !tr.guard(event.Data, meta) {
			return stage, nil, false
		}
		return tr.next, tr.updates(event.Data), true
	}
	return stage, nil, false
}

// checklistItemDef describes one derived checklist item for a stage
type checklistItemDef struct {
	id       string
	title    string
	required bool
	// doneKey names the metadata entry that marks this item done
	doneKey string
}

// stageChecklists defines the per-stage checklist items. Items are
// recomputed from stage and metadata on every read; nothing is persisted.
var stageChecklists = map[models.FormationStage][]checklistItemDef{
	models.StageCollectParties: {
		{id: "client_information", title: "Collect client information", required: true, doneKey: "clientInfo"},
		{id: "opposing_party", title: "Identify opposing party", required: true, doneKey: "opposingParty"},
		{id: "matter_type", title: "Classify matter type", required: true, doneKey: "matterType"},
	},
	models.StageConflictsCheck: {
		{id: "conflict_scan", title: "Run conflict-of-interest scan", required: true, doneKey: "conflictCheckedAt"},
		{id: "review_hits", title: "Review potential conflict hits", required: true, doneKey: "conflictCheckedAt"},
		{id: "clearance_confirmed", title: "Confirm conflict clearance", required: true, doneKey: "conflictsCleared"},
	},
	models.StageDocumentsNeeded: {
		{id: "request_documents", title: "Request required documents", required: true, doneKey: "documentsRequested"},
		{id: "receive_documents", title: "Receive all required documents", required: true, doneKey: "allDocsReceived"},
		{id: "review_documents", title: "Review received documents", required: false, doneKey: "documentsReviewed"},
	},
	models.StageFeeScope: {
		{id: "fee_proposal", title: "Propose fee arrangement and scope", required: true, doneKey: "feeProposed"},
		{id: "fee_approval", title: "Obtain client fee approval", required: true, doneKey: "feeApproved"},
	},
	models.StageFilingPrep: {
		{id: "letter_generated", title: "Generate engagement letter", required: true, doneKey: "letterGenerated"},
		{id: "letter_signed", title: "Obtain signed engagement letter", required: true, doneKey: "letterSigned"},
		{id: "filing_package", title: "Assemble filing package", required: false, doneKey: "filingPackagePrepared"},
	},
	models.StageCompleted: {
		{id: "formation_complete", title: "Matter formation complete", required: true, doneKey: "__always"},
	},
}

// stageNextActions names the caller-facing next step per stage
var stageNextActions = map[models.FormationStage][]string{
	models.StageCollectParties:  {"Provide client information and the opposing party"},
	models.StageConflictsCheck:  {"Review conflict hits and confirm clearance"},
	models.StageDocumentsNeeded: {"Upload the outstanding required documents"},
	models.StageFeeScope:        {"Approve the proposed fee arrangement"},
	models.StageFilingPrep:      {"Sign the engagement letter"},
	models.StageCompleted:       {"Formation is complete; staff will take over"},
}

// checklistFor derives the checklist for a stage from current metadata
func checklistFor(stage models.FormationStage, meta models.Metadata) []models.ChecklistItem {
	defs := stageChecklists[stage]
	items := make([]models.ChecklistItem, 0, len(defs))
	for _, def := range defs {
		status := models.ChecklistPending
		if def.doneKey == "__always" || hasValue(meta, def.doneKey) {
			status = models.ChecklistDone
		}
		items = append(items, models.ChecklistItem{
			ID:       def.id,
			Title:    def.title,
			Status:   status,
			Required: def.required,
		})
	}
	return items
}

// checklistComplete reports whether every required item is done
func checklistComplete(items []models.ChecklistItem) bool {
	for _, item := range items {
		if item.Required && item.Status != models.ChecklistDone {
			return false
		}
	}
	return true
}

// missingItems lists the IDs of required items still pending
func missingItems(items []models.ChecklistItem) []string {
	missing := make([]string, 0)
	for _, item := range items {
		if item.Required && item.Status != models.ChecklistDone {
			missing = append(missing, item.ID)
		}
	}
	return missing
}

// hasValue reports whether a key is present with a non-empty value
func hasValue(data map[string]interface{}, key string) bool {
	if data == nil {
		return false
	}
	value, ok := data[key]
	if !ok || value == nil {
		return false
	}
	switch v := value.(type) {
	case string:
		return v != ""
	case bool:
		return v
	case map[string]interface{}:
		return len(v) > 0
	}
	return true
}

// boolValue reports whether a key is present and true
func boolValue(data map[string]interface{}, key string) bool {
	if data == nil {
		return false
	}
	value, ok := data[key].(bool)
	return ok && value
}
