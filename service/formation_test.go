package service

import (
	"testing"

	"lexintake-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateTransition_UnknownEvent(t *testing.T) {
	stage, updates, ok := evaluateTransition(models.StageCollectParties, &AdvanceEvent{
		Type: "not_an_event",
	}, models.Metadata{})

	assert.False(t, ok)
	assert.Nil(t, updates)
	assert.Equal(t, models.StageCollectParties, stage)
}

func TestEvaluateTransition_CompletedIsTerminal(t *testing.T) {
	for _, event := range []string{EventUserInput, EventConflictCheckDone, EventFilingComplete} {
		_, _, ok := evaluateTransition(models.StageCompleted, &AdvanceEvent{Type: event}, models.Metadata{})
		assert.False(t, ok, "event %s", event)
	}
}

func TestEvaluateTransition_FilingCompleteRequiresChecklist(t *testing.T) {
	// letter_signed missing: the filing-prep checklist is unsatisfied
	meta := models.Metadata{"letterGenerated": true}
	_, _, ok := evaluateTransition(models.StageFilingPrep, &AdvanceEvent{Type: EventFilingComplete}, meta)
	assert.False(t, ok)

	meta["letterSigned"] = true
	next, updates, ok := evaluateTransition(models.StageFilingPrep, &AdvanceEvent{Type: EventFilingComplete}, meta)
	require.True(t, ok)
	assert.Equal(t, models.StageCompleted, next)
	assert.Equal(t, true, updates["filingComplete"])
}

func TestChecklistFor_DerivedFromMetadata(t *testing.T) {
	meta := models.Metadata{
		"clientInfo": map[string]interface{}{"name": "Jane Roe"},
	}

	items := checklistFor(models.StageCollectParties, meta)
	require.Len(t, items, 3)

	byID := make(map[string]models.ChecklistItem)
	for _, item := range items {
		byID[item.ID] = item
	}
	assert.Equal(t, models.ChecklistDone, byID["client_information"].Status)
	assert.Equal(t, models.ChecklistPending, byID["opposing_party"].Status)
	assert.Equal(t, models.ChecklistPending, byID["matter_type"].Status)
}

func TestMissingItems_SkipsOptional(t *testing.T) {
	meta := models.Metadata{
		"documentsRequested": true,
		"allDocsReceived":    true,
	}

	// review_documents is optional and still pending; nothing required is
	items := checklistFor(models.StageDocumentsNeeded, meta)
	assert.Empty(t, missingItems(items))
	assert.True(t, checklistComplete(items))
}

func TestHasValue(t *testing.T) {
	data := map[string]interface{}{
		"empty_string": "",
		"string":       "x",
		"false":        false,
		"true":         true,
		"empty_map":    map[string]interface{}{},
		"map":          map[string]interface{}{"k": "v"},
		"nil":          nil,
		"number":       3,
	}

	assert.False(t, hasValue(data, "empty_string"))
	assert.True(t, hasValue(data, "string"))
	assert.False(t, hasValue(data, "false"))
	assert.True(t, hasValue(data, "true"))
	assert.False(t, hasValue(data, "empty_map"))
	assert.True(t, hasValue(data, "map"))
	assert.False(t, hasValue(data, "nil"))
	assert.True(t, hasValue(data, "number"))
	assert.False(t, hasValue(data, "absent"))
	assert.False(t, hasValue(nil, "anything"))
}
