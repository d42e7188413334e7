package service

import (
	"context"
	"errors"
	"testing"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRiskModel returns a canned response or a canned error
type fakeRiskModel struct {
	response string
	err      error
	calls    int
}

func (f *fakeRiskModel) GenerateRiskProfile(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const healthyModelResponse = `{"risk_level": "high", "risk_factors": [{"type": "OPPOSING_COUNSEL", "severity": "high", "impact": "Opposing party retains aggressive counsel"}], "recommendations": ["Prepare for early motion practice"], "confidence": 0.85}`

func TestAssessRisk_ModelFailureFlagsSystemError(t *testing.T) {
	engine := NewRiskAssessmentEngine(
		RiskWithModelClient(&fakeRiskModel{err: errors.New("quota exceeded")}),
	)

	assessment := engine.AssessRisk(context.Background(), uuid.New(), "routine contract review", "business")

	require.NotNil(t, assessment)
	assert.Contains(t, assessment.Flags, SystemErrorFlag)
	assert.Equal(t, 0.3, assessment.ConfidenceScore)
	// The rule pass still contributes; the degraded model pass holds medium
	assert.Equal(t, models.RiskMedium, assessment.OverallRiskLevel)
}

func TestAssessRisk_UnparseableModelResponse(t *testing.T) {
	engine := NewRiskAssessmentEngine(
		RiskWithModelClient(&fakeRiskModel{response: "I cannot assess this matter."}),
	)

	assessment := engine.AssessRisk(context.Background(), uuid.New(), "simple will drafting", "general")

	assert.Contains(t, assessment.Flags, SystemErrorFlag)
	assert.Equal(t, 0.3, assessment.ConfidenceScore)
}

func TestAssessRisk_NoModelConfigured(t *testing.T) {
	engine := NewRiskAssessmentEngine()

	assessment := engine.AssessRisk(context.Background(), uuid.New(), "simple will drafting", "general")

	assert.Contains(t, assessment.Flags, SystemErrorFlag)
	assert.Equal(t, 0.3, assessment.ConfidenceScore)
}

func TestAssessRisk_HealthyModelConfidenceFloor(t *testing.T) {
	model := &fakeRiskModel{response: `{"risk_level": "low", "risk_factors": [], "recommendations": [], "confidence": 0.4}`}
	engine := NewRiskAssessmentEngine(RiskWithModelClient(model))

	assessment := engine.AssessRisk(context.Background(), uuid.New(), "simple will drafting", "general")

	assert.NotContains(t, assessment.Flags, SystemErrorFlag)
	// When the model answered, the rule pass floors the confidence at 0.6
	assert.Equal(t, 0.6, assessment.ConfidenceScore)
	assert.Equal(t, 1, model.calls)
}

func TestAssessRisk_ModelRaisesOverallLevel(t *testing.T) {
	engine := NewRiskAssessmentEngine(RiskWithModelClient(&fakeRiskModel{response: healthyModelResponse}))

	assessment := engine.AssessRisk(context.Background(), uuid.New(), "simple will drafting", "general")

	assert.Equal(t, models.RiskHigh, assessment.OverallRiskLevel)
	assert.Equal(t, 0.85, assessment.ConfidenceScore)
	assert.Contains(t, assessment.Recommendations, "Prepare for early motion practice")
}

func TestAssessRisk_KeywordTiers(t *testing.T) {
	engine := NewRiskAssessmentEngine(RiskWithModelClient(&fakeRiskModel{
		response: `{"risk_level": "low", "risk_factors": [], "recommendations": [], "confidence": 0.9}`,
	}))

	tests := []struct {
		summary string
		want    models.RiskLevel
	}{
		{"alleged fraud by the former CFO", models.RiskCritical},
		{"statute of limitations expires next month", models.RiskHigh},
		{"ongoing litigation over a lease", models.RiskMedium},
	}

	for _, tt := range tests {
		assessment := engine.AssessRisk(context.Background(), uuid.New(), tt.summary, "general")
		assert.Equal(t, tt.want, assessment.OverallRiskLevel, "summary %q", tt.summary)
	}
}

func TestAssessRisk_HighValueFlag(t *testing.T) {
	engine := NewRiskAssessmentEngine(RiskWithModelClient(&fakeRiskModel{
		response: `{"risk_level": "low", "risk_factors": [], "recommendations": [], "confidence": 0.9}`,
	}))

	assessment := engine.AssessRisk(context.Background(), uuid.New(), "breach claim worth $2 million", "business")

	assert.Contains(t, assessment.Flags, HighValueFlag)
	assert.Equal(t, models.RiskHigh, assessment.OverallRiskLevel)
}

func TestAssessRisk_MatterTypeBaselineFactor(t *testing.T) {
	engine := NewRiskAssessmentEngine(RiskWithModelClient(&fakeRiskModel{
		response: `{"risk_level": "low", "risk_factors": [], "recommendations": [], "confidence": 0.9}`,
	}))

	assessment := engine.AssessRisk(context.Background(), uuid.New(), "uncontested paperwork", "family law")

	var types []string
	for _, factor := range assessment.RiskFactors {
		types = append(types, factor.Type)
	}
	assert.Contains(t, types, "EMOTIONAL_COMPLEXITY")
}

func TestParseRiskProfile_ToleratesCodeFences(t *testing.T) {
	raw := "```json\n" + healthyModelResponse + "\n```"

	profile, err := parseRiskProfile(raw)
	require.NoError(t, err)
	assert.Equal(t, "high", profile.RiskLevel)
	assert.Equal(t, 0.85, profile.Confidence)
}

func TestParseRiskProfile_ToleratesSurroundingProse(t *testing.T) {
	raw := "Here is my assessment:\n" + healthyModelResponse + "\nLet me know if you need more."

	profile, err := parseRiskProfile(raw)
	require.NoError(t, err)
	assert.Equal(t, "high", profile.RiskLevel)
}

func TestParseRiskProfile_NoJSON(t *testing.T) {
	_, err := parseRiskProfile("no structured data here")
	assert.Error(t, err)
}

func TestCombineFactors_DedupesByTypeKeepingHigherSeverity(t *testing.T) {
	rule := models.RiskFactors{
		{Type: "DEADLINE_PRESSURE", Severity: models.RiskMedium},
	}
	model := models.RiskFactors{
		{Type: "DEADLINE_PRESSURE", Severity: models.RiskHigh},
		{Type: "NOVEL_CLAIM", Severity: models.RiskLow},
	}

	combined := combineFactors(rule, model)
	require.Len(t, combined, 2)
	assert.Equal(t, models.RiskHigh, combined[0].Severity)
}

func TestEstimateComplexity(t *testing.T) {
	assert.Equal(t, "routine", estimateComplexity(models.RiskFactors{
		{Type: "A", Severity: models.RiskLow},
	}))
	assert.Equal(t, "moderate", estimateComplexity(models.RiskFactors{
		{Type: "A", Severity: models.RiskHigh},
	}))
	assert.Equal(t, "complex", estimateComplexity(models.RiskFactors{
		{Type: "A", Severity: models.RiskHigh},
		{Type: "B", Severity: models.RiskCritical},
		{Type: "C", Severity: models.RiskHigh},
	}))
}
