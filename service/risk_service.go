package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"lexintake-backend/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
)

// RiskModelClient produces a raw model response for a risk prompt
type RiskModelClient interface {
	GenerateRiskProfile(ctx context.Context, prompt string) (string, error)
}

// GeminiRiskModel calls the Gemini API for the model-based risk pass
type GeminiRiskModel struct {
	client    *genai.Client
	modelName string
}

// NewGeminiRiskModel creates a Gemini-backed risk model client
func NewGeminiRiskModel(client *genai.Client, modelName string) *GeminiRiskModel {
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	return &GeminiRiskModel{client: client, modelName: modelName}
}

// GenerateRiskProfile sends the prompt and returns the concatenated text parts
func (g *GeminiRiskModel) GenerateRiskProfile(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("model returned no text content")
	}

	return sb.String(), nil
}

// RiskAssessmentEngine produces a risk profile for a matter summary by
// combining a deterministic rule pass with a generative-model pass. It never
// returns an error: every failure path degrades to a conservative,
// clearly-flagged result.
type RiskAssessmentEngine struct {
	model        RiskModelClient
	modelTimeout time.Duration
}

// RiskEngineOption is a functional option for RiskAssessmentEngine
type RiskEngineOption func(*RiskAssessmentEngine)

// RiskWithModelClient sets the model client
func RiskWithModelClient(client RiskModelClient) RiskEngineOption {
	return func(e *RiskAssessmentEngine) {
		e.model = client
	}
}

// RiskWithModelTimeout bounds the model call
func RiskWithModelTimeout(timeout time.Duration) RiskEngineOption {
	return func(e *RiskAssessmentEngine) {
		e.modelTimeout = timeout
	}
}

// NewRiskAssessmentEngine creates a new risk assessment engine
func NewRiskAssessmentEngine(opts ...RiskEngineOption) *RiskAssessmentEngine {
	e := &RiskAssessmentEngine{
		modelTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SystemErrorFlag marks an assessment produced under a degraded pipeline
const SystemErrorFlag = "SYSTEM_ERROR"

// HighValueFlag marks a matter with financial-magnitude signals
const HighValueFlag = "HIGH_VALUE"

// riskKeywords maps severity tiers to their trigger phrases
var riskKeywords = map[models.RiskLevel][]string{
	models.RiskCritical: {"criminal", "class action", "malpractice", "fraud", "indictment"},
	models.RiskHigh:     {"emergency", "statute of limitations", "bankruptcy", "injunction", "regulatory investigation", "subpoena"},
	models.RiskMedium:   {"litigation", "divorce", "appeal", "dispute", "termination", "breach"},
}

// matterTypeFactors holds matter-type-specific baseline risk factors
var matterTypeFactors = map[string][]models.RiskFactor{
	"family_law": {
		{Type: "EMOTIONAL_COMPLEXITY", Severity: models.RiskMedium, Impact: "High-conflict dynamics can derail scheduling and settlement"},
	},
	"personal_injury": {
		{Type: "DAMAGES_UNCERTAINTY", Severity: models.RiskMedium, Impact: "Medical prognosis may shift the value of the claim materially"},
	},
	"employment": {
		{Type: "RETALIATION_EXPOSURE", Severity: models.RiskMedium, Impact: "Ongoing employment relationship may generate new claims"},
	},
	"business": {
		{Type: "COUNTERPARTY_LEVERAGE", Severity: models.RiskMedium, Impact: "Commercial counterparties often have deeper litigation resources"},
	},
}

// mitigations is the severity-indexed mitigation table
var mitigations = map[models.RiskLevel]string{
	models.RiskCritical: "Escalate to a senior partner before accepting the engagement",
	models.RiskHigh:     "Calendar all deadlines immediately and confirm malpractice coverage",
	models.RiskMedium:   "Document scope limits in the engagement letter",
	models.RiskLow:      "Proceed with standard intake review",
}

// standardRecommendations is the severity-indexed recommendation set merged
// into every assessment
var standardRecommendations = map[models.RiskLevel][]string{
	models.RiskCritical: {"Require senior partner sign-off before engagement", "Verify conflicts a second time with expanded party list"},
	models.RiskHigh:     {"Confirm limitation periods before the engagement letter is sent"},
	models.RiskMedium:   {"Define scope and fee boundaries explicitly"},
	models.RiskLow:      {"Standard intake review is sufficient"},
}

// modelRiskProfile is the JSON shape requested from the model
type modelRiskProfile struct {
	RiskLevel   string `json:"risk_level"`
	RiskFactors []struct {
		Type     string `json:"type"`
		Severity string `json:"severity"`
		Impact   string `json:"impact"`
	} `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}

// AssessRisk produces a combined risk assessment for a matter summary. It
// never panics or returns an error to the caller; a total pipeline failure
// yields a conservative medium-risk result flagged SYSTEM_ERROR.
func (e *RiskAssessmentEngine) AssessRisk(ctx context.Context, matterID uuid.UUID, summary, matterType string) (assessment *models.RiskAssessment) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("risk assessment pipeline failure for matter %s: %v", matterID, r)
			assessment = fallbackAssessment(matterID)
		}
	}()

	ruleLevel, ruleFactors, flags := e.rulePass(summary, matterType)

	modelLevel, modelFactors, modelRecs, modelConfidence, modelOK := e.modelPass(ctx, summary, matterType)

	overall := ruleLevel.Max(modelLevel)
	factors := combineFactors(ruleFactors, modelFactors)

	confidence := modelConfidence
	if modelOK {
		// The rule pass acts as a confidence floor when the model answered
		if confidence < 0.6 {
			confidence = 0.6
		}
	} else {
		flags = append(flags, SystemErrorFlag)
	}

	recommendations := combineRecommendations(modelRecs, overall, factors)

	assessment = &models.RiskAssessment{
		MatterID:            matterID,
		OverallRiskLevel:    overall,
		RiskFactors:         factors,
		Recommendations:     recommendations,
		ConfidenceScore:     confidence,
		Flags:               flags,
		EstimatedComplexity: estimateComplexity(factors),
		AssessmentType:      "hybrid",
	}
	return assessment
}

// rulePass runs keyword, matter-type and financial-magnitude heuristics
func (e *RiskAssessmentEngine) rulePass(summary, matterType string) (models.RiskLevel, models.RiskFactors, []string) {
	lower := strings.ToLower(summary)
	level := models.RiskLow
	factors := make(models.RiskFactors, 0)
	flags := make([]string, 0)

	for _, severity := range []models.RiskLevel{models.RiskCritical, models.RiskHigh, models.RiskMedium} {
		for _, keyword := range riskKeywords[severity] {
			if strings.Contains(lower, keyword) {
				level = level.Max(severity)
				factors = append(factors, models.RiskFactor{
					Type:       "KEYWORD_" + strings.ToUpper(strings.ReplaceAll(keyword, " ", "_")),
					Severity:   severity,
					Impact:     fmt.Sprintf("Summary mentions %q", keyword),
					Mitigation: mitigations[severity],
				})
			}
		}
	}

	for _, factor := range matterTypeFactors[normalizeMatterType(matterType)] {
		factor.Mitigation = mitigations[factor.Severity]
		factors = append(factors, factor)
		level = level.Max(factor.Severity)
	}

	if strings.ContainsAny(summary, "$€£") || strings.Contains(lower, "million") || strings.Contains(lower, "billion") {
		flags = append(flags, HighValueFlag)
		factors = append(factors, models.RiskFactor{
			Type:       HighValueFlag,
			Severity:   models.RiskHigh,
			Impact:     "Financial magnitude indicators present in the summary",
			Mitigation: mitigations[models.RiskHigh],
		})
		level = level.Max(models.RiskHigh)
	}

	return level, factors, flags
}

// modelPass asks the generative model for a structured risk profile. The
// boolean result reports whether a usable model answer was obtained.
func (e *RiskAssessmentEngine) modelPass(ctx context.Context, summary, matterType string) (models.RiskLevel, models.RiskFactors, []string, float64, bool) {
	degraded := func() (models.RiskLevel, models.RiskFactors, []string, float64, bool) {
		return models.RiskMedium, models.RiskFactors{}, nil, 0.3, false
	}

	if e.model == nil {
		return degraded()
	}

	callCtx, cancel := context.WithTimeout(ctx, e.modelTimeout)
	defer cancel()

	prompt := buildRiskPrompt(summary, matterType)
	raw, err := e.model.GenerateRiskProfile(callCtx, prompt)
	if err != nil {
		log.Printf("risk model call failed: %v", err)
		return degraded()
	}

	profile, err := parseRiskProfile(raw)
	if err != nil {
		log.Printf("risk model response unparseable: %v", err)
		return degraded()
	}

	level := parseRiskLevel(profile.RiskLevel)
	factors := make(models.RiskFactors, 0, len(profile.RiskFactors))
	for _, f := range profile.RiskFactors {
		if f.Type == "" {
			continue
		}
		factors = append(factors, models.RiskFactor{
			Type:     strings.ToUpper(strings.ReplaceAll(f.Type, " ", "_")),
			Severity: parseRiskLevel(f.Severity),
			Impact:   f.Impact,
		})
	}

	confidence := profile.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.5
	}

	return level, factors, profile.Recommendations, confidence, true
}

// buildRiskPrompt produces the structured prompt for the model pass
func buildRiskPrompt(summary, matterType string) string {
	return fmt.Sprintf(`You are assisting a law firm's intake review. Assess the risk of taking on the following matter.

Matter type: %s
Summary: %s

Respond with only a JSON object, no prose, in this exact shape:
{"risk_level": "low|medium|high|critical", "risk_factors": [{"type": "SHORT_TAG", "severity": "low|medium|high|critical", "impact": "one sentence"}], "recommendations": ["..."], "confidence": 0.0}`,
		matterType, summary)
}

// parseRiskProfile defensively extracts the JSON object from a model reply,
// tolerating code fences and surrounding prose
func parseRiskProfile(raw string) (*modelRiskProfile, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	profile := &modelRiskProfile{}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), profile); err != nil {
		return nil, fmt.Errorf("failed to parse risk profile: %w", err)
	}

	return profile, nil
}

// parseRiskLevel maps a model-supplied level onto the enum, defaulting to medium
func parseRiskLevel(level string) models.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return models.RiskLow
	case "medium":
		return models.RiskMedium
	case "high":
		return models.RiskHigh
	case "critical":
		return models.RiskCritical
	}
	return models.RiskMedium
}

// combineFactors unions the two factor lists, deduplicating by type and
// keeping the higher severity
func combineFactors(rule, model models.RiskFactors) models.RiskFactors {
	combined := make(models.RiskFactors, 0, len(rule)+len(model))
	index := make(map[string]int)

	for _, factor := range append(append(models.RiskFactors{}, rule...), model...) {
		if i, ok := index[factor.Type]; ok {
			if factor.Severity.Max(combined[i].Severity) == factor.Severity {
				combined[i].Severity = factor.Severity
			}
			continue
		}
		index[factor.Type] = len(combined)
		combined = append(combined, factor)
	}

	return combined
}

// combineRecommendations unions model recommendations with the standard
// severity-indexed set and factor mitigations, deduplicated in order
func combineRecommendations(modelRecs []string, overall models.RiskLevel, factors models.RiskFactors) []string {
	seen := make(map[string]bool)
	recommendations := make([]string, 0)

	add := func(rec string) {
		rec = strings.TrimSpace(rec)
		if rec != "" && !seen[rec] {
			seen[rec] = true
			recommendations = append(recommendations, rec)
		}
	}

	for _, rec := range modelRecs {
		add(rec)
	}
	for _, rec := range standardRecommendations[overall] {
		add(rec)
	}
	for _, factor := range factors {
		add(factor.Mitigation)
	}

	return recommendations
}

// estimateComplexity escalates with the count of high and critical factors
func estimateComplexity(factors models.RiskFactors) string {
	elevated := 0
	for _, factor := range factors {
		if factor.Severity == models.RiskHigh || factor.Severity == models.RiskCritical {
			elevated++
		}
	}

	switch {
	case elevated == 0:
		return "routine"
	case elevated <= 2:
		return "moderate"
	default:
		return "complex"
	}
}

// fallbackAssessment is the conservative result for a total pipeline failure
func fallbackAssessment(matterID uuid.UUID) *models.RiskAssessment {
	return &models.RiskAssessment{
		MatterID:         matterID,
		OverallRiskLevel: models.RiskMedium,
		RiskFactors: models.RiskFactors{
			{
				Type:       SystemErrorFlag,
				Severity:   models.RiskMedium,
				Impact:     "Risk pipeline failed; assessment is a conservative default",
				Mitigation: "Manual review required",
			},
		},
		Recommendations:     []string{"Manual review required"},
		ConfidenceScore:     0.3,
		Flags:               []string{SystemErrorFlag},
		EstimatedComplexity: "unknown",
		AssessmentType:      "fallback",
	}
}
