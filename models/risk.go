package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RiskLevel represents the overall risk level of an assessment
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// rank orders risk levels so the combiner can take the higher of two levels
func (l RiskLevel) rank() int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return 1
}

// Max returns the higher of two risk levels
func (l RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.rank() > l.rank() {
		return other
	}
	return l
}

// RiskFactor is one identified risk dimension
type RiskFactor struct {
	Type       string    `json:"type"`
	Severity   RiskLevel `json:"severity"`
	Impact     string    `json:"impact"`
	Mitigation string    `json:"mitigation,omitempty"`
}

// RiskFactors is a list of factors, stored as JSONB on the assessment record
type RiskFactors []RiskFactor

// Value implements driver.Valuer for JSONB
func (f RiskFactors) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB
func (f *RiskFactors) Scan(value interface{}) error {
	if value == nil {
		*f = make(RiskFactors, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*f = make(RiskFactors, 0)
		return nil
	}

	if len(bytes) == 0 {
		*f = make(RiskFactors, 0)
		return nil
	}

	return json.Unmarshal(bytes, f)
}

// RiskAssessment is the combined rule+model risk profile for a matter
// summary. Advisory only; human review remains authoritative.
type RiskAssessment struct {
	ID                  uuid.UUID   `json:"id"`
	MatterID            uuid.UUID   `json:"matter_id"`
	OverallRiskLevel    RiskLevel   `json:"overall_risk_level"`
	RiskFactors         RiskFactors `json:"risk_factors"`
	Recommendations     []string    `json:"recommendations"`
	ConfidenceScore     float64     `json:"confidence_score"`
	Flags               []string    `json:"flags"`
	EstimatedComplexity string      `json:"estimated_complexity"`
	AssessmentType      string      `json:"assessment_type"`
	CreatedAt           time.Time   `json:"created_at"`
}
