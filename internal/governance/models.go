// Package governance covers the lifecycle around the governed agents:
// organizational readiness, pilot validation, and formal compliance audits
// over the escalation queue and audit trail.
package governance

import "time"

// ReadinessAssessment scores the organization's preparedness for
// autonomous rollout across weighted dimensions.
type ReadinessAssessment struct {
	At              time.Time          `json:"assessment_date"`
	OverallScore    float64            `json:"overall_readiness_score"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	Gaps            []string           `json:"gaps_identified"`
	Level           string             `json:"level"`
	Recommendation  string             `json:"recommendation"`
}

// Criterion is one pilot success criterion. LowerIsBetter inverts the
// comparison: values at or below the bound pass.
type Criterion struct {
	Name              string  `json:"metric_name"`
	Type              string  `json:"metric_type"`
	Baseline          float64 `json:"baseline_value"`
	Target            float64 `json:"target_value"`
	MinimumAcceptable float64 `json:"minimum_acceptable"`
	Method            string  `json:"measurement_method"`
	Frequency         string  `json:"frequency"`
	LowerIsBetter     bool    `json:"lower_is_better,omitempty"`
}

// PilotValidation is the go/no-go outcome of comparing pilot metrics
// against the success criteria.
type PilotValidation struct {
	At              time.Time `json:"validation_date"`
	MeetingTargets  int       `json:"metrics_meeting_targets"`
	MeetingMinimum  int       `json:"metrics_meeting_minimum"`
	BelowMinimum    int       `json:"metrics_below_minimum"`
	Recommendation  string    `json:"go_no_go_recommendation"`
	RequiredActions []string  `json:"required_actions_before_scaling"`
}

// Finding is one observation from a compliance audit.
type Finding struct {
	Area           string `json:"area"`
	Observation    string `json:"observation"`
	RiskLevel      string `json:"risk_level"`
	Recommendation string `json:"recommendation"`
}

// AuditReport is a formal compliance audit over the gateway's current
// escalation and audit-trail state.
type AuditReport struct {
	At               time.Time `json:"audit_date"`
	PeriodDays       int       `json:"audit_period_days"`
	DecisionsLogged  int       `json:"total_decisions_logged"`
	PendingCases     int       `json:"escalations_requiring_approval"`
	Findings         []Finding `json:"compliance_findings"`
	ControlStatus    string    `json:"control_effectiveness"`
	AuditOpinion     string    `json:"audit_opinion"`
	ComplianceStatus string    `json:"compliance_status"`
}
