package governance

import (
	"context"
	"fmt"
	"log/slog"

	"custos/internal/escalation"
	"custos/internal/policy"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/audit"
	"custos/pkg/requestcontext"
)

// Audit thresholds. A deep queue suggests the decision boundaries are too
// restrictive; a thin trail suggests the measurement sample is not yet
// representative.
const (
	queueDepthFinding = 10
	trailDepthMinimum = 50
)

// Service runs lifecycle governance: readiness, pilot validation, and
// compliance audits. Readiness gating routes through the readiness
// shortfall policy.
type Service struct {
	escalations *escalation.Service
	publisher   *audit.Publisher
	logger      *slog.Logger
	agentID     string
}

// NewService wires the governance service. It needs the full publisher,
// not just the emit surface, because compliance audits read the trail back.
func NewService(escalations *escalation.Service, publisher *audit.Publisher, logger *slog.Logger, agentID string) (*Service, error) {
	if escalations == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "escalation service is required")
	}
	if publisher == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "audit publisher is required")
	}
	return &Service{
		escalations: escalations,
		publisher:   publisher,
		logger:      logger,
		agentID:     agentID,
	}, nil
}

// AssessReadiness scores organizational preparedness. The shortfall (one
// minus the average score) routes through the readiness policy; a red
// level means the rollout should be delayed.
func (s *Service) AssessReadiness(ctx context.Context, dimensionScores map[string]float64) (ReadinessAssessment, error) {
	if len(dimensionScores) == 0 {
		return ReadinessAssessment{}, dErrors.New(dErrors.CodeValidation, "at least one dimension score is required")
	}

	var sum float64
	for dim, score := range dimensionScores {
		if score < 0 || score > 1 {
			return ReadinessAssessment{}, dErrors.Newf(dErrors.CodeValidation, "dimension %q score must be between 0 and 1", dim)
		}
		sum += score
	}
	overall := sum / float64(len(dimensionScores))

	var gaps []string
	if score, ok := dimensionScores["workforce_preparedness"]; ok && score < 0.70 {
		gaps = append(gaps, "insufficient change management capability, requires upskilling")
	}
	if score, ok := dimensionScores["data_maturity"]; ok && score < 0.75 {
		gaps = append(gaps, "data quality issues, requires data governance investment")
	}

	result, err := s.escalations.Evaluate(ctx, policy.ReadinessShortfall, escalation.Signal{
		CaseID: domain.NewCaseID(),
		Name:   "readiness_shortfall",
		Value:  1 - overall,
	})
	if err != nil {
		return ReadinessAssessment{}, err
	}

	recommendation := "proceed with targeted remediation"
	if result.RequiresReview {
		recommendation = "delay until readiness improved"
	}

	return ReadinessAssessment{
		At:              requestcontext.Now(ctx),
		OverallScore:    overall,
		DimensionScores: dimensionScores,
		Gaps:            gaps,
		Level:           string(result.Level),
		Recommendation:  recommendation,
	}, nil
}

// SuccessCriteria returns the standard pilot success criteria.
func (s *Service) SuccessCriteria() []Criterion {
	return []Criterion{
		{
			Name:              "process_accuracy",
			Type:              "quantitative",
			Baseline:          0.92,
			Target:            0.96,
			MinimumAcceptable: 0.94,
			Method:            "% of decisions matching subject matter expert review",
			Frequency:         "daily",
		},
		{
			Name:              "cycle_time_reduction",
			Type:              "quantitative",
			Baseline:          0.0,
			Target:            0.40,
			MinimumAcceptable: 0.25,
			Method:            "% reduction vs. manual baseline",
			Frequency:         "daily",
		},
		{
			Name:              "system_availability",
			Type:              "quantitative",
			Baseline:          0.0,
			Target:            0.99,
			MinimumAcceptable: 0.95,
			Method:            "% uptime",
			Frequency:         "continuous",
		},
		{
			Name:              "user_trust",
			Type:              "qualitative",
			Baseline:          0.55,
			Target:            0.80,
			MinimumAcceptable: 0.70,
			Method:            "survey score (1-10 scale)",
			Frequency:         "weekly",
		},
		{
			Name:              "escalation_frequency",
			Type:              "quantitative",
			Baseline:          1.0,
			Target:            0.10,
			MinimumAcceptable: 0.15,
			Method:            "% of decisions requiring human review",
			Frequency:         "daily",
			LowerIsBetter:     true,
		},
	}
}

// ValidatePilot compares pilot metrics against the success criteria and
// recommends whether to proceed to scaled deployment. Metrics absent from
// the input count as below minimum.
func (s *Service) ValidatePilot(ctx context.Context, actual map[string]float64) PilotValidation {
	validation := PilotValidation{
		At:             requestcontext.Now(ctx),
		Recommendation: "proceed_with_caution",
	}

	for _, criterion := range s.SuccessCriteria() {
		value, ok := actual[criterion.Name]
		meets := func(bound float64) bool {
			if criterion.LowerIsBetter {
				return value <= bound
			}
			return value >= bound
		}
		switch {
		case ok && meets(criterion.Target):
			validation.MeetingTargets++
		case ok && meets(criterion.MinimumAcceptable):
			validation.MeetingMinimum++
		default:
			validation.BelowMinimum++
			validation.RequiredActions = append(validation.RequiredActions,
				fmt.Sprintf("address %s: current %.2f, target %.2f", criterion.Name, value, criterion.Target))
		}
	}

	if validation.BelowMinimum == 0 {
		validation.Recommendation = "proceed_to_scale"
	}
	return validation
}

// ComplianceAudit inspects the escalation queue and the audit trail,
// records findings, and logs the audit itself to the trail.
func (s *Service) ComplianceAudit(ctx context.Context, periodDays int) (AuditReport, error) {
	if periodDays <= 0 {
		periodDays = 30
	}

	pending, err := s.escalations.QueueDepth(ctx)
	if err != nil {
		return AuditReport{}, err
	}

	trail, err := s.publisher.ListRecent(ctx, 0)
	if err != nil {
		return AuditReport{}, err
	}

	report := AuditReport{
		At:               requestcontext.Now(ctx),
		PeriodDays:       periodDays,
		DecisionsLogged:  len(trail),
		PendingCases:     pending,
		ControlStatus:    "effective",
		AuditOpinion:     "controls_in_place",
		ComplianceStatus: "compliant",
	}

	if pending > queueDepthFinding {
		report.Findings = append(report.Findings, Finding{
			Area:           "escalation_volume",
			Observation:    "high volume of escalations may indicate overly restrictive decision boundaries",
			RiskLevel:      "low",
			Recommendation: "review autonomy levels in next assessment",
		})
	}
	if len(trail) < trailDepthMinimum {
		report.Findings = append(report.Findings, Finding{
			Area:           "audit_coverage",
			Observation:    "audit trail volume below expected for measurement period",
			RiskLevel:      "informational",
			Recommendation: "monitor for representative sample size",
		})
	}

	if err := s.publisher.Emit(ctx, audit.Event{
		AgentID:   s.agentID,
		Subject:   fmt.Sprintf("%d_day_audit", periodDays),
		Action:    string(audit.ActionAuditGenerated),
		Decision:  report.AuditOpinion,
		Reason:    fmt.Sprintf("%d decisions logged, %d cases pending, %d findings", len(trail), pending, len(report.Findings)),
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return AuditReport{}, err
	}

	s.logger.InfoContext(ctx, "compliance audit generated",
		"decisions_logged", len(trail),
		"pending_cases", pending,
		"findings", len(report.Findings),
	)
	return report, nil
}
