package audit

import (
	"time"

	"custos/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// decisions, escalations, approvals. These require durable storage
	// and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring,
	// such as rejected credentials on reviewer endpoints.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and
	// operational visibility. These can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	CaseID    domain.CaseID
	AgentID   string
	Subject   string
	Action    string
	Policy    string
	Decision  string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action when a human was involved,
	// e.g. the reviewer resolving an escalation.
	ActorID string
}

// Action names the audit actions every module emits. Category assignment
// lives in eventCategories so the store layer derives it uniformly.
type Action string

const (
	ActionDecisionEvaluated   Action = "decision_evaluated"
	ActionCaseEscalated       Action = "case_escalated"
	ActionEscalationResolved  Action = "escalation_resolved"
	ActionTaskExecuted        Action = "task_executed"
	ActionInventoryExecuted   Action = "inventory_action_executed"
	ActionFairnessChecked     Action = "fairness_checked"
	ActionBudgetAllocated     Action = "budget_allocated"
	ActionForecastRecommended Action = "forecast_recommended"
	ActionDriftDetected       Action = "drift_detected"
	ActionAuditGenerated      Action = "governance_audit_generated"
	ActionAuthRejected        Action = "auth_rejected"
)

var eventCategories = map[Action]EventCategory{
	ActionDecisionEvaluated:  CategoryCompliance,
	ActionCaseEscalated:      CategoryCompliance,
	ActionEscalationResolved: CategoryCompliance,
	ActionTaskExecuted:       CategoryCompliance,
	ActionInventoryExecuted:  CategoryCompliance,
	ActionFairnessChecked:    CategoryCompliance,
	ActionBudgetAllocated:    CategoryCompliance,
	ActionAuditGenerated:     CategoryCompliance,

	ActionAuthRejected: CategorySecurity,

	ActionForecastRecommended: CategoryOperations,
	ActionDriftDetected:       CategoryOperations,
}

// Category returns the EventCategory for this action. Unknown actions
// default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := eventCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
