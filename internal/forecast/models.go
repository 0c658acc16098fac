// Package forecast runs the demand forecasting and inventory planning
// cycle: probabilistic forecasts, inventory recommendations gated by the
// forecast risk policy, and drift monitoring over the model's recent error
// history.
package forecast

import (
	"time"

	"custos/pkg/domain"
)

// HistoricalData summarizes the demand history of one product at one
// location, as produced by the upstream data pipeline.
type HistoricalData struct {
	AvgDailyDemand float64 `json:"avg_daily_demand"`
	Volatility     float64 `json:"volatility_factor"`
	Seasonality    float64 `json:"seasonality_factor"`
	ErrorRate      float64 `json:"historical_error_rate"`
}

// Forecast is a demand forecast with uncertainty bounds.
type Forecast struct {
	ProductID   string  `json:"product_id"`
	LocationID  string  `json:"location_id"`
	Qty         int     `json:"forecast_qty"`
	LowerBound  int     `json:"lower_bound"`
	UpperBound  int     `json:"upper_bound"`
	Accuracy    float64 `json:"accuracy_metric"`
	ErrorRate   float64 `json:"historical_error_rate"`
	Method      string  `json:"forecast_method"`
	HorizonDays int     `json:"horizon_days"`
}

// ActionType is the kind of inventory adjustment recommended.
type ActionType string

const (
	ActionReorder  ActionType = "reorder"
	ActionReduce   ActionType = "reduce"
	ActionMaintain ActionType = "maintain"
)

// Action is an inventory recommendation with its autonomy decision.
type Action struct {
	CaseID           domain.CaseID `json:"case_id"`
	LocationID       string        `json:"location_id"`
	ProductID        string        `json:"product_id"`
	RecommendedQty   int           `json:"recommended_qty"`
	Type             ActionType    `json:"action_type"`
	Confidence       float64       `json:"confidence_score"`
	Reasoning        string        `json:"reasoning"`
	Level            string        `json:"decision_level"`
	RequiresApproval bool          `json:"requires_approval"`
}

// ExecutionStatus is the outcome of executing one action.
type ExecutionStatus string

const (
	StatusExecuted  ExecutionStatus = "executed"
	StatusEscalated ExecutionStatus = "escalated"
)

// Execution records the outcome of one inventory action.
type Execution struct {
	CaseID     domain.CaseID   `json:"case_id"`
	Status     ExecutionStatus `json:"status"`
	Action     Action          `json:"action"`
	ExecutedBy string          `json:"executed_by,omitempty"`
	At         time.Time       `json:"timestamp"`
}

// CycleResult aggregates one full planning cycle for a location.
type CycleResult struct {
	LocationID  string      `json:"location_id"`
	At          time.Time   `json:"timestamp"`
	Forecasts   []Forecast  `json:"forecasts"`
	Executed    []Execution `json:"actions"`
	Escalations []Execution `json:"escalations"`
}

// DriftReport is the outcome of comparing recent forecast errors against
// the historical baseline.
type DriftReport struct {
	DriftDetected  bool    `json:"drift_detected"`
	DriftMagnitude float64 `json:"drift_magnitude"`
	DriftPercent   float64 `json:"drift_percent"`
	RecommendedAct string  `json:"action"`
	ModelVersion   string  `json:"model_version"`
}

// RetrainingSchedule is the lifecycle plan for a model refresh.
type RetrainingSchedule struct {
	CurrentVersion string    `json:"current_model_version"`
	NewVersion     string    `json:"new_model_version"`
	TriggerReason  string    `json:"trigger_reason"`
	ScheduledFor   time.Time `json:"scheduled_date"`
	HorizonDays    int       `json:"retraining_horizon_days"`
	ApproverRole   string    `json:"approval_required_by"`
}
