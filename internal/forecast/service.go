package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"custos/internal/escalation"
	"custos/internal/policy"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/audit"
	"custos/pkg/requestcontext"
)

// Planning cycle constants.
const (
	defaultHorizonDays = 30
	leadTimeDays       = 14
	safetyStockFactor  = 0.2

	// Approval triggers independent of the risk policy.
	maxAutonomousQty  = 1000
	maxErrorRate      = 0.25
	errorRateBaseline = 0.15
	driftThreshold    = 0.10
)

// Forecaster generates demand forecasts. The default is a deterministic
// seasonal model; production can swap in a trained one.
type Forecaster interface {
	Forecast(hist HistoricalData, productID, locationID string, horizonDays int) Forecast
}

// SeasonalForecaster projects demand from the historical daily average
// scaled by seasonality, with volatility-driven bounds.
type SeasonalForecaster struct{}

func (SeasonalForecaster) Forecast(hist HistoricalData, productID, locationID string, horizonDays int) Forecast {
	avgDemand := hist.AvgDailyDemand
	if avgDemand <= 0 {
		avgDemand = 100
	}
	volatility := hist.Volatility
	if volatility <= 0 {
		volatility = 0.15
	}
	seasonality := hist.Seasonality
	if seasonality <= 0 {
		seasonality = 1.0
	}
	errorRate := hist.ErrorRate
	if errorRate <= 0 {
		errorRate = 0.12
	}

	point := int(avgDemand * seasonality * float64(horizonDays))
	return Forecast{
		ProductID:   productID,
		LocationID:  locationID,
		Qty:         point,
		LowerBound:  int(float64(point) * (1 - volatility)),
		UpperBound:  int(float64(point) * (1 + volatility)),
		Accuracy:    1 - errorRate,
		ErrorRate:   errorRate,
		Method:      "seasonal_moving_average",
		HorizonDays: horizonDays,
	}
}

// Service runs the planning cycle. Autonomy decisions route through the
// forecast risk policy so the same threshold table governs every product.
type Service struct {
	escalations  *escalation.Service
	auditor      escalation.Auditor
	forecaster   Forecaster
	logger       *slog.Logger
	agentID      string
	modelVersion string

	mu           sync.Mutex
	recentErrors []float64
}

// NewService wires the forecast service. A nil forecaster falls back to
// the seasonal model.
func NewService(escalations *escalation.Service, auditor escalation.Auditor, forecaster Forecaster, logger *slog.Logger, agentID string) (*Service, error) {
	if escalations == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "escalation service is required")
	}
	if auditor == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "audit publisher is required")
	}
	if forecaster == nil {
		forecaster = SeasonalForecaster{}
	}
	return &Service{
		escalations:  escalations,
		auditor:      auditor,
		forecaster:   forecaster,
		logger:       logger,
		agentID:      agentID,
		modelVersion: "1.0",
	}, nil
}

// Recommend produces an inventory action for one product. The autonomy
// level comes from evaluating forecast risk (one minus confidence) against
// the forecast risk policy; order size and poor historical accuracy can
// force approval even when the policy alone would not.
func (s *Service) Recommend(ctx context.Context, fc Forecast, currentInventory int) (Action, error) {
	dailyDemand := float64(fc.Qty) / float64(fc.HorizonDays)
	leadTimeDemand := dailyDemand * leadTimeDays
	safetyStock := int(leadTimeDemand * safetyStockFactor)
	reorderPoint := leadTimeDemand + float64(safetyStock)

	var actionType ActionType
	var qty int
	switch {
	case float64(currentInventory) < reorderPoint:
		actionType = ActionReorder
		qty = int(float64(fc.Qty) * 1.5)
	case currentInventory > fc.UpperBound*2:
		actionType = ActionReduce
		qty = -int(float64(currentInventory) * 0.3)
	default:
		actionType = ActionMaintain
	}

	caseID := domain.NewCaseID()
	result, err := s.escalations.Evaluate(ctx, policy.ForecastRisk, escalation.Signal{
		CaseID: caseID,
		Name:   "forecast_risk",
		Value:  1 - fc.Accuracy,
	})
	if err != nil {
		return Action{}, err
	}

	requiresApproval := result.RequiresReview ||
		int(math.Abs(float64(qty))) > maxAutonomousQty ||
		fc.ErrorRate > maxErrorRate

	action := Action{
		CaseID:           caseID,
		LocationID:       fc.LocationID,
		ProductID:        fc.ProductID,
		RecommendedQty:   qty,
		Type:             actionType,
		Confidence:       fc.Accuracy,
		Level:            string(result.Level),
		RequiresApproval: requiresApproval,
		Reasoning: fmt.Sprintf("reorder point: %.0f, current: %d, forecast: %d, safety stock: %d",
			reorderPoint, currentInventory, fc.Qty, safetyStock),
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		CaseID:    caseID,
		AgentID:   s.agentID,
		Subject:   fc.ProductID,
		Action:    string(audit.ActionForecastRecommended),
		Policy:    policy.ForecastRisk,
		Decision:  string(result.Level),
		Reason:    action.Reasoning,
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return Action{}, err
	}
	return action, nil
}

// Execute carries out an inventory action. Actions requiring approval stay
// escalated unless a planner is named.
func (s *Service) Execute(ctx context.Context, action Action, approvedBy string) (Execution, error) {
	now := requestcontext.Now(ctx)

	if action.RequiresApproval && approvedBy == "" {
		s.logger.InfoContext(ctx, "inventory action escalated",
			"case_id", action.CaseID,
			"product_id", action.ProductID,
			"action_type", action.Type,
			"level", action.Level,
		)
		return Execution{CaseID: action.CaseID, Status: StatusEscalated, Action: action, At: now}, nil
	}

	executedBy := "vaa_autonomous"
	if approvedBy != "" {
		executedBy = "planner_" + approvedBy
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		CaseID:    action.CaseID,
		AgentID:   s.agentID,
		Subject:   action.ProductID,
		Action:    string(audit.ActionInventoryExecuted),
		Policy:    policy.ForecastRisk,
		Decision:  string(action.Type),
		Reason:    action.Reasoning,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   approvedBy,
	}); err != nil {
		return Execution{}, err
	}

	return Execution{
		CaseID:     action.CaseID,
		Status:     StatusExecuted,
		Action:     action,
		ExecutedBy: executedBy,
		At:         now,
	}, nil
}

// Cycle runs the full planning loop for one location: forecast every
// product, recommend, then execute or escalate.
func (s *Service) Cycle(ctx context.Context, locationID string, historical map[string]HistoricalData, inventory map[string]int, approvedBy string) (CycleResult, error) {
	result := CycleResult{
		LocationID: locationID,
		At:         requestcontext.Now(ctx),
	}

	// Deterministic iteration keeps audit ordering stable across runs.
	for _, productID := range sortedKeys(inventory) {
		fc := s.forecaster.Forecast(historical[productID], productID, locationID, defaultHorizonDays)
		result.Forecasts = append(result.Forecasts, fc)

		action, err := s.Recommend(ctx, fc, inventory[productID])
		if err != nil {
			return CycleResult{}, err
		}

		exec, err := s.Execute(ctx, action, approvedBy)
		if err != nil {
			return CycleResult{}, err
		}
		if exec.Status == StatusEscalated {
			result.Escalations = append(result.Escalations, exec)
		} else {
			result.Executed = append(result.Executed, exec)
		}

		s.mu.Lock()
		s.recentErrors = append(s.recentErrors, fc.ErrorRate)
		if len(s.recentErrors) > 50 {
			s.recentErrors = s.recentErrors[len(s.recentErrors)-50:]
		}
		s.mu.Unlock()
	}
	return result, nil
}

// MonitorDrift compares recent forecast errors against the historical
// baseline. Detected drift emits an operations audit event and recommends
// retraining.
func (s *Service) MonitorDrift(ctx context.Context, recentErrors []float64) (DriftReport, error) {
	if len(recentErrors) == 0 {
		s.mu.Lock()
		recentErrors = append([]float64(nil), s.recentErrors...)
		s.mu.Unlock()
	}
	if len(recentErrors) == 0 {
		return DriftReport{RecommendedAct: "continue_monitoring", ModelVersion: s.modelVersion}, nil
	}

	var sum float64
	for _, e := range recentErrors {
		sum += e
	}
	avg := sum / float64(len(recentErrors))

	magnitude := avg - errorRateBaseline
	percent := magnitude / errorRateBaseline * 100
	detected := math.Abs(percent) > driftThreshold*100

	report := DriftReport{
		DriftDetected:  detected,
		DriftMagnitude: magnitude,
		DriftPercent:   percent,
		RecommendedAct: "continue_monitoring",
		ModelVersion:   s.modelVersion,
	}
	if detected {
		report.RecommendedAct = "trigger_retraining"
		if err := s.auditor.Emit(ctx, audit.Event{
			AgentID:   s.agentID,
			Subject:   s.modelVersion,
			Action:    string(audit.ActionDriftDetected),
			Decision:  report.RecommendedAct,
			Reason:    fmt.Sprintf("average error %.3f drifted %.1f%% from baseline %.2f", avg, percent, errorRateBaseline),
			RequestID: requestcontext.RequestID(ctx),
		}); err != nil {
			return DriftReport{}, err
		}
	}
	return report, nil
}

// ScheduleRetraining plans a model refresh and bumps the version.
func (s *Service) ScheduleRetraining(ctx context.Context, triggerReason string) RetrainingSchedule {
	if triggerReason == "" {
		triggerReason = "periodic_maintenance"
	}

	s.mu.Lock()
	current := s.modelVersion
	next := bumpMinor(current)
	s.modelVersion = next
	s.mu.Unlock()

	return RetrainingSchedule{
		CurrentVersion: current,
		NewVersion:     next,
		TriggerReason:  triggerReason,
		ScheduledFor:   requestcontext.Now(ctx).AddDate(0, 0, 7),
		HorizonDays:    90,
		ApproverRole:   "supply_chain_director",
	}
}
