package operations

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/escalation"
	"custos/internal/policy"
	"custos/pkg/domain"
	"custos/pkg/platform/audit"
	memorystore "custos/pkg/platform/audit/store/memory"
	"custos/pkg/requestcontext"
)

func newTestService(t *testing.T) (*Service, *escalation.InMemoryQueue, *memorystore.InMemoryStore) {
	t.Helper()

	queue := escalation.NewInMemoryQueue()
	store := memorystore.NewInMemoryStore()
	publisher := audit.NewPublisher(store)

	escSvc, err := escalation.NewService(
		policy.Default(),
		queue,
		publisher,
		nil, // metrics are nil-safe; registering globally would panic across fixtures
		slog.Default(),
		"vaa_operations",
	)
	require.NoError(t, err)

	svc, err := NewService(escSvc, publisher, slog.Default(), "vaa_operations", FixedScorer(0.92), nil)
	require.NoError(t, err)
	return svc, queue, store
}

func procurementInput(amount float64, rating float64) Input {
	return Input{
		CaseID:   domain.NewCaseID(),
		Type:     InputProcurementRequest,
		EntityID: "req_100",
		Amount:   amount,
		VendorID: "vendor_1",
		Priority: PriorityNormal,
		Metadata: Metadata{VendorRating: rating, EstimatedHours: 2},
	}
}

func TestClassifyPathways(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		inputType InputType
		pathway   Pathway
	}{
		{InputProcurementRequest, PathwayProcurement},
		{InputInvoice, PathwayThreeWayMatch},
		{InputComplianceCheck, PathwayRegulatory},
		{InputAllocation, PathwayResourceOptimizing},
		{InputType("unknown"), PathwayDefault},
	}
	for _, tt := range tests {
		c := svc.Classify(Input{Type: tt.inputType, Priority: PriorityNormal})
		assert.Equal(t, tt.pathway, c.Pathway, string(tt.inputType))
	}
}

func TestClassifyUrgencyAndHours(t *testing.T) {
	svc, _, _ := newTestService(t)

	// Priority 4 at half the amount cap: 0.4*1.0 + 0.6*0.5 = 0.7.
	c := svc.Classify(Input{Type: InputProcurementRequest, Priority: PriorityLow, Amount: 250_000})
	assert.InDelta(t, 0.7, c.UrgencyScore, 1e-9)
	assert.Equal(t, 1.5, c.EstimatedHours, "large procurement takes the slow path")

	// Amount urgency saturates at 1.
	c = svc.Classify(Input{Type: InputInvoice, Priority: PriorityCritical, Amount: 5_000_000})
	assert.InDelta(t, 0.4*0.25+0.6, c.UrgencyScore, 1e-9)
	assert.Equal(t, 0.25, c.EstimatedHours)

	c = svc.Classify(Input{Type: InputProcurementRequest, Priority: PriorityNormal, Amount: 10_000})
	assert.Equal(t, 0.5, c.EstimatedHours)
	assert.Equal(t, 0.92, c.Confidence)
}

func TestValidateRulesProcurement(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	// Clean request: no violations, zero risk, green.
	check, err := svc.ValidateRules(ctx, procurementInput(10_000, 4.5), PathwayProcurement)
	require.NoError(t, err)
	assert.Empty(t, check.Violations)
	assert.Equal(t, 0.0, check.RiskScore)
	assert.Equal(t, "green", check.Level)
	assert.False(t, check.RequiresReview)

	// Semi-autonomous amount alone scores 0.5: yellow, review.
	check, err = svc.ValidateRules(ctx, procurementInput(75_000, 4.5), PathwayProcurement)
	require.NoError(t, err)
	assert.Len(t, check.Violations, 1)
	assert.InDelta(t, 0.5, check.RiskScore, 1e-9)
	assert.Equal(t, "yellow", check.Level)
	assert.True(t, check.RequiresReview)

	// Review-threshold breach plus weak vendor: (0.9+0.7)/2 = 0.8, red.
	check, err = svc.ValidateRules(ctx, procurementInput(150_000, 2.0), PathwayProcurement)
	require.NoError(t, err)
	assert.Len(t, check.Violations, 2)
	assert.InDelta(t, 0.8, check.RiskScore, 1e-9)
	assert.Equal(t, "red", check.Level)
	assert.True(t, check.RequiresReview)
}

func TestValidateRulesInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	input := Input{
		CaseID:   domain.NewCaseID(),
		Type:     InputInvoice,
		Priority: PriorityNormal,
		Metadata: Metadata{POInvoiceVariance: 0.03},
	}
	check, err := svc.ValidateRules(ctx, input, PathwayThreeWayMatch)
	require.NoError(t, err)
	assert.Len(t, check.Violations, 1)
	assert.InDelta(t, 0.4, check.RiskScore, 1e-9)
	assert.Equal(t, "green", check.Level)

	// Duplicate invoice with a large variance: (0.8+1.0)/2 = 0.9, red.
	input.CaseID = domain.NewCaseID()
	input.Metadata = Metadata{POInvoiceVariance: 0.08, IsDuplicate: true}
	check, err = svc.ValidateRules(ctx, input, PathwayThreeWayMatch)
	require.NoError(t, err)
	assert.Len(t, check.Violations, 2)
	assert.InDelta(t, 0.9, check.RiskScore, 1e-9)
	assert.Equal(t, "red", check.Level)
	assert.True(t, check.RequiresReview)
}

func TestAllocate(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	svc, _, _ := newTestService(t)

	input := procurementInput(10_000, 4.5)
	input.Priority = PriorityCritical
	alloc := svc.Allocate(ctx, input, PathwayProcurement)
	assert.Equal(t, "procurement_team", alloc.Team)
	assert.Equal(t, "proc_001", alloc.AssignedTo)
	assert.True(t, alloc.Available)
	assert.Equal(t, 0.95, alloc.Confidence)
	assert.Equal(t, at.Add(4*time.Hour), alloc.Deadline)
	assert.Equal(t, 2.0, alloc.Hours)

	input.Priority = PriorityLow
	alloc = svc.Allocate(ctx, input, PathwayThreeWayMatch)
	assert.Equal(t, "accounts_payable_team", alloc.Team)
	assert.Equal(t, at.Add(72*time.Hour), alloc.Deadline)
}

func TestAllocateEmptyRoster(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.roster = StaticRoster{}

	alloc := svc.Allocate(context.Background(), procurementInput(10_000, 4.5), PathwayProcurement)
	assert.Equal(t, "procurement_team_default", alloc.AssignedTo)
	assert.False(t, alloc.Available)
	assert.Equal(t, 0.6, alloc.Confidence)
}

func TestProcessAutonomous(t *testing.T) {
	ctx := context.Background()
	svc, queue, store := newTestService(t)

	input := procurementInput(10_000, 4.5)
	exec, err := svc.Process(ctx, input, "")
	require.NoError(t, err)
	assert.Equal(t, StatusExecuting, exec.Status)
	assert.Equal(t, "vaa_autonomous", exec.ExecutedBy)
	assert.Equal(t, 0, queue.Depth())

	events, err := store.ListByCase(ctx, input.CaseID.String())
	require.NoError(t, err)
	require.Len(t, events, 2, "decision evaluation plus execution")
	assert.Equal(t, string(audit.ActionDecisionEvaluated), events[0].Action)
	assert.Equal(t, string(audit.ActionTaskExecuted), events[1].Action)
}

func TestProcessEscalatesWithoutApprover(t *testing.T) {
	ctx := context.Background()
	svc, queue, store := newTestService(t)

	input := procurementInput(150_000, 2.0)
	exec, err := svc.Process(ctx, input, "")
	require.NoError(t, err)
	assert.Equal(t, StatusEscalated, exec.Status)
	assert.Empty(t, exec.ExecutedBy)
	assert.Equal(t, 1, queue.Depth())

	events, err := store.ListByCase(ctx, input.CaseID.String())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.ActionCaseEscalated), events[1].Action)
}

func TestProcessWithApprover(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService(t)

	input := procurementInput(150_000, 2.0)
	exec, err := svc.Process(ctx, input, "maria")
	require.NoError(t, err)
	assert.Equal(t, StatusExecuting, exec.Status)
	assert.Equal(t, "approver_maria", exec.ExecutedBy)

	events, err := store.ListByCase(ctx, input.CaseID.String())
	require.NoError(t, err)
	executed := events[len(events)-1]
	assert.Equal(t, string(audit.ActionTaskExecuted), executed.Action)
	assert.Equal(t, "maria", executed.ActorID)
}

func TestMonitorExceptions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.Process(ctx, procurementInput(10_000, 4.5), "")
		require.NoError(t, err)
	}
	_, err := svc.Process(ctx, procurementInput(150_000, 2.0), "")
	require.NoError(t, err)

	report := svc.MonitorExceptions()
	assert.Equal(t, 4, report.TotalProcessed)
	assert.Equal(t, 1, report.Escalated)
	assert.InDelta(t, 0.25, report.EscalationRate, 1e-9)
	require.NotEmpty(t, report.Anomalies)
	assert.Contains(t, report.Anomalies[0], "high escalation rate")
	assert.Empty(t, report.Recommendations)
}

func TestMonitorExceptionsRecommendsMoreAutonomy(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for i := 0; i < 12; i++ {
		_, err := svc.Process(ctx, procurementInput(10_000, 4.5), "")
		require.NoError(t, err)
	}

	report := svc.MonitorExceptions()
	assert.Empty(t, report.Anomalies)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "autonomy threshold")
}

func TestPerformanceIndicators(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Process(ctx, procurementInput(10_000, 4.5), "")
	require.NoError(t, err)

	metrics := svc.PerformanceIndicators()
	require.Len(t, metrics, 5)

	byName := map[string]Metric{}
	for _, m := range metrics {
		byName[m.Name] = m
	}
	for _, name := range []string{
		"process_cycle_time_reduction",
		"processing_error_rate",
		"regulatory_compliance_rate",
		"team_resource_utilization",
		"employee_workload_satisfaction",
	} {
		require.Contains(t, byName, name)
	}
	assert.InDelta(t, 0.40, byName["process_cycle_time_reduction"].Current, 1e-9)
	assert.Equal(t, "improving", byName["process_cycle_time_reduction"].Trend)
	assert.InDelta(t, 0.04, byName["processing_error_rate"].Current, 1e-9)
	assert.Equal(t, "improving", byName["processing_error_rate"].Trend)
	assert.InDelta(t, 1.0, byName["regulatory_compliance_rate"].Current, 1e-9)
	assert.InDelta(t, 0.85, byName["employee_workload_satisfaction"].Current, 1e-9)
	assert.Equal(t, 0.75, byName["employee_workload_satisfaction"].Target)
	assert.Equal(t, "improving", byName["employee_workload_satisfaction"].Trend)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, audit.NewPublisher(memorystore.NewInMemoryStore()), slog.Default(), "vaa", nil, nil)
	assert.Error(t, err)
}
