package marketing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/escalation"
	"custos/internal/policy"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/audit"
	memorystore "custos/pkg/platform/audit/store/memory"
)

func newTestService(t *testing.T) (*Service, *memorystore.InMemoryStore) {
	t.Helper()

	store := memorystore.NewInMemoryStore()
	publisher := audit.NewPublisher(store)

	escSvc, err := escalation.NewService(
		policy.Default(),
		escalation.NewInMemoryQueue(),
		publisher,
		nil, // metrics are nil-safe; registering globally would panic across fixtures
		slog.Default(),
		"vaa_marketing",
	)
	require.NoError(t, err)

	svc, err := NewService(escSvc, publisher, slog.Default(), "vaa_marketing")
	require.NoError(t, err)
	return svc, store
}

func TestSegmentCustomers(t *testing.T) {
	svc, _ := newTestService(t)

	segments := svc.SegmentCustomers(10_000)
	require.Len(t, segments, 3)

	high := segments["behavioral_high_engagement"]
	assert.Equal(t, 2500, high.CustomerCount)
	assert.Equal(t, SegmentBehavioral, high.Type)

	value := segments["value_high_lifetime"]
	assert.Equal(t, 1500, value.CustomerCount)

	atRisk := segments["lifecycle_at_risk"]
	assert.Equal(t, 1000, atRisk.CustomerCount)

	// Standard segments pass their own fairness validation.
	for key, segment := range segments {
		check := svc.CheckSegment(segment)
		assert.True(t, check.Compliant, key)
		assert.Empty(t, check.ProhibitedHits, key)
	}
}

func TestCheckSegmentRejectsProhibitedAttributes(t *testing.T) {
	svc, _ := newTestService(t)

	check := svc.CheckSegment(Segment{
		ID:            "seg_bad",
		TargetingRule: []string{"Religion = catholic", "sessions > 5"},
		FairnessScore: 0.95,
	})
	assert.False(t, check.Compliant)
	assert.Equal(t, []string{"religion"}, check.ProhibitedHits)
}

func TestCheckSegmentRejectsLowFairnessScore(t *testing.T) {
	svc, _ := newTestService(t)

	check := svc.CheckSegment(Segment{
		ID:            "seg_low",
		TargetingRule: []string{"sessions > 5"},
		FairnessScore: 0.65,
	})
	assert.False(t, check.Compliant)
	assert.Empty(t, check.ProhibitedHits)

	// The minimum is exclusive.
	check = svc.CheckSegment(Segment{ID: "seg_edge", FairnessScore: 0.70})
	assert.False(t, check.Compliant)
}

func TestPersonalizeContent(t *testing.T) {
	svc, _ := newTestService(t)

	content := svc.PersonalizeContent(Segment{ID: "s1", Type: SegmentValue}, "Premium Plan", 20)
	assert.Contains(t, content.SubjectLine, "VIP")
	assert.Equal(t, 0.045, content.EstimatedCTR)

	content = svc.PersonalizeContent(Segment{ID: "s2", Type: SegmentLifecycle}, "Premium Plan", 20)
	assert.Contains(t, content.SubjectLine, "20% off")
	assert.Equal(t, 0.032, content.EstimatedCTR)

	content = svc.PersonalizeContent(Segment{ID: "s3", Type: SegmentBehavioral}, "Premium Plan", 20)
	assert.Contains(t, content.SubjectLine, "Premium Plan")
	assert.Equal(t, 0.028, content.EstimatedCTR)
}

func TestAllocateBudget(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	allocation, err := svc.AllocateBudget(ctx, "camp_1", 100_000)
	require.NoError(t, err)
	assert.Equal(t, "camp_1", allocation.CampaignID)
	assert.Equal(t, "roi_predictive_allocation", allocation.Method)
	assert.InDelta(t, 3.5, allocation.ExpectedROI, 1e-9) // (3.5+4.2+2.8)/3

	var channelTotal float64
	for _, amount := range allocation.ChannelAllocations {
		channelTotal += amount
	}
	assert.InDelta(t, 60_000, channelTotal, 1e-6)

	var segmentTotal float64
	for _, amount := range allocation.SegmentAllocations {
		segmentTotal += amount
	}
	assert.InDelta(t, 40_000, segmentTotal, 1e-6)

	// SMS carries the highest channel multiplier.
	assert.Greater(t, allocation.ChannelAllocations["sms"], allocation.ChannelAllocations["display_ad"])

	recent, err := store.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, string(audit.ActionBudgetAllocated), recent[0].Action)
}

func TestAllocateBudgetRejectsNonPositive(t *testing.T) {
	svc, _ := newTestService(t)

	for _, budget := range []float64{0, -5000} {
		_, err := svc.AllocateBudget(context.Background(), "camp_1", budget)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func TestCheckFairnessWithinBounds(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	report, err := svc.CheckFairness(ctx, map[string]float64{
		"seg_a": 0.045,
		"seg_b": 0.042,
		"seg_c": 0.040,
	})
	require.NoError(t, err)
	assert.InDelta(t, (0.045-0.040)/0.045, report.Disparity, 1e-9)
	assert.Equal(t, "green", report.Level)
	assert.False(t, report.RequiresReview)
	assert.Empty(t, report.Recommendations)
}

func TestCheckFairnessDetectsDisparity(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	report, err := svc.CheckFairness(ctx, map[string]float64{
		"seg_a": 0.048,
		"seg_b": 0.042,
		"seg_c": 0.029,
	})
	require.NoError(t, err)
	assert.InDelta(t, (0.048-0.029)/0.048, report.Disparity, 1e-9)
	assert.Equal(t, "red", report.Level)
	assert.True(t, report.RequiresReview)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "disparity")

	recent, err := store.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, string(audit.ActionFairnessChecked), recent[0].Action)
	assert.Equal(t, "red", recent[0].Decision)
}

func TestCheckFairnessValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CheckFairness(context.Background(), map[string]float64{"only": 0.04})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.CheckFairness(context.Background(), map[string]float64{"a": 0.04, "b": -0.01})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCheckFairnessAllZeroRates(t *testing.T) {
	svc, _ := newTestService(t)

	report, err := svc.CheckFairness(context.Background(), map[string]float64{"a": 0, "b": 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Disparity)
	assert.Equal(t, "green", report.Level)
}

func TestPerformanceInsight(t *testing.T) {
	svc, _ := newTestService(t)

	under := svc.PerformanceInsight("camp_1", "seg_a", 0.030, 0.045)
	assert.Less(t, under.VariancePct, -10.0)
	assert.Contains(t, under.Recommendation, "A/B test")
	assert.Equal(t, 0.78, under.Confidence)

	over := svc.PerformanceInsight("camp_1", "seg_b", 0.060, 0.045)
	assert.Greater(t, over.VariancePct, 10.0)
	assert.Contains(t, over.Recommendation, "scale budget")
	assert.Equal(t, 0.85, over.Confidence)

	onTrack := svc.PerformanceInsight("camp_1", "seg_c", 0.046, 0.045)
	assert.Contains(t, onTrack.Recommendation, "on track")
	assert.Equal(t, 0.72, onTrack.Confidence)
}
