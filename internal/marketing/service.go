package marketing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"custos/internal/escalation"
	"custos/internal/policy"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/audit"
	"custos/pkg/requestcontext"
)

// Fairness constraints. Segmentation and targeting must never touch the
// prohibited attributes, and every segment carries a minimum fairness score.
const minFairnessScore = 0.70

var prohibitedAttributes = []string{
	"race", "ethnicity", "religion", "sexual_orientation",
	"political_affiliation", "health_conditions",
}

// Predicted return multipliers by channel, from historical performance.
var channelMultipliers = map[Channel]float64{
	ChannelEmail:     2.1,
	ChannelSMS:       2.8,
	ChannelSocial:    1.9,
	ChannelDisplayAd: 1.5,
	ChannelInApp:     2.3,
	ChannelPush:      2.4,
}

// Predicted ROI by segment key.
var segmentROIs = map[string]float64{
	"behavioral_high_engagement": 3.5,
	"value_high_lifetime":        4.2,
	"lifecycle_at_risk":          2.8,
}

// Service runs campaign orchestration. Disparity assessments route through
// the fairness policy so the review boundary is operator-tunable.
type Service struct {
	escalations *escalation.Service
	auditor     escalation.Auditor
	logger      *slog.Logger
	agentID     string
}

// NewService wires the marketing service.
func NewService(escalations *escalation.Service, auditor escalation.Auditor, logger *slog.Logger, agentID string) (*Service, error) {
	if escalations == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "escalation service is required")
	}
	if auditor == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "audit publisher is required")
	}
	return &Service{
		escalations: escalations,
		auditor:     auditor,
		logger:      logger,
		agentID:     agentID,
	}, nil
}

// SegmentCustomers derives the standard segments from the customer base
// size. Targeting rules stay behavioral so fairness validation passes by
// construction; CheckSegment still verifies.
func (s *Service) SegmentCustomers(customerCount int) map[string]Segment {
	return map[string]Segment{
		"behavioral_high_engagement": {
			ID:            "seg_behavioral_high_engagement",
			Name:          "High Engagement Users",
			Type:          SegmentBehavioral,
			CustomerCount: customerCount * 25 / 100,
			TargetingRule: []string{
				"sessions_past_30_days > 5",
				"avg_session_duration > 10_minutes",
				"content_interactions > 15",
			},
			FairnessScore: 0.89,
		},
		"value_high_lifetime": {
			ID:            "seg_value_high_lifetime",
			Name:          "High Customer Lifetime Value",
			Type:          SegmentValue,
			CustomerCount: customerCount * 15 / 100,
			TargetingRule: []string{
				"lifetime_transactions > 10",
				"avg_order_value > 150_usd",
				"churn_risk_score < 0.3",
			},
			FairnessScore: 0.92,
		},
		"lifecycle_at_risk": {
			ID:            "seg_lifecycle_at_risk",
			Name:          "At-Risk / Churn Candidates",
			Type:          SegmentLifecycle,
			CustomerCount: customerCount * 10 / 100,
			TargetingRule: []string{
				"days_since_last_purchase > 60",
				"engagement_decline_90_days > 40%",
				"churn_risk_score > 0.60",
			},
			FairnessScore: 0.85,
		},
	}
}

// CheckSegment validates one segment against the prohibited-attribute list
// and the minimum fairness score.
func (s *Service) CheckSegment(segment Segment) FairnessCheck {
	var hits []string
	for _, rule := range segment.TargetingRule {
		lower := strings.ToLower(rule)
		for _, attr := range prohibitedAttributes {
			if strings.Contains(lower, attr) {
				hits = append(hits, attr)
			}
		}
	}
	return FairnessCheck{
		SegmentID:      segment.ID,
		Compliant:      len(hits) == 0 && segment.FairnessScore > minFairnessScore,
		ProhibitedHits: hits,
		FairnessScore:  segment.FairnessScore,
	}
}

// PersonalizeContent produces the content variant for a segment.
func (s *Service) PersonalizeContent(segment Segment, productName string, discountPercent int) Content {
	switch segment.Type {
	case SegmentValue:
		return Content{
			SegmentID:    segment.ID,
			Message:      "Exclusive offer for valued customers",
			SubjectLine:  fmt.Sprintf("VIP: %s - Exclusive Access", productName),
			CTAText:      "Claim Your VIP Offer",
			Factors:      []string{"loyalty_reward", "premium_positioning", "exclusive_access"},
			EstimatedCTR: 0.045,
		}
	case SegmentLifecycle:
		return Content{
			SegmentID:    segment.ID,
			Message:      "We miss you - special return offer",
			SubjectLine:  fmt.Sprintf("We'd love to have you back: %d%% off", discountPercent),
			CTAText:      "Come Back & Save",
			Factors:      []string{"win_back_offer", "urgency_signal", "discount_incentive"},
			EstimatedCTR: 0.032,
		}
	default:
		return Content{
			SegmentID:    segment.ID,
			Message:      "Discover content tailored to your interests",
			SubjectLine:  fmt.Sprintf("Recommended for you: %s", productName),
			CTAText:      "Explore",
			Factors:      []string{"interest_alignment", "behavior_based", "discovery_focus"},
			EstimatedCTR: 0.028,
		}
	}
}

// AllocateBudget distributes a campaign budget: 60% across channels by
// performance multipliers, 40% across segments by predicted ROI.
func (s *Service) AllocateBudget(ctx context.Context, campaignID string, totalBudget float64) (BudgetAllocation, error) {
	if totalBudget <= 0 {
		return BudgetAllocation{}, dErrors.New(dErrors.CodeValidation, "total budget must be positive")
	}

	var totalMultiplier float64
	for _, m := range channelMultipliers {
		totalMultiplier += m
	}
	channelAlloc := make(map[string]float64, len(channelMultipliers))
	for ch, m := range channelMultipliers {
		channelAlloc[string(ch)] = totalBudget * 0.60 * (m / totalMultiplier)
	}

	var totalROI float64
	for _, roi := range segmentROIs {
		totalROI += roi
	}
	segmentAlloc := make(map[string]float64, len(segmentROIs))
	for key, roi := range segmentROIs {
		segmentAlloc[key] = totalBudget * 0.40 * (roi / totalROI)
	}

	allocation := BudgetAllocation{
		CampaignID:         campaignID,
		TotalBudget:        totalBudget,
		ChannelAllocations: channelAlloc,
		SegmentAllocations: segmentAlloc,
		ExpectedROI:        totalROI / float64(len(segmentROIs)),
		Method:             "roi_predictive_allocation",
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		CaseID:    domain.NewCaseID(),
		AgentID:   s.agentID,
		Subject:   campaignID,
		Action:    string(audit.ActionBudgetAllocated),
		Decision:  allocation.Method,
		Reason:    fmt.Sprintf("total budget %.2f across %d channels and %d segments", totalBudget, len(channelAlloc), len(segmentAlloc)),
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return BudgetAllocation{}, err
	}

	s.logger.InfoContext(ctx, "budget allocated",
		"campaign_id", campaignID,
		"total_budget", totalBudget,
		"expected_roi", allocation.ExpectedROI,
	)
	return allocation, nil
}

// CheckFairness measures conversion-rate disparity across segments and
// routes it through the fairness policy. Disparity is the spread between
// the best and worst performing segment relative to the best.
func (s *Service) CheckFairness(ctx context.Context, ratesBySegment map[string]float64) (DisparityReport, error) {
	if len(ratesBySegment) < 2 {
		return DisparityReport{}, dErrors.New(dErrors.CodeValidation, "at least two segments are required")
	}

	first := true
	var maxRate, minRate float64
	for _, rate := range ratesBySegment {
		if rate < 0 {
			return DisparityReport{}, dErrors.New(dErrors.CodeValidation, "conversion rates must be non-negative")
		}
		if first {
			maxRate, minRate = rate, rate
			first = false
			continue
		}
		if rate > maxRate {
			maxRate = rate
		}
		if rate < minRate {
			minRate = rate
		}
	}

	disparity := 0.0
	if maxRate > 0 {
		disparity = (maxRate - minRate) / maxRate
	}

	result, err := s.escalations.Evaluate(ctx, policy.FairnessDisparity, escalation.Signal{
		CaseID: domain.NewCaseID(),
		Name:   "conversion_rate_disparity",
		Value:  disparity,
	})
	if err != nil {
		return DisparityReport{}, err
	}

	report := DisparityReport{
		At:             requestcontext.Now(ctx),
		RatesBySegment: ratesBySegment,
		MaxRate:        maxRate,
		MinRate:        minRate,
		Disparity:      disparity,
		Level:          string(result.Level),
		RequiresReview: result.RequiresReview,
	}
	if result.RequiresReview {
		report.Recommendations = append(report.Recommendations,
			"significant conversion rate disparity detected across segments; review personalization logic for potential bias")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		AgentID:   s.agentID,
		Subject:   "conversion_rate_disparity",
		Action:    string(audit.ActionFairnessChecked),
		Policy:    policy.FairnessDisparity,
		Decision:  string(result.Level),
		Reason:    fmt.Sprintf("disparity %.3f across %d segments", disparity, len(ratesBySegment)),
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return DisparityReport{}, err
	}
	return report, nil
}

// PerformanceInsight compares an observed conversion rate against its
// expectation and recommends the next optimization step.
func (s *Service) PerformanceInsight(campaignID, segmentID string, current, expected float64) Insight {
	variancePct := 0.0
	if expected > 0 {
		variancePct = (current - expected) / expected * 100
	}

	insight := Insight{
		CampaignID:  campaignID,
		SegmentID:   segmentID,
		Metric:      "conversion_rate",
		Current:     current,
		Expected:    expected,
		VariancePct: variancePct,
	}
	switch {
	case variancePct < -10:
		insight.Recommendation = fmt.Sprintf("conversion rate %.1f%% below target: A/B test new messaging, increase frequency cap, or adjust budget allocation", variancePct)
		insight.Confidence = 0.78
	case variancePct > 10:
		insight.Recommendation = fmt.Sprintf("conversion rate %.1f%% above target: scale budget in this segment and channel combination", variancePct)
		insight.Confidence = 0.85
	default:
		insight.Recommendation = "performance on track: continue monitoring and optimize incrementally"
		insight.Confidence = 0.72
	}
	return insight
}
