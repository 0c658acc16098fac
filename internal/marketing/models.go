// Package marketing orchestrates campaign activity under fairness
// governance: customer segmentation, content personalization, budget
// allocation, and disparity checks routed through the fairness policy.
package marketing

import "time"

// Channel is a marketing delivery channel.
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelSocial    Channel = "social_media"
	ChannelDisplayAd Channel = "display_ad"
	ChannelSMS       Channel = "sms"
	ChannelInApp     Channel = "in_app"
	ChannelPush      Channel = "push_notification"
)

// SegmentType is the dimension a segment is built on.
type SegmentType string

const (
	SegmentBehavioral SegmentType = "behavioral"
	SegmentValue      SegmentType = "value"
	SegmentLifecycle  SegmentType = "lifecycle"
)

// Segment is one customer segment with its fairness posture.
type Segment struct {
	ID            string      `json:"segment_id"`
	Name          string      `json:"segment_name"`
	Type          SegmentType `json:"segment_type"`
	CustomerCount int         `json:"customer_count"`
	TargetingRule []string    `json:"targeting_rules"`
	FairnessScore float64     `json:"fairness_score"`
}

// FairnessCheck is the result of validating one segment against the
// prohibited-attribute list and the minimum fairness score.
type FairnessCheck struct {
	SegmentID      string   `json:"segment_id"`
	Compliant      bool     `json:"is_compliant"`
	ProhibitedHits []string `json:"prohibited_attributes_found"`
	FairnessScore  float64  `json:"fairness_score"`
}

// Content is one personalized content variant.
type Content struct {
	SegmentID    string   `json:"segment_id"`
	Message      string   `json:"message_variant"`
	SubjectLine  string   `json:"subject_line"`
	CTAText      string   `json:"cta_text"`
	Factors      []string `json:"personalization_factors"`
	EstimatedCTR float64  `json:"estimated_ctr"`
}

// BudgetAllocation distributes campaign budget across channels and
// segments by predicted return.
type BudgetAllocation struct {
	CampaignID         string             `json:"campaign_id"`
	TotalBudget        float64            `json:"total_budget"`
	ChannelAllocations map[string]float64 `json:"channel_allocations"`
	SegmentAllocations map[string]float64 `json:"segment_allocations"`
	ExpectedROI        float64            `json:"expected_roi"`
	Method             string             `json:"optimization_method"`
}

// DisparityReport assesses conversion-rate disparity across segments
// against the fairness policy.
type DisparityReport struct {
	At              time.Time          `json:"assessment_date"`
	RatesBySegment  map[string]float64 `json:"conversion_rates_by_segment"`
	MaxRate         float64            `json:"max_rate"`
	MinRate         float64            `json:"min_rate"`
	Disparity       float64            `json:"disparity"`
	Level           string             `json:"level"`
	RequiresReview  bool               `json:"requires_review"`
	Recommendations []string           `json:"recommendations"`
}

// Insight is one real-time performance observation with a recommendation.
type Insight struct {
	CampaignID     string  `json:"campaign_id"`
	SegmentID      string  `json:"segment_id"`
	Metric         string  `json:"metric_name"`
	Current        float64 `json:"current_value"`
	Expected       float64 `json:"expected_value"`
	VariancePct    float64 `json:"variance_percent"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence_score"`
}
