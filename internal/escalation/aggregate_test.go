package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateRiskEmpty(t *testing.T) {
	assert.Equal(t, 0.0, AggregateRisk(nil))
	assert.Equal(t, 0.0, AggregateRisk([]RiskComponent{}))
}

func TestAggregateRiskWeighted(t *testing.T) {
	components := []RiskComponent{
		{Weight: 3, Score: 1.0},
		{Weight: 1, Score: 0.0},
	}
	assert.InDelta(t, 0.75, AggregateRisk(components), 1e-9)
}

func TestAggregateRiskZeroWeightsFallsBackToMean(t *testing.T) {
	components := []RiskComponent{
		{Weight: 0, Score: 0.9},
		{Weight: -1, Score: 0.5},
		{Weight: 0, Score: 0.7},
	}
	assert.InDelta(t, 0.7, AggregateRisk(components), 1e-9)
}

func TestUnweighted(t *testing.T) {
	components := Unweighted([]float64{0.5, 0.9})
	assert.Len(t, components, 2)
	assert.InDelta(t, 0.7, AggregateRisk(components), 1e-9)
}
