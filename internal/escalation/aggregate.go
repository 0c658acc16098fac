package escalation

// RiskComponent is one contributor to a combined risk signal, typically the
// severity of a single rule violation.
type RiskComponent struct {
	Weight float64
	Score  float64
}

// AggregateRisk combines component risk scores into one signal value using
// a weighted mean. An empty sequence means no violations and returns 0.0,
// the lowest risk. When every weight is zero (or negative, which is treated
// as zero) the plain mean of the scores is used, so the function never
// divides by zero.
func AggregateRisk(components []RiskComponent) float64 {
	if len(components) == 0 {
		return 0.0
	}

	var total, sum float64
	for _, c := range components {
		if c.Weight > 0 {
			total += c.Weight
			sum += c.Weight * c.Score
		}
	}
	if total > 0 {
		return sum / total
	}

	for _, c := range components {
		sum += c.Score
	}
	return sum / float64(len(components))
}

// Unweighted wraps scores into equally weighted components, for callers
// that average plain rule-violation severities.
func Unweighted(scores []float64) []RiskComponent {
	components := make([]RiskComponent, 0, len(scores))
	for _, s := range scores {
		components = append(components, RiskComponent{Weight: 1, Score: s})
	}
	return components
}
