// Package policy turns external threshold configuration into evaluators.
// Threshold tables are configuration, not code: operators tune decision
// boundaries by editing the policy file, never by redeploying.
package policy

import (
	"math"

	"custos/internal/escalation"
	dErrors "custos/pkg/domain-errors"
)

// Built-in policy names. Every governed module evaluates through one of
// these unless the operator's policy file overrides them.
const (
	ProcurementAmount  = "procurement_amount"
	InvoiceVariance    = "invoice_variance"
	CompositeRisk      = "composite_risk"
	ForecastRisk       = "forecast_risk"
	FairnessDisparity  = "fairness_disparity"
	ReadinessShortfall = "readiness_shortfall"
)

// Set is a registry of named evaluators, built once at startup.
type Set map[string]*escalation.Evaluator

// Get returns the evaluator for a policy name.
//
// Errors: CodeNotFound for unknown policies.
func (s Set) Get(name string) (*escalation.Evaluator, error) {
	ev, ok := s[name]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown policy %q", name)
	}
	return ev, nil
}

// Names returns the registered policy names.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// Default returns the built-in policy set. The bounds reproduce the rule
// tables of the governed agents:
//
//   - procurement_amount: autonomous approval up to 50000, semi-autonomous
//     up to 100000, human review above.
//   - invoice_variance: 2% auto-match tolerance, 5% escalation bound.
//   - composite_risk: averaged rule-violation severity, yellow above 0.4,
//     red above 0.7; yellow already requires review.
//   - forecast_risk: 1 - forecast confidence; autonomy degrades at 0.15,
//     0.25 and 0.35.
//   - fairness_disparity: 15% maximum conversion-rate variance between
//     customer segments.
//   - readiness_shortfall: 1 - readiness score; above 0.30 the rollout
//     should be delayed.
func Default() Set {
	return Set{
		ProcurementAmount: mustEvaluator(
			[]escalation.Band{
				{UpperBound: 50000, Level: escalation.LevelAutonomous},
				{UpperBound: 100000, Level: escalation.LevelSemiAutonomous},
			},
			escalation.LevelHumanReview,
			escalation.LevelHumanReview,
		),
		InvoiceVariance: mustEvaluator(
			[]escalation.Band{
				{UpperBound: 0.02, Level: escalation.LevelGreen},
				{UpperBound: 0.05, Level: escalation.LevelYellow},
			},
			escalation.LevelRed,
			escalation.LevelYellow,
		),
		CompositeRisk: mustEvaluator(
			[]escalation.Band{
				{UpperBound: 0.4, Level: escalation.LevelGreen},
				{UpperBound: 0.7, Level: escalation.LevelYellow},
			},
			escalation.LevelRed,
			escalation.LevelYellow,
			escalation.WithDomain(0, 1),
		),
		ForecastRisk: mustEvaluator(
			[]escalation.Band{
				{UpperBound: 0.15, Level: escalation.LevelAutonomous},
				{UpperBound: 0.25, Level: escalation.LevelSemiAutonomous},
				{UpperBound: 0.35, Level: escalation.LevelHumanReview},
			},
			escalation.LevelEscalation,
			escalation.LevelHumanReview,
			escalation.WithDomain(0, 1),
		),
		FairnessDisparity: mustEvaluator(
			[]escalation.Band{
				{UpperBound: 0.15, Level: escalation.LevelGreen},
			},
			escalation.LevelRed,
			escalation.LevelRed,
			escalation.WithDomain(0, 1),
		),
		ReadinessShortfall: mustEvaluator(
			[]escalation.Band{
				{UpperBound: 0.30, Level: escalation.LevelGreen},
			},
			escalation.LevelRed,
			escalation.LevelRed,
			escalation.WithDomain(0, 1),
		),
	}
}

// mustEvaluator builds a built-in evaluator. The built-in tables are
// validated by tests, so a failure here is a programming error.
func mustEvaluator(bands []escalation.Band, terminal, reviewAt escalation.Level, opts ...escalation.TableOption) *escalation.Evaluator {
	table, err := escalation.NewThresholdTable(bands, terminal, opts...)
	if err != nil {
		panic(err)
	}
	ev, err := escalation.NewEvaluator(table, reviewAt)
	if err != nil {
		panic(err)
	}
	return ev
}

// unboundedMax stands in for an omitted domain max in policy files.
var unboundedMax = math.Inf(1)
