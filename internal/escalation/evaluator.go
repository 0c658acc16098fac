package escalation

import (
	"math"
	"sync"
	"time"

	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Signal is a named numeric value driving one escalation decision, tied to
// the case it belongs to. Immutable once produced.
type Signal struct {
	CaseID domain.CaseID
	Name   string
	Value  float64
}

// Outcome is the result of evaluating a signal: the matched level, its
// severity rank within the table, and whether a human must review before
// the case proceeds.
type Outcome struct {
	Level          Level
	Severity       int
	RequiresReview bool
}

// AuditRecord captures one evaluation for later reporting. Records are
// append-only and never mutated after append.
type AuditRecord struct {
	CaseID         domain.CaseID
	SignalName     string
	SignalValue    float64
	Level          Level
	Severity       int
	RequiresReview bool
	At             time.Time
}

// Evaluator maps signals to outcomes through a threshold table and keeps an
// owned, append-only audit log. Evaluation itself is a pure, total function
// of the signal and the table; only the log append takes the lock, so
// concurrent callers are safe.
type Evaluator struct {
	table  *ThresholdTable
	cutoff int
	now    func() time.Time

	mu  sync.Mutex
	log []AuditRecord
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator builds an evaluator over the table. reviewAt is the severity
// cutoff: outcomes at or above that level require human review.
//
// Errors: CodeConfiguration when the table is nil or reviewAt is not one of
// the table's levels.
func NewEvaluator(table *ThresholdTable, reviewAt Level, opts ...Option) (*Evaluator, error) {
	if table == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "threshold table is required")
	}
	cutoff := table.SeverityOf(reviewAt)
	if cutoff < 0 {
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "review cutoff %q is not a level of the table", reviewAt)
	}
	e := &Evaluator{
		table:  table,
		cutoff: cutoff,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate classifies the signal and appends exactly one audit record.
//
// Errors: CodeInvalidSignal when the value is non-finite or outside the
// table's domain. No record is appended for rejected signals.
func (e *Evaluator) Evaluate(sig Signal) (Outcome, error) {
	if math.IsNaN(sig.Value) || math.IsInf(sig.Value, 0) {
		return Outcome{}, dErrors.Newf(dErrors.CodeInvalidSignal, "signal %q must be finite", sig.Name)
	}
	if !e.table.inDomain(sig.Value) {
		return Outcome{}, dErrors.Newf(dErrors.CodeInvalidSignal,
			"signal %q value %g outside domain [%g, %g]", sig.Name, sig.Value, e.table.domainMin, e.table.domainMax)
	}

	level, severity := e.table.Classify(sig.Value)
	out := Outcome{
		Level:          level,
		Severity:       severity,
		RequiresReview: severity >= e.cutoff,
	}

	e.mu.Lock()
	e.log = append(e.log, AuditRecord{
		CaseID:         sig.CaseID,
		SignalName:     sig.Name,
		SignalValue:    sig.Value,
		Level:          out.Level,
		Severity:       out.Severity,
		RequiresReview: out.RequiresReview,
		At:             e.now(),
	})
	e.mu.Unlock()

	return out, nil
}

// Recent returns the most recent records in call order. A non-positive or
// oversized limit returns the whole log. The returned slice is a copy.
func (e *Evaluator) Recent(limit int) []AuditRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := 0
	if limit > 0 && limit < len(e.log) {
		start = len(e.log) - limit
	}
	return append([]AuditRecord(nil), e.log[start:]...)
}

// Table exposes the evaluator's threshold table for reporting.
func (e *Evaluator) Table() *ThresholdTable { return e.table }
