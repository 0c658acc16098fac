package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"custos/internal/escalation/metrics"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/audit"
	"custos/pkg/requestcontext"
)

// Auditor is the slice of the audit publisher the service needs.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service routes signals through named evaluators and carries the side
// effects around the pure evaluation: audit emission (fail-closed), queue
// placement, and metrics.
type Service struct {
	evaluators map[string]*Evaluator
	queue      QueueStore
	auditor    Auditor
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	agentID    string
}

// NewService wires the escalation service.
//
// Errors: CodeConfiguration when a required dependency is missing.
func NewService(evaluators map[string]*Evaluator, queue QueueStore, auditor Auditor, m *metrics.Metrics, logger *slog.Logger, agentID string) (*Service, error) {
	if len(evaluators) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "at least one policy evaluator is required")
	}
	if queue == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "escalation queue store is required")
	}
	if auditor == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "audit publisher is required")
	}
	return &Service{
		evaluators: evaluators,
		queue:      queue,
		auditor:    auditor,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("custos/escalation"),
		agentID:    agentID,
	}, nil
}

// Result is the outcome of one governed evaluation, including whether the
// case was placed on the review queue.
type Result struct {
	Outcome
	Policy    string
	Escalated bool
}

// Evaluate runs the signal through the named policy. The evaluation is
// pure; this method owns the side effects. The audit write is fail-closed:
// if it fails, the decision is not returned.
func (s *Service) Evaluate(ctx context.Context, policyName string, sig Signal) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "escalation.Evaluate",
		trace.WithAttributes(
			attribute.String("policy", policyName),
			attribute.String("signal", sig.Name),
		))
	defer span.End()

	start := time.Now()

	ev, ok := s.evaluators[policyName]
	if !ok {
		return Result{}, dErrors.Newf(dErrors.CodeNotFound, "unknown policy %q", policyName)
	}

	out, err := ev.Evaluate(sig)
	if err != nil {
		return Result{}, err
	}
	span.SetAttributes(attribute.String("level", string(out.Level)))

	if err := s.auditor.Emit(ctx, audit.Event{
		CaseID:    sig.CaseID,
		AgentID:   s.agentID,
		Subject:   sig.Name,
		Action:    string(audit.ActionDecisionEvaluated),
		Policy:    policyName,
		Decision:  string(out.Level),
		Reason:    fmt.Sprintf("%s=%g", sig.Name, sig.Value),
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return Result{}, err
	}

	result := Result{Outcome: out, Policy: policyName}

	if out.RequiresReview {
		ticket := Ticket{
			CaseID:      sig.CaseID,
			Policy:      policyName,
			SignalName:  sig.Name,
			SignalValue: sig.Value,
			Level:       out.Level,
			Reason:      fmt.Sprintf("%s level %s requires review", policyName, out.Level),
			EscalatedAt: requestcontext.Now(ctx),
		}
		if err := s.queue.Push(ctx, ticket); err != nil && !dErrors.HasCode(err, dErrors.CodeConflict) {
			return Result{}, err
		} else if err == nil {
			result.Escalated = true
			s.metrics.IncEscalation(policyName)
			if err := s.auditor.Emit(ctx, audit.Event{
				CaseID:    sig.CaseID,
				AgentID:   s.agentID,
				Subject:   sig.Name,
				Action:    string(audit.ActionCaseEscalated),
				Policy:    policyName,
				Decision:  string(out.Level),
				Reason:    ticket.Reason,
				RequestID: requestcontext.RequestID(ctx),
			}); err != nil {
				return Result{}, err
			}
		}
	}

	s.metrics.IncOutcome(policyName, string(out.Level))
	s.metrics.ObserveEvaluateLatency(time.Since(start))

	return result, nil
}

// Pending lists cases awaiting review, oldest first.
func (s *Service) Pending(ctx context.Context, limit int) ([]Ticket, error) {
	return s.queue.Pending(ctx, limit)
}

// Resolve records a reviewer verdict for an escalated case and removes it
// from the queue.
func (s *Service) Resolve(ctx context.Context, caseID domain.CaseID, approved bool, approver string) (Ticket, error) {
	ticket, err := s.queue.Resolve(ctx, caseID)
	if err != nil {
		return Ticket{}, err
	}

	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		CaseID:    caseID,
		AgentID:   s.agentID,
		Subject:   ticket.SignalName,
		Action:    string(audit.ActionEscalationResolved),
		Policy:    ticket.Policy,
		Decision:  verdict,
		ActorID:   approver,
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return Ticket{}, err
	}

	s.metrics.IncResolution(verdict)
	s.logger.InfoContext(ctx, "escalation resolved",
		"case_id", caseID,
		"policy", ticket.Policy,
		"verdict", verdict,
		"approver", approver,
	)
	return ticket, nil
}

// Recent returns the most recent audit records of one policy's evaluator,
// in call order.
func (s *Service) Recent(policyName string, limit int) ([]AuditRecord, error) {
	ev, ok := s.evaluators[policyName]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown policy %q", policyName)
	}
	return ev.Recent(limit), nil
}

// Evaluator exposes a named evaluator to sibling modules that embed
// escalation decisions in their own workflows.
func (s *Service) Evaluator(policyName string) (*Evaluator, error) {
	ev, ok := s.evaluators[policyName]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown policy %q", policyName)
	}
	return ev, nil
}

// QueueDepth reports how many cases are pending review.
func (s *Service) QueueDepth(ctx context.Context) (int, error) {
	tickets, err := s.queue.Pending(ctx, 0)
	if err != nil {
		return 0, err
	}
	return len(tickets), nil
}
