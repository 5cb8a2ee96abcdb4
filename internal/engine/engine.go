// Package engine orchestrates the collaborators: it verifies revision
// simulations against the payment timeline, opens recoupment workflows,
// consumes inbound claim documents and transmits recoupment decisions.
// All state lives in storage; the engine itself is stateless between
// calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/solheim/stonadskjerne/internal/common"
	"github.com/solheim/stonadskjerne/internal/interpret"
	"github.com/solheim/stonadskjerne/internal/model"
	"github.com/solheim/stonadskjerne/internal/reconcile"
	"github.com/solheim/stonadskjerne/internal/recoupment"
	"github.com/solheim/stonadskjerne/internal/service"
)

// Engine coordinates simulation verification and the recoupment
// workflow lifecycle.
type Engine struct {
	storage   service.Storage
	simulator service.SimulationGateway
	timeline  service.TimelineProvider
	parser    service.ClaimParser
	revisions service.RevisionLookup
	decisions service.DecisionGateway
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an engine with all collaborators wired in.
func New(
	storage service.Storage,
	simulator service.SimulationGateway,
	timeline service.TimelineProvider,
	parser service.ClaimParser,
	revisions service.RevisionLookup,
	decisions service.DecisionGateway,
) *Engine {
	return &Engine{
		storage:   storage,
		simulator: simulator,
		timeline:  timeline,
		parser:    parser,
		revisions: revisions,
		decisions: decisions,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// SetLogger overrides the engine's logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// VerifyRevisionSimulation runs a dry-run disbursement computation for
// the revision's payment instructions and cross-checks it against the
// case's payment timeline. A simulation whose amounts and periods
// reconcile is snapshotted under the revision id, whether or not it
// carries error payments, so the later claim consistency check
// recomputes from exactly what this revision simulated.
func (e *Engine) VerifyRevisionSimulation(ctx context.Context, revisionID uuid.UUID, req service.PaymentRequest) (*reconcile.Result, error) {
	sim, err := e.simulator.Simulate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate payment for case %s: %w", req.CaseNumber, err)
	}

	timeline, err := e.timeline.Timeline(ctx, req.CaseNumber, req.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment timeline for case %s: %w", req.CaseNumber, err)
	}

	result := reconcile.CrossCheck(sim, timeline)
	if len(result.Discrepancies) > 0 {
		e.logger.Warn("Simulation rejected",
			"case", req.CaseNumber,
			"revision", revisionID,
			"discrepancies", len(result.Discrepancies))
		return &result, nil
	}

	// Snapshot whenever the amounts and periods reconcile. A simulation
	// rejected only for its error payments is exactly the one the
	// recoupment workflow later checks the claim against.
	if err := e.storage.SaveSimulationSnapshot(ctx, revisionID, sim); err != nil {
		return nil, fmt.Errorf("failed to snapshot simulation for revision %s: %w", revisionID, err)
	}

	if result.HasErrorPayment() {
		e.logger.Warn("Simulation carries error payments",
			"case", req.CaseNumber,
			"revision", revisionID,
			"errorPaymentMonths", len(result.ErrorPaymentMonths))
		return &result, nil
	}

	e.logger.Info("Simulation verified",
		"case", req.CaseNumber,
		"revision", revisionID,
		"netAmount", sim.NetAmount)
	return &result, nil
}

// OpenWorkflow opens the recoupment workflow for an iverksatt revision.
// A revision whose simulation carries no error payments gets the
// terminal NoRecoupmentNeeded instance; anything else opens an
// assessment for a caseworker.
func (e *Engine) OpenWorkflow(ctx context.Context, revisionID uuid.UUID) (recoupment.Workflow, error) {
	details, err := e.revisions.Lookup(ctx, revisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up revision %s: %w", revisionID, err)
	}

	if existing, err := e.storage.GetWorkflowByRevision(ctx, revisionID); err == nil {
		e.logger.Info("Workflow already exists for revision", "revision", revisionID, "state", existing.Workflow.State())
		return existing.Workflow, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	sim := details.Simulation
	period := simulationPeriod(sim)

	var wf recoupment.Workflow
	if len(interpret.ErrorPaymentAmounts(sim)) == 0 {
		wf = recoupment.NewNoRecoupmentNeeded(details.CaseNumber, revisionID, period, e.now())
	} else {
		wf = recoupment.NewAssessment(details.CaseNumber, revisionID, period, e.now())
	}

	if err := e.storage.SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to save workflow for revision %s: %w", revisionID, err)
	}

	e.logger.Info("Opened recoupment workflow",
		"workflow", wf.Meta().ID,
		"case", details.CaseNumber,
		"revision", revisionID,
		"state", wf.State())
	return wf, nil
}

// Decide records the caseworker's disposition on an assessment.
func (e *Engine) Decide(ctx context.Context, workflowID uuid.UUID, disposition recoupment.Disposition) (recoupment.DecidedAssessment, error) {
	stored, err := e.storage.GetWorkflow(ctx, workflowID)
	if err != nil {
		return recoupment.DecidedAssessment{}, err
	}

	assessment, ok := stored.Workflow.(recoupment.Assessment)
	if !ok {
		return recoupment.DecidedAssessment{}, fmt.Errorf(
			"workflow %s is in state %s, not %s: %w",
			workflowID, stored.Workflow.State(), recoupment.StateUnderAssessment, common.ErrInvalidStateTransition,
		)
	}

	var decided recoupment.DecidedAssessment
	switch disposition {
	case recoupment.Reclaim:
		decided = assessment.Reclaim()
	case recoupment.DoNotReclaim:
		decided = assessment.DoNotReclaim()
	default:
		return recoupment.DecidedAssessment{}, fmt.Errorf("unknown disposition %q", disposition)
	}

	if err := e.storage.UpdateWorkflow(ctx, decided, stored.Version); err != nil {
		return recoupment.DecidedAssessment{}, err
	}

	e.logger.Info("Workflow decided", "workflow", workflowID, "disposition", disposition)
	return decided, nil
}

// Complete finishes a decided assessment; the workflow then waits for
// the Ledger's claim document.
func (e *Engine) Complete(ctx context.Context, workflowID uuid.UUID) (recoupment.AwaitingClaim, error) {
	stored, err := e.storage.GetWorkflow(ctx, workflowID)
	if err != nil {
		return recoupment.AwaitingClaim{}, err
	}

	decided, ok := stored.Workflow.(recoupment.DecidedAssessment)
	if !ok {
		return recoupment.AwaitingClaim{}, fmt.Errorf(
			"workflow %s is in state %s, not %s: %w",
			workflowID, stored.Workflow.State(), recoupment.StateDecided, common.ErrInvalidStateTransition,
		)
	}

	awaiting := decided.Complete()
	if err := e.storage.UpdateWorkflow(ctx, awaiting, stored.Version); err != nil {
		return recoupment.AwaitingClaim{}, err
	}

	e.logger.Info("Assessment completed, awaiting claim", "workflow", workflowID, "case", awaiting.CaseNumber)
	return awaiting, nil
}

// IssueDecision derives the decision document from a received claim,
// transmits it to the Ledger and records the receipt. The derivation is
// repeatable; only a successful transmission moves the workflow to its
// terminal state.
func (e *Engine) IssueDecision(ctx context.Context, workflowID uuid.UUID) (recoupment.SentDecision, error) {
	stored, err := e.storage.GetWorkflow(ctx, workflowID)
	if err != nil {
		return recoupment.SentDecision{}, err
	}

	received, ok := stored.Workflow.(recoupment.ReceivedClaim)
	if !ok {
		return recoupment.SentDecision{}, fmt.Errorf(
			"workflow %s is in state %s, not %s: %w",
			workflowID, stored.Workflow.State(), recoupment.StateClaimReceived, common.ErrInvalidStateTransition,
		)
	}

	doc := received.BuildDecisionDocument()
	receipt, err := e.decisions.Send(ctx, doc)
	if err != nil {
		return recoupment.SentDecision{}, fmt.Errorf("failed to send decision for workflow %s: %w", workflowID, err)
	}

	sent := received.RecordSent(receipt)
	if err := e.storage.UpdateWorkflow(ctx, sent, stored.Version); err != nil {
		return recoupment.SentDecision{}, err
	}

	e.logger.Info("Decision sent",
		"workflow", workflowID,
		"case", sent.CaseNumber,
		"disposition", sent.Disposition)
	return sent, nil
}

// simulationPeriod derives the covered period from a simulation's
// months.
func simulationPeriod(sim model.SimulationResult) model.DateRange {
	if len(sim.Months) == 0 {
		return model.DateRange{}
	}
	first := sim.Months[0].Period
	last := sim.Months[0].Period
	for _, m := range sim.Months[1:] {
		if m.Period.Before(first) {
			first = m.Period
		}
		if last.Before(m.Period) {
			last = m.Period
		}
	}
	return model.DateRange{From: first.Start(), To: last.End()}
}
