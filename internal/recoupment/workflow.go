// Package recoupment implements the decision workflow used when a case
// revision creates an overpayment that may be reclaimed from the
// recipient. Each workflow state is a distinct type exposing only its
// legal transitions, so out-of-order calls are compile errors rather
// than runtime surprises. Transitions are externally paced, possibly
// days apart; persistence between steps belongs to a collaborator.
package recoupment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solheim/stonadskjerne/internal/common"
	"github.com/solheim/stonadskjerne/internal/interpret"
	"github.com/solheim/stonadskjerne/internal/model"
)

// Disposition is the caseworker's choice on whether to reclaim.
type Disposition string

// Dispositions.
const (
	Reclaim      Disposition = "RECLAIM"
	DoNotReclaim Disposition = "DO_NOT_RECLAIM"
)

// StateKind tags the current state of a persisted workflow instance.
type StateKind string

// Workflow states, forward-only.
const (
	StateUnderAssessment    StateKind = "UNDER_ASSESSMENT"
	StateDecided            StateKind = "DECIDED"
	StateAwaitingClaim      StateKind = "AWAITING_CLAIM"
	StateClaimReceived      StateKind = "CLAIM_RECEIVED"
	StateDecisionSent       StateKind = "DECISION_SENT"
	StateNoRecoupmentNeeded StateKind = "NO_RECOUPMENT_NEEDED"
)

// Instance is the identity shared by every state of a workflow. One
// instance exists per case revision that produced an overpayment.
type Instance struct {
	CreatedAt  time.Time
	ID         uuid.UUID
	RevisionID uuid.UUID
	CaseNumber string
	Period     model.DateRange
}

// Workflow is the sum type over all states. It exists so persistence can
// round-trip instances; it deliberately exposes no transitions.
type Workflow interface {
	State() StateKind
	Meta() Instance
}

// LookupRevisionSimulation fetches the simulation an already-iverksatt
// revision was accepted with. Injected so the workflow stays testable
// without a real case store.
type LookupRevisionSimulation func(revisionID uuid.UUID) (model.SimulationResult, error)

// ParseClaim maps a raw claim document to its parsed form. Injected; the
// wire schema belongs to the parser collaborator.
type ParseClaim func(model.RawClaimDocument) (model.Claim, error)

// Assessment is the initial state: an overpayment exists and a
// caseworker has yet to decide whether to reclaim it.
type Assessment struct {
	Instance
}

// NewAssessment opens a workflow for a revision that produced an
// overpayment.
func NewAssessment(caseNumber string, revisionID uuid.UUID, period model.DateRange, now time.Time) Assessment {
	return Assessment{Instance: Instance{
		ID:         uuid.New(),
		CaseNumber: caseNumber,
		RevisionID: revisionID,
		Period:     period,
		CreatedAt:  now,
	}}
}

// Reclaim decides that the overpayment shall be reclaimed.
func (a Assessment) Reclaim() DecidedAssessment {
	return DecidedAssessment{Instance: a.Instance, Disposition: Reclaim}
}

// DoNotReclaim decides that the overpayment shall not be reclaimed.
func (a Assessment) DoNotReclaim() DecidedAssessment {
	return DecidedAssessment{Instance: a.Instance, Disposition: DoNotReclaim}
}

// State implements Workflow.
func (a Assessment) State() StateKind { return StateUnderAssessment }

// Meta implements Workflow.
func (a Assessment) Meta() Instance { return a.Instance }

// DecidedAssessment holds a decided but not yet completed assessment.
// The decision can not be changed once the assessment completes.
type DecidedAssessment struct {
	Instance
	Disposition Disposition
}

// Complete finishes the assessment; the workflow now waits for the
// Ledger's claim document.
func (d DecidedAssessment) Complete() AwaitingClaim {
	return AwaitingClaim{Instance: d.Instance, Disposition: d.Disposition}
}

// State implements Workflow.
func (d DecidedAssessment) State() StateKind { return StateDecided }

// Meta implements Workflow.
func (d DecidedAssessment) Meta() Instance { return d.Instance }

// AwaitingClaim waits for the asynchronously arriving kravgrunnlag.
type AwaitingClaim struct {
	Instance
	Disposition Disposition
}

// ClaimReceived consumes an inbound claim document after verifying that
// it corresponds to the overpayment this system computed for the
// revision. A mismatch is fatal and non-retryable: both sides are
// deterministic recomputations of already-fixed inputs, so retrying
// reproduces the same mismatch.
func (w AwaitingClaim) ClaimReceived(
	doc model.RawClaimDocument,
	receivedAt time.Time,
	lookup LookupRevisionSimulation,
	parse ParseClaim,
) (ReceivedClaim, error) {
	claim, err := parse(doc)
	if err != nil {
		return ReceivedClaim{}, fmt.Errorf("failed to parse claim document %s: %w", doc.ID, err)
	}

	sim, err := lookup(w.RevisionID)
	if err != nil {
		return ReceivedClaim{}, fmt.Errorf("failed to look up revision %s: %w", w.RevisionID, err)
	}

	fromSimulation := interpret.ErrorPaymentAmounts(sim)
	fromClaim := claim.ReclaimAmounts()
	if !fromSimulation.Equal(fromClaim) {
		return ReceivedClaim{}, fmt.Errorf(
			"revision %s: simulation says %d, claim says %d: %w",
			w.RevisionID, fromSimulation.Sum(), fromClaim.Sum(), common.ErrClaimSimulationMismatch,
		)
	}

	return ReceivedClaim{
		Instance:        w.Instance,
		Disposition:     w.Disposition,
		Claim:           claim,
		ClaimDocumentID: doc.ID,
		ClaimReceivedAt: receivedAt,
	}, nil
}

// State implements Workflow.
func (w AwaitingClaim) State() StateKind { return StateAwaitingClaim }

// Meta implements Workflow.
func (w AwaitingClaim) Meta() Instance { return w.Instance }

// ReceivedClaim holds a cross-checked claim. The decision document can
// be re-derived any number of times; only sending is irreversible.
type ReceivedClaim struct {
	ClaimReceivedAt time.Time
	Instance
	ClaimDocumentID string
	Claim           model.Claim
	Disposition     Disposition
}

// RecordSent records the transmission receipt and moves the workflow to
// its terminal state.
func (r ReceivedClaim) RecordSent(receipt model.TransmissionReceipt) SentDecision {
	return SentDecision{
		Instance:        r.Instance,
		Disposition:     r.Disposition,
		Claim:           r.Claim,
		ClaimDocumentID: r.ClaimDocumentID,
		ClaimReceivedAt: r.ClaimReceivedAt,
		Receipt:         receipt,
	}
}

// State implements Workflow.
func (r ReceivedClaim) State() StateKind { return StateClaimReceived }

// Meta implements Workflow.
func (r ReceivedClaim) Meta() Instance { return r.Instance }

// SentDecision is terminal: the recoupment decision has been transmitted
// to the Ledger. No further transitions exist.
type SentDecision struct {
	ClaimReceivedAt time.Time
	Instance
	ClaimDocumentID string
	Claim           model.Claim
	Disposition     Disposition
	Receipt         model.TransmissionReceipt
}

// State implements Workflow.
func (s SentDecision) State() StateKind { return StateDecisionSent }

// Meta implements Workflow.
func (s SentDecision) Meta() Instance { return s.Instance }

// NoRecoupmentNeeded is terminal: the case revision produced no
// overpayment, so there is nothing to assess.
type NoRecoupmentNeeded struct {
	Instance
}

// NewNoRecoupmentNeeded records that a revision needs no recoupment.
func NewNoRecoupmentNeeded(caseNumber string, revisionID uuid.UUID, period model.DateRange, now time.Time) NoRecoupmentNeeded {
	return NoRecoupmentNeeded{Instance: Instance{
		ID:         uuid.New(),
		CaseNumber: caseNumber,
		RevisionID: revisionID,
		Period:     period,
		CreatedAt:  now,
	}}
}

// State implements Workflow.
func (n NoRecoupmentNeeded) State() StateKind { return StateNoRecoupmentNeeded }

// Meta implements Workflow.
func (n NoRecoupmentNeeded) Meta() Instance { return n.Instance }
