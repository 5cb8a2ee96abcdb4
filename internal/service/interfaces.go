// Package service defines the collaborator contracts this core consumes:
// persistence, the Ledger gateways, the payment-timeline provider, the
// claim parser and the revision lookup. The core never talks to the
// outside world directly; everything arrives through these interfaces.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/solheim/stonadskjerne/internal/model"
	"github.com/solheim/stonadskjerne/internal/reconcile"
	"github.com/solheim/stonadskjerne/internal/recoupment"
)

// PaymentRequest describes the payment instructions a simulation is run
// for. The full instruction format belongs to the gateway collaborator.
type PaymentRequest struct {
	CaseNumber string
	SubjectID  string
	Period     model.DateRange
}

// RevisionDetails is what the revision lookup returns: the revision's
// identity and the simulation it was accepted with.
type RevisionDetails struct {
	RevisionID uuid.UUID
	CaseNumber string
	Simulation model.SimulationResult
}

// StoredWorkflow pairs a workflow with its persistence version, used for
// the compare-and-swap update discipline.
type StoredWorkflow struct {
	Workflow recoupment.Workflow
	Version  int64
}

// Storage defines the contract for the persistence layer. It owns the
// single-writer discipline for workflow transitions: UpdateWorkflow
// compares against the stored version and rejects stale writers.
type Storage interface {
	// Workflow operations
	SaveWorkflow(ctx context.Context, wf recoupment.Workflow) error
	GetWorkflow(ctx context.Context, id uuid.UUID) (*StoredWorkflow, error)
	GetWorkflowByRevision(ctx context.Context, revisionID uuid.UUID) (*StoredWorkflow, error)
	GetAwaitingWorkflowByCase(ctx context.Context, caseNumber string) (*StoredWorkflow, error)
	ListWorkflows(ctx context.Context) ([]StoredWorkflow, error)
	UpdateWorkflow(ctx context.Context, wf recoupment.Workflow, expectedVersion int64) error

	// Claim document operations
	SaveClaimDocument(ctx context.Context, doc model.RawClaimDocument) error
	GetClaimDocument(ctx context.Context, id string) (*model.RawClaimDocument, error)
	ListUnprocessedClaimDocuments(ctx context.Context) ([]model.RawClaimDocument, error)
	MarkClaimDocumentProcessed(ctx context.Context, id string) error

	// Simulation snapshots, kept per revision for the claim consistency check
	SaveSimulationSnapshot(ctx context.Context, revisionID uuid.UUID, sim model.SimulationResult) error
	GetSimulationSnapshot(ctx context.Context, revisionID uuid.UUID) (*model.SimulationResult, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// SimulationGateway runs a dry-run disbursement computation at the
// Ledger. Failure kinds are surfaced as the sentinel errors in
// internal/common; the wire protocol is the gateway's concern.
type SimulationGateway interface {
	Simulate(ctx context.Context, req PaymentRequest) (model.SimulationResult, error)
}

// TimelineProvider supplies the month-by-month net amount view built
// from previously issued and newly computed payment lines.
type TimelineProvider interface {
	Timeline(ctx context.Context, caseNumber string, period model.DateRange) (reconcile.PaymentTimeline, error)
}

// ClaimParser maps a raw claim document to its parsed form.
type ClaimParser interface {
	Parse(doc model.RawClaimDocument) (model.Claim, error)
}

// RevisionLookup fetches an iverksatt revision with its simulation.
type RevisionLookup interface {
	Lookup(ctx context.Context, revisionID uuid.UUID) (RevisionDetails, error)
}

// DecisionGateway transmits a recoupment decision document to the
// Ledger and returns the raw transmission receipt.
type DecisionGateway interface {
	Send(ctx context.Context, doc model.DecisionDocument) (model.TransmissionReceipt, error)
}
