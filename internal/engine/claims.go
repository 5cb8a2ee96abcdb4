package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/solheim/stonadskjerne/internal/common"
	"github.com/solheim/stonadskjerne/internal/model"
	"github.com/solheim/stonadskjerne/internal/recoupment"
)

// ClaimProcessingSummary reports the outcome of one processing run.
type ClaimProcessingSummary struct {
	Processed int
	Skipped   int
	Failed    int
}

// errNoAwaitingWorkflow marks a claim document whose case has no
// workflow awaiting a claim yet. Distinct from storage ErrNotFound so
// that a missing simulation snapshot is reported as a fault instead of
// being silently re-skipped forever.
var errNoAwaitingWorkflow = errors.New("no workflow awaiting a claim for case")

// ProcessClaimDocuments consumes the unprocessed claim documents in
// arrival order. Each document is matched to the workflow awaiting a
// claim on its case, cross-checked against the snapshotted simulation
// and folded into the workflow. Documents with no matching workflow are
// skipped and retried on the next run; a consistency mismatch marks the
// run failed for that document but does not stop the others.
func (e *Engine) ProcessClaimDocuments(ctx context.Context) (ClaimProcessingSummary, error) {
	var summary ClaimProcessingSummary

	docs, err := e.storage.ListUnprocessedClaimDocuments(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list unprocessed claim documents: %w", err)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		switch err := e.processClaimDocument(ctx, doc); {
		case err == nil:
			summary.Processed++
		case errors.Is(err, errNoAwaitingWorkflow):
			// Leave the document unprocessed for a later run.
			e.logger.Info("No awaiting workflow for claim document", "document", doc.ID)
			summary.Skipped++
		default:
			e.logger.Error("Failed to process claim document", "document", doc.ID, "error", err)
			summary.Failed++
		}
	}

	e.logger.Info("Claim processing run finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}

func (e *Engine) processClaimDocument(ctx context.Context, doc model.RawClaimDocument) error {
	claim, err := e.parser.Parse(doc)
	if err != nil {
		return err
	}

	stored, err := e.storage.GetAwaitingWorkflowByCase(ctx, claim.CaseNumber)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("case %s: %w", claim.CaseNumber, errNoAwaitingWorkflow)
	}
	if err != nil {
		return err
	}
	awaiting, ok := stored.Workflow.(recoupment.AwaitingClaim)
	if !ok {
		return fmt.Errorf(
			"workflow %s is in state %s, not %s: %w",
			stored.Workflow.Meta().ID, stored.Workflow.State(), recoupment.StateAwaitingClaim, common.ErrInvalidStateTransition,
		)
	}

	lookup := func(revisionID uuid.UUID) (model.SimulationResult, error) {
		snap, err := e.storage.GetSimulationSnapshot(ctx, revisionID)
		if err != nil {
			return model.SimulationResult{}, err
		}
		return *snap, nil
	}

	// The document was already parsed above to find its case.
	parsed := func(model.RawClaimDocument) (model.Claim, error) { return claim, nil }
	received, err := awaiting.ClaimReceived(doc, e.now(), lookup, parsed)
	if err != nil {
		return err
	}

	if err := e.storage.UpdateWorkflow(ctx, received, stored.Version); err != nil {
		return err
	}
	if err := e.storage.MarkClaimDocumentProcessed(ctx, doc.ID); err != nil {
		return err
	}

	e.logger.Info("Claim document processed",
		"document", doc.ID,
		"workflow", received.ID,
		"case", received.CaseNumber)
	return nil
}

// ReceiveClaimDocument stores an inbound raw claim document for later
// processing. Receipt and processing are decoupled; the Ledger's
// delivery must never be lost to a processing fault.
func (e *Engine) ReceiveClaimDocument(ctx context.Context, doc model.RawClaimDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.ReceivedAt.IsZero() {
		doc.ReceivedAt = e.now()
	}
	doc.Status = model.ClaimUnprocessed

	if err := e.storage.SaveClaimDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store claim document: %w", err)
	}
	e.logger.Info("Claim document received", "document", doc.ID)
	return nil
}
