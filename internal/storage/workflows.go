package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/solheim/stonadskjerne/internal/common"
	"github.com/solheim/stonadskjerne/internal/model"
	"github.com/solheim/stonadskjerne/internal/recoupment"
	"github.com/solheim/stonadskjerne/internal/service"
)

const workflowColumns = `id, case_number, revision_id, period_from, period_to,
	state, disposition, claim_document_id, claim_received_at, claim_json, receipt_json,
	version, created_at`

// SaveWorkflow inserts a newly created workflow instance at version 1.
// Workflows are created exactly once per revision; the unique constraint
// on revision_id enforces that.
func (s *SQLiteStorage) SaveWorkflow(ctx context.Context, wf recoupment.Workflow) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	row, err := encodeWorkflow(wf)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (
			id, case_number, revision_id, period_from, period_to,
			state, disposition, claim_document_id, claim_received_at, claim_json, receipt_json,
			version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	`,
		row.id, row.caseNumber, row.revisionID, row.periodFrom, row.periodTo,
		row.state, row.disposition, row.claimDocumentID, row.claimReceivedAt, row.claimJSON, row.receiptJSON,
		row.createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}
	return nil
}

// GetWorkflow loads a workflow instance by id.
func (s *SQLiteStorage) GetWorkflow(ctx context.Context, id uuid.UUID) (*service.StoredWorkflow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getWorkflowWhere(ctx, "id = ?", id.String())
}

// GetWorkflowByRevision loads the workflow created for a case revision.
func (s *SQLiteStorage) GetWorkflowByRevision(ctx context.Context, revisionID uuid.UUID) (*service.StoredWorkflow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getWorkflowWhere(ctx, "revision_id = ?", revisionID.String())
}

// GetAwaitingWorkflowByCase finds the workflow awaiting a claim document
// for the given case. Claim documents carry only a case number, so this
// is how an inbound claim is correlated to its workflow.
func (s *SQLiteStorage) GetAwaitingWorkflowByCase(ctx context.Context, caseNumber string) (*service.StoredWorkflow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(caseNumber, "caseNumber"); err != nil {
		return nil, err
	}
	return s.getWorkflowWhere(ctx, "case_number = ? AND state = ?", caseNumber, string(recoupment.StateAwaitingClaim))
}

func (s *SQLiteStorage) getWorkflowWhere(ctx context.Context, where string, args ...any) (*service.StoredWorkflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE %s ORDER BY created_at LIMIT 1", workflowColumns, where)

	var row workflowRow
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&row.id, &row.caseNumber, &row.revisionID, &row.periodFrom, &row.periodTo,
		&row.state, &row.disposition, &row.claimDocumentID, &row.claimReceivedAt, &row.claimJSON, &row.receiptJSON,
		&row.version, &row.createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	return row.decode()
}

// ListWorkflows returns all workflow instances, oldest first.
func (s *SQLiteStorage) ListWorkflows(ctx context.Context) ([]service.StoredWorkflow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM workflows ORDER BY created_at", workflowColumns)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []service.StoredWorkflow
	for rows.Next() {
		var row workflowRow
		if err := rows.Scan(
			&row.id, &row.caseNumber, &row.revisionID, &row.periodFrom, &row.periodTo,
			&row.state, &row.disposition, &row.claimDocumentID, &row.claimReceivedAt, &row.claimJSON, &row.receiptJSON,
			&row.version, &row.createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		stored, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, *stored)
	}
	return out, rows.Err()
}

// UpdateWorkflow persists a transitioned workflow, comparing against the
// version the caller read. A stale version means another writer got
// there first; the transition must be re-evaluated, not blindly retried.
func (s *SQLiteStorage) UpdateWorkflow(ctx context.Context, wf recoupment.Workflow, expectedVersion int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	row, err := encodeWorkflow(wf)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE workflows
		SET state = ?, disposition = ?, claim_document_id = ?, claim_received_at = ?,
			claim_json = ?, receipt_json = ?, version = version + 1
		WHERE id = ? AND version = ?
	`,
		row.state, row.disposition, row.claimDocumentID, row.claimReceivedAt,
		row.claimJSON, row.receiptJSON,
		row.id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM workflows WHERE id = ?)", row.id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check workflow existence: %w", err)
		}
		if !exists {
			return common.ErrNotFound
		}
		return common.ErrStaleWorkflow
	}
	return nil
}

type workflowRow struct {
	periodFrom      time.Time
	periodTo        time.Time
	createdAt       time.Time
	id              string
	caseNumber      string
	revisionID      string
	state           string
	disposition     sql.NullString
	claimDocumentID sql.NullString
	claimJSON       sql.NullString
	receiptJSON     sql.NullString
	claimReceivedAt sql.NullTime
	version         int64
}

func encodeWorkflow(wf recoupment.Workflow) (workflowRow, error) {
	meta := wf.Meta()
	row := workflowRow{
		id:         meta.ID.String(),
		caseNumber: meta.CaseNumber,
		revisionID: meta.RevisionID.String(),
		periodFrom: meta.Period.From,
		periodTo:   meta.Period.To,
		state:      string(wf.State()),
		createdAt:  meta.CreatedAt,
	}

	switch w := wf.(type) {
	case recoupment.Assessment, recoupment.NoRecoupmentNeeded:
		// no extra columns
	case recoupment.DecidedAssessment:
		row.disposition = nullString(string(w.Disposition))
	case recoupment.AwaitingClaim:
		row.disposition = nullString(string(w.Disposition))
	case recoupment.ReceivedClaim:
		row.disposition = nullString(string(w.Disposition))
		row.claimDocumentID = nullString(w.ClaimDocumentID)
		row.claimReceivedAt = sql.NullTime{Time: w.ClaimReceivedAt, Valid: true}
		claimJSON, err := json.Marshal(w.Claim)
		if err != nil {
			return workflowRow{}, fmt.Errorf("failed to encode claim: %w", err)
		}
		row.claimJSON = nullString(string(claimJSON))
	case recoupment.SentDecision:
		row.disposition = nullString(string(w.Disposition))
		row.claimDocumentID = nullString(w.ClaimDocumentID)
		row.claimReceivedAt = sql.NullTime{Time: w.ClaimReceivedAt, Valid: true}
		claimJSON, err := json.Marshal(w.Claim)
		if err != nil {
			return workflowRow{}, fmt.Errorf("failed to encode claim: %w", err)
		}
		row.claimJSON = nullString(string(claimJSON))
		receiptJSON, err := json.Marshal(w.Receipt)
		if err != nil {
			return workflowRow{}, fmt.Errorf("failed to encode receipt: %w", err)
		}
		row.receiptJSON = nullString(string(receiptJSON))
	default:
		return workflowRow{}, fmt.Errorf("unknown workflow state %T", wf)
	}
	return row, nil
}

// decode rebuilds the state-specific workflow type from a row. A row
// whose columns do not match its state tag fails loudly.
func (r workflowRow) decode() (*service.StoredWorkflow, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow id %q: %w", r.id, err)
	}
	revisionID, err := uuid.Parse(r.revisionID)
	if err != nil {
		return nil, fmt.Errorf("invalid revision id %q: %w", r.revisionID, err)
	}

	meta := recoupment.Instance{
		ID:         id,
		CaseNumber: r.caseNumber,
		RevisionID: revisionID,
		Period:     model.DateRange{From: r.periodFrom, To: r.periodTo},
		CreatedAt:  r.createdAt,
	}

	var wf recoupment.Workflow
	switch recoupment.StateKind(r.state) {
	case recoupment.StateUnderAssessment:
		wf = recoupment.Assessment{Instance: meta}
	case recoupment.StateNoRecoupmentNeeded:
		wf = recoupment.NoRecoupmentNeeded{Instance: meta}
	case recoupment.StateDecided:
		wf = recoupment.DecidedAssessment{Instance: meta, Disposition: recoupment.Disposition(r.disposition.String)}
	case recoupment.StateAwaitingClaim:
		wf = recoupment.AwaitingClaim{Instance: meta, Disposition: recoupment.Disposition(r.disposition.String)}
	case recoupment.StateClaimReceived:
		claim, err := r.decodeClaim()
		if err != nil {
			return nil, err
		}
		wf = recoupment.ReceivedClaim{
			Instance:        meta,
			Disposition:     recoupment.Disposition(r.disposition.String),
			Claim:           claim,
			ClaimDocumentID: r.claimDocumentID.String,
			ClaimReceivedAt: r.claimReceivedAt.Time,
		}
	case recoupment.StateDecisionSent:
		claim, err := r.decodeClaim()
		if err != nil {
			return nil, err
		}
		var receipt model.TransmissionReceipt
		if !r.receiptJSON.Valid {
			return nil, fmt.Errorf("workflow %s in state %s has no receipt", r.id, r.state)
		}
		if err := json.Unmarshal([]byte(r.receiptJSON.String), &receipt); err != nil {
			return nil, fmt.Errorf("failed to decode receipt for workflow %s: %w", r.id, err)
		}
		wf = recoupment.SentDecision{
			Instance:        meta,
			Disposition:     recoupment.Disposition(r.disposition.String),
			Claim:           claim,
			ClaimDocumentID: r.claimDocumentID.String,
			ClaimReceivedAt: r.claimReceivedAt.Time,
			Receipt:         receipt,
		}
	default:
		return nil, fmt.Errorf("unknown workflow state %q for workflow %s", r.state, r.id)
	}

	return &service.StoredWorkflow{Workflow: wf, Version: r.version}, nil
}

func (r workflowRow) decodeClaim() (model.Claim, error) {
	if !r.claimJSON.Valid {
		return model.Claim{}, fmt.Errorf("workflow %s in state %s has no claim", r.id, r.state)
	}
	var claim model.Claim
	if err := json.Unmarshal([]byte(r.claimJSON.String), &claim); err != nil {
		return model.Claim{}, fmt.Errorf("failed to decode claim for workflow %s: %w", r.id, err)
	}
	return claim, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
