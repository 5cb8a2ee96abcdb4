package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/solheim/stonadskjerne/internal/common"
	"github.com/solheim/stonadskjerne/internal/model"
)

// SaveClaimDocument stores an inbound raw claim document. Documents are
// immutable after receipt; only their status ever changes.
func (s *SQLiteStorage) SaveClaimDocument(ctx context.Context, doc model.RawClaimDocument) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(doc.ID, "doc.ID"); err != nil {
		return err
	}
	if len(doc.Payload) == 0 {
		return fmt.Errorf("doc.Payload cannot be empty")
	}

	status := doc.Status
	if status == "" {
		status = model.ClaimUnprocessed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claim_documents (id, received_at, payload, status)
		VALUES (?, ?, ?, ?)
	`, doc.ID, doc.ReceivedAt, doc.Payload, string(status))
	if err != nil {
		return fmt.Errorf("failed to save claim document: %w", err)
	}
	return nil
}

// GetClaimDocument loads a claim document by id.
func (s *SQLiteStorage) GetClaimDocument(ctx context.Context, id string) (*model.RawClaimDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var doc model.RawClaimDocument
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, received_at, payload, status FROM claim_documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.ReceivedAt, &doc.Payload, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load claim document: %w", err)
	}
	doc.Status = model.ClaimDocumentStatus(status)
	return &doc, nil
}

// ListUnprocessedClaimDocuments returns documents awaiting processing,
// oldest first, so claims are consumed in arrival order.
func (s *SQLiteStorage) ListUnprocessedClaimDocuments(ctx context.Context) ([]model.RawClaimDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, received_at, payload, status FROM claim_documents
		WHERE status = ?
		ORDER BY received_at
	`, string(model.ClaimUnprocessed))
	if err != nil {
		return nil, fmt.Errorf("failed to list claim documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []model.RawClaimDocument
	for rows.Next() {
		var doc model.RawClaimDocument
		var status string
		if err := rows.Scan(&doc.ID, &doc.ReceivedAt, &doc.Payload, &status); err != nil {
			return nil, fmt.Errorf("failed to scan claim document: %w", err)
		}
		doc.Status = model.ClaimDocumentStatus(status)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// MarkClaimDocumentProcessed flips a document to processed. The guard on
// current status makes the flip one-way; a second attempt reports
// ErrClaimAlreadyProcessed instead of silently succeeding.
func (s *SQLiteStorage) MarkClaimDocumentProcessed(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE claim_documents SET status = ? WHERE id = ? AND status = ?
	`, string(model.ClaimProcessed), id, string(model.ClaimUnprocessed))
	if err != nil {
		return fmt.Errorf("failed to mark claim document processed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM claim_documents WHERE id = ?)", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check claim document existence: %w", err)
		}
		if !exists {
			return common.ErrNotFound
		}
		return common.ErrClaimAlreadyProcessed
	}
	return nil
}
