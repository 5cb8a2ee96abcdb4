package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/solheim/stonadskjerne/internal/model"
	"github.com/solheim/stonadskjerne/internal/reconcile"
	"github.com/solheim/stonadskjerne/internal/service"
)

type mockSimulator struct {
	sim   model.SimulationResult
	err   error
	calls int
}

func (m *mockSimulator) Simulate(_ context.Context, _ service.PaymentRequest) (model.SimulationResult, error) {
	m.calls++
	return m.sim, m.err
}

type mockTimeline struct {
	timeline reconcile.PaymentTimeline
	err      error
}

func (m *mockTimeline) Timeline(_ context.Context, _ string, _ model.DateRange) (reconcile.PaymentTimeline, error) {
	return m.timeline, m.err
}

type mockRevisions struct {
	details service.RevisionDetails
	err     error
}

func (m *mockRevisions) Lookup(_ context.Context, _ uuid.UUID) (service.RevisionDetails, error) {
	return m.details, m.err
}

type mockDecisions struct {
	receipt model.TransmissionReceipt
	err     error
	sent    []model.DecisionDocument
}

func (m *mockDecisions) Send(_ context.Context, doc model.DecisionDocument) (model.TransmissionReceipt, error) {
	if m.err != nil {
		return model.TransmissionReceipt{}, m.err
	}
	m.sent = append(m.sent, doc)
	return m.receipt, nil
}
