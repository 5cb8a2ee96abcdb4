package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/solheim/stonadskjerne/internal/common"
	"github.com/solheim/stonadskjerne/internal/model"
	"github.com/solheim/stonadskjerne/internal/recoupment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testPeriod() model.DateRange {
	return model.DateRange{
		From: time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2021, time.February, 28, 0, 0, 0, 0, time.UTC),
	}
}

func testClaim() model.Claim {
	return model.Claim{
		CaseNumber:         "2021/12345",
		ExternalDecisionID: "436204",
		Caseworker:         "K231B433",
		Months: []model.ClaimMonth{{
			Period:      model.Month{Year: 2021, Month: time.January},
			TaxForGroup: 4000,
			Ytelse:      model.ClaimYtelse{ToReclaim: 4755, TaxRatePercent: 25},
		}},
	}
}

func TestWorkflowRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	now := time.Date(2021, time.April, 14, 12, 0, 0, 0, time.UTC)
	assessment := recoupment.NewAssessment("2021/12345", uuid.New(), testPeriod(), now)

	require.NoError(t, store.SaveWorkflow(ctx, assessment))

	stored, err := store.GetWorkflow(ctx, assessment.Meta().ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, recoupment.StateUnderAssessment, stored.Workflow.State())
	assert.Equal(t, "2021/12345", stored.Workflow.Meta().CaseNumber)
	assert.Equal(t, assessment.Meta().RevisionID, stored.Workflow.Meta().RevisionID)
	assert.True(t, stored.Workflow.Meta().Period.Equal(testPeriod()))
}

func TestWorkflowStateRoundTrips(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	assessment := recoupment.NewAssessment("2021/12345", uuid.New(), testPeriod(), time.Now().UTC())
	require.NoError(t, store.SaveWorkflow(ctx, assessment))

	// Assessment -> Decided
	decided := assessment.Reclaim()
	require.NoError(t, store.UpdateWorkflow(ctx, decided, 1))

	stored, err := store.GetWorkflow(ctx, assessment.Meta().ID)
	require.NoError(t, err)
	got, ok := stored.Workflow.(recoupment.DecidedAssessment)
	require.True(t, ok)
	assert.Equal(t, recoupment.Reclaim, got.Disposition)
	assert.Equal(t, int64(2), stored.Version)

	// Decided -> AwaitingClaim
	awaiting := decided.Complete()
	require.NoError(t, store.UpdateWorkflow(ctx, awaiting, 2))

	// AwaitingClaim -> ClaimReceived
	received := recoupment.ReceivedClaim{
		Instance:        assessment.Meta(),
		Disposition:     recoupment.Reclaim,
		Claim:           testClaim(),
		ClaimDocumentID: "doc-1",
		ClaimReceivedAt: time.Date(2021, time.April, 15, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.UpdateWorkflow(ctx, received, 3))

	stored, err = store.GetWorkflow(ctx, assessment.Meta().ID)
	require.NoError(t, err)
	gotReceived, ok := stored.Workflow.(recoupment.ReceivedClaim)
	require.True(t, ok)
	assert.Equal(t, "doc-1", gotReceived.ClaimDocumentID)
	assert.Equal(t, testClaim(), gotReceived.Claim)

	// ClaimReceived -> DecisionSent
	sent := received.RecordSent(model.TransmissionReceipt{
		SentAt:         time.Date(2021, time.April, 16, 10, 0, 0, 0, time.UTC),
		RequestPayload: []byte(`<req/>`),
	})
	require.NoError(t, store.UpdateWorkflow(ctx, sent, 4))

	stored, err = store.GetWorkflow(ctx, assessment.Meta().ID)
	require.NoError(t, err)
	gotSent, ok := stored.Workflow.(recoupment.SentDecision)
	require.True(t, ok)
	assert.Equal(t, []byte(`<req/>`), gotSent.Receipt.RequestPayload)
	assert.Equal(t, int64(5), stored.Version)
}

func TestUpdateWorkflowRejectsStaleVersion(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	assessment := recoupment.NewAssessment("2021/12345", uuid.New(), testPeriod(), time.Now().UTC())
	require.NoError(t, store.SaveWorkflow(ctx, assessment))

	require.NoError(t, store.UpdateWorkflow(ctx, assessment.Reclaim(), 1))

	// A second writer still holding version 1 loses.
	err := store.UpdateWorkflow(ctx, assessment.DoNotReclaim(), 1)
	assert.ErrorIs(t, err, common.ErrStaleWorkflow)

	stored, err := store.GetWorkflow(ctx, assessment.Meta().ID)
	require.NoError(t, err)
	decided := stored.Workflow.(recoupment.DecidedAssessment)
	assert.Equal(t, recoupment.Reclaim, decided.Disposition)
}

func TestUpdateWorkflowUnknownID(t *testing.T) {
	store := newTestStorage(t)

	wf := recoupment.NewAssessment("2021/12345", uuid.New(), testPeriod(), time.Now().UTC())
	err := store.UpdateWorkflow(context.Background(), wf, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetWorkflowByRevision(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	revisionID := uuid.New()
	assessment := recoupment.NewAssessment("2021/12345", revisionID, testPeriod(), time.Now().UTC())
	require.NoError(t, store.SaveWorkflow(ctx, assessment))

	stored, err := store.GetWorkflowByRevision(ctx, revisionID)
	require.NoError(t, err)
	assert.Equal(t, assessment.Meta().ID, stored.Workflow.Meta().ID)

	_, err = store.GetWorkflowByRevision(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveWorkflowRejectsDuplicateRevision(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	revisionID := uuid.New()
	first := recoupment.NewAssessment("2021/12345", revisionID, testPeriod(), time.Now().UTC())
	require.NoError(t, store.SaveWorkflow(ctx, first))

	second := recoupment.NewAssessment("2021/12345", revisionID, testPeriod(), time.Now().UTC())
	assert.Error(t, store.SaveWorkflow(ctx, second))
}

func TestGetAwaitingWorkflowByCase(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	assessment := recoupment.NewAssessment("2021/12345", uuid.New(), testPeriod(), time.Now().UTC())
	require.NoError(t, store.SaveWorkflow(ctx, assessment))

	// Not awaiting yet.
	_, err := store.GetAwaitingWorkflowByCase(ctx, "2021/12345")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.UpdateWorkflow(ctx, assessment.Reclaim().Complete(), 1))

	stored, err := store.GetAwaitingWorkflowByCase(ctx, "2021/12345")
	require.NoError(t, err)
	assert.Equal(t, recoupment.StateAwaitingClaim, stored.Workflow.State())
}

func TestListWorkflows(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2021, time.April, 14, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		wf := recoupment.NewAssessment("2021/12345", uuid.New(), testPeriod(), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.SaveWorkflow(ctx, wf))
	}

	stored, err := store.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i := 1; i < len(stored); i++ {
		assert.False(t, stored[i].Workflow.Meta().CreatedAt.Before(stored[i-1].Workflow.Meta().CreatedAt))
	}
}

func TestClaimDocumentLifecycle(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := model.RawClaimDocument{
		ID:         "doc-1",
		ReceivedAt: time.Date(2021, time.April, 15, 9, 0, 0, 0, time.UTC),
		Payload:    []byte(`{"caseNumber":"2021/12345"}`),
	}
	require.NoError(t, store.SaveClaimDocument(ctx, doc))

	got, err := store.GetClaimDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimUnprocessed, got.Status)
	assert.Equal(t, doc.Payload, got.Payload)

	unprocessed, err := store.ListUnprocessedClaimDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, unprocessed, 1)

	require.NoError(t, store.MarkClaimDocumentProcessed(ctx, "doc-1"))

	got, err = store.GetClaimDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimProcessed, got.Status)

	unprocessed, err = store.ListUnprocessedClaimDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, unprocessed)

	// Processing is one-way.
	err = store.MarkClaimDocumentProcessed(ctx, "doc-1")
	assert.ErrorIs(t, err, common.ErrClaimAlreadyProcessed)

	err = store.MarkClaimDocumentProcessed(ctx, "no-such-doc")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSimulationSnapshotRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	revisionID := uuid.New()
	sim := model.SimulationResult{
		ComputedDate: time.Date(2021, time.April, 14, 0, 0, 0, 0, time.UTC),
		SubjectID:    "12345678901",
		SubjectName:  "Ola Nordmann",
		NetAmount:    16024,
		Months: []model.SimulatedMonth{{
			Period: model.Month{Year: 2021, Month: time.January},
			Payments: []model.SimulatedPayment{{
				DueDate: time.Date(2021, time.January, 31, 0, 0, 0, 0, time.UTC),
				Lines: []model.SimulatedLine{{
					EffectiveFrom:   time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
					EffectiveTo:     time.Date(2021, time.January, 31, 0, 0, 0, 0, time.UTC),
					AccountingClass: "SUUFORE",
					ClassType:       model.ClassTypeYtelse,
					Amount:          16024,
				}},
			}},
		}},
	}

	require.NoError(t, store.SaveSimulationSnapshot(ctx, revisionID, sim))

	got, err := store.GetSimulationSnapshot(ctx, revisionID)
	require.NoError(t, err)
	assert.Equal(t, sim.SubjectID, got.SubjectID)
	assert.Equal(t, sim.NetAmount, got.NetAmount)
	require.Len(t, got.Months, 1)
	assert.Equal(t, sim.Months[0].Period, got.Months[0].Period)

	// Re-saving the same revision replaces the snapshot.
	sim.NetAmount = 20779
	require.NoError(t, store.SaveSimulationSnapshot(ctx, revisionID, sim))
	got, err = store.GetSimulationSnapshot(ctx, revisionID)
	require.NoError(t, err)
	assert.Equal(t, int64(20779), got.NetAmount)

	_, err = store.GetSimulationSnapshot(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}
