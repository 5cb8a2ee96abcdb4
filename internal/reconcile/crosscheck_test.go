package reconcile

import (
	"testing"
	"time"

	"github.com/solheim/stonadskjerne/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan = model.Month{Year: 2021, Month: time.January}
	feb = model.Month{Year: 2021, Month: time.February}
)

func ytelseLine(period model.Month, amount int64, reversal bool) model.SimulatedLine {
	return model.SimulatedLine{
		EffectiveFrom:   period.Start(),
		EffectiveTo:     period.End(),
		AccountingClass: "SUUFORE",
		ClassType:       model.ClassTypeYtelse,
		RateType:        "MND",
		Amount:          amount,
		IsReversal:      reversal,
	}
}

func feilLine(period model.Month, amount int64) model.SimulatedLine {
	return model.SimulatedLine{
		EffectiveFrom:   period.Start(),
		EffectiveTo:     period.End(),
		AccountingClass: "KL_KODE_FEIL_INNT",
		ClassType:       model.ClassTypeFeil,
		Amount:          amount,
	}
}

func simulationOf(months ...model.SimulatedMonth) model.SimulationResult {
	return model.SimulationResult{
		ComputedDate: time.Date(2021, time.April, 14, 0, 0, 0, 0, time.UTC),
		SubjectID:    "12345678901",
		Months:       months,
	}
}

func simMonth(period model.Month, lines ...model.SimulatedLine) model.SimulatedMonth {
	return model.SimulatedMonth{
		Period:   period,
		Payments: []model.SimulatedPayment{{DueDate: period.End(), Lines: lines}},
	}
}

func timelineMonth(period model.Month, amount int64) TimelineMonth {
	return TimelineMonth{Period: period, Range: period.Range(), Amount: amount}
}

func TestCrossCheckAccepted(t *testing.T) {
	sim := simulationOf(
		simMonth(jan, ytelseLine(jan, 20779, false)),
		simMonth(feb, ytelseLine(feb, 20779, false)),
	)
	timeline := PaymentTimeline{timelineMonth(jan, 20779), timelineMonth(feb, 20779)}

	result := CrossCheck(sim, timeline)
	require.True(t, result.Accepted())
	require.NotNil(t, result.Simulation)
	assert.Empty(t, result.Discrepancies)
	assert.False(t, result.HasErrorPayment())
}

func TestCrossCheckBackPaymentReconciles(t *testing.T) {
	// Raised amount with a reversal: the timeline carries the new
	// monthly amount, the reversal only recomputes money already paid.
	sim := simulationOf(simMonth(jan,
		ytelseLine(jan, 20779, false),
		ytelseLine(jan, -15000, true),
	))
	timeline := PaymentTimeline{timelineMonth(jan, 20779)}

	result := CrossCheck(sim, timeline)
	assert.True(t, result.Accepted())
}

func TestCrossCheckAmountMismatch(t *testing.T) {
	sim := simulationOf(simMonth(jan, ytelseLine(jan, 15000, false)))
	timeline := PaymentTimeline{timelineMonth(jan, 20000)}

	result := CrossCheck(sim, timeline)
	require.False(t, result.Accepted())
	assert.Nil(t, result.Simulation)
	require.Len(t, result.Discrepancies, 1)

	d := result.Discrepancies[0]
	assert.Equal(t, AmountMismatch, d.Kind)
	assert.Equal(t, jan, d.Period)
	assert.Equal(t, int64(15000), d.SimulatedAmount)
	assert.Equal(t, int64(20000), d.TimelineAmount)
}

func TestCrossCheckMonthMissingFromTimeline(t *testing.T) {
	// A month only the simulation knows about compares against zero.
	sim := simulationOf(simMonth(jan, ytelseLine(jan, 20779, false)))

	result := CrossCheck(sim, nil)
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, AmountMismatch, result.Discrepancies[0].Kind)
	assert.Equal(t, int64(0), result.Discrepancies[0].TimelineAmount)
}

func TestCrossCheckMonthMissingFromSimulation(t *testing.T) {
	sim := simulationOf(simMonth(jan, ytelseLine(jan, 20779, false)))
	timeline := PaymentTimeline{timelineMonth(jan, 20779), timelineMonth(feb, 20779)}

	result := CrossCheck(sim, timeline)
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, feb, result.Discrepancies[0].Period)
	assert.Equal(t, int64(0), result.Discrepancies[0].SimulatedAmount)
}

func TestCrossCheckPeriodMismatch(t *testing.T) {
	// Same amount, but the simulated lines only cover half the month.
	line := ytelseLine(jan, 20779, false)
	line.EffectiveTo = time.Date(2021, time.January, 15, 0, 0, 0, 0, time.UTC)

	sim := simulationOf(simMonth(jan, line))
	timeline := PaymentTimeline{timelineMonth(jan, 20779)}

	result := CrossCheck(sim, timeline)
	require.False(t, result.Accepted())
	require.Len(t, result.Discrepancies, 1)

	d := result.Discrepancies[0]
	assert.Equal(t, PeriodMismatch, d.Kind)
	assert.True(t, d.Overlap.Equal(model.DateRange{From: jan.Start(), To: line.EffectiveTo}))
}

func TestCrossCheckBothMismatchesSameMonth(t *testing.T) {
	line := ytelseLine(jan, 15000, false)
	line.EffectiveTo = time.Date(2021, time.January, 15, 0, 0, 0, 0, time.UTC)

	sim := simulationOf(simMonth(jan, line))
	timeline := PaymentTimeline{timelineMonth(jan, 20000)}

	result := CrossCheck(sim, timeline)
	require.Len(t, result.Discrepancies, 2)

	kinds := []DiscrepancyKind{result.Discrepancies[0].Kind, result.Discrepancies[1].Kind}
	assert.Contains(t, kinds, PeriodMismatch)
	assert.Contains(t, kinds, AmountMismatch)
}

func TestCrossCheckErrorPaymentAlwaysRejects(t *testing.T) {
	// The FEIL month nets to zero disbursement, and the timeline agrees,
	// yet the simulation must still be rejected.
	sim := simulationOf(simMonth(jan,
		feilLine(jan, 4755),
		ytelseLine(jan, 16024, false),
		ytelseLine(jan, -20779, true),
	))
	timeline := PaymentTimeline{timelineMonth(jan, 16024)}

	result := CrossCheck(sim, timeline)
	require.False(t, result.Accepted())
	assert.True(t, result.HasErrorPayment())
	assert.Equal(t, []model.Month{jan}, result.ErrorPaymentMonths)
	assert.Empty(t, result.Discrepancies)
}

func TestDiscrepancyString(t *testing.T) {
	d := Discrepancy{Kind: AmountMismatch, Period: jan, SimulatedAmount: 15000, TimelineAmount: 20000}
	assert.Contains(t, d.String(), "15000")
	assert.Contains(t, d.String(), "20000")

	p := Discrepancy{Kind: PeriodMismatch, Period: jan}
	assert.Contains(t, p.String(), "period")
}
