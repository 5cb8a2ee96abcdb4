// Package reconcile cross-checks a Ledger simulation against the payment
// timeline this system computed on its own. It is a synchronous
// validation gate: any discrepancy means a logic bug in entitlement
// computation or an unexpected Ledger response, and the simulation must
// not be submitted.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/solheim/stonadskjerne/internal/interpret"
	"github.com/solheim/stonadskjerne/internal/model"
)

// TimelineMonth is one month of the internally computed payment
// timeline: the net amount the system believes will actually be
// disbursed, and the date range the underlying payment lines cover.
type TimelineMonth struct {
	Period model.Month
	Range  model.DateRange
	Amount int64
}

// PaymentTimeline is the ordered month view built from previously issued
// and newly computed payment lines. Supplied by a collaborator.
type PaymentTimeline []TimelineMonth

// DiscrepancyKind discriminates the two discrepancy variants.
type DiscrepancyKind string

// Discrepancy kinds.
const (
	AmountMismatch DiscrepancyKind = "AMOUNT_MISMATCH"
	PeriodMismatch DiscrepancyKind = "PERIOD_MISMATCH"
)

// Discrepancy is a per-month difference between simulation and timeline.
// A month can produce both an amount and a period mismatch in the same
// run. Discrepancies are values the caller must branch on, never errors.
type Discrepancy struct {
	Kind            DiscrepancyKind
	Period          model.Month
	SimulatedAmount int64
	TimelineAmount  int64
	Overlap         model.DateRange
}

func (d Discrepancy) String() string {
	switch d.Kind {
	case PeriodMismatch:
		return fmt.Sprintf("%s %s: simulated period does not match timeline period", d.Kind, d.Period)
	default:
		return fmt.Sprintf("%s %s: simulated %d, timeline %d", d.Kind, d.Period, d.SimulatedAmount, d.TimelineAmount)
	}
}

// Result carries either the accepted simulation or the reasons it was
// rejected. Callers must treat any non-accepted result as "do not submit
// this payment to the Ledger".
type Result struct {
	Simulation         *model.SimulationResult
	Discrepancies      []Discrepancy
	ErrorPaymentMonths []model.Month
}

// Accepted reports whether the simulation passed every check.
func (r Result) Accepted() bool {
	return r.Simulation != nil
}

// HasErrorPayment reports whether any month classified as an error
// payment. Error payments are never accepted automatically, even when
// all amounts reconcile.
func (r Result) HasErrorPayment() bool {
	return len(r.ErrorPaymentMonths) > 0
}

// CrossCheck compares the simulation against the timeline month by
// month. The amount check and the period check run independently for
// every month present on either side; an error-payment month rejects the
// whole result regardless of amount equality.
func CrossCheck(sim model.SimulationResult, timeline PaymentTimeline) Result {
	simMonths := simulationByMonth(sim)
	tlMonths := make(map[model.Month]TimelineMonth, len(timeline))
	for _, tm := range timeline {
		tlMonths[tm.Period] = tm
	}

	var result Result
	for _, period := range unionOfMonths(simMonths, tlMonths) {
		simSide, inSim := simMonths[period]
		tlSide, inTimeline := tlMonths[period]

		if inSim && inTimeline && !simSide.periodRange.IsZero() && !simSide.periodRange.Equal(tlSide.Range) {
			overlap, _ := simSide.periodRange.Overlap(tlSide.Range)
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Kind:    PeriodMismatch,
				Period:  period,
				Overlap: overlap,
			})
		}

		if simSide.amount != tlSide.Amount {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Kind:            AmountMismatch,
				Period:          period,
				SimulatedAmount: simSide.amount,
				TimelineAmount:  tlSide.Amount,
			})
		}
	}

	for _, im := range interpret.Simulation(sim) {
		if im.HasErrorPayment() {
			result.ErrorPaymentMonths = append(result.ErrorPaymentMonths, im.Period)
		}
	}

	if len(result.Discrepancies) == 0 && len(result.ErrorPaymentMonths) == 0 {
		result.Simulation = &sim
	}
	return result
}

type simulatedMonthSide struct {
	periodRange model.DateRange
	amount      int64
}

// simulationByMonth sums non-reversal YTEL amounts per month and derives
// the date range those lines cover.
func simulationByMonth(sim model.SimulationResult) map[model.Month]simulatedMonthSide {
	out := make(map[model.Month]simulatedMonthSide, len(sim.Months))
	for _, sm := range sim.Months {
		side := simulatedMonthSide{}
		for _, sp := range sm.Payments {
			for _, l := range sp.Lines {
				if !l.IsYtelse() || l.IsReversal {
					continue
				}
				side.amount += l.Amount
				if side.periodRange.IsZero() {
					side.periodRange = l.EffectiveRange()
					continue
				}
				if l.EffectiveFrom.Before(side.periodRange.From) {
					side.periodRange.From = l.EffectiveFrom
				}
				if l.EffectiveTo.After(side.periodRange.To) {
					side.periodRange.To = l.EffectiveTo
				}
			}
		}
		out[sm.Period] = side
	}
	return out
}

func unionOfMonths(sim map[model.Month]simulatedMonthSide, tl map[model.Month]TimelineMonth) []model.Month {
	seen := make(map[model.Month]struct{}, len(sim)+len(tl))
	var months []model.Month
	for m := range sim {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			months = append(months, m)
		}
	}
	for m := range tl {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			months = append(months, m)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}
