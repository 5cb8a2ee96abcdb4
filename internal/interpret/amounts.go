package interpret

import "github.com/solheim/stonadskjerne/internal/model"

// ErrorPaymentAmounts returns the wrongly paid amount per month: the sum
// of positive FEIL-class line amounts. Months without error payments are
// skipped. This is the simulation side of the claim consistency check.
func ErrorPaymentAmounts(sim model.SimulationResult) model.MonthAmounts {
	var out model.MonthAmounts
	for _, sm := range sim.Months {
		var sum int64
		for _, sp := range sm.Payments {
			for _, l := range sp.Lines {
				if l.IsFeil() && l.Amount > 0 {
					sum += l.Amount
				}
			}
		}
		if sum > 0 {
			out = append(out, model.MonthAmount{Period: sm.Period, Amount: sum})
		}
	}
	return out
}

// SimulatedAmounts returns the amount the simulation says will actually
// be disbursed per month: the sum of non-reversal YTEL line amounts.
// Reversals are excluded since they recompute money already paid.
func SimulatedAmounts(sim model.SimulationResult) model.MonthAmounts {
	out := make(model.MonthAmounts, 0, len(sim.Months))
	for _, sm := range sim.Months {
		var sum int64
		for _, sp := range sm.Payments {
			for _, l := range sp.Lines {
				if l.IsYtelse() && !l.IsReversal {
					sum += l.Amount
				}
			}
		}
		out = append(out, model.MonthAmount{Period: sm.Period, Amount: sum})
	}
	return out
}

// HasErrorPayments reports whether any month of the simulation contains
// an error payment.
func HasErrorPayments(sim model.SimulationResult) bool {
	return len(ErrorPaymentAmounts(sim)) > 0
}

// MonthsWithActivity returns the months the simulation covers, in order.
// The Ledger omits inactive months, so this is the activity set.
func MonthsWithActivity(sim model.SimulationResult) []model.Month {
	months := make([]model.Month, 0, len(sim.Months))
	for _, sm := range sim.Months {
		months = append(months, sm.Period)
	}
	return months
}

// MonthSummary is a per-month digest of an interpreted simulation,
// suitable for presenting to a caseworker.
type MonthSummary struct {
	Period          model.Month
	SimulatedAmount int64
	ErrorAmount     int64
	HasErrorPayment bool
}

// Summarize condenses each simulated month to its disbursed amount and
// any error-account amount.
func Summarize(sim model.SimulationResult) []MonthSummary {
	out := make([]MonthSummary, 0, len(sim.Months))
	for _, sm := range sim.Months {
		var s MonthSummary
		s.Period = sm.Period
		for _, sp := range sm.Payments {
			for _, l := range sp.Lines {
				switch {
				case l.IsYtelse() && !l.IsReversal:
					s.SimulatedAmount += l.Amount
				case l.IsFeil() && l.Amount > 0:
					s.ErrorAmount += l.Amount
				}
			}
		}
		s.HasErrorPayment = s.ErrorAmount > 0
		out = append(out, s)
	}
	return out
}
