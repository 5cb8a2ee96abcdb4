// Package interpret classifies disbursement simulations into semantically
// meaningful payment categories: ordinary payments, back-payments
// (etterbetaling), error payments (feilutbetaling) and months with no
// payment at all. Everything here is a pure function over an immutable
// simulation; results are recomputed on demand and never persisted.
package interpret

import (
	"time"

	"github.com/solheim/stonadskjerne/internal/model"
)

// PaymentKind is the classification of a payment block.
type PaymentKind string

// Payment classifications.
const (
	KindOrdinary     PaymentKind = "ORDINARY"
	KindBackPayment  PaymentKind = "BACK_PAYMENT"
	KindErrorPayment PaymentKind = "ERROR_PAYMENT"
	KindNoPayment    PaymentKind = "NO_PAYMENT"
)

// DetailKind tags the line items contributing to a classification.
type DetailKind string

// Detail classifications.
const (
	DetailOrdinary       DetailKind = "ORDINARY"
	DetailBackPayment    DetailKind = "BACK_PAYMENT"
	DetailErrorPayment   DetailKind = "ERROR_PAYMENT"
	DetailPreviouslyPaid DetailKind = "PREVIOUSLY_PAID"
)

// Detail is a single contributing line item of an interpreted payment.
// Synthesized back-payment details have no accounting class.
type Detail struct {
	Kind            DetailKind
	AccountingClass string
	Period          model.DateRange
	Amount          int64
}

// Payment is a classified payment block.
type Payment struct {
	DueDate time.Time
	Payee   string
	Kind    PaymentKind
	Details []Detail
}

// Month is the interpretation of one simulated month, with one
// classified payment per source payment block, order preserved.
type Month struct {
	Period   model.Month
	Payments []Payment
}

// HasErrorPayment reports whether any payment block in the month was
// classified as an error payment.
func (m Month) HasErrorPayment() bool {
	for _, p := range m.Payments {
		if p.Kind == KindErrorPayment {
			return true
		}
	}
	return false
}

// Simulation interprets every month of a simulation, in order.
func Simulation(sim model.SimulationResult) []Month {
	months := make([]Month, 0, len(sim.Months))
	for _, sm := range sim.Months {
		payments := make([]Payment, 0, len(sm.Payments))
		for _, sp := range sm.Payments {
			payments = append(payments, classify(sp))
		}
		months = append(months, Month{Period: sm.Period, Payments: payments})
	}
	return months
}

// classify applies the classification rules to one payment block.
// Restricted to YTEL lines, with FEIL lines acting as the overpayment
// marker. Any FEIL line forces ERROR_PAYMENT for the whole block,
// regardless of reversal lines; overpayment handling takes precedence
// over back-payment handling.
func classify(sp model.SimulatedPayment) Payment {
	var (
		hasYtelse   bool
		hasReversal bool
		hasFeil     bool
		net         int64
	)
	for _, l := range sp.Lines {
		switch {
		case l.IsFeil():
			hasFeil = true
		case l.IsYtelse():
			hasYtelse = true
			if l.IsReversal {
				hasReversal = true
			}
			net += l.Amount
		}
	}

	p := Payment{DueDate: sp.DueDate, Payee: sp.PayeeName}
	switch {
	case hasFeil:
		p.Kind = KindErrorPayment
		p.Details = errorPaymentDetails(sp.Lines)
	case hasYtelse && !hasReversal:
		p.Kind = KindOrdinary
		p.Details = ordinaryDetails(sp.Lines)
	case hasReversal && net > 0:
		p.Kind = KindBackPayment
		p.Details = backPaymentDetails(sp.Lines, net)
	default:
		p.Kind = KindNoPayment
	}
	return p
}

// ordinaryDetails tags every non-reversal YTEL line as ordinary.
func ordinaryDetails(lines []model.SimulatedLine) []Detail {
	var out []Detail
	for _, l := range lines {
		if l.IsYtelse() && !l.IsReversal {
			out = append(out, detail(DetailOrdinary, l))
		}
	}
	return out
}

// errorPaymentDetails interleaves the new correct amount (ordinary), the
// wrongly paid amount (error) and the reversed previous payment
// (previously paid), in source order.
func errorPaymentDetails(lines []model.SimulatedLine) []Detail {
	var out []Detail
	for _, l := range lines {
		switch {
		case l.IsFeil():
			out = append(out, detail(DetailErrorPayment, l))
		case l.IsYtelse() && l.IsReversal:
			out = append(out, detail(DetailPreviouslyPaid, l))
		case l.IsYtelse():
			out = append(out, detail(DetailOrdinary, l))
		}
	}
	return out
}

// backPaymentDetails lists the new amount and the reversal, then appends
// a synthesized back-payment detail equal to the positive net owed to
// the recipient.
func backPaymentDetails(lines []model.SimulatedLine, net int64) []Detail {
	var out []Detail
	var span model.DateRange
	for _, l := range lines {
		if !l.IsYtelse() {
			continue
		}
		if span.IsZero() {
			span = l.EffectiveRange()
		} else {
			if l.EffectiveFrom.Before(span.From) {
				span.From = l.EffectiveFrom
			}
			if l.EffectiveTo.After(span.To) {
				span.To = l.EffectiveTo
			}
		}
		if l.IsReversal {
			out = append(out, detail(DetailPreviouslyPaid, l))
		} else {
			out = append(out, detail(DetailOrdinary, l))
		}
	}
	out = append(out, Detail{Kind: DetailBackPayment, Period: span, Amount: net})
	return out
}

func detail(kind DetailKind, l model.SimulatedLine) Detail {
	return Detail{
		Kind:            kind,
		AccountingClass: l.AccountingClass,
		Period:          l.EffectiveRange(),
		Amount:          l.Amount,
	}
}
