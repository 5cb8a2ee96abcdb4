package model

import "time"

// AccountingClassType partitions simulated lines into benefit, tax and
// error-account categories. Only YTEL lines participate in payment
// classification; FEIL lines mark overpayments.
type AccountingClassType string

// Accounting class types used by the Ledger.
const (
	ClassTypeYtelse  AccountingClassType = "YTEL"
	ClassTypeSkatt   AccountingClassType = "SKAT"
	ClassTypeFeil    AccountingClassType = "FEIL"
	ClassTypeMotpost AccountingClassType = "MOTP"
)

// SimulationResult is a disbursement simulation returned by the Ledger.
// It is produced once per simulation call and never mutated; every
// derived view (interpretation, cross-check) is recomputed from it.
type SimulationResult struct {
	ComputedDate time.Time
	SubjectID    string
	SubjectName  string
	NetAmount    int64
	Months       []SimulatedMonth
}

// SimulatedMonth is one monthly period of a simulation. The Ledger skips
// months without activity entirely, so presence alone is information.
type SimulatedMonth struct {
	Period   Month
	Payments []SimulatedPayment
}

// SimulatedPayment is a payee-level payment block within a month.
type SimulatedPayment struct {
	DueDate        time.Time
	PayeeSystemID  string
	PayeeName      string
	IsErrorAccount bool
	Lines          []SimulatedLine
}

// SimulatedLine is a single signed line item within a payment block.
// Reversal lines (IsReversal) are always negative and represent money
// already paid that the Ledger is backing out for recomputation.
type SimulatedLine struct {
	EffectiveFrom   time.Time
	EffectiveTo     time.Time
	Account         string
	AccountingClass string
	ClassType       AccountingClassType
	Description     string
	RateType        string
	Amount          int64
	RateAmount      int64
	UnitCount       int
	DisabilityGrade int
	IsReversal      bool
}

// EffectiveRange returns the line's own effective day range.
func (l SimulatedLine) EffectiveRange() DateRange {
	return DateRange{From: l.EffectiveFrom, To: l.EffectiveTo}
}

// IsYtelse reports whether the line belongs to the benefit class.
func (l SimulatedLine) IsYtelse() bool {
	return l.ClassType == ClassTypeYtelse
}

// IsFeil reports whether the line belongs to the error account class.
func (l SimulatedLine) IsFeil() bool {
	return l.ClassType == ClassTypeFeil
}
