package model

import "time"

// DecisionResult is the Ledger's result code for a recoupment decision.
type DecisionResult string

// Decision result codes.
const (
	ResultFullRecoupment DecisionResult = "FULL_TILBAKEKREVING"
	ResultNoRecoupment   DecisionResult = "INGEN_TILBAKEKREVING"
)

// LiabilityCode states who is held liable for the overpayment.
type LiabilityCode string

// Liability codes.
const (
	LiabilityUser        LiabilityCode = "BRUKER"
	LiabilityNotAssigned LiabilityCode = "IKKE_FORDELT"
)

// DecisionDocument is the outbound tilbakekrevingsvedtak: the decision,
// per period and accounting line, on how much is or is not reclaimed.
// Built immediately before transmission and immutable thereafter.
type DecisionDocument struct {
	ExternalDecisionID string
	ResponsibleUnit    string
	ControlField       string
	Caseworker         string
	Periods            []DecisionPeriod
}

// DecisionPeriod is one month of the decision. Interest is never accrued
// by this system.
type DecisionPeriod struct {
	Period          Month
	InterestAccrues bool
	InterestAmount  int64
	Ytelse          DecisionLine
	Feilutbetaling  DecisionLine
}

// DecisionLine is one accounting line of a decision period. Result and
// Liability are only set on the benefit line; the error-account line is
// carried through from the claim unchanged.
type DecisionLine struct {
	Result         DecisionResult
	Liability      LiabilityCode
	PreviouslyPaid int64
	NewAmount      int64
	ToReclaim      int64
	NotReclaimed   int64
	WithheldTax    int64
}

// TransmissionReceipt is the raw record of a transmitted decision
// document: what was sent, what came back, and when.
type TransmissionReceipt struct {
	SentAt          time.Time
	RequestPayload  []byte
	ResponsePayload []byte
}
