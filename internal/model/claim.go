package model

import "time"

// ClaimDocumentStatus tracks the one-way lifecycle of an inbound claim
// document.
type ClaimDocumentStatus string

// Claim document statuses.
const (
	ClaimUnprocessed ClaimDocumentStatus = "UNPROCESSED"
	ClaimProcessed   ClaimDocumentStatus = "PROCESSED"
)

// RawClaimDocument is an inbound kravgrunnlag exactly as the Ledger
// pushed it. The payload is authoritative and immutable; only the status
// transitions, and only from UNPROCESSED to PROCESSED.
type RawClaimDocument struct {
	ReceivedAt time.Time
	ID         string
	Status     ClaimDocumentStatus
	Payload    []byte
}

// Claim is a parsed kravgrunnlag: the Ledger's formal statement of how
// much was overpaid per month and should be reclaimed.
type Claim struct {
	CaseNumber           string
	ExternalDecisionID   string
	ExternalControlField string
	Caseworker           string
	Months               []ClaimMonth
}

// ClaimMonth is one month of a claim. TaxForGroup is the tax already
// withheld for the benefit group that month; it caps the tax portion of
// any recoupment.
type ClaimMonth struct {
	Period         Month
	TaxForGroup    int64
	Ytelse         ClaimYtelse
	Feilutbetaling ClaimFeilutbetaling
}

// ClaimYtelse is the benefit component of a claim month.
type ClaimYtelse struct {
	PreviouslyPaid int64
	NewlyPaid      int64
	ToReclaim      int64
	TaxRatePercent float64
}

// ClaimFeilutbetaling is the error-account component of a claim month.
type ClaimFeilutbetaling struct {
	PreviouslyPaid int64
	NewlyPaid      int64
	ToReclaim      int64
	NotReclaimed   int64
}

// ReclaimAmounts returns the months where the claim says money should be
// reclaimed, with the reclaimable benefit amount per month. Months with
// nothing to reclaim are skipped.
func (c Claim) ReclaimAmounts() MonthAmounts {
	var out MonthAmounts
	for _, m := range c.Months {
		if m.Ytelse.ToReclaim > 0 {
			out = append(out, MonthAmount{Period: m.Period, Amount: m.Ytelse.ToReclaim})
		}
	}
	return out
}
