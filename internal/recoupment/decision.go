package recoupment

import (
	"math"

	"github.com/solheim/stonadskjerne/internal/model"
)

// ResponsibleUnit is the organizational unit stamped on every outbound
// recoupment decision.
const ResponsibleUnit = "8020"

// BuildDecisionDocument derives the tilbakekrevingsvedtak from the claim
// and the disposition. Deterministic; may be recomputed any number of
// times before sending. For a Reclaim disposition the full claim amount
// is reclaimed and tax is withheld; for DoNotReclaim the full amount is
// marked not-reclaimed and tax is zero. The error-account component is
// carried through from the claim unchanged in both cases.
func (r ReceivedClaim) BuildDecisionDocument() model.DecisionDocument {
	periods := make([]model.DecisionPeriod, 0, len(r.Claim.Months))
	for _, cm := range r.Claim.Months {
		periods = append(periods, model.DecisionPeriod{
			Period:          cm.Period,
			InterestAccrues: false,
			InterestAmount:  0,
			Ytelse:          ytelseLine(cm, r.Disposition),
			Feilutbetaling:  feilutbetalingLine(cm),
		})
	}
	return model.DecisionDocument{
		ExternalDecisionID: r.Claim.ExternalDecisionID,
		ResponsibleUnit:    ResponsibleUnit,
		ControlField:       r.Claim.ExternalControlField,
		Caseworker:         r.Claim.Caseworker,
		Periods:            periods,
	}
}

func ytelseLine(cm model.ClaimMonth, disposition Disposition) model.DecisionLine {
	if disposition == Reclaim {
		return model.DecisionLine{
			PreviouslyPaid: cm.Ytelse.PreviouslyPaid,
			NewAmount:      cm.Ytelse.NewlyPaid,
			ToReclaim:      cm.Ytelse.ToReclaim,
			NotReclaimed:   0,
			WithheldTax:    withheldTax(cm.Ytelse.ToReclaim, cm.Ytelse.TaxRatePercent, cm.TaxForGroup),
			Result:         model.ResultFullRecoupment,
			Liability:      model.LiabilityUser,
		}
	}
	return model.DecisionLine{
		PreviouslyPaid: cm.Ytelse.PreviouslyPaid,
		NewAmount:      cm.Ytelse.NewlyPaid,
		ToReclaim:      0,
		NotReclaimed:   cm.Ytelse.ToReclaim,
		WithheldTax:    0,
		Result:         model.ResultNoRecoupment,
		Liability:      model.LiabilityNotAssigned,
	}
}

// feilutbetalingLine carries the error-account amounts through as the
// Ledger stated them.
func feilutbetalingLine(cm model.ClaimMonth) model.DecisionLine {
	return model.DecisionLine{
		PreviouslyPaid: cm.Feilutbetaling.PreviouslyPaid,
		NewAmount:      cm.Feilutbetaling.NewlyPaid,
		ToReclaim:      cm.Feilutbetaling.ToReclaim,
		NotReclaimed:   cm.Feilutbetaling.NotReclaimed,
	}
}

// withheldTax computes floor(toReclaim × rate / 100), capped at the tax
// already paid for the benefit group that month.
func withheldTax(toReclaim int64, ratePercent float64, taxPaidForGroup int64) int64 {
	tax := int64(math.Floor(float64(toReclaim) * ratePercent / 100))
	if tax > taxPaidForGroup {
		return taxPaidForGroup
	}
	return tax
}
