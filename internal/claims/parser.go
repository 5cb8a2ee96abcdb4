// Package claims provides the default claim-document parser. The wire
// schema of a kravgrunnlag belongs to the Ledger integration; this
// parser decodes the JSON form used by local delivery and tests, and is
// injected wherever a service.ClaimParser is needed.
package claims

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/solheim/stonadskjerne/internal/model"
)

// Parser decodes JSON claim payloads into model.Claim.
type Parser struct{}

// NewParser creates a claim document parser.
func NewParser() *Parser {
	return &Parser{}
}

type claimPayload struct {
	CaseNumber         string          `json:"caseNumber"`
	ExternalDecisionID string          `json:"externalDecisionId"`
	ControlField       string          `json:"controlField"`
	Caseworker         string          `json:"caseworker"`
	Months             []payloadMonth  `json:"months"`
}

type payloadMonth struct {
	Period         model.Month    `json:"period"`
	TaxForGroup    int64          `json:"taxForGroup"`
	Ytelse         payloadYtelse  `json:"ytelse"`
	Feilutbetaling payloadFeilutb `json:"feilutbetaling"`
}

type payloadYtelse struct {
	PreviouslyPaid int64   `json:"amountPreviouslyPaid"`
	NewlyPaid      int64   `json:"amountNewlyPaid"`
	ToReclaim      int64   `json:"amountToReclaim"`
	TaxRatePercent float64 `json:"taxRatePercent"`
}

type payloadFeilutb struct {
	PreviouslyPaid int64 `json:"amountPreviouslyPaid"`
	NewlyPaid      int64 `json:"amountNewlyPaid"`
	ToReclaim      int64 `json:"amountToReclaim"`
	NotReclaimed   int64 `json:"amountNotReclaimed"`
}

// Parse implements service.ClaimParser.
func (p *Parser) Parse(doc model.RawClaimDocument) (model.Claim, error) {
	var payload claimPayload
	if err := json.Unmarshal(doc.Payload, &payload); err != nil {
		return model.Claim{}, fmt.Errorf("failed to decode claim document %s: %w", doc.ID, err)
	}

	if payload.CaseNumber == "" {
		return model.Claim{}, fmt.Errorf("claim document %s has no case number", doc.ID)
	}
	if len(payload.Months) == 0 {
		return model.Claim{}, fmt.Errorf("claim document %s has no months", doc.ID)
	}

	claim := model.Claim{
		CaseNumber:           payload.CaseNumber,
		ExternalDecisionID:   payload.ExternalDecisionID,
		ExternalControlField: payload.ControlField,
		Caseworker:           payload.Caseworker,
		Months:               make([]model.ClaimMonth, 0, len(payload.Months)),
	}
	for _, m := range payload.Months {
		if m.Ytelse.ToReclaim < 0 || m.Feilutbetaling.ToReclaim < 0 {
			return model.Claim{}, fmt.Errorf("claim document %s month %s has negative reclaim amount", doc.ID, m.Period)
		}
		claim.Months = append(claim.Months, model.ClaimMonth{
			Period:      m.Period,
			TaxForGroup: m.TaxForGroup,
			Ytelse: model.ClaimYtelse{
				PreviouslyPaid: m.Ytelse.PreviouslyPaid,
				NewlyPaid:      m.Ytelse.NewlyPaid,
				ToReclaim:      m.Ytelse.ToReclaim,
				TaxRatePercent: m.Ytelse.TaxRatePercent,
			},
			Feilutbetaling: model.ClaimFeilutbetaling{
				PreviouslyPaid: m.Feilutbetaling.PreviouslyPaid,
				NewlyPaid:      m.Feilutbetaling.NewlyPaid,
				ToReclaim:      m.Feilutbetaling.ToReclaim,
				NotReclaimed:   m.Feilutbetaling.NotReclaimed,
			},
		})
	}
	return claim, nil
}
