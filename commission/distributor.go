package commission

import (
	"fmt"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// TOTALS - Immutable fold over calculations
// =============================================================================

type Totals struct {
	Commissions generic.Amount
	TVA         generic.Amount
	Clients     int
}

// SumCalculations folds the calculations into their totals. The sums are
// exact decimals; nothing is rounded here.
func SumCalculations(calcs []Calculation) Totals {
	totals := Totals{Commissions: generic.ZeroFCFA(), TVA: generic.ZeroFCFA()}
	for _, c := range calcs {
		totals = Totals{
			Commissions: totals.Commissions.Add(c.CommissionBase),
			TVA:         totals.TVA.Add(c.TVA),
			Clients:     totals.Clients + 1,
		}
	}
	return totals
}

// =============================================================================
// DISTRIBUTION - One collecteur, one period
// =============================================================================

type Distribution struct {
	CollecteurID           string
	Period                 generic.Period
	Calculations           []Calculation
	TotalCommissions       generic.Amount
	TotalTVA               generic.Amount
	RemunerationCollecteur generic.Amount
	PartEMF                generic.Amount
	TVAEMF                 generic.Amount
	NouveauCollecteur      bool
	Movements              []generic.Movement
}

// =============================================================================
// DISTRIBUTOR
// =============================================================================

type Distributor struct{}

func NewDistributor() *Distributor { return &Distributor{} }

// Distribute splits the period's commissions between collecteur and EMF.
//
// Regular collecteur:
//
//	remuneration = total × collecteurRate
//	partEMF      = total × emfRate
//
// New collecteur (tenure within the grace period):
//
//	remuneration = nouveauCollecteurMontant
//	partEMF      = total - remuneration   (negative when the EMF tops up)
//
// tvaEMF is the VAT on the positive part of partEMF, rounded to the cent.
// An empty calculation list yields an all-zero distribution.
func (d *Distributor) Distribute(collecteurID string, period generic.Period, calcs []Calculation, rules Rules, nouveau bool) (Distribution, error) {
	if collecteurID == "" {
		return Distribution{}, generic.NewValidationError("collecteurId", "missing collecteur")
	}
	if err := period.Validate(); err != nil {
		return Distribution{}, err
	}

	totals := SumCalculations(calcs)

	var remuneration, partEMF generic.Amount
	if nouveau {
		remuneration = rules.NouveauCollecteurMontant()
		partEMF = totals.Commissions.Sub(remuneration)
	} else {
		remuneration = totals.Commissions.Mul(rules.CollecteurRate())
		partEMF = totals.Commissions.Mul(rules.EMFRate())
	}
	tvaEMF := rules.TVA(partEMF.Max(partEMF.Zero()))

	dist := Distribution{
		CollecteurID:           collecteurID,
		Period:                 period,
		Calculations:           append([]Calculation(nil), calcs...),
		TotalCommissions:       totals.Commissions,
		TotalTVA:               totals.TVA,
		RemunerationCollecteur: remuneration,
		PartEMF:                partEMF,
		TVAEMF:                 tvaEMF,
		NouveauCollecteur:      nouveau,
	}
	dist.Movements = buildMovements(dist)
	return dist, nil
}

// buildMovements expresses the split as double-entry movements. Amounts are
// rounded to the cent here since they go straight to the ledger; the EMF
// movement takes the pool remainder so the pool always nets to zero.
func buildMovements(d Distribution) []generic.Movement {
	at := d.Period.End
	var movements []generic.Movement
	add := func(debit, credit generic.AccountID, amount generic.Amount, kind generic.MovementKind, reason string) {
		if amount.IsZero() {
			return
		}
		if amount.IsNegative() {
			debit, credit, amount = credit, debit, amount.Neg()
		}
		movements = append(movements, generic.Movement{
			ID:          generic.MovementID(fmt.Sprintf("%d", len(movements))),
			Debit:       debit,
			Credit:      credit,
			Amount:      amount,
			Kind:        kind,
			EffectiveAt: at,
			Reason:      reason,
		})
	}

	pool := generic.ZeroFCFA()
	for _, c := range d.Calculations {
		base := c.CommissionBase.Round()
		pool = pool.Add(base)
		client := generic.ClientAccount(c.ClientID)
		add(client, generic.AccountCommissionPool, base, generic.MovementClientCommission,
			"commission "+c.Type.Label()+" client "+c.ClientID)
		add(client, generic.AccountTaxes, c.TVA.Round(), generic.MovementClientTVA,
			"TVA commission client "+c.ClientID)
	}

	collecteurShare := d.RemunerationCollecteur.Round()
	add(generic.AccountCommissionPool, generic.CollecteurAccount(d.CollecteurID), collecteurShare,
		generic.MovementCollecteurShare, "remuneration collecteur "+d.CollecteurID+" "+d.Period.String())
	add(generic.AccountCommissionPool, generic.AccountEMF, pool.Sub(collecteurShare),
		generic.MovementEMFShare, "part EMF "+d.Period.String())
	add(generic.AccountEMF, generic.AccountTaxes, d.TVAEMF.Round(),
		generic.MovementEMFTVA, "TVA part EMF "+d.Period.String())

	return movements
}
