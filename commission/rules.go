/*
Package commission computes collector commissions from collected savings.

PURPOSE:
  Field collecteurs gather client savings. Each client pays a commission on
  the amount collected, computed from a CommissionParameter (fixed,
  percentage or tiered), plus VAT. The commissions of all of a collecteur's
  clients over a period are then split between the collecteur and the EMF
  (the financial institution), and the split is expressed as ledger
  movements.

KEY CONCEPTS:
  - Rules: Institution-wide policy (VAT, EMF share, new-collector override)
  - Parameter: Per client/collecteur/agence pricing of the commission
  - Resolver: Picks the most specific applicable Parameter
  - Calculator: One client, one period → Calculation
  - Distributor: All calculations of a collecteur → Distribution

FLOW:
  collected amount ──Resolver──▶ Parameter ──Calculator──▶ Calculation
  []Calculation ──Distributor──▶ Distribution{totals, split, movements}

SEE ALSO:
  - remuneration/: Rubrique (Vi) processing on top of the collecteur share
  - history/: Calculated-once / remunerated-once guard
*/
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// RULES - Institution-wide commission policy
// =============================================================================

// DefaultNouveauCollecteurDureeMois is the new-collector grace period when
// none is configured.
const DefaultNouveauCollecteurDureeMois = 3

// Rules is immutable: it is built once by NewRules and only read afterwards.
// The collecteur rate is always derived as 1 - EMF rate.
type Rules struct {
	vtaRate                    decimal.Decimal
	emfRate                    decimal.Decimal
	collecteurRate             decimal.Decimal
	nouveauCollecteurMontant   generic.Amount
	nouveauCollecteurDureeMois int
	plafondCommissionFixe      generic.Amount
}

// NewRules validates the policy. Rates are fractions (0.1925 for 19.25 %).
// A zero plafond disables the ceiling on fixed commissions; a zero duree
// falls back to DefaultNouveauCollecteurDureeMois.
func NewRules(vtaRate, emfRate decimal.Decimal, nouveauMontant generic.Amount, dureeMois int, plafond generic.Amount) (Rules, error) {
	one := decimal.NewFromInt(1)
	if vtaRate.IsNegative() || vtaRate.GreaterThan(one) {
		return Rules{}, generic.NewValidationError("vtaRate", "%s is outside [0, 1]", vtaRate)
	}
	if emfRate.IsNegative() || emfRate.GreaterThan(one) {
		return Rules{}, generic.NewValidationError("emfRate", "%s is outside [0, 1]", emfRate)
	}
	if nouveauMontant.IsNegative() {
		return Rules{}, generic.NewValidationError("nouveauCollecteurMontant", "negative amount %s", nouveauMontant)
	}
	if plafond.IsNegative() {
		return Rules{}, generic.NewValidationError("plafondCommissionFixe", "negative amount %s", plafond)
	}
	if dureeMois < 0 {
		return Rules{}, generic.NewValidationError("nouveauCollecteurDureeMois", "negative duration %d", dureeMois)
	}
	if dureeMois == 0 {
		dureeMois = DefaultNouveauCollecteurDureeMois
	}

	return Rules{
		vtaRate:                    vtaRate,
		emfRate:                    emfRate,
		collecteurRate:             one.Sub(emfRate),
		nouveauCollecteurMontant:   nouveauMontant,
		nouveauCollecteurDureeMois: dureeMois,
		plafondCommissionFixe:      plafond,
	}, nil
}

// DefaultRules: VAT 19.25 %, EMF 30 %, 40 000 FCFA for three months, no ceiling.
func DefaultRules() Rules {
	rules, err := NewRules(
		generic.MustParseDecimal("0.1925"),
		generic.MustParseDecimal("0.30"),
		generic.FCFA(40000),
		DefaultNouveauCollecteurDureeMois,
		generic.ZeroFCFA(),
	)
	if err != nil {
		panic(err)
	}
	return rules
}

func (r Rules) VTARate() decimal.Decimal                 { return r.vtaRate }
func (r Rules) EMFRate() decimal.Decimal                 { return r.emfRate }
func (r Rules) CollecteurRate() decimal.Decimal          { return r.collecteurRate }
func (r Rules) NouveauCollecteurMontant() generic.Amount { return r.nouveauCollecteurMontant }
func (r Rules) NouveauCollecteurDureeMois() int          { return r.nouveauCollecteurDureeMois }
func (r Rules) PlafondCommissionFixe() generic.Amount    { return r.plafondCommissionFixe }

// HasPlafond reports whether fixed commissions are capped.
func (r Rules) HasPlafond() bool { return r.plafondCommissionFixe.IsPositive() }

// IsNouveauCollecteur applies the grace period to a tenure in whole months.
func (r Rules) IsNouveauCollecteur(tenureMonths int) bool {
	return tenureMonths <= r.nouveauCollecteurDureeMois
}

// TVA computes VAT on an amount, rounded per line to the cent.
func (r Rules) TVA(base generic.Amount) generic.Amount {
	return base.Mul(r.vtaRate).Round()
}
