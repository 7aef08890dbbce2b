package commission

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// CALCULATION - One client, one period
// =============================================================================

// Calculation is immutable once returned by the Calculator.
type Calculation struct {
	ClientID        string
	MontantCollecte generic.Amount
	CommissionBase  generic.Amount
	TVA             generic.Amount
	CommissionNet   generic.Amount // CommissionBase - TVA
	Type            Type
	ValeurParametre decimal.Decimal // fixed amount, percentage, or the applied tier rate
	ParameterID     string
	Scope           Scope
	CalculatedAt    time.Time
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	// Now stamps CalculatedAt. Defaults to time.Now.
	Now func() time.Time
}

func NewCalculator() *Calculator {
	return &Calculator{Now: time.Now}
}

// Calculate prices the commission on montantCollecte.
//
//   - FIXED:      base = valeur, capped at the rules' plafond when one is set
//   - PERCENTAGE: base = montant × valeur / 100
//   - TIER:       base = montant × taux / 100 for the first [min, max) bracket
//
// TVA is rounded to the cent on each line; the base is left unrounded.
func (c *Calculator) Calculate(clientID string, montantCollecte generic.Amount, p Parameter, rules Rules) (Calculation, error) {
	if !montantCollecte.IsPositive() {
		return Calculation{}, generic.NewValidationError("montantCollecte",
			"collected amount must be positive, got %s", montantCollecte)
	}
	if err := p.Validate(); err != nil {
		return Calculation{}, err
	}

	var (
		base   generic.Amount
		valeur decimal.Decimal
	)
	switch p.Type {
	case TypeFixed:
		base = generic.NewAmount(p.Valeur, montantCollecte.Currency)
		if rules.HasPlafond() {
			base = base.Min(rules.PlafondCommissionFixe())
		}
		valeur = p.Valeur
	case TypePercentage:
		base = montantCollecte.Percent(p.Valeur)
		valeur = p.Valeur
	case TypeTier:
		tier, ok := p.TierFor(montantCollecte.Value)
		if !ok {
			return Calculation{}, generic.NewConfigurationError("parameter "+p.ID,
				"no tier covers collected amount %s", montantCollecte)
		}
		base = montantCollecte.Percent(tier.Taux)
		valeur = tier.Taux
	default:
		return Calculation{}, generic.NewValidationError("type", "unknown commission type %q", p.Type)
	}

	tva := rules.TVA(base)
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	return Calculation{
		ClientID:        clientID,
		MontantCollecte: montantCollecte,
		CommissionBase:  base,
		TVA:             tva,
		CommissionNet:   base.Sub(tva),
		Type:            p.Type,
		ValeurParametre: valeur,
		ParameterID:     p.ID,
		Scope:           p.Scope,
		CalculatedAt:    now(),
	}, nil
}
