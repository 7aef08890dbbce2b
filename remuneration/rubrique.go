/*
Package remuneration computes a collecteur's rubrique-based (Vi) pay.

PURPOSE:
  On top of the commission split, the institution pays collecteurs through
  named rubriques: a fixed bonus, or a percentage of S, the collecteur's
  aggregated commission entitlement. Each rubrique has an effective date and
  an optional validity length, and applies to an explicit set of collecteurs.

FLOW:
  S + []Rubrique ──Processor──▶ Result{Lines (Vi), TotalRubriquesVi, MontantEmf, MontantTva}

SEE ALSO:
  - commission/: Produces S (Distribution.RemunerationCollecteur)
  - history/: Marks the commission batch remunerated exactly once
*/
package remuneration

import (
	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// RUBRIQUE - Named remuneration rule with a validity window
// =============================================================================

type Type string

const (
	TypeConstant   Type = "CONSTANT"   // Fixed FCFA amount
	TypePercentage Type = "PERCENTAGE" // Percent of S
)

func (t Type) Valid() bool {
	switch t {
	case TypeConstant, TypePercentage:
		return true
	default:
		return false
	}
}

type Rubrique struct {
	ID              string
	Nom             string
	Type            Type
	Valeur          decimal.Decimal // FCFA for CONSTANT, percent for PERCENTAGE
	DateApplication generic.TimePoint
	DelaiJours      *int // nil = no expiry
	CollecteurIDs   []string
	Active          bool
}

// DateExpiration is DateApplication + DelaiJours, or nil when indefinite.
func (r Rubrique) DateExpiration() *generic.TimePoint {
	if r.DelaiJours == nil {
		return nil
	}
	exp := r.DateApplication.AddDays(*r.DelaiJours)
	return &exp
}

// CurrentlyValid: active and asOf in [DateApplication, DateExpiration].
func (r Rubrique) CurrentlyValid(asOf generic.TimePoint) bool {
	if !r.Active || asOf.Before(r.DateApplication) {
		return false
	}
	if exp := r.DateExpiration(); exp != nil && asOf.After(*exp) {
		return false
	}
	return true
}

func (r Rubrique) AppliesTo(collecteurID string) bool {
	for _, id := range r.CollecteurIDs {
		if id == collecteurID {
			return true
		}
	}
	return false
}

// Contribution is the Vi of this rubrique for a given S.
func (r Rubrique) Contribution(montantS generic.Amount) generic.Amount {
	switch r.Type {
	case TypeConstant:
		return generic.NewAmount(r.Valeur, montantS.Currency)
	case TypePercentage:
		return montantS.Percent(r.Valeur)
	default:
		return montantS.Zero()
	}
}

// FormattedValeur renders the rubrique value for display ("50000 FCFA", "10 %").
func (r Rubrique) FormattedValeur() string {
	switch r.Type {
	case TypeConstant:
		return r.Valeur.StringFixed(0) + " FCFA"
	case TypePercentage:
		return r.Valeur.String() + " %"
	default:
		return r.Valeur.String()
	}
}

func (r Rubrique) Validate() error {
	if r.Nom == "" {
		return generic.NewValidationError("nom", "missing rubrique name")
	}
	if !r.Type.Valid() {
		return generic.NewValidationError("type", "unknown rubrique type %q", r.Type)
	}
	if r.Valeur.IsNegative() {
		return generic.NewValidationError("valeur", "negative value %s", r.Valeur)
	}
	if r.Type == TypePercentage && r.Valeur.GreaterThan(decimal.NewFromInt(100)) {
		return generic.NewValidationError("valeur", "percentage %s above 100", r.Valeur)
	}
	if r.DateApplication.IsZero() {
		return generic.NewValidationError("dateApplication", "missing effective date")
	}
	if r.DelaiJours != nil && *r.DelaiJours < 0 {
		return generic.NewValidationError("delaiJours", "negative validity %d", *r.DelaiJours)
	}
	return nil
}
