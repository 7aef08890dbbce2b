package commission

import (
	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// PARAMETER - How a commission is priced for one scope
// =============================================================================

type Type string

const (
	TypeFixed      Type = "FIXED"      // Flat amount per period
	TypePercentage Type = "PERCENTAGE" // Percent of the collected amount
	TypeTier       Type = "TIER"       // Percent taken from the matching bracket
)

// Label returns the display name of a commission type.
func (t Type) Label() string {
	switch t {
	case TypeFixed:
		return "Montant fixe"
	case TypePercentage:
		return "Pourcentage"
	case TypeTier:
		return "Par paliers"
	default:
		return string(t)
	}
}

func (t Type) Valid() bool {
	switch t {
	case TypeFixed, TypePercentage, TypeTier:
		return true
	default:
		return false
	}
}

// ScopeLevel orders scopes from most to least specific.
type ScopeLevel string

const (
	ScopeClient     ScopeLevel = "CLIENT"
	ScopeCollecteur ScopeLevel = "COLLECTEUR"
	ScopeAgence     ScopeLevel = "AGENCE"
)

// ResolutionOrder is the precedence used by the Resolver.
var ResolutionOrder = []ScopeLevel{ScopeClient, ScopeCollecteur, ScopeAgence}

func (l ScopeLevel) Valid() bool {
	switch l {
	case ScopeClient, ScopeCollecteur, ScopeAgence:
		return true
	default:
		return false
	}
}

// Scope ties a parameter to exactly one client, collecteur or agence.
type Scope struct {
	Level   ScopeLevel
	OwnerID string
}

func (s Scope) String() string { return string(s.Level) + ":" + s.OwnerID }

// Tier is the bracket [MontantMin, MontantMax). A nil MontantMax is unbounded.
type Tier struct {
	MontantMin decimal.Decimal
	MontantMax *decimal.Decimal
	Taux       decimal.Decimal
}

func (t Tier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.MontantMin) {
		return false
	}
	return t.MontantMax == nil || amount.LessThan(*t.MontantMax)
}

func (t Tier) Unbounded() bool { return t.MontantMax == nil }

type Parameter struct {
	ID          string
	Scope       Scope
	ProductCode string
	Type        Type
	Valeur      decimal.Decimal // FCFA for FIXED, percent for PERCENTAGE
	Tiers       []Tier          // TIER only, ascending
	Actif       bool
	DateDebut   *generic.TimePoint
	DateFin     *generic.TimePoint
}

// AppliesAt reports whether the parameter is active on the given date.
func (p Parameter) AppliesAt(date generic.TimePoint) bool {
	if !p.Actif {
		return false
	}
	if p.DateDebut != nil && date.Before(*p.DateDebut) {
		return false
	}
	if p.DateFin != nil && date.After(*p.DateFin) {
		return false
	}
	return true
}

// TierFor scans the tiers in order; the first bracket containing amount wins.
func (p Parameter) TierFor(amount decimal.Decimal) (Tier, bool) {
	for _, t := range p.Tiers {
		if t.Contains(amount) {
			return t, true
		}
	}
	return Tier{}, false
}

// Validate checks the parameter shape. Overlapping or unordered tiers are
// validation errors; a gap between two tiers is a configuration error since
// some amounts would have no rate.
func (p Parameter) Validate() error {
	if !p.Type.Valid() {
		return generic.NewValidationError("type", "unknown commission type %q", p.Type)
	}
	if !p.Scope.Level.Valid() {
		return generic.NewValidationError("scope", "unknown scope level %q", p.Scope.Level)
	}
	if p.Scope.OwnerID == "" {
		return generic.NewValidationError("scope", "missing owner id")
	}
	if p.DateDebut != nil && p.DateFin != nil && p.DateFin.Before(*p.DateDebut) {
		return generic.NewValidationError("dateFin", "%s is before %s", p.DateFin, p.DateDebut)
	}

	switch p.Type {
	case TypeFixed:
		if p.Valeur.IsNegative() {
			return generic.NewValidationError("valeur", "negative fixed commission %s", p.Valeur)
		}
	case TypePercentage:
		if p.Valeur.IsNegative() || p.Valeur.GreaterThan(decimal.NewFromInt(100)) {
			return generic.NewValidationError("valeur", "percentage %s is outside [0, 100]", p.Valeur)
		}
	case TypeTier:
		return validateTiers(p.ID, p.Tiers)
	}
	return nil
}

func validateTiers(parameterID string, tiers []Tier) error {
	if len(tiers) == 0 {
		return generic.NewValidationError("tiers", "TIER parameter has no tiers")
	}
	for i, t := range tiers {
		if t.MontantMin.IsNegative() {
			return generic.NewValidationError("tiers", "tier %d has negative minimum", i)
		}
		if t.Taux.IsNegative() || t.Taux.GreaterThan(decimal.NewFromInt(100)) {
			return generic.NewValidationError("tiers", "tier %d rate %s is outside [0, 100]", i, t.Taux)
		}
		if t.MontantMax == nil {
			if i != len(tiers)-1 {
				return generic.NewValidationError("tiers", "only the last tier may be unbounded (tier %d)", i)
			}
		} else if !t.MontantMax.GreaterThan(t.MontantMin) {
			return generic.NewValidationError("tiers", "tier %d maximum must exceed its minimum", i)
		}
		if i == 0 {
			continue
		}

		prevMax := *tiers[i-1].MontantMax
		switch {
		case t.MontantMin.LessThan(prevMax):
			return generic.NewValidationError("tiers", "tier %d overlaps or is not ascending", i)
		case t.MontantMin.GreaterThan(prevMax):
			return generic.NewConfigurationError("parameter "+parameterID,
				"gap between %s and %s in tier table", prevMax, t.MontantMin)
		}
	}
	return nil
}
