/*
Package factory converts JSON definitions into commission parameters and
remuneration rubriques.

PURPOSE:
  Administrators configure commission parameters and rubriques as JSON (API
  requests, seed files). The factory checks the document shape with
  go-playground/validator, then builds the domain structs and runs their own
  Validate so tier tables and rates obey the same rules as code-built ones.

JSON SCHEMA (parameter):
  {
    "id": "param-agence-douala",
    "scope": "AGENCE",
    "owner_id": "agence-1",
    "product_code": "EPARGNE_JOURNALIERE",
    "type": "TIER",
    "tiers": [
      {"montant_min": "0",      "montant_max": "100000", "taux": "2"},
      {"montant_min": "100000",                          "taux": "1.5"}
    ],
    "actif": true,
    "date_debut": "2024-01-01"
  }

JSON SCHEMA (rubrique):
  {
    "nom": "Prime de rendement",
    "type": "PERCENTAGE",
    "valeur": "10",
    "date_application": "2024-01-01",
    "delai_jours": 90,
    "collecteur_ids": ["col-1"],
    "active": true
  }

Decimal fields accept JSON numbers or strings; strings avoid float rounding.

SEE ALSO:
  - commission/parameter.go: Parameter and Tier
  - remuneration/rubrique.go: Rubrique
*/
package factory

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type ParameterJSON struct {
	ID          string           `json:"id"`
	Scope       string           `json:"scope" validate:"required,oneof=CLIENT COLLECTEUR AGENCE"`
	OwnerID     string           `json:"owner_id" validate:"required"`
	ProductCode string           `json:"product_code,omitempty"`
	Type        string           `json:"type" validate:"required,oneof=FIXED PERCENTAGE TIER"`
	Valeur      *decimal.Decimal `json:"valeur,omitempty" validate:"required_unless=Type TIER"`
	Tiers       []TierJSON       `json:"tiers,omitempty" validate:"required_if=Type TIER,dive"`
	Actif       *bool            `json:"actif,omitempty"` // Default true
	DateDebut   string           `json:"date_debut,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateFin     string           `json:"date_fin,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type TierJSON struct {
	MontantMin decimal.Decimal  `json:"montant_min"`
	MontantMax *decimal.Decimal `json:"montant_max,omitempty"` // Absent = unbounded
	Taux       decimal.Decimal  `json:"taux"`
}

// =============================================================================
// FACTORY
// =============================================================================

type Factory struct {
	validate *validator.Validate
}

func New() *Factory {
	return &Factory{validate: validator.New()}
}

// ParseParameter parses and validates a JSON parameter definition.
func (f *Factory) ParseParameter(data []byte) (commission.Parameter, error) {
	var pj ParameterJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return commission.Parameter{}, generic.NewValidationError("parameter", "malformed JSON: %v", err)
	}
	return f.Parameter(pj)
}

// Parameter builds a commission.Parameter from its JSON form.
func (f *Factory) Parameter(pj ParameterJSON) (commission.Parameter, error) {
	if err := f.check(pj); err != nil {
		return commission.Parameter{}, err
	}

	p := commission.Parameter{
		ID:          pj.ID,
		Scope:       commission.Scope{Level: commission.ScopeLevel(pj.Scope), OwnerID: pj.OwnerID},
		ProductCode: pj.ProductCode,
		Type:        commission.Type(pj.Type),
		Actif:       pj.Actif == nil || *pj.Actif,
	}
	if pj.Valeur != nil {
		p.Valeur = *pj.Valeur
	}
	for _, t := range pj.Tiers {
		p.Tiers = append(p.Tiers, commission.Tier{MontantMin: t.MontantMin, MontantMax: t.MontantMax, Taux: t.Taux})
	}

	var err error
	if p.DateDebut, err = optionalDate(pj.DateDebut); err != nil {
		return commission.Parameter{}, err
	}
	if p.DateFin, err = optionalDate(pj.DateFin); err != nil {
		return commission.Parameter{}, err
	}

	if err := p.Validate(); err != nil {
		return commission.Parameter{}, err
	}
	return p, nil
}

// check runs the struct tags and reports the first failing field as a
// ValidationError.
func (f *Factory) check(v any) error {
	err := f.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return generic.NewValidationError(jsonFieldName(fe.Namespace()), "failed %q check", fe.Tag())
	}
	return generic.NewValidationError("document", "%v", err)
}

// jsonFieldName turns "ParameterJSON.Tiers[0].Taux" into "tiers[0].taux".
func jsonFieldName(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.ToLower(namespace)
}

func optionalDate(s string) (*generic.TimePoint, error) {
	if s == "" {
		return nil, nil
	}
	tp, err := generic.ParseDate(s)
	if err != nil {
		return nil, generic.NewValidationError("date", "%q is not a YYYY-MM-DD date", s)
	}
	return &tp, nil
}
