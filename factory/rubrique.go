package factory

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/remuneration"
)

type RubriqueJSON struct {
	ID              string          `json:"id"`
	Nom             string          `json:"nom" validate:"required"`
	Type            string          `json:"type" validate:"required,oneof=CONSTANT PERCENTAGE"`
	Valeur          decimal.Decimal `json:"valeur"`
	DateApplication string          `json:"date_application" validate:"required,datetime=2006-01-02"`
	DelaiJours      *int            `json:"delai_jours,omitempty" validate:"omitempty,min=0"`
	CollecteurIDs   []string        `json:"collecteur_ids" validate:"required,min=1,dive,required"`
	Active          *bool           `json:"active,omitempty"` // Default true
}

func (f *Factory) ParseRubrique(data []byte) (remuneration.Rubrique, error) {
	var rj RubriqueJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return remuneration.Rubrique{}, generic.NewValidationError("rubrique", "malformed JSON: %v", err)
	}
	return f.Rubrique(rj)
}

func (f *Factory) Rubrique(rj RubriqueJSON) (remuneration.Rubrique, error) {
	if err := f.check(rj); err != nil {
		return remuneration.Rubrique{}, err
	}
	applied, err := generic.ParseDate(rj.DateApplication)
	if err != nil {
		return remuneration.Rubrique{}, generic.NewValidationError("date_application", "%v", err)
	}

	r := remuneration.Rubrique{
		ID:              rj.ID,
		Nom:             rj.Nom,
		Type:            remuneration.Type(rj.Type),
		Valeur:          rj.Valeur,
		DateApplication: applied,
		DelaiJours:      rj.DelaiJours,
		CollecteurIDs:   append([]string(nil), rj.CollecteurIDs...),
		Active:          rj.Active == nil || *rj.Active,
	}
	if err := r.Validate(); err != nil {
		return remuneration.Rubrique{}, err
	}
	return r, nil
}
