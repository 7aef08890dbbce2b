package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// COMMISSION PARAMETERS (commission.ParameterSource interface)
// =============================================================================

type tierRow struct {
	MontantMin decimal.Decimal  `json:"montant_min"`
	MontantMax *decimal.Decimal `json:"montant_max,omitempty"`
	Taux       decimal.Decimal  `json:"taux"`
}

// SaveParameter inserts or replaces a parameter. An empty ID gets a UUID.
func (s *Store) SaveParameter(ctx context.Context, p commission.Parameter) (commission.Parameter, error) {
	if err := p.Validate(); err != nil {
		return commission.Parameter{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var tiersJSON sql.NullString
	if len(p.Tiers) > 0 {
		rows := make([]tierRow, len(p.Tiers))
		for i, t := range p.Tiers {
			rows[i] = tierRow{MontantMin: t.MontantMin, MontantMax: t.MontantMax, Taux: t.Taux}
		}
		data, err := json.Marshal(rows)
		if err != nil {
			return commission.Parameter{}, fmt.Errorf("failed to encode tiers: %w", err)
		}
		tiersJSON = sql.NullString{String: string(data), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commission_parameters
		(id, scope_level, owner_id, product_code, type, valeur, tiers_json, actif, date_debut, date_fin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scope_level = excluded.scope_level,
			owner_id = excluded.owner_id,
			product_code = excluded.product_code,
			type = excluded.type,
			valeur = excluded.valeur,
			tiers_json = excluded.tiers_json,
			actif = excluded.actif,
			date_debut = excluded.date_debut,
			date_fin = excluded.date_fin
	`,
		p.ID,
		string(p.Scope.Level),
		p.Scope.OwnerID,
		p.ProductCode,
		string(p.Type),
		p.Valeur.String(),
		tiersJSON,
		p.Actif,
		formatOptionalDate(p.DateDebut),
		formatOptionalDate(p.DateFin),
		s.timestamp(),
	)
	if err != nil {
		return commission.Parameter{}, fmt.Errorf("failed to save parameter: %w", err)
	}
	return p, nil
}

func (s *Store) ParametersFor(ctx context.Context, level commission.ScopeLevel, ownerID string) ([]commission.Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope_level, owner_id, product_code, type, valeur, tiers_json, actif, date_debut, date_fin
		FROM commission_parameters
		WHERE scope_level = ? AND owner_id = ?
		ORDER BY id
	`, string(level), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameters: %w", err)
	}
	defer rows.Close()

	var params []commission.Parameter
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

func (s *Store) GetParameter(ctx context.Context, id string) (commission.Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope_level, owner_id, product_code, type, valeur, tiers_json, actif, date_debut, date_fin
		FROM commission_parameters WHERE id = ?
	`, id)
	if err != nil {
		return commission.Parameter{}, fmt.Errorf("failed to query parameter: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return commission.Parameter{}, err
		}
		return commission.Parameter{}, &generic.NotFoundError{Kind: "parameter", ID: id}
	}
	return scanParameter(rows)
}

func scanParameter(rows *sql.Rows) (commission.Parameter, error) {
	var (
		p                             commission.Parameter
		level, typ, valeur            string
		tiersJSON, dateDebut, dateFin sql.NullString
	)
	if err := rows.Scan(&p.ID, &level, &p.Scope.OwnerID, &p.ProductCode, &typ, &valeur,
		&tiersJSON, &p.Actif, &dateDebut, &dateFin); err != nil {
		return commission.Parameter{}, fmt.Errorf("failed to scan parameter: %w", err)
	}

	p.Scope.Level = commission.ScopeLevel(level)
	p.Type = commission.Type(typ)

	var err error
	if p.Valeur, err = decimal.NewFromString(valeur); err != nil {
		return commission.Parameter{}, fmt.Errorf("corrupt parameter %s valeur: %w", p.ID, err)
	}
	if tiersJSON.Valid && tiersJSON.String != "" {
		var tiers []tierRow
		if err := json.Unmarshal([]byte(tiersJSON.String), &tiers); err != nil {
			return commission.Parameter{}, fmt.Errorf("corrupt parameter %s tiers: %w", p.ID, err)
		}
		for _, t := range tiers {
			p.Tiers = append(p.Tiers, commission.Tier{MontantMin: t.MontantMin, MontantMax: t.MontantMax, Taux: t.Taux})
		}
	}
	if p.DateDebut, err = parseOptionalDate(dateDebut); err != nil {
		return commission.Parameter{}, err
	}
	if p.DateFin, err = parseOptionalDate(dateFin); err != nil {
		return commission.Parameter{}, err
	}
	return p, nil
}
