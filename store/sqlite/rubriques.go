package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/remuneration"
)

// =============================================================================
// RUBRIQUES (service.RubriqueSource interface)
// =============================================================================

// SaveRubrique inserts or replaces a rubrique and its collecteur assignments.
func (s *Store) SaveRubrique(ctx context.Context, r remuneration.Rubrique) (remuneration.Rubrique, error) {
	if err := r.Validate(); err != nil {
		return remuneration.Rubrique{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	var delai sql.NullInt64
	if r.DelaiJours != nil {
		delai = sql.NullInt64{Int64: int64(*r.DelaiJours), Valid: true}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rubriques (id, nom, type, valeur, date_application, delai_jours, active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				nom = excluded.nom,
				type = excluded.type,
				valeur = excluded.valeur,
				date_application = excluded.date_application,
				delai_jours = excluded.delai_jours,
				active = excluded.active
		`, r.ID, r.Nom, string(r.Type), r.Valeur.String(), formatDate(r.DateApplication), delai, r.Active, s.timestamp())
		if err != nil {
			return fmt.Errorf("failed to save rubrique: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM rubrique_collecteurs WHERE rubrique_id = ?", r.ID); err != nil {
			return fmt.Errorf("failed to reset rubrique assignments: %w", err)
		}
		for _, collecteurID := range r.CollecteurIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO rubrique_collecteurs (rubrique_id, collecteur_id) VALUES (?, ?)",
				r.ID, collecteurID,
			); err != nil {
				return fmt.Errorf("failed to assign rubrique: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return remuneration.Rubrique{}, err
	}
	return r, nil
}

// RubriquesFor returns every rubrique assigned to the collecteur, including
// inactive and expired ones; the Processor filters on validity.
func (s *Store) RubriquesFor(ctx context.Context, collecteurID string) ([]remuneration.Rubrique, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.nom, r.type, r.valeur, r.date_application, r.delai_jours, r.active
		FROM rubriques r
		JOIN rubrique_collecteurs rc ON rc.rubrique_id = r.id
		WHERE rc.collecteur_id = ?
		ORDER BY r.date_application, r.id
	`, collecteurID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rubriques: %w", err)
	}

	var rubriques []remuneration.Rubrique
	for rows.Next() {
		var (
			r                remuneration.Rubrique
			typ, valeur, app string
			delai            sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Nom, &typ, &valeur, &app, &delai, &r.Active); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan rubrique: %w", err)
		}
		r.Type = remuneration.Type(typ)
		if r.Valeur, err = decimal.NewFromString(valeur); err != nil {
			rows.Close()
			return nil, fmt.Errorf("corrupt rubrique %s valeur: %w", r.ID, err)
		}
		if r.DateApplication, err = generic.ParseDate(app); err != nil {
			rows.Close()
			return nil, fmt.Errorf("corrupt rubrique %s date: %w", r.ID, err)
		}
		if delai.Valid {
			d := int(delai.Int64)
			r.DelaiJours = &d
		}
		rubriques = append(rubriques, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Assignments are loaded after the cursor is closed: a single-connection
	// pool cannot run two queries at once.
	for i := range rubriques {
		ids, err := s.assignments(ctx, rubriques[i].ID)
		if err != nil {
			return nil, err
		}
		rubriques[i].CollecteurIDs = ids
	}
	return rubriques, nil
}

func (s *Store) assignments(ctx context.Context, rubriqueID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT collecteur_id FROM rubrique_collecteurs WHERE rubrique_id = ? ORDER BY collecteur_id", rubriqueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rubrique assignments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
