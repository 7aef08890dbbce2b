package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/history"
)

// =============================================================================
// HISTORY STORE (history.Store interface)
// =============================================================================

const historiqueColumns = `
	id, collecteur_id, period_start, period_end, montant_commission_total, montant_tva_total,
	remuneration_collecteur, part_emf, tva_emf, currency, nombre_clients, nouveau_collecteur,
	statut, remunere, date_remuneration, created_at`

type liveBatch struct {
	id       string
	period   generic.Period
	remunere bool
}

// InsertCalculation checks for overlapping live batches and inserts rec in
// the same immediate transaction.
func (s *Store) InsertCalculation(ctx context.Context, rec history.CalculCommission, force bool) ([]string, error) {
	var superseded []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		live, err := overlappingBatches(ctx, tx, rec.CollecteurID, rec.Period)
		if err != nil {
			return err
		}

		for _, b := range live {
			if !force {
				return &generic.AlreadyProcessedError{CollecteurID: rec.CollecteurID, Period: b.period, ExistingID: b.id}
			}
			if b.remunere {
				return &generic.AlreadyRemuneratedError{HistoriqueID: b.id}
			}
		}
		for _, b := range live {
			if _, err := tx.ExecContext(ctx,
				"UPDATE historique_calcul_commission SET statut = ? WHERE id = ? AND remunere = 0",
				string(history.StatutSupersede), b.id,
			); err != nil {
				return fmt.Errorf("failed to supersede historique %s: %w", b.id, err)
			}
			superseded = append(superseded, b.id)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO historique_calcul_commission (`+historiqueColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.ID,
			rec.CollecteurID,
			formatDate(rec.Period.Start),
			formatDate(rec.Period.End),
			money(rec.MontantCommissionTotal),
			money(rec.MontantTvaTotal),
			money(rec.RemunerationCollecteur),
			money(rec.PartEMF),
			money(rec.TvaEMF),
			string(currencyOf(rec.MontantCommissionTotal)),
			rec.NombreClients,
			rec.NouveauCollecteur,
			string(rec.Statut),
			rec.Remunere,
			nullTime(rec.DateRemuneration),
			rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return &generic.AlreadyProcessedError{CollecteurID: rec.CollecteurID, Period: rec.Period}
			}
			return fmt.Errorf("failed to insert historique: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return superseded, nil
}

// DiscardCalculation deletes a CALCULE, unremunerated batch and its
// per-client lines. Ledger entries are never touched.
func (s *Store) DiscardCalculation(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		h, err := s.getHistorique(ctx, tx, id)
		if err != nil {
			return err
		}
		if h.Remunere || h.Statut != history.StatutCalcule {
			return generic.NewValidationError("statut", "historique %s is %s and cannot be discarded", id, h.Statut)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM commission_calculations WHERE historique_id = ?", id); err != nil {
			return fmt.Errorf("failed to discard calculations of %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM historique_calcul_commission WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to discard historique %s: %w", id, err)
		}
		return nil
	})
}

func overlappingBatches(ctx context.Context, tx *sql.Tx, collecteurID string, p generic.Period) ([]liveBatch, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, period_start, period_end, remunere
		FROM historique_calcul_commission
		WHERE collecteur_id = ? AND statut != ? AND period_start <= ? AND period_end >= ?
		ORDER BY period_start
	`, collecteurID, string(history.StatutSupersede), formatDate(p.End), formatDate(p.Start))
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping historiques: %w", err)
	}
	defer rows.Close()

	var out []liveBatch
	for rows.Next() {
		var (
			b          liveBatch
			start, end string
		)
		if err := rows.Scan(&b.id, &start, &end, &b.remunere); err != nil {
			return nil, err
		}
		if b.period, err = parsePeriod(start, end); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CompleteRemuneration runs the conditional flag update and the
// remuneration insert in one transaction. Zero affected rows means another
// caller got there first, or the batch is not remunerable.
func (s *Store) CompleteRemuneration(ctx context.Context, id string, at time.Time, rec history.Remuneration) error {
	rec.HistoriqueCalculID = id
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE historique_calcul_commission
			SET remunere = 1, date_remuneration = ?
			WHERE id = ? AND remunere = 0 AND statut IN (?, ?)
		`, at.UTC().Format(time.RFC3339Nano), id, string(history.StatutCalcule), string(history.StatutValide))
		if err != nil {
			return fmt.Errorf("failed to mark historique remunerated: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			h, err := s.getHistorique(ctx, tx, id)
			if err != nil {
				return err
			}
			if h.Remunere {
				return &generic.AlreadyRemuneratedError{HistoriqueID: id}
			}
			return generic.NewValidationError("statut", "historique %s is %s and cannot be remunerated", id, h.Statut)
		}
		return insertRemuneration(ctx, tx, rec)
	})
}

func (s *Store) UpdateStatus(ctx context.Context, id string, from, to history.Statut) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE historique_calcul_commission SET statut = ? WHERE id = ? AND statut = ?",
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update historique status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 1 {
		return nil
	}

	h, err := s.getHistorique(ctx, s.db, id)
	if err != nil {
		return err
	}
	return generic.NewValidationError("statut", "historique %s is %s, expected %s", id, h.Statut, from)
}

func (s *Store) Get(ctx context.Context, id string) (history.CalculCommission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getHistorique(ctx, s.db, id)
}

func (s *Store) getHistorique(ctx context.Context, db querier, id string) (history.CalculCommission, error) {
	row := db.QueryRowContext(ctx, "SELECT "+historiqueColumns+" FROM historique_calcul_commission WHERE id = ?", id)
	h, err := scanHistorique(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.CalculCommission{}, &generic.NotFoundError{Kind: "historique", ID: id}
	}
	return h, err
}

func (s *Store) ListByCollecteur(ctx context.Context, collecteurID string) ([]history.CalculCommission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+historiqueColumns+" FROM historique_calcul_commission WHERE collecteur_id = ? ORDER BY period_start, created_at",
		collecteurID)
	if err != nil {
		return nil, fmt.Errorf("failed to query historiques: %w", err)
	}
	defer rows.Close()

	var out []history.CalculCommission
	for rows.Next() {
		h, err := scanHistorique(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistorique(row scanner) (history.CalculCommission, error) {
	var (
		h                                       history.CalculCommission
		start, end, currency, statut, createdAt string
		total, tva, rem, partEMF, tvaEMF        string
		dateRem                                 sql.NullString
	)
	err := row.Scan(&h.ID, &h.CollecteurID, &start, &end, &total, &tva, &rem, &partEMF, &tvaEMF,
		&currency, &h.NombreClients, &h.NouveauCollecteur, &statut, &h.Remunere, &dateRem, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.CalculCommission{}, err
		}
		return history.CalculCommission{}, fmt.Errorf("failed to scan historique: %w", err)
	}

	if h.Period, err = parsePeriod(start, end); err != nil {
		return history.CalculCommission{}, err
	}
	amounts := []*generic.Amount{&h.MontantCommissionTotal, &h.MontantTvaTotal, &h.RemunerationCollecteur, &h.PartEMF, &h.TvaEMF}
	for i, v := range []string{total, tva, rem, partEMF, tvaEMF} {
		if *amounts[i], err = parseAmount(v, currency); err != nil {
			return history.CalculCommission{}, err
		}
	}
	h.Statut = history.Statut(statut)
	if dateRem.Valid {
		t := parseTimestamp(dateRem.String)
		h.DateRemuneration = &t
	}
	h.CreatedAt = parseTimestamp(createdAt)
	return h, nil
}

// =============================================================================
// REMUNERATION HISTORY
// =============================================================================

func insertRemuneration(ctx context.Context, tx *sql.Tx, rec history.Remuneration) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO historique_remuneration
		(id, historique_calcul_id, collecteur_id, period_start, period_end, montant_s_initial,
		 total_rubriques_vi, montant_emf, montant_tva, currency, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.HistoriqueCalculID,
		rec.CollecteurID,
		formatDate(rec.Period.Start),
		formatDate(rec.Period.End),
		money(rec.MontantSInitial),
		money(rec.TotalRubriquesVi),
		money(rec.MontantEmf),
		money(rec.MontantTva),
		string(currencyOf(rec.MontantSInitial)),
		nullString(rec.Details),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &generic.AlreadyRemuneratedError{HistoriqueID: rec.HistoriqueCalculID}
		}
		return fmt.Errorf("failed to save remuneration: %w", err)
	}
	return nil
}

func (s *Store) RemunerationFor(ctx context.Context, historiqueID string) (history.Remuneration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		r                      history.Remuneration
		start, end, currency   string
		montantS, vi, emf, tva string
		details                sql.NullString
		createdAt              string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, historique_calcul_id, collecteur_id, period_start, period_end, montant_s_initial,
		       total_rubriques_vi, montant_emf, montant_tva, currency, details, created_at
		FROM historique_remuneration WHERE historique_calcul_id = ?
	`, historiqueID).Scan(&r.ID, &r.HistoriqueCalculID, &r.CollecteurID, &start, &end,
		&montantS, &vi, &emf, &tva, &currency, &details, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Remuneration{}, &generic.NotFoundError{Kind: "remuneration", ID: historiqueID}
	}
	if err != nil {
		return history.Remuneration{}, fmt.Errorf("failed to load remuneration: %w", err)
	}

	if r.Period, err = parsePeriod(start, end); err != nil {
		return history.Remuneration{}, err
	}
	amounts := []*generic.Amount{&r.MontantSInitial, &r.TotalRubriquesVi, &r.MontantEmf, &r.MontantTva}
	for i, v := range []string{montantS, vi, emf, tva} {
		if *amounts[i], err = parseAmount(v, currency); err != nil {
			return history.Remuneration{}, err
		}
	}
	r.Details = details.String
	r.CreatedAt = parseTimestamp(createdAt)
	return r, nil
}

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, fmt.Errorf("corrupt period start %q: %w", start, err)
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("corrupt period end %q: %w", end, err)
	}
	return generic.Period{Start: s, End: e}, nil
}

func currencyOf(a generic.Amount) generic.Currency {
	if a.Currency == "" {
		return generic.CurrencyFCFA
	}
	return a.Currency
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}
