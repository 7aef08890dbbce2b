package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/service"
)

// =============================================================================
// COLLECTEURS (service.CollecteurSource interface)
// =============================================================================

func (s *Store) SaveCollecteur(ctx context.Context, c service.Collecteur) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collecteurs (id, agence_id, nom, hire_date, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agence_id = excluded.agence_id,
			nom = excluded.nom,
			hire_date = excluded.hire_date
	`, c.ID, c.AgenceID, c.Nom, formatDate(c.HireDate), s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to save collecteur: %w", err)
	}
	return nil
}

func (s *Store) Collecteur(ctx context.Context, id string) (service.Collecteur, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		c        service.Collecteur
		hireDate string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, agence_id, nom, hire_date FROM collecteurs WHERE id = ?", id,
	).Scan(&c.ID, &c.AgenceID, &c.Nom, &hireDate)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Collecteur{}, &generic.NotFoundError{Kind: "collecteur", ID: id}
	}
	if err != nil {
		return service.Collecteur{}, fmt.Errorf("failed to load collecteur: %w", err)
	}
	if c.HireDate, err = generic.ParseDate(hireDate); err != nil {
		return service.Collecteur{}, fmt.Errorf("corrupt hire date %q: %w", hireDate, err)
	}
	return c, nil
}

// ListCollecteurs returns every collecteur ordered by ID.
func (s *Store) ListCollecteurs(ctx context.Context) ([]service.Collecteur, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, agence_id, nom, hire_date FROM collecteurs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list collecteurs: %w", err)
	}
	defer rows.Close()

	var out []service.Collecteur
	for rows.Next() {
		var (
			c        service.Collecteur
			hireDate string
		)
		if err := rows.Scan(&c.ID, &c.AgenceID, &c.Nom, &hireDate); err != nil {
			return nil, fmt.Errorf("failed to scan collecteur: %w", err)
		}
		if c.HireDate, err = generic.ParseDate(hireDate); err != nil {
			return nil, fmt.Errorf("corrupt hire date %q: %w", hireDate, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveClient attaches a client to its collecteur.
func (s *Store) SaveClient(ctx context.Context, id, collecteurID, nom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, collecteur_id, nom, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET collecteur_id = excluded.collecteur_id, nom = excluded.nom
	`, id, collecteurID, nom, s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

// =============================================================================
// COLLECT TRANSACTIONS (service.TransactionSource interface)
// =============================================================================

func (s *Store) SaveTransaction(ctx context.Context, tx service.Transaction) (service.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if !tx.Montant.IsPositive() {
		return service.Transaction{}, generic.NewValidationError("montant", "transaction amount must be positive, got %s", tx.Montant)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collect_transactions (id, client_id, collecteur_id, montant, sens, date_operation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.ClientID, tx.CollecteurID, tx.Montant.Value.String(), string(tx.Sens), formatDate(tx.DateOperation), s.timestamp())
	if err != nil {
		return service.Transaction{}, fmt.Errorf("failed to save transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) TransactionsFor(ctx context.Context, collecteurID string, period generic.Period) ([]service.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, collecteur_id, montant, sens, date_operation
		FROM collect_transactions
		WHERE collecteur_id = ? AND date_operation >= ? AND date_operation <= ?
		ORDER BY date_operation, id
	`, collecteurID, formatDate(period.Start), formatDate(period.End))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []service.Transaction
	for rows.Next() {
		var (
			tx                  service.Transaction
			montant, sens, date string
		)
		if err := rows.Scan(&tx.ID, &tx.ClientID, &tx.CollecteurID, &montant, &sens, &date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		d, err := decimal.NewFromString(montant)
		if err != nil {
			return nil, fmt.Errorf("corrupt transaction %s amount: %w", tx.ID, err)
		}
		tx.Montant = generic.NewAmount(d, generic.CurrencyFCFA)
		tx.Sens = service.Sens(sens)
		if tx.DateOperation, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("corrupt transaction %s date: %w", tx.ID, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// CALCULATIONS (service.CalculationStore interface)
// =============================================================================

// SaveCalculations persists the per-client lines; money is rounded to the
// cent here, TVA already is.
func (s *Store) SaveCalculations(ctx context.Context, historiqueID string, calcs []commission.Calculation) error {
	if len(calcs) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range calcs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO commission_calculations
				(id, historique_id, client_id, montant_collecte, commission_base, tva, commission_net,
				 currency, type, valeur_parametre, parameter_id, scope_level, scope_owner, calculated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				uuid.NewString(),
				historiqueID,
				c.ClientID,
				money(c.MontantCollecte),
				money(c.CommissionBase),
				money(c.TVA),
				money(c.CommissionNet),
				string(currencyOf(c.CommissionBase)),
				string(c.Type),
				c.ValeurParametre.String(),
				nullString(c.ParameterID),
				nullString(string(c.Scope.Level)),
				nullString(c.Scope.OwnerID),
				c.CalculatedAt.UTC().Format(time.RFC3339Nano),
			)
			if err != nil {
				return fmt.Errorf("failed to save calculation for client %s: %w", c.ClientID, err)
			}
		}
		return nil
	})
}

func (s *Store) CalculationsFor(ctx context.Context, historiqueID string) ([]commission.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT client_id, montant_collecte, commission_base, tva, commission_net, currency,
		       type, valeur_parametre, parameter_id, scope_level, scope_owner, calculated_at
		FROM commission_calculations
		WHERE historique_id = ?
		ORDER BY client_id
	`, historiqueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	var calcs []commission.Calculation
	for rows.Next() {
		var (
			c                                       commission.Calculation
			collecte, base, tva, net, currency, typ string
			valeur, calculatedAt                    string
			parameterID, scopeLevel, scopeOwner     sql.NullString
		)
		if err := rows.Scan(&c.ClientID, &collecte, &base, &tva, &net, &currency, &typ, &valeur,
			&parameterID, &scopeLevel, &scopeOwner, &calculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan calculation: %w", err)
		}
		amounts := []*generic.Amount{&c.MontantCollecte, &c.CommissionBase, &c.TVA, &c.CommissionNet}
		for i, v := range []string{collecte, base, tva, net} {
			if *amounts[i], err = parseAmount(v, currency); err != nil {
				return nil, err
			}
		}
		if c.ValeurParametre, err = decimal.NewFromString(valeur); err != nil {
			return nil, fmt.Errorf("corrupt calculation valeur: %w", err)
		}
		c.Type = commission.Type(typ)
		c.ParameterID = parameterID.String
		c.Scope = commission.Scope{Level: commission.ScopeLevel(scopeLevel.String), OwnerID: scopeOwner.String}
		c.CalculatedAt = parseTimestamp(calculatedAt)
		calcs = append(calcs, c)
	}
	return calcs, rows.Err()
}
