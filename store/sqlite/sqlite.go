/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the commission engine on SQLite.
  The same schema ports to PostgreSQL with minor dialect changes.

INTERFACES IMPLEMENTED:
  generic.Store:              Ledger entries (ledger.go)
  commission.ParameterSource: Commission parameters (parameters.go)
  service.RubriqueSource:     Remuneration rubriques (rubriques.go)
  history.Store:              Batch history with check-and-set guards (history.go)
  service.CollecteurSource,
  service.TransactionSource,
  service.CalculationStore:   Referential and per-client lines (referential.go)

APPEND-ONLY ENFORCEMENT:
  ledger_entries has no UPDATE or DELETE path. Corrections are reversal
  movements.

KEY TABLES:
  ledger_entries:               Immutable double-entry log
  commission_parameters:        Tariffs per scope (tiers as JSON)
  rubriques, rubrique_collecteurs: Vi rules and their assignment
  historique_calcul_commission: One row per processed batch
  historique_remuneration:      One row per remunerated batch
  commission_calculations:      Per-client lines of a batch
  collecteurs, clients, collect_transactions: Referential data

INDEXES:
  - idx_historique_active: At most one non-superseded batch per collecteur
    and exact period; overlapping periods are checked inside the insert
    transaction
  - idx_remuneration_batch: One remuneration per batch
  - ledger_entries.idempotency_key UNIQUE: Retried postings are rejected

CONCURRENCY:
  Writers are serialized by a mutex and by BEGIN IMMEDIATE transactions
  (_txlock=immediate), so every check-and-set runs alone.

MONEY:
  Stored as TEXT decimals rounded to 2 places. Dates are stored as
  YYYY-MM-DD so lexical comparison is chronological.

USAGE:
  store, err := sqlite.New("./data/collect.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store)

SEE ALSO:
  - generic/store.go: Ledger store interface
  - history/store.go: History store interface and memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
	-- Ledger (append-only)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		movement_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		sens TEXT NOT NULL,
		delta_value TEXT NOT NULL,
		currency TEXT NOT NULL,
		kind TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_account_date
		ON ledger_entries(account_id, effective_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_reference
		ON ledger_entries(reference_id) WHERE reference_id IS NOT NULL;

	-- Referential
	CREATE TABLE IF NOT EXISTS collecteurs (
		id TEXT PRIMARY KEY,
		agence_id TEXT NOT NULL,
		nom TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		collecteur_id TEXT NOT NULL REFERENCES collecteurs(id),
		nom TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS collect_transactions (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		collecteur_id TEXT NOT NULL,
		montant TEXT NOT NULL,
		sens TEXT NOT NULL CHECK (sens IN ('EPARGNE', 'RETRAIT')),
		date_operation TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_collect_tx_collecteur_date
		ON collect_transactions(collecteur_id, date_operation);

	-- Commission configuration
	CREATE TABLE IF NOT EXISTS commission_parameters (
		id TEXT PRIMARY KEY,
		scope_level TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		product_code TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		valeur TEXT NOT NULL,
		tiers_json TEXT,
		actif BOOLEAN NOT NULL DEFAULT TRUE,
		date_debut TEXT,
		date_fin TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parameters_scope
		ON commission_parameters(scope_level, owner_id);

	CREATE TABLE IF NOT EXISTS rubriques (
		id TEXT PRIMARY KEY,
		nom TEXT NOT NULL,
		type TEXT NOT NULL,
		valeur TEXT NOT NULL,
		date_application TEXT NOT NULL,
		delai_jours INTEGER,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rubrique_collecteurs (
		rubrique_id TEXT NOT NULL REFERENCES rubriques(id) ON DELETE CASCADE,
		collecteur_id TEXT NOT NULL,
		PRIMARY KEY (rubrique_id, collecteur_id)
	);

	CREATE INDEX IF NOT EXISTS idx_rubrique_collecteurs_collecteur
		ON rubrique_collecteurs(collecteur_id);

	-- History
	CREATE TABLE IF NOT EXISTS historique_calcul_commission (
		id TEXT PRIMARY KEY,
		collecteur_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		montant_commission_total TEXT NOT NULL,
		montant_tva_total TEXT NOT NULL,
		remuneration_collecteur TEXT NOT NULL,
		part_emf TEXT NOT NULL,
		tva_emf TEXT NOT NULL,
		currency TEXT NOT NULL,
		nombre_clients INTEGER NOT NULL,
		nouveau_collecteur BOOLEAN NOT NULL DEFAULT FALSE,
		statut TEXT NOT NULL,
		remunere BOOLEAN NOT NULL DEFAULT FALSE,
		date_remuneration TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one live batch per collecteur and period
	CREATE UNIQUE INDEX IF NOT EXISTS idx_historique_active
		ON historique_calcul_commission(collecteur_id, period_start, period_end)
		WHERE statut != 'SUPERSEDE';

	CREATE INDEX IF NOT EXISTS idx_historique_collecteur
		ON historique_calcul_commission(collecteur_id, period_start);

	CREATE TABLE IF NOT EXISTS historique_remuneration (
		id TEXT PRIMARY KEY,
		historique_calcul_id TEXT NOT NULL REFERENCES historique_calcul_commission(id),
		collecteur_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		montant_s_initial TEXT NOT NULL,
		total_rubriques_vi TEXT NOT NULL,
		montant_emf TEXT NOT NULL,
		montant_tva TEXT NOT NULL,
		currency TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_remuneration_batch
		ON historique_remuneration(historique_calcul_id);

	CREATE TABLE IF NOT EXISTS commission_calculations (
		id TEXT PRIMARY KEY,
		historique_id TEXT NOT NULL REFERENCES historique_calcul_commission(id),
		client_id TEXT NOT NULL,
		montant_collecte TEXT NOT NULL,
		commission_base TEXT NOT NULL,
		tva TEXT NOT NULL,
		commission_net TEXT NOT NULL,
		currency TEXT NOT NULL,
		type TEXT NOT NULL,
		valeur_parametre TEXT NOT NULL,
		parameter_id TEXT,
		scope_level TEXT,
		scope_owner TEXT,
		calculated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_historique
		ON commission_calculations(historique_id);
	`

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a BEGIN IMMEDIATE transaction under the write lock.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Reset clears all data (for demo scenarios and tests).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"commission_calculations",
		"historique_remuneration",
		"historique_calcul_commission",
		"rubrique_collecteurs",
		"rubriques",
		"commission_parameters",
		"collect_transactions",
		"clients",
		"collecteurs",
		"ledger_entries",
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to reset %s: %w", table, err)
			}
		}
		return nil
	})
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// money renders an amount for persistence.
func money(a generic.Amount) string {
	return a.Value.StringFixed(generic.MoneyPlaces)
}

func parseAmount(value, currency string) (generic.Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return generic.Amount{}, fmt.Errorf("corrupt amount %q: %w", value, err)
	}
	return generic.NewAmount(d, generic.Currency(currency)), nil
}

func formatDate(tp generic.TimePoint) string {
	return tp.Time.Format(generic.DateLayout)
}

func formatOptionalDate(tp *generic.TimePoint) sql.NullString {
	if tp == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*tp), Valid: true}
}

func parseOptionalDate(ns sql.NullString) (*generic.TimePoint, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	tp, err := generic.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
