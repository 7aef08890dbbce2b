package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// LEDGER STORE (generic.Store interface)
// =============================================================================

func (s *Store) Append(ctx context.Context, e generic.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendEntry(ctx, s.db, e)
}

func (s *Store) appendEntry(ctx context.Context, db execer, e generic.Entry) error {
	query := `
		INSERT INTO ledger_entries
		(id, movement_id, account_id, sens, delta_value, currency, kind,
		 effective_at, reference_id, reason, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		string(e.ID),
		string(e.MovementID),
		string(e.AccountID),
		string(e.Sens),
		money(e.Delta),
		string(e.Delta.Currency),
		string(e.Kind),
		formatDate(e.EffectiveAt),
		nullString(e.ReferenceID),
		nullString(e.Reason),
		nullString(e.IdempotencyKey),
		s.timestamp(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// AppendBatch writes all entries in one transaction.
func (s *Store) AppendBatch(ctx context.Context, entries []generic.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range entries {
			if err := s.appendEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Load(ctx context.Context, account generic.AccountID) ([]generic.Entry, error) {
	return s.queryEntries(ctx, `
		SELECT id, movement_id, account_id, sens, delta_value, currency, kind,
		       effective_at, reference_id, reason, idempotency_key, created_at
		FROM ledger_entries
		WHERE account_id = ?
		ORDER BY effective_at, id
	`, string(account))
}

func (s *Store) LoadRange(ctx context.Context, account generic.AccountID, from, to generic.TimePoint) ([]generic.Entry, error) {
	return s.queryEntries(ctx, `
		SELECT id, movement_id, account_id, sens, delta_value, currency, kind,
		       effective_at, reference_id, reason, idempotency_key, created_at
		FROM ledger_entries
		WHERE account_id = ? AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at, id
	`, string(account), formatDate(from), formatDate(to))
}

func (s *Store) LoadByReference(ctx context.Context, referenceID string) ([]generic.Entry, error) {
	return s.queryEntries(ctx, `
		SELECT id, movement_id, account_id, sens, delta_value, currency, kind,
		       effective_at, reference_id, reason, idempotency_key, created_at
		FROM ledger_entries
		WHERE reference_id = ?
		ORDER BY id
	`, referenceID)
}

func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return count > 0, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]generic.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []generic.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (generic.Entry, error) {
	var (
		id, movementID, account, sens, kind          string
		deltaValue, currency, effectiveAt, createdAt string
		referenceID, reason, idempotencyKey          sql.NullString
	)
	err := rows.Scan(&id, &movementID, &account, &sens, &deltaValue, &currency, &kind,
		&effectiveAt, &referenceID, &reason, &idempotencyKey, &createdAt)
	if err != nil {
		return generic.Entry{}, fmt.Errorf("failed to scan entry: %w", err)
	}

	delta, err := parseAmount(deltaValue, currency)
	if err != nil {
		return generic.Entry{}, err
	}
	at, err := generic.ParseDate(effectiveAt)
	if err != nil {
		return generic.Entry{}, fmt.Errorf("corrupt entry date %q: %w", effectiveAt, err)
	}

	return generic.Entry{
		ID:             generic.EntryID(id),
		MovementID:     generic.MovementID(movementID),
		AccountID:      generic.AccountID(account),
		Sens:           generic.Sens(sens),
		Delta:          delta,
		Kind:           generic.MovementKind(kind),
		EffectiveAt:    at,
		ReferenceID:    referenceID.String,
		Reason:         reason.String,
		IdempotencyKey: idempotencyKey.String,
		CreatedAt:      generic.DateOf(parseTimestamp(createdAt)),
	}, nil
}
