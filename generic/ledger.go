/*
ledger.go - Append-only double-entry log

PURPOSE:
  The Ledger is the immutable record of every movement the commission engine
  hands to accounting: client commission debits, VAT, the collecteur/EMF
  split and rubrique remunerations. Account balances are always computed by
  replaying entries.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. BALANCED: Every movement writes one DEBIT and one CREDIT of equal size,
     so the sum of all entries is always zero.
  3. IDEMPOTENT: Same idempotency key = same entry (no duplicates)

CORRECTIONS:
  Mistakes are corrected with a reversal movement (Movement.Reverse); both
  the original and the reversal stay in the ledger.

SEE ALSO:
  - store.go: Low-level persistence interface
  - types.go: Movement and Entry
*/
package generic

import (
	"context"
	"fmt"
)

// Ledger is the source of truth for account balances.
type Ledger interface {
	// Post expands the movements into entries and appends them atomically.
	// keyPrefix, when set, makes the batch idempotent: entry keys are
	// "<keyPrefix>:<index>:D|C".
	Post(ctx context.Context, keyPrefix string, movements []Movement) error

	// Entries returns all entries of an account, chronologically.
	Entries(ctx context.Context, account AccountID) ([]Entry, error)

	// EntriesInRange returns entries of an account in [from, to].
	EntriesInRange(ctx context.Context, account AccountID, from, to TimePoint) ([]Entry, error)

	// EntriesByReference returns every entry posted under a reference.
	EntriesByReference(ctx context.Context, reference string) ([]Entry, error)

	// BalanceAt computes the account balance at a specific date.
	BalanceAt(ctx context.Context, account AccountID, at TimePoint, currency Currency) (Amount, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Post(ctx context.Context, keyPrefix string, movements []Movement) error {
	if len(movements) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(movements)*2)
	for i, mv := range movements {
		if mv.Debit == mv.Credit {
			return NewValidationError("movement", "debit and credit account are both %s", mv.Debit)
		}
		if mv.Amount.IsNegative() {
			return NewValidationError("movement", "negative amount %s on %s", mv.Amount, mv.Kind)
		}
		key := ""
		if keyPrefix != "" {
			key = fmt.Sprintf("%s:%d", keyPrefix, i)
		}
		entries = append(entries, mv.Entries(key)...)
	}

	// Check all idempotency keys first
	for _, e := range entries {
		if e.IdempotencyKey == "" {
			continue
		}
		exists, err := l.Store.Exists(ctx, e.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.AppendBatch(ctx, entries)
}

func (l *DefaultLedger) Entries(ctx context.Context, account AccountID) ([]Entry, error) {
	return l.Store.Load(ctx, account)
}

func (l *DefaultLedger) EntriesInRange(ctx context.Context, account AccountID, from, to TimePoint) ([]Entry, error) {
	return l.Store.LoadRange(ctx, account, from, to)
}

func (l *DefaultLedger) EntriesByReference(ctx context.Context, reference string) ([]Entry, error) {
	return l.Store.LoadByReference(ctx, reference)
}

func (l *DefaultLedger) BalanceAt(ctx context.Context, account AccountID, at TimePoint, currency Currency) (Amount, error) {
	entries, err := l.Store.Load(ctx, account)
	if err != nil {
		return Amount{}, err
	}

	balance := Amount{Currency: currency}
	for _, e := range entries {
		if e.EffectiveAt.After(at) {
			break
		}
		balance = balance.Add(e.Delta)
	}
	return balance, nil
}

// =============================================================================
// REVERSAL
// =============================================================================

// Reversal rebuilds the movements behind entries and returns the movements
// that cancel them, identified as "<reference>:<index>". Entries without
// both sides are ignored.
func Reversal(entries []Entry, reference, reason string) []Movement {
	type pair struct {
		debit, credit *Entry
	}
	var order []MovementID
	pairs := make(map[MovementID]*pair)
	for i := range entries {
		e := &entries[i]
		p, ok := pairs[e.MovementID]
		if !ok {
			p = &pair{}
			pairs[e.MovementID] = p
			order = append(order, e.MovementID)
		}
		if e.Sens == SensDebit {
			p.debit = e
		} else {
			p.credit = e
		}
	}

	out := make([]Movement, 0, len(order))
	for _, id := range order {
		p := pairs[id]
		if p.debit == nil || p.credit == nil {
			continue
		}
		original := Movement{
			ID:          id,
			Debit:       p.debit.AccountID,
			Credit:      p.credit.AccountID,
			Amount:      p.credit.Delta,
			Kind:        p.credit.Kind,
			EffectiveAt: p.credit.EffectiveAt,
			ReferenceID: p.credit.ReferenceID,
		}
		out = append(out, original.Reverse(MovementID(fmt.Sprintf("%s:%d", reference, len(out))), reason))
	}
	return out
}
