/*
Package generic provides the domain-agnostic money and ledger primitives.

PURPOSE:
  This package contains the types shared by the commission, remuneration and
  history packages: monetary amounts, accounts, double-entry movements and the
  ledger entries they expand into. Nothing here knows about collecteurs,
  rubriques or commission parameters.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A monetary quantity with a currency (e.g., 1500 FCFA)
  - Movement: A DEBIT/CREDIT pair moving an amount between two accounts
  - Entry: One side of a movement, as stored in the ledger
  - AccountID: Type-safe ledger account identifier

DESIGN PRINCIPLES:
  1. Immutability: Entries are never modified, only reversed
  2. Precision: Uses decimal.Decimal, never float64, for money
  3. Type Safety: Strong typing for IDs prevents mixing accounts and entities
  4. Auditability: Every entry has reason, reference, and idempotency key

USAGE:
  mv := generic.Movement{
      Debit:  generic.ClientAccount("cli-1"),
      Credit: generic.AccountCommissionPool,
      Amount: generic.FCFA(200),
      Kind:   generic.MovementClientCommission,
  }
  entries := mv.Entries("batch-42:0")

SEE ALSO:
  - errors.go: Error taxonomy
  - ledger.go: Append-only ledger of entries
  - period.go: Date ranges used by calculations
*/
package generic

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Money with currency
// =============================================================================

type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

type Currency string

const (
	CurrencyFCFA Currency = "XAF"
)

// MoneyPlaces is the number of decimal places kept when money is persisted.
const MoneyPlaces int32 = 2

func NewAmount(value decimal.Decimal, currency Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

// FCFA builds an amount from an integer number of francs.
func FCFA(value int64) Amount {
	return Amount{Value: decimal.NewFromInt(value), Currency: CurrencyFCFA}
}

// ZeroFCFA is the additive identity for folds over FCFA amounts.
func ZeroFCFA() Amount {
	return Amount{Value: decimal.Zero, Currency: CurrencyFCFA}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("generic: invalid decimal literal " + s)
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Currency: a.Currency} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Currency: a.Currency} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Currency: a.Currency} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Percent returns a × rate / 100, unrounded.
func (a Amount) Percent(rate decimal.Decimal) Amount {
	return Amount{Value: a.Value.Mul(rate).Div(decimal.NewFromInt(100)), Currency: a.Currency}
}

// Round rounds half away from zero, which is half-up for the positive
// amounts the engine produces.
func (a Amount) Round() Amount {
	return Amount{Value: a.Value.Round(MoneyPlaces), Currency: a.Currency}
}

func (a Amount) String() string {
	return a.Value.StringFixed(MoneyPlaces) + " " + string(a.Currency)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type EntryID string
type MovementID string

// Well-known accounts. Client, collecteur and EMF accounts are derived from
// the owner's identifier.
const (
	AccountCommissionPool AccountID = "commission:pool"
	AccountTaxes          AccountID = "taxes:tva"
	AccountEMF            AccountID = "emf:commission"
)

func ClientAccount(clientID string) AccountID {
	return AccountID("client:" + clientID)
}

func CollecteurAccount(collecteurID string) AccountID {
	return AccountID("collecteur:" + collecteurID)
}

// =============================================================================
// MOVEMENT - Double-entry transfer between two accounts
// =============================================================================

type MovementKind string

const (
	MovementClientCommission     MovementKind = "client_commission"     // Commission debited from a client
	MovementClientTVA            MovementKind = "client_tva"            // VAT on the client commission
	MovementCollecteurShare      MovementKind = "collecteur_share"      // Collector remuneration from the pool
	MovementEMFShare             MovementKind = "emf_share"             // EMF retained share from the pool
	MovementEMFTVA               MovementKind = "emf_tva"               // VAT on the EMF share
	MovementRubriqueRemuneration MovementKind = "rubrique_remuneration" // Vi total paid to the collector
	MovementReversal             MovementKind = "reversal"              // Undo of a previous movement
)

// Movement debits one account and credits another by the same amount.
// Movements are pure data: building one performs no I/O.
type Movement struct {
	ID          MovementID
	Debit       AccountID
	Credit      AccountID
	Amount      Amount
	Kind        MovementKind
	EffectiveAt TimePoint
	ReferenceID string
	Reason      string
}

type Sens string

const (
	SensDebit  Sens = "DEBIT"
	SensCredit Sens = "CREDIT"
)

// Entries expands the movement into its DEBIT and CREDIT ledger entries.
// The debit side carries a negative delta so that an account balance is the
// plain sum of its entries.
func (m Movement) Entries(idempotencyKey string) []Entry {
	debitKey, creditKey := "", ""
	if idempotencyKey != "" {
		debitKey = idempotencyKey + ":D"
		creditKey = idempotencyKey + ":C"
	}
	return []Entry{
		{
			ID:             EntryID(string(m.ID) + ":D"),
			MovementID:     m.ID,
			AccountID:      m.Debit,
			Sens:           SensDebit,
			Delta:          m.Amount.Neg(),
			Kind:           m.Kind,
			EffectiveAt:    m.EffectiveAt,
			ReferenceID:    m.ReferenceID,
			Reason:         m.Reason,
			IdempotencyKey: debitKey,
		},
		{
			ID:             EntryID(string(m.ID) + ":C"),
			MovementID:     m.ID,
			AccountID:      m.Credit,
			Sens:           SensCredit,
			Delta:          m.Amount,
			Kind:           m.Kind,
			EffectiveAt:    m.EffectiveAt,
			ReferenceID:    m.ReferenceID,
			Reason:         m.Reason,
			IdempotencyKey: creditKey,
		},
	}
}

// Reverse returns the movement that cancels m.
func (m Movement) Reverse(id MovementID, reason string) Movement {
	return Movement{
		ID:          id,
		Debit:       m.Credit,
		Credit:      m.Debit,
		Amount:      m.Amount,
		Kind:        MovementReversal,
		EffectiveAt: m.EffectiveAt,
		ReferenceID: string(m.ID),
		Reason:      reason,
	}
}

// =============================================================================
// ENTRY - One side of a movement, as stored in the ledger
// =============================================================================

type Entry struct {
	ID             EntryID
	MovementID     MovementID
	AccountID      AccountID
	Sens           Sens
	Delta          Amount
	Kind           MovementKind
	EffectiveAt    TimePoint
	ReferenceID    string
	Reason         string
	IdempotencyKey string
	CreatedAt      TimePoint
}

// Stamp returns copies of the movements identified under a reference
// (typically a historique id): IDs become "<reference>:<index>".
func Stamp(movements []Movement, reference string) []Movement {
	out := make([]Movement, len(movements))
	for i, m := range movements {
		m.ID = MovementID(reference + ":" + strconv.Itoa(i))
		m.ReferenceID = reference
		out[i] = m
	}
	return out
}
