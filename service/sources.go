/*
Package service orchestrates the commission engine end to end.

DATA FLOW:
  CommissionService.Process:
    transactions (EPARGNE) ──▶ per-client collected amount
      ──Resolver+Calculator──▶ []Calculation
      ──Distributor──▶ Distribution
      ──Guard.BeginCalculation──▶ historique (CALCULE), older batches SUPERSEDE
      ──Ledger──▶ reversal of superseded batches ("reversal:<id>")
      ──CalculationStore / Ledger──▶ persisted lines and movements ("commission:<id>")
    A failure after the insert discards the new historique.

  RemunerationService.Remunerate:
    historique ──S──▶ Processor(rubriques)
      ──Ledger──▶ Vi movement ("remuneration:<id>")
      ──Guard.CompleteRemuneration (once)──▶ remunere flag + historique de remuneration

The pure calculators never do I/O; everything stateful goes through the
interfaces declared in this file.
*/
package service

import (
	"context"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/remuneration"
)

type Collecteur struct {
	ID       string
	AgenceID string
	Nom      string
	HireDate generic.TimePoint
}

// TenureMonths counts whole months of service at the given date.
func (c Collecteur) TenureMonths(at generic.TimePoint) int {
	if c.HireDate.IsZero() || at.Before(c.HireDate) {
		return 0
	}
	return generic.MonthsBetween(c.HireDate, at)
}

type CollecteurSource interface {
	Collecteur(ctx context.Context, id string) (Collecteur, error)
}

type Sens string

const (
	SensEpargne Sens = "EPARGNE" // Deposit collected from a client
	SensRetrait Sens = "RETRAIT" // Withdrawal
)

type Transaction struct {
	ID            string
	ClientID      string
	CollecteurID  string
	Montant       generic.Amount
	Sens          Sens
	DateOperation generic.TimePoint
}

type TransactionSource interface {
	// TransactionsFor returns the collecteur's transactions dated within period.
	TransactionsFor(ctx context.Context, collecteurID string, period generic.Period) ([]Transaction, error)
}

type RubriqueSource interface {
	RubriquesFor(ctx context.Context, collecteurID string) ([]remuneration.Rubrique, error)
}

// CalculationStore keeps the per-client lines of a batch.
type CalculationStore interface {
	SaveCalculations(ctx context.Context, historiqueID string, calcs []commission.Calculation) error
	CalculationsFor(ctx context.Context, historiqueID string) ([]commission.Calculation, error)
}
