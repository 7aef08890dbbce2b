/*
Package history records commission batches and their remuneration, and
guards both against double processing.

PURPOSE:
  A collecteur's commissions for a period are calculated once. The batch is
  then remunerated once. Both rules protect against paying a collecteur
  twice for the same work, so they are enforced by the store as atomic
  check-and-set operations, never as a read followed by a write.

LIFECYCLE:
  CALCULE ──Validate──▶ VALIDE ──MarkPaid──▶ PAYE
     │
     └── forced recalculation ──▶ SUPERSEDE (terminal)

  Remunere flips false → true exactly once, from CALCULE or VALIDE.

SEE ALSO:
  - guard.go: Guard, the entry point used by the services
  - store.go: Store contract and the in-memory implementation
  - store/sqlite: SQLite implementation
*/
package history

import (
	"time"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

type Statut string

const (
	StatutCalcule   Statut = "CALCULE"
	StatutValide    Statut = "VALIDE"
	StatutPaye      Statut = "PAYE"
	StatutSupersede Statut = "SUPERSEDE"
)

func (s Statut) Valid() bool {
	switch s {
	case StatutCalcule, StatutValide, StatutPaye, StatutSupersede:
		return true
	default:
		return false
	}
}

// Next is the status reached by the forward transition, if any.
func (s Statut) Next() (Statut, bool) {
	switch s {
	case StatutCalcule:
		return StatutValide, true
	case StatutValide:
		return StatutPaye, true
	default:
		return "", false
	}
}

// CalculCommission is one processed batch: a collecteur, a period, totals.
type CalculCommission struct {
	ID                     string
	CollecteurID           string
	Period                 generic.Period
	MontantCommissionTotal generic.Amount
	MontantTvaTotal        generic.Amount
	RemunerationCollecteur generic.Amount // S
	PartEMF                generic.Amount
	TvaEMF                 generic.Amount
	NombreClients          int
	NouveauCollecteur      bool
	Statut                 Statut
	Remunere               bool
	DateRemuneration       *time.Time
	CreatedAt              time.Time
}

// Remunerable reports whether the batch can still be remunerated.
func (h CalculCommission) Remunerable() bool {
	return !h.Remunere && (h.Statut == StatutCalcule || h.Statut == StatutValide)
}

// Remuneration is the Vi outcome recorded once per remunerated batch.
type Remuneration struct {
	ID                 string
	CollecteurID       string
	Period             generic.Period
	HistoriqueCalculID string
	MontantSInitial    generic.Amount
	TotalRubriquesVi   generic.Amount
	MontantEmf         generic.Amount
	MontantTva         generic.Amount
	Details            string
	CreatedAt          time.Time
}
