package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// Store persists history records. Each mutating method is a single atomic
// check-and-set: implementations must not split the check from the write.
type Store interface {
	// InsertCalculation inserts rec unless a non-superseded batch of the same
	// collecteur overlaps its period. With force, overlapping batches are
	// marked SUPERSEDE first and their ids returned; a remunerated one still
	// blocks the insert.
	InsertCalculation(ctx context.Context, rec CalculCommission, force bool) ([]string, error)

	// DiscardCalculation removes a CALCULE, unremunerated batch together with
	// anything recorded under it. Used to roll back a run that failed after
	// the insert.
	DiscardCalculation(ctx context.Context, id string) error

	// CompleteRemuneration flips Remunere to true iff it is false and the
	// batch is CALCULE or VALIDE, and stores rec in the same step.
	CompleteRemuneration(ctx context.Context, id string, at time.Time, rec Remuneration) error

	// UpdateStatus moves a batch from one status to another iff it is
	// currently in from.
	UpdateStatus(ctx context.Context, id string, from, to Statut) error

	Get(ctx context.Context, id string) (CalculCommission, error)
	ListByCollecteur(ctx context.Context, collecteurID string) ([]CalculCommission, error)

	RemunerationFor(ctx context.Context, historiqueID string) (Remuneration, error)
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is a mutex-guarded Store for tests and development.
type MemoryStore struct {
	mu            sync.Mutex
	calculs       map[string]CalculCommission
	remunerations map[string]Remuneration // by historique id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calculs:       make(map[string]CalculCommission),
		remunerations: make(map[string]Remuneration),
	}
}

func (m *MemoryStore) InsertCalculation(_ context.Context, rec CalculCommission, force bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.calculs[rec.ID]; exists {
		return nil, generic.NewValidationError("id", "historique %s already exists", rec.ID)
	}

	var overlapping []string
	for id, h := range m.calculs {
		if h.CollecteurID != rec.CollecteurID || h.Statut == StatutSupersede || !h.Period.Overlaps(rec.Period) {
			continue
		}
		if !force {
			return nil, &generic.AlreadyProcessedError{CollecteurID: rec.CollecteurID, Period: h.Period, ExistingID: id}
		}
		if h.Remunere {
			return nil, &generic.AlreadyRemuneratedError{HistoriqueID: id}
		}
		overlapping = append(overlapping, id)
	}
	sort.Strings(overlapping)

	for _, id := range overlapping {
		h := m.calculs[id]
		h.Statut = StatutSupersede
		m.calculs[id] = h
	}
	m.calculs[rec.ID] = rec
	return overlapping, nil
}

func (m *MemoryStore) DiscardCalculation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.calculs[id]
	if !ok {
		return &generic.NotFoundError{Kind: "historique", ID: id}
	}
	if h.Remunere || h.Statut != StatutCalcule {
		return generic.NewValidationError("statut", "historique %s is %s and cannot be discarded", id, h.Statut)
	}
	delete(m.calculs, id)
	return nil
}

func (m *MemoryStore) CompleteRemuneration(_ context.Context, id string, at time.Time, rec Remuneration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.calculs[id]
	if !ok {
		return &generic.NotFoundError{Kind: "historique", ID: id}
	}
	if _, exists := m.remunerations[id]; h.Remunere || exists {
		return &generic.AlreadyRemuneratedError{HistoriqueID: id}
	}
	if !h.Remunerable() {
		return generic.NewValidationError("statut", "historique %s is %s and cannot be remunerated", id, h.Statut)
	}
	h.Remunere = true
	h.DateRemuneration = &at
	m.calculs[id] = h
	rec.HistoriqueCalculID = id
	m.remunerations[id] = rec
	return nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, from, to Statut) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.calculs[id]
	if !ok {
		return &generic.NotFoundError{Kind: "historique", ID: id}
	}
	if h.Statut != from {
		return generic.NewValidationError("statut", "historique %s is %s, expected %s", id, h.Statut, from)
	}
	h.Statut = to
	m.calculs[id] = h
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (CalculCommission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.calculs[id]
	if !ok {
		return CalculCommission{}, &generic.NotFoundError{Kind: "historique", ID: id}
	}
	return h, nil
}

func (m *MemoryStore) ListByCollecteur(_ context.Context, collecteurID string) ([]CalculCommission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []CalculCommission
	for _, h := range m.calculs {
		if h.CollecteurID == collecteurID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period.Start.Equal(out[j].Period.Start) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Period.Start.Before(out[j].Period.Start)
	})
	return out, nil
}

func (m *MemoryStore) RemunerationFor(_ context.Context, historiqueID string) (Remuneration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.remunerations[historiqueID]
	if !ok {
		return Remuneration{}, &generic.NotFoundError{Kind: "remuneration", ID: historiqueID}
	}
	return r, nil
}
