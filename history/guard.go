package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// Guard is the only way services touch history records.
type Guard struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewGuard(store Store, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{store: store, log: log.Named("history"), now: time.Now}
}

// BeginCalculation records a new CALCULE batch for rec's collecteur and
// period. Without force an existing overlapping batch yields
// AlreadyProcessedError; with force it is superseded unless remunerated,
// and the superseded ids are returned alongside the new record.
func (g *Guard) BeginCalculation(ctx context.Context, rec CalculCommission, force bool) (CalculCommission, []string, error) {
	if rec.CollecteurID == "" {
		return CalculCommission{}, nil, generic.NewValidationError("collecteurId", "missing collecteur")
	}
	if err := rec.Period.Validate(); err != nil {
		return CalculCommission{}, nil, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Statut = StatutCalcule
	rec.Remunere = false
	rec.DateRemuneration = nil
	rec.CreatedAt = g.now()

	superseded, err := g.store.InsertCalculation(ctx, rec, force)
	if err != nil {
		g.log.Warn("calculation refused",
			zap.String("collecteur", rec.CollecteurID),
			zap.Stringer("period", rec.Period),
			zap.Bool("force", force),
			zap.Error(err))
		return CalculCommission{}, nil, err
	}

	g.log.Info("calculation recorded",
		zap.String("historique", rec.ID),
		zap.String("collecteur", rec.CollecteurID),
		zap.Stringer("period", rec.Period),
		zap.Bool("force", force),
		zap.Strings("superseded", superseded))
	return rec, superseded, nil
}

// Discard removes a batch whose run failed before anything was posted.
func (g *Guard) Discard(ctx context.Context, id string) error {
	if err := g.store.DiscardCalculation(ctx, id); err != nil {
		return err
	}
	g.log.Info("calculation discarded", zap.String("historique", id))
	return nil
}

// Validate moves a batch CALCULE → VALIDE.
func (g *Guard) Validate(ctx context.Context, id string) error {
	return g.transition(ctx, id, StatutCalcule)
}

// MarkPaid moves a batch VALIDE → PAYE.
func (g *Guard) MarkPaid(ctx context.Context, id string) error {
	return g.transition(ctx, id, StatutValide)
}

func (g *Guard) transition(ctx context.Context, id string, from Statut) error {
	to, ok := from.Next()
	if !ok {
		return generic.NewValidationError("statut", "no transition from %s", from)
	}
	if err := g.store.UpdateStatus(ctx, id, from, to); err != nil {
		return err
	}
	g.log.Info("status changed", zap.String("historique", id),
		zap.String("from", string(from)), zap.String("to", string(to)))
	return nil
}

func (g *Guard) Get(ctx context.Context, id string) (CalculCommission, error) {
	return g.store.Get(ctx, id)
}

func (g *Guard) ListByCollecteur(ctx context.Context, collecteurID string) ([]CalculCommission, error) {
	return g.store.ListByCollecteur(ctx, collecteurID)
}

// CompleteRemuneration marks rec's batch remunerated and stores rec in one
// step. It succeeds exactly once per batch.
func (g *Guard) CompleteRemuneration(ctx context.Context, rec Remuneration) (Remuneration, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = g.now()
	}
	if err := g.store.CompleteRemuneration(ctx, rec.HistoriqueCalculID, rec.CreatedAt, rec); err != nil {
		return Remuneration{}, err
	}
	g.log.Info("batch remunerated", zap.String("historique", rec.HistoriqueCalculID), zap.Time("at", rec.CreatedAt))
	return rec, nil
}

func (g *Guard) RemunerationFor(ctx context.Context, historiqueID string) (Remuneration, error) {
	return g.store.RemunerationFor(ctx, historiqueID)
}
