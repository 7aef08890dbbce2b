package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/history"
	"github.com/donjoker0605/focep-collect-backend-sub002/remuneration"
)

type RemunerationRequest struct {
	HistoriqueID string
	AsOf         generic.TimePoint // rubrique validity date; zero = today
}

type RemunerationOutcome struct {
	History      history.CalculCommission
	Remuneration history.Remuneration
	Result       remuneration.Result
}

type RemunerationService struct {
	Guard     *history.Guard
	Rubriques RubriqueSource
	Processor *remuneration.Processor
	Ledger    generic.Ledger
	Rules     commission.Rules
	Log       *zap.Logger
	Now       func() time.Time
}

// Remunerate pays the Vi rubriques on a batch's S. A batch is remunerated at
// most once; the second call fails with AlreadyRemuneratedError.
func (s *RemunerationService) Remunerate(ctx context.Context, req RemunerationRequest) (RemunerationOutcome, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	h, err := s.Guard.Get(ctx, req.HistoriqueID)
	if err != nil {
		return RemunerationOutcome{}, err
	}
	if h.Remunere {
		return RemunerationOutcome{}, &generic.AlreadyRemuneratedError{HistoriqueID: h.ID}
	}
	if !h.Remunerable() {
		return RemunerationOutcome{}, generic.NewValidationError("statut",
			"historique %s is %s and cannot be remunerated", h.ID, h.Statut)
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = generic.DateOf(now())
	}

	rubriques, err := s.Rubriques.RubriquesFor(ctx, h.CollecteurID)
	if err != nil {
		return RemunerationOutcome{}, fmt.Errorf("load rubriques: %w", err)
	}

	montantS := h.RemunerationCollecteur
	res, err := s.Processor.Process(h.CollecteurID, montantS, rubriques, asOf, s.Rules)
	if err != nil {
		return RemunerationOutcome{}, err
	}

	at := now()
	rec := history.Remuneration{
		CollecteurID:       h.CollecteurID,
		Period:             h.Period,
		HistoriqueCalculID: h.ID,
		MontantSInitial:    montantS.Round(),
		TotalRubriquesVi:   res.TotalRubriquesVi.Round(),
		MontantEmf:         res.MontantEmf.Round(),
		MontantTva:         res.MontantTva,
		Details:            res.Details(),
		CreatedAt:          at,
	}

	// Vi goes to the ledger first under a key derived from the batch, so a
	// failure below leaves the batch remunerable and the retry does not post
	// it again.
	if s.Ledger != nil && res.TotalRubriquesVi.Round().IsPositive() {
		ref := RemunerationReference(h.ID)
		movements := generic.Stamp([]generic.Movement{{
			Debit:       generic.AccountEMF,
			Credit:      generic.CollecteurAccount(h.CollecteurID),
			Amount:      res.TotalRubriquesVi.Round(),
			Kind:        generic.MovementRubriqueRemuneration,
			EffectiveAt: asOf,
			Reason:      "rubriques Vi " + h.Period.String(),
		}}, ref)
		err := s.Ledger.Post(ctx, ref, movements)
		if err != nil && !errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
			return RemunerationOutcome{}, fmt.Errorf("post remuneration: %w", err)
		}
	}

	rec, err = s.Guard.CompleteRemuneration(ctx, rec)
	if err != nil {
		return RemunerationOutcome{}, err
	}
	h.Remunere = true
	h.DateRemuneration = &rec.CreatedAt

	log.Info("batch remunerated",
		zap.String("historique", h.ID),
		zap.String("collecteur", h.CollecteurID),
		zap.Int("rubriques", len(res.Lines)),
		zap.Stringer("vi", res.TotalRubriquesVi.Round()))

	return RemunerationOutcome{History: h, Remuneration: rec, Result: res}, nil
}
