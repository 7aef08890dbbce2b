package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/history"
)

type CommissionRequest struct {
	CollecteurID string
	Period       generic.Period
	ProductCode  string
	Force        bool // supersede an existing batch for the period
	BestEffort   bool // skip failing clients instead of aborting
}

// Warning is a client skipped in best-effort mode.
type Warning struct {
	ClientID string
	Message  string
	Err      error
}

type ProcessingResult struct {
	History      history.CalculCommission
	Distribution commission.Distribution
	Warnings     []Warning
	Retraits     map[string]generic.Amount // withdrawals per client, reported only
	Superseded   []string                  // batches replaced by a forced run
}

type CommissionService struct {
	Collecteurs  CollecteurSource
	Transactions TransactionSource
	Resolver     *commission.Resolver
	Calculator   *commission.Calculator
	Distributor  *commission.Distributor
	Guard        *history.Guard
	Calculations CalculationStore
	Ledger       generic.Ledger
	Rules        commission.Rules
	Log          *zap.Logger
}

func (s *CommissionService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Process calculates, distributes and records one collecteur's commissions
// for a period.
func (s *CommissionService) Process(ctx context.Context, req CommissionRequest) (ProcessingResult, error) {
	log := s.logger().With(zap.String("collecteur", req.CollecteurID), zap.Stringer("period", req.Period))

	if req.CollecteurID == "" {
		return ProcessingResult{}, generic.NewValidationError("collecteurId", "missing collecteur")
	}
	if err := req.Period.Validate(); err != nil {
		return ProcessingResult{}, err
	}

	col, err := s.Collecteurs.Collecteur(ctx, req.CollecteurID)
	if err != nil {
		return ProcessingResult{}, fmt.Errorf("load collecteur: %w", err)
	}
	tenure := col.TenureMonths(req.Period.End)
	nouveau := s.Rules.IsNouveauCollecteur(tenure)

	txs, err := s.Transactions.TransactionsFor(ctx, req.CollecteurID, req.Period)
	if err != nil {
		return ProcessingResult{}, fmt.Errorf("load transactions: %w", err)
	}
	collected, retraits := aggregate(txs, req.Period)

	clients := make([]string, 0, len(collected))
	for id := range collected {
		clients = append(clients, id)
	}
	sort.Strings(clients)

	var (
		calcs    []commission.Calculation
		warnings []Warning
	)
	for _, clientID := range clients {
		calc, err := s.calculate(ctx, col, clientID, collected[clientID], req)
		if err != nil {
			if !req.BestEffort {
				return ProcessingResult{}, fmt.Errorf("client %s: %w", clientID, err)
			}
			log.Warn("client skipped", zap.String("client", clientID), zap.Error(err))
			warnings = append(warnings, Warning{ClientID: clientID, Message: err.Error(), Err: err})
			continue
		}
		calcs = append(calcs, calc)
	}

	dist, err := s.Distributor.Distribute(req.CollecteurID, req.Period, calcs, s.Rules, nouveau)
	if err != nil {
		return ProcessingResult{}, err
	}

	rec, superseded, err := s.Guard.BeginCalculation(ctx, history.CalculCommission{
		CollecteurID:           req.CollecteurID,
		Period:                 req.Period,
		MontantCommissionTotal: dist.TotalCommissions.Round(),
		MontantTvaTotal:        dist.TotalTVA.Round(),
		RemunerationCollecteur: dist.RemunerationCollecteur.Round(),
		PartEMF:                dist.PartEMF.Round(),
		TvaEMF:                 dist.TVAEMF.Round(),
		NombreClients:          len(calcs),
		NouveauCollecteur:      nouveau,
	}, req.Force)
	if err != nil {
		return ProcessingResult{}, err
	}

	if err := s.record(ctx, rec, calcs, &dist); err != nil {
		// Nothing was posted under rec: drop it so a plain retry is accepted.
		if derr := s.Guard.Discard(ctx, rec.ID); derr != nil {
			log.Error("failed to discard historique", zap.String("historique", rec.ID), zap.Error(derr))
		}
		return ProcessingResult{}, err
	}

	log.Info("commissions processed",
		zap.String("historique", rec.ID),
		zap.Int("clients", len(calcs)),
		zap.Int("warnings", len(warnings)),
		zap.Bool("nouveau", nouveau),
		zap.Stringer("total", dist.TotalCommissions.Round()))

	return ProcessingResult{
		History:      rec,
		Distribution: dist,
		Warnings:     warnings,
		Retraits:     retraits,
		Superseded:   superseded,
	}, nil
}

// record reverses the ledger movements of every superseded batch of the
// period, then saves rec's lines and posts its movements. Each posting is
// keyed on its batch id, so a retried run never posts twice.
func (s *CommissionService) record(ctx context.Context, rec history.CalculCommission, calcs []commission.Calculation, dist *commission.Distribution) error {
	if s.Ledger != nil {
		if err := s.reverseSuperseded(ctx, rec); err != nil {
			return err
		}
	}
	if s.Calculations != nil {
		if err := s.Calculations.SaveCalculations(ctx, rec.ID, calcs); err != nil {
			return fmt.Errorf("save calculations: %w", err)
		}
	}
	if s.Ledger != nil {
		ref := CommissionReference(rec.ID)
		dist.Movements = generic.Stamp(dist.Movements, ref)
		if err := s.Ledger.Post(ctx, ref, dist.Movements); err != nil {
			return fmt.Errorf("post movements: %w", err)
		}
	}
	return nil
}

// reverseSuperseded cancels what was posted for every SUPERSEDE batch
// overlapping rec's period. Batches already reversed are skipped, which
// also picks up reversals left over by an earlier failed run.
func (s *CommissionService) reverseSuperseded(ctx context.Context, rec history.CalculCommission) error {
	batches, err := s.Guard.ListByCollecteur(ctx, rec.CollecteurID)
	if err != nil {
		return fmt.Errorf("list historiques: %w", err)
	}
	for _, h := range batches {
		if h.Statut != history.StatutSupersede || !h.Period.Overlaps(rec.Period) {
			continue
		}
		var entries []generic.Entry
		for _, ref := range []string{CommissionReference(h.ID), RemunerationReference(h.ID)} {
			es, err := s.Ledger.EntriesByReference(ctx, ref)
			if err != nil {
				return fmt.Errorf("load movements of %s: %w", h.ID, err)
			}
			entries = append(entries, es...)
		}

		ref := ReversalReference(h.ID)
		movements := generic.Reversal(entries, ref, "superseded by "+rec.ID)
		switch err := s.Ledger.Post(ctx, ref, movements); {
		case err == nil:
			if len(movements) > 0 {
				s.logger().Info("superseded batch reversed",
					zap.String("historique", h.ID),
					zap.String("by", rec.ID),
					zap.Int("movements", len(movements)))
			}
		case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		default:
			return fmt.Errorf("reverse historique %s: %w", h.ID, err)
		}
	}
	return nil
}

// Ledger references of a batch. Entries posted under a reference carry it
// as ReferenceID and as their idempotency key prefix.
func CommissionReference(historiqueID string) string   { return "commission:" + historiqueID }
func RemunerationReference(historiqueID string) string { return "remuneration:" + historiqueID }
func ReversalReference(historiqueID string) string     { return "reversal:" + historiqueID }

func (s *CommissionService) calculate(ctx context.Context, col Collecteur, clientID string, montant generic.Amount, req CommissionRequest) (commission.Calculation, error) {
	param, err := s.Resolver.Resolve(ctx, commission.Query{
		ClientID:     clientID,
		CollecteurID: col.ID,
		AgenceID:     col.AgenceID,
		ProductCode:  req.ProductCode,
		AsOf:         req.Period.End,
	})
	if err != nil {
		return commission.Calculation{}, err
	}
	return s.Calculator.Calculate(clientID, montant, param, s.Rules)
}

// aggregate sums EPARGNE per client; RETRAIT is tallied separately and never
// commissioned. Transactions outside the period are ignored.
func aggregate(txs []Transaction, period generic.Period) (collected, retraits map[string]generic.Amount) {
	collected = make(map[string]generic.Amount)
	retraits = make(map[string]generic.Amount)
	for _, tx := range txs {
		if !period.Contains(tx.DateOperation) {
			continue
		}
		switch tx.Sens {
		case SensEpargne:
			collected[tx.ClientID] = sumInto(collected, tx.ClientID, tx.Montant)
		case SensRetrait:
			retraits[tx.ClientID] = sumInto(retraits, tx.ClientID, tx.Montant)
		}
	}
	for id, amt := range collected {
		if !amt.IsPositive() {
			delete(collected, id)
		}
	}
	return collected, retraits
}

func sumInto(m map[string]generic.Amount, key string, amt generic.Amount) generic.Amount {
	cur, ok := m[key]
	if !ok {
		return amt
	}
	return cur.Add(amt)
}
