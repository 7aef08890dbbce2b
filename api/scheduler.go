/*
scheduler.go - Automated monthly commission runs

PURPOSE:
  Periodically processes the last closed calendar month for every
  collecteur, so commissions exist even when nobody triggers the run from
  the back office.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Targets the month before the current one (the last closed month)
  - Runs in best-effort mode: clients without a parameter are logged and
    skipped instead of blocking the whole collecteur
  - A collecteur already processed for the month is skipped; the
    calculated-once guard makes repeated ticks harmless

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the scheduler is active (default: false)

USAGE:
  scheduler := NewCommissionScheduler(store, handler.Commissions, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ProcessCommissions endpoint (manual run)
  - service/commission.go: CommissionService.Process
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/service"
)

// CollecteurLister lists the collecteurs a run should cover.
type CollecteurLister interface {
	ListCollecteurs(ctx context.Context) ([]service.Collecteur, error)
}

// RunSummary counts the outcome of one scheduler pass.
type RunSummary struct {
	Period    generic.Period
	Processed int
	Skipped   int // already processed for the period
	Failed    int
}

// CommissionScheduler handles automated month-end commission runs.
type CommissionScheduler struct {
	Collecteurs   CollecteurLister
	Commissions   *service.CommissionService
	CheckInterval time.Duration
	Enabled       bool
	Log           *zap.Logger
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewCommissionScheduler(collecteurs CollecteurLister, commissions *service.CommissionService, log *zap.Logger) *CommissionScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommissionScheduler{
		Collecteurs:   collecteurs,
		Commissions:   commissions,
		CheckInterval: time.Hour,
		Log:           log.Named("scheduler"),
		Now:           time.Now,
	}
}

// Start begins the scheduler.
func (cs *CommissionScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		cs.Log.Info("scheduler disabled, not starting")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)

	go cs.run()

	cs.Log.Info("scheduler started", zap.Duration("interval", cs.CheckInterval))
}

// Stop stops the scheduler and waits for a pass in progress.
func (cs *CommissionScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker == nil {
		return
	}
	cs.ticker.Stop()
	close(cs.stop)
	cs.wg.Wait()
	cs.ticker = nil
	cs.Log.Info("scheduler stopped")
}

func (cs *CommissionScheduler) run() {
	defer cs.wg.Done()

	// Run immediately on start
	cs.RunNow(context.Background())

	for {
		select {
		case <-cs.ticker.C:
			cs.RunNow(context.Background())
		case <-cs.stop:
			return
		}
	}
}

// RunNow processes the last closed month for every collecteur.
func (cs *CommissionScheduler) RunNow(ctx context.Context) RunSummary {
	today := generic.DateOf(cs.Now())
	period := generic.MonthPeriod(today.AddDays(-today.Day()))
	summary := RunSummary{Period: period}
	log := cs.Log.With(zap.Stringer("period", period))

	collecteurs, err := cs.Collecteurs.ListCollecteurs(ctx)
	if err != nil {
		log.Error("failed to list collecteurs", zap.Error(err))
		return summary
	}

	for _, c := range collecteurs {
		_, err := cs.Commissions.Process(ctx, service.CommissionRequest{
			CollecteurID: c.ID,
			Period:       period,
			BestEffort:   true,
		})
		switch {
		case err == nil:
			summary.Processed++
		case errors.Is(err, generic.ErrAlreadyProcessed):
			summary.Skipped++
		default:
			summary.Failed++
			log.Warn("commission run failed", zap.String("collecteur", c.ID), zap.Error(err))
		}
	}

	if summary.Processed > 0 || summary.Failed > 0 {
		log.Info("commission run completed",
			zap.Int("processed", summary.Processed),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed))
	}
	return summary
}

// NextRunTime returns when the next scheduled check will occur.
func (cs *CommissionScheduler) NextRunTime() time.Time {
	return cs.Now().Add(cs.CheckInterval)
}
