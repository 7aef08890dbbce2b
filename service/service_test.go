package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/history"
	"github.com/donjoker0605/focep-collect-backend-sub002/remuneration"
	"github.com/donjoker0605/focep-collect-backend-sub002/service"
	"github.com/donjoker0605/focep-collect-backend-sub002/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	store         *sqlite.Store
	ledger        generic.Ledger
	commissions   *service.CommissionService
	remunerations *service.RemunerationService
}

func newFixture(t *testing.T) *fixture {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := zaptest.NewLogger(t)
	rules := commission.DefaultRules()
	ledger := generic.NewLedger(store)
	guard := history.NewGuard(store, log)

	return &fixture{
		store:  store,
		ledger: ledger,
		commissions: &service.CommissionService{
			Collecteurs:  store,
			Transactions: store,
			Resolver:     commission.NewResolver(store),
			Calculator:   commission.NewCalculator(),
			Distributor:  commission.NewDistributor(),
			Guard:        guard,
			Calculations: store,
			Ledger:       ledger,
			Rules:        rules,
			Log:          log,
		},
		remunerations: &service.RemunerationService{
			Guard:     guard,
			Rubriques: store,
			Processor: remuneration.NewProcessor(),
			Ledger:    ledger,
			Rules:     rules,
			Log:       log,
			Now:       func() time.Time { return time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC) },
		},
	}
}

// flakyLedger fails Post on demand. With lostAck the batch is written but
// the caller still sees an error.
type flakyLedger struct {
	generic.Ledger
	down    bool
	lostAck bool
}

var errLedgerDown = errors.New("ledger unavailable")

func (l *flakyLedger) Post(ctx context.Context, keyPrefix string, movements []generic.Movement) error {
	if l.down {
		return errLedgerDown
	}
	if err := l.Ledger.Post(ctx, keyPrefix, movements); err != nil {
		return err
	}
	if l.lostAck {
		return errLedgerDown
	}
	return nil
}

func (f *fixture) flaky() *flakyLedger {
	l := &flakyLedger{Ledger: f.ledger}
	f.commissions.Ledger = l
	f.remunerations.Ledger = l
	return l
}

// balances snapshots every account a January run touches for col-1/cli-1.
func (f *fixture) balances(t *testing.T) map[generic.AccountID]string {
	t.Helper()
	out := make(map[generic.AccountID]string)
	for _, acc := range []generic.AccountID{
		generic.ClientAccount("cli-1"),
		generic.CollecteurAccount("col-1"),
		generic.AccountEMF,
		generic.AccountTaxes,
		generic.AccountCommissionPool,
	} {
		out[acc] = f.balance(t, acc, date(2025, time.March, 1)).Value.StringFixed(2)
	}
	return out
}

func date(y int, m time.Month, d int) generic.TimePoint { return generic.NewTimePoint(y, m, d) }

func fcfa(s string) generic.Amount {
	return generic.NewAmount(generic.MustParseDecimal(s), generic.CurrencyFCFA)
}

func january() generic.Period {
	return generic.Period{Start: date(2025, time.January, 1), End: date(2025, time.January, 31)}
}

func (f *fixture) collecteur(t *testing.T, id string, hired generic.TimePoint) {
	t.Helper()
	require.NoError(t, f.store.SaveCollecteur(context.Background(), service.Collecteur{
		ID: id, AgenceID: "ag-1", Nom: "Collecteur " + id, HireDate: hired,
	}))
}

func (f *fixture) tx(t *testing.T, collecteurID, clientID, montant string, sens service.Sens, at generic.TimePoint) {
	t.Helper()
	_, err := f.store.SaveTransaction(context.Background(), service.Transaction{
		ClientID: clientID, CollecteurID: collecteurID, Montant: fcfa(montant), Sens: sens, DateOperation: at,
	})
	require.NoError(t, err)
}

func (f *fixture) percentage(t *testing.T, level commission.ScopeLevel, owner, rate string) {
	t.Helper()
	_, err := f.store.SaveParameter(context.Background(), commission.Parameter{
		Scope:  commission.Scope{Level: level, OwnerID: owner},
		Type:   commission.TypePercentage,
		Valeur: generic.MustParseDecimal(rate),
		Actif:  true,
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, account generic.AccountID, at generic.TimePoint) generic.Amount {
	t.Helper()
	b, err := f.ledger.BalanceAt(context.Background(), account, at, generic.CurrencyFCFA)
	require.NoError(t, err)
	return b
}

// =============================================================================
// COMMISSION PROCESSING
// =============================================================================

func TestProcess_RegularCollecteur_EndToEnd(t *testing.T) {
	// GIVEN: A collecteur hired 12 months ago, two clients at 2 %
	//        (10 000 and 20 000 collected) and one withdrawal
	// WHEN: Processing January
	// THEN: total 600, collecteur 420, EMF 180, TVA EMF 34.65, a CALCULE
	//       batch, persisted lines and balanced ledger movements

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2024, time.January, 31))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "4000", service.SensEpargne, date(2025, time.January, 5))
	f.tx(t, "col-1", "cli-1", "6000", service.SensEpargne, date(2025, time.January, 20))
	f.tx(t, "col-1", "cli-2", "20000", service.SensEpargne, date(2025, time.January, 10))
	f.tx(t, "col-1", "cli-2", "3000", service.SensRetrait, date(2025, time.January, 11))
	f.tx(t, "col-1", "cli-2", "99999", service.SensEpargne, date(2025, time.February, 1))

	res, err := f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january()})
	require.NoError(t, err)

	h := res.History
	assert.Equal(t, history.StatutCalcule, h.Statut)
	assert.False(t, h.NouveauCollecteur)
	assert.Equal(t, 2, h.NombreClients)
	assert.True(t, h.MontantCommissionTotal.Equal(fcfa("600")))
	assert.True(t, h.MontantTvaTotal.Equal(fcfa("115.50")))
	assert.True(t, h.RemunerationCollecteur.Equal(fcfa("420")))
	assert.True(t, h.PartEMF.Equal(fcfa("180")))
	assert.True(t, h.TvaEMF.Equal(fcfa("34.65")))
	assert.True(t, res.Retraits["cli-2"].Equal(fcfa("3000")))
	assert.Empty(t, res.Warnings)

	lines, err := f.store.CalculationsFor(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	end := january().End
	assert.True(t, f.balance(t, generic.CollecteurAccount("col-1"), end).Equal(fcfa("420")))
	assert.True(t, f.balance(t, generic.AccountEMF, end).Equal(fcfa("145.35")), "180 share minus 34.65 VAT")
	assert.True(t, f.balance(t, generic.AccountCommissionPool, end).IsZero())
	assert.True(t, f.balance(t, generic.ClientAccount("cli-1"), end).Equal(fcfa("-238.50")))
}

func TestProcess_NouveauCollecteur(t *testing.T) {
	// GIVEN: A collecteur hired one month before the period end
	// WHEN: Processing 500 000 FCFA of commissions
	// THEN: The flat 40 000 applies instead of 70 %

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2024, time.December, 31))
	f.percentage(t, commission.ScopeAgence, "ag-1", "10")
	f.tx(t, "col-1", "cli-1", "5000000", service.SensEpargne, date(2025, time.January, 15))

	res, err := f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january()})

	require.NoError(t, err)
	assert.True(t, res.History.NouveauCollecteur)
	assert.True(t, res.History.MontantCommissionTotal.Equal(fcfa("500000")))
	assert.True(t, res.History.RemunerationCollecteur.Equal(fcfa("40000")))
	assert.True(t, res.History.PartEMF.Equal(fcfa("460000")))
}

func TestProcess_MissingParameter_StrictVersusBestEffort(t *testing.T) {
	// GIVEN: Two clients, only one covered by a parameter
	// WHEN: Processing strictly, then in best-effort mode
	// THEN: Strict fails with NoApplicableParameterError and records nothing;
	//       best-effort skips the client with a warning

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeClient, "cli-1", "2.5")
	f.tx(t, "col-1", "cli-1", "400000", service.SensEpargne, date(2025, time.January, 12))
	f.tx(t, "col-1", "cli-2", "100000", service.SensEpargne, date(2025, time.January, 12))

	_, err := f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january()})
	var noParam *commission.NoApplicableParameterError
	require.True(t, errors.As(err, &noParam))
	assert.Equal(t, "cli-2", noParam.Query.ClientID)

	list, err := f.store.ListByCollecteur(ctx, "col-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	res, err := f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january(), BestEffort: true})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "cli-2", res.Warnings[0].ClientID)
	assert.Equal(t, 1, res.History.NombreClients)
	assert.True(t, res.History.MontantCommissionTotal.Equal(fcfa("10000")))
}

func TestProcess_SamePeriodTwice(t *testing.T) {
	// GIVEN: January already processed
	// WHEN: Processing again without force, then with force
	// THEN: Conflict first; forced run supersedes and reposts under a new reference

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	req := service.CommissionRequest{CollecteurID: "col-1", Period: january()}

	first, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)

	_, err = f.commissions.Process(ctx, req)
	assert.ErrorIs(t, err, generic.ErrAlreadyProcessed)

	req.Force = true
	second, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.History.ID, second.History.ID)

	old, err := f.store.Get(ctx, first.History.ID)
	require.NoError(t, err)
	assert.Equal(t, history.StatutSupersede, old.Statut)
}

func TestProcess_ForcedRun_ReversesSupersededBatch(t *testing.T) {
	// GIVEN: One client with 10 000 collected at 2 %, processed once
	// WHEN: Processing January again with force, twice
	// THEN: Client, collecteur, EMF and tax balances equal a single run's

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	req := service.CommissionRequest{CollecteurID: "col-1", Period: january()}

	first, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)
	single := f.balances(t)
	assert.Equal(t, "-238.50", single[generic.ClientAccount("cli-1")])
	assert.Equal(t, "140.00", single[generic.CollecteurAccount("col-1")])

	req.Force = true
	second, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{first.History.ID}, second.Superseded)
	assert.Equal(t, single, f.balances(t))

	third, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{second.History.ID}, third.Superseded)
	assert.Equal(t, single, f.balances(t))
}

func TestProcess_LedgerFailure_LeavesNoBatch(t *testing.T) {
	// GIVEN: A ledger that rejects every posting
	// WHEN: Processing January, then retrying once the ledger is back
	// THEN: The failed run leaves no historique and no lines; the plain
	//       retry succeeds and posts once

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	ledger := f.flaky()
	ledger.down = true
	req := service.CommissionRequest{CollecteurID: "col-1", Period: january()}

	_, err := f.commissions.Process(ctx, req)
	require.ErrorIs(t, err, errLedgerDown)

	list, err := f.store.ListByCollecteur(ctx, "col-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	ledger.down = false
	res, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)

	lines, err := f.store.CalculationsFor(ctx, res.History.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Equal(t, "140.00", f.balances(t)[generic.CollecteurAccount("col-1")])
}

func TestProcess_FailedForcedRun_RetryReconciles(t *testing.T) {
	// GIVEN: January processed, then a forced run failing on the ledger
	// WHEN: Retrying without force once the ledger is back
	// THEN: The retry is accepted, the old batch stays superseded and the
	//       balances equal a single run's

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	req := service.CommissionRequest{CollecteurID: "col-1", Period: january()}
	first, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)
	single := f.balances(t)

	ledger := f.flaky()
	ledger.down = true
	_, err = f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january(), Force: true})
	require.ErrorIs(t, err, errLedgerDown)

	ledger.down = false
	retry, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)

	old, err := f.store.Get(ctx, first.History.ID)
	require.NoError(t, err)
	assert.Equal(t, history.StatutSupersede, old.Statut)
	assert.Equal(t, history.StatutCalcule, retry.History.Statut)
	assert.Equal(t, single, f.balances(t))

	list, err := f.store.ListByCollecteur(ctx, "col-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestProcess_UnknownCollecteur(t *testing.T) {
	f := newFixture(t)

	_, err := f.commissions.Process(context.Background(), service.CommissionRequest{CollecteurID: "ghost", Period: january()})

	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestProcess_InvalidPeriod(t *testing.T) {
	f := newFixture(t)
	bad := generic.Period{Start: january().End, End: january().Start}

	_, err := f.commissions.Process(context.Background(), service.CommissionRequest{CollecteurID: "col-1", Period: bad})

	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

// =============================================================================
// REMUNERATION
// =============================================================================

func TestRemunerate_OnceWithRubriques(t *testing.T) {
	// GIVEN: A processed batch with S = 420 and rubriques 50 000 constant,
	//        10 %, and one expired
	// WHEN: Remunerating twice
	// THEN: Vi = 50 042 is paid once, the second call is a conflict

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2024, time.January, 31))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	f.tx(t, "col-1", "cli-2", "20000", service.SensEpargne, date(2025, time.January, 6))
	processed, err := f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january()})
	require.NoError(t, err)

	delai := 10
	for _, r := range []remuneration.Rubrique{
		{Nom: "Transport", Type: remuneration.TypeConstant, Valeur: generic.MustParseDecimal("50000"),
			DateApplication: date(2025, time.January, 1), CollecteurIDs: []string{"col-1"}, Active: true},
		{Nom: "Rendement", Type: remuneration.TypePercentage, Valeur: generic.MustParseDecimal("10"),
			DateApplication: date(2025, time.January, 1), CollecteurIDs: []string{"col-1"}, Active: true},
		{Nom: "Expirée", Type: remuneration.TypeConstant, Valeur: generic.MustParseDecimal("15000"),
			DateApplication: date(2024, time.December, 1), DelaiJours: &delai, CollecteurIDs: []string{"col-1"}, Active: true},
	} {
		_, err := f.store.SaveRubrique(ctx, r)
		require.NoError(t, err)
	}

	out, err := f.remunerations.Remunerate(ctx, service.RemunerationRequest{HistoriqueID: processed.History.ID})
	require.NoError(t, err)

	assert.Len(t, out.Result.Lines, 2)
	assert.True(t, out.Remuneration.MontantSInitial.Equal(fcfa("420")))
	assert.True(t, out.Remuneration.TotalRubriquesVi.Equal(fcfa("50042")))
	assert.True(t, out.Remuneration.MontantEmf.Equal(fcfa("15012.60")))
	assert.True(t, out.Remuneration.MontantTva.Equal(fcfa("2889.93")))
	assert.Equal(t, "2025-02-03", out.Result.AsOf.String())

	h, err := f.store.Get(ctx, processed.History.ID)
	require.NoError(t, err)
	assert.True(t, h.Remunere)

	_, err = f.remunerations.Remunerate(ctx, service.RemunerationRequest{HistoriqueID: processed.History.ID})
	assert.ErrorIs(t, err, generic.ErrAlreadyRemunerated)

	asOf := date(2025, time.February, 3)
	assert.True(t, f.balance(t, generic.CollecteurAccount("col-1"), asOf).Equal(fcfa("50462")))

	saved, err := f.store.RemunerationFor(ctx, processed.History.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Remuneration.ID, saved.ID)
	assert.Contains(t, saved.Details, "Transport (50000 FCFA) = 50000.00 FCFA")
	assert.Contains(t, saved.Details, "Rendement (10 %) = 42.00 FCFA")
}

func TestRemunerate_LedgerFailure_BatchStaysRemunerable(t *testing.T) {
	// GIVEN: A processed batch (S = 140) and a 50 000 constant rubrique
	// WHEN: Remunerating while the ledger is down, then once it is back
	// THEN: The failure leaves the batch unremunerated with no record; the
	//       retry pays Vi once

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	processed, err := f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january()})
	require.NoError(t, err)
	_, err = f.store.SaveRubrique(ctx, remuneration.Rubrique{
		Nom: "Transport", Type: remuneration.TypeConstant, Valeur: generic.MustParseDecimal("50000"),
		DateApplication: date(2025, time.January, 1), CollecteurIDs: []string{"col-1"}, Active: true,
	})
	require.NoError(t, err)
	ledger := f.flaky()
	ledger.down = true
	req := service.RemunerationRequest{HistoriqueID: processed.History.ID}

	_, err = f.remunerations.Remunerate(ctx, req)
	require.ErrorIs(t, err, errLedgerDown)

	h, err := f.store.Get(ctx, processed.History.ID)
	require.NoError(t, err)
	assert.False(t, h.Remunere)
	_, err = f.store.RemunerationFor(ctx, processed.History.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	ledger.down = false
	out, err := f.remunerations.Remunerate(ctx, req)
	require.NoError(t, err)
	assert.True(t, out.History.Remunere)
	assert.Equal(t, "50140.00", f.balances(t)[generic.CollecteurAccount("col-1")])
}

func TestRemunerate_LostAcknowledgement_PaysViOnce(t *testing.T) {
	// GIVEN: A ledger that writes the Vi movement but reports an error
	// WHEN: Remunerating, then retrying with a healthy ledger
	// THEN: The retry completes the batch without crediting Vi a second time

	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	processed, err := f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january()})
	require.NoError(t, err)
	_, err = f.store.SaveRubrique(ctx, remuneration.Rubrique{
		Nom: "Transport", Type: remuneration.TypeConstant, Valeur: generic.MustParseDecimal("50000"),
		DateApplication: date(2025, time.January, 1), CollecteurIDs: []string{"col-1"}, Active: true,
	})
	require.NoError(t, err)
	ledger := f.flaky()
	ledger.lostAck = true
	req := service.RemunerationRequest{HistoriqueID: processed.History.ID}

	_, err = f.remunerations.Remunerate(ctx, req)
	require.ErrorIs(t, err, errLedgerDown)

	ledger.lostAck = false
	_, err = f.remunerations.Remunerate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "50140.00", f.balances(t)[generic.CollecteurAccount("col-1")])
	_, err = f.remunerations.Remunerate(ctx, req)
	assert.ErrorIs(t, err, generic.ErrAlreadyRemunerated)
}

func TestRemunerate_NoRubriques_ZeroVi(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	processed, err := f.commissions.Process(ctx, service.CommissionRequest{CollecteurID: "col-1", Period: january()})
	require.NoError(t, err)

	out, err := f.remunerations.Remunerate(ctx, service.RemunerationRequest{
		HistoriqueID: processed.History.ID,
		AsOf:         date(2025, time.February, 1),
	})

	require.NoError(t, err)
	assert.True(t, out.Remuneration.TotalRubriquesVi.IsZero())
	assert.Equal(t, "aucune rubrique applicable", out.Remuneration.Details)
	assert.True(t, out.History.Remunere)
}

func TestRemunerate_SupersededBatchRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.collecteur(t, "col-1", date(2020, time.June, 1))
	f.percentage(t, commission.ScopeCollecteur, "col-1", "2")
	f.tx(t, "col-1", "cli-1", "10000", service.SensEpargne, date(2025, time.January, 5))
	req := service.CommissionRequest{CollecteurID: "col-1", Period: january()}
	first, err := f.commissions.Process(ctx, req)
	require.NoError(t, err)
	req.Force = true
	_, err = f.commissions.Process(ctx, req)
	require.NoError(t, err)

	_, err = f.remunerations.Remunerate(ctx, service.RemunerationRequest{HistoriqueID: first.History.ID})

	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestRemunerate_UnknownHistorique(t *testing.T) {
	f := newFixture(t)

	_, err := f.remunerations.Remunerate(context.Background(), service.RemunerationRequest{HistoriqueID: "missing"})

	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestCollecteur_TenureMonths(t *testing.T) {
	c := service.Collecteur{HireDate: date(2024, time.November, 15)}

	assert.Equal(t, 2, c.TenureMonths(date(2025, time.January, 31)))
	assert.Equal(t, 0, c.TenureMonths(date(2024, time.October, 1)))
	assert.Equal(t, 0, service.Collecteur{}.TenureMonths(date(2025, time.January, 31)))
}
