/*
handlers_test.go - HTTP tests for the commission API

Tests for:
- Collecteur, parameter and transaction creation
- Commission processing and the calculated-once guard (409)
- Remuneration once per batch and the status lifecycle
- Ledger balances after processing
- Error to status mapping
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testServer struct {
	h   *Handler
	srv http.Handler
}

func setupTestServer(t *testing.T) *testServer {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, commission.DefaultRules(), zaptest.NewLogger(t))
	return &testServer{h: h, srv: NewRouter(h, nil)}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seedJanuary creates col-1 with a 2 % collecteur parameter and two clients
// collecting 10 000 and 20 000 FCFA in January 2025.
func (s *testServer) seedJanuary(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/collecteurs/", `{"id":"col-1","agence_id":"ag-1","nom":"Paul","hire_date":"2024-01-31"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/parameters", `{"scope":"COLLECTEUR","owner_id":"col-1","type":"PERCENTAGE","valeur":"2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, tx := range []struct{ client, montant, sens, date string }{
		{"cli-1", "4000", "EPARGNE", "2025-01-05"},
		{"cli-1", "6000", "EPARGNE", "2025-01-20"},
		{"cli-2", "20000", "EPARGNE", "2025-01-10"},
		{"cli-2", "3000", "RETRAIT", "2025-01-11"},
	} {
		body := fmt.Sprintf(`{"client_id":%q,"montant":%q,"sens":%q,"date_operation":%q}`, tx.client, tx.montant, tx.sens, tx.date)
		rec = s.do(t, http.MethodPost, "/api/collecteurs/col-1/transactions", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

const january = `{"period_start":"2025-01-01","period_end":"2025-01-31"}`

// =============================================================================
// PROCESSING
// =============================================================================

func TestProcessCommissions_Success(t *testing.T) {
	// GIVEN: col-1 with January collections
	// WHEN: Processing January
	// THEN: 201 with total 600, collecteur 420, EMF 180 and TVA EMF 34.65

	s := setupTestServer(t)
	s.seedJanuary(t)

	rec := s.do(t, http.MethodPost, "/api/collecteurs/col-1/commissions", january)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[ProcessingResultDTO](t, rec)
	assert.Equal(t, "600.00", res.TotalCommissions)
	assert.Equal(t, "115.50", res.TotalTVA)
	assert.Equal(t, "420.00", res.RemunerationCollecteur)
	assert.Equal(t, "180.00", res.PartEMF)
	assert.Equal(t, "34.65", res.TvaEMF)
	assert.Equal(t, "CALCULE", res.Historique.Statut)
	assert.Equal(t, 2, res.Historique.NombreClients)
	assert.Len(t, res.Calculations, 2)
	assert.NotEmpty(t, res.Movements)
	assert.Equal(t, "3000.00", res.Retraits["cli-2"])

	list := s.do(t, http.MethodGet, "/api/collecteurs/col-1/historiques", "")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decodeBody[[]HistoriqueDTO](t, list), 1)
}

func TestProcessCommissions_SamePeriodTwice(t *testing.T) {
	// GIVEN: January already processed
	// WHEN: Processing it again, then again with force
	// THEN: 409 first, 201 with force, the old batch superseded and its
	//       movements reversed so the collecteur is credited once

	s := setupTestServer(t)
	s.seedJanuary(t)
	first := s.do(t, http.MethodPost, "/api/collecteurs/col-1/commissions", january)
	require.Equal(t, http.StatusCreated, first.Code)

	again := s.do(t, http.MethodPost, "/api/collecteurs/col-1/commissions", january)
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Equal(t, "commissions already processed for this period", decodeBody[ErrorResponse](t, again).Error)

	forced := s.do(t, http.MethodPost, "/api/collecteurs/col-1/commissions",
		`{"period_start":"2025-01-01","period_end":"2025-01-31","force":true}`)
	require.Equal(t, http.StatusCreated, forced.Code, forced.Body.String())

	list := decodeBody[[]HistoriqueDTO](t, s.do(t, http.MethodGet, "/api/collecteurs/col-1/historiques", ""))
	statuts := map[string]string{}
	for _, h := range list {
		statuts[h.ID] = h.Statut
	}
	firstID := decodeBody[ProcessingResultDTO](t, first).Historique.ID
	assert.Equal(t, "SUPERSEDE", statuts[firstID])
	assert.Equal(t, []string{firstID}, decodeBody[ProcessingResultDTO](t, forced).Superseded)

	bal := decodeBody[BalanceDTO](t, s.do(t, http.MethodGet, "/api/accounts/collecteur:col-1/balance?as_of=2025-01-31", ""))
	assert.Equal(t, "420.00", bal.Balance)
	pool := decodeBody[BalanceDTO](t, s.do(t, http.MethodGet, "/api/accounts/commission:pool/balance?as_of=2025-01-31", ""))
	assert.Equal(t, "0.00", pool.Balance)
}

func TestProcessCommissions_Errors(t *testing.T) {
	s := setupTestServer(t)
	s.seedJanuary(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown collecteur", "/api/collecteurs/col-404/commissions", january, http.StatusNotFound},
		{"inverted period", "/api/collecteurs/col-1/commissions", `{"period_start":"2025-01-31","period_end":"2025-01-01"}`, http.StatusBadRequest},
		{"bad date", "/api/collecteurs/col-1/commissions", `{"period_start":"janvier","period_end":"2025-01-31"}`, http.StatusBadRequest},
		{"malformed body", "/api/collecteurs/col-1/commissions", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestProcessCommissions_NoParameter(t *testing.T) {
	// GIVEN: A collecteur with collections but no parameter at any level
	// WHEN: Processing strictly, then best-effort
	// THEN: 422, then 201 with one warning per uncovered client

	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/collecteurs/",
		`{"id":"col-9","agence_id":"ag-9","nom":"Awa","hire_date":"2020-01-01"}`).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/collecteurs/col-9/transactions",
		`{"client_id":"cli-9","montant":"5000","sens":"EPARGNE","date_operation":"2025-01-10"}`).Code)

	strict := s.do(t, http.MethodPost, "/api/collecteurs/col-9/commissions", january)
	assert.Equal(t, http.StatusUnprocessableEntity, strict.Code)
	assert.Equal(t, "no applicable commission parameter", decodeBody[ErrorResponse](t, strict).Error)

	lenient := s.do(t, http.MethodPost, "/api/collecteurs/col-9/commissions",
		`{"period_start":"2025-01-01","period_end":"2025-01-31","best_effort":true}`)
	require.Equal(t, http.StatusCreated, lenient.Code, lenient.Body.String())
	res := decodeBody[ProcessingResultDTO](t, lenient)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "cli-9", res.Warnings[0].ClientID)
}

// =============================================================================
// REMUNERATION AND LIFECYCLE
// =============================================================================

func TestRemunerate_OncePerBatch(t *testing.T) {
	// GIVEN: A processed January batch and a 5 000 FCFA rubrique
	// WHEN: Remunerating twice
	// THEN: 201 with Vi 5000, then 409

	s := setupTestServer(t)
	s.seedJanuary(t)
	rub := s.do(t, http.MethodPost, "/api/rubriques",
		`{"nom":"Transport","type":"CONSTANT","valeur":"5000","date_application":"2025-01-01","collecteur_ids":["col-1"]}`)
	require.Equal(t, http.StatusCreated, rub.Code, rub.Body.String())
	assert.Equal(t, "5000 FCFA", decodeBody[RubriqueDTO](t, rub).Valeur)

	processed := decodeBody[ProcessingResultDTO](t, s.do(t, http.MethodPost, "/api/collecteurs/col-1/commissions", january))
	path := "/api/historiques/" + processed.Historique.ID + "/remunerate"

	rec := s.do(t, http.MethodPost, path, `{"as_of":"2025-02-03"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decodeBody[RemunerationDTO](t, rec)
	assert.Equal(t, "420.00", out.MontantSInitial)
	assert.Equal(t, "5000.00", out.TotalRubriquesVi)
	assert.Equal(t, "1500.00", out.MontantEmf)
	require.Len(t, out.Lines, 1)

	again := s.do(t, http.MethodPost, path, "")
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Equal(t, "commission batch already remunerated", decodeBody[ErrorResponse](t, again).Error)

	missing := s.do(t, http.MethodPost, "/api/historiques/nope/remunerate", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestHistoriqueLifecycle(t *testing.T) {
	// GIVEN: A CALCULE batch
	// WHEN: Paying early, validating, paying
	// THEN: 400, then VALIDE, then PAYE

	s := setupTestServer(t)
	s.seedJanuary(t)
	processed := decodeBody[ProcessingResultDTO](t, s.do(t, http.MethodPost, "/api/collecteurs/col-1/commissions", january))
	base := "/api/historiques/" + processed.Historique.ID

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, base+"/pay", "").Code)

	rec := s.do(t, http.MethodPost, base+"/validate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "VALIDE", decodeBody[HistoriqueDTO](t, rec).Statut)

	rec = s.do(t, http.MethodPost, base+"/pay", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PAYE", decodeBody[HistoriqueDTO](t, rec).Statut)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/historiques/nope/validate", "").Code)
}

// =============================================================================
// CONFIGURATION AND LEDGER
// =============================================================================

func TestCreateParameter_Invalid(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/parameters", `{"scope":"REGION","owner_id":"r","type":"FIXED","valeur":"1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid commission parameter", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCreateTransaction_Invalid(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/collecteurs/col-1/transactions",
		`{"client_id":"cli-1","montant":"100","sens":"VIREMENT","date_operation":"2025-01-10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/collecteurs/col-1/transactions",
		`{"client_id":"cli-1","montant":"0","sens":"EPARGNE","date_operation":"2025-01-10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBalance(t *testing.T) {
	// GIVEN: A processed January batch
	// WHEN: Reading balances at month end and before the period
	// THEN: Collecteur 420.00 at month end, nothing before

	s := setupTestServer(t)
	s.seedJanuary(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/collecteurs/col-1/commissions", january).Code)

	rec := s.do(t, http.MethodGet, "/api/accounts/collecteur:col-1/balance?as_of=2025-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bal := decodeBody[BalanceDTO](t, rec)
	assert.Equal(t, "420.00", bal.Balance)
	assert.Equal(t, "XAF", bal.Currency)
	assert.Positive(t, bal.Entries)

	pool := decodeBody[BalanceDTO](t, s.do(t, http.MethodGet, "/api/accounts/commission:pool/balance?as_of=2025-01-31", ""))
	assert.Equal(t, "0.00", pool.Balance)

	before := decodeBody[BalanceDTO](t, s.do(t, http.MethodGet, "/api/accounts/collecteur:col-1/balance?as_of=2024-12-31", ""))
	assert.Equal(t, "0.00", before.Balance)
	assert.Zero(t, before.Entries)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/accounts/x/balance?as_of=demain", "").Code)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no parameter", &commission.NoApplicableParameterError{Query: commission.Query{ClientID: "c"}}, http.StatusUnprocessableEntity},
		{"already remunerated", &generic.AlreadyRemuneratedError{HistoriqueID: "h"}, http.StatusConflict},
		{"already processed", fmt.Errorf("wrapped: %w", &generic.AlreadyProcessedError{ExistingID: "h"}), http.StatusConflict},
		{"duplicate posting", generic.ErrDuplicateIdempotencyKey, http.StatusConflict},
		{"not found", generic.ErrNotFound, http.StatusNotFound},
		{"configuration", generic.ErrConfiguration, http.StatusUnprocessableEntity},
		{"validation", generic.NewValidationError("f", "bad"), http.StatusBadRequest},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}
