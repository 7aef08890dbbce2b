/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes commission processing, remuneration and configuration over REST.
  Handlers parse and validate requests, delegate to the services, and map
  domain errors to HTTP statuses.

ENDPOINTS:
  Collecteurs:
    POST   /api/collecteurs                       Create or update a collecteur
    POST   /api/collecteurs/{id}/transactions     Record an EPARGNE/RETRAIT
    POST   /api/collecteurs/{id}/commissions      Process a period
    GET    /api/collecteurs/{id}/historiques      List processed batches

  Historiques:
    POST   /api/historiques/{id}/remunerate       Pay rubriques on S (once)
    POST   /api/historiques/{id}/validate         CALCULE → VALIDE
    POST   /api/historiques/{id}/pay              VALIDE → PAYE

  Configuration:
    POST   /api/parameters                        Create a commission parameter
    POST   /api/rubriques                         Create a rubrique

  Ledger:
    GET    /api/accounts/{id}/balance?as_of=      Account balance

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Already processed / already remunerated / duplicate posting
  - 422: Unusable configuration, no applicable commission parameter
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/factory"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/history"
	"github.com/donjoker0605/focep-collect-backend-sub002/remuneration"
	"github.com/donjoker0605/focep-collect-backend-sub002/service"
	"github.com/donjoker0605/focep-collect-backend-sub002/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

type Handler struct {
	Store         *sqlite.Store
	Factory       *factory.Factory
	Ledger        generic.Ledger
	Guard         *history.Guard
	Commissions   *service.CommissionService
	Remunerations *service.RemunerationService
	Log           *zap.Logger

	validate        *validator.Validate
	currentScenario string
}

// NewHandler wires the services on top of a single SQLite store.
func NewHandler(store *sqlite.Store, rules commission.Rules, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	ledger := generic.NewLedger(store)
	guard := history.NewGuard(store, log)

	return &Handler{
		Store:   store,
		Factory: factory.New(),
		Ledger:  ledger,
		Guard:   guard,
		Commissions: &service.CommissionService{
			Collecteurs:  store,
			Transactions: store,
			Resolver:     commission.NewResolver(store),
			Calculator:   commission.NewCalculator(),
			Distributor:  commission.NewDistributor(),
			Guard:        guard,
			Calculations: store,
			Ledger:       ledger,
			Rules:        rules,
			Log:          log.Named("commission"),
		},
		Remunerations: &service.RemunerationService{
			Guard:     guard,
			Rubriques: store,
			Processor: remuneration.NewProcessor(),
			Ledger:    ledger,
			Rules:     rules,
			Log:       log.Named("remuneration"),
		},
		Log:      log.Named("api"),
		validate: validator.New(),
	}
}

// =============================================================================
// COLLECTEUR HANDLERS
// =============================================================================

func (h *Handler) CreateCollecteur(w http.ResponseWriter, r *http.Request) {
	var req CreateCollecteurRequest
	if !h.decode(w, r, &req) {
		return
	}
	hireDate, err := generic.ParseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}

	c := service.Collecteur{ID: req.ID, AgenceID: req.AgenceID, Nom: req.Nom, HireDate: hireDate}
	if err := h.Store.SaveCollecteur(r.Context(), c); err != nil {
		h.fail(w, "Failed to save collecteur", err)
		return
	}
	writeJSON(w, http.StatusCreated, CollecteurDTO{ID: c.ID, AgenceID: c.AgenceID, Nom: c.Nom, HireDate: c.HireDate.String()})
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	montant, err := decimal.NewFromString(req.Montant)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid montant", err)
		return
	}
	date, err := generic.ParseDate(req.DateOperation)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date_operation format (use YYYY-MM-DD)", err)
		return
	}

	tx, err := h.Store.SaveTransaction(r.Context(), service.Transaction{
		ClientID:      req.ClientID,
		CollecteurID:  chi.URLParam(r, "id"),
		Montant:       generic.NewAmount(montant, generic.CurrencyFCFA),
		Sens:          service.Sens(req.Sens),
		DateOperation: date,
	})
	if err != nil {
		h.fail(w, "Failed to record transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": tx.ID})
}

// ProcessCommissions runs the commission pipeline for one collecteur and
// period.
func (h *Handler) ProcessCommissions(w http.ResponseWriter, r *http.Request) {
	var req ProcessCommissionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}

	res, err := h.Commissions.Process(r.Context(), service.CommissionRequest{
		CollecteurID: chi.URLParam(r, "id"),
		Period:       period,
		ProductCode:  req.ProductCode,
		Force:        req.Force,
		BestEffort:   req.BestEffort,
	})
	if err != nil {
		h.fail(w, "", err)
		return
	}
	writeJSON(w, http.StatusCreated, ToProcessingResultDTO(res))
}

func (h *Handler) ListHistoriques(w http.ResponseWriter, r *http.Request) {
	records, err := h.Guard.ListByCollecteur(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to list historiques", err)
		return
	}
	dtos := make([]HistoriqueDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toHistoriqueDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HISTORIQUE HANDLERS
// =============================================================================

func (h *Handler) Remunerate(w http.ResponseWriter, r *http.Request) {
	var req RemunerateRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	var asOf generic.TimePoint
	if req.AsOf != "" {
		var err error
		if asOf, err = generic.ParseDate(req.AsOf); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
	}

	out, err := h.Remunerations.Remunerate(r.Context(), service.RemunerationRequest{
		HistoriqueID: chi.URLParam(r, "id"),
		AsOf:         asOf,
	})
	if err != nil {
		h.fail(w, "", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRemunerationDTO(out))
}

func (h *Handler) ValidateHistorique(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Guard.Validate)
}

func (h *Handler) PayHistorique(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Guard.MarkPaid)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, step func(context.Context, string) error) {
	id := chi.URLParam(r, "id")
	if err := step(r.Context(), id); err != nil {
		h.fail(w, "", err)
		return
	}
	rec, err := h.Guard.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoriqueDTO(rec))
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

func (h *Handler) CreateParameter(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p, err := h.Factory.ParseParameter(body)
	if err != nil {
		h.fail(w, "Invalid commission parameter", err)
		return
	}
	if p, err = h.Store.SaveParameter(r.Context(), p); err != nil {
		h.fail(w, "Failed to save parameter", err)
		return
	}
	writeJSON(w, http.StatusCreated, toParameterDTO(p))
}

func (h *Handler) CreateRubrique(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rub, err := h.Factory.ParseRubrique(body)
	if err != nil {
		h.fail(w, "Invalid rubrique", err)
		return
	}
	if rub, err = h.Store.SaveRubrique(r.Context(), rub); err != nil {
		h.fail(w, "Failed to save rubrique", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRubriqueDTO(rub))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account := generic.AccountID(chi.URLParam(r, "id"))
	asOf := generic.Today()
	if v := r.URL.Query().Get("as_of"); v != "" {
		var err error
		if asOf, err = generic.ParseDate(v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
	}

	balance, err := h.Ledger.BalanceAt(r.Context(), account, asOf, generic.CurrencyFCFA)
	if err != nil {
		h.fail(w, "Failed to compute balance", err)
		return
	}
	entries, err := h.Ledger.Entries(r.Context(), account)
	if err != nil {
		h.fail(w, "Failed to load entries", err)
		return
	}
	count := 0
	for _, e := range entries {
		if e.EffectiveAt.BeforeOrEqual(asOf) {
			count++
		}
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		AccountID: string(account),
		AsOf:      asOf.String(),
		Balance:   formatMoney(balance),
		Currency:  string(generic.CurrencyFCFA),
		Entries:   count,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body; it writes the 400 itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, generic.NewValidationError("period_start", "%q is not a YYYY-MM-DD date", start)
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, generic.NewValidationError("period_end", "%q is not a YYYY-MM-DD date", end)
	}
	return generic.NewPeriod(s, e)
}

// fail maps a domain error to its HTTP status. An empty message uses the
// status's default wording.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status, defaultMessage := statusFor(err)
	if message == "" || status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		message = defaultMessage
	}
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", zap.Error(err))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) (int, string) {
	var noParam *commission.NoApplicableParameterError
	switch {
	case errors.As(err, &noParam):
		return http.StatusUnprocessableEntity, "no applicable commission parameter"
	case errors.Is(err, generic.ErrAlreadyRemunerated):
		return http.StatusConflict, "commission batch already remunerated"
	case errors.Is(err, generic.ErrAlreadyProcessed):
		return http.StatusConflict, "commissions already processed for this period"
	case generic.IsConflict(err):
		return http.StatusConflict, "duplicate posting"
	case generic.IsNotFound(err):
		return http.StatusNotFound, "not found"
	case errors.Is(err, generic.ErrConfiguration):
		return http.StatusUnprocessableEntity, "invalid commission configuration"
	case generic.IsClientError(err):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
