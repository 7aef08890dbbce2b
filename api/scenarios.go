/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates collecteurs, clients, collected
	transactions, commission parameters and rubriques for January 2024.

AVAILABLE SCENARIOS:

	nouveau-collecteur:  Collecteur hired in November 2023, flat remuneration
	collecteur-confirme: Tiered agency grid, client override, rubriques
	parametre-manquant:  One client without any applicable parameter

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create collecteur and clients
 3. Create parameters and rubriques via the factory
 4. Record EPARGNE/RETRAIT transactions

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "collecteur-confirme"}

	then POST /api/collecteurs/{id}/commissions
	{"period_start": "2024-01-01", "period_end": "2024-01-31"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/service"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "nouveau-collecteur",
		Name:        "Nouveau collecteur",
		Description: "Collecteur within the probation window: flat remuneration, EMF keeps the rest",
	},
	{
		ID:          "collecteur-confirme",
		Name:        "Collecteur confirmé",
		Description: "Tiered agency grid with a fixed client override, plus constant and percentage rubriques",
	},
	{
		ID:          "parametre-manquant",
		Name:        "Paramètre manquant",
		Description: "One client has no applicable parameter: strict mode fails, best-effort reports a warning",
	},
}

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	var loader func(context.Context) error
	switch req.ScenarioID {
	case "nouveau-collecteur":
		loader = h.loadNouveauCollecteurScenario
	case "collecteur-confirme":
		loader = h.loadCollecteurConfirmeScenario
	case "parametre-manquant":
		loader = h.loadParametreManquantScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := loader(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.Log.Info("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadNouveauCollecteurScenario(ctx context.Context) error {
	if err := h.seedCollecteur(ctx, "col-001", "ag-douala", "Paul Mbarga", "2023-11-15"); err != nil {
		return err
	}
	if err := h.seedClients(ctx, "col-001", "cli-001", "cli-002", "cli-003"); err != nil {
		return err
	}
	if err := h.seedParameter(ctx, `{
		"id": "param-col-001",
		"scope": "COLLECTEUR",
		"owner_id": "col-001",
		"type": "PERCENTAGE",
		"valeur": "2",
		"date_debut": "2023-01-01"
	}`); err != nil {
		return err
	}
	return h.seedTransactions(ctx, "col-001", []seedTx{
		{"cli-001", "500000", service.SensEpargne, "2024-01-05"},
		{"cli-001", "250000", service.SensEpargne, "2024-01-19"},
		{"cli-002", "1200000", service.SensEpargne, "2024-01-10"},
		{"cli-003", "300000", service.SensEpargne, "2024-01-22"},
		{"cli-003", "50000", service.SensRetrait, "2024-01-25"},
	})
}

func (h *Handler) loadCollecteurConfirmeScenario(ctx context.Context) error {
	if err := h.seedCollecteur(ctx, "col-002", "ag-yaounde", "Marie Ngono", "2019-03-01"); err != nil {
		return err
	}
	if err := h.seedClients(ctx, "col-002", "cli-101", "cli-102", "cli-103"); err != nil {
		return err
	}

	// Agency grid applies to everyone; cli-103 negotiated a fixed fee.
	if err := h.seedParameter(ctx, `{
		"id": "param-ag-yaounde",
		"scope": "AGENCE",
		"owner_id": "ag-yaounde",
		"type": "TIER",
		"tiers": [
			{"montant_min": "0",      "montant_max": "100000", "taux": "3"},
			{"montant_min": "100000", "montant_max": "500000", "taux": "2"},
			{"montant_min": "500000",                          "taux": "1.5"}
		],
		"date_debut": "2023-01-01"
	}`); err != nil {
		return err
	}
	if err := h.seedParameter(ctx, `{
		"id": "param-cli-103",
		"scope": "CLIENT",
		"owner_id": "cli-103",
		"type": "FIXED",
		"valeur": "2500"
	}`); err != nil {
		return err
	}

	rubriques := []string{
		`{
			"id": "rub-transport",
			"nom": "Indemnité de transport",
			"type": "CONSTANT",
			"valeur": "5000",
			"date_application": "2024-01-01",
			"collecteur_ids": ["col-002"]
		}`,
		`{
			"id": "rub-rendement",
			"nom": "Prime de rendement",
			"type": "PERCENTAGE",
			"valeur": "10",
			"date_application": "2024-01-01",
			"delai_jours": 90,
			"collecteur_ids": ["col-002"]
		}`,
		`{
			"id": "rub-noel",
			"nom": "Prime de fin d'année",
			"type": "CONSTANT",
			"valeur": "15000",
			"date_application": "2023-12-01",
			"delai_jours": 30,
			"collecteur_ids": ["col-002"]
		}`,
	}
	for _, js := range rubriques {
		if err := h.seedRubrique(ctx, js); err != nil {
			return err
		}
	}

	return h.seedTransactions(ctx, "col-002", []seedTx{
		{"cli-101", "80000", service.SensEpargne, "2024-01-08"},
		{"cli-102", "150000", service.SensEpargne, "2024-01-09"},
		{"cli-102", "200000", service.SensEpargne, "2024-01-23"},
		{"cli-103", "900000", service.SensEpargne, "2024-01-15"},
	})
}

func (h *Handler) loadParametreManquantScenario(ctx context.Context) error {
	if err := h.seedCollecteur(ctx, "col-003", "ag-bafoussam", "Jean Fotso", "2020-06-01"); err != nil {
		return err
	}
	if err := h.seedClients(ctx, "col-003", "cli-201", "cli-202"); err != nil {
		return err
	}
	// Only cli-201 is covered; the collecteur and agency have no grid.
	if err := h.seedParameter(ctx, `{
		"id": "param-cli-201",
		"scope": "CLIENT",
		"owner_id": "cli-201",
		"type": "PERCENTAGE",
		"valeur": "2.5"
	}`); err != nil {
		return err
	}
	return h.seedTransactions(ctx, "col-003", []seedTx{
		{"cli-201", "400000", service.SensEpargne, "2024-01-12"},
		{"cli-202", "100000", service.SensEpargne, "2024-01-12"},
	})
}

// =============================================================================
// SEED HELPERS
// =============================================================================

type seedTx struct {
	clientID string
	montant  string
	sens     service.Sens
	date     string
}

func (h *Handler) seedCollecteur(ctx context.Context, id, agenceID, nom, hireDate string) error {
	hd, err := generic.ParseDate(hireDate)
	if err != nil {
		return err
	}
	return h.Store.SaveCollecteur(ctx, service.Collecteur{ID: id, AgenceID: agenceID, Nom: nom, HireDate: hd})
}

func (h *Handler) seedClients(ctx context.Context, collecteurID string, ids ...string) error {
	for _, id := range ids {
		if err := h.Store.SaveClient(ctx, id, collecteurID, "Client "+id); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedParameter(ctx context.Context, js string) error {
	p, err := h.Factory.ParseParameter([]byte(js))
	if err != nil {
		return fmt.Errorf("invalid parameter: %w", err)
	}
	_, err = h.Store.SaveParameter(ctx, p)
	return err
}

func (h *Handler) seedRubrique(ctx context.Context, js string) error {
	rub, err := h.Factory.ParseRubrique([]byte(js))
	if err != nil {
		return fmt.Errorf("invalid rubrique: %w", err)
	}
	_, err = h.Store.SaveRubrique(ctx, rub)
	return err
}

func (h *Handler) seedTransactions(ctx context.Context, collecteurID string, txs []seedTx) error {
	for _, t := range txs {
		date, err := generic.ParseDate(t.date)
		if err != nil {
			return err
		}
		if _, err := h.Store.SaveTransaction(ctx, service.Transaction{
			ClientID:      t.clientID,
			CollecteurID:  collecteurID,
			Montant:       generic.NewAmount(generic.MustParseDecimal(t.montant), generic.CurrencyFCFA),
			Sens:          t.sens,
			DateOperation: date,
		}); err != nil {
			return err
		}
	}
	return nil
}
