/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are rendered as decimal strings with 2 places ("1925.00") so that
  clients never round-trip money through floating point.

VALIDATION:
  Request shapes carry go-playground/validator tags; domain rules are
  checked by the domain packages.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/: ParameterJSON and RubriqueJSON request bodies
*/
package api

import (
	"time"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/history"
	"github.com/donjoker0605/focep-collect-backend-sub002/remuneration"
	"github.com/donjoker0605/focep-collect-backend-sub002/service"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type ProcessCommissionsRequest struct {
	PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" validate:"required,datetime=2006-01-02"`
	ProductCode string `json:"product_code,omitempty"`
	Force       bool   `json:"force,omitempty"`
	BestEffort  bool   `json:"best_effort,omitempty"`
}

type RemunerateRequest struct {
	AsOf string `json:"as_of,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type CreateCollecteurRequest struct {
	ID       string `json:"id" validate:"required"`
	AgenceID string `json:"agence_id" validate:"required"`
	Nom      string `json:"nom" validate:"required"`
	HireDate string `json:"hire_date" validate:"required,datetime=2006-01-02"`
}

type CreateTransactionRequest struct {
	ClientID      string `json:"client_id" validate:"required"`
	Montant       string `json:"montant" validate:"required,numeric"`
	Sens          string `json:"sens" validate:"required,oneof=EPARGNE RETRAIT"`
	DateOperation string `json:"date_operation" validate:"required,datetime=2006-01-02"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HistoriqueDTO struct {
	ID                     string  `json:"id"`
	CollecteurID           string  `json:"collecteur_id"`
	PeriodStart            string  `json:"period_start"`
	PeriodEnd              string  `json:"period_end"`
	MontantCommissionTotal string  `json:"montant_commission_total"`
	MontantTvaTotal        string  `json:"montant_tva_total"`
	RemunerationCollecteur string  `json:"remuneration_collecteur"`
	PartEMF                string  `json:"part_emf"`
	TvaEMF                 string  `json:"tva_emf"`
	NombreClients          int     `json:"nombre_clients"`
	NouveauCollecteur      bool    `json:"nouveau_collecteur"`
	Statut                 string  `json:"statut"`
	Remunere               bool    `json:"remunere"`
	DateRemuneration       *string `json:"date_remuneration,omitempty"`
	CreatedAt              string  `json:"created_at"`
}

type CalculationDTO struct {
	ClientID        string `json:"client_id"`
	MontantCollecte string `json:"montant_collecte"`
	CommissionBase  string `json:"commission_base"`
	TVA             string `json:"tva"`
	CommissionNet   string `json:"commission_net"`
	Type            string `json:"type"`
	TypeLabel       string `json:"type_label"`
	ValeurParametre string `json:"valeur_parametre"`
	ParameterID     string `json:"parameter_id"`
	Scope           string `json:"scope"`
}

type MovementDTO struct {
	ID     string `json:"id"`
	Debit  string `json:"debit"`
	Credit string `json:"credit"`
	Amount string `json:"amount"`
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

type WarningDTO struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

type ProcessingResultDTO struct {
	Historique             HistoriqueDTO     `json:"historique"`
	TotalCommissions       string            `json:"total_commissions"`
	TotalTVA               string            `json:"total_tva"`
	RemunerationCollecteur string            `json:"remuneration_collecteur"`
	PartEMF                string            `json:"part_emf"`
	TvaEMF                 string            `json:"tva_emf"`
	NouveauCollecteur      bool              `json:"nouveau_collecteur"`
	Calculations           []CalculationDTO  `json:"calculations"`
	Movements              []MovementDTO     `json:"movements"`
	Warnings               []WarningDTO      `json:"warnings,omitempty"`
	Retraits               map[string]string `json:"retraits,omitempty"`
	Superseded             []string          `json:"superseded,omitempty"`
}

type RubriqueLineDTO struct {
	RubriqueID   string `json:"rubrique_id"`
	Nom          string `json:"nom"`
	Type         string `json:"type"`
	Valeur       string `json:"valeur"`
	Contribution string `json:"contribution"`
}

type RemunerationDTO struct {
	ID                 string            `json:"id"`
	HistoriqueCalculID string            `json:"historique_calcul_id"`
	CollecteurID       string            `json:"collecteur_id"`
	MontantSInitial    string            `json:"montant_s_initial"`
	TotalRubriquesVi   string            `json:"total_rubriques_vi"`
	MontantEmf         string            `json:"montant_emf"`
	MontantTva         string            `json:"montant_tva"`
	Details            string            `json:"details"`
	Lines              []RubriqueLineDTO `json:"lines"`
}

type ParameterDTO struct {
	ID          string `json:"id"`
	Scope       string `json:"scope"`
	OwnerID     string `json:"owner_id"`
	ProductCode string `json:"product_code,omitempty"`
	Type        string `json:"type"`
	TypeLabel   string `json:"type_label"`
	Actif       bool   `json:"actif"`
}

type RubriqueDTO struct {
	ID              string   `json:"id"`
	Nom             string   `json:"nom"`
	Type            string   `json:"type"`
	Valeur          string   `json:"valeur"`
	DateApplication string   `json:"date_application"`
	DateExpiration  *string  `json:"date_expiration,omitempty"`
	CollecteurIDs   []string `json:"collecteur_ids"`
	Active          bool     `json:"active"`
}

type CollecteurDTO struct {
	ID       string `json:"id"`
	AgenceID string `json:"agence_id"`
	Nom      string `json:"nom"`
	HireDate string `json:"hire_date"`
}

type BalanceDTO struct {
	AccountID string `json:"account_id"`
	AsOf      string `json:"as_of"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	Entries   int    `json:"entries"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func formatMoney(a generic.Amount) string {
	return a.Round().Value.StringFixed(generic.MoneyPlaces)
}

func toHistoriqueDTO(h history.CalculCommission) HistoriqueDTO {
	dto := HistoriqueDTO{
		ID:                     h.ID,
		CollecteurID:           h.CollecteurID,
		PeriodStart:            h.Period.Start.String(),
		PeriodEnd:              h.Period.End.String(),
		MontantCommissionTotal: formatMoney(h.MontantCommissionTotal),
		MontantTvaTotal:        formatMoney(h.MontantTvaTotal),
		RemunerationCollecteur: formatMoney(h.RemunerationCollecteur),
		PartEMF:                formatMoney(h.PartEMF),
		TvaEMF:                 formatMoney(h.TvaEMF),
		NombreClients:          h.NombreClients,
		NouveauCollecteur:      h.NouveauCollecteur,
		Statut:                 string(h.Statut),
		Remunere:               h.Remunere,
		CreatedAt:              h.CreatedAt.UTC().Format(time.RFC3339),
	}
	if h.DateRemuneration != nil {
		s := h.DateRemuneration.UTC().Format(time.RFC3339)
		dto.DateRemuneration = &s
	}
	return dto
}

func toCalculationDTO(c commission.Calculation) CalculationDTO {
	return CalculationDTO{
		ClientID:        c.ClientID,
		MontantCollecte: formatMoney(c.MontantCollecte),
		CommissionBase:  formatMoney(c.CommissionBase),
		TVA:             formatMoney(c.TVA),
		CommissionNet:   formatMoney(c.CommissionNet),
		Type:            string(c.Type),
		TypeLabel:       c.Type.Label(),
		ValeurParametre: c.ValeurParametre.String(),
		ParameterID:     c.ParameterID,
		Scope:           c.Scope.String(),
	}
}

// ToProcessingResultDTO is shared with the command-line runner.
func ToProcessingResultDTO(res service.ProcessingResult) ProcessingResultDTO {
	d := res.Distribution
	dto := ProcessingResultDTO{
		Historique:             toHistoriqueDTO(res.History),
		TotalCommissions:       formatMoney(d.TotalCommissions),
		TotalTVA:               formatMoney(d.TotalTVA),
		RemunerationCollecteur: formatMoney(d.RemunerationCollecteur),
		PartEMF:                formatMoney(d.PartEMF),
		TvaEMF:                 formatMoney(d.TVAEMF),
		NouveauCollecteur:      d.NouveauCollecteur,
		Calculations:           make([]CalculationDTO, 0, len(d.Calculations)),
		Movements:              make([]MovementDTO, 0, len(d.Movements)),
	}
	for _, c := range d.Calculations {
		dto.Calculations = append(dto.Calculations, toCalculationDTO(c))
	}
	for _, m := range d.Movements {
		dto.Movements = append(dto.Movements, MovementDTO{
			ID:     string(m.ID),
			Debit:  string(m.Debit),
			Credit: string(m.Credit),
			Amount: formatMoney(m.Amount),
			Kind:   string(m.Kind),
			Reason: m.Reason,
		})
	}
	for _, w := range res.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{ClientID: w.ClientID, Message: w.Message})
	}
	dto.Superseded = res.Superseded
	if len(res.Retraits) > 0 {
		dto.Retraits = make(map[string]string, len(res.Retraits))
		for client, amt := range res.Retraits {
			dto.Retraits[client] = formatMoney(amt)
		}
	}
	return dto
}

func toRemunerationDTO(out service.RemunerationOutcome) RemunerationDTO {
	r := out.Remuneration
	dto := RemunerationDTO{
		ID:                 r.ID,
		HistoriqueCalculID: r.HistoriqueCalculID,
		CollecteurID:       r.CollecteurID,
		MontantSInitial:    formatMoney(r.MontantSInitial),
		TotalRubriquesVi:   formatMoney(r.TotalRubriquesVi),
		MontantEmf:         formatMoney(r.MontantEmf),
		MontantTva:         formatMoney(r.MontantTva),
		Details:            r.Details,
		Lines:              make([]RubriqueLineDTO, 0, len(out.Result.Lines)),
	}
	for _, l := range out.Result.Lines {
		dto.Lines = append(dto.Lines, RubriqueLineDTO{
			RubriqueID:   l.RubriqueID,
			Nom:          l.Nom,
			Type:         string(l.Type),
			Valeur:       l.Valeur,
			Contribution: formatMoney(l.Contribution),
		})
	}
	return dto
}

func toParameterDTO(p commission.Parameter) ParameterDTO {
	return ParameterDTO{
		ID:          p.ID,
		Scope:       string(p.Scope.Level),
		OwnerID:     p.Scope.OwnerID,
		ProductCode: p.ProductCode,
		Type:        string(p.Type),
		TypeLabel:   p.Type.Label(),
		Actif:       p.Actif,
	}
}

func toRubriqueDTO(r remuneration.Rubrique) RubriqueDTO {
	dto := RubriqueDTO{
		ID:              r.ID,
		Nom:             r.Nom,
		Type:            string(r.Type),
		Valeur:          r.FormattedValeur(),
		DateApplication: r.DateApplication.String(),
		CollecteurIDs:   r.CollecteurIDs,
		Active:          r.Active,
	}
	if exp := r.DateExpiration(); exp != nil {
		s := exp.String()
		dto.DateExpiration = &s
	}
	return dto
}
