package remuneration

import (
	"fmt"
	"strings"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// Line is one applied rubrique and its contribution Vi.
type Line struct {
	RubriqueID   string
	Nom          string
	Type         Type
	Valeur       string
	Contribution generic.Amount
}

type Result struct {
	CollecteurID     string
	MontantS         generic.Amount
	AsOf             generic.TimePoint
	Lines            []Line
	TotalRubriquesVi generic.Amount
	MontantEmf       generic.Amount // TotalRubriquesVi × emfRate
	MontantTva       generic.Amount // MontantEmf × vtaRate, rounded to the cent
}

// Details renders the lines as the free-text summary kept in history.
func (r Result) Details() string {
	if len(r.Lines) == 0 {
		return "aucune rubrique applicable"
	}
	parts := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		parts[i] = fmt.Sprintf("%s (%s) = %s FCFA", l.Nom, l.Valeur, l.Contribution.Round().Value.StringFixed(generic.MoneyPlaces))
	}
	return strings.Join(parts, "; ")
}

type Processor struct{}

func NewProcessor() *Processor { return &Processor{} }

// Process applies every rubrique valid at asOf and assigned to the
// collecteur. No applicable rubrique yields a zero total, not an error.
func (p *Processor) Process(collecteurID string, montantS generic.Amount, rubriques []Rubrique, asOf generic.TimePoint, rules commission.Rules) (Result, error) {
	if montantS.IsNegative() {
		return Result{}, generic.NewValidationError("montantS", "negative base %s", montantS)
	}

	total := montantS.Zero()
	var lines []Line
	for _, r := range rubriques {
		if !r.CurrentlyValid(asOf) || !r.AppliesTo(collecteurID) {
			continue
		}
		vi := r.Contribution(montantS)
		total = total.Add(vi)
		lines = append(lines, Line{
			RubriqueID:   r.ID,
			Nom:          r.Nom,
			Type:         r.Type,
			Valeur:       r.FormattedValeur(),
			Contribution: vi,
		})
	}

	emf := total.Mul(rules.EMFRate())
	return Result{
		CollecteurID:     collecteurID,
		MontantS:         montantS,
		AsOf:             asOf,
		Lines:            lines,
		TotalRubriquesVi: total,
		MontantEmf:       emf,
		MontantTva:       rules.TVA(emf),
	}, nil
}
