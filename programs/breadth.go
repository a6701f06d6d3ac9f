package programs

import (
	"fmt"

	"github.com/warp/rebate-engine/engine"
)

// =============================================================================
// CATEGORY BREADTH (BASF-style)
// =============================================================================

// CategoryBreadth rewards buying across more product lines: the rate depends on
// how many listed categories carry modeled spend, and applies to their combined spend.
type CategoryBreadth struct {
	Meta `json:"-" yaml:"-"`

	Categories []engine.Category `json:"categories" yaml:"categories"`

	// CountRates is indexed by engaged category count; the last entry covers any higher count.
	CountRates []float64 `json:"count_rates" yaml:"count_rates"`

	MinEligibleSpend float64 `json:"min_eligible_spend" yaml:"min_eligible_spend"`
}

var _ Program = (*CategoryBreadth)(nil)

func (p *CategoryBreadth) Kind() Kind { return KindCategoryBreadth }

func (p *CategoryBreadth) Validate() error {
	if err := validateCategories(p.ProgramID, p.Categories); err != nil {
		return err
	}
	if len(p.CountRates) == 0 {
		return &engine.ProgramConfigError{ProgramID: p.ProgramID, Reason: "no count rates"}
	}
	if p.MinEligibleSpend < 0 {
		return &engine.ProgramConfigError{ProgramID: p.ProgramID, Reason: "min eligible spend must not be negative"}
	}
	return validateRates(p.ProgramID, p.CountRates)
}

func (p *CategoryBreadth) rateFor(count int) float64 {
	if count >= len(p.CountRates) {
		count = len(p.CountRates) - 1
	}
	return rateAt(p.CountRates, count)
}

func (p *CategoryBreadth) Evaluate(m engine.ModeledSpend, _ engine.FarmInput) engine.ProgramResult {
	var engaged int
	var eligible float64
	for _, c := range p.Categories {
		if m.ByCategory[c] > 0 {
			engaged++
			eligible += m.ByCategory[c]
		}
	}

	rate := p.rateFor(engaged)

	var notes []string
	switch {
	case rate == 0:
		notes = append(notes, fmt.Sprintf("%d eligible categories engaged: breadth rebate not reached.", engaged))
	case eligible < p.MinEligibleSpend:
		notes = append(notes, fmt.Sprintf("Below %s eligible spend: breadth rebate not reached.", dollars(p.MinEligibleSpend)))
		rate = 0
	default:
		notes = append(notes, fmt.Sprintf("Breadth rebate applied at %s for %d engaged categories.", percent(rate), engaged))
	}
	notes = append(notes, "Eligible categories: "+categoryLabels(p.Categories)+".")

	cashback := eligible * rate

	return engine.ProgramResult{
		ProgramID:         p.ID(),
		Company:           p.Company(),
		EstimatedCashback: cashback,
		EstimatedPerAcre:  engine.PerAcre(cashback, m.AcresByCategory.Max(p.Categories...)),
		Notes:             notes,
		Breakdown: []engine.LineItem{
			{Label: "Eligible spend (engaged categories)", Value: eligible, Informational: true},
			{Label: "Breadth rebate", Value: cashback},
		},
	}
}
