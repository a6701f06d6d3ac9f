package programs

import (
	"fmt"

	"github.com/warp/rebate-engine/engine"
)

// =============================================================================
// BUNDLE (UPL-style)
// =============================================================================

// Bundle pays on bundle spend when the grower is willing to coordinate
// purchases and enough bundle categories are engaged. Early purchase adds
// a second rate on top of a reached bundle.
//
// This is the program that consumes FarmInput flags rather than spend alone.
type Bundle struct {
	Meta `json:"-" yaml:"-"`

	Categories        []engine.Category `json:"categories" yaml:"categories"`
	MinCategories     int               `json:"min_categories" yaml:"min_categories"`
	BundleRate        float64           `json:"bundle_rate" yaml:"bundle_rate"`
	EarlyPurchaseRate float64           `json:"early_purchase_rate" yaml:"early_purchase_rate"`
}

var _ Program = (*Bundle)(nil)

func (p *Bundle) Kind() Kind { return KindBundle }

func (p *Bundle) Validate() error {
	if err := validateCategories(p.ProgramID, p.Categories); err != nil {
		return err
	}
	if p.MinCategories < 1 || p.MinCategories > len(p.Categories) {
		return &engine.ProgramConfigError{
			ProgramID: p.ProgramID,
			Reason:    fmt.Sprintf("min categories %d outside 1-%d", p.MinCategories, len(p.Categories)),
		}
	}
	return validateRates(p.ProgramID, []float64{p.BundleRate, p.EarlyPurchaseRate})
}

func (p *Bundle) Evaluate(m engine.ModeledSpend, input engine.FarmInput) engine.ProgramResult {
	var engaged int
	var spend float64
	for _, c := range p.Categories {
		if m.ByCategory[c] > 0 {
			engaged++
			spend += m.ByCategory[c]
		}
	}

	reached := input.BundleFriendly && engaged >= p.MinCategories

	var notes []string
	switch {
	case !input.BundleFriendly:
		notes = append(notes, "Bundle coordination not selected: bundle rebate not reached.")
	case engaged < p.MinCategories:
		notes = append(notes, fmt.Sprintf("%d of %d required bundle categories engaged: bundle rebate not reached.", engaged, p.MinCategories))
	default:
		notes = append(notes, fmt.Sprintf("Bundle rebate applied at %s on %d bundle categories.", percent(p.BundleRate), engaged))
	}

	var bundleRebate, earlyRebate float64
	if reached {
		bundleRebate = spend * p.BundleRate
		if input.EarlyPurchase {
			earlyRebate = spend * p.EarlyPurchaseRate
			notes = append(notes, fmt.Sprintf("Early-purchase rebate applied at %s.", percent(p.EarlyPurchaseRate)))
		}
	} else if input.EarlyPurchase {
		notes = append(notes, "Early-purchase rebate requires a qualifying bundle.")
	}

	cashback := bundleRebate + earlyRebate

	return engine.ProgramResult{
		ProgramID:         p.ID(),
		Company:           p.Company(),
		EstimatedCashback: cashback,
		EstimatedPerAcre:  engine.PerAcre(cashback, m.AcresByCategory.Max(p.Categories...)),
		Notes:             notes,
		Breakdown: []engine.LineItem{
			{Label: "Bundle spend", Value: spend, Informational: true},
			{Label: "Bundle rebate", Value: bundleRebate},
			{Label: "Early-purchase rebate", Value: earlyRebate},
		},
	}
}
