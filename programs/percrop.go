package programs

import (
	"fmt"

	"github.com/warp/rebate-engine/engine"
)

// =============================================================================
// PER-CROP TIER (Syngenta-style)
// =============================================================================

// PerCropTier tiers each crop on its own modeled spend and sums the crop rebates.
// Unlike TieredTotal, spreading spend across many crops can leave every crop
// below the first breakpoint.
type PerCropTier struct {
	Meta `json:"-" yaml:"-"`

	Breakpoints []float64 `json:"breakpoints" yaml:"breakpoints"`
	Rates       []float64 `json:"rates" yaml:"rates"`
}

var _ Program = (*PerCropTier)(nil)

func (p *PerCropTier) Kind() Kind { return KindPerCropTier }

func (p *PerCropTier) Validate() error {
	return validateSchedule(p.ProgramID, p.Breakpoints, p.Rates)
}

func (p *PerCropTier) Evaluate(m engine.ModeledSpend, _ engine.FarmInput) engine.ProgramResult {
	crops := m.Crops()

	var (
		breakdown []engine.LineItem
		cashback  float64
		reached   int
	)
	for _, crop := range crops {
		bucket := m.ByCrop[crop]
		tier := tierFor(bucket.Total, p.Breakpoints)
		var rebate float64
		if tier > 0 {
			reached++
			rebate = bucket.Total * rateAt(p.Rates, tier)
		}
		cashback += rebate
		breakdown = append(breakdown, engine.LineItem{
			Label: fmt.Sprintf("%s rebate (tier %d)", cropLabel(crop), tier),
			Value: rebate,
		})
	}

	var notes []string
	if reached == 0 {
		threshold := 0.0
		if len(p.Breakpoints) > 0 {
			threshold = p.Breakpoints[0]
		}
		notes = append(notes, fmt.Sprintf("No crop reached %s modeled spend: crop tier not reached.", dollars(threshold)))
	} else {
		notes = append(notes, fmt.Sprintf("%d of %d crops reached a rebate tier.", reached, len(crops)))
	}

	return engine.ProgramResult{
		ProgramID:         p.ID(),
		Company:           p.Company(),
		EstimatedCashback: cashback,
		EstimatedPerAcre:  engine.PerAcre(cashback, m.AcresByCategory.Max(engagedCategories...)),
		Notes:             notes,
		Breakdown:         breakdown,
	}
}
