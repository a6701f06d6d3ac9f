package programs

import (
	"fmt"

	"github.com/warp/rebate-engine/engine"
)

// =============================================================================
// TIERED TOTAL (FMC-style)
// =============================================================================

// TieredTotal picks a tier from total modeled spend and pays category-group
// rates at that tier, plus a flat bonus on acres matched between pre-seed and
// in-crop herbicide.
type TieredTotal struct {
	Meta `json:"-" yaml:"-"`

	Breakpoints []float64 `json:"breakpoints" yaml:"breakpoints"`

	// BiologicalsRates apply to biologicals/PGR and pre-seed herbicide spend alike.
	BiologicalsRates []float64 `json:"biologicals_rates" yaml:"biologicals_rates"`
	InCropRates      []float64 `json:"in_crop_rates" yaml:"in_crop_rates"`

	MatchingBonusPerAcre float64 `json:"matching_bonus_per_acre" yaml:"matching_bonus_per_acre"`
}

var _ Program = (*TieredTotal)(nil)

func (p *TieredTotal) Kind() Kind { return KindTieredTotal }

func (p *TieredTotal) Validate() error {
	if err := validateSchedule(p.ProgramID, p.Breakpoints, p.BiologicalsRates); err != nil {
		return err
	}
	if err := validateSchedule(p.ProgramID, p.Breakpoints, p.InCropRates); err != nil {
		return err
	}
	if p.MatchingBonusPerAcre < 0 {
		return &engine.ProgramConfigError{ProgramID: p.ProgramID, Reason: "matching bonus must not be negative"}
	}
	return nil
}

// Tier returns the tier reached by total (0 = not reached).
func (p *TieredTotal) Tier(total float64) int {
	return tierFor(total, p.Breakpoints)
}

func (p *TieredTotal) Evaluate(m engine.ModeledSpend, _ engine.FarmInput) engine.ProgramResult {
	tier := p.Tier(m.Total)

	var notes []string
	var bioRate, inCropRate float64
	if tier == 0 {
		notes = append(notes, "Tier not reached based on modeled total spend.")
		if len(p.Breakpoints) > 0 {
			notes = append(notes, fmt.Sprintf("Below %s modeled eligible spend: program tier not reached.", dollars(p.Breakpoints[0])))
		}
	} else {
		notes = append(notes, fmt.Sprintf("Tier %d based on modeled total spend.", tier))
		bioRate = rateAt(p.BiologicalsRates, tier)
		inCropRate = rateAt(p.InCropRates, tier)
	}

	bio := m.ByCategory[engine.CategoryBiologicalsPGR] * bioRate
	pre := m.ByCategory[engine.CategoryPreSeedHerb] * bioRate
	inc := m.ByCategory[engine.CategoryInCropHerb] * inCropRate

	matched := min(m.AcresByCategory[engine.CategoryPreSeedHerb], m.AcresByCategory[engine.CategoryInCropHerb])
	var bonus float64
	if matched > 0 {
		bonus = matched * p.MatchingBonusPerAcre
		notes = append(notes, fmt.Sprintf("Matching-acre bonus applied on %s acres.", acres(matched)))
	}

	cashback := bio + pre + inc + bonus

	return engine.ProgramResult{
		ProgramID:         p.ID(),
		Company:           p.Company(),
		EstimatedCashback: cashback,
		EstimatedPerAcre:  engine.PerAcre(cashback, m.AcresByCategory.Max(engagedCategories...)),
		Notes:             notes,
		Breakdown: []engine.LineItem{
			{Label: "Biologicals rebate", Value: bio},
			{Label: "Pre-seed herbicide rebate", Value: pre},
			{Label: "In-crop herbicide rebate", Value: inc},
			{Label: "Matching-acre bonus", Value: bonus},
		},
	}
}
