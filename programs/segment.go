package programs

import (
	"fmt"
	"strings"

	"github.com/warp/rebate-engine/engine"
)

// =============================================================================
// SEGMENT LOYALTY (Bayer-style)
// =============================================================================

// Segment names used in notes.
const (
	SegmentSeedTreatment = "Seed treatment"
	SegmentHerbicide     = "Herbicide"
	SegmentFungicide     = "Fungicide"
)

// SegmentLoyalty pays a rate on qualifying segments' spend, where the rate
// depends on how many segments clear the minimum acreage.
//
// Segments:
//   - seed treatment: seedTreatment acres
//   - herbicide: max(preSeedHerb acres, inCropHerb acres), spend is both combined
//   - fungicide: fungicide acres
type SegmentLoyalty struct {
	Meta `json:"-" yaml:"-"`

	// MinSegmentAcres is inclusive: a segment at exactly this acreage qualifies.
	MinSegmentAcres float64 `json:"min_segment_acres" yaml:"min_segment_acres"`

	// Rates is indexed by qualifying segment count, 0 through 3.
	Rates []float64 `json:"rates" yaml:"rates"`

	// Unmodeled lists program features this model does not estimate.
	Unmodeled []string `json:"unmodeled,omitempty" yaml:"unmodeled,omitempty"`
}

var _ Program = (*SegmentLoyalty)(nil)

func (p *SegmentLoyalty) Kind() Kind { return KindSegmentLoyalty }

func (p *SegmentLoyalty) Validate() error {
	if p.MinSegmentAcres < 0 {
		return &engine.ProgramConfigError{ProgramID: p.ProgramID, Reason: "min segment acres must not be negative"}
	}
	if len(p.Rates) != 4 {
		return &engine.ProgramConfigError{ProgramID: p.ProgramID, Reason: fmt.Sprintf("need 4 rates (0-3 segments), got %d", len(p.Rates))}
	}
	return validateRates(p.ProgramID, p.Rates)
}

type segment struct {
	name  string
	acres float64
	spend float64
}

func (p *SegmentLoyalty) segments(m engine.ModeledSpend) []segment {
	return []segment{
		{
			name:  SegmentSeedTreatment,
			acres: m.AcresByCategory[engine.CategorySeedTreatment],
			spend: m.ByCategory[engine.CategorySeedTreatment],
		},
		{
			name:  SegmentHerbicide,
			acres: m.AcresByCategory.Max(engine.CategoryPreSeedHerb, engine.CategoryInCropHerb),
			spend: m.ByCategory[engine.CategoryPreSeedHerb] + m.ByCategory[engine.CategoryInCropHerb],
		},
		{
			name:  SegmentFungicide,
			acres: m.AcresByCategory[engine.CategoryFungicide],
			spend: m.ByCategory[engine.CategoryFungicide],
		},
	}
}

// minQualifying is the smallest segment count that earns a non-zero rate.
func (p *SegmentLoyalty) minQualifying() int {
	for i, r := range p.Rates {
		if r > 0 {
			return i
		}
	}
	return len(p.Rates)
}

func (p *SegmentLoyalty) Evaluate(m engine.ModeledSpend, _ engine.FarmInput) engine.ProgramResult {
	segs := p.segments(m)

	var qualified []string
	var eligible, maxAcres float64
	for _, s := range segs {
		if s.acres > maxAcres {
			maxAcres = s.acres
		}
		if s.acres >= p.MinSegmentAcres {
			qualified = append(qualified, s.name)
			eligible += s.spend
		}
	}

	count := len(qualified)
	rate := rateAt(p.Rates, count)

	var notes []string
	if rate == 0 {
		notes = append(notes, fmt.Sprintf("Fewer than %d qualifying segments at %s acres: Segment Savings not reached.",
			p.minQualifying(), acres(p.MinSegmentAcres)))
	} else {
		notes = append(notes, fmt.Sprintf("Segment Savings applied at %s for %d qualifying segments.", percent(rate), count))
	}
	if count > 0 {
		notes = append(notes, "Qualifying segments: "+strings.Join(qualified, ", ")+".")
	}
	if len(p.Unmodeled) > 0 {
		notes = append(notes, "Not modeled: "+strings.Join(p.Unmodeled, ", ")+".")
	}

	cashback := eligible * rate

	return engine.ProgramResult{
		ProgramID:         p.ID(),
		Company:           p.Company(),
		EstimatedCashback: cashback,
		EstimatedPerAcre:  engine.PerAcre(cashback, maxAcres),
		Notes:             notes,
		Breakdown: []engine.LineItem{
			{Label: "Eligible spend (qualified segments only)", Value: eligible, Informational: true},
			{Label: "Segment savings rebate", Value: cashback},
		},
	}
}
