/*
spend.go - Spend model

PURPOSE:
  Converts declared intentions into modeled dollar spend per category,
  overall and per crop, using the assumption table.

ALGORITHM:
  1. Start every bucket with all categories present and zeroed
  2. For each plan, resolve the crop profile (fallback "other")
  3. For each enabled category: dollars = perAcre(category, budget) * acres
  4. Credit dollars and acres to the overall bucket and the crop bucket
  5. Set each bucket's total to the sum of its dollars

PROXY ACRES:
  A plan enabling three categories credits its acreage to all three
  counters. These are engagement signals for qualification rules, not a
  physical land total, and must never be summed across categories.
*/
package engine

// ModelSpend converts a FarmInput into ModeledSpend. Total and deterministic.
func ModelSpend(table AssumptionTable, input FarmInput) ModeledSpend {
	overall := newCropModeledSpend()
	byCrop := make(map[Crop]CropModeledSpend)

	for _, plan := range input.Plans {
		profile := table.ProfileFor(plan.Crop)

		bucket, ok := byCrop[plan.Crop]
		if !ok {
			bucket = newCropModeledSpend()
			byCrop[plan.Crop] = bucket
		}

		for _, cat := range AllCategories {
			intent, ok := plan.Intents[cat]
			if !ok || !intent.Enabled {
				continue
			}

			// absent (category, budget) resolves to 0 per acre
			dollars := profile.PerAcre(cat, intent.Budget) * plan.Acres

			overall.ByCategory[cat] += dollars
			overall.AcresByCategory[cat] += plan.Acres

			bucket.ByCategory[cat] += dollars
			bucket.AcresByCategory[cat] += plan.Acres
		}
	}

	overall.Total = overall.ByCategory.Sum()
	for crop, bucket := range byCrop {
		bucket.Total = bucket.ByCategory.Sum()
		byCrop[crop] = bucket
	}

	return ModeledSpend{CropModeledSpend: overall, ByCrop: byCrop}
}
