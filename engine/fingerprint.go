package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Fingerprint returns a structural hash of a FarmInput.
// Plan order is ignored, matching the engine's order-independence.
// Map keys are ordered by encoding/json, so equal inputs hash equally.
func Fingerprint(input FarmInput) string {
	plans := make([]string, 0, len(input.Plans))
	for _, p := range input.Plans {
		b, _ := json.Marshal(p)
		plans = append(plans, string(b))
	}
	sort.Strings(plans)

	canonical, _ := json.Marshal(struct {
		Province       Province
		Year           int
		EarlyPurchase  bool
		BundleFriendly bool
		Plans          []string
	}{input.Province, input.Year, input.EarlyPurchase, input.BundleFriendly, plans})

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
