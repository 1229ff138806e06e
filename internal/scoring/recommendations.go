package scoring

import (
	"github.com/hf-risk-server/internal/domain"
)

// Recommend builds the recommendation list for a category: the base list first,
// then one targeted entry per flagged parameter in declaration order. Duplicates
// are dropped keeping the first occurrence. It also returns the names of the
// flagged parameters.
func Recommend(category domain.RiskCategory, values []NormalizedValue, cfg *Config) ([]string, []string) {
	base := cfg.BaseRecommendations[category]
	recs := make([]string, 0, len(base)+len(values))
	seen := make(map[string]bool, cap(recs))

	add := func(r string) {
		if r == "" || seen[r] {
			return
		}
		seen[r] = true
		recs = append(recs, r)
	}

	for _, r := range base {
		add(r)
	}

	var flagged []string
	for _, v := range values {
		if v.Flag == nil || v.Normalized <= v.Flag.Threshold {
			continue
		}
		flagged = append(flagged, v.Parameter)
		add(v.Flag.Recommendation)
	}

	return recs, flagged
}
