package scoring

import (
	"math"
	"sort"

	"github.com/hf-risk-server/internal/domain"
)

// Contributions decomposes the score into one entry per evaluated parameter.
// Contribution is normalized x weight, so the contributions sum to
// score.WeightedSum; Points rescales each by 100 / score.MaxWeightedSum and the
// points sum to score.Total. Entries are sorted by descending absolute
// contribution, ties keeping declaration order.
func Contributions(values []NormalizedValue, score domain.RiskScore) []domain.FeatureContribution {
	out := make([]domain.FeatureContribution, len(values))
	for i, v := range values {
		c := v.Normalized * v.Weight
		points := 0.0
		if score.MaxWeightedSum > 0 {
			points = c / score.MaxWeightedSum * 100
		}
		out[i] = domain.FeatureContribution{
			Parameter:    v.Parameter,
			Raw:          v.Raw,
			RawLabel:     v.RawLabel,
			Normalized:   v.Normalized,
			Weight:       v.Weight,
			Contribution: c,
			Points:       points,
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Contribution) > math.Abs(out[j].Contribution)
	})
	return out
}
