package scoring

import (
	"github.com/hf-risk-server/internal/domain"
)

// ScoreRisk combines the normalized values into a total on [0,100] and assigns
// its category. Only the parameters in values count toward the maximum, so an
// absent optional parameter neither raises nor lowers the score.
func ScoreRisk(values []NormalizedValue, bands []Band) (domain.RiskScore, error) {
	var weighted, maxSum float64
	for _, v := range values {
		weighted += v.Normalized * v.Weight
		maxSum += v.Weight
	}
	if maxSum <= 0 {
		return domain.RiskScore{}, domain.NewConfigurationError("scorer", "maximum attainable weighted sum is zero")
	}

	total := weighted / maxSum * 100
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	category, err := CategoryFor(total, bands)
	if err != nil {
		return domain.RiskScore{}, err
	}

	return domain.RiskScore{
		Total:          total,
		Category:       category,
		WeightedSum:    weighted,
		MaxWeightedSum: maxSum,
	}, nil
}

// CategoryFor returns the band containing total. Bands must be ascending; a
// total equal to a threshold belongs to the higher band.
func CategoryFor(total float64, bands []Band) (domain.RiskCategory, error) {
	if len(bands) == 0 {
		return "", domain.NewConfigurationError("bands", "no risk bands defined")
	}
	for i := len(bands) - 1; i >= 0; i-- {
		if total >= bands[i].Min {
			return bands[i].Category, nil
		}
	}
	return bands[0].Category, nil
}
