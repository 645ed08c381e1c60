// Package service implements the decision-support core: scoring
// primitives, the comparison engine, and the matching algorithm.
//
// Every exported function treats its inputs as read-only and returns
// freshly computed results; callers may run independent comparisons or
// rankings concurrently as long as they own their inputs.
package service

import (
	"github.com/shopspring/decimal"

	"github.com/finchoice/backend/internal/model"
)

// Polarity states whether a smaller or larger raw value is preferable for
// an attribute.
type Polarity int

const (
	LowerIsBetter Polarity = iota
	HigherIsBetter
)

// Thresholds collects every tunable constant of the comparison and
// matching engines in one place so tests can assert on named values and a
// tuning pass touches a single struct.
type Thresholds struct {
	NeutralScore         float64 // score for non-discriminating attributes
	ProScore             float64 // dimension score at or above which a pro bullet is emitted
	ConScore             float64 // dimension score below which a con bullet is emitted
	BestOverallTolerance float64 // total-score distance still counted as best overall

	PreferredBankBonus float64 // flat final-score bonus for preferred banks
	WeightBoost        float64 // added to a dimension per matching preference flag
	WeightPenalty      float64 // subtracted from each non-aligned dimension per flag

	EligibilityIncomeDeduct     float64
	EligibilityCreditDeduct     float64
	EligibilityEmploymentDeduct float64

	HighRateRisk       float64         // product rate above this adds risk
	LowBankRatingRisk  float64         // bank rating below this adds risk
	LowEligibilityRisk float64         // eligibility score below this adds risk
	HighFeesRisk       decimal.Decimal // total fees above this add risk
	LowEligibilityWarn float64         // eligibility score below this warns in reasoning

	AmountRelaxFactor float64 // alternative search widens the amount window by this share

	ComboRatingBenefit   float64 // average bank rating at or above this adds a combination benefit
	ComboReliabilityRisk float64 // any bank rating below this adds a combination risk

	HighCentralBankRate float64 // market risk escalation cutoffs
	HighInflation       float64
	RateDriftMinor      float64 // catalog rate drift that is worth reporting
	RateDriftMajor      float64 // catalog rate drift that is high impact
}

func defaultThresholds() Thresholds {
	return Thresholds{
		NeutralScore:         50,
		ProScore:             80,
		ConScore:             40,
		BestOverallTolerance: 1e-2,

		PreferredBankBonus: 5,
		WeightBoost:        0.15,
		WeightPenalty:      0.05,

		EligibilityIncomeDeduct:     10,
		EligibilityCreditDeduct:     5,
		EligibilityEmploymentDeduct: 5,

		HighRateRisk:       15,
		LowBankRatingRisk:  3,
		LowEligibilityRisk: 60,
		HighFeesRisk:       decimal.NewFromInt(10000),
		LowEligibilityWarn: 70,

		AmountRelaxFactor: 0.20,

		ComboRatingBenefit:   4,
		ComboReliabilityRisk: 3,

		HighCentralBankRate: 15,
		HighInflation:       10,
		RateDriftMinor:      0.1,
		RateDriftMajor:      1.0,
	}
}

// scoreValues normalizes one attribute across the compared set into
// per-product scores in [0,100].
//
// Numeric values rescale linearly between the observed min and max; a set
// with no spread scores a uniform 50. Absent values score 0 and are
// excluded from the min/max. Booleans score 100 when true, 0 when false.
// Text scores a fixed neutral 50.
func scoreValues(values []model.Value, pol Polarity, th Thresholds) []float64 {
	scores := make([]float64, len(values))

	min, max, any := numericRange(values)
	spread := max - min

	for i, v := range values {
		switch v.Kind {
		case model.KindNumber:
			if !any || spread == 0 {
				scores[i] = th.NeutralScore
				continue
			}
			s := (v.Num - min) / spread * 100
			if pol == LowerIsBetter {
				s = 100 - s
			}
			scores[i] = s
		case model.KindBoolean:
			if v.Bool {
				scores[i] = 100
			}
		case model.KindText:
			scores[i] = th.NeutralScore
		default:
			scores[i] = 0
		}
	}
	return scores
}

// bestWorstMasks flags the best and worst values of one attribute.
//
// A numeric value is best iff it equals the preferable extremum among
// present values; ties flag every matching product. Absent values are
// never best or worst. Boolean best means true, worst means false. Text
// is never flagged.
func bestWorstMasks(values []model.Value, pol Polarity) (best, worst []bool) {
	best = make([]bool, len(values))
	worst = make([]bool, len(values))

	min, max, any := numericRange(values)
	bestTarget, worstTarget := max, min
	if pol == LowerIsBetter {
		bestTarget, worstTarget = min, max
	}

	for i, v := range values {
		switch v.Kind {
		case model.KindNumber:
			if !any {
				continue
			}
			best[i] = v.Num == bestTarget
			worst[i] = v.Num == worstTarget
		case model.KindBoolean:
			best[i] = v.Bool
			worst[i] = !v.Bool
		}
	}
	return best, worst
}

// numericRange returns the min and max of the numeric values present in
// the slice; any is false when no numeric value exists.
func numericRange(values []model.Value) (min, max float64, any bool) {
	for _, v := range values {
		if v.Kind != model.KindNumber {
			continue
		}
		if !any {
			min, max, any = v.Num, v.Num, true
			continue
		}
		if v.Num < min {
			min = v.Num
		}
		if v.Num > max {
			max = v.Num
		}
	}
	return min, max, any
}

// clampScore keeps a composite score inside [0,100].
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
