package cma

import (
	"math"
	"sort"
)

// RiskLabel buckets the composite risk score.
type RiskLabel string

const (
	RiskLow      RiskLabel = "low"
	RiskModerate RiskLabel = "moderate"
	RiskHigh     RiskLabel = "high"
)

const (
	factorVolatility  = "volatility"
	factorMomentum    = "price_momentum"
	factorCashflow    = "cashflow_strength"
	factorValuation   = "valuation_accuracy"
	factorComparables = "comparable_quality"
)

// RiskInputs collects the signals the risk index is built from. Nil fields
// are left out and the remaining weights renormalized.
type RiskInputs struct {
	Volatility       *float64
	Momentum         *float64
	CashOnCashReturn *float64
	SubjectPrice     *float64
	PointEstimate    float64
	ComparableCount  int
}

// RiskResult is a 0-100 score where higher means riskier.
type RiskResult struct {
	Score           int                `json:"score"`
	Label           RiskLabel          `json:"label"`
	Factors         map[string]float64 `json:"factors"`
	Recommendations []string           `json:"recommendations"`
}

// AssessRisk combines market, cashflow and data-quality signals into one
// weighted index.
func AssessRisk(in RiskInputs) RiskResult {
	factors := make(map[string]float64)
	var total, weights float64
	add := func(name string, weight, value float64) {
		value = math.Max(0, math.Min(100, value))
		factors[name] = round(value, 1)
		total += value * weight
		weights += weight
	}

	if in.Volatility != nil {
		add(factorVolatility, 0.20, *in.Volatility*2/typicalAnnualVolatility*100)
	}
	if in.Momentum != nil {
		m := *in.Momentum * 100
		if m < 0 {
			add(factorMomentum, 0.15, math.Abs(m)*10)
		} else {
			add(factorMomentum, 0.15, 30-m*2)
		}
	}
	if in.CashOnCashReturn != nil {
		coc := *in.CashOnCashReturn
		if coc < 0 {
			add(factorCashflow, 0.10, 70+math.Abs(coc)*10)
		} else {
			add(factorCashflow, 0.10, 50-coc*5)
		}
	}
	if in.SubjectPrice != nil && in.PointEstimate > 0 {
		gap := math.Abs(*in.SubjectPrice-in.PointEstimate) / in.PointEstimate * 100
		add(factorValuation, 0.15, gap*5)
	}
	switch {
	case in.ComparableCount >= 5:
		add(factorComparables, 0.05, 10)
	case in.ComparableCount >= 3:
		add(factorComparables, 0.05, 30)
	default:
		add(factorComparables, 0.05, 60)
	}

	score := 50.0
	if weights > 0 {
		score = total / weights
	}
	result := RiskResult{
		Score:   int(math.Round(math.Max(0, math.Min(100, score)))),
		Factors: factors,
	}
	switch {
	case result.Score < 30:
		result.Label = RiskLow
	case result.Score < 60:
		result.Label = RiskModerate
	default:
		result.Label = RiskHigh
	}
	result.Recommendations = recommendations(result)
	return result
}

var factorAdvice = map[string]struct {
	threshold float64
	advice    string
}{
	factorVolatility:  {50, "Plan for a longer holding period and keep cash reserves for price swings"},
	factorMomentum:    {60, "Price growth is slowing; temper appreciation expectations"},
	factorCashflow:    {60, "Cash flow is weak; a larger down payment or higher rent is needed to carry the property"},
	factorValuation:   {60, "Asking price is far from the comparable value; negotiate or order an appraisal"},
	factorComparables: {50, "Few comparables were found; widen the radius or date window before relying on the estimate"},
}

func recommendations(r RiskResult) []string {
	names := make([]string, 0, len(r.Factors))
	for name := range r.Factors {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []string{}
	for _, name := range names {
		if a, ok := factorAdvice[name]; ok && r.Factors[name] > a.threshold {
			out = append(out, a.advice)
		}
	}
	if len(out) == 0 {
		switch r.Label {
		case RiskHigh:
			out = append(out, "Conduct thorough due diligence before proceeding")
		case RiskLow:
			out = append(out, "Market conditions look favorable; verify property-specific factors")
		}
	}
	return out
}
