package cma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name      string
		in        RiskInputs
		wantScore int
		wantLabel RiskLabel
	}{
		{
			name:      "plenty of comps only",
			in:        RiskInputs{ComparableCount: 10},
			wantScore: 10,
			wantLabel: RiskLow,
		},
		{
			name:      "no comps",
			in:        RiskInputs{},
			wantScore: 60,
			wantLabel: RiskHigh,
		},
		{
			name: "priced at estimate in a calm market",
			in: RiskInputs{
				Volatility:      f(0.01),
				Momentum:        f(0.05),
				SubjectPrice:    f(500000),
				PointEstimate:   500000,
				ComparableCount: 8,
			},
			// (10*0.20 + 20*0.15 + 0*0.15 + 10*0.05) / 0.55
			wantScore: 10,
			wantLabel: RiskLow,
		},
		{
			name: "overpriced with negative cash flow",
			in: RiskInputs{
				CashOnCashReturn: f(-1.6),
				SubjectPrice:     f(650000),
				PointEstimate:    500000,
				ComparableCount:  4,
			},
			// (86*0.10 + 100*0.15 + 30*0.05) / 0.30
			wantScore: 84,
			wantLabel: RiskHigh,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := AssessRisk(tt.in)

			assert.Equal(t, tt.wantScore, r.Score)
			assert.Equal(t, tt.wantLabel, r.Label)
			assert.GreaterOrEqual(t, r.Score, 0)
			assert.LessOrEqual(t, r.Score, 100)
			assert.NotNil(t, r.Recommendations)
		})
	}
}

func TestAssessRisk_Recommendations(t *testing.T) {
	r := AssessRisk(RiskInputs{
		Volatility:      f(0.5),
		SubjectPrice:    f(800000),
		PointEstimate:   500000,
		ComparableCount: 1,
	})

	assert.Equal(t, 100.0, r.Factors[factorVolatility])
	assert.Contains(t, r.Recommendations, factorAdvice[factorVolatility].advice)
	assert.Contains(t, r.Recommendations, factorAdvice[factorValuation].advice)
	assert.Contains(t, r.Recommendations, factorAdvice[factorComparables].advice)
	assert.NotContains(t, r.Factors, factorCashflow)
}
