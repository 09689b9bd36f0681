package cma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appreciationWith(rate float64, changes ...float64) Appreciation {
	a := Appreciation{
		AnnualizedRate: rate,
		Confidence:     ConfidenceMedium,
		Periods:        []PeriodStat{{Period: "2023-Q1"}},
	}
	for _, c := range changes {
		a.Periods = append(a.Periods, PeriodStat{Change: f(c)})
	}
	return a
}

func TestForecast_BlendsHistoryAndMomentum(t *testing.T) {
	a := appreciationWith(0.04, 0.05, 0.01, 0.01)

	fc := Forecast(a, 500000, 5)

	require.NotNil(t, fc)
	assert.InDelta(t, 0.040604, fc.Momentum, 1e-6)
	assert.InDelta(t, 0.040242, fc.EffectiveRate, 1e-6)
	assert.Zero(t, fc.VolatilityDamper)
	require.Len(t, fc.Curve, 5)

	one, ok := fc.At(1)
	require.True(t, ok)
	assert.Equal(t, 520121.0, one.ProjectedValue)

	five, ok := fc.At(5)
	require.True(t, ok)
	assert.Equal(t, 609033.0, five.ProjectedValue)

	_, ok = fc.At(6)
	assert.False(t, ok)
}

func TestForecast_VolatilityDamper(t *testing.T) {
	a := appreciationWith(0.10)
	a.Volatility = f(0.2)

	fc := Forecast(a, 400000, 1)

	require.NotNil(t, fc)
	assert.InDelta(t, 0.3, fc.VolatilityDamper, 1e-9)
	assert.InDelta(t, 0.07, fc.EffectiveRate, 1e-6)
}

func TestForecast_Clamped(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		wantRate float64
	}{
		{name: "ceiling", rate: 0.40, wantRate: 0.15},
		{name: "floor", rate: -0.30, wantRate: -0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := Forecast(appreciationWith(tt.rate), 300000, 3)
			require.NotNil(t, fc)
			assert.InDelta(t, tt.wantRate, fc.EffectiveRate, 1e-9)
		})
	}
}

func TestForecast_Unavailable(t *testing.T) {
	insufficient := Appreciation{Confidence: ConfidenceInsufficient}

	assert.Nil(t, Forecast(insufficient, 500000, 10))
	assert.Nil(t, Forecast(appreciationWith(0.03), 0, 10))
	assert.Nil(t, Forecast(appreciationWith(0.03), 500000, 0))

	var fc *ForecastResult
	_, ok := fc.At(1)
	assert.False(t, ok)
}
