package cma

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateAppreciation_TwoYears(t *testing.T) {
	comps := []Comp{
		closedComp("A1", 480000, 2000, date(2022, 1, 15)),
		closedComp("A2", 500000, 2000, date(2022, 2, 10)),
		closedComp("A3", 520000, 2000, date(2022, 3, 30)),
		closedComp("B1", 600000, 2000, date(2024, 1, 5)),
		closedComp("B2", 605000, 2000, date(2024, 2, 20)),
		closedComp("B3", 610000, 2000, date(2024, 3, 1)),
	}

	a := CalculateAppreciation(DefaultConfig(), comps, "")

	require.True(t, a.Sufficient())
	assert.Equal(t, 2.0, a.Years)
	assert.Equal(t, 500000.0, a.StartMedianPrice)
	assert.Equal(t, 605000.0, a.EndMedianPrice)
	assert.InDelta(t, 0.21, a.CumulativeRate, 1e-9)
	assert.InDelta(t, 0.10, a.AnnualizedRate, 1e-9)
	assert.InDelta(t, 1+a.CumulativeRate, math.Pow(1+a.AnnualizedRate, a.Years), 1e-9)
	assert.Equal(t, TrendRising, a.Trend)
	assert.Equal(t, ConfidenceLow, a.Confidence)
	assert.Equal(t, 6, a.TotalSales)
	require.Len(t, a.Periods, 2)
	assert.Equal(t, "2022-Q1", a.Periods[0].Period)
	assert.Equal(t, "2024-Q1", a.Periods[1].Period)
	assert.Nil(t, a.Periods[0].Change)
	assert.Nil(t, a.Volatility)
}

func TestCalculateAppreciation_Insufficient(t *testing.T) {
	tests := []struct {
		name  string
		comps []Comp
	}{
		{name: "no comps"},
		{name: "single quarter", comps: []Comp{
			closedComp("A", 500000, 2000, date(2024, 4, 1)),
			closedComp("B", 520000, 2000, date(2024, 6, 30)),
		}},
		{name: "only active listings", comps: []Comp{
			activeComp("A", 500000, 2000, 3, 2),
			activeComp("B", 700000, 2000, 3, 2),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := CalculateAppreciation(DefaultConfig(), tt.comps, "")

			assert.False(t, a.Sufficient())
			assert.Equal(t, ConfidenceInsufficient, a.Confidence)
			assert.Zero(t, a.AnnualizedRate)
			assert.Zero(t, a.CumulativeRate)
		})
	}
}

func TestCalculateAppreciation_Trend(t *testing.T) {
	tests := []struct {
		name      string
		endPrice  float64
		wantTrend Trend
	}{
		{name: "declining", endPrice: 450000, wantTrend: TrendDeclining},
		{name: "flat", endPrice: 505000, wantTrend: TrendFlat},
		{name: "rising", endPrice: 560000, wantTrend: TrendRising},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comps := []Comp{
				closedComp("START", 500000, 2000, date(2023, 2, 1)),
				closedComp("END", tt.endPrice, 2000, date(2024, 2, 1)),
			}
			a := CalculateAppreciation(DefaultConfig(), comps, "")
			assert.Equal(t, tt.wantTrend, a.Trend)
			assert.Equal(t, 1.0, a.Years)
		})
	}
}

func TestCalculateAppreciation_VolatilityAndConfidence(t *testing.T) {
	var comps []Comp
	prices := []float64{500000, 520000, 510000, 540000}
	months := []int{1, 4, 7, 10}
	for q, price := range prices {
		for i := 0; i < 5; i++ {
			closed := date(2023, time.Month(months[q]), 1+i)
			comps = append(comps, closedComp("", price, 2000, closed))
		}
	}

	a := CalculateAppreciation(DefaultConfig(), comps, "")

	assert.Equal(t, 20, a.TotalSales)
	assert.Equal(t, ConfidenceHigh, a.Confidence)
	assert.Equal(t, 0.75, a.Years)
	require.NotNil(t, a.Volatility)
	assert.Greater(t, *a.Volatility, 0.0)
	require.Len(t, a.Periods, 4)
	require.NotNil(t, a.Periods[3].Change)
	assert.InDelta(t, 540000.0/510000.0-1, *a.Periods[3].Change, 1e-6)
}

func TestCalculateAppreciation_AreaFilter(t *testing.T) {
	inArea := closedComp("IN1", 500000, 2000, date(2022, 5, 1))
	inArea.Subdivision = "Indian Ridge"
	inAreaLater := closedComp("IN2", 550000, 2000, date(2023, 5, 1))
	inAreaLater.Subdivision = "indian ridge "
	other := closedComp("OUT", 900000, 2000, date(2023, 5, 1))
	other.Subdivision = "Bighorn"

	a := CalculateAppreciation(DefaultConfig(), []Comp{inArea, inAreaLater, other}, "Indian Ridge")

	assert.Equal(t, "Indian Ridge", a.Area)
	assert.Equal(t, 2, a.TotalSales)
	assert.Equal(t, 550000.0, a.EndMedianPrice)
}
