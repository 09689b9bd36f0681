package cma

import "math"

const (
	forecastFloor       = -0.05
	forecastCeiling     = 0.15
	maxVolatilityDamper = 0.3
	// typicalAnnualVolatility normalizes volatility into a 0-1 index.
	typicalAnnualVolatility = 0.20
)

// ForecastPoint is the projected value a whole number of years out.
type ForecastPoint struct {
	Year           int     `json:"year"`
	ProjectedValue float64 `json:"projectedValue"`
}

// ForecastResult projects the current value forward at a blended rate.
type ForecastResult struct {
	CurrentValue     float64         `json:"currentValue"`
	EffectiveRate    float64         `json:"effectiveRate"`
	HistoricalRate   float64         `json:"historicalRate"`
	Momentum         float64         `json:"momentum"`
	VolatilityDamper float64         `json:"volatilityDamper"`
	Curve            []ForecastPoint `json:"curve"`
}

// At returns the projection for the given year, if it is on the curve.
func (f *ForecastResult) At(year int) (ForecastPoint, bool) {
	if f == nil || year < 1 || year > len(f.Curve) {
		return ForecastPoint{}, false
	}
	return f.Curve[year-1], true
}

// Forecast blends the historical annualized rate (60%) with recent quarterly
// momentum (40%), dampens the result for volatile markets and compounds it
// yearly from currentValue. It returns nil when the appreciation data is
// insufficient or there is no value to project.
func Forecast(a Appreciation, currentValue float64, years int) *ForecastResult {
	if !a.Sufficient() || currentValue <= 0 || years <= 0 {
		return nil
	}

	momentum := a.AnnualizedRate
	var recent []float64
	for i := len(a.Periods) - 1; i >= 0 && len(recent) < 2; i-- {
		if c := a.Periods[i].Change; c != nil {
			recent = append(recent, math.Pow(1+*c, 4)-1)
		}
	}
	if len(recent) > 0 {
		momentum = mean(recent)
	}

	blended := 0.6*a.AnnualizedRate + 0.4*momentum

	var damper float64
	if a.Volatility != nil {
		// Quarterly volatility scales by sqrt(4) to a yearly figure.
		index := math.Min(*a.Volatility*2/typicalAnnualVolatility, 1)
		damper = maxVolatilityDamper * index
	}
	rate := blended * (1 - damper)
	rate = math.Max(forecastFloor, math.Min(forecastCeiling, rate))

	result := &ForecastResult{
		CurrentValue:     roundDollars(currentValue),
		EffectiveRate:    round(rate, 6),
		HistoricalRate:   round(a.AnnualizedRate, 6),
		Momentum:         round(momentum, 6),
		VolatilityDamper: round(damper, 4),
		Curve:            make([]ForecastPoint, 0, years),
	}
	value := currentValue
	for y := 1; y <= years; y++ {
		value *= 1 + rate
		result.Curve = append(result.Curve, ForecastPoint{Year: y, ProjectedValue: roundDollars(value)})
	}
	return result
}
