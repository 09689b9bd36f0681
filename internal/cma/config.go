package cma

// Config holds the tunable constants of the engine. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// Similarity weights per dimension. Dimensions the subject does not
	// supply are dropped and the remaining weights renormalized.
	BedWeight      float64
	BathWeight     float64
	SqftWeight     float64
	DistanceWeight float64

	// FenceMultiplier scales the IQR for the Tukey outlier fence.
	FenceMultiplier float64
	// MinFenceSample is the smallest pool the fence is applied to.
	MinFenceSample int

	DefaultMaxComps int

	// LowDispersionCV is the coefficient of variation of price/sqft below
	// which a large enough sample rates high confidence.
	LowDispersionCV float64
	HighSampleSize  int
	MediumSample    int

	// TrendThreshold is the annualized rate beyond which a market is rising
	// or declining.
	TrendThreshold float64

	// ClosingCostPercent of purchase price is added to cash invested when the
	// caller does not supply one.
	ClosingCostPercent float64

	ForecastYears int
}

// DefaultConfig returns even dimension weights, the classic 1.5×IQR fence and
// the industry default of ten comps.
func DefaultConfig() Config {
	return Config{
		BedWeight:          1,
		BathWeight:         1,
		SqftWeight:         1,
		DistanceWeight:     1,
		FenceMultiplier:    1.5,
		MinFenceSample:     4,
		DefaultMaxComps:    10,
		LowDispersionCV:    0.10,
		HighSampleSize:     6,
		MediumSample:       3,
		TrendThreshold:     0.02,
		ClosingCostPercent: 3,
		ForecastYears:      10,
	}
}
