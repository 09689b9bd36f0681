package cma

// Summarize turns the best comps into a point valuation with an
// interquartile range and a confidence rating. An empty set yields zero
// values with low confidence; callers check SampleSize before trusting it.
func Summarize(cfg Config, comps []ScoredComp, subjectSqft *float64) Summary {
	summary := Summary{
		Confidence:  ConfidenceLow,
		SampleSize:  len(comps),
		Methodology: []string{},
	}
	if len(comps) == 0 {
		return summary
	}

	ppsf := make([]float64, len(comps))
	prices := make([]float64, len(comps))
	for i, c := range comps {
		ppsf[i] = c.PricePerSqft
		prices[i] = c.Price
	}

	sortedPPSF := sortedCopy(ppsf)
	q1, med, q3 := quantile(sortedPPSF, 0.25), quantile(sortedPPSF, 0.5), quantile(sortedPPSF, 0.75)
	summary.MedianPricePerSqft = roundCents(med)
	summary.LowPricePerSqft = roundCents(q1)
	summary.HighPricePerSqft = roundCents(q3)
	summary.Dispersion = round(coefficientOfVariation(ppsf), 4)

	if subjectSqft != nil && *subjectSqft > 0 {
		sqft := *subjectSqft
		summary.PointEstimate = roundDollars(med * sqft)
		summary.Low = roundDollars(q1 * sqft)
		summary.High = roundDollars(q3 * sqft)
		summary.Methodology = append(summary.Methodology, "median-price-per-sqft", "iqr-range")
	} else {
		sortedPrices := sortedCopy(prices)
		summary.PointEstimate = roundDollars(quantile(sortedPrices, 0.5))
		summary.Low = roundDollars(quantile(sortedPrices, 0.25))
		summary.High = roundDollars(quantile(sortedPrices, 0.75))
		summary.Methodology = append(summary.Methodology, "median-price", "iqr-range")
	}

	summary.Confidence = rateConfidence(cfg, len(comps), coefficientOfVariation(ppsf))
	return summary
}

func rateConfidence(cfg Config, n int, cv float64) Confidence {
	switch {
	case n >= cfg.HighSampleSize && cv < cfg.LowDispersionCV:
		return ConfidenceHigh
	case n >= cfg.MediumSample:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
