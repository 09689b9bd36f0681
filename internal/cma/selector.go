package cma

import (
	"math"
	"sort"

	"comparables/server/internal/geometry"
)

// Selection is the outcome of ranking a candidate pool.
type Selection struct {
	Comps          []ScoredComp `json:"-"`
	CandidateCount int          `json:"candidateCount"`
	// Outliers lists the listing keys rejected by the price/sqft fence.
	Outliers     []string `json:"outliers"`
	FenceApplied bool     `json:"fenceApplied"`
	FenceLow     *float64 `json:"fenceLow,omitempty"`
	FenceHigh    *float64 `json:"fenceHigh,omitempty"`
}

// SelectBestComps scores candidates by similarity to the subject, drops
// price/sqft outliers outside the Tukey fence and returns the top matches.
// Candidates are expected to have passed the store's hard filters already.
func SelectBestComps(cfg Config, candidates []Comp, subject Subject) (Selection, error) {
	sel := Selection{CandidateCount: len(candidates), Outliers: []string{}}

	pool := make([]ScoredComp, 0, len(candidates))
	for _, c := range candidates {
		ppsf := c.PricePerSqft()
		if ppsf <= 0 {
			continue
		}
		score, miles := similarity(cfg, c, subject)
		pool = append(pool, ScoredComp{
			Comp:          c,
			Score:         score,
			PricePerSqft:  ppsf,
			DistanceMiles: miles,
		})
	}
	if len(pool) == 0 {
		return sel, ErrNoCandidates
	}

	ppsf := make([]float64, len(pool))
	for i, sc := range pool {
		ppsf[i] = sc.PricePerSqft
	}
	poolMedian := median(ppsf)

	if len(pool) >= cfg.MinFenceSample {
		sorted := sortedCopy(ppsf)
		q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
		iqr := q3 - q1
		low, high := q1-cfg.FenceMultiplier*iqr, q3+cfg.FenceMultiplier*iqr

		inliers := make([]ScoredComp, 0, len(pool))
		var outliers []string
		for _, sc := range pool {
			if sc.PricePerSqft < low || sc.PricePerSqft > high {
				outliers = append(outliers, sc.ListingKey)
				continue
			}
			inliers = append(inliers, sc)
		}
		if len(inliers) > 0 {
			pool = inliers
			sel.FenceApplied = true
			sel.FenceLow, sel.FenceHigh = ptr(low), ptr(high)
			if outliers != nil {
				sel.Outliers = outliers
			}
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		di := math.Abs(pool[i].PricePerSqft - poolMedian)
		dj := math.Abs(pool[j].PricePerSqft - poolMedian)
		if di != dj {
			return di < dj
		}
		return pool[i].ListingKey < pool[j].ListingKey
	})

	limit := subject.MaxComps
	if limit <= 0 {
		limit = cfg.DefaultMaxComps
	}
	if len(pool) > limit {
		pool = pool[:limit]
	}
	sel.Comps = pool
	return sel, nil
}

// similarity returns 1/(1+d) where d is the weighted mean distance over the
// dimensions both sides supply, and the great-circle distance when known.
func similarity(cfg Config, c Comp, subject Subject) (float64, *float64) {
	var weighted, total float64
	var miles *float64

	if subject.Beds != nil && cfg.BedWeight > 0 {
		weighted += cfg.BedWeight * math.Abs(c.Beds-*subject.Beds)
		total += cfg.BedWeight
	}
	if subject.Baths != nil && cfg.BathWeight > 0 {
		weighted += cfg.BathWeight * math.Abs(c.Baths-*subject.Baths)
		total += cfg.BathWeight
	}
	if subject.Sqft != nil && *subject.Sqft > 0 && cfg.SqftWeight > 0 {
		weighted += cfg.SqftWeight * math.Abs(c.Sqft-*subject.Sqft) / *subject.Sqft
		total += cfg.SqftWeight
	}
	if p, ok := c.Point(); ok && subject.Location != nil {
		d := geometry.DistanceMiles(*subject.Location, p)
		miles = ptr(d)
		if cfg.DistanceWeight > 0 {
			// Scaled to the search radius so one radius counts like one bedroom.
			if subject.RadiusMiles != nil && *subject.RadiusMiles > 0 {
				d /= *subject.RadiusMiles
			}
			weighted += cfg.DistanceWeight * d
			total += cfg.DistanceWeight
		}
	}

	if total == 0 {
		return 1, miles
	}
	return 1 / (1 + weighted/total), miles
}
