package cma

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// CalculateAppreciation buckets closed sales by calendar quarter and derives
// the compound annual growth between the first and last non-empty quarters.
// When area is set only comps in that subdivision are counted.
func CalculateAppreciation(cfg Config, comps []Comp, area string) Appreciation {
	result := Appreciation{
		Area:       strings.TrimSpace(area),
		Trend:      TrendFlat,
		Confidence: ConfidenceInsufficient,
		Periods:    []PeriodStat{},
	}

	buckets := make(map[int][]float64)
	for _, c := range comps {
		if !c.Closed() {
			continue
		}
		if result.Area != "" && !strings.EqualFold(strings.TrimSpace(c.Subdivision), result.Area) {
			continue
		}
		q := quarterIndex(*c.CloseDate)
		buckets[q] = append(buckets[q], *c.ClosePrice)
		result.TotalSales++
	}
	if len(buckets) == 0 {
		return result
	}

	quarters := make([]int, 0, len(buckets))
	for q := range buckets {
		quarters = append(quarters, q)
	}
	sort.Ints(quarters)

	medians := make([]float64, len(quarters))
	var changes []float64
	for i, q := range quarters {
		medians[i] = median(buckets[q])
		stat := PeriodStat{
			Period:      quarterLabel(q),
			Start:       quarterStart(q),
			MedianPrice: roundDollars(medians[i]),
			Sales:       len(buckets[q]),
		}
		if i > 0 && medians[i-1] > 0 {
			change := medians[i]/medians[i-1] - 1
			changes = append(changes, change)
			stat.Change = ptr(round(change, 6))
		}
		result.Periods = append(result.Periods, stat)
	}

	start, end := medians[0], medians[len(medians)-1]
	result.StartMedianPrice = roundDollars(start)
	result.EndMedianPrice = roundDollars(end)

	if len(quarters) < 2 || start <= 0 {
		return result
	}

	// Bucket midpoints are whole quarters apart.
	years := float64(quarters[len(quarters)-1]-quarters[0]) / 4
	result.Years = years
	result.CumulativeRate = end/start - 1
	result.AnnualizedRate = math.Pow(end/start, 1/years) - 1

	switch {
	case result.AnnualizedRate > cfg.TrendThreshold:
		result.Trend = TrendRising
	case result.AnnualizedRate < -cfg.TrendThreshold:
		result.Trend = TrendDeclining
	default:
		result.Trend = TrendFlat
	}

	if len(changes) >= 2 {
		result.Volatility = ptr(round(stddev(changes), 6))
	}

	switch {
	case result.TotalSales >= 20:
		result.Confidence = ConfidenceHigh
	case result.TotalSales >= 10:
		result.Confidence = ConfidenceMedium
	default:
		result.Confidence = ConfidenceLow
	}
	return result
}

func quarterIndex(t time.Time) int {
	t = t.UTC()
	return t.Year()*4 + (int(t.Month())-1)/3
}

func quarterStart(q int) time.Time {
	return time.Date(q/4, time.Month((q%4)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

func quarterLabel(q int) string {
	return fmt.Sprintf("%d-Q%d", q/4, q%4+1)
}
