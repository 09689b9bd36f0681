package cma

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBestComps_ScoreMonotonicity(t *testing.T) {
	subject := Subject{Beds: f(3), Baths: f(2), Sqft: f(2000)}
	exact := activeComp("EXACT", 600000, 2000, 3, 2)
	far := activeComp("FAR", 780000, 2600, 4, 3)

	sel, err := SelectBestComps(DefaultConfig(), []Comp{far, exact}, subject)
	require.NoError(t, err)
	require.Len(t, sel.Comps, 2)

	assert.Equal(t, "EXACT", sel.Comps[0].ListingKey)
	assert.InDelta(t, 1.0, sel.Comps[0].Score, 1e-9)
	assert.Less(t, sel.Comps[1].Score, sel.Comps[0].Score)
	for _, c := range sel.Comps {
		assert.Greater(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
	}
}

func TestSelectBestComps_ScoreDecreasesWithEachDimension(t *testing.T) {
	cfg := DefaultConfig()
	subject := Subject{Beds: f(3), Baths: f(2), Sqft: f(2000)}
	base := activeComp("BASE", 600000, 2000, 3, 2)
	baseScore, _ := similarity(cfg, base, subject)

	tests := []struct {
		name   string
		mutate func(c *Comp)
	}{
		{name: "extra bedroom", mutate: func(c *Comp) { c.Beds = 4 }},
		{name: "extra bathroom", mutate: func(c *Comp) { c.Baths = 3 }},
		{name: "larger living area", mutate: func(c *Comp) { c.Sqft = 2400 }},
		{name: "smaller living area", mutate: func(c *Comp) { c.Sqft = 1600 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			score, _ := similarity(cfg, c, subject)
			assert.Less(t, score, baseScore)
		})
	}
}

func TestSelectBestComps_MissingDimensionIgnored(t *testing.T) {
	subject := Subject{Sqft: f(2000)}
	twoBed := activeComp("TWO", 600000, 2000, 2, 1)
	fiveBed := activeComp("FIVE", 600000, 2000, 5, 4)

	sel, err := SelectBestComps(DefaultConfig(), []Comp{twoBed, fiveBed}, subject)
	require.NoError(t, err)

	assert.Equal(t, sel.Comps[0].Score, sel.Comps[1].Score)
	assert.InDelta(t, 1.0, sel.Comps[0].Score, 1e-9)
}

func TestSelectBestComps_DistanceScoring(t *testing.T) {
	palmDesert := orb.Point{-116.3744, 33.7222}
	subject := Subject{Sqft: f(2000), Location: &palmDesert, RadiusMiles: f(5)}

	near := activeComp("NEAR", 600000, 2000, 3, 2)
	near.Latitude, near.Longitude = f(33.7230), f(-116.3750)
	distant := activeComp("DISTANT", 600000, 2000, 3, 2)
	distant.Latitude, distant.Longitude = f(33.8303), f(-116.5453)
	unlocated := activeComp("NOWHERE", 600000, 2000, 3, 2)

	sel, err := SelectBestComps(DefaultConfig(), []Comp{distant, unlocated, near}, subject)
	require.NoError(t, err)

	byKey := map[string]ScoredComp{}
	for _, c := range sel.Comps {
		byKey[c.ListingKey] = c
	}
	require.NotNil(t, byKey["NEAR"].DistanceMiles)
	require.NotNil(t, byKey["DISTANT"].DistanceMiles)
	assert.Nil(t, byKey["NOWHERE"].DistanceMiles)
	assert.Less(t, *byKey["NEAR"].DistanceMiles, 0.1)
	assert.Greater(t, *byKey["DISTANT"].DistanceMiles, 10.0)
	assert.Greater(t, byKey["NEAR"].Score, byKey["DISTANT"].Score)
}

func TestSelectBestComps_OutlierFence(t *testing.T) {
	pool := uniformPool(290, 295, 300, 305, 310, 315, 320, 325)
	luxury := activeComp("LUXURY", 3000*2000, 2000, 3, 2)
	pool = append(pool, luxury)

	sel, err := SelectBestComps(DefaultConfig(), pool, Subject{Sqft: f(2000)})
	require.NoError(t, err)

	assert.True(t, sel.FenceApplied)
	assert.Equal(t, []string{"LUXURY"}, sel.Outliers)
	assert.NotContains(t, keys(sel.Comps), "LUXURY")
	assert.Len(t, sel.Comps, 8)
	assert.Equal(t, 9, sel.CandidateCount)
	require.NotNil(t, sel.FenceLow)
	require.NotNil(t, sel.FenceHigh)
	assert.InDelta(t, 270.0, *sel.FenceLow, 1e-9)
	assert.InDelta(t, 350.0, *sel.FenceHigh, 1e-9)
}

func TestSelectBestComps_OutlierFenceUniformPool(t *testing.T) {
	pool := uniformPool(300, 300, 300, 300, 300, 300, 300, 300)
	pool = append(pool, activeComp("TENX", 3000*2000, 2000, 3, 2))

	sel, err := SelectBestComps(DefaultConfig(), pool, Subject{Sqft: f(2000)})
	require.NoError(t, err)

	assert.Equal(t, []string{"TENX"}, sel.Outliers)
	assert.Len(t, sel.Comps, 8)
}

func TestSelectBestComps_SmallPoolSkipsFence(t *testing.T) {
	pool := uniformPool(300, 310, 3000)

	sel, err := SelectBestComps(DefaultConfig(), pool, Subject{Sqft: f(2000)})
	require.NoError(t, err)

	assert.False(t, sel.FenceApplied)
	assert.Empty(t, sel.Outliers)
	assert.Len(t, sel.Comps, 3)
}

func TestSelectBestComps_EmptyPool(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Comp
	}{
		{name: "no candidates", candidates: nil},
		{name: "no usable price per sqft", candidates: []Comp{
			activeComp("NOSQFT", 500000, 0, 3, 2),
			activeComp("NOPRICE", 0, 2000, 3, 2),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SelectBestComps(DefaultConfig(), tt.candidates, Subject{Sqft: f(2000)})
			assert.ErrorIs(t, err, ErrNoCandidates)
		})
	}
}

func TestSelectBestComps_MaxComps(t *testing.T) {
	ppsf := make([]float64, 15)
	for i := range ppsf {
		ppsf[i] = 300 + float64(i)
	}
	pool := uniformPool(ppsf...)

	sel, err := SelectBestComps(DefaultConfig(), pool, Subject{Sqft: f(2000)})
	require.NoError(t, err)
	assert.Len(t, sel.Comps, 10)

	sel, err = SelectBestComps(DefaultConfig(), pool, Subject{Sqft: f(2000), MaxComps: 4})
	require.NoError(t, err)
	assert.Len(t, sel.Comps, 4)
}

func TestSelectBestComps_TieBreaks(t *testing.T) {
	// Identical scores: closest to the pool median price/sqft first, then key.
	pool := []Comp{
		activeComp("C", 2000*400, 2000, 3, 2),
		activeComp("B", 2000*300, 2000, 3, 2),
		activeComp("A", 2000*300, 2000, 3, 2),
		activeComp("D", 2000*200, 2000, 3, 2),
	}

	sel, err := SelectBestComps(DefaultConfig(), pool, Subject{Beds: f(3)})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D"}, keys(sel.Comps))
}

func TestSelectBestComps_Deterministic(t *testing.T) {
	subject := Subject{Beds: f(3), Baths: f(2), Sqft: f(2000)}
	var pool []Comp
	for i := 0; i < 20; i++ {
		pool = append(pool, activeComp(fmt.Sprintf("K%02d", i), 500000+float64(i%5)*10000, 1900+float64(i%4)*50, float64(2+i%3), 2))
	}

	first, err := SelectBestComps(DefaultConfig(), pool, subject)
	require.NoError(t, err)
	second, err := SelectBestComps(DefaultConfig(), pool, subject)
	require.NoError(t, err)

	assert.Equal(t, keys(first.Comps), keys(second.Comps))
}

func BenchmarkSelectBestComps(b *testing.B) {
	subject := Subject{Beds: f(3), Baths: f(2), Sqft: f(2000)}
	pool := make([]Comp, 200)
	for i := range pool {
		pool[i] = activeComp(fmt.Sprintf("K%03d", i), 450000+float64(i%17)*9000, 1800+float64(i%9)*50, float64(2+i%3), float64(1+i%3))
	}
	cfg := DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := SelectBestComps(cfg, pool, subject); err != nil {
			b.Fatal(err)
		}
	}
}

func TestSelectBestComps_PlaceholderCoordinatesUnlocated(t *testing.T) {
	palmDesert := orb.Point{-116.3744, 33.7222}
	subject := Subject{Sqft: f(2000), Location: &palmDesert, RadiusMiles: f(5)}

	placeholder := activeComp("ZERO", 600000, 2000, 3, 2)
	placeholder.Latitude, placeholder.Longitude = f(0), f(0)
	_, located := placeholder.Point()
	assert.False(t, located)

	sel, err := SelectBestComps(DefaultConfig(), []Comp{placeholder}, subject)
	require.NoError(t, err)
	require.Len(t, sel.Comps, 1)
	assert.Nil(t, sel.Comps[0].DistanceMiles)
	assert.InDelta(t, 1.0, sel.Comps[0].Score, 1e-9)
}
