package cma

import (
	"errors"
	"time"

	"comparables/server/internal/geometry"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

var (
	// ErrNoCandidates is returned when the candidate pool is empty, or holds
	// nothing with a usable price and living area.
	ErrNoCandidates = errors.New("no comparable listings found")

	// ErrInvalidCashflowInputs is returned when financing inputs cannot be
	// used (negative values, missing purchase price).
	ErrInvalidCashflowInputs = errors.New("invalid cashflow inputs")
)

// Subject describes the property or area being analyzed. Nil fields were not
// supplied and are excluded from scoring rather than treated as zero.
type Subject struct {
	PropertyID  string     `json:"subjectPropertyId,omitempty"`
	Subdivision string     `json:"subjectSubdivision,omitempty"`
	Beds        *float64   `json:"beds,omitempty"`
	Baths       *float64   `json:"baths,omitempty"`
	Sqft        *float64   `json:"sqft,omitempty"`
	RadiusMiles *float64   `json:"radiusMiles,omitempty"`
	MaxComps    int        `json:"maxComps,omitempty"`
	Location    *orb.Point `json:"-"`
	ListPrice   *float64   `json:"listPrice,omitempty"`
}

// Comp is a candidate comparable listing as returned by the listing store.
type Comp struct {
	ListingKey      string     `json:"listingKey"`
	Status          string     `json:"status"`
	Price           float64    `json:"price"`
	ListPrice       float64    `json:"listPrice"`
	ClosePrice      *float64   `json:"closePrice,omitempty"`
	Sqft            float64    `json:"sqft"`
	Beds            float64    `json:"beds"`
	Baths           float64    `json:"baths"`
	Date            time.Time  `json:"date"`
	CloseDate       *time.Time `json:"closeDate,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	PropertySubType string     `json:"propertySubType,omitempty"`
	Subdivision     string     `json:"subdivision,omitempty"`
	Address         string     `json:"address,omitempty"`
	YearBuilt       *int       `json:"yearBuilt,omitempty"`
	DaysOnMarket    *int       `json:"daysOnMarket,omitempty"`
}

// Closed reports whether the comp is a completed sale with a close date.
func (c Comp) Closed() bool {
	return c.ClosePrice != nil && *c.ClosePrice > 0 && c.CloseDate != nil && !c.CloseDate.IsZero()
}

// Point returns the comp location when both coordinates are known.
func (c Comp) Point() (orb.Point, bool) {
	if c.Latitude == nil || c.Longitude == nil || !geometry.ValidCoordinates(*c.Latitude, *c.Longitude) {
		return orb.Point{}, false
	}
	return geometry.Point(*c.Latitude, *c.Longitude), true
}

// PricePerSqft returns the comp price divided by living area, or zero when
// either is missing.
func (c Comp) PricePerSqft() float64 {
	if c.Price <= 0 || c.Sqft <= 0 {
		return 0
	}
	return c.Price / c.Sqft
}

// ScoredComp is a comp annotated with its similarity to the subject.
type ScoredComp struct {
	Comp
	Score         float64  `json:"score"`
	PricePerSqft  float64  `json:"pricePerSqft"`
	DistanceMiles *float64 `json:"distanceMiles,omitempty"`
}

// Confidence rates how far a valuation can be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
	// ConfidenceInsufficient marks appreciation results computed from fewer
	// than two periods. Their rates are zero and must not be read as flat.
	ConfidenceInsufficient Confidence = "insufficient_data"
)

// Trend classifies the direction of annualized appreciation.
type Trend string

const (
	TrendRising    Trend = "rising"
	TrendFlat      Trend = "flat"
	TrendDeclining Trend = "declining"
)

// Summary is the point valuation derived from the best comps.
type Summary struct {
	PointEstimate      float64    `json:"pointEstimate"`
	Low                float64    `json:"low"`
	High               float64    `json:"high"`
	Confidence         Confidence `json:"confidence"`
	SampleSize         int        `json:"sampleSize"`
	MedianPricePerSqft float64    `json:"medianPricePerSqft"`
	LowPricePerSqft    float64    `json:"lowPricePerSqft"`
	HighPricePerSqft   float64    `json:"highPricePerSqft"`
	Dispersion         float64    `json:"coefficientOfVariation"`
	Methodology        []string   `json:"methodology"`
}

// PeriodStat is one calendar quarter of closed sales.
type PeriodStat struct {
	Period      string    `json:"period"`
	Start       time.Time `json:"start"`
	MedianPrice float64   `json:"medianPrice"`
	Sales       int       `json:"sales"`
	// Change is the move from the previous non-empty quarter; absent for the first.
	Change *float64 `json:"change,omitempty"`
}

// Appreciation is the historical growth analysis for the comp set. Rates are
// fractions (0.05 is 5%).
type Appreciation struct {
	Area             string       `json:"area,omitempty"`
	AnnualizedRate   float64      `json:"annualizedRate"`
	CumulativeRate   float64      `json:"cumulativeRate"`
	Years            float64      `json:"years"`
	Trend            Trend        `json:"trend"`
	StartMedianPrice float64      `json:"startMedianPrice"`
	EndMedianPrice   float64      `json:"endMedianPrice"`
	TotalSales       int          `json:"totalSales"`
	Confidence       Confidence   `json:"confidence"`
	Volatility       *float64     `json:"volatility,omitempty"`
	Periods          []PeriodStat `json:"periods"`
}

// Sufficient reports whether the rates were computed from real data.
func (a Appreciation) Sufficient() bool {
	return a.Confidence != ConfidenceInsufficient
}

// Report is the assembled result of one CMA request. It is built once and
// never modified.
type Report struct {
	ID           uuid.UUID       `json:"id"`
	Subject      Subject         `json:"subject"`
	Summary      Summary         `json:"summary"`
	Comps        []ScoredComp    `json:"comps"`
	Selection    Selection       `json:"selection"`
	Appreciation Appreciation    `json:"appreciation"`
	Forecast     *ForecastResult `json:"forecast,omitempty"`
	Cashflow     *CashflowResult `json:"cashflow"`
	Risk         RiskResult      `json:"risk"`
	GeneratedAt  time.Time       `json:"generatedAt"`
}
