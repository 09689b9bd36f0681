package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"comparables/server/internal/cma"
	"comparables/server/internal/database"
	"comparables/server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CMAFilters describe the subject and the comp search.
type CMAFilters struct {
	SubjectPropertyID  string   `json:"subjectPropertyId"`
	SubjectSubdivision string   `json:"subjectSubdivision"`
	Beds               *float64 `json:"beds" binding:"omitempty,gte=0,lte=50"`
	Baths              *float64 `json:"baths" binding:"omitempty,gte=0,lte=50"`
	Sqft               *float64 `json:"sqft" binding:"omitempty,gt=0"`
	RadiusMiles        *float64 `json:"radiusMiles" binding:"omitempty,gt=0,lte=50"`
	MaxComps           *int     `json:"maxComps" binding:"omitempty,gte=1,lte=100"`
}

// CashflowRequest carries the financing assumptions. Optional costs left
// out are reported as defaulted rather than read as zero.
type CashflowRequest struct {
	PurchasePrice      *float64 `json:"purchasePrice" binding:"omitempty,gte=0"`
	DownPaymentPercent *float64 `json:"downPaymentPercent" binding:"required,gte=0,lte=100"`
	InterestRate       *float64 `json:"interestRate" binding:"required,gte=0,lte=30"`
	LoanTermYears      *int     `json:"loanTermYears" binding:"required,gte=1,lte=50"`
	HOA                *float64 `json:"hoa" binding:"omitempty,gte=0"`
	Taxes              *float64 `json:"taxes" binding:"omitempty,gte=0"`
	Insurance          *float64 `json:"insurance" binding:"omitempty,gte=0"`
	MaintenancePercent *float64 `json:"maintenancePercent" binding:"omitempty,gte=0,lte=100"`
	RentEstimate       *float64 `json:"rentEstimate" binding:"omitempty,gte=0"`
	ClosingCostPercent *float64 `json:"closingCostPercent" binding:"omitempty,gte=0,lte=100"`
	UsePointEstimate   bool     `json:"usePointEstimate"`
}

type CMARequest struct {
	Filters        CMAFilters       `json:"filters"`
	CashflowInputs *CashflowRequest `json:"cashflowInputs"`
}

func (r *CMARequest) validate() error {
	f := r.Filters
	if f.SubjectPropertyID == "" && strings.TrimSpace(f.SubjectSubdivision) == "" &&
		f.Beds == nil && f.Baths == nil && f.Sqft == nil {
		return errMissingCriteria
	}
	if cf := r.CashflowInputs; cf != nil && cf.PurchasePrice == nil && !cf.UsePointEstimate {
		return errMissingPrice
	}
	return nil
}

func (r *CashflowRequest) inputs() cma.CashflowInputs {
	in := cma.CashflowInputs{
		DownPaymentPercent: *r.DownPaymentPercent,
		InterestRate:       *r.InterestRate,
		LoanTermYears:      *r.LoanTermYears,
		HOA:                r.HOA,
		Taxes:              r.Taxes,
		Insurance:          r.Insurance,
		MaintenancePercent: r.MaintenancePercent,
		RentEstimate:       r.RentEstimate,
		ClosingCostPercent: r.ClosingCostPercent,
	}
	if r.PurchasePrice != nil {
		in.PurchasePrice = *r.PurchasePrice
	}
	return in
}

// CreateCMA generates a comparative market analysis report.
func (h *Handler) CreateCMA(c *gin.Context) {
	report, ok := h.generate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Report: report})
}

// CreateCMAGeoJSON returns the subject and best comps as a FeatureCollection.
func (h *Handler) CreateCMAGeoJSON(c *gin.Context) {
	report, ok := h.generate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.FeatureCollection())
}

// generate binds the request, fetches candidates and runs the engine,
// writing the error response itself when it fails.
func (h *Handler) generate(c *gin.Context) (*cma.Report, bool) {
	var req CMARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, validationMessage(err))
		return nil, false
	}

	report, err := h.buildReport(c.Request.Context(), &req)
	if err != nil {
		status, message := reportError(err)
		entry := h.logger.WithError(err).WithFields(logrus.Fields{
			"subject_property_id": req.Filters.SubjectPropertyID,
			"subdivision":         req.Filters.SubjectSubdivision,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Failed to generate CMA report")
		} else {
			entry.Info("CMA request rejected")
		}
		fail(c, status, message)
		return nil, false
	}

	h.logger.WithFields(logrus.Fields{
		"report_id":  report.ID,
		"comps":      len(report.Comps),
		"candidates": report.Selection.CandidateCount,
		"confidence": report.Summary.Confidence,
	}).Info("Generated CMA report")
	return report, true
}

func (h *Handler) buildReport(ctx context.Context, req *CMARequest) (*cma.Report, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	subject, err := h.resolveSubject(ctx, req.Filters)
	if err != nil {
		return nil, err
	}

	listings, err := h.store.FindComps(ctx, h.compQuery(req.Filters, subject))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	if len(listings) == 0 {
		return nil, cma.ErrNoCandidates
	}

	candidates := make([]cma.Comp, len(listings))
	for i := range listings {
		candidates[i] = listings[i].ToComp()
	}

	engineReq := cma.Request{Subject: subject, Candidates: candidates}
	if cf := req.CashflowInputs; cf != nil {
		in := cf.inputs()
		engineReq.Cashflow = &in
		engineReq.UsePointEstimate = cf.UsePointEstimate && cf.PurchasePrice == nil
	}
	return h.engine.Generate(engineReq)
}

// resolveSubject loads the subject listing when one is named and applies
// the explicit filter values over it.
func (h *Handler) resolveSubject(ctx context.Context, f CMAFilters) (cma.Subject, error) {
	var subject cma.Subject
	if f.SubjectPropertyID != "" {
		listing, err := h.store.GetListing(ctx, f.SubjectPropertyID)
		if errors.Is(err, database.ErrListingNotFound) {
			return subject, fmt.Errorf("%w: %s", errSubjectNotFound, f.SubjectPropertyID)
		}
		if err != nil {
			return subject, err
		}
		subject = listing.ToSubject()
	}

	if s := strings.TrimSpace(f.SubjectSubdivision); s != "" {
		subject.Subdivision = s
	}
	if f.Beds != nil {
		subject.Beds = f.Beds
	}
	if f.Baths != nil {
		subject.Baths = f.Baths
	}
	if f.Sqft != nil {
		subject.Sqft = f.Sqft
	}
	if f.MaxComps != nil {
		subject.MaxComps = *f.MaxComps
	}
	subject.RadiusMiles = f.RadiusMiles

	// A located subject without an explicit radius or area searches its
	// market's default radius.
	if h.markets != nil && subject.Location != nil && subject.RadiusMiles == nil && f.SubjectSubdivision == "" {
		if market, ok := h.markets.ForSubdivision(subject.Subdivision); ok && market.RadiusMiles > 0 {
			radius := market.RadiusMiles
			subject.RadiusMiles = &radius
		}
	}
	return subject, nil
}

func (h *Handler) compQuery(f CMAFilters, subject cma.Subject) models.CompQuery {
	q := models.CompQuery{
		Subdivision: strings.TrimSpace(f.SubjectSubdivision),
		Beds:        subject.Beds,
		Baths:       subject.Baths,
		Sqft:        subject.Sqft,
		BedRange:    h.config.CMA.BedRange,
		BathRange:   h.config.CMA.BathRange,
		SqftRange:   h.config.CMA.SqftRange,
		ExcludeKey:  subject.PropertyID,
		Since:       h.config.LookbackSince(h.now()),
		Limit:       h.config.CMA.CandidateLimit,
	}
	if subject.RadiusMiles == nil {
		return q
	}

	// An unlocated subject searches around its market's centre instead.
	center := subject.Location
	if center == nil && h.markets != nil {
		if market, ok := h.markets.ForSubdivision(subject.Subdivision); ok {
			if p, ok := market.CenterPoint(); ok {
				center = &p
			}
		}
	}
	if center != nil {
		q.Center = center
		q.RadiusMiles = subject.RadiusMiles
	}
	return q
}

// GetCMADocs describes the CMA request and response shapes.
func (h *Handler) GetCMADocs(c *gin.Context) {
	ec := h.engine.Config()
	c.JSON(http.StatusOK, gin.H{
		"endpoint": "POST /api/cma",
		"request": gin.H{
			"filters": gin.H{
				"subjectPropertyId":  "string, optional: listing key of the subject",
				"subjectSubdivision": "string, optional: restrict comps and appreciation to one subdivision",
				"beds":               "number, optional",
				"baths":              "number, optional",
				"sqft":               "number, optional: living area of the subject",
				"radiusMiles":        "number, optional: search radius around the subject, or its market centre when the subject has no location",
				"maxComps":           fmt.Sprintf("integer, optional: default %d", ec.DefaultMaxComps),
			},
			"cashflowInputs": gin.H{
				"purchasePrice":      "number, required unless usePointEstimate",
				"downPaymentPercent": "number, required",
				"interestRate":       "number, required: annual percent",
				"loanTermYears":      "integer, required",
				"hoa":                "number, optional: monthly",
				"taxes":              "number, optional: annual",
				"insurance":          "number, optional: annual",
				"maintenancePercent": "number, optional: annual percent of price",
				"rentEstimate":       "number, optional: monthly",
				"closingCostPercent": fmt.Sprintf("number, optional: default %g", ec.ClosingCostPercent),
				"usePointEstimate":   "boolean, optional: price the analysis at the valuation estimate",
			},
		},
		"response": gin.H{
			"success": "boolean",
			"report":  "summary, comps, selection, appreciation, forecast, cashflow, risk, generatedAt",
			"error":   "string, present when success is false",
		},
		"statuses": gin.H{
			"200": "report generated",
			"400": "invalid filters or incomplete cashflow inputs",
			"404": "subject not found or no comparable listings",
			"500": "internal error",
		},
		"related": []string{"POST /api/cma/geojson"},
		"defaults": gin.H{
			"fenceMultiplier": ec.FenceMultiplier,
			"trendThreshold":  ec.TrendThreshold,
			"forecastYears":   ec.ForecastYears,
			"sqftRange":       h.config.CMA.SqftRange,
			"lookbackMonths":  h.config.CMA.LookbackMonths,
		},
	})
}
