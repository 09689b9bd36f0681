package cma

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Request is everything one report is computed from.
type Request struct {
	Subject    Subject
	Candidates []Comp
	Cashflow   *CashflowInputs
	// UsePointEstimate prices the cashflow analysis at the valuation's point
	// estimate when Cashflow.PurchasePrice is zero.
	UsePointEstimate bool
}

// Engine assembles CMA reports. It keeps no state between calls besides its
// configuration, so one Engine can serve concurrent requests.
type Engine struct {
	cfg   Config
	now   func() time.Time
	newID func() uuid.UUID
}

// NewEngine returns an engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.New,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Generate selects comps, values the subject, analyzes appreciation and
// cashflow, and returns the assembled report. It fails only with
// ErrNoCandidates or invalid cashflow inputs.
func (e *Engine) Generate(req Request) (*Report, error) {
	if req.Cashflow != nil {
		if err := req.Cashflow.Validate(); err != nil {
			return nil, err
		}
	}

	sel, err := SelectBestComps(e.cfg, req.Candidates, req.Subject)
	if err != nil {
		return nil, err
	}

	history := make([]Comp, len(sel.Comps))
	for i, sc := range sel.Comps {
		history[i] = sc.Comp
	}

	deferCashflow := req.Cashflow != nil && req.UsePointEstimate && req.Cashflow.PurchasePrice == 0

	var (
		summary      Summary
		appreciation Appreciation
		cashflow     *CashflowResult
		g            errgroup.Group
	)
	g.Go(func() error {
		summary = Summarize(e.cfg, sel.Comps, req.Subject.Sqft)
		return nil
	})
	g.Go(func() error {
		appreciation = CalculateAppreciation(e.cfg, history, req.Subject.Subdivision)
		return nil
	})
	if req.Cashflow != nil && !deferCashflow {
		g.Go(func() error {
			var err error
			cashflow, err = CalculateCashflow(e.cfg, *req.Cashflow)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if deferCashflow {
		in := *req.Cashflow
		in.PurchasePrice = summary.PointEstimate
		if cashflow, err = CalculateCashflow(e.cfg, in); err != nil {
			return nil, err
		}
	}

	var forecast *ForecastResult
	if summary.SampleSize > 0 {
		forecast = Forecast(appreciation, summary.PointEstimate, e.cfg.ForecastYears)
	}

	riskIn := RiskInputs{
		Volatility:      appreciation.Volatility,
		SubjectPrice:    req.Subject.ListPrice,
		PointEstimate:   summary.PointEstimate,
		ComparableCount: summary.SampleSize,
	}
	if forecast != nil {
		riskIn.Momentum = ptr(forecast.Momentum)
	}
	if cashflow != nil {
		riskIn.CashOnCashReturn = cashflow.CashOnCashReturn
	}

	return &Report{
		ID:           e.newID(),
		Subject:      req.Subject,
		Summary:      summary,
		Comps:        sel.Comps,
		Selection:    sel,
		Appreciation: appreciation,
		Forecast:     forecast,
		Cashflow:     cashflow,
		Risk:         AssessRisk(riskIn),
		GeneratedAt:  e.now().UTC(),
	}, nil
}
