package cma

import (
	"fmt"
	"math"
)

// Cost component names reported in CashflowResult.DefaultedComponents.
const (
	ComponentHOA         = "hoa"
	ComponentTaxes       = "taxes"
	ComponentInsurance   = "insurance"
	ComponentMaintenance = "maintenance"
)

// CashflowInputs are the financing and operating assumptions for an
// investment analysis. HOA and rent are monthly; taxes and insurance annual;
// percentages are whole numbers (20 means 20%).
type CashflowInputs struct {
	PurchasePrice      float64  `json:"purchasePrice"`
	DownPaymentPercent float64  `json:"downPaymentPercent"`
	InterestRate       float64  `json:"interestRate"`
	LoanTermYears      int      `json:"loanTermYears"`
	HOA                *float64 `json:"hoa,omitempty"`
	Taxes              *float64 `json:"taxes,omitempty"`
	Insurance          *float64 `json:"insurance,omitempty"`
	MaintenancePercent *float64 `json:"maintenancePercent,omitempty"`
	RentEstimate       *float64 `json:"rentEstimate,omitempty"`
	ClosingCostPercent *float64 `json:"closingCostPercent,omitempty"`
}

// Validate rejects inputs no formula can use.
func (in CashflowInputs) Validate() error {
	switch {
	case in.PurchasePrice < 0:
		return fmt.Errorf("%w: purchasePrice must not be negative", ErrInvalidCashflowInputs)
	case in.DownPaymentPercent < 0 || in.DownPaymentPercent > 100:
		return fmt.Errorf("%w: downPaymentPercent must be between 0 and 100", ErrInvalidCashflowInputs)
	case in.InterestRate < 0:
		return fmt.Errorf("%w: interestRate must not be negative", ErrInvalidCashflowInputs)
	case in.LoanTermYears <= 0:
		return fmt.Errorf("%w: loanTermYears must be positive", ErrInvalidCashflowInputs)
	}
	optional := []struct {
		name  string
		value *float64
	}{
		{"hoa", in.HOA},
		{"taxes", in.Taxes},
		{"insurance", in.Insurance},
		{"maintenancePercent", in.MaintenancePercent},
		{"rentEstimate", in.RentEstimate},
		{"closingCostPercent", in.ClosingCostPercent},
	}
	for _, o := range optional {
		if o.value != nil && *o.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidCashflowInputs, o.name)
		}
	}
	return nil
}

// CashflowResult holds monthly costs and investment ratios. Pointer fields
// are nil when their inputs were not supplied or the ratio is undefined.
type CashflowResult struct {
	PurchasePrice     float64 `json:"purchasePrice"`
	DownPayment       float64 `json:"downPayment"`
	LoanAmount        float64 `json:"loanAmount"`
	ClosingCosts      float64 `json:"closingCosts"`
	TotalCashInvested float64 `json:"totalCashInvested"`

	MonthlyMortgage    float64  `json:"monthlyMortgage"`
	MonthlyHOA         *float64 `json:"monthlyHoa"`
	MonthlyTaxes       *float64 `json:"monthlyTaxes"`
	MonthlyInsurance   *float64 `json:"monthlyInsurance"`
	MonthlyMaintenance *float64 `json:"monthlyMaintenance"`
	// MonthlyOperatingCosts counts defaulted components as zero.
	MonthlyOperatingCosts float64 `json:"monthlyOperatingCosts"`

	MonthlyRent     *float64 `json:"monthlyRent"`
	MonthlyNOI      *float64 `json:"monthlyNoi"`
	AnnualNOI       *float64 `json:"annualNoi"`
	MonthlyCashFlow *float64 `json:"monthlyCashFlow"`
	AnnualCashFlow  *float64 `json:"annualCashFlow"`

	CapRate              *float64 `json:"capRate"`
	CashOnCashReturn     *float64 `json:"cashOnCashReturn"`
	DSCR                 *float64 `json:"dscr"`
	GrossRentMultiplier  *float64 `json:"grossRentMultiplier"`
	PassesOnePercentRule *bool    `json:"passesOnePercentRule"`

	DefaultedComponents []string `json:"defaultedComponents"`
}

// CalculateCashflow computes the mortgage payment, operating costs, NOI and
// the standard ratios. Without a rent estimate only the cost side is filled.
func CalculateCashflow(cfg Config, in CashflowInputs) (*CashflowResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	price := in.PurchasePrice
	downPayment := price * in.DownPaymentPercent / 100
	principal := price - downPayment
	mortgage := MortgagePayment(principal, in.InterestRate, in.LoanTermYears)

	closingPct := cfg.ClosingCostPercent
	if in.ClosingCostPercent != nil {
		closingPct = *in.ClosingCostPercent
	}
	closingCosts := price * closingPct / 100
	cashInvested := downPayment + closingCosts

	res := &CashflowResult{
		PurchasePrice:       roundCents(price),
		DownPayment:         roundCents(downPayment),
		LoanAmount:          roundCents(principal),
		ClosingCosts:        roundCents(closingCosts),
		TotalCashInvested:   roundCents(cashInvested),
		MonthlyMortgage:     roundCents(mortgage),
		DefaultedComponents: []string{},
	}

	var opex float64
	component := func(name string, supplied bool, monthly float64) *float64 {
		if !supplied {
			res.DefaultedComponents = append(res.DefaultedComponents, name)
			return nil
		}
		opex += monthly
		return ptr(roundCents(monthly))
	}
	res.MonthlyHOA = component(ComponentHOA, in.HOA != nil, deref(in.HOA))
	res.MonthlyTaxes = component(ComponentTaxes, in.Taxes != nil, deref(in.Taxes)/12)
	res.MonthlyInsurance = component(ComponentInsurance, in.Insurance != nil, deref(in.Insurance)/12)
	res.MonthlyMaintenance = component(ComponentMaintenance, in.MaintenancePercent != nil, price*deref(in.MaintenancePercent)/100/12)
	res.MonthlyOperatingCosts = roundCents(opex)

	if in.RentEstimate == nil {
		return res, nil
	}

	rent := *in.RentEstimate
	annualNOI := rent*12 - opex*12
	annualDebt := mortgage * 12
	annualCashFlow := annualNOI - annualDebt

	res.MonthlyRent = ptr(roundCents(rent))
	res.AnnualNOI = ptr(roundCents(annualNOI))
	res.MonthlyNOI = ptr(roundCents(annualNOI / 12))
	res.AnnualCashFlow = ptr(roundCents(annualCashFlow))
	res.MonthlyCashFlow = ptr(roundCents(annualCashFlow / 12))

	if price > 0 {
		res.CapRate = ptr(round(annualNOI/price*100, 2))
		res.PassesOnePercentRule = ptr(rent >= price*0.01)
		if rent > 0 {
			res.GrossRentMultiplier = ptr(round(price/(rent*12), 2))
		}
	}
	if annualDebt > 0 {
		res.DSCR = ptr(round(annualNOI/annualDebt, 2))
	}
	if cashInvested > 0 {
		res.CashOnCashReturn = ptr(round(annualCashFlow/cashInvested*100, 2))
	}
	return res, nil
}

// MortgagePayment is the fixed-rate amortized monthly payment for principal
// at annualRate percent over years. A zero rate repays principal evenly.
func MortgagePayment(principal, annualRate float64, years int) float64 {
	if principal <= 0 || years <= 0 {
		return 0
	}
	n := float64(years * 12)
	if annualRate == 0 {
		return principal / n
	}
	r := annualRate / 100 / 12
	growth := math.Pow(1+r, n)
	return principal * r * growth / (growth - 1)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
