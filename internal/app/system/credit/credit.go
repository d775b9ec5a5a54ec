// Package credit computes fixed-rate mortgage amortisation with decimal
// arithmetic.
package credit

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MaxMonths bounds the term to 40 years.
const MaxMonths = 480

var (
	ErrInvalidPrincipal = errors.New("principal must be greater than zero")
	ErrInvalidRate      = errors.New("annual rate must be between 0 and 100 percent")
	ErrInvalidTerm      = errors.New("term must be between 1 and 480 months")
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Quote is the result of a simulation. Money values are rounded to cents.
type Quote struct {
	Principal      decimal.Decimal `json:"principal"`
	AnnualRate     decimal.Decimal `json:"annual_rate"`
	Months         int             `json:"months"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
}

// Simulate computes the level monthly payment for principal borrowed at
// annualRate percent over months:
//
//	payment = P·r·f / (f − 1), f = (1 + r)^n, r = annualRate / 1200
//
// A zero rate divides the principal evenly.
func Simulate(principal, annualRate decimal.Decimal, months int) (Quote, error) {
	if !principal.IsPositive() {
		return Quote{}, ErrInvalidPrincipal
	}
	if annualRate.IsNegative() || annualRate.GreaterThan(hundred) {
		return Quote{}, ErrInvalidRate
	}
	if months < 1 || months > MaxMonths {
		return Quote{}, ErrInvalidTerm
	}

	n := decimal.NewFromInt(int64(months))
	var payment decimal.Decimal
	if annualRate.IsZero() {
		payment = principal.DivRound(n, 2)
	} else {
		r := annualRate.Div(hundred).Div(twelve)
		f := decimal.NewFromInt(1)
		step := r.Add(decimal.NewFromInt(1))
		for i := 0; i < months; i++ {
			f = f.Mul(step)
		}
		payment = principal.Mul(r).Mul(f).Div(f.Sub(decimal.NewFromInt(1))).Round(2)
	}

	total := payment.Mul(n).Round(2)
	return Quote{
		Principal:      principal.Round(2),
		AnnualRate:     annualRate,
		Months:         months,
		MonthlyPayment: payment,
		TotalPaid:      total,
		TotalInterest:  total.Sub(principal).Round(2),
	}, nil
}
