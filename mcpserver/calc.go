package mcpserver

import (
	"fmt"
	"math"
)

// LoanPayment is the result of an equal principal and interest schedule.
// Amounts are in 10,000 KRW to match the transaction record units.
type LoanPayment struct {
	MonthlyPayment10k float64 `json:"monthly_payment_10k"`
	TotalPayment10k   float64 `json:"total_payment_10k"`
	TotalInterest10k  float64 `json:"total_interest_10k"`
	Principal10k      int     `json:"principal_10k"`
	AnnualRatePct     float64 `json:"annual_rate_pct"`
	Years             int     `json:"years"`
}

// CalculateLoanPayment computes the fixed monthly payment for a loan
func CalculateLoanPayment(principal10k int, annualRatePct float64, years int) (*LoanPayment, error) {
	if principal10k < 1 {
		return nil, fmt.Errorf("principal_10k must be >= 1")
	}
	if annualRatePct < 0 {
		return nil, fmt.Errorf("annual_rate_pct must be >= 0")
	}
	if years < 1 {
		return nil, fmt.Errorf("years must be >= 1")
	}

	r := annualRatePct / 100 / 12
	n := float64(years * 12)

	var monthly float64
	if r == 0 {
		monthly = float64(principal10k) / n
	} else {
		growth := math.Pow(1+r, n)
		monthly = float64(principal10k) * r * growth / (growth - 1)
	}

	total := monthly * n
	return &LoanPayment{
		MonthlyPayment10k: round2(monthly),
		TotalPayment10k:   round2(total),
		TotalInterest10k:  round2(total - float64(principal10k)),
		Principal10k:      principal10k,
		AnnualRatePct:     annualRatePct,
		Years:             years,
	}, nil
}

// CompoundGrowth is the result of a compounding projection
type CompoundGrowth struct {
	FinalValue10k          float64 `json:"final_value_10k"`
	TotalContributed10k    float64 `json:"total_contributed_10k"`
	TotalGain10k           float64 `json:"total_gain_10k"`
	Initial10k             int     `json:"initial_10k"`
	MonthlyContribution10k float64 `json:"monthly_contribution_10k"`
	AnnualRatePct          float64 `json:"annual_rate_pct"`
	Years                  int     `json:"years"`
}

// CalculateCompoundGrowth projects asset growth with monthly compounding
// over initial capital plus recurring contributions.
func CalculateCompoundGrowth(initial10k int, monthlyContribution10k, annualRatePct float64, years int) (*CompoundGrowth, error) {
	if initial10k < 0 {
		return nil, fmt.Errorf("initial_10k must be >= 0")
	}
	if monthlyContribution10k < 0 {
		return nil, fmt.Errorf("monthly_contribution_10k must be >= 0")
	}
	if annualRatePct < 0 {
		return nil, fmt.Errorf("annual_rate_pct must be >= 0")
	}
	if years < 1 {
		return nil, fmt.Errorf("years must be >= 1")
	}

	r := annualRatePct / 100 / 12
	n := float64(years * 12)

	var final float64
	if r == 0 {
		final = float64(initial10k) + monthlyContribution10k*n
	} else {
		growth := math.Pow(1+r, n)
		final = float64(initial10k)*growth + monthlyContribution10k*(growth-1)/r
	}

	contributed := float64(initial10k) + monthlyContribution10k*n
	return &CompoundGrowth{
		FinalValue10k:          round2(final),
		TotalContributed10k:    round2(contributed),
		TotalGain10k:           round2(final - contributed),
		Initial10k:             initial10k,
		MonthlyContribution10k: monthlyContribution10k,
		AnnualRatePct:          annualRatePct,
		Years:                  years,
	}, nil
}

// MonthlyCashflow is the result of a household cashflow check
type MonthlyCashflow struct {
	MonthlyCashflow10k    float64 `json:"monthly_cashflow_10k"`
	MonthlyIncome10k      float64 `json:"monthly_income_10k"`
	MonthlyLoanPayment10k float64 `json:"monthly_loan_payment_10k"`
	MonthlyLivingCost10k  float64 `json:"monthly_living_cost_10k"`
	OtherMonthlyCosts10k  float64 `json:"other_monthly_costs_10k"`
	LivingCostAutoApplied bool    `json:"living_cost_auto_applied"`
}

// CalculateMonthlyCashflow computes free cashflow after debt service and
// living costs. A zero living cost estimates it at 40% of income.
func CalculateMonthlyCashflow(income10k, loanPayment10k, livingCost10k, otherCosts10k float64) (*MonthlyCashflow, error) {
	if income10k <= 0 {
		return nil, fmt.Errorf("monthly_income_10k must be > 0")
	}
	if loanPayment10k < 0 {
		return nil, fmt.Errorf("monthly_loan_payment_10k must be >= 0")
	}

	autoApplied := livingCost10k == 0
	livingCost := livingCost10k
	if autoApplied {
		livingCost = income10k * 0.4
	}

	return &MonthlyCashflow{
		MonthlyCashflow10k:    round2(income10k - loanPayment10k - livingCost - otherCosts10k),
		MonthlyIncome10k:      income10k,
		MonthlyLoanPayment10k: loanPayment10k,
		MonthlyLivingCost10k:  round2(livingCost),
		OtherMonthlyCosts10k:  otherCosts10k,
		LivingCostAutoApplied: autoApplied,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
