// Package testutil provides common fixtures and helpers for testing.
package testutil

import (
	"testing"

	"github.com/iwvelando/qslp-calculator/pkg/match"
	"github.com/iwvelando/qslp-calculator/pkg/mathutil"
)

// Scenario is a participant with hand-checked match figures.
type Scenario struct {
	Name              string
	Input             match.Input
	AnnualMatch       float64
	MonthlyMatch      float64
	Tier1Match        float64
	Tier2Match        float64
	UsagePercent      int
	LoanPaymentsUsed  float64
	RemainingCapacity float64
	CapApplied        bool
}

// Scenarios returns the reference participants, computed under the default
// assumptions.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name:              "entry level tiered",
			Input:             match.Input{AnnualSalary: 75000, MonthlyLoanPayment: 500, Age: 25, Rule: match.RuleTieredThree},
			AnnualMatch:       3000,
			MonthlyMatch:      250,
			Tier1Match:        2250,
			Tier2Match:        750,
			UsagePercent:      13,
			LoanPaymentsUsed:  3750,
			RemainingCapacity: 20500,
		},
		{
			Name:              "catch-up full match",
			Input:             match.Input{AnnualSalary: 60000, MonthlyLoanPayment: 1000, Age: 55, Rule: match.RuleFullToFive},
			AnnualMatch:       3000,
			MonthlyMatch:      250,
			Tier1Match:        3000,
			UsagePercent:      10,
			LoanPaymentsUsed:  3000,
			RemainingCapacity: 28000,
		},
		{
			Name: "limit binding",
			Input: match.Input{
				AnnualSalary:                   1000000,
				MonthlyLoanPayment:             5000,
				Current401kMonthlyContribution: 1000,
				Age:                            40,
				Rule:                           match.RuleTieredThree,
			},
			AnnualMatch:       11500,
			MonthlyMatch:      958,
			Tier1Match:        11500,
			UsagePercent:      49,
			LoanPaymentsUsed:  50000,
			RemainingCapacity: 0,
			CapApplied:        true,
		},
		{
			Name:              "half to six small payment",
			Input:             match.Input{AnnualSalary: 50000, MonthlyLoanPayment: 100, Age: 30, Rule: match.RuleHalfToSix},
			AnnualMatch:       600,
			MonthlyMatch:      50,
			Tier1Match:        600,
			UsagePercent:      3,
			LoanPaymentsUsed:  1200,
			RemainingCapacity: 22900,
		},
		{
			Name:              "no loan payment",
			Input:             match.Input{AnnualSalary: 80000, Current401kMonthlyContribution: 500, Age: 35, Rule: match.RuleTieredThree},
			RemainingCapacity: 17500,
		},
		{
			Name: "contributions exceed limit",
			Input: match.Input{
				AnnualSalary:                   100000,
				MonthlyLoanPayment:             800,
				Current401kMonthlyContribution: 2500,
				Age:                            45,
				Rule:                           match.RuleTieredThree,
			},
			LoanPaymentsUsed: 5000,
			CapApplied:       true,
		},
	}
}

// FindScenario finds a scenario by name in the slice.
// Returns a pointer to the scenario if found, nil otherwise.
func FindScenario(scenarios []Scenario, name string) *Scenario {
	for i := range scenarios {
		if scenarios[i].Name == name {
			return &scenarios[i]
		}
	}
	return nil
}

// CheckResult reports every figure of got that differs from the scenario.
func CheckResult(t testing.TB, s Scenario, got match.Result) {
	t.Helper()
	money := []struct {
		field     string
		got, want float64
	}{
		{"AnnualMatch", got.AnnualMatch, s.AnnualMatch},
		{"MonthlyMatch", got.MonthlyMatch, s.MonthlyMatch},
		{"Tier1Match", got.Tier1Match, s.Tier1Match},
		{"Tier2Match", got.Tier2Match, s.Tier2Match},
		{"TotalLoanPaymentsUsed", got.TotalLoanPaymentsUsed, s.LoanPaymentsUsed},
		{"RemainingCapacity", got.RemainingCapacity, s.RemainingCapacity},
	}
	for _, m := range money {
		if !mathutil.WithinTolerance(m.got, m.want, 0.5) {
			t.Errorf("%s: %s = %v, want %v", s.Name, m.field, m.got, m.want)
		}
	}
	if got.ContributionUsagePercent != s.UsagePercent {
		t.Errorf("%s: ContributionUsagePercent = %d, want %d", s.Name, got.ContributionUsagePercent, s.UsagePercent)
	}
	if got.CapApplied != s.CapApplied {
		t.Errorf("%s: CapApplied = %v, want %v", s.Name, got.CapApplied, s.CapApplied)
	}
}
