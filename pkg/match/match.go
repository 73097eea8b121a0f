// Package match computes the employer match a participant earns on qualified
// student loan payments (QSLP) under the SECURE 2.0 Act.
//
// The calculation is a pure function of its Input. Tier 1 matches loan
// payments up to a percentage of salary at one rate, tier 2 matches the next
// band at another rate, and the total is clamped to the room left under the
// annual IRS contribution limit. Monetary outputs are rounded to whole units
// only at the end.
package match

import (
	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/iwvelando/qslp-calculator/pkg/finance"
	"github.com/iwvelando/qslp-calculator/pkg/mathutil"
)

// Input describes a participant. Amounts are in whole currency units.
type Input struct {
	AnnualSalary                   float64 `json:"annualSalary" yaml:"annualSalary"`
	MonthlyLoanPayment             float64 `json:"monthlyLoanPayment" yaml:"monthlyLoanPayment"`
	Current401kMonthlyContribution float64 `json:"current401kMonthlyContribution" yaml:"current401kMonthlyContribution"`
	Age                            int     `json:"age" yaml:"age"`
	Rule                           Rule    `json:"employerMatchRule" yaml:"employerMatchRule"`
}

// Result holds the computed match figures.
type Result struct {
	MonthlyMatch             float64 `json:"monthlyMatch" yaml:"monthlyMatch"`
	AnnualMatch              float64 `json:"annualMatch" yaml:"annualMatch"`
	Tier1Match               float64 `json:"tier1Match" yaml:"tier1Match"`
	Tier2Match               float64 `json:"tier2Match" yaml:"tier2Match"`
	ContributionLimit        float64 `json:"contributionLimit" yaml:"contributionLimit"`
	ContributionUsagePercent int     `json:"contributionUsagePercent" yaml:"contributionUsagePercent"`
	RemainingCapacity        float64 `json:"remainingCapacity" yaml:"remainingCapacity"`
	// TotalLoanPaymentsUsed is the share of annual payments the formula can
	// credit. It is not reduced when the contribution limit clamps the match.
	TotalLoanPaymentsUsed float64 `json:"totalLoanPaymentsUsed" yaml:"totalLoanPaymentsUsed"`
	ThirtyYearProjection  float64 `json:"thirtyYearProjection" yaml:"thirtyYearProjection"`
	// CapApplied reports whether the contribution limit reduced the formula's match.
	CapApplied bool `json:"capApplied" yaml:"capApplied"`
}

// Assumptions are the plan-year constants the calculation depends on.
type Assumptions struct {
	StandardLimit float64 `json:"standardLimit" yaml:"standardLimit" mapstructure:"standardLimit"`
	CatchUpLimit  float64 `json:"catchUpLimit" yaml:"catchUpLimit" mapstructure:"catchUpLimit"`
	CatchUpAge    int     `json:"catchUpAge" yaml:"catchUpAge" mapstructure:"catchUpAge"`
	RetirementAge int     `json:"retirementAge" yaml:"retirementAge" mapstructure:"retirementAge"`
	AnnualReturn  float64 `json:"annualReturn" yaml:"annualReturn" mapstructure:"annualReturn"`
	MinAge        int     `json:"minAge" yaml:"minAge" mapstructure:"minAge"`
	MaxAge        int     `json:"maxAge" yaml:"maxAge" mapstructure:"maxAge"`
}

// DefaultAssumptions returns the 2025 IRS limits with a 7% annual return and
// retirement at 65.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		StandardLimit: constants.StandardContributionLimit,
		CatchUpLimit:  constants.CatchUpContributionLimit,
		CatchUpAge:    constants.CatchUpAge,
		RetirementAge: constants.RetirementAge,
		AnnualReturn:  constants.DefaultAnnualReturn,
		MinAge:        constants.MinimumAge,
		MaxAge:        constants.MaximumAge,
	}
}

// withDefaults fills zero-valued fields from DefaultAssumptions.
func (a Assumptions) withDefaults() Assumptions {
	d := DefaultAssumptions()
	if a.StandardLimit <= 0 {
		a.StandardLimit = d.StandardLimit
	}
	if a.CatchUpLimit <= 0 {
		a.CatchUpLimit = d.CatchUpLimit
	}
	if a.CatchUpAge <= 0 {
		a.CatchUpAge = d.CatchUpAge
	}
	if a.RetirementAge <= 0 {
		a.RetirementAge = d.RetirementAge
	}
	if a.AnnualReturn <= 0 {
		a.AnnualReturn = d.AnnualReturn
	}
	if a.MinAge <= 0 {
		a.MinAge = d.MinAge
	}
	if a.MaxAge <= 0 || a.MaxAge < a.MinAge {
		a.MaxAge = d.MaxAge
	}
	return a
}

// Calculator computes match results under a fixed set of assumptions. It holds
// no mutable state and is safe for concurrent use.
type Calculator struct {
	assumptions Assumptions
}

// NewCalculator creates a calculator. Zero-valued assumption fields use the defaults.
func NewCalculator(assumptions Assumptions) *Calculator {
	return &Calculator{assumptions: assumptions.withDefaults()}
}

var defaultCalculator = NewCalculator(DefaultAssumptions())

// Compute runs the calculation with DefaultAssumptions.
func Compute(in Input) Result {
	return defaultCalculator.Compute(in)
}

// ContributionLimit returns the default annual limit for the given age.
func ContributionLimit(age int) float64 {
	return defaultCalculator.ContributionLimit(age)
}

// Assumptions returns the assumptions in effect.
func (c *Calculator) Assumptions() Assumptions {
	return c.assumptions
}

// ContributionLimit returns the annual limit for the given age.
func (c *Calculator) ContributionLimit(age int) float64 {
	if age >= c.assumptions.CatchUpAge {
		return c.assumptions.CatchUpLimit
	}
	return c.assumptions.StandardLimit
}

// Sanitize clamps an input into the calculator's domain: negative or NaN
// amounts become zero and the age is bounded to [MinAge, MaxAge].
func (c *Calculator) Sanitize(in Input) Input {
	in.AnnualSalary = mathutil.NonNegative(in.AnnualSalary)
	in.MonthlyLoanPayment = mathutil.NonNegative(in.MonthlyLoanPayment)
	in.Current401kMonthlyContribution = mathutil.NonNegative(in.Current401kMonthlyContribution)
	if in.Age < c.assumptions.MinAge {
		in.Age = c.assumptions.MinAge
	}
	if in.Age > c.assumptions.MaxAge {
		in.Age = c.assumptions.MaxAge
	}
	in.Rule = ParseRule(string(in.Rule))
	return in
}

// Compute returns the match result for in. It never fails.
func (c *Calculator) Compute(in Input) Result {
	in = c.Sanitize(in)

	limit := c.ContributionLimit(in.Age)
	annualContribution := in.Current401kMonthlyContribution * constants.MonthsPerYear
	remainingRoom := limit - annualContribution

	params := in.Rule.Params()
	tier1Limit := in.AnnualSalary * params.Tier1Threshold
	tier2Limit := in.AnnualSalary * params.Tier2Threshold
	annualLoanPayments := in.MonthlyLoanPayment * constants.MonthsPerYear

	var tier1Match, tier2Match float64
	if annualLoanPayments > 0 {
		tier1Match = mathutil.Min(annualLoanPayments, tier1Limit) * params.Tier1Rate

		if params.Tier2Rate > 0 && annualLoanPayments > tier1Limit {
			excess := annualLoanPayments - tier1Limit
			span := tier2Limit - tier1Limit
			if eligible := mathutil.Min(excess, span); eligible > 0 {
				tier2Match = eligible * params.Tier2Rate
			}
		}
	}

	rawMatch := tier1Match + tier2Match
	finalMatch := mathutil.Clamp(rawMatch, 0, remainingRoom)

	actualTier1 := mathutil.Min(tier1Match, finalMatch)
	actualTier2 := mathutil.Min(tier2Match, mathutil.Max(0, finalMatch-actualTier1))

	usedPayments := mathutil.Min(annualLoanPayments, tier2Limit)

	usage := 0
	if finalMatch > 0 {
		usage = int(mathutil.RoundWhole(mathutil.CalculatePercentage(finalMatch, limit)))
	}

	monthlyMatch := mathutil.RoundWhole(finalMatch / constants.MonthsPerYear)

	return Result{
		MonthlyMatch:             monthlyMatch,
		AnnualMatch:              mathutil.RoundWhole(finalMatch),
		Tier1Match:               mathutil.RoundWhole(actualTier1),
		Tier2Match:               mathutil.RoundWhole(actualTier2),
		ContributionLimit:        limit,
		ContributionUsagePercent: usage,
		RemainingCapacity:        mathutil.RoundWhole(mathutil.Max(0, limit-annualContribution-finalMatch)),
		TotalLoanPaymentsUsed:    mathutil.RoundWhole(usedPayments),
		ThirtyYearProjection:     mathutil.RoundWhole(c.project(monthlyMatch, in.Age)),
		CapApplied:               rawMatch > finalMatch,
	}
}

// MonthsToRetirement returns the projection horizon for the given age.
func (c *Calculator) MonthsToRetirement(age int) int {
	years := c.assumptions.RetirementAge - age
	if years < 0 {
		years = 0
	}
	return years * constants.MonthsPerYear
}

func (c *Calculator) project(monthlyMatch float64, age int) float64 {
	months := c.MonthsToRetirement(age)
	if monthlyMatch <= 0 || months <= 0 {
		return 0
	}
	return finance.FutureValueOfAnnuity(monthlyMatch, c.assumptions.AnnualReturn, months)
}

// Series returns the year-by-year growth of the result's monthly match.
func (c *Calculator) Series(result Result, years int) []finance.GrowthPoint {
	return finance.GrowthSeries(result.MonthlyMatch, c.assumptions.AnnualReturn, years)
}
