// Package finance provides common financial calculation utilities.
package finance

import (
	"math"

	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/iwvelando/qslp-calculator/pkg/mathutil"
)

// GrowthPoint is the projected value of a contribution stream at the end of a year.
type GrowthPoint struct {
	Year  int     `json:"year" yaml:"year"`
	Value float64 `json:"value" yaml:"value"`
}

// MonthlyRate converts an annual rate expressed as a decimal (0.07) to the
// monthly rate used for compounding.
func MonthlyRate(annualRate float64) float64 {
	return annualRate / constants.MonthsPerYear
}

// FutureValueOfAnnuity returns the value of an ordinary annuity paying payment
// at the end of each month for the given number of months, compounded monthly.
func FutureValueOfAnnuity(payment, annualRate float64, months int) float64 {
	if payment <= 0 || months <= 0 {
		return 0
	}

	rate := MonthlyRate(annualRate)
	if rate == 0 {
		return payment * float64(months)
	}

	return payment * ((math.Pow(1+rate, float64(months)) - 1) / rate)
}

// GrowthSeries projects a monthly contribution for years 0 through years
// inclusive. Values are rounded to whole currency units; year 0 is always 0.
func GrowthSeries(monthlyPayment, annualRate float64, years int) []GrowthPoint {
	if years < 0 {
		years = 0
	}

	series := make([]GrowthPoint, 0, years+1)
	for year := 0; year <= years; year++ {
		value := FutureValueOfAnnuity(monthlyPayment, annualRate, year*constants.MonthsPerYear)
		series = append(series, GrowthPoint{
			Year:  year,
			Value: mathutil.RoundWhole(value),
		})
	}
	return series
}
