// Package output provides utilities for formatting and displaying match results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/iwvelando/qslp-calculator/pkg/finance"
	"github.com/iwvelando/qslp-calculator/pkg/format"
	"github.com/iwvelando/qslp-calculator/pkg/match"
	"gopkg.in/yaml.v3"
)

// Report bundles a calculation with its inputs and growth series.
type Report struct {
	Input  match.Input           `json:"input" yaml:"input"`
	Result match.Result          `json:"result" yaml:"result"`
	Series []finance.GrowthPoint `json:"series" yaml:"series"`
}

// Write renders the report in the named format.
func Write(w io.Writer, outputFormat string, report Report) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, report)
	}
	return fmt.Errorf("unsupported output format: %s", outputFormat)
}

// PrettyFormat outputs a human-readable breakdown of the match.
func PrettyFormat(w io.Writer, report Report) error {
	in := report.Input
	res := report.Result
	params := in.Rule.Params()

	lines := []string{
		"--- QSLP match results ---",
		fmt.Sprintf("Employer rule          | %s", in.Rule.Label()),
		fmt.Sprintf("Annual salary          | %s", format.Dollars(in.AnnualSalary)),
		fmt.Sprintf("Annual loan payments   | %s", format.Dollars(in.MonthlyLoanPayment*constants.MonthsPerYear)),
		fmt.Sprintf("Annual 401(k)          | %s", format.Dollars(in.Current401kMonthlyContribution*constants.MonthsPerYear)),
		fmt.Sprintf("Age                    | %d", in.Age),
		"",
		fmt.Sprintf("Tier 1 (%.0f%% up to %.0f%%)  | %s", params.Tier1Rate*100, params.Tier1Threshold*100, format.Dollars(res.Tier1Match)),
		fmt.Sprintf("Tier 2 (%.0f%% up to %.0f%%)  | %s", params.Tier2Rate*100, params.Tier2Threshold*100, format.Dollars(res.Tier2Match)),
		fmt.Sprintf("Annual match           | %s", format.Dollars(res.AnnualMatch)),
		fmt.Sprintf("Monthly match          | %s", format.Dollars(res.MonthlyMatch)),
		fmt.Sprintf("Loan payments used     | %s of %s", format.Dollars(res.TotalLoanPaymentsUsed), format.Dollars(in.MonthlyLoanPayment*constants.MonthsPerYear)),
		fmt.Sprintf("Contribution limit     | %s (%s used)", format.Dollars(res.ContributionLimit), format.Percent(res.ContributionUsagePercent)),
		fmt.Sprintf("Remaining capacity     | %s", format.Dollars(res.RemainingCapacity)),
		fmt.Sprintf("Projection to 65       | %s", format.Dollars(res.ThirtyYearProjection)),
	}
	if res.CapApplied {
		lines = append(lines, "Note: the contribution limit reduced the match")
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if len(report.Series) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\nYear | Value | Axis\n____ | _____ | ____\n"); err != nil {
		return err
	}
	for _, point := range report.Series {
		if _, err := fmt.Fprintf(w, "%4d | %s | %s\n", point.Year, format.Dollars(point.Value), format.Thousands(point.Value)); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat outputs the growth series in comma-separated value format.
func CsvFormat(w io.Writer, report Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"year", "value"}); err != nil {
		return err
	}
	for _, point := range report.Series {
		record := []string{
			strconv.Itoa(point.Year),
			strconv.FormatFloat(point.Value, 'f', 0, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString returns the CSV rendering of the growth series.
func CsvString(report Report) string {
	var builder strings.Builder
	_ = CsvFormat(&builder, report)
	return builder.String()
}

// JSONFormat outputs the report as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// YAMLFormat outputs the report as YAML.
func YAMLFormat(w io.Writer, report Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return err
	}
	return encoder.Close()
}
