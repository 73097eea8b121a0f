package main

import (
	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/iwvelando/qslp-calculator/pkg/match"
	"github.com/iwvelando/qslp-calculator/pkg/output"
	"github.com/iwvelando/qslp-calculator/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type calculateOptions struct {
	salary       float64
	loanPayment  float64
	contribution float64
	age          int
	rule         string
	years        int
}

func newCalculateCommand(a *app) *cobra.Command {
	opts := &calculateOptions{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Compute the employer match for one participant",
		Example: `  qslp calculate --salary 75000 --loan-payment 500 --age 25
  qslp calculate --salary 60000 --loan-payment 1000 --age 55 --rule full-to-5 --output-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCalculate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&opts.salary, "salary", 0, "annual salary")
	flags.Float64Var(&opts.loanPayment, "loan-payment", 0, "monthly student loan payment")
	flags.Float64Var(&opts.contribution, "contribution", 0, "current monthly 401(k) contribution")
	flags.IntVar(&opts.age, "age", constants.DefaultAge, "participant age")
	flags.StringVar(&opts.rule, "rule", string(match.DefaultRule), "employer match rule (full-to-5, half-to-6, tiered-3-5, custom)")
	flags.IntVar(&opts.years, "years", constants.ProjectionYears, "years of growth to include in the report")
	flags.String("output-format", "", "type of output override: pretty, csv, json, yaml")
	_ = cmd.MarkFlagRequired("salary")

	return cmd
}

func (a *app) runCalculate(cmd *cobra.Command, opts *calculateOptions) error {
	outputFormat := a.conf.Output.Format
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	calculator := match.NewCalculator(a.conf.Assumptions)
	in := calculator.Sanitize(match.Input{
		AnnualSalary:                   opts.salary,
		MonthlyLoanPayment:             opts.loanPayment,
		Current401kMonthlyContribution: opts.contribution,
		Age:                            opts.age,
		Rule:                           match.Rule(opts.rule),
	})
	result := calculator.Compute(in)

	a.logger.Debug("computed match",
		zap.String("op", "main.calculate"),
		zap.String("rule", string(in.Rule)),
		zap.Float64("annualMatch", result.AnnualMatch),
		zap.Bool("capApplied", result.CapApplied),
	)

	years := opts.years
	if years < 0 {
		years = 0
	}
	report := output.Report{
		Input:  in,
		Result: result,
		Series: calculator.Series(result, years),
	}
	return output.Write(cmd.OutOrStdout(), outputFormat, report)
}
