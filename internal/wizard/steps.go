package wizard

import (
	"fmt"
	"strings"
)

// Step is a screen of the calculator form. Steps are visited in order.
type Step int

// Form steps in the order they are presented. StepComplete is terminal.
const (
	StepSalary Step = iota + 1
	StepLoanPayment
	StepDebtBalance
	StepRetirementContribution
	StepAge
	StepMatchRule
	StepQSLPAvailability
	StepComplete
)

// TotalSteps is the number of input steps.
const TotalSteps = int(StepQSLPAvailability)

var stepNames = map[Step]string{
	StepSalary:                 "salary",
	StepLoanPayment:            "loan-payment",
	StepDebtBalance:            "debt-balance",
	StepRetirementContribution: "retirement-contribution",
	StepAge:                    "age",
	StepMatchRule:              "match-rule",
	StepQSLPAvailability:       "qslp-availability",
	StepComplete:               "complete",
}

var stepQuestions = map[Step]string{
	StepSalary:                 "What's your annual salary?",
	StepLoanPayment:            "Monthly student loan payment?",
	StepDebtBalance:            "What's your total student debt balance?",
	StepRetirementContribution: "Current 401(k) contribution?",
	StepAge:                    "What's your age?",
	StepMatchRule:              "Employer match rule?",
	StepQSLPAvailability:       "QSLP matching available?",
}

// Steps returns the input steps in order.
func Steps() []Step {
	return []Step{
		StepSalary,
		StepLoanPayment,
		StepDebtBalance,
		StepRetirementContribution,
		StepAge,
		StepMatchRule,
		StepQSLPAvailability,
	}
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	_, ok := stepNames[s]
	return ok
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Question returns the prompt shown for the step.
func (s Step) Question() string {
	return stepQuestions[s]
}

// MarshalText encodes the step by name.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step name.
func (s *Step) UnmarshalText(text []byte) error {
	name := strings.TrimSpace(string(text))
	for step, stepName := range stepNames {
		if stepName == name {
			*s = step
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", name)
}
