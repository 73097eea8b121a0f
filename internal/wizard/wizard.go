// Package wizard models the calculator form as an explicit sequence of typed
// steps. A Wizard is a value: submitting a step returns the advanced wizard
// and never mutates the receiver.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/iwvelando/qslp-calculator/pkg/match"
)

var (
	// ErrComplete is returned when submitting to a finished wizard.
	ErrComplete = errors.New("wizard is already complete")

	// ErrIncomplete is returned when requesting the calculator input early.
	ErrIncomplete = errors.New("wizard is not complete")
)

// Answers accumulates the values collected across steps.
type Answers struct {
	Email                          string  `json:"email,omitempty"`
	AnnualSalary                   float64 `json:"annualSalary"`
	MonthlyLoanPayment             float64 `json:"monthlyLoanPayment"`
	TotalStudentDebtBalance        float64 `json:"totalStudentDebtBalance"`
	Current401kMonthlyContribution float64 `json:"current401kMonthlyContribution"`
	Age                            int     `json:"age"`
	EmployerMatchRule              string  `json:"employerMatchRule"`
	HasQSLPMatching                bool    `json:"hasQSLPMatching"`
}

// StepInput carries the value submitted for the current step. Only the field
// belonging to the current step is read.
type StepInput struct {
	AnnualSalary                   *float64 `json:"annualSalary,omitempty"`
	MonthlyLoanPayment             *float64 `json:"monthlyLoanPayment,omitempty"`
	TotalStudentDebtBalance        *float64 `json:"totalStudentDebtBalance,omitempty"`
	Current401kMonthlyContribution *float64 `json:"current401kMonthlyContribution,omitempty"`
	Age                            *int     `json:"age,omitempty"`
	EmployerMatchRule              *string  `json:"employerMatchRule,omitempty"`
	HasQSLPMatching                *bool    `json:"hasQSLPMatching,omitempty"`
}

// StepError describes why a step submission was rejected.
type StepError struct {
	Step    Step   `json:"step"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Wizard is the current step plus the answers collected so far.
type Wizard struct {
	Step    Step    `json:"step"`
	Answers Answers `json:"answers"`
}

var validate = validator.New()

// New returns a wizard positioned at the first step.
func New() Wizard {
	return Wizard{
		Step:    StepSalary,
		Answers: Answers{Age: constants.DefaultAge},
	}
}

// WithEmail records the optional contact address collected on the landing page.
func (w Wizard) WithEmail(email string) (Wizard, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "omitempty,email"); err != nil {
		return w, &StepError{Step: w.Step, Field: "email", Message: "Please enter a valid email address"}
	}
	w.Answers.Email = email
	return w, nil
}

// Complete reports whether every step has been submitted.
func (w Wizard) Complete() bool {
	return w.Step == StepComplete
}

// Progress returns the percentage of the form reached, counting the current step.
func (w Wizard) Progress() float64 {
	step := int(w.Step)
	if step > TotalSteps {
		step = TotalSteps
	}
	if step < 0 {
		step = 0
	}
	return float64(step) / float64(TotalSteps) * 100
}

// Back returns the wizard at the previous step. Answers are kept.
func (w Wizard) Back() Wizard {
	if w.Step > StepSalary {
		w.Step--
	}
	return w
}

// Submit validates the value for the current step, stores it and advances.
// On failure the returned wizard is unchanged and the error is a *StepError.
func (w Wizard) Submit(in StepInput) (Wizard, error) {
	next := w
	switch w.Step {
	case StepSalary:
		value := floatOr(in.AnnualSalary, 0)
		if err := check(value, "gt=0"); err != nil {
			return w, stepError(w.Step, "annualSalary", "Annual salary is required")
		}
		next.Answers.AnnualSalary = value
	case StepLoanPayment:
		value := floatOr(in.MonthlyLoanPayment, 0)
		if err := check(value, "gt=0"); err != nil {
			return w, stepError(w.Step, "monthlyLoanPayment", "Monthly loan payment is required")
		}
		next.Answers.MonthlyLoanPayment = value
	case StepDebtBalance:
		value := floatOr(in.TotalStudentDebtBalance, 0)
		if err := check(value, "gt=0"); err != nil {
			return w, stepError(w.Step, "totalStudentDebtBalance", "Total student debt balance is required")
		}
		next.Answers.TotalStudentDebtBalance = value
	case StepRetirementContribution:
		value := floatOr(in.Current401kMonthlyContribution, w.Answers.Current401kMonthlyContribution)
		if err := check(value, "gte=0"); err != nil {
			return w, stepError(w.Step, "current401kMonthlyContribution", "401(k) contribution cannot be negative")
		}
		next.Answers.Current401kMonthlyContribution = value
	case StepAge:
		value := w.Answers.Age
		if in.Age != nil {
			value = *in.Age
		}
		if err := check(value, fmt.Sprintf("gte=%d,lte=%d", constants.MinimumAge, constants.MaximumAge)); err != nil {
			return w, stepError(w.Step, "age", "Please select a valid age")
		}
		next.Answers.Age = value
	case StepMatchRule:
		value := ""
		if in.EmployerMatchRule != nil {
			value = strings.TrimSpace(*in.EmployerMatchRule)
		}
		if err := check(value, "required"); err != nil {
			return w, stepError(w.Step, "employerMatchRule", "Please select your employer match rule")
		}
		next.Answers.EmployerMatchRule = value
	case StepQSLPAvailability:
		if in.HasQSLPMatching != nil {
			next.Answers.HasQSLPMatching = *in.HasQSLPMatching
		}
	case StepComplete:
		return w, ErrComplete
	default:
		return w, fmt.Errorf("invalid step %d", int(w.Step))
	}

	next.Step++
	return next, nil
}

// Input converts the collected answers into calculator input.
func (w Wizard) Input() (match.Input, error) {
	if !w.Complete() {
		return match.Input{}, ErrIncomplete
	}
	return match.Input{
		AnnualSalary:                   w.Answers.AnnualSalary,
		MonthlyLoanPayment:             w.Answers.MonthlyLoanPayment,
		Current401kMonthlyContribution: w.Answers.Current401kMonthlyContribution,
		Age:                            w.Answers.Age,
		Rule:                           match.ParseRule(w.Answers.EmployerMatchRule),
	}, nil
}

func check(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

func floatOr(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

func stepError(step Step, field, message string) error {
	return &StepError{Step: step, Field: field, Message: message}
}
