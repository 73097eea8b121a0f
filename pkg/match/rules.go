package match

import "strings"

// Rule identifies an employer matching formula.
type Rule string

// Supported match rules. Custom plans cannot be modelled precisely and use the
// tiered 3%/5% parameters.
const (
	RuleFullToFive  Rule = "full-to-5"
	RuleHalfToSix   Rule = "half-to-6"
	RuleTieredThree Rule = "tiered-3-5"
	RuleCustom      Rule = "custom"
)

// DefaultRule is used for custom and unrecognised rules.
const DefaultRule = RuleTieredThree

// TierParams holds the rates and salary thresholds of a match formula.
// Thresholds are fractions of annual salary. A zero Tier2Rate disables tier 2.
type TierParams struct {
	Tier1Rate      float64 `json:"tier1Rate" yaml:"tier1Rate"`
	Tier1Threshold float64 `json:"tier1Threshold" yaml:"tier1Threshold"`
	Tier2Rate      float64 `json:"tier2Rate" yaml:"tier2Rate"`
	Tier2Threshold float64 `json:"tier2Threshold" yaml:"tier2Threshold"`
}

var tierTable = map[Rule]TierParams{
	RuleFullToFive:  {Tier1Rate: 1.0, Tier1Threshold: 0.05, Tier2Rate: 0, Tier2Threshold: 0.05},
	RuleHalfToSix:   {Tier1Rate: 0.5, Tier1Threshold: 0.06, Tier2Rate: 0, Tier2Threshold: 0.06},
	RuleTieredThree: {Tier1Rate: 1.0, Tier1Threshold: 0.03, Tier2Rate: 0.5, Tier2Threshold: 0.05},
}

// Labels used by the web form for each rule.
var ruleLabels = map[Rule]string{
	RuleFullToFive:  "100% match up to 5% of salary",
	RuleHalfToSix:   "50% match up to 6% of salary",
	RuleTieredThree: "Dollar-for-dollar up to 3%, then 50% up to 5%",
	RuleCustom:      "Custom / Other",
}

// ParseRule maps a rule literal or its form label onto a Rule. Matching is
// case-insensitive; anything unrecognised becomes DefaultRule.
func ParseRule(value string) Rule {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case string(RuleFullToFive), strings.ToLower(ruleLabels[RuleFullToFive]):
		return RuleFullToFive
	case string(RuleHalfToSix), strings.ToLower(ruleLabels[RuleHalfToSix]):
		return RuleHalfToSix
	case string(RuleTieredThree), strings.ToLower(ruleLabels[RuleTieredThree]):
		return RuleTieredThree
	case string(RuleCustom), "custom / other":
		return RuleCustom
	}
	return DefaultRule
}

// Params returns the tier parameters for the rule.
func (r Rule) Params() TierParams {
	if params, ok := tierTable[r]; ok {
		return params
	}
	return tierTable[DefaultRule]
}

// Label returns the human-readable description of the rule.
func (r Rule) Label() string {
	if label, ok := ruleLabels[r]; ok {
		return label
	}
	return ruleLabels[DefaultRule]
}

// Rules lists the selectable rules in form order.
func Rules() []Rule {
	return []Rule{RuleFullToFive, RuleHalfToSix, RuleTieredThree, RuleCustom}
}
