package testutil

import (
	"testing"

	"github.com/iwvelando/qslp-calculator/pkg/match"
)

func TestFindScenario(t *testing.T) {
	scenarios := Scenarios()

	tests := []struct {
		name        string
		searchName  string
		expectFound bool
		wantSalary  float64
	}{
		{name: "Find entry level", searchName: "entry level tiered", expectFound: true, wantSalary: 75000},
		{name: "Find limit binding", searchName: "limit binding", expectFound: true, wantSalary: 1000000},
		{name: "Search for non-existent scenario", searchName: "Non-existent"},
		{name: "Empty name", searchName: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := FindScenario(scenarios, tt.searchName)
			if !tt.expectFound {
				if found != nil {
					t.Fatalf("expected no scenario, got %q", found.Name)
				}
				return
			}
			if found == nil {
				t.Fatalf("expected to find %q", tt.searchName)
			}
			if found.Input.AnnualSalary != tt.wantSalary {
				t.Errorf("expected salary %v, got %v", tt.wantSalary, found.Input.AnnualSalary)
			}
		})
	}
}

func TestFindScenarioReturnsReference(t *testing.T) {
	scenarios := Scenarios()
	found := FindScenario(scenarios, "no loan payment")
	if found == nil {
		t.Fatal("expected scenario")
	}
	found.AnnualMatch = 1
	if scenarios[4].AnnualMatch != 1 {
		t.Error("expected FindScenario to return a pointer into the slice")
	}
}

func TestScenarioNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range Scenarios() {
		if seen[s.Name] {
			t.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = true
	}
}

func TestScenariosMatchCalculator(t *testing.T) {
	for _, s := range Scenarios() {
		CheckResult(t, s, match.Compute(s.Input))
	}
}
