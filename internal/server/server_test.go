package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/qslp-calculator/internal/metrics"
	"github.com/iwvelando/qslp-calculator/internal/wizard"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return NewHandler(opts)
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHandleMatchSuccess(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rr := doRequest(t, handler, http.MethodPost, "/api/match", `{
		"annualSalary": 75000,
		"monthlyLoanPayment": 500,
		"current401kMonthlyContribution": 0,
		"age": 25,
		"employerMatchRule": "tiered-3-5"
	}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp matchResponse
	decode(t, rr, &resp)

	if resp.Result.AnnualMatch != 3000 || resp.Result.MonthlyMatch != 250 {
		t.Fatalf("unexpected match %+v", resp.Result)
	}
	if resp.Result.Tier1Match != 2250 || resp.Result.Tier2Match != 750 {
		t.Fatalf("unexpected tiers %+v", resp.Result)
	}
	if resp.Result.ContributionUsagePercent != 13 {
		t.Fatalf("expected usage 13, got %d", resp.Result.ContributionUsagePercent)
	}
	if resp.RuleLabel != "Dollar-for-dollar up to 3%, then 50% up to 5%" {
		t.Fatalf("unexpected rule label %q", resp.RuleLabel)
	}
	if len(resp.Series) != 31 {
		t.Fatalf("expected 31 series points, got %d", len(resp.Series))
	}
	if !strings.HasPrefix(resp.CSV, "year,value\n0,0\n") {
		t.Fatalf("expected CSV series in response, got %q", resp.CSV)
	}
	if !resp.Participation.Simulated {
		t.Fatal("expected participation to be marked simulated")
	}
	if p := resp.Participation.Participants; p < 10 || p > 59 {
		t.Fatalf("participants out of range: %d", p)
	}
}

func TestHandleMatchNormalizesInput(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rr := doRequest(t, handler, http.MethodPost, "/api/match",
		`{"annualSalary": 60000, "monthlyLoanPayment": 1000, "age": 55, "employerMatchRule": "100% match up to 5% of salary"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp matchResponse
	decode(t, rr, &resp)

	if resp.Input.Rule != "full-to-5" {
		t.Fatalf("expected label to resolve to full-to-5, got %q", resp.Input.Rule)
	}
	if resp.Result.AnnualMatch != 3000 || resp.Result.ContributionLimit != 31000 {
		t.Fatalf("unexpected result %+v", resp.Result)
	}
	if resp.Result.ContributionUsagePercent != 10 {
		t.Fatalf("expected usage 10, got %d", resp.Result.ContributionUsagePercent)
	}
}

func TestHandleMatchFormats(t *testing.T) {
	handler := newTestHandler(t, Options{})
	body := `{"annualSalary": 75000, "monthlyLoanPayment": 500, "age": 25, "employerMatchRule": "tiered-3-5"}`

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{format: "csv", contentType: "text/csv", contains: "year,value"},
		{format: "yaml", contentType: "application/yaml", contains: "annualMatch: 3000"},
		{format: "pretty", contentType: "text/plain", contains: "$3,000"},
		{format: "json", contentType: "application/json", contains: `"annualMatch":3000`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rr := doRequest(t, handler, http.MethodPost, "/api/match?format="+tt.format, body)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Fatalf("expected content type %s, got %s", tt.contentType, ct)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Fatalf("expected body to contain %q, got %s", tt.contains, rr.Body.String())
			}
		})
	}
}

func TestHandleMatchErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		path   string
		body   string
		status int
	}{
		{name: "Malformed JSON", path: "/api/match", body: `{"annualSalary":`, status: http.StatusBadRequest},
		{name: "Unknown field", path: "/api/match", body: `{"salary": 1}`, status: http.StatusBadRequest},
		{name: "Trailing data", path: "/api/match", body: `{} {}`, status: http.StatusBadRequest},
		{name: "Unsupported format", path: "/api/match?format=xml", body: `{}`, status: http.StatusBadRequest},
		{
			name:   "Body too large",
			opts:   Options{MaxUploadSize: 16},
			path:   "/api/match",
			body:   `{"annualSalary": 75000, "monthlyLoanPayment": 500}`,
			status: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(t, tt.opts)
			rr := doRequest(t, handler, http.MethodPost, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}

			var resp map[string]string
			decode(t, rr, &resp)
			if resp["error"] == "" {
				t.Fatal("expected error message in response")
			}
		})
	}
}

func TestHandleMatchMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, Options{})
	rr := doRequest(t, handler, http.MethodGet, "/api/match", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestWizardFlow(t *testing.T) {
	m := metrics.New()
	handler := newTestHandler(t, Options{Metrics: m})

	rr := doRequest(t, handler, http.MethodPost, "/api/wizard", `{"email": "person@example.com"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var state wizardResponse
	decode(t, rr, &state)
	if state.ID == "" || state.Step != wizard.StepSalary {
		t.Fatalf("unexpected initial state %+v", state)
	}
	if state.Answers.Email != "person@example.com" || state.Answers.Age != 25 {
		t.Fatalf("unexpected initial answers %+v", state.Answers)
	}

	base := "/api/wizard/" + state.ID

	rr = doRequest(t, handler, http.MethodPost, base+"/submit", `{"annualSalary": 0}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
	var rejected struct {
		Error  string              `json:"error"`
		Errors []*wizard.StepError `json:"errors"`
	}
	decode(t, rr, &rejected)
	if rejected.Error != "Annual salary is required" || len(rejected.Errors) != 1 || rejected.Errors[0].Field != "annualSalary" {
		t.Fatalf("unexpected rejection %+v", rejected)
	}

	steps := []string{
		`{"annualSalary": 75000}`,
		`{"monthlyLoanPayment": 500}`,
		`{"totalStudentDebtBalance": 40000}`,
		`{"current401kMonthlyContribution": 0}`,
		`{"age": 25}`,
		`{"employerMatchRule": "tiered-3-5"}`,
	}
	for i, body := range steps {
		rr = doRequest(t, handler, http.MethodPost, base+"/submit", body)
		if rr.Code != http.StatusOK {
			t.Fatalf("step %d: expected status 200, got %d: %s", i+1, rr.Code, rr.Body.String())
		}
		decode(t, rr, &state)
		if state.Result != nil {
			t.Fatalf("step %d: unexpected result before completion", i+1)
		}
	}
	if state.Step != wizard.StepQSLPAvailability {
		t.Fatalf("expected final input step, got %s", state.Step)
	}

	rr = doRequest(t, handler, http.MethodPost, base+"/back", "")
	decode(t, rr, &state)
	if state.Step != wizard.StepMatchRule || state.Answers.EmployerMatchRule != "tiered-3-5" {
		t.Fatalf("unexpected state after back %+v", state)
	}
	doRequest(t, handler, http.MethodPost, base+"/submit", `{"employerMatchRule": "tiered-3-5"}`)

	rr = doRequest(t, handler, http.MethodPost, base+"/submit", `{"hasQSLPMatching": true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &state)
	if !state.Complete || state.Progress != 100 {
		t.Fatalf("expected completed wizard, got %+v", state)
	}
	if state.Result == nil || state.Result.Result.AnnualMatch != 3000 || state.Result.Result.RemainingCapacity != 20500 {
		t.Fatalf("unexpected result %+v", state.Result)
	}

	rr = doRequest(t, handler, http.MethodGet, base, "")
	decode(t, rr, &state)
	if state.Result == nil {
		t.Fatal("expected result when fetching completed session")
	}

	rr = doRequest(t, handler, http.MethodPost, base+"/submit", `{}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for completed wizard, got %d", rr.Code)
	}

	rr = doRequest(t, handler, http.MethodDelete, base, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	rr = doRequest(t, handler, http.MethodGet, base, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", rr.Code)
	}

	rr = doRequest(t, handler, http.MethodGet, "/metrics", "")
	for _, want := range []string{
		"qslp_wizard_sessions_started_total 1",
		`qslp_wizard_steps_total{outcome="rejected",step="salary"} 1`,
		`qslp_http_requests_total{route="/api/wizard/{id}/submit",status="200"}`,
	} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Fatalf("expected metrics to contain %q", want)
		}
	}
}

func TestWizardCreateWithoutBody(t *testing.T) {
	handler := newTestHandler(t, Options{})
	rr := doRequest(t, handler, http.MethodPost, "/api/wizard", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestWizardCreateInvalidEmail(t *testing.T) {
	handler := newTestHandler(t, Options{})
	rr := doRequest(t, handler, http.MethodPost, "/api/wizard", `{"email": "nope"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
}

func TestWizardUnknownSession(t *testing.T) {
	handler := newTestHandler(t, Options{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/wizard/4f1c7a8e-4c43-4f3a-9d55-1b2f0f6c2b11"},
		{http.MethodPost, "/api/wizard/not-a-session/back"},
		{http.MethodDelete, "/api/wizard/4f1c7a8e-4c43-4f3a-9d55-1b2f0f6c2b11"},
	} {
		rr := doRequest(t, handler, tc.method, tc.path, "")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected status 404, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestHandleVersion(t *testing.T) {
	handler := newTestHandler(t, Options{Version: " 1.2.3 "})
	rr := doRequest(t, handler, http.MethodGet, "/api/version", "")

	var resp map[string]string
	decode(t, rr, &resp)
	if resp["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", resp["version"])
	}

	rr = doRequest(t, newTestHandler(t, Options{}), http.MethodGet, "/api/version", "")
	decode(t, rr, &resp)
	if resp["version"] != "dev" {
		t.Fatalf("expected default version dev, got %q", resp["version"])
	}
}

func TestHandleRules(t *testing.T) {
	handler := newTestHandler(t, Options{})
	rr := doRequest(t, handler, http.MethodGet, "/api/rules", "")

	var rules []ruleInfo
	decode(t, rr, &rules)
	if len(rules) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(rules))
	}
	if rules[3].Rule != "custom" || rules[3].Label != "Custom / Other" {
		t.Fatalf("unexpected custom rule %+v", rules[3])
	}
}

func TestHealthAndStatic(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rr := doRequest(t, handler, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "ok") {
		t.Fatalf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, handler, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for index, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Student loan match calculator") {
		t.Fatal("expected embedded index page")
	}
}

func TestRateLimit(t *testing.T) {
	handler := newTestHandler(t, Options{RequestsPerSecond: 0.001, Burst: 1})

	first := doRequest(t, handler, http.MethodGet, "/api/version", "")
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}
	second := doRequest(t, handler, http.MethodGet, "/api/version", "")
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	// Health checks are not rate limited.
	if rr := doRequest(t, handler, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected health check to bypass rate limit, got %d", rr.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := newTestHandler(t, Options{})
	for i := 0; i < 50; i++ {
		if rr := doRequest(t, handler, http.MethodGet, "/api/version", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, rr.Code)
		}
	}
}
