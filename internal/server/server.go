// Package server exposes the match calculator and the step-by-step form over HTTP.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/qslp-calculator/internal/metrics"
	"github.com/iwvelando/qslp-calculator/internal/wizard"
	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/iwvelando/qslp-calculator/pkg/finance"
	"github.com/iwvelando/qslp-calculator/pkg/match"
	"github.com/iwvelando/qslp-calculator/pkg/output"
	"github.com/iwvelando/qslp-calculator/pkg/simulation"
	"github.com/iwvelando/qslp-calculator/pkg/validation"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// Options wires the handler's collaborators. Nil fields get working defaults.
type Options struct {
	Logger            *zap.Logger
	Calculator        *match.Calculator
	Store             wizard.Store
	Metrics           *metrics.Metrics
	Simulator         *simulation.Simulator
	MaxUploadSize     int64
	RequestsPerSecond float64
	Burst             int
	Version           string
}

type handler struct {
	logger        *zap.Logger
	calculator    *match.Calculator
	store         wizard.Store
	metrics       *metrics.Metrics
	simulator     *simulation.Simulator
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the web UI, the
// calculator API and the form session API.
func NewHandler(opts Options) http.Handler {
	h := newHandler(opts)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogger(h.logger, h.metrics))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(opts.RequestsPerSecond, opts.Burst, h.logger))

		r.Get("/version", h.handleVersion)
		r.Get("/rules", h.handleRules)
		r.Post("/match", h.handleMatch)

		r.Post("/wizard", h.handleWizardCreate)
		r.Route("/wizard/{id}", func(r chi.Router) {
			r.Get("/", h.handleWizardGet)
			r.Delete("/", h.handleWizardDelete)
			r.Post("/submit", h.handleWizardSubmit)
			r.Post("/back", h.handleWizardBack)
		})
	})

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	r.Handle("/*", http.FileServer(http.FS(sub)))

	return r
}

func newHandler(opts Options) *handler {
	h := &handler{
		logger:        opts.Logger,
		calculator:    opts.Calculator,
		store:         opts.Store,
		metrics:       opts.Metrics,
		simulator:     opts.Simulator,
		maxUploadSize: opts.MaxUploadSize,
		version:       strings.TrimSpace(opts.Version),
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.calculator == nil {
		h.calculator = match.NewCalculator(match.DefaultAssumptions())
	}
	if h.store == nil {
		h.store = wizard.NewMemoryStore(30 * time.Minute)
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	if h.simulator == nil {
		h.simulator = simulation.NewSimulator(nil)
	}
	if h.maxUploadSize <= 0 {
		h.maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if h.version == "" {
		h.version = "dev"
	}
	return h
}

type matchResponse struct {
	Input         match.Input              `json:"input"`
	RuleLabel     string                   `json:"ruleLabel"`
	Result        match.Result             `json:"result"`
	Series        []finance.GrowthPoint    `json:"series"`
	Participation simulation.Participation `json:"participation"`
	CSV           string                   `json:"csv"`
}

type ruleInfo struct {
	Rule  match.Rule `json:"rule"`
	Label string     `json:"label"`
}

type wizardResponse struct {
	ID       string         `json:"id"`
	Step     wizard.Step    `json:"step"`
	Question string         `json:"question,omitempty"`
	Progress float64        `json:"progress"`
	Complete bool           `json:"complete"`
	Answers  wizard.Answers `json:"answers"`
	Result   *matchResponse `json:"result,omitempty"`
}

type createWizardRequest struct {
	Email string `json:"email"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := match.Rules()
	infos := make([]ruleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, ruleInfo{Rule: rule, Label: rule.Label()})
	}
	h.writeJSON(w, http.StatusOK, infos)
}

// handleMatch computes a result directly. The response is JSON unless the
// format query parameter selects another report format.
func (h *handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMatch"

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format != "" {
		if err := validation.ValidateOutputFormat(format); err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
	}

	var in match.Input
	if err := h.decodeBody(w, r, &in); err != nil {
		h.respondDecodeError(w, err, op)
		return
	}

	resp := h.compute(in)

	if format == "" || format == constants.OutputFormatJSON {
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	var buf bytes.Buffer
	report := output.Report{Input: resp.Input, Result: resp.Result, Series: resp.Series}
	if err := output.Write(&buf, format, report); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render report: %v", err), op)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write report", zap.String("op", op), zap.Error(err))
	}
}

var contentTypes = map[string]string{
	constants.OutputFormatPretty: "text/plain; charset=utf-8",
	constants.OutputFormatCSV:    "text/csv; charset=utf-8",
	constants.OutputFormatYAML:   "application/yaml",
}

func (h *handler) compute(in match.Input) *matchResponse {
	in = h.calculator.Sanitize(in)
	result := h.calculator.Compute(in)
	h.metrics.RecordCalculation(in.Rule, result)

	h.logger.Debug("computed match",
		zap.String("op", "server.compute"),
		zap.String("rule", string(in.Rule)),
		zap.Float64("annualMatch", result.AnnualMatch),
		zap.Bool("capApplied", result.CapApplied),
	)

	resp := &matchResponse{
		Input:         in,
		RuleLabel:     in.Rule.Label(),
		Result:        result,
		Series:        h.calculator.Series(result, constants.ProjectionYears),
		Participation: h.simulator.Generate(),
	}
	resp.CSV = output.CsvString(output.Report{Input: in, Result: result, Series: resp.Series})
	return resp
}

func (h *handler) handleWizardCreate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWizardCreate"

	var req createWizardRequest
	if err := h.decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.respondDecodeError(w, err, op)
		return
	}

	wz, err := wizard.New().WithEmail(req.Email)
	if err != nil {
		h.respondStepError(w, err, op)
		return
	}

	session, err := h.store.Create(r.Context(), wz)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to create session: %v", err), op)
		return
	}
	h.metrics.RecordWizardStarted()

	h.writeJSON(w, http.StatusCreated, h.wizardView(session, nil))
}

func (h *handler) handleWizardGet(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r, "server.handleWizardGet")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.wizardView(session, h.resultFor(session.Wizard)))
}

func (h *handler) handleWizardSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWizardSubmit"

	session, ok := h.loadSession(w, r, op)
	if !ok {
		return
	}

	var in wizard.StepInput
	if err := h.decodeBody(w, r, &in); err != nil {
		h.respondDecodeError(w, err, op)
		return
	}

	step := session.Wizard.Step
	next, err := session.Wizard.Submit(in)
	if err != nil {
		if errors.Is(err, wizard.ErrComplete) {
			h.respondErrorWithOp(w, http.StatusConflict, err.Error(), op)
			return
		}
		h.metrics.RecordWizardStep(step.String(), "rejected")
		h.respondStepError(w, err, op)
		return
	}
	h.metrics.RecordWizardStep(step.String(), "accepted")

	session.Wizard = next
	if err := h.store.Save(r.Context(), session); err != nil {
		h.respondStoreError(w, err, op)
		return
	}

	var result *matchResponse
	if next.Complete() {
		result = h.resultFor(next)
	}
	h.writeJSON(w, http.StatusOK, h.wizardView(session, result))
}

func (h *handler) handleWizardBack(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWizardBack"

	session, ok := h.loadSession(w, r, op)
	if !ok {
		return
	}

	session.Wizard = session.Wizard.Back()
	if err := h.store.Save(r.Context(), session); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, h.wizardView(session, nil))
}

func (h *handler) handleWizardDelete(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWizardDelete"

	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) loadSession(w http.ResponseWriter, r *http.Request, op string) (wizard.Session, bool) {
	session, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return wizard.Session{}, false
	}
	return session, true
}

// resultFor computes the result of a finished form, or nil if unfinished.
func (h *handler) resultFor(wz wizard.Wizard) *matchResponse {
	in, err := wz.Input()
	if err != nil {
		return nil
	}
	return h.compute(in)
}

func (h *handler) wizardView(session wizard.Session, result *matchResponse) wizardResponse {
	wz := session.Wizard
	return wizardResponse{
		ID:       session.ID,
		Step:     wz.Step,
		Question: wz.Step.Question(),
		Progress: wz.Progress(),
		Complete: wz.Complete(),
		Answers:  wz.Answers,
		Result:   result,
	}
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func (h *handler) respondDecodeError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", h.maxUploadSize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
}

func (h *handler) respondStepError(w http.ResponseWriter, err error, op string) {
	var stepErr *wizard.StepError
	if !errors.As(err, &stepErr) {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.logger.Info("form step rejected",
		zap.String("op", op),
		zap.String("step", stepErr.Step.String()),
		zap.String("field", stepErr.Field),
	)
	h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":  stepErr.Message,
		"errors": []*wizard.StepError{stepErr},
	})
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, wizard.ErrSessionNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request failed", fields...)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeJSONResponse(w, status, payload, h.logger)
}

func writeJSONResponse(w http.ResponseWriter, status int, payload interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to write JSON response", zap.Error(err))
	}
}
