package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/internal/export"
	"github.com/iwvelando/invoice-roi/internal/report"
	"github.com/iwvelando/invoice-roi/internal/scenario"
	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/format"
	"github.com/iwvelando/invoice-roi/pkg/roi"
	records "github.com/iwvelando/invoice-roi/pkg/scenario"
	"github.com/iwvelando/invoice-roi/pkg/validation"
)

// Options wires the handler's collaborators.
type Options struct {
	MaxBodySize int64
	Version     string

	// Scenarios serves the /api/scenarios endpoints.
	Scenarios *scenario.Manager

	// Exporter receives reports requested with "export": true. Nil
	// disables exporting.
	Exporter export.Exporter

	ReportFormat string
	LinesPerPage int

	// Now stamps report dates. Defaults to time.Now.
	Now func() time.Time
}

type handler struct {
	logger       *zap.Logger
	version      string
	scenarios    *scenario.Manager
	exporter     export.Exporter
	reportFormat string
	linesPerPage int
	now          func() time.Time
}

// NewHandler constructs the HTTP handler that serves the ROI API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	reportFormat := opts.ReportFormat
	if reportFormat == "" {
		reportFormat = constants.ReportFormatMarkdown
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	h := &handler{
		logger:       logger,
		version:      trimmedVersion,
		scenarios:    opts.Scenarios,
		exporter:     opts.Exporter,
		reportFormat: reportFormat,
		linesPerPage: opts.LinesPerPage,
		now:          now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/calculate", h.handleCalculate)
	mux.HandleFunc("GET /api/scenarios", h.handleListScenarios)
	mux.HandleFunc("POST /api/scenarios", h.handleSaveScenario)
	mux.HandleFunc("GET /api/scenarios/{id}", h.handleLoadScenario)
	mux.HandleFunc("DELETE /api/scenarios/{id}", h.handleDeleteScenario)
	mux.HandleFunc("POST /api/report", h.handleReport)
	mux.HandleFunc("GET /api/version", h.handleVersion)

	return chain(mux,
		requestID,
		requestLogger(logger),
		recovery(logger),
		bodyLimit(maxBodySize),
	)
}

type calculateRequest struct {
	Inputs              roi.Inputs `json:"inputs"`
	ErrorRatesInPercent bool       `json:"errorRatesInPercent"`
}

type calculateResponse struct {
	Inputs   roi.Inputs        `json:"inputs"`
	Results  roi.Results       `json:"results"`
	Display  map[string]string `json:"display"`
	Warnings []string          `json:"warnings,omitempty"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	var req calculateRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	inputs := req.Inputs
	if req.ErrorRatesInPercent {
		if err := validation.ValidatePercentRates(inputs.ManualErrorRate, inputs.AutoErrorRate); err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
		inputs = roi.FromPercentRates(inputs)
	}
	if err := validation.ValidateInputs(inputs); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	results := roi.Compute(inputs)
	h.writeJSON(w, http.StatusOK, calculateResponse{
		Inputs:   inputs,
		Results:  results,
		Display:  displayValues(results),
		Warnings: calculationWarnings(inputs),
	})
}

func displayValues(res roi.Results) map[string]string {
	return map[string]string{
		"monthlySavings":       format.WholeCurrency(res.MonthlySavings),
		"paybackPeriod":        format.Months(res.PaybackMonths),
		"roiPercentage":        format.Percent(res.ROIPercentage),
		"netSavings":           format.WholeCurrency(res.NetSavings),
		"cumulativeSavings":    format.WholeCurrency(res.CumulativeSavings),
		"manualLaborCost":      format.Currency(res.ManualLaborCost),
		"automatedCost":        format.Currency(res.AutomatedCost),
		"costReductionPercent": format.Percent(res.CostReductionPercent()),
	}
}

func calculationWarnings(in roi.Inputs) []string {
	var warnings []string
	if in.AutoErrorRate > in.ManualErrorRate {
		warnings = append(warnings, "automated error rate exceeds manual error rate")
	}
	if in.ImplementationCost == 0 {
		warnings = append(warnings, "implementation cost is zero; ROI percentage and payback period are reported as 0")
	}
	return warnings
}

func (h *handler) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListScenarios"
	if !h.requireScenarios(w, r, op) {
		return
	}

	summaries, err := h.scenarios.List(r.Context())
	if err != nil {
		h.respondStoreError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"scenarios": summaries})
}

func (h *handler) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSaveScenario"
	if !h.requireScenarios(w, r, op) {
		return
	}

	var req scenario.SaveRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	id, err := h.scenarios.Save(r.Context(), req)
	if err != nil {
		h.respondStoreError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) handleLoadScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLoadScenario"
	if !h.requireScenarios(w, r, op) {
		return
	}

	s, err := h.scenarios.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondStoreError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *handler) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteScenario"
	if !h.requireScenarios(w, r, op) {
		return
	}

	if err := h.scenarios.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondStoreError(w, r, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reportRequest struct {
	Inputs             *roi.Inputs  `json:"inputs"`
	Results            *roi.Results `json:"results"`
	CompanyName        string       `json:"companyName"`
	ContactEmail       string       `json:"contactEmail"`
	Format             string       `json:"format"`
	Export             bool         `json:"export"`
	CostBreakdownKnown *bool        `json:"costBreakdownKnown"`
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	var req reportRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	if req.Inputs == nil || req.Results == nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing information: please calculate ROI first", op)
		return
	}
	reportFormat := req.Format
	if reportFormat == "" {
		reportFormat = h.reportFormat
	}
	if err := validation.ValidateReportFormat(reportFormat); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	if req.Export && h.exporter == nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "report export is not configured", op)
		return
	}

	breakdownKnown := inferCostBreakdownKnown(*req.Results)
	if req.CostBreakdownKnown != nil {
		breakdownKnown = *req.CostBreakdownKnown
	}

	doc, err := report.Assemble(report.Request{
		Inputs:             *req.Inputs,
		Results:            *req.Results,
		CompanyName:        req.CompanyName,
		ContactEmail:       req.ContactEmail,
		GeneratedAt:        h.now(),
		CostBreakdownKnown: breakdownKnown,
		LinesPerPage:       h.linesPerPage,
	})
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	body, err := report.Render(doc, reportFormat)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}
	filename := report.Filename(doc.CompanyName, doc.GeneratedAt, report.Extension(reportFormat))
	contentType := report.ContentType(reportFormat)

	if req.Export {
		location, err := h.exporter.Export(r.Context(), filename, body, contentType)
		if err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadGateway, fmt.Sprintf("failed to export report: %v", err), op)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{
			"filename": filename,
			"location": location,
		})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write report response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

// inferCostBreakdownKnown treats results with savings but no manual or
// automated cost as a legacy scenario whose breakdown was not stored.
func inferCostBreakdownKnown(res roi.Results) bool {
	return !(res.ManualLaborCost == 0 && res.AutomatedCost == 0 && res.MonthlySavings > 0)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) requireScenarios(w http.ResponseWriter, r *http.Request, op string) bool {
	if h.scenarios == nil {
		h.respondErrorWithOp(w, r, http.StatusServiceUnavailable, "scenario store is not configured", op)
		return false
	}
	return true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", maxBytesErr.Limit), op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// statusFor maps a scenario operation error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scenario.ErrMissingInformation), errors.Is(err, validation.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, records.ErrMalformedRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (h *handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request rejected", fields...)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
