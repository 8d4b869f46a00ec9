package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/internal/export"
	"github.com/iwvelando/invoice-roi/internal/scenario"
	"github.com/iwvelando/invoice-roi/internal/store"
	"github.com/iwvelando/invoice-roi/pkg/roi"
	records "github.com/iwvelando/invoice-roi/pkg/scenario"
	"github.com/iwvelando/invoice-roi/pkg/testutil"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestHandler(t *testing.T, s records.Store, exporter export.Exporter) http.Handler {
	t.Helper()
	if s == nil {
		s = store.NewMemoryStore(0, nil)
	}
	return NewHandler(zap.NewNop(), Options{
		Version:   "test",
		Scenarios: scenario.NewManager(s, nil),
		Exporter:  exporter,
		Now:       func() time.Time { return fixedNow },
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHandleCalculateSuccess(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := doJSON(t, h, http.MethodPost, "/api/calculate", map[string]any{"inputs": testutil.ExampleInputs()})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp calculateResponse
	decodeBody(t, rr, &resp)

	if resp.Results != roi.Compute(testutil.ExampleInputs()) {
		t.Errorf("results = %+v", resp.Results)
	}
	expected := map[string]string{
		"monthlySavings":       "$44,850",
		"paybackPeriod":        "0.2 months",
		"roiPercentage":        "5282.0%",
		"netSavings":           "$528,200",
		"cumulativeSavings":    "$538,200",
		"manualLaborCost":      "$37,500.00",
		"automatedCost":        "$500.00",
		"costReductionPercent": "98.7%",
	}
	for key, want := range expected {
		if resp.Display[key] != want {
			t.Errorf("display[%s] = %q, expected %q", key, resp.Display[key], want)
		}
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", resp.Warnings)
	}
}

func TestHandleCalculatePercentRates(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	in := testutil.ExampleInputs()
	in.ManualErrorRate = 5
	in.AutoErrorRate = 1
	rr := doJSON(t, h, http.MethodPost, "/api/calculate", map[string]any{"inputs": in, "errorRatesInPercent": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp calculateResponse
	decodeBody(t, rr, &resp)
	if resp.Inputs.ManualErrorRate != 0.05 || resp.Inputs.AutoErrorRate != 0.01 {
		t.Errorf("rates not converted: %+v", resp.Inputs)
	}
}

func TestHandleCalculateZeroImplementationCost(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	in := testutil.ExampleInputs()
	in.ImplementationCost = 0
	rr := doJSON(t, h, http.MethodPost, "/api/calculate", map[string]any{"inputs": in})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp calculateResponse
	decodeBody(t, rr, &resp)
	if resp.Results.ROIPercentage != 0 || resp.Results.PaybackMonths != 0 {
		t.Errorf("expected zero ROI and payback, got %+v", resp.Results)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", resp.Warnings)
	}
}

func TestHandleCalculateRejects(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	negative := testutil.ExampleInputs()
	negative.InvoiceVolume = -1
	overPercent := testutil.ExampleInputs()
	overPercent.ManualErrorRate = 120

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Invalid JSON", "{", http.StatusBadRequest},
		{"Empty body", "", http.StatusBadRequest},
		{"Missing inputs", "{}", http.StatusBadRequest},
		{"Non-numeric field", `{"inputs":{"invoiceVolume":"lots"}}`, http.StatusBadRequest},
		{"Negative volume", mustJSON(t, map[string]any{"inputs": negative}), http.StatusBadRequest},
		{"Percent out of range", mustJSON(t, map[string]any{"inputs": overPercent, "errorRatesInPercent": true}), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			var resp map[string]string
			decodeBody(t, rr, &resp)
			if resp["error"] == "" {
				t.Error("expected error message in response")
			}
		})
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return string(data)
}

func TestBodyLimit(t *testing.T) {
	h := NewHandler(zap.NewNop(), Options{MaxBodySize: 16})

	rr := doJSON(t, h, http.MethodPost, "/api/calculate", map[string]any{"inputs": testutil.ExampleInputs()})
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := doJSON(t, h, http.MethodGet, "/api/calculate", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestScenarioLifecycle(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	in := testutil.ExampleInputs()
	res := roi.Compute(in)

	rr := doJSON(t, h, http.MethodPost, "/api/scenarios", map[string]any{
		"name":    "Q1 plan",
		"email":   "ap@example.com",
		"inputs":  in,
		"results": res,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created map[string]string
	decodeBody(t, rr, &created)
	id := created["id"]
	if id == "" {
		t.Fatal("expected id in response")
	}

	rr = doJSON(t, h, http.MethodGet, "/api/scenarios", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var listing struct {
		Scenarios []records.Summary `json:"scenarios"`
	}
	decodeBody(t, rr, &listing)
	summary := testutil.FindSummary(listing.Scenarios, "Q1 plan")
	if summary == nil || summary.ID != id {
		t.Fatalf("saved scenario missing from listing: %+v", listing.Scenarios)
	}

	rr = doJSON(t, h, http.MethodGet, "/api/scenarios/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var loaded records.Scenario
	decodeBody(t, rr, &loaded)
	if loaded.Inputs != in || loaded.Results != res || !loaded.CostBreakdownKnown {
		t.Errorf("loaded scenario = %+v", loaded)
	}

	rr = doJSON(t, h, http.MethodDelete, "/api/scenarios/"+id, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/api/scenarios/"+id, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	rr = doJSON(t, h, http.MethodDelete, "/api/scenarios/"+id, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestSaveScenarioMissingInformation(t *testing.T) {
	fake := &testutil.FakeStore{}
	h := newTestHandler(t, fake, nil)

	rr := doJSON(t, h, http.MethodPost, "/api/scenarios", map[string]any{
		"name":   "no results",
		"email":  "ap@example.com",
		"inputs": testutil.ExampleInputs(),
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if fake.Calls() != 0 {
		t.Errorf("expected no store calls, got %d", fake.Calls())
	}
}

func TestScenarioStoreFailure(t *testing.T) {
	fake := &testutil.FakeStore{ForceError: true}
	h := newTestHandler(t, fake, nil)
	in := testutil.ExampleInputs()

	tests := []struct {
		name    string
		method  string
		path    string
		payload any
	}{
		{"List", http.MethodGet, "/api/scenarios", nil},
		{"Save", http.MethodPost, "/api/scenarios", map[string]any{"name": "n", "email": "a@b.com", "inputs": in, "results": roi.Compute(in)}},
		{"Load", http.MethodGet, "/api/scenarios/x", nil},
		{"Delete", http.MethodDelete, "/api/scenarios/x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, tt.method, tt.path, tt.payload)
			if rr.Code != http.StatusBadGateway {
				t.Fatalf("expected status 502, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestLoadMalformedScenario(t *testing.T) {
	in := testutil.ExampleInputs()
	rec := records.ToRecord(in, roi.Compute(in), "broken", "ap@example.com")
	rec[records.ColumnID] = "broken-id"
	rec[records.ColumnCreatedAt] = fixedNow
	rec[records.ColumnNetSavings] = "n/a"

	h := newTestHandler(t, &testutil.FakeStore{Records: []records.Record{rec}}, nil)

	rr := doJSON(t, h, http.MethodGet, "/api/scenarios/broken-id", nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/api/scenarios", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var listing struct {
		Scenarios []records.Summary `json:"scenarios"`
	}
	decodeBody(t, rr, &listing)
	if len(listing.Scenarios) != 0 {
		t.Errorf("expected malformed record to be skipped, got %+v", listing.Scenarios)
	}
}

func reportPayload(extra map[string]any) map[string]any {
	in := testutil.ExampleInputs()
	payload := map[string]any{
		"inputs":       in,
		"results":      roi.Compute(in),
		"companyName":  "Acme Corp",
		"contactEmail": "ap@acme.example",
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}

func TestHandleReportDownload(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	tests := []struct {
		format      string
		filename    string
		contentType string
		contains    string
	}{
		{"", "ROI-Report-Acme-Corp-2025-03-14.md", "text/markdown", "# ROI Analysis Report"},
		{"html", "ROI-Report-Acme-Corp-2025-03-14.html", "text/html", "<h1>ROI Analysis Report</h1>"},
		{"text", "ROI-Report-Acme-Corp-2025-03-14.txt", "text/plain", "Monthly Savings:"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, "/api/report", reportPayload(map[string]any{"format": tt.format}))
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, tt.filename) {
				t.Errorf("Content-Disposition = %q, expected %s", got, tt.filename)
			}
			if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, tt.contentType) {
				t.Errorf("Content-Type = %q", got)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestHandleReportUnknownBreakdown(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := doJSON(t, h, http.MethodPost, "/api/report", reportPayload(map[string]any{"format": "text", "costBreakdownKnown": false}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "unknown") {
		t.Errorf("expected unknown cost breakdown in report:\n%s", rr.Body.String())
	}
}

func TestHandleReportInfersLegacyBreakdown(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	legacy := roi.Compute(testutil.ExampleInputs())
	legacy.ManualLaborCost = 0
	legacy.AutomatedCost = 0

	tests := []struct {
		name          string
		extra         map[string]any
		expectUnknown bool
	}{
		{"Flag omitted with zero costs", map[string]any{"results": legacy}, true},
		{"Flag omitted with computed costs", map[string]any{}, false},
		{"Explicit flag wins", map[string]any{"results": legacy, "costBreakdownKnown": true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.extra["format"] = "text"
			rr := doJSON(t, h, http.MethodPost, "/api/report", reportPayload(tt.extra))
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if got := strings.Contains(rr.Body.String(), "unknown"); got != tt.expectUnknown {
				t.Errorf("unknown in report = %v, expected %v:\n%s", got, tt.expectUnknown, rr.Body.String())
			}
		})
	}
}

func TestSaveScenarioKeepsUnknownBreakdown(t *testing.T) {
	h := newTestHandler(t, &testutil.FakeStore{NextID: "legacy-copy"}, nil)

	in := testutil.ExampleInputs()
	res := roi.Compute(in)
	res.ManualLaborCost = 0
	res.AutomatedCost = 0

	rr := doJSON(t, h, http.MethodPost, "/api/scenarios", map[string]any{
		"name":               "copy",
		"email":              "ap@example.com",
		"inputs":             in,
		"results":            res,
		"costBreakdownKnown": false,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/api/scenarios/legacy-copy", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var loaded struct {
		CostBreakdownKnown bool `json:"costBreakdownKnown"`
	}
	decodeBody(t, rr, &loaded)
	if loaded.CostBreakdownKnown {
		t.Error("re-saved scenario reads as known cost breakdown")
	}
}

func TestHandleReportExport(t *testing.T) {
	dir := t.TempDir()
	h := newTestHandler(t, nil, export.NewDirExporter(dir, nil))

	rr := doJSON(t, h, http.MethodPost, "/api/report", reportPayload(map[string]any{"export": true}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	decodeBody(t, rr, &resp)
	want := filepath.Join(dir, "ROI-Report-Acme-Corp-2025-03-14.md")
	if resp["location"] != want {
		t.Errorf("location = %q, expected %q", resp["location"], want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestHandleReportRejects(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"Missing company", reportPayload(map[string]any{"companyName": ""})},
		{"Missing email", reportPayload(map[string]any{"contactEmail": ""})},
		{"Not calculated", reportPayload(map[string]any{"results": nil})},
		{"Unknown format", reportPayload(map[string]any{"format": "pdf"})},
		{"Export disabled", reportPayload(map[string]any{"export": true})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, "/api/report", tt.payload)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleVersion(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	rr := doJSON(t, h, http.MethodGet, "/api/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if resp["version"] != "test" {
		t.Errorf("version = %q", resp["version"])
	}

	rr = doJSON(t, NewHandler(nil, Options{}), http.MethodGet, "/api/version", nil)
	decodeBody(t, rr, &resp)
	if resp["version"] != "dev" {
		t.Errorf("default version = %q", resp["version"])
	}
}

func TestScenariosNotConfigured(t *testing.T) {
	h := NewHandler(nil, Options{})

	rr := doJSON(t, h, http.MethodGet, "/api/scenarios", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
