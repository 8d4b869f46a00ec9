package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iwvelando/invoice-roi/pkg/roi"
	records "github.com/iwvelando/invoice-roi/pkg/scenario"
	"github.com/iwvelando/invoice-roi/pkg/testutil"
	"github.com/iwvelando/invoice-roi/pkg/validation"
)

func calculated() (*roi.Inputs, *roi.Results) {
	in := testutil.ExampleInputs()
	res := roi.Compute(in)
	return &in, &res
}

func storedRecord(id, name string, createdAt time.Time) records.Record {
	in, res := calculated()
	rec := records.ToRecord(*in, *res, name, "ap@example.com")
	rec[records.ColumnID] = id
	rec[records.ColumnCreatedAt] = createdAt
	return rec
}

func TestSaveRejectsMissingInformation(t *testing.T) {
	in, res := calculated()

	tests := []struct {
		name    string
		req     SaveRequest
		wantErr error
	}{
		{"Missing name", SaveRequest{Name: "  ", Email: "a@b.com", Inputs: in, Results: res}, ErrMissingInformation},
		{"Missing email", SaveRequest{Name: "n", Inputs: in, Results: res}, ErrMissingInformation},
		{"Not calculated", SaveRequest{Name: "n", Email: "a@b.com", Inputs: in}, ErrMissingInformation},
		{"Bad email", SaveRequest{Name: "n", Email: "not-an-email", Inputs: in, Results: res}, validation.ErrInvalidInput},
		{"Invalid inputs", SaveRequest{Name: "n", Email: "a@b.com", Inputs: &roi.Inputs{TimeHorizonMonths: 0}, Results: res}, validation.ErrInvalidInput},
		{"Negative results", SaveRequest{Name: "n", Email: "a@b.com", Inputs: in, Results: &roi.Results{NetSavings: -1}}, validation.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &testutil.FakeStore{}
			m := NewManager(store, nil)

			_, err := m.Save(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Save() error = %v, expected %v", err, tt.wantErr)
			}
			if store.Calls() != 0 {
				t.Errorf("expected no store calls, got %d", store.Calls())
			}
		})
	}
}

func TestSave(t *testing.T) {
	store := &testutil.FakeStore{NextID: "new-id"}
	m := NewManager(store, zap.NewNop())
	in, res := calculated()

	id, err := m.Save(context.Background(), SaveRequest{Name: " Q1 ", Email: "ap@example.com", Inputs: in, Results: res})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id != "new-id" {
		t.Errorf("Save() id = %s", id)
	}
	if store.InsertCalls != 1 {
		t.Errorf("expected one Insert call, got %d", store.InsertCalls)
	}
	if got := store.Records[0][records.ColumnName]; got != "Q1" {
		t.Errorf("stored name = %v, expected trimmed name", got)
	}
	if got := store.Records[0][records.ColumnMonthlySavings]; got != res.MonthlySavings {
		t.Errorf("stored monthly savings = %v, expected %v", got, res.MonthlySavings)
	}
}

func TestSaveFailureIsNotRetried(t *testing.T) {
	store := &testutil.FakeStore{ForceError: true}
	m := NewManager(store, nil)
	in, res := calculated()

	_, err := m.Save(context.Background(), SaveRequest{Name: "n", Email: "a@b.com", Inputs: in, Results: res})
	if !errors.Is(err, testutil.ErrForced) {
		t.Errorf("Save() error = %v, expected wrapped ErrForced", err)
	}
	if store.InsertCalls != 1 {
		t.Errorf("expected exactly one Insert call, got %d", store.InsertCalls)
	}
}

func TestListSkipsMalformed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	broken := storedRecord("broken", "broken", older)
	broken[records.ColumnHourlyWage] = "lots"

	store := &testutil.FakeStore{Records: []records.Record{
		storedRecord("b", "newer", newer),
		broken,
		storedRecord("a", "older", older),
	}}
	m := NewManager(store, zap.New(core))

	summaries, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("List() returned %d summaries, expected 2", len(summaries))
	}
	if summaries[0].Name != "newer" || summaries[1].Name != "older" {
		t.Errorf("List() order = %s, %s", summaries[0].Name, summaries[1].Name)
	}
	if testutil.FindSummary(summaries, "broken") != nil {
		t.Error("malformed record should be skipped")
	}
	if logs.FilterMessage("skipping malformed scenario record").Len() != 1 {
		t.Errorf("expected one warning, got %d", logs.Len())
	}
}

func TestListFailure(t *testing.T) {
	m := NewManager(&testutil.FakeStore{ForceError: true}, nil)
	if _, err := m.List(context.Background()); !errors.Is(err, testutil.ErrForced) {
		t.Errorf("List() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	legacy := storedRecord("legacy", "legacy", created)
	delete(legacy, records.ColumnManualLaborCost)
	delete(legacy, records.ColumnAutomatedCost)
	broken := storedRecord("broken", "broken", created)
	delete(broken, records.ColumnROIPercentage)

	store := &testutil.FakeStore{Records: []records.Record{
		storedRecord("full", "full", created),
		legacy,
		broken,
	}}
	m := NewManager(store, nil)
	ctx := context.Background()

	s, err := m.Load(ctx, "full")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	_, res := calculated()
	if s.Results != *res || !s.CostBreakdownKnown {
		t.Errorf("Load() = %+v", s)
	}

	s, err = m.Load(ctx, "legacy")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.CostBreakdownKnown || s.Results.ManualLaborCost != 0 {
		t.Errorf("expected unknown cost breakdown, got %+v", s.Results)
	}

	if _, err := m.Load(ctx, "broken"); !errors.Is(err, records.ErrMalformedRecord) {
		t.Errorf("Load() error = %v, expected ErrMalformedRecord", err)
	}
	if _, err := m.Load(ctx, "missing"); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("Load() error = %v, expected ErrNotFound", err)
	}
}

func TestResaveKeepsUnknownCostBreakdown(t *testing.T) {
	legacy := storedRecord("legacy", "legacy", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	delete(legacy, records.ColumnManualLaborCost)
	delete(legacy, records.ColumnAutomatedCost)

	store := &testutil.FakeStore{Records: []records.Record{legacy}, NextID: "resaved"}
	m := NewManager(store, nil)
	ctx := context.Background()

	loaded, err := m.Load(ctx, "legacy")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.CostBreakdownKnown {
		t.Fatal("expected legacy record to load with unknown cost breakdown")
	}

	id, err := m.Save(ctx, SaveRequest{
		Name:               "edited",
		Email:              loaded.Email,
		Inputs:             &loaded.Inputs,
		Results:            &loaded.Results,
		CostBreakdownKnown: &loaded.CostBreakdownKnown,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := store.Records[0][records.ColumnManualLaborCost]; ok {
		t.Error("unknown cost breakdown was persisted as a value")
	}

	resaved, err := m.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if resaved.CostBreakdownKnown {
		t.Errorf("re-saved scenario reads as known cost breakdown: %+v", resaved.Results)
	}
	if resaved.Results.MonthlySavings != loaded.Results.MonthlySavings {
		t.Errorf("MonthlySavings = %v, expected %v", resaved.Results.MonthlySavings, loaded.Results.MonthlySavings)
	}
}

func TestSaveWithKnownCostBreakdown(t *testing.T) {
	store := &testutil.FakeStore{}
	m := NewManager(store, nil)
	in, res := calculated()
	known := true

	if _, err := m.Save(context.Background(), SaveRequest{
		Name: "n", Email: "a@b.com", Inputs: in, Results: res, CostBreakdownKnown: &known,
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := store.Records[0][records.ColumnAutomatedCost]; got != res.AutomatedCost {
		t.Errorf("stored automated cost = %v, expected %v", got, res.AutomatedCost)
	}
}

func TestDelete(t *testing.T) {
	store := &testutil.FakeStore{Records: []records.Record{storedRecord("x", "x", time.Now())}}
	m := NewManager(store, nil)
	ctx := context.Background()

	if err := m.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := m.Delete(ctx, "x"); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("Delete() error = %v, expected ErrNotFound", err)
	}

	store.ForceError = true
	if err := m.Delete(ctx, "x"); !errors.Is(err, testutil.ErrForced) {
		t.Errorf("Delete() error = %v, expected ErrForced", err)
	}
	if store.DeleteCalls != 3 {
		t.Errorf("expected 3 Delete calls, got %d", store.DeleteCalls)
	}
}
