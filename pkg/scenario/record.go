// Package scenario flattens projections into persisted records and
// reconstructs them without recomputation.
package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/invoice-roi/pkg/roi"
)

// Column names of a persisted scenario.
const (
	ColumnID        = "id"
	ColumnName      = "scenario_name"
	ColumnEmail     = "user_email"
	ColumnCreatedAt = "created_at"

	ColumnInvoiceVolume           = "invoice_volume"
	ColumnStaffCount              = "staff_count"
	ColumnHourlyWage              = "hourly_wage"
	ColumnHoursPerInvoice         = "hours_per_invoice"
	ColumnManualErrorRate         = "manual_error_rate"
	ColumnAutoErrorRate           = "auto_error_rate"
	ColumnErrorCost               = "error_cost"
	ColumnAutomatedCostPerInvoice = "automated_cost_per_invoice"
	ColumnImplementationCost      = "implementation_cost"
	ColumnTimeHorizonMonths       = "time_horizon_months"

	ColumnMonthlySavings    = "monthly_savings"
	ColumnPaybackMonths     = "payback_months"
	ColumnROIPercentage     = "roi_percentage"
	ColumnNetSavings        = "net_savings"
	ColumnCumulativeSavings = "cumulative_savings"
	ColumnManualLaborCost   = "manual_labor_cost"
	ColumnAutomatedCost     = "automated_cost"
)

// NumericColumns lists every numeric column in schema order.
var NumericColumns = []string{
	ColumnInvoiceVolume,
	ColumnStaffCount,
	ColumnHourlyWage,
	ColumnHoursPerInvoice,
	ColumnManualErrorRate,
	ColumnAutoErrorRate,
	ColumnErrorCost,
	ColumnAutomatedCostPerInvoice,
	ColumnImplementationCost,
	ColumnTimeHorizonMonths,
	ColumnMonthlySavings,
	ColumnPaybackMonths,
	ColumnROIPercentage,
	ColumnNetSavings,
	ColumnCumulativeSavings,
	ColumnManualLaborCost,
	ColumnAutomatedCost,
}

var (
	// ErrNotFound is returned by a Store when no record has the requested id.
	ErrNotFound = errors.New("scenario not found")

	// ErrMalformedRecord marks a persisted record that cannot be reconstructed.
	ErrMalformedRecord = errors.New("malformed scenario record")
)

// Record is the flat persisted form of a scenario, keyed by column name.
type Record map[string]any

// Scenario is a saved projection: its identity plus the full inputs and
// results as they were when saved.
type Scenario struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	CreatedAt time.Time   `json:"createdAt"`
	Inputs    roi.Inputs  `json:"inputs"`
	Results   roi.Results `json:"results"`

	// CostBreakdownKnown is false when the record predates the
	// manual_labor_cost and automated_cost columns. Results then carries
	// zeros for those two fields, which callers must treat as unknown.
	CostBreakdownKnown bool `json:"costBreakdownKnown"`
}

// Summary is the listing view of a saved scenario.
type Summary struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Email          string    `json:"email" yaml:"email"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
	ROIPercentage  float64   `json:"roiPercentage" yaml:"roiPercentage"`
	MonthlySavings float64   `json:"monthlySavings" yaml:"monthlySavings"`
}

// Summary returns the listing view of s.
func (s Scenario) Summary() Summary {
	return Summary{
		ID:             s.ID,
		Name:           s.Name,
		Email:          s.Email,
		CreatedAt:      s.CreatedAt,
		ROIPercentage:  s.Results.ROIPercentage,
		MonthlySavings: s.Results.MonthlySavings,
	}
}

// ToRecord flattens a projection into a record. Numeric fields are written as
// float64; id and created_at are assigned by the Store.
func ToRecord(inputs roi.Inputs, results roi.Results, name, email string) Record {
	return Record{
		ColumnName:  name,
		ColumnEmail: email,

		ColumnInvoiceVolume:           inputs.InvoiceVolume,
		ColumnStaffCount:              inputs.StaffCount,
		ColumnHourlyWage:              inputs.HourlyWage,
		ColumnHoursPerInvoice:         inputs.HoursPerInvoice,
		ColumnManualErrorRate:         inputs.ManualErrorRate,
		ColumnAutoErrorRate:           inputs.AutoErrorRate,
		ColumnErrorCost:               inputs.ErrorCost,
		ColumnAutomatedCostPerInvoice: inputs.AutomatedCostPerInvoice,
		ColumnImplementationCost:      inputs.ImplementationCost,
		ColumnTimeHorizonMonths:       inputs.TimeHorizonMonths,

		ColumnMonthlySavings:    results.MonthlySavings,
		ColumnPaybackMonths:     results.PaybackMonths,
		ColumnROIPercentage:     results.ROIPercentage,
		ColumnNetSavings:        results.NetSavings,
		ColumnCumulativeSavings: results.CumulativeSavings,
		ColumnManualLaborCost:   results.ManualLaborCost,
		ColumnAutomatedCost:     results.AutomatedCost,
	}
}

// WithoutCostBreakdown removes the manual and automated cost columns from r,
// the persisted form of a projection whose cost breakdown is unknown.
func (r Record) WithoutCostBreakdown() Record {
	delete(r, ColumnManualLaborCost)
	delete(r, ColumnAutomatedCost)
	return r
}

// FromRecord reconstructs a scenario from a persisted record. Every numeric
// column is coerced explicitly; a missing or non-numeric required column
// rejects the whole record with an error wrapping ErrMalformedRecord.
func FromRecord(rec Record) (Scenario, error) {
	var s Scenario
	var err error

	if s.ID, err = requiredString(rec, ColumnID); err != nil {
		return Scenario{}, err
	}
	if s.Name, err = requiredString(rec, ColumnName); err != nil {
		return Scenario{}, err
	}
	if s.Email, err = requiredString(rec, ColumnEmail); err != nil {
		return Scenario{}, err
	}
	if s.CreatedAt, err = requiredTime(rec, ColumnCreatedAt); err != nil {
		return Scenario{}, err
	}

	required := []struct {
		column string
		dst    *float64
	}{
		{ColumnInvoiceVolume, &s.Inputs.InvoiceVolume},
		{ColumnStaffCount, &s.Inputs.StaffCount},
		{ColumnHourlyWage, &s.Inputs.HourlyWage},
		{ColumnHoursPerInvoice, &s.Inputs.HoursPerInvoice},
		{ColumnManualErrorRate, &s.Inputs.ManualErrorRate},
		{ColumnAutoErrorRate, &s.Inputs.AutoErrorRate},
		{ColumnErrorCost, &s.Inputs.ErrorCost},
		{ColumnAutomatedCostPerInvoice, &s.Inputs.AutomatedCostPerInvoice},
		{ColumnImplementationCost, &s.Inputs.ImplementationCost},
		{ColumnTimeHorizonMonths, &s.Inputs.TimeHorizonMonths},
		{ColumnMonthlySavings, &s.Results.MonthlySavings},
		{ColumnPaybackMonths, &s.Results.PaybackMonths},
		{ColumnROIPercentage, &s.Results.ROIPercentage},
		{ColumnNetSavings, &s.Results.NetSavings},
		{ColumnCumulativeSavings, &s.Results.CumulativeSavings},
	}
	for _, f := range required {
		v, ok := rec[f.column]
		if !ok || v == nil {
			return Scenario{}, fmt.Errorf("%w: missing column %s", ErrMalformedRecord, f.column)
		}
		n, err := ToFloat(v)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: column %s: %v", ErrMalformedRecord, f.column, err)
		}
		*f.dst = n
	}

	// The cost breakdown is optional: both columns or neither.
	manual, manualOK := rec[ColumnManualLaborCost]
	automated, automatedOK := rec[ColumnAutomatedCost]
	manualOK = manualOK && manual != nil
	automatedOK = automatedOK && automated != nil
	switch {
	case manualOK && automatedOK:
		if s.Results.ManualLaborCost, err = ToFloat(manual); err != nil {
			return Scenario{}, fmt.Errorf("%w: column %s: %v", ErrMalformedRecord, ColumnManualLaborCost, err)
		}
		if s.Results.AutomatedCost, err = ToFloat(automated); err != nil {
			return Scenario{}, fmt.Errorf("%w: column %s: %v", ErrMalformedRecord, ColumnAutomatedCost, err)
		}
		s.CostBreakdownKnown = true
	case manualOK || automatedOK:
		return Scenario{}, fmt.Errorf("%w: cost breakdown columns must be stored together", ErrMalformedRecord)
	default:
		s.Results.ManualLaborCost = 0
		s.Results.AutomatedCost = 0
		s.CostBreakdownKnown = false
	}

	return s, nil
}

func requiredString(rec Record, column string) (string, error) {
	v, ok := rec[column]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: missing column %s", ErrMalformedRecord, column)
	}
	s, err := ToString(v)
	if err != nil {
		return "", fmt.Errorf("%w: column %s: %v", ErrMalformedRecord, column, err)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: empty column %s", ErrMalformedRecord, column)
	}
	return s, nil
}

func requiredTime(rec Record, column string) (time.Time, error) {
	v, ok := rec[column]
	if !ok || v == nil {
		return time.Time{}, fmt.Errorf("%w: missing column %s", ErrMalformedRecord, column)
	}
	t, err := ToTime(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: column %s: %v", ErrMalformedRecord, column, err)
	}
	return t, nil
}
