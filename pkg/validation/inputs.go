package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/roi"
)

// ErrInvalidInput marks projection inputs rejected before they reach the engine.
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes one rejected input field.
type FieldError struct {
	Field  string
	Value  float64
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Reason, e.Value)
}

// InputErrors collects every rejected field of one Inputs value.
type InputErrors []FieldError

func (e InputErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is match ErrInvalidInput.
func (e InputErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidateInputs checks that every field is a finite number, counts and
// amounts are non-negative, error rates are ratios in [0,1] and the time
// horizon is at least one month. It returns nil or an InputErrors value.
func ValidateInputs(in roi.Inputs) error {
	var errs InputErrors

	nonNegative := []struct {
		field string
		value float64
	}{
		{"invoiceVolume", in.InvoiceVolume},
		{"staffCount", in.StaffCount},
		{"hourlyWage", in.HourlyWage},
		{"hoursPerInvoice", in.HoursPerInvoice},
		{"errorCost", in.ErrorCost},
		{"automatedCostPerInvoice", in.AutomatedCostPerInvoice},
		{"implementationCost", in.ImplementationCost},
	}
	for _, f := range nonNegative {
		if bad := checkFinite(f.field, f.value); bad != nil {
			errs = append(errs, *bad)
			continue
		}
		if f.value < 0 {
			errs = append(errs, FieldError{Field: f.field, Value: f.value, Reason: "must not be negative"})
		}
	}

	for _, f := range []struct {
		field string
		value float64
	}{
		{"manualErrorRate", in.ManualErrorRate},
		{"autoErrorRate", in.AutoErrorRate},
	} {
		if bad := checkFinite(f.field, f.value); bad != nil {
			errs = append(errs, *bad)
			continue
		}
		if f.value < 0 || f.value > 1 {
			errs = append(errs, FieldError{Field: f.field, Value: f.value, Reason: "must be a ratio between 0 and 1"})
		}
	}

	if bad := checkFinite("timeHorizonMonths", in.TimeHorizonMonths); bad != nil {
		errs = append(errs, *bad)
	} else if in.TimeHorizonMonths < constants.MinTimeHorizonMonths {
		errs = append(errs, FieldError{
			Field:  "timeHorizonMonths",
			Value:  in.TimeHorizonMonths,
			Reason: fmt.Sprintf("must be at least %d", constants.MinTimeHorizonMonths),
		})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateResults checks caller-supplied results before they are persisted:
// every field must be finite and the five headline metrics, which the
// engine floors at zero, must not be negative.
func ValidateResults(res roi.Results) error {
	var errs InputErrors

	fields := []struct {
		field   string
		value   float64
		clamped bool
	}{
		{"monthlySavings", res.MonthlySavings, true},
		{"paybackMonths", res.PaybackMonths, true},
		{"roiPercentage", res.ROIPercentage, true},
		{"netSavings", res.NetSavings, true},
		{"cumulativeSavings", res.CumulativeSavings, true},
		{"manualLaborCost", res.ManualLaborCost, false},
		{"automatedCost", res.AutomatedCost, false},
	}
	for _, f := range fields {
		if bad := checkFinite(f.field, f.value); bad != nil {
			errs = append(errs, *bad)
			continue
		}
		if f.clamped && f.value < 0 {
			errs = append(errs, FieldError{Field: f.field, Value: f.value, Reason: "must not be negative"})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidatePercentRates checks percentage-scaled error rates (0-100) before
// they are converted to ratios.
func ValidatePercentRates(manual, auto float64) error {
	var errs InputErrors
	for _, f := range []struct {
		field string
		value float64
	}{
		{"manualErrorRate", manual},
		{"autoErrorRate", auto},
	} {
		if bad := checkFinite(f.field, f.value); bad != nil {
			errs = append(errs, *bad)
			continue
		}
		if f.value < 0 || f.value > constants.PercentageMultiplier {
			errs = append(errs, FieldError{Field: f.field, Value: f.value, Reason: "must be a percentage between 0 and 100"})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkFinite(field string, value float64) *FieldError {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &FieldError{Field: field, Value: value, Reason: "must be a finite number"}
	}
	return nil
}
