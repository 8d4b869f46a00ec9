// Package roi computes the return-on-investment projection for moving invoice
// processing from a manual to an automated workflow.
//
// The projection is a flat monthly run-rate multiplied by a time horizon.
// Compute is a pure function: it performs no I/O, holds no state and is safe
// to call concurrently.
package roi

import (
	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/mathutil"
)

// BiasFactor is applied uniformly to the projected monthly savings.
//
// This is a deliberate optimism bias baked into the model. It is not a
// statistical adjustment and is not configurable; any change needs product
// sign-off.
const BiasFactor = constants.BiasFactor

// Inputs holds the business-process parameters of a projection. Error rates
// are ratios in [0,1]; see FromPercentRates for percentage-scaled input.
type Inputs struct {
	InvoiceVolume           float64 `json:"invoiceVolume" yaml:"invoiceVolume"`
	StaffCount              float64 `json:"staffCount" yaml:"staffCount"`
	HourlyWage              float64 `json:"hourlyWage" yaml:"hourlyWage"`
	HoursPerInvoice         float64 `json:"hoursPerInvoice" yaml:"hoursPerInvoice"`
	ManualErrorRate         float64 `json:"manualErrorRate" yaml:"manualErrorRate"`
	AutoErrorRate           float64 `json:"autoErrorRate" yaml:"autoErrorRate"`
	ErrorCost               float64 `json:"errorCost" yaml:"errorCost"`
	AutomatedCostPerInvoice float64 `json:"automatedCostPerInvoice" yaml:"automatedCostPerInvoice"`
	ImplementationCost      float64 `json:"implementationCost" yaml:"implementationCost"`
	TimeHorizonMonths       float64 `json:"timeHorizonMonths" yaml:"timeHorizonMonths"`
}

// Results holds the derived metrics of a projection. MonthlySavings,
// PaybackMonths, ROIPercentage, NetSavings and CumulativeSavings are floored
// at zero, so a scenario where automation costs more than it saves reads as
// "no benefit" rather than as a negative return.
type Results struct {
	MonthlySavings    float64 `json:"monthlySavings" yaml:"monthlySavings"`
	PaybackMonths     float64 `json:"paybackMonths" yaml:"paybackMonths"`
	ROIPercentage     float64 `json:"roiPercentage" yaml:"roiPercentage"`
	NetSavings        float64 `json:"netSavings" yaml:"netSavings"`
	CumulativeSavings float64 `json:"cumulativeSavings" yaml:"cumulativeSavings"`
	ManualLaborCost   float64 `json:"manualLaborCost" yaml:"manualLaborCost"`
	AutomatedCost     float64 `json:"automatedCost" yaml:"automatedCost"`
}

// DefaultInputs returns the parameter set the calculator starts with.
func DefaultInputs() Inputs {
	return Inputs{
		InvoiceVolume:           1000,
		StaffCount:              3,
		HourlyWage:              25,
		HoursPerInvoice:         0.5,
		ManualErrorRate:         0.05,
		AutoErrorRate:           0.01,
		ErrorCost:               50,
		AutomatedCostPerInvoice: 0.5,
		ImplementationCost:      10000,
		TimeHorizonMonths:       12,
	}
}

// FromPercentRates returns a copy of in with ManualErrorRate and
// AutoErrorRate converted from percentages (0-100) to ratios (0-1).
func FromPercentRates(in Inputs) Inputs {
	in.ManualErrorRate = mathutil.PercentToRatio(in.ManualErrorRate)
	in.AutoErrorRate = mathutil.PercentToRatio(in.AutoErrorRate)
	return in
}

// Compute maps inputs to results. It never fails: zero divisors yield 0 and
// every clamped metric is finite and non-negative.
func Compute(in Inputs) Results {
	manualLaborCost := in.StaffCount * in.HourlyWage * in.HoursPerInvoice * in.InvoiceVolume
	automatedCost := in.InvoiceVolume * in.AutomatedCostPerInvoice
	errorSavings := (in.ManualErrorRate - in.AutoErrorRate) * in.InvoiceVolume * in.ErrorCost

	monthlySavings := (manualLaborCost + errorSavings - automatedCost) * BiasFactor
	cumulativeSavings := monthlySavings * in.TimeHorizonMonths
	netSavings := cumulativeSavings - in.ImplementationCost

	// A non-positive run-rate never pays back.
	var paybackMonths float64
	if monthlySavings > 0 {
		paybackMonths = mathutil.SafeDivide(in.ImplementationCost, monthlySavings)
	}
	roiPercentage := mathutil.SafeDivide(netSavings, in.ImplementationCost) * constants.PercentageMultiplier

	return Results{
		MonthlySavings:    mathutil.FloorZero(monthlySavings),
		PaybackMonths:     mathutil.FloorZero(paybackMonths),
		ROIPercentage:     mathutil.FloorZero(roiPercentage),
		NetSavings:        mathutil.FloorZero(netSavings),
		CumulativeSavings: mathutil.FloorZero(cumulativeSavings),
		ManualLaborCost:   manualLaborCost,
		AutomatedCost:     automatedCost,
	}
}

// CostReductionPercent is the share of the manual labor cost removed by the
// automated cost. It is 0 when the manual cost is 0.
func (r Results) CostReductionPercent() float64 {
	return mathutil.CalculatePercentage(r.ManualLaborCost-r.AutomatedCost, r.ManualLaborCost)
}
