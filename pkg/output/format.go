// Package output provides utilities for formatting and displaying ROI
// projections and saved scenario listings.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/roi"
	"github.com/iwvelando/invoice-roi/pkg/scenario"
)

// Projection is a computed projection as printed by the CLI.
type Projection struct {
	Name     string      `json:"name,omitempty" yaml:"name,omitempty"`
	Inputs   roi.Inputs  `json:"inputs" yaml:"inputs"`
	Results  roi.Results `json:"results" yaml:"results"`
	Warnings []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// CostBreakdownKnown is false for loaded scenarios saved without the
	// manual and automated cost columns.
	CostBreakdownKnown bool `json:"costBreakdownKnown" yaml:"costBreakdownKnown"`
}

type row struct {
	label string
	value float64
	unit  string // "$", "%", "months" or "" for plain numbers
}

func metricRows(p Projection) []row {
	rows := []row{
		{"Monthly Savings", p.Results.MonthlySavings, "$"},
		{"Payback Period", p.Results.PaybackMonths, "months"},
		{"ROI Percentage", p.Results.ROIPercentage, "%"},
		{"Net Savings", p.Results.NetSavings, "$"},
		{"Cumulative Savings", p.Results.CumulativeSavings, "$"},
	}
	if p.CostBreakdownKnown {
		rows = append(rows,
			row{"Manual Monthly Cost", p.Results.ManualLaborCost, "$"},
			row{"Automated Monthly Cost", p.Results.AutomatedCost, "$"},
			row{"Cost Reduction", p.Results.CostReductionPercent(), "%"},
		)
	}
	return rows
}

// Write prints p to w in the named output format.
func Write(w io.Writer, outputFormat string, p Projection) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, p)
	case constants.OutputFormatCSV:
		return CsvFormat(w, p)
	case constants.OutputFormatJSON:
		return JSONFormat(w, p)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, p)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, p Projection) error {
	printer := message.NewPrinter(language.English)

	header := "--- ROI projection ---"
	if p.Name != "" {
		header = fmt.Sprintf("--- ROI projection for scenario %s ---", p.Name)
	}
	if _, err := fmt.Fprintf(w, "%s\n", header); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Metric                 | Value\n")
	_, _ = fmt.Fprintf(w, "______                 | _____\n")

	for _, r := range metricRows(p) {
		var value string
		switch r.unit {
		case "$":
			value = printer.Sprintf("$%.2f", r.value)
		case "%":
			value = printer.Sprintf("%.1f%%", r.value)
		case "months":
			value = printer.Sprintf("%.1f months", r.value)
		default:
			value = printer.Sprintf("%v", r.value)
		}
		if _, err := fmt.Fprintf(w, "%-22s | %s\n", r.label, value); err != nil {
			return err
		}
	}
	if !p.CostBreakdownKnown {
		_, _ = fmt.Fprintf(w, "%-22s | %s\n", "Cost Breakdown", "unknown")
	}

	for _, warning := range p.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, p Projection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	for _, r := range metricRows(p) {
		if err := cw.Write([]string{r.label, strconv.FormatFloat(r.value, 'f', 2, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the projection as indented JSON.
func JSONFormat(w io.Writer, p Projection) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode projection: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// YAMLFormat outputs the projection as YAML.
func YAMLFormat(w io.Writer, p Projection) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("failed to encode projection: %w", err)
	}
	return enc.Close()
}

// WriteSummaries prints a saved-scenario listing in the named output format.
func WriteSummaries(w io.Writer, outputFormat string, summaries []scenario.Summary) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		printer := message.NewPrinter(language.English)
		if len(summaries) == 0 {
			_, err := fmt.Fprintln(w, "No saved scenarios")
			return err
		}
		_, _ = fmt.Fprintf(w, "%-36s | %-20s | %-10s | %12s | %s\n", "ID", "Name", "Created", "ROI", "Monthly Savings")
		_, _ = fmt.Fprintf(w, "%s\n", strings.Repeat("_", 100))
		for _, s := range summaries {
			if _, err := fmt.Fprintf(w, "%-36s | %-20s | %-10s | %12s | %s\n",
				s.ID, s.Name, s.CreatedAt.Format(constants.DateLayout),
				printer.Sprintf("%.1f%%", s.ROIPercentage),
				printer.Sprintf("$%.2f", s.MonthlySavings)); err != nil {
				return err
			}
		}
		return nil
	case constants.OutputFormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"id", "name", "email", "created_at", "roi_percentage", "monthly_savings"}); err != nil {
			return err
		}
		for _, s := range summaries {
			if err := cw.Write([]string{
				s.ID,
				s.Name,
				s.Email,
				s.CreatedAt.Format(constants.DateLayout),
				strconv.FormatFloat(s.ROIPercentage, 'f', 1, 64),
				strconv.FormatFloat(s.MonthlySavings, 'f', 2, 64),
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case constants.OutputFormatJSON:
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode scenarios: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case constants.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return fmt.Errorf("failed to encode scenarios: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
