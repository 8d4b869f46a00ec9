// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/invoice-roi/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, constants.OutputFormatYAML:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV,
		constants.OutputFormatJSON, constants.OutputFormatYAML, format)
}

// ValidateReportFormat checks if the report format is one of the supported formats.
func ValidateReportFormat(format string) error {
	switch format {
	case constants.ReportFormatMarkdown, constants.ReportFormatHTML, constants.ReportFormatText:
		return nil
	}
	return fmt.Errorf("expected report format of %s, %s or %s, got %s",
		constants.ReportFormatMarkdown, constants.ReportFormatHTML, constants.ReportFormatText, format)
}
