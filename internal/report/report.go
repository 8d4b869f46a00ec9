// Package report lays a computed projection out as a paginated ROI report
// document and renders it as Markdown, HTML or plain text. Every value comes
// from the request; nothing is recomputed here.
package report

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/format"
	"github.com/iwvelando/invoice-roi/pkg/roi"
)

// Fixed report text.
const (
	Title  = "ROI Analysis Report"
	Footer = "Generated by Invoice ROI Simulator"

	SectionMetrics    = "Key ROI Metrics"
	SectionParameters = "Input Parameters"
	SectionCosts      = "Cost Comparison"

	// Unknown stands in for cost-breakdown values that were not stored.
	Unknown = "unknown"
)

// ErrMissingInformation is returned by Assemble when the company name or
// contact email is empty.
var ErrMissingInformation = errors.New("missing information")

// LineKind classifies a report line for the renderers.
type LineKind int

const (
	KindTitle LineKind = iota
	KindMeta
	KindHeading
	KindField
	KindFooter
)

// Line is one laid-out line of a report.
type Line struct {
	Kind  LineKind
	Label string
	Value string
}

// Page is a run of lines that fit the line budget.
type Page struct {
	Number int
	Lines  []Line
}

// Request carries everything a report is built from.
type Request struct {
	Inputs             roi.Inputs
	Results            roi.Results
	CompanyName        string
	ContactEmail       string
	GeneratedAt        time.Time
	CostBreakdownKnown bool

	// LinesPerPage is the page line budget. Zero uses the default.
	LinesPerPage int
}

// Document is an assembled report.
type Document struct {
	CompanyName  string
	ContactEmail string
	GeneratedAt  time.Time
	Lines        []Line
	Pages        []Page
}

// Assemble lays out req as a report document.
func Assemble(req Request) (*Document, error) {
	company := strings.TrimSpace(req.CompanyName)
	email := strings.TrimSpace(req.ContactEmail)
	if company == "" || email == "" {
		return nil, fmt.Errorf("%w: please provide your email and company name", ErrMissingInformation)
	}

	generatedAt := req.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	in, res := req.Inputs, req.Results
	lines := []Line{
		{Kind: KindTitle, Value: Title},
		{Kind: KindMeta, Label: "Company", Value: company},
		{Kind: KindMeta, Label: "Contact", Value: email},
		{Kind: KindMeta, Label: "Report Date", Value: generatedAt.Format(constants.DateLayout)},

		{Kind: KindHeading, Value: SectionMetrics},
		field("Monthly Savings", format.Currency(res.MonthlySavings)),
		field("Payback Period", format.Months(res.PaybackMonths)),
		field("ROI Percentage", format.Percent(res.ROIPercentage)),
		field("Net Savings", format.Currency(res.NetSavings)),
		field("Cumulative Savings", format.Currency(res.CumulativeSavings)),

		{Kind: KindHeading, Value: SectionParameters},
		field("Monthly Invoice Volume", format.Number(in.InvoiceVolume)),
		field("Staff Count", format.Number(in.StaffCount)),
		field("Hourly Wage", format.PlainCurrency(in.HourlyWage)),
		field("Hours per Invoice", format.Number(in.HoursPerInvoice)),
		field("Manual Error Rate", format.RatePercent(in.ManualErrorRate)),
		field("Automated Error Rate", format.RatePercent(in.AutoErrorRate)),
		field("Cost per Error", format.PlainCurrency(in.ErrorCost)),
		field("Automated Cost per Invoice", format.PlainCurrency(in.AutomatedCostPerInvoice)),
		field("Implementation Cost", format.PlainCurrency(in.ImplementationCost)),
		field("Time Horizon", format.Number(in.TimeHorizonMonths)+" months"),

		{Kind: KindHeading, Value: SectionCosts},
	}

	if req.CostBreakdownKnown {
		lines = append(lines,
			field("Manual Monthly Cost", format.Currency(res.ManualLaborCost)),
			field("Automated Monthly Cost", format.Currency(res.AutomatedCost)),
			field("Cost Reduction", format.Percent(res.CostReductionPercent())),
		)
	} else {
		lines = append(lines,
			field("Manual Monthly Cost", Unknown),
			field("Automated Monthly Cost", Unknown),
			field("Cost Reduction", Unknown),
		)
	}
	lines = append(lines, Line{Kind: KindFooter, Value: Footer})

	linesPerPage := req.LinesPerPage
	if linesPerPage <= 0 {
		linesPerPage = constants.DefaultLinesPerPage
	}

	return &Document{
		CompanyName:  company,
		ContactEmail: email,
		GeneratedAt:  generatedAt,
		Lines:        lines,
		Pages:        Paginate(lines, linesPerPage),
	}, nil
}

func field(label, value string) Line {
	return Line{Kind: KindField, Label: label, Value: value}
}

// Paginate splits lines into pages of at most linesPerPage lines. A heading
// is never the last line of a page; it moves to the next page with its
// section. linesPerPage below 2 is treated as 2.
func Paginate(lines []Line, linesPerPage int) []Page {
	if linesPerPage < 2 {
		linesPerPage = 2
	}

	var pages []Page
	var current []Line
	flush := func() {
		pages = append(pages, Page{Number: len(pages) + 1, Lines: current})
		current = nil
	}

	for i, line := range lines {
		if len(current) == linesPerPage {
			flush()
		}
		lastSlot := len(current) == linesPerPage-1
		hasMore := i < len(lines)-1
		if line.Kind == KindHeading && lastSlot && hasMore && len(current) > 0 {
			flush()
		}
		current = append(current, line)
	}
	if len(current) > 0 || len(pages) == 0 {
		flush()
	}
	return pages
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename returns the download name of a report, e.g.
// "ROI-Report-Acme-Corp-2025-03-14.pdf".
func Filename(company string, date time.Time, ext string) string {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(company), "-")
	return fmt.Sprintf("ROI-Report-%s-%s.%s", name, date.Format(constants.DateLayout), strings.TrimPrefix(ext, "."))
}
