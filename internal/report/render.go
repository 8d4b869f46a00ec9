package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/iwvelando/invoice-roi/pkg/constants"
)

// ContentType returns the MIME type of a rendered report format.
func ContentType(reportFormat string) string {
	switch reportFormat {
	case constants.ReportFormatHTML:
		return "text/html; charset=utf-8"
	case constants.ReportFormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension of a rendered report format.
func Extension(reportFormat string) string {
	switch reportFormat {
	case constants.ReportFormatHTML:
		return "html"
	case constants.ReportFormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// Render renders doc in the named format.
func Render(doc *Document, reportFormat string) ([]byte, error) {
	switch reportFormat {
	case constants.ReportFormatMarkdown:
		return RenderMarkdown(doc), nil
	case constants.ReportFormatHTML:
		return RenderHTML(doc)
	case constants.ReportFormatText:
		return RenderText(doc), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", reportFormat)
	}
}

// RenderMarkdown renders doc as GitHub-flavored Markdown. Fields become
// two-column tables and pages are separated by a horizontal rule.
func RenderMarkdown(doc *Document) []byte {
	var b bytes.Buffer

	for i, page := range doc.Pages {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}

		inTable := false
		for _, line := range page.Lines {
			if line.Kind != KindField && inTable {
				b.WriteString("\n")
				inTable = false
			}

			switch line.Kind {
			case KindTitle:
				fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(line.Value))
			case KindMeta:
				fmt.Fprintf(&b, "**%s:** %s  \n", line.Label, escapeMarkdown(line.Value))
			case KindHeading:
				fmt.Fprintf(&b, "\n## %s\n\n", escapeMarkdown(line.Value))
			case KindField:
				if !inTable {
					b.WriteString("| Item | Value |\n| --- | ---: |\n")
					inTable = true
				}
				fmt.Fprintf(&b, "| %s | %s |\n", escapeMarkdown(line.Label), escapeMarkdown(line.Value))
			case KindFooter:
				fmt.Fprintf(&b, "\n_%s_\n", escapeMarkdown(line.Value))
			}
		}
		if inTable {
			b.WriteString("\n")
		}
	}

	return b.Bytes()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"|", `\|`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// RenderHTML renders doc as a standalone HTML page by converting its
// Markdown rendering with goldmark.
func RenderHTML(doc *Document) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(RenderMarkdown(doc), &body); err != nil {
		return nil, fmt.Errorf("failed to render report html: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s - %s</title>\n", Title, html.EscapeString(doc.CompanyName))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.Bytes(), nil
}

const textLabelWidth = 28

// RenderText renders doc as plain text. Pages end with a page marker and
// are separated by a form feed.
func RenderText(doc *Document) []byte {
	var b bytes.Buffer

	for i, page := range doc.Pages {
		if i > 0 {
			b.WriteString("\f\n")
		}
		for _, line := range page.Lines {
			switch line.Kind {
			case KindTitle:
				fmt.Fprintf(&b, "%s\n%s\n\n", line.Value, strings.Repeat("=", len(line.Value)))
			case KindMeta:
				fmt.Fprintf(&b, "%s: %s\n", line.Label, line.Value)
			case KindHeading:
				fmt.Fprintf(&b, "\n%s\n%s\n", line.Value, strings.Repeat("-", len(line.Value)))
			case KindField:
				fmt.Fprintf(&b, "%-*s %s\n", textLabelWidth, line.Label+":", line.Value)
			case KindFooter:
				fmt.Fprintf(&b, "\n%s\n", line.Value)
			}
		}
		fmt.Fprintf(&b, "\n[Page %d of %d]\n", page.Number, len(doc.Pages))
	}

	return b.Bytes()
}
