// Package output renders summarization results as text, markdown, JSON
// or XML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/websum"
)

// Renderer writes results in a single output mode.
type Renderer struct {
	mode websum.OutputMode
}

// NewRenderer returns a Renderer for mode. An empty mode renders text.
func NewRenderer(mode websum.OutputMode) (*Renderer, error) {
	switch mode {
	case "":
		mode = websum.OutputText
	case websum.OutputText, websum.OutputMarkdown, websum.OutputJSON, websum.OutputXML:
	default:
		return nil, websum.Errorf(websum.EINVALID, "invalid output mode %q", mode)
	}
	return &Renderer{mode: mode}, nil
}

// Mode returns the renderer's output mode.
func (r *Renderer) Mode() websum.OutputMode {
	return r.mode
}

// WriteResult renders a single URL's result.
func (r *Renderer) WriteResult(w io.Writer, res *websum.BatchResult) error {
	switch r.mode {
	case websum.OutputJSON:
		return writeJSON(w, res)
	case websum.OutputXML:
		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		resultElement(&doc.Element, res)
		return writeXML(w, doc)
	case websum.OutputMarkdown:
		_, err := io.WriteString(w, markdownResult(res, "#"))
		return err
	default:
		_, err := io.WriteString(w, textResult(res, ""))
		return err
	}
}

// WriteReport renders a batch report.
func (r *Renderer) WriteReport(w io.Writer, report *websum.BatchReport) error {
	switch r.mode {
	case websum.OutputJSON:
		return writeJSON(w, report)
	case websum.OutputXML:
		return writeXML(w, reportDocument(report))
	case websum.OutputMarkdown:
		_, err := io.WriteString(w, markdownReport(report))
		return err
	default:
		_, err := io.WriteString(w, textReport(report))
		return err
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeXML(w io.Writer, doc *etree.Document) error {
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write xml: %w", err)
	}
	return nil
}

func textResult(res *websum.BatchResult, indent string) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString(indent)
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("URL: %s", res.URL)
	if res.Metadata != nil && res.Metadata.Title != "" {
		line("Title: %s", res.Metadata.Title)
	}
	if res.Failed() {
		line("Error: %s", res.Error.Error())
	} else {
		line("Summary:")
		for _, l := range strings.Split(res.Summary, "\n") {
			line("  %s", l)
		}
	}
	if len(res.Tags) > 0 {
		line("Tags: %s", strings.Join(res.Tags, ", "))
	}
	for _, k := range slices.Sorted(maps.Keys(res.Analysis)) {
		line("%s: %v", k, res.Analysis[k])
	}
	if res.Retries > 0 {
		line("Retries: %d", res.Retries)
	}
	for _, link := range res.Links {
		b.WriteByte('\n')
		b.WriteString(textResult(link, indent+"    "))
	}
	return b.String()
}

func textReport(report *websum.BatchReport) string {
	var b strings.Builder
	for i, res := range report.Results {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		b.WriteString(textResult(res, ""))
	}
	if report.Comparative != "" {
		b.WriteString("\n=== Comparative analysis ===\n\n")
		b.WriteString(report.Comparative)
		b.WriteByte('\n')
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(&b, "\nWarning: %s", w)
	}
	if len(report.Warnings) > 0 {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n%d succeeded, %d failed in %s\n",
		len(report.Succeeded()), report.FailedCount(), report.Duration.Round(time.Millisecond))
	return b.String()
}

func markdownResult(res *websum.BatchResult, heading string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", heading, res.Title())
	fmt.Fprintf(&b, "<%s>\n\n", res.URL)
	if res.Failed() {
		fmt.Fprintf(&b, "**Error** (`%s`): %s\n", res.Error.Code, res.Error.Message)
	} else {
		b.WriteString(res.Summary)
		b.WriteByte('\n')
	}
	if len(res.Tags) > 0 {
		tags := make([]string, len(res.Tags))
		for i, t := range res.Tags {
			tags[i] = "`" + t + "`"
		}
		fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(tags, " "))
	}
	if len(res.Analysis) > 0 {
		b.WriteString("\n| Analysis | Value |\n|---|---|\n")
		for _, k := range slices.Sorted(maps.Keys(res.Analysis)) {
			fmt.Fprintf(&b, "| %s | %v |\n", k, res.Analysis[k])
		}
	}
	for _, link := range res.Links {
		b.WriteByte('\n')
		b.WriteString(markdownResult(link, heading+"#"))
	}
	return b.String()
}

func markdownReport(report *websum.BatchReport) string {
	var b strings.Builder
	b.WriteString("# Batch summary\n")
	for _, res := range report.Results {
		b.WriteByte('\n')
		b.WriteString(markdownResult(res, "##"))
	}
	if report.Comparative != "" {
		b.WriteString("\n## Comparative analysis\n\n")
		b.WriteString(report.Comparative)
		b.WriteByte('\n')
	}
	if len(report.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	fmt.Fprintf(&b, "\n_%d succeeded, %d failed_\n", len(report.Succeeded()), report.FailedCount())
	return b.String()
}

func reportDocument(report *websum.BatchReport) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("report")
	root.CreateAttr("runId", report.RunID)
	root.CreateAttr("succeeded", strconv.Itoa(len(report.Succeeded())))
	root.CreateAttr("failed", strconv.Itoa(report.FailedCount()))
	root.CreateAttr("durationMs", strconv.FormatInt(report.Duration.Milliseconds(), 10))

	results := root.CreateElement("results")
	for _, res := range report.Results {
		resultElement(results, res)
	}
	if report.Comparative != "" {
		root.CreateElement("comparative").SetText(report.Comparative)
	}
	if len(report.Warnings) > 0 {
		warnings := root.CreateElement("warnings")
		for _, w := range report.Warnings {
			warnings.CreateElement("warning").SetText(w)
		}
	}
	return doc
}

func resultElement(parent *etree.Element, res *websum.BatchResult) {
	el := parent.CreateElement("result")
	el.CreateAttr("url", res.URL)
	if res.Retries > 0 {
		el.CreateAttr("retries", strconv.Itoa(res.Retries))
	}
	el.CreateAttr("processingMs", strconv.FormatInt(res.ProcessingTime.Milliseconds(), 10))

	if res.Metadata != nil {
		if res.Metadata.Title != "" {
			el.CreateElement("title").SetText(res.Metadata.Title)
		}
		if res.Metadata.Description != "" {
			el.CreateElement("description").SetText(res.Metadata.Description)
		}
	}
	if res.Failed() {
		e := el.CreateElement("error")
		e.CreateAttr("code", res.Error.Code)
		e.SetText(res.Error.Message)
	} else {
		el.CreateElement("summary").SetText(res.Summary)
	}
	if res.ContentHash != "" {
		el.CreateElement("contentHash").SetText(res.ContentHash)
	}
	if res.Tokens > 0 {
		el.CreateElement("tokens").SetText(strconv.Itoa(res.Tokens))
	}
	if len(res.Tags) > 0 {
		tags := el.CreateElement("tags")
		for _, t := range res.Tags {
			tags.CreateElement("tag").SetText(t)
		}
	}
	if len(res.Analysis) > 0 {
		analysis := el.CreateElement("analysis")
		for _, k := range slices.Sorted(maps.Keys(res.Analysis)) {
			item := analysis.CreateElement("item")
			item.CreateAttr("key", k)
			item.SetText(fmt.Sprint(res.Analysis[k]))
		}
	}
	if res.Content != "" {
		el.CreateElement("content").SetText(res.Content)
	}
	if len(res.Links) > 0 {
		links := el.CreateElement("links")
		for _, link := range res.Links {
			resultElement(links, link)
		}
	}
}
