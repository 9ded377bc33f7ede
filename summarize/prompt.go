package summarize

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/fwojciec/websum"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(promptFS, "prompts/*.tmpl"))

var lengthInstructions = map[websum.Length]string{
	websum.LengthShort:  "Write a brief summary of 2-3 sentences.",
	websum.LengthMedium: "Write a summary of 1-2 paragraphs.",
	websum.LengthLong:   "Write a detailed summary of 3-5 paragraphs.",
}

var formatInstructions = map[websum.Format]string{
	websum.FormatParagraphs: "Format the summary as flowing prose paragraphs.",
	websum.FormatBullets:    "Format the summary as a bulleted list of key points, one point per line starting with \"- \".",
	websum.FormatJSON: `Respond with a single JSON object and nothing else, without code fences. ` +
		`Use the fields "summary" (string), "keyPoints" (array of strings) and "topics" (array of strings).`,
}

type directData struct {
	Length, Format, Text string
}

type chunkData struct {
	Part, Total  int
	Format, Text string
}

type synthesisData struct {
	Length, Format string
	Sections       []string
}

type comparedPage struct {
	Title, URL, Summary string
}

type comparativeData struct {
	Format string
	Pages  []comparedPage
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := prompts.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", name, err)
	}
	return sb.String(), nil
}

func directPrompt(text string, opts websum.SummaryOptions) (string, error) {
	return render("direct.tmpl", directData{
		Length: lengthInstructions[opts.Length],
		Format: formatInstructions[opts.Format],
		Text:   text,
	})
}

func chunkPrompt(c websum.ContentChunk, opts websum.SummaryOptions) (string, error) {
	return render("chunk.tmpl", chunkData{
		Part:   c.Index + 1,
		Total:  c.Total,
		Format: formatInstructions[opts.Format],
		Text:   c.Content,
	})
}

func synthesisPrompt(sections []string, opts websum.SummaryOptions) (string, error) {
	return render("synthesis.tmpl", synthesisData{
		Length:   lengthInstructions[opts.Length],
		Format:   formatInstructions[opts.Format],
		Sections: sections,
	})
}

func comparativePrompt(results []*websum.BatchResult, opts websum.SummaryOptions) (string, error) {
	pages := make([]comparedPage, len(results))
	for i, r := range results {
		pages[i] = comparedPage{Title: r.Title(), URL: r.URL, Summary: r.Summary}
	}
	return render("comparative.tmpl", comparativeData{
		Format: formatInstructions[opts.Format],
		Pages:  pages,
	})
}
