package websum

// Length selects how long a summary should be.
type Length string

// Summary lengths.
const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Format selects the shape of a summary.
type Format string

// Summary formats.
const (
	FormatParagraphs Format = "paragraphs"
	FormatBullets    Format = "bullets"
	FormatJSON       Format = "json"
)

// OutputMode selects how page content is represented in results and
// how results are rendered.
type OutputMode string

// Output modes.
const (
	OutputText     OutputMode = "text"
	OutputMarkdown OutputMode = "markdown"
	OutputJSON     OutputMode = "json"
	OutputXML      OutputMode = "xml"
)

// Defaults applied by DefaultSummaryOptions and WithDefaults.
const (
	DefaultMaxRetries    = 3
	DefaultMaxChunkChars = 4000

	// MinContentChars is the shortest extracted text worth summarizing.
	MinContentChars = 50
)

// SummaryOptions configures a summarization request. It is a value type:
// callers pass copies and nothing downstream mutates it.
type SummaryOptions struct {
	Length        Length     `json:"length,omitempty" yaml:"length"`
	Format        Format     `json:"format,omitempty" yaml:"format"`
	Plugins       []string   `json:"plugins,omitempty" yaml:"plugins"`
	MaxRetries    int        `json:"maxRetries" yaml:"max_retries"`
	FollowLinks   int        `json:"followLinks,omitempty" yaml:"follow_links"`
	Comparative   bool       `json:"comparative,omitempty" yaml:"comparative"`
	Output        OutputMode `json:"output,omitempty" yaml:"output"`
	MaxChunkChars int        `json:"maxChunkChars,omitempty" yaml:"max_chunk_chars"`
}

// DefaultSummaryOptions returns options for a medium-length paragraph
// summary with three attempts per network call.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		Length:        LengthMedium,
		Format:        FormatParagraphs,
		MaxRetries:    DefaultMaxRetries,
		Output:        OutputText,
		MaxChunkChars: DefaultMaxChunkChars,
	}
}

// WithDefaults returns a copy with zero-valued enums and sizes filled in.
// MaxRetries is left alone because zero is meaningful (a single attempt).
func (o SummaryOptions) WithDefaults() SummaryOptions {
	if o.Length == "" {
		o.Length = LengthMedium
	}
	if o.Format == "" {
		o.Format = FormatParagraphs
	}
	if o.Output == "" {
		o.Output = OutputText
	}
	if o.MaxChunkChars == 0 {
		o.MaxChunkChars = DefaultMaxChunkChars
	}
	return o
}

// Validate returns an error if the options contain invalid fields.
func (o SummaryOptions) Validate() error {
	switch o.Length {
	case LengthShort, LengthMedium, LengthLong:
	default:
		return Errorf(EINVALID, "invalid length %q: must be short, medium or long", o.Length)
	}
	switch o.Format {
	case FormatParagraphs, FormatBullets, FormatJSON:
	default:
		return Errorf(EINVALID, "invalid format %q: must be paragraphs, bullets or json", o.Format)
	}
	switch o.Output {
	case OutputText, OutputMarkdown, OutputJSON, OutputXML:
	default:
		return Errorf(EINVALID, "invalid output mode %q", o.Output)
	}
	if o.MaxRetries < 0 {
		return Errorf(EINVALID, "max retries must not be negative")
	}
	if o.FollowLinks < 0 {
		return Errorf(EINVALID, "follow links must not be negative")
	}
	if o.MaxChunkChars < 0 {
		return Errorf(EINVALID, "max chunk chars must not be negative")
	}
	return nil
}
