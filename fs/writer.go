// Package fs writes summarized pages to a directory tree as markdown files.
package fs

import (
	"bytes"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/websum"
	"gopkg.in/yaml.v3"
)

// URLToPath converts a page URL to a relative file path under its host.
// Example: https://example.com/docs/api/users → example.com/docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", websum.WrapError(websum.EINVALID, err, "invalid URL")
	}
	if u.Host == "" {
		return "", websum.Errorf(websum.EINVALID, "URL %q has no host", rawURL)
	}
	host := strings.ReplaceAll(strings.ToLower(u.Host), ":", "_")

	// Cleaning under a rooted path drops any ".." that would escape the host.
	p := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	switch {
	case p == "":
		p = "index.md"
	case strings.HasSuffix(u.Path, "/"):
		p += "/index.md"
	default:
		p += ".md"
	}
	return host + "/" + p, nil
}

// Frontmatter is the YAML header of a written page.
type Frontmatter struct {
	Source      string   `yaml:"source"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Summarized  string   `yaml:"summarized"`
	Tags        []string `yaml:"tags,omitempty"`
	ContentHash string   `yaml:"content_hash,omitempty"`
}

// FormatResult renders a successful result as markdown with YAML
// frontmatter, followed by the summary and the page content.
func FormatResult(r *websum.BatchResult) (string, error) {
	fm := Frontmatter{
		Source:      r.URL,
		Title:       r.Title(),
		Tags:        r.Tags,
		ContentHash: r.ContentHash,
	}
	if r.Metadata != nil {
		fm.Description = r.Metadata.Description
		fm.Summarized = r.Metadata.Timestamp.Format("2006-01-02")
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n# ")
	b.WriteString(fm.Title)
	b.WriteString("\n\n## Summary\n\n")
	b.WriteString(strings.TrimSpace(r.Summary))
	b.WriteString("\n")
	if content := strings.TrimSpace(r.Content); content != "" {
		b.WriteString("\n## Content\n\n")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

var _ websum.ResultWriter = (*Writer)(nil)

// Writer writes successful results as markdown files to a directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Write stores r at its URLToPath location. Failed results are skipped.
func (w *Writer) Write(r *websum.BatchResult) error {
	if r == nil || !r.Succeeded() {
		return nil
	}

	relPath, err := URLToPath(r.URL)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(w.baseDir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return websum.WrapError(websum.ERESOURCE, err, "creating directory for %s", r.URL)
	}

	content, err := FormatResult(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return websum.WrapError(websum.ERESOURCE, err, "writing %s", fullPath)
	}
	return nil
}
