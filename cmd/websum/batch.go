package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/output"
)

// Run executes the batch command.
func (c *BatchCmd) Run(deps *Dependencies) error {
	opts := c.Apply(deps.Defaults)
	opts.Comparative = c.Comparative
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", websum.ErrorMessage(err))
		return err
	}

	renderer, err := output.NewRenderer(opts.Output)
	if err != nil {
		return err
	}

	urls, err := c.collectURLs(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", websum.ErrorMessage(err))
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stderr, "error: no URLs to summarize. Pass URLs as arguments, --file or --sitemap.")
		return websum.Errorf(websum.EINVALID, "no URLs to summarize")
	}

	report, err := deps.Service.SummarizeBatch(deps.Ctx, urls, opts, progressPrinter(deps.Stderr))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", websum.ErrorMessage(err))
		return err
	}

	if c.OutDir != "" && deps.Writer != nil {
		written := 0
		for _, res := range report.Succeeded() {
			if err := deps.Writer.Write(res); err != nil {
				fmt.Fprintf(deps.Stderr, "warning: %s: %s\n", res.URL, websum.ErrorMessage(err))
				continue
			}
			written++
		}
		fmt.Fprintf(deps.Stderr, "Saved %d pages to %s\n", written, c.OutDir)
	}

	return writeOutput(deps, c.Out, func(w io.Writer) error {
		return renderer.WriteReport(w, report)
	})
}

// collectURLs gathers URLs from arguments, then the file, then the
// sitemap, keeping their order.
func (c *BatchCmd) collectURLs(deps *Dependencies) ([]string, error) {
	urls := append([]string(nil), c.URLs...)

	if c.File != "" {
		fromFile, err := readURLFile(c.File)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}

	if c.Sitemap != "" {
		filter, err := c.filter()
		if err != nil {
			return nil, err
		}
		discovered, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, c.Sitemap, filter)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(deps.Stderr, "Found %d URLs in sitemap\n", len(discovered))
		urls = append(urls, discovered...)
	}

	return urls, nil
}

func (c *BatchCmd) filter() (*websum.URLFilter, error) {
	filter := &websum.URLFilter{Limit: c.Limit}
	for _, p := range c.Include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, websum.Errorf(websum.EINVALID, "invalid include pattern %q: %v", p, err)
		}
		filter.Include = append(filter.Include, re)
	}
	for _, p := range c.Exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, websum.Errorf(websum.EINVALID, "invalid exclude pattern %q: %v", p, err)
		}
		filter.Exclude = append(filter.Exclude, re)
	}
	return filter, nil
}

// readURLFile reads one URL per line. Blank lines and lines starting
// with # are skipped.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	return urls, nil
}

func progressPrinter(w io.Writer) websum.ProgressFunc {
	return func(e websum.ProgressEvent) {
		switch e.Type {
		case websum.ProgressURLStarted:
			fmt.Fprintf(w, "[%d/%d] %s\n", e.Index+1, e.Total, e.URL)
		case websum.ProgressURLFailed:
			fmt.Fprintf(w, "[%d/%d] failed: %s\n", e.Index+1, e.Total, websum.ErrorMessage(e.Err))
		case websum.ProgressRecycled:
			if e.Err != nil {
				fmt.Fprintf(w, "Browser recycle failed after %d URLs: %s\n", e.Index+1, websum.ErrorMessage(e.Err))
				return
			}
			fmt.Fprintf(w, "Browser recycled after %d URLs\n", e.Index+1)
		}
	}
}
