package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/output"
)

// Run executes the summarize command.
func (c *SummarizeCmd) Run(deps *Dependencies) error {
	opts := c.Apply(deps.Defaults)
	opts.FollowLinks = c.FollowLinks
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", websum.ErrorMessage(err))
		return err
	}

	renderer, err := output.NewRenderer(opts.Output)
	if err != nil {
		return err
	}

	result, err := deps.Service.SummarizeURL(deps.Ctx, c.URL, opts)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", websum.ErrorMessage(err))
		return err
	}

	return writeOutput(deps, c.Out, func(w io.Writer) error {
		return renderer.WriteResult(w, result)
	})
}
