package main

import (
	"fmt"
	"io"
	"os"
)

// writeOutput runs write against path, or stdout when path is empty.
func writeOutput(deps *Dependencies, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(deps.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Fprintf(deps.Stderr, "Wrote %s\n", path)
	return nil
}
