// Package websum summarizes web pages with a large language model.
// It renders pages in a headless browser, extracts the main content,
// splits long content into chunks, and produces length- and format-aware
// summaries, one URL at a time or across a batch with comparative analysis.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, gemini/, trafilatura/).
package websum
