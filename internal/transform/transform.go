// Package transform rewrites note Markdown into plain text suitable for an
// external issue tracker.
package transform

import (
	"regexp"
	"strings"
)

// EmptyPlaceholder is substituted when a note has no content left after
// stripping frontmatter.
const EmptyPlaceholder = "Created from an empty note."

var (
	// The closing delimiter must be a line of its own; "---extra" does not
	// close a block.
	frontmatterRe = regexp.MustCompile(`(?sm)\A---\n.*?\n---$\n?`)
	wikilinkRe    = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe         = regexp.MustCompile(`#[A-Za-z0-9_-]+`)
)

// Content converts raw note text into an issue description. A leading
// frontmatter block is removed, wikilinks are flattened to their targets, and
// inline tags are wrapped in code spans so the tracker does not render them
// as references.
func Content(text string) string {
	out := StripFrontmatter(text)
	out = wikilinkRe.ReplaceAllString(out, "$1")
	out = tagRe.ReplaceAllString(out, "`$0`")
	out = strings.TrimSpace(out)
	if out == "" {
		return EmptyPlaceholder
	}
	return out
}

// StripFrontmatter removes a single leading frontmatter block, including both
// delimiter lines and the trailing newline. Text without a block at position
// zero is returned unchanged.
func StripFrontmatter(text string) string {
	return frontmatterRe.ReplaceAllString(text, "")
}
