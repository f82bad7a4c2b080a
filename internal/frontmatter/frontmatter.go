// Package frontmatter edits the YAML frontmatter block of a note without
// disturbing any other line. The block is line-oriented on purpose: a YAML
// round-trip would reorder keys and normalise quoting, and callers rely on
// every pre-existing line surviving byte-for-byte.
package frontmatter

import (
	"regexp"
	"strings"
)

// IssueURLKey is the frontmatter key that records the created issue.
const IssueURLKey = "gitlab_issue_url"

const marker = "---"

var (
	closingRe  = regexp.MustCompile(`(?m)^---$`)
	issueKeyRe = regexp.MustCompile(`(?m)^` + IssueURLKey + `:.*$`)
)

// SetIssueURL returns text with the issue URL recorded in the leading
// frontmatter block. If the key already exists its value is replaced in
// place; otherwise the key is appended to the end of the block. A note with
// no block gets a fresh one synthesised in front of its content.
func SetIssueURL(text, url string) string {
	entry := IssueURLKey + `: "` + url + `"`

	if strings.HasPrefix(text, marker+"\n") {
		rest := text[len(marker)+1:]
		if loc := closingRe.FindStringIndex(rest); loc != nil {
			block := rest[:loc[0]]
			tail := rest[loc[0]:]
			if key := issueKeyRe.FindStringIndex(block); key != nil {
				block = block[:key[0]] + entry + block[key[1]:]
			} else {
				block += entry + "\n"
			}
			return marker + "\n" + block + tail
		}
	}

	return marker + "\n" + entry + "\n" + marker + "\n" + text
}

// HasBlock reports whether text starts with a complete frontmatter block.
// The line-based detection here is the authority of record; callers holding
// a cached hint from an external index should defer to this.
func HasBlock(text string) bool {
	if !strings.HasPrefix(text, marker+"\n") {
		return false
	}
	return closingRe.MatchString(text[len(marker)+1:])
}
