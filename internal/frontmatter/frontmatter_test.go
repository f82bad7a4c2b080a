package frontmatter

import "testing"

const url = "https://gitlab.example/p/-/issues/7"

func TestSetIssueURL_SynthesisWithoutBlock(t *testing.T) {
	input := "# Heading\nBody text.\n"
	got := SetIssueURL(input, url)
	want := "---\ngitlab_issue_url: \"" + url + "\"\n---\n" + input
	if got != want {
		t.Errorf("SetIssueURL() = %q, want %q", got, want)
	}
}

func TestSetIssueURL_AppendsToExistingBlock(t *testing.T) {
	input := "---\ntitle: My Note\ntags:\n  - go\n---\nBody\n"
	got := SetIssueURL(input, url)
	want := "---\ntitle: My Note\ntags:\n  - go\ngitlab_issue_url: \"" + url + "\"\n---\nBody\n"
	if got != want {
		t.Errorf("SetIssueURL() = %q, want %q", got, want)
	}
}

func TestSetIssueURL_ReplacesExistingKeyInPlace(t *testing.T) {
	input := "---\ngitlab_issue_url: \"https://old.example/1\"\ntitle: Keep Me\n---\nBody\n"
	got := SetIssueURL(input, url)
	want := "---\ngitlab_issue_url: \"" + url + "\"\ntitle: Keep Me\n---\nBody\n"
	if got != want {
		t.Errorf("SetIssueURL() = %q, want %q", got, want)
	}
}

func TestSetIssueURL_Idempotent(t *testing.T) {
	input := "---\ntitle: Note\n---\nBody\n"
	once := SetIssueURL(input, url)
	twice := SetIssueURL(once, url)
	if once != twice {
		t.Errorf("second application changed the text:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestSetIssueURL_PreservesUnrelatedLinesVerbatim(t *testing.T) {
	input := "---\nkey1:   spaced value\t\n# a comment\nkey2: \"quoted\"\n---\nBody with trailing spaces   \nand more.\n"
	got := SetIssueURL(input, url)
	want := "---\nkey1:   spaced value\t\n# a comment\nkey2: \"quoted\"\ngitlab_issue_url: \"" + url + "\"\n---\nBody with trailing spaces   \nand more.\n"
	if got != want {
		t.Errorf("SetIssueURL() = %q, want %q", got, want)
	}
}

func TestSetIssueURL_EmptyBlock(t *testing.T) {
	input := "---\n---\nBody\n"
	got := SetIssueURL(input, url)
	want := "---\ngitlab_issue_url: \"" + url + "\"\n---\nBody\n"
	if got != want {
		t.Errorf("SetIssueURL() = %q, want %q", got, want)
	}
}

func TestSetIssueURL_UnclosedBlockTreatedAsBody(t *testing.T) {
	input := "---\ntitle: broken\nBody\n"
	got := SetIssueURL(input, url)
	want := "---\ngitlab_issue_url: \"" + url + "\"\n---\n" + input
	if got != want {
		t.Errorf("SetIssueURL() = %q, want %q", got, want)
	}
}

func TestHasBlock(t *testing.T) {
	if !HasBlock("---\na: 1\n---\nbody") {
		t.Error("HasBlock() = false for a complete block")
	}
	if HasBlock("body only") {
		t.Error("HasBlock() = true without a block")
	}
	if HasBlock("---\nunclosed") {
		t.Error("HasBlock() = true for an unclosed block")
	}
}
