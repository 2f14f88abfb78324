package models

// ContentKind tags what a ContentBlob holds
type ContentKind string

const (
	ContentIssueComment ContentKind = "issue_comment"
	ContentPullRequest  ContentKind = "pr_diff"
	ContentIssueThread  ContentKind = "issue_thread"
)

// DiffStats summarizes a pull request diff
type DiffStats struct {
	Files   int
	Added   int
	Deleted int
}

// ContentBlob is the text fetched for a command, consumed by the prompt
// renderer within the same request.
type ContentBlob struct {
	Kind  ContentKind
	Text  string
	Stats DiffStats // only for ContentPullRequest
}

// Empty reports whether nothing usable was fetched
func (b ContentBlob) Empty() bool {
	return b.Text == ""
}
