package models

// Issue comment actions delivered by GitHub
const (
	ActionCreated = "created"
	ActionEdited  = "edited"
)

// Repository identifies the repository a delivery belongs to
type Repository struct {
	Owner    string
	Name     string
	FullName string
}

// PullRequestRef is present on issues that are pull requests.
// URL is the API URL of the pull request (".../pulls/{number}").
type PullRequestRef struct {
	URL string
}

// IssueRef is the issue (or pull request) a comment was posted on
type IssueRef struct {
	Number      int
	PullRequest *PullRequestRef
}

// IsPullRequest reports whether the issue is a pull request
func (i IssueRef) IsPullRequest() bool {
	return i.PullRequest != nil
}

// Comment is the comment that triggered the delivery
type Comment struct {
	Body   string
	Author string
}

// WebhookEvent is one issue_comment delivery. It is built once per request
// and never mutated.
type WebhookEvent struct {
	DeliveryID     string
	Action         string
	Comment        Comment
	PreviousBody   string // only set for edited actions
	Repository     Repository
	Issue          IssueRef
	InstallationID int64 // zero unless delivered to a GitHub App
}
