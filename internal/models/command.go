package models

// CommandKind enumerates what a comment asks the bot to do
type CommandKind int

const (
	CommandUnsupported CommandKind = iota
	CommandIgnored
	CommandSummary
	CommandComment
	CommandPullRequestReview
	CommandPullRequestCustom
	CommandPullRequestUnitTest
)

var commandNames = map[CommandKind]string{
	CommandUnsupported:         "unsupported",
	CommandIgnored:             "ignored",
	CommandSummary:             "summary",
	CommandComment:             "comment",
	CommandPullRequestReview:   "pr_review",
	CommandPullRequestCustom:   "pr_custom",
	CommandPullRequestUnitTest: "pr_unittest",
}

var commandTitles = map[CommandKind]string{
	CommandSummary:             "Discussion summary",
	CommandComment:             "Refined comment",
	CommandPullRequestReview:   "Pull request review",
	CommandPullRequestCustom:   "Pull request review (custom instructions)",
	CommandPullRequestUnitTest: "Unit test suggestions",
}

// Title is the heading shown to users for results of this kind
func (k CommandKind) Title() string {
	if title, ok := commandTitles[k]; ok {
		return title
	}
	return "Result"
}

// String returns the label used in logs and metrics
func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is the result of classifying one comment.
// Instructions is only set for CommandPullRequestCustom.
type Command struct {
	Kind         CommandKind
	Instructions string
}

// IsPullRequest reports whether the command operates on a pull request diff
func (c Command) IsPullRequest() bool {
	switch c.Kind {
	case CommandPullRequestReview, CommandPullRequestCustom, CommandPullRequestUnitTest:
		return true
	}
	return false
}

// Runnable reports whether the command goes through the pipeline at all
func (c Command) Runnable() bool {
	return c.Kind != CommandUnsupported && c.Kind != CommandIgnored
}

func (c Command) String() string {
	return c.Kind.String()
}
