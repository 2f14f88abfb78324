package services

import (
	"context"
	"errors"
	"sync"

	"github.com/pyama86/gpt-bot/internal/config"
	"github.com/pyama86/gpt-bot/internal/models"
)

func testTriggers() config.Triggers {
	return config.Triggers{
		Mention:     "@bot",
		Summary:     "summary",
		Comment:     "/comment",
		PullRequest: "/pr",
		Custom:      "/command",
		UnitTest:    "/unittest",
	}
}

func testRepo() models.Repository {
	return models.Repository{Owner: "org", Name: "repo", FullName: "org/repo"}
}

func issueEvent(body string) models.WebhookEvent {
	return models.WebhookEvent{
		Action:     models.ActionCreated,
		Comment:    models.Comment{Body: body, Author: "alice"},
		Repository: testRepo(),
		Issue:      models.IssueRef{Number: 4},
	}
}

func pullRequestEvent(body string) models.WebhookEvent {
	event := issueEvent(body)
	event.Issue.PullRequest = &models.PullRequestRef{URL: "https://api.github.com/repos/org/repo/pulls/4"}
	return event
}

// fakeGitHub records writes and serves canned reads
type fakeGitHub struct {
	mu sync.Mutex

	issue    *Issue
	comments []IssueComment
	files    []PullRequestFile

	getIssueErr     error
	listCommentsErr error
	listFilesErr    error
	createErr       error
	editErr         error

	createdComments []string
	editedBodies    []string
	filesURL        string
}

func (f *fakeGitHub) GetIssue(_ context.Context, _ models.Repository, number int) (*Issue, error) {
	if f.getIssueErr != nil {
		return nil, f.getIssueErr
	}
	if f.issue == nil {
		return &Issue{Number: number}, nil
	}
	issue := *f.issue
	return &issue, nil
}

func (f *fakeGitHub) ListIssueComments(_ context.Context, _ models.Repository, _ int) ([]IssueComment, error) {
	if f.listCommentsErr != nil {
		return nil, f.listCommentsErr
	}
	return f.comments, nil
}

func (f *fakeGitHub) ListPullRequestFiles(_ context.Context, url string) ([]PullRequestFile, error) {
	f.filesURL = url
	if f.listFilesErr != nil {
		return nil, f.listFilesErr
	}
	return f.files, nil
}

func (f *fakeGitHub) CreateComment(_ context.Context, _ models.Repository, _ int, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.createdComments = append(f.createdComments, body)
	return nil
}

func (f *fakeGitHub) EditIssueBody(_ context.Context, _ models.Repository, _ int, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.editedBodies = append(f.editedBodies, body)
	if f.issue == nil {
		f.issue = &Issue{}
	}
	f.issue.Body = body
	return nil
}

// charCounter counts one token per character
type charCounter struct {
	err error
}

func (c charCounter) CountTokens(text string) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return len([]rune(text)), nil
}

var errBoom = errors.New("boom")
