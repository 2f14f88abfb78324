package services

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/pyama86/gpt-bot/internal/models"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(testTriggers())

	tests := []struct {
		name  string
		event models.WebhookEvent
		want  models.Command
	}{
		{"summary on issue", issueEvent("@bot summary"), models.Command{Kind: models.CommandSummary}},
		{"summary on pull request", pullRequestEvent("@bot summary please"), models.Command{Kind: models.CommandSummary}},
		{"summary with ideographic space", issueEvent("@bot　summary"), models.Command{Kind: models.CommandSummary}},
		{"comment on issue", issueEvent("@bot /comment please refine this"), models.Command{Kind: models.CommandComment}},
		{"comment on pull request is a review", pullRequestEvent("@bot /comment fix"), models.Command{Kind: models.CommandPullRequestReview}},
		{"explicit review", pullRequestEvent("@bot /pr"), models.Command{Kind: models.CommandPullRequestReview}},
		{"bare mention on pull request", pullRequestEvent("hey @bot"), models.Command{Kind: models.CommandPullRequestReview}},
		{"custom instructions", pullRequestEvent("@bot /command check naming\nand typos "), models.Command{Kind: models.CommandPullRequestCustom, Instructions: "check naming\nand typos"}},
		{"custom without instructions", pullRequestEvent("@bot /command   "), models.Command{Kind: models.CommandPullRequestReview}},
		{"unit test", pullRequestEvent("@bot /unittest"), models.Command{Kind: models.CommandPullRequestUnitTest}},
		{"bare mention on issue", issueEvent("@bot hello"), models.Command{Kind: models.CommandUnsupported}},
		{"unit test on issue", issueEvent("@bot /unittest"), models.Command{Kind: models.CommandUnsupported}},
		{"no mention", issueEvent("summary /comment"), models.Command{Kind: models.CommandUnsupported}},
		{"no mention on pull request", pullRequestEvent("/pr"), models.Command{Kind: models.CommandUnsupported}},
		{"case sensitive", issueEvent("@Bot summary"), models.Command{Kind: models.CommandUnsupported}},
		{"suffix without separator", issueEvent("@botsummary"), models.Command{Kind: models.CommandUnsupported}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(tt.event))
		})
	}
}

func TestClassifier_Precedence(t *testing.T) {
	classifier := NewClassifier(testTriggers())

	// summary outranks every pull request sub-command
	got := classifier.Classify(pullRequestEvent("@bot /command do things @bot summary"))
	assert.Equal(t, models.CommandSummary, got.Kind)

	// summary outranks comment
	got = classifier.Classify(issueEvent("@bot /comment x @bot summary"))
	assert.Equal(t, models.CommandSummary, got.Kind)

	// explicit review outranks custom instructions
	got = classifier.Classify(pullRequestEvent("@bot /command foo @bot /pr"))
	assert.Equal(t, models.CommandPullRequestReview, got.Kind)

	// custom outranks unit test
	got = classifier.Classify(pullRequestEvent("@bot /command write tests like @bot /unittest"))
	assert.Equal(t, models.CommandPullRequestCustom, got.Kind)
}

func TestClassifier_Actions(t *testing.T) {
	classifier := NewClassifier(testTriggers())

	deleted := issueEvent("@bot summary")
	deleted.Action = "deleted"
	assert.Equal(t, models.CommandUnsupported, classifier.Classify(deleted).Kind)

	edited := issueEvent("@bot summary")
	edited.Action = models.ActionEdited
	edited.PreviousBody = "draft without a trigger"
	assert.Equal(t, models.CommandSummary, classifier.Classify(edited).Kind)

	edited.PreviousBody = "@bot summ"
	assert.Equal(t, models.CommandIgnored, classifier.Classify(edited).Kind)
}

func TestClassifier_EditedRetriggerDisabled(t *testing.T) {
	classifier := NewClassifier(testTriggers(), WithSkipEditedRetrigger(false))

	edited := issueEvent("@bot summary")
	edited.Action = models.ActionEdited
	edited.PreviousBody = "@bot summary"
	assert.Equal(t, models.CommandSummary, classifier.Classify(edited).Kind)
}

func TestClassifier_EachRuleIndependently(t *testing.T) {
	c := NewClassifier(testTriggers())

	edited := issueEvent("anything")
	edited.Action = models.ActionEdited
	edited.PreviousBody = "@bot"
	cmd, ok := editedRetriggerRule(c, edited)
	assert.True(t, ok)
	assert.Equal(t, models.CommandIgnored, cmd.Kind)

	_, ok = editedRetriggerRule(c, issueEvent("@bot summary"))
	assert.False(t, ok)

	_, ok = summaryRule(c, issueEvent("@bot /comment"))
	assert.False(t, ok)

	_, ok = commentRule(c, pullRequestEvent("@bot /comment"))
	assert.False(t, ok)

	_, ok = pullRequestRule(c, issueEvent("@bot /pr"))
	assert.False(t, ok)

	cmd, ok = pullRequestRule(c, pullRequestEvent("@bot /unittest"))
	assert.True(t, ok)
	assert.Equal(t, models.CommandPullRequestUnitTest, cmd.Kind)
}

func whitespaceGen() gopter.Gen {
	return gen.SliceOf(gen.OneConstOf(" ", "\t", "\n")).Map(func(parts []string) string {
		return strings.Join(parts, "")
	})
}

func TestProperty_SummaryRegardlessOfWhitespace(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 20

	properties := gopter.NewProperties(parameters)
	classifier := NewClassifier(testTriggers())

	properties.Property("mention followed by summary literal always classifies as Summary", prop.ForAll(
		func(leading, separator, trailing string, isPR bool) bool {
			body := leading + "@bot " + separator + "summary" + trailing
			event := issueEvent(body)
			if isPR {
				event = pullRequestEvent(body)
			}
			return classifier.Classify(event).Kind == models.CommandSummary
		},
		whitespaceGen(),
		whitespaceGen(),
		gen.AnyString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestProperty_UntriggeredBodiesAreUnsupported(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	classifier := NewClassifier(testTriggers())

	properties.Property("bodies without the mention are Unsupported", prop.ForAll(
		func(body string, isPR bool) bool {
			event := issueEvent(body)
			if isPR {
				event = pullRequestEvent(body)
			}
			return classifier.Classify(event).Kind == models.CommandUnsupported
		},
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
