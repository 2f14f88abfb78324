package services

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/pyama86/gpt-bot/internal/models"
)

//go:embed templates/*.tmpl
var promptTemplates embed.FS

// DefaultOutputLanguage is the language completions are written in
const DefaultOutputLanguage = "Japanese"

// promptData is what every template receives
type promptData struct {
	Language     string
	Content      string
	Instructions string
}

// PromptRenderer turns fetched content into the prompt for one command
type PromptRenderer struct {
	language  string
	templates *template.Template
}

// NewPromptRenderer parses the embedded templates
func NewPromptRenderer(language string) (*PromptRenderer, error) {
	if strings.TrimSpace(language) == "" {
		language = DefaultOutputLanguage
	}
	tmpl, err := template.ParseFS(promptTemplates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &PromptRenderer{language: language, templates: tmpl}, nil
}

func templateFor(kind models.CommandKind) (string, bool) {
	switch kind {
	case models.CommandComment:
		return "refine.tmpl", true
	case models.CommandPullRequestReview:
		return "review.tmpl", true
	case models.CommandPullRequestCustom:
		return "custom.tmpl", true
	case models.CommandPullRequestUnitTest:
		return "unittest.tmpl", true
	case models.CommandSummary:
		return "summary.tmpl", true
	default:
		return "", false
	}
}

// Render produces the prompt text. Output depends only on its inputs.
func (r *PromptRenderer) Render(cmd models.Command, blob models.ContentBlob) (string, error) {
	name, ok := templateFor(cmd.Kind)
	if !ok {
		return "", fmt.Errorf("no prompt template for command %s", cmd)
	}

	data := promptData{
		Language:     r.language,
		Content:      blob.Text,
		Instructions: cmd.Instructions,
	}

	var sb strings.Builder
	if err := r.templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("execute prompt template %s: %w", name, err)
	}
	return sb.String(), nil
}
