package review_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

func TestBuildFilePrompt_IncludesPRContextAndDiff(t *testing.T) {
	pr := domain.PullRequest{Number: 42, Title: "Add cache", Body: "Speeds up lookups."}
	file := domain.ChangedFile{
		Path:      "internal/cache/cache.go",
		Status:    domain.FileStatusModified,
		Patch:     "@@ -1,2 +1,3 @@\n context\n+added",
		Additions: 1,
		Deletions: 0,
	}

	prompt := review.BuildFilePrompt(pr, file, review.PromptOptions{})

	assert.Contains(t, prompt, "Add cache")
	assert.Contains(t, prompt, "Speeds up lookups.")
	assert.Contains(t, prompt, "internal/cache/cache.go")
	assert.Contains(t, prompt, "+added")
	assert.Contains(t, prompt, `"suggestions"`)
}

func TestBuildFilePrompt_RulesAndSkipTopics(t *testing.T) {
	prompt := review.BuildFilePrompt(domain.PullRequest{Title: "t"}, domain.ChangedFile{Path: "a.go"}, review.PromptOptions{
		Rules:      []string{"Prefer early returns", "Check error wrapping"},
		SkipTopics: []string{"formatting", "import order"},
	})

	assert.Contains(t, prompt, "- Prefer early returns")
	assert.Contains(t, prompt, "- Check error wrapping")
	assert.Contains(t, prompt, "Do not comment on: formatting, import order.")
}

func TestBuildFilePrompt_ToneSelection(t *testing.T) {
	pr := domain.PullRequest{Title: "t"}
	file := domain.ChangedFile{Path: "a.go"}

	strict := review.BuildFilePrompt(pr, file, review.PromptOptions{Tone: review.ToneStrict})
	assert.Contains(t, strict, "Be strict")

	encouraging := review.BuildFilePrompt(pr, file, review.PromptOptions{Tone: "ENCOURAGING"})
	assert.Contains(t, encouraging, "Be encouraging")

	unknown := review.BuildFilePrompt(pr, file, review.PromptOptions{Tone: "sarcastic"})
	assert.Contains(t, unknown, "Be balanced")
}

func TestBuildFilePrompt_EmptyBodyOmitted(t *testing.T) {
	prompt := review.BuildFilePrompt(domain.PullRequest{Title: "t", Body: "  "}, domain.ChangedFile{Path: "a.go"}, review.PromptOptions{})
	assert.NotContains(t, prompt, "Description:")
}

func TestBuildFilePrompt_RequiresNewFileLineNumbers(t *testing.T) {
	prompt := review.BuildFilePrompt(domain.PullRequest{Title: "t"}, domain.ChangedFile{Path: "a.go"}, review.PromptOptions{})
	assert.True(t, strings.Contains(prompt, "NEW version of the file"))
}
