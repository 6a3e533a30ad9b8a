package review

import (
	"fmt"
	"strings"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// Tone registers for the prompt preamble. An unrecognized tone falls back
// to balanced.
const (
	ToneStrict      = "strict"
	ToneBalanced    = "balanced"
	ToneEncouraging = "encouraging"
)

var toneInstructions = map[string]string{
	ToneStrict:      "Be strict and thorough. Flag every genuine problem you find, including minor ones.",
	ToneBalanced:    "Be balanced. Flag real problems, skip nitpicks that do not affect correctness or maintainability.",
	ToneEncouraging: "Be encouraging. Point out genuine problems constructively and acknowledge good patterns.",
}

// BuildFilePrompt renders the review prompt for one changed file. The
// prompt carries the PR context, the unified diff, the configured review
// rules, and the JSON schema the model must answer with.
func BuildFilePrompt(pr domain.PullRequest, file domain.ChangedFile, opts PromptOptions) string {
	var sb strings.Builder

	sb.WriteString("Review the following code change from a pull request.\n\n")

	sb.WriteString(fmt.Sprintf("Pull request: %s\n", pr.Title))
	if body := strings.TrimSpace(pr.Body); body != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", body))
	}
	sb.WriteString(fmt.Sprintf("File: %s (%s, +%d/-%d)\n\n", file.Path, file.Status, file.Additions, file.Deletions))

	tone := toneInstructions[strings.ToLower(opts.Tone)]
	if tone == "" {
		tone = toneInstructions[ToneBalanced]
	}
	sb.WriteString(tone)
	sb.WriteString("\n\n")

	if len(opts.Rules) > 0 {
		sb.WriteString("Review rules:\n")
		for _, rule := range opts.Rules {
			sb.WriteString(fmt.Sprintf("- %s\n", rule))
		}
		sb.WriteString("\n")
	}

	if len(opts.SkipTopics) > 0 {
		sb.WriteString("Do not comment on: ")
		sb.WriteString(strings.Join(opts.SkipTopics, ", "))
		sb.WriteString(".\n\n")
	}

	sb.WriteString("Unified diff:\n```diff\n")
	sb.WriteString(strings.TrimRight(file.Patch, "\n"))
	sb.WriteString("\n```\n\n")

	sb.WriteString("Line numbers in your suggestions must refer to the NEW version of the file ")
	sb.WriteString("and must point at lines added in this diff.\n\n")

	sb.WriteString("Respond with JSON only, in this exact shape:\n")
	sb.WriteString(`{
  "summary": "one or two sentences about this file's change",
  "suggestions": [
    {
      "line": 42,
      "severity": "low|medium|high|critical",
      "category": "bug|security|performance|style|maintainability",
      "comment": "what is wrong and why it matters",
      "snippet": "optional replacement code for that line"
    }
  ]
}`)
	sb.WriteString("\n\nReturn an empty suggestions array if the change looks good.\n")

	return sb.String()
}
