package github

import (
	"fmt"
	"strings"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// BuildReviewComments converts positioned suggestions to GitHub review
// comments. Only suggestions with a resolved diff position are included.
// The function is pure and does not modify the input.
func BuildReviewComments(suggestions []PositionedSuggestion) []domain.ReviewComment {
	var comments []domain.ReviewComment

	for _, ps := range suggestions {
		if !ps.InDiff() {
			continue
		}

		comments = append(comments, domain.ReviewComment{
			Path:     ps.Suggestion.File,
			Position: *ps.DiffPosition,
			Body:     FormatSuggestionComment(ps.Suggestion),
		})
	}

	return comments
}

// FormatSuggestionComment formats a suggestion as a GitHub-flavored
// Markdown comment body.
func FormatSuggestionComment(s domain.Suggestion) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("**Severity:** %s", s.Severity))
	if s.Category != "" {
		sb.WriteString(fmt.Sprintf(" | **Category:** %s", s.Category))
	}
	sb.WriteString("\n\n")

	sb.WriteString(s.Comment)
	sb.WriteString("\n")

	if s.Snippet != "" {
		sb.WriteString("\n```suggestion\n")
		sb.WriteString(strings.TrimRight(s.Snippet, "\n"))
		sb.WriteString("\n```\n")
	}

	return sb.String()
}

// DetermineReviewEvent picks the review action from the suggestions that
// made it into the diff:
//   - EventApprove when nothing is placeable inline
//   - EventRequestChanges when any inline suggestion is high or critical
//   - EventComment otherwise
func DetermineReviewEvent(suggestions []PositionedSuggestion) ReviewEvent {
	inDiff := 0
	escalate := false

	for _, ps := range suggestions {
		if !ps.InDiff() {
			continue
		}
		inDiff++
		if domain.SeverityRank(ps.Suggestion.Severity) >= domain.SeverityRank(domain.SeverityHigh) {
			escalate = true
		}
	}

	if inDiff == 0 {
		return EventApprove
	}
	if escalate {
		return EventRequestChanges
	}
	return EventComment
}

// CountInDiff returns how many suggestions resolved to a diff position.
func CountInDiff(suggestions []PositionedSuggestion) int {
	count := 0
	for _, ps := range suggestions {
		if ps.InDiff() {
			count++
		}
	}
	return count
}
