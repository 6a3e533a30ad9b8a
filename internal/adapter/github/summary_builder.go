package github

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

var titleCaser = cases.Title(language.English)

// BuildSummary renders the review body posted with the PR review: per-file
// summaries, a severity breakdown, and a section for suggestions that
// could not be placed inline.
func BuildSummary(reviews []domain.FileReview, positioned []PositionedSuggestion) string {
	var sb strings.Builder

	sb.WriteString("## Automated Review\n\n")

	if len(reviews) == 0 {
		sb.WriteString("No reviewable changes found.\n")
		return sb.String()
	}

	for _, r := range reviews {
		if strings.TrimSpace(r.Summary) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("**`%s`**: %s\n\n", escapeMarkdownInlineCode(r.File), r.Summary))
	}

	if breakdown := formatSeverityBreakdown(positioned); breakdown != "" {
		sb.WriteString(breakdown)
	}

	if appendix := formatOutOfDiffSection(positioned); appendix != "" {
		sb.WriteString("\n---\n\n")
		sb.WriteString(appendix)
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// formatSeverityBreakdown renders suggestion counts per severity, highest
// first. Empty when there are no suggestions.
func formatSeverityBreakdown(positioned []PositionedSuggestion) string {
	if len(positioned) == 0 {
		return ""
	}

	counts := make(map[string]int)
	for _, ps := range positioned {
		counts[domain.NormalizeSeverity(ps.Suggestion.Severity)]++
	}

	severities := make([]string, 0, len(counts))
	for sev := range counts {
		severities = append(severities, sev)
	}
	sort.Slice(severities, func(i, j int) bool {
		return domain.SeverityRank(severities[i]) > domain.SeverityRank(severities[j])
	})

	var sb strings.Builder
	sb.WriteString("### Findings\n\n")
	for _, sev := range severities {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", titleCaser.String(sev), counts[sev]))
	}
	sb.WriteString("\n")
	return sb.String()
}

// formatOutOfDiffSection lists suggestions whose line is not part of the
// diff and therefore could not be posted inline.
func formatOutOfDiffSection(positioned []PositionedSuggestion) string {
	var outOfDiff []PositionedSuggestion
	for _, ps := range positioned {
		if !ps.InDiff() {
			outOfDiff = append(outOfDiff, ps)
		}
	}
	if len(outOfDiff) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### Suggestions Outside the Diff\n\n")
	sb.WriteString("These refer to lines not added in this pull request:\n\n")
	for _, ps := range outOfDiff {
		s := ps.Suggestion
		sb.WriteString(fmt.Sprintf("- **%s** in `%s` (line %d): %s\n",
			titleCaser.String(domain.NormalizeSeverity(s.Severity)),
			escapeMarkdownInlineCode(s.File), s.Line, s.Comment))
	}
	return sb.String()
}

// SignSummary appends an attribution footer so readers can tell which
// account posted the review. A blank username leaves the summary unsigned.
func SignSummary(summary, botUsername string) string {
	if botUsername == "" {
		return summary
	}
	return strings.TrimRight(summary, "\n") +
		fmt.Sprintf("\n\n*Automated review posted by `%s`*\n", escapeMarkdownInlineCode(botUsername))
}

// escapeMarkdownInlineCode escapes characters that would break `code` spans.
func escapeMarkdownInlineCode(s string) string {
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
