package http

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Match from ```json (or ```) at the start to the LAST ``` in the
	// text (greedy), so code fences inside suggestion bodies don't cut
	// the block short.
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*)```")
)

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks.
//
// Supports both ```json and ``` code blocks. Uses greedy matching to extract
// content from the first opening backticks to the LAST closing backticks,
// which keeps nested fences (example code inside a suggestion) intact.
// Returns extracted JSON or the original text if no code block is found.
func ExtractJSONFromMarkdown(text string) string {
	matches := jsonBlockRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	// No code block found, return original text (might be raw JSON)
	return strings.TrimSpace(text)
}

// RawSuggestion is the typed schema a model response must conform to.
type RawSuggestion struct {
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Category string `json:"category"`
	Comment  string `json:"comment"`
	Snippet  string `json:"snippet,omitempty"`
}

// RawFileReview is the top-level response schema.
type RawFileReview struct {
	Summary     string          `json:"summary"`
	Suggestions []RawSuggestion `json:"suggestions"`
}

// ParseFileReview parses model output into the typed review schema.
// Markdown fences are stripped first; the remainder must be valid JSON and
// every suggestion must carry a positive line number and a non-empty
// comment. Any violation fails the parse; the caller drops that one file's
// review and keeps going, instead of posting comments at made-up positions.
func ParseFileReview(text string) (RawFileReview, error) {
	jsonText := ExtractJSONFromMarkdown(text)

	var result RawFileReview
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return RawFileReview{}, fmt.Errorf("parse review JSON: %w", err)
	}

	for i, s := range result.Suggestions {
		if s.Line <= 0 {
			return RawFileReview{}, fmt.Errorf("suggestion %d: line must be positive, got %d", i, s.Line)
		}
		if strings.TrimSpace(s.Comment) == "" {
			return RawFileReview{}, fmt.Errorf("suggestion %d: empty comment", i)
		}
	}

	return result, nil
}
