package github

import (
	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// PositionedSuggestion wraps a domain.Suggestion with its GitHub diff
// position. The type lives in the adapter layer to keep the domain layer
// platform-agnostic.
type PositionedSuggestion struct {
	// Suggestion is the original domain suggestion.
	Suggestion domain.Suggestion

	// DiffPosition is the 1-based index into the file's diff line stream,
	// counting every line of the patch. nil means the suggestion's line is
	// not an added line of the diff and cannot receive an inline comment.
	DiffPosition *int
}

// InDiff reports whether the suggestion can receive an inline PR comment.
func (ps PositionedSuggestion) InDiff() bool {
	return ps.DiffPosition != nil
}

// MapSuggestions resolves each suggestion's file line number to a diff
// position using the patches of the changed files. Suggestions for files
// without a patch, or on lines the diff did not add, get a nil position.
//
// The function is pure and does not modify its inputs.
func MapSuggestions(suggestions []domain.Suggestion, files []domain.ChangedFile) []PositionedSuggestion {
	if len(suggestions) == 0 {
		return []PositionedSuggestion{}
	}

	patches := make(map[string]string, len(files))
	for _, f := range files {
		if f.HasPatch() {
			patches[f.Path] = f.Patch
		}
	}

	result := make([]PositionedSuggestion, len(suggestions))
	for i, s := range suggestions {
		ps := PositionedSuggestion{Suggestion: s}
		if patch, ok := patches[s.File]; ok {
			ps.DiffPosition = diff.FindPosition(patch, s.Line)
		}
		result[i] = ps
	}

	return result
}
