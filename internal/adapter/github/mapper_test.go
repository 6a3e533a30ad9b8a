package github_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

const samplePatch = "@@ -1,3 +1,4 @@\n+added line one\n context line\n+added line three\n-removed line"

func TestMapSuggestions_AddedLineGetsPosition(t *testing.T) {
	files := []domain.ChangedFile{
		{Path: "main.go", Status: domain.FileStatusModified, Patch: samplePatch},
	}
	suggestions := []domain.Suggestion{
		{File: "main.go", Line: 1, Severity: "low", Comment: "c"},
	}

	positioned := github.MapSuggestions(suggestions, files)

	require.Len(t, positioned, 1)
	require.True(t, positioned[0].InDiff())
	assert.Equal(t, 2, *positioned[0].DiffPosition)
}

func TestMapSuggestions_ContextLineHasNoPosition(t *testing.T) {
	files := []domain.ChangedFile{
		{Path: "main.go", Status: domain.FileStatusModified, Patch: samplePatch},
	}
	suggestions := []domain.Suggestion{
		{File: "main.go", Line: 2, Severity: "low", Comment: "c"},
	}

	positioned := github.MapSuggestions(suggestions, files)

	require.Len(t, positioned, 1)
	assert.False(t, positioned[0].InDiff())
}

func TestMapSuggestions_UnknownFileHasNoPosition(t *testing.T) {
	files := []domain.ChangedFile{
		{Path: "main.go", Status: domain.FileStatusModified, Patch: samplePatch},
	}
	suggestions := []domain.Suggestion{
		{File: "other.go", Line: 1, Severity: "low", Comment: "c"},
	}

	positioned := github.MapSuggestions(suggestions, files)

	require.Len(t, positioned, 1)
	assert.False(t, positioned[0].InDiff())
}

func TestMapSuggestions_FileWithoutPatchHasNoPosition(t *testing.T) {
	files := []domain.ChangedFile{
		{Path: "image.png", Status: domain.FileStatusAdded, Patch: ""},
	}
	suggestions := []domain.Suggestion{
		{File: "image.png", Line: 1, Severity: "low", Comment: "c"},
	}

	positioned := github.MapSuggestions(suggestions, files)

	require.Len(t, positioned, 1)
	assert.False(t, positioned[0].InDiff())
}

func TestMapSuggestions_EmptyInput(t *testing.T) {
	positioned := github.MapSuggestions(nil, nil)
	assert.Empty(t, positioned)
}

func TestMapSuggestions_DoesNotModifyInput(t *testing.T) {
	files := []domain.ChangedFile{
		{Path: "main.go", Status: domain.FileStatusModified, Patch: samplePatch},
	}
	suggestions := []domain.Suggestion{
		{File: "main.go", Line: 3, Severity: "high", Comment: "c"},
	}

	github.MapSuggestions(suggestions, files)

	assert.Equal(t, "main.go", suggestions[0].File)
	assert.Equal(t, 3, suggestions[0].Line)
	assert.Equal(t, samplePatch, files[0].Patch)
}
