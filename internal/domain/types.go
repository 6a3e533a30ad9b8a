package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
	FileStatusRenamed  = "renamed"
)

// PullRequest holds the metadata the reviewer needs from the hosting API.
type PullRequest struct {
	Number  int
	Title   string
	Body    string
	HeadSHA string
	BaseRef string
	HeadRef string
}

// ChangedFile is one file entry from the pull request's file list.
// Patch is empty for binary, removed, or oversized files; such files
// cannot receive inline comments and are skipped before review.
type ChangedFile struct {
	Path      string
	Status    string
	Patch     string
	Additions int
	Deletions int
}

// HasPatch reports whether the file carries reviewable diff text.
func (f ChangedFile) HasPatch() bool {
	return f.Patch != ""
}

// Suggestion is a single line-level remark produced by the model for one file.
// Line is a 1-based line number in the new version of the file and must refer
// to a line added in the diff to be postable as an inline comment.
type Suggestion struct {
	ID       string `json:"id"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Category string `json:"category"`
	Comment  string `json:"comment"`
	Snippet  string `json:"snippet,omitempty"`
}

// SuggestionInput captures the information required to create a Suggestion.
type SuggestionInput struct {
	File     string
	Line     int
	Severity string
	Category string
	Comment  string
	Snippet  string
}

// NewSuggestion constructs a Suggestion with a deterministic ID.
func NewSuggestion(input SuggestionInput) Suggestion {
	id := hashSuggestion(input)
	return Suggestion{
		ID:       id,
		File:     input.File,
		Line:     input.Line,
		Severity: NormalizeSeverity(input.Severity),
		Category: input.Category,
		Comment:  input.Comment,
		Snippet:  input.Snippet,
	}
}

func hashSuggestion(input SuggestionInput) string {
	payload := fmt.Sprintf("%s|%d|%s|%s|%s",
		input.File,
		input.Line,
		NormalizeSeverity(input.Severity),
		input.Category,
		input.Comment,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// FileReview is the model's output for a single file.
type FileReview struct {
	File        string
	Summary     string
	Suggestions []Suggestion
	ModelName   string
	TokensIn    int
	TokensOut   int
	Cost        float64
}

// ReviewComment is the triple the hosting API's review endpoint accepts.
// Position is the 1-based index into the file's diff line stream, not a
// file line number.
type ReviewComment struct {
	Path     string
	Position int
	Body     string
}
