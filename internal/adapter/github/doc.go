// Package github talks to the GitHub REST API for pull request review.
//
// The adapter keeps platform concerns out of the domain layer:
//
//   - Client: fetch PR metadata and changed files, post reviews and comments
//   - PositionedSuggestion: wraps domain.Suggestion with a diff position
//   - MapSuggestions: resolves file line numbers to diff positions so
//     suggestions can be posted as inline comments
//
// Suggestions whose line is not part of the diff get a nil position and
// can only appear in the review summary.
package github
