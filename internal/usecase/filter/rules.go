// Package filter holds the pure predicates that decide which files and
// suggestions participate in a review. All decisions are functions over an
// explicit Rules value so they can be exercised in tests without touching
// configuration loading.
package filter

import (
	"path"
	"sort"
	"strings"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// Rules captures the review scoping configuration.
type Rules struct {
	// SkipGlobs are fnmatch-style patterns for files that are never
	// reviewed. A pattern matches against the full path, the basename,
	// or as a directory prefix when it ends with "/*".
	SkipGlobs []string

	// FocusGlobs restricts the review to matching paths. Empty means
	// every non-skipped file is in focus. Entries ending with "/" match
	// as path prefixes; anything else matches like SkipGlobs.
	FocusGlobs []string

	// MinSeverity is the lowest severity worth reporting.
	MinSeverity string

	// MaxCommentsPerFile caps suggestions per file after severity
	// filtering. Zero or negative means unlimited.
	MaxCommentsPerFile int
}

// ShouldSkip reports whether the file at p is excluded from review.
func (r Rules) ShouldSkip(p string) bool {
	for _, pattern := range r.SkipGlobs {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// InFocus reports whether the file at p is inside the configured focus.
// An empty focus list keeps everything in scope.
func (r Rules) InFocus(p string) bool {
	if len(r.FocusGlobs) == 0 {
		return true
	}
	for _, pattern := range r.FocusGlobs {
		if strings.HasSuffix(pattern, "/") {
			if strings.HasPrefix(p, pattern) {
				return true
			}
			continue
		}
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// FilterSuggestions drops suggestions below the severity threshold and caps
// the remainder at MaxCommentsPerFile, keeping the highest severities.
// Ordering within a severity is preserved. The input slice is not modified.
func (r Rules) FilterSuggestions(suggestions []domain.Suggestion) []domain.Suggestion {
	kept := make([]domain.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if domain.SeverityAtLeast(s.Severity, r.MinSeverity) {
			kept = append(kept, s)
		}
	}

	if r.MaxCommentsPerFile <= 0 || len(kept) <= r.MaxCommentsPerFile {
		return kept
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return domain.SeverityRank(kept[i].Severity) > domain.SeverityRank(kept[j].Severity)
	})
	return kept[:r.MaxCommentsPerFile]
}

// matchPattern implements the fnmatch-flavored matching used by the skip
// list: a glob against the full path, a glob against the basename, or a
// directory-prefix match for patterns ending with "/*".
func matchPattern(pattern, p string) bool {
	if pattern == "" {
		return false
	}

	if strings.HasSuffix(pattern, "/*") {
		dir := strings.TrimSuffix(pattern, "/*")
		if p == dir || strings.HasPrefix(p, dir+"/") {
			return true
		}
	}

	if ok, err := path.Match(pattern, p); err == nil && ok {
		return true
	}
	if ok, err := path.Match(pattern, path.Base(p)); err == nil && ok {
		return true
	}

	// Bare substrings like ".yml" in the skip list behave as suffix
	// matches, mirroring how loose entries are commonly written.
	if !strings.ContainsAny(pattern, "*?[") && strings.HasSuffix(p, pattern) {
		return true
	}

	return false
}
