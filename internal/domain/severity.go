package domain

import "strings"

// Severity levels in increasing order of weight.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// severityRank maps normalized severities to their ordering weight.
// Unknown severities rank below low so they never pass a threshold
// they were not asked for.
var severityRank = map[string]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// NormalizeSeverity lowercases and trims a severity label.
func NormalizeSeverity(sev string) string {
	return strings.ToLower(strings.TrimSpace(sev))
}

// SeverityRank returns the ordering weight for a severity label.
// Unknown labels return 0.
func SeverityRank(sev string) int {
	return severityRank[NormalizeSeverity(sev)]
}

// ValidSeverity reports whether sev is one of the recognized levels.
func ValidSeverity(sev string) bool {
	_, ok := severityRank[NormalizeSeverity(sev)]
	return ok
}

// SeverityAtLeast reports whether sev meets or exceeds the threshold.
// An unrecognized threshold admits everything.
func SeverityAtLeast(sev, threshold string) bool {
	min, ok := severityRank[NormalizeSeverity(threshold)]
	if !ok {
		return true
	}
	return SeverityRank(sev) >= min
}
