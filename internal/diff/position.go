package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderPattern extracts the new-file start line from a hunk header,
// e.g. "@@ -10,7 +10,8 @@ func example() {" captures "10".
var hunkHeaderPattern = regexp.MustCompile(`\+(\d+)(?:,\d+)?`)

// FindPosition returns the 1-based position of targetLine within the patch's
// line stream, or nil when the line cannot be resolved.
//
// Every line of the patch occupies one position, hunk headers and file
// metadata included. A hunk header seeds the running new-file counter from
// its +start field; added lines ("+", but not the "+++" metadata line) and
// context lines advance the counter, removed lines and "\ No newline"
// markers do not. Only an added line can terminate the scan: a target that
// lands on a context line's coordinate is deliberately unresolvable, since
// the hosting API only accepts comments on changed lines we produced.
//
// Malformed hunk headers are skipped without resetting the counter rather
// than aborting the scan; a missed mapping costs one comment, not the batch.
// The function is pure and never returns an error.
func FindPosition(patch string, targetLine int) *int {
	if patch == "" || targetLine <= 0 {
		return nil
	}

	position := 0
	currentNewLine := 0

	for _, line := range strings.Split(patch, "\n") {
		position++

		switch {
		case strings.HasPrefix(line, "@@"):
			if start, ok := parseNewStart(line); ok {
				currentNewLine = start - 1
			}
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			currentNewLine++
			if currentNewLine == targetLine {
				return intPtr(position)
			}
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "\\"):
			// Removed lines and no-newline markers have no coordinate
			// in the new file.
		default:
			currentNewLine++
		}
	}

	return nil
}

// parseNewStart extracts the new-file start line from a hunk header.
// Returns false for headers whose new-file field cannot be parsed.
func parseNewStart(header string) (int, bool) {
	matches := hunkHeaderPattern.FindStringSubmatch(header)
	if len(matches) < 2 {
		return 0, false
	}
	start, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return start, true
}

func intPtr(n int) *int {
	return &n
}
