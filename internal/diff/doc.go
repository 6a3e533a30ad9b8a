// Package diff maps new-file line numbers onto positions in a unified diff.
//
// The GitHub review-comment API addresses inline comments by position: the
// 1-based index of a line within the file's diff text, counting every line
// including hunk headers. Models hand back line numbers in the new version
// of the file, so posting a comment requires walking the hunk stream and
// translating one coordinate system into the other. That translation is the
// whole of this package.
package diff
