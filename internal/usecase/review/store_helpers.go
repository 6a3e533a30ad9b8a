package review

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// newRunID creates a unique, time-ordered run ID.
func newRunID(req Request, pr domain.PullRequest) string {
	now := time.Now()
	ts := now.UTC().Format("20060102T150405Z")

	input := fmt.Sprintf("%s/%s|%d|%s|%d", req.Owner, req.Repo, req.PRNumber, pr.HeadSHA, now.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3])

	return fmt.Sprintf("run-%s-%s", ts, shortHash)
}
