package github

import (
	"context"
	"fmt"

	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// ReviewAPI is the slice of Client the poster needs. Narrowed for tests.
type ReviewAPI interface {
	CreateReview(ctx context.Context, input CreateReviewInput) (*CreateReviewResponse, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*IssueCommentResponse, error)
}

// Poster implements the review.Poster port on top of the GitHub API:
// it resolves diff positions, builds the review body, picks the review
// event, and falls back to a plain PR comment when nothing could be
// placed inline.
type Poster struct {
	api         ReviewAPI
	botUsername string
	logger      review.Logger
}

// NewPoster creates a poster backed by the given API client. botUsername
// signs the posted summary when non-empty; logger may be nil.
func NewPoster(api ReviewAPI, botUsername string, logger review.Logger) *Poster {
	return &Poster{api: api, botUsername: botUsername, logger: logger}
}

// PostReview publishes the review.
func (p *Poster) PostReview(ctx context.Context, req review.PostRequest) (*review.PostResult, error) {
	positioned := MapSuggestions(req.Suggestions, req.Files)

	inDiff := CountInDiff(positioned)
	skipped := len(positioned) - inDiff

	for _, ps := range positioned {
		if ps.InDiff() {
			continue
		}
		p.logWarning(ctx, "suggestion line not in diff, folding into summary", map[string]interface{}{
			"file": ps.Suggestion.File,
			"line": ps.Suggestion.Line,
		})
	}

	summary := SignSummary(BuildSummary(req.Reviews, positioned), p.botUsername)

	// Nothing placeable inline: post a single summary comment instead of
	// an empty review, when the caller asked for the fallback.
	if inDiff == 0 && skipped > 0 && req.SummaryFallback {
		comment, err := p.api.CreateIssueComment(ctx, req.Owner, req.Repo, req.PRNumber, summary)
		if err != nil {
			return nil, fmt.Errorf("post summary comment: %w", err)
		}
		return &review.PostResult{
			CommentsPosted:  0,
			CommentsSkipped: skipped,
			HTMLURL:         comment.HTMLURL,
			UsedFallback:    true,
		}, nil
	}

	resp, err := p.api.CreateReview(ctx, CreateReviewInput{
		Owner:       req.Owner,
		Repo:        req.Repo,
		PullNumber:  req.PRNumber,
		CommitSHA:   req.CommitSHA,
		Event:       DetermineReviewEvent(positioned),
		Summary:     summary,
		Suggestions: positioned,
	})
	if err != nil {
		return nil, err
	}

	return &review.PostResult{
		ReviewID:        resp.ID,
		CommentsPosted:  inDiff,
		CommentsSkipped: skipped,
		HTMLURL:         resp.HTMLURL,
	}, nil
}

func (p *Poster) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.LogWarning(ctx, message, fields)
	}
}
