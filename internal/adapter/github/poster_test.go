package github_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

type fakeReviewAPI struct {
	reviewInputs  []github.CreateReviewInput
	commentBodies []string
	reviewErr     error
}

func (f *fakeReviewAPI) CreateReview(ctx context.Context, input github.CreateReviewInput) (*github.CreateReviewResponse, error) {
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	f.reviewInputs = append(f.reviewInputs, input)
	return &github.CreateReviewResponse{ID: 7, HTMLURL: "https://example.com/review/7"}, nil
}

func (f *fakeReviewAPI) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*github.IssueCommentResponse, error) {
	f.commentBodies = append(f.commentBodies, body)
	return &github.IssueCommentResponse{ID: 9, HTMLURL: "https://example.com/c/9"}, nil
}

func postRequest() review.PostRequest {
	return review.PostRequest{
		Owner:     "acme",
		Repo:      "widgets",
		PRNumber:  42,
		CommitSHA: "abc123",
		Reviews:   []domain.FileReview{{File: "main.go", Summary: "One issue."}},
		Files: []domain.ChangedFile{
			{Path: "main.go", Status: domain.FileStatusModified, Patch: samplePatch},
		},
		SummaryFallback: true,
	}
}

func TestPostReview_InlineComments(t *testing.T) {
	api := &fakeReviewAPI{}
	poster := github.NewPoster(api, "", nil)

	req := postRequest()
	req.Suggestions = []domain.Suggestion{
		{File: "main.go", Line: 1, Severity: "high", Comment: "fix this"},
	}

	result, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.ReviewID)
	assert.Equal(t, 1, result.CommentsPosted)
	assert.Zero(t, result.CommentsSkipped)
	assert.False(t, result.UsedFallback)

	require.Len(t, api.reviewInputs, 1)
	input := api.reviewInputs[0]
	assert.Equal(t, "abc123", input.CommitSHA)
	assert.Equal(t, github.EventRequestChanges, input.Event)
	assert.Contains(t, input.Summary, "One issue.")
}

func TestPostReview_FallbackWhenNothingInline(t *testing.T) {
	api := &fakeReviewAPI{}
	poster := github.NewPoster(api, "", nil)

	req := postRequest()
	// Line 2 is a context line in samplePatch: no diff position.
	req.Suggestions = []domain.Suggestion{
		{File: "main.go", Line: 2, Severity: "medium", Comment: "stale"},
	}

	result, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.UsedFallback)
	assert.Zero(t, result.CommentsPosted)
	assert.Equal(t, 1, result.CommentsSkipped)
	assert.Empty(t, api.reviewInputs)
	require.Len(t, api.commentBodies, 1)
	assert.Contains(t, api.commentBodies[0], "Suggestions Outside the Diff")
}

func TestPostReview_NoSuggestionsApproves(t *testing.T) {
	api := &fakeReviewAPI{}
	poster := github.NewPoster(api, "", nil)

	result, err := poster.PostReview(context.Background(), postRequest())
	require.NoError(t, err)

	assert.False(t, result.UsedFallback)
	require.Len(t, api.reviewInputs, 1)
	assert.Equal(t, github.EventApprove, api.reviewInputs[0].Event)
}

func TestPostReview_MixedPlacement(t *testing.T) {
	api := &fakeReviewAPI{}
	poster := github.NewPoster(api, "", nil)

	req := postRequest()
	req.Suggestions = []domain.Suggestion{
		{File: "main.go", Line: 1, Severity: "low", Comment: "inline"},
		{File: "main.go", Line: 2, Severity: "low", Comment: "summary only"},
	}

	result, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CommentsPosted)
	assert.Equal(t, 1, result.CommentsSkipped)
	require.Len(t, api.reviewInputs, 1)
	assert.Contains(t, api.reviewInputs[0].Summary, "summary only")
}

func TestPostReview_SignsSummaryWithBotUsername(t *testing.T) {
	api := &fakeReviewAPI{}
	poster := github.NewPoster(api, "prr-bot[bot]", nil)

	req := postRequest()
	req.Suggestions = []domain.Suggestion{
		{File: "main.go", Line: 1, Severity: "low", Comment: "nit"},
	}

	_, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, api.reviewInputs, 1)
	assert.Contains(t, api.reviewInputs[0].Summary, "posted by `prr-bot[bot]`")
}

func TestPostReview_FallbackCommentIsSigned(t *testing.T) {
	api := &fakeReviewAPI{}
	poster := github.NewPoster(api, "prr-bot[bot]", nil)

	req := postRequest()
	// Line 2 is a context line in samplePatch: no diff position.
	req.Suggestions = []domain.Suggestion{
		{File: "main.go", Line: 2, Severity: "medium", Comment: "stale"},
	}

	_, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, api.commentBodies, 1)
	assert.Contains(t, api.commentBodies[0], "posted by `prr-bot[bot]`")
}

func TestPostReview_APIErrorPropagates(t *testing.T) {
	api := &fakeReviewAPI{reviewErr: errors.New("boom")}
	poster := github.NewPoster(api, "", nil)

	_, err := poster.PostReview(context.Background(), postRequest())
	assert.Error(t, err)
}
