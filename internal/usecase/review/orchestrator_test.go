package review_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/filter"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

type fakeSource struct {
	pr    domain.PullRequest
	files []domain.ChangedFile
	prErr error
}

func (f *fakeSource) GetPullRequest(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error) {
	return f.pr, f.prErr
}

func (f *fakeSource) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error) {
	return f.files, nil
}

type fakeProvider struct {
	mu      sync.Mutex
	calls   []string
	reviews map[string]domain.FileReview
	errs    map[string]error
}

func (f *fakeProvider) ReviewFile(ctx context.Context, file domain.ChangedFile, prompt string) (domain.FileReview, error) {
	f.mu.Lock()
	f.calls = append(f.calls, file.Path)
	f.mu.Unlock()

	if err, ok := f.errs[file.Path]; ok {
		return domain.FileReview{}, err
	}
	if r, ok := f.reviews[file.Path]; ok {
		return r, nil
	}
	return domain.FileReview{File: file.Path, Summary: "ok"}, nil
}

type fakePoster struct {
	mu       sync.Mutex
	requests []review.PostRequest
	result   *review.PostResult
	err      error
}

func (f *fakePoster) PostReview(ctx context.Context, req review.PostRequest) (*review.PostResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &review.PostResult{ReviewID: 1}, nil
}

type fakeStore struct {
	runs        []review.StoreRun
	suggestions []review.StoreSuggestion
	saveRunErr  error
}

func (f *fakeStore) SaveRun(ctx context.Context, run review.StoreRun) error {
	if f.saveRunErr != nil {
		return f.saveRunErr
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) SaveSuggestions(ctx context.Context, runID string, suggestions []review.StoreSuggestion) error {
	f.suggestions = append(f.suggestions, suggestions...)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeCheckout struct {
	headSHA   string
	headErr   error
	branch    string
	branchErr error
}

func (f *fakeCheckout) HeadSHA() (string, error)       { return f.headSHA, f.headErr }
func (f *fakeCheckout) CurrentBranch() (string, error) { return f.branch, f.branchErr }

type captureLogger struct {
	mu         sync.Mutex
	warnings   []string
	warnFields []map[string]interface{}
	infos      []string
}

func (l *captureLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, message)
	l.warnFields = append(l.warnFields, fields)
}

func (l *captureLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, message)
}

func testPR() domain.PullRequest {
	return domain.PullRequest{Number: 42, Title: "Add cache", HeadSHA: "abc123", BaseRef: "main", HeadRef: "feature"}
}

func changedFile(path string) domain.ChangedFile {
	return domain.ChangedFile{Path: path, Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+x", Additions: 1}
}

func testRequest() review.Request {
	return review.Request{Owner: "acme", Repo: "widgets", PRNumber: 42}
}

func TestRun_HappyPath(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go"), changedFile("b.go")}}
	provider := &fakeProvider{
		reviews: map[string]domain.FileReview{
			"a.go": {
				File:    "a.go",
				Summary: "One issue.",
				Suggestions: []domain.Suggestion{
					{ID: "1", File: "a.go", Line: 1, Severity: "high", Comment: "fix"},
				},
				TokensIn:  100,
				TokensOut: 40,
				Cost:      0.01,
			},
			"b.go": {File: "b.go", Summary: "Clean.", Cost: 0.005},
		},
	}
	poster := &fakePoster{result: &review.PostResult{ReviewID: 7, CommentsPosted: 1}}
	store := &fakeStore{}

	orch := review.NewOrchestrator(review.Deps{
		Source:          source,
		Provider:        provider,
		Poster:          poster,
		Store:           store,
		SummaryFallback: true,
	})

	result, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesReviewed)
	assert.Zero(t, result.FilesFailed)
	require.Len(t, result.Suggestions, 1)
	assert.InDelta(t, 0.015, result.TotalCost, 1e-9)
	require.NotNil(t, result.PostResult)
	assert.Equal(t, int64(7), result.PostResult.ReviewID)

	require.Len(t, poster.requests, 1)
	assert.Equal(t, "abc123", poster.requests[0].CommitSHA)
	assert.True(t, poster.requests[0].SummaryFallback)

	require.Len(t, store.runs, 1)
	assert.Equal(t, "acme/widgets", store.runs[0].Repository)
	assert.Equal(t, 140, store.runs[0].TokensIn+store.runs[0].TokensOut)
	assert.Len(t, store.suggestions, 1)
	assert.NotEmpty(t, result.RunID)
}

func TestRun_DryRunDoesNotPost(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	poster := &fakePoster{}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: &fakeProvider{},
		Poster:   poster,
	})

	req := testRequest()
	req.DryRun = true
	result, err := orch.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, result.PostResult)
	assert.Empty(t, poster.requests)
}

func TestRun_FailedFileIsSkippedNotFatal(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go"), changedFile("b.go")}}
	provider := &fakeProvider{errs: map[string]error{"a.go": errors.New("model returned garbage")}}
	logger := &captureLogger{}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: provider,
		Poster:   &fakePoster{},
		Logger:   logger,
	})

	result, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesReviewed)
	assert.Equal(t, 1, result.FilesFailed)
	assert.Contains(t, logger.warnings, "file review failed")
}

func TestRun_FilesWithoutPatchAreSkipped(t *testing.T) {
	files := []domain.ChangedFile{
		changedFile("a.go"),
		{Path: "image.png", Status: domain.FileStatusAdded},
		{Path: "gone.go", Status: domain.FileStatusRemoved, Patch: "@@ -1 +0,0 @@\n-x"},
	}
	source := &fakeSource{pr: testPR(), files: files}
	provider := &fakeProvider{}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: provider,
		Poster:   &fakePoster{},
	})

	result, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesReviewed)
	assert.Equal(t, 2, result.FilesSkipped)
	assert.Equal(t, []string{"a.go"}, provider.calls)
}

func TestRun_SkipAndFocusRulesApplied(t *testing.T) {
	files := []domain.ChangedFile{
		changedFile("internal/api/handler.go"),
		changedFile("vendor/lib/lib.go"),
		changedFile("docs/readme.go"),
	}
	source := &fakeSource{pr: testPR(), files: files}
	provider := &fakeProvider{}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: provider,
		Poster:   &fakePoster{},
		Rules: filter.Rules{
			SkipGlobs:  []string{"vendor/*"},
			FocusGlobs: []string{"internal/"},
		},
	})

	result, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesReviewed)
	assert.Equal(t, []string{"internal/api/handler.go"}, provider.calls)
}

func TestRun_SeverityFilterApplied(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	provider := &fakeProvider{
		reviews: map[string]domain.FileReview{
			"a.go": {
				File: "a.go",
				Suggestions: []domain.Suggestion{
					{ID: "1", File: "a.go", Line: 1, Severity: "low", Comment: "nit"},
					{ID: "2", File: "a.go", Line: 1, Severity: "critical", Comment: "bad"},
				},
			},
		},
	}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: provider,
		Poster:   &fakePoster{},
		Rules:    filter.Rules{MinSeverity: "high"},
	})

	result, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "critical", result.Suggestions[0].Severity)
}

func TestRun_OverridesAdjustRules(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	provider := &fakeProvider{
		reviews: map[string]domain.FileReview{
			"a.go": {
				File: "a.go",
				Suggestions: []domain.Suggestion{
					{ID: "1", File: "a.go", Line: 1, Severity: "low", Comment: "nit"},
					{ID: "2", File: "a.go", Line: 2, Severity: "critical", Comment: "bad"},
				},
			},
		},
	}
	poster := &fakePoster{}

	orch := review.NewOrchestrator(review.Deps{
		Source:          source,
		Provider:        provider,
		Poster:          poster,
		Rules:           filter.Rules{MinSeverity: "high"},
		SummaryFallback: true,
	})

	req := testRequest()
	disabled := false
	req.Overrides = review.Overrides{
		MinSeverity:     "low",
		SummaryFallback: &disabled,
	}

	result, err := orch.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, result.Suggestions, 2)
	require.Len(t, poster.requests, 1)
	assert.False(t, poster.requests[0].SummaryFallback)
}

func TestRun_OverrideCapsCommentsPerFile(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	provider := &fakeProvider{
		reviews: map[string]domain.FileReview{
			"a.go": {
				File: "a.go",
				Suggestions: []domain.Suggestion{
					{ID: "1", File: "a.go", Line: 1, Severity: "low", Comment: "nit"},
					{ID: "2", File: "a.go", Line: 2, Severity: "critical", Comment: "bad"},
					{ID: "3", File: "a.go", Line: 3, Severity: "medium", Comment: "hm"},
				},
			},
		},
	}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: provider,
		Poster:   &fakePoster{},
	})

	req := testRequest()
	limit := 1
	req.Overrides = review.Overrides{MaxCommentsPerFile: &limit}

	result, err := orch.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "critical", result.Suggestions[0].Severity)
}

func TestRun_WarnsWhenCheckoutBehindPullRequestHead(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	logger := &captureLogger{}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: &fakeProvider{},
		Poster:   &fakePoster{},
		Logger:   logger,
		Checkout: &fakeCheckout{headSHA: "stale999", branch: "feature"},
	})

	_, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	require.Contains(t, logger.warnings, "local checkout is not at the pull request head")
	fields := logger.warnFields[0]
	assert.Equal(t, "stale999", fields["local"])
	assert.Equal(t, "abc123", fields["remote"])
	assert.Equal(t, "feature", fields["branch"])
}

func TestRun_NoWarningWhenCheckoutAtHead(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	logger := &captureLogger{}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: &fakeProvider{},
		Poster:   &fakePoster{},
		Logger:   logger,
		Checkout: &fakeCheckout{headSHA: "abc123", branch: "feature"},
	})

	_, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.NotContains(t, logger.warnings, "local checkout is not at the pull request head")
}

func TestRun_CheckoutErrorsAreIgnored(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	logger := &captureLogger{}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: &fakeProvider{},
		Poster:   &fakePoster{},
		Logger:   logger,
		Checkout: &fakeCheckout{headErr: errors.New("not a repository")},
	})

	_, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.NotContains(t, logger.warnings, "local checkout is not at the pull request head")
}

func TestRun_PostFailureReturnsError(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	poster := &fakePoster{err: errors.New("api down")}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: &fakeProvider{},
		Poster:   poster,
	})

	_, err := orch.Run(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post review")
}

func TestRun_StoreFailureIsNotFatal(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{changedFile("a.go")}}
	store := &fakeStore{saveRunErr: errors.New("disk full")}
	logger := &captureLogger{}

	orch := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: &fakeProvider{},
		Poster:   &fakePoster{},
		Store:    store,
		Logger:   logger,
	})

	result, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Empty(t, result.RunID)
	assert.Contains(t, logger.warnings, "failed to save run")
}

func TestRun_ValidatesRequest(t *testing.T) {
	orch := review.NewOrchestrator(review.Deps{
		Source:   &fakeSource{},
		Provider: &fakeProvider{},
		Poster:   &fakePoster{},
	})

	_, err := orch.Run(context.Background(), review.Request{Owner: "acme", Repo: "widgets", PRNumber: 0})
	assert.Error(t, err)

	_, err = orch.Run(context.Background(), review.Request{PRNumber: 1})
	assert.Error(t, err)
}

func TestRun_ValidatesDependencies(t *testing.T) {
	orch := review.NewOrchestrator(review.Deps{})

	_, err := orch.Run(context.Background(), testRequest())
	assert.Error(t, err)
}

func TestRun_ReviewsSortedByFile(t *testing.T) {
	source := &fakeSource{pr: testPR(), files: []domain.ChangedFile{
		changedFile("z.go"), changedFile("a.go"), changedFile("m.go"),
	}}

	orch := review.NewOrchestrator(review.Deps{
		Source:             source,
		Provider:           &fakeProvider{},
		Poster:             &fakePoster{},
		MaxFileConcurrency: 3,
	})

	result, err := orch.Run(context.Background(), testRequest())
	require.NoError(t, err)

	require.Len(t, result.Reviews, 3)
	assert.Equal(t, "a.go", result.Reviews[0].File)
	assert.Equal(t, "m.go", result.Reviews[1].File)
	assert.Equal(t, "z.go", result.Reviews[2].File)
}
