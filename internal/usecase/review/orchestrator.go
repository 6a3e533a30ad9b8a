package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/filter"
)

// PullRequestSource is the outbound port for the hosting API reads.
type PullRequestSource interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error)
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error)
}

// SuggestionProvider is the outbound port for LLM file reviews.
type SuggestionProvider interface {
	ReviewFile(ctx context.Context, file domain.ChangedFile, prompt string) (domain.FileReview, error)
}

// Poster is the outbound port for publishing the finished review.
type Poster interface {
	PostReview(ctx context.Context, req PostRequest) (*PostResult, error)
}

// PostRequest contains everything the poster needs to publish a review.
type PostRequest struct {
	Owner       string
	Repo        string
	PRNumber    int
	CommitSHA   string
	Reviews     []domain.FileReview
	Suggestions []domain.Suggestion
	Files       []domain.ChangedFile

	// SummaryFallback posts a plain PR comment when no suggestion could
	// be placed inline, so the review is never silently dropped.
	SummaryFallback bool
}

// PostResult reports what was actually published.
type PostResult struct {
	ReviewID        int64
	CommentsPosted  int
	CommentsSkipped int
	HTMLURL         string
	UsedFallback    bool
}

// Checkout reports the state of the local working copy. Optional; set
// when the reviewer runs inside a clone of the target repository.
type Checkout interface {
	HeadSHA() (string, error)
	CurrentBranch() (string, error)
}

// Store is the outbound port for persisting run history.
type Store interface {
	SaveRun(ctx context.Context, run StoreRun) error
	SaveSuggestions(ctx context.Context, runID string, suggestions []StoreSuggestion) error
	Close() error
}

// StoreRun is one review run for persistence.
type StoreRun struct {
	RunID          string
	Timestamp      time.Time
	Repository     string
	PRNumber       int
	CommitSHA      string
	Model          string
	FilesReviewed  int
	FilesSkipped   int
	CommentsPosted int
	TokensIn       int
	TokensOut      int
	TotalCost      float64
}

// StoreSuggestion is one suggestion record for persistence.
type StoreSuggestion struct {
	SuggestionID string
	RunID        string
	File         string
	Line         int
	Severity     string
	Category     string
	Comment      string
	Posted       bool
}

// PromptOptions carries the review instructions folded into every prompt.
type PromptOptions struct {
	Rules      []string
	SkipTopics []string
	Tone       string
}

// Deps captures the orchestrator dependencies. Source, Provider, and
// Poster are required; Store and Logger are optional.
type Deps struct {
	Source   PullRequestSource
	Provider SuggestionProvider
	Poster   Poster
	Store    Store
	Logger   Logger
	Checkout Checkout

	Rules  filter.Rules
	Prompt PromptOptions

	// MaxFileConcurrency bounds parallel file reviews. Values below 1
	// are treated as 1.
	MaxFileConcurrency int

	// SummaryFallback posts a plain PR comment when no suggestion could
	// be placed inline.
	SummaryFallback bool
}

// Overrides adjusts the configured rules for a single request. Zero
// values leave the configured behavior untouched.
type Overrides struct {
	MinSeverity        string
	MaxCommentsPerFile *int
	SummaryFallback    *bool
}

// Request is one inbound review request.
type Request struct {
	Owner    string
	Repo     string
	PRNumber int

	// DryRun reviews files but does not post anything.
	DryRun bool

	// Overrides tighten or loosen the configured rules for this run.
	Overrides Overrides
}

// Result captures the orchestrator outcome.
type Result struct {
	PullRequest   domain.PullRequest
	Reviews       []domain.FileReview
	Suggestions   []domain.Suggestion
	FilesReviewed int
	FilesSkipped  int
	FilesFailed   int
	TotalCost     float64
	PostResult    *PostResult
	RunID         string
}

// Orchestrator runs the full review flow: fetch PR, pick files, review
// them concurrently, prune suggestions, post, and record the run.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) validateDependencies() error {
	if o.deps.Source == nil {
		return errors.New("pull request source is required")
	}
	if o.deps.Provider == nil {
		return errors.New("suggestion provider is required")
	}
	if o.deps.Poster == nil {
		return errors.New("poster is required")
	}
	// Store and Logger are optional
	return nil
}

func validateRequest(req Request) error {
	if req.Owner == "" || req.Repo == "" {
		return errors.New("owner and repo are required")
	}
	if req.PRNumber <= 0 {
		return fmt.Errorf("invalid pull request number %d", req.PRNumber)
	}
	return nil
}

// Run executes one review.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if err := o.validateDependencies(); err != nil {
		return Result{}, err
	}
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	pr, err := o.deps.Source.GetPullRequest(ctx, req.Owner, req.Repo, req.PRNumber)
	if err != nil {
		return Result{}, fmt.Errorf("fetch pull request: %w", err)
	}

	o.warnStaleCheckout(ctx, pr)

	allFiles, err := o.deps.Source.ListChangedFiles(ctx, req.Owner, req.Repo, req.PRNumber)
	if err != nil {
		return Result{}, fmt.Errorf("list changed files: %w", err)
	}

	files, skipped := o.selectFiles(ctx, allFiles)

	o.logInfo(ctx, "starting review", map[string]interface{}{
		"pr":      pr.Number,
		"files":   len(files),
		"skipped": skipped,
	})

	reviews, failed := o.reviewFiles(ctx, pr, files)

	rules := o.effectiveRules(req.Overrides)

	var suggestions []domain.Suggestion
	totalCost := 0.0
	for _, r := range reviews {
		suggestions = append(suggestions, rules.FilterSuggestions(r.Suggestions)...)
		totalCost += r.Cost
	}

	result := Result{
		PullRequest:   pr,
		Reviews:       reviews,
		Suggestions:   suggestions,
		FilesReviewed: len(reviews),
		FilesSkipped:  skipped,
		FilesFailed:   failed,
		TotalCost:     totalCost,
	}

	fallback := o.deps.SummaryFallback
	if req.Overrides.SummaryFallback != nil {
		fallback = *req.Overrides.SummaryFallback
	}

	if !req.DryRun {
		postResult, err := o.deps.Poster.PostReview(ctx, PostRequest{
			Owner:           req.Owner,
			Repo:            req.Repo,
			PRNumber:        req.PRNumber,
			CommitSHA:       pr.HeadSHA,
			Reviews:         reviews,
			Suggestions:     suggestions,
			Files:           allFiles,
			SummaryFallback: fallback,
		})
		if err != nil {
			return result, fmt.Errorf("post review: %w", err)
		}
		result.PostResult = postResult
	}

	result.RunID = o.recordRun(ctx, req, pr, result)

	return result, nil
}

// warnStaleCheckout flags runs started from a checkout that is not at the
// pull request head. Inline positions are computed against the head patch,
// so a stale local tree is a common source of confusing review output.
func (o *Orchestrator) warnStaleCheckout(ctx context.Context, pr domain.PullRequest) {
	if o.deps.Checkout == nil {
		return
	}

	localSHA, err := o.deps.Checkout.HeadSHA()
	if err != nil || localSHA == pr.HeadSHA {
		return
	}

	fields := map[string]interface{}{
		"local":  localSHA,
		"remote": pr.HeadSHA,
	}
	if branch, branchErr := o.deps.Checkout.CurrentBranch(); branchErr == nil {
		fields["branch"] = branch
	}
	o.logWarning(ctx, "local checkout is not at the pull request head", fields)
}

// effectiveRules merges per-request overrides into the configured rules.
func (o *Orchestrator) effectiveRules(ov Overrides) filter.Rules {
	rules := o.deps.Rules
	if ov.MinSeverity != "" {
		rules.MinSeverity = ov.MinSeverity
	}
	if ov.MaxCommentsPerFile != nil {
		rules.MaxCommentsPerFile = *ov.MaxCommentsPerFile
	}
	return rules
}

// selectFiles drops files without a reviewable patch and applies the
// skip/focus rules.
func (o *Orchestrator) selectFiles(ctx context.Context, files []domain.ChangedFile) ([]domain.ChangedFile, int) {
	var selected []domain.ChangedFile
	skipped := 0

	for _, f := range files {
		switch {
		case !f.HasPatch(), f.Status == domain.FileStatusRemoved:
			skipped++
		case o.deps.Rules.ShouldSkip(f.Path), !o.deps.Rules.InFocus(f.Path):
			skipped++
			o.logInfo(ctx, "file excluded by rules", map[string]interface{}{"file": f.Path})
		default:
			selected = append(selected, f)
		}
	}

	return selected, skipped
}

// reviewFiles runs provider calls with bounded concurrency. A failed file
// is logged and dropped; the rest of the review continues.
func (o *Orchestrator) reviewFiles(ctx context.Context, pr domain.PullRequest, files []domain.ChangedFile) ([]domain.FileReview, int) {
	concurrency := o.deps.MaxFileConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		reviews []domain.FileReview
		failed  int
	)
	sem := make(chan struct{}, concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f domain.ChangedFile) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			prompt := BuildFilePrompt(pr, f, o.deps.Prompt)
			fileReview, err := o.deps.Provider.ReviewFile(ctx, f, prompt)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				o.logWarning(ctx, "file review failed", map[string]interface{}{
					"file":  f.Path,
					"error": err.Error(),
				})
				return
			}
			reviews = append(reviews, fileReview)
		}(file)
	}
	wg.Wait()

	// Goroutine completion order is not deterministic.
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].File < reviews[j].File })

	return reviews, failed
}

// recordRun persists the run when a store is configured. Store failures
// are logged and never fail the review.
func (o *Orchestrator) recordRun(ctx context.Context, req Request, pr domain.PullRequest, result Result) string {
	if o.deps.Store == nil {
		return ""
	}

	runID := newRunID(req, pr)

	tokensIn, tokensOut := 0, 0
	model := ""
	for _, r := range result.Reviews {
		tokensIn += r.TokensIn
		tokensOut += r.TokensOut
		if model == "" {
			model = r.ModelName
		}
	}

	commentsPosted := 0
	if result.PostResult != nil {
		commentsPosted = result.PostResult.CommentsPosted
	}

	run := StoreRun{
		RunID:          runID,
		Timestamp:      time.Now().UTC(),
		Repository:     fmt.Sprintf("%s/%s", req.Owner, req.Repo),
		PRNumber:       req.PRNumber,
		CommitSHA:      pr.HeadSHA,
		Model:          model,
		FilesReviewed:  result.FilesReviewed,
		FilesSkipped:   result.FilesSkipped,
		CommentsPosted: commentsPosted,
		TokensIn:       tokensIn,
		TokensOut:      tokensOut,
		TotalCost:      result.TotalCost,
	}

	if err := o.deps.Store.SaveRun(ctx, run); err != nil {
		o.logWarning(ctx, "failed to save run", map[string]interface{}{"error": err.Error()})
		return ""
	}

	records := make([]StoreSuggestion, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		records = append(records, StoreSuggestion{
			SuggestionID: s.ID,
			RunID:        runID,
			File:         s.File,
			Line:         s.Line,
			Severity:     s.Severity,
			Category:     s.Category,
			Comment:      s.Comment,
			Posted:       result.PostResult != nil,
		})
	}
	if err := o.deps.Store.SaveSuggestions(ctx, runID, records); err != nil {
		o.logWarning(ctx, "failed to save suggestions", map[string]interface{}{"error": err.Error()})
	}

	return runID
}

func (o *Orchestrator) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, message, fields)
	}
}
