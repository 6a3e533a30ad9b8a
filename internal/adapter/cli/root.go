// Package cli wires the cobra command tree for the prr binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Reviewer defines the dependency required to run the review command.
type Reviewer interface {
	Run(ctx context.Context, req review.Request) (review.Result, error)
}

// History defines the dependency required to run the history command.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]review.StoreRun, error)
	GetSuggestionsByRun(ctx context.Context, runID string) ([]review.StoreSuggestion, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Reviewer Reviewer
	History  History // nil when the store is disabled

	Args Arguments

	// Defaults resolved from config and the local checkout.
	DefaultOwner string
	DefaultRepo  string

	// PlainOutput switches dry-run rendering to tab-separated lines for
	// piped output. Set when stdout is not a terminal.
	PlainOutput bool

	Version string
}

// NewRootCommand constructs the root cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "prr",
		Short: "Automated pull request reviewer",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(reviewCommand(deps))
	root.AddCommand(historyCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func reviewCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string
	var prNumber int
	var dryRun bool
	var minSeverity string
	var maxComments int
	var postSummary bool

	cmd := &cobra.Command{
		Use:   "review [pr-number]",
		Short: "Review a pull request and post suggestions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				parsed, err := parsePRNumber(args[0])
				if err != nil {
					return err
				}
				prNumber = parsed
			}
			if prNumber <= 0 {
				return fmt.Errorf("pull request number not specified; pass as an argument or use --pr")
			}
			if owner == "" || repo == "" {
				return fmt.Errorf("repository not specified; use --owner and --repo, or run inside a checkout with an origin remote")
			}

			var overrides review.Overrides
			if cmd.Flags().Changed("min-severity") {
				if !domain.ValidSeverity(minSeverity) {
					return fmt.Errorf("invalid severity %q (expected critical, high, medium, or low)", minSeverity)
				}
				overrides.MinSeverity = domain.NormalizeSeverity(minSeverity)
			}
			if cmd.Flags().Changed("max-comments") {
				overrides.MaxCommentsPerFile = &maxComments
			}
			if cmd.Flags().Changed("post-summary") {
				overrides.SummaryFallback = &postSummary
			}

			result, err := deps.Reviewer.Run(cmd.Context(), review.Request{
				Owner:     owner,
				Repo:      repo,
				PRNumber:  prNumber,
				DryRun:    dryRun,
				Overrides: overrides,
			})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result, dryRun, deps.PlainOutput)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", deps.DefaultOwner, "Repository owner (defaults from the origin remote)")
	cmd.Flags().StringVar(&repo, "repo", deps.DefaultRepo, "Repository name (defaults from the origin remote)")
	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number (overrides positional)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Review without posting anything")
	cmd.Flags().StringVar(&minSeverity, "min-severity", "", "Lowest severity worth reporting (overrides config)")
	cmd.Flags().IntVar(&maxComments, "max-comments", 0, "Cap inline comments per file, 0 is unlimited (overrides config)")
	cmd.Flags().BoolVar(&postSummary, "post-summary", true, "Post a summary comment when nothing is placeable inline (overrides config)")

	return cmd
}

func historyCommand(deps Dependencies) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past review runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.History == nil {
				return fmt.Errorf("run history is disabled; enable the store in prr.yaml")
			}

			out := cmd.OutOrStdout()

			if runID != "" {
				suggestions, err := deps.History.GetSuggestionsByRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if len(suggestions) == 0 {
					_, _ = fmt.Fprintf(out, "no suggestions recorded for %s\n", runID)
					return nil
				}
				for _, s := range suggestions {
					posted := " "
					if s.Posted {
						posted = "*"
					}
					_, _ = fmt.Fprintf(out, "%s [%s] %s:%d %s\n", posted, s.Severity, s.File, s.Line, s.Comment)
				}
				return nil
			}

			runs, err := deps.History.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "no review runs recorded")
				return nil
			}
			for _, r := range runs {
				_, _ = fmt.Fprintf(out, "%s  %s  %s#%d  files=%d comments=%d cost=$%.4f\n",
					r.RunID, r.Timestamp.Format("2006-01-02 15:04"), r.Repository, r.PRNumber,
					r.FilesReviewed, r.CommentsPosted, r.TotalCost)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show the suggestions of one run")

	return cmd
}

func parsePRNumber(arg string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid pull request number %q", arg)
	}
	return n, nil
}

func printResult(out io.Writer, result review.Result, dryRun, plain bool) {
	if dryRun && plain {
		for _, s := range result.Suggestions {
			_, _ = fmt.Fprintf(out, "%s\t%d\t%s\t%s\n", s.File, s.Line, s.Severity, s.Comment)
		}
		return
	}

	_, _ = fmt.Fprintf(out, "Reviewed %d file(s) (%d skipped, %d failed), %d suggestion(s), cost $%.4f\n",
		result.FilesReviewed, result.FilesSkipped, result.FilesFailed, len(result.Suggestions), result.TotalCost)

	if dryRun {
		for _, s := range result.Suggestions {
			_, _ = fmt.Fprintf(out, "  [%s] %s:%d %s\n", s.Severity, s.File, s.Line, s.Comment)
		}
		_, _ = fmt.Fprintln(out, "dry run: nothing was posted")
		return
	}

	if result.PostResult != nil {
		if result.PostResult.UsedFallback {
			_, _ = fmt.Fprintf(out, "No suggestion was placeable inline; posted a summary comment: %s\n", result.PostResult.HTMLURL)
			return
		}
		_, _ = fmt.Fprintf(out, "Posted review with %d inline comment(s)", result.PostResult.CommentsPosted)
		if result.PostResult.CommentsSkipped > 0 {
			_, _ = fmt.Fprintf(out, " (%d folded into the summary)", result.PostResult.CommentsSkipped)
		}
		if result.PostResult.HTMLURL != "" {
			_, _ = fmt.Fprintf(out, ": %s", result.PostResult.HTMLURL)
		}
		_, _ = fmt.Fprintln(out)
	}
}
