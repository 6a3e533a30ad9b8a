package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bkyoung/pr-reviewer/internal/adapter/cli"
	"github.com/bkyoung/pr-reviewer/internal/adapter/git"
	githubadapter "github.com/bkyoung/pr-reviewer/internal/adapter/github"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/openai"
	"github.com/bkyoung/pr-reviewer/internal/adapter/observability"
	"github.com/bkyoung/pr-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/pr-reviewer/internal/config"
	"github.com/bkyoung/pr-reviewer/internal/usecase/filter"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
	"github.com/bkyoung/pr-reviewer/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "prr",
		EnvPrefix:   "PRR",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	if configValue(cfg.GitHub.Token) == "" {
		return fmt.Errorf("GitHub token not configured (set GITHUB_TOKEN or github.token in prr.yaml)")
	}
	if configValue(cfg.Provider.APIKey) == "" {
		return fmt.Errorf("provider API key not configured (set OPENAI_API_KEY or provider.apiKey in prr.yaml)")
	}
	cfg.GitHub.Token = configValue(cfg.GitHub.Token)
	cfg.Provider.APIKey = configValue(cfg.Provider.APIKey)

	// Build observability components
	var logger llmhttp.Logger
	var reviewLogger review.Logger
	if cfg.Observability.Logging.Enabled {
		logger = observability.BuildLogger(cfg.Observability.Logging)
		reviewLogger = observability.NewReviewLogger(logger)
	}
	metrics := llmhttp.NewDefaultMetrics()
	pricing := llmhttp.NewDefaultPricing()

	githubClient := githubadapter.NewClient(cfg.GitHub, cfg.HTTP)
	poster := githubadapter.NewPoster(githubClient, configValue(cfg.GitHub.BotUsername), reviewLogger)

	provider := openai.NewClient(cfg.Provider, cfg.HTTP)
	if logger != nil {
		provider.SetLogger(logger)
	}
	provider.SetMetrics(metrics)
	provider.SetPricing(pricing)

	// Initialize store if enabled
	var reviewStore review.Store
	var history cli.History
	if cfg.Store.Enabled {
		sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
		if err != nil {
			log.Printf("warning: failed to initialize store: %v", err)
		} else {
			reviewStore = sqliteStore
			history = sqliteStore
			defer sqliteStore.Close()
		}
	}

	checkout := git.NewEngine(".")

	orchestrator := review.NewOrchestrator(review.Deps{
		Source:   githubClient,
		Provider: provider,
		Poster:   poster,
		Store:    reviewStore,
		Logger:   reviewLogger,
		Checkout: checkout,
		Rules: filter.Rules{
			SkipGlobs:          cfg.Review.SkipFiles,
			FocusGlobs:         cfg.Review.FocusOn,
			MinSeverity:        cfg.Review.MinSeverity,
			MaxCommentsPerFile: cfg.Review.MaxCommentsPerFile,
		},
		Prompt: review.PromptOptions{
			Rules:      cfg.Review.Rules,
			SkipTopics: cfg.Review.SkipTopics,
			Tone:       cfg.Review.Tone,
		},
		MaxFileConcurrency: cfg.Review.MaxFileConcurrency,
		SummaryFallback:    cfg.Review.SummaryComment,
	})

	defaultOwner, defaultRepo := resolveRepository(cfg.GitHub, checkout)

	root := cli.NewRootCommand(cli.Dependencies{
		Reviewer:     orchestrator,
		History:      history,
		DefaultOwner: defaultOwner,
		DefaultRepo:  defaultRepo,
		PlainOutput:  !review.IsOutputTerminal(),
		Version:      version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// resolveRepository returns the configured owner and repo, falling back to
// the origin remote of the working checkout when either is missing.
func resolveRepository(cfg config.GitHubConfig, engine *git.Engine) (owner, repo string) {
	owner = configValue(cfg.Owner)
	repo = configValue(cfg.Repo)
	if owner != "" && repo != "" {
		return owner, repo
	}

	remoteOwner, remoteRepo, err := engine.OriginOwnerRepo()
	if err != nil {
		return owner, repo
	}
	if owner == "" {
		owner = remoteOwner
	}
	if repo == "" {
		repo = remoteRepo
	}
	return owner, repo
}

// configValue treats values whose environment expansion did not resolve
// (still "${VAR}") as unset.
func configValue(s string) string {
	if strings.HasPrefix(s, "${") {
		return ""
	}
	return s
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "prr"))
	}
	return paths
}

// Compile-time interface compliance checks
var _ review.PullRequestSource = (*githubadapter.Client)(nil)
var _ review.SuggestionProvider = (*openai.Client)(nil)
var _ review.Poster = (*githubadapter.Poster)(nil)
var _ review.Store = (*sqlite.Store)(nil)
var _ review.Checkout = (*git.Engine)(nil)
var _ cli.History = (*sqlite.Store)(nil)
var _ githubadapter.ReviewAPI = (*githubadapter.Client)(nil)
