// Package git inspects the local checkout: owner and repo default from the
// origin remote, and the HEAD state lets the reviewer flag a checkout that
// is not at the pull request head.
package git

import (
	"fmt"
	"strings"

	goGit "github.com/go-git/go-git/v5"
)

// Engine reads repository metadata from a local checkout, backed by go-git.
type Engine struct {
	repoDir string
}

// NewEngine constructs an engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

func (e *Engine) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

// OriginOwnerRepo derives the GitHub owner and repository name from the
// origin remote URL. Both HTTPS and SSH remote forms are understood.
func (e *Engine) OriginOwnerRepo() (owner, repo string, err error) {
	r, err := e.open()
	if err != nil {
		return "", "", err
	}

	remote, err := r.Remote("origin")
	if err != nil {
		return "", "", fmt.Errorf("resolve origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", fmt.Errorf("origin remote has no URL")
	}

	owner, repo, ok := ParseRemoteURL(urls[0])
	if !ok {
		return "", "", fmt.Errorf("cannot parse origin remote URL %q", urls[0])
	}
	return owner, repo, nil
}

// HeadSHA returns the full hash of the current HEAD commit.
func (e *Engine) HeadSHA() (string, error) {
	r, err := e.open()
	if err != nil {
		return "", err
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// CurrentBranch returns the name of the checked-out branch.
func (e *Engine) CurrentBranch() (string, error) {
	r, err := e.open()
	if err != nil {
		return "", err
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("detached HEAD")
	}
	return head.Name().Short(), nil
}

// ParseRemoteURL extracts owner and repo from a git remote URL.
//
// Understood forms:
//
//	https://github.com/owner/repo.git
//	https://github.com/owner/repo
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo.git
func ParseRemoteURL(url string) (owner, repo string, ok bool) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(url), "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")

	// SSH scp-like syntax: git@host:owner/repo
	if at := strings.Index(trimmed, "@"); at >= 0 && !strings.Contains(trimmed, "://") {
		if colon := strings.Index(trimmed, ":"); colon > at {
			trimmed = trimmed[colon+1:]
			return splitOwnerRepo(trimmed)
		}
	}

	// URL syntax: scheme://host/owner/repo
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		rest := trimmed[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			return splitOwnerRepo(rest[slash+1:])
		}
		return "", "", false
	}

	return splitOwnerRepo(trimmed)
}

func splitOwnerRepo(path string) (owner, repo string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", "", false
	}
	owner = parts[len(parts)-2]
	repo = parts[len(parts)-1]
	if owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}
