// Package gitsource mirrors a git repository of study decks into a local
// cache directory so the importer can walk it like any other folder.
package gitsource

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Mirror clones url into a cache path under baseDir, or pulls if the
// clone already exists, and returns the local path to import from.
func Mirror(baseDir, repoURL string) (string, error) {
	localPath, err := localPathFor(baseDir, repoURL)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(localPath); errors.Is(err, os.ErrNotExist) {
		slog.Info("cloning deck repository", "url", repoURL, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return "", fmt.Errorf("failed to clone %s: %w", repoURL, err)
		}
		return localPath, nil
	} else if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", localPath, err)
	}

	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository at %s: %w", localPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree at %s: %w", localPath, err)
	}

	slog.Info("pulling deck repository", "path", localPath)
	if err := worktree.Pull(&git.PullOptions{RemoteName: "origin"}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("failed to pull %s: %w", localPath, err)
	}
	return localPath, nil
}

// localPathFor maps a git URL to a stable cache path: baseDir/host/owner/repo.
// Both https and scp-like git@host:owner/repo.git forms are accepted.
func localPathFor(baseDir, repoURL string) (string, error) {
	if u, err := url.Parse(repoURL); err == nil && (u.Scheme == "https" || u.Scheme == "http") {
		return filepath.Join(baseDir, u.Host, strings.TrimSuffix(u.Path, ".git")), nil
	}

	if at := strings.Index(repoURL, "@"); at >= 0 {
		rest := repoURL[at+1:]
		if host, repoPath, ok := strings.Cut(rest, ":"); ok && host != "" && repoPath != "" {
			return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
	}

	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
