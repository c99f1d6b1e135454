// Package audit tracks the data directory in a git repository so every batch
// leaves an inspectable trail of db and mirror changes.
//
// Uses go-git (pure Go, no git binary dependency). The raw input directory is
// ignored: raw blobs are transient and already mirrored after processing.
package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo manages the data directory as a git repository.
type Repo struct {
	dir   string
	name  string
	email string

	mu   sync.Mutex
	repo *gogit.Repository
}

// New opens the data directory as a git repository, initializing it on first
// run with a .gitignore for transient paths.
func New(ctx context.Context, dataDir, name, email string) (*Repo, error) {
	if name == "" {
		name = "coffeeverse"
	}
	if email == "" {
		email = "coffeeverse@localhost"
	}

	repo, err := gogit.PlainOpen(dataDir)
	if err != nil {
		// Not a repo yet, initialize.
		repo, err = gogit.PlainInit(dataDir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audit repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = name
		cfg.User.Email = email
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	}

	r := &Repo{dir: dataDir, name: name, email: email, repo: repo}
	if err := r.ensureGitignore(); err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, "initial data directory"); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return r, nil
}

// Commit stages all tracked paths and commits if anything changed. A clean
// worktree is a no-op.
func (r *Repo) Commit(ctx context.Context, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Detach from the caller's deadline but keep a bound.
	_, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()

	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := w.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	now := time.Now()
	sig := &object.Signature{Name: r.name, Email: r.email, When: now}
	if _, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CommitCount returns the total number of commits.
func (r *Repo) CommitCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return 0, nil // no commits yet is not an error
	}
	defer iter.Close()

	n := 0
	for {
		if _, err := iter.Next(); err != nil {
			break
		}
		n++
	}
	return n, nil
}

func (r *Repo) ensureGitignore() error {
	path := filepath.Join(r.dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content := "raw/\nmirror/tmp/\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // G306: not a secret
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return nil
}
