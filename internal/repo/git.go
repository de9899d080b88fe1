// Package repo owns the working tree of a git repository while it is read
// at specific revisions.
package repo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandExecutor abstracts command execution for testing.
type CommandExecutor interface {
	// Run executes a command in dir and returns its standard output.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// DefaultExecutor executes commands using os/exec.
type DefaultExecutor struct{}

// Run executes a command and returns its standard output.
func (e *DefaultExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}

// VCS is the version-control surface a Snapshot needs.
type VCS interface {
	// Checkout sets the working tree of dir to rev.
	Checkout(ctx context.Context, dir, rev string) error
	// Head returns the revision currently checked out in dir in a form that
	// Checkout accepts.
	Head(ctx context.Context, dir string) (string, error)
	// Resolve returns the full commit id rev names.
	Resolve(ctx context.Context, dir, rev string) (string, error)
}

// GitClient executes git commands.
type GitClient struct {
	executor CommandExecutor
}

// NewGitClient creates a GitClient with the default command executor.
func NewGitClient() *GitClient {
	return &GitClient{executor: &DefaultExecutor{}}
}

// NewGitClientWithExecutor creates a GitClient with a custom executor (for testing).
func NewGitClientWithExecutor(executor CommandExecutor) *GitClient {
	return &GitClient{executor: executor}
}

// Checkout switches the working tree of repoDir to rev.
func (g *GitClient) Checkout(ctx context.Context, repoDir, rev string) error {
	_, err := g.executor.Run(ctx, repoDir, "git",
		"-c", "advice.detachedHead=false",
		"checkout", "--quiet", rev,
	)
	if err != nil {
		return fmt.Errorf("git checkout %s failed: %w", rev, err)
	}
	return nil
}

// Head returns the checked-out branch name, or the commit SHA when HEAD is
// detached.
func (g *GitClient) Head(ctx context.Context, repoDir string) (string, error) {
	output, err := g.executor.Run(ctx, repoDir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	if ref := strings.TrimSpace(string(output)); ref != "HEAD" && ref != "" {
		return ref, nil
	}
	return g.Resolve(ctx, repoDir, "HEAD")
}

// Resolve returns the full SHA of the commit rev names.
func (g *GitClient) Resolve(ctx context.Context, repoDir, rev string) (string, error) {
	output, err := g.executor.Run(ctx, repoDir, "git", "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("git rev-parse %s failed: %w", rev, err)
	}
	sha := strings.TrimSpace(string(output))
	if sha == "" {
		return "", fmt.Errorf("unknown revision %s", rev)
	}
	return sha, nil
}

// IsRepository checks if the given directory is inside a git work tree.
func (g *GitClient) IsRepository(ctx context.Context, dir string) bool {
	_, err := g.executor.Run(ctx, dir, "git", "rev-parse", "--git-dir")
	return err == nil
}
