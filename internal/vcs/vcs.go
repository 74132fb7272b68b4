package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// NoRevision is the revision reported for a directory outside version control.
// The generated Makefile falls back to the same text.
const NoRevision = "Not under version control."

// VCS defines the version control queries a Makefile fingerprint is built from.
type VCS interface {
	// Revision returns the id of the last commit of the working tree at dir.
	Revision(ctx context.Context, dir string) (string, error)

	// Dirty reports whether the working tree at dir (or its index) has
	// uncommitted changes.
	Dirty(ctx context.Context, dir string) (bool, error)
}

// State is the fingerprint of a working tree.
type State struct {
	Revision string
	Dirty    bool
	Tracked  bool
}

// Probe queries v for the state of dir. It never fails: a directory v cannot
// describe is reported as untracked and dirty, which is what the generated
// Makefile assumes in the same situation.
func Probe(ctx context.Context, v VCS, dir string) State {
	rev, err := v.Revision(ctx, dir)
	if err != nil || rev == "" {
		return State{Revision: NoRevision, Dirty: true}
	}
	dirty, err := v.Dirty(ctx, dir)
	if err != nil {
		dirty = true
	}
	return State{Revision: rev, Dirty: dirty, Tracked: true}
}

// gitVCS implements VCS using git.
type gitVCS struct {
	git string
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		g.git = path
	}
}

// NewGitVCS creates a new git VCS instance.
func NewGitVCS(opts ...GitOption) VCS {
	g := &gitVCS{git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) Revision(ctx context.Context, dir string) (string, error) {
	output, err := g.output(ctx, dir, "log", "--max-count=1", "--pretty=format:%H")
	if err != nil {
		return "", fmt.Errorf("read revision: %w", err)
	}
	// Same cleanup as the Makefile's `tr -d '\r\n'`.
	rev := strings.NewReplacer("\r", "", "\n", "").Replace(output)
	if rev == "" {
		return "", fmt.Errorf("no commits in %s", dir)
	}
	return rev, nil
}

func (g *gitVCS) Dirty(ctx context.Context, dir string) (bool, error) {
	for _, args := range [][]string{
		{"diff", "--quiet", "--cached"},
		{"diff", "--quiet"},
	} {
		err := g.run(ctx, dir, args...)
		if err == nil {
			continue
		}
		// git diff --quiet exits 1 when there are differences.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return true, nil
		}
		return false, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return false, nil
}

func (g *gitVCS) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, g.git, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	return cmd.Run()
}

func (g *gitVCS) output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.git, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s", msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
