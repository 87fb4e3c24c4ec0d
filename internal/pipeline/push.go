package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/dispatch"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Pusher publishes produced artifacts after a batch settles. Push is
// best-effort from the pipeline's point of view: a failure is reported but
// never changes a batch outcome.
type Pusher interface {
	Push(ctx context.Context, dir, message string) error
}

// GitPusher stages, commits, and pushes the working tree with the git CLI.
type GitPusher struct {
	logger zerolog.Logger
}

// PusherOption is a functional option for configuring a GitPusher.
type PusherOption func(*GitPusher)

// WithPusherLogger sets the logger for the GitPusher.
func WithPusherLogger(logger zerolog.Logger) PusherOption {
	return func(g *GitPusher) {
		g.logger = logger
	}
}

// NewGitPusher creates a git-backed pusher.
func NewGitPusher(opts ...PusherOption) *GitPusher {
	g := &GitPusher{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Push stages everything in dir, commits with the given message, and pushes
// to the current branch's upstream. A clean tree commits nothing and is not
// an error; any git failure is wrapped with ErrPushFailed.
func (g *GitPusher) Push(ctx context.Context, dir, message string) error {
	if _, err := g.run(ctx, dir, "add", "-A"); err != nil {
		return err
	}

	status, err := g.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return err
	}
	if status == "" {
		g.logger.Debug().Str("dir", dir).Msg("nothing to push, working tree clean")
		return nil
	}

	if _, err := g.run(ctx, dir, "commit", "-m", message); err != nil {
		return err
	}
	if _, err := g.run(ctx, dir, "push"); err != nil {
		return err
	}

	g.logger.Info().Str("dir", dir).Msg("pushed batch artifacts")
	return nil
}

// run executes a git command in dir and returns trimmed stdout. Errors
// include stderr and are wrapped with ErrPushFailed.
func (g *GitPusher) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...) //#nosec G204 -- args are constructed internally, not user input
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%w: git %s: %s", relaberrors.ErrPushFailed, args[0], strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%w: git %s: %w", relaberrors.ErrPushFailed, args[0], err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// pushMessage builds the commit message for a settled batch.
func pushMessage(summary *dispatch.Summary) string {
	return fmt.Sprintf("Add run artifacts (%d succeeded, %d failed)", summary.Succeeded(), summary.Failed())
}

// Compile-time check that GitPusher implements Pusher.
var _ Pusher = (*GitPusher)(nil)
