package adapters

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
)

// CommandRunner executes an external tool and returns its stdout. Stderr is
// folded into the returned error so callers can see what the tool reported.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execCommandRunner struct {
	logger outbound.LoggerPort
}

func NewExecCommandRunner(logger outbound.LoggerPort) CommandRunner {
	return &execCommandRunner{logger: logger}
}

func (r *execCommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.DebugWithFields("Running command", map[string]interface{}{
		"command": name,
		"args":    strings.Join(args, " "),
	})

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// Keep the context error visible, deadline hits must stay
			// distinguishable from tool failures.
			return "", fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return "", fmt.Errorf("%s: %w: %s", name, err, tailOf(stderr.String(), 400))
	}

	return stdout.String(), nil
}

func tailOf(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}

// EnsureTools verifies the required external binaries are on PATH before any
// work is scheduled.
func EnsureTools(names ...string) error {
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("required tool %q not found on PATH", name)
		}
	}
	return nil
}
