package exec

import (
	"context"
	"os/exec"
	"time"
)

// ExecRunner is the os/exec-backed CommandRunner.
type ExecRunner struct{}

// NewRunner returns an ExecRunner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command, applying the timeout when one is given.
func (r *ExecRunner) Run(ctx context.Context, workDir string, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.CombinedOutput()
}

// RunShell runs a command line through "sh -c".
func (r *ExecRunner) RunShell(ctx context.Context, workDir string, timeout time.Duration, command string) ([]byte, error) {
	return r.Run(ctx, workDir, timeout, "sh", "-c", command)
}

var _ CommandRunner = (*ExecRunner)(nil)
