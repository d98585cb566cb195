// Package exec abstracts external command execution so git plumbing can be
// faked in tests.
package exec

import (
	"context"
	"time"
)

// CommandRunner runs external commands.
type CommandRunner interface {
	// Run executes a command, returning combined stdout/stderr. The
	// working directory is set to workDir when non-empty. A zero timeout
	// leaves the context alone to bound the command.
	Run(ctx context.Context, workDir string, timeout time.Duration, name string, args ...string) (output []byte, err error)

	// RunShell runs a command line through "sh -c".
	RunShell(ctx context.Context, workDir string, timeout time.Duration, command string) (output []byte, err error)
}
