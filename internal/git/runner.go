package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olongjohnson/SweatShop-sub000/internal/exec"
)

const defaultTimeout = 2 * time.Minute

// ExecRunner implements Runner by shelling out to the git binary through a
// CommandRunner. All commands run against the repository at repoPath unless
// a worktree path is given explicitly.
type ExecRunner struct {
	runner   exec.CommandRunner
	repoPath string
	timeout  time.Duration
}

// NewExecRunner creates a git runner for the repository at repoPath.
func NewExecRunner(runner exec.CommandRunner, repoPath string) *ExecRunner {
	return &ExecRunner{
		runner:   runner,
		repoPath: repoPath,
		timeout:  defaultTimeout,
	}
}

// Run executes an arbitrary git command in the repository directory.
func (g *ExecRunner) Run(args ...string) (string, error) {
	return g.runIn(g.repoPath, args...)
}

func (g *ExecRunner) runIn(dir string, args ...string) (string, error) {
	out, err := g.runner.Run(context.Background(), dir, g.timeout, "git", args...)
	output := strings.TrimSpace(string(out))
	if err != nil {
		if output != "" {
			return output, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, output)
		}
		return output, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return output, nil
}

// CurrentBranch returns the name of the current branch.
func (g *ExecRunner) CurrentBranch() (string, error) {
	return g.Run("rev-parse", "--abbrev-ref", "HEAD")
}

// CheckoutBranch switches to the specified branch.
func (g *ExecRunner) CheckoutBranch(name string) error {
	_, err := g.Run("checkout", name)
	return err
}

// BranchExists returns true if the branch exists locally.
func (g *ExecRunner) BranchExists(name string) (bool, error) {
	out, err := g.Run("branch", "--list", name)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// DeleteBranch force-deletes the specified branch.
func (g *ExecRunner) DeleteBranch(name string) error {
	_, err := g.Run("branch", "-D", name)
	return err
}

// WorktreeAddNewBranch creates a worktree at path on a new branch started
// from the given base ref.
func (g *ExecRunner) WorktreeAddNewBranch(path, branch, base string) error {
	_, err := g.Run("worktree", "add", "-b", branch, path, base)
	return err
}

// WorktreeRemove force-removes the worktree at the given path.
func (g *ExecRunner) WorktreeRemove(path string) error {
	_, err := g.Run("worktree", "remove", "--force", path)
	return err
}

// WorktreePruneExpireNow prunes stale worktree metadata immediately.
func (g *ExecRunner) WorktreePruneExpireNow() error {
	_, err := g.Run("worktree", "prune", "--expire", "now")
	return err
}

// MergeSquash stages the squashed changes of a branch. The result is left
// uncommitted; call Commit to record it.
func (g *ExecRunner) MergeSquash(branch string) error {
	_, err := g.Run("merge", "--squash", branch)
	return err
}

// MergeNoFFMessage merges the branch with a merge commit and custom message.
func (g *ExecRunner) MergeNoFFMessage(branch, message string) error {
	_, err := g.Run("merge", "--no-ff", "-m", message, branch)
	return err
}

// MergeAbort aborts an in-progress merge.
func (g *ExecRunner) MergeAbort() error {
	_, err := g.Run("merge", "--abort")
	return err
}

// ResetMerge resets a conflicted working tree with git reset --merge. Unlike
// MergeAbort this works after a failed squash merge, which leaves no
// MERGE_HEAD behind.
func (g *ExecRunner) ResetMerge() error {
	_, err := g.Run("reset", "--merge")
	return err
}

// Commit records staged changes with the given message.
func (g *ExecRunner) Commit(message string) error {
	_, err := g.Run("commit", "-m", message)
	return err
}

// ConflictedFiles returns the paths with unmerged changes.
func (g *ExecRunner) ConflictedFiles() ([]string, error) {
	out, err := g.Run("diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Status returns the porcelain status of the repository.
func (g *ExecRunner) Status() (string, error) {
	return g.Run("status", "--porcelain")
}

// ChangedFilesRelative returns the files changed on branch relative to
// relativeTo, using the merge-base form of the range.
func (g *ExecRunner) ChangedFilesRelative(branch, relativeTo string) ([]string, error) {
	out, err := g.Run("diff", "--name-only", relativeTo+"..."+branch)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// DiffRelative returns the full diff of branch against relativeTo.
func (g *ExecRunner) DiffRelative(branch, relativeTo string) (string, error) {
	return g.Run("diff", relativeTo+"..."+branch)
}

// DiffStatRelative returns the stat summary of branch against relativeTo.
func (g *ExecRunner) DiffStatRelative(branch, relativeTo string) (string, error) {
	return g.Run("diff", "--stat", relativeTo+"..."+branch)
}

// DiffFileRelative returns the diff of a single path on branch against
// relativeTo.
func (g *ExecRunner) DiffFileRelative(branch, relativeTo, path string) (string, error) {
	return g.Run("diff", relativeTo+"..."+branch, "--", path)
}

// LogRelative returns one-line commit subjects reachable from branch but not
// relativeTo.
func (g *ExecRunner) LogRelative(branch, relativeTo string) ([]string, error) {
	out, err := g.Run("log", "--oneline", relativeTo+".."+branch)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// PullFFOnly pulls from the default remote with fast-forward only. A missing
// remote is treated as success so local-only repositories keep working.
func (g *ExecRunner) PullFFOnly() error {
	out, err := g.Run("pull", "--ff-only")
	if err != nil {
		if strings.Contains(out, "No remote") || strings.Contains(out, "no remote") ||
			strings.Contains(out, "does not appear to be a git repository") {
			return nil
		}
		return err
	}
	return nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Verify ExecRunner implements Runner at compile time.
var _ Runner = (*ExecRunner)(nil)
