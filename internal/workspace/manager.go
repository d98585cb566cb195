// Package workspace manages isolated git worktrees for conscripts. Each
// conscript works on its own branch in its own worktree so concurrent work
// never touches the primary checkout.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/olongjohnson/SweatShop-sub000/internal/git"
)

// MergeStrategy selects how a conscript branch lands on the base branch.
type MergeStrategy string

const (
	// MergeSquash collapses the branch into a single commit on the base.
	MergeSquash MergeStrategy = "squash"
	// MergeCommit merges the branch with a --no-ff merge commit.
	MergeCommit MergeStrategy = "merge"
)

// MergeResult is the outcome of merging a conscript branch.
type MergeResult struct {
	// Merged indicates the branch landed cleanly on the base branch.
	Merged bool
	// Conflicts lists the conflicted paths when the merge was aborted.
	Conflicts []string
}

// Workspace describes one provisioned worktree.
type Workspace struct {
	ConscriptID string
	Branch      string
	Path        string
}

// Manager provisions and tears down per-conscript worktrees against a single
// repository, and lands finished branches back onto the base branch.
type Manager struct {
	baseDir    string
	repoPath   string
	baseBranch string
	git        git.Runner
	log        zerolog.Logger
}

// NewManager creates a workspace manager. Worktrees are created under
// baseDir; branches are cut from and merged back into baseBranch.
func NewManager(baseDir, repoPath, baseBranch string, runner git.Runner, log zerolog.Logger) *Manager {
	return &Manager{
		baseDir:    baseDir,
		repoPath:   repoPath,
		baseBranch: baseBranch,
		git:        runner,
		log:        log.With().Str("component", "workspace").Logger(),
	}
}

// BaseBranch returns the branch workspaces are cut from.
func (m *Manager) BaseBranch() string {
	return m.baseBranch
}

// PathFor returns the worktree path a conscript would be provisioned at.
func (m *Manager) PathFor(conscriptID string) string {
	return filepath.Join(m.baseDir, conscriptID)
}

// SharedPath returns the primary checkout, used as a working directory when
// worktree isolation is unavailable.
func (m *Manager) SharedPath() string {
	return m.repoPath
}

// BranchFor returns the branch name a conscript works on.
func BranchFor(conscriptID string) string {
	return "conscript/" + conscriptID
}

// Create provisions a worktree and branch for a conscript. It is idempotent:
// leftovers from an earlier failed attempt (a stale directory, a stale
// branch, stale worktree metadata) are removed before the worktree is added,
// so a retry after a crash succeeds.
func (m *Manager) Create(conscriptID string) (*Workspace, error) {
	path := m.PathFor(conscriptID)
	branch := BranchFor(conscriptID)

	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		m.log.Warn().Str("path", path).Msg("removing stale workspace")
		if err := m.git.WorktreeRemove(path); err != nil {
			// The directory may not be a registered worktree anymore.
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, fmt.Errorf("remove stale workspace: %w", rmErr)
			}
		}
		if err := m.git.WorktreePruneExpireNow(); err != nil {
			m.log.Warn().Err(err).Msg("worktree prune failed")
		}
	}

	if exists, err := m.git.BranchExists(branch); err != nil {
		return nil, fmt.Errorf("check branch %s: %w", branch, err)
	} else if exists {
		m.log.Warn().Str("branch", branch).Msg("removing stale branch")
		if err := m.git.DeleteBranch(branch); err != nil {
			return nil, fmt.Errorf("delete stale branch %s: %w", branch, err)
		}
	}

	if err := m.git.WorktreeAddNewBranch(path, branch, m.baseBranch); err != nil {
		return nil, fmt.Errorf("create workspace for %s: %w", conscriptID, err)
	}

	m.log.Info().
		Str("conscript", conscriptID).
		Str("branch", branch).
		Str("path", path).
		Msg("workspace created")

	return &Workspace{ConscriptID: conscriptID, Branch: branch, Path: path}, nil
}

// Merge lands a conscript branch on the base branch using the given
// strategy. On conflict the merge is aborted, the base checkout is left
// clean, and the conflicted paths are reported. The branch itself is never
// modified.
func (m *Manager) Merge(branch string, strategy MergeStrategy, message string) (*MergeResult, error) {
	current, err := m.git.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("resolve current branch: %w", err)
	}
	if current != m.baseBranch {
		if err := m.git.CheckoutBranch(m.baseBranch); err != nil {
			return nil, fmt.Errorf("checkout %s: %w", m.baseBranch, err)
		}
	}

	// Best effort: bring the base up to date before landing.
	if err := m.git.PullFFOnly(); err != nil {
		m.log.Warn().Err(err).Msg("pull before merge failed, continuing")
	}

	switch strategy {
	case MergeSquash:
		if err := m.git.MergeSquash(branch); err != nil {
			return m.abortConflicted(branch, err)
		}
		if err := m.git.Commit(message); err != nil {
			m.cleanUpFailedMerge()
			return nil, fmt.Errorf("commit squash of %s: %w", branch, err)
		}
	case MergeCommit:
		if err := m.git.MergeNoFFMessage(branch, message); err != nil {
			return m.abortConflicted(branch, err)
		}
	default:
		return nil, fmt.Errorf("unknown merge strategy %q", strategy)
	}

	m.log.Info().Str("branch", branch).Str("strategy", string(strategy)).Msg("branch merged")
	return &MergeResult{Merged: true}, nil
}

// abortConflicted collects the conflicted paths, restores the base checkout,
// and reports the conflict without treating it as an operational error.
func (m *Manager) abortConflicted(branch string, mergeErr error) (*MergeResult, error) {
	conflicts, err := m.git.ConflictedFiles()
	if err != nil {
		m.log.Warn().Err(err).Msg("could not list conflicted files")
	}
	if len(conflicts) == 0 {
		// No unmerged paths: the merge failed outright rather than
		// conflicting.
		m.cleanUpFailedMerge()
		return nil, fmt.Errorf("merge %s: %w", branch, mergeErr)
	}

	m.cleanUpFailedMerge()
	m.log.Warn().
		Str("branch", branch).
		Strs("conflicts", conflicts).
		Msg("merge conflicted, aborted")
	return &MergeResult{Merged: false, Conflicts: conflicts}, nil
}

// cleanUpFailedMerge restores a clean base checkout. A regular merge is
// aborted; a conflicted squash merge leaves no MERGE_HEAD, so fall back to
// reset --merge.
func (m *Manager) cleanUpFailedMerge() {
	if err := m.git.MergeAbort(); err == nil {
		return
	}
	if err := m.git.ResetMerge(); err != nil {
		m.log.Error().Err(err).Msg("could not restore clean checkout after failed merge")
	}
}

// Destroy removes a conscript's worktree and branch. The worktree goes first;
// git refuses to delete a branch that is still checked out in a worktree.
// Destroy is safe to call for a conscript that has nothing provisioned.
func (m *Manager) Destroy(conscriptID string) error {
	path := m.PathFor(conscriptID)
	branch := BranchFor(conscriptID)

	if err := m.git.WorktreeRemove(path); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return fmt.Errorf("remove workspace %s: %w", path, rmErr)
			}
			if pruneErr := m.git.WorktreePruneExpireNow(); pruneErr != nil {
				m.log.Warn().Err(pruneErr).Msg("worktree prune failed")
			}
		}
	}

	if exists, err := m.git.BranchExists(branch); err == nil && exists {
		if err := m.git.DeleteBranch(branch); err != nil {
			return fmt.Errorf("delete branch %s: %w", branch, err)
		}
	}

	m.log.Info().Str("conscript", conscriptID).Msg("workspace destroyed")
	return nil
}

// ChangedFiles returns the files a conscript branch changed relative to the
// base branch. Query failures degrade to an empty result so status surfaces
// stay usable while a branch is in flux.
func (m *Manager) ChangedFiles(branch string) []string {
	files, err := m.git.ChangedFilesRelative(branch, m.baseBranch)
	if err != nil {
		m.log.Debug().Err(err).Str("branch", branch).Msg("changed files unavailable")
		return nil
	}
	return files
}

// Diff returns the full diff of a conscript branch against the base branch,
// or an empty string when the branch cannot be diffed.
func (m *Manager) Diff(branch string) string {
	diff, err := m.git.DiffRelative(branch, m.baseBranch)
	if err != nil {
		m.log.Debug().Err(err).Str("branch", branch).Msg("diff unavailable")
		return ""
	}
	return diff
}

// DiffStat returns the stat summary of a conscript branch against the base
// branch, or an empty string when unavailable.
func (m *Manager) DiffStat(branch string) string {
	stat, err := m.git.DiffStatRelative(branch, m.baseBranch)
	if err != nil {
		m.log.Debug().Err(err).Str("branch", branch).Msg("diff stat unavailable")
		return ""
	}
	return stat
}

// DiffFile returns the diff of a single path on a conscript branch against
// the base branch, or an empty string when unavailable.
func (m *Manager) DiffFile(branch, path string) string {
	diff, err := m.git.DiffFileRelative(branch, m.baseBranch, path)
	if err != nil {
		m.log.Debug().Err(err).Str("branch", branch).Str("path", path).Msg("file diff unavailable")
		return ""
	}
	return diff
}

// Commits returns the one-line commit subjects a conscript branch added on
// top of the base branch, or nil when unavailable.
func (m *Manager) Commits(branch string) []string {
	commits, err := m.git.LogRelative(branch, m.baseBranch)
	if err != nil {
		m.log.Debug().Err(err).Str("branch", branch).Msg("commit log unavailable")
		return nil
	}
	return commits
}
