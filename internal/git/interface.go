// Package git provides an interface for git operations.
package git

// BranchOperations defines the interface for git branch operations.
type BranchOperations interface {
	// CurrentBranch returns the name of the current branch.
	CurrentBranch() (string, error)
	// CheckoutBranch switches to the specified branch.
	CheckoutBranch(name string) error
	// BranchExists returns true if the branch exists.
	BranchExists(name string) (bool, error)
	// DeleteBranch deletes the specified branch (force delete).
	DeleteBranch(name string) error
}

// WorktreeOperations defines the interface for git worktree operations.
type WorktreeOperations interface {
	// WorktreeAddNewBranch creates a worktree at path bound to a new branch
	// started from the given base ref (git worktree add -b).
	WorktreeAddNewBranch(path, branch, base string) error
	// WorktreeRemove force-removes the worktree at the given path.
	WorktreeRemove(path string) error
	// WorktreePruneExpireNow prunes stale worktree metadata with --expire now.
	WorktreePruneExpireNow() error
}

// MergeOperations defines the interface for git merge operations.
type MergeOperations interface {
	// MergeSquash stages the squashed changes of a branch (--squash).
	// The caller commits the result.
	MergeSquash(branch string) error
	// MergeNoFFMessage merges the branch with --no-ff and a custom message.
	MergeNoFFMessage(branch, message string) error
	// MergeAbort aborts an in-progress merge.
	MergeAbort() error
	// ResetMerge resets a conflicted working tree (git reset --merge).
	// Covers squash conflicts, which leave no MERGE_HEAD to abort.
	ResetMerge() error
	// Commit creates a new commit with the given message.
	Commit(message string) error
	// ConflictedFiles returns a list of files with unmerged changes.
	ConflictedFiles() ([]string, error)
}

// DiffOperations defines the interface for read-only diff queries. All
// branch-relative queries use the triple-dot (merge-base-relative) range.
type DiffOperations interface {
	// Status returns the output of git status --porcelain.
	Status() (string, error)
	// ChangedFilesRelative returns files changed on a branch relative to
	// another (relativeTo...branch).
	ChangedFilesRelative(branch, relativeTo string) ([]string, error)
	// DiffRelative returns the full diff of relativeTo...branch.
	DiffRelative(branch, relativeTo string) (string, error)
	// DiffStatRelative returns the stat summary of relativeTo...branch.
	DiffStatRelative(branch, relativeTo string) (string, error)
	// DiffFileRelative returns the diff of one path in relativeTo...branch.
	DiffFileRelative(branch, relativeTo, path string) (string, error)
	// LogRelative returns one-line commit subjects on relativeTo..branch.
	LogRelative(branch, relativeTo string) ([]string, error)
}

// RemoteOperations defines the interface for git remote operations.
type RemoteOperations interface {
	// PullFFOnly pulls from remote with fast-forward only.
	// The absence of a remote is not an error.
	PullFFOnly() error
}

// Runner defines the complete interface for git operations.
// Consumers should prefer the focused interfaces when possible.
type Runner interface {
	BranchOperations
	WorktreeOperations
	MergeOperations
	DiffOperations
	RemoteOperations
	// Run executes an arbitrary git command with the given arguments.
	Run(args ...string) (string, error)
}
