package workspace

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// fakeGit implements git.Runner with scriptable behavior and a call log.
type fakeGit struct {
	calls []string

	currentBranch  string
	branches       map[string]bool
	conflicts      []string
	squashErr      error
	noFFErr        error
	commitErr      error
	abortErr       error
	worktreeAddErr error
	worktreeRmErr  error
	pullErr        error
}

func newFakeGit() *fakeGit {
	return &fakeGit{currentBranch: "main", branches: map[string]bool{"main": true}}
}

func (f *fakeGit) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeGit) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (f *fakeGit) CurrentBranch() (string, error) {
	f.record("current-branch")
	return f.currentBranch, nil
}

func (f *fakeGit) CheckoutBranch(name string) error {
	f.record("checkout " + name)
	f.currentBranch = name
	return nil
}

func (f *fakeGit) BranchExists(name string) (bool, error) {
	f.record("branch-exists " + name)
	return f.branches[name], nil
}

func (f *fakeGit) DeleteBranch(name string) error {
	f.record("delete-branch " + name)
	delete(f.branches, name)
	return nil
}

func (f *fakeGit) WorktreeAddNewBranch(path, branch, base string) error {
	f.record("worktree-add " + branch + " " + path + " " + base)
	if f.worktreeAddErr != nil {
		return f.worktreeAddErr
	}
	f.branches[branch] = true
	return nil
}

func (f *fakeGit) WorktreeRemove(path string) error {
	f.record("worktree-remove " + path)
	return f.worktreeRmErr
}

func (f *fakeGit) WorktreePruneExpireNow() error {
	f.record("worktree-prune")
	return nil
}

func (f *fakeGit) MergeSquash(branch string) error {
	f.record("merge-squash " + branch)
	return f.squashErr
}

func (f *fakeGit) MergeNoFFMessage(branch, message string) error {
	f.record("merge-no-ff " + branch)
	return f.noFFErr
}

func (f *fakeGit) MergeAbort() error {
	f.record("merge-abort")
	return f.abortErr
}

func (f *fakeGit) ResetMerge() error {
	f.record("reset-merge")
	return nil
}

func (f *fakeGit) Commit(message string) error {
	f.record("commit")
	return f.commitErr
}

func (f *fakeGit) ConflictedFiles() ([]string, error) {
	f.record("conflicted-files")
	return f.conflicts, nil
}

func (f *fakeGit) Status() (string, error) { return "", nil }

func (f *fakeGit) ChangedFilesRelative(branch, relativeTo string) ([]string, error) {
	f.record("changed-files " + relativeTo + "..." + branch)
	return []string{"a.go", "b.go"}, nil
}

func (f *fakeGit) DiffRelative(branch, relativeTo string) (string, error) {
	return "diff " + relativeTo + "..." + branch, nil
}

func (f *fakeGit) DiffStatRelative(branch, relativeTo string) (string, error) {
	return "2 files changed", nil
}

func (f *fakeGit) DiffFileRelative(branch, relativeTo, path string) (string, error) {
	return "diff " + path, nil
}

func (f *fakeGit) LogRelative(branch, relativeTo string) ([]string, error) {
	return []string{"abc123 change"}, nil
}

func (f *fakeGit) PullFFOnly() error {
	f.record("pull")
	return f.pullErr
}

func (f *fakeGit) Run(args ...string) (string, error) { return "", nil }

func newTestManager(t *testing.T, g *fakeGit) *Manager {
	t.Helper()
	return NewManager(t.TempDir(), "/repo", "main", g, zerolog.Nop())
}

func TestCreateProvisionsWorktreeFromBase(t *testing.T) {
	g := newFakeGit()
	m := newTestManager(t, g)

	ws, err := m.Create("conscript-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ws.Branch != "conscript/conscript-1" {
		t.Errorf("branch = %q, want conscript/conscript-1", ws.Branch)
	}
	if ws.Path != m.PathFor("conscript-1") {
		t.Errorf("path = %q, want %q", ws.Path, m.PathFor("conscript-1"))
	}
	want := "worktree-add conscript/conscript-1 " + ws.Path + " main"
	if !g.called(want) {
		t.Errorf("expected %q in calls %v", want, g.calls)
	}
}

func TestCreateIsRetrySafe(t *testing.T) {
	g := newFakeGit()
	m := newTestManager(t, g)

	// Leftovers from a crashed earlier attempt: directory on disk plus a
	// stale branch.
	path := m.PathFor("conscript-1")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	g.branches["conscript/conscript-1"] = true

	ws, err := m.Create("conscript-1")
	if err != nil {
		t.Fatalf("Create after crash failed: %v", err)
	}
	if !g.called("worktree-remove " + path) {
		t.Errorf("stale worktree was not removed: %v", g.calls)
	}
	if !g.called("delete-branch conscript/conscript-1") {
		t.Errorf("stale branch was not deleted: %v", g.calls)
	}
	if !g.called("worktree-add conscript/conscript-1 " + ws.Path) {
		t.Errorf("worktree was not recreated: %v", g.calls)
	}
}

func TestCreateRemovesUnregisteredDirectory(t *testing.T) {
	g := newFakeGit()
	g.worktreeRmErr = os.ErrInvalid // directory exists but git does not know it
	m := newTestManager(t, g)

	path := m.PathFor("conscript-1")
	if err := os.MkdirAll(filepath.Join(path, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Create("conscript-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		// The worktree-add fake does not recreate the directory, so a
		// clean removal leaves nothing behind.
		t.Errorf("stale directory still present")
	}
}

func TestMergeSquashCommitsResult(t *testing.T) {
	g := newFakeGit()
	m := newTestManager(t, g)

	res, err := m.Merge("conscript/c1", MergeSquash, "land c1")
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !res.Merged {
		t.Fatal("expected clean merge")
	}
	if !g.called("merge-squash conscript/c1") || !g.called("commit") {
		t.Errorf("squash merge did not stage and commit: %v", g.calls)
	}
}

func TestMergeChecksOutBaseFirst(t *testing.T) {
	g := newFakeGit()
	g.currentBranch = "conscript/other"
	m := newTestManager(t, g)

	if _, err := m.Merge("conscript/c1", MergeCommit, "land c1"); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !g.called("checkout main") {
		t.Errorf("merge did not return to base branch first: %v", g.calls)
	}
	if !g.called("merge-no-ff conscript/c1") {
		t.Errorf("no-ff merge not attempted: %v", g.calls)
	}
}

func TestMergeConflictAbortsAndReportsFiles(t *testing.T) {
	g := newFakeGit()
	g.noFFErr = os.ErrInvalid
	g.conflicts = []string{"main.go", "util.go"}
	m := newTestManager(t, g)

	res, err := m.Merge("conscript/c1", MergeCommit, "land c1")
	if err != nil {
		t.Fatalf("conflicted merge should not be an error: %v", err)
	}
	if res.Merged {
		t.Fatal("conflicted merge reported as merged")
	}
	if !reflect.DeepEqual(res.Conflicts, []string{"main.go", "util.go"}) {
		t.Errorf("conflicts = %v", res.Conflicts)
	}
	if !g.called("merge-abort") {
		t.Errorf("merge was not aborted: %v", g.calls)
	}
}

func TestSquashConflictFallsBackToResetMerge(t *testing.T) {
	g := newFakeGit()
	g.squashErr = os.ErrInvalid
	g.conflicts = []string{"main.go"}
	g.abortErr = os.ErrInvalid // squash conflicts leave no MERGE_HEAD
	m := newTestManager(t, g)

	res, err := m.Merge("conscript/c1", MergeSquash, "land c1")
	if err != nil {
		t.Fatalf("conflicted squash should not be an error: %v", err)
	}
	if res.Merged {
		t.Fatal("conflicted squash reported as merged")
	}
	if !g.called("reset-merge") {
		t.Errorf("reset --merge fallback not used: %v", g.calls)
	}
}

func TestMergeFailureWithoutConflictsIsAnError(t *testing.T) {
	g := newFakeGit()
	g.noFFErr = os.ErrInvalid
	m := newTestManager(t, g)

	if _, err := m.Merge("conscript/c1", MergeCommit, "land c1"); err == nil {
		t.Fatal("expected error for non-conflict merge failure")
	}
}

func TestDestroyRemovesWorktreeBeforeBranch(t *testing.T) {
	g := newFakeGit()
	m := newTestManager(t, g)

	if _, err := m.Create("conscript-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Destroy("conscript-1"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	rm, del := -1, -1
	for i, c := range g.calls {
		if strings.HasPrefix(c, "worktree-remove") && rm == -1 && i > 0 {
			rm = i
		}
		if c == "delete-branch conscript/conscript-1" {
			del = i
		}
	}
	if rm == -1 || del == -1 || rm > del {
		t.Errorf("worktree must be removed before its branch: %v", g.calls)
	}
	if g.branches["conscript/conscript-1"] {
		t.Error("branch still exists after destroy")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	g := newFakeGit()
	g.worktreeRmErr = os.ErrInvalid
	m := newTestManager(t, g)

	if err := m.Destroy("never-created"); err != nil {
		t.Fatalf("Destroy of absent workspace failed: %v", err)
	}
}

func TestDiffQueriesDegradeToEmpty(t *testing.T) {
	g := newFakeGit()
	m := newTestManager(t, g)

	if got := m.ChangedFiles("conscript/c1"); len(got) != 2 {
		t.Errorf("ChangedFiles = %v", got)
	}
	if got := m.Diff("conscript/c1"); got == "" {
		t.Error("Diff returned empty for healthy branch")
	}

	// A broken branch yields empty results, not errors.
	broken := &brokenGit{fakeGit: g}
	m = NewManager(t.TempDir(), "/repo", "main", broken, zerolog.Nop())
	if got := m.ChangedFiles("gone"); got != nil {
		t.Errorf("ChangedFiles on broken branch = %v, want nil", got)
	}
	if got := m.Diff("gone"); got != "" {
		t.Errorf("Diff on broken branch = %q, want empty", got)
	}
	if got := m.DiffStat("gone"); got != "" {
		t.Errorf("DiffStat on broken branch = %q, want empty", got)
	}
	if got := m.Commits("gone"); got != nil {
		t.Errorf("Commits on broken branch = %v, want nil", got)
	}
}

// brokenGit fails every read-only query.
type brokenGit struct{ *fakeGit }

func (b *brokenGit) ChangedFilesRelative(branch, relativeTo string) ([]string, error) {
	return nil, os.ErrInvalid
}

func (b *brokenGit) DiffRelative(branch, relativeTo string) (string, error) {
	return "", os.ErrInvalid
}

func (b *brokenGit) DiffStatRelative(branch, relativeTo string) (string, error) {
	return "", os.ErrInvalid
}

func (b *brokenGit) LogRelative(branch, relativeTo string) ([]string, error) {
	return nil, os.ErrInvalid
}
