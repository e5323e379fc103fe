package git

import (
	"context"
	"time"

	"github.com/jakoblorz/release-trucker/internal/models"
)

// Repo is an opaque handle to a managed local clone. Callers never touch the
// clone directory directly; every operation goes through a Client.
type Repo struct {
	Name string
	Path string
}

// TagRef describes the commit a tag points at.
type TagRef struct {
	CommitID   string
	CommitTime time.Time
}

// Client provides an abstraction over git operations for testability.
//
// Error handling follows a fixed policy: resolution queries return an
// explicit ok/not-found result, read operations degrade to empty results
// (logged), and only clone/fetch and the mutating operations surface errors.
// A failed clone must be distinguishable from a clone that succeeded but
// could not fast-forward main/master, which is why EnsureLocalClone alone
// returns a usable handle together with degraded-but-ok semantics.
type Client interface {
	// EnsureLocalClone clones remoteURL under the managed root if no clone
	// named name exists yet; otherwise it fetches origin and tries to
	// fast-forward main (falling back to master). The fallback failing is
	// logged, not fatal: the caller still gets a usable handle.
	EnsureLocalClone(ctx context.Context, remoteURL, name string) (*Repo, error)

	// ResolveReference resolves a commit hash, tag or branch name to a full
	// commit id. Not-found is a normal outcome, not an error.
	ResolveReference(repo *Repo, ref string) (string, bool)

	// CommitsBetween returns commits reachable from to but not from from
	// (two-dot exclusion) in git's native order. An empty from means all
	// ancestors of to. With expandMerges, each returned merge commit's
	// non-first-parent exclusive history (relative to from) is spliced in,
	// deduplicated by id and flagged as merge-absorbed, and the combined
	// list is re-sorted by commit time ascending.
	CommitsBetween(repo *Repo, from, to string, expandMerges bool) []models.Commit

	// RecentCommits returns at most limit commits reachable from ref,
	// newest first. Used as a bounded lookback when no diff baseline exists.
	RecentCommits(repo *Repo, ref string, limit int) []models.Commit

	ListTags(repo *Repo) []string
	TagTarget(repo *Repo, tag string) (TagRef, bool)

	// BranchExists checks local heads first, then origin/<name>.
	BranchExists(repo *Repo, name string) bool

	// Checkout switches to name. With create, the branch is created from
	// the current HEAD first. Without create, a missing local branch is
	// materialized as a tracking branch from origin/<name> if possible.
	Checkout(repo *Repo, name string, create bool) error

	CreateAnnotatedTag(repo *Repo, name, message string) error

	// PushBranch pushes name:name and sets upstream tracking.
	PushBranch(repo *Repo, name string) error

	// PushTag pushes via an explicit refs/tags refspec; plain tag names are
	// ambiguous to some git front-ends.
	PushTag(repo *Repo, name string) error

	// CleanupAll removes every managed clone under the root.
	CleanupAll() error
}
