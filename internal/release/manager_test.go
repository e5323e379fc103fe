package release

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakoblorz/release-trucker/internal/config"
	"github.com/jakoblorz/release-trucker/internal/git"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testProject() *config.ProjectConfig {
	return &config.ProjectConfig{
		Name:       "orders",
		RepoURL:    "git@example.com:acme/orders.git",
		MainBranch: "main",
	}
}

func TestPrepareRelease_InvalidTicket(t *testing.T) {
	m := git.NewMockClient()
	mgr := NewManager(m, discard())

	for _, ticket := range []string{"bwd-123", "BWD123", "BWD-", "-123", "ABCDEFGHIJK-123"} {
		decision, repo, skip := mgr.PrepareRelease(context.Background(), testProject(), ticket)
		assert.Nil(t, decision, "ticket %q", ticket)
		assert.Nil(t, repo, "ticket %q", ticket)
		assert.Equal(t, SkipInvalidTicket, skip, "ticket %q", ticket)
	}

	// Rejection happens before any repository access
	assert.Equal(t, "main", m.CurrentBranch())
}

func TestPrepareRelease_RepoInaccessible(t *testing.T) {
	m := git.NewMockClient()
	m.EnsureCloneError = errors.New("auth failed")
	mgr := NewManager(m, discard())

	decision, repo, skip := mgr.PrepareRelease(context.Background(), testProject(), "BWD-123")
	assert.Nil(t, decision)
	assert.Nil(t, repo)
	assert.Equal(t, SkipRepoInaccessible, skip)
}

func TestPrepareRelease_CheckoutFailure(t *testing.T) {
	m := git.NewMockClient()
	m.CheckoutError = errors.New("dirty working tree")
	mgr := NewManager(m, discard())

	decision, _, skip := mgr.PrepareRelease(context.Background(), testProject(), "BWD-123")
	assert.Nil(t, decision)
	assert.Equal(t, SkipGitFailure, skip)
}

func TestPrepareRelease_ExistingBranchIsMinorBump(t *testing.T) {
	m := git.NewMockClient()

	released := m.Commit("released work")
	m.TagAt("1.0.0", released)
	m.TagAt("1.1.0", released)
	m.Commit("pending one")
	head := m.Commit("pending two")
	m.SetRemoteBranch("main", head)
	m.CreateBranch("release/BWD-123")

	mgr := NewManager(m, discard())
	decision, repo, skip := mgr.PrepareRelease(context.Background(), testProject(), "BWD-123")

	require.NotNil(t, decision)
	require.NotNil(t, repo)
	assert.Equal(t, SkipNone, skip)
	assert.Equal(t, "1.2.0", decision.NewVersion.String())
	assert.Equal(t, "release/BWD-123", decision.ReleaseBranch)
	assert.Equal(t, 2, decision.CommitCount)
	assert.True(t, decision.ChangesSinceLastTag)
	assert.Equal(t, "release/BWD-123", m.CurrentBranch())
}

func TestPrepareRelease_NewBranchClaimsNextMajor(t *testing.T) {
	m := git.NewMockClient()

	first := m.Commit("first release")
	m.TagAt("1.0.0", first)
	second := m.Commit("second release")
	m.TagAt("2.3.0", second)
	head := m.Commit("pending")
	m.SetRemoteBranch("main", head)

	mgr := NewManager(m, discard())
	decision, repo, skip := mgr.PrepareRelease(context.Background(), testProject(), "BWD-9")

	require.NotNil(t, decision)
	require.NotNil(t, repo)
	assert.Equal(t, SkipNone, skip)
	assert.Equal(t, "3.0.0", decision.NewVersion.String())
	assert.Equal(t, 1, decision.CommitCount)

	// The branch was created from main and is now checked out
	assert.Equal(t, "release/BWD-9", m.CurrentBranch())
	assert.True(t, m.BranchExists(nil, "release/BWD-9"))
}

func TestPrepareRelease_NoTagsAtAll(t *testing.T) {
	t.Run("new branch", func(t *testing.T) {
		m := git.NewMockClient()
		head := m.Commit("work")
		m.SetRemoteBranch("main", head)

		mgr := NewManager(m, discard())
		decision, _, skip := mgr.PrepareRelease(context.Background(), testProject(), "BWD-1")

		require.NotNil(t, decision)
		assert.Equal(t, SkipNone, skip)
		assert.Equal(t, "1.0.0", decision.NewVersion.String())
		// No semantic tag: every reachable commit counts
		assert.Equal(t, 2, decision.CommitCount)
	})

	t.Run("existing branch", func(t *testing.T) {
		m := git.NewMockClient()
		head := m.Commit("work")
		m.SetRemoteBranch("main", head)
		m.CreateBranch("release/BWD-1")

		mgr := NewManager(m, discard())
		decision, _, skip := mgr.PrepareRelease(context.Background(), testProject(), "BWD-1")

		require.NotNil(t, decision)
		assert.Equal(t, SkipNone, skip)
		assert.Equal(t, "1.0.0", decision.NewVersion.String())
	})
}

func TestPrepareRelease_UpToDate(t *testing.T) {
	m := git.NewMockClient()

	head := m.Commit("released work")
	m.TagAt("1.0.0", head)
	m.SetRemoteBranch("main", head)

	mgr := NewManager(m, discard())
	decision, repo, skip := mgr.PrepareRelease(context.Background(), testProject(), "BWD-123")

	assert.Nil(t, decision)
	assert.Nil(t, repo)
	assert.Equal(t, SkipUpToDate, skip)
}

func TestPrepareRelease_UnresolvableRemoteIsGitFailure(t *testing.T) {
	m := git.NewMockClient()
	m.Commit("work")
	m.CreateBranch("trunk")

	// origin/trunk does not exist: the count cannot be taken at all, which
	// must surface as a failure, not as "nothing to release".
	project := testProject()
	project.MainBranch = "trunk"

	mgr := NewManager(m, discard())
	decision, repo, skip := mgr.PrepareRelease(context.Background(), project, "BWD-5")

	assert.Nil(t, decision)
	assert.Nil(t, repo)
	assert.Equal(t, SkipGitFailure, skip)
}

func TestPrepareRelease_CountsAgainstRemoteRef(t *testing.T) {
	m := git.NewMockClient()

	released := m.Commit("released")
	m.TagAt("1.0.0", released)

	// Commits pushed by someone else: present on the remote, absent from the
	// local main until the clone refresh fast-forwards it.
	m.CreateBranch("incoming")
	m.SwitchBranch("incoming")
	m.Commit("pushed by someone else")
	remoteHead := m.Commit("also pushed")
	m.SetRemoteBranch("main", remoteHead)
	m.SwitchBranch("main")

	mgr := NewManager(m, discard())
	decision, _, skip := mgr.PrepareRelease(context.Background(), testProject(), "BWD-77")

	require.NotNil(t, decision)
	assert.Equal(t, SkipNone, skip)
	assert.Equal(t, 2, decision.CommitCount)
}
