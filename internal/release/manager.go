package release

import (
	"context"
	"log"
	"os"

	"github.com/jakoblorz/release-trucker/internal/config"
	"github.com/jakoblorz/release-trucker/internal/git"
	"github.com/jakoblorz/release-trucker/internal/models"
	"github.com/jakoblorz/release-trucker/internal/versioning"
)

// Skip explains why no release decision was produced for a project. A release
// run over many projects never aborts on one project's git failure; each
// failure is absorbed into a skip with a reason the caller can display.
type Skip string

const (
	SkipNone             Skip = ""
	SkipInvalidTicket    Skip = "invalid ticket format"
	SkipRepoInaccessible Skip = "repository inaccessible"
	SkipGitFailure       Skip = "git operation failed"
	SkipUpToDate         Skip = "up to date"
)

// Manager decides, per project, whether a release should be cut and what the
// next version is. It only computes; pushing branches and tags is left to the
// caller after explicit confirmation.
type Manager struct {
	git    git.Client
	tags   *versioning.TagIndex
	logger *log.Logger
}

// NewManager creates a release Manager.
func NewManager(gitClient git.Client, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(os.Stderr, "release: ", log.LstdFlags)
	}
	return &Manager{
		git:    gitClient,
		tags:   versioning.NewTagIndex(gitClient),
		logger: logger,
	}
}

// PrepareRelease runs the release state machine for one project:
//
//   - an existing release/<ticket> branch is re-entered with a minor bump on
//     top of the latest released version
//   - a new release branch claims the next unused major version
//   - zero unreleased commits on origin/<main> means nothing to cut
//
// The unreleased count is taken against the remote tracking ref, not local
// HEAD; a stale local HEAD would silently undercount commits pushed by
// others since the last fetch.
//
// On success the clone handle is returned alongside the decision. The caller
// must push and tag through that same handle: re-obtaining the clone would
// refresh it and move HEAD off the release branch the decision describes.
func (m *Manager) PrepareRelease(ctx context.Context, project *config.ProjectConfig, ticket string) (*models.ReleaseDecision, *git.Repo, Skip) {
	if !models.ValidTicket(ticket) {
		m.logger.Printf("invalid ticket format: %s", ticket)
		return nil, nil, SkipInvalidTicket
	}

	repo, err := m.git.EnsureLocalClone(ctx, project.RepoURL, project.Name)
	if err != nil {
		m.logger.Printf("failed to access repository for %s: %v", project.Name, err)
		return nil, nil, SkipRepoInaccessible
	}

	if err := m.git.Checkout(repo, project.MainBranch, false); err != nil {
		m.logger.Printf("failed to checkout %s for %s: %v", project.MainBranch, project.Name, err)
		return nil, nil, SkipGitFailure
	}

	releaseBranch := "release/" + ticket

	var newVersion models.Version
	if m.git.BranchExists(repo, releaseBranch) {
		m.logger.Printf("release branch %s already exists, checking out", releaseBranch)
		if err := m.git.Checkout(repo, releaseBranch, false); err != nil {
			m.logger.Printf("failed to checkout %s: %v", releaseBranch, err)
			return nil, nil, SkipGitFailure
		}

		// Re-entering an existing release branch is a minor bump on top of
		// the last real release; a never-tagged repo starts a fresh major.
		if latest, ok := m.tags.Latest(repo); ok {
			newVersion = latest.BumpMinor()
		} else {
			newVersion = models.Version{Major: m.tags.HighestMajor(repo) + 1}
		}
	} else {
		m.logger.Printf("creating new release branch %s", releaseBranch)
		if err := m.git.Checkout(repo, releaseBranch, true); err != nil {
			m.logger.Printf("failed to create %s: %v", releaseBranch, err)
			return nil, nil, SkipGitFailure
		}

		// A brand-new release branch always claims the next unused major.
		newVersion = models.Version{Major: m.tags.HighestMajor(repo) + 1}
	}

	commitCount, ok := m.countUnreleased(repo, project.MainBranch)
	if !ok {
		return nil, nil, SkipGitFailure
	}
	if commitCount == 0 {
		m.logger.Printf("no changes since last tag for %s, skipping", project.Name)
		return nil, nil, SkipUpToDate
	}

	return &models.ReleaseDecision{
		ProjectName:         project.Name,
		Ticket:              ticket,
		ReleaseBranch:       releaseBranch,
		NewVersion:          newVersion,
		CommitCount:         commitCount,
		ChangesSinceLastTag: true,
	}, repo, SkipNone
}

// countUnreleased counts commits on origin/<mainBranch> since the most
// recently created semantic version tag, or all reachable commits when no
// such tag exists. ok is false when the remote ref cannot be resolved at
// all, which is a git failure and not the same as an up-to-date count of
// zero.
func (m *Manager) countUnreleased(repo *git.Repo, mainBranch string) (int, bool) {
	remoteRef := "origin/" + mainBranch
	if _, ok := m.git.ResolveReference(repo, remoteRef); !ok {
		m.logger.Printf("cannot resolve %s in %s", remoteRef, repo.Name)
		return 0, false
	}

	from := ""
	if tag, ok := m.tags.LatestByCommitDate(repo); ok {
		if ref, ok := m.git.TagTarget(repo, tag); ok {
			from = ref.CommitID
		}
	}

	return len(m.git.CommitsBetween(repo, from, remoteRef, false)), true
}

// PushBranch pushes the release branch and sets upstream tracking.
func (m *Manager) PushBranch(repo *git.Repo, branch string) error {
	return m.git.PushBranch(repo, branch)
}

// CreateTag creates the annotated release tag at the current HEAD.
func (m *Manager) CreateTag(repo *git.Repo, name, message string) error {
	return m.git.CreateAnnotatedTag(repo, name, message)
}

// PushTag pushes the release tag.
func (m *Manager) PushTag(repo *git.Repo, name string) error {
	return m.git.PushTag(repo, name)
}
