package analyzer

import (
	"context"
	"log"
	"os"

	"github.com/jakoblorz/release-trucker/internal/config"
	"github.com/jakoblorz/release-trucker/internal/git"
	"github.com/jakoblorz/release-trucker/internal/models"
	"github.com/jakoblorz/release-trucker/internal/poller"
)

// Analyzer compares what each environment of a project is running against
// its neighbors in the promotion chain.
type Analyzer struct {
	poller poller.Client
	git    git.Client
	diff   *DiffEngine
	logger *log.Logger
}

// New creates an Analyzer.
func New(pollClient poller.Client, gitClient git.Client, lookback int, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.New(os.Stderr, "analyzer: ", log.LstdFlags)
	}
	return &Analyzer{
		poller: pollClient,
		git:    gitClient,
		diff:   NewDiffEngine(gitClient, lookback, logger),
		logger: logger,
	}
}

// AnalyzeProject analyzes a single project across all configured
// environments. Environments that cannot be polled or whose reference cannot
// be resolved are dropped; the analysis fails as a whole (nil) only when the
// repository is inaccessible or no environment resolved at all.
func (a *Analyzer) AnalyzeProject(ctx context.Context, project *config.ProjectConfig) *models.ProjectAnalysis {
	order := project.Order()

	opts := poller.Options{
		VerifySSL:       project.SSLVerificationEnabled(),
		VersionFallback: project.VersionFallbackEnabled(),
	}

	reported := make(map[string]poller.EnvironmentVersion)
	for _, env := range order {
		baseURL, ok := project.Env[env]
		if !ok {
			continue
		}

		a.logger.Printf("fetching version info for %s - %s", project.Name, env)
		info, ok := a.poller.Poll(ctx, baseURL, env, opts)
		if !ok {
			a.logger.Printf("could not fetch version info for %s - %s", project.Name, env)
			continue
		}
		reported[env] = info
	}

	if len(reported) == 0 {
		a.logger.Printf("no version information available for %s", project.Name)
		return nil
	}

	repo, err := a.git.EnsureLocalClone(ctx, project.RepoURL, project.Name)
	if err != nil {
		a.logger.Printf("could not access repository for %s: %v", project.Name, err)
		return nil
	}

	resolved := make(map[string]string, len(reported))
	for env, info := range reported {
		commitID, ok := a.git.ResolveReference(repo, info.CommitRef)
		if !ok {
			if info.FromVersionFallback {
				a.logger.Printf("version %q could not be resolved to a commit or tag for %s", info.CommitRef, env)
			} else {
				a.logger.Printf("commit %q not found in repository for %s", info.CommitRef, env)
			}
			continue
		}
		if info.FromVersionFallback {
			a.logger.Printf("resolved version %q to commit %.8s for %s", info.CommitRef, commitID, env)
		}
		resolved[env] = commitID
	}

	if len(resolved) == 0 {
		a.logger.Printf("no valid environment data for %s", project.Name)
		return nil
	}

	exclusive := a.diff.ExclusiveCommits(repo, resolved, order)

	environments := make(map[string]models.EnvironmentState, len(resolved))
	for env, commitID := range resolved {
		environments[env] = models.EnvironmentState{
			Environment: env,
			Version:     reported[env].Version,
			CommitID:    commitID,
			Commits:     exclusive[env],
		}
	}

	return &models.ProjectAnalysis{
		ProjectName:      project.Name,
		Environments:     environments,
		EnvironmentOrder: order,
	}
}
