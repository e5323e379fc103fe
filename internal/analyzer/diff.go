package analyzer

import (
	"log"
	"os"

	"github.com/jakoblorz/release-trucker/internal/git"
	"github.com/jakoblorz/release-trucker/internal/models"
)

// DiffEngine turns a set of per-environment resolved commit ids into
// per-environment exclusive commit lists.
//
// The last environment in promotion order is the baseline and always yields
// an empty list. Every other environment is diffed against the nearest
// environment after it that actually resolved, so a missing middle
// environment simply widens the comparison instead of breaking the chain.
type DiffEngine struct {
	git      git.Client
	lookback int
	logger   *log.Logger
}

// NewDiffEngine creates a DiffEngine. lookback bounds the history walk used
// when an environment has no baseline at all.
func NewDiffEngine(gitClient git.Client, lookback int, logger *log.Logger) *DiffEngine {
	if logger == nil {
		logger = log.New(os.Stderr, "analyzer: ", log.LstdFlags)
	}
	return &DiffEngine{
		git:      gitClient,
		lookback: lookback,
		logger:   logger,
	}
}

// ExclusiveCommits computes, for every environment present in resolved, the
// commits present in it but absent from its baseline. Environments absent
// from resolved produce no entry.
func (e *DiffEngine) ExclusiveCommits(repo *git.Repo, resolved map[string]string, order []string) map[string][]models.Commit {
	result := make(map[string][]models.Commit, len(resolved))

	for i, env := range order {
		commitID, ok := resolved[env]
		if !ok {
			continue
		}

		// The end of the promotion chain is the baseline itself.
		if i == len(order)-1 {
			result[env] = []models.Commit{}
			continue
		}

		baselineEnv := ""
		for j := i + 1; j < len(order); j++ {
			if _, ok := resolved[order[j]]; ok {
				baselineEnv = order[j]
				break
			}
		}

		if baselineEnv == "" {
			e.logger.Printf("no baseline found for %s, showing last %d commits", env, e.lookback)
			result[env] = e.git.RecentCommits(repo, commitID, e.lookback)
			continue
		}

		baselineCommit := resolved[baselineEnv]
		e.logger.Printf("comparing %s (%.8s) with %s (%.8s)", env, commitID, baselineEnv, baselineCommit)

		commits := e.git.CommitsBetween(repo, baselineCommit, commitID, true)
		if commits == nil {
			commits = []models.Commit{}
		}
		result[env] = commits
	}

	return result
}
