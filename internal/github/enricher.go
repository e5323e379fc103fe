package github

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jakoblorz/release-trucker/internal/models"
)

// remotePattern matches GitHub remotes in ssh and https form, capturing
// owner and repository name.
var remotePattern = regexp.MustCompile(`^(?:git@github\.com:|https://github\.com/)([^/]+)/(.+?)(?:\.git)?$`)

// ParseRemote extracts owner and repository from a GitHub remote URL.
// ok is false for remotes that are not hosted on github.com.
func ParseRemote(remoteURL string) (owner, repo string, ok bool) {
	m := remotePattern.FindStringSubmatch(remoteURL)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Enricher annotates commit records with the pull request that introduced
// them. Enrichment is best-effort: lookups that fail produce warnings, never
// a failed analysis.
type Enricher struct {
	gh GitHubClient
}

// EnrichmentResult reports what the enricher managed to do.
type EnrichmentResult struct {
	Enriched int
	Warnings []error
}

// NewEnricher creates an Enricher.
func NewEnricher(ghClient GitHubClient) *Enricher {
	return &Enricher{gh: ghClient}
}

// Enrich fills PRNumber/PRTitle on each commit that maps to a pull request.
// The commits slice is modified in place.
func (e *Enricher) Enrich(ctx context.Context, commits []models.Commit, owner, repo string) (EnrichmentResult, error) {
	if e.gh == nil {
		return EnrichmentResult{}, fmt.Errorf("GitHub client not available")
	}

	result := EnrichmentResult{}

	for i := range commits {
		prs, err := e.gh.ListPullRequestsByCommit(ctx, owner, repo, commits[i].ID)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("failed to lookup PRs for %s: %w", commits[i].ShortID, err))
			continue
		}

		pr := selectBestPR(prs, commits[i].ID)
		if pr == nil {
			continue
		}

		commits[i].PRNumber = pr.Number
		commits[i].PRTitle = pr.Title
		result.Enriched++
	}

	return result, nil
}

// selectBestPR prefers the merged PR whose merge commit is the commit
// itself, then any merged PR, then nothing.
func selectBestPR(prs []*PullRequest, commitSHA string) *PullRequest {
	if len(prs) == 0 {
		return nil
	}

	for _, pr := range prs {
		if pr.Merged && pr.MergeCommitSHA == commitSHA {
			return pr
		}
	}

	for _, pr := range prs {
		if pr.Merged {
			return pr
		}
	}

	return nil
}
