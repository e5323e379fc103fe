package github

import (
	"context"
)

// GitHubClient provides an abstraction over the GitHub API operations the
// enricher needs.
type GitHubClient interface {
	// ListPullRequestsByCommit returns the pull requests associated with a
	// commit SHA.
	ListPullRequestsByCommit(ctx context.Context, owner, repo, sha string) ([]*PullRequest, error)
}

// PullRequest represents a GitHub pull request
type PullRequest struct {
	Number         int
	Title          string
	HTMLURL        string
	Author         string
	State          string
	Merged         bool
	MergeCommitSHA string
}
