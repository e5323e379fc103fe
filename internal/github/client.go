package github

import (
	"context"
	"fmt"
	"os"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Client implements GitHubClient using the real GitHub API
type Client struct {
	client *github.Client
}

var (
	ErrGitHubTokenNotFound = fmt.Errorf("GITHUB_TOKEN or GH_TOKEN environment variable not found")
)

// NewClient creates a new GitHub API client
func NewClient(token string) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		client: github.NewClient(tc),
	}
}

// NewClientFromEnv creates a GitHub client using the token from environment variables
func NewClientFromEnv() (*Client, error) {
	token := os.Getenv("GH_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, ErrGitHubTokenNotFound
	}

	return NewClient(token), nil
}

func (c *Client) ListPullRequestsByCommit(ctx context.Context, owner, repo, sha string) ([]*PullRequest, error) {
	prs, _, err := c.client.PullRequests.ListPullRequestsWithCommit(ctx, owner, repo, sha, &github.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for commit %s: %w", sha, err)
	}

	result := make([]*PullRequest, 0, len(prs))
	for _, pr := range prs {
		result = append(result, convertPullRequest(pr))
	}
	return result, nil
}

func convertPullRequest(pr *github.PullRequest) *PullRequest {
	result := &PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		HTMLURL: pr.GetHTMLURL(),
		State:   pr.GetState(),
		Merged:  pr.GetMerged(),
	}

	if pr.GetUser() != nil {
		result.Author = pr.GetUser().GetLogin()
	}

	if pr.GetMergeCommitSHA() != "" {
		result.MergeCommitSHA = pr.GetMergeCommitSHA()
	}

	return result
}

var _ GitHubClient = (*Client)(nil)
