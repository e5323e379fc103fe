package github

import (
	"context"
)

// MockGitHubClient implements GitHubClient for testing
type MockGitHubClient struct {
	// PullRequestsByCommit maps commit SHA to the PRs returned for it
	PullRequestsByCommit map[string][]*PullRequest

	// ListError is returned by every lookup when set
	ListError error

	// Queried records the SHAs looked up, in order
	Queried []string
}

// NewMockGitHubClient creates a new MockGitHubClient
func NewMockGitHubClient() *MockGitHubClient {
	return &MockGitHubClient{
		PullRequestsByCommit: make(map[string][]*PullRequest),
	}
}

func (m *MockGitHubClient) ListPullRequestsByCommit(_ context.Context, _, _, sha string) ([]*PullRequest, error) {
	m.Queried = append(m.Queried, sha)
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.PullRequestsByCommit[sha], nil
}

var _ GitHubClient = (*MockGitHubClient)(nil)
