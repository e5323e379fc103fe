package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGithubClientFromEnv_NoToken(t *testing.T) {
	t.Setenv("GH_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	// Compared without reflection on purpose: a typed nil *github.Client
	// stored in the interface would not equal nil here.
	assert.True(t, githubClientFromEnv() == nil)
}

func TestGithubClientFromEnv_WithToken(t *testing.T) {
	t.Setenv("GH_TOKEN", "some-token")

	assert.NotNil(t, githubClientFromEnv())
}
