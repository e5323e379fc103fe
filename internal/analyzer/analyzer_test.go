package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakoblorz/release-trucker/internal/config"
	"github.com/jakoblorz/release-trucker/internal/git"
	"github.com/jakoblorz/release-trucker/internal/models"
	"github.com/jakoblorz/release-trucker/internal/poller"
)

func testProject() *config.ProjectConfig {
	return &config.ProjectConfig{
		Name:    "orders",
		RepoURL: "git@example.com:acme/orders.git",
		Env: map[string]string{
			models.EnvDEV:  "https://orders.dev.example.com",
			models.EnvTEST: "https://orders.test.example.com",
			models.EnvPRE:  "https://orders.pre.example.com",
			models.EnvPROD: "https://orders.example.com",
		},
	}
}

func TestAnalyzer_AnalyzeProject(t *testing.T) {
	m := git.NewMockClient()

	prodCommit := m.Commit("released")
	m.Tag("1.0.0")
	devCommit := m.Commit("feat: new work")

	p := &poller.MockClient{Responses: map[string]poller.EnvironmentVersion{
		models.EnvDEV:  {Environment: models.EnvDEV, Version: "1.1.0-SNAPSHOT", CommitRef: devCommit},
		models.EnvPROD: {Environment: models.EnvPROD, Version: "1.0.0", CommitRef: "1.0.0", FromVersionFallback: true},
	}}

	a := New(p, m, 100, discard())
	analysis := a.AnalyzeProject(context.Background(), testProject())
	require.NotNil(t, analysis)

	assert.Equal(t, "orders", analysis.ProjectName)
	assert.Equal(t, models.DefaultPromotionOrder(), analysis.EnvironmentOrder)

	// TEST and PRE never reported: absent, not present-with-null
	require.Len(t, analysis.Environments, 2)
	assert.NotContains(t, analysis.Environments, models.EnvTEST)
	assert.NotContains(t, analysis.Environments, models.EnvPRE)

	// The fallback version label resolved through the tag
	prod := analysis.Environments[models.EnvPROD]
	assert.Equal(t, prodCommit, prod.CommitID)
	assert.Empty(t, prod.Commits)

	dev := analysis.Environments[models.EnvDEV]
	assert.Equal(t, devCommit, dev.CommitID)
	require.Len(t, dev.Commits, 1)
	assert.Equal(t, "feat: new work", dev.Commits[0].Summary)
}

func TestAnalyzer_UnresolvableReferenceDropsEnvironment(t *testing.T) {
	m := git.NewMockClient()
	devCommit := m.Commit("work")

	p := &poller.MockClient{Responses: map[string]poller.EnvironmentVersion{
		models.EnvDEV:  {Environment: models.EnvDEV, Version: "dev", CommitRef: devCommit},
		models.EnvPROD: {Environment: models.EnvPROD, Version: "9.9.9", CommitRef: "9.9.9", FromVersionFallback: true},
	}}

	a := New(p, m, 100, discard())
	analysis := a.AnalyzeProject(context.Background(), testProject())
	require.NotNil(t, analysis)

	// PROD's version label matches no tag: dropped, DEV falls back to the
	// bounded lookback.
	require.Len(t, analysis.Environments, 1)
	assert.Contains(t, analysis.Environments, models.EnvDEV)
	assert.NotEmpty(t, analysis.Environments[models.EnvDEV].Commits)
}

func TestAnalyzer_CustomPromotionOrder(t *testing.T) {
	m := git.NewMockClient()
	devCommit := m.Commit("work")

	project := testProject()
	project.PromotionOrder = []string{models.EnvDEV, models.EnvPROD}

	p := &poller.MockClient{Responses: map[string]poller.EnvironmentVersion{
		models.EnvDEV:  {Environment: models.EnvDEV, Version: "dev", CommitRef: devCommit},
		models.EnvPROD: {Environment: models.EnvPROD, Version: "prod", CommitRef: devCommit},
	}}

	a := New(p, m, 100, discard())
	analysis := a.AnalyzeProject(context.Background(), project)
	require.NotNil(t, analysis)
	assert.Equal(t, []string{models.EnvDEV, models.EnvPROD}, analysis.EnvironmentOrder)
}

func TestAnalyzer_NoEnvironmentsReported(t *testing.T) {
	m := git.NewMockClient()
	p := &poller.MockClient{Responses: map[string]poller.EnvironmentVersion{}}

	a := New(p, m, 100, discard())
	assert.Nil(t, a.AnalyzeProject(context.Background(), testProject()))
}

func TestAnalyzer_RepositoryFailure(t *testing.T) {
	m := git.NewMockClient()
	m.EnsureCloneError = errors.New("network unreachable")

	devCommit := m.Commit("work")
	p := &poller.MockClient{Responses: map[string]poller.EnvironmentVersion{
		models.EnvDEV: {Environment: models.EnvDEV, Version: "dev", CommitRef: devCommit},
	}}

	a := New(p, m, 100, discard())
	assert.Nil(t, a.AnalyzeProject(context.Background(), testProject()))
}

func TestAnalyzer_NothingResolves(t *testing.T) {
	m := git.NewMockClient()
	m.Commit("work")

	p := &poller.MockClient{Responses: map[string]poller.EnvironmentVersion{
		models.EnvDEV: {Environment: models.EnvDEV, Version: "dev", CommitRef: "ffffffff"},
	}}

	a := New(p, m, 100, discard())
	assert.Nil(t, a.AnalyzeProject(context.Background(), testProject()))
}
