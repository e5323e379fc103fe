package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/models"
)

const sampleConfig = `
repos_dir: /var/cache/trucker
projects:
  - name: orders
    repoUrl: git@example.com:acme/orders.git
    env:
      DEV: https://orders.dev.example.com
      TEST: https://orders.test.example.com
      PRE: https://orders.pre.example.com
      PROD: https://orders.example.com
    jira_base_url: https://jira.example.com/browse
  - name: billing
    repoUrl: git@example.com:acme/billing.git
    env:
      DEV: https://billing.dev.example.com
      PROD: https://billing.example.com
    verify_ssl: false
    use_version_fallback: false
    main_branch: master
    promotion_order: [DEV, PROD]
`

func TestLoad(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/etc/trucker/config.yaml", []byte(sampleConfig))

	cfg, err := Load(fs, "/etc/trucker/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/trucker", cfg.ReposDir)
	assert.Equal(t, DefaultLookback, cfg.Lookback)
	require.Len(t, cfg.Projects, 2)

	orders := cfg.Projects[0]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, "git@example.com:acme/orders.git", orders.RepoURL)
	assert.Equal(t, "main", orders.MainBranch)
	assert.True(t, orders.SSLVerificationEnabled())
	assert.True(t, orders.VersionFallbackEnabled())
	assert.Len(t, orders.Env, 4)
	assert.Equal(t, "https://jira.example.com/browse", orders.JiraBaseURL)

	billing := cfg.Projects[1]
	assert.Equal(t, "master", billing.MainBranch)
	assert.False(t, billing.SSLVerificationEnabled())
	assert.False(t, billing.VersionFallbackEnabled())

	assert.Equal(t, models.DefaultPromotionOrder(), orders.Order())
	assert.Equal(t, []string{"DEV", "PROD"}, billing.Order())
}

func TestLoad_MissingFile(t *testing.T) {
	fs := filesystem.NewMockFileSystem()

	_, err := Load(fs, "missing.yaml")
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no projects", "projects: []"},
		{"missing name", "projects:\n  - repoUrl: git@example.com:a/b.git"},
		{"missing repoUrl", "projects:\n  - name: orders"},
		{"bad yaml", ":\n  - ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := filesystem.NewMockFileSystem()
			fs.AddFile("config.yaml", []byte(tt.content))

			_, err := Load(fs, "config.yaml")
			assert.Error(t, err)
		})
	}
}
