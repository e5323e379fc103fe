package report

import (
	"testing"
	"time"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakoblorz/release-trucker/internal/config"
	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/models"
)

func fixtureAnalyses() []*models.ProjectAnalysis {
	date := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	return []*models.ProjectAnalysis{
		{
			ProjectName:      "orders",
			EnvironmentOrder: models.DefaultPromotionOrder(),
			Environments: map[string]models.EnvironmentState{
				models.EnvDEV: {
					Environment: models.EnvDEV,
					Version:     "1.3.0-SNAPSHOT",
					CommitID:    "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
					Commits: []models.Commit{
						{
							ID:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
							ShortID: "aaaaaaaa",
							Summary: "BWD-42 add express checkout",
							Author:  "Jane Doe <jane@example.com>",
							Date:    date,
						},
						{
							ID:           "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
							ShortID:      "bbbbbbbb",
							Summary:      "BWD-42 checkout validation",
							Author:       "John Doe <john@example.com>",
							Date:         date.Add(-time.Hour),
							MergedCommit: true,
						},
					},
				},
				models.EnvPROD: {
					Environment: models.EnvPROD,
					Version:     "1.2.0",
					CommitID:    "cccccccccccccccccccccccccccccccccccccccc",
					Commits:     []models.Commit{},
				},
			},
		},
	}
}

func TestHTMLGenerator_Generate(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	gen := NewHTMLGenerator(fs)

	projects := []config.ProjectConfig{
		{Name: "orders", JiraBaseURL: "https://jira.example.com/browse"},
	}

	err := gen.Generate(fixtureAnalyses(), projects, "testrun123", "out/report.html")
	require.NoError(t, err)

	data, err := fs.ReadFile("out/report.html")
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "testrun123")
	assert.Contains(t, html, "orders")
	assert.Contains(t, html, `<a href="https://jira.example.com/browse/BWD-42">BWD-42</a>`)
	assert.Contains(t, html, `class="merged"`)
	assert.Contains(t, html, "unavailable") // TEST and PRE never resolved
	assert.Contains(t, html, "aaaaaaaa")
}

func TestHTMLGenerator_EscapesSummaries(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	gen := NewHTMLGenerator(fs)

	analyses := fixtureAnalyses()
	env := analyses[0].Environments[models.EnvDEV]
	env.Commits[0].Summary = `<script>alert("x")</script>`
	analyses[0].Environments[models.EnvDEV] = env

	err := gen.Generate(analyses, nil, "run", "report.html")
	require.NoError(t, err)

	data, _ := fs.ReadFile("report.html")
	assert.NotContains(t, string(data), "<script>alert")
}

func TestCSVGenerator_Snapshots(t *testing.T) {
	t.Run("summary", func(t *testing.T) {
		fs := filesystem.NewMockFileSystem()
		gen := NewCSVGenerator(fs)

		err := gen.Generate(fixtureAnalyses(), CSVSummary, "testrun123", "report.csv")
		require.NoError(t, err)

		data, err := fs.ReadFile("report.csv")
		require.NoError(t, err)
		snaps.MatchSnapshot(t, string(data))
	})

	t.Run("detailed", func(t *testing.T) {
		fs := filesystem.NewMockFileSystem()
		gen := NewCSVGenerator(fs)

		err := gen.Generate(fixtureAnalyses(), CSVDetailed, "testrun123", "report.csv")
		require.NoError(t, err)

		data, err := fs.ReadFile("report.csv")
		require.NoError(t, err)
		snaps.MatchSnapshot(t, string(data))
	})
}

func TestParseCSVFormat(t *testing.T) {
	for _, valid := range []string{"summary", "detailed"} {
		_, err := ParseCSVFormat(valid)
		assert.NoError(t, err)
	}

	_, err := ParseCSVFormat("wide")
	assert.Error(t, err)
}

func TestSynced(t *testing.T) {
	analysis := &models.ProjectAnalysis{
		Environments: map[string]models.EnvironmentState{
			models.EnvDEV:  {CommitID: "abc"},
			models.EnvPROD: {CommitID: "abc"},
		},
	}
	assert.True(t, Synced(analysis))

	analysis.Environments[models.EnvDEV] = models.EnvironmentState{CommitID: "def"}
	assert.False(t, Synced(analysis))

	assert.False(t, Synced(&models.ProjectAnalysis{Environments: map[string]models.EnvironmentState{}}))
}

func TestCollectTicketStats(t *testing.T) {
	date := time.Now()
	analyses := []*models.ProjectAnalysis{
		{
			ProjectName: "orders",
			Environments: map[string]models.EnvironmentState{
				models.EnvDEV: {Commits: []models.Commit{
					{Summary: "BWD-1 one", Date: date},
					{Summary: "BWD-2 two", Date: date},
				}},
				models.EnvTEST: {Commits: []models.Commit{
					{Summary: "BWD-1 one (cherry pick)", Date: date},
				}},
			},
		},
	}

	stats := CollectTicketStats(analyses)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.MultiEnv)
	assert.Equal(t, 1, stats.SingleEnv)
	assert.Equal(t, 2, stats.ByEnvironment[models.EnvDEV])
	assert.Equal(t, 1, stats.ByEnvironment[models.EnvTEST])
}
