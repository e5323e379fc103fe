package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakoblorz/release-trucker/internal/analyzer"
	"github.com/jakoblorz/release-trucker/internal/config"
	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/github"
	"github.com/jakoblorz/release-trucker/internal/models"
	"github.com/jakoblorz/release-trucker/internal/poller"
	"github.com/jakoblorz/release-trucker/internal/report"
	"github.com/jakoblorz/release-trucker/internal/tui"
)

// AnalyzeCommand handles the analyze command
type AnalyzeCommand struct {
	fs         filesystem.FileSystem
	poller     poller.Client
	gitFactory GitFactory
	ghClient   github.GitHubClient
}

// NewAnalyzeCommand creates a new analyze command
func NewAnalyzeCommand(fs filesystem.FileSystem, pollClient poller.Client, gitFactory GitFactory, ghClient github.GitHubClient) *cobra.Command {
	cmd := &AnalyzeCommand{
		fs:         fs,
		poller:     pollClient,
		gitFactory: gitFactory,
		ghClient:   ghClient,
	}

	cobraCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Poll all environments and report per-environment commit diffs",
		Long: `Polls the status endpoint of every configured project in every
environment, resolves the deployed references against the project's git
history and reports which commits each environment carries exclusively.`,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringP("config", "c", "config.yaml", "Path to the configuration file")
	cobraCmd.Flags().StringP("output", "o", "report.html", "Path of the HTML report")
	cobraCmd.Flags().String("csv-output", "", "Path of the CSV report (CSV skipped when empty)")
	cobraCmd.Flags().String("csv-format", "summary", "CSV layout: summary or detailed")
	cobraCmd.Flags().Bool("csv-only", false, "Skip the HTML report")
	cobraCmd.Flags().Bool("cleanup", false, "Remove all managed clones after the run")

	return cobraCmd
}

// Run executes the analyze command
func (c *AnalyzeCommand) Run(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outputPath, _ := cmd.Flags().GetString("output")
	csvOutput, _ := cmd.Flags().GetString("csv-output")
	csvFormatFlag, _ := cmd.Flags().GetString("csv-format")
	csvOnly, _ := cmd.Flags().GetBool("csv-only")
	cleanup, _ := cmd.Flags().GetBool("cleanup")

	csvFormat, err := report.ParseCSVFormat(csvFormatFlag)
	if err != nil {
		return err
	}
	if csvOnly && csvOutput == "" {
		csvOutput = "report.csv"
	}

	cfg, err := config.Load(c.fs, configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cmd, "analyze: ")
	gitClient := c.gitFactory(cfg.ReposDir, logger)
	anlz := analyzer.New(c.poller, gitClient, cfg.Lookback, logger)

	ctx := context.Background()
	runID := report.NewRunID()

	fmt.Printf("🔍 Analyzing %d project(s) (run %s)\n\n", len(cfg.Projects), runID)

	var analyses []*models.ProjectAnalysis
	for i := range cfg.Projects {
		project := &cfg.Projects[i]

		fmt.Printf("  %s...", project.Name)
		analysis := anlz.AnalyzeProject(ctx, project)
		if analysis == nil {
			fmt.Printf(" %s\n", tui.WarningStyle.Render("skipped"))
			continue
		}

		c.enrich(ctx, project.RepoURL, analysis)

		if report.Synced(analysis) {
			fmt.Printf(" %s\n", tui.SuccessStyle.Render("up to date"))
		} else {
			fmt.Printf(" done\n")
		}
		analyses = append(analyses, analysis)
	}

	if len(analyses) == 0 {
		fmt.Printf("\n%s\n", tui.WarningStyle.Render("No project could be analyzed, no report written"))
		return nil
	}

	fmt.Println()
	if !csvOnly {
		if err := report.NewHTMLGenerator(c.fs).Generate(analyses, cfg.Projects, runID, outputPath); err != nil {
			return err
		}
		fmt.Printf("📄 HTML report written to %s\n", outputPath)
	}
	if csvOutput != "" {
		if err := report.NewCSVGenerator(c.fs).Generate(analyses, csvFormat, runID, csvOutput); err != nil {
			return err
		}
		fmt.Printf("📄 CSV report (%s) written to %s\n", csvFormat, csvOutput)
	}

	printTicketStats(analyses)

	if cleanup {
		if err := gitClient.CleanupAll(); err != nil {
			fmt.Printf("%s\n", tui.ErrorStyle.Render(fmt.Sprintf("Failed to clean up clones: %v", err)))
		} else {
			fmt.Println("🧹 Removed all managed clones")
		}
	}

	return nil
}

// enrich annotates exclusive commits with pull request data. Best effort:
// missing token, non-GitHub remotes and API failures all leave the analysis
// untouched.
func (c *AnalyzeCommand) enrich(ctx context.Context, repoURL string, analysis *models.ProjectAnalysis) {
	if c.ghClient == nil {
		return
	}
	owner, repoName, ok := github.ParseRemote(repoURL)
	if !ok {
		return
	}

	enricher := github.NewEnricher(c.ghClient)
	for env, state := range analysis.Environments {
		result, err := enricher.Enrich(ctx, state.Commits, owner, repoName)
		if err != nil {
			return
		}
		for _, warning := range result.Warnings {
			fmt.Printf("\n    %s", tui.SubtleStyle.Render(fmt.Sprintf("⚠️  %v", warning)))
		}
		analysis.Environments[env] = state
	}
}

func printTicketStats(analyses []*models.ProjectAnalysis) {
	stats := report.CollectTicketStats(analyses)
	if stats.Total == 0 {
		return
	}

	fmt.Printf("\n🎫 %d ticket(s) in flight: %d in a single environment, %d in several\n",
		stats.Total, stats.SingleEnv, stats.MultiEnv)
	for _, env := range models.DefaultPromotionOrder() {
		if count := stats.ByEnvironment[env]; count > 0 {
			fmt.Printf("   %s: %d\n", env, count)
		}
	}
}
