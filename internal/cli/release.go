package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakoblorz/release-trucker/internal/config"
	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/git"
	"github.com/jakoblorz/release-trucker/internal/models"
	"github.com/jakoblorz/release-trucker/internal/release"
	"github.com/jakoblorz/release-trucker/internal/tui"
	"github.com/jakoblorz/release-trucker/internal/tui/components"
)

// ReleaseCommand handles the release command
type ReleaseCommand struct {
	fs         filesystem.FileSystem
	gitFactory GitFactory
}

// NewReleaseCommand creates a new release command
func NewReleaseCommand(fs filesystem.FileSystem, gitFactory GitFactory) *cobra.Command {
	cmd := &ReleaseCommand{
		fs:         fs,
		gitFactory: gitFactory,
	}

	cobraCmd := &cobra.Command{
		Use:   "release <TICKET>",
		Short: "Prepare release branches and version tags for a ticket",
		Long: `Prepares a release for every configured project: checks out or
creates the release/<TICKET> branch, derives the next version from the
existing tags and, after confirmation, pushes the branch and an annotated
version tag.`,
		Args: cobra.ExactArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringP("config", "c", "config.yaml", "Path to the configuration file")
	cobraCmd.Flags().BoolP("yes", "y", false, "Push without asking for confirmation")

	return cobraCmd
}

// Run executes the release command
func (c *ReleaseCommand) Run(cmd *cobra.Command, args []string) error {
	ticket := args[0]
	if !models.ValidTicket(ticket) {
		return fmt.Errorf("invalid ticket %q (expected e.g. ABC-123)", ticket)
	}

	configPath, _ := cmd.Flags().GetString("config")
	assumeYes, _ := cmd.Flags().GetBool("yes")

	cfg, err := config.Load(c.fs, configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cmd, "release: ")
	gitClient := c.gitFactory(cfg.ReposDir, logger)
	manager := release.NewManager(gitClient, logger)

	ctx := context.Background()

	fmt.Printf("%s\n\n", tui.TitleStyle.Render(fmt.Sprintf("🚀 Release %s", ticket)))

	released := 0
	for i := range cfg.Projects {
		project := &cfg.Projects[i]

		decision, repo, skip := manager.PrepareRelease(ctx, project, ticket)
		if skip != release.SkipNone {
			fmt.Printf("%s %s\n", project.Name, tui.WarningStyle.Render(fmt.Sprintf("skipped: %s", skip)))
			continue
		}

		fmt.Println(tui.BorderStyle.Render(fmt.Sprintf(
			"%s\nbranch   %s\nversion  %s\ncommits  %d unreleased",
			project.Name, decision.ReleaseBranch, decision.NewVersion, decision.CommitCount)))

		if err := c.push(manager, repo, decision, assumeYes); err != nil {
			fmt.Printf("%s\n", tui.ErrorStyle.Render(fmt.Sprintf("Failed to release %s: %v", project.Name, err)))
			continue
		}
		released++
	}

	if released == 0 {
		fmt.Printf("\n%s\n", tui.SubtleStyle.Render("Nothing released"))
		return nil
	}

	fmt.Printf("\n%s\n", tui.SuccessStyle.Render(fmt.Sprintf("🎉 Released %d project(s)", released)))
	return nil
}

// push pushes the branch and tag through the clone handle PrepareRelease
// returned. The handle must not be refreshed in between: a refresh checks
// out and resets the main branch, and the tag would land there instead of on
// the release branch head.
func (c *ReleaseCommand) push(manager *release.Manager, repo *git.Repo, decision *models.ReleaseDecision, assumeYes bool) error {
	if !assumeYes {
		ok, err := components.RunConfirm(fmt.Sprintf("Push %s to origin for %s?", decision.ReleaseBranch, decision.ProjectName))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("%s\n", tui.SubtleStyle.Render("Branch not pushed"))
			return nil
		}
	}

	if err := manager.PushBranch(repo, decision.ReleaseBranch); err != nil {
		return fmt.Errorf("failed to push branch: %w", err)
	}
	fmt.Printf("Pushed %s\n", decision.ReleaseBranch)

	tagName := decision.NewVersion.String()
	message := fmt.Sprintf("Release %s for %s", tagName, decision.Ticket)
	if err := manager.CreateTag(repo, tagName, message); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", tagName, err)
	}
	fmt.Printf("Created tag %s\n", tagName)

	if !assumeYes {
		ok, err := components.RunConfirm(fmt.Sprintf("Push tag %s to origin?", tagName))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("%s\n", tui.SubtleStyle.Render("Tag not pushed"))
			return nil
		}
	}

	if err := manager.PushTag(repo, tagName); err != nil {
		return fmt.Errorf("failed to push tag: %w", err)
	}
	fmt.Printf("Pushed tag %s\n", tagName)

	return nil
}
