package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/git"
	"github.com/jakoblorz/release-trucker/internal/github"
	"github.com/jakoblorz/release-trucker/internal/poller"
)

// GitFactory builds a git client rooted at the configured clone directory.
// The directory only becomes known after the config file is loaded, so
// commands construct their git client through this instead of receiving one.
type GitFactory func(reposRoot string, logger *log.Logger) git.Client

// NewRootCommand creates the root command
func NewRootCommand(fs filesystem.FileSystem, pollClient poller.Client, gitFactory GitFactory, ghClient github.GitHubClient) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trucker",
		Short: "Track deployments across environments and cut releases",
		Long: `A CLI tool for tracking which commits run in which environment.

Trucker polls each service's status endpoint, diffs the deployed commits
along the promotion chain (DEV, TEST, PRE, PROD) and reports what each
environment carries that the next one does not. It can also prepare release
branches and version tags from the collected state.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewAnalyzeCommand(fs, pollClient, gitFactory, ghClient))
	rootCmd.AddCommand(NewReleaseCommand(fs, gitFactory))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	fs := filesystem.NewOSFileSystem()
	pollClient := poller.NewActuatorClient(10*time.Second, nil)

	gitFactory := func(reposRoot string, logger *log.Logger) git.Client {
		return git.NewOSClient(reposRoot, fs, logger)
	}

	rootCmd := NewRootCommand(fs, pollClient, gitFactory, githubClientFromEnv())

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}

// githubClientFromEnv returns a GitHub client when a token is configured.
// Without a token it returns the nil interface itself, never a typed nil
// pointer: the enrichment guards compare against nil and a typed nil would
// slip past them only to crash on first use.
func githubClientFromEnv() github.GitHubClient {
	client, err := github.NewClientFromEnv()
	if err != nil {
		return nil
	}
	return client
}

// newLogger returns a stderr logger when verbose is set, a silent one
// otherwise. Progress output goes through fmt either way.
func newLogger(cmd *cobra.Command, prefix string) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return log.New(os.Stderr, prefix, log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}
