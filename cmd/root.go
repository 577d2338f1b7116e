// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/naka-gawa/github-star-badge/internal/settings"
	"github.com/naka-gawa/github-star-badge/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "github-star-badge",
	Short: "Annotates GitHub repository links in a page with their star counts.",
	Long: `github-star-badge finds links to GitHub repositories inside the page's
root containers and appends a badge showing each repository's star count.
Counts are fetched from the GitHub API once per repository and session.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	// Add a persistent flag for verbose output, available to all commands.
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.github-star-badge.yaml)")
	flags.String("token", "", "GitHub personal access token (or SHOW_GITHUB_STAR_GITHUB_TOKEN / GITHUB_TOKEN)")
	flags.String("star-color", "", "CSS color of the star icon (default orange)")
	flags.String("number-color", "", "CSS color of the star count (default orange)")
	flags.String("api", "rest", "GitHub API used to fetch star counts: rest or graphql")
	flags.String("api-url", "", "GitHub API base URL, for GitHub Enterprise")
	flags.Duration("wait", watcher.DefaultWait, "Quiet period after a page change before re-scanning")
	flags.Int("concurrency", watcher.DefaultConcurrency, "Links resolved in parallel during a scan")
	flags.StringSlice("root", nil, "Root container selector to watch (repeatable; default main content and right sidebar)")

	_ = viper.BindPFlag(settings.TokenKey, flags.Lookup("token"))
	_ = viper.BindPFlag(settings.StarColorKey, flags.Lookup("star-color"))
	_ = viper.BindPFlag(settings.NumberColorKey, flags.Lookup("number-color"))
	for _, name := range []string{"api", "api-url", "wait", "concurrency", "root"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}
